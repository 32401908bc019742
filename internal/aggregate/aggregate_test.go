package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/treadlabs/treads/internal/manifest"
)

// writeAgent creates agents/<name>/nanobot.yaml under root with the given
// content and returns the agent directory.
func writeAgent(t *testing.T, agentsDir, name, content string) string {
	t.Helper()
	dir := filepath.Join(agentsDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nanobot.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testOptions(t *testing.T) (Options, string) {
	t.Helper()
	root := t.TempDir()
	agentsDir := filepath.Join(root, "agents")
	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return Options{
		AgentsDir:  agentsDir,
		OutputPath: filepath.Join(root, "nanobot.yaml"),
	}, agentsDir
}

func promptValues(entries []manifest.PromptEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeDedupAndSortTools(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "publish:\n  tools: [search, zeta]\n")
	writeAgent(t, agentsDir, "beta", "publish:\n  tools: [search, answer]\n")

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := []string{"answer", "search", "zeta"}
	if !equalStrings(m.Publish.Tools, want) {
		t.Errorf("Tools = %v, want %v", m.Publish.Tools, want)
	}
}

func TestMergePromptFirstSeenOrder(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "publish:\n  prompts: [x, y]\n")
	writeAgent(t, agentsDir, "beta", "publish:\n  prompts: [y, z]\n")

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := []string{"x", "y", "z"}
	if got := promptValues(m.Publish.Prompts); !equalStrings(got, want) {
		t.Errorf("Prompts = %v, want %v", got, want)
	}
}

func TestMergeRootPromptsLead(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "app", "publish:\n  prompts: [root_prompt]\n")
	writeAgent(t, agentsDir, "alpha", "publish:\n  prompts: [alpha_prompt, root_prompt]\n")

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := []string{"root_prompt", "alpha_prompt"}
	if got := promptValues(m.Publish.Prompts); !equalStrings(got, want) {
		t.Errorf("Prompts = %v, want %v", got, want)
	}
}

func TestMergePathRewriting(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "billing", `publish:
  tools: [invoice]
mcpServers:
  billing_tools:
    command: uv
    args: ["run", "tools.py", "--verbose"]
`)

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	sc, ok := m.MCPServers["billing_tools"]
	if !ok {
		t.Fatal("merged manifest missing billing_tools")
	}

	absRoot, err := filepath.Abs(opts.AgentsDir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"run", filepath.Join(absRoot, "billing", "tools.py"), "--verbose"}
	if !equalStrings(sc.Args, want) {
		t.Errorf("Args = %v, want %v", sc.Args, want)
	}
}

func TestMergeSkipsUndeclaredServers(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", `mcpServers:
  disabled_server:
  live_server:
    command: uv
`)

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, ok := m.MCPServers["disabled_server"]; ok {
		t.Error("null server entry was merged, want skipped")
	}
	if _, ok := m.MCPServers["live_server"]; !ok {
		t.Error("declared server missing from merge")
	}
}

func TestMergeEntrypoint(t *testing.T) {
	tests := []struct {
		name   string
		agents map[string]string
		want   string
	}{
		{
			name: "subordinate wins over root",
			agents: map[string]string{
				"app":   "publish:\n  entrypoint: app\n",
				"alpha": "publish:\n  entrypoint: alpha_main\n",
			},
			want: "alpha_main",
		},
		{
			name: "last subordinate wins",
			agents: map[string]string{
				"alpha": "publish:\n  entrypoint: alpha_main\n",
				"beta":  "publish:\n  entrypoint: beta_main\n",
			},
			want: "beta_main",
		},
		{
			name: "root fallback",
			agents: map[string]string{
				"app":   "publish:\n  entrypoint: app\n",
				"alpha": "publish:\n  tools: [search]\n",
			},
			want: "app",
		},
		{
			name: "no entrypoint anywhere",
			agents: map[string]string{
				"alpha": "publish:\n  tools: [search]\n",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, agentsDir := testOptions(t)
			for name, content := range tt.agents {
				writeAgent(t, agentsDir, name, content)
			}
			m, err := Merge(opts)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if m.Publish.Entrypoint != tt.want {
				t.Errorf("Entrypoint = %q, want %q", m.Publish.Entrypoint, tt.want)
			}
		})
	}
}

func TestMergeAgentsLastWins(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "agents:\n  helper:\n    model: alpha-model\n")
	writeAgent(t, agentsDir, "beta", "agents:\n  helper:\n    model: beta-model\n")

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	def, ok := m.Agents["helper"].(map[string]any)
	if !ok {
		t.Fatalf("Agents[helper] = %T, want map", m.Agents["helper"])
	}
	if got, want := def["model"], "beta-model"; got != want {
		t.Errorf("helper model = %v, want %v", got, want)
	}
}

func TestMergeStrictConflicts(t *testing.T) {
	tests := []struct {
		name    string
		alpha   string
		beta    string
		wantErr string
	}{
		{
			name:    "agent definition",
			alpha:   "agents:\n  helper:\n    model: a\n",
			beta:    "agents:\n  helper:\n    model: b\n",
			wantErr: `redeclares agent definition "helper"`,
		},
		{
			name:    "mcp server",
			alpha:   "mcpServers:\n  tools:\n    command: uv\n",
			beta:    "mcpServers:\n  tools:\n    command: npx\n",
			wantErr: `redeclares mcp server "tools"`,
		},
		{
			name:    "entrypoint",
			alpha:   "publish:\n  entrypoint: a\n",
			beta:    "publish:\n  entrypoint: b\n",
			wantErr: "both declare an entrypoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, agentsDir := testOptions(t)
			opts.Strict = true
			writeAgent(t, agentsDir, "alpha", tt.alpha)
			writeAgent(t, agentsDir, "beta", tt.beta)

			_, err := Merge(opts)
			if err == nil {
				t.Fatal("Merge() expected strict conflict error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMergeStrictRootNotConflicting(t *testing.T) {
	opts, agentsDir := testOptions(t)
	opts.Strict = true
	writeAgent(t, agentsDir, "app", `publish:
  entrypoint: app
agents:
  helper:
    model: root-model
mcpServers:
  tools:
    command: uv
`)
	writeAgent(t, agentsDir, "alpha", "publish:\n  tools: [search]\n")

	if _, err := Merge(opts); err != nil {
		t.Fatalf("Merge() error = %v, want nil (root declarations alone never conflict)", err)
	}
}

func TestMergeMalformedManifestAborts(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "publish:\n  tools: [search]\n")
	writeAgent(t, agentsDir, "bad", "publish: [unclosed\n  tools: {{{\n")

	_, err := Merge(opts)
	if err == nil {
		t.Fatal("Merge() expected error for malformed manifest, got nil")
	}
	if !strings.Contains(err.Error(), `agent "bad"`) {
		t.Errorf("error = %q, want naming the failing agent", err)
	}
}

func TestMergeMinVersionHighestWins(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "minVersion: 1.4.0\n")
	writeAgent(t, agentsDir, "beta", "minVersion: 1.2.0\n")

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got, want := m.MinVersion, "1.4.0"; got != want {
		t.Errorf("MinVersion = %q, want %q", got, want)
	}
}

func TestMergeMissingAgentsDir(t *testing.T) {
	root := t.TempDir()
	opts := Options{
		AgentsDir:  filepath.Join(root, "agents"),
		OutputPath: filepath.Join(root, "nanobot.yaml"),
	}
	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(m.Publish.Tools) != 0 || len(m.Agents) != 0 || len(m.MCPServers) != 0 {
		t.Errorf("empty project merge not empty: %+v", m)
	}
}

func TestMergeSkipsDirsWithoutManifest(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "publish:\n  tools: [search]\n")
	if err := os.MkdirAll(filepath.Join(agentsDir, "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := Merge(opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !equalStrings(m.Publish.Tools, []string{"search"}) {
		t.Errorf("Tools = %v, want [search]", m.Publish.Tools)
	}
}

func TestMergeAndWriteIdempotent(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "app", "publish:\n  entrypoint: app\n")
	writeAgent(t, agentsDir, "alpha", `publish:
  tools: [search]
mcpServers:
  tools:
    command: uv
    args: ["run", "tools.py"]
`)

	ctx := context.Background()
	if err := MergeAndWrite(ctx, opts); err != nil {
		t.Fatalf("MergeAndWrite() error = %v", err)
	}
	first, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(first), manifest.Banner) {
		t.Errorf("output missing banner:\n%s", first)
	}

	if err := MergeAndWrite(ctx, opts); err != nil {
		t.Fatalf("MergeAndWrite() second pass error = %v", err)
	}
	second, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("unchanged inputs produced different output:\n%s\n---\n%s", first, second)
	}
}

func TestMergeAndWriteLeavesPreviousOutputOnFailure(t *testing.T) {
	opts, agentsDir := testOptions(t)
	writeAgent(t, agentsDir, "alpha", "publish:\n  tools: [search]\n")

	ctx := context.Background()
	if err := MergeAndWrite(ctx, opts); err != nil {
		t.Fatalf("MergeAndWrite() error = %v", err)
	}
	before, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}

	writeAgent(t, agentsDir, "bad", "publish: [unclosed\n  tools: {{{\n")
	if err := MergeAndWrite(ctx, opts); err == nil {
		t.Fatal("MergeAndWrite() expected error for malformed agent, got nil")
	}

	after, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("failed pass modified previous output")
	}
}
