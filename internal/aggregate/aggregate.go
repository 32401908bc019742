package aggregate

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/treadlabs/treads/internal/discovery"
	"github.com/treadlabs/treads/internal/manifest"
)

// Default option values matching the conventional project layout.
const (
	DefaultAgentsDir    = "agents"
	DefaultRootAgent    = "app"
	DefaultManifestName = "nanobot.yaml"
	DefaultOutputPath   = "nanobot.yaml"
)

// Options configures one aggregation pass. All paths are explicit so tests
// can point a pass at a temporary directory; nothing reads process-wide
// state.
type Options struct {
	// AgentsDir is the directory containing one subdirectory per agent.
	AgentsDir string
	// RootAgent names the agent whose manifest seeds the merge. Its
	// directory is not treated as a subordinate agent.
	RootAgent string
	// ManifestName is the manifest file name within each agent directory.
	ManifestName string
	// OutputPath is where MergeAndWrite places the merged manifest.
	OutputPath string
	// Strict turns a second conflicting agents/mcpServers key or a second
	// entrypoint declaration into a hard error instead of last-wins.
	Strict bool
}

func (o Options) withDefaults() Options {
	if o.AgentsDir == "" {
		o.AgentsDir = DefaultAgentsDir
	}
	if o.RootAgent == "" {
		o.RootAgent = DefaultRootAgent
	}
	if o.ManifestName == "" {
		o.ManifestName = DefaultManifestName
	}
	if o.OutputPath == "" {
		o.OutputPath = DefaultOutputPath
	}
	return o
}

// loaded pairs a discovered agent with its parsed manifest.
type loaded struct {
	agent    discovery.Agent
	manifest *manifest.Manifest
}

// Merge runs one aggregation pass and returns the merged manifest without
// writing it. A missing root manifest contributes nothing; agent directories
// without a manifest file are skipped. A manifest that exists but fails to
// parse aborts the whole pass with an error naming the agent, since a partial
// merge would silently disable that agent's capabilities at runtime.
//
// Subordinate agents are folded in lexicographic directory order, so merge
// output is deterministic across filesystems. On key collisions the
// last-folded agent wins unless Strict is set.
func Merge(opts Options) (*manifest.Manifest, error) {
	opts = opts.withDefaults()

	absRoot, err := filepath.Abs(opts.AgentsDir)
	if err != nil {
		return nil, fmt.Errorf("resolving agents directory %s: %w", opts.AgentsDir, err)
	}

	agents, err := discovery.Agents(opts.AgentsDir, opts.ManifestName)
	if err != nil {
		return nil, err
	}

	var root *loaded
	var subs []loaded
	for _, a := range agents {
		m, err := manifest.Load(a.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", a.Name, err)
		}
		l := loaded{agent: a, manifest: m}
		if a.Name == opts.RootAgent {
			root = &l
		} else {
			subs = append(subs, l)
		}
	}

	merged := &manifest.Manifest{
		Publish: manifest.Publish{
			Tools:             []string{},
			Prompts:           []manifest.PromptEntry{},
			Resources:         []string{},
			ResourceTemplates: []string{},
		},
		Agents:     map[string]any{},
		MCPServers: map[string]manifest.ServerConfig{},
	}

	// The root manifest seeds the merge: its publish lists come first (so
	// its prompts lead the first-seen ordering) and its servers merge
	// before any subordinate, letting subordinates override it.
	if root != nil {
		appendPublish(&merged.Publish, &root.manifest.Publish)
		if err := mergeAgents(merged, root.agent.Name, root.manifest.Agents, false); err != nil {
			return nil, err
		}
		servers := RewriteServerPaths(absRoot, root.agent.Name, root.manifest.MCPServers)
		if err := mergeServers(merged, root.agent.Name, servers, false); err != nil {
			return nil, err
		}
		mergeMinVersion(merged, root.manifest.MinVersion)
	}

	for _, l := range subs {
		appendPublish(&merged.Publish, &l.manifest.Publish)
		if err := mergeAgents(merged, l.agent.Name, l.manifest.Agents, opts.Strict); err != nil {
			return nil, err
		}
		servers := RewriteServerPaths(absRoot, l.agent.Name, l.manifest.MCPServers)
		if err := mergeServers(merged, l.agent.Name, servers, opts.Strict); err != nil {
			return nil, err
		}
		mergeMinVersion(merged, l.manifest.MinVersion)
	}

	normalizePublish(&merged.Publish)

	entrypoint, err := resolveEntrypoint(root, subs, opts.Strict)
	if err != nil {
		return nil, err
	}
	merged.Publish.Entrypoint = entrypoint

	return merged, nil
}

// appendPublish folds one manifest's publish lists into the aggregate,
// without deduplicating yet.
func appendPublish(dst, src *manifest.Publish) {
	dst.Tools = append(dst.Tools, src.Tools...)
	dst.Prompts = append(dst.Prompts, src.Prompts...)
	dst.Resources = append(dst.Resources, src.Resources...)
	dst.ResourceTemplates = append(dst.ResourceTemplates, src.ResourceTemplates...)
}

// mergeAgents shallow-merges one manifest's agents map into the aggregate.
func mergeAgents(dst *manifest.Manifest, agentName string, src map[string]any, strict bool) error {
	for name, def := range src {
		if _, exists := dst.Agents[name]; exists && strict {
			return fmt.Errorf("agent %q redeclares agent definition %q", agentName, name)
		}
		dst.Agents[name] = def
	}
	return nil
}

// mergeServers merges rewritten server declarations into the aggregate,
// dropping entries that were null or not a mapping in the source manifest.
func mergeServers(dst *manifest.Manifest, agentName string, src map[string]manifest.ServerConfig, strict bool) error {
	for name, sc := range src {
		if !sc.Declared {
			continue
		}
		if _, exists := dst.MCPServers[name]; exists && strict {
			return fmt.Errorf("agent %q redeclares mcp server %q", agentName, name)
		}
		dst.MCPServers[name] = sc
	}
	return nil
}

// mergeMinVersion keeps the highest declared CLI version requirement. A
// requirement that does not parse as semver falls back to last-wins so a
// typo in one agent cannot hide another agent's gate.
func mergeMinVersion(dst *manifest.Manifest, v string) {
	if v == "" {
		return
	}
	if dst.MinVersion == "" {
		dst.MinVersion = v
		return
	}
	cur, errCur := semver.NewVersion(dst.MinVersion)
	next, errNext := semver.NewVersion(v)
	if errCur != nil || errNext != nil {
		dst.MinVersion = v
		return
	}
	if next.GreaterThan(cur) {
		dst.MinVersion = v
	}
}

// normalizePublish applies the aggregate invariants: tools, resources, and
// resourceTemplates each contain a value at most once and are sorted;
// prompts keep first-seen order with duplicates and invalid entries dropped.
func normalizePublish(p *manifest.Publish) {
	p.Tools = dedupSorted(p.Tools)
	p.Resources = dedupSorted(p.Resources)
	p.ResourceTemplates = dedupSorted(p.ResourceTemplates)
	p.Prompts = dedupPrompts(p.Prompts)
}

func dedupSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func dedupPrompts(prompts []manifest.PromptEntry) []manifest.PromptEntry {
	seen := make(map[string]bool, len(prompts))
	out := make([]manifest.PromptEntry, 0, len(prompts))
	for _, p := range prompts {
		if !p.Valid || seen[p.Value] {
			continue
		}
		seen[p.Value] = true
		out = append(out, p)
	}
	return out
}

// resolveEntrypoint picks the single project entrypoint: the last subordinate
// (in fold order) declaring one wins, falling back to the root manifest. An
// empty result means no manifest declared one, which is not an error here.
func resolveEntrypoint(root *loaded, subs []loaded, strict bool) (string, error) {
	var entrypoint, declaredBy string
	for _, l := range subs {
		ep := l.manifest.Publish.Entrypoint
		if ep == "" {
			continue
		}
		if declaredBy != "" && strict {
			return "", fmt.Errorf("agents %q and %q both declare an entrypoint", declaredBy, l.agent.Name)
		}
		entrypoint = ep
		declaredBy = l.agent.Name
	}
	if entrypoint == "" && root != nil {
		entrypoint = root.manifest.Publish.Entrypoint
	}
	return entrypoint, nil
}
