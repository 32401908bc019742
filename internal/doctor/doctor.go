// Package doctor checks that a merged manifest is launchable in the current
// environment: server commands resolvable, helper scripts present, CLI
// version gate satisfied. It never starts a process.
package doctor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/treadlabs/treads/internal/manifest"
)

// Check writes a diagnostic report for the merged manifest and returns the
// number of problems found. Findings are advisory; a missing command is a
// problem for runtime, not for the merge itself.
func Check(w io.Writer, m *manifest.Manifest, cliVersion string) int {
	problems := 0

	fmt.Fprintln(w, "Manifest check:")
	problems += checkMinVersion(w, m.MinVersion, cliVersion)

	names := make([]string, 0, len(m.MCPServers))
	for name, sc := range m.MCPServers {
		if sc.Declared {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintln(w, "  [ OK ] no mcp servers declared")
		return problems
	}

	for _, name := range names {
		problems += checkServer(w, name, m.MCPServers[name])
	}
	return problems
}

func checkServer(w io.Writer, name string, sc manifest.ServerConfig) int {
	problems := 0

	if sc.Command == "" {
		fmt.Fprintf(w, "  [WARN] server %q declares no command\n", name)
		return 1
	}

	if _, err := exec.LookPath(sc.Command); err != nil {
		fmt.Fprintf(w, "  [MISS] server %q: command %q not found on PATH\n", name, sc.Command)
		problems++
	} else {
		fmt.Fprintf(w, "  [ OK ] server %q: command %q\n", name, sc.Command)
	}

	for _, arg := range sc.Args {
		if !strings.HasSuffix(arg, ".py") {
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			fmt.Fprintf(w, "  [MISS] server %q: script %s does not exist\n", name, arg)
			problems++
		} else {
			fmt.Fprintf(w, "  [ OK ] server %q: script %s\n", name, arg)
		}
	}
	return problems
}

// checkMinVersion compares the running CLI version against the manifest's
// minVersion gate. Dev builds (unparseable versions) only warn, so local
// builds are not blocked by a gate meant for releases.
func checkMinVersion(w io.Writer, minVersion, cliVersion string) int {
	if minVersion == "" {
		return 0
	}

	min, err := semver.NewVersion(strings.TrimPrefix(minVersion, "v"))
	if err != nil {
		fmt.Fprintf(w, "  [WARN] minVersion %q is not valid semver\n", minVersion)
		return 1
	}
	cur, err := semver.NewVersion(strings.TrimPrefix(cliVersion, "v"))
	if err != nil {
		fmt.Fprintf(w, "  [WARN] cannot compare CLI version %q against minVersion %s\n", cliVersion, min)
		return 1
	}
	if cur.LessThan(min) {
		fmt.Fprintf(w, "  [WARN] CLI version %s is older than required minVersion %s\n", cur, min)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] CLI version %s satisfies minVersion %s\n", cur, min)
	return 0
}
