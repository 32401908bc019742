package aggregate

import (
	"path/filepath"
	"strings"

	"github.com/treadlabs/treads/internal/manifest"
)

// scriptSuffix marks launch arguments that are helper scripts relative to the
// agent's own directory.
const scriptSuffix = ".py"

// RewriteServerPaths returns a copy of servers in which every argument ending
// in ".py" is replaced by its absolute location under the agent's directory,
// so the merged manifest launches each agent's helper from the project root.
// Entries that are not declared, or that have no argument list, pass through
// unchanged.
//
// The rewrite assumes unrewritten input: running it a second time would
// prefix the path again, so the aggregator applies it exactly once per agent
// per pass.
func RewriteServerPaths(agentsRoot, agentName string, servers map[string]manifest.ServerConfig) map[string]manifest.ServerConfig {
	if len(servers) == 0 {
		return servers
	}

	out := make(map[string]manifest.ServerConfig, len(servers))
	for name, sc := range servers {
		if !sc.Declared || len(sc.Args) == 0 {
			out[name] = sc
			continue
		}
		args := make([]string, len(sc.Args))
		for i, arg := range sc.Args {
			if strings.HasSuffix(arg, scriptSuffix) {
				args[i] = filepath.Join(agentsRoot, agentName, arg)
			} else {
				args[i] = arg
			}
		}
		sc.Args = args
		out[name] = sc
	}
	return out
}
