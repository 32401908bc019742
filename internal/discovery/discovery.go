// Package discovery locates agent directories and their manifests under a
// project's agents root.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/treadlabs/treads/internal/manifest"
)

// Agent is one agent directory that carries a manifest file.
type Agent struct {
	Name         string // directory name, e.g. "billing"
	Dir          string // absolute path to the agent directory
	ManifestPath string // absolute path to the manifest file
}

// Agents returns every subdirectory of agentsDir that contains manifestName,
// sorted lexicographically by name so downstream merges are deterministic.
// Directories without the manifest file are skipped; a missing agentsDir is
// not an error and yields an empty list.
func Agents(agentsDir, manifestName string) ([]Agent, error) {
	absRoot, err := filepath.Abs(agentsDir)
	if err != nil {
		return nil, fmt.Errorf("resolving agents directory %s: %w", agentsDir, err)
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading agents directory %s: %w", absRoot, err)
	}

	var agents []Agent
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(absRoot, e.Name())
		mf := filepath.Join(dir, manifestName)
		if _, err := os.Stat(mf); err != nil {
			continue
		}
		agents = append(agents, Agent{
			Name:         e.Name(),
			Dir:          dir,
			ManifestPath: mf,
		})
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

// Summary describes one agent's manifest for display purposes.
type Summary struct {
	Agent
	Tools      int
	Prompts    int
	Resources  int
	Servers    int
	Entrypoint string
	Err        error // non-nil if the manifest failed to load
}

// Summarize loads every discovered agent's manifest and returns per-agent
// counts. Unlike aggregation, a manifest that fails to load does not abort
// the listing; the failure is recorded on that agent's Summary.
func Summarize(agents []Agent) []Summary {
	summaries := make([]Summary, 0, len(agents))
	for _, a := range agents {
		s := Summary{Agent: a}
		m, err := manifest.Load(a.ManifestPath)
		if err != nil {
			s.Err = err
			summaries = append(summaries, s)
			continue
		}
		s.Tools = len(m.Publish.Tools)
		s.Prompts = len(m.Publish.Prompts)
		s.Resources = len(m.Publish.Resources) + len(m.Publish.ResourceTemplates)
		for _, sc := range m.MCPServers {
			if sc.Declared {
				s.Servers++
			}
		}
		s.Entrypoint = m.Publish.Entrypoint
		summaries = append(summaries, s)
	}
	return summaries
}
