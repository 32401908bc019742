package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/discovery"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered agents",
	Long:  `List every agent directory carrying a manifest, with what it publishes.`,
	RunE:  runList,
}

// listEntry represents one discovered agent for display.
type listEntry struct {
	Name       string `json:"name"`
	Tools      int    `json:"tools"`
	Prompts    int    `json:"prompts"`
	Resources  int    `json:"resources"`
	Servers    int    `json:"servers"`
	Entrypoint string `json:"entrypoint,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	opts := defaultOptions()
	agents, err := discovery.Agents(opts.AgentsDir, opts.ManifestName)
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(agents))
	for _, s := range discovery.Summarize(agents) {
		e := listEntry{
			Name:       s.Name,
			Tools:      s.Tools,
			Prompts:    s.Prompts,
			Resources:  s.Resources,
			Servers:    s.Servers,
			Entrypoint: s.Entrypoint,
		}
		if s.Err != nil {
			e.Error = s.Err.Error()
		}
		entries = append(entries, e)
	}

	if listJSON {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling agent list: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(entries) == 0 {
		fmt.Printf("No agents found under %s/\n", opts.AgentsDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTOOLS\tPROMPTS\tRESOURCES\tSERVERS\tENTRYPOINT")
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t(manifest error)\n", e.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", e.Name, e.Tools, e.Prompts, e.Resources, e.Servers, e.Entrypoint)
	}
	return w.Flush()
}
