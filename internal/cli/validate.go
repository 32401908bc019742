package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/discovery"
	"github.com/treadlabs/treads/internal/manifest"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate manifest files against the schema",
	Long: `Validate manifest files against the built-in nanobot manifest schema.
Without arguments, every discovered agent manifest is validated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			opts := defaultOptions()
			agents, err := discovery.Agents(opts.AgentsDir, opts.ManifestName)
			if err != nil {
				return err
			}
			if len(agents) == 0 {
				fmt.Printf("No agent manifests found under %s/\n", opts.AgentsDir)
				return nil
			}
			for _, a := range agents {
				paths = append(paths, a.ManifestPath)
			}
		}

		invalid := 0
		for _, path := range paths {
			result, err := manifest.ValidateFile(path)
			if err != nil {
				return fmt.Errorf("validating %s: %w", path, err)
			}
			if result.Valid {
				fmt.Printf("OK    %s\n", path)
				continue
			}
			invalid++
			fmt.Printf("FAIL  %s\n", path)
			for _, issue := range result.Issues {
				msg := issue.Message
				if issue.Path != "" {
					msg = issue.Path + ": " + msg
				}
				fmt.Printf("        %s\n", msg)
			}
		}

		if invalid > 0 {
			return fmt.Errorf("%d manifest(s) failed validation", invalid)
		}
		return nil
	},
}
