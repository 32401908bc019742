package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/branding"
	"github.com/treadlabs/treads/internal/scaffold"
)

var initOutputDir string

func init() {
	initCmd.Flags().StringVar(&initOutputDir, "output-dir", "", "Output directory (default: ./<name>)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <project>",
	Short: "Scaffold a new treads project",
	Long: `Scaffold a new treads project: an agents/ directory seeded with the root
"app" agent, a static/ directory, and project boilerplate.

Example:
  ` + branding.CLIName() + ` init my-assistant`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateName(name); err != nil {
			return err
		}

		outDir := initOutputDir
		if outDir == "" {
			outDir = filepath.Join(".", name)
		}

		result, err := scaffold.Project(name, outDir)
		if err != nil {
			return err
		}

		printResult("project", result)
		fmt.Println("\nNext steps:")
		fmt.Printf("  1. cd %s\n", outDir)
		fmt.Printf("  2. Run '%s create agent <name>' to add agents\n", branding.CLIName())
		fmt.Printf("  3. Run '%s merge' to produce the project manifest\n", branding.CLIName())
		return nil
	},
}
