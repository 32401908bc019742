package cli

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/branding"
	"github.com/treadlabs/treads/internal/scaffold"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

var createAgentsDir string

func init() {
	createCmd.PersistentFlags().StringVar(&createAgentsDir, "agents-dir", "", "Directory containing agent subdirectories (default \"agents\")")
	rootCmd.AddCommand(createCmd)

	createCmd.AddCommand(createAgentCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold a new treads type from a template",
	Long:  `Create a new agent from the built-in scaffolding templates.`,
}

var createAgentCmd = &cobra.Command{
	Use:   "agent <name>",
	Short: "Scaffold a new agent",
	Long: `Scaffold a new agent directory with a manifest and helper-script stubs.

Example:
  ` + branding.CLIName() + ` create agent billing`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateName(name); err != nil {
			return err
		}

		agentsDir := createAgentsDir
		if agentsDir == "" {
			agentsDir = defaultOptions().AgentsDir
		}

		result, err := scaffold.Agent(name, agentsDir)
		if err != nil {
			return err
		}

		printResult("agent", result)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Edit tools.py to implement the agent's tools")
		fmt.Println("  2. Edit nanobot.yaml to declare what the agent publishes")
		fmt.Printf("  3. Run '%s merge' to fold it into the project manifest\n", branding.CLIName())
		return nil
	},
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: must match pattern [a-z0-9][a-z0-9-]*", name)
	}
	return nil
}

func printResult(typeName string, result *scaffold.Result) {
	fmt.Printf("Created %s at %s/\n", typeName, result.OutputDir)
	for _, f := range result.Files {
		fmt.Printf("  %s\n", f)
	}
	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
