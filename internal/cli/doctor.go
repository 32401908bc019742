package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/aggregate"
	"github.com/treadlabs/treads/internal/doctor"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the merged manifest is launchable",
	Long: `Run an in-memory merge and verify the result against the current
environment: server commands resolvable on PATH, helper scripts present,
and the CLI version satisfying the manifest's minVersion gate. Nothing is
written and no process is started.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		merged, err := aggregate.Merge(defaultOptions())
		if err != nil {
			return err
		}

		problems := doctor.Check(os.Stdout, merged, buildVersion)
		if problems > 0 {
			fmt.Printf("\n%d problem(s) found.\n", problems)
		} else {
			fmt.Println("\nAll checks passed.")
		}
		return nil
	},
}
