package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/treadlabs/treads/internal/aggregate"
	"github.com/treadlabs/treads/internal/config"
)

var (
	mergeAgentsDir    string
	mergeRootAgent    string
	mergeManifestName string
	mergeOutput       string
	mergeStrict       bool
	mergeWatch        bool
)

func init() {
	mergeCmd.Flags().StringVar(&mergeAgentsDir, "agents-dir", "", "Directory containing agent subdirectories (default \"agents\")")
	mergeCmd.Flags().StringVar(&mergeRootAgent, "root-agent", "", "Agent whose manifest seeds the merge (default \"app\")")
	mergeCmd.Flags().StringVar(&mergeManifestName, "manifest-name", "", "Manifest file name within each agent directory (default \"nanobot.yaml\")")
	mergeCmd.Flags().StringVar(&mergeOutput, "output", "", "Merged manifest destination (default \"nanobot.yaml\")")
	mergeCmd.Flags().BoolVar(&mergeStrict, "strict", false, "Fail on conflicting declarations instead of last-wins")
	mergeCmd.Flags().BoolVar(&mergeWatch, "watch", false, "Keep running and re-merge when agent manifests change")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge all agent manifests into the project manifest",
	Long: `Merge every agents/<name>/nanobot.yaml into the single project manifest,
rewriting relative helper-script paths, deduplicating published capabilities,
and resolving the project entrypoint. Run this before starting the agent
runtime; the output file is what it consumes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := mergeOptions()

		if !mergeWatch {
			if err := aggregate.MergeAndWrite(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Printf("Merged manifest written to %s\n", opts.OutputPath)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// One pass up front so the output exists before the first change.
		if err := aggregate.MergeAndWrite(ctx, opts); err != nil {
			return err
		}
		fmt.Printf("Merged manifest written to %s\n", opts.OutputPath)
		fmt.Println("Watching for manifest changes (ctrl-c to stop)...")

		err := aggregate.Watch(ctx, opts, func(runErr error) {
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "merge failed: %v\n", runErr)
				return
			}
			fmt.Printf("Merged manifest written to %s\n", opts.OutputPath)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// defaultOptions resolves aggregation settings from the user config, falling
// back to the conventional project layout.
func defaultOptions() aggregate.Options {
	return aggregate.Options{
		AgentsDir:    config.GetOr(config.KeyAgentsDir, aggregate.DefaultAgentsDir),
		RootAgent:    config.GetOr(config.KeyRootAgent, aggregate.DefaultRootAgent),
		ManifestName: config.GetOr(config.KeyManifestName, aggregate.DefaultManifestName),
		OutputPath:   config.GetOr(config.KeyOutput, aggregate.DefaultOutputPath),
	}
}

// mergeOptions applies the merge command's flag overrides on top of the
// config-derived defaults.
func mergeOptions() aggregate.Options {
	opts := defaultOptions()
	opts.Strict = mergeStrict
	if mergeAgentsDir != "" {
		opts.AgentsDir = mergeAgentsDir
	}
	if mergeRootAgent != "" {
		opts.RootAgent = mergeRootAgent
	}
	if mergeManifestName != "" {
		opts.ManifestName = mergeManifestName
	}
	if mergeOutput != "" {
		opts.OutputPath = mergeOutput
	}
	return opts
}
