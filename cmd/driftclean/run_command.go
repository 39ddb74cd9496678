package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"driftclean/internal/daemon"
	"driftclean/internal/pathguard"
	"driftclean/internal/scanner"
	"driftclean/internal/syncgate"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cleanup daemon",
		Long: `Run watches the configured directories, queues detected clutter through a
debounce window, and removes it once the sync agent reports the files settled.
With --once a single scan-and-process cycle runs instead of the long-lived
daemon. With --dry-run the full pipeline executes but nothing is mutated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			registry, err := ctx.newRegistry(logger)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			d, err := daemon.New(daemon.Options{
				Config:   cfg,
				Logger:   logger,
				Registry: registry,
				Scanner:  scanner.New(registry, logger),
				Gate:     syncgate.NewGate(cfg, syncgate.NewXattrOracle(logger), logger),
				Guard:    pathguard.New(),
				Store:    store,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if once {
				if err := d.RunOnce(runCtx); err != nil {
					return fmt.Errorf("run once: %w", err)
				}
				printRunStats(cmd, d.Stats())
				return nil
			}
			if err := d.Run(runCtx); err != nil {
				return fmt.Errorf("run daemon: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Detect and log but do not modify anything")
	return cmd
}

func printRunStats(cmd *cobra.Command, stats daemon.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Detected: %d  Recovered: %d  Deleted: %d  Skipped: %d  Errors: %d\n",
		stats.Detected, stats.Recovered, stats.Deleted, stats.Skipped, stats.Errors)
	for name, ms := range stats.ByModule {
		fmt.Fprintf(out, "  %s: recovered %d, deleted %d\n", name, ms.Recovered, ms.Deleted)
	}
}
