package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftclean/internal/config"
	"driftclean/internal/logging"
	"driftclean/internal/nosync"
)

func newNosyncCommand(ctx *commandContext) *cobra.Command {
	nosyncCmd := &cobra.Command{
		Use:   "nosync",
		Short: "Exclude heavyweight directories from sync",
	}

	nosyncCmd.AddCommand(newNosyncScanCommand(ctx))
	nosyncCmd.AddCommand(newNosyncApplyCommand(ctx))

	return nosyncCmd
}

func nosyncCandidates(dirFlag string, manager *nosync.Manager) ([]string, error) {
	if dirFlag == "" {
		return manager.ScanAll(), nil
	}
	dir, err := config.ExpandPath(dirFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	return manager.ScanDirectory(dir), nil
}

func newNosyncScanCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List directories that could be excluded from sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager := nosync.NewManager(cfg, logging.NewNop())

			candidates, err := nosyncCandidates(dirFlag, manager)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No conversion candidates found")
				return nil
			}
			for _, candidate := range candidates {
				fmt.Fprintln(out, candidate)
			}
			fmt.Fprintf(out, "%d candidate(s)\n", len(candidates))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Scan a single directory instead of the configured roots")
	return cmd
}

func newNosyncApplyCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Convert candidate directories to their .nosync form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			manager := nosync.NewManager(cfg, logger)

			candidates, err := nosyncCandidates(dirFlag, manager)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			converted := 0
			for _, candidate := range candidates {
				result := manager.Convert(candidate)
				if result.Err != nil {
					fmt.Fprintf(out, "skip %s: %v\n", candidate, result.Err)
					continue
				}
				fmt.Fprintf(out, "%s -> %s\n", result.Path, result.NosyncPath)
				converted++
			}
			fmt.Fprintf(out, "Converted %d of %d candidate(s)\n", converted, len(candidates))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Convert under a single directory instead of the configured roots")
	return cmd
}
