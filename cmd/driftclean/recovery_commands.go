package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"driftclean/internal/config"
	"driftclean/internal/recovery"
)

func newRecoveryCommand(ctx *commandContext) *cobra.Command {
	recoveryCmd := &cobra.Command{
		Use:   "recovery",
		Short: "Inspect and restore trashed files",
	}

	recoveryCmd.AddCommand(newRecoveryListCommand(ctx))
	recoveryCmd.AddCommand(newRecoveryRestoreCommand(ctx))
	recoveryCmd.AddCommand(newRecoveryCleanupCommand(ctx))

	return recoveryCmd
}

// withStore runs fn against an open recovery store, failing cleanly when
// recovery is disabled in the configuration.
func withStore(ctx *commandContext, fn func(*recovery.Store) error) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	store, err := ctx.openStore(logger)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("recovery is disabled in the configuration")
	}
	defer store.Close()
	return fn(store)
}

func newRecoveryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recoverable files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *recovery.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Trash is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.OriginalPath,
						entry.Module,
						entry.DeletedAt.Local().Format(time.DateTime),
						entry.ExpiresAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Original Path", "Module", "Deleted", "Expires"}, rows))
				return nil
			})
		},
	}
}

func newRecoveryRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <original-path>",
		Short: "Restore a trashed file to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return withStore(ctx, func(store *recovery.Store) error {
				if err := store.Restore(cmd.Context(), target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", target)
				return nil
			})
		},
	}
}

func newRecoveryCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove trashed files past their retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *recovery.Store) error {
				removed, err := store.SweepExpired(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entr%s\n",
					removed, pluralY(removed))
				return nil
			})
		},
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
