package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"driftclean/internal/config"
	"driftclean/internal/detect"
	"driftclean/internal/logging"
	"driftclean/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report cleanup candidates without removing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			registry, err := ctx.newRegistry(logging.NewNop())
			if err != nil {
				return err
			}
			s := scanner.New(registry, logging.NewNop())

			var detected []detect.DetectedFile
			if dirFlag != "" {
				dir, err := config.ExpandPath(dirFlag)
				if err != nil {
					return fmt.Errorf("resolve scan directory: %w", err)
				}
				detected = s.ScanDirectory(dir)
			} else {
				detected = s.ScanAll()
			}

			out := cmd.OutOrStdout()
			if len(detected) == 0 {
				fmt.Fprintln(out, "No cleanup candidates found")
				return nil
			}

			if isTerminal() {
				fmt.Fprintln(out, renderScanTable(detected))
			} else {
				for _, det := range detected {
					fmt.Fprintf(out, "%s\t%s\t%s\n", det.Module, det.Path, det.Reason)
				}
			}
			fmt.Fprintf(out, "%d candidate(s)\n", len(detected))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Scan a single directory instead of the configured roots")
	return cmd
}

func renderScanTable(detected []detect.DetectedFile) string {
	rows := make([][]string, 0, len(detected))
	for _, det := range detected {
		rows = append(rows, []string{det.Module, det.Path, det.Reason, yesNo(det.RecoveryEnabled)})
	}
	return renderTable([]string{"Module", "Path", "Reason", "Recoverable"}, rows)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
