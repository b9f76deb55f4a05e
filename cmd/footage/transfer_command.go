package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"footage/internal/config"
	"footage/internal/ledger"
	"footage/internal/logging"
	"footage/internal/preflight"
	"footage/internal/services"
	"footage/internal/staging"
	"footage/internal/transfer"
)

type transferFlags struct {
	mode          string
	verifyOnly    bool
	yes           bool
	skipFreeCheck bool
}

func (f transferFlags) overrides() []configOverride {
	return []configOverride{func(cfg *config.Config) error {
		if mode := strings.ToLower(strings.TrimSpace(f.mode)); mode != "" {
			cfg.Transfer.Mode = mode
		}
		if f.skipFreeCheck {
			cfg.Transfer.SkipFreeCheck = true
		}
		return nil
	}}
}

func newTransferCommand(ctx *commandContext) *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Copy or move planned files into the final tree",
		Long: `Walk the staging tree and, for every placeholder not yet transferred, copy
or move its source file to the mirrored path under the final root. Sizes are
checked against the placeholder and copies are verified by SHA-256 before
the placeholder is annotated. A failing file is reported and the batch
continues. --verify-only runs every check and writes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(flags.overrides()...)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			lock, err := staging.Acquire(cfg.Paths.StagingRoot)
			if err != nil {
				return err
			}
			defer lock.Release()

			summary, err := staging.Summarize(cfg.Paths.StagingRoot)
			if err != nil {
				return fmt.Errorf("read staging: %w", err)
			}
			if summary.Planned == 0 && len(summary.Invalid) == 0 {
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"transferred": 0, "items": []any{}})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing planned; run footage plan first")
				return nil
			}

			opts := transfer.OptionsFromConfig(cfg)
			opts.VerifyOnly = flags.verifyOnly
			if opts.Mode == config.TransferModeMove && !opts.VerifyOnly && summary.Pending > 0 && cfg.Transfer.ConfirmMoves && !flags.yes {
				ok, err := confirmMove(cmd, summary.Pending, summary.PendingSize, cfg.Paths.FinalRoot)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Transfer cancelled")
					return nil
				}
			}

			runID := ledger.NewRunID()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logging.WithContext(runCtx, logger)

			store := openLedger(runCtx, cfg, logger)
			defer store.Close()
			recorder := beginRun(runCtx, store, logger, runID, ledger.KindTransfer, map[string]any{
				"mode":        opts.Mode,
				"verify_only": opts.VerifyOnly,
				"final_root":  opts.FinalRoot,
			})

			bar := newProgress(cmd.ErrOrStderr(), !ctx.JSONMode(), summary.Planned+len(summary.Invalid), opts.Mode)
			opts.Progress = func(item transfer.Item) {
				bar.step(filepath.Base(item.Placeholder))
			}
			report, transferErr := transfer.NewExecutor(logger).Transfer(runCtx, opts)
			bar.finish()

			events := make([]ledger.Event, 0, len(report.Items))
			for _, item := range report.Items {
				detail := item.Destination
				if item.Err != nil {
					detail = errorDetail(item.Err)
				}
				events = append(events, ledger.Event{Path: item.Placeholder, Outcome: string(item.Status), Detail: detail})
			}
			status := runStatus(report.Transferred+report.Verified+report.Skipped, report.Failed)
			if transferErr != nil {
				status = ledger.StatusFailed
			}
			recorder.finish(runCtx, status, transferCounters(report), events)

			if transferErr != nil {
				return transferErr
			}
			if err := printTransferReport(cmd, ctx, runID, report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("transfer: %d of %d files failed", report.Failed, len(report.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "copy or move (overrides transfer.mode)")
	cmd.Flags().BoolVar(&flags.verifyOnly, "verify-only", false, "Check every source without writing anything")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Do not ask for confirmation before moving files")
	cmd.Flags().BoolVar(&flags.skipFreeCheck, "skip-free-check", false, "Skip the free space check on the final root")
	return cmd
}

// confirmMove asks on an interactive stdin. Without a terminal the move is
// refused unless --yes is passed.
func confirmMove(cmd *cobra.Command, count int, size int64, finalRoot string) (bool, error) {
	in := cmd.InOrStdin()
	if !isInteractive(in) {
		return false, errors.New("move mode removes source files; pass --yes to confirm when not running in a terminal")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Move %d files (%s) into %s? Sources will be removed. [y/N] ",
		count, preflight.FormatBytes(uint64(max(size, 0))), finalRoot)
	return readYes(in)
}

func readYes(in io.Reader) (bool, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func transferCounters(report transfer.Report) map[string]int {
	return map[string]int{
		"transferred": report.Transferred,
		"verified":    report.Verified,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
	}
}

func printTransferReport(cmd *cobra.Command, ctx *commandContext, runID string, report transfer.Report) error {
	if ctx.JSONMode() {
		items := make([]map[string]any, 0, len(report.Items))
		for _, item := range report.Items {
			entry := map[string]any{
				"placeholder": item.Placeholder,
				"source":      item.Source,
				"destination": item.Destination,
				"status":      item.Status,
				"bytes":       item.Bytes,
				"fallback":    item.Fallback,
			}
			if item.Err != nil {
				entry["error"] = item.Err.Error()
			}
			items = append(items, entry)
		}
		return writeJSON(cmd, map[string]any{
			"run_id":      runID,
			"mode":        report.Mode,
			"verify_only": report.VerifyOnly,
			"bytes":       report.Bytes,
			"counts":      transferCounters(report),
			"items":       items,
		})
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		if item.Status == transfer.StatusDone {
			continue
		}
		detail := item.Destination
		if item.Err != nil {
			detail = services.Outcome(item.Err) + ": " + item.Err.Error()
		} else if item.Fallback {
			detail += " (stabilized source)"
		}
		rows = append(rows, []string{string(item.Status), filepath.Base(item.Placeholder), detail})
	}
	if len(rows) > 0 {
		fmt.Fprint(out, renderTable(
			[]string{"Status", "Placeholder", "Destination"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
			nil,
		))
	}
	verb := "Transferred"
	if report.VerifyOnly {
		verb = "Verified"
		fmt.Fprintf(out, "%s %d, already transferred %d, failed %d (run %s, nothing written)\n",
			verb, report.Verified, report.Skipped, report.Failed, shortID(runID))
		return nil
	}
	fmt.Fprintf(out, "%s %d (%s, %s), already transferred %d, failed %d (run %s)\n",
		verb, report.Transferred, report.Mode, preflight.FormatBytes(uint64(max(report.Bytes, 0))),
		report.Skipped, report.Failed, shortID(runID))
	return nil
}
