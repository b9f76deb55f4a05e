package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"footage/internal/preflight"
	"footage/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show planned and transferred files per date folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			summary, err := staging.Summarize(cfg.Paths.StagingRoot)
			if err != nil {
				return fmt.Errorf("read staging: %w", err)
			}
			checks := preflight.RunAll(cfg)

			if ctx.JSONMode() {
				buckets := make([]map[string]any, 0, len(summary.Buckets))
				for _, b := range summary.Buckets {
					buckets = append(buckets, map[string]any{
						"kind":        b.Kind,
						"date":        b.Date,
						"planned":     b.Planned,
						"transferred": b.Transferred,
						"bytes":       b.Bytes,
					})
				}
				return writeJSON(cmd, map[string]any{
					"staging_root":  cfg.Paths.StagingRoot,
					"final_root":    cfg.Paths.FinalRoot,
					"planned":       summary.Planned,
					"transferred":   summary.Transferred,
					"pending":       summary.Pending,
					"pending_bytes": summary.PendingSize,
					"invalid":       summary.Invalid,
					"buckets":       buckets,
					"checks":        checks,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Staging root: %s\n", cfg.Paths.StagingRoot)
			fmt.Fprintf(out, "Final root:   %s\n\n", cfg.Paths.FinalRoot)
			if len(summary.Buckets) == 0 {
				fmt.Fprintln(out, "No placeholders found")
			} else {
				rows := make([][]string, 0, len(summary.Buckets))
				for _, b := range summary.Buckets {
					rows = append(rows, []string{
						b.Kind.String(),
						b.Date,
						strconv.Itoa(b.Planned),
						strconv.Itoa(b.Transferred),
						preflight.FormatBytes(uint64(max(b.Bytes, 0))),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Kind", "Date", "Planned", "Transferred", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
					[]string{"Total", "", strconv.Itoa(summary.Planned), strconv.Itoa(summary.Transferred), preflight.FormatBytes(uint64(max(summary.Bytes, 0)))},
				))
				fmt.Fprintf(out, "%d pending (%s)\n", summary.Pending, preflight.FormatBytes(uint64(max(summary.PendingSize, 0))))
			}
			for _, path := range summary.Invalid {
				fmt.Fprintf(out, "Unreadable placeholder: %s\n", path)
			}

			fmt.Fprintln(out)
			for _, check := range checks {
				mark := "ok"
				if !check.Passed {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "%-4s %s: %s\n", mark, check.Name, check.Detail)
			}
			return nil
		},
	}
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove temp files left by interrupted plan or transfer runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
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

			var removed []string
			var failures []staging.CleanupError
			for _, root := range []string{cfg.Paths.StagingRoot, cfg.Paths.FinalRoot} {
				result := staging.CleanStale(cmd.Context(), root, olderThan, logger)
				removed = append(removed, result.Removed...)
				failures = append(failures, result.Errors...)
			}

			if ctx.JSONMode() {
				errs := make([]string, 0, len(failures))
				for _, e := range failures {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{"removed": removed, "errors": errs})
			}
			out := cmd.OutOrStdout()
			for _, path := range removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, e := range failures {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			fmt.Fprintf(out, "Removed %d temp files, %d errors\n", len(removed), len(failures))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only remove temp files older than this")
	return cmd
}
