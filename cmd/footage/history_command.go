package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"footage/internal/config"
	"footage/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pathFlag string

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs, or the per-file events of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cmd.Context(), cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer store.Close()

			switch {
			case strings.TrimSpace(pathFlag) != "":
				path, err := config.ExpandPath(pathFlag)
				if err != nil {
					return err
				}
				events, err := store.PathHistory(cmd.Context(), path)
				if err != nil {
					return err
				}
				return printEvents(cmd, ctx, events, true)
			case len(args) == 1:
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				events, err := store.Events(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"run": run, "events": events})
				}
				printRunHeader(cmd, run)
				return printEvents(cmd, ctx, events, false)
			default:
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if runs == nil {
						runs = []ledger.Run{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				now := time.Now()
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.Kind,
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.Duration(now).Truncate(time.Second).String(),
						run.Status,
						formatCounters(run.Counters),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Kind", "Started", "Took", "Status", "Counts"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
					nil,
				))
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of runs to list")
	cmd.Flags().StringVar(&pathFlag, "path", "", "Show every event recorded for a source or placeholder path")
	return cmd
}

func printRunHeader(cmd *cobra.Command, run ledger.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s) %s\n", run.ID, run.Kind, run.Status)
	fmt.Fprintf(out, "Started %s", run.StartedAt.Local().Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, ", finished %s", run.FinishedAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintln(out)
	if len(run.Counters) > 0 {
		fmt.Fprintf(out, "Counts: %s\n", formatCounters(run.Counters))
	}
	fmt.Fprintln(out)
}

func printEvents(cmd *cobra.Command, ctx *commandContext, events []ledger.Event, withRun bool) error {
	if ctx.JSONMode() {
		if events == nil {
			events = []ledger.Event{}
		}
		return writeJSON(cmd, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
		return nil
	}
	headers := []string{"Outcome", "Path", "Detail"}
	if withRun {
		headers = append([]string{"Run", "When"}, headers...)
	}
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		row := []string{event.Outcome, event.Path, event.Detail}
		if withRun {
			row = append([]string{shortID(event.RunID), event.RecordedAt.Local().Format("2006-01-02 15:04")}, row...)
		}
		rows = append(rows, row)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable(headers, rows, nil, nil))
	return nil
}

func formatCounters(counters map[string]int) string {
	if len(counters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counters))
	for key, value := range counters {
		if value != 0 {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strconv.Itoa(counters[key]))
	}
	return strings.Join(parts, " ")
}
