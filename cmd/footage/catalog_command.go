package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"footage/internal/catalog"
	"footage/internal/config"
	"footage/internal/ledger"
	"footage/internal/logging"
	"footage/internal/metadata"
	"footage/internal/services"
	"footage/internal/staging"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var output string
	var dryRun bool
	var noFFprobe bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Export a CSV of planned video clips with editor groups and colors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(func(cfg *config.Config) error {
				if out := strings.TrimSpace(output); out != "" {
					expanded, err := config.ExpandPath(out)
					if err != nil {
						return err
					}
					cfg.Catalog.Filename = expanded
				}
				return nil
			})
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

			runID := ledger.NewRunID()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logging.WithContext(runCtx, logger)

			var provider metadata.Provider
			if !noFFprobe {
				provider = ctx.newProvider(cfg, logger)
				defer closeProvider(provider, logger)
			}

			cat, err := catalog.NewBuilder(cfg, provider, logger).Build(runCtx)
			if err != nil {
				return err
			}

			path := cfg.CatalogPath()
			if !dryRun {
				store := openLedger(runCtx, cfg, logger)
				defer store.Close()
				recorder := beginRun(runCtx, store, logger, runID, ledger.KindCatalog, map[string]any{"output": path})
				writeErr := catalog.WriteCSV(path, cat)
				status := ledger.StatusSucceeded
				events := []ledger.Event{{Path: path, Outcome: "written", Detail: strconv.Itoa(len(cat.Rows)) + " rows"}}
				if writeErr != nil {
					status = ledger.StatusFailed
					events[0] = ledger.Event{Path: path, Outcome: "failed", Detail: errorDetail(writeErr)}
				}
				recorder.finish(runCtx, status, cat.Summary(), events)
				if writeErr != nil {
					return writeErr
				}
			}

			if ctx.JSONMode() {
				rows := make([]map[string]string, 0, len(cat.Rows))
				for _, row := range cat.Rows {
					rows = append(rows, map[string]string{
						"filename":    row.Filename,
						"relpath":     row.RelPath,
						"group_name":  row.GroupName,
						"clip_color":  row.ClipColor,
						"color_space": row.ColorSpace,
						"source":      row.Source,
					})
				}
				return writeJSON(cmd, map[string]any{
					"path":    path,
					"written": !dryRun,
					"colors":  cat.Colors,
					"groups":  cat.Summary(),
					"rows":    rows,
				})
			}

			out := cmd.OutOrStdout()
			if dryRun {
				data, err := cat.Encode()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			summary := cat.Summary()
			rows := make([][]string, 0, len(summary))
			for _, name := range cat.Groups() {
				rows = append(rows, []string{name, cat.Colors[name], strconv.Itoa(summary[name])})
			}
			if len(rows) > 0 {
				fmt.Fprint(out, renderTable(
					[]string{"Group", "Clip color", "Clips"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
					[]string{"Total", "", strconv.Itoa(len(cat.Rows))},
				))
			}
			fmt.Fprintf(out, "Wrote %d clips to %s\n", len(cat.Rows), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV path (overrides catalog.filename)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the CSV instead of writing it")
	cmd.Flags().BoolVar(&noFFprobe, "no-ffprobe", false, "Do not run ffprobe for clips without stored video metadata")
	return cmd
}
