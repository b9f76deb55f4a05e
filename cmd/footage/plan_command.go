package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"footage/internal/config"
	"footage/internal/ledger"
	"footage/internal/logging"
	"footage/internal/planner"
	"footage/internal/scan"
	"footage/internal/services"
	"footage/internal/staging"
	"footage/internal/timestamp"
)

type planFlags struct {
	dryRun        bool
	timezone      string
	rawRoot       string
	photosOnly    bool
	videosOnly    bool
	includePhotos bool
	overwrite     bool
	rawMetadata   bool
	workers       int
}

func (f planFlags) overrides(cmd *cobra.Command) []configOverride {
	return []configOverride{func(cfg *config.Config) error {
		if f.photosOnly && f.videosOnly {
			return errors.New("--photos-only and --videos-only are mutually exclusive")
		}
		if tz := strings.TrimSpace(f.timezone); tz != "" {
			cfg.Timestamps.Timezone = tz
		}
		if raw := strings.TrimSpace(f.rawRoot); raw != "" {
			expanded, err := config.ExpandPath(raw)
			if err != nil {
				return err
			}
			cfg.Paths.RawRoot = expanded
		}
		if f.includePhotos {
			cfg.Media.IncludePhotos = true
		}
		if f.photosOnly {
			cfg.Media.IncludePhotos = true
			cfg.Media.IncludeVideos = false
		}
		if f.videosOnly {
			cfg.Media.IncludeVideos = true
			cfg.Media.IncludePhotos = false
		}
		if cmd.Flags().Changed("overwrite") {
			cfg.Planner.Overwrite = f.overwrite
		}
		if cmd.Flags().Changed("raw-metadata") {
			cfg.Planner.RawMetadata = f.rawMetadata
		}
		if f.workers > 0 {
			cfg.Planner.Workers = f.workers
		}
		return nil
	}}
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve timestamps and write placeholders into the staging tree",
		Long: `Scan the raw tree, resolve a local capture time for every media file and
write one JSON placeholder per file under the staging root. Source media is
never touched. Files that already have a placeholder are skipped unless
--overwrite is given; transferred placeholders are never replanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(flags.overrides(cmd)...)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			if !flags.dryRun {
				lock, err := staging.Acquire(cfg.Paths.StagingRoot)
				if err != nil {
					return err
				}
				defer lock.Release()
			}

			runID := ledger.NewRunID()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logging.WithContext(runCtx, logger)

			adjustments, adjErrs := cfg.Adjustments()
			for _, adjErr := range adjErrs {
				logging.WarnWithContext(logger, "time adjustment ignored", "adjustment_invalid",
					logging.Error(adjErr),
					logging.String(logging.FieldErrorHint, "use [+|-]YYYYMMDD_HHMMSS"),
					logging.String(logging.FieldImpact, "group is planned without an adjustment"))
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			scanned, err := scan.Walk(runCtx, cfg.Paths.RawRoot, scan.OptionsFromConfig(cfg))
			if err != nil {
				return err
			}
			for _, skip := range scanned.Skipped {
				logger.Debug("file not planned",
					logging.Path(skip.Path),
					logging.String("reason", skip.Reason),
					logging.String("detail", skip.Detail))
			}
			videos, photos := scanned.Counts()
			logger.Info("raw tree scanned",
				logging.Path(cfg.Paths.RawRoot),
				logging.Int("videos", videos),
				logging.Int("photos", photos),
				logging.Int("skipped", len(scanned.Skipped)))

			provider := ctx.newProvider(cfg, logger)
			defer closeProvider(provider, logger)

			store := openLedger(runCtx, cfg, logger)
			defer store.Close()
			recorder := beginRun(runCtx, store, logger, runID, ledger.KindPlan, map[string]any{
				"dry_run":   flags.dryRun,
				"overwrite": cfg.Planner.Overwrite,
				"timezone":  cfg.Timestamps.Timezone,
				"raw_root":  cfg.Paths.RawRoot,
			})

			bar := newProgress(cmd.ErrOrStderr(), !ctx.JSONMode(), len(scanned.Files), "planning")
			resolver := timestamp.NewResolver(provider, timestamp.SettingsFromConfig(cfg, loc, adjustments), logger)
			plan := planner.New(cfg, resolver, provider, logger, planner.Options{
				DryRun:    flags.dryRun,
				Overwrite: cfg.Planner.Overwrite,
				RunID:     runID,
				Progress: func(item planner.Item) {
					bar.step(filepath.Base(item.Source))
				},
			})
			report, planErr := plan.Plan(runCtx, scanned.Files)
			bar.finish()

			events := make([]ledger.Event, 0, len(report.Items))
			for _, item := range report.Items {
				detail := item.Placeholder
				if item.Err != nil {
					detail = errorDetail(item.Err)
				}
				events = append(events, ledger.Event{Path: item.Source, Outcome: string(item.Outcome), Detail: detail})
			}
			status := runStatus(report.Planned+report.Skipped, report.Failed)
			if planErr != nil {
				status = ledger.StatusFailed
			}
			recorder.finish(runCtx, status, planCounters(report, len(scanned.Skipped)), events)

			if planErr != nil {
				return planErr
			}
			if err := printPlanReport(cmd, ctx, runID, report, scanned); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("plan: %d of %d files failed", report.Failed, len(report.Items))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Compute the plan without writing placeholders")
	cmd.Flags().StringVar(&flags.timezone, "tz", "", "Target IANA timezone (overrides timestamps.timezone)")
	cmd.Flags().StringVar(&flags.rawRoot, "raw", "", "Raw tree to scan (overrides paths.raw_root)")
	cmd.Flags().BoolVar(&flags.photosOnly, "photos-only", false, "Plan photos only")
	cmd.Flags().BoolVar(&flags.videosOnly, "videos-only", false, "Plan videos only")
	cmd.Flags().BoolVar(&flags.includePhotos, "include-photos", false, "Plan photos in addition to videos")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replan files whose placeholders have not been transferred")
	cmd.Flags().BoolVar(&flags.rawMetadata, "raw-metadata", false, "Store unprocessed tool output in placeholders (overrides planner.raw_metadata)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Parallel metadata workers (overrides planner.workers)")
	return cmd
}

func planCounters(report planner.Report, scanSkipped int) map[string]int {
	return map[string]int{
		"planned":      report.Planned,
		"skipped":      report.Skipped,
		"invalid":      report.Invalid,
		"collisions":   report.Collisions,
		"failed":       report.Failed,
		"scan_skipped": scanSkipped,
	}
}

func printPlanReport(cmd *cobra.Command, ctx *commandContext, runID string, report planner.Report, scanned scan.Result) error {
	if ctx.JSONMode() {
		items := make([]map[string]any, 0, len(report.Items))
		for _, item := range report.Items {
			entry := map[string]any{
				"source":      item.Source,
				"placeholder": item.Placeholder,
				"outcome":     item.Outcome,
				"date":        item.Date,
				"valid":       item.Valid,
				"origin":      item.Origin,
				"collision":   item.Collision,
			}
			if item.Err != nil {
				entry["error"] = item.Err.Error()
			}
			items = append(items, entry)
		}
		return writeJSON(cmd, map[string]any{
			"run_id":  runID,
			"dry_run": report.DryRun,
			"counts":  planCounters(report, len(scanned.Skipped)),
			"items":   items,
			"skipped": scanned.Skipped,
		})
	}

	out := cmd.OutOrStdout()
	if report.DryRun {
		fmt.Fprintln(out, "Dry run: no placeholders were written")
	}
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		if item.Outcome == planner.OutcomeExisting || item.Outcome == planner.OutcomeTransferred {
			continue
		}
		note := string(item.Origin)
		if item.Collision {
			note += " (suffixed)"
		}
		if item.Err != nil {
			note = services.Outcome(item.Err) + ": " + item.Err.Error()
		}
		rows = append(rows, []string{string(item.Outcome), item.Date, displayPath(item.Placeholder, item.Source), note})
	}
	if len(rows) > 0 {
		fmt.Fprint(out, renderTable(
			[]string{"Outcome", "Date", "Placeholder", "Source"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			nil,
		))
	}
	fmt.Fprintf(out, "Planned %d, skipped %d, invalid %d, collisions %d, failed %d (run %s)\n",
		report.Planned, report.Skipped, report.Invalid, report.Collisions, report.Failed, shortID(runID))
	if n := len(scanned.Skipped); n > 0 {
		fmt.Fprintf(out, "%d files in the raw tree were not eligible; use --log-level debug to list them\n", n)
	}
	return nil
}

func displayPath(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
