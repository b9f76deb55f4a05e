package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/placeholder"
	"footage/internal/services"
	"footage/internal/timestamp"
)

// Outcome labels one planned file in the report.
type Outcome string

const (
	OutcomePlanned     Outcome = "planned"
	OutcomeReplanned   Outcome = "replanned"
	OutcomeExisting    Outcome = "skipped-existing"
	OutcomeTransferred Outcome = "skipped-transferred"
	OutcomeFailed      Outcome = "failed"
)

// Item is the result for one input file.
type Item struct {
	Source      string
	Placeholder string
	Outcome     Outcome
	Date        string
	Valid       bool
	Origin      timestamp.Source
	Collision   bool
	Err         error
}

// Report summarizes a planning run.
type Report struct {
	Items      []Item
	Planned    int
	Skipped    int
	Invalid    int
	Collisions int
	Failed     int
	DryRun     bool
}

// Options tune a single planning run.
type Options struct {
	DryRun    bool
	Overwrite bool
	RunID     string
	// Progress, when set, is called once per committed file.
	Progress func(Item)
}

// Planner resolves timestamps and writes placeholders. It never touches the
// source media.
type Planner struct {
	stagingRoot string
	workers     int
	rawMetadata bool
	resolver    *timestamp.Resolver
	provider    metadata.Provider
	logger      *slog.Logger
	now         func() time.Time
	opts        Options
}

// New constructs a planner from a validated config.
func New(cfg *config.Config, resolver *timestamp.Resolver, provider metadata.Provider, logger *slog.Logger, opts Options) *Planner {
	workers := cfg.Planner.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Planner{
		stagingRoot: cfg.Paths.StagingRoot,
		workers:     workers,
		rawMetadata: cfg.Planner.RawMetadata,
		resolver:    resolver,
		provider:    provider,
		logger:      logging.NewComponentLogger(logger, "planner"),
		now:         time.Now,
		opts:        opts,
	}
}

type resolved struct {
	file     media.File
	res      timestamp.Resolution
	tech     *metadata.Technical
	raw      map[string]any
	existing *placeholder.Entry
	skip     Outcome
}

// Plan resolves every file in parallel and then commits placeholders one by
// one in input order, so suffix allocation does not depend on scheduling.
func (p *Planner) Plan(ctx context.Context, files []media.File) (Report, error) {
	ctx = services.WithStage(ctx, "plan")
	logger := logging.WithContext(ctx, p.logger)
	report := Report{DryRun: p.opts.DryRun}

	index, err := placeholder.BuildIndex(p.stagingRoot)
	if err != nil {
		return report, fmt.Errorf("index placeholders: %w", err)
	}
	for _, path := range index.Invalid {
		logging.WarnWithContext(logger, "unreadable placeholder left in place", "placeholder_invalid",
			logging.Path(path),
			logging.String(logging.FieldErrorHint, "inspect or delete the file, then re-run plan"),
			logging.String(logging.FieldImpact, "its path stays reserved"))
	}
	logger.Debug("placeholder index built", logging.Int("placeholders", index.Len()))

	work := make([]resolved, len(files))
	for i, file := range files {
		work[i].file = file
		entry, ok := index.Lookup(file.Path)
		if !ok {
			continue
		}
		work[i].existing = &entry
		switch {
		case entry.Record.Transferred():
			work[i].skip = OutcomeTransferred
		case !p.opts.Overwrite:
			work[i].skip = OutcomeExisting
		}
	}

	if err := p.resolveAll(ctx, work); err != nil {
		return report, err
	}

	for i := range work {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := p.commit(ctx, logger, index, &work[i])
		report.add(item)
		if p.opts.Progress != nil {
			p.opts.Progress(item)
		}
	}

	logger.Info("planning complete",
		logging.Int("planned", report.Planned),
		logging.Int("skipped", report.Skipped),
		logging.Int("invalid", report.Invalid),
		logging.Int("collisions", report.Collisions),
		logging.Int("failed", report.Failed),
		logging.Bool("dry_run", report.DryRun))
	return report, nil
}

func (p *Planner) resolveAll(ctx context.Context, work []resolved) error {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(p.workers, max(len(work), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p.resolveOne(ctx, &work[i])
			}
		}()
	}
	var err error
feed:
	for i := range work {
		if work[i].skip != "" {
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

func (p *Planner) resolveOne(ctx context.Context, w *resolved) {
	fileCtx := services.WithSourcePath(ctx, w.file.Path)
	w.res = p.resolver.Resolve(fileCtx, w.file)
	if p.provider == nil {
		return
	}
	if w.file.Class.Kind == media.KindVideo {
		tech, err := p.provider.Technical(fileCtx, w.file.Path)
		if err != nil {
			p.logger.Debug("technical metadata unavailable", logging.Path(w.file.Path), logging.Error(err))
		} else {
			w.tech = &tech
		}
	}
	if source, ok := p.provider.(metadata.RawSource); ok && p.rawMetadata {
		raw, err := source.Raw(fileCtx, w.file.Path, w.file.Class.Kind)
		if err != nil {
			p.logger.Debug("raw metadata unavailable", logging.Path(w.file.Path), logging.Error(err))
			return
		}
		w.raw = raw
	}
}

func (p *Planner) commit(ctx context.Context, logger *slog.Logger, index *placeholder.Index, w *resolved) Item {
	item := Item{Source: w.file.Path}
	logger = logger.With(logging.Path(w.file.Path), logging.String(logging.FieldGroup, w.file.Class.Group))

	if w.skip != "" {
		item.Outcome = w.skip
		item.Placeholder = w.existing.Path
		item.Date = w.existing.Record.Timestamps.Date
		item.Valid = w.existing.Record.Timestamps.Valid
		item.Origin = w.existing.Record.Timestamps.Source
		reason := "placeholder exists; delete it or use --overwrite to apply config changes"
		if w.skip == OutcomeTransferred {
			reason = "already transferred"
		}
		logger.Info("skipping already planned file",
			logging.Args(append(logging.DecisionAttrs("plan", string(w.skip), reason), logging.String("placeholder", w.existing.Path))...)...)
		return item
	}

	if w.file.Note != "" {
		logging.WarnWithContext(logger, w.file.Note, "stabilized_orphan",
			logging.String(logging.FieldImpact, "planned without original timestamps"),
			logging.String(logging.FieldErrorHint, "timestamp resolved from the stabilized file itself"))
	}
	if !w.res.Valid {
		logging.WarnWithContext(logger, "no usable date; planned into invalid bucket", "invalid_date",
			logging.String(logging.FieldImpact, "file placed under "+InvalidBucket),
			logging.String(logging.FieldErrorHint, "add a time adjustment or rename with a date, then re-plan"))
	}

	dir, name := Destination(p.stagingRoot, w.file, w.res)
	rec := placeholder.NewRecord(w.file, w.res, w.tech, p.opts.RunID, p.now())
	rec.Raw = w.raw
	if w.tech != nil && rec.Video.ColorProfile == "" {
		rec.Video.ColorProfile = media.ClassifyColor(rec.Video.ColorInfo())
	}

	item.Date = rec.Timestamps.Date
	item.Valid = w.res.Valid
	item.Origin = w.res.Source

	path, suffix, err := p.place(index, dir, name, w, rec)
	item.Placeholder = path
	item.Collision = suffix > 0
	if err != nil {
		item.Outcome = OutcomeFailed
		item.Err = err
		logging.ErrorWithContext(logger, "failed to write placeholder", "placeholder_write", logging.Error(err))
		return item
	}
	if suffix > 0 {
		logger.Debug("destination taken; suffix allocated",
			logging.String("placeholder", path), logging.Int("suffix", suffix),
			logging.Error(services.Wrap(services.ErrCollision, "plan", "allocate", name, nil)))
	}

	item.Outcome = OutcomePlanned
	if w.existing != nil {
		item.Outcome = OutcomeReplanned
	}
	logger.Debug("placeholder planned",
		logging.String("placeholder", path),
		logging.String("timestamp_source", string(w.res.Source)),
		logging.Bool("dry_run", p.opts.DryRun))
	return item
}

// place allocates the first free suffix in dir and writes the record. A
// suffix is free when no placeholder for another source holds it.
func (p *Planner) place(index *placeholder.Index, dir, name string, w *resolved, rec placeholder.Record) (string, int, error) {
	const maxSuffix = 999
	for n := 0; n <= maxSuffix; n++ {
		path := placeholderPath(dir, name, n)
		if owner, taken := index.Owner(path); taken && owner != w.file.Path {
			continue
		}
		if p.opts.DryRun {
			index.Add(path, rec)
			return path, n, nil
		}
		if w.existing != nil && w.existing.Path == path {
			if err := placeholder.Replace(path, rec); err != nil {
				return path, n, err
			}
			index.Add(path, rec)
			return path, n, nil
		}
		err := placeholder.Create(path, rec)
		if errors.Is(err, placeholder.ErrExists) {
			continue
		}
		if err != nil {
			return path, n, err
		}
		if w.existing != nil {
			if err := os.Remove(w.existing.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return path, n, fmt.Errorf("remove superseded placeholder: %w", err)
			}
			index.Remove(w.existing.Path)
		}
		index.Add(path, rec)
		return path, n, nil
	}
	return "", 0, services.Wrap(services.ErrCollision, "plan", "allocate", fmt.Sprintf("no free suffix for %s in %s", name, dir), nil)
}

func (r *Report) add(item Item) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomePlanned, OutcomeReplanned:
		r.Planned++
		if !item.Valid {
			r.Invalid++
		}
		if item.Collision {
			r.Collisions++
		}
	case OutcomeExisting, OutcomeTransferred:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}
