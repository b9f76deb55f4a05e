package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"footage/internal/config"
	"footage/internal/fileutil"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/placeholder"
	"footage/internal/preflight"
	"footage/internal/services"
)

// Status labels one placeholder in the report.
type Status string

const (
	StatusTransferred Status = "transferred"
	StatusAdopted     Status = "adopted"
	StatusVerified    Status = "verified"
	StatusDone        Status = "already-transferred"
	StatusFailed      Status = "failed"
)

// Options describe one transfer run.
type Options struct {
	StagingRoot string
	FinalRoot   string
	Mode        string
	VerifyOnly  bool
	// MinFreeBytes is kept free on the final filesystem; negative disables
	// the free-space check.
	MinFreeBytes int64
	// Progress, when set, is called once per placeholder.
	Progress func(Item)
}

// OptionsFromConfig fills Options from the transfer section.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		StagingRoot:  cfg.Paths.StagingRoot,
		FinalRoot:    cfg.Paths.FinalRoot,
		Mode:         cfg.Transfer.Mode,
		MinFreeBytes: cfg.Transfer.MinFreeBytes,
	}
	if cfg.Transfer.SkipFreeCheck {
		opts.MinFreeBytes = -1
	}
	return opts
}

// Item is the outcome for one placeholder.
type Item struct {
	Placeholder string
	Source      string
	Destination string
	Status      Status
	Bytes       int64
	Fallback    bool
	Err         error
}

// Report summarizes a transfer run.
type Report struct {
	Items       []Item
	Transferred int
	Verified    int
	Skipped     int
	Failed      int
	Bytes       int64
	Mode        string
	VerifyOnly  bool
}

const maxSuffix = 999

// Executor moves or copies planned files into the final tree.
type Executor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExecutor constructs an executor.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		logger: logging.NewComponentLogger(logger, "transfer"),
		now:    time.Now,
	}
}

type pending struct {
	path string
	rec  placeholder.Record
	err  error
}

// Transfer processes every placeholder under StagingRoot in lexical order.
// Per-file failures are recorded and the batch continues; only context
// cancellation and preflight failures end it early.
func (e *Executor) Transfer(ctx context.Context, opts Options) (Report, error) {
	if opts.Mode != config.TransferModeCopy && opts.Mode != config.TransferModeMove {
		return Report{}, services.Wrap(services.ErrValidation, "transfer", "options", fmt.Sprintf("unknown mode %q", opts.Mode), nil)
	}
	ctx = services.WithStage(ctx, "transfer")
	logger := logging.WithContext(ctx, e.logger)
	report := Report{Mode: opts.Mode, VerifyOnly: opts.VerifyOnly}

	var queue []pending
	err := placeholder.Walk(opts.StagingRoot, func(path string) error {
		rec, err := placeholder.Read(path)
		queue = append(queue, pending{path: path, rec: rec, err: err})
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk staging: %w", err)
	}

	if !opts.VerifyOnly {
		if err := e.checkSpace(opts, queue); err != nil {
			return report, err
		}
	}

	for _, p := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := e.process(logger, opts, p)
		report.add(item)
		if opts.Progress != nil {
			opts.Progress(item)
		}
	}

	logger.Info("transfer complete",
		logging.String("mode", opts.Mode),
		logging.Bool("verify_only", opts.VerifyOnly),
		logging.Int("transferred", report.Transferred),
		logging.Int("verified", report.Verified),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int64("bytes", report.Bytes))
	return report, nil
}

func (e *Executor) checkSpace(opts Options, queue []pending) error {
	if opts.MinFreeBytes < 0 {
		return nil
	}
	var need int64
	for _, p := range queue {
		if p.err == nil && !p.rec.Transferred() {
			need += p.rec.Info.OriginalSize
		}
	}
	if need == 0 {
		return nil
	}
	if err := os.MkdirAll(opts.FinalRoot, 0o755); err != nil {
		return fmt.Errorf("create final root: %w", err)
	}
	if opts.Mode == config.TransferModeMove {
		// Renames within one filesystem need no extra space.
		for _, p := range queue {
			if p.err != nil || p.rec.Transferred() {
				continue
			}
			same, err := preflight.SameFilesystem(filepath.Dir(p.rec.Info.OriginalPath), opts.FinalRoot)
			if err == nil && same {
				return nil
			}
			break
		}
	}
	result := preflight.CheckFreeSpace("Final root", opts.FinalRoot, need, opts.MinFreeBytes)
	if !result.Passed {
		return services.Wrap(services.ErrValidation, "transfer", "free space", result.Detail, nil)
	}
	return nil
}

func (e *Executor) process(logger *slog.Logger, opts Options, p pending) Item {
	item := Item{Placeholder: p.path}
	logger = logger.With(logging.String("placeholder", p.path))
	fail := func(err error) Item {
		item.Status = StatusFailed
		item.Err = err
		logging.WarnWithContext(logger, "file skipped", "transfer_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file left in place; placeholder unchanged"),
			logging.String(logging.FieldErrorHint, "fix the source and re-run transfer"))
		return item
	}

	if p.err != nil {
		return fail(p.err)
	}
	rec := p.rec
	item.Source = rec.Info.OriginalPath
	logger = logger.With(logging.Path(rec.Info.OriginalPath))

	if rec.Transferred() {
		item.Status = StatusDone
		item.Destination = rec.Transfer.NewLocation
		logger.Debug("already transferred", logging.String("destination", rec.Transfer.NewLocation))
		return item
	}

	source, fallback, err := locateSource(rec)
	item.Source = source
	item.Fallback = fallback
	if err != nil {
		if opts.Mode != config.TransferModeMove || !errors.Is(err, services.ErrNotFound) {
			return fail(err)
		}
		dest, ok, rerr := recoverMoved(opts, p.path, rec)
		if rerr != nil {
			return fail(rerr)
		}
		if !ok {
			return fail(err)
		}
		return e.adoptMoved(logger, opts, p, item, dest)
	}
	if fallback {
		logger.Info("original missing; using stabilized variant", logging.String("source", source))
	}
	info, err := os.Stat(source)
	if err != nil {
		return fail(services.Wrap(services.ErrTransferIntegrity, "transfer", "stat", source, err))
	}
	if !fallback && info.Size() != rec.Info.OriginalSize {
		return fail(services.Wrap(services.ErrTransferIntegrity, "transfer", "size",
			fmt.Sprintf("%s is %d bytes, planned %d", source, info.Size(), rec.Info.OriginalSize), nil))
	}
	item.Bytes = info.Size()

	dest, err := destinationFor(opts, p.path)
	if err != nil {
		return fail(err)
	}
	item.Destination = dest

	if opts.VerifyOnly {
		item.Status = StatusVerified
		logger.Debug("verified", logging.String("destination", dest))
		return item
	}

	dest, adopted, err := e.resolveDestination(source, dest)
	if err != nil {
		return fail(err)
	}
	item.Destination = dest

	transferInfo := placeholder.TransferInfo{
		NewLocation: dest,
		Mode:        opts.Mode,
		SizeBytes:   info.Size(),
		Adopted:     adopted,
	}
	switch {
	case adopted:
		item.Status = StatusAdopted
		if opts.Mode == config.TransferModeMove {
			if err := os.Remove(source); err != nil {
				return fail(fmt.Errorf("remove source after adopting %s: %w", dest, err))
			}
		}
		logger.Info("identical file already at destination; adopted", logging.String("destination", dest))
	case opts.Mode == config.TransferModeMove:
		crossed, err := fileutil.MoveFile(source, dest)
		if err != nil {
			return fail(services.Wrap(services.ErrTransferIntegrity, "transfer", "move", source, err))
		}
		if crossed {
			logger.Debug("cross-device move completed with verified copy")
		}
		item.Status = StatusTransferred
	default:
		digest, err := fileutil.CopyFileVerified(source, dest)
		if err != nil {
			return fail(services.Wrap(services.ErrTransferIntegrity, "transfer", "copy", source, err))
		}
		transferInfo.SHA256 = digest.SHA256
		item.Status = StatusTransferred
	}

	transferInfo.TransferredAt = e.now().UTC()
	rec.Transfer = &transferInfo
	if err := placeholder.Replace(p.path, rec); err != nil {
		return fail(fmt.Errorf("annotate placeholder: %w", err))
	}
	logger.Debug("transferred", logging.String("destination", dest), logging.String("mode", opts.Mode))
	return item
}

// adoptMoved annotates a placeholder whose source was already moved to dest
// by an earlier, interrupted run.
func (e *Executor) adoptMoved(logger *slog.Logger, opts Options, p pending, item Item, dest string) Item {
	item.Destination = dest
	item.Bytes = p.rec.Info.OriginalSize
	if opts.VerifyOnly {
		item.Status = StatusVerified
		logger.Debug("source already moved to destination", logging.String("destination", dest))
		return item
	}
	rec := p.rec
	rec.Transfer = &placeholder.TransferInfo{
		TransferredAt: e.now().UTC(),
		NewLocation:   dest,
		Mode:          opts.Mode,
		SizeBytes:     rec.Info.OriginalSize,
		Adopted:       true,
	}
	if err := placeholder.Replace(p.path, rec); err != nil {
		item.Status = StatusFailed
		item.Err = fmt.Errorf("annotate placeholder: %w", err)
		logging.WarnWithContext(logger, "file skipped", "transfer_failed", logging.Error(item.Err))
		return item
	}
	item.Status = StatusAdopted
	logger.Info("source already moved; adopted destination", logging.String("destination", dest))
	return item
}

// recoverMoved looks for the planned destination, or one of its _NNN
// variants, holding a file of the recorded size.
func recoverMoved(opts Options, placeholderPath string, rec placeholder.Record) (string, bool, error) {
	dest, err := destinationFor(opts, placeholderPath)
	if err != nil {
		return "", false, err
	}
	ext := filepath.Ext(dest)
	base := dest[:len(dest)-len(ext)]
	for n := 0; n <= maxSuffix; n++ {
		candidate := dest
		if n > 0 {
			candidate = fmt.Sprintf("%s_%03d%s", base, n, ext)
		}
		info, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if info.Mode().IsRegular() && info.Size() == rec.Info.OriginalSize {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// locateSource finds the file to transfer, falling back to the stabilized
// variant beside the recorded original.
func locateSource(rec placeholder.Record) (string, bool, error) {
	original := rec.Info.OriginalPath
	if _, err := os.Stat(original); err == nil {
		return original, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return original, false, services.Wrap(services.ErrTransferIntegrity, "transfer", "stat", original, err)
	}
	stabilized := filepath.Join(filepath.Dir(original), media.StabilizedName(filepath.Base(original)))
	if stabilized != original {
		if _, err := os.Stat(stabilized); err == nil {
			return stabilized, true, nil
		}
	}
	return original, false, services.Wrap(services.ErrTransferIntegrity, "transfer", "locate", "source missing: "+original, services.ErrNotFound)
}

// destinationFor mirrors the placeholder's staging path under FinalRoot.
func destinationFor(opts Options, placeholderPath string) (string, error) {
	rel, err := filepath.Rel(opts.StagingRoot, placeholderPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "transfer", "destination", placeholderPath+" is outside the staging root", err)
	}
	return filepath.Join(opts.FinalRoot, placeholder.MediaPath(rel)), nil
}

// resolveDestination returns dest when free, dest itself when it already
// holds identical bytes (adopted), or the first free _NNN variant.
func (e *Executor) resolveDestination(source, dest string) (string, bool, error) {
	ext := filepath.Ext(dest)
	base := dest[:len(dest)-len(ext)]
	for n := 0; n <= maxSuffix; n++ {
		candidate := dest
		if n > 0 {
			candidate = fmt.Sprintf("%s_%03d%s", base, n, ext)
		}
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, false, nil
		} else if err != nil {
			return "", false, err
		}
		same, err := fileutil.SameContent(source, candidate)
		if err != nil {
			return "", false, err
		}
		if same {
			return candidate, true, nil
		}
	}
	return "", false, services.Wrap(services.ErrCollision, "transfer", "allocate", "no free name for "+dest, nil)
}

func (r *Report) add(item Item) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case StatusTransferred, StatusAdopted:
		r.Transferred++
		r.Bytes += item.Bytes
	case StatusVerified:
		r.Verified++
	case StatusDone:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// Errors returns the failed items.
func (r Report) Errors() []Item {
	var out []Item
	for _, item := range r.Items {
		if item.Status == StatusFailed {
			out = append(out, item)
		}
	}
	return out
}
