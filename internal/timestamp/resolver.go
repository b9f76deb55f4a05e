package timestamp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/services"
	"footage/internal/timedelta"
)

// Source identifies which candidate produced a timestamp.
type Source string

const (
	SourceDeviceUTC     Source = "device-utc-metadata"
	SourceImageMetadata Source = "image-metadata"
	SourceFilename      Source = "filename-pattern"
	SourceMtime         Source = "filesystem-mtime"
	SourceNone          Source = "none"
)

// Attempt outcomes recorded in the trail.
const (
	OutcomeUsed     = "used"
	OutcomeFailed   = "failed"
	OutcomeAbsent   = "absent"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Attempt records one candidate the resolver considered.
type Attempt struct {
	Source  Source `json:"source"`
	Outcome string `json:"outcome"`
	Value   string `json:"value,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Resolution is the resolver's answer for one file.
type Resolution struct {
	// Local is the adjusted timestamp in the target zone. For invalid
	// resolutions it holds the unadjusted mtime for diagnostics only.
	Local      time.Time
	Valid      bool
	Source     Source
	Candidate  time.Time
	UTC        time.Time
	Adjustment string
	SourcePath string
	Trail      []Attempt
}

// Date returns the folder date (YYYY-MM-DD) of a valid resolution.
func (r Resolution) Date() string {
	if !r.Valid {
		return ""
	}
	return r.Local.Format(time.DateOnly)
}

// Err reports ErrInvalidDate when no usable date was derived.
func (r Resolution) Err() error {
	if r.Valid {
		return nil
	}
	return services.Wrap(services.ErrInvalidDate, "resolve", "", r.SourcePath, nil)
}

// Settings is the read-only configuration the resolver works from.
type Settings struct {
	Location            *time.Location
	Adjustments         map[string]timedelta.Delta
	MinYear             int
	MaxYear             int
	MtimeFallback       string
	DroneLocalTolerance time.Duration
}

// SettingsFromConfig builds Settings from a validated config and the parsed
// adjustment map.
func SettingsFromConfig(cfg *config.Config, loc *time.Location, adjustments map[string]timedelta.Delta) Settings {
	return Settings{
		Location:            loc,
		Adjustments:         adjustments,
		MinYear:             cfg.Timestamps.MinYear,
		MaxYear:             cfg.Timestamps.MaxYear,
		MtimeFallback:       cfg.Timestamps.MtimeFallback,
		DroneLocalTolerance: cfg.DroneLocalTolerance(),
	}
}

// Resolver applies the candidate priority chain.
type Resolver struct {
	provider metadata.Provider
	settings Settings
	logger   *slog.Logger
}

// NewResolver constructs a resolver. A nil location means UTC.
func NewResolver(provider metadata.Provider, settings Settings, logger *slog.Logger) *Resolver {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Resolver{
		provider: provider,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "timestamp"),
	}
}

// Adjustment returns the delta registered for a group, matched case-insensitively.
func (s Settings) Adjustment(group string) (timedelta.Delta, bool) {
	delta, ok := s.Adjustments[strings.ToLower(group)]
	return delta, ok
}

// Resolve never fails: it always returns a Resolution, marked invalid when no
// usable date exists.
func (r *Resolver) Resolve(ctx context.Context, file media.File) Resolution {
	path, mtime := file.TimestampSource()
	res := Resolution{SourcePath: path, Source: SourceNone}
	if file.Original != "" {
		res.Trail = append(res.Trail, Attempt{Source: SourceNone, Outcome: OutcomeSkipped, Detail: "stabilized variant; resolving from " + file.Original})
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.Path(file.Path), logging.String(logging.FieldGroup, file.Class.Group))

	candidate, source, ok := r.pick(ctx, file, path, mtime, &res, logger)
	if !ok {
		res.Local = mtime.In(r.settings.Location)
		logger.Info("no usable date; routing to invalid bucket",
			logging.Args(logging.DecisionAttrs("timestamp_source", string(SourceNone), trailSummary(res.Trail))...)...)
		return res
	}

	res.Valid = true
	res.Source = source
	res.Candidate = candidate
	res.Local = candidate
	if delta, ok := r.settings.Adjustment(file.Class.Group); ok && !delta.IsZero() {
		res.Local = delta.Apply(candidate)
		res.Adjustment = delta.String()
	}
	logger.Debug("timestamp resolved",
		logging.Args(append(logging.DecisionAttrs("timestamp_source", string(source), trailSummary(res.Trail)),
			logging.String("local", res.Local.Format(time.RFC3339)),
			logging.String("adjustment", res.Adjustment))...)...)
	return res
}

func (r *Resolver) pick(ctx context.Context, file media.File, path string, mtime time.Time, res *Resolution, logger *slog.Logger) (time.Time, Source, bool) {
	loc := r.settings.Location
	drone := file.Class.Drone

	if drone && file.Class.Kind == media.KindVideo {
		created, err := r.provider.VideoCreationTime(ctx, path)
		switch {
		case err != nil:
			logger.Debug("drone creation time unavailable", logging.Error(err))
			res.record(SourceDeviceUTC, OutcomeFailed, "", err.Error())
		case created.Zoned:
			res.UTC = created.Value
			local := created.Value.In(loc)
			res.record(SourceDeviceUTC, OutcomeUsed, created.Raw, "converted to "+loc.String())
			return local, SourceDeviceUTC, true
		case r.settings.DroneLocalTolerance > 0 && absDuration(naive(created.Value, loc).Sub(mtime)) <= r.settings.DroneLocalTolerance:
			res.record(SourceDeviceUTC, OutcomeRejected, created.Raw, "naive creation_time matches mtime; camera clock already local")
			res.record(SourceMtime, OutcomeUsed, mtime.Format(time.RFC3339), "drone clock local")
			return mtime.In(loc), SourceMtime, true
		default:
			res.record(SourceDeviceUTC, OutcomeRejected, created.Raw, "creation_time has no zone designator")
		}
	}

	if drone && file.Class.Kind == media.KindPhoto {
		if !r.plausible(mtime) {
			res.record(SourceMtime, OutcomeRejected, mtime.Format(time.RFC3339), "year out of range")
			return time.Time{}, SourceNone, false
		}
		res.record(SourceMtime, OutcomeUsed, mtime.Format(time.RFC3339), "drone photo metadata ignored")
		return mtime.In(loc), SourceMtime, true
	}

	capture, err := r.provider.CaptureTime(ctx, path)
	if err != nil {
		logger.Debug("capture time unavailable", logging.Error(err))
		res.record(SourceImageMetadata, OutcomeFailed, "", err.Error())
	} else {
		res.record(SourceImageMetadata, OutcomeUsed, capture.Value.Format(time.DateTime), capture.Tool+" "+capture.Tag)
		return naive(capture.Value, loc), SourceImageMetadata, true
	}

	if parsed, label, ok := ParseFilename(file.Name); ok {
		if r.plausible(parsed) {
			res.record(SourceFilename, OutcomeUsed, parsed.Format(time.DateTime), label)
			return naive(parsed, loc), SourceFilename, true
		}
		res.record(SourceFilename, OutcomeRejected, parsed.Format(time.DateTime), "year out of range")
	} else {
		res.record(SourceFilename, OutcomeAbsent, "", "")
	}

	value := mtime.Format(time.RFC3339)
	switch {
	case !r.plausible(mtime):
		res.record(SourceMtime, OutcomeRejected, value, "year out of range")
	case !r.trustMtime(file):
		res.record(SourceMtime, OutcomeRejected, value, "mtime fallback not trusted for group "+file.Class.Group)
	default:
		res.record(SourceMtime, OutcomeUsed, value, "last resort")
		return mtime.In(loc), SourceMtime, true
	}
	return time.Time{}, SourceNone, false
}

func (r *Resolver) trustMtime(file media.File) bool {
	switch r.settings.MtimeFallback {
	case config.MtimeFallbackAlways:
		return true
	case config.MtimeFallbackNever:
		return false
	default:
		return file.Class.Drone || strings.Contains(strings.ToLower(file.Name), "dji")
	}
}

func (r *Resolver) plausible(t time.Time) bool {
	if r.settings.MinYear == 0 && r.settings.MaxYear == 0 {
		return true
	}
	year := t.Year()
	return year >= r.settings.MinYear && year <= r.settings.MaxYear
}

func (res *Resolution) record(source Source, outcome, value, detail string) {
	res.Trail = append(res.Trail, Attempt{Source: source, Outcome: outcome, Value: value, Detail: detail})
}

// naive reinterprets wall-clock components in loc without zone conversion.
func naive(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func trailSummary(trail []Attempt) string {
	parts := make([]string, 0, len(trail))
	for _, attempt := range trail {
		parts = append(parts, fmt.Sprintf("%s:%s", attempt.Source, attempt.Outcome))
	}
	return strings.Join(parts, ",")
}
