package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/media/exiftool"
	"footage/internal/media/ffprobe"
	"footage/internal/services"
)

const inspectCacheSize = 64

// ToolProvider implements Provider with ffprobe for videos and exiftool (or
// native EXIF decoding) for capture times.
type ToolProvider struct {
	ffprobeBinary  string
	exiftoolBinary string
	timeout        time.Duration
	nativeEXIF     bool
	logger         *slog.Logger

	exifOnce sync.Once
	exif     *exiftool.Client
	exifErr  error

	cacheMu      sync.Mutex
	inspected    map[string]ffprobe.Result
	inspectOrder []string

	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewToolProvider builds a provider from the metadata section. exiftool is
// started lazily on first use.
func NewToolProvider(cfg *config.Config, logger *slog.Logger) *ToolProvider {
	return &ToolProvider{
		ffprobeBinary:  cfg.Metadata.FFprobeBinary,
		exiftoolBinary: cfg.Metadata.ExiftoolBinary,
		timeout:        cfg.ToolTimeout(),
		nativeEXIF:     cfg.Metadata.NativeEXIF,
		logger:         logging.NewComponentLogger(logger, "metadata"),
		inspected:      make(map[string]ffprobe.Result, inspectCacheSize),
		inspect:        ffprobe.Inspect,
	}
}

// Close stops the shared exiftool process, if one was started.
func (p *ToolProvider) Close() error {
	if p.exif == nil {
		return nil
	}
	return p.exif.Close()
}

// VideoCreationTime reads creation_time from the container, then the streams.
func (p *ToolProvider) VideoCreationTime(ctx context.Context, path string) (CreationTime, error) {
	result, err := p.ffprobeResult(ctx, path)
	if err != nil {
		return CreationTime{}, err
	}
	raw, ok := result.CreationTime()
	if !ok {
		return CreationTime{}, services.Wrap(services.ErrMetadataExtraction, "metadata", "ffprobe", "no creation_time tag", nil)
	}
	created, ok := ParseCreationTime(raw)
	if !ok {
		return CreationTime{}, services.Wrap(services.ErrMetadataExtraction, "metadata", "ffprobe", fmt.Sprintf("unparseable creation_time %q", raw), nil)
	}
	return created, nil
}

// CaptureTime asks exiftool first and falls back to native EXIF decoding.
func (p *ToolProvider) CaptureTime(ctx context.Context, path string) (Capture, error) {
	var toolErr error
	if client, err := p.exiftool(); err == nil {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		value, tag, err := client.CaptureTime(callCtx, path)
		cancel()
		if err == nil {
			return Capture{Value: value, Tag: tag, Tool: "exiftool"}, nil
		}
		toolErr = err
	} else {
		toolErr = err
	}

	if p.nativeEXIF {
		value, tag, err := exiftool.NativeCaptureTime(path)
		if err == nil {
			return Capture{Value: value, Tag: tag, Tool: "goexif"}, nil
		}
		toolErr = errors.Join(toolErr, err)
	}
	return Capture{}, services.Wrap(services.ErrMetadataExtraction, "metadata", "capture time", path, toolErr)
}

// Technical returns stream properties of the primary video stream.
func (p *ToolProvider) Technical(ctx context.Context, path string) (Technical, error) {
	result, err := p.ffprobeResult(ctx, path)
	if err != nil {
		return Technical{}, err
	}
	return TechnicalFromFFprobe(result), nil
}

// TechnicalFromFFprobe maps ffprobe output to Technical and tags its color profile.
func TechnicalFromFFprobe(result ffprobe.Result) Technical {
	tech := Technical{
		Container:       result.Format.FormatName,
		DurationSeconds: result.DurationSeconds(),
		BitRate:         result.BitRate(),
	}
	if math.IsNaN(tech.DurationSeconds) {
		tech.DurationSeconds = 0
	}
	if stream, ok := result.PrimaryVideo(); ok {
		tech.Codec = stream.CodecName
		tech.CodecLongName = stream.CodecLongName
		tech.Profile = stream.Profile
		tech.Width = stream.Width
		tech.Height = stream.Height
		tech.FrameRate = stream.FrameRate()
		tech.PixFmt = stream.PixFmt
		tech.ColorRange = stream.ColorRange
		tech.ColorSpace = stream.ColorSpace
		tech.ColorTransfer = stream.ColorTransfer
		tech.ColorPrimaries = stream.ColorPrimaries
	}
	tech.ColorProfile = media.ClassifyColor(tech.ColorInfo())
	return tech
}

// Raw returns ffprobe's JSON for videos and exiftool's tag map, keyed by tool.
// It fails only when neither tool produced anything.
func (p *ToolProvider) Raw(ctx context.Context, path string, kind media.Kind) (map[string]any, error) {
	raw := make(map[string]any, 2)
	var errs []error
	if kind == media.KindVideo {
		result, err := p.ffprobeResult(ctx, path)
		if err != nil {
			errs = append(errs, err)
		} else if data := result.RawJSON(); len(data) > 0 {
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				errs = append(errs, fmt.Errorf("decode ffprobe output: %w", err))
			} else {
				raw["ffprobe"] = decoded
			}
		}
	}
	if client, err := p.exiftool(); err == nil {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		fields, err := client.Fields(callCtx, path)
		cancel()
		if err != nil {
			errs = append(errs, err)
		} else {
			raw["exiftool"] = fields
		}
	}
	if len(raw) == 0 {
		return nil, services.Wrap(services.ErrMetadataExtraction, "metadata", "raw", path, errors.Join(errs...))
	}
	return raw, nil
}

func (p *ToolProvider) ffprobeResult(ctx context.Context, path string) (ffprobe.Result, error) {
	p.cacheMu.Lock()
	if cached, ok := p.inspected[path]; ok {
		p.cacheMu.Unlock()
		return cached, nil
	}
	p.cacheMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result, err := p.inspect(callCtx, p.ffprobeBinary, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Debug("ffprobe timed out", logging.Path(path), logging.Duration("timeout", p.timeout))
		}
		return ffprobe.Result{}, services.Wrap(services.ErrMetadataExtraction, "metadata", "ffprobe", path, err)
	}

	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if _, ok := p.inspected[path]; !ok {
		if len(p.inspectOrder) >= inspectCacheSize {
			oldest := p.inspectOrder[0]
			p.inspectOrder = p.inspectOrder[1:]
			delete(p.inspected, oldest)
		}
		p.inspectOrder = append(p.inspectOrder, path)
		p.inspected[path] = result
	}
	return result, nil
}

func (p *ToolProvider) exiftool() (*exiftool.Client, error) {
	p.exifOnce.Do(func() {
		p.exif, p.exifErr = exiftool.Open(p.exiftoolBinary)
		if p.exifErr != nil {
			logging.WarnWithContext(p.logger, "exiftool unavailable", "exiftool_unavailable",
				logging.Error(p.exifErr),
				logging.Bool("native_exif", p.nativeEXIF),
				logging.String(logging.FieldErrorHint, "install exiftool or set metadata.exiftool_binary"),
				logging.String(logging.FieldImpact, "capture times limited to native EXIF decoding"),
			)
		}
	})
	return p.exif, p.exifErr
}
