package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"footage/internal/services"
	"footage/internal/timedelta"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the raw, staging, and final tree roots plus local state.
type Paths struct {
	RawRoot     string `toml:"raw_root"`
	StagingRoot string `toml:"staging_root"`
	FinalRoot   string `toml:"final_root"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Timestamps controls timestamp resolution.
type Timestamps struct {
	Timezone                   string `toml:"timezone"`
	MinYear                    int    `toml:"min_year"`
	MaxYear                    int    `toml:"max_year"`
	MtimeFallback              string `toml:"mtime_fallback"`
	DroneLocalToleranceSeconds int    `toml:"drone_local_tolerance_seconds"`
	AdjustmentsFile            string `toml:"adjustments_file"`
}

// Media contains classification rules.
type Media struct {
	DroneGroups     []string `toml:"drone_groups"`
	VideoExtensions []string `toml:"video_extensions"`
	PhotoExtensions []string `toml:"photo_extensions"`
	IncludeVideos   bool     `toml:"include_videos"`
	IncludePhotos   bool     `toml:"include_photos"`
}

// Metadata configures the external inspection tools.
type Metadata struct {
	FFprobeBinary      string `toml:"ffprobe_binary"`
	ExiftoolBinary     string `toml:"exiftool_binary"`
	ToolTimeoutSeconds int    `toml:"tool_timeout_seconds"`
	NativeEXIF         bool   `toml:"native_exif"`
}

// Planner configures placeholder generation.
type Planner struct {
	Workers     int  `toml:"workers"`
	Overwrite   bool `toml:"overwrite"`
	RawMetadata bool `toml:"raw_metadata"`
}

// Transfer configures the transfer executor.
type Transfer struct {
	Mode          string `toml:"mode"`
	MinFreeBytes  int64  `toml:"min_free_bytes"`
	ConfirmMoves  bool   `toml:"confirm_moves"`
	SkipFreeCheck bool   `toml:"skip_free_check"`
}

// Catalog configures the CSV catalog export.
type Catalog struct {
	Filename      string              `toml:"filename"`
	Families      map[string][]string `toml:"families"`
	DynamicColors []string            `toml:"dynamic_colors"`
	FallbackColor string              `toml:"fallback_color"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for footage.
//
// Configuration sections by subsystem:
//   - Paths: raw, staging, and final roots plus state/log directories
//   - Timestamps: target timezone and timestamp usability rules
//   - Media: group and kind classification
//   - Metadata: ffprobe/exiftool binaries and timeouts
//   - Planner, Transfer, Catalog: per-operation settings
//   - Logging: log format and level
//   - TimeAdjustments: group name to [+|-]YYYYMMDD_HHMMSS delta
type Config struct {
	Paths           Paths             `toml:"paths"`
	Timestamps      Timestamps        `toml:"timestamps"`
	Media           Media             `toml:"media"`
	Metadata        Metadata          `toml:"metadata"`
	Planner         Planner           `toml:"planner"`
	Transfer        Transfer          `toml:"transfer"`
	Catalog         Catalog           `toml:"catalog"`
	Logging         Logging           `toml:"logging"`
	TimeAdjustments map[string]string `toml:"time_adjustments"`

	// rejectedAdjustments holds adjustments-file entries that are not strings.
	rejectedAdjustments map[string]error
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. The adjustments file, when configured, is merged
// into TimeAdjustments; entries from the TOML table win.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Read(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// Read is Load without validation so callers can apply flag overrides first.
func Read(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfigParse, "config", "decode", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.mergeAdjustmentsFile(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("footage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// mergeAdjustmentsFile reads the JSON group -> delta map. An unreadable file or
// one that is not a JSON object is fatal for the run; an entry that is not a
// string only rejects that group.
func (c *Config) mergeAdjustmentsFile() error {
	path := c.Timestamps.AdjustmentsFile
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return services.Wrap(services.ErrConfigParse, "config", "read adjustments", path, err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return services.Wrap(services.ErrConfigParse, "config", "decode adjustments", path, err)
	}
	merged := make(map[string]string, len(entries)+len(c.TimeAdjustments))
	rejected := make(map[string]error)
	for group, raw := range entries {
		group = normalizeGroup(group)
		var delta string
		if err := json.Unmarshal(raw, &delta); err != nil {
			rejected[group] = services.Wrap(services.ErrConfigParse, "config", "decode adjustment", path,
				fmt.Errorf("expected delta string, got %s", strings.TrimSpace(string(raw))))
			continue
		}
		merged[group] = delta
	}
	for group, delta := range c.TimeAdjustments {
		merged[group] = delta
		delete(rejected, group)
	}
	c.TimeAdjustments = merged
	if len(rejected) > 0 {
		c.rejectedAdjustments = rejected
	}
	return nil
}

// Adjustments parses every configured delta. Malformed entries are returned as
// ErrConfigParse errors and left out of the map; the remaining groups still load.
func (c *Config) Adjustments() (map[string]timedelta.Delta, []error) {
	out := make(map[string]timedelta.Delta, len(c.TimeAdjustments))
	var errs []error
	groups := make([]string, 0, len(c.TimeAdjustments)+len(c.rejectedAdjustments))
	for group := range c.TimeAdjustments {
		groups = append(groups, group)
	}
	for group := range c.rejectedAdjustments {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		if err, ok := c.rejectedAdjustments[group]; ok {
			errs = append(errs, fmt.Errorf("time_adjustments.%s: %w", group, err))
			continue
		}
		delta, err := timedelta.Parse(c.TimeAdjustments[group])
		if err != nil {
			errs = append(errs, fmt.Errorf("time_adjustments.%s: %w", group, err))
			continue
		}
		out[group] = delta
	}
	return out, errs
}

// Location loads the configured target timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timestamps.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timestamps.timezone: %w", err)
	}
	return loc, nil
}

// ToolTimeout returns the per-invocation bound for external tools.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Metadata.ToolTimeoutSeconds) * time.Second
}

// DroneLocalTolerance returns the naive drone clock tolerance, zero when disabled.
func (c *Config) DroneLocalTolerance() time.Duration {
	return time.Duration(c.Timestamps.DroneLocalToleranceSeconds) * time.Second
}

// LedgerPath returns the sqlite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LogPath returns the log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "footage.log")
}

// CatalogPath returns the CSV catalog output path inside the final root.
func (c *Config) CatalogPath() string {
	if filepath.IsAbs(c.Catalog.Filename) {
		return c.Catalog.Filename
	}
	return filepath.Join(c.Paths.FinalRoot, c.Catalog.Filename)
}

// EnsureDirectories creates the state and log directories. The staging root
// is created by staging.Acquire and the final root by transfer, so a dry run
// materializes neither.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
