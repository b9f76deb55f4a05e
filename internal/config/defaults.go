package config

const (
	defaultConfigPath          = "~/.config/footage/config.toml"
	defaultRawRoot             = "~/Footage_raw"
	defaultStagingRoot         = "~/Footage_metadata_sorted"
	defaultFinalRoot           = "~/Footage"
	defaultStateDir            = "~/.local/share/footage"
	defaultLogDir              = "~/.local/share/footage/logs"
	defaultTimezone            = "America/Montreal"
	defaultMinYear             = 1990
	defaultMaxYear             = 2099
	defaultMtimeFallback       = MtimeFallbackDrone
	defaultAdjustmentsFile     = "~/.config/footage/specific_group_time_adjust.json"
	defaultFFprobeBinary       = "ffprobe"
	defaultExiftoolBinary      = "exiftool"
	defaultToolTimeoutSeconds  = 10
	defaultPlannerWorkers      = 4
	defaultTransferMode        = TransferModeCopy
	defaultMinFreeBytes        = 1 << 30
	defaultCatalogFilename     = "metadata.csv"
	defaultCatalogFallback     = "Sand"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultDroneLocalTolerance = 0
)

// Mtime fallback policies.
const (
	MtimeFallbackAlways = "always"
	MtimeFallbackDrone  = "drone"
	MtimeFallbackNever  = "never"
)

// Transfer modes.
const (
	TransferModeCopy = "copy"
	TransferModeMove = "move"
)

func defaultDroneGroups() []string {
	return []string{"drone", "dji", "mini4", "mavic"}
}

func defaultVideoExtensions() []string {
	return []string{
		".mp4", ".mov", ".m4v", ".avi", ".mkv", ".mts", ".m2ts", ".wmv",
		".3gp", ".mpg", ".mpeg", ".insv", ".360", ".mod", ".tod",
	}
}

func defaultPhotoExtensions() []string {
	return []string{
		".jpg", ".jpeg", ".png", ".tiff", ".tif", ".raw", ".cr2", ".cr3",
		".nef", ".arw", ".dng", ".heic", ".heif",
	}
}

func defaultColorFamilies() map[string][]string {
	return map[string][]string{
		"DRONE":      {"Green", "Olive"},
		"CELL-BLAIN": {"Orange", "Tan"},
		"CANON":      {"Blue", "Cyan"},
	}
}

func defaultDynamicColors() []string {
	return []string{
		"Purple", "Violet", "Pink", "Rose", "Fuchsia", "Yellow",
		"Sand", "Brown", "Lavender", "Teal", "Magenta", "Red",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RawRoot:     defaultRawRoot,
			StagingRoot: defaultStagingRoot,
			FinalRoot:   defaultFinalRoot,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Timestamps: Timestamps{
			Timezone:                   defaultTimezone,
			MinYear:                    defaultMinYear,
			MaxYear:                    defaultMaxYear,
			MtimeFallback:              defaultMtimeFallback,
			DroneLocalToleranceSeconds: defaultDroneLocalTolerance,
			AdjustmentsFile:            defaultAdjustmentsFile,
		},
		Media: Media{
			DroneGroups:     defaultDroneGroups(),
			VideoExtensions: defaultVideoExtensions(),
			PhotoExtensions: defaultPhotoExtensions(),
			IncludeVideos:   true,
			IncludePhotos:   true,
		},
		Metadata: Metadata{
			FFprobeBinary:      defaultFFprobeBinary,
			ExiftoolBinary:     defaultExiftoolBinary,
			ToolTimeoutSeconds: defaultToolTimeoutSeconds,
			NativeEXIF:         true,
		},
		Planner: Planner{
			Workers: defaultPlannerWorkers,
		},
		Transfer: Transfer{
			Mode:         defaultTransferMode,
			MinFreeBytes: defaultMinFreeBytes,
			ConfirmMoves: true,
		},
		Catalog: Catalog{
			Filename:      defaultCatalogFilename,
			Families:      defaultColorFamilies(),
			DynamicColors: defaultDynamicColors(),
			FallbackColor: defaultCatalogFallback,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		TimeAdjustments: map[string]string{},
	}
}
