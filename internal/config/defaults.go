package config

const (
	defaultConfigPath         = "~/.config/ucextract/config.toml"
	projectConfigName         = "ucextract.toml"
	defaultStatePath          = "~/.local/share/ucextract/blacklist.json"
	defaultLogDir             = ""
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultThresholdPercent   = 80.0
	defaultWarmupMinDocs      = 10
	defaultScannerWindow      = 120
	defaultFallbackConfidence = 0.4
	defaultBatchWorkers       = 4
	defaultBatchSize          = 64
)

// Environment variables consulted when the matching setting is empty.
const (
	EnvStatePath = "UCEXTRACT_STATE_PATH"
	EnvRulesPath = "UCEXTRACT_RULES_PATH"
	EnvLogLevel  = "UCEXTRACT_LOG_LEVEL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Blacklist: Blacklist{
			Enabled:          true,
			StatePath:        defaultStatePath,
			ThresholdPercent: defaultThresholdPercent,
			WarmupMinDocs:    defaultWarmupMinDocs,
		},
		Scanner: Scanner{
			Window:             defaultScannerWindow,
			FallbackEnabled:    true,
			FallbackConfidence: defaultFallbackConfidence,
		},
		Batch: Batch{
			Workers:   defaultBatchWorkers,
			BatchSize: defaultBatchSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
