package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sola-docstore/internal/logging"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/viper"
)

// Configuration keys. Each is read from the environment variable of the same
// name, from a config file when one is loaded, or from a bound CLI flag.
const (
	KeyCacheFolder      = "DOCUMENT_CACHE_FOLDER"
	KeyCacheMaxSize     = "DOCUMENT_CACHE_MAX_SIZE"
	KeyCacheResized     = "DOCUMENT_CACHE_RESIZED"
	KeyScanFolder       = "NETWORK_SCAN_FOLDER"
	KeyCleanScanFolder  = "CLEAN_NETWORK_SCAN_FOLDER"
	KeyScanLifetime     = "SCANNED_FILE_LIFETIME"
	KeyScanPollPeriod   = "CLEAN_NETWORK_SCAN_FOLDER_POLL_PERIOD"
	KeyThumbnailWorkers = "THUMBNAIL_WORKERS"
	KeyThumbnailTimeout = "THUMBNAIL_TIMEOUT"
	KeyPort             = "PORT"
	KeyMetricsEnabled   = "METRICS_ENABLED"
	KeyLogHealthChecks  = "LOG_HEALTH_CHECKS"
	KeyLogLevel         = "LOG_LEVEL"
	KeyConfigFile       = "CONFIG_FILE"
)

// Config holds all application configuration
type Config struct {
	CacheDir          string
	CacheMaxBytes     int64
	CacheResizedBytes int64

	ScanDir         string
	CleanScanFolder bool
	ScanLifetime    time.Duration
	ScanPollPeriod  time.Duration

	ThumbnailWorkers int
	ThumbnailTimeout time.Duration

	Port            string
	MetricsEnabled  bool
	LogHealthChecks bool
	LogLevel        string
}

// DefaultCacheFolder returns ~/sola/cache/documents, or a relative path
// when the home directory is unknown.
func DefaultCacheFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("sola", "cache", "documents")
	}
	return filepath.Join(home, "sola", "cache", "documents")
}

// NewViper returns a viper instance with every key defaulted and bound to
// the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyCacheFolder, DefaultCacheFolder())
	v.SetDefault(KeyCacheMaxSize, "200MB")
	v.SetDefault(KeyCacheResized, "120MB")
	v.SetDefault(KeyScanFolder, "")
	v.SetDefault(KeyCleanScanFolder, false)
	v.SetDefault(KeyScanLifetime, "72h")
	v.SetDefault(KeyScanPollPeriod, "1h")
	v.SetDefault(KeyThumbnailWorkers, 0)
	v.SetDefault(KeyThumbnailTimeout, "30s")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyLogHealthChecks, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyConfigFile, "")
	v.AutomaticEnv()
	return v
}

// ReadConfig decodes and validates the configuration held by v without
// logging it.
func ReadConfig(v *viper.Viper) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	maxBytes, err := parseSize(v.GetString(KeyCacheMaxSize))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyCacheMaxSize, err)
	}
	resizedBytes, err := parseSize(v.GetString(KeyCacheResized))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyCacheResized, err)
	}
	if maxBytes == 0 {
		return nil, fmt.Errorf("invalid %s: must be greater than zero", KeyCacheMaxSize)
	}
	if resizedBytes >= maxBytes {
		return nil, fmt.Errorf("%s (%d) must be smaller than %s (%d)",
			KeyCacheResized, resizedBytes, KeyCacheMaxSize, maxBytes)
	}

	scanLifetime, err := parseDuration(v, KeyScanLifetime)
	if err != nil {
		return nil, err
	}
	scanPollPeriod, err := parseDuration(v, KeyScanPollPeriod)
	if err != nil {
		return nil, err
	}
	thumbnailTimeout, err := parseDuration(v, KeyThumbnailTimeout)
	if err != nil {
		return nil, err
	}

	workers := v.GetInt(KeyThumbnailWorkers)
	if workers < 0 {
		return nil, fmt.Errorf("invalid %s: %d", KeyThumbnailWorkers, workers)
	}

	cacheDir, err := filepath.Abs(expandHome(v.GetString(KeyCacheFolder)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache folder path: %w", err)
	}

	scanDir := v.GetString(KeyScanFolder)
	if scanDir != "" {
		scanDir, err = filepath.Abs(expandHome(scanDir))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scan folder path: %w", err)
		}
	}

	level := strings.ToLower(v.GetString(KeyLogLevel))
	if _, ok := logging.ParseLevel(level); !ok {
		return nil, fmt.Errorf("invalid %s: %q", KeyLogLevel, level)
	}

	return &Config{
		CacheDir:          cacheDir,
		CacheMaxBytes:     int64(maxBytes),
		CacheResizedBytes: int64(resizedBytes),
		ScanDir:           scanDir,
		CleanScanFolder:   v.GetBool(KeyCleanScanFolder),
		ScanLifetime:      scanLifetime,
		ScanPollPeriod:    scanPollPeriod,
		ThumbnailWorkers:  workers,
		ThumbnailTimeout:  thumbnailTimeout,
		Port:              v.GetString(KeyPort),
		MetricsEnabled:    v.GetBool(KeyMetricsEnabled),
		LogHealthChecks:   v.GetBool(KeyLogHealthChecks),
		LogLevel:          level,
	}, nil
}

// LoadConfig prints the startup banner, reads the configuration and checks
// the folders it names.
func LoadConfig(v *viper.Viper) (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := ReadConfig(v)
	if err != nil {
		return nil, err
	}

	logSection("CONFIGURATION")
	logging.Info("  %s:       %s", KeyCacheFolder, cfg.CacheDir)
	logging.Info("  %s:     %s", KeyCacheMaxSize, datasize.ByteSize(cfg.CacheMaxBytes).HR())
	logging.Info("  %s:      %s", KeyCacheResized, datasize.ByteSize(cfg.CacheResizedBytes).HR())
	logging.Info("  %s:         %s", KeyScanFolder, orNone(cfg.ScanDir))
	logging.Info("  %s:   %v", KeyCleanScanFolder, cfg.CleanScanFolder)
	logging.Info("  %s:       %v", KeyScanLifetime, cfg.ScanLifetime)
	logging.Info("  %s: %v", KeyScanPollPeriod, cfg.ScanPollPeriod)
	logging.Info("  %s:           %d (0 = CPU count)", KeyThumbnailWorkers, cfg.ThumbnailWorkers)
	logging.Info("  %s:           %v", KeyThumbnailTimeout, cfg.ThumbnailTimeout)
	logging.Info("  %s:                        %s", KeyPort, cfg.Port)
	logging.Info("  %s:             %v", KeyMetricsEnabled, cfg.MetricsEnabled)
	logging.Info("  %s:           %v", KeyLogHealthChecks, cfg.LogHealthChecks)
	logging.Info("  %s:                   %s", KeyLogLevel, cfg.LogLevel)
	if used := v.ConfigFileUsed(); used != "" {
		logging.Info("  Config file:                 %s", used)
	}

	logSection("DIRECTORY SETUP")

	// The cache root is created lazily by the first write.
	if err := checkOptionalDir(cfg.CacheDir, "cache"); err != nil {
		return nil, fmt.Errorf("cache folder error: %w", err)
	}

	if cfg.ScanDir != "" {
		if err := checkOptionalDir(cfg.ScanDir, "scan"); err != nil {
			logging.Warn("  Scan folder issue: %v", err)
		}
	} else if cfg.CleanScanFolder {
		logging.Warn("  %s is set but %s is empty; scan folder cleaning disabled", KeyCleanScanFolder, KeyScanFolder)
		cfg.CleanScanFolder = false
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Scan listing:    %s", enabledString(cfg.ScanDir != ""))
	logging.Info("    Scan cleaning:   %s", enabledString(cfg.CleanScanFolder))
	logging.Info("    Metrics:         %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// readConfigFile merges the file named by CONFIG_FILE into v. Environment
// variables and flags still take precedence over its values.
func readConfigFile(v *viper.Viper) error {
	path := v.GetString(KeyConfigFile)
	if path == "" {
		return nil
	}
	v.SetConfigFile(expandHome(path))
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// parseSize accepts datasize strings ("200MB", "512kb") and plain byte counts.
func parseSize(s string) (datasize.ByteSize, error) {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, err
	}
	return size, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: %s must be positive", key, raw)
	}
	return d, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
