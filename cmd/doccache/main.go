package main

import (
	"fmt"
	"os"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/logging"
	"sola-docstore/internal/startup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(startup.NewViper()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around v so tests can supply their own
// configuration.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          "doccache",
		Short:        "Inspect and maintain the SOLA document cache",
		Version:      startup.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, ok := logging.ParseLevel(v.GetString(startup.KeyLogLevel))
			if !ok {
				return fmt.Errorf("invalid log level %q", v.GetString(startup.KeyLogLevel))
			}
			logging.SetLevel(level)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("cache-folder", v.GetString(startup.KeyCacheFolder), "document cache root")
	flags.String("max-size", v.GetString(startup.KeyCacheMaxSize), "size above which the cache is trimmed")
	flags.String("resized-size", v.GetString(startup.KeyCacheResized), "size the cache is trimmed down to")
	flags.String("scan-folder", v.GetString(startup.KeyScanFolder), "network scan folder")
	flags.String("scan-lifetime", v.GetString(startup.KeyScanLifetime), "age after which scanned files are deleted")
	flags.String("log-level", v.GetString(startup.KeyLogLevel), "debug, info, warn or error")
	flags.String("config", v.GetString(startup.KeyConfigFile), "config file (yaml, toml or json)")

	bindings := map[string]string{
		startup.KeyCacheFolder:  "cache-folder",
		startup.KeyCacheMaxSize: "max-size",
		startup.KeyCacheResized: "resized-size",
		startup.KeyScanFolder:   "scan-folder",
		startup.KeyScanLifetime: "scan-lifetime",
		startup.KeyLogLevel:     "log-level",
		startup.KeyConfigFile:   "config",
	}
	for key, name := range bindings {
		// BindPFlag only fails for a nil flag.
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newPutCmd(v),
		newGetCmd(v),
		newExistsCmd(v),
		newPathCmd(v),
		newSizeCmd(v),
		newStatsCmd(v),
		newEvictCmd(v),
		newThumbnailCmd(),
		newCleanScansCmd(v),
	)
	return root
}

// openCache reads the configuration and opens the cache root it names.
func openCache(v *viper.Viper) (*cache.Manager, error) {
	cfg, err := startup.ReadConfig(v)
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Config{
		Root:         cfg.CacheDir,
		MaxBytes:     cfg.CacheMaxBytes,
		ResizedBytes: cfg.CacheResizedBytes,
	})
}
