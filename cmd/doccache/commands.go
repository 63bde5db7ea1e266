package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sola-docstore/internal/scans"
	"sola-docstore/internal/startup"
	"sola-docstore/internal/thumbnail"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultJPEGQuality = 85

// errNotCached is returned by get for keys without a cache entry.
var errNotCached = errors.New("not cached")

func newPutCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <file>",
		Short: "Store a file in the cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			if err := mgr.Put(args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s)\n", args[0], datasize.ByteSize(len(data)).HR())
			return nil
		},
	}
}

func newGetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key> [out]",
		Short: "Write a cached document to a file or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			data, found, err := mgr.Get(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: %w", args[0], errNotCached)
			}
			if len(args) == 1 {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
}

func newExistsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether a key is cached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.IsCached(args[0]))
			return nil
		},
	}
}

func newPathCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "path <key>",
		Short: "Print the location of a key inside the cache root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			path, err := mgr.Path(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newSizeCmd(v *viper.Viper) *cobra.Command {
	var recursive, human bool
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Print the total size of the cache root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			size := mgr.DirectorySize(recursive)
			if human {
				fmt.Fprintln(cmd.OutOrStdout(), datasize.ByteSize(size).HR())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "include subdirectories")
	cmd.Flags().BoolVarP(&human, "human", "H", false, "print a human readable size")
	return cmd
}

func newStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			stats, err := mgr.Stats()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}

func newEvictCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "evict",
		Short: "Trim the cache if it is over its size limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openCache(v)
			if err != nil {
				return err
			}
			before := mgr.DirectorySize(false)
			mgr.MaintainCache(0)
			after := mgr.DirectorySize(false)
			fmt.Fprintf(cmd.OutOrStdout(), "cache size %s -> %s\n",
				datasize.ByteSize(before).HR(), datasize.ByteSize(after).HR())
			return nil
		},
	}
}

func newThumbnailCmd() *cobra.Command {
	var width, height, quality int
	cmd := &cobra.Command{
		Use:   "thumbnail <file> <out>",
		Short: "Render a thumbnail of a document",
		Long: "Render a thumbnail of a JPEG, PDF or raster image. The output format " +
			"follows the extension of out: .png writes PNG, anything else JPEG.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// libvips is only started for formats the Go decoders cannot read.
			if !thumbnail.DefaultRegistry().Supports(args[0]) {
				if err := thumbnail.InitVips(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "libvips unavailable: %v\n", err)
				}
				defer thumbnail.ShutdownVips()
			}

			bmp, err := thumbnail.NewPipeline(nil).Generate(args[0], width, height)
			if err != nil {
				return err
			}
			return writeBitmap(bmp, args[1], quality)
		},
	}
	cmd.Flags().IntVarP(&width, "width", "W", 256, "maximum width, 0 to follow the height")
	cmd.Flags().IntVarP(&height, "height", "H", 0, "maximum height, 0 to follow the width")
	cmd.Flags().IntVarP(&quality, "quality", "q", defaultJPEGQuality, "JPEG quality")
	return cmd
}

func writeBitmap(bmp *thumbnail.Bitmap, out string, quality int) (err error) {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(out), ".png") {
		return bmp.EncodePNG(f)
	}
	return bmp.EncodeJPEG(f, quality)
}

func newCleanScansCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clean-scans",
		Short: "Delete expired files from the network scan folder once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := startup.ReadConfig(v)
			if err != nil {
				return err
			}
			if cfg.ScanDir == "" {
				return fmt.Errorf("no scan folder configured (set %s or --scan-folder)", startup.KeyScanFolder)
			}
			janitor, err := scans.NewJanitor(scans.Config{
				Dir:      cfg.ScanDir,
				Lifetime: cfg.ScanLifetime,
				Interval: cfg.ScanPollPeriod,
			})
			if err != nil {
				return err
			}
			removed, err := janitor.Clean()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) from %s\n", removed, cfg.ScanDir)
			return err
		},
	}
}
