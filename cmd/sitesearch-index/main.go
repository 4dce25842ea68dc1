// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sitesearch-index builds the search indexes of a static site from the
// rendered page records the site generator exports. It writes the
// simple index artifact and the chunked full-text index into the site
// output directory, ready to be served as static files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sitesearch/lib/config"
	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/logging"
	"github.com/bureau-foundation/sitesearch/lib/sitebuild"
	"github.com/bureau-foundation/sitesearch/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, recordsPath, outputDir, logLevel string

	flagSet := pflag.NewFlagSet("sitesearch-index", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to sitesearch.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&recordsPath, "records", "", "path to the page records JSON export (required)")
	flagSet.StringVar(&outputDir, "output", "", "site output directory (overrides build.output_dir)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other commands.
	if len(args) > 0 && args[0] == "--version" {
		fmt.Println(version.Full("sitesearch-index"))
		return nil
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if recordsPath == "" {
		return errors.New("--records is required")
	}

	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if outputDir != "" {
		cfg.Build.OutputDir = outputDir
	}

	records, err := content.LoadFile(recordsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := sitebuild.Run(ctx, records, cfg, logger)
	if err != nil {
		return err
	}
	if summary.SimpleIndex != nil && summary.SimpleIndex.Oversized {
		logger.Warn("simple index exceeds the recommended size; consider relying on full-text search",
			"size", summary.SimpleIndex.Size,
			"max_size", cfg.Search.SimpleIndex.MaxSize,
		)
	}
	return nil
}

// loadConfig reads --config, then SITESEARCH_CONFIG, and otherwise
// uses the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sitesearch-index builds the search indexes of a static site.

Reads the page records exported by the site generator (JSON or JSONC:
an array of records, or an object with a "pages" array) and writes:

  {output}/search.json                  simple index (optional .gz)
  {output}/search/search-manifest.json  full-text index manifest
  {output}/search/{file}.{n}            full-text index chunks

Rebuilding unchanged content rewrites nothing.

Usage:
  sitesearch-index --records public/pages.json [flags]

Examples:
  # Build with defaults into ./public
  sitesearch-index --records public/pages.json

  # Use a config file and a different output directory
  sitesearch-index --config sitesearch.yaml --records pages.json --output dist

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
