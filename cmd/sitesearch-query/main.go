// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sitesearch-query runs a search against a published site the way the
// in-browser client does: it fetches the manifest, then only the index
// chunks the query needs, and falls back to the simple index when the
// full-text index is unavailable. Useful for checking a deploy.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/sitesearch/lib/logging"
	"github.com/bureau-foundation/sitesearch/lib/query"
	"github.com/bureau-foundation/sitesearch/lib/result"
	"github.com/bureau-foundation/sitesearch/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var baseURL, simpleURL, logLevel string
	var limit int
	var outputJSON, noFull bool
	var maxSimpleSize int64

	flagSet := pflag.NewFlagSet("sitesearch-query", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "base-url", "", "URL of the chunked index directory (holding search-manifest.json)")
	flagSet.StringVar(&simpleURL, "simple-url", "", "URL of the simple index (search.json or search.json.gz)")
	flagSet.IntVar(&limit, "limit", result.DefaultLimit, "maximum number of results")
	flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
	flagSet.BoolVar(&noFull, "no-full", false, "skip the full-text index and use the simple index")
	flagSet.Int64Var(&maxSimpleSize, "max-simple-size", 0, "largest simple index to load, in bytes (0: default cap)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")

	if len(args) > 0 && args[0] == "--version" {
		fmt.Fprintln(stdout, version.Full("sitesearch-query"))
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
	queryText := strings.Join(flagSet.Args(), " ")
	if strings.TrimSpace(queryText) == "" {
		return errors.New("no query given")
	}
	if baseURL == "" && simpleURL == "" {
		return errors.New("one of --base-url or --simple-url is required")
	}

	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := query.Open(ctx, query.Options{
		BaseURL:            baseURL,
		SimpleIndexURL:     simpleURL,
		EnableFull:         !noFull,
		MaxSimpleIndexSize: maxSimpleSize,
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	response, err := engine.Search(ctx, queryText, limit)
	if err != nil {
		return err
	}

	if outputJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}
	render(stdout, response, engine.Reason(), outputWidth(stdout))
	return nil
}

// outputWidth returns the terminal width of stdout, or 0 when stdout
// is not a terminal.
func outputWidth(stdout io.Writer) int {
	file, ok := stdout.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sitesearch-query searches a published site index.

The full-text index is read through its manifest, fetching only the
chunks the query needs. When it is unavailable (or --no-full is set)
the simple index is used. If neither loads, the command prints
"search unavailable" and exits 0.

Usage:
  sitesearch-query [flags] <query words...>

Examples:
  # Query a deployed site
  sitesearch-query --base-url https://example.org/search \
      --simple-url https://example.org/search.json rust ownership

  # JSON output, simple index only
  sitesearch-query --simple-url http://localhost:8000/search.json.gz --json closures

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
