// Command quakehistory prints the product version history of one event
// as a flattened CSV table: one row per surviving submission, ordered by
// source then version.
//
// Usage:
//
//	quakehistory -event us1000abcd -product shakemap
//	quakehistory -event us1000abcd -product origin -source all -version all
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/adapter/comcat"
	"github.com/couchcryptid/quake-catalog/internal/cli"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/export"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

func main() {
	eventID := flag.String("event", "", "event id (required)")
	productType := flag.String("product", "", "product type; optional when the event has exactly one")
	source := flag.String("source", "preferred", "source selector: preferred, all, or a network code")
	version := flag.String("version", "all", "version selector: first, last, or all")
	baseURL := flag.String("base-url", "", "event service base URL (default production ComCat)")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	format := flag.String("format", "csv", "output format: csv or tsv")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "-event is required")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*eventID, *productType, *source, *version, *baseURL, *timeout, *format, *logLevel))
}

func run(eventID, productType, source, version, baseURL string, timeout time.Duration, format, logLevel string) int {
	sep := ','
	if format == "tsv" {
		sep = '\t'
	} else if format != "csv" {
		fmt.Fprintf(os.Stderr, "invalid -format %q: want csv or tsv\n", format)
		return 2
	}

	versionSel, err := cli.VersionSelector(version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := observability.NewLogger(logLevel, "text")
	client := comcat.NewClient(baseURL, timeout, logger, observability.NewMetrics())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	detail, err := client.Detail(ctx, eventID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch event %s: %v\n", eventID, err)
		return 1
	}

	if productType == "" {
		productType, err = detail.SingleProductType()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	table, err := domain.HistoryTable(detail, productType, cli.SourceSelector(source), versionSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve products: %v\n", err)
		return 1
	}

	if err := export.WriteCSV(os.Stdout, table, sep); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
