// Command quakesearch searches the earthquake catalog and writes the
// matching events as a flattened CSV table.
//
// Usage:
//
//	quakesearch -start 2023-11-01 -end 2023-11-14 -min-magnitude 4.5
//	quakesearch -radius 35.7,-117.5,150 -count
//	quakesearch -bounds 50,72,-170,-130 -format tsv -o events.tsv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/adapter/comcat"
	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/cli"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/export"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

func main() {
	filterFlags := &cli.FilterFlags{}
	filterFlags.Register(flag.CommandLine)
	baseURL := flag.String("base-url", "", "event service base URL (default production ComCat)")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	countOnly := flag.Bool("count", false, "print the matching event count instead of the events")
	format := flag.String("format", "csv", "output format: csv or tsv")
	output := flag.String("o", "", "output file (default stdout)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	os.Exit(run(flag.CommandLine, *baseURL, *timeout, *countOnly, *format, *output, *logLevel, filterFlags))
}

func run(fs *flag.FlagSet, baseURL string, timeout time.Duration, countOnly bool, format, output, logLevel string, filterFlags *cli.FilterFlags) int {
	sep, err := separator(format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	filter, err := filterFlags.Filter()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	logger := observability.NewLogger(logLevel, "text")
	metrics := observability.NewMetrics()

	client := comcat.NewClient(baseURL, timeout, logger, metrics)
	service := catalog.New(client, nil, logger, metrics, 1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if countOnly {
		count, err := service.Count(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "count failed: %v\n", err)
			return 1
		}
		fmt.Println(count)
		return 0
	}

	events, err := service.Search(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		return 1
	}

	out, closeOut, err := openOutput(output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeOut()

	if err := export.WriteCSV(out, domain.EventTable(events), sep); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func separator(format string) (rune, error) {
	switch format {
	case "csv":
		return ',', nil
	case "tsv":
		return '\t', nil
	default:
		return 0, fmt.Errorf("invalid -format %q: want csv or tsv", format)
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
