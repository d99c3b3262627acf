// Command quakeproduct lists or downloads product content files for one
// event. Without -get it lists the resolved submissions and their content
// paths; with -get it downloads the first content file matching the
// pattern from each resolved submission.
//
// Usage:
//
//	quakeproduct -event us1000abcd -product shakemap
//	quakeproduct -event us1000abcd -product shakemap -get "grid.xml*" -dest ./out
//	quakeproduct -event us1000abcd -product origin -source all -version all -get quakeml.xml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/adapter/comcat"
	"github.com/couchcryptid/quake-catalog/internal/cli"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

func main() {
	eventID := flag.String("event", "", "event id (required)")
	productType := flag.String("product", "", "product type; optional when the event has exactly one")
	source := flag.String("source", "preferred", "source selector: preferred, all, or a network code")
	version := flag.String("version", "last", "version selector: first, last, or all")
	pattern := flag.String("get", "", "download the content file matching this glob pattern")
	dest := flag.String("dest", ".", "destination directory for downloads")
	baseURL := flag.String("base-url", "", "event service base URL (default production ComCat)")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "-event is required")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*eventID, *productType, *source, *version, *pattern, *dest, *baseURL, *timeout, *logLevel))
}

func run(eventID, productType, source, version, pattern, dest, baseURL string, timeout time.Duration, logLevel string) int {
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

	products, err := domain.ResolveProducts(detail, productType, cli.SourceSelector(source), versionSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve products: %v\n", err)
		return 1
	}

	if pattern == "" {
		listProducts(products)
		return 0
	}
	return downloadProducts(ctx, client, products, pattern, dest)
}

func listProducts(products []domain.ResolvedProduct) {
	for _, p := range products {
		fmt.Printf("%s version %d (%s, weight %d)\n",
			p.Source, p.OrdinalVersion, p.UpdateTime.Format(time.RFC3339), p.PreferredWeight)
		for _, name := range p.ContentNames() {
			fmt.Printf("  %s\n", name)
		}
	}
}

func downloadProducts(ctx context.Context, client *comcat.Client, products []domain.ResolvedProduct, pattern, dest string) int {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create destination: %v\n", err)
		return 1
	}

	var failed int
	for _, p := range products {
		subDir := dest
		if len(products) > 1 {
			subDir = fmt.Sprintf("%s/%s-v%d", dest, p.Source, p.OrdinalVersion)
			if err := os.MkdirAll(subDir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "create %s: %v\n", subDir, err)
				failed++
				continue
			}
		}

		path, err := client.DownloadContent(ctx, p, pattern, subDir)
		if err != nil {
			if errors.Is(err, domain.ErrContentNotFound) {
				fmt.Fprintf(os.Stderr, "%s version %d: no content matches %q\n", p.Source, p.OrdinalVersion, pattern)
			} else {
				fmt.Fprintf(os.Stderr, "%s version %d: %v\n", p.Source, p.OrdinalVersion, err)
			}
			failed++
			continue
		}
		fmt.Println(path)
	}

	if failed > 0 {
		return 1
	}
	return 0
}
