// Package cli holds the flag handling shared by the command-line tools:
// search filter flags and their translation into a domain filter.
package cli

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Accepted layouts for time-valued flags.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// FilterFlags collects the search filter flags common to the tools.
// String fields hold raw flag values; empty means unset.
type FilterFlags struct {
	Start        string
	End          string
	UpdatedAfter string

	MinMagnitude string
	MaxMagnitude string

	Bounds  string
	Radius  string
	Country string

	Catalog     string
	Contributor string
	ProductType string
	EventType   string
	AlertLevel  string

	Limit int
}

// Register adds the filter flags to the flag set.
func (ff *FilterFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&ff.Start, "start", "", "start of the time window (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&ff.End, "end", "", "end of the time window (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&ff.UpdatedAfter, "updated-after", "", "only events updated after this time")
	fs.StringVar(&ff.MinMagnitude, "min-magnitude", "", "minimum magnitude")
	fs.StringVar(&ff.MaxMagnitude, "max-magnitude", "", "maximum magnitude")
	fs.StringVar(&ff.Bounds, "bounds", "", "bounding box as minLat,maxLat,minLon,maxLon")
	fs.StringVar(&ff.Radius, "radius", "", "search disc as lat,lon,radiusKm")
	fs.StringVar(&ff.Country, "country", "", "two-letter country code (resolved to bounding boxes)")
	fs.StringVar(&ff.Catalog, "catalog", "", "restrict to a contributing catalog")
	fs.StringVar(&ff.Contributor, "contributor", "", "restrict to a contributor")
	fs.StringVar(&ff.ProductType, "product-type", "", "only events that have this product type")
	fs.StringVar(&ff.EventType, "event-type", "", "restrict to an event type, e.g. earthquake")
	fs.StringVar(&ff.AlertLevel, "alert-level", "", "restrict to a PAGER alert level")
	fs.IntVar(&ff.Limit, "limit", 0, "maximum number of events (0 means no explicit limit)")
}

// Filter validates the raw flag values and builds the domain filter.
func (ff *FilterFlags) Filter() (domain.Filter, error) {
	f := domain.Filter{
		Country:     ff.Country,
		Catalog:     ff.Catalog,
		Contributor: ff.Contributor,
		ProductType: ff.ProductType,
		EventType:   ff.EventType,
		AlertLevel:  ff.AlertLevel,
		Limit:       ff.Limit,
	}

	var err error
	if f.StartTime, err = parseTimeFlag("start", ff.Start); err != nil {
		return domain.Filter{}, err
	}
	if f.EndTime, err = parseTimeFlag("end", ff.End); err != nil {
		return domain.Filter{}, err
	}
	if f.UpdatedAfter, err = parseTimeFlag("updated-after", ff.UpdatedAfter); err != nil {
		return domain.Filter{}, err
	}
	if f.MinMagnitude, err = parseFloatFlag("min-magnitude", ff.MinMagnitude); err != nil {
		return domain.Filter{}, err
	}
	if f.MaxMagnitude, err = parseFloatFlag("max-magnitude", ff.MaxMagnitude); err != nil {
		return domain.Filter{}, err
	}

	if ff.Bounds != "" {
		parts, err := parseFloats("bounds", ff.Bounds, 4)
		if err != nil {
			return domain.Filter{}, err
		}
		f.Bounds = &domain.Bounds{
			MinLatitude:  parts[0],
			MaxLatitude:  parts[1],
			MinLongitude: parts[2],
			MaxLongitude: parts[3],
		}
	}
	if ff.Radius != "" {
		parts, err := parseFloats("radius", ff.Radius, 3)
		if err != nil {
			return domain.Filter{}, err
		}
		f.Radius = &domain.Radius{
			Latitude:    parts[0],
			Longitude:   parts[1],
			MaxRadiusKm: parts[2],
		}
	}

	return f, nil
}

// SourceSelector maps the -source flag value onto its selector.
func SourceSelector(value string) domain.SourceSelector {
	switch value {
	case "", "preferred":
		return domain.SourcePreferred
	case "all":
		return domain.SourceAll
	default:
		return domain.SourceSelector(value)
	}
}

// VersionSelector maps the -version flag value onto its selector,
// rejecting anything but first, last, or all.
func VersionSelector(value string) (domain.VersionSelector, error) {
	switch value {
	case "", "last":
		return domain.VersionLast, nil
	case "first":
		return domain.VersionFirst, nil
	case "all":
		return domain.VersionAll, nil
	default:
		return "", fmt.Errorf("invalid -version %q: want first, last, or all", value)
	}
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid -%s %q: want YYYY-MM-DD or RFC 3339", name, value)
}

func parseFloatFlag(name, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s %q: %w", name, value, err)
	}
	return &f, nil
}

func parseFloats(name, value string, want int) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("invalid -%s %q: want %d comma-separated numbers", name, value, want)
	}
	out := make([]float64, want)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -%s %q: %w", name, value, err)
		}
		out[i] = f
	}
	return out, nil
}
