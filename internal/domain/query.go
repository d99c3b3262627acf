package domain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// timeParamLayout is the ISO 8601 second-precision form the search API
// expects. All times are adjusted to UTC before formatting.
const timeParamLayout = "2006-01-02T15:04:05"

// Bounds is a latitude/longitude bounding box in degrees.
type Bounds struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Radius is a great-circle search disc.
type Radius struct {
	Latitude    float64
	Longitude   float64
	MaxRadiusKm float64
}

// RegionResolver turns a country code into one or more bounding boxes,
// expanded by a buffer distance. Countries split by the antimeridian
// resolve to several boxes; callers search each box and union the results.
// The polygon lookup itself is an external collaborator.
type RegionResolver interface {
	CountryBounds(ctx context.Context, countryCode string, bufferKm float64) ([]Bounds, error)
}

// Filter is the user-facing search filter set. At most one of Bounds,
// Radius, and Country may be set; zero of the three means no spatial
// filter. Country must be resolved to Bounds (see RegionResolver) before
// the filter can be rendered to query parameters.
type Filter struct {
	StartTime    time.Time
	EndTime      time.Time
	UpdatedAfter time.Time

	Bounds  *Bounds
	Radius  *Radius
	Country string

	MinMagnitude *float64
	MaxMagnitude *float64

	Catalog     string
	Contributor string
	ProductType string
	EventType   string
	AlertLevel  string

	Limit int
}

// Normalized fills the default time window: the 30 days ending now when
// both ends are unset, and now for a missing end.
func (f Filter) Normalized() Filter {
	now := clock.Now().UTC()
	if f.EndTime.IsZero() {
		f.EndTime = now
	}
	if f.StartTime.IsZero() {
		f.StartTime = f.EndTime.Add(-30 * 24 * time.Hour)
	}
	return f
}

// MinMagnitudeOrZero returns the magnitude floor for segment planning.
func (f Filter) MinMagnitudeOrZero() float64 {
	if f.MinMagnitude == nil {
		return 0
	}
	return *f.MinMagnitude
}

// Params renders the filter to canonical search query parameters:
// format=geojson, orderby=time-asc, and limit capped at SearchLimit.
//
// Bounding boxes given with minLongitude > 0 and maxLongitude < 0 straddle
// the antimeridian in raw ±180 coordinates; 360 is added to maxLongitude so
// min < max holds for the server's linear range filter. The transformation
// is deliberately one-way.
func (f Filter) Params() (url.Values, error) {
	if err := f.checkSpatial(); err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("format", "geojson")
	v.Set("orderby", "time-asc")

	limit := f.Limit
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	v.Set("limit", strconv.Itoa(limit))

	if !f.StartTime.IsZero() {
		v.Set("starttime", f.StartTime.UTC().Format(timeParamLayout))
	}
	if !f.EndTime.IsZero() {
		v.Set("endtime", f.EndTime.UTC().Format(timeParamLayout))
	}
	if !f.UpdatedAfter.IsZero() {
		v.Set("updatedafter", f.UpdatedAfter.UTC().Format(timeParamLayout))
	}

	if f.Bounds != nil {
		b := *f.Bounds
		if b.MinLongitude > 0 && b.MaxLongitude < 0 {
			b.MaxLongitude += 360
		}
		v.Set("minlatitude", formatDegrees(b.MinLatitude))
		v.Set("maxlatitude", formatDegrees(b.MaxLatitude))
		v.Set("minlongitude", formatDegrees(b.MinLongitude))
		v.Set("maxlongitude", formatDegrees(b.MaxLongitude))
	}
	if f.Radius != nil {
		v.Set("latitude", formatDegrees(f.Radius.Latitude))
		v.Set("longitude", formatDegrees(f.Radius.Longitude))
		v.Set("maxradiuskm", strconv.FormatFloat(f.Radius.MaxRadiusKm, 'f', -1, 64))
	}

	if f.MinMagnitude != nil {
		v.Set("minmagnitude", strconv.FormatFloat(*f.MinMagnitude, 'f', -1, 64))
	}
	if f.MaxMagnitude != nil {
		v.Set("maxmagnitude", strconv.FormatFloat(*f.MaxMagnitude, 'f', -1, 64))
	}

	setIfPresent(v, "catalog", f.Catalog)
	setIfPresent(v, "contributor", f.Contributor)
	setIfPresent(v, "producttype", f.ProductType)
	setIfPresent(v, "eventtype", f.EventType)
	setIfPresent(v, "alertlevel", f.AlertLevel)

	return v, nil
}

// CountParams renders the filter for the count endpoint, which takes the
// same parameters minus ordering and limit.
func (f Filter) CountParams() (url.Values, error) {
	v, err := f.Params()
	if err != nil {
		return nil, err
	}
	v.Del("orderby")
	v.Del("limit")
	return v, nil
}

// checkSpatial enforces mutual exclusivity of the spatial filters. Country
// is counted here too: a filter still carrying a country code has not been
// resolved to bounding boxes and cannot be rendered.
func (f Filter) checkSpatial() error {
	spatial := 0
	if f.Bounds != nil {
		spatial++
	}
	if f.Radius != nil {
		spatial++
	}
	if f.Country != "" {
		spatial++
	}
	if spatial > 1 {
		return fmt.Errorf("bounds, radius, and country are mutually exclusive: %w", ErrArgumentConflict)
	}
	if f.Country != "" {
		return fmt.Errorf("country filter must be resolved to bounds before building parameters: %w", ErrArgumentConflict)
	}
	return nil
}

// ParseParams reconstructs a Filter from canonical query parameters. It is
// the inverse of Params modulo the antimeridian wrap, which is one-way.
func ParseParams(v url.Values) (Filter, error) {
	var f Filter
	var err error

	if f.StartTime, err = parseTimeParam(v, "starttime"); err != nil {
		return Filter{}, err
	}
	if f.EndTime, err = parseTimeParam(v, "endtime"); err != nil {
		return Filter{}, err
	}
	if f.UpdatedAfter, err = parseTimeParam(v, "updatedafter"); err != nil {
		return Filter{}, err
	}

	if v.Get("minlatitude") != "" || v.Get("maxlatitude") != "" ||
		v.Get("minlongitude") != "" || v.Get("maxlongitude") != "" {
		b := Bounds{}
		if b.MinLatitude, err = parseFloatParam(v, "minlatitude"); err != nil {
			return Filter{}, err
		}
		if b.MaxLatitude, err = parseFloatParam(v, "maxlatitude"); err != nil {
			return Filter{}, err
		}
		if b.MinLongitude, err = parseFloatParam(v, "minlongitude"); err != nil {
			return Filter{}, err
		}
		if b.MaxLongitude, err = parseFloatParam(v, "maxlongitude"); err != nil {
			return Filter{}, err
		}
		f.Bounds = &b
	}
	if v.Get("maxradiuskm") != "" {
		r := Radius{}
		if r.Latitude, err = parseFloatParam(v, "latitude"); err != nil {
			return Filter{}, err
		}
		if r.Longitude, err = parseFloatParam(v, "longitude"); err != nil {
			return Filter{}, err
		}
		if r.MaxRadiusKm, err = parseFloatParam(v, "maxradiuskm"); err != nil {
			return Filter{}, err
		}
		f.Radius = &r
	}

	if s := v.Get("minmagnitude"); s != "" {
		mag, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("minmagnitude %q: %w", s, err)
		}
		f.MinMagnitude = &mag
	}
	if s := v.Get("maxmagnitude"); s != "" {
		mag, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("maxmagnitude %q: %w", s, err)
		}
		f.MaxMagnitude = &mag
	}

	f.Catalog = v.Get("catalog")
	f.Contributor = v.Get("contributor")
	f.ProductType = v.Get("producttype")
	f.EventType = v.Get("eventtype")
	f.AlertLevel = v.Get("alertlevel")

	if s := v.Get("limit"); s != "" {
		if f.Limit, err = strconv.Atoi(s); err != nil {
			return Filter{}, fmt.Errorf("limit %q: %w", s, err)
		}
	}
	return f, nil
}

func parseTimeParam(v url.Values, key string) (time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(timeParamLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q: %w", key, s, err)
	}
	return t, nil
}

func parseFloatParam(v url.Values, key string) (float64, error) {
	s := v.Get(key)
	if s == "" {
		return 0, fmt.Errorf("missing parameter %s", key)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, s, err)
	}
	return f, nil
}

func formatDegrees(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64)
}

func setIfPresent(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
