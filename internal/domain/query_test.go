package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestFilterParams(t *testing.T) {
	start := time.Date(2024, 3, 1, 6, 30, 15, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("canonical parameters", func(t *testing.T) {
		f := Filter{
			StartTime:    start,
			EndTime:      end,
			MinMagnitude: floatPtr(4.5),
			Catalog:      "ak",
			Limit:        500,
		}
		v, err := f.Params()

		require.NoError(t, err)
		assert.Equal(t, "geojson", v.Get("format"))
		assert.Equal(t, "time-asc", v.Get("orderby"))
		assert.Equal(t, "500", v.Get("limit"))
		assert.Equal(t, "2024-03-01T06:30:15", v.Get("starttime"))
		assert.Equal(t, "2024-04-01T00:00:00", v.Get("endtime"))
		assert.Equal(t, "4.5", v.Get("minmagnitude"))
		assert.Equal(t, "ak", v.Get("catalog"))
	})

	t.Run("limit caps at the server maximum", func(t *testing.T) {
		v, err := Filter{Limit: 50000}.Params()

		require.NoError(t, err)
		assert.Equal(t, "20000", v.Get("limit"))
	})

	t.Run("bounds and radius conflict", func(t *testing.T) {
		f := Filter{
			Bounds: &Bounds{MinLatitude: 30, MaxLatitude: 40, MinLongitude: -120, MaxLongitude: -110},
			Radius: &Radius{Latitude: 35, Longitude: -115, MaxRadiusKm: 100},
		}
		_, err := f.Params()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArgumentConflict)
	})

	t.Run("unresolved country cannot render", func(t *testing.T) {
		_, err := Filter{Country: "NZ"}.Params()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArgumentConflict)
	})

	t.Run("no spatial filter is valid", func(t *testing.T) {
		v, err := Filter{StartTime: start, EndTime: end}.Params()

		require.NoError(t, err)
		assert.Empty(t, v.Get("minlatitude"))
		assert.Empty(t, v.Get("maxradiuskm"))
	})

	t.Run("antimeridian box is unwrapped", func(t *testing.T) {
		f := Filter{
			Bounds: &Bounds{MinLatitude: -40, MaxLatitude: -30, MinLongitude: 179, MaxLongitude: -179},
		}
		v, err := f.Params()

		require.NoError(t, err)
		assert.Equal(t, "179", v.Get("minlongitude"))
		assert.Equal(t, "181", v.Get("maxlongitude"))
	})

	t.Run("count parameters drop ordering and limit", func(t *testing.T) {
		v, err := Filter{StartTime: start, EndTime: end}.CountParams()

		require.NoError(t, err)
		assert.Empty(t, v.Get("orderby"))
		assert.Empty(t, v.Get("limit"))
		assert.Equal(t, "geojson", v.Get("format"))
	})
}

// TestFilterParams_RoundTrip checks that building parameters and parsing
// them back reproduces the semantic filter (the antimeridian wrap is
// intentionally one-way and uses a non-wrapping box here).
func TestFilterParams_RoundTrip(t *testing.T) {
	original := Filter{
		StartTime:    time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2023, 8, 4, 12, 0, 0, 0, time.UTC),
		UpdatedAfter: time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		Radius:       &Radius{Latitude: 37.77, Longitude: -122.42, MaxRadiusKm: 250},
		MinMagnitude: floatPtr(2.5),
		MaxMagnitude: floatPtr(7),
		Catalog:      "nc",
		Contributor:  "nc",
		ProductType:  "shakemap",
		EventType:    "earthquake",
		AlertLevel:   "yellow",
		Limit:        1000,
	}

	v, err := original.Params()
	require.NoError(t, err)

	parsed, err := ParseParams(v)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)

	t.Run("bounds filter", func(t *testing.T) {
		boxed := Filter{
			StartTime: original.StartTime,
			EndTime:   original.EndTime,
			Bounds:    &Bounds{MinLatitude: 30, MaxLatitude: 40, MinLongitude: -125, MaxLongitude: -115},
			Limit:     20000,
		}
		v, err := boxed.Params()
		require.NoError(t, err)

		parsed, err := ParseParams(v)
		require.NoError(t, err)
		assert.Equal(t, boxed, parsed)
	})
}

func TestFilterNormalized(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	t.Run("defaults to the last 30 days", func(t *testing.T) {
		f := Filter{}.Normalized()

		assert.Equal(t, now, f.EndTime)
		assert.Equal(t, now.Add(-30*24*time.Hour), f.StartTime)
	})

	t.Run("explicit times are kept", func(t *testing.T) {
		start := now.Add(-48 * time.Hour)
		end := now.Add(-24 * time.Hour)
		f := Filter{StartTime: start, EndTime: end}.Normalized()

		assert.Equal(t, start, f.StartTime)
		assert.Equal(t, end, f.EndTime)
	})

	t.Run("missing end defaults to now", func(t *testing.T) {
		start := now.Add(-72 * time.Hour)
		f := Filter{StartTime: start}.Normalized()

		assert.Equal(t, start, f.StartTime)
		assert.Equal(t, now, f.EndTime)
	})
}
