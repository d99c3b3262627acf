package cli

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

func parseFlags(t *testing.T, args ...string) *FilterFlags {
	t.Helper()
	ff := &FilterFlags{}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	ff.Register(fs)
	require.NoError(t, fs.Parse(args))
	return ff
}

func TestFilterFlags(t *testing.T) {
	ff := parseFlags(t,
		"-start", "2023-11-01",
		"-end", "2023-11-14T06:30:00",
		"-min-magnitude", "4.5",
		"-bounds", "40,42,-125,-120",
		"-product-type", "shakemap",
		"-limit", "500",
	)

	f, err := ff.Filter()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), f.StartTime)
	assert.Equal(t, time.Date(2023, 11, 14, 6, 30, 0, 0, time.UTC), f.EndTime)
	require.NotNil(t, f.MinMagnitude)
	assert.Equal(t, 4.5, *f.MinMagnitude)
	require.NotNil(t, f.Bounds)
	assert.Equal(t, domain.Bounds{MinLatitude: 40, MaxLatitude: 42, MinLongitude: -125, MaxLongitude: -120}, *f.Bounds)
	assert.Equal(t, "shakemap", f.ProductType)
	assert.Equal(t, 500, f.Limit)
}

func TestFilterFlags_Radius(t *testing.T) {
	ff := parseFlags(t, "-radius", "35.7, -117.5, 150")

	f, err := ff.Filter()
	require.NoError(t, err)

	require.NotNil(t, f.Radius)
	assert.Equal(t, domain.Radius{Latitude: 35.7, Longitude: -117.5, MaxRadiusKm: 150}, *f.Radius)
}

func TestFilterFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad time", []string{"-start", "soon"}},
		{"bad magnitude", []string{"-min-magnitude", "big"}},
		{"short bounds", []string{"-bounds", "40,42,-125"}},
		{"bad radius number", []string{"-radius", "35,-117,wide"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ff := parseFlags(t, tt.args...)
			_, err := ff.Filter()
			assert.Error(t, err)
		})
	}
}

func TestSourceSelector(t *testing.T) {
	assert.Equal(t, domain.SourcePreferred, SourceSelector(""))
	assert.Equal(t, domain.SourcePreferred, SourceSelector("preferred"))
	assert.Equal(t, domain.SourceAll, SourceSelector("all"))
	assert.Equal(t, domain.SourceSelector("us"), SourceSelector("us"))
}

func TestVersionSelector(t *testing.T) {
	v, err := VersionSelector("")
	require.NoError(t, err)
	assert.Equal(t, domain.VersionLast, v)

	v, err = VersionSelector("first")
	require.NoError(t, err)
	assert.Equal(t, domain.VersionFirst, v)

	v, err = VersionSelector("all")
	require.NoError(t, err)
	assert.Equal(t, domain.VersionAll, v)

	_, err = VersionSelector("newest")
	assert.Error(t, err)
}
