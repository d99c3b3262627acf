package comcat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

const searchBody = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"id": "us1000abcd",
			"properties": {
				"mag": 5.2,
				"place": "42 km WNW of Ferndale, California",
				"time": 1700000000000,
				"updated": 1700000600000,
				"url": "https://example.org/us1000abcd",
				"detail": "https://example.org/detail/us1000abcd",
				"status": "reviewed"
			},
			"geometry": {"type": "Point", "coordinates": [-124.71, 40.48, 27.3]}
		}
	]
}`

const detailBody = `{
	"type": "Feature",
	"id": "us1000abcd",
	"properties": {
		"mag": 5.2,
		"place": "42 km WNW of Ferndale, California",
		"time": 1700000000000,
		"updated": 1700000600000,
		"products": {
			"shakemap": [
				{
					"id": "urn:usgs-product:us:shakemap:us1000abcd:1700000500000",
					"type": "shakemap",
					"code": "us1000abcd",
					"source": "us",
					"status": "UPDATE",
					"updateTime": 1700000500000,
					"preferredWeight": 200,
					"properties": {"version": "1"},
					"contents": {
						"download/grid.xml": {"contentType": "application/xml", "length": 10, "url": "%s/files/grid.xml"},
						"download/grid.xml.zip": {"contentType": "application/zip", "length": 5, "url": "%s/files/grid.xml.zip"}
					}
				}
			]
		}
	},
	"geometry": {"type": "Point", "coordinates": [-124.71, 40.48, 27.3]}
}`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		retryBackoff: 10 * time.Millisecond,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:      observability.NewMetricsForTesting(),
	}
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := testClient(server.URL)

	filter := domain.Filter{
		StartTime: time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC),
	}
	events, err := client.Search(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "us1000abcd", events[0].ID)
	assert.Equal(t, 40.48, events[0].Latitude)
	require.NotNil(t, events[0].Magnitude)
	assert.Equal(t, 5.2, *events[0].Magnitude)
	assert.Contains(t, gotQuery, "format=geojson")
	assert.Contains(t, gotQuery, "orderby=time-asc")
}

func TestClient_Search_RetriesOnceOn503(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := testClient(server.URL)

	events, err := client.Search(context.Background(), domain.Filter{}.Normalized())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 2, calls)
}

func TestClient_Search_ConnErrorOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid parameter"))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.Search(context.Background(), domain.Filter{}.Normalized())
	require.Error(t, err)

	var connErr *domain.ConnError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Error(), "status 400")
}

func TestClient_Search_ConnErrorWhenUnreachable(t *testing.T) {
	client := testClient("http://127.0.0.1:1")

	_, err := client.Search(context.Background(), domain.Filter{}.Normalized())
	require.Error(t, err)

	var connErr *domain.ConnError
	assert.ErrorAs(t, err, &connErr)
}

func TestClient_Search_ParseErrorOnBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not geojson</html>"))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.Search(context.Background(), domain.Filter{}.Normalized())
	require.Error(t, err)

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClient_Count(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/count")
		assert.NotContains(t, r.URL.RawQuery, "orderby")
		w.Write([]byte(`{"count": 241, "maxAllowed": 20000}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	count, err := client.Count(context.Background(), domain.Filter{}.Normalized())
	require.NoError(t, err)
	assert.Equal(t, 241, count)
}

func TestClient_Detail(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us1000abcd", r.URL.Query().Get("eventid"))
		w.Write([]byte(detailFixture(server.URL)))
	}))
	defer server.Close()

	client := testClient(server.URL)

	detail, err := client.Detail(context.Background(), "us1000abcd")
	require.NoError(t, err)

	assert.Equal(t, "us1000abcd", detail.ID)
	require.Len(t, detail.Products["shakemap"], 1)
	assert.Equal(t, "us", detail.Products["shakemap"][0].Source)
	assert.NotContains(t, detail.Properties, "products")
}

func TestClient_DownloadContent(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/grid.xml":
			w.Write([]byte("<grid/>"))
		case "/files/grid.xml.zip":
			t.Error("longer content name should not be fetched")
		default:
			w.Write([]byte(detailFixture(server.URL)))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)

	detail, err := client.Detail(context.Background(), "us1000abcd")
	require.NoError(t, err)

	product, err := domain.PreferredProduct(detail, "shakemap")
	require.NoError(t, err)

	destDir := t.TempDir()
	dest, err := client.DownloadContent(context.Background(), product, "grid.xml*", destDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(destDir, "grid.xml"), dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<grid/>", string(data))
}

func TestClient_DownloadContent_NoMatch(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailFixture(server.URL)))
	}))
	defer server.Close()

	client := testClient(server.URL)

	detail, err := client.Detail(context.Background(), "us1000abcd")
	require.NoError(t, err)

	product, err := domain.PreferredProduct(detail, "shakemap")
	require.NoError(t, err)

	_, err = client.DownloadContent(context.Background(), product, "stationlist.json", t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrContentNotFound))
}

func detailFixture(baseURL string) string {
	return fmt.Sprintf(detailBody, baseURL, baseURL)
}
