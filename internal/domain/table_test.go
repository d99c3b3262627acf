package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTable(t *testing.T) {
	mag := 4.5
	events := []SummaryEvent{
		{
			ID:        "us6000aaaa",
			Time:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Latitude:  35.5,
			Longitude: -117.2,
			Depth:     8.1,
			Magnitude: &mag,
			Location:  "Ridgecrest, CA",
			URL:       "https://example.org/us6000aaaa",
			Properties: map[string]any{
				"magType": "mw",
				"status":  "reviewed",
			},
			PropertyOrder: []string{"magType", "status"},
		},
		{
			ID:   "ak0219bbbb",
			Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			// no magnitude, different extra properties
			Properties: map[string]any{
				"status":  "automatic",
				"tsunami": json.Number("0"),
			},
			PropertyOrder: []string{"status", "tsunami"},
		},
	}

	table := EventTable(events)

	// Identity columns first, then extras in first-seen order across rows.
	assert.Equal(t, []string{
		"id", "time", "latitude", "longitude", "depth", "magnitude",
		"location", "url", "magType", "status", "tsunami",
	}, table.Columns())

	rows := table.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, "us6000aaaa", rows[0][0])
	assert.Equal(t, "2024-01-02T03:04:05Z", rows[0][1])
	assert.Equal(t, "4.5", rows[0][5])
	assert.Equal(t, "mw", rows[0][8])
	assert.Equal(t, "nan", rows[0][10], "tsunami unseen in first event")

	assert.Equal(t, "ak0219bbbb", rows[1][0])
	assert.Equal(t, "nan", rows[1][5], "missing magnitude renders nan")
	assert.Equal(t, "nan", rows[1][8], "magType unseen in second event")
	assert.Equal(t, "automatic", rows[1][9])
	assert.Equal(t, "0", rows[1][10])
}

func TestEventTable_ConsumedPropertiesNotRepeated(t *testing.T) {
	mag := 3.0
	table := EventTable([]SummaryEvent{{
		ID:        "nc111",
		Magnitude: &mag,
		Properties: map[string]any{
			"mag":   json.Number("3.0"),
			"place": "somewhere",
			"cdi":   json.Number("2.1"),
		},
		PropertyOrder: []string{"mag", "place", "cdi"},
	}})

	columns := table.Columns()
	assert.Contains(t, columns, "cdi")
	assert.NotContains(t, columns, "mag", "mag is already the magnitude column")
	assert.NotContains(t, columns, "place", "place is already the location column")
}

func TestHistoryTable(t *testing.T) {
	first := submission("us", 100, 50)
	first.Properties = map[string]string{"magnitude": "4.4", "review-status": "automatic"}
	first.PropertyOrder = []string{"magnitude", "review-status"}
	second := submission("us", 200, 50)
	second.Properties = map[string]string{"magnitude": "4.5", "review-status": "reviewed", "depth": "8.2"}
	second.PropertyOrder = []string{"magnitude", "review-status", "depth"}

	table, err := HistoryTable(detailWith(first, second), "origin", SourceAll, VersionAll)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"id", "product", "source", "version", "update_time",
		"preferred_weight", "status", "magnitude", "review-status", "depth",
	}, table.Columns())

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "us7000test", rows[0][0])
	assert.Equal(t, "origin", rows[0][1])
	assert.Equal(t, "1", rows[0][3])
	assert.Equal(t, "4.4", rows[0][7])
	assert.Equal(t, "nan", rows[0][9], "depth absent in version 1")
	assert.Equal(t, "2", rows[1][3])
	assert.Equal(t, "8.2", rows[1][9])

	t.Run("missing product propagates", func(t *testing.T) {
		_, err := HistoryTable(detailWith(first), "shakemap", SourceAll, VersionAll)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}
