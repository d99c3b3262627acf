package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	table := domain.NewTable("id", "magnitude")
	table.AddRow([]string{"id", "magnitude", "felt"}, map[string]string{
		"id": "ev1", "magnitude": "5.2", "felt": "120",
	})
	table.AddRow([]string{"id", "magnitude"}, map[string]string{
		"id": "ev2", "magnitude": "3.1",
	})

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, table, 0))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,magnitude,felt", lines[0])
	assert.Equal(t, "ev1,5.2,120", lines[1])
	assert.Equal(t, "ev2,3.1,nan", lines[2], "missing cells are filled with nan")
}

func TestWriteCSV_TabSeparator(t *testing.T) {
	table := domain.NewTable("id")
	table.AddRow([]string{"id", "place"}, map[string]string{
		"id": "ev1", "place": "off the coast, northern CA",
	})

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, table, '\t'))

	assert.Equal(t, "id\tplace\nev1\toff the coast, northern CA\n", buf.String())
}
