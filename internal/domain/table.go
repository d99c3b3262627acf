package domain

import (
	"strconv"
	"time"
)

// MissingCell is the literal rendered for absent values in tabular output.
const MissingCell = "nan"

// Table is a row-oriented flattening of heterogeneous events or product
// versions. Columns appear in first-seen order: identity columns first,
// then every other field in the order it was first encountered across
// rows. Column order is tracked explicitly; nothing here depends on map
// iteration order.
type Table struct {
	columns []string
	index   map[string]int
	rows    []map[string]string
}

// NewTable creates a table whose leading columns are fixed.
func NewTable(identity ...string) *Table {
	t := &Table{index: make(map[string]int, len(identity))}
	for _, name := range identity {
		t.column(name)
	}
	return t
}

// column registers a column on first sight and returns its position.
func (t *Table) column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.columns)
	t.columns = append(t.columns, name)
	t.index[name] = i
	return i
}

// AddRow appends a row. keys supplies the cell order so new columns are
// registered in the row's own field order; keys not present in cells are
// skipped.
func (t *Table) AddRow(keys []string, cells map[string]string) {
	row := make(map[string]string, len(cells))
	for _, key := range keys {
		value, ok := cells[key]
		if !ok {
			continue
		}
		t.column(key)
		row[key] = value
	}
	t.rows = append(t.rows, row)
}

// Columns returns the header in first-seen order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Rows renders every row against the full column set, filling absent cells
// with MissingCell.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rendered := make([]string, len(t.columns))
		for j, name := range t.columns {
			if value, ok := row[name]; ok {
				rendered[j] = value
			} else {
				rendered[j] = MissingCell
			}
		}
		out[i] = rendered
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// eventIdentityColumns lead every event table.
var eventIdentityColumns = []string{
	"id", "time", "latitude", "longitude", "depth", "magnitude", "location", "url",
}

// summaryConsumed are summary properties already surfaced as identity
// columns; they are not repeated in the extras.
var summaryConsumed = map[string]bool{
	"mag": true, "place": true, "time": true, "url": true, "detail": true,
}

// EventTable flattens events into one row per event: identity fields
// first, then every remaining summary property in first-seen order across
// the whole input.
func EventTable(events []SummaryEvent) *Table {
	t := NewTable(eventIdentityColumns...)
	for _, ev := range events {
		keys := make([]string, 0, len(eventIdentityColumns)+len(ev.PropertyOrder))
		cells := map[string]string{
			"id":        ev.ID,
			"time":      formatTimeCell(ev.Time),
			"latitude":  formatDegrees(ev.Latitude),
			"longitude": formatDegrees(ev.Longitude),
			"depth":     strconv.FormatFloat(ev.Depth, 'f', -1, 64),
			"location":  ev.Location,
			"url":       ev.URL,
		}
		if ev.Magnitude != nil {
			cells["magnitude"] = strconv.FormatFloat(*ev.Magnitude, 'f', -1, 64)
		}
		keys = append(keys, eventIdentityColumns...)
		for _, key := range ev.PropertyOrder {
			if summaryConsumed[key] {
				continue
			}
			cells[key] = scalarString(ev.Properties[key])
			keys = append(keys, key)
		}
		t.AddRow(keys, cells)
	}
	return t
}

// historyIdentityColumns lead every version-history table.
var historyIdentityColumns = []string{
	"id", "product", "source", "version", "update_time", "preferred_weight", "status",
}

// HistoryTable flattens the resolved version history of one product type
// into one row per product version: resolution identity first, then the
// product properties in first-seen order.
func HistoryTable(detail DetailEvent, productType string, source SourceSelector, version VersionSelector) (*Table, error) {
	resolved, err := ResolveProducts(detail, productType, source, version)
	if err != nil {
		return nil, err
	}

	t := NewTable(historyIdentityColumns...)
	for _, p := range resolved {
		keys := make([]string, 0, len(historyIdentityColumns)+len(p.PropertyOrder))
		cells := map[string]string{
			"id":               detail.ID,
			"product":          productType,
			"source":           p.Source,
			"version":          strconv.Itoa(p.OrdinalVersion),
			"update_time":      formatTimeCell(p.UpdateTime),
			"preferred_weight": strconv.FormatInt(p.PreferredWeight, 10),
			"status":           p.Status,
		}
		keys = append(keys, historyIdentityColumns...)
		for _, key := range p.PropertyOrder {
			cells[key] = p.Properties[key]
			keys = append(keys, key)
		}
		t.AddRow(keys, cells)
	}
	return t, nil
}

func formatTimeCell(t time.Time) string {
	if t.IsZero() {
		return MissingCell
	}
	return t.UTC().Format(time.RFC3339)
}
