// Package export renders flattened event tables to delimited text.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// WriteCSV writes the table with a header row. sep of 0 defaults to a
// comma; pass '\t' for TSV output.
func WriteCSV(w io.Writer, t *domain.Table, sep rune) error {
	cw := csv.NewWriter(w)
	if sep != 0 {
		cw.Comma = sep
	}

	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
