package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/baiirun/reqtrack/internal/model"
)

// CSVContentType is the media type served for CSV exports.
const CSVContentType = "text/csv"

// WriteCSV writes the header and the flattened rows to w with minimal quoting.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(Flatten(rows)); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
