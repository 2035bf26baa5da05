package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// WriteCSV writes snap as comma-separated text in the ingested file's column
// order. The synthetic id is not written. An empty dataset with no header
// produces no output.
func WriteCSV(w io.Writer, snap *Snapshot) error {
	cols := snap.Columns()
	if len(cols) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range snap.Rows() {
		if err := cw.Write(r.values); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFileName returns the download name for snap, derived from the
// ingested file name.
func ExportFileName(snap *Snapshot) string {
	if snap == nil || snap.FileName == "" {
		return "inventory.csv"
	}
	base := filepath.Base(snap.FileName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}
