package inventory

import (
	"context"
	"time"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// Preview sample limits.
const (
	DefaultPreviewRows = 10
	MaxPreviewRows     = 100
)

// PreviewResult is a read-only look at a file before it is ingested.
type PreviewResult struct {
	FileName         string   `json:"fileName"`
	Format           Format   `json:"format"`
	Columns          []string `json:"columns"`
	TotalRows        int      `json:"totalRows"`
	Rows             []Row    `json:"rows"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
}

// Preview parses data exactly as Ingest would and returns the header, the
// row count and the first limit rows. It never takes the write gate, never
// touches the dataset and publishes nothing, so it can run while another
// writer holds the dataset.
//
// A non-positive limit selects DefaultPreviewRows; larger values are capped
// at MaxPreviewRows.
func (s *Service) Preview(ctx context.Context, fileName string, data []byte, limit int) (*PreviewResult, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "file_name", fileName, "bytes", len(data))

	if limit < 1 {
		limit = DefaultPreviewRows
	}
	if limit > MaxPreviewRows {
		limit = MaxPreviewRows
	}

	format, err := DetectFormat(fileName)
	if err != nil {
		logger.Debug("preview rejected", "error", err)
		return nil, err
	}

	header, rows, err := parse(data, format)
	if err != nil {
		logger.Debug("preview parse failed", "format", format, "error", err)
		return nil, err
	}

	sample := rows
	if len(sample) > limit {
		sample = sample[:limit]
	}
	if sample == nil {
		sample = []Row{}
	}

	res := &PreviewResult{
		FileName:         fileName,
		Format:           format,
		Columns:          header.Names(),
		TotalRows:        len(rows),
		Rows:             sample,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	logger.Debug("preview computed",
		"format", format,
		"rows", res.TotalRows,
		"columns", len(res.Columns),
	)
	return res, nil
}
