// Package ingest decodes uploaded CSV and Excel files into raw tables.
package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/logging"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes = 50 << 20

// Decoder turns an uploaded file into a RawTable.
type Decoder struct {
	maxBytes int64
	logger   *zap.Logger
}

// NewDecoder creates a decoder. maxBytes <= 0 uses DefaultMaxBytes.
func NewDecoder(maxBytes int64, logger *zap.Logger) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Decoder{
		maxBytes: maxBytes,
		logger:   logger.Named("ingest"),
	}
}

// MaxBytes returns the upload size limit.
func (d *Decoder) MaxBytes() int64 {
	return d.maxBytes
}

// Decode reads the whole upload, checks its type against both the file name
// and the sniffed content, and decodes the first sheet or the CSV body.
//
// Every cell is returned as a string; empty cells are "". Column lengths are
// left as found so the dataset processor can reject ragged tables.
func (d *Decoder) Decode(filename string, r io.Reader) (*models.RawTable, error) {
	ft, ok := fileTypeFor(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFileType, logging.SanitizeFileName(filename))
	}

	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", apperrors.ErrUploadTooLarge, d.maxBytes)
	}

	detected := mimetype.Detect(data)
	if !ft.matches(detected) {
		return nil, fmt.Errorf("%w: %s content does not match %s",
			apperrors.ErrUnsupportedFileType, detected.String(), ft.Extension)
	}

	var rows [][]string
	switch ft.Extension {
	case FileTypeCSV.Extension:
		rows, err = readCSV(data)
	case FileTypeXLSX.Extension:
		rows, err = readXLSX(bytes.NewReader(data))
	case FileTypeXLS.Extension:
		rows, err = readXLS(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}

	table := buildTable(filename, rows, ft.Extension != FileTypeCSV.Extension)

	d.logger.Debug("Decoded upload",
		zap.String("file_name", logging.SanitizeFileName(filename)),
		zap.String("mime_type", detected.String()),
		zap.Int("bytes", len(data)),
		zap.Int("columns", len(table.Columns)))

	return table, nil
}

// buildTable turns a header row plus data rows into columns. When pad is set,
// short rows are filled with empty cells and wide rows extend the header.
func buildTable(filename string, rows [][]string, pad bool) *models.RawTable {
	table := &models.RawTable{FileName: filename}
	if len(rows) == 0 {
		return table
	}

	header := rows[0]
	body := rows[1:]
	if pad {
		width := len(header)
		for _, row := range body {
			width = max(width, len(row))
		}
		for len(header) < width {
			header = append(header, "")
		}
	}

	names := normalizeHeaders(header)
	table.Columns = make([]models.RawColumn, len(names))
	for j, name := range names {
		values := make([]any, 0, len(body))
		for _, row := range body {
			switch {
			case j < len(row):
				values = append(values, row[j])
			case pad:
				values = append(values, "")
			}
		}
		table.Columns[j] = models.RawColumn{Name: name, Values: values}
	}
	return table
}
