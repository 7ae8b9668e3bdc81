package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV parses RFC 4180 records encoded as UTF-8. Rows shorter than the
// header are kept short; rows wider than the header and fields that are not
// valid UTF-8 are rejected.
func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedDataset, err)
		}
		if len(rows) > 0 && len(record) > len(rows[0]) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				apperrors.ErrMalformedDataset, line, len(record), len(rows[0]))
		}
		for i, field := range record {
			if !utf8.ValidString(field) {
				line, col := reader.FieldPos(i)
				return nil, fmt.Errorf("%w: line %d column %d is not valid UTF-8",
					apperrors.ErrMalformedDataset, line, col)
			}
		}
		rows = append(rows, record)
	}
	return rows, nil
}
