package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Raw ingestion types
// ============================================================================

// RawColumn is an undecoded column as produced by file ingestion.
type RawColumn struct {
	Name   string
	Values []any
}

// RawTable is an ordered set of raw columns. Column lengths are not
// guaranteed to match; the dataset processor validates them.
type RawTable struct {
	FileName string
	Columns  []RawColumn
}

// ============================================================================
// Profiled dataset
// ============================================================================

// Column is a profiled column. Values hold the storage type's Go
// representation (int64, float64, bool, string, time.Time, time.Duration,
// complex128) or nil for missing cells.
type Column struct {
	Name         string       `json:"name"`
	Values       []any        `json:"-"`
	StorageType  StorageType  `json:"storage_type"`
	SemanticType SemanticType `json:"semantic_type"`
	NullCount    int64        `json:"null_count"`
	UniqueCount  int64        `json:"unique_count"`
	MemoryBytes  int64        `json:"memory_bytes"`
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// DatasetStats are dataset-level aggregates over all columns.
type DatasetStats struct {
	TotalRows    int   `json:"total_rows"`
	TotalColumns int   `json:"total_columns"`
	TotalNulls   int64 `json:"total_nulls"`
	TotalUniques int64 `json:"total_uniques"`
	MemoryUsage  int64 `json:"memory_usage"`
}

// Dataset is a profiled table created once per uploaded file.
type Dataset struct {
	ID        uuid.UUID    `json:"dataset_id"`
	FileName  string       `json:"file_name"`
	Columns   []*Column    `json:"columns"`
	Stats     DatasetStats `json:"stats"`
	CreatedAt time.Time    `json:"created_at"`
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row returns row i as a name -> JSON-safe value map.
func (d *Dataset) Row(i int) map[string]any {
	row := make(map[string]any, len(d.Columns))
	for _, c := range d.Columns {
		if i < len(c.Values) {
			row[c.Name] = PreviewValue(c.Values[i])
		}
	}
	return row
}

// Head returns up to n leading rows.
func (d *Dataset) Head(n int) []map[string]any {
	rows := min(n, d.Stats.TotalRows)
	if rows < 0 {
		rows = 0
	}
	head := make([]map[string]any, 0, rows)
	for i := 0; i < rows; i++ {
		head = append(head, d.Row(i))
	}
	return head
}
