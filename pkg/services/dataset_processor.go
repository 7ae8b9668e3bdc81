package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/typesys"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/workerpool"
)

// DefaultPreviewRows is the number of rows returned in a dataset preview.
const DefaultPreviewRows = 10

// DatasetProcessor profiles ingested tables and applies column coercions.
type DatasetProcessor interface {
	// Process validates row-length uniformity, profiles every column and
	// aggregates dataset statistics. A malformed table yields
	// ErrMalformedDataset and no partial result.
	Process(ctx context.Context, raw *models.RawTable) (*models.Dataset, error)

	// Convert coerces one column in place and re-aggregates the statistics
	// derived from it. The caller must hold exclusive access to the dataset.
	Convert(ctx context.Context, ds *models.Dataset, column string, target models.SemanticType) (*models.CoercionSummary, error)

	// Summarize builds the client-facing payload for a dataset.
	Summarize(ds *models.Dataset) *ProcessedDataset
}

// ColumnSummary describes one column in a processed dataset payload.
type ColumnSummary struct {
	Name           string                `json:"name"`
	SemanticType   models.SemanticType   `json:"semantic_type"`
	StorageType    models.StorageType    `json:"storage_type"`
	NullCount      int64                 `json:"null_count"`
	UniqueCount    int64                 `json:"unique_count"`
	AllowedTargets []models.SemanticType `json:"allowed_targets"`
}

// ProcessedDataset is the client-facing view of a dataset.
type ProcessedDataset struct {
	DatasetID    uuid.UUID                      `json:"dataset_id"`
	FileName     string                         `json:"file_name"`
	TotalRows    int                            `json:"total_rows"`
	TotalColumns int                            `json:"total_columns"`
	TotalNulls   int64                          `json:"total_nulls"`
	TotalUniques int64                          `json:"total_uniques"`
	NullCounts   map[string]int64               `json:"null_counts"`
	UniqueCounts map[string]int64               `json:"unique_counts"`
	MemoryUsage  int64                          `json:"memory_usage"`
	Columns      []ColumnSummary                `json:"columns"`
	Dtypes       map[string]models.SemanticType `json:"dtypes"`
	Head         []map[string]any               `json:"head"`
}

type datasetProcessor struct {
	profiler    ColumnProfiler
	engine      CoercionEngine
	pool        *workerpool.Pool
	previewRows int
	logger      *zap.Logger
}

// NewDatasetProcessor creates a dataset processor. previewRows <= 0 uses
// DefaultPreviewRows.
func NewDatasetProcessor(
	profiler ColumnProfiler,
	engine CoercionEngine,
	pool *workerpool.Pool,
	previewRows int,
	logger *zap.Logger,
) DatasetProcessor {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &datasetProcessor{
		profiler:    profiler,
		engine:      engine,
		pool:        pool,
		previewRows: previewRows,
		logger:      logger.Named("dataset-processor"),
	}
}

func (p *datasetProcessor) Process(ctx context.Context, raw *models.RawTable) (*models.Dataset, error) {
	if err := validateRawTable(raw); err != nil {
		return nil, err
	}

	start := time.Now()
	items := make([]workerpool.WorkItem[*models.Column], len(raw.Columns))
	for i, rc := range raw.Columns {
		items[i] = workerpool.WorkItem[*models.Column]{
			ID: rc.Name,
			Execute: func(ctx context.Context) (*models.Column, error) {
				return p.profiler.Profile(rc.Name, rc.Values)
			},
		}
	}

	columns, err := workerpool.Map(ctx, p.pool, items)
	if err != nil {
		return nil, fmt.Errorf("failed to profile columns: %w", err)
	}

	ds := &models.Dataset{
		ID:        uuid.New(),
		FileName:  raw.FileName,
		Columns:   columns,
		Stats:     aggregateStats(columns),
		CreatedAt: time.Now().UTC(),
	}

	p.logger.Info("Processed dataset",
		zap.String("dataset_id", ds.ID.String()),
		zap.Int("total_rows", ds.Stats.TotalRows),
		zap.Int("total_columns", ds.Stats.TotalColumns),
		zap.Int64("total_nulls", ds.Stats.TotalNulls),
		zap.Int64("memory_usage", ds.Stats.MemoryUsage),
		zap.Duration("elapsed", time.Since(start)))

	return ds, nil
}

func (p *datasetProcessor) Convert(
	ctx context.Context,
	ds *models.Dataset,
	column string,
	target models.SemanticType,
) (*models.CoercionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := ds.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrColumnNotFound, column)
	}

	old := ds.Columns[idx]
	converted, summary, err := p.engine.Coerce(old, target)
	if err != nil {
		return nil, err
	}
	if summary.Identity {
		return summary, nil
	}

	ds.Columns[idx] = converted
	ds.Stats.TotalNulls += converted.NullCount - old.NullCount
	ds.Stats.TotalUniques += converted.UniqueCount - old.UniqueCount
	ds.Stats.MemoryUsage += converted.MemoryBytes - old.MemoryBytes

	return summary, nil
}

func (p *datasetProcessor) Summarize(ds *models.Dataset) *ProcessedDataset {
	out := &ProcessedDataset{
		DatasetID:    ds.ID,
		FileName:     ds.FileName,
		TotalRows:    ds.Stats.TotalRows,
		TotalColumns: ds.Stats.TotalColumns,
		TotalNulls:   ds.Stats.TotalNulls,
		TotalUniques: ds.Stats.TotalUniques,
		MemoryUsage:  ds.Stats.MemoryUsage,
		NullCounts:   make(map[string]int64, len(ds.Columns)),
		UniqueCounts: make(map[string]int64, len(ds.Columns)),
		Dtypes:       make(map[string]models.SemanticType, len(ds.Columns)),
		Columns:      make([]ColumnSummary, 0, len(ds.Columns)),
		Head:         ds.Head(p.previewRows),
	}

	for _, c := range ds.Columns {
		out.NullCounts[c.Name] = c.NullCount
		out.UniqueCounts[c.Name] = c.UniqueCount
		out.Dtypes[c.Name] = c.SemanticType
		out.Columns = append(out.Columns, ColumnSummary{
			Name:           c.Name,
			SemanticType:   c.SemanticType,
			StorageType:    c.StorageType,
			NullCount:      c.NullCount,
			UniqueCount:    c.UniqueCount,
			AllowedTargets: typesys.AllowedTargets(c.SemanticType),
		})
	}

	return out
}

// validateRawTable checks structural invariants before any profiling.
func validateRawTable(raw *models.RawTable) error {
	if raw == nil || len(raw.Columns) == 0 {
		return fmt.Errorf("%w: no columns", apperrors.ErrMalformedDataset)
	}

	rows := len(raw.Columns[0].Values)
	seen := make(map[string]bool, len(raw.Columns))
	for _, c := range raw.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column name %q", apperrors.ErrMalformedDataset, c.Name)
		}
		seen[c.Name] = true

		if len(c.Values) != rows {
			return fmt.Errorf("%w: column %q has %d rows, expected %d",
				apperrors.ErrMalformedDataset, c.Name, len(c.Values), rows)
		}
	}
	return nil
}

// aggregateStats sums per-column statistics. Aggregation is commutative, so
// column order does not affect the totals.
func aggregateStats(columns []*models.Column) models.DatasetStats {
	stats := models.DatasetStats{TotalColumns: len(columns)}
	if len(columns) > 0 {
		stats.TotalRows = columns[0].Len()
	}
	for _, c := range columns {
		stats.TotalNulls += c.NullCount
		stats.TotalUniques += c.UniqueCount
		stats.MemoryUsage += c.MemoryBytes
	}
	return stats
}
