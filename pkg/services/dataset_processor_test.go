package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/workerpool"
)

func newTestProcessor(previewRows, workers int) DatasetProcessor {
	logger := zap.NewNop()
	return NewDatasetProcessor(
		NewColumnProfiler(DefaultProfilerConfig(), logger),
		NewCoercionEngine(logger),
		workerpool.New(workerpool.Config{MaxConcurrent: workers}, logger),
		previewRows,
		logger,
	)
}

// ordersTable has an integer id, a mostly numeric quantity and a boolean flag.
func ordersTable() *models.RawTable {
	ids := make([]any, 10)
	qty := make([]any, 10)
	flags := make([]any, 10)
	for i := range 10 {
		ids[i] = fmt.Sprint(i + 1)
		qty[i] = fmt.Sprint((i + 1) * 10)
		flags[i] = i%2 == 0
	}
	qty[9] = "abc"

	return &models.RawTable{
		FileName: "orders.csv",
		Columns: []models.RawColumn{
			{Name: "id", Values: ids},
			{Name: "qty", Values: qty},
			{Name: "shipped", Values: flags},
		},
	}
}

func TestProcess_ProfilesColumns(t *testing.T) {
	p := newTestProcessor(0, 2)

	ds, err := p.Process(context.Background(), ordersTable())
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "orders.csv", ds.FileName)
	require.Len(t, ds.Columns, 3)
	assert.Equal(t, models.SemanticInteger, ds.Columns[0].SemanticType)
	assert.Equal(t, models.SemanticNumber, ds.Columns[1].SemanticType)
	assert.Equal(t, models.SemanticBoolean, ds.Columns[2].SemanticType)

	assert.Equal(t, 10, ds.Stats.TotalRows)
	assert.Equal(t, 3, ds.Stats.TotalColumns)
	assert.Equal(t, int64(0), ds.Stats.TotalNulls)
	assert.Equal(t, int64(10+10+2), ds.Stats.TotalUniques)

	var memory int64
	for _, c := range ds.Columns {
		memory += c.MemoryBytes
	}
	assert.Equal(t, memory, ds.Stats.MemoryUsage)
}

func TestProcess_PreservesColumnOrder(t *testing.T) {
	raw := &models.RawTable{FileName: "wide.csv"}
	for i := range 40 {
		raw.Columns = append(raw.Columns, models.RawColumn{
			Name:   fmt.Sprintf("c%02d", i),
			Values: []any{fmt.Sprint(i), nil},
		})
	}

	ds, err := newTestProcessor(0, 3).Process(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, ds.Columns, 40)
	for i, c := range ds.Columns {
		assert.Equal(t, fmt.Sprintf("c%02d", i), c.Name)
	}
	assert.Equal(t, int64(40), ds.Stats.TotalNulls)
}

func TestProcess_MalformedTables(t *testing.T) {
	tests := []struct {
		name string
		raw  *models.RawTable
	}{
		{"nil table", nil},
		{"no columns", &models.RawTable{FileName: "empty.csv"}},
		{"ragged rows", &models.RawTable{Columns: []models.RawColumn{
			{Name: "a", Values: []any{"1", "2"}},
			{Name: "b", Values: []any{"1"}},
		}}},
		{"duplicate names", &models.RawTable{Columns: []models.RawColumn{
			{Name: "a", Values: []any{"1"}},
			{Name: "a", Values: []any{"2"}},
		}}},
	}

	p := newTestProcessor(0, 2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := p.Process(context.Background(), tt.raw)
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, apperrors.ErrMalformedDataset)
		})
	}
}

func TestProcess_EmptyRowsAreValid(t *testing.T) {
	raw := &models.RawTable{Columns: []models.RawColumn{{Name: "a"}, {Name: "b"}}}

	ds, err := newTestProcessor(0, 2).Process(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 0, ds.Stats.TotalRows)
	assert.Equal(t, 2, ds.Stats.TotalColumns)
	assert.Empty(t, ds.Head(10))
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds, err := newTestProcessor(0, 1).Process(ctx, ordersTable())
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_UpdatesColumnAndStats(t *testing.T) {
	p := newTestProcessor(0, 2)
	ds, err := p.Process(context.Background(), ordersTable())
	require.NoError(t, err)
	before := ds.Stats
	oldQty := ds.Columns[1]

	summary, err := p.Convert(context.Background(), ds, "qty", models.SemanticInteger)
	require.NoError(t, err)

	assert.Equal(t, int64(9), summary.ConvertedCount)
	assert.Equal(t, int64(1), summary.RejectedCount)

	qty := ds.Columns[1]
	assert.Equal(t, models.SemanticInteger, qty.SemanticType)
	assert.Equal(t, models.StorageInt64, qty.StorageType)
	assert.Nil(t, qty.Values[9])
	assert.Equal(t, int64(10), qty.Values[0])

	assert.Equal(t, before.TotalNulls+1, ds.Stats.TotalNulls)
	assert.Equal(t, before.TotalUniques-oldQty.UniqueCount+qty.UniqueCount, ds.Stats.TotalUniques)
	assert.Equal(t, before.MemoryUsage-oldQty.MemoryBytes+qty.MemoryBytes, ds.Stats.MemoryUsage)
	assert.Equal(t, before.TotalRows, ds.Stats.TotalRows)

	// Other columns are untouched.
	assert.Equal(t, models.SemanticInteger, ds.Columns[0].SemanticType)
	assert.Equal(t, models.SemanticBoolean, ds.Columns[2].SemanticType)
}

func TestConvert_IdentityLeavesDatasetUnchanged(t *testing.T) {
	p := newTestProcessor(0, 2)
	ds, err := p.Process(context.Background(), ordersTable())
	require.NoError(t, err)
	before := ds.Stats
	col := ds.Columns[0]

	summary, err := p.Convert(context.Background(), ds, "id", models.SemanticInteger)
	require.NoError(t, err)

	assert.True(t, summary.Identity)
	assert.Same(t, col, ds.Columns[0])
	assert.Equal(t, before, ds.Stats)
}

func TestConvert_Errors(t *testing.T) {
	p := newTestProcessor(0, 2)
	ds, err := p.Process(context.Background(), ordersTable())
	require.NoError(t, err)
	before := ds.Stats
	flags := ds.Columns[2]

	_, err = p.Convert(context.Background(), ds, "missing", models.SemanticText)
	assert.ErrorIs(t, err, apperrors.ErrColumnNotFound)

	_, err = p.Convert(context.Background(), ds, "shipped", models.SemanticDateTime)
	assert.ErrorIs(t, err, apperrors.ErrIncompatibleConversion)

	assert.Same(t, flags, ds.Columns[2])
	assert.Equal(t, before, ds.Stats)
}

func TestSummarize(t *testing.T) {
	p := newTestProcessor(3, 2)
	ds, err := p.Process(context.Background(), ordersTable())
	require.NoError(t, err)

	out := p.Summarize(ds)

	assert.Equal(t, ds.ID, out.DatasetID)
	assert.Equal(t, 10, out.TotalRows)
	assert.Equal(t, 3, out.TotalColumns)
	assert.Equal(t, ds.Stats.MemoryUsage, out.MemoryUsage)
	assert.Equal(t, map[string]models.SemanticType{
		"id":      models.SemanticInteger,
		"qty":     models.SemanticNumber,
		"shipped": models.SemanticBoolean,
	}, out.Dtypes)
	assert.Equal(t, int64(10), out.UniqueCounts["qty"])
	assert.Equal(t, int64(0), out.NullCounts["shipped"])

	require.Len(t, out.Columns, 3)
	assert.Equal(t, "qty", out.Columns[1].Name)
	assert.Contains(t, out.Columns[1].AllowedTargets, models.SemanticInteger)
	assert.NotContains(t, out.Columns[2].AllowedTargets, models.SemanticDateTime)

	require.Len(t, out.Head, 3)
	assert.Equal(t, map[string]any{"id": int64(1), "qty": "10", "shipped": true}, out.Head[0])
}
