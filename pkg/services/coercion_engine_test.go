package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/typesys"
)

func mustColumn(t *testing.T, name string, storage models.StorageType, values ...any) *models.Column {
	t.Helper()
	col, err := newColumn(name, storage, values)
	require.NoError(t, err)
	return col
}

func TestConverters_CoverEveryLatticeEdge(t *testing.T) {
	for _, storage := range models.ValidStorageTypes {
		semantic, err := typesys.SemanticTypeOf(storage)
		require.NoError(t, err)

		for _, target := range typesys.AllowedTargets(semantic) {
			if target == semantic {
				continue
			}
			_, ok := lookupConverter(storage, target)
			assert.True(t, ok, "missing converter for %s -> %s", storage, target)
		}
	}
}

func TestConverters_OnlyForLatticeEdges(t *testing.T) {
	for key := range converters {
		semantic, err := typesys.SemanticTypeOf(key.from)
		require.NoError(t, err)
		assert.True(t, typesys.CanCoerce(semantic, key.to),
			"converter %s -> %s is not reachable through the lattice", key.from, key.to)
	}
}

func TestCoerce_IncompatibleAlphanumericToInteger(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	col := mustColumn(t, "code", models.StorageObject, "3", "x", "5")

	result, summary, err := engine.Coerce(col, models.SemanticInteger)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIncompatibleConversion)
	assert.Nil(t, result)
	assert.Nil(t, summary)
	assert.Equal(t, []any{"3", "x", "5"}, col.Values)
	assert.Equal(t, models.SemanticAlphanumeric, col.SemanticType)
}

func TestCoerce_IncompatibleAlwaysRejected(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())

	for _, storage := range models.ValidStorageTypes {
		col := mustColumn(t, "c", storage)
		for _, target := range models.ValidSemanticTypes {
			if typesys.CanCoerce(col.SemanticType, target) {
				continue
			}
			_, _, err := engine.Coerce(col, target)
			assert.ErrorIs(t, err, apperrors.ErrIncompatibleConversion, "%s -> %s", col.SemanticType, target)
		}
	}
}

func TestCoerce_BooleanToInteger(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	col := mustColumn(t, "flag", models.StorageBool, true, false, true)

	result, summary, err := engine.Coerce(col, models.SemanticInteger)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(1), int64(0), int64(1)}, result.Values)
	assert.Equal(t, models.SemanticInteger, result.SemanticType)
	assert.Equal(t, models.StorageInt64, result.StorageType)
	assert.Equal(t, int64(3), summary.ConvertedCount)
	assert.Equal(t, int64(0), summary.RejectedCount)
	assert.Equal(t, int64(2), result.UniqueCount)
}

func TestCoerce_NumberTextToInteger(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	col := mustColumn(t, "qty", models.StorageNumerical, "10", "abc", "20")
	require.Equal(t, models.SemanticNumber, col.SemanticType)

	result, summary, err := engine.Coerce(col, models.SemanticInteger)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(10), nil, int64(20)}, result.Values)
	assert.Equal(t, int64(2), summary.ConvertedCount)
	assert.Equal(t, int64(1), summary.RejectedCount)
	assert.Equal(t, int64(0), summary.NulledCount)
	require.Len(t, summary.Rejections, 1)
	assert.Equal(t, 1, summary.Rejections[0].Row)
	assert.Equal(t, "abc", summary.Rejections[0].Original)
	assert.NotEmpty(t, summary.Rejections[0].Reason)

	// Statistics are recomputed from the new values.
	assert.Equal(t, int64(1), result.NullCount)
	assert.Equal(t, int64(2), result.UniqueCount)

	// The source column is untouched.
	assert.Equal(t, []any{"10", "abc", "20"}, col.Values)
}

func TestCoerce_NumberExtremeExponents(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	col := mustColumn(t, "n", models.StorageNumerical, "1e100000000", "1e-100000000", "0e100000000", "5", "abc")

	var result *models.Column
	var summary *models.CoercionSummary
	var err error
	requireFinishes(t, 5*time.Second, func() {
		result, summary, err = engine.Coerce(col, models.SemanticInteger)
	})
	require.NoError(t, err)

	assert.Equal(t, []any{nil, int64(0), int64(0), int64(5), nil}, result.Values)
	assert.Equal(t, int64(3), summary.ConvertedCount)
	assert.Equal(t, int64(2), summary.RejectedCount)

	requireFinishes(t, 5*time.Second, func() {
		result, summary, err = engine.Coerce(col, models.SemanticDecimal)
	})
	require.NoError(t, err)

	assert.Equal(t, []any{nil, 0.0, 0.0, 5.0, nil}, result.Values)
	assert.Equal(t, int64(3), summary.ConvertedCount)
	assert.Equal(t, int64(2), summary.RejectedCount)
}

func TestCoerce_IdentityIsNoOp(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())

	for _, storage := range models.ValidStorageTypes {
		col := mustColumn(t, "c", storage, nil, "x")
		nulls, uniques := col.NullCount, col.UniqueCount

		result, summary, err := engine.Coerce(col, col.SemanticType)
		require.NoError(t, err)

		assert.Same(t, col, result)
		assert.True(t, summary.Identity)
		assert.Zero(t, summary.ConvertedCount)
		assert.Zero(t, summary.RejectedCount)
		assert.Equal(t, []any{nil, "x"}, result.Values)
		assert.Equal(t, nulls, result.NullCount)
		assert.Equal(t, uniques, result.UniqueCount)
	}
}

func TestCoerce_DecimalToIntegerTruncatesTowardZero(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	col := mustColumn(t, "x", models.StorageFloat64, 2.7, -2.7, nil, 1e30)

	result, summary, err := engine.Coerce(col, models.SemanticInteger)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(2), int64(-2), nil, nil}, result.Values)
	assert.Equal(t, int64(2), summary.ConvertedCount)
	assert.Equal(t, int64(1), summary.NulledCount)
	assert.Equal(t, int64(1), summary.RejectedCount)
}

func TestCoerce_ValueConversions(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		storage models.StorageType
		in      []any
		target  models.SemanticType
		want    []any
	}{
		{"integer to decimal", models.StorageInt64, []any{int64(3), nil}, models.SemanticDecimal, []any{3.0, nil}},
		{"integer to boolean", models.StorageInt64, []any{int64(0), int64(5)}, models.SemanticBoolean, []any{false, true}},
		{"integer to alphanumeric", models.StorageInt64, []any{int64(-7)}, models.SemanticAlphanumeric, []any{"-7"}},
		{"integer to complex", models.StorageInt64, []any{int64(2)}, models.SemanticComplexNumber, []any{complex(2, 0)}},
		{"int32 to number", models.StorageInt32, []any{int32(4)}, models.SemanticNumber, []any{int64(4)}},
		{"decimal to text", models.StorageFloat64, []any{0.1}, models.SemanticAlphanumeric, []any{"0.1"}},
		{"decimal to number", models.StorageFloat64, []any{2.5}, models.SemanticNumber, []any{2.5}},
		{"boolean to decimal", models.StorageBool, []any{true, false}, models.SemanticDecimal, []any{1.0, 0.0}},
		{"boolean to text", models.StorageBool, []any{true}, models.SemanticAlphanumeric, []any{"true"}},
		{"object to text", models.StorageObject, []any{int64(1), "a", true}, models.SemanticText, []any{"1", "a", "true"}},
		{"category to text", models.StorageCategory, []any{"red"}, models.SemanticText, []any{"red"}},
		{"datetime to text", models.StorageDatetime, []any{ts}, models.SemanticText, []any{"2024-03-01 08:30:00"}},
		{"duration to alphanumeric", models.StorageTimedelta, []any{90 * time.Second}, models.SemanticAlphanumeric, []any{"1m30s"}},
		{"text to category", models.StorageString, []any{"a b", nil}, models.SemanticCategory, []any{"a b", nil}},
		{"number to decimal", models.StorageNumerical, []any{"1.25", "x"}, models.SemanticDecimal, []any{1.25, nil}},
		{"number to boolean", models.StorageNumerical, []any{"0", "yes", "2"}, models.SemanticBoolean, []any{false, true, true}},
		{"number to complex", models.StorageNumerical, []any{"1+1j", "3"}, models.SemanticComplexNumber, []any{complex(1, 1), complex(3, 0)}},
		{"complex to text", models.StorageComplex, []any{complex(1, -1)}, models.SemanticText, []any{"(1-1i)"}},
		{"percent to decimal", models.StoragePercent, []any{0.125}, models.SemanticDecimal, []any{0.125}},
		{"percent to text", models.StoragePercent, []any{0.125, 1.0}, models.SemanticText, []any{"12.5%", "100%"}},
	}

	engine := NewCoercionEngine(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := mustColumn(t, "c", tt.storage, tt.in...)

			result, summary, err := engine.Coerce(col, tt.target)
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Values)
			assert.Equal(t, tt.target, result.SemanticType)
			assert.Equal(t, int64(len(tt.in)), summary.Total())
		})
	}
}

func TestCoerce_CountsAlwaysSumToLength(t *testing.T) {
	engine := NewCoercionEngine(zap.NewNop())
	values := []any{"1", nil, "2.9", "abc", "", "-4", "yes"}

	for _, target := range typesys.AllowedTargets(models.SemanticNumber) {
		if target == models.SemanticNumber {
			continue
		}
		col := mustColumn(t, "n", models.StorageNumerical, values...)

		_, summary, err := engine.Coerce(col, target)
		require.NoError(t, err)
		assert.Equal(t, int64(len(values)), summary.ConvertedCount+summary.NulledCount+summary.RejectedCount, "target %s", target)
	}
}
