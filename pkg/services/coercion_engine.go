package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/typesys"
)

// CoercionEngine converts a column into another semantic type.
type CoercionEngine interface {
	// Coerce validates the request against the compatibility lattice and
	// converts every value. The input column is never modified; a new column
	// is returned with freshly computed statistics. The only error for a
	// valid column is ErrIncompatibleConversion; per-value failures are
	// counted as rejections and the cell becomes null.
	Coerce(col *models.Column, target models.SemanticType) (*models.Column, *models.CoercionSummary, error)
}

type coercionEngine struct {
	logger *zap.Logger
}

// NewCoercionEngine creates a coercion engine.
func NewCoercionEngine(logger *zap.Logger) CoercionEngine {
	return &coercionEngine{
		logger: logger.Named("coercion-engine"),
	}
}

func (e *coercionEngine) Coerce(col *models.Column, target models.SemanticType) (*models.Column, *models.CoercionSummary, error) {
	if !typesys.CanCoerce(col.SemanticType, target) {
		return nil, nil, fmt.Errorf("%w: column %q cannot be converted from %s to %s",
			apperrors.ErrIncompatibleConversion, col.Name, col.SemanticType, target)
	}

	summary := &models.CoercionSummary{
		Column: col.Name,
		From:   col.SemanticType,
		To:     target,
	}

	if target == col.SemanticType {
		summary.Identity = true
		return col, summary, nil
	}

	convert, ok := lookupConverter(col.StorageType, target)
	if !ok {
		return nil, nil, fmt.Errorf("no converter registered for %s -> %s", col.StorageType, target)
	}
	storage, err := typesys.CanonicalStorage(target)
	if err != nil {
		return nil, nil, err
	}

	values := make([]any, len(col.Values))
	for i, v := range col.Values {
		if models.IsNull(v) {
			summary.Record(models.CoercionResult{Row: i, Original: v, Outcome: models.OutcomeNulled})
			continue
		}

		converted, err := convert(v)
		if err != nil {
			summary.Record(models.CoercionResult{
				Row:      i,
				Original: v,
				Outcome:  models.OutcomeRejected,
				Reason:   err.Error(),
			})
			continue
		}
		values[i] = converted
		summary.Record(models.CoercionResult{Row: i, Original: v, Converted: converted, Outcome: models.OutcomeConverted})
	}

	result, err := newColumn(col.Name, storage, values)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("Coerced column",
		zap.String("column", col.Name),
		zap.String("from", string(summary.From)),
		zap.String("to", string(summary.To)),
		zap.Int64("converted", summary.ConvertedCount),
		zap.Int64("nulled", summary.NulledCount),
		zap.Int64("rejected", summary.RejectedCount))

	return result, summary, nil
}
