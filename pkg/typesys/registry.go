// Package typesys holds the static type policy: which semantic type each
// storage type maps to, and which semantic types a column may be coerced into.
package typesys

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
)

// semanticByStorage is total over models.ValidStorageTypes. A gap here is a
// defect, never a silent default.
var semanticByStorage = map[models.StorageType]models.SemanticType{
	models.StorageInt64:     models.SemanticInteger,
	models.StorageInt32:     models.SemanticInteger,
	models.StorageFloat64:   models.SemanticDecimal,
	models.StorageFloat32:   models.SemanticDecimal,
	models.StorageBool:      models.SemanticBoolean,
	models.StorageObject:    models.SemanticAlphanumeric,
	models.StorageCategory:  models.SemanticCategory,
	models.StorageDatetime:  models.SemanticDateTime,
	models.StorageTimedelta: models.SemanticTimeDuration,
	models.StorageString:    models.SemanticText,
	models.StorageNumerical: models.SemanticNumber,
	models.StorageComplex:   models.SemanticComplexNumber,
	models.StoragePercent:   models.SemanticPercentage,
}

// canonicalStorage is the storage a column receives after a coercion into
// the given semantic type.
var canonicalStorage = map[models.SemanticType]models.StorageType{
	models.SemanticInteger:       models.StorageInt64,
	models.SemanticDecimal:       models.StorageFloat64,
	models.SemanticBoolean:       models.StorageBool,
	models.SemanticAlphanumeric:  models.StorageObject,
	models.SemanticCategory:      models.StorageCategory,
	models.SemanticDateTime:      models.StorageDatetime,
	models.SemanticTimeDuration:  models.StorageTimedelta,
	models.SemanticText:          models.StorageString,
	models.SemanticNumber:        models.StorageNumerical,
	models.SemanticComplexNumber: models.StorageComplex,
	models.SemanticPercentage:    models.StoragePercent,
}

// SemanticTypeOf maps a storage type to its semantic type.
func SemanticTypeOf(s models.StorageType) (models.SemanticType, error) {
	t, ok := semanticByStorage[s]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownStorageType, s)
	}
	return t, nil
}

// CanonicalStorage returns the storage type used for values coerced into t.
func CanonicalStorage(t models.SemanticType) (models.StorageType, error) {
	s, ok := canonicalStorage[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownSemanticType, string(t))
	}
	return s, nil
}

// StorageMapping returns a copy of the storage -> semantic table keyed by
// dtype name, for display.
func StorageMapping() map[string]models.SemanticType {
	out := make(map[string]models.SemanticType, len(semanticByStorage))
	for s, t := range semanticByStorage {
		out[s.String()] = t
	}
	return out
}
