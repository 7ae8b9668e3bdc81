package typesys

import (
	"slices"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
)

// LatticeVersion identifies the conversion policy below. Edges are domain
// policy entered by hand. They are neither symmetric nor
// transitive, and lookups are single-hop.
const LatticeVersion = "v1"

var conversionRules = map[models.SemanticType][]models.SemanticType{
	models.SemanticInteger: {
		models.SemanticInteger, models.SemanticDecimal, models.SemanticBoolean,
		models.SemanticAlphanumeric, models.SemanticNumber, models.SemanticComplexNumber,
	},
	models.SemanticDecimal: {
		models.SemanticInteger, models.SemanticDecimal, models.SemanticBoolean,
		models.SemanticAlphanumeric, models.SemanticNumber, models.SemanticComplexNumber,
	},
	models.SemanticBoolean: {
		models.SemanticInteger, models.SemanticDecimal, models.SemanticBoolean,
		models.SemanticAlphanumeric, models.SemanticNumber,
	},
	models.SemanticAlphanumeric: {
		models.SemanticAlphanumeric, models.SemanticText,
	},
	models.SemanticCategory: {
		models.SemanticCategory, models.SemanticAlphanumeric, models.SemanticText,
	},
	models.SemanticDateTime: {
		models.SemanticDateTime, models.SemanticAlphanumeric, models.SemanticText,
	},
	models.SemanticTimeDuration: {
		models.SemanticTimeDuration, models.SemanticAlphanumeric, models.SemanticText,
	},
	models.SemanticText: {
		models.SemanticText, models.SemanticAlphanumeric, models.SemanticCategory,
	},
	models.SemanticNumber: {
		models.SemanticNumber, models.SemanticInteger, models.SemanticDecimal,
		models.SemanticBoolean, models.SemanticAlphanumeric, models.SemanticComplexNumber,
	},
	models.SemanticComplexNumber: {
		models.SemanticComplexNumber, models.SemanticAlphanumeric, models.SemanticText,
	},
	models.SemanticPercentage: {
		models.SemanticPercentage, models.SemanticDecimal, models.SemanticAlphanumeric, models.SemanticText,
	},
}

// AllowedTargets returns the semantic types a column of type t may be coerced
// into, always including t itself. Unknown types have no targets. The
// returned slice is a copy.
func AllowedTargets(t models.SemanticType) []models.SemanticType {
	return slices.Clone(conversionRules[t])
}

// CanCoerce reports whether from -> to is a direct edge in the lattice.
func CanCoerce(from, to models.SemanticType) bool {
	return slices.Contains(conversionRules[from], to)
}

// ConversionRules returns a copy of the full lattice.
func ConversionRules() map[models.SemanticType][]models.SemanticType {
	out := make(map[models.SemanticType][]models.SemanticType, len(conversionRules))
	for t, targets := range conversionRules {
		out[t] = slices.Clone(targets)
	}
	return out
}
