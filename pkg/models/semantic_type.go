package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
)

// ============================================================================
// Semantic Types
// ============================================================================

// SemanticType is the user-facing category a column is classified into.
// The string value is the label exposed to clients.
type SemanticType string

const (
	SemanticInteger       SemanticType = "Integer"
	SemanticDecimal       SemanticType = "Decimal"
	SemanticBoolean       SemanticType = "Boolean"
	SemanticAlphanumeric  SemanticType = "Alphanumeric"
	SemanticCategory      SemanticType = "Category"
	SemanticDateTime      SemanticType = "Date/Time"
	SemanticTimeDuration  SemanticType = "Time Duration"
	SemanticText          SemanticType = "Text"
	SemanticNumber        SemanticType = "Number"
	SemanticComplexNumber SemanticType = "Complex Number"
	SemanticPercentage    SemanticType = "Percentage"
)

// ValidSemanticTypes contains every semantic type, in display order.
var ValidSemanticTypes = []SemanticType{
	SemanticInteger,
	SemanticDecimal,
	SemanticBoolean,
	SemanticAlphanumeric,
	SemanticCategory,
	SemanticDateTime,
	SemanticTimeDuration,
	SemanticText,
	SemanticNumber,
	SemanticComplexNumber,
	SemanticPercentage,
}

// IsValidSemanticType checks if the given semantic type is part of the closed set.
func IsValidSemanticType(t SemanticType) bool {
	return slices.Contains(ValidSemanticTypes, t)
}

// ParseSemanticType resolves a client-supplied label. Matching ignores case
// and surrounding whitespace.
func ParseSemanticType(label string) (SemanticType, error) {
	label = strings.TrimSpace(label)
	for _, t := range ValidSemanticTypes {
		if strings.EqualFold(string(t), label) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownSemanticType, label)
}

func (t SemanticType) String() string {
	return string(t)
}
