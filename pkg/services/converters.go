package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
)

// ConvertFunc converts one non-null value. A returned error rejects only that
// value; the caller nulls the cell and continues.
type ConvertFunc func(v any) (any, error)

type converterKey struct {
	from models.StorageType
	to   models.SemanticType
}

var (
	errNotNumeric  = errors.New("not a number")
	errNotBoolean  = errors.New("not a boolean")
	errNotComplex  = errors.New("not a complex number")
	errOutOfRange  = errors.New("out of integer range")
	errNotFinite   = errors.New("not a finite number")
	errUnsupported = errors.New("unsupported value type")
	hundred        = decimal.NewFromInt(100)
)

// converters is the per-value dispatch table keyed by (source storage,
// target semantic type). Every non-identity edge of the compatibility lattice
// must have an entry for every storage type mapping to the edge's source.
var converters = map[converterKey]ConvertFunc{
	// Integer
	{models.StorageInt64, models.SemanticDecimal}:       toDecimal,
	{models.StorageInt64, models.SemanticBoolean}:       toBoolean,
	{models.StorageInt64, models.SemanticAlphanumeric}:  toText,
	{models.StorageInt64, models.SemanticNumber}:        toNumber,
	{models.StorageInt64, models.SemanticComplexNumber}: toComplex,
	{models.StorageInt32, models.SemanticDecimal}:       toDecimal,
	{models.StorageInt32, models.SemanticBoolean}:       toBoolean,
	{models.StorageInt32, models.SemanticAlphanumeric}:  toText,
	{models.StorageInt32, models.SemanticNumber}:        toNumber,
	{models.StorageInt32, models.SemanticComplexNumber}: toComplex,

	// Decimal
	{models.StorageFloat64, models.SemanticInteger}:       toInteger,
	{models.StorageFloat64, models.SemanticBoolean}:       toBoolean,
	{models.StorageFloat64, models.SemanticAlphanumeric}:  toText,
	{models.StorageFloat64, models.SemanticNumber}:        toNumber,
	{models.StorageFloat64, models.SemanticComplexNumber}: toComplex,
	{models.StorageFloat32, models.SemanticInteger}:       toInteger,
	{models.StorageFloat32, models.SemanticBoolean}:       toBoolean,
	{models.StorageFloat32, models.SemanticAlphanumeric}:  toText,
	{models.StorageFloat32, models.SemanticNumber}:        toNumber,
	{models.StorageFloat32, models.SemanticComplexNumber}: toComplex,

	// Boolean
	{models.StorageBool, models.SemanticInteger}:      toInteger,
	{models.StorageBool, models.SemanticDecimal}:      toDecimal,
	{models.StorageBool, models.SemanticAlphanumeric}: toText,
	{models.StorageBool, models.SemanticNumber}:       toNumber,

	// Alphanumeric
	{models.StorageObject, models.SemanticText}: toText,

	// Category
	{models.StorageCategory, models.SemanticAlphanumeric}: toText,
	{models.StorageCategory, models.SemanticText}:         toText,

	// Date/Time
	{models.StorageDatetime, models.SemanticAlphanumeric}: toText,
	{models.StorageDatetime, models.SemanticText}:         toText,

	// Time Duration
	{models.StorageTimedelta, models.SemanticAlphanumeric}: toText,
	{models.StorageTimedelta, models.SemanticText}:         toText,

	// Text
	{models.StorageString, models.SemanticAlphanumeric}: toText,
	{models.StorageString, models.SemanticCategory}:     toText,

	// Number
	{models.StorageNumerical, models.SemanticInteger}:       toInteger,
	{models.StorageNumerical, models.SemanticDecimal}:       toDecimal,
	{models.StorageNumerical, models.SemanticBoolean}:       toBoolean,
	{models.StorageNumerical, models.SemanticAlphanumeric}:  toText,
	{models.StorageNumerical, models.SemanticComplexNumber}: toComplex,

	// Complex Number
	{models.StorageComplex, models.SemanticAlphanumeric}: toText,
	{models.StorageComplex, models.SemanticText}:         toText,

	// Percentage
	{models.StoragePercent, models.SemanticDecimal}:      toDecimal,
	{models.StoragePercent, models.SemanticAlphanumeric}: percentToText,
	{models.StoragePercent, models.SemanticText}:         percentToText,
}

// lookupConverter returns the converter for a (storage, target) pair.
func lookupConverter(from models.StorageType, to models.SemanticType) (ConvertFunc, bool) {
	fn, ok := converters[converterKey{from: from, to: to}]
	return fn, ok
}

// numericValue interprets native numbers, booleans and numeric strings. Strings
// must be a complete decimal literal; partial matches such as "12abc" fail.
func numericValue(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Decimal{}, errNotFinite
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Decimal{}, errNotFinite
		}
		return decimal.NewFromFloat32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case string:
		d, ok := parseDecimal(x)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", errNotNumeric, x)
		}
		return d, nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %T", errUnsupported, v)
}

// toInteger truncates toward zero. Booleans map to 0/1.
func toInteger(v any) (any, error) {
	d, err := numericValue(v)
	if err != nil {
		return nil, err
	}
	if d.IsZero() || adjustedExponent(d) <= 0 {
		return int64(0), nil
	}
	if adjustedExponent(d) > maxInt64Digits {
		return nil, fmt.Errorf("%w: %v", errOutOfRange, v)
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return nil, fmt.Errorf("%w: %s", errOutOfRange, d.String())
	}
	return d.IntPart(), nil
}

func toDecimal(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		if math.IsInf(x, 0) {
			return nil, errNotFinite
		}
		return x, nil
	case float32:
		return toDecimal(float64(x))
	}
	d, err := numericValue(v)
	if err != nil {
		return nil, err
	}
	f := decimalFloat64(d)
	if math.IsInf(f, 0) {
		return nil, errNotFinite
	}
	return f, nil
}

// toBoolean maps zero to false and any other number to true. Strings may
// also use the boolean tokens recognised during profiling.
func toBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if s, ok := v.(string); ok {
		if b, ok := booleanTokens[strings.ToLower(strings.TrimSpace(s))]; ok {
			return b, nil
		}
	}
	d, err := numericValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotBoolean, err)
	}
	return !d.IsZero(), nil
}

// toNumber keeps integral values as int64 and everything else as float64.
func toNumber(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case float64:
		if math.IsInf(x, 0) {
			return nil, errNotFinite
		}
		return x, nil
	case float32:
		return float64(x), nil
	}
	d, err := numericValue(v)
	if err != nil {
		return nil, err
	}
	if fitsInt64(d) {
		return decimalInt64(d), nil
	}
	f := decimalFloat64(d)
	if math.IsInf(f, 0) {
		return nil, errNotFinite
	}
	return f, nil
}

func toComplex(v any) (any, error) {
	switch x := v.(type) {
	case complex128:
		return x, nil
	case string:
		if c, ok := parseComplexLiteral(x); ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %q", errNotComplex, x)
	}
	d, err := numericValue(v)
	if err != nil {
		return nil, err
	}
	f := decimalFloat64(d)
	if math.IsInf(f, 0) {
		return nil, errNotFinite
	}
	return complex(f, 0), nil
}

// toText renders any value losslessly as a string.
func toText(v any) (any, error) {
	return models.FormatValue(v), nil
}

// percentToText renders a stored fraction back as a percentage, 0.125 -> "12.5%".
func percentToText(v any) (any, error) {
	d, err := numericValue(v)
	if err != nil {
		return nil, err
	}
	return d.Mul(hundred).String() + "%", nil
}
