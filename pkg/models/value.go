package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// nullTokens are string cells treated as missing, matching the sentinels
// spreadsheet and CSV exports commonly use.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"#n/a": true,
	"<na>": true,
}

// IsNull reports whether a cell value is a missing/empty sentinel.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return nullTokens[strings.ToLower(strings.TrimSpace(x))]
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case complex128:
		return math.IsNaN(real(x)) || math.IsNaN(imag(x))
	}
	return false
}

// timeKey keeps timestamps distinct from int64 values when used as map keys.
type timeKey int64

// ValueKey returns a comparable key with value-equality semantics for
// counting distinct values. Timestamps compare by instant, not by location.
func ValueKey(v any) any {
	switch x := v.(type) {
	case time.Time:
		return timeKey(x.UnixNano())
	case float32:
		return float64(x)
	}
	return v
}

// FormatValue renders a non-null value as a string without losing
// information. Nulls render as the empty string.
func FormatValue(v any) string {
	if IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Location() == time.UTC && x.Nanosecond() == 0 {
			return x.Format(time.DateTime)
		}
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	case complex128:
		return strconv.FormatComplex(x, 'f', -1, 128)
	}
	return ""
}

// PreviewValue converts a value into something encoding/json can represent.
func PreviewValue(v any) any {
	if IsNull(v) {
		return nil
	}
	switch x := v.(type) {
	case float64:
		if math.IsInf(x, 0) {
			return FormatValue(x)
		}
		return x
	case float32:
		if math.IsInf(float64(x), 0) {
			return FormatValue(x)
		}
		return x
	case time.Time, time.Duration, complex128:
		return FormatValue(x)
	}
	return v
}
