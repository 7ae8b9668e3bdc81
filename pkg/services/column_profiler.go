package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/typesys"
)

// ColumnProfiler infers a column's storage and semantic type from raw cell
// values and computes its null and unique counts.
//
// Inference is never fatal for a column: anything that does not fit a more
// specific storage type falls back to generic object/text storage. The only
// error is a storage type missing from the type registry, which indicates a
// defect rather than bad data.
type ColumnProfiler interface {
	Profile(name string, values []any) (*models.Column, error)
}

// ProfilerConfig tunes the inference heuristics.
type ProfilerConfig struct {
	// NumericMajority is the share of parseable numbers above which a text
	// column is classified as Number rather than Alphanumeric.
	NumericMajority float64
	// CategoryMinValues is the number of non-null values a column needs
	// before it can be classified as a category.
	CategoryMinValues int
	// CategoryMaxRatio is the distinct/non-null ratio under which a text
	// column becomes a category.
	CategoryMaxRatio float64
	// MinDateLength is the shortest string considered a timestamp candidate.
	MinDateLength int
}

// DefaultProfilerConfig returns the standard inference thresholds.
func DefaultProfilerConfig() ProfilerConfig {
	return ProfilerConfig{
		NumericMajority:   0.9,
		CategoryMinValues: 100,
		CategoryMaxRatio:  0.1,
		MinDateLength:     6,
	}
}

type columnProfiler struct {
	config ProfilerConfig
	logger *zap.Logger
}

// NewColumnProfiler creates a column profiler.
func NewColumnProfiler(config ProfilerConfig, logger *zap.Logger) ColumnProfiler {
	return &columnProfiler{
		config: config,
		logger: logger.Named("column-profiler"),
	}
}

var (
	booleanTokens = map[string]bool{
		"true": true, "false": false,
		"1": true, "0": false,
		"yes": true, "no": false,
		"y": true, "n": false,
		"t": true, "f": false,
	}

	thousandsPattern  = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	percentPattern    = regexp.MustCompile(`^([-+]?[\d,]*\.?\d+)\s*%$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]+$`)
	durationUnit      = regexp.MustCompile(`(ns|us|µs|ms|s|m|h)$`)

	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

func (p *columnProfiler) Profile(name string, raw []any) (*models.Column, error) {
	storage, values := p.infer(raw)
	col, err := newColumn(name, storage, values)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Profiled column",
		zap.String("column", name),
		zap.String("storage_type", storage.String()),
		zap.String("semantic_type", string(col.SemanticType)),
		zap.Int64("null_count", col.NullCount),
		zap.Int64("unique_count", col.UniqueCount))

	return col, nil
}

// infer returns the storage type and the values normalised to that storage's
// Go representation. Null sentinels become nil.
func (p *columnProfiler) infer(raw []any) (models.StorageType, []any) {
	values := make([]any, len(raw))
	nonNull := make([]int, 0, len(raw))
	for i, v := range raw {
		if models.IsNull(v) {
			continue
		}
		values[i] = v
		nonNull = append(nonNull, i)
	}

	if len(nonNull) == 0 {
		return models.StorageObject, values
	}

	if storage, ok := nativeStorage(values, nonNull); ok {
		return storage, values
	}

	if parsed, ok := mapAll(values, nonNull, parseBooleanToken); ok {
		return models.StorageBool, parsed
	}

	if storage, parsed, ok := inferNumeric(values, nonNull); ok {
		return storage, parsed
	}

	allStrings := true
	numeric := 0
	for _, i := range nonNull {
		if _, ok := values[i].(string); !ok {
			allStrings = false
		}
		if _, ok := parseDecimal(values[i]); ok {
			numeric++
		}
	}
	if float64(numeric)/float64(len(nonNull)) >= p.config.NumericMajority {
		return models.StorageNumerical, values
	}

	if !allStrings {
		return models.StorageObject, values
	}

	if parsed, ok := mapAll(values, nonNull, parsePercent); ok {
		return models.StoragePercent, parsed
	}

	if parsed, ok := inferComplex(values, nonNull); ok {
		return models.StorageComplex, parsed
	}

	if parsed, ok := mapAll(values, nonNull, parseDurationLiteral); ok {
		return models.StorageTimedelta, parsed
	}

	if parsed, ok := mapAll(values, nonNull, p.parseTimestamp); ok {
		return models.StorageDatetime, parsed
	}

	if p.isCategory(values, nonNull) {
		return models.StorageCategory, values
	}

	for _, i := range nonNull {
		if !identifierPattern.MatchString(strings.TrimSpace(values[i].(string))) {
			return models.StorageString, values
		}
	}
	return models.StorageObject, values
}

// nativeStorage handles columns whose cells already carry a Go type that maps
// directly onto a storage type.
func nativeStorage(values []any, nonNull []int) (models.StorageType, bool) {
	var storage models.StorageType
	for n, i := range nonNull {
		var s models.StorageType
		switch values[i].(type) {
		case int32:
			s = models.StorageInt32
		case float32:
			s = models.StorageFloat32
		case time.Time:
			s = models.StorageDatetime
		case time.Duration:
			s = models.StorageTimedelta
		case complex128:
			s = models.StorageComplex
		case bool:
			s = models.StorageBool
		default:
			return 0, false
		}
		if n == 0 {
			storage = s
		} else if s != storage {
			return 0, false
		}
	}
	return storage, true
}

// mapAll applies parse to every non-null value and returns the parsed column
// only if every value parsed.
func mapAll(values []any, nonNull []int, parse func(any) (any, bool)) ([]any, bool) {
	out := make([]any, len(values))
	for _, i := range nonNull {
		parsed, ok := parse(values[i])
		if !ok {
			return nil, false
		}
		out[i] = parsed
	}
	return out, true
}

func inferNumeric(values []any, nonNull []int) (models.StorageType, []any, bool) {
	decimals := make([]decimal.Decimal, len(values))
	integral := true
	for _, i := range nonNull {
		d, ok := parseDecimal(values[i])
		if !ok {
			return 0, nil, false
		}
		decimals[i] = d
		if !fitsInt64(d) {
			integral = false
		}
	}

	out := make([]any, len(values))
	for _, i := range nonNull {
		if integral {
			out[i] = decimalInt64(decimals[i])
			continue
		}
		if f, ok := values[i].(float64); ok {
			out[i] = f
			continue
		}
		out[i] = decimalFloat64(decimals[i])
	}
	if integral {
		return models.StorageInt64, out, true
	}
	return models.StorageFloat64, out, true
}

func inferComplex(values []any, nonNull []int) ([]any, bool) {
	imaginary := false
	out := make([]any, len(values))
	for _, i := range nonNull {
		s := values[i].(string)
		c, ok := parseComplexLiteral(s)
		if !ok {
			return nil, false
		}
		if imag(c) != 0 || strings.ContainsAny(s, "ij") {
			imaginary = true
		}
		out[i] = c
	}
	return out, imaginary
}

func (p *columnProfiler) parseTimestamp(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if len(s) < p.config.MinDateLength {
		return nil, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, false
	}
	return t, true
}

func (p *columnProfiler) isCategory(values []any, nonNull []int) bool {
	if len(nonNull) <= p.config.CategoryMinValues {
		return false
	}
	distinct := make(map[any]struct{})
	for _, i := range nonNull {
		distinct[values[i]] = struct{}{}
	}
	return float64(len(distinct))/float64(len(nonNull)) < p.config.CategoryMaxRatio
}

// ============================================================================
// Value parsers shared by profiling and coercion
// ============================================================================

func parseBooleanToken(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		return intToBool(x)
	case int:
		return intToBool(int64(x))
	case string:
		b, ok := booleanTokens[strings.ToLower(strings.TrimSpace(x))]
		return b, ok
	}
	return nil, false
}

func intToBool(n int64) (any, bool) {
	switch n {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return nil, false
}

// parseDecimal accepts native numbers and numeric strings, including
// thousands separators ("1,234.5").
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(x), true
	case string:
		s := strings.TrimSpace(x)
		if thousandsPattern.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		}
		return parseStrictDecimal(s)
	}
	return decimal.Decimal{}, false
}

// parseStrictDecimal parses a plain decimal literal with no separators.
func parseStrictDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Adjusted exponents (digit count plus exponent) past which a decimal
// overflows float64 or flushes to zero. Values beyond them are classified
// from the exponent alone and never rescaled.
const (
	maxFloatExponent = 309
	minFloatExponent = -330
	maxInt64Digits   = 19
)

func adjustedExponent(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}

// fitsInt64 reports whether d is integral and within int64 range.
func fitsInt64(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	adj := adjustedExponent(d)
	if adj > maxInt64Digits || adj <= 0 {
		return false
	}
	return d.IsInteger() && !d.GreaterThan(maxInt64) && !d.LessThan(minInt64)
}

// decimalInt64 returns the integer value of a d accepted by fitsInt64.
func decimalInt64(d decimal.Decimal) int64 {
	if d.IsZero() {
		return 0
	}
	return d.IntPart()
}

// decimalFloat64 converts d to the nearest float64. Magnitudes beyond the
// float64 range saturate to an infinity and tiny ones flush to zero.
func decimalFloat64(d decimal.Decimal) float64 {
	if d.IsZero() {
		return 0
	}
	adj := adjustedExponent(d)
	switch {
	case adj > maxFloatExponent && d.IsNegative():
		return math.Inf(-1)
	case adj > maxFloatExponent:
		return math.Inf(1)
	case adj < minFloatExponent:
		return 0
	}
	f, _ := d.Float64()
	return f
}

// parsePercent parses "12.5%" into the fraction 0.125.
func parsePercent(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	m := percentPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, false
	}
	d, ok := parseStrictDecimal(strings.ReplaceAll(m[1], ",", ""))
	if !ok {
		return nil, false
	}
	return decimalFloat64(d.Div(decimal.NewFromInt(100))), true
}

// parseComplexLiteral accepts both "1+2i" and "1+2j" notation.
func parseComplexLiteral(s string) (complex128, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" || !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}
	s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	if strings.HasSuffix(s, "j") {
		s = strings.TrimSuffix(s, "j") + "i"
	}
	c, err := strconv.ParseComplex(s, 128)
	if err != nil {
		return 0, false
	}
	return c, true
}

func parseDurationLiteral(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if !durationUnit.MatchString(s) {
		return nil, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, false
	}
	return d, true
}

// ============================================================================
// Column statistics
// ============================================================================

// newColumn builds a column and computes its statistics from scratch.
func newColumn(name string, storage models.StorageType, values []any) (*models.Column, error) {
	semantic, err := typesys.SemanticTypeOf(storage)
	if err != nil {
		return nil, err
	}

	nulls, uniques := countNullsAndUniques(values)
	return &models.Column{
		Name:         name,
		Values:       values,
		StorageType:  storage,
		SemanticType: semantic,
		NullCount:    nulls,
		UniqueCount:  uniques,
		MemoryBytes:  estimateMemory(storage, values),
	}, nil
}

func countNullsAndUniques(values []any) (int64, int64) {
	var nulls int64
	distinct := make(map[any]struct{})
	for _, v := range values {
		if models.IsNull(v) {
			nulls++
			continue
		}
		distinct[models.ValueKey(v)] = struct{}{}
	}
	return nulls, int64(len(distinct))
}

// fixedWidth is the per-value size of storage types with a fixed encoding.
var fixedWidth = map[models.StorageType]int64{
	models.StorageInt64:     8,
	models.StorageInt32:     4,
	models.StorageFloat64:   8,
	models.StorageFloat32:   4,
	models.StorageBool:      1,
	models.StorageDatetime:  8,
	models.StorageTimedelta: 8,
	models.StorageComplex:   16,
	models.StoragePercent:   8,
}

// referenceSize approximates the per-cell overhead of variable-width storage.
const referenceSize = 16

// estimateMemory approximates the in-memory footprint of a column.
func estimateMemory(storage models.StorageType, values []any) int64 {
	if width, ok := fixedWidth[storage]; ok {
		return width * int64(len(values))
	}

	if storage == models.StorageCategory {
		total := 4 * int64(len(values))
		seen := make(map[any]struct{})
		for _, v := range values {
			if models.IsNull(v) {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			total += int64(len(models.FormatValue(v)))
		}
		return total
	}

	var total int64
	for _, v := range values {
		total += referenceSize + int64(len(models.FormatValue(v)))
	}
	return total
}
