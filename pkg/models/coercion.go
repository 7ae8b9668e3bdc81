package models

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// CoercionOutcome classifies what happened to a single value.
type CoercionOutcome string

const (
	OutcomeConverted CoercionOutcome = "converted"
	OutcomeNulled    CoercionOutcome = "nulled"
	OutcomeRejected  CoercionOutcome = "rejected"
)

// CoercionResult is the per-value outcome of a coercion.
type CoercionResult struct {
	Row       int             `json:"row"`
	Original  any             `json:"original"`
	Converted any             `json:"converted,omitempty"`
	Outcome   CoercionOutcome `json:"outcome"`
	Reason    string          `json:"reason,omitempty"`
}

// MaxRejectionSamples caps how many rejected values a summary keeps.
const MaxRejectionSamples = 20

// CoercionSummary aggregates per-value outcomes for one column coercion.
// For non-identity coercions ConvertedCount+NulledCount+RejectedCount equals
// the column length. Identity coercions report zero counts.
type CoercionSummary struct {
	Column         string           `json:"column"`
	From           SemanticType     `json:"from"`
	To             SemanticType     `json:"to"`
	Identity       bool             `json:"identity"`
	ConvertedCount int64            `json:"converted_count"`
	NulledCount    int64            `json:"nulled_count"`
	RejectedCount  int64            `json:"rejected_count"`
	Rejections     []CoercionResult `json:"rejections,omitempty"`
}

// Record adds one value's outcome to the summary.
func (s *CoercionSummary) Record(r CoercionResult) {
	switch r.Outcome {
	case OutcomeConverted:
		s.ConvertedCount++
	case OutcomeNulled:
		s.NulledCount++
	case OutcomeRejected:
		s.RejectedCount++
		if len(s.Rejections) < MaxRejectionSamples {
			r.Original = PreviewValue(r.Original)
			s.Rejections = append(s.Rejections, r)
		}
	}
}

// Total returns the number of values accounted for.
func (s *CoercionSummary) Total() int64 {
	return s.ConvertedCount + s.NulledCount + s.RejectedCount
}

// Message is a short human-readable description of the coercion.
func (s *CoercionSummary) Message() string {
	if s.Identity {
		return fmt.Sprintf("%s is already %s; nothing to convert", s.Column, s.To)
	}
	parts := []string{
		countPhrase(s.ConvertedCount, "value", "converted"),
	}
	if s.NulledCount > 0 {
		parts = append(parts, countPhrase(s.NulledCount, "null", "kept"))
	}
	if s.RejectedCount > 0 {
		parts = append(parts, countPhrase(s.RejectedCount, "value", "rejected"))
	}
	return fmt.Sprintf("%s %s -> %s: %s", s.Column, s.From, s.To, strings.Join(parts, ", "))
}

func countPhrase(n int64, noun, verb string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s %s", n, noun, verb)
}
