package apperrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unsupported file", fmt.Errorf("decode upload: %w", ErrUnsupportedFileType), true},
		{"malformed", fmt.Errorf("column b: %w", ErrMalformedDataset), true},
		{"incompatible", ErrIncompatibleConversion, true},
		{"unknown label", fmt.Errorf("%w: %q", ErrUnknownSemanticType, "Money"), true},
		{"unknown storage is internal", ErrUnknownStorageType, false},
		{"not found is handled separately", ErrNotFound, false},
		{"plain error", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClientError(tt.err))
		})
	}
}
