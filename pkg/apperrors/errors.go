package apperrors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrColumnNotFound         = errors.New("column not found")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrUploadTooLarge         = errors.New("upload too large")
	ErrMalformedDataset       = errors.New("malformed dataset")
	ErrUnknownStorageType     = errors.New("unknown storage type")
	ErrUnknownSemanticType    = errors.New("unknown semantic type")
	ErrIncompatibleConversion = errors.New("incompatible conversion")
)

// IsClientError reports whether err was caused by the caller's input rather
// than by an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrMalformedDataset) ||
		errors.Is(err, ErrIncompatibleConversion) ||
		errors.Is(err, ErrUnknownSemanticType)
}
