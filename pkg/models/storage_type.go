package models

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
)

//go:generate go tool stringer -type=StorageType -linecomment

// StorageType is the low-level encoding of a column's values as observed in
// (or produced from) source data. The String form uses the dtype names the
// ingestion layer historically reported.
type StorageType int

const (
	StorageInt64     StorageType = iota // int64
	StorageInt32                        // int32
	StorageFloat64                      // float64
	StorageFloat32                      // float32
	StorageBool                         // bool
	StorageObject                       // object
	StorageCategory                     // category
	StorageDatetime                     // datetime64[ns]
	StorageTimedelta                    // timedelta[ns]
	StorageString                       // string
	StorageNumerical                    // numerical
	StorageComplex                      // complex
	StoragePercent                      // percent
)

// ValidStorageTypes lists every storage type the profiler and ingestion
// layer may emit.
var ValidStorageTypes = []StorageType{
	StorageInt64,
	StorageInt32,
	StorageFloat64,
	StorageFloat32,
	StorageBool,
	StorageObject,
	StorageCategory,
	StorageDatetime,
	StorageTimedelta,
	StorageString,
	StorageNumerical,
	StorageComplex,
	StoragePercent,
}

// ParseStorageType resolves a dtype name such as "int64" or "datetime64[ns]".
func ParseStorageType(name string) (StorageType, error) {
	for _, s := range ValidStorageTypes {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownStorageType, name)
}

// MarshalText encodes the storage type by dtype name.
func (s StorageType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a dtype name.
func (s *StorageType) UnmarshalText(text []byte) error {
	parsed, err := ParseStorageType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
