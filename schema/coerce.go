package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ComplianceError reports a source value that cannot be coerced to its
// target schema type. It is fatal for the chunk being processed.
type ComplianceError struct {
	Field string
	Value string
	Err   error
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("schema: cannot coerce %q to field %q: %v", e.Value, e.Field, e.Err)
}

func (e *ComplianceError) Unwrap() error { return e.Err }

// Int32 coerces a source cell to int32. Empty input yields the schema
// default 0.
func Int32(field, v string) (int32, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	// MaxQuant writes integral columns as floats in some exports.
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ComplianceError{Field: field, Value: v, Err: err}
	}
	return int32(f), nil
}

// Float32 coerces a source cell to float32. Empty input yields 0.
func Float32(field, v string) (float32, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, &ComplianceError{Field: field, Value: v, Err: err}
	}
	return float32(f), nil
}

// OptFloat32 coerces a source cell to a nullable float32. Empty input
// yields null.
func OptFloat32(field, v string) (*float32, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return nil, &ComplianceError{Field: field, Value: v, Err: err}
	}
	f32 := float32(f)
	return &f32, nil
}

// FlagToInt32 normalizes a sentinel-string boolean flag: the designated
// "true" sentinel "+" maps to 1, anything else to 0.
func FlagToInt32(v string) int32 {
	if strings.TrimSpace(v) == "+" {
		return 1
	}
	return 0
}

// MinutesToSeconds converts a retention time read in minutes to the
// schema's seconds representation. It must be applied exactly once.
func MinutesToSeconds(v *float32) *float32 {
	if v == nil {
		return nil
	}
	s := *v * 60
	return &s
}
