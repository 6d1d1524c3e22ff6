package report

import (
	"errors"
	"fmt"
)

// Error codes of LoadError.
const (
	ErrCodeFormat  = "E201" // Unsupported report format
	ErrCodeFetch   = "E202" // Report could not be read
	ErrCodeDecode  = "E203" // Report could not be decoded
	ErrCodeInvalid = "E204" // Report content is invalid
	ErrCodeMetric  = "E205" // Unknown or conflicting metric
	ErrCodeMeasure = "E206" // Measure does not fit its metric
)

// LoadError is an error loading a report.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a LoadError with the given code.
// An empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}
