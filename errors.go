package stationbeam

import "errors"

// Error kinds reported by the packages of this module. Failures are wrapped
// with fmt.Errorf("...: %w", ErrX) so callers can match with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDataIntegrity = errors.New("data integrity error")
	ErrNotFound      = errors.New("not found")
	ErrParse         = errors.New("parse error")
	ErrTransform     = errors.New("transform error")
)
