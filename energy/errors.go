package energy

import "errors"

// Sentinel error kinds. Every operation that can fail wraps one of
// these with fmt.Errorf("...: %w", err).
var (
	// ErrAllocationFailure means a heap acquisition failed; the
	// receiving Model must be treated as invalid.
	ErrAllocationFailure = errors.New("energy: allocation failure")
	// ErrIndexOutOfRange means an instance, site, or pair index fell
	// outside its declared bounds.
	ErrIndexOutOfRange = errors.New("energy: index out of range")
	// ErrValueError means an input value was structurally invalid
	// (e.g. a negative proton count, a non-positive temperature).
	ErrValueError = errors.New("energy: value error")
	// ErrTooManyStates means nstates exceeds the caller-declared
	// AnalyticStatesCap and exact enumeration must not be attempted.
	ErrTooManyStates = errors.New("energy: nstates exceeds analytic cap")
)
