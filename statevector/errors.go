package statevector

import "errors"

// Sentinel error kinds, matching the original C extension's Status
// codes. Every operation that can fail wraps one of these with
// fmt.Errorf("...: %w", err) so callers can still errors.Is against the
// kind.
var (
	// ErrAllocationFailure means a heap acquisition failed; the
	// receiving StateVector must be treated as invalid.
	ErrAllocationFailure = errors.New("statevector: allocation failure")
	// ErrIndexOutOfRange means a site, instance, pair, or substate
	// index fell outside its declared bounds.
	ErrIndexOutOfRange = errors.New("statevector: index out of range")
	// ErrValueError means an instance index fell outside the site's
	// [indexFirst, indexLast] range when setting.
	ErrValueError = errors.New("statevector: value error")
	// ErrNonConformableSizes means a copy/clone was attempted between
	// vectors of different site counts.
	ErrNonConformableSizes = errors.New("statevector: non-conformable sizes")
)
