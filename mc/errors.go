package mc

import "errors"

// Sentinel error kinds.
var (
	// ErrNotLinked means an operation requiring a linked EnergyModel was
	// attempted on an engine still in the Unlinked state.
	ErrNotLinked = errors.New("mc: engine not linked to an energy model")
	// ErrAllocationFailure means a heap acquisition failed during
	// LinkToEnergyModel or FindPairs.
	ErrAllocationFailure = errors.New("mc: allocation failure")
	// ErrNoMovableSite means every site has a single instance, so no
	// single move can be proposed.
	ErrNoMovableSite = errors.New("mc: no movable site")
)
