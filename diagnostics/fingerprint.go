// Package diagnostics provides read-only introspection that never
// participates in the MC move loop: a content fingerprint of a model's
// energy tables, a probability-vector diff for regression comparisons,
// and a one-line CPU capability summary.
package diagnostics

import (
	"encoding/binary"
	"fmt"
	"math"

	"lukechampine.com/blake3"

	"github.com/efliks/pcetk/energy"
)

// Fingerprint returns a BLAKE3 digest (hex-encoded) of model's energy
// tables: intrinsic energies, proton counts, and the symmetrized
// interaction matrix. Two models with identical tables hash identically
// regardless of the order their setters were called in. Intended for a
// single log line at the start of an MC run, not for any control-flow
// decision.
func Fingerprint(model *energy.Model) (string, error) {
	hasher := blake3.New(32, nil)

	n := model.NInstances()
	var buf [8]byte
	for i := 0; i < n; i++ {
		protons, err := model.GetProtons(i)
		if err != nil {
			return "", err
		}
		gintr, err := model.GetGintr(i)
		if err != nil {
			return "", err
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(protons))
		hasher.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(gintr))
		hasher.Write(buf[:])
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			w, err := model.GetInterSymmetric(i, j)
			if err != nil {
				return "", err
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
			hasher.Write(buf[:])
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
