package rng

import "github.com/spaolacci/murmur3"

// SeedFromLabel derives a 32-bit seed from an arbitrary run label, so a
// caller can name a run ("apo-pH7-rep3") instead of tracking raw
// integers while keeping runs reproducible: the same label always maps
// to the same seed.
func SeedFromLabel(label string) uint32 {
	return murmur3.Sum32([]byte(label))
}
