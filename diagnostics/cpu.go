package diagnostics

import (
	"fmt"

	"github.com/klauspost/cpuid"
)

// CPUSummary returns a one-line description of the host CPU, so a slow
// MC run's scan throughput can be related back to the hardware it ran
// on. It only returns the string; nothing in the module logs it.
func CPUSummary() string {
	return fmt.Sprintf("%s (%d logical cores, AVX2=%v, FMA3=%v)",
		cpuid.CPU.BrandName,
		cpuid.CPU.LogicalCores,
		cpuid.CPU.AVX2,
		cpuid.CPU.FMA3,
	)
}
