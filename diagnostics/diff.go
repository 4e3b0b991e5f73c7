package diagnostics

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffProbabilities renders a human-readable diff between two
// per-instance probability vectors, formatted to 6 decimal places one
// instance per line and compared with diffmatchpatch so a reviewer can
// see exactly which instances moved between two runs (e.g. comparing
// an MC production against the analytic result in the detailed-balance
// property).
func DiffProbabilities(before, after []float64) (string, error) {
	if len(before) != len(after) {
		return "", fmt.Errorf("diagnostics: diff probabilities: length mismatch %d vs %d", len(before), len(after))
	}

	beforeText := formatProbabilities(before)
	afterText := formatProbabilities(after)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(beforeText, afterText, false)
	return dmp.DiffPrettyText(diffs), nil
}

func formatProbabilities(values []float64) string {
	var b strings.Builder
	for i, v := range values {
		fmt.Fprintf(&b, "%d: %.6f\n", i, v)
	}
	return b.String()
}
