package diagnostics

import (
	"github.com/davecgh/go-spew/spew"
)

// modelSnapshot is the subset of a model's state worth dumping when
// debugging a probability mismatch: nothing here is part of any
// control-flow decision.
type modelSnapshot struct {
	NInstances int
	Gintr      []float64
	Protons    []int
}

// Dump returns a verbose, field-by-field rendering of model's intrinsic
// tables, for pasting into a bug report when a run's probabilities look
// wrong. It never appears on the per-move hot path.
func Dump(model interface {
	NInstances() int
	GetGintr(int) (float64, error)
	GetProtons(int) (int, error)
}) (string, error) {
	n := model.NInstances()
	snapshot := modelSnapshot{NInstances: n, Gintr: make([]float64, n), Protons: make([]int, n)}
	for i := 0; i < n; i++ {
		g, err := model.GetGintr(i)
		if err != nil {
			return "", err
		}
		p, err := model.GetProtons(i)
		if err != nil {
			return "", err
		}
		snapshot.Gintr[i] = g
		snapshot.Protons[i] = p
	}
	return spew.Sdump(snapshot), nil
}
