package numeric

// Dense2D is a dense N×N matrix stored row-major. It backs the
// EnergyModel's raw `interactions` table, which the caller fills and
// which need not be symmetric until SymmetrizeInteractions runs.
type Dense2D struct {
	data []float64
	n    int
}

// NewDense2D allocates a zeroed n×n matrix.
func NewDense2D(n int) *Dense2D {
	return &Dense2D{data: make([]float64, n*n), n: n}
}

// Get returns the entry at (i,j).
func (d *Dense2D) Get(i, j int) float64 {
	return d.data[i*d.n+j]
}

// Set stores the entry at (i,j).
func (d *Dense2D) Set(i, j int, value float64) {
	d.data[i*d.n+j] = value
}

// N returns the matrix dimension.
func (d *Dense2D) N() int {
	return d.n
}

// IsSymmetric reports whether every (i,j) pair is within tolerance of
// its transpose, and returns the largest absolute deviation found.
// Deviation is defined as ½(W_ij+W_ji) − W_ij, matching
// EnergyModel.GetDeviation.
func (d *Dense2D) IsSymmetric(tolerance float64) (bool, float64) {
	var maxDeviation float64
	for i := 0; i < d.n; i++ {
		for j := 0; j < d.n; j++ {
			wij := d.Get(i, j)
			wji := d.Get(j, i)
			deviation := (wij+wji)*0.5 - wij
			abs := deviation
			if abs < 0 {
				abs = -abs
			}
			if abs > maxDeviation {
				maxDeviation = abs
			}
		}
	}
	return maxDeviation <= tolerance, maxDeviation
}
