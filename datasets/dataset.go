// Package datasets implements the data sources the hypernetwork trainer consumes.
package datasets

import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// Batch is one mini-batch: X is B×Features, Y holds B class labels.
type Batch struct {
	X *mat.Dense
	Y []int
}

// Len returns the batch size.
func (b Batch) Len() int {
	return len(b.Y)
}

// Source supplies mini-batches of one split.
type Source interface {

	// Len is the number of examples in the split.
	Len() int

	// Features is the input width.
	Features() int

	// Classes is the number of labels.
	Classes() int

	// Batches returns the split cut into mini-batches. With a non-nil rng the
	// order is shuffled first.
	Batches(rng *rand.Rand) []Batch
}

// Split is an in-memory Source.
type Split struct {
	X         [][]float64
	Y         []int
	BatchSize int
	NClasses  int
	Shuffle   bool
}

// NewSplit validates the examples and wraps them in a Split.
func NewSplit(x [][]float64, y []int, classes, batchSize int, shuffle bool) (*Split, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("datasets: %d inputs for %d labels", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("datasets: empty split")
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("datasets: batch size must be positive, got %d", batchSize)
	}
	for i := range x {
		if len(x[i]) != len(x[0]) {
			return nil, errors.Errorf("datasets: example %d has %d features, want %d", i, len(x[i]), len(x[0]))
		}
		if y[i] < 0 || y[i] >= classes {
			return nil, errors.Errorf("datasets: label %d of example %d out of range [0, %d)", y[i], i, classes)
		}
	}
	return &Split{X: x, Y: y, BatchSize: batchSize, NClasses: classes, Shuffle: shuffle}, nil
}

// Len returns the number of examples.
func (s *Split) Len() int {
	return len(s.Y)
}

// Features returns the input width.
func (s *Split) Features() int {
	if len(s.X) == 0 {
		return 0
	}
	return len(s.X[0])
}

// Classes returns the number of labels.
func (s *Split) Classes() int {
	return s.NClasses
}

// Batches cuts the split into batches of BatchSize; the last one may be smaller.
// The split is shuffled when Shuffle is set and rng is not nil.
func (s *Split) Batches(rng *rand.Rand) []Batch {
	order := make([]int, s.Len())
	for i := range order {
		order[i] = i
	}
	if s.Shuffle && rng != nil {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	var batches []Batch
	f := s.Features()
	for start := 0; start < len(order); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(order) {
			end = len(order)
		}
		x := mat.NewDense(end-start, f, nil)
		y := make([]int, end-start)
		for k, idx := range order[start:end] {
			copy(x.RawRowView(k), s.X[idx])
			y[k] = s.Y[idx]
		}
		batches = append(batches, Batch{X: x, Y: y})
	}
	return batches
}

// Noise builds n uniform noise examples in [lo, hi) with the shape of like. It
// serves as out-of-distribution input; labels are all zero.
func Noise(like Source, n int, lo, hi float64, rng *rand.Rand) (*Split, error) {
	x := make([][]float64, n)
	for i := range x {
		x[i] = make([]float64, like.Features())
		for j := range x[i] {
			x[i][j] = lo + (hi-lo)*rng.Float64()
		}
	}
	return NewSplit(x, make([]int, n), like.Classes(), 100, false)
}
