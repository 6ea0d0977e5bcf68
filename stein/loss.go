package stein

import "math"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

// Softmax returns the row-wise softmax of logits.
func Softmax(logits *mat.Dense) *mat.Dense {
	r, c := logits.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		src := logits.RawRowView(i)
		dst := out.RawRowView(i)
		max := floats.Max(src)
		var sum float64
		for j, v := range src {
			dst[j] = math.Exp(v - max)
			sum += dst[j]
		}
		floats.Scale(1/sum, dst)
	}
	return out
}

// CrossEntropy returns the batch mean cross-entropy of logits (B×D) against integer
// targets, and its gradient with respect to the logits, (softmax − onehot)/B.
func CrossEntropy(logits *mat.Dense, targets []int) (float64, *mat.Dense, error) {
	r, c := logits.Dims()
	if r != len(targets) {
		return 0, nil, errors.Wrapf(ErrShape, "%d predictions for %d targets", r, len(targets))
	}
	grad := Softmax(logits)
	var loss float64
	for i, y := range targets {
		if y < 0 || y >= c {
			return 0, nil, errors.Wrapf(ErrShape, "target %d out of range [0, %d)", y, c)
		}
		row := logits.RawRowView(i)
		loss += floats.LogSumExp(row) - row[y]
		grad.Set(i, y, grad.At(i, y)-1)
	}
	b := float64(r)
	grad.Scale(1/b, grad)
	return loss / b, grad, nil
}
