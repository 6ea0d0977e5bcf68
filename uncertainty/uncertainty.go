// Package uncertainty measures how much an ensemble disagrees on in and out
// of distribution inputs.
package uncertainty

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"
import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/hypernetwork/datasets"
import "github.com/neurlang/hypernetwork/stein"

// Predictor returns one B×Classes logit matrix per ensemble member.
type Predictor interface {
	Predict(x *mat.Dense) ([]*mat.Dense, error)
}

// Stats holds one entropy and one variance value per evaluated example.
type Stats struct {
	Entropy  []float64
	Variance []float64
}

// Evaluator runs a Predictor over an in distribution source and an outlier source.
type Evaluator struct {
	In  datasets.Source
	Out datasets.Source
}

// Evaluate returns the predictive entropy of the mean member distribution and
// the class averaged variance across members, per example, using the first
// ensSize members. With outlier set the Out source is used.
func (e *Evaluator) Evaluate(p Predictor, ensSize int, outlier bool) (entropy, variance []float64, err error) {
	var src = e.In
	if outlier {
		src = e.Out
	}
	if src == nil {
		return nil, nil, errors.Errorf("uncertainty: no source (outlier %v)", outlier)
	}
	if ensSize <= 0 {
		return nil, nil, errors.Errorf("uncertainty: ensemble size %d", ensSize)
	}
	for _, b := range src.Batches(nil) {
		preds, err := p.Predict(b.X)
		if err != nil {
			return nil, nil, errors.Wrap(err, "uncertainty predict")
		}
		if len(preds) < ensSize {
			return nil, nil, errors.Errorf("uncertainty: ensemble size %d exceeds %d members", ensSize, len(preds))
		}
		probs := make([]*mat.Dense, ensSize)
		for m := range probs {
			probs[m] = stein.Softmax(preds[m])
		}
		ent, v := Measure(probs)
		entropy = append(entropy, ent...)
		variance = append(variance, v...)
	}
	return entropy, variance, nil
}

// Measure computes per example statistics from member probability matrices.
func Measure(probs []*mat.Dense) (entropy, variance []float64) {
	rows, classes := probs[0].Dims()
	entropy = make([]float64, rows)
	variance = make([]float64, rows)
	mean := make([]float64, classes)
	member := make([]float64, len(probs))
	for i := 0; i < rows; i++ {
		var v float64
		for c := 0; c < classes; c++ {
			for m := range probs {
				member[m] = probs[m].At(i, c)
			}
			mean[c] = stat.Mean(member, nil)
			v += stat.PopVariance(member, nil)
		}
		entropy[i] = stat.Entropy(mean)
		variance[i] = v / float64(classes)
	}
	return entropy, variance
}

// Measurement is a Stats summary.
type Measurement struct {
	MeanEntropy  float64
	MeanVariance float64
	Count        int
}

// Summary averages the per example statistics.
func Summary(s Stats) Measurement {
	if len(s.Entropy) == 0 {
		return Measurement{}
	}
	return Measurement{
		MeanEntropy:  stat.Mean(s.Entropy, nil),
		MeanVariance: stat.Mean(s.Variance, nil),
		Count:        len(s.Entropy),
	}
}
