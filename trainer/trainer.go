package trainer

import "log"
import "math/rand"

import "github.com/google/uuid"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/hypernetwork/datasets"
import "github.com/neurlang/hypernetwork/density"
import "github.com/neurlang/hypernetwork/hypernet"
import "github.com/neurlang/hypernetwork/parallel"
import "github.com/neurlang/hypernetwork/registry"
import "github.com/neurlang/hypernetwork/stein"
import "github.com/neurlang/hypernetwork/target"
import "github.com/neurlang/hypernetwork/uncertainty"

// Uncertainty measures per example entropy and variance of an ensemble.
type Uncertainty interface {
	Evaluate(p uncertainty.Predictor, ensSize int, outlier bool) (entropy, variance []float64, err error)
}

// Plotter renders the in and out of distribution statistics of one epoch.
type Plotter interface {
	Plot(in, out uncertainty.Stats, ensSize int, prefix string, epoch int) error
}

// Option customizes a Trainer built by NewWithSources.
type Option func(*Trainer)

// WithUncertainty replaces the default uncertainty evaluator.
func WithUncertainty(u Uncertainty) Option {
	return func(t *Trainer) { t.uncertainty = u }
}

// WithPlotter replaces the default density plotter.
func WithPlotter(p Plotter) Option {
	return func(t *Trainer) { t.plotter = p }
}

// WithRunID fixes the run identifier instead of drawing a random one.
func WithRunID(id string) Option {
	return func(t *Trainer) { t.runID = id }
}

// ReadOnly never writes the checkpoint, for programs that only evaluate it.
func ReadOnly() Option {
	return func(t *Trainer) { t.readOnly = true }
}

// Result is one ensemble test.
type Result struct {
	Size     int
	Loss     float64
	Accuracy float64
	Correct  int
	Total    int
	Improved bool
}

// Trainer owns the generator, the estimator, the data and the best metrics.
type Trainer struct {
	h     *HyperParameters
	l     *log.Logger
	rng   *rand.Rand
	runID string

	arch target.Architecture
	gen  *hypernet.Generator
	est  *stein.Estimator
	vote VoteMode

	train datasets.Source
	test  datasets.Source

	best BestMetrics

	uncertainty Uncertainty
	plotter     Plotter
	readOnly    bool
}

// New loads the configured dataset and architecture from the registry.
func New(h *HyperParameters, opts ...Option) (*Trainer, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	train, test, err := registry.Dataset(h.Dataset, h.BatchSize, h.Seed)
	if err != nil {
		return nil, err
	}
	arch, err := registry.Architecture(h.Target, train.Features(), train.Classes(), target.Options{
		Bias:               h.UseBias,
		BatchNorm:          h.UseBN,
		ClearBatchNormBias: h.ClearBNBias,
	})
	if err != nil {
		return nil, err
	}
	return NewWithSources(h, arch, train, test, opts...)
}

// NewWithSources builds a trainer over an explicit architecture and data. Dataset and
// Target names of h are not consulted.
func NewWithSources(h *HyperParameters, arch target.Architecture, train, test datasets.Source, opts ...Option) (*Trainer, error) {
	mode, err := stein.ParseMode(h.Grad)
	if err != nil {
		return nil, err
	}
	vote, err := ParseVoteMode(h.Vote)
	if err != nil {
		return nil, err
	}
	if train.Features() != arch.Inputs() || test.Features() != arch.Inputs() {
		return nil, errors.Wrapf(target.ErrLayout, "data has %d/%d features, %s takes %d",
			train.Features(), test.Features(), arch.Name(), arch.Inputs())
	}
	if h.Threads > 0 {
		parallel.SetThreads(h.Threads)
	}
	t := &Trainer{
		h:     h,
		l:     h.Logger(),
		rng:   rand.New(rand.NewSource(h.Seed)),
		arch:  arch,
		vote:  vote,
		train: train,
		test:  test,
		best:  NewBestMetrics(),
	}
	t.gen, err = hypernet.New(hypernet.Config{
		ZDim:      h.ZDim,
		SDim:      h.SDim,
		Hidden:    h.Hidden(),
		Particles: h.Particles,
		UseMixer:  h.UseMixer,
		UseBias:   h.UseBias,
		Noise:     h.Noise,
	}, arch, t.rng)
	if err != nil {
		return nil, err
	}
	t.gen.AttachOptimizers(h.LrMixer, h.LrGenerator)
	t.est, err = stein.New(stein.Options{
		Particles:    h.Particles,
		Alpha:        h.Alpha,
		Mode:         mode,
		MinBandwidth: h.MinBandwidth,
	}, arch)
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		o(t)
	}
	if t.runID == "" {
		t.runID = uuid.New().String()
	}
	if t.uncertainty == nil && h.TestUncertainty {
		n := test.Len()
		if n > 1000 {
			n = 1000
		}
		// separate stream, the training draws stay identical with or without the pass
		noise, err := datasets.Noise(test, n, -1, 1, rand.New(rand.NewSource(h.Seed+1)))
		if err != nil {
			return nil, err
		}
		t.uncertainty = &uncertainty.Evaluator{In: test, Out: noise}
	}
	if t.plotter == nil {
		t.plotter = density.New()
	}
	if err := Resume(t.gen, h.Resume, h.Checkpoint); err != nil {
		return nil, err
	}
	return t, nil
}

// Generator returns the trained generator.
func (t *Trainer) Generator() *hypernet.Generator {
	return t.gen
}

// Best returns the best metrics so far.
func (t *Trainer) Best() BestMetrics {
	return t.best
}

// RunID identifies the run in the log and the figure directory.
func (t *Trainer) RunID() string {
	return t.runID
}

// Prefix is the figure directory of this run.
func (t *Trainer) Prefix() string {
	return t.h.Prefix(t.runID)
}

// Step trains on one batch and returns the mean particle loss.
func (t *Trainer) Step(b datasets.Batch) (float64, error) {
	e, err := t.gen.Generate(t.gen.SampleLatents())
	if err != nil {
		return 0, err
	}
	if err := t.gen.Install(e); err != nil {
		return 0, err
	}
	preds, err := t.gen.Forward(b.X)
	if err != nil {
		return 0, err
	}
	losses, err := t.est.ComputeGradients(preds, e, b.Y)
	if err != nil {
		return 0, err
	}
	t.gen.ZeroGrad()
	if err := t.est.ApplyGradients(); err != nil {
		return 0, err
	}
	if err := t.gen.Step(); err != nil {
		return 0, err
	}
	return stat.Mean(losses, nil), nil
}

// Train runs the configured number of epochs. It stops at the first failing step.
func (t *Trainer) Train() error {
	t.l.Printf("[Run %s] %s on %s, %d particles, %s gradients", t.runID, t.arch.Name(), t.h.Dataset, t.h.Particles, t.est.Mode())
	t.gen.Train()
	for epoch := 0; epoch < t.h.Epochs; epoch++ {
		for batch, b := range t.train.Batches(t.rng) {
			loss, err := t.Step(b)
			if err != nil {
				return errors.Wrapf(err, "epoch %d batch %d", epoch+1, batch)
			}
			if batch%t.h.LogEvery == 0 {
				t.l.Printf("[Train] %s epoch %d batch %d loss %f best acc %f best loss %f",
					t.h.Dataset, epoch+1, batch, loss, t.best.Acc, t.best.Loss)
			}
		}
		t.l.Printf("%x", t.gen.Fingerprint())
		if _, err := t.EvaluateAsEnsemble(t.EnsembleSizes(), epoch); err != nil {
			return err
		}
		if t.h.TestUncertainty {
			if err := t.Uncertainty(epoch + 1); err != nil {
				return err
			}
		}
	}
	return nil
}

func filterSizes(sizes []int, n int) (out []int) {
	seen := make(map[int]bool)
	for _, s := range sizes {
		if s <= n && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// EnsembleSizes returns the sizes tested after every epoch.
func (t *Trainer) EnsembleSizes() []int {
	if !t.h.TestEnsemble {
		return []int{t.h.Particles}
	}
	return filterSizes([]int{1, 5, 10, t.h.Particles}, t.h.Particles)
}

// UncertaintySizes returns the ensemble sizes of the uncertainty pass.
func (t *Trainer) UncertaintySizes() []int {
	return filterSizes([]int{5, 10, t.h.Particles}, t.h.Particles)
}

// EvaluateAsEnsemble tests every size and logs the results.
func (t *Trainer) EvaluateAsEnsemble(sizes []int, epoch int) ([]Result, error) {
	var results []Result
	for _, n := range sizes {
		r, err := t.Test(n)
		if err != nil {
			return nil, errors.Wrapf(err, "testing ensemble of %d", n)
		}
		t.l.Printf("[Test Epoch %d]", epoch+1)
		t.l.Printf("[Ensemble Size: %d] Loss: %f, Accuracy: %f, (%d/%d)", n, r.Loss, r.Accuracy, r.Correct, r.Total)
		results = append(results, r)
	}
	return results, nil
}

// Test evaluates the first n members on the whole test set in eval mode. A new
// best loss or accuracy is recorded and checkpointed when a checkpoint is configured.
func (t *Trainer) Test(n int) (Result, error) {
	if n <= 0 || n > t.h.Particles {
		return Result{}, errors.Errorf("ensemble size %d out of range [1, %d]", n, t.h.Particles)
	}
	t.gen.Eval()
	defer t.gen.Train()
	var r = Result{Size: n, Total: t.test.Len()}
	var total float64
	for _, b := range t.test.Batches(nil) {
		preds, err := t.gen.Predict(b.X)
		if err != nil {
			return Result{}, err
		}
		preds = preds[:n]
		var batchLoss float64
		for _, p := range preds {
			l, _, err := stein.CrossEntropy(p, b.Y)
			if err != nil {
				return Result{}, err
			}
			batchLoss += l
		}
		batchLoss /= float64(n)
		if t.h.LegacyLossNormalization {
			total += batchLoss
		} else {
			total += batchLoss * float64(b.Len())
		}
		votes, err := Vote(preds, n, t.vote)
		if err != nil {
			return Result{}, err
		}
		for i, v := range votes {
			if v == b.Y[i] {
				r.Correct++
			}
		}
	}
	r.Loss = total / float64(r.Total)
	r.Accuracy = float64(r.Correct) / float64(r.Total)
	if t.best.Update(r.Loss, r.Accuracy) {
		r.Improved = true
		t.l.Println("==> new best stats, saving")
		if t.h.Checkpoint != "" && !t.readOnly {
			if err := t.gen.WriteCompressedWeightsToFile(t.h.Checkpoint); err != nil {
				return Result{}, errors.Wrap(err, "checkpoint")
			}
		}
	}
	return r, nil
}

// Uncertainty measures in and out of distribution statistics for every
// uncertainty size and hands them to the plotter.
func (t *Trainer) Uncertainty(epoch int) error {
	if t.uncertainty == nil {
		return errors.New("no uncertainty evaluator")
	}
	t.gen.Eval()
	defer t.gen.Train()
	for _, n := range t.UncertaintySizes() {
		var in, out uncertainty.Stats
		var err error
		in.Entropy, in.Variance, err = t.uncertainty.Evaluate(t.gen, n, false)
		if err != nil {
			return err
		}
		out.Entropy, out.Variance, err = t.uncertainty.Evaluate(t.gen, n, true)
		if err != nil {
			return err
		}
		si, so := uncertainty.Summary(in), uncertainty.Summary(out)
		t.l.Printf("[Uncertainty Size: %d] entropy in %f out %f, variance in %f out %f",
			n, si.MeanEntropy, so.MeanEntropy, si.MeanVariance, so.MeanVariance)
		if err := t.plotter.Plot(in, out, n, t.Prefix(), epoch); err != nil {
			return err
		}
	}
	return nil
}
