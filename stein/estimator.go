package stein

import "errors"

import perrors "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// ErrNoParticles reports an empty ensemble.
var ErrNoParticles = errors.New("stein: no particles")

// ErrShape reports predictions, targets or particles of inconsistent shapes.
var ErrShape = errors.New("stein: shape mismatch")

// ErrNonFinite reports a NaN or Inf in the kernel or the corrected gradient.
var ErrNonFinite = errors.New("stein: non-finite value")

// Mode selects the gradient estimator.
type Mode string

const (
	// SVGD couples the particles through the kernel.
	SVGD Mode = "svgd"
	// Naive lets every particle follow its own data-loss gradient.
	Naive Mode = "naive"
)

// ParseMode validates an estimator name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case SVGD, Naive:
		return Mode(s), nil
	}
	return "", perrors.Errorf("stein: unsupported gradient estimator %q (want svgd or naive)", s)
}

// Particles is an ensemble produced by a differentiable generator.
type Particles interface {
	Len() int

	// Matrix returns the N×P parameter vectors.
	Matrix() *mat.Dense

	// Backward pushes dL/dparticles into the generator.
	Backward(grad *mat.Dense) error
}

// Model maps logit gradients of the last forward pass to particle gradients.
type Model interface {
	Backward(grad []*mat.Dense) (*mat.Dense, error)
}

// Options configure an Estimator.
type Options struct {
	Particles    int
	Alpha        float64 // weight of the data-loss term
	Mode         Mode
	MinBandwidth float64
}

// Estimator holds the corrected gradient between ComputeGradients and ApplyGradients.
type Estimator struct {
	opts  Options
	model Model

	particles Particles
	grad      *mat.Dense
	kernel    *mat.Dense
}

// New creates an estimator computing data-loss gradients through model.
func New(opts Options, model Model) (*Estimator, error) {
	if opts.Particles <= 0 {
		return nil, ErrNoParticles
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.MinBandwidth <= 0 {
		opts.MinBandwidth = DefaultMinBandwidth
	}
	return &Estimator{opts: opts, model: model}, nil
}

// Mode returns the estimator mode.
func (e *Estimator) Mode() Mode {
	return e.opts.Mode
}

// ComputeGradients evaluates the cross-entropy of every particle's predictions (N of B×D)
// against targets, derives the data-loss gradient of each particle and stores the
// corrected gradient. The returned per-particle losses are for logging only; in svgd
// mode the update is driven by the corrected gradient.
func (e *Estimator) ComputeGradients(preds []*mat.Dense, particles Particles, targets []int) ([]float64, error) {
	n := len(preds)
	if n == 0 || particles == nil || particles.Len() == 0 {
		return nil, ErrNoParticles
	}
	if n != particles.Len() || n != e.opts.Particles {
		return nil, perrors.Wrapf(ErrShape, "%d predictions, %d particles, %d configured", n, particles.Len(), e.opts.Particles)
	}
	losses := make([]float64, n)
	logitGrads := make([]*mat.Dense, n)
	for i, p := range preds {
		loss, g, err := CrossEntropy(p, targets)
		if err != nil {
			return nil, perrors.Wrapf(err, "particle %d", i)
		}
		losses[i], logitGrads[i] = loss, g
	}
	dataGrad, err := e.model.Backward(logitGrads)
	if err != nil {
		return nil, perrors.Wrap(err, "stein: data-loss gradient")
	}
	theta := particles.Matrix()
	if r, c := dataGrad.Dims(); r != n || c != theta.RawMatrix().Cols {
		return nil, perrors.Wrapf(ErrShape, "data-loss gradient is %dx%d", r, c)
	}

	var grad *mat.Dense
	switch e.opts.Mode {
	case Naive:
		grad = mat.NewDense(n, theta.RawMatrix().Cols, nil)
		grad.Scale(e.opts.Alpha, dataGrad)
		e.kernel = nil
	default:
		k, repulsion, _, err := Kernel(theta, e.opts.MinBandwidth)
		if err != nil {
			return nil, err
		}
		grad = mat.NewDense(n, theta.RawMatrix().Cols, nil)
		grad.Mul(k, dataGrad)
		grad.Scale(e.opts.Alpha, grad)
		grad.Sub(grad, repulsion)
		grad.Scale(1/float64(n), grad)
		e.kernel = k
	}
	if !finite(grad.RawMatrix().Data) {
		return nil, perrors.Wrap(ErrNonFinite, "corrected gradient")
	}
	e.particles = particles
	e.grad = grad
	return losses, nil
}

// Gradients returns the corrected gradient computed by the last ComputeGradients.
func (e *Estimator) Gradients() *mat.Dense {
	return e.grad
}

// KernelMatrix returns the kernel of the last svgd step, nil in naive mode.
func (e *Estimator) KernelMatrix() *mat.Dense {
	return e.kernel
}

// ApplyGradients backpropagates the corrected gradient through the generator and
// releases the buffer.
func (e *Estimator) ApplyGradients() error {
	if e.grad == nil || e.particles == nil {
		return errors.New("stein: ApplyGradients without ComputeGradients")
	}
	err := e.particles.Backward(e.grad)
	e.grad, e.particles = nil, nil
	return err
}
