package stein

import "math"
import "math/rand"
import "testing"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/diff/fd"
import "gonum.org/v1/gonum/mat"

// fixedModel returns the same particle gradient whatever the logit gradients are.
type fixedModel struct {
	grad *mat.Dense
	seen []*mat.Dense
}

func (m *fixedModel) Backward(grad []*mat.Dense) (*mat.Dense, error) {
	m.seen = grad
	return mat.DenseCopyOf(m.grad), nil
}

type fakeParticles struct {
	theta    *mat.Dense
	received *mat.Dense
}

func (p *fakeParticles) Len() int {
	n, _ := p.theta.Dims()
	return n
}

func (p *fakeParticles) Matrix() *mat.Dense { return p.theta }

func (p *fakeParticles) Backward(grad *mat.Dense) error {
	p.received = mat.DenseCopyOf(grad)
	return nil
}

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := range m.RawMatrix().Data {
		m.RawMatrix().Data[i] = rng.NormFloat64()
	}
	return m
}

func predictions(rng *rand.Rand, n, b, d int) []*mat.Dense {
	out := make([]*mat.Dense, n)
	for i := range out {
		out[i] = randomDense(rng, b, d)
	}
	return out
}

func TestCrossEntropyGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	logits := randomDense(rng, 4, 3)
	targets := []int{0, 2, 1, 2}
	_, grad, err := CrossEntropy(logits, targets)
	if err != nil {
		t.Fatal(err)
	}
	numeric := fd.Gradient(nil, func(v []float64) float64 {
		l, _, _ := CrossEntropy(mat.NewDense(4, 3, append([]float64(nil), v...)), targets)
		return l
	}, append([]float64(nil), logits.RawMatrix().Data...), &fd.Settings{Formula: fd.Central})
	for i, v := range grad.RawMatrix().Data {
		if math.Abs(v-numeric[i]) > 1e-6 {
			t.Errorf("logit %d: analytic %g numeric %g", i, v, numeric[i])
		}
	}
	// large logits stay finite
	big := mat.NewDense(1, 2, []float64{1000, -1000})
	l, g, _ := CrossEntropy(big, []int{1})
	if math.IsInf(l, 0) || math.IsNaN(l) || !finite(g.RawMatrix().Data) {
		t.Errorf("unstable cross-entropy: %g", l)
	}
	if _, _, err := CrossEntropy(logits, []int{0}); errors.Cause(err) != ErrShape {
		t.Errorf("expected shape error, got %v", err)
	}
	if _, _, err := CrossEntropy(logits, []int{0, 1, 2, 3}); errors.Cause(err) != ErrShape {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestNaiveEqualsOwnGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dataGrad := randomDense(rng, 3, 5)
	model := &fixedModel{grad: dataGrad}
	est, err := New(Options{Particles: 3, Alpha: 1, Mode: Naive}, model)
	if err != nil {
		t.Fatal(err)
	}
	particles := &fakeParticles{theta: randomDense(rng, 3, 5)}
	losses, err := est.ComputeGradients(predictions(rng, 3, 4, 2), particles, []int{0, 1, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(losses) != 3 {
		t.Errorf("expected 3 losses, got %d", len(losses))
	}
	if !mat.Equal(est.Gradients(), dataGrad) {
		t.Errorf("naive gradient differs from the data-loss gradient")
	}
	if err := est.ApplyGradients(); err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(particles.received, dataGrad) {
		t.Errorf("particles received a different gradient")
	}
	if est.Gradients() != nil {
		t.Errorf("buffer not released")
	}
	if err := est.ApplyGradients(); err == nil {
		t.Errorf("second ApplyGradients succeeded")
	}

	est2, _ := New(Options{Particles: 3, Alpha: 0.5, Mode: Naive}, model)
	est2.ComputeGradients(predictions(rng, 3, 4, 2), particles, []int{0, 1, 1, 0})
	want := mat.NewDense(3, 5, nil)
	want.Scale(0.5, dataGrad)
	if !mat.EqualApprox(est2.Gradients(), want, 1e-15) {
		t.Errorf("alpha not applied")
	}
}

func TestIdenticalParticles(t *testing.T) {
	row := []float64{0.1, -0.3, 2.5, 7}
	theta := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		theta.SetRow(i, row)
	}
	k, repulsion, h2, err := Kernel(theta, 0)
	if err != nil {
		t.Fatal(err)
	}
	if h2 <= 0 || math.IsNaN(h2) {
		t.Errorf("degenerate bandwidth %g", h2)
	}
	for _, v := range k.RawMatrix().Data {
		if v != 1 {
			t.Errorf("kernel of identical particles should be 1, got %g", v)
		}
	}
	for _, v := range repulsion.RawMatrix().Data {
		if v != 0 {
			t.Errorf("identical particles exert repulsion %g", v)
		}
	}

	// with identical data gradients the corrected gradient is the plain gradient
	rng := rand.New(rand.NewSource(3))
	g := randomDense(rng, 1, 4)
	dataGrad := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		dataGrad.SetRow(i, g.RawRowView(0))
	}
	est, _ := New(Options{Particles: 4, Alpha: 1, Mode: SVGD}, &fixedModel{grad: dataGrad})
	if _, err := est.ComputeGradients(predictions(rng, 4, 2, 3), &fakeParticles{theta: theta}, []int{0, 2}); err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(est.Gradients(), dataGrad, 1e-12) {
		t.Errorf("identical particles changed the gradient")
	}
}

func TestSingleParticle(t *testing.T) {
	theta := mat.NewDense(1, 3, []float64{1, 2, 3})
	k, repulsion, _, err := Kernel(theta, 0)
	if err != nil {
		t.Fatal(err)
	}
	if k.At(0, 0) != 1 || mat.Sum(repulsion) != 0 {
		t.Errorf("single particle kernel %v repulsion %v", k.RawMatrix().Data, repulsion.RawMatrix().Data)
	}
}

func TestMedianBandwidth(t *testing.T) {
	theta := mat.NewDense(2, 2, []float64{0, 0, 3, 4})
	k, repulsion, h2, err := Kernel(theta, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := 25 / (2 * math.Log(3))
	if math.Abs(h2-want) > 1e-12 {
		t.Errorf("bandwidth %g, want %g", h2, want)
	}
	kij := math.Exp(-25 / (2 * want))
	if math.Abs(k.At(0, 1)-kij) > 1e-12 || k.At(0, 1) != k.At(1, 0) {
		t.Errorf("kernel %v", k.RawMatrix().Data)
	}
	// particle 0 is repelled towards -(3,4), particle 1 towards +(3,4)
	if math.Abs(repulsion.At(0, 0)+3*kij/h2) > 1e-12 || math.Abs(repulsion.At(1, 1)-4*kij/h2) > 1e-12 {
		t.Errorf("repulsion %v", repulsion.RawMatrix().Data)
	}
}

func TestSVGDPushesParticlesApart(t *testing.T) {
	theta := mat.NewDense(2, 2, []float64{0, 0, 1, 0})
	est, _ := New(Options{Particles: 2, Alpha: 1, Mode: SVGD}, &fixedModel{grad: mat.NewDense(2, 2, nil)})
	rng := rand.New(rand.NewSource(4))
	if _, err := est.ComputeGradients(predictions(rng, 2, 3, 2), &fakeParticles{theta: theta}, []int{0, 1, 1}); err != nil {
		t.Fatal(err)
	}
	g := est.Gradients()
	// a descent step θ -= lr·g must increase the distance between the particles
	if g.At(0, 0) <= 0 || g.At(1, 0) >= 0 {
		t.Errorf("repulsion has the wrong sign: %v", g.RawMatrix().Data)
	}
	if est.KernelMatrix() == nil {
		t.Errorf("kernel not kept")
	}
}

func TestSVGDFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	theta := randomDense(rng, 3, 4)
	dataGrad := randomDense(rng, 3, 4)
	est, _ := New(Options{Particles: 3, Alpha: 2, Mode: SVGD}, &fixedModel{grad: dataGrad})
	if _, err := est.ComputeGradients(predictions(rng, 3, 2, 2), &fakeParticles{theta: theta}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	k, repulsion, _, _ := Kernel(theta, 0)
	for i := 0; i < 3; i++ {
		for c := 0; c < 4; c++ {
			var want float64
			for j := 0; j < 3; j++ {
				want += 2 * k.At(i, j) * dataGrad.At(j, c)
			}
			want = (want - repulsion.At(i, c)) / 3
			if math.Abs(want-est.Gradients().At(i, c)) > 1e-12 {
				t.Errorf("g[%d][%d] = %g, want %g", i, c, est.Gradients().At(i, c), want)
			}
		}
	}
}

func TestEstimatorErrors(t *testing.T) {
	if _, err := New(Options{Particles: 0, Mode: SVGD}, nil); err != ErrNoParticles {
		t.Errorf("expected no particles, got %v", err)
	}
	if _, err := New(Options{Particles: 1, Mode: "adam"}, nil); err == nil {
		t.Errorf("unknown mode accepted")
	}
	if _, err := ParseMode("svgd"); err != nil {
		t.Errorf("svgd rejected: %v", err)
	}
	rng := rand.New(rand.NewSource(6))
	est, _ := New(Options{Particles: 2, Alpha: 1, Mode: SVGD}, &fixedModel{grad: randomDense(rng, 2, 3)})
	particles := &fakeParticles{theta: randomDense(rng, 2, 3)}
	if _, err := est.ComputeGradients(nil, particles, nil); err != ErrNoParticles {
		t.Errorf("expected no particles, got %v", err)
	}
	if _, err := est.ComputeGradients(predictions(rng, 3, 2, 2), particles, []int{0, 1}); errors.Cause(err) != ErrShape {
		t.Errorf("expected shape error, got %v", err)
	}
	if _, err := est.ComputeGradients(predictions(rng, 2, 2, 2), particles, []int{0}); errors.Cause(err) != ErrShape {
		t.Errorf("expected shape error, got %v", err)
	}
	if err := est.ApplyGradients(); err == nil {
		t.Errorf("ApplyGradients without ComputeGradients succeeded")
	}
}
