package nn

import "fmt"
import "math"
import "math/rand"

import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

// Layer is one differentiable stage of a Sequential.
type Layer interface {

	// Forward maps a batch (rows are samples) and caches what Backward needs.
	Forward(x *mat.Dense) *mat.Dense

	// Backward receives dL/doutput of the last Forward, accumulates parameter
	// gradients and returns dL/dinput.
	Backward(grad *mat.Dense) *mat.Dense

	// Params lists trainable parameters (possibly none).
	Params() []Param
}

// Dense is a fully connected layer y = x·W + b.
type Dense struct {
	In, Out int

	W     *mat.Dense
	B     []float64
	GradW *mat.Dense
	GradB []float64

	name string
	x    *mat.Dense
}

// NewDense creates a dense layer with He-uniform initialized weights and zero bias.
// Bias is omitted when bias is false.
func NewDense(rng *rand.Rand, name string, in, out int, bias bool) *Dense {
	d := &Dense{
		In:    in,
		Out:   out,
		W:     mat.NewDense(in, out, nil),
		GradW: mat.NewDense(in, out, nil),
		name:  name,
	}
	limit := math.Sqrt(6 / float64(in))
	raw := d.W.RawMatrix().Data
	for i := range raw {
		raw[i] = (2*rng.Float64() - 1) * limit
	}
	if bias {
		d.B = make([]float64, out)
		d.GradB = make([]float64, out)
	}
	return d
}

// Forward computes x·W + b for every row of x.
func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	if c != d.In {
		panic(fmt.Sprintf("nn: dense %s expects %d inputs, got %d", d.name, d.In, c))
	}
	d.x = x
	out := mat.NewDense(r, d.Out, nil)
	out.Mul(x, d.W)
	if d.B != nil {
		for i := 0; i < r; i++ {
			floats.Add(out.RawRowView(i), d.B)
		}
	}
	return out
}

// Backward accumulates the weight and bias gradients and returns grad·Wᵀ.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	if d.x == nil {
		panic("nn: dense " + d.name + " backward before forward")
	}
	r, _ := grad.Dims()
	gw := mat.NewDense(d.In, d.Out, nil)
	gw.Mul(d.x.T(), grad)
	d.GradW.Add(d.GradW, gw)
	if d.GradB != nil {
		for i := 0; i < r; i++ {
			floats.Add(d.GradB, grad.RawRowView(i))
		}
	}
	gi := mat.NewDense(r, d.In, nil)
	gi.Mul(grad, d.W.T())
	return gi
}

// Params returns the weight, and the bias if present.
func (d *Dense) Params() []Param {
	ps := []Param{{
		Name:  d.name + ".weight",
		Value: d.W.RawMatrix().Data,
		Grad:  d.GradW.RawMatrix().Data,
	}}
	if d.B != nil {
		ps = append(ps, Param{
			Name:  d.name + ".bias",
			Value: d.B,
			Grad:  d.GradB,
		})
	}
	return ps
}

// ReLU is the rectifier max(0, x).
type ReLU struct {
	mask []bool
}

// Forward applies the rectifier and remembers which entries passed.
func (a *ReLU) Forward(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(x)
	raw := out.RawMatrix().Data
	a.mask = make([]bool, len(raw))
	for i, v := range raw {
		if v > 0 {
			a.mask[i] = true
		} else {
			raw[i] = 0
		}
	}
	return out
}

// Backward gates the upstream gradient with the forward mask.
func (a *ReLU) Backward(grad *mat.Dense) *mat.Dense {
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(grad)
	raw := out.RawMatrix().Data
	for i := range raw {
		if !a.mask[i] {
			raw[i] = 0
		}
	}
	return out
}

// Params returns nil, ReLU has no parameters.
func (a *ReLU) Params() []Param {
	return nil
}
