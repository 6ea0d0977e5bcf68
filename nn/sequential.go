package nn

import "fmt"
import "io"
import "math/rand"

import "gonum.org/v1/gonum/mat"

// Sequential chains layers. Its Backward runs the chain rule in reverse starting
// from an externally supplied gradient on the output.
type Sequential struct {
	Name   string
	Layers []Layer
}

// NewMLP builds widths[0] → widths[1] → ... → widths[last] with ReLU between the
// dense layers and no activation after the last one.
func NewMLP(rng *rand.Rand, name string, widths []int, bias bool) *Sequential {
	s := &Sequential{Name: name}
	for i := 0; i+1 < len(widths); i++ {
		s.Layers = append(s.Layers, NewDense(rng, fmt.Sprintf("%s.%d", name, i), widths[i], widths[i+1], bias))
		if i+2 < len(widths) {
			s.Layers = append(s.Layers, &ReLU{})
		}
	}
	return s
}

// Forward runs every layer in order.
func (s *Sequential) Forward(x *mat.Dense) *mat.Dense {
	for _, l := range s.Layers {
		x = l.Forward(x)
	}
	return x
}

// Backward propagates grad from the output to the input of the chain.
func (s *Sequential) Backward(grad *mat.Dense) *mat.Dense {
	for i := len(s.Layers) - 1; i >= 0; i-- {
		grad = s.Layers[i].Backward(grad)
	}
	return grad
}

// Params collects the parameters of all layers in order.
func (s *Sequential) Params() (ps []Param) {
	for _, l := range s.Layers {
		ps = append(ps, l.Params()...)
	}
	return
}

// ZeroGrad clears every parameter gradient.
func (s *Sequential) ZeroGrad() {
	for _, p := range s.Params() {
		p.ZeroGrad()
	}
}

// Describe writes one line per layer.
func (s *Sequential) Describe(w io.Writer) {
	fmt.Fprintf(w, "%s:\n", s.Name)
	for _, l := range s.Layers {
		switch v := l.(type) {
		case *Dense:
			fmt.Fprintf(w, "  Linear(in=%d, out=%d, bias=%v)\n", v.In, v.Out, v.B != nil)
		case *ReLU:
			fmt.Fprintf(w, "  ReLU()\n")
		default:
			fmt.Fprintf(w, "  %T\n", l)
		}
	}
}
