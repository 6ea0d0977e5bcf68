package nn

// Param is a named view of trainable values and their accumulated gradient.
// Value and Grad alias the owning layer's storage.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Len returns the number of scalars in the parameter.
func (p Param) Len() int {
	return len(p.Value)
}

// ZeroGrad clears the accumulated gradient.
func (p Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// CountParams sums the sizes of params.
func CountParams(params []Param) (n int) {
	for _, p := range params {
		n += p.Len()
	}
	return
}
