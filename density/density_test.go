package density

import "os"
import "path/filepath"
import "testing"

import "github.com/neurlang/hypernetwork/uncertainty"

func TestPlot(t *testing.T) {
	in := uncertainty.Stats{Entropy: []float64{0.1, 0.2, 0.15, 0.3}, Variance: []float64{0.01, 0.02, 0.01, 0.03}}
	out := uncertainty.Stats{Entropy: []float64{1.9, 2.1, 2.2}, Variance: []float64{0.2, 0.1, 0.15}}
	prefix := filepath.Join(t.TempDir(), "figures")
	p := New()
	p.Bins = 5
	if err := p.Plot(in, out, 5, prefix, 3); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"entropy_3.png", "variance_3.png"} {
		st, err := os.Stat(filepath.Join(prefix, "ens5", name))
		if err != nil {
			t.Fatal(err)
		}
		if st.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
