package datasets

import "math/rand"
import "testing"

func toy(n int) ([][]float64, []int) {
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		x[i] = []float64{float64(i), float64(-i)}
		y[i] = i % 3
	}
	return x, y
}

func TestBatches(t *testing.T) {
	x, y := toy(10)
	s, err := NewSplit(x, y, 3, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	b := s.Batches(nil)
	if len(b) != 3 || b[0].Len() != 4 || b[2].Len() != 2 {
		t.Fatalf("unexpected batches: %d", len(b))
	}
	if b[1].X.At(0, 0) != 4 || b[1].Y[0] != 1 {
		t.Errorf("order not preserved")
	}
	if s.Features() != 2 || s.Classes() != 3 || s.Len() != 10 {
		t.Errorf("bad split metadata")
	}
}

func TestShuffleIsSeeded(t *testing.T) {
	x, y := toy(50)
	s, _ := NewSplit(x, y, 3, 50, true)
	a := s.Batches(rand.New(rand.NewSource(1)))[0]
	b := s.Batches(rand.New(rand.NewSource(1)))[0]
	var moved bool
	for i := range a.Y {
		if a.X.At(i, 0) != b.X.At(i, 0) {
			t.Fatalf("same seed shuffled differently")
		}
		if a.X.At(i, 0) != float64(i) {
			moved = true
		}
		if a.Y[i] != int(a.X.At(i, 0))%3 {
			t.Errorf("label detached from its example")
		}
	}
	if !moved {
		t.Errorf("split was not shuffled")
	}
}

func TestNewSplitErrors(t *testing.T) {
	x, y := toy(4)
	if _, err := NewSplit(x, y[:3], 3, 2, false); err == nil {
		t.Errorf("length mismatch accepted")
	}
	if _, err := NewSplit(x, y, 2, 2, false); err == nil {
		t.Errorf("label out of range accepted")
	}
	if _, err := NewSplit(nil, nil, 2, 2, false); err == nil {
		t.Errorf("empty split accepted")
	}
	if _, err := NewSplit(x, y, 3, 0, false); err == nil {
		t.Errorf("zero batch size accepted")
	}
}

func TestNoise(t *testing.T) {
	x, y := toy(4)
	s, _ := NewSplit(x, y, 3, 2, false)
	n, err := Noise(s, 7, 0, 1, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	if n.Len() != 7 || n.Features() != 2 || n.Classes() != 3 {
		t.Errorf("noise split has wrong shape")
	}
	for _, row := range n.X {
		for _, v := range row {
			if v < 0 || v >= 1 {
				t.Errorf("noise %g out of range", v)
			}
		}
	}
}
