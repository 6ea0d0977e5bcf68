package stein

import "math"
import "sort"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"
import "gonum.org/v1/gonum/stat"

// DefaultMinBandwidth is the lower bound of the kernel bandwidth h.
const DefaultMinBandwidth = 1e-3

// Kernel computes the RBF kernel K_ij = exp(−‖θ_i−θ_j‖² / (2h²)) over the rows of theta,
// with h² = med² / (2·log(N+1)) from the median pairwise distance, clamped below by
// minBandwidth². It also returns the repulsion R_i = Σ_j ∇_{θ_j} K(θ_j, θ_i)
// = Σ_j K_ij (θ_i − θ_j) / h², which is zero when all particles coincide.
func Kernel(theta *mat.Dense, minBandwidth float64) (k, repulsion *mat.Dense, h2 float64, err error) {
	n, p := theta.Dims()
	if n == 0 {
		return nil, nil, 0, ErrNoParticles
	}
	if minBandwidth <= 0 {
		minBandwidth = DefaultMinBandwidth
	}
	d2 := mat.NewDense(n, n, nil)
	dists := make([]float64, 0, n*(n-1)/2)
	diff := make([]float64, p)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			floats.SubTo(diff, theta.RawRowView(i), theta.RawRowView(j))
			v := floats.Dot(diff, diff)
			d2.Set(i, j, v)
			d2.Set(j, i, v)
			dists = append(dists, math.Sqrt(v))
		}
	}
	med := median(dists)
	h2 = med * med / (2 * math.Log(float64(n)+1))
	if h2 < minBandwidth*minBandwidth || math.IsNaN(h2) {
		h2 = minBandwidth * minBandwidth
	}

	k = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k.Set(i, j, math.Exp(-d2.At(i, j)/(2*h2)))
		}
	}

	// R_i = (θ_i·1ᵀ − θ)ᵀ K_i / h², the differences keep coinciding rows exactly zero
	repulsion = mat.NewDense(n, p, nil)
	diffs := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			floats.SubTo(diffs.RawRowView(j), theta.RawRowView(i), theta.RawRowView(j))
		}
		dst := mat.NewVecDense(p, repulsion.RawRowView(i))
		dst.MulVec(diffs.T(), k.RowView(i))
		dst.ScaleVec(1/h2, dst)
	}
	if !finite(k.RawMatrix().Data) || !finite(repulsion.RawMatrix().Data) {
		return nil, nil, h2, errors.Wrapf(ErrNonFinite, "kernel with bandwidth %g", h2)
	}
	return k, repulsion, h2, nil
}

// median of the pairwise distances, 0 for a single particle
func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sort.Float64s(x)
	if len(x)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, x, nil)
	}
	return (x[len(x)/2-1] + x[len(x)/2]) / 2
}

func finite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
