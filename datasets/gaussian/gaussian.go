// Package gaussian generates a seeded Gaussian mixture classification problem.
//
// Each class owns a random center; examples are the center plus isotropic
// noise. The data needs no files which makes it the dataset of choice for
// smoke runs and tests.
package gaussian

import "math/rand"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/datasets"

// Config describes the mixture.
type Config struct {
	Seed     int64
	Features int
	Classes  int
	Train    int
	Test     int
	Spread   float64 // distance scale of the class centers
	Noise    float64 // standard deviation around a center
}

// Default is the mixture used by the registry.
func Default(seed int64) Config {
	return Config{Seed: seed, Features: 16, Classes: 4, Train: 2000, Test: 500, Spread: 3, Noise: 1}
}

// Load draws the train and test splits. Both come from the same centers.
func Load(c Config, batchSize int) (train, test *datasets.Split, err error) {
	if c.Features <= 0 || c.Classes <= 1 || c.Train <= 0 || c.Test <= 0 {
		return nil, nil, errors.Errorf("gaussian: invalid config %+v", c)
	}
	rng := rand.New(rand.NewSource(c.Seed))
	centers := make([][]float64, c.Classes)
	for k := range centers {
		centers[k] = make([]float64, c.Features)
		for j := range centers[k] {
			centers[k][j] = c.Spread * rng.NormFloat64()
		}
	}
	draw := func(n int) ([][]float64, []int) {
		x := make([][]float64, n)
		y := make([]int, n)
		for i := range x {
			y[i] = rng.Intn(c.Classes)
			x[i] = make([]float64, c.Features)
			for j := range x[i] {
				x[i][j] = centers[y[i]][j] + c.Noise*rng.NormFloat64()
			}
		}
		return x, y
	}
	x, y := draw(c.Train)
	train, err = datasets.NewSplit(x, y, c.Classes, batchSize, true)
	if err != nil {
		return nil, nil, err
	}
	x, y = draw(c.Test)
	test, err = datasets.NewSplit(x, y, c.Classes, batchSize, false)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
