package trainer

import "fmt"
import "log"
import "os"
import "path/filepath"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/hypernet"
import "github.com/neurlang/hypernetwork/registry"
import "github.com/neurlang/hypernetwork/stein"

// SetLogger appends the training log to filename instead of stdout.
func (h *HyperParameters) SetLogger(filename string) error {
	outfile, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return errors.Wrapf(err, "opening log %s", filename)
	}
	h.l = log.New(outfile, "", 0)
	return nil
}

// Logger returns the configured logger, stdout by default.
func (h *HyperParameters) Logger() *log.Logger {
	if h.l == nil {
		h.l = log.New(os.Stdout, "", 0)
	}
	return h.l
}

type HyperParameters struct {
	SDim         int // mixer width
	ZDim         int // latent width
	NumHiddenGen int // hidden layers of every per-layer generator
	HiddenWGen   int // width of those hidden layers
	Particles    int // ensemble size N

	Target  string // target architecture name
	Dataset string
	Grad    string // svgd or naive
	Vote    string // soft or hard
	Noise   string // latent noise, normal or uniform

	UseBias     bool
	UseMixer    bool
	UseBN       bool
	ClearBNBias bool // zero the batch norm shift of every installed particle

	TestEnsemble    bool // test sizes 1, 5, 10 and N rather than N only
	TestUncertainty bool // plot entropy and variance densities after every epoch

	Epochs       int
	BatchSize    int
	Seed         int64
	LrMixer      float64
	LrGenerator  float64
	Alpha        float64 // data-loss weight in the Stein update
	MinBandwidth float64 // kernel bandwidth floor
	LogEvery     int     // batches between [Train] lines
	Threads      int     // particle workers, 0 picks the logical core count

	Resume     bool   // load Checkpoint before training
	Checkpoint string // written on every new best, empty disables
	Figures    string // root directory of the density plots

	// LegacyLossNormalization divides the sum of per-batch mean losses by
	// the test set size instead of averaging per example.
	LegacyLossNormalization bool

	l *log.Logger
}

// Defaults returns the reference configuration.
func Defaults() HyperParameters {
	return HyperParameters{
		SDim:         512,
		ZDim:         32,
		NumHiddenGen: 2,
		HiddenWGen:   32,
		Particles:    32,
		Target:       "mlp",
		Dataset:      "mnist",
		Grad:         string(stein.SVGD),
		Vote:         string(Hard),
		Noise:        hypernet.NoiseNormal,
		UseBias:      true,
		ClearBNBias:  true,
		Epochs:       200,
		BatchSize:    100,
		Seed:         8734,
		LrMixer:      5e-3,
		LrGenerator:  1e-4,
		Alpha:        1,
		MinBandwidth: stein.DefaultMinBandwidth,
		LogEvery:     100,
		Figures:      "figures",
	}
}

// Validate rejects unsupported names and non-positive sizes.
func (h *HyperParameters) Validate() error {
	if err := registry.ValidateDataset(h.Dataset); err != nil {
		return err
	}
	if err := registry.ValidateArchitecture(h.Target); err != nil {
		return err
	}
	if _, err := stein.ParseMode(h.Grad); err != nil {
		return err
	}
	if _, err := ParseVoteMode(h.Vote); err != nil {
		return err
	}
	switch h.Noise {
	case hypernet.NoiseNormal, hypernet.NoiseUniform:
	default:
		return errors.Errorf("unsupported noise %q (want normal or uniform)", h.Noise)
	}
	for _, v := range []struct {
		name  string
		value int
	}{
		{"s_dim", h.SDim}, {"z_dim", h.ZDim}, {"hidden_w_gen", h.HiddenWGen},
		{"num_particles", h.Particles}, {"epochs", h.Epochs}, {"batch_size", h.BatchSize},
		{"log_every", h.LogEvery},
	} {
		if v.value <= 0 {
			return errors.Errorf("%s must be positive, got %d", v.name, v.value)
		}
	}
	if h.NumHiddenGen < 0 {
		return errors.Errorf("num_hidden_gen must not be negative, got %d", h.NumHiddenGen)
	}
	if h.LrMixer <= 0 || h.LrGenerator <= 0 {
		return errors.Errorf("learning rates must be positive, got %g and %g", h.LrMixer, h.LrGenerator)
	}
	if h.Resume && h.Checkpoint == "" {
		return errors.New("resume needs a checkpoint path")
	}
	return nil
}

// Hidden returns the per-layer generator hidden widths.
func (h *HyperParameters) Hidden() []int {
	hidden := make([]int, h.NumHiddenGen)
	for i := range hidden {
		hidden[i] = h.HiddenWGen
	}
	return hidden
}

// Prefix is the figure directory of a run.
func (h *HyperParameters) Prefix(runID string) string {
	return filepath.Join(h.Figures, "hypernet", h.Grad, fmt.Sprintf("%dhidden", h.HiddenWGen), h.Dataset, runID)
}
