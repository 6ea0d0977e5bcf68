// Package hypernet implements the parameter generator: a hypernetwork mapping latent
// noise to one parameter vector per particle of a target architecture.
package hypernet

import "crypto/sha256"
import "encoding/binary"
import "fmt"
import "io"
import "math"
import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/hypernetwork/nn"
import "github.com/neurlang/hypernetwork/target"

// Noise kinds accepted by Config.Noise.
const (
	NoiseNormal  = "normal"
	NoiseUniform = "uniform"
)

// Config sizes the generator.
type Config struct {
	ZDim      int   // latent width
	SDim      int   // mixer hidden width
	Hidden    []int // hidden widths of every per-layer generator
	Particles int   // ensemble size N
	UseMixer  bool  // share a mixer network before the per-layer generators
	UseBias   bool  // generator layers carry a bias
	Noise     string
}

// Generator owns the mixer and the per-layer generators. Layer l of the target
// architecture is produced by generator l from the l-th latent code.
type Generator struct {
	cfg   Config
	arch  target.Architecture
	rng   *rand.Rand
	sizes []int

	mixer  *nn.Sequential
	layers []*nn.Sequential

	mixerOpt *nn.Adam
	genOpt   *nn.Adam

	generation uint64
}

// Ensemble is one draw of N particles. Params is N×NumParams, row i is particle i.
type Ensemble struct {
	Params *mat.Dense

	gen        *Generator
	generation uint64
}

// Len returns the number of particles.
func (e *Ensemble) Len() int {
	n, _ := e.Params.Dims()
	return n
}

// Matrix returns the particle parameters.
func (e *Ensemble) Matrix() *mat.Dense {
	return e.Params
}

// Backward propagates grad (dL/dParams, N×NumParams) through the generator that
// produced the ensemble, accumulating gradients on its weights. Only the most
// recently generated ensemble can be backpropagated.
func (e *Ensemble) Backward(grad *mat.Dense) error {
	if e.gen == nil {
		return errors.New("hypernet: ensemble has no generator")
	}
	if e.generation != e.gen.generation {
		return errors.New("hypernet: ensemble is stale, a newer one was generated")
	}
	return e.gen.backward(grad)
}

// New builds a generator for arch. Weights are initialized from rng, which the
// generator keeps for latent sampling.
func New(cfg Config, arch target.Architecture, rng *rand.Rand) (*Generator, error) {
	if cfg.ZDim <= 0 {
		return nil, errors.Errorf("hypernet: latent width must be positive, got %d", cfg.ZDim)
	}
	if cfg.Particles <= 0 {
		return nil, errors.Errorf("hypernet: particle count must be positive, got %d", cfg.Particles)
	}
	if cfg.UseMixer && cfg.SDim <= 0 {
		return nil, errors.Errorf("hypernet: mixer width must be positive, got %d", cfg.SDim)
	}
	for _, h := range cfg.Hidden {
		if h <= 0 {
			return nil, errors.Errorf("hypernet: hidden widths must be positive, got %v", cfg.Hidden)
		}
	}
	switch cfg.Noise {
	case "":
		cfg.Noise = NoiseNormal
	case NoiseNormal, NoiseUniform:
	default:
		return nil, errors.Errorf("hypernet: unsupported noise %q", cfg.Noise)
	}
	sizes, err := target.LayerSizes(arch.Layout())
	if err != nil {
		return nil, errors.Wrap(err, "hypernet")
	}
	var total int
	for _, s := range sizes {
		total += s
	}
	if total != arch.NumParams() {
		return nil, errors.Wrapf(target.ErrLayout, "hypernet: layout sums to %d, architecture has %d", total, arch.NumParams())
	}

	g := &Generator{
		cfg:   cfg,
		arch:  arch,
		rng:   rng,
		sizes: sizes,
	}
	if cfg.UseMixer {
		g.mixer = nn.NewMLP(rng, "mixer", []int{cfg.ZDim, cfg.SDim, len(sizes) * cfg.ZDim}, cfg.UseBias)
	}
	for l, size := range sizes {
		widths := append([]int{cfg.ZDim}, cfg.Hidden...)
		widths = append(widths, size)
		g.layers = append(g.layers, nn.NewMLP(rng, fmt.Sprintf("generator%d", l), widths, cfg.UseBias))
	}
	return g, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Architecture returns the target architecture.
func (g *Generator) Architecture() target.Architecture {
	return g.arch
}

// SampleLatents draws N latent vectors from the configured noise.
func (g *Generator) SampleLatents() *mat.Dense {
	z := mat.NewDense(g.cfg.Particles, g.cfg.ZDim, nil)
	raw := z.RawMatrix().Data
	for i := range raw {
		if g.cfg.Noise == NoiseUniform {
			raw[i] = 2*g.rng.Float64() - 1
		} else {
			raw[i] = g.rng.NormFloat64()
		}
	}
	return z
}

// Generate maps latents (N×ZDim) to an ensemble whose rows follow the target layout.
func (g *Generator) Generate(z *mat.Dense) (*Ensemble, error) {
	n, c := z.Dims()
	if n != g.cfg.Particles || c != g.cfg.ZDim {
		return nil, errors.Wrapf(target.ErrLayout, "hypernet: latents are %dx%d, want %dx%d", n, c, g.cfg.Particles, g.cfg.ZDim)
	}
	codes := g.codes(z)
	params := mat.NewDense(n, g.arch.NumParams(), nil)
	var off int
	for l, gen := range g.layers {
		out := gen.Forward(codes[l])
		if _, oc := out.Dims(); oc != g.sizes[l] {
			return nil, errors.Wrapf(target.ErrLayout, "hypernet: generator %d produced %d values, want %d", l, oc, g.sizes[l])
		}
		params.Slice(0, n, off, off+g.sizes[l]).(*mat.Dense).Copy(out)
		off += g.sizes[l]
	}
	g.generation++
	return &Ensemble{Params: params, gen: g, generation: g.generation}, nil
}

func (g *Generator) codes(z *mat.Dense) []*mat.Dense {
	codes := make([]*mat.Dense, len(g.layers))
	if g.mixer == nil {
		for l := range codes {
			codes[l] = z
		}
		return codes
	}
	mixed := g.mixer.Forward(z)
	n, _ := mixed.Dims()
	zd := g.cfg.ZDim
	for l := range codes {
		codes[l] = mat.DenseCopyOf(mixed.Slice(0, n, l*zd, (l+1)*zd))
	}
	return codes
}

func (g *Generator) backward(grad *mat.Dense) error {
	n, c := grad.Dims()
	if n != g.cfg.Particles || c != g.arch.NumParams() {
		return errors.Wrapf(target.ErrLayout, "hypernet: gradient is %dx%d, want %dx%d", n, c, g.cfg.Particles, g.arch.NumParams())
	}
	var mixed *mat.Dense
	if g.mixer != nil {
		mixed = mat.NewDense(n, len(g.layers)*g.cfg.ZDim, nil)
	}
	var off int
	for l, gen := range g.layers {
		gl := mat.DenseCopyOf(grad.Slice(0, n, off, off+g.sizes[l]))
		gin := gen.Backward(gl)
		if mixed != nil {
			mixed.Slice(0, n, l*g.cfg.ZDim, (l+1)*g.cfg.ZDim).(*mat.Dense).Copy(gin)
		}
		off += g.sizes[l]
	}
	if mixed != nil {
		g.mixer.Backward(mixed)
	}
	return nil
}

// Install writes the ensemble into the target architecture.
func (g *Generator) Install(e *Ensemble) error {
	return g.arch.Install(e.Params)
}

// Forward evaluates the installed ensemble, returning N matrices of B×Classes logits.
func (g *Generator) Forward(x *mat.Dense) ([]*mat.Dense, error) {
	return g.arch.Forward(x)
}

// Predict samples a fresh ensemble, installs it and evaluates it on x.
func (g *Generator) Predict(x *mat.Dense) ([]*mat.Dense, error) {
	e, err := g.Generate(g.SampleLatents())
	if err != nil {
		return nil, err
	}
	if err := g.Install(e); err != nil {
		return nil, err
	}
	return g.Forward(x)
}

// Train puts the target's normalization layers in batch statistics mode.
func (g *Generator) Train() {
	g.arch.Train()
}

// Eval puts the target's normalization layers in running statistics mode.
func (g *Generator) Eval() {
	g.arch.Eval()
}

// MixerParams returns the mixer parameters, nil without a mixer.
func (g *Generator) MixerParams() []nn.Param {
	if g.mixer == nil {
		return nil
	}
	return g.mixer.Params()
}

// GeneratorParams returns the per-layer generator parameters.
func (g *Generator) GeneratorParams() (ps []nn.Param) {
	for _, l := range g.layers {
		ps = append(ps, l.Params()...)
	}
	return
}

// Params returns every generator weight, mixer first.
func (g *Generator) Params() []nn.Param {
	return append(g.MixerParams(), g.GeneratorParams()...)
}

// AttachOptimizers creates one Adam group for the mixer and one for the generators.
func (g *Generator) AttachOptimizers(lrMixer, lrGenerator float64) {
	if g.mixer != nil {
		g.mixerOpt = nn.NewAdam(g.MixerParams(), lrMixer)
	}
	g.genOpt = nn.NewAdam(g.GeneratorParams(), lrGenerator)
}

// ZeroGrad clears all generator gradients.
func (g *Generator) ZeroGrad() {
	for _, p := range g.Params() {
		p.ZeroGrad()
	}
}

// Step applies both optimizer groups.
func (g *Generator) Step() error {
	if g.genOpt == nil {
		return errors.New("hypernet: optimizers not attached")
	}
	if g.mixerOpt != nil {
		g.mixerOpt.Step()
	}
	g.genOpt.Step()
	return nil
}

// Fingerprint hashes the generator weights.
func (g *Generator) Fingerprint() (ret [32]byte) {
	h := sha256.New()
	var buf [8]byte
	for _, p := range g.Params() {
		for _, v := range p.Value {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	copy(ret[:], h.Sum(nil))
	return
}

// Describe prints the generator and target architecture.
func (g *Generator) Describe(w io.Writer) {
	fmt.Fprintf(w, "target %s: %d parameters, %d layers\n", g.arch.Name(), g.arch.NumParams(), len(g.sizes))
	for _, s := range g.arch.Layout() {
		fmt.Fprintf(w, "  %s [%d x %d]\n", s.Name, s.Rows, s.Cols)
	}
	if g.mixer != nil {
		g.mixer.Describe(w)
	}
	for _, l := range g.layers {
		l.Describe(w)
	}
	fmt.Fprintf(w, "generator parameters: %d\n", nn.CountParams(g.Params()))
}
