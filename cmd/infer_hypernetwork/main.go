package main

import "flag"
import "fmt"

import "github.com/neurlang/hypernetwork/trainer"

func main() {
	var h = trainer.Defaults()

	flag.IntVar(&h.SDim, "s", h.SDim, "encoder dimension")
	flag.IntVar(&h.ZDim, "z", h.ZDim, "latent space width")
	flag.IntVar(&h.NumHiddenGen, "num_hidden_gen", h.NumHiddenGen, "generator hidden layers")
	flag.IntVar(&h.HiddenWGen, "hidden_w_gen", h.HiddenWGen, "generator hidden width")
	flag.IntVar(&h.Particles, "p", h.Particles, "number of particles")
	flag.StringVar(&h.Target, "t", h.Target, "target architecture (linear, mlp, mlp2)")
	flag.StringVar(&h.Dataset, "d", h.Dataset, "dataset (mnist, cifar, gaussian)")
	flag.BoolVar(&h.UseBias, "use_bias", h.UseBias, "target and generator layers carry a bias")
	flag.BoolVar(&h.UseMixer, "use_mixer", false, "share a mixer before the layer generators")
	flag.BoolVar(&h.UseBN, "use_bn", false, "batch norm in the target")
	flag.StringVar(&h.Vote, "vote", h.Vote, "ensemble vote (soft, hard)")
	flag.Int64Var(&h.Seed, "seed", h.Seed, "random seed of the latent draws")
	flag.StringVar(&h.Checkpoint, "checkpoint", "", "generator checkpoint .json.lzw file")
	size := flag.Int("n", 0, "ensemble size, 0 tests all particles")
	flag.Parse()

	h.Resume = true
	if *size == 0 {
		*size = h.Particles
	}

	t, err := trainer.New(&h, trainer.ReadOnly())
	if err != nil {
		panic(err.Error())
	}
	r, err := t.Test(*size)
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("[Ensemble Size: %d] Loss: %f, Accuracy: %f, (%d/%d)\n", r.Size, r.Loss, r.Accuracy, r.Correct, r.Total)
}
