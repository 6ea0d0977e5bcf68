package main

import "flag"
import "os"

import "github.com/neurlang/hypernetwork/device"
import "github.com/neurlang/hypernetwork/trainer"

func main() {
	var h = trainer.Defaults()

	flag.IntVar(&h.SDim, "s", h.SDim, "encoder dimension")
	flag.IntVar(&h.ZDim, "z", h.ZDim, "latent space width")
	flag.IntVar(&h.NumHiddenGen, "num_hidden_gen", h.NumHiddenGen, "generator hidden layers")
	flag.IntVar(&h.HiddenWGen, "hidden_w_gen", h.HiddenWGen, "generator hidden width")
	flag.IntVar(&h.Particles, "p", h.Particles, "number of particles")
	flag.StringVar(&h.Target, "t", h.Target, "target architecture (linear, mlp, mlp2)")
	flag.StringVar(&h.Grad, "g", h.Grad, "gradient estimator (svgd, naive)")
	flag.BoolVar(&h.Resume, "r", false, "resume from the checkpoint")
	flag.StringVar(&h.Dataset, "d", h.Dataset, "dataset (mnist, cifar, gaussian)")
	flag.BoolVar(&h.UseBias, "use_bias", h.UseBias, "target and generator layers carry a bias")
	flag.BoolVar(&h.UseMixer, "use_mixer", false, "share a mixer before the layer generators")
	flag.BoolVar(&h.UseBN, "use_bn", false, "batch norm in the target")
	flag.BoolVar(&h.TestEnsemble, "test_ensemble", false, "test ensembles of 1, 5, 10 and all particles")
	flag.BoolVar(&h.TestUncertainty, "test_uncertainty", false, "plot entropy and variance densities")
	flag.StringVar(&h.Vote, "vote", h.Vote, "ensemble vote (soft, hard)")
	flag.IntVar(&h.Epochs, "epochs", h.Epochs, "training epochs")
	flag.Int64Var(&h.Seed, "seed", h.Seed, "random seed")
	flag.StringVar(&h.Checkpoint, "checkpoint", "", "generator checkpoint .json.lzw file, written on every new best")
	logfile := flag.String("log", "", "append the log to this file")
	flag.Bool("pgo", false, "enable pgo")
	flag.Parse()

	if *logfile != "" {
		if err := h.SetLogger(*logfile); err != nil {
			panic(err.Error())
		}
	}
	h.Logger().Println(device.Report())

	t, err := trainer.New(&h)
	if err != nil {
		panic(err.Error())
	}
	t.Generator().Describe(os.Stdout)

	if err := t.Train(); err != nil {
		panic(err.Error())
	}
}
