package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/hypernet"

// Resume loads the generator weights from checkpoint when resume is set.
func Resume(gen *hypernet.Generator, resume bool, checkpoint string) error {
	if resume && checkpoint != "" {
		err := gen.ReadCompressedWeightsFromFile(checkpoint)
		if err != nil {
			return errors.Wrapf(err, "resuming from %s", checkpoint)
		}
	}
	return nil
}
