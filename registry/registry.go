// Package registry maps the dataset and architecture names accepted on the
// command line to their constructors.
package registry

import "sort"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/datasets"
import "github.com/neurlang/hypernetwork/datasets/cifar"
import "github.com/neurlang/hypernetwork/datasets/gaussian"
import "github.com/neurlang/hypernetwork/datasets/mnist"
import "github.com/neurlang/hypernetwork/target"

// DatasetLoader builds the train and test splits.
type DatasetLoader func(batchSize int, seed int64) (train, test *datasets.Split, err error)

// ArchitectureFactory builds a target architecture for the given input and class counts.
type ArchitectureFactory func(inputs, classes int, opts target.Options) (target.Architecture, error)

var datasetLoaders = map[string]DatasetLoader{
	"mnist": func(batchSize int, _ int64) (*datasets.Split, *datasets.Split, error) {
		return mnist.Load(batchSize)
	},
	"cifar": func(batchSize int, _ int64) (*datasets.Split, *datasets.Split, error) {
		return cifar.Load(batchSize)
	},
	"gaussian": func(batchSize int, seed int64) (*datasets.Split, *datasets.Split, error) {
		return gaussian.Load(gaussian.Default(seed), batchSize)
	},
}

var architectures = map[string]ArchitectureFactory{
	"linear": target.Linear,
	"mlp":    target.SmallMLP,
	"mlp2":   target.DeepMLP,
}

func names[T any](m map[string]T) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DatasetNames lists the supported datasets.
func DatasetNames() []string {
	return names(datasetLoaders)
}

// ArchitectureNames lists the supported target architectures.
func ArchitectureNames() []string {
	return names(architectures)
}

// ValidateDataset fails on an unknown dataset name.
func ValidateDataset(name string) error {
	if _, ok := datasetLoaders[name]; !ok {
		return errors.Errorf("unsupported dataset %q, supported: %s", name, strings.Join(DatasetNames(), ", "))
	}
	return nil
}

// ValidateArchitecture fails on an unknown architecture name.
func ValidateArchitecture(name string) error {
	if _, ok := architectures[name]; !ok {
		return errors.Errorf("unsupported architecture %q, supported: %s", name, strings.Join(ArchitectureNames(), ", "))
	}
	return nil
}

// Dataset loads the named dataset.
func Dataset(name string, batchSize int, seed int64) (train, test *datasets.Split, err error) {
	if err := ValidateDataset(name); err != nil {
		return nil, nil, err
	}
	train, test, err = datasetLoaders[name](batchSize, seed)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading dataset %s", name)
	}
	return train, test, nil
}

// Architecture builds the named target architecture.
func Architecture(name string, inputs, classes int, opts target.Options) (target.Architecture, error) {
	if err := ValidateArchitecture(name); err != nil {
		return nil, err
	}
	return architectures[name](inputs, classes, opts)
}
