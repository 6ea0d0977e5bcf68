// Package cifar loads CIFAR-10 from the binary distribution.
package cifar

import "os"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/datasets"

// Classes is the number of CIFAR-10 labels.
const Classes = 10

// Features is the flattened 3×32×32 image size.
const Features = 3 * 32 * 32

const recordSize = 1 + Features

// SearchDirectories are tried in order.
var SearchDirectories = []string{"/tmp/cifar-10-batches-bin/", home() + ".cache/cifar-10-batches-bin/"}

var trainFiles = []string{"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin", "data_batch_4.bin", "data_batch_5.bin"}

const testFile = "test_batch.bin"

func home() string {
	dirname, err := os.UserHomeDir()
	if err != nil {
		return "~/"
	}
	return dirname + "/"
}

// Load reads the five training batches and the test batch from the first
// search directory that has them.
func Load(batchSize int) (train, test *datasets.Split, err error) {
	var lastErr = errors.New("cifar: no search directory")
	for _, dir := range SearchDirectories {
		var x [][]float64
		var y []int
		var failed bool
		for _, name := range trainFiles {
			bx, by, err := readFile(dir + name)
			if err != nil {
				lastErr = err
				failed = true
				break
			}
			x = append(x, bx...)
			y = append(y, by...)
		}
		if failed {
			continue
		}
		tx, ty, err := readFile(dir + testFile)
		if err != nil {
			lastErr = err
			continue
		}
		train, err = datasets.NewSplit(x, y, Classes, batchSize, true)
		if err != nil {
			return nil, nil, errors.Wrap(err, "cifar train")
		}
		test, err = datasets.NewSplit(tx, ty, Classes, batchSize, false)
		if err != nil {
			return nil, nil, errors.Wrap(err, "cifar test")
		}
		return train, test, nil
	}
	return nil, nil, lastErr
}

func readFile(path string) ([][]float64, []int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cifar: reading '%s'", path)
	}
	x, y, err := Parse(data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cifar: '%s'", path)
	}
	return x, y, nil
}

// Parse decodes records of one label byte followed by 3072 channel-major
// pixel bytes. Pixels are scaled to [-1, 1].
func Parse(data []byte) ([][]float64, []int, error) {
	if len(data) == 0 || len(data)%recordSize != 0 {
		return nil, nil, errors.Errorf("%d bytes is not a multiple of the %d byte record", len(data), recordSize)
	}
	n := len(data) / recordSize
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		rec := data[i*recordSize : (i+1)*recordSize]
		if int(rec[0]) >= Classes {
			return nil, nil, errors.Errorf("record %d has label %d", i, rec[0])
		}
		y[i] = int(rec[0])
		x[i] = make([]float64, Features)
		for j, v := range rec[1:] {
			x[i][j] = (float64(v)/255 - 0.5) / 0.5
		}
	}
	return x, y, nil
}
