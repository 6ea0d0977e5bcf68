// Package mnist loads the MNIST handwritten digit dataset from its gzipped idx files.
package mnist

import "bytes"
import "compress/gzip"
import "crypto/sha256"
import "encoding/binary"
import "fmt"
import "io"
import "os"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/datasets"

func userHomeDir() string {
	dirname, err := os.UserHomeDir()
	if err != nil {
		return "~"
	}
	return dirname + "/"
}

const tmpDirectory = `/tmp/mnist/`

var customDirectory = userHomeDir() + `/.cache/mnist/`

// SearchDirectories are tried in order; the first one holding all four files wins.
var SearchDirectories = []string{tmpDirectory, customDirectory}

const inferSetImg = "t10k-images-idx3-ubyte.gz"
const inferSetVal = "t10k-labels-idx1-ubyte.gz"
const trainSetImg = "train-images-idx3-ubyte.gz"
const trainSetVal = "train-labels-idx1-ubyte.gz"
const inferDigImg = "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"
const inferDigVal = "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"
const trainDigImg = "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"
const trainDigVal = "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"

// ImgSize is the side of an MNIST image.
const ImgSize = 28

// Classes is the number of digits.
const Classes = 10

const imagesMagic = 0x00000803
const labelsMagic = 0x00000801

// normalization used for the digit pixels
const mean = 0.1307
const std = 0.3081

// Load reads both splits. The train split is shuffled every epoch.
func Load(batchSize int) (train, test *datasets.Split, err error) {
	var files = map[string]string{
		inferDigImg: inferSetImg,
		inferDigVal: inferSetVal,
		trainDigImg: trainSetImg,
		trainDigVal: trainSetVal,
	}
	var lastErr = errors.New("mnist: no search directory")
outer:
	for _, dir := range SearchDirectories {
		var raw = make(map[string][]byte)
		for hash, name := range files {
			data, err := readVerified(dir+name, hash)
			if err != nil {
				lastErr = err
				continue outer
			}
			raw[name] = data
		}
		trainX, err := ParseImages(raw[trainSetImg])
		if err != nil {
			return nil, nil, err
		}
		trainY, err := ParseLabels(raw[trainSetVal])
		if err != nil {
			return nil, nil, err
		}
		testX, err := ParseImages(raw[inferSetImg])
		if err != nil {
			return nil, nil, err
		}
		testY, err := ParseLabels(raw[inferSetVal])
		if err != nil {
			return nil, nil, err
		}
		train, err = datasets.NewSplit(trainX, trainY, Classes, batchSize, true)
		if err != nil {
			return nil, nil, errors.Wrap(err, "mnist train")
		}
		test, err = datasets.NewSplit(testX, testY, Classes, batchSize, false)
		if err != nil {
			return nil, nil, errors.Wrap(err, "mnist test")
		}
		return train, test, nil
	}
	return nil, nil, lastErr
}

// readVerified reads a gzipped file whose sha256 must equal hash and returns its uncompressed content.
func readVerified(path, hash string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("File '%s' does not exist", path)
		}
		return nil, errors.Wrapf(err, "Cannot open file '%s'", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, errors.Wrapf(err, "Cannot copy file to hash file '%s'", path)
	}
	if fmt.Sprintf("%x", h.Sum(nil)) != hash {
		return nil, fmt.Errorf("File hash for file '%s' is incorrect", path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	gzipReader, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Gzip file '%s' Error", path)
	}
	defer gzipReader.Close()
	var uncompressedBuffer bytes.Buffer
	if _, err := uncompressedBuffer.ReadFrom(gzipReader); err != nil {
		return nil, errors.Wrapf(err, "Buffering file '%s' Error", path)
	}
	return uncompressedBuffer.Bytes(), nil
}

// ParseImages decodes an idx3 image file into normalized pixel rows.
func ParseImages(data []byte) ([][]float64, error) {
	if len(data) < 16 || binary.BigEndian.Uint32(data) != imagesMagic {
		return nil, errors.New("mnist: not an idx3 image file")
	}
	n := int(binary.BigEndian.Uint32(data[4:]))
	rows := int(binary.BigEndian.Uint32(data[8:]))
	cols := int(binary.BigEndian.Uint32(data[12:]))
	// skip header
	data = data[16:]
	if len(data) != n*rows*cols {
		return nil, errors.Errorf("mnist: %d pixel bytes for %d images of %dx%d", len(data), n, rows, cols)
	}
	var set = make([][]float64, n)
	for i := range set {
		var ptr = rows * cols * i
		set[i] = make([]float64, rows*cols)
		for j := range set[i] {
			set[i][j] = (float64(data[ptr+j])/255 - mean) / std
		}
	}
	return set, nil
}

// ParseLabels decodes an idx1 label file.
func ParseLabels(data []byte) ([]int, error) {
	if len(data) < 8 || binary.BigEndian.Uint32(data) != labelsMagic {
		return nil, errors.New("mnist: not an idx1 label file")
	}
	n := int(binary.BigEndian.Uint32(data[4:]))
	// skip header
	data = data[8:]
	if len(data) != n {
		return nil, errors.Errorf("mnist: %d label bytes for %d labels", len(data), n)
	}
	var set = make([]int, n)
	for i, v := range data {
		set[i] = int(v)
	}
	return set, nil
}

// IsTrainFile reports whether name is one of the training files.
func IsTrainFile(name string) bool {
	return strings.HasPrefix(name, "train-")
}
