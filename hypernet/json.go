package hypernet

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

import "github.com/neurlang/hypernetwork/target"

type weightRecord struct {
	Name  string    `json:"name"`
	Value []float64 `json:"value"`
}

// WriteCompressedWeightsToFile writes generator weights to a lzw file
func (g *Generator) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = g.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes generator weights to a writer, followed by the
// state buffers of a stateful target architecture
func (g *Generator) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)

	_, err := lw.Write([]byte("[\n"))
	if err != nil {
		return err
	}
	var records []weightRecord
	for _, p := range g.Params() {
		records = append(records, weightRecord{Name: p.Name, Value: p.Value})
	}
	if st, ok := g.arch.(target.Stateful); ok {
		for _, b := range st.Buffers() {
			records = append(records, weightRecord{Name: b.Name, Value: b.Value})
		}
	}
	for i, p := range records {
		if i != 0 {
			_, err = lw.Write([]byte(",\n"))
			if err != nil {
				return err
			}
		}
		buf, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = lw.Write(buf)
		if err != nil {
			return err
		}
	}
	_, err = lw.Write([]byte("]\n"))
	if err != nil {
		return err
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads generator weights from a lzw file
func (g *Generator) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	err = g.ReadCompressedWeights(file)
	file.Close()
	return err
}

// ReadCompressedWeights reads generator weights from a reader. Every parameter
// must be present with the same name and size; any remaining records are
// loaded as state buffers of the target architecture.
func (g *Generator) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var records []weightRecord
	if err := json.NewDecoder(lr).Decode(&records); err != nil {
		return errors.Wrap(err, "hypernet: decoding weights")
	}
	params := g.Params()
	if len(records) < len(params) {
		return errors.Errorf("hypernet: checkpoint has %d records, generator has %d parameters", len(records), len(params))
	}
	for i, p := range params {
		if records[i].Name != p.Name || len(records[i].Value) != p.Len() {
			return errors.Errorf("hypernet: checkpoint parameter %q (%d) does not match %q (%d)",
				records[i].Name, len(records[i].Value), p.Name, p.Len())
		}
	}
	var buffers []target.Buffer
	for _, r := range records[len(params):] {
		buffers = append(buffers, target.Buffer{Name: r.Name, Value: r.Value})
	}
	if st, ok := g.arch.(target.Stateful); ok {
		if err := st.LoadBuffers(buffers); err != nil {
			return errors.Wrap(err, "hypernet: checkpoint buffers")
		}
	} else if len(buffers) != 0 {
		return errors.Errorf("hypernet: checkpoint has %d buffers, %s keeps no state", len(buffers), g.arch.Name())
	}
	for i, p := range params {
		copy(p.Value, records[i].Value)
	}
	return nil
}
