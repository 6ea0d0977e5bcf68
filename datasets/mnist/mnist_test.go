package mnist

import "encoding/binary"
import "math"
import "testing"

func idx(magic uint32, dims []uint32, payload []byte) []byte {
	var out = make([]byte, 4+4*len(dims))
	binary.BigEndian.PutUint32(out, magic)
	for i, d := range dims {
		binary.BigEndian.PutUint32(out[4+4*i:], d)
	}
	return append(out, payload...)
}

func TestParseImages(t *testing.T) {
	payload := []byte{0, 255, 0, 0, 255, 255, 255, 255}
	set, err := ParseImages(idx(imagesMagic, []uint32{2, 2, 2}, payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 || len(set[0]) != 4 {
		t.Fatalf("unexpected shape %d", len(set))
	}
	if math.Abs(set[0][1]-(1-mean)/std) > 1e-12 || math.Abs(set[0][0]+mean/std) > 1e-12 {
		t.Errorf("bad normalization %v", set[0])
	}
	if _, err := ParseImages(idx(labelsMagic, []uint32{1, 1, 1}, []byte{0})); err == nil {
		t.Errorf("wrong magic accepted")
	}
	if _, err := ParseImages(idx(imagesMagic, []uint32{2, 2, 2}, payload[:7])); err == nil {
		t.Errorf("truncated file accepted")
	}
}

func TestParseLabels(t *testing.T) {
	set, err := ParseLabels(idx(labelsMagic, []uint32{3}, []byte{7, 0, 9}))
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 3 || set[0] != 7 || set[2] != 9 {
		t.Errorf("unexpected labels %v", set)
	}
	if !IsTrainFile(trainSetImg) || IsTrainFile(inferSetImg) {
		t.Errorf("train file detection broken")
	}
}

func TestLoadMissing(t *testing.T) {
	saved := SearchDirectories
	SearchDirectories = []string{t.TempDir() + "/"}
	defer func() { SearchDirectories = saved }()
	if _, _, err := Load(32); err == nil {
		t.Errorf("load from empty directory succeeded")
	}
}
