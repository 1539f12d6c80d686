package spirv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

var header = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDecode(t *testing.T) {
	code, err := Decode(header)
	if err != nil {
		t.Fatalf("Decode: %+v", err)
	}
	if len(code) != 2 || code[0] != magic || code[1] != 0x00010000 {
		t.Fatalf("code = %#x", code)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string][]byte{
		"empty":       {},
		"truncated":   header[:7],
		"wrong magic": {0xde, 0xad, 0xbe, 0xef},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); err == nil {
				t.Fatalf("Decode accepted %x", data)
			}
		})
	}
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VertexFile, header)
	writeFile(t, dir, FragmentFile, append(append([]byte{}, header...), 0x11, 0x00, 0x02, 0x00))

	pair, err := LoadPair(dir)
	if err != nil {
		t.Fatalf("LoadPair: %+v", err)
	}
	if len(pair.Vertex) != 2 {
		t.Errorf("vertex words = %d, want 2", len(pair.Vertex))
	}
	if len(pair.Fragment) != 3 || pair.Fragment[2] != 0x00020011 {
		t.Errorf("fragment = %#x", pair.Fragment)
	}
}

func TestLoadPairMissingFragment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VertexFile, header)

	_, err := LoadPair(dir)
	if err == nil {
		t.Fatalf("LoadPair succeeded without %s", FragmentFile)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want a not-exist error", err)
	}
}

func TestLoadPairOddLength(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VertexFile, append(append([]byte{}, header...), 0x01))
	writeFile(t, dir, FragmentFile, header)

	if _, err := LoadPair(dir); err == nil {
		t.Fatalf("LoadPair accepted a vertex shader of odd length")
	}
}
