// Package spirv loads the precompiled shader pair from disk.
package spirv

//go:generate glslc -o ../assets/vert.spv ../assets/shader.vert
//go:generate glslc -o ../assets/frag.spv ../assets/shader.frag

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

const (
	VertexFile   = "vert.spv"
	FragmentFile = "frag.spv"

	magic = 0x07230203
)

// Pair is the vertex and fragment stage bytecode.
type Pair struct {
	Vertex   []uint32
	Fragment []uint32
}

// LoadPair reads both stages from dir.
func LoadPair(dir string) (Pair, error) {
	var pair Pair
	var g errgroup.Group

	g.Go(func() error {
		code, err := Load(filepath.Join(dir, VertexFile))
		pair.Vertex = code
		return err
	})
	g.Go(func() error {
		code, err := Load(filepath.Join(dir, FragmentFile))
		pair.Fragment = code
		return err
	})

	if err := g.Wait(); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

func Load(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}

	code, err := Decode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decode shader %s", path)
	}
	return code, nil
}

// Decode turns little-endian SPIR-V bytes into words.
func Decode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.New("empty SPIR-V module")
	}
	if len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V length %d is not a multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	if byteCode[0] != magic {
		return nil, errors.Newf("bad SPIR-V magic %#08x", byteCode[0])
	}

	return byteCode, nil
}
