package interop

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// Fixed scene parameters. Changing any of them means rebuilding the whole
// ring and pipeline, so they are not exposed as options.
const (
	Width       = 640
	Height      = 480
	BufferCount = 2
)

// TimerUniform is the set 0, binding 0 uniform block read by the vertex shader.
type TimerUniform struct {
	Time float32
}

// Vertex is one clip-space position with a premultiplied RGBA color.
type Vertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// Triangle is drawn as a 3 vertex strip.
var Triangle = [3]Vertex{
	// rgb above alpha on purpose: the top vertex blends additively toward white
	{Position: mgl32.Vec4{0, 0.5, 0.5, 1}, Color: mgl32.Vec4{1, 1, 1, 0.6}},
	{Position: mgl32.Vec4{0.5, -0.5, 0.5, 1}, Color: mgl32.Vec4{0, 1, 1, 1}},
	{Position: mgl32.Vec4{-0.5, -0.5, 0.5, 1}, Color: mgl32.Vec4{1, 1, 0, 1}},
}

const uniformAlignment = 16

// Layout of the combined device buffer: the timer uniform is a strict prefix,
// vertex data starts at the next 16 byte boundary.
const (
	TimerSize    = int(unsafe.Sizeof(TimerUniform{}))
	VertexSize   = int(unsafe.Sizeof(Vertex{}))
	VertexOffset = (TimerSize + uniformAlignment - 1) &^ (uniformAlignment - 1)
	TriangleSize = VertexSize * len(Triangle)
	BufferSize   = VertexOffset + TriangleSize
)

// AlignUp rounds size up to a multiple of alignment, which must be a power of two.
func AlignUp(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// StagingContents returns the initial bytes of the staging buffer: a zero
// timer, padding up to VertexOffset, then the triangle.
func StagingContents() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Grow(BufferSize)

	err := binary.Write(buf, binary.LittleEndian, TimerUniform{Time: 0})
	if err != nil {
		return nil, errors.Wrap(err, "encode timer uniform")
	}
	buf.Write(make([]byte, VertexOffset-TimerSize))

	err = binary.Write(buf, binary.LittleEndian, Triangle)
	if err != nil {
		return nil, errors.Wrap(err, "encode triangle")
	}

	return buf.Bytes(), nil
}
