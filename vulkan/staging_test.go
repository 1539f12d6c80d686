package vulkan

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"

	"github.com/vkngwrapper/noredirect/interop"
)

type fakeStaging struct {
	memory  []byte
	mapped  int
	flushed int
	mapErr  error

	mappings []mappedRange
	flushes  []mappedRange
}

func (f *fakeStaging) timer(needsFlush bool) stagingTimer {
	return f.atomTimer(needsFlush, 1)
}

func (f *fakeStaging) atomTimer(needsFlush bool, atom int) stagingTimer {
	var current mappedRange
	return stagingTimer{
		mapRange: func(r mappedRange) ([]byte, error) {
			if f.mapErr != nil {
				return nil, f.mapErr
			}
			if r.Offset < 0 || r.Offset+r.Size > len(f.memory) {
				return nil, errors.Newf("map [%d, %d) outside a %d byte allocation", r.Offset, r.Offset+r.Size, len(f.memory))
			}
			f.mapped++
			f.mappings = append(f.mappings, r)
			current = r
			return f.memory[r.Offset : r.Offset+r.Size], nil
		},
		flush: func(r mappedRange) error {
			if f.mapped == 0 {
				return errors.New("flush of unmapped memory")
			}
			if r.Offset < current.Offset || r.Offset+r.Size > current.Offset+current.Size {
				return errors.Newf("flush [%d, %d) outside the mapping", r.Offset, r.Offset+r.Size)
			}
			f.flushed++
			f.flushes = append(f.flushes, r)
			return nil
		},
		unmap: func() {
			f.mapped--
		},
		needsFlush:     needsFlush,
		atom:           atom,
		allocationSize: len(f.memory),
	}
}

func (f *fakeStaging) value() float32 {
	return math.Float32frombits(common.ByteOrder.Uint32(f.memory))
}

func TestStagingTimerAccumulates(t *testing.T) {
	f := &fakeStaging{memory: make([]byte, 16)}
	timer := f.timer(false)

	var last float32
	for i := 0; i < 4; i++ {
		next, err := timer.advance(0.5)
		if err != nil {
			t.Fatalf("advance: %+v", err)
		}
		if next < last {
			t.Fatalf("timer went backwards: %v after %v", next, last)
		}
		last = next
	}

	if f.value() != 2.0 {
		t.Fatalf("timer = %v, want 2.0", f.value())
	}
	if f.mapped != 0 {
		t.Fatalf("left memory mapped")
	}
	if f.flushed != 0 {
		t.Fatalf("flushed coherent memory %d times", f.flushed)
	}
	for _, b := range f.memory[4:] {
		if b != 0 {
			t.Fatalf("wrote past the timer: %x", f.memory)
		}
	}
}

func TestStagingTimerFlushesWhileMapped(t *testing.T) {
	f := &fakeStaging{memory: make([]byte, 4)}
	timer := f.timer(true)

	for i := 0; i < 3; i++ {
		if _, err := timer.advance(1.0 / 60); err != nil {
			t.Fatalf("advance: %+v", err)
		}
	}

	if f.flushed != 3 {
		t.Fatalf("flushed %d times, want 3", f.flushed)
	}
}

func TestStagingTimerMapFailure(t *testing.T) {
	f := &fakeStaging{memory: make([]byte, 4), mapErr: errors.New("memory map failed")}

	if _, err := f.timer(false).advance(1); err == nil {
		t.Fatalf("advance succeeded without a mapping")
	}
}

func TestAtomRange(t *testing.T) {
	cases := []struct {
		name                         string
		offset, size, atom, allocate int
		want                         mappedRange
	}{
		{name: "coherent", offset: 0, size: 4, atom: 1, allocate: 112, want: mappedRange{0, 4}},
		{name: "widened to one atom", offset: 0, size: 4, atom: 64, allocate: 256, want: mappedRange{0, 64}},
		{name: "clipped to the allocation", offset: 0, size: 112, atom: 256, allocate: 112, want: mappedRange{0, 112}},
		{name: "unaligned start", offset: 80, size: 16, atom: 64, allocate: 256, want: mappedRange{64, 64}},
		{name: "spans two atoms", offset: 60, size: 8, atom: 64, allocate: 256, want: mappedRange{0, 128}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := atomRange(c.offset, c.size, c.atom, c.allocate)
			if got != c.want {
				t.Fatalf("atomRange(%d, %d, %d, %d) = %+v, want %+v", c.offset, c.size, c.atom, c.allocate, got, c.want)
			}
			if got.Offset > c.offset || got.Offset+got.Size < c.offset+c.size {
				t.Fatalf("%+v does not cover [%d, %d)", got, c.offset, c.offset+c.size)
			}
			if got.Offset%c.atom != 0 || (got.Size%c.atom != 0 && got.Offset+got.Size != c.allocate) {
				t.Fatalf("%+v is not atom aligned and does not reach the end of the allocation", got)
			}
		})
	}
}

func TestStagingTimerFlushesWholeAtoms(t *testing.T) {
	for _, c := range []struct {
		atom     int
		allocate int
		want     mappedRange
	}{
		{atom: 64, allocate: 128, want: mappedRange{0, 64}},
		{atom: 256, allocate: 128, want: mappedRange{0, 128}},
	} {
		f := &fakeStaging{memory: make([]byte, c.allocate)}
		timer := f.atomTimer(true, c.atom)

		next, err := timer.advance(0.25)
		if err != nil {
			t.Fatalf("atom %d: advance: %+v", c.atom, err)
		}
		if next != 0.25 || f.value() != 0.25 {
			t.Fatalf("atom %d: timer = %v, memory holds %v", c.atom, next, f.value())
		}
		if len(f.flushes) != 1 || f.flushes[0] != c.want {
			t.Fatalf("atom %d: flushed %+v, want [%+v]", c.atom, f.flushes, c.want)
		}
		if f.mappings[0] != c.want {
			t.Fatalf("atom %d: mapped %+v, want %+v", c.atom, f.mappings[0], c.want)
		}
		for _, b := range f.memory[interop.TimerSize:] {
			if b != 0 {
				t.Fatalf("atom %d: wrote past the timer", c.atom)
			}
		}
	}
}

func TestStagingTimerCoherentMapsTimerOnly(t *testing.T) {
	f := &fakeStaging{memory: make([]byte, 128)}

	if _, err := f.atomTimer(false, 64).advance(1); err != nil {
		t.Fatalf("advance: %+v", err)
	}
	if len(f.flushes) != 0 {
		t.Fatalf("flushed coherent memory: %+v", f.flushes)
	}
	if f.mappings[0] != (mappedRange{0, interop.TimerSize}) {
		t.Fatalf("mapped %+v, want the timer only", f.mappings[0])
	}
}

func TestStagingFillRange(t *testing.T) {
	coherent := &Buffers{StagingSize: 256, atom: 64}
	if got := coherent.stagingRange(0, interop.BufferSize); got != (mappedRange{0, interop.BufferSize}) {
		t.Errorf("coherent fill maps %+v", got)
	}

	cached := &Buffers{StagingNeedsFlush: true, StagingSize: interop.BufferSize, atom: 256}
	if got := cached.stagingRange(0, interop.BufferSize); got != (mappedRange{0, interop.BufferSize}) {
		t.Errorf("non-coherent fill maps %+v, want the whole allocation", got)
	}

	padded := &Buffers{StagingNeedsFlush: true, StagingSize: 1024, atom: 64}
	if got := padded.stagingRange(0, interop.BufferSize); got != (mappedRange{0, 128}) {
		t.Errorf("non-coherent fill maps %+v, want two atoms", got)
	}
}
