package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"

	"github.com/vkngwrapper/noredirect/interop"
)

type mappedRange struct {
	Offset int
	Size   int
}

// atomRange widens [offset, offset+size) to whole non-coherent atoms, clipped
// to the end of the allocation.
func atomRange(offset, size, atom, allocationSize int) mappedRange {
	if atom <= 1 {
		return mappedRange{Offset: offset, Size: size}
	}

	start := offset &^ (atom - 1)
	end := interop.AlignUp(offset+size, atom)
	if end > allocationSize {
		end = allocationSize
	}
	return mappedRange{Offset: start, Size: end - start}
}

// stagingTimer advances the timer uniform in place in mapped staging memory.
type stagingTimer struct {
	mapRange   func(r mappedRange) ([]byte, error)
	flush      func(r mappedRange) error
	unmap      func()
	needsFlush bool

	atom           int
	allocationSize int
}

// timerRange is the mapping that holds the timer. Non-coherent memory is
// mapped and flushed in whole atoms.
func (t stagingTimer) timerRange() mappedRange {
	if !t.needsFlush {
		return mappedRange{Offset: 0, Size: interop.TimerSize}
	}
	return atomRange(0, interop.TimerSize, t.atom, t.allocationSize)
}

func (t stagingTimer) advance(seconds float64) (float32, error) {
	r := t.timerRange()
	mapped, err := t.mapRange(r)
	if err != nil {
		return 0, errors.Wrap(err, "map staging timer")
	}
	defer t.unmap()

	current := math.Float32frombits(common.ByteOrder.Uint32(mapped))
	next := current + float32(seconds)
	common.ByteOrder.PutUint32(mapped, math.Float32bits(next))

	if t.needsFlush {
		err = t.flush(r)
		if err != nil {
			return 0, errors.Wrap(err, "flush staging timer")
		}
	}

	return next, nil
}
