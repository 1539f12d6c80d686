package interop

import (
	"fmt"
	"log"

	"github.com/cockroachdb/errors"
)

const sharedHandlePrefix = "LocalSharedBackBufferResource"

// SharedHandleName is the NT handle name used for back-buffer index on both
// sides of the import. It is stable for the lifetime of the process.
func SharedHandleName(index int) string {
	return fmt.Sprintf("%s%d", sharedHandlePrefix, index)
}

// BackBuffer is a swap-chain buffer owned by the presenting API.
type BackBuffer interface {
	Release()
}

// SharedHandle is a named NT handle exported for one back-buffer.
type SharedHandle struct {
	Name   string
	Handle uintptr
}

// Exporter hands out swap-chain back-buffers and shares them as named NT handles.
type Exporter interface {
	BackBuffer(index int) (BackBuffer, error)
	Share(buffer BackBuffer, name string) (SharedHandle, error)
	CloseShared(handle SharedHandle) error
}

// RenderTarget is everything the rendering API derives from one shared
// handle: the imported image and its memory, a view and a framebuffer.
type RenderTarget interface {
	Destroy()
}

// Importer turns a shared handle into a render target. A failed Import must
// leave nothing behind.
type Importer interface {
	Import(index int, handle SharedHandle) (RenderTarget, error)
}

// Slot is one back-buffer together with everything derived from it.
type Slot struct {
	Index  int
	Buffer BackBuffer
	Shared SharedHandle
	Target RenderTarget
}

// Ring owns the shared back-buffer slots.
type Ring struct {
	exporter Exporter
	slots    []*Slot
}

// BuildRing constructs count slots in index order. Each slot is built
// atomically; on any failure every piece built so far is released in reverse
// order and no ring is returned.
func BuildRing(count int, exporter Exporter, importer Importer) (*Ring, error) {
	ring := &Ring{exporter: exporter}

	for i := 0; i < count; i++ {
		slot, err := buildSlot(i, exporter, importer)
		if err != nil {
			ring.Destroy()
			return nil, err
		}

		ring.slots = append(ring.slots, slot)
	}

	return ring, nil
}

func buildSlot(index int, exporter Exporter, importer Importer) (slot *Slot, ferr error) {
	buffer, err := exporter.BackBuffer(index)
	if err != nil {
		return nil, errors.Wrapf(err, "get back-buffer %d", index)
	}
	defer func() {
		if ferr != nil {
			buffer.Release()
		}
	}()

	shared, err := exporter.Share(buffer, SharedHandleName(index))
	if err != nil {
		return nil, errors.Wrapf(err, "share back-buffer %d", index)
	}
	defer func() {
		if ferr != nil {
			if err := exporter.CloseShared(shared); err != nil {
				log.Printf("close shared handle %s: %v", shared.Name, err)
			}
		}
	}()

	target, err := importer.Import(index, shared)
	if err != nil {
		return nil, errors.Wrapf(err, "import back-buffer %d", index)
	}

	return &Slot{
		Index:  index,
		Buffer: buffer,
		Shared: shared,
		Target: target,
	}, nil
}

// Len returns the number of slots.
func (r *Ring) Len() int {
	return len(r.slots)
}

// Slot returns the slot for back-buffer index.
func (r *Ring) Slot(index int) *Slot {
	return r.slots[index]
}

// Targets returns the render targets in back-buffer order.
func (r *Ring) Targets() []RenderTarget {
	targets := make([]RenderTarget, 0, len(r.slots))
	for _, slot := range r.slots {
		targets = append(targets, slot.Target)
	}
	return targets
}

// Destroy tears the slots down in reverse construction order. The imported
// memory goes first, then the NT handle, then the back-buffer itself.
func (r *Ring) Destroy() {
	for i := len(r.slots) - 1; i >= 0; i-- {
		slot := r.slots[i]

		slot.Target.Destroy()
		if err := r.exporter.CloseShared(slot.Shared); err != nil {
			log.Printf("close shared handle %s: %v", slot.Shared.Name, err)
		}
		slot.Buffer.Release()
	}
	r.slots = nil
}
