package interop

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
)

type ledger struct {
	events []string
}

func (l *ledger) add(format string, args ...interface{}) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

type fakeBuffer struct {
	index  int
	ledger *ledger
}

func (b *fakeBuffer) Release() {
	b.ledger.add("release %d", b.index)
}

type fakeExporter struct {
	ledger    *ledger
	failShare int
}

func (e *fakeExporter) BackBuffer(index int) (BackBuffer, error) {
	if index >= BufferCount {
		return nil, errors.Newf("no back-buffer %d", index)
	}
	e.ledger.add("buffer %d", index)
	return &fakeBuffer{index: index, ledger: e.ledger}, nil
}

func (e *fakeExporter) Share(buffer BackBuffer, name string) (SharedHandle, error) {
	index := buffer.(*fakeBuffer).index
	if index == e.failShare {
		return SharedHandle{}, errors.New("access denied")
	}
	e.ledger.add("share %s", name)
	return SharedHandle{Name: name, Handle: uintptr(0x100 + index)}, nil
}

func (e *fakeExporter) CloseShared(handle SharedHandle) error {
	e.ledger.add("close %s", handle.Name)
	return nil
}

type fakeTarget struct {
	handle SharedHandle
	ledger *ledger
}

func (t *fakeTarget) Destroy() {
	t.ledger.add("destroy %s", t.handle.Name)
}

type fakeImporter struct {
	ledger     *ledger
	failImport int
	imported   map[int]SharedHandle
}

func (i *fakeImporter) Import(index int, handle SharedHandle) (RenderTarget, error) {
	if index == i.failImport {
		return nil, errors.New("no compatible memory type")
	}
	if i.imported == nil {
		i.imported = map[int]SharedHandle{}
	}
	i.imported[index] = handle
	i.ledger.add("import %s", handle.Name)
	return &fakeTarget{handle: handle, ledger: i.ledger}, nil
}

func TestSharedHandleName(t *testing.T) {
	if got := SharedHandleName(0); got != "LocalSharedBackBufferResource0" {
		t.Fatalf("SharedHandleName(0) = %q", got)
	}
	if got := SharedHandleName(1); got != "LocalSharedBackBufferResource1" {
		t.Fatalf("SharedHandleName(1) = %q", got)
	}
}

func TestBuildRingPairsIndicesAndNames(t *testing.T) {
	l := &ledger{}
	exporter := &fakeExporter{ledger: l, failShare: -1}
	importer := &fakeImporter{ledger: l, failImport: -1}

	ring, err := BuildRing(BufferCount, exporter, importer)
	if err != nil {
		t.Fatalf("BuildRing: %+v", err)
	}
	if ring.Len() != BufferCount {
		t.Fatalf("Len = %d, want %d", ring.Len(), BufferCount)
	}

	seen := map[uintptr]bool{}
	for i := 0; i < ring.Len(); i++ {
		slot := ring.Slot(i)
		if slot.Index != i {
			t.Fatalf("slot %d has index %d", i, slot.Index)
		}
		if slot.Shared.Name != SharedHandleName(i) {
			t.Fatalf("slot %d shared as %q", i, slot.Shared.Name)
		}
		if importer.imported[i] != slot.Shared {
			t.Fatalf("slot %d imported %+v, exported %+v", i, importer.imported[i], slot.Shared)
		}
		if seen[slot.Shared.Handle] {
			t.Fatalf("handle %x shared by two slots", slot.Shared.Handle)
		}
		seen[slot.Shared.Handle] = true
		if slot.Target.(*fakeTarget).handle != slot.Shared {
			t.Fatalf("slot %d target built from %+v", i, slot.Target.(*fakeTarget).handle)
		}
	}
	if len(ring.Targets()) != BufferCount {
		t.Fatalf("Targets = %d, want %d", len(ring.Targets()), BufferCount)
	}
}

func TestRingDestroyReverseOrder(t *testing.T) {
	l := &ledger{}
	ring, err := BuildRing(BufferCount, &fakeExporter{ledger: l, failShare: -1}, &fakeImporter{ledger: l, failImport: -1})
	if err != nil {
		t.Fatalf("BuildRing: %+v", err)
	}

	l.events = nil
	ring.Destroy()

	want := []string{
		"destroy LocalSharedBackBufferResource1",
		"close LocalSharedBackBufferResource1",
		"release 1",
		"destroy LocalSharedBackBufferResource0",
		"close LocalSharedBackBufferResource0",
		"release 0",
	}
	equalEvents(t, l.events, want)

	if ring.Len() != 0 {
		t.Fatalf("Len after Destroy = %d", ring.Len())
	}
}

func TestBuildRingImportFailureRollsBack(t *testing.T) {
	l := &ledger{}
	ring, err := BuildRing(BufferCount, &fakeExporter{ledger: l, failShare: -1}, &fakeImporter{ledger: l, failImport: 1})
	if err == nil {
		t.Fatalf("BuildRing succeeded with a failing import")
	}
	if ring != nil {
		t.Fatalf("BuildRing returned a ring on failure")
	}

	want := []string{
		"buffer 0",
		"share LocalSharedBackBufferResource0",
		"import LocalSharedBackBufferResource0",
		"buffer 1",
		"share LocalSharedBackBufferResource1",
		"close LocalSharedBackBufferResource1",
		"release 1",
		"destroy LocalSharedBackBufferResource0",
		"close LocalSharedBackBufferResource0",
		"release 0",
	}
	equalEvents(t, l.events, want)
}

func TestBuildRingShareFailureReleasesBuffer(t *testing.T) {
	l := &ledger{}
	_, err := BuildRing(BufferCount, &fakeExporter{ledger: l, failShare: 0}, &fakeImporter{ledger: l, failImport: -1})
	if err == nil {
		t.Fatalf("BuildRing succeeded with a failing share")
	}

	equalEvents(t, l.events, []string{"buffer 0", "release 0"})
}

func TestBuildRingMissingBackBuffer(t *testing.T) {
	l := &ledger{}
	_, err := BuildRing(BufferCount+1, &fakeExporter{ledger: l, failShare: -1}, &fakeImporter{ledger: l, failImport: -1})
	if err == nil {
		t.Fatalf("BuildRing succeeded past the swap-chain buffer count")
	}

	// Both complete slots are torn down again.
	if n := len(l.events); n != 12 {
		t.Fatalf("events = %v", l.events)
	}
}
