//go:build windows

package d3d

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"

	"github.com/vkngwrapper/noredirect/interop"
)

const genericAll = 0x10000000

// SwapChain is a composition swap-chain whose back-buffers are exported to
// the Vulkan side. It paces presents with the frame latency waitable and a
// queue fence that fires an event once the present's queue work is done.
type SwapChain struct {
	device *Device

	swapChain uintptr
	waitable  windows.Handle

	fence        uintptr
	fenceValue   uint64
	presentEvent windows.Handle
}

var (
	_ interop.Presenter = (*SwapChain)(nil)
	_ interop.Exporter  = (*SwapChain)(nil)
)

func NewSwapChain(d *Device) (_ *SwapChain, ferr error) {
	s := &SwapChain{device: d}
	defer func() {
		if ferr != nil {
			s.Release()
		}
	}()

	desc := compositionSwapChainDesc()
	var swapChain1 uintptr
	err := comCall(d.factory, vtblCreateSwapChainForComposition, d.queue,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&swapChain1)))
	if err != nil {
		return nil, errors.Wrap(err, "create swap-chain for composition")
	}
	defer release(&swapChain1)

	s.swapChain, err = queryInterface(swapChain1, &iidIDXGISwapChain3)
	if err != nil {
		return nil, errors.Wrap(err, "query IDXGISwapChain3")
	}

	s.waitable = windows.Handle(comCallRaw(s.swapChain, vtblGetFrameLatencyWaitableObject))
	if s.waitable == 0 {
		return nil, errors.New("swap-chain has no frame latency waitable object")
	}

	s.fence, err = d.createFence()
	if err != nil {
		return nil, errors.Wrap(err, "create presentation fence")
	}

	// auto-reset, initially signaled: the first frame has no prior present
	s.presentEvent, err = windows.CreateEvent(nil, 0, 1, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create presentation event")
	}

	return s, nil
}

type backBuffer struct {
	resource uintptr
}

func (b *backBuffer) Release() {
	release(&b.resource)
}

func (s *SwapChain) BackBuffer(index int) (interop.BackBuffer, error) {
	buffer := &backBuffer{}
	err := comCall(s.swapChain, vtblGetBuffer, uintptr(index),
		uintptr(unsafe.Pointer(&iidID3D12Resource)), uintptr(unsafe.Pointer(&buffer.resource)))
	if err != nil {
		return nil, errors.Wrapf(err, "get back-buffer %d", index)
	}

	// GetDesc returns the struct through a hidden pointer
	var desc resourceDesc
	comCallRaw(buffer.resource, vtblResourceGetDesc, uintptr(unsafe.Pointer(&desc)))
	if err := checkBackBuffer(desc); err != nil {
		buffer.Release()
		return nil, errors.Wrapf(err, "back-buffer %d", index)
	}

	return buffer, nil
}

func (s *SwapChain) Share(buffer interop.BackBuffer, name string) (interop.SharedHandle, error) {
	b, ok := buffer.(*backBuffer)
	if !ok {
		return interop.SharedHandle{}, errors.Newf("cannot share a %T", buffer)
	}

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return interop.SharedHandle{}, err
	}

	var handle windows.Handle
	err = comCall(s.device.device, vtblCreateSharedHandle, b.resource, 0, genericAll,
		uintptr(unsafe.Pointer(namePtr)), uintptr(unsafe.Pointer(&handle)))
	if err != nil {
		return interop.SharedHandle{}, errors.Wrapf(err, "create shared handle %s", name)
	}

	return interop.SharedHandle{Name: name, Handle: uintptr(handle)}, nil
}

func (s *SwapChain) CloseShared(handle interop.SharedHandle) error {
	return windows.CloseHandle(windows.Handle(handle.Handle))
}

func (s *SwapChain) WaitForNextFrame() error {
	_, err := windows.WaitForMultipleObjects([]windows.Handle{s.waitable, s.presentEvent}, true, windows.INFINITE)
	if err != nil {
		return errors.Wrap(err, "wait for frame latency and presentation")
	}
	return nil
}

func (s *SwapChain) Present() error {
	if err := comCall(s.swapChain, vtblPresent, 0, 0); err != nil {
		if removed := s.device.RemovedReason(); removed != nil {
			return errors.Wrapf(err, "present (device removed: %v)", removed)
		}
		return errors.Wrap(err, "present")
	}
	return nil
}

func (s *SwapChain) SignalPresented() error {
	next := s.fenceValue + 1
	if err := comCall(s.device.queue, vtblQueueSignal, s.fence, uintptr(next)); err != nil {
		return errors.Wrap(err, "signal presentation fence")
	}
	if err := comCall(s.fence, vtblSetEventOnCompletion, uintptr(next), uintptr(s.presentEvent)); err != nil {
		return errors.Wrap(err, "arm presentation event")
	}
	s.fenceValue = next
	return nil
}

func (s *SwapChain) CurrentBackBufferIndex() int {
	return int(uint32(comCallRaw(s.swapChain, vtblGetCurrentBackBufferIndex)))
}

func (s *SwapChain) WaitPresented() error {
	if _, err := windows.WaitForSingleObject(s.presentEvent, windows.INFINITE); err != nil {
		return errors.Wrap(err, "wait for last present")
	}
	return nil
}

// PresentedValue is the last fence value the presentation queue has reached.
func (s *SwapChain) PresentedValue() uint64 {
	if s.fence == 0 {
		return 0
	}
	return uint64(comCallRaw(s.fence, vtblGetCompletedValue))
}

func (s *SwapChain) Release() {
	if s.presentEvent != 0 {
		windows.CloseHandle(s.presentEvent)
		s.presentEvent = 0
	}
	release(&s.fence)
	if s.waitable != 0 {
		windows.CloseHandle(s.waitable)
		s.waitable = 0
	}
	release(&s.swapChain)
}
