//go:build windows

package d3d

import (
	"log"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

const (
	dxgiCreateFactoryDebug = 0x1
	d3dFeatureLevel11_0    = 0xb000

	d3d12CommandListTypeDirect = 0
)

type commandQueueDesc struct {
	Type     uint32
	Priority int32
	Flags    uint32
	NodeMask uint32
}

type adapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLuid           windows.LUID
	Flags                 uint32
}

// Device owns the DXGI factory, the adapter the D3D12 device was created on
// and its direct command queue.
type Device struct {
	factory uintptr
	adapter uintptr
	device  uintptr
	queue   uintptr

	Name string
	luid uint64
}

// NewDevice creates a D3D12 device on adapter 0. debug enables the D3D12
// debug layer and a debug DXGI factory.
func NewDevice(debug bool) (_ *Device, ferr error) {
	d := &Device{}
	defer func() {
		if ferr != nil {
			d.Release()
		}
	}()

	var factoryFlags uintptr
	if debug {
		if err := enableDebugLayer(); err != nil {
			return nil, errors.Wrap(err, "enable d3d12 debug layer")
		}
		factoryFlags = dxgiCreateFactoryDebug
	}

	err := procCall(procCreateDXGIFactory2, factoryFlags,
		uintptr(unsafe.Pointer(&iidIDXGIFactory2)), uintptr(unsafe.Pointer(&d.factory)))
	if err != nil {
		return nil, errors.Wrap(err, "CreateDXGIFactory2")
	}

	err = comCall(d.factory, vtblEnumAdapters1, 0, uintptr(unsafe.Pointer(&d.adapter)))
	if err != nil {
		return nil, errors.Wrap(err, "enumerate adapter 0")
	}

	var desc adapterDesc1
	if err := comCall(d.adapter, vtblAdapterGetDesc1, uintptr(unsafe.Pointer(&desc))); err != nil {
		return nil, errors.Wrap(err, "describe adapter 0")
	}
	d.Name = windows.UTF16ToString(desc.Description[:])
	d.luid = packLUID(desc.AdapterLuid.LowPart, desc.AdapterLuid.HighPart)

	err = procCall(procD3D12CreateDevice, d.adapter, d3dFeatureLevel11_0,
		uintptr(unsafe.Pointer(&iidID3D12Device)), uintptr(unsafe.Pointer(&d.device)))
	if err != nil {
		return nil, errors.Wrap(err, "D3D12CreateDevice")
	}

	queueDesc := commandQueueDesc{Type: d3d12CommandListTypeDirect}
	err = comCall(d.device, vtblCreateCommandQueue, uintptr(unsafe.Pointer(&queueDesc)),
		uintptr(unsafe.Pointer(&iidID3D12CommandQueue)), uintptr(unsafe.Pointer(&d.queue)))
	if err != nil {
		return nil, errors.Wrap(err, "create direct command queue")
	}

	log.Printf("presenting on %s (LUID %#016x)", d.Name, d.luid)
	return d, nil
}

func enableDebugLayer() error {
	var debug uintptr
	err := procCall(procD3D12GetDebugInterface, uintptr(unsafe.Pointer(&iidID3D12Debug)), uintptr(unsafe.Pointer(&debug)))
	if err != nil {
		return err
	}
	defer release(&debug)

	comCallRaw(debug, vtblEnableDebugLayer)
	return nil
}

// AdapterLUID identifies the adapter so the Vulkan side can pick the same GPU.
func (d *Device) AdapterLUID() uint64 {
	return d.luid
}

// RemovedReason is nil while the device is alive.
func (d *Device) RemovedReason() error {
	if d.device == 0 {
		return nil
	}
	return comCall(d.device, vtblGetDeviceRemovedReason)
}

func (d *Device) createFence() (uintptr, error) {
	var fence uintptr
	err := comCall(d.device, vtblCreateFence, 0, 0,
		uintptr(unsafe.Pointer(&iidID3D12Fence)), uintptr(unsafe.Pointer(&fence)))
	return fence, err
}

func (d *Device) Release() {
	release(&d.queue)
	release(&d.device)
	release(&d.adapter)
	release(&d.factory)
}
