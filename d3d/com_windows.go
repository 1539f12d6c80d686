//go:build windows

package d3d

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	dxgi  = windows.NewLazySystemDLL("dxgi.dll")
	d3d12 = windows.NewLazySystemDLL("d3d12.dll")
	dcomp = windows.NewLazySystemDLL("dcomp.dll")

	procCreateDXGIFactory2       = dxgi.NewProc("CreateDXGIFactory2")
	procD3D12CreateDevice        = d3d12.NewProc("D3D12CreateDevice")
	procD3D12GetDebugInterface   = d3d12.NewProc("D3D12GetDebugInterface")
	procDCompositionCreateDevice = dcomp.NewProc("DCompositionCreateDevice")
)

var (
	iidIDXGIFactory2       = mustGUID("{50C83A1C-E072-4C48-87B0-3630FA36A6D0}")
	iidIDXGISwapChain3     = mustGUID("{94D99BDB-F1F8-4AB0-B236-7DA0170EDAB1}")
	iidID3D12Device        = mustGUID("{189819F1-1DB6-4B57-BE54-1821339B85F7}")
	iidID3D12Debug         = mustGUID("{344488B7-6846-474B-B989-F027448245E0}")
	iidID3D12CommandQueue  = mustGUID("{0EC870A6-5D7E-4C22-8CFC-5BAAE07616ED}")
	iidID3D12Fence         = mustGUID("{0A753DCF-C4D8-4B91-ADF6-BE5A60D95A76}")
	iidID3D12Resource      = mustGUID("{696442BE-A72E-4059-BC79-5B5C98040FAD}")
	iidIDCompositionDevice = mustGUID("{C37EA93A-E7AA-450D-B16F-9746CB0407F3}")
)

func mustGUID(s string) windows.GUID {
	guid, err := windows.GUIDFromString(s)
	if err != nil {
		panic(err)
	}
	return guid
}

// vtable slots, counted from IUnknown
const (
	vtblQueryInterface = 0
	vtblRelease        = 2

	// IDXGIFactory2
	vtblEnumAdapters1                 = 12
	vtblCreateSwapChainForComposition = 24

	// IDXGIAdapter1
	vtblAdapterGetDesc1 = 10

	// IDXGISwapChain3
	vtblPresent                       = 8
	vtblGetBuffer                     = 9
	vtblGetFrameLatencyWaitableObject = 33
	vtblGetCurrentBackBufferIndex     = 36

	// ID3D12Debug
	vtblEnableDebugLayer = 3

	// ID3D12Device
	vtblCreateCommandQueue     = 8
	vtblCreateSharedHandle     = 31
	vtblCreateFence            = 36
	vtblGetDeviceRemovedReason = 37

	// ID3D12CommandQueue
	vtblQueueSignal = 14

	// ID3D12Fence
	vtblGetCompletedValue    = 8
	vtblSetEventOnCompletion = 9

	// ID3D12Resource
	vtblResourceGetDesc = 10

	// IDCompositionDevice
	vtblCommit              = 3
	vtblCreateTargetForHwnd = 6
	vtblCreateVisual        = 7

	// IDCompositionTarget
	vtblSetRoot = 3

	// IDCompositionVisual
	vtblSetContent = 15
)

const (
	dxgiErrorNotFound      HRESULT = 0x887A0002
	dxgiErrorDeviceRemoved HRESULT = 0x887A0005
	dxgiErrorDeviceHung    HRESULT = 0x887A0006
	dxgiErrorDeviceReset   HRESULT = 0x887A0007
	dxgiErrorInvalidCall   HRESULT = 0x887A0001
	dxgiErrorSDKComponent  HRESULT = 0x887A002D
	eInvalidArg            HRESULT = 0x80070057
	eNoInterface           HRESULT = 0x80004002
	eOutOfMemory           HRESULT = 0x8007000E
	eAccessDenied          HRESULT = 0x80070005
	eFail                  HRESULT = 0x80004005
)

var hresultNames = map[HRESULT]string{
	dxgiErrorNotFound:      "DXGI_ERROR_NOT_FOUND",
	dxgiErrorDeviceRemoved: "DXGI_ERROR_DEVICE_REMOVED",
	dxgiErrorDeviceHung:    "DXGI_ERROR_DEVICE_HUNG",
	dxgiErrorDeviceReset:   "DXGI_ERROR_DEVICE_RESET",
	dxgiErrorInvalidCall:   "DXGI_ERROR_INVALID_CALL",
	dxgiErrorSDKComponent:  "DXGI_ERROR_SDK_COMPONENT_MISSING",
	eInvalidArg:            "E_INVALIDARG",
	eNoInterface:           "E_NOINTERFACE",
	eOutOfMemory:           "E_OUTOFMEMORY",
	eAccessDenied:          "E_ACCESSDENIED",
	eFail:                  "E_FAIL",
}

// HRESULT is a failed COM result.
type HRESULT uint32

func (hr HRESULT) Error() string {
	if name, ok := hresultNames[hr]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(hr))
	}
	return fmt.Sprintf("HRESULT 0x%08X", uint32(hr))
}

func failed(r uintptr) bool {
	return int32(uint32(r)) < 0
}

func comVtblFn(obj uintptr, index int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

// comCallRaw calls a method that does not return an HRESULT.
func comCallRaw(obj uintptr, index int, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(comVtblFn(obj, index), append([]uintptr{obj}, args...)...)
	return r
}

func comCall(obj uintptr, index int, args ...uintptr) error {
	if r := comCallRaw(obj, index, args...); failed(r) {
		return HRESULT(uint32(r))
	}
	return nil
}

func procCall(proc *windows.LazyProc, args ...uintptr) error {
	if err := proc.Find(); err != nil {
		return err
	}
	r, _, _ := syscall.SyscallN(proc.Addr(), args...)
	if failed(r) {
		return HRESULT(uint32(r))
	}
	return nil
}

func release(obj *uintptr) {
	if *obj != 0 {
		comCallRaw(*obj, vtblRelease)
		*obj = 0
	}
}

func queryInterface(obj uintptr, iid *windows.GUID) (uintptr, error) {
	var out uintptr
	if err := comCall(obj, vtblQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out))); err != nil {
		return 0, err
	}
	return out, nil
}
