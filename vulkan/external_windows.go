//go:build windows

package vulkan

import (
	"syscall"
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"golang.org/x/sys/windows"
)

const ExternalMemoryWin32ExtensionName = "VK_KHR_external_memory_win32"

const (
	structureTypeImportMemoryWin32HandleInfo = 1000073000
	structureTypeMemoryWin32HandleProperties = 1000073002
)

var (
	vulkanDLL             = windows.NewLazySystemDLL("vulkan-1.dll")
	procGetDeviceProcAddr = vulkanDLL.NewProc("vkGetDeviceProcAddr")
)

// vkImportMemoryWin32HandleInfoKHR mirrors the C layout.
type vkImportMemoryWin32HandleInfoKHR struct {
	sType      uint32
	pNext      unsafe.Pointer
	handleType uint32
	handle     uintptr
	name       unsafe.Pointer
}

type vkMemoryWin32HandlePropertiesKHR struct {
	sType          uint32
	pNext          unsafe.Pointer
	memoryTypeBits uint32
}

// ImportMemoryWin32HandleInfo chains a Win32 handle import onto a memory
// allocation. Only one of Handle and Name may be set.
type ImportMemoryWin32HandleInfo struct {
	HandleType core1_1.ExternalMemoryHandleTypeFlags
	Handle     uintptr
	Name       string

	common.NextOptions
}

func (o ImportMemoryWin32HandleInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if o.Handle != 0 && o.Name != "" {
		return nil, errors.New("import by handle and by name are exclusive")
	}

	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(int(unsafe.Sizeof(vkImportMemoryWin32HandleInfoKHR{})))
	}

	info := (*vkImportMemoryWin32HandleInfoKHR)(preallocatedPointer)
	info.sType = structureTypeImportMemoryWin32HandleInfo
	info.pNext = next
	info.handleType = uint32(o.HandleType)
	info.handle = o.Handle
	info.name = nil

	if o.Name != "" {
		name, err := windows.UTF16FromString(o.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "encode handle name %q", o.Name)
		}

		namePtr := allocator.Malloc(len(name) * 2)
		copy(unsafe.Slice((*uint16)(namePtr), len(name)), name)
		info.name = namePtr
	}

	return preallocatedPointer, nil
}

type externalMemoryProcs struct {
	device                         uintptr
	getMemoryWin32HandleProperties uintptr
}

func resolveExternalMemoryProcs(device core1_0.Device) (externalMemoryProcs, error) {
	err := procGetDeviceProcAddr.Find()
	if err != nil {
		return externalMemoryProcs{}, errors.Wrap(err, "find vkGetDeviceProcAddr")
	}

	name, err := windows.BytePtrFromString("vkGetMemoryWin32HandlePropertiesKHR")
	if err != nil {
		return externalMemoryProcs{}, err
	}

	handle := uintptr(unsafe.Pointer(device.Handle()))
	proc, _, _ := procGetDeviceProcAddr.Call(handle, uintptr(unsafe.Pointer(name)))
	if proc == 0 {
		return externalMemoryProcs{}, errors.Newf("device does not expose vkGetMemoryWin32HandlePropertiesKHR; is %s enabled?", ExternalMemoryWin32ExtensionName)
	}

	return externalMemoryProcs{
		device:                         handle,
		getMemoryWin32HandleProperties: proc,
	}, nil
}

// memoryTypeBits reports which memory types can import handle.
func (p externalMemoryProcs) memoryTypeBits(handleType core1_1.ExternalMemoryHandleTypeFlags, handle uintptr) (uint32, error) {
	properties := vkMemoryWin32HandlePropertiesKHR{sType: structureTypeMemoryWin32HandleProperties}

	r, _, _ := syscall.SyscallN(p.getMemoryWin32HandleProperties, p.device, uintptr(handleType), handle, uintptr(unsafe.Pointer(&properties)))
	if res := common.VkResult(int32(r)); res != core1_0.VKSuccess {
		return 0, errors.Newf("vkGetMemoryWin32HandlePropertiesKHR: %v", res)
	}

	return properties.memoryTypeBits, nil
}

// importHandleOptions chains the handle import in front of a dedicated
// allocation for image.
func importHandleOptions(handle uintptr, image core1_0.Image) common.Options {
	return ImportMemoryWin32HandleInfo{
		HandleType: core1_1.ExternalMemoryHandleTypeD3D12Resource,
		Handle:     handle,
		NextOptions: common.NextOptions{
			Next: core1_1.MemoryDedicatedAllocateInfo{Image: image},
		},
	}
}
