//go:build !windows

package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
)

const ExternalMemoryWin32ExtensionName = "VK_KHR_external_memory_win32"

var errNoWin32Handles = errors.New("win32 handle import is only available on windows")

type externalMemoryProcs struct{}

func resolveExternalMemoryProcs(core1_0.Device) (externalMemoryProcs, error) {
	return externalMemoryProcs{}, errNoWin32Handles
}

func (externalMemoryProcs) memoryTypeBits(core1_1.ExternalMemoryHandleTypeFlags, uintptr) (uint32, error) {
	return 0, errNoWin32Handles
}

func importHandleOptions(uintptr, core1_0.Image) common.Options {
	return nil
}
