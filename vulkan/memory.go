package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// memoryTypeFlags flattens the physical device memory types down to the
// property flags, indexed by memory type index.
func memoryTypeFlags(properties *core1_0.PhysicalDeviceMemoryProperties) []core1_0.MemoryPropertyFlags {
	flags := make([]core1_0.MemoryPropertyFlags, 0, len(properties.MemoryTypes))
	for _, memoryType := range properties.MemoryTypes {
		flags = append(flags, memoryType.PropertyFlags)
	}
	return flags
}

func findMemoryType(types []core1_0.MemoryPropertyFlags, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, bool) {
	for i, flags := range types {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (flags&properties) == properties {
			return i, true
		}
	}

	return 0, false
}

// sharedImageMemoryType picks the memory type for an imported back-buffer.
// It must be allowed by the shared handle and by the image, and be device
// local.
func sharedImageMemoryType(types []core1_0.MemoryPropertyFlags, handleTypeBits, imageTypeBits uint32) (int, error) {
	index, ok := findMemoryType(types, handleTypeBits&imageTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if !ok {
		return 0, errors.Newf("no device-local memory type in handle bits %#x and image bits %#x", handleTypeBits, imageTypeBits)
	}
	return index, nil
}

func deviceLocalMemoryType(types []core1_0.MemoryPropertyFlags, typeBits uint32) (int, error) {
	index, ok := findMemoryType(types, typeBits, core1_0.MemoryPropertyDeviceLocal)
	if !ok {
		return 0, errors.Newf("no device-local memory type in bits %#x", typeBits)
	}
	return index, nil
}

// stagingMemoryType picks any host-visible type. Writes through the mapping
// need an explicit flush when the type is cached but not coherent.
func stagingMemoryType(types []core1_0.MemoryPropertyFlags, typeBits uint32) (index int, needsFlush bool, err error) {
	index, ok := findMemoryType(types, typeBits, core1_0.MemoryPropertyHostVisible)
	if !ok {
		return 0, false, errors.Newf("no host-visible memory type in bits %#x", typeBits)
	}

	flags := types[index]
	needsFlush = flags&core1_0.MemoryPropertyHostCached != 0 && flags&core1_0.MemoryPropertyHostCoherent == 0
	return index, needsFlush, nil
}
