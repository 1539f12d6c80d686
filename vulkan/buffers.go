package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/noredirect/interop"
)

// Buffers holds the device-local buffer read by the pipeline and the
// host-visible staging buffer it is refreshed from. Both carry the timer
// uniform at offset 0 and the triangle at interop.VertexOffset.
type Buffers struct {
	driver core1_0.DeviceDriver

	Device       core1_0.Buffer
	DeviceMemory core1_0.DeviceMemory

	Staging           core1_0.Buffer
	StagingMemory     core1_0.DeviceMemory
	StagingSize       int
	StagingNeedsFlush bool

	atom int
}

func CreateBuffers(d *Device) (_ *Buffers, ferr error) {
	b := &Buffers{driver: d.DeviceDriver, atom: d.Identity.NonCoherentAtomSize}
	defer func() {
		if ferr != nil {
			b.Destroy()
		}
	}()

	var err error
	b.Device, b.DeviceMemory, _, err = createBuffer(d.DeviceDriver, interop.BufferSize,
		core1_0.BufferUsageVertexBuffer|core1_0.BufferUsageUniformBuffer|core1_0.BufferUsageTransferDst,
		func(typeBits uint32) (int, error) {
			return deviceLocalMemoryType(d.MemoryTypes, typeBits)
		})
	if err != nil {
		return nil, errors.Wrap(err, "create device buffer")
	}

	b.Staging, b.StagingMemory, b.StagingSize, err = createBuffer(d.DeviceDriver, interop.BufferSize,
		core1_0.BufferUsageTransferSrc,
		func(typeBits uint32) (int, error) {
			index, needsFlush, err := stagingMemoryType(d.MemoryTypes, typeBits)
			b.StagingNeedsFlush = needsFlush
			return index, err
		})
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}

	contents, err := interop.StagingContents()
	if err != nil {
		return nil, err
	}

	err = b.writeStaging(0, contents)
	if err != nil {
		return nil, errors.Wrap(err, "fill staging buffer")
	}

	return b, nil
}

// createBuffer returns the buffer, its memory and the allocation size.
func createBuffer(driver core1_0.DeviceDriver, size int, usage core1_0.BufferUsageFlags, pickMemory func(typeBits uint32) (int, error)) (core1_0.Buffer, core1_0.DeviceMemory, int, error) {
	buffer, _, err := driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, 0, err
	}

	memRequirements := driver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := pickMemory(memRequirements.MemoryTypeBits)
	if err != nil {
		driver.DestroyBuffer(buffer, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, 0, err
	}

	memory, _, err := driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		driver.DestroyBuffer(buffer, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, 0, err
	}

	_, err = driver.BindBufferMemory(buffer, memory, 0)
	if err != nil {
		driver.DestroyBuffer(buffer, nil)
		driver.FreeMemory(memory, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, 0, err
	}

	return buffer, memory, memRequirements.Size, nil
}

func (b *Buffers) stagingRange(offset, size int) mappedRange {
	if !b.StagingNeedsFlush {
		return mappedRange{Offset: offset, Size: size}
	}
	return atomRange(offset, size, b.atom, b.StagingSize)
}

func (b *Buffers) mapStaging(r mappedRange) ([]byte, error) {
	memoryPtr, _, err := b.driver.MapMemory(b.StagingMemory, r.Offset, r.Size, 0)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(memoryPtr), r.Size), nil
}

func (b *Buffers) flushStaging(r mappedRange) error {
	_, err := b.driver.FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{
			Memory: b.StagingMemory,
			Offset: r.Offset,
			Size:   r.Size,
		},
	})
	return err
}

func (b *Buffers) writeStaging(offset int, data []byte) error {
	r := b.stagingRange(offset, len(data))
	mapped, err := b.mapStaging(r)
	if err != nil {
		return err
	}
	defer b.driver.UnmapMemory(b.StagingMemory)

	copy(mapped[offset-r.Offset:], data)

	if b.StagingNeedsFlush {
		return b.flushStaging(r)
	}
	return nil
}

// timer returns the staging view of the timer uniform.
func (b *Buffers) timer() stagingTimer {
	return stagingTimer{
		mapRange: b.mapStaging,
		flush:    b.flushStaging,
		unmap: func() {
			b.driver.UnmapMemory(b.StagingMemory)
		},
		needsFlush:     b.StagingNeedsFlush,
		atom:           b.atom,
		allocationSize: b.StagingSize,
	}
}

func (b *Buffers) Destroy() {
	if b.Staging.Initialized() {
		b.driver.DestroyBuffer(b.Staging, nil)
		b.Staging = core1_0.Buffer{}
	}

	if b.StagingMemory.Initialized() {
		b.driver.FreeMemory(b.StagingMemory, nil)
		b.StagingMemory = core1_0.DeviceMemory{}
	}

	if b.Device.Initialized() {
		b.driver.DestroyBuffer(b.Device, nil)
		b.Device = core1_0.Buffer{}
	}

	if b.DeviceMemory.Initialized() {
		b.driver.FreeMemory(b.DeviceMemory, nil)
		b.DeviceMemory = core1_0.DeviceMemory{}
	}
}
