package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// UploadInitial copies the staging contents to the device buffer and puts
// every shared image in the general layout. It blocks until the queue is done
// and leaves no command objects behind.
func UploadInitial(d *Device, buffers *Buffers, targets []*SharedTarget) error {
	driver := d.DeviceDriver

	pool, _, err := driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.QueueFamily,
		Flags:            core1_0.CommandPoolCreateTransient,
	})
	if err != nil {
		return errors.Wrap(err, "create transient command pool")
	}
	defer driver.DestroyCommandPool(pool, nil)

	commandBuffers, _, err := driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate upload command buffer")
	}
	buffer := commandBuffers[0]
	defer driver.FreeCommandBuffers(buffer)

	_, err = driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "begin upload command buffer")
	}

	images := make([]core1_0.Image, 0, len(targets))
	for _, target := range targets {
		images = append(images, target.Image())
	}

	err = recordUpload(commandRecorder{driver: driver, buffer: buffer}, buffers.Staging, buffers.Device, images)
	if err != nil {
		return errors.Wrap(err, "record upload")
	}

	_, err = driver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Wrap(err, "end upload command buffer")
	}

	fence, _, err := driver.CreateFence(nil, core1_0.FenceCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create upload fence")
	}
	defer driver.DestroyFence(fence, nil)

	_, err = driver.QueueSubmit(d.Queue, &fence, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{buffer},
	})
	if err != nil {
		return errors.Wrap(err, "submit upload")
	}

	_, err = driver.WaitForFences(true, common.NoTimeout, fence)
	if err != nil {
		return errors.Wrap(err, "wait for upload")
	}

	return nil
}
