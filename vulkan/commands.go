package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/noredirect/interop"
)

func bufferBarrier(buffer core1_0.Buffer, size int, srcAccess, dstAccess core1_0.AccessFlags) core1_0.BufferMemoryBarrier {
	return core1_0.BufferMemoryBarrier{
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: -1,
		DstQueueFamilyIndex: -1,
		Buffer:              buffer,
		Offset:              0,
		Size:                size,
	}
}

// recordUpload copies the whole staging buffer to the device buffer and moves
// every shared image from the preinitialized to the general layout.
func recordUpload(rec recorder, staging, device core1_0.Buffer, images []core1_0.Image) error {
	err := rec.pipelineBarrier(core1_0.PipelineStageHost, core1_0.PipelineStageTransfer,
		[]core1_0.BufferMemoryBarrier{
			bufferBarrier(staging, interop.BufferSize, core1_0.AccessHostWrite, core1_0.AccessTransferRead),
			bufferBarrier(device, interop.BufferSize, 0, core1_0.AccessTransferWrite),
		}, nil)
	if err != nil {
		return err
	}

	err = rec.copyBuffer(staging, device, core1_0.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      interop.BufferSize,
	})
	if err != nil {
		return err
	}

	imageBarriers := make([]core1_0.ImageMemoryBarrier, 0, len(images))
	for _, image := range images {
		imageBarriers = append(imageBarriers, core1_0.ImageMemoryBarrier{
			OldLayout:           core1_0.ImageLayoutPreInitialized,
			NewLayout:           core1_0.ImageLayoutGeneral,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange:    colorSubresourceRange,
			SrcAccessMask:       0,
			DstAccessMask:       core1_0.AccessMemoryRead,
		})
	}

	return rec.pipelineBarrier(core1_0.PipelineStageTransfer|core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageHost|core1_0.PipelineStageAllCommands,
		[]core1_0.BufferMemoryBarrier{
			bufferBarrier(staging, interop.BufferSize, core1_0.AccessTransferRead, core1_0.AccessHostWrite),
			bufferBarrier(device, interop.BufferSize, core1_0.AccessTransferWrite, 0),
		}, imageBarriers)
}

// frameResources is everything one pre-recorded frame refers to.
type frameResources struct {
	staging       core1_0.Buffer
	device        core1_0.Buffer
	renderPass    core1_0.RenderPass
	framebuffer   core1_0.Framebuffer
	pipeline      core1_0.Pipeline
	layout        core1_0.PipelineLayout
	descriptorSet core1_0.DescriptorSet
}

// recordFrame refreshes the timer uniform from staging and draws the
// triangle into one shared back-buffer.
func recordFrame(rec recorder, f frameResources) error {
	err := rec.pipelineBarrier(core1_0.PipelineStageHost|core1_0.PipelineStageVertexShader, core1_0.PipelineStageTransfer,
		[]core1_0.BufferMemoryBarrier{
			bufferBarrier(f.staging, interop.TimerSize, core1_0.AccessHostWrite, core1_0.AccessTransferRead),
			bufferBarrier(f.device, interop.TimerSize, core1_0.AccessUniformRead, core1_0.AccessTransferWrite),
		}, nil)
	if err != nil {
		return err
	}

	err = rec.copyBuffer(f.staging, f.device, core1_0.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      interop.TimerSize,
	})
	if err != nil {
		return err
	}

	err = rec.pipelineBarrier(core1_0.PipelineStageTransfer, core1_0.PipelineStageVertexShader|core1_0.PipelineStageHost,
		[]core1_0.BufferMemoryBarrier{
			bufferBarrier(f.staging, interop.TimerSize, core1_0.AccessTransferRead, core1_0.AccessHostWrite),
			bufferBarrier(f.device, interop.TimerSize, core1_0.AccessTransferWrite, core1_0.AccessUniformRead),
		}, nil)
	if err != nil {
		return err
	}

	err = rec.beginRenderPass(core1_0.RenderPassBeginInfo{
		RenderPass:  f.renderPass,
		Framebuffer: f.framebuffer,
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: core1_0.Extent2D{Width: interop.Width, Height: interop.Height},
		},
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat{0, 0, 0, 0},
		},
	})
	if err != nil {
		return err
	}

	rec.bindPipeline(f.pipeline)
	rec.bindDescriptorSet(f.layout, f.descriptorSet)
	rec.bindVertexBuffer(f.device, interop.VertexOffset)
	rec.draw(len(interop.Triangle), 1)
	rec.endRenderPass()

	return nil
}

// CommandBuffers holds one pre-recorded frame per shared back-buffer,
// indexed like the swap-chain.
type CommandBuffers struct {
	driver core1_0.DeviceDriver

	Pool    core1_0.CommandPool
	Buffers []core1_0.CommandBuffer
}

func RecordCommandBuffers(d *Device, buffers *Buffers, pipeline *Pipeline, renderPass core1_0.RenderPass, targets []*SharedTarget) (_ *CommandBuffers, ferr error) {
	c := &CommandBuffers{driver: d.DeviceDriver}
	defer func() {
		if ferr != nil {
			c.Destroy()
		}
	}()

	var err error
	c.Pool, _, err = d.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.QueueFamily,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}

	c.Buffers, _, err = d.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        c.Pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(targets),
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	for i, buffer := range c.Buffers {
		_, err = d.DeviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
		if err != nil {
			return nil, errors.Wrapf(err, "begin command buffer %d", i)
		}

		err = recordFrame(commandRecorder{driver: d.DeviceDriver, buffer: buffer}, frameResources{
			staging:       buffers.Staging,
			device:        buffers.Device,
			renderPass:    renderPass,
			framebuffer:   targets[i].Framebuffer(),
			pipeline:      pipeline.Pipeline,
			layout:        pipeline.Layout,
			descriptorSet: pipeline.DescriptorSet,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "record command buffer %d", i)
		}

		_, err = d.DeviceDriver.EndCommandBuffer(buffer)
		if err != nil {
			return nil, errors.Wrapf(err, "end command buffer %d", i)
		}
	}

	return c, nil
}

// Destroy frees the buffers together with their pool.
func (c *CommandBuffers) Destroy() {
	if c.Pool.Initialized() {
		c.driver.DestroyCommandPool(c.Pool, nil)
		c.Pool = core1_0.CommandPool{}
	}
	c.Buffers = nil
}
