package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// recorder is the subset of command recording the upload and frame command
// buffers use.
type recorder interface {
	pipelineBarrier(srcStage, dstStage core1_0.PipelineStageFlags, buffers []core1_0.BufferMemoryBarrier, images []core1_0.ImageMemoryBarrier) error
	copyBuffer(src, dst core1_0.Buffer, region core1_0.BufferCopy) error
	beginRenderPass(info core1_0.RenderPassBeginInfo) error
	bindPipeline(pipeline core1_0.Pipeline)
	bindDescriptorSet(layout core1_0.PipelineLayout, set core1_0.DescriptorSet)
	bindVertexBuffer(buffer core1_0.Buffer, offset int)
	draw(vertexCount, instanceCount int)
	endRenderPass()
}

type commandRecorder struct {
	driver core1_0.DeviceDriver
	buffer core1_0.CommandBuffer
}

func (r commandRecorder) pipelineBarrier(srcStage, dstStage core1_0.PipelineStageFlags, buffers []core1_0.BufferMemoryBarrier, images []core1_0.ImageMemoryBarrier) error {
	return r.driver.CmdPipelineBarrier(r.buffer, srcStage, dstStage, 0, nil, buffers, images)
}

func (r commandRecorder) copyBuffer(src, dst core1_0.Buffer, region core1_0.BufferCopy) error {
	return r.driver.CmdCopyBuffer(r.buffer, src, dst, region)
}

func (r commandRecorder) beginRenderPass(info core1_0.RenderPassBeginInfo) error {
	return r.driver.CmdBeginRenderPass(r.buffer, core1_0.SubpassContentsInline, info)
}

func (r commandRecorder) bindPipeline(pipeline core1_0.Pipeline) {
	r.driver.CmdBindPipeline(r.buffer, core1_0.PipelineBindPointGraphics, pipeline)
}

func (r commandRecorder) bindDescriptorSet(layout core1_0.PipelineLayout, set core1_0.DescriptorSet) {
	r.driver.CmdBindDescriptorSets(r.buffer, core1_0.PipelineBindPointGraphics, layout, 0, []core1_0.DescriptorSet{set}, nil)
}

func (r commandRecorder) bindVertexBuffer(buffer core1_0.Buffer, offset int) {
	r.driver.CmdBindVertexBuffers(r.buffer, 0, []core1_0.Buffer{buffer}, []int{offset})
}

func (r commandRecorder) draw(vertexCount, instanceCount int) {
	r.driver.CmdDraw(r.buffer, vertexCount, instanceCount, 0, 0)
}

func (r commandRecorder) endRenderPass() {
	r.driver.CmdEndRenderPass(r.buffer)
}
