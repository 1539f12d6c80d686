package vulkan

import (
	"fmt"
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/noredirect/interop"
)

type barrierCall struct {
	srcStage, dstStage core1_0.PipelineStageFlags
	buffers            []core1_0.BufferMemoryBarrier
	images             []core1_0.ImageMemoryBarrier
}

type fakeRecorder struct {
	calls    []string
	barriers []barrierCall
	copies   []core1_0.BufferCopy
	begins   []core1_0.RenderPassBeginInfo

	vertexOffset  int
	vertexCount   int
	instanceCount int
}

func (r *fakeRecorder) pipelineBarrier(srcStage, dstStage core1_0.PipelineStageFlags, buffers []core1_0.BufferMemoryBarrier, images []core1_0.ImageMemoryBarrier) error {
	r.calls = append(r.calls, "barrier")
	r.barriers = append(r.barriers, barrierCall{srcStage: srcStage, dstStage: dstStage, buffers: buffers, images: images})
	return nil
}

func (r *fakeRecorder) copyBuffer(src, dst core1_0.Buffer, region core1_0.BufferCopy) error {
	r.calls = append(r.calls, "copy")
	r.copies = append(r.copies, region)
	return nil
}

func (r *fakeRecorder) beginRenderPass(info core1_0.RenderPassBeginInfo) error {
	r.calls = append(r.calls, "begin")
	r.begins = append(r.begins, info)
	return nil
}

func (r *fakeRecorder) bindPipeline(core1_0.Pipeline) {
	r.calls = append(r.calls, "pipeline")
}

func (r *fakeRecorder) bindDescriptorSet(core1_0.PipelineLayout, core1_0.DescriptorSet) {
	r.calls = append(r.calls, "descriptors")
}

func (r *fakeRecorder) bindVertexBuffer(_ core1_0.Buffer, offset int) {
	r.calls = append(r.calls, "vertices")
	r.vertexOffset = offset
}

func (r *fakeRecorder) draw(vertexCount, instanceCount int) {
	r.calls = append(r.calls, "draw")
	r.vertexCount = vertexCount
	r.instanceCount = instanceCount
}

func (r *fakeRecorder) endRenderPass() {
	r.calls = append(r.calls, "end")
}

func sameCalls(t *testing.T, got, want []string) {
	t.Helper()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestRecordUpload(t *testing.T) {
	rec := &fakeRecorder{}
	images := []core1_0.Image{{}, {}}

	if err := recordUpload(rec, core1_0.Buffer{}, core1_0.Buffer{}, images); err != nil {
		t.Fatalf("recordUpload: %+v", err)
	}

	sameCalls(t, rec.calls, []string{"barrier", "copy", "barrier"})

	if rec.copies[0].Size != interop.BufferSize || rec.copies[0].SrcOffset != 0 || rec.copies[0].DstOffset != 0 {
		t.Fatalf("copy region = %+v, want the whole buffer", rec.copies[0])
	}

	pre := rec.barriers[0]
	if pre.srcStage != core1_0.PipelineStageHost || pre.dstStage != core1_0.PipelineStageTransfer {
		t.Errorf("pre-copy stages = %v -> %v", pre.srcStage, pre.dstStage)
	}
	if pre.buffers[0].SrcAccessMask != core1_0.AccessHostWrite || pre.buffers[0].DstAccessMask != core1_0.AccessTransferRead {
		t.Errorf("staging pre-barrier = %+v", pre.buffers[0])
	}
	if pre.buffers[1].SrcAccessMask != 0 || pre.buffers[1].DstAccessMask != core1_0.AccessTransferWrite {
		t.Errorf("device pre-barrier = %+v", pre.buffers[1])
	}
	if len(pre.images) != 0 {
		t.Errorf("pre-copy barrier transitions %d images", len(pre.images))
	}

	post := rec.barriers[1]
	for i, barrier := range pre.buffers {
		if post.buffers[i].SrcAccessMask != barrier.DstAccessMask || post.buffers[i].DstAccessMask != barrier.SrcAccessMask {
			t.Errorf("post-barrier %d = %+v, want the inverse of %+v", i, post.buffers[i], barrier)
		}
	}
	if len(post.images) != len(images) {
		t.Fatalf("post-copy barrier transitions %d images, want %d", len(post.images), len(images))
	}
	for i, barrier := range post.images {
		if barrier.OldLayout != core1_0.ImageLayoutPreInitialized || barrier.NewLayout != core1_0.ImageLayoutGeneral {
			t.Errorf("image %d: %v -> %v", i, barrier.OldLayout, barrier.NewLayout)
		}
		if barrier.SrcAccessMask != 0 || barrier.DstAccessMask != core1_0.AccessMemoryRead {
			t.Errorf("image %d access = %v -> %v", i, barrier.SrcAccessMask, barrier.DstAccessMask)
		}
		if barrier.SrcQueueFamilyIndex != -1 || barrier.DstQueueFamilyIndex != -1 {
			t.Errorf("image %d transfers queue ownership", i)
		}
	}
}

func TestRecordFrame(t *testing.T) {
	rec := &fakeRecorder{}

	if err := recordFrame(rec, frameResources{}); err != nil {
		t.Fatalf("recordFrame: %+v", err)
	}

	sameCalls(t, rec.calls, []string{
		"barrier", "copy", "barrier",
		"begin", "pipeline", "descriptors", "vertices", "draw", "end",
	})

	if rec.copies[0].Size != interop.TimerSize || rec.copies[0].SrcOffset != 0 || rec.copies[0].DstOffset != 0 {
		t.Errorf("copy region = %+v, want the timer block only", rec.copies[0])
	}

	in := rec.barriers[0]
	if in.dstStage != core1_0.PipelineStageTransfer || in.srcStage&core1_0.PipelineStageHost == 0 {
		t.Errorf("in-barrier stages = %v -> %v", in.srcStage, in.dstStage)
	}
	if in.buffers[1].SrcAccessMask != core1_0.AccessUniformRead || in.buffers[1].DstAccessMask != core1_0.AccessTransferWrite {
		t.Errorf("device in-barrier = %+v", in.buffers[1])
	}
	for _, barrier := range append(in.buffers, rec.barriers[1].buffers...) {
		if barrier.Offset != 0 || barrier.Size != interop.TimerSize {
			t.Errorf("barrier covers [%d, %d), want the timer block", barrier.Offset, barrier.Offset+barrier.Size)
		}
	}

	out := rec.barriers[1]
	if out.srcStage != core1_0.PipelineStageTransfer || out.dstStage&core1_0.PipelineStageVertexShader == 0 {
		t.Errorf("out-barrier stages = %v -> %v", out.srcStage, out.dstStage)
	}
	if out.buffers[1].SrcAccessMask != core1_0.AccessTransferWrite || out.buffers[1].DstAccessMask != core1_0.AccessUniformRead {
		t.Errorf("device out-barrier = %+v", out.buffers[1])
	}

	begin := rec.begins[0]
	if begin.RenderArea.Extent.Width != interop.Width || begin.RenderArea.Extent.Height != interop.Height {
		t.Errorf("render area = %+v", begin.RenderArea)
	}
	if len(begin.ClearValues) != 1 || begin.ClearValues[0] != (core1_0.ClearValueFloat{0, 0, 0, 0}) {
		t.Errorf("clear values = %v, want transparent black", begin.ClearValues)
	}

	if rec.vertexOffset != interop.VertexOffset {
		t.Errorf("vertex offset = %d, want %d", rec.vertexOffset, interop.VertexOffset)
	}
	if rec.vertexCount != 3 || rec.instanceCount != 1 {
		t.Errorf("draw(%d, %d), want draw(3, 1)", rec.vertexCount, rec.instanceCount)
	}
}
