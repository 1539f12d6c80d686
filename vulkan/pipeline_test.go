package vulkan

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"

	"github.com/vkngwrapper/noredirect/interop"
)

func TestVertexInput(t *testing.T) {
	bindings := vertexBindingDescriptions()
	if len(bindings) != 1 || bindings[0].Stride != 32 || bindings[0].InputRate != core1_0.VertexInputRateVertex {
		t.Fatalf("bindings = %+v", bindings)
	}

	attributes := vertexAttributeDescriptions()
	if len(attributes) != 2 {
		t.Fatalf("attributes = %+v", attributes)
	}
	for i, want := range []int{0, 16} {
		if attributes[i].Location != i || attributes[i].Offset != want || attributes[i].Format != core1_0.FormatR32G32B32A32SignedFloat {
			t.Errorf("attribute %d = %+v", i, attributes[i])
		}
	}
}

func TestGraphicsPipelineState(t *testing.T) {
	info := graphicsPipelineCreateInfo(core1_0.ShaderModule{}, core1_0.ShaderModule{}, core1_0.PipelineLayout{}, core1_0.RenderPass{})

	if info.InputAssemblyState.Topology != core1_0.PrimitiveTopologyTriangleStrip {
		t.Errorf("topology = %v, want triangle strip", info.InputAssemblyState.Topology)
	}
	if info.RasterizationState.CullMode != 0 {
		t.Errorf("cull mode = %v, want none", info.RasterizationState.CullMode)
	}
	if info.RasterizationState.PolygonMode != core1_0.PolygonModeFill || info.RasterizationState.FrontFace != core1_0.FrontFaceCounterClockwise {
		t.Errorf("rasterization = %+v", info.RasterizationState)
	}
	if info.MultisampleState.RasterizationSamples != core1_0.Samples1 {
		t.Errorf("samples = %v", info.MultisampleState.RasterizationSamples)
	}

	viewport := info.ViewportState.Viewports[0]
	if viewport.Width != interop.Width || viewport.Height != interop.Height || viewport.MinDepth != 0 || viewport.MaxDepth != 1 {
		t.Errorf("viewport = %+v", viewport)
	}
	scissor := info.ViewportState.Scissors[0]
	if scissor.Extent.Width != interop.Width || scissor.Extent.Height != interop.Height {
		t.Errorf("scissor = %+v", scissor)
	}

	if len(info.ColorBlendState.Attachments) != 1 {
		t.Fatalf("blend attachments = %d", len(info.ColorBlendState.Attachments))
	}
	blend := info.ColorBlendState.Attachments[0]
	if !blend.BlendEnabled {
		t.Fatalf("blending disabled")
	}
	if blend.SrcColorBlendFactor != core1_0.BlendFactorOne || blend.DstColorBlendFactor != core1_0.BlendFactorOneMinusSrcAlpha || blend.ColorBlendOp != core1_0.BlendOpAdd {
		t.Errorf("color blend = %v %v %v", blend.SrcColorBlendFactor, blend.DstColorBlendFactor, blend.ColorBlendOp)
	}
	if blend.SrcAlphaBlendFactor != core1_0.BlendFactorOne || blend.DstAlphaBlendFactor != core1_0.BlendFactorOneMinusSrcAlpha || blend.AlphaBlendOp != core1_0.BlendOpAdd {
		t.Errorf("alpha blend = %v %v %v", blend.SrcAlphaBlendFactor, blend.DstAlphaBlendFactor, blend.AlphaBlendOp)
	}

	if len(info.Stages) != 2 || info.Stages[0].Stage != core1_0.StageVertex || info.Stages[1].Stage != core1_0.StageFragment {
		t.Errorf("stages = %+v", info.Stages)
	}
	for _, stage := range info.Stages {
		if stage.Name != "main" {
			t.Errorf("entry point %q", stage.Name)
		}
	}
}

func TestRenderPassKeepsGeneralLayout(t *testing.T) {
	info := renderPassCreateInfo()

	if len(info.Attachments) != 1 {
		t.Fatalf("attachments = %d", len(info.Attachments))
	}
	attachment := info.Attachments[0]
	if attachment.Format != ColorFormat || attachment.Samples != core1_0.Samples1 {
		t.Errorf("attachment = %+v", attachment)
	}
	if attachment.LoadOp != core1_0.AttachmentLoadOpClear || attachment.StoreOp != core1_0.AttachmentStoreOpStore {
		t.Errorf("load/store = %v/%v", attachment.LoadOp, attachment.StoreOp)
	}
	if attachment.InitialLayout != core1_0.ImageLayoutGeneral || attachment.FinalLayout != core1_0.ImageLayoutGeneral {
		t.Errorf("layouts = %v -> %v", attachment.InitialLayout, attachment.FinalLayout)
	}

	subpass := info.Subpasses[0]
	if len(subpass.ColorAttachments) != 1 || subpass.ColorAttachments[0].Layout != core1_0.ImageLayoutColorAttachmentOptimal {
		t.Errorf("subpass = %+v", subpass)
	}

	dependency := info.SubpassDependencies[0]
	if dependency.DstStageMask != core1_0.PipelineStageColorAttachmentOutput || dependency.DstAccessMask != core1_0.AccessColorAttachmentWrite {
		t.Errorf("dependency = %+v", dependency)
	}
	if dependency.DependencyFlags != core1_0.DependencyByRegion {
		t.Errorf("dependency flags = %v", dependency.DependencyFlags)
	}
}

func TestSharedImageCreateInfo(t *testing.T) {
	info := sharedImageCreateInfo()

	if info.Extent.Width != interop.Width || info.Extent.Height != interop.Height || info.Extent.Depth != 1 {
		t.Errorf("extent = %+v", info.Extent)
	}
	if info.Format != ColorFormat || info.Tiling != core1_0.ImageTilingOptimal {
		t.Errorf("format/tiling = %v/%v", info.Format, info.Tiling)
	}
	if info.InitialLayout != core1_0.ImageLayoutPreInitialized {
		t.Errorf("initial layout = %v", info.InitialLayout)
	}
	if info.Usage != core1_0.ImageUsageColorAttachment {
		t.Errorf("usage = %v", info.Usage)
	}

	external, ok := info.Next.(core1_1.ExternalMemoryImageCreateInfo)
	if !ok {
		t.Fatalf("next = %T, want external memory info", info.Next)
	}
	if external.HandleTypes != core1_1.ExternalMemoryHandleTypeD3D12Resource {
		t.Errorf("handle types = %v", external.HandleTypes)
	}
}
