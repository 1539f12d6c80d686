package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// renderPassCreateInfo describes the single pass over one shared back-buffer.
// The attachment stays in the general layout across the pass so the
// presenting API can read it without a transition of its own.
func renderPassCreateInfo() core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         ColorFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutGeneral,
				FinalLayout:    core1_0.ImageLayoutGeneral,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: 0,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageBottomOfPipe,
				SrcAccessMask: core1_0.AccessMemoryRead,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,

				DependencyFlags: core1_0.DependencyByRegion,
			},
		},
	}
}

func CreateRenderPass(driver core1_0.DeviceDriver) (core1_0.RenderPass, error) {
	renderPass, _, err := driver.CreateRenderPass(nil, renderPassCreateInfo())
	return renderPass, err
}
