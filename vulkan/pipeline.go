package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/noredirect/interop"
	"github.com/vkngwrapper/noredirect/spirv"
)

func vertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    interop.VertexSize,
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func vertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := interop.Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32A32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32A32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

// premultipliedBlend composites a premultiplied source over the destination.
func premultipliedBlend() core1_0.PipelineColorBlendAttachmentState {
	return core1_0.PipelineColorBlendAttachmentState{
		BlendEnabled: true,

		SrcColorBlendFactor: core1_0.BlendFactorOne,
		DstColorBlendFactor: core1_0.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        core1_0.BlendOpAdd,

		SrcAlphaBlendFactor: core1_0.BlendFactorOne,
		DstAlphaBlendFactor: core1_0.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        core1_0.BlendOpAdd,

		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
}

func graphicsPipelineCreateInfo(vertShader, fragShader core1_0.ShaderModule, layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) core1_0.GraphicsPipelineCreateInfo {
	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			{
				Stage:  core1_0.StageVertex,
				Module: vertShader,
				Name:   "main",
			},
			{
				Stage:  core1_0.StageFragment,
				Module: fragShader,
				Name:   "main",
			},
		},
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   vertexBindingDescriptions(),
			VertexAttributeDescriptions: vertexAttributeDescriptions(),
		},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleStrip,
			PrimitiveRestartEnable: false,
		},
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{
				{
					X:        0,
					Y:        0,
					Width:    interop.Width,
					Height:   interop.Height,
					MinDepth: 0,
					MaxDepth: 1,
				},
			},
			Scissors: []core1_0.Rect2D{
				{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: core1_0.Extent2D{Width: interop.Width, Height: interop.Height},
				},
			},
		},
		// No culling: the zero CullMode keeps both windings.
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			FrontFace:   core1_0.FrontFaceCounterClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32{0, 0, 0, 0},
			Attachments:    []core1_0.PipelineColorBlendAttachmentState{premultipliedBlend()},
		},
		Layout:            layout,
		RenderPass:        renderPass,
		Subpass:           0,
		BasePipelineIndex: -1,
	}
}

// Pipeline owns the descriptor set exposing the timer uniform, the layouts
// and the graphics pipeline.
type Pipeline struct {
	driver core1_0.DeviceDriver

	SetLayout      core1_0.DescriptorSetLayout
	DescriptorPool core1_0.DescriptorPool
	DescriptorSet  core1_0.DescriptorSet
	Layout         core1_0.PipelineLayout
	Pipeline       core1_0.Pipeline
}

func CreatePipeline(driver core1_0.DeviceDriver, renderPass core1_0.RenderPass, shaders spirv.Pair, uniformBuffer core1_0.Buffer) (_ *Pipeline, ferr error) {
	p := &Pipeline{driver: driver}
	defer func() {
		if ferr != nil {
			p.Destroy()
		}
	}()

	var err error
	p.SetLayout, _, err = driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}

	p.DescriptorPool, _, err = driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}

	sets, _, err := driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.DescriptorPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{p.SetLayout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor set")
	}
	p.DescriptorSet = sets[0]

	err = driver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          p.DescriptorSet,
			DstBinding:      0,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeUniformBuffer,

			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: uniformBuffer,
					Offset: 0,
					Range:  interop.TimerSize,
				},
			},
		},
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "write descriptor set")
	}

	p.Layout, _, err = driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{p.SetLayout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	vertShader, _, err := driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: shaders.Vertex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer driver.DestroyShaderModule(vertShader, nil)

	fragShader, _, err := driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: shaders.Fragment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer driver.DestroyShaderModule(fragShader, nil)

	pipelines, _, err := driver.CreateGraphicsPipelines(nil, nil, graphicsPipelineCreateInfo(vertShader, fragShader, p.Layout, renderPass))
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	p.Pipeline = pipelines[0]

	return p, nil
}

func (p *Pipeline) Destroy() {
	if p.Pipeline.Initialized() {
		p.driver.DestroyPipeline(p.Pipeline, nil)
		p.Pipeline = core1_0.Pipeline{}
	}

	if p.Layout.Initialized() {
		p.driver.DestroyPipelineLayout(p.Layout, nil)
		p.Layout = core1_0.PipelineLayout{}
	}

	// The set goes away with its pool.
	if p.DescriptorPool.Initialized() {
		p.driver.DestroyDescriptorPool(p.DescriptorPool, nil)
		p.DescriptorPool = core1_0.DescriptorPool{}
	}

	if p.SetLayout.Initialized() {
		p.driver.DestroyDescriptorSetLayout(p.SetLayout, nil)
		p.SetLayout = core1_0.DescriptorSetLayout{}
	}
}
