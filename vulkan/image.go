package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"

	"github.com/vkngwrapper/noredirect/interop"
)

const ColorFormat = core1_0.FormatR8G8B8A8UnsignedNormalized

var colorSubresourceRange = core1_0.ImageSubresourceRange{
	AspectMask:     core1_0.ImageAspectColor,
	BaseMipLevel:   0,
	LevelCount:     1,
	BaseArrayLayer: 0,
	LayerCount:     1,
}

// SharedTarget is one imported back-buffer: image, bound memory, view and
// framebuffer.
type SharedTarget struct {
	driver core1_0.DeviceDriver

	image       core1_0.Image
	memory      core1_0.DeviceMemory
	view        core1_0.ImageView
	framebuffer core1_0.Framebuffer
}

func (t *SharedTarget) Image() core1_0.Image {
	return t.image
}

func (t *SharedTarget) Framebuffer() core1_0.Framebuffer {
	return t.framebuffer
}

func (t *SharedTarget) Destroy() {
	if t.framebuffer.Initialized() {
		t.driver.DestroyFramebuffer(t.framebuffer, nil)
		t.framebuffer = core1_0.Framebuffer{}
	}

	if t.view.Initialized() {
		t.driver.DestroyImageView(t.view, nil)
		t.view = core1_0.ImageView{}
	}

	if t.image.Initialized() {
		t.driver.DestroyImage(t.image, nil)
		t.image = core1_0.Image{}
	}

	if t.memory.Initialized() {
		t.driver.FreeMemory(t.memory, nil)
		t.memory = core1_0.DeviceMemory{}
	}
}

// SharedImageImporter imports exported back-buffers as color attachments of
// renderPass.
type SharedImageImporter struct {
	Device     *Device
	RenderPass core1_0.RenderPass
}

func sharedImageCreateInfo() core1_0.ImageCreateInfo {
	return core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  interop.Width,
			Height: interop.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        ColorFormat,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutPreInitialized,
		Usage:         core1_0.ImageUsageColorAttachment,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,

		NextOptions: common.NextOptions{
			Next: core1_1.ExternalMemoryImageCreateInfo{
				HandleTypes: core1_1.ExternalMemoryHandleTypeD3D12Resource,
			},
		},
	}
}

func (i *SharedImageImporter) Import(index int, shared interop.SharedHandle) (target interop.RenderTarget, ferr error) {
	driver := i.Device.DeviceDriver
	t := &SharedTarget{driver: driver}
	defer func() {
		if ferr != nil {
			t.Destroy()
		}
	}()

	var err error
	t.image, _, err = driver.CreateImage(nil, sharedImageCreateInfo())
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}

	memReqs := driver.GetImageMemoryRequirements(t.image)
	handleTypeBits, err := i.Device.external.memoryTypeBits(core1_1.ExternalMemoryHandleTypeD3D12Resource, shared.Handle)
	if err != nil {
		return nil, errors.Wrapf(err, "query memory types for %s", shared.Name)
	}

	memoryIndex, err := sharedImageMemoryType(i.Device.MemoryTypes, handleTypeBits, memReqs.MemoryTypeBits)
	if err != nil {
		return nil, err
	}

	t.memory, _, err = driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
		NextOptions: common.NextOptions{
			Next: importHandleOptions(shared.Handle, t.image),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", shared.Name)
	}

	_, err = driver.BindImageMemory(t.image, t.memory, 0)
	if err != nil {
		return nil, errors.Wrap(err, "bind image memory")
	}

	t.view, _, err = driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    t.image,
		ViewType: core1_0.ImageViewType2D,
		Format:   ColorFormat,
		Components: core1_0.ComponentMapping{
			R: core1_0.ComponentSwizzleIdentity,
			G: core1_0.ComponentSwizzleIdentity,
			B: core1_0.ComponentSwizzleIdentity,
			A: core1_0.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresourceRange,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}

	t.framebuffer, _, err = driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  i.RenderPass,
		Layers:      1,
		Attachments: []core1_0.ImageView{t.view},
		Width:       interop.Width,
		Height:      interop.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}

	return t, nil
}

// SharedTargets narrows ring targets back to the imported images.
func SharedTargets(targets []interop.RenderTarget) ([]*SharedTarget, error) {
	shared := make([]*SharedTarget, 0, len(targets))
	for i, target := range targets {
		t, ok := target.(*SharedTarget)
		if !ok {
			return nil, errors.Newf("render target %d is %T, not an imported image", i, target)
		}
		shared = append(shared, t)
	}
	return shared, nil
}
