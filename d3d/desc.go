// Package d3d drives the presenting side: a D3D12 device and queue, a
// composition swap-chain whose back-buffers are exported as named NT handles,
// and the DirectComposition tree that puts the swap-chain on a window.
package d3d

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/noredirect/interop"
)

const (
	dxgiFormatR8G8B8A8Unorm = 28

	dxgiUsageRenderTargetOutput = 0x20

	dxgiScalingStretch           = 0
	dxgiSwapEffectFlipDiscard    = 4
	dxgiAlphaModePremultiplied   = 1
	dxgiSwapChainFlagLatencyWait = 0x40

	d3d12ResourceDimensionTexture2D = 3
)

type sampleDesc struct {
	Count   uint32
	Quality uint32
}

// swapChainDesc1 matches DXGI_SWAP_CHAIN_DESC1.
type swapChainDesc1 struct {
	Width       uint32
	Height      uint32
	Format      uint32
	Stereo      int32
	SampleDesc  sampleDesc
	BufferUsage uint32
	BufferCount uint32
	Scaling     uint32
	SwapEffect  uint32
	AlphaMode   uint32
	Flags       uint32
}

// resourceDesc matches D3D12_RESOURCE_DESC.
type resourceDesc struct {
	Dimension        uint32
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           uint32
	SampleDesc       sampleDesc
	Layout           uint32
	Flags            uint32
}

func compositionSwapChainDesc() swapChainDesc1 {
	return swapChainDesc1{
		Width:       interop.Width,
		Height:      interop.Height,
		Format:      dxgiFormatR8G8B8A8Unorm,
		Stereo:      0,
		SampleDesc:  sampleDesc{Count: 1, Quality: 0},
		BufferUsage: dxgiUsageRenderTargetOutput,
		BufferCount: interop.BufferCount,
		Scaling:     dxgiScalingStretch,
		SwapEffect:  dxgiSwapEffectFlipDiscard,
		AlphaMode:   dxgiAlphaModePremultiplied,
		Flags:       dxgiSwapChainFlagLatencyWait,
	}
}

// checkBackBuffer verifies a back-buffer matches what the importing side
// creates its image with.
func checkBackBuffer(desc resourceDesc) error {
	switch {
	case desc.Dimension != d3d12ResourceDimensionTexture2D:
		return errors.Newf("back-buffer dimension %d, want a 2D texture", desc.Dimension)
	case desc.Width != interop.Width || desc.Height != interop.Height:
		return errors.Newf("back-buffer is %dx%d, want %dx%d", desc.Width, desc.Height, interop.Width, interop.Height)
	case desc.Format != dxgiFormatR8G8B8A8Unorm:
		return errors.Newf("back-buffer format %d, want R8G8B8A8_UNORM", desc.Format)
	case desc.MipLevels != 1 || desc.DepthOrArraySize != 1:
		return errors.Newf("back-buffer has %d mips and %d layers, want 1 and 1", desc.MipLevels, desc.DepthOrArraySize)
	case desc.SampleDesc.Count != 1:
		return errors.Newf("back-buffer has %d samples, want 1", desc.SampleDesc.Count)
	}
	return nil
}

// packLUID lays a LUID out the way it appears in memory, which is how the
// Vulkan side reports device LUIDs.
func packLUID(low uint32, high int32) uint64 {
	return uint64(uint32(high))<<32 | uint64(low)
}
