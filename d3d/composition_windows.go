//go:build windows

package d3d

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

// Composition shows a swap-chain on a window created without a redirection
// bitmap: one target for the window, one root visual holding the swap-chain.
type Composition struct {
	device uintptr
	target uintptr
	visual uintptr
}

func NewComposition(hwnd windows.HWND, swapChain *SwapChain) (_ *Composition, ferr error) {
	c := &Composition{}
	defer func() {
		if ferr != nil {
			c.Release()
		}
	}()

	err := procCall(procDCompositionCreateDevice, 0,
		uintptr(unsafe.Pointer(&iidIDCompositionDevice)), uintptr(unsafe.Pointer(&c.device)))
	if err != nil {
		return nil, errors.Wrap(err, "DCompositionCreateDevice")
	}

	// topmost = FALSE
	err = comCall(c.device, vtblCreateTargetForHwnd, uintptr(hwnd), 0, uintptr(unsafe.Pointer(&c.target)))
	if err != nil {
		return nil, errors.Wrap(err, "create composition target")
	}

	if err := comCall(c.device, vtblCreateVisual, uintptr(unsafe.Pointer(&c.visual))); err != nil {
		return nil, errors.Wrap(err, "create root visual")
	}
	if err := comCall(c.visual, vtblSetContent, swapChain.swapChain); err != nil {
		return nil, errors.Wrap(err, "set swap-chain as visual content")
	}
	if err := comCall(c.target, vtblSetRoot, c.visual); err != nil {
		return nil, errors.Wrap(err, "set root visual")
	}
	if err := comCall(c.device, vtblCommit); err != nil {
		return nil, errors.Wrap(err, "commit composition")
	}

	return c, nil
}

func (c *Composition) Release() {
	release(&c.visual)
	release(&c.target)
	release(&c.device)
}
