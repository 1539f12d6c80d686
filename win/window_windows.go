//go:build windows

// Package win creates the window the swap-chain is composed onto and pumps
// its messages through SDL.
package win

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sys/windows"
)

const (
	ClassName = "jp.ct2.experimental.vkNoRedirectRender"
	Title     = "vkNoRedirectRender"
)

var wndProcCallback = windows.NewCallback(wndProc)

func wndProc(hwnd windows.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == wmDestroy {
		postQuitMessage(0)
		return 0
	}
	return defWindowProc(hwnd, msg, wParam, lParam)
}

// Window is an overlapped window without a redirection bitmap, so nothing
// shows until a composition tree is committed for it.
type Window struct {
	instance  windows.Handle
	className *uint16
	hwnd      windows.HWND
	sdl       *sdl.Window

	quit bool
}

func NewWindow() (_ *Window, ferr error) {
	w := &Window{}
	defer func() {
		if ferr != nil {
			w.Destroy()
		}
	}()

	if err := windows.GetModuleHandleEx(0, nil, &w.instance); err != nil {
		return nil, errors.Wrap(err, "get module handle")
	}

	var err error
	w.className, err = windows.UTF16PtrFromString(ClassName)
	if err != nil {
		return nil, err
	}
	title, err := windows.UTF16PtrFromString(Title)
	if err != nil {
		return nil, err
	}

	class := wndClassEx{
		Style:     csHRedraw | csVRedraw,
		WndProc:   wndProcCallback,
		Instance:  w.instance,
		Cursor:    loadArrowCursor(),
		ClassName: w.className,
	}
	class.Size = uint32(unsafe.Sizeof(class))
	if _, err := registerClassEx(&class); err != nil {
		w.className = nil
		return nil, errors.Wrap(err, "register window class")
	}

	w.hwnd, err = createWindowEx(
		wsExAppWindow|wsExOverlappedWindow|wsExNoRedirectionBitmap,
		w.className, title,
		wsOverlappedWindow|wsVisible,
		w.instance,
	)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}
	w.sdl, err = sdl.CreateWindowFrom(unsafe.Pointer(w.hwnd))
	if err != nil {
		return nil, errors.Wrap(err, "wrap window for sdl")
	}

	return w, nil
}

func (w *Window) HWND() windows.HWND {
	return w.hwnd
}

// Pump drains pending messages without blocking and reports whether the
// window asked to quit.
func (w *Window) Pump() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.quit = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE {
				w.quit = true
			}
		}
	}
	return w.quit
}

func (w *Window) Destroy() {
	if w.sdl != nil {
		w.sdl.Destroy()
		w.sdl = nil
	}
	if w.hwnd != 0 {
		destroyWindow(w.hwnd)
		w.hwnd = 0
	}
	if w.className != nil {
		unregisterClass(w.className, w.instance)
		w.className = nil
	}
	sdl.Quit()
}
