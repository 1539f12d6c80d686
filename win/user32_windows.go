//go:build windows

package win

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procUnregisterClassW = user32.NewProc("UnregisterClassW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procLoadCursorW      = user32.NewProc("LoadCursorW")
)

const (
	wsOverlappedWindow = 0x00CF0000
	wsVisible          = 0x10000000

	wsExAppWindow           = 0x00040000
	wsExOverlappedWindow    = 0x00000300
	wsExNoRedirectionBitmap = 0x00200000

	cwUseDefault = 0x80000000

	csHRedraw = 0x0002
	csVRedraw = 0x0001

	idcArrow = 32512

	wmDestroy = 0x0002
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

func registerClassEx(class *wndClassEx) (uint16, error) {
	atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(class)))
	if atom == 0 {
		return 0, err
	}
	return uint16(atom), nil
}

func unregisterClass(className *uint16, instance windows.Handle) {
	procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(instance))
}

func createWindowEx(exStyle uint32, className, windowName *uint16, style uint32, instance windows.Handle) (windows.HWND, error) {
	hwnd, _, err := procCreateWindowExW.Call(
		uintptr(exStyle),
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		uintptr(style),
		cwUseDefault, cwUseDefault, cwUseDefault, cwUseDefault,
		0, 0,
		uintptr(instance),
		0,
	)
	if hwnd == 0 {
		return 0, err
	}
	return windows.HWND(hwnd), nil
}

func destroyWindow(hwnd windows.HWND) {
	procDestroyWindow.Call(uintptr(hwnd))
}

func defWindowProc(hwnd windows.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	r, _, _ := syscall.SyscallN(procDefWindowProcW.Addr(), uintptr(hwnd), uintptr(msg), wParam, lParam)
	return r
}

func postQuitMessage(code int32) {
	procPostQuitMessage.Call(uintptr(code))
}

func loadArrowCursor() windows.Handle {
	cursor, _, _ := procLoadCursorW.Call(0, idcArrow)
	return windows.Handle(cursor)
}
