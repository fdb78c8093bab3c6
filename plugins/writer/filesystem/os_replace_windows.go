//go:build windows

package filesystem

import (
	"syscall"
	"unsafe"
)

const (
	movefileReplaceExisting = 0x1
	movefileWriteThrough    = 0x8
)

var (
	modkernel32     = syscall.NewLazyDLL("kernel32.dll")
	procMoveFileExW = modkernel32.NewProc("MoveFileExW")
)

// osReplace: MoveFileExW(REPLACE_EXISTING|WRITE_THROUGH); os.Rename fails
// on Windows when dest exists and is open elsewhere.
func osReplace(tmpPath, dest string) error {
	from, err := syscall.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := syscall.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	r1, _, e1 := procMoveFileExW.Call(
		uintptr(unsafe.Pointer(from)),
		uintptr(unsafe.Pointer(to)),
		uintptr(movefileReplaceExisting|movefileWriteThrough),
	)
	if r1 != 0 {
		return nil
	}
	if e1 != nil && e1 != syscall.Errno(0) {
		return e1
	}
	return syscall.EINVAL
}

// syncDir: directories cannot be fsynced on Windows.
func syncDir(string) error { return nil }
