// +build linux

package logger

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func currentCPU() uint32 {
	var cpu, node uint32
	_, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return 0
	}
	return cpu
}
