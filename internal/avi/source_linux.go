//go:build linux

package avi

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandomAccess disables kernel read-ahead; frame reads jump around the file.
func adviseRandomAccess(file *os.File) {
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_RANDOM)
}
