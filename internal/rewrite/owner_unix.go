//go:build !windows
// +build !windows

package rewrite

import (
	"os"
	"syscall"
)

// copyOwner keeps the uid/gid of the file being replaced. Failure is ignored,
// an unprivileged caller simply ends up owning the new file.
func copyOwner(f *os.File, info os.FileInfo) {
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		_ = f.Chown(int(sys.Uid), int(sys.Gid))
	}
}
