//go:build !windows
// +build !windows

package install

import "syscall"

func ConfigureAsProcessGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
