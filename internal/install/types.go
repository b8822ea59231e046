package install

import (
	"context"
	"errors"
	"strings"
)

// ErrPrecheck is returned when the host is not fit to be provisioned. It is
// the only error that aborts a setup run.
var ErrPrecheck = errors.New("precheck failed")

type Command struct {
	Name string
	Args []string
	Env  []string
	// Stdin is fed to the process when not empty.
	Stdin string
	// Detach starts the process in its own process group and does not wait for it.
	Detach bool
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Name}, c.Args...) {
		if strings.ContainsAny(p, " \t\"'") {
			p = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

type Runner interface {
	// Run executes cmd and returns its standard output.
	Run(ctx context.Context, cmd Command) (string, error)
}

const (
	DarkiceBinary  = "/usr/bin/darkice"
	IcecastService = "icecast2"
	SvxLinkService = "svxlink"
)

var Packages = []string{"darkice", "icecast2"}

// tools that must be on PATH before anything is installed
var RequiredTools = []string{"apt-get", "systemctl", "crontab", "pkill"}
