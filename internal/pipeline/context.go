package pipeline

import (
	"path/filepath"
	"time"
)

// Layout holds every file system location the setup touches.
type Layout struct {
	DarkiceConfig    string
	SvxLinkConfig    string
	IcecastConfig    string
	IcecastWebDir    string
	IcecastLogDir    string
	TemplateExt      string
	TemplateBrand    string
	BackupDirPattern string // time layout appended to IcecastWebDir
}

func DefaultLayout() Layout {
	return Layout{
		DarkiceConfig:    "/etc/darkice.cfg",
		SvxLinkConfig:    "/etc/svxlink/svxlink.conf",
		IcecastConfig:    "/etc/icecast2/icecast.xml",
		IcecastWebDir:    "/usr/share/icecast2/web",
		IcecastLogDir:    "/var/log/icecast2",
		TemplateExt:      ".xsl",
		TemplateBrand:    "Icecast2",
		BackupDirPattern: "-backup-20060102-150405",
	}
}

// Rooted returns a copy of the layout with every path moved below root.
func (l Layout) Rooted(root string) Layout {
	l.DarkiceConfig = filepath.Join(root, l.DarkiceConfig)
	l.SvxLinkConfig = filepath.Join(root, l.SvxLinkConfig)
	l.IcecastConfig = filepath.Join(root, l.IcecastConfig)
	l.IcecastWebDir = filepath.Join(root, l.IcecastWebDir)
	l.IcecastLogDir = filepath.Join(root, l.IcecastLogDir)
	return l
}

func (l Layout) BackupDir(at time.Time) string {
	return filepath.Clean(l.IcecastWebDir) + at.Format(l.BackupDirPattern)
}

// Context is the state shared between setup stages. It is passed by value;
// the With* methods return modified copies.
type Context struct {
	Layout Layout
	Now    time.Time

	HostAddress         string
	HostAddressFallback bool
	StreamURL           string

	SvxLinkInstalled   bool
	HasTxStreamSection bool

	sourcePassword    string
	hasSourcePassword bool
	callsign          string
	hasCallsign       bool
}

func New(layout Layout, now time.Time) Context {
	return Context{
		Layout: layout,
		Now:    now,
	}
}

func (c Context) WithHost(addr string, fallback bool) Context {
	c.HostAddress = addr
	c.HostAddressFallback = fallback
	return c
}

func (c Context) WithStreamURL(url string) Context {
	c.StreamURL = url
	return c
}

func (c Context) WithSvxLink(installed, hasTxStream bool) Context {
	c.SvxLinkInstalled = installed
	c.HasTxStreamSection = hasTxStream
	return c
}

func (c Context) WithSourcePassword(password string, ok bool) Context {
	c.sourcePassword, c.hasSourcePassword = password, ok
	return c
}

func (c Context) WithCallsign(callsign string, ok bool) Context {
	c.callsign, c.hasCallsign = callsign, ok
	return c
}

func (c Context) SourcePassword() (string, bool) {
	return c.sourcePassword, c.hasSourcePassword
}

func (c Context) Callsign() (string, bool) {
	return c.callsign, c.hasCallsign
}
