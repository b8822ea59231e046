package install

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/f5vmr/svxlinkstreaming/internal/pipeline"
	"github.com/f5vmr/svxlinkstreaming/internal/report"
	"github.com/f5vmr/svxlinkstreaming/internal/rewrite"
)

//go:embed darkice.cfg
var defaultDarkiceConfig string

// Precheck verifies privileges and tooling before anything is changed.
func Precheck(euid int, lookPath func(string) (string, error), tools ...string) error {
	if euid != 0 {
		return fmt.Errorf("%w: must be run as root (try sudo)", ErrPrecheck)
	}

	var missing []string
	for _, tool := range tools {
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required tools not found: %s", ErrPrecheck, strings.Join(missing, ", "))
	}
	return nil
}

type InstallerCtx struct {
	logger zerolog.Logger
	runner Runner
	layout pipeline.Layout
}

func New(runner Runner, layout pipeline.Layout) *InstallerCtx {
	return &InstallerCtx{
		logger: log.With().Str("module", "install").Logger(),
		runner: runner,
		layout: layout,
	}
}

func (i *InstallerCtx) Packages(ctx context.Context) []report.Entry {
	env := []string{"DEBIAN_FRONTEND=noninteractive"}
	return []report.Entry{
		i.run(ctx, "apt update", Command{Name: "apt-get", Args: []string{"update"}, Env: env}),
		i.run(ctx, "install packages", Command{
			Name: "apt-get",
			Args: append([]string{"install", "-y"}, Packages...),
			Env:  env,
		}),
	}
}

// SeedDarkice writes the default darkice config when there is none yet. An
// existing config is never overwritten.
func (i *InstallerCtx) SeedDarkice() []report.Entry {
	const step = "darkice config"
	path := i.layout.DarkiceConfig

	if _, err := os.Stat(path); err == nil {
		return []report.Entry{{Step: step, Status: report.NoMatch, Detail: path + " already present"}}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return []report.Entry{{Step: step, Status: report.Failed, Detail: err.Error()}}
	}
	if err := rewrite.WriteAtomic(path, []byte(defaultDarkiceConfig)); err != nil {
		return []report.Entry{{Step: step, Status: report.Failed, Detail: err.Error()}}
	}
	return []report.Entry{{Step: step, Status: report.Applied, Detail: "wrote default " + path}}
}

func (i *InstallerCtx) EnableIcecast(ctx context.Context) []report.Entry {
	return []report.Entry{
		i.run(ctx, "enable icecast2", Command{Name: "systemctl", Args: []string{"enable", IcecastService}}),
	}
}

func (i *InstallerCtx) bootEntry() string {
	return fmt.Sprintf("@reboot sleep 30 && %s -c %s >/dev/null 2>&1", DarkiceBinary, i.layout.DarkiceConfig)
}

// RegisterBoot adds the darkice @reboot job to root's crontab unless an
// entry for the same config is already there.
func (i *InstallerCtx) RegisterBoot(ctx context.Context) []report.Entry {
	const step = "darkice boot job"

	current, err := i.runner.Run(ctx, Command{Name: "crontab", Args: []string{"-l"}})
	if err != nil {
		// crontab -l fails when the user has no crontab yet
		i.logger.Debug().Err(err).Msg("no existing crontab")
		current = ""
	}

	marker := "darkice -c " + i.layout.DarkiceConfig
	if strings.Contains(current, marker) {
		return []report.Entry{{Step: step, Status: report.NoMatch, Detail: "already registered"}}
	}

	if current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	current += i.bootEntry() + "\n"

	return []report.Entry{
		i.run(ctx, step, Command{Name: "crontab", Args: []string{"-"}, Stdin: current}),
	}
}

// Restart brings the services up again so they pick up the patched files.
func (i *InstallerCtx) Restart(ctx context.Context, svxlink bool) []report.Entry {
	entries := []report.Entry{
		i.run(ctx, "restart icecast2", Command{Name: "systemctl", Args: []string{"restart", IcecastService}}),
	}

	// pkill exits non-zero when darkice was not running
	if _, err := i.runner.Run(ctx, Command{Name: "pkill", Args: []string{"-x", "darkice"}}); err != nil {
		i.logger.Debug().Err(err).Msg("darkice was not running")
	}
	entries = append(entries, i.run(ctx, "start darkice", Command{
		Name:   DarkiceBinary,
		Args:   []string{"-c", i.layout.DarkiceConfig},
		Detach: true,
	}))

	if svxlink {
		entries = append(entries, i.run(ctx, "restart svxlink", Command{Name: "systemctl", Args: []string{"restart", SvxLinkService}}))
	}
	return entries
}

func (i *InstallerCtx) run(ctx context.Context, step string, cmd Command) report.Entry {
	if _, err := i.runner.Run(ctx, cmd); err != nil {
		return report.Entry{Step: step, Status: report.Failed, Detail: err.Error()}
	}
	return report.Entry{Step: step, Status: report.OK, Detail: cmd.String()}
}
