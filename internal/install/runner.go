package install

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/f5vmr/svxlinkstreaming/internal/utils"
)

type ExecRunnerCtx struct {
	logger zerolog.Logger
}

func NewExecRunner() *ExecRunnerCtx {
	return &ExecRunnerCtx{
		logger: log.With().Str("module", "install").Str("submodule", "exec").Logger(),
	}
}

func (r *ExecRunnerCtx) Run(ctx context.Context, c Command) (string, error) {
	logger := r.logger.With().Str("cmd", c.Name).Logger()
	logger.Info().Msg(c.String())

	if c.Detach {
		return "", r.start(c)
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout bytes.Buffer
	cmd.Stdout = io.MultiWriter(&stdout, utils.LogWriter(logger, zerolog.DebugLevel))
	cmd.Stderr = utils.LogWriter(logger, zerolog.WarnLevel)

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w", c.Name, err)
	}
	return stdout.String(), nil
}

// start launches a long running process that must outlive us.
func (r *ExecRunnerCtx) start(c Command) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.SysProcAttr = ConfigureAsProcessGroup()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}

	r.logger.Info().Int("pid", cmd.Process.Pid).Str("cmd", c.Name).Msg("started in background")
	return cmd.Process.Release()
}

// DryRunnerCtx only logs what would have been executed.
type DryRunnerCtx struct {
	logger zerolog.Logger
}

func NewDryRunner() *DryRunnerCtx {
	return &DryRunnerCtx{
		logger: log.With().Str("module", "install").Str("submodule", "dry-run").Logger(),
	}
}

func (r *DryRunnerCtx) Run(ctx context.Context, c Command) (string, error) {
	r.logger.Info().Bool("detach", c.Detach).Msgf("[dry-run] %s", c)
	return "", nil
}
