package svxlinkstreaming

import (
	"context"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/f5vmr/svxlinkstreaming/internal/config"
	"github.com/f5vmr/svxlinkstreaming/internal/extract"
	"github.com/f5vmr/svxlinkstreaming/internal/install"
	"github.com/f5vmr/svxlinkstreaming/internal/patch"
	"github.com/f5vmr/svxlinkstreaming/internal/pipeline"
	"github.com/f5vmr/svxlinkstreaming/internal/probe"
	"github.com/f5vmr/svxlinkstreaming/internal/prompt"
	"github.com/f5vmr/svxlinkstreaming/internal/report"
	"github.com/f5vmr/svxlinkstreaming/internal/verify"
)

var Service *Main

func init() {
	Service = &Main{
		SetupConfig:  &config.Setup{},
		VerifyConfig: &config.Verify{},
	}
}

type Main struct {
	SetupConfig  *config.Setup
	VerifyConfig *config.Verify

	logger   zerolog.Logger
	layout   pipeline.Layout
	prompter prompt.Prompter
	runner   install.Runner
	addrs    probe.AddrsFunc
}

func (main *Main) Preflight() {
	main.logger = log.With().Str("service", "main").Logger()
	main.layout = pipeline.DefaultLayout()

	if main.SetupConfig.AssumeYes || !isTerminal(os.Stdin) {
		main.prompter = prompt.Static{}
	} else {
		main.prompter = prompt.Terminal(os.Stdin, os.Stdout)
	}

	if main.SetupConfig.DryRun {
		main.runner = install.NewDryRunner()
	} else {
		main.runner = install.NewExecRunner()
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// gather asks the operator and probes the host. Nothing is changed yet.
func (main *Main) gather() pipeline.Context {
	cfg := main.SetupConfig
	pc := pipeline.New(main.layout, time.Now())

	installed := probe.Exists(main.layout.SvxLinkConfig)
	if cfg.SvxLink != nil {
		installed = *cfg.SvxLink
	} else {
		installed = main.prompter.Confirm("Is SvxLink installed on this node?", installed)
	}
	hasTxStream := installed && probe.HasTxStreamSection(main.layout.SvxLinkConfig)
	pc = pc.WithSvxLink(installed, hasTxStream)

	pc = pc.WithHost(main.hostAddress())

	url := cfg.StreamURL
	if url == "" {
		url = main.prompter.Ask("Public URL of the stream (empty to skip)", "")
	}
	pc = pc.WithStreamURL(url)

	main.logger.Info().
		Bool("svxlink", pc.SvxLinkInstalled).
		Bool("txstream", pc.HasTxStreamSection).
		Str("host", pc.HostAddress).
		Str("stream-url", pc.StreamURL).
		Msg("gathered setup parameters")

	return pc
}

func (main *Main) hostAddress() (string, bool) {
	if main.SetupConfig.Host != "" {
		return main.SetupConfig.Host, false
	}

	detected, fallback := probe.HostAddress(main.addrs)
	if fallback {
		main.logger.Warn().Str("host", detected).Msg("could not detect a lan address")
	}

	host := main.prompter.Ask("Address of this node", detected)
	return host, fallback && host == detected
}

// extract pulls the secrets out of files owned by icecast and svxlink.
func (main *Main) extract(pc pipeline.Context, r *report.Report) pipeline.Context {
	password, ok := extract.SourcePassword(main.layout.IcecastConfig)
	pc = pc.WithSourcePassword(password, ok)
	if ok {
		r.Add(report.Entry{Step: "icecast source password", Status: report.OK, Detail: "found in " + main.layout.IcecastConfig})
	} else {
		r.Add(report.Entry{Step: "icecast source password", Status: report.Skipped, Detail: "not found in " + main.layout.IcecastConfig})
	}

	if !pc.SvxLinkInstalled {
		return pc
	}

	callsign, ok := extract.Callsign(main.layout.SvxLinkConfig)
	pc = pc.WithCallsign(callsign, ok)
	if ok {
		r.Add(report.Entry{Step: "svxlink callsign", Status: report.OK, Detail: callsign})
	} else {
		r.Add(report.Entry{Step: "svxlink callsign", Status: report.Skipped, Detail: "not found in " + main.layout.SvxLinkConfig})
	}
	return pc
}

// verify probes the streaming server after giving it time to start. The
// outcome is advisory only.
func (main *Main) verify(ctx context.Context, host string, r *report.Report) {
	cfg := main.VerifyConfig
	v := verify.New(cfg.Timeout)

	if cfg.Grace > 0 {
		main.logger.Info().Dur("grace", cfg.Grace).Msg("waiting for services to start")
		v.Settle(ctx, main.layout.IcecastLogDir, cfg.Grace)
	}

	ok, status, err := v.CheckReachable(ctx, host, cfg.Port)
	if ok {
		r.Add(report.Entry{Step: "stream reachable", Status: report.OK, Detail: "http status " + strconv.Itoa(status)})
		return
	}
	r.Add(report.Entry{Step: "stream reachable", Status: report.Warning, Detail: err.Error()})
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (main *Main) finish(r *report.Report) {
	r.Finished = time.Now()
	r.Print(os.Stdout)

	if path := main.SetupConfig.Report; path != "" {
		if err := r.Save(path); err != nil {
			main.logger.Err(err).Str("path", path).Msg("unable to save report")
		} else {
			main.logger.Info().Str("path", path).Msg("report saved")
		}
	}
}

// Setup runs the whole provisioning flow. Only the precheck may fail it.
func (main *Main) Setup(ctx context.Context) (*report.Report, error) {
	if err := install.Precheck(os.Geteuid(), exec.LookPath, install.RequiredTools...); err != nil {
		return nil, err
	}
	return main.setup(ctx), nil
}

func (main *Main) setup(ctx context.Context) *report.Report {
	pc := main.gather()
	r := report.New(pc.Now)
	r.Host = hostPort(pc.HostAddress, main.VerifyConfig.Port)

	inst := install.New(main.runner, main.layout)
	r.Add(inst.Packages(ctx)...)
	r.Add(inst.SeedDarkice()...)

	pc = main.extract(pc, r)
	r.Add(patch.New(pc).Run()...)

	r.Add(inst.EnableIcecast(ctx)...)
	r.Add(inst.RegisterBoot(ctx)...)
	r.Add(inst.Restart(ctx, pc.SvxLinkInstalled)...)

	main.verify(ctx, pc.HostAddress, r)
	return r
}

// Patch only rewrites config files, nothing is installed or restarted.
func (main *Main) Patch() (*report.Report, error) {
	if err := install.Precheck(os.Geteuid(), exec.LookPath); err != nil {
		return nil, err
	}
	return main.patch(), nil
}

func (main *Main) patch() *report.Report {
	pc := main.gather()
	r := report.New(pc.Now)
	r.Flow = "patch"

	pc = main.extract(pc, r)
	r.Add(patch.New(pc).Run()...)
	return r
}

func (main *Main) SetupCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	main.logger.Info().Bool("dry-run", main.SetupConfig.DryRun).Msg("starting setup")
	r, err := main.Setup(ctx)
	if err != nil {
		return err
	}
	main.finish(r)
	return nil
}

func (main *Main) PatchCommand(cmd *cobra.Command, args []string) error {
	r, err := main.Patch()
	if err != nil {
		return err
	}
	main.logger.Info().Msg("restart darkice and svxlink to pick up the changes")
	main.finish(r)
	return nil
}

func (main *Main) CheckCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := main.SetupConfig.Host
	if host == "" {
		host, _ = probe.HostAddress(main.addrs)
	}

	r := report.New(time.Now())
	r.Flow = "check"
	r.Host = hostPort(host, main.VerifyConfig.Port)
	main.verify(ctx, host, r)
	main.finish(r)
	return nil
}
