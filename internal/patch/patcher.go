package patch

import (
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

type PatcherCtx struct {
	logger zerolog.Logger
	ctx    pipeline.Context
}

func New(ctx pipeline.Context) *PatcherCtx {
	return &PatcherCtx{
		logger: log.With().Str("module", "patch").Logger(),
		ctx:    ctx,
	}
}

// Run applies every sub-patch. Missing inputs and placeholders that are
// already gone are reported, never returned as errors. The callsign token is
// replaced before the password and url are written, so operator values
// containing it are kept verbatim.
func (p *PatcherCtx) Run() []report.Entry {
	var entries []report.Entry
	entries = append(entries, p.Callsign()...)
	entries = append(entries, p.Password()...)
	entries = append(entries, p.URL()...)
	entries = append(entries, p.TxRemap()...)
	entries = append(entries, p.Templates()...)
	return entries
}

func (p *PatcherCtx) Password() []report.Entry {
	const step = "darkice password"

	password, ok := p.ctx.SourcePassword()
	if !ok {
		return skipped(step, "no icecast source password found")
	}
	return p.file(p.ctx.Layout.DarkiceConfig, PasswordRule(password))
}

func (p *PatcherCtx) URL() []report.Entry {
	const step = "darkice url"

	if p.ctx.StreamURL == "" {
		return skipped(step, "no stream url given")
	}
	return p.file(p.ctx.Layout.DarkiceConfig, URLRule(p.ctx.StreamURL))
}

// Callsign replaces the placeholder in a single pass; the rule replaces
// every occurrence so repeating it cannot change anything.
func (p *PatcherCtx) Callsign() []report.Entry {
	const step = "darkice callsign"

	callsign, ok := p.ctx.Callsign()
	if !ok {
		return skipped(step, "no svxlink callsign found")
	}
	return p.file(p.ctx.Layout.DarkiceConfig, CallsignRule(callsign))
}

// TxRemap points the logic sections at the multiplexed transmitter. It only
// runs when svxlink is installed and already defines a [TxStream] section.
func (p *PatcherCtx) TxRemap() []report.Entry {
	const step = "svxlink tx remap"

	if !p.ctx.SvxLinkInstalled {
		return skipped(step, "svxlink not installed")
	}
	if !p.ctx.HasTxStreamSection {
		return skipped(step, "no [TxStream] section in "+p.ctx.Layout.SvxLinkConfig)
	}

	rules := make([]rewrite.Rule, 0, len(LogicSections))
	for _, section := range LogicSections {
		rules = append(rules, TxRemapRule(section))
	}
	return p.file(p.ctx.Layout.SvxLinkConfig, rules...)
}

// Templates rebrands the icecast web templates with the callsign. The
// template directory is backed up first and nothing is touched if the
// backup fails.
func (p *PatcherCtx) Templates() []report.Entry {
	const step = "icecast templates"
	layout := p.ctx.Layout

	callsign, ok := p.ctx.Callsign()
	if !ok {
		return skipped(step, "no svxlink callsign found")
	}

	files, err := filepath.Glob(filepath.Join(layout.IcecastWebDir, "*"+layout.TemplateExt))
	if err != nil {
		return failed(step, err)
	}
	if len(files) == 0 {
		return skipped(step, "no *"+layout.TemplateExt+" files in "+layout.IcecastWebDir)
	}

	var pending []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			p.logger.Warn().Err(err).Str("path", file).Msg("unable to read template")
			continue
		}
		if strings.Contains(string(data), layout.TemplateBrand) {
			pending = append(pending, file)
		}
	}
	if len(pending) == 0 {
		return []report.Entry{{
			Step:   step,
			Status: report.NoMatch,
			Detail: "templates already rebranded",
		}}
	}

	backup := layout.BackupDir(p.ctx.Now)
	entries := []report.Entry{}
	if _, err := os.Stat(backup); err == nil {
		p.logger.Info().Str("backup", backup).Msg("backup already exists, reusing it")
	} else {
		if err := CopyDir(layout.IcecastWebDir, backup); err != nil {
			return failed(step, fmt.Errorf("backup %s: %w", layout.IcecastWebDir, err))
		}
		entries = append(entries, report.Entry{
			Step:   "icecast template backup",
			Status: report.OK,
			Detail: backup,
		})
	}

	rule := BrandRule(layout.TemplateBrand, callsign)
	for _, file := range pending {
		entries = append(entries, p.file(file, rule)...)
	}
	return entries
}

func (p *PatcherCtx) file(path string, rules ...rewrite.Rule) []report.Entry {
	results, err := rewrite.File(path, rules...)
	if err != nil {
		step := rules[0].Name
		if len(rules) > 1 {
			step = filepath.Base(path)
		}
		return failed(step, err)
	}

	entries := make([]report.Entry, 0, len(results))
	for _, res := range results {
		entries = append(entries, entry(res))
	}
	return entries
}

func entry(res rewrite.Result) report.Entry {
	e := report.Entry{Step: res.Rule}
	switch res.Status {
	case rewrite.Applied:
		e.Status = report.Applied
		e.Detail = fmt.Sprintf("%s: %d line(s) changed", res.Path, res.Count)
	case rewrite.NoMatch:
		e.Status = report.NoMatch
		e.Detail = res.Path + ": placeholder not present"
	case rewrite.MissingInput:
		e.Status = report.Skipped
		e.Detail = res.Path + " does not exist"
	case rewrite.MissingSection:
		e.Status = report.Warning
		e.Detail = fmt.Sprintf("%s: section %s not found", res.Path, res.Scope)
	}
	return e
}

func skipped(step, detail string) []report.Entry {
	return []report.Entry{{Step: step, Status: report.Skipped, Detail: detail}}
}

func failed(step string, err error) []report.Entry {
	return []report.Entry{{Step: step, Status: report.Failed, Detail: err.Error()}}
}
