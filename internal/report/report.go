package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Status string

const (
	Applied Status = "applied"
	OK      Status = "ok"
	NoMatch Status = "no-match"
	Skipped Status = "skipped"
	Warning Status = "warning"
	Failed  Status = "failed"
)

type Entry struct {
	Step   string `yaml:"step"`
	Status Status `yaml:"status"`
	Detail string `yaml:"detail,omitempty"`
}

type Report struct {
	logger zerolog.Logger

	// command that produced the report, named in the completion line
	Flow     string    `yaml:"flow"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished,omitempty"`
	Host     string    `yaml:"host,omitempty"`
	Entries  []Entry   `yaml:"entries"`
}

func New(started time.Time) *Report {
	return &Report{
		logger:  log.With().Str("module", "report").Logger(),
		Flow:    "setup",
		Started: started,
	}
}

// Add records entries and logs each of them as it arrives.
func (r *Report) Add(entries ...Entry) {
	for _, e := range entries {
		var event *zerolog.Event
		switch e.Status {
		case Applied, OK:
			event = r.logger.Info()
		case NoMatch:
			event = r.logger.Info()
		case Skipped, Warning:
			event = r.logger.Warn()
		default:
			event = r.logger.Error()
		}
		event.Str("step", e.Step).Str("status", string(e.Status)).Msg(e.Detail)

		r.Entries = append(r.Entries, e)
	}
}

func (r *Report) Count(status Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Print writes the human readable summary. It always ends with the
// completion line, regardless of how many steps were skipped or failed.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "-------")
	for _, e := range r.Entries {
		if e.Detail != "" {
			fmt.Fprintf(w, "  %-9s %-22s %s\n", e.Status, e.Step, e.Detail)
		} else {
			fmt.Fprintf(w, "  %-9s %s\n", e.Status, e.Step)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d applied, %d ok, %d unchanged, %d skipped, %d warnings, %d failed\n",
		r.Count(Applied), r.Count(OK), r.Count(NoMatch), r.Count(Skipped), r.Count(Warning), r.Count(Failed))
	if r.Host != "" {
		fmt.Fprintf(w, "stream server: http://%s\n", r.Host)
	}
	flow := r.Flow
	if flow == "" {
		flow = "setup"
	}
	fmt.Fprintf(w, "%s completed.\n", flow)
}

// Save persists the report as YAML.
func (r *Report) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
