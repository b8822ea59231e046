package install

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/f5vmr/svxlinkstreaming/internal/pipeline"
	"github.com/f5vmr/svxlinkstreaming/internal/report"
)

type fakeRunner struct {
	calls   []Command
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, c Command) (string, error) {
	f.calls = append(f.calls, c)
	key := c.String()
	return f.outputs[key], f.fail[key]
}

func (f *fakeRunner) commands() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.String())
	}
	return out
}

func TestPrecheck(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/x", nil }
	notFound := func(name string) (string, error) {
		if name == "crontab" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}

	tests := []struct {
		name     string
		euid     int
		lookPath func(string) (string, error)
		wantErr  string
	}{
		{"root with tools", 0, found, ""},
		{"not root", 1000, found, "must be run as root"},
		{"missing tool", 0, notFound, "crontab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Precheck(tt.euid, tt.lookPath, RequiredTools...)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Precheck() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrPrecheck) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Precheck() error = %v, want ErrPrecheck containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPackagesContinueOnFailure(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"apt-get update": errors.New("exit status 100")}}
	i := New(runner, pipeline.DefaultLayout())

	entries := i.Packages(context.Background())
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Status != report.Failed || entries[1].Status != report.OK {
		t.Errorf("statuses = %s, %s", entries[0].Status, entries[1].Status)
	}
	if got := runner.commands()[1]; got != "apt-get install -y darkice icecast2" {
		t.Errorf("install command = %q", got)
	}
}

func TestSeedDarkice(t *testing.T) {
	layout := pipeline.DefaultLayout().Rooted(t.TempDir())
	i := New(&fakeRunner{}, layout)

	if e := i.SeedDarkice(); e[0].Status != report.Applied {
		t.Fatalf("first seed = %+v", e)
	}
	data, err := os.ReadFile(layout.DarkiceConfig)
	if err != nil {
		t.Fatal(err)
	}
	for _, placeholder := range []string{"password        = source", "callsign", `"your_domain"`} {
		if !strings.Contains(string(data), placeholder) {
			t.Errorf("default config lacks %q", placeholder)
		}
	}

	if err := os.WriteFile(layout.DarkiceConfig, []byte("custom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if e := i.SeedDarkice(); e[0].Status != report.NoMatch {
		t.Errorf("second seed = %+v", e)
	}
	if data, _ := os.ReadFile(layout.DarkiceConfig); string(data) != "custom\n" {
		t.Error("existing config was overwritten")
	}
}

func TestRegisterBoot(t *testing.T) {
	layout := pipeline.DefaultLayout()

	t.Run("no crontab yet", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]error{"crontab -l": errors.New("no crontab for root")}}
		entries := New(runner, layout).RegisterBoot(context.Background())

		if entries[0].Status != report.OK {
			t.Fatalf("entries = %+v", entries)
		}
		last := runner.calls[len(runner.calls)-1]
		want := "@reboot sleep 30 && /usr/bin/darkice -c /etc/darkice.cfg >/dev/null 2>&1\n"
		if last.String() != "crontab -" || last.Stdin != want {
			t.Errorf("crontab write = %q with %q", last.String(), last.Stdin)
		}
	})

	t.Run("existing entries are kept", func(t *testing.T) {
		runner := &fakeRunner{outputs: map[string]string{"crontab -l": "0 3 * * * /usr/local/bin/backup"}}
		New(runner, layout).RegisterBoot(context.Background())

		last := runner.calls[len(runner.calls)-1]
		if !strings.HasPrefix(last.Stdin, "0 3 * * * /usr/local/bin/backup\n@reboot ") {
			t.Errorf("crontab content = %q", last.Stdin)
		}
	})

	t.Run("already registered", func(t *testing.T) {
		runner := &fakeRunner{outputs: map[string]string{
			"crontab -l": "@reboot /usr/bin/darkice -c /etc/darkice.cfg\n",
		}}
		entries := New(runner, layout).RegisterBoot(context.Background())

		if entries[0].Status != report.NoMatch || len(runner.calls) != 1 {
			t.Errorf("entries = %+v, calls = %q", entries, runner.commands())
		}
	})
}

func TestRestart(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"pkill -x darkice": errors.New("exit status 1")}}
	entries := New(runner, pipeline.DefaultLayout()).Restart(context.Background(), true)

	want := []string{
		"systemctl restart icecast2",
		"pkill -x darkice",
		"/usr/bin/darkice -c /etc/darkice.cfg",
		"systemctl restart svxlink",
	}
	if strings.Join(runner.commands(), "|") != strings.Join(want, "|") {
		t.Errorf("commands = %q, want %q", runner.commands(), want)
	}
	if !runner.calls[2].Detach {
		t.Error("darkice is not started detached")
	}
	for _, e := range entries {
		if e.Status != report.OK {
			t.Errorf("%s = %s", e.Step, e.Status)
		}
	}
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "sh", Args: []string{"-c", `echo "hi there"`}}
	if got := c.String(); got != `sh -c "echo \"hi there\""` {
		t.Errorf("String() = %s", got)
	}
}
