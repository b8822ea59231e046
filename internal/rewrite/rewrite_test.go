package rewrite

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var txRule = Rule{
	Name:    "tx",
	Match:   regexp.MustCompile(`^\s*TX\s*=\s*Tx1\s*$`),
	Replace: Literal("TX=MultiTx"),
}

func TestParseSectionsRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		names []string
	}{
		{
			name:  "empty",
			input: "",
			names: []string{""},
		},
		{
			name:  "preamble only",
			input: "# comment\nFOO=bar\n",
			names: []string{""},
		},
		{
			name:  "sections without trailing newline",
			input: "[A]\nx=1\n[B]\ny=2",
			names: []string{"", "A", "B"},
		},
		{
			name:  "indented header and crlf",
			input: "top\r\n  [GLOBAL]\r\nLOGICS=SimplexLogic\r\n",
			names: []string{"", "GLOBAL"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := ParseSections(tt.input)

			var names []string
			for _, b := range blocks {
				names = append(names, b.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.names, ",") {
				t.Errorf("ParseSections() names = %q, want %q", names, tt.names)
			}

			if got := Join(blocks); got != tt.input {
				t.Errorf("Join(ParseSections()) = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestApplySectionScope(t *testing.T) {
	input := "TX=Tx1\n[SimplexLogic]\nTX=Tx1\n[RepeaterLogic]\nTX = Tx1  \n[Other]\nTX=Tx1\n"
	want := "TX=Tx1\n[SimplexLogic]\nTX=MultiTx\n[RepeaterLogic]\nTX=MultiTx\n[Other]\nTX=Tx1\n"

	simplex := txRule
	simplex.Scope = Section("SimplexLogic")
	repeater := txRule
	repeater.Scope = Section("RepeaterLogic")

	got, results := Apply(input, simplex, repeater)
	if got != want {
		t.Errorf("Apply() = \n---------- have ----------\n%s\n---------- want ----------\n%s", got, want)
	}
	for _, res := range results {
		if res.Status != Applied || res.Count != 1 {
			t.Errorf("result %+v, want applied once", res)
		}
	}
}

func TestApplyMissingSection(t *testing.T) {
	input := "[GLOBAL]\nTX=Tx1\n"
	rule := txRule
	rule.Scope = Section("RepeaterLogic")

	got, results := Apply(input, rule)
	if got != input {
		t.Errorf("Apply() changed text: %q", got)
	}
	if results[0].Status != MissingSection {
		t.Errorf("status = %s, want %s", results[0].Status, MissingSection)
	}
}

func TestApplyLiteralReplacement(t *testing.T) {
	rule := Rule{
		Name:    "password",
		Match:   regexp.MustCompile(`password[ \t]*=[ \t]*source`),
		Replace: Literal(`password = a$1\&/b`),
	}

	got, results := Apply("password=source\n", rule)
	if got != "password = a$1\\&/b\n" {
		t.Errorf("Apply() = %q", got)
	}
	if results[0].Status != Applied {
		t.Errorf("status = %s, want %s", results[0].Status, Applied)
	}
}

func TestApplyNoChangeIsNoMatch(t *testing.T) {
	rule := Rule{
		Name:    "same",
		Match:   regexp.MustCompile(`foo`),
		Replace: Literal("foo"),
	}

	_, results := Apply("foo foo\n", rule)
	if results[0].Status != NoMatch || results[0].Count != 0 {
		t.Errorf("result %+v, want no-match", results[0])
	}
}

func TestFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.conf")

	results, err := File(path, txRule)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if len(results) != 1 || results[0].Status != MissingInput {
		t.Errorf("results = %+v, want one missing-input", results)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File() created %s", path)
	}
}

func TestFileUntouchedWithoutMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svxlink.conf")
	content := "[GLOBAL]\nTX=Tx2\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	if _, err := File(path, txRule); err != nil {
		t.Fatalf("File() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("file was rewritten, mtime %v", info.ModTime())
	}
}

func TestFileRewritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svxlink.conf")
	if err := os.WriteFile(path, []byte("TX=Tx1\n"), 0640); err != nil {
		t.Fatal(err)
	}

	results, err := File(path, txRule)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if results[0].Status != Applied {
		t.Errorf("status = %s, want %s", results[0].Status, Applied)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "TX=MultiTx\n" {
		t.Errorf("content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
