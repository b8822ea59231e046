package rewrite

import "regexp"

type Status string

const (
	Applied        Status = "applied"
	NoMatch        Status = "no-match"
	MissingInput   Status = "missing-input"
	MissingSection Status = "missing-section"
)

// Scope limits where a rule is allowed to match. The zero value is the whole file.
type Scope struct {
	Section string
}

var WholeFile = Scope{}

func Section(name string) Scope {
	return Scope{Section: name}
}

func (s Scope) String() string {
	if s.Section == "" {
		return "file"
	}
	return "[" + s.Section + "]"
}

type Rule struct {
	Name  string
	Match *regexp.Regexp
	Scope Scope
	// Replace receives the match followed by its capture groups.
	Replace func(groups []string) string
}

// Literal returns a replacement that ignores the match and yields s verbatim.
func Literal(s string) func([]string) string {
	return func([]string) string { return s }
}

type Result struct {
	Rule   string `yaml:"rule"`
	Path   string `yaml:"path"`
	Scope  string `yaml:"scope"`
	Status Status `yaml:"status"`
	Count  int    `yaml:"count"`
}

// Block is a run of lines starting at a bracketed section header. The
// preamble before the first header is a block with an empty name.
type Block struct {
	Name  string
	Lines []string
}
