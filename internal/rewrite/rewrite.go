package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var sectionHeader = regexp.MustCompile(`^\s*\[([^\]]*)\]`)

// ParseSections splits text into ordered blocks. Every line keeps its own
// line ending, so Join(ParseSections(s)) == s.
func ParseSections(text string) []Block {
	blocks := []Block{{}}
	for _, line := range splitLines(text) {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Name: m[1]})
		}
		cur := &blocks[len(blocks)-1]
		cur.Lines = append(cur.Lines, line)
	}
	return blocks
}

func Join(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		for _, line := range block.Lines {
			b.WriteString(line)
		}
	}
	return b.String()
}

// HasSection reports whether a header named name exists in text.
func HasSection(text, name string) bool {
	for _, block := range ParseSections(text) {
		if block.Name == name {
			return true
		}
	}
	return false
}

// Apply runs rules in order, each over the output of the previous one.
func Apply(text string, rules ...Rule) (string, []Result) {
	results := make([]Result, 0, len(rules))
	for _, rule := range rules {
		var res Result
		text, res = applyRule(text, rule)
		results = append(results, res)
	}
	return text, results
}

func applyRule(text string, rule Rule) (string, Result) {
	res := Result{
		Rule:   rule.Name,
		Scope:  rule.Scope.String(),
		Status: NoMatch,
	}

	if rule.Scope.Section == "" {
		text, res.Count = replaceAll(rule.Match, text, rule.Replace)
	} else {
		blocks := ParseSections(text)
		found := false
		for i := range blocks {
			if blocks[i].Name != rule.Scope.Section {
				continue
			}
			found = true
			lines := make([]string, len(blocks[i].Lines))
			for j, line := range blocks[i].Lines {
				body, eol := trimEOL(line)
				body, n := replaceAll(rule.Match, body, rule.Replace)
				lines[j] = body + eol
				res.Count += n
			}
			blocks[i].Lines = lines
		}
		if !found {
			res.Status = MissingSection
			return text, res
		}
		text = Join(blocks)
	}

	if res.Count > 0 {
		res.Status = Applied
	}
	return text, res
}

// File applies rules to the file at path. A missing file is reported through
// the results, not as an error. The file is only rewritten when its content
// actually changes.
func File(path string, rules ...Rule) ([]Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		results := make([]Result, 0, len(rules))
		for _, rule := range rules {
			results = append(results, Result{
				Rule:   rule.Name,
				Path:   path,
				Scope:  rule.Scope.String(),
				Status: MissingInput,
			})
		}
		return results, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out, results := Apply(string(data), rules...)
	for i := range results {
		results[i].Path = path
	}

	if out == string(data) {
		return results, nil
	}

	if err := WriteAtomic(path, []byte(out)); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteAtomic replaces path with data through a uniquely named temp file in
// the same directory followed by a rename. Mode and ownership of an existing
// file are carried over.
func WriteAtomic(path string, data []byte) error {
	mode := fs.FileMode(0644)
	info, err := os.Stat(path)
	if err == nil {
		mode = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}

	// remove temp file on every failure path below
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return fail(fmt.Errorf("write %s: %w", tmp, err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("sync %s: %w", tmp, err))
	}
	if err := f.Chmod(mode); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", tmp, err))
	}
	if info != nil {
		copyOwner(f, info)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func replaceAll(re *regexp.Regexp, s string, fn func([]string) string) (string, int) {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, 0
	}

	var b strings.Builder
	last, changed := 0, 0
	for _, m := range matches {
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}

		repl := fn(groups)
		if repl != groups[0] {
			changed++
		}

		b.WriteString(s[last:m[0]])
		b.WriteString(repl)
		last = m[1]
	}
	b.WriteString(s[last:])

	return b.String(), changed
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
