// Package extract reads single values out of config files owned by other
// programs. Every lookup is read-only and the first occurrence wins.
package extract

import (
	"bufio"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	sourcePasswordRe = regexp.MustCompile(`<source-password>(.*?)</source-password>`)
	callsignRe       = regexp.MustCompile(`^\s*CALLSIGN\s*=\s*(.*)$`)
)

// config lines longer than this are reported as absent
const maxLineSize = 4 * 1024 * 1024

// SourcePassword returns the inner text of the first <source-password>
// element in the Icecast config, with XML character references decoded.
func SourcePassword(path string) (string, bool) {
	return firstMatch(path, sourcePasswordRe, html.UnescapeString)
}

// Callsign returns the value of the first CALLSIGN= line in the SvxLink
// config, trimmed. An empty value counts as absent.
func Callsign(path string) (string, bool) {
	return firstMatch(path, callsignRe, strings.TrimSpace)
}

func firstMatch(path string, re *regexp.Regexp, decode func(string) string) (string, bool) {
	logger := log.With().Str("module", "extract").Str("path", path).Logger()

	f, err := os.Open(path)
	if err != nil {
		logger.Debug().Err(err).Msg("unable to open file")
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		m := re.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		value := decode(m[1])
		if value == "" {
			return "", false
		}
		return value, true
	}

	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("error while scanning file")
	}
	return "", false
}
