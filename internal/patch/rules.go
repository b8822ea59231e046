package patch

import (
	"regexp"
	"strings"

	"github.com/f5vmr/svxlinkstreaming/internal/rewrite"
)

const (
	passwordPlaceholder = "source"
	urlPlaceholder      = "your_domain"
	callsignPlaceholder = "callsign"

	txSingle = "Tx1"
	txMulti  = "MultiTx"
)

// logic sections whose transmitter gets multiplexed with TxStream
var LogicSections = []string{"SimplexLogic", "RepeaterLogic"}

var (
	// anchored at end of line, after an optional trailing comment, so an
	// already patched value never matches again
	passwordRe = regexp.MustCompile(`(?m)password[ \t]*=[ \t]*` + passwordPlaceholder + `([ \t]*(?:[#;][^\r\n]*)?)(\r?)$`)
	urlRe      = regexp.MustCompile(`(?m)^[ \t]*url[ \t]*=[ \t]*"?` + urlPlaceholder + `"?[^\r\n]*(\r?)$`)
	callsignRe = regexp.MustCompile(`(?m)^[^\r\n]*` + regexp.QuoteMeta(callsignPlaceholder) + `[^\r\n]*`)
	// lines carrying operator values, never touched by the callsign rule
	valueLineRe = regexp.MustCompile(`^[ \t]*(?:password|url)[ \t]*=`)
	txRe       = regexp.MustCompile(`^\s*TX\s*=\s*` + txSingle + `\s*$`)
)

func PasswordRule(password string) rewrite.Rule {
	return rewrite.Rule{
		Name:  "darkice password",
		Match: passwordRe,
		Replace: func(g []string) string {
			return "password = " + password + g[1] + g[2]
		},
	}
}

func URLRule(url string) rewrite.Rule {
	return rewrite.Rule{
		Name:  "darkice url",
		Match: urlRe,
		Replace: func(g []string) string {
			return "url=" + url + g[1]
		},
	}
}

// CallsignRule replaces every callsign token on a line, except on the
// password and url lines.
func CallsignRule(callsign string) rewrite.Rule {
	return rewrite.Rule{
		Name:  "darkice callsign",
		Match: callsignRe,
		Replace: func(g []string) string {
			if valueLineRe.MatchString(g[0]) {
				return g[0]
			}
			return strings.ReplaceAll(g[0], callsignPlaceholder, callsign)
		},
	}
}

func TxRemapRule(section string) rewrite.Rule {
	return rewrite.Rule{
		Name:    "svxlink tx " + section,
		Match:   txRe,
		Scope:   rewrite.Section(section),
		Replace: rewrite.Literal("TX=" + txMulti),
	}
}

func BrandRule(brand, callsign string) rewrite.Rule {
	return rewrite.Rule{
		Name:    "template brand",
		Match:   regexp.MustCompile(regexp.QuoteMeta(brand)),
		Replace: rewrite.Literal(callsign),
	}
}
