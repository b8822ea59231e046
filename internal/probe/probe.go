package probe

import (
	"bufio"
	"net"
	"os"
	"regexp"

	"github.com/rs/zerolog/log"
)

const LoopbackAddress = "127.0.0.1"

var txStreamRe = regexp.MustCompile(`^\s*\[TxStream\]`)

// longer lines end the scan
const maxLineSize = 4 * 1024 * 1024

// AddrsFunc lists the addresses bound to the host, net.InterfaceAddrs by default.
type AddrsFunc func() ([]net.Addr, error)

// HostAddress returns the first non-loopback IPv4 address. When there is
// none, or enumeration fails, the loopback address is returned with
// fallback set.
func HostAddress(addrs AddrsFunc) (addr string, fallback bool) {
	logger := log.With().Str("module", "probe").Logger()

	if addrs == nil {
		addrs = net.InterfaceAddrs
	}

	list, err := addrs()
	if err != nil {
		logger.Warn().Err(err).Msg("unable to enumerate interface addresses")
		return LoopbackAddress, true
	}

	for _, a := range list {
		ip, _, err := net.ParseCIDR(a.String())
		if err != nil {
			ip = net.ParseIP(a.String())
		}
		if ip == nil {
			logger.Debug().Str("addr", a.String()).Msg("skipping unparsable address")
			continue
		}
		if ip.IsLoopback() || ip.To4() == nil {
			continue
		}
		return ip.To4().String(), false
	}

	logger.Warn().Msg("no non-loopback ipv4 address found, falling back to loopback")
	return LoopbackAddress, true
}

// HasTxStreamSection reports whether the SvxLink config has a [TxStream]
// section. A missing file has none.
func HasTxStreamSection(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if txStreamRe.MatchString(scanner.Text()) {
			return true
		}
	}
	return false
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
