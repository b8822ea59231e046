package verify

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Icecast default listen port
const DefaultPort = 8000

// after the first log write the server usually needs a moment to bind
const settleAfterEvent = 500 * time.Millisecond

// log writes never end the wait before this much of the grace has passed
const minSettle = 2 * time.Second

type VerifierCtx struct {
	logger  zerolog.Logger
	client  *http.Client
	timeout time.Duration
}

func New(timeout time.Duration) *VerifierCtx {
	return &VerifierCtx{
		logger: log.With().Str("module", "verify").Logger(),
		client: &http.Client{
			// 302 is a valid answer, do not chase it
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

// CheckReachable sends a HEAD request to http://host:port/ and reports
// whether the answer was 200 or 302. Any other status, a connection error
// or a timeout is a failure.
func (v *VerifierCtx) CheckReachable(ctx context.Context, host string, port int) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, 0, err
	}

	res, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug().Err(err).Str("url", url).Msg("request failed")
		return false, 0, err
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusFound:
		return true, res.StatusCode, nil
	}
	return false, res.StatusCode, fmt.Errorf("unexpected status %s", res.Status)
}

// Settle waits for the streaming server to come up. It returns after grace
// at the latest, or shortly after the server writes to its log directory but
// not before min(grace, 2s).
func (v *VerifierCtx) Settle(ctx context.Context, logDir string, grace time.Duration) {
	start := time.Now()
	floor := min(grace, minSettle)

	timer := time.NewTimer(grace)
	defer timer.Stop()

	var events chan fsnotify.Event
	var errs chan error
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err = watcher.Add(logDir); err == nil {
			events, errs = watcher.Events, watcher.Errors
		}
	}
	if err != nil {
		v.logger.Debug().Err(err).Str("dir", logDir).Msg("unable to watch log dir, sleeping instead")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			v.logger.Debug().Err(err).Msg("watcher error")
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			v.logger.Debug().Str("file", e.Name).Msg("streaming server is writing its log")
			wait := settleAfterEvent
			if rest := floor - time.Since(start); rest > wait {
				wait = rest
			}
			select {
			case <-ctx.Done():
			case <-timer.C:
			case <-time.After(wait):
			}
			return
		}
	}
}
