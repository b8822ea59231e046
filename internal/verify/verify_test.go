package verify

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"
)

func server(t *testing.T, status int, delay time.Duration) (string, int) {
	t.Helper()

	router := chi.NewRouter()
	router.MethodFunc(http.MethodHead, "/", func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if status == http.StatusFound {
			w.Header().Set("Location", "/status.xsl")
		}
		w.WriteHeader(status)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return host, port
}

func TestCheckReachable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"redirect to status page", http.StatusFound, true},
		{"not found", http.StatusNotFound, false},
		{"moved permanently", http.StatusMovedPermanently, false},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := server(t, tt.status, 0)

			ok, status, err := New(2*time.Second).CheckReachable(context.Background(), host, port)
			if ok != tt.want || status != tt.status {
				t.Errorf("CheckReachable() = %v, %d, %v, want %v, %d", ok, status, err, tt.want, tt.status)
			}
			if !ok && err == nil {
				t.Error("CheckReachable() failure without error")
			}
		})
	}
}

func TestCheckReachableTimeout(t *testing.T) {
	host, port := server(t, http.StatusOK, 500*time.Millisecond)

	ok, _, err := New(50*time.Millisecond).CheckReachable(context.Background(), host, port)
	if ok || err == nil {
		t.Errorf("CheckReachable() = %v, %v, want timeout", ok, err)
	}
}

func TestCheckReachableRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	ok, _, err := New(time.Second).CheckReachable(context.Background(), "127.0.0.1", port)
	if ok || err == nil {
		t.Errorf("CheckReachable() = %v, %v, want connection error", ok, err)
	}
}

func TestSettleReturnsOnLogWrite(t *testing.T) {
	dir := t.TempDir()

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "error.log"), []byte("server started\n"), 0644)
	}()

	start := time.Now()
	New(time.Second).Settle(context.Background(), dir, 10*time.Second)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Settle() took %v, expected early return", elapsed)
	}
}

func TestSettleIgnoresEarlyLogNoise(t *testing.T) {
	dir := t.TempDir()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "access.log"), []byte("GET / 200\n"), 0644)
	}()

	start := time.Now()
	New(time.Second).Settle(context.Background(), dir, 10*time.Second)
	if elapsed := time.Since(start); elapsed < 1900*time.Millisecond {
		t.Errorf("Settle() returned after %v, before the minimum wait", elapsed)
	}
}

func TestSettleWithoutLogDir(t *testing.T) {
	start := time.Now()
	New(time.Second).Settle(context.Background(), filepath.Join(t.TempDir(), "missing"), 200*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Settle() returned after %v, before grace", elapsed)
	}
}

func TestSettleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	New(time.Second).Settle(ctx, t.TempDir(), 10*time.Second)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Settle() ignored cancellation, took %v", elapsed)
	}
}
