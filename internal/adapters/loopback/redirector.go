package loopback

// Package loopback implements the interactive redirect with the system browser and a
// callback listener bound to the loopback interface.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/ports"
)

var (
	_ ports.Redirector          = (*Redirector)(nil)
	_ ports.RedirectURIProvider = (*Redirector)(nil)
)

// relayPage moves fragment parameters (implicit flow) into the query so the
// listener can read them. Redirects without a fragment are marked completed.
const relayPage = `<!DOCTYPE html>
<html><head><title>FitMatch</title></head>
<body><script>
var h = window.location.hash.substring(1);
window.location.replace(window.location.pathname + "?" + (h || "completed=1"));
</script><noscript>JavaScript is required to finish signing in.</noscript></body></html>`

const donePage = `<!DOCTYPE html>
<html><head><title>FitMatch</title></head>
<body><p>You can close this window and return to the app.</p></body></html>`

// Config controls the callback listener.
type Config struct {
	// Addr is the listen address; port 0 picks a free port.
	Addr string
	// Path is the callback path registered with the provider.
	Path string
	// Opener opens a URL in the browser. Defaults to browser.OpenURL.
	Opener func(url string) error
	Logger *slog.Logger
}

// Redirector serves the callback and bridges browser redirects to Open callers.
type Redirector struct {
	addr   string
	path   string
	opener func(url string) error
	logger *slog.Logger

	mu          sync.Mutex
	server      *http.Server
	redirectURI string
	waiter      chan string
}

// New creates an unstarted redirector. RedirectURI is empty until Start succeeds.
func New(cfg Config) *Redirector {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	path := cfg.Path
	if path == "" {
		path = "/callback"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	opener := cfg.Opener
	if opener == nil {
		opener = browser.OpenURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Redirector{addr: addr, path: path, opener: opener, logger: logger}
}

// Start binds the listener and begins serving callbacks.
func (r *Redirector) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.server != nil {
		return errors.New("redirector already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", r.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(r.path, r.handleCallback)
	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.redirectURI = "http://" + ln.Addr().String() + r.path

	srv := r.server
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			r.logger.Error("callback listener stopped", "error", serveErr)
		}
	}()

	r.logger.Debug("callback listener started", "redirect_uri", r.redirectURI)
	return nil
}

// RedirectURI returns the callback URI, or "" before Start.
func (r *Redirector) RedirectURI() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirectURI
}

// Open sends the browser to pageURL and waits for the redirect back to the
// callback. Cancelling ctx yields RedirectDismissed.
func (r *Redirector) Open(ctx context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error) {
	r.mu.Lock()
	if r.server == nil {
		r.mu.Unlock()
		return ports.RedirectOutcome{}, apperrors.InvalidStatef("redirector not started")
	}
	if r.waiter != nil {
		r.mu.Unlock()
		return ports.RedirectOutcome{}, apperrors.Conflict("a browser redirect is already in progress")
	}
	if returnURL != "" && returnURL != r.redirectURI {
		r.logger.Warn("return URL differs from callback listener", "return_url", returnURL, "redirect_uri", r.redirectURI)
	}
	ch := make(chan string, 1)
	r.waiter = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.waiter == ch {
			r.waiter = nil
		}
		r.mu.Unlock()
	}()

	if err := r.opener(pageURL); err != nil {
		return ports.RedirectOutcome{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "open browser")
	}

	select {
	case callbackURL := <-ch:
		return ports.RedirectOutcome{Type: ports.RedirectCompleted, URL: callbackURL}, nil
	case <-ctx.Done():
		return ports.RedirectOutcome{Type: ports.RedirectDismissed}, nil
	}
}

func (r *Redirector) handleCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if req.URL.RawQuery == "" {
		_, _ = w.Write([]byte(relayPage))
		return
	}

	r.mu.Lock()
	ch := r.waiter
	r.waiter = nil
	callbackURL := r.redirectURI + "?" + req.URL.RawQuery
	r.mu.Unlock()

	if ch == nil {
		http.Error(w, "No sign-in is in progress", http.StatusGone)
		return
	}
	ch <- callbackURL
	_, _ = w.Write([]byte(donePage))
}

// Close stops the callback listener.
func (r *Redirector) Close(ctx context.Context) error {
	r.mu.Lock()
	srv := r.server
	r.server = nil
	r.redirectURI = ""
	r.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
