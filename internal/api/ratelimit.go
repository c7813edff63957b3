// Per-caller throttling for the mutating intent endpoints. Read-only
// snapshot routes are left unthrottled; only intents spend allowance.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// IntentLimiter grants each caller a fixed allowance of intents per
// window. The window restarts on the first intent after expiry.
type IntentLimiter struct {
	mu        sync.Mutex
	callers   map[string]*allowance
	perWindow int
	window    time.Duration
}

type allowance struct {
	left    int
	started time.Time
}

// NewIntentLimiter starts a limiter granting perWindow intents per
// caller per window, pruning idle callers in the background.
func NewIntentLimiter(perWindow int, window time.Duration) *IntentLimiter {
	l := &IntentLimiter{
		callers:   make(map[string]*allowance),
		perWindow: perWindow,
		window:    window,
	}
	go func() {
		for {
			time.Sleep(time.Hour)
			l.prune()
		}
	}()
	return l
}

// Allow spends one unit of the caller's allowance. It reports false
// once the caller has exhausted the current window.
func (l *IntentLimiter) Allow(caller string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	a, ok := l.callers[caller]
	if !ok || now.Sub(a.started) >= l.window {
		l.callers[caller] = &allowance{left: l.perWindow - 1, started: now}
		return true
	}
	if a.left > 0 {
		a.left--
		return true
	}
	return false
}

// RetryAfter reports whole seconds until the caller's window restarts,
// rounded up so clients never retry early.
func (l *IntentLimiter) RetryAfter(caller string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.callers[caller]
	if !ok {
		return 0
	}
	remaining := l.window - time.Since(a.started)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

func (l *IntentLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for caller, a := range l.callers {
		if now.Sub(a.started) > 2*l.window {
			delete(l.callers, caller)
		}
	}
}

// Middleware rejects over-limit intents with 429 and a Retry-After hint.
func (l *IntentLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerAddr(r)
		if !l.Allow(caller) {
			w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter(caller)))
			http.Error(w, "intent rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// callerAddr identifies the caller: the first X-Forwarded-For hop when
// a proxy fronts the server, otherwise the peer address without port.
func callerAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
