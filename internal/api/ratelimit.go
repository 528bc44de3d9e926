package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window request counter per client address.
// Turn stepping is the expensive call it protects.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
	now     func() time.Time

	// trusted lists proxies whose X-Forwarded-For header is believed.
	trusted []netip.Prefix
}

type window struct {
	remaining int
	opened    time.Time
}

// NewRateLimiter allows limit requests per client in every span.
func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
		now:     time.Now,
	}
}

// Allow consumes one request for client and reports whether it fits.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, ok := rl.windows[client]
	if !ok || now.Sub(win.opened) >= rl.span {
		rl.windows[client] = &window{remaining: rl.limit - 1, opened: now}
		return rl.limit > 0
	}
	if win.remaining > 0 {
		win.remaining--
		return true
	}
	return false
}

// RetryAfter returns whole seconds until client's window reopens.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[client]
	if !ok {
		return 0
	}
	left := rl.span - rl.now().Sub(win.opened)
	if left < 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// Sweep forgets clients idle for two windows. Run it from a maintenance loop.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	n := 0
	for client, win := range rl.windows {
		if now.Sub(win.opened) > 2*rl.span {
			delete(rl.windows, client)
			n++
		}
	}
	return n
}

// TrustProxies sets the proxy addresses or CIDR ranges whose X-Forwarded-For
// header names the real client. With none set the header is ignored.
func (rl *RateLimiter) TrustProxies(cidrs ...string) error {
	var out []netip.Prefix
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if p, err := netip.ParsePrefix(c); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(c)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
	}
	rl.mu.Lock()
	rl.trusted = out
	rl.mu.Unlock()
	return nil
}

func (rl *RateLimiter) isTrusted(host string) bool {
	a, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	a = a.Unmap()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, p := range rl.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientAddr returns the peer host. When the peer is a trusted proxy it walks
// X-Forwarded-For from the right and returns the first untrusted hop.
func (rl *RateLimiter) clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !rl.isTrusted(host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		host = hop
		if !rl.isTrusted(hop) {
			break
		}
	}
	return host
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := rl.clientAddr(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
