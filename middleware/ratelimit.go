package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"lawfort/pkg/logger"
	"lawfort/pkg/response"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window per-IP counter used on the credential
// endpoints.
type RateLimiter struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

func NewRateLimiter(max int, period time.Duration) *RateLimiter {
	return &RateLimiter{max: max, period: period, now: time.Now, clients: make(map[string]*window)}
}

// Allow counts one request from ip and reports whether it is within quota.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[ip]
	if !ok || now.Sub(w.start) > l.period {
		w = &window{start: now}
		l.clients[ip] = w
	}
	w.count++
	return w.count <= l.max
}

// Sweep drops windows idle for two periods.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, w := range l.clients {
		if now.Sub(w.start) > 2*l.period {
			delete(l.clients, ip)
		}
	}
}

// Run sweeps every period until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.Allow(ip) {
			logger.Sugar.Warnf("Rate limit exceeded for %s on %s", ip, r.URL.Path)
			response.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
