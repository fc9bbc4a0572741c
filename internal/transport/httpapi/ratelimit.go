package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// RateLimits configures per-client request budgets. Zero disables a limit.
type RateLimits struct {
	QueryPerMinute  int
	IngestPerMinute int
}

// ipLimiter hands out one token bucket per client address. Buckets idle for
// more than an hour are pruned on the next lookup sweep.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	perMinute int
	lastPrune time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	return &ipLimiter{
		clients:   make(map[string]*client),
		perMinute: perMinute,
		lastPrune: time.Now(),
	}
}

// allow reports whether the client may proceed.
func (l *ipLimiter) allow(addr string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > time.Hour {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > time.Hour {
				delete(l.clients, k)
			}
		}
		l.lastPrune = now
	}

	c, ok := l.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(l.perMinute)/60, l.perMinute)}
		l.clients[addr] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// rateLimit wraps a handler with the per-IP limiter, answering 429 once the
// bucket is exhausted.
func (s *Server) rateLimit(l *ipLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientAddr(r)) {
				s.handleDomainError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr strips the port so all connections from one host share a bucket.
// middleware.RealIP has already resolved proxy headers into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
