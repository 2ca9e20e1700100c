package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ttsd/internal/apperr"
)

const (
	visitorIdle  = 3 * time.Minute
	visitorSweep = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address. Idle visitors
// are swept from allow, at most once per visitorSweep, so the limiter owns
// no goroutine and needs no shutdown.
type clientLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

func (l *clientLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= visitorSweep {
		l.sweepLocked(now)
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

func (l *clientLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

func (l *clientLimiter) sweepLocked(now time.Time) {
	l.lastSweep = now
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, k)
		}
	}
}

// middleware rejects requests over the client's budget with 429. It runs
// after middleware.RealIP, so RemoteAddr already reflects proxies.
func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}
		if !l.allow(key, time.Now()) {
			IncrementBackpressure("rate_limit")
			writeErrorBody(w, errorBody(apperr.RateLimited("too many requests")))
			return
		}
		next.ServeHTTP(w, r)
	})
}
