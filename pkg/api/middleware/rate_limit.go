package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shopforge/shopforge/config"
	"github.com/shopforge/shopforge/pkg/api/response"
)

const clientLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a middleware applying a per-client token bucket keyed by
// remote IP. Stale client entries are evicted lazily.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
		sweep   = time.Now()
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			client, ok := clients[ip]
			if !ok {
				client = &clientLimiter{
					limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
				}
				clients[ip] = client
			}
			client.lastSeen = time.Now()

			if time.Since(sweep) > clientLimiterTTL {
				for key, entry := range clients {
					if time.Since(entry.lastSeen) > clientLimiterTTL {
						delete(clients, key)
					}
				}
				sweep = time.Now()
			}
			allowed := client.limiter.Allow()
			mu.Unlock()

			if !allowed {
				requestID := GetRequestID(r.Context())
				w.Header().Set("Retry-After", "1")
				response.Error(w,
					http.StatusTooManyRequests,
					"RATE_LIMITED",
					"Too many requests",
					requestID,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
