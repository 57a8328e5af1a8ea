package shield

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cspHTTP/internal/hash"
)

// RateLimitConfig defines the per-client token bucket.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second.
	Rate float64
	// Burst is the number of requests allowed at once.
	Burst int
	// Methods are the request methods counted against the limit. Empty
	// means every method.
	Methods []string
	// IdleTTL drops the bucket of a client that has been quiet this long.
	IdleTTL time.Duration
}

// DefaultRateLimit limits form submissions to 5 per minute per client.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Rate:    5.0 / 60.0,
		Burst:   5,
		Methods: []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		IdleTTL: 10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. A client is identified
// by its IP address and user agent.
type RateLimiter struct {
	cfg     RateLimitConfig
	methods map[string]bool
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[uint64]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter. Call StartSweeper to drop idle
// clients periodically.
func NewRateLimiter(cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	methods := make(map[string]bool, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods[strings.ToUpper(m)] = true
	}

	return &RateLimiter{
		cfg:     cfg,
		methods: methods,
		logger:  logger,
		clients: make(map[uint64]*clientLimiter),
		now:     time.Now,
	}
}

// StartSweeper removes idle client buckets every interval until done is
// closed.
func (rl *RateLimiter) StartSweeper(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Allow reports whether a request from the client identified by ip and
// userAgent may proceed, consuming a token if so.
func (rl *RateLimiter) Allow(ip, userAgent string) bool {
	key := hash.Fingerprint([]byte(ip + "\x00" + userAgent))
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.Rate), rl.cfg.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) counts(method string) bool {
	return len(rl.methods) == 0 || rl.methods[method]
}

// Middleware rejects requests over the limit with 429 and a JSON body.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.counts(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ip := ExtractIP(r)
		if rl.Allow(ip, r.UserAgent()) {
			next.ServeHTTP(w, r)
			return
		}

		rl.logger.Warn("rate limit exceeded",
			"ip", ip,
			"method", r.Method,
			"path", r.URL.Path,
		)

		retry := 1
		if rl.cfg.Rate > 0 {
			retry = int(1/rl.cfg.Rate + 0.5)
			if retry < 1 {
				retry = 1
			}
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Too many requests. Please try again later.",
		})
	})
}

// ExtractIP returns the client IP from the first X-Forwarded-For hop,
// X-Real-IP or RemoteAddr, in that order. Header values that are not IP
// addresses are ignored.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
