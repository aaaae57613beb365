package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	tokensPerMin  int
	maxTokens     int
	errorMessage  string
	idleAfter     time.Duration
	now           func() time.Time
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Config for creating a new rate limiter
type Config struct {
	TokensPerMinute int    // Number of tokens added per minute
	MaxTokens       int    // Burst size, defaults to TokensPerMinute
	ErrorMessage    string // Message to return when rate limited
}

// New creates a new rate limiter
func New(cfg Config) *Limiter {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = cfg.TokensPerMinute
	}

	l := &Limiter{
		buckets:      make(map[string]*bucket),
		tokensPerMin: cfg.TokensPerMinute,
		maxTokens:    cfg.MaxTokens,
		errorMessage: cfg.ErrorMessage,
		idleAfter:    10 * time.Minute,
		now:          time.Now,
		stopCleanup:  make(chan struct{}),
	}

	l.cleanupTicker = time.NewTicker(5 * time.Minute)
	go l.cleanup()

	return l
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.sweep()
		case <-l.stopCleanup:
			l.cleanupTicker.Stop()
			return
		}
	}
}

// sweep drops buckets idle for longer than idleAfter
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleAfter {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) get(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Limit(float64(l.tokensPerMin) / 60)
		b = &bucket{lim: rate.NewLimiter(every, l.maxTokens)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Allow reports whether one more request for key (usually a client IP) fits
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN reports whether n requests fit, consuming them if so
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	return l.get(key, now).lim.AllowN(now, n)
}

// Remaining returns the number of whole tokens left for key
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.maxTokens
	}
	tokens := b.lim.TokensAt(l.now())
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// ErrorMessage returns the error message for this limiter
func (l *Limiter) ErrorMessage() string {
	return l.errorMessage
}

// Reset forgets the bucket for a key, e.g. after a successful login
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Global rate limiters
var (
	// LoginLimiter limits token and registration requests to 10 per minute per IP
	LoginLimiter = New(Config{
		TokensPerMinute: 10,
		MaxTokens:       10,
		ErrorMessage:    "Too many login attempts. Please try again later.",
	})

	// PublicLimiter limits unauthenticated status reads to 120 per minute per IP
	PublicLimiter = New(Config{
		TokensPerMinute: 120,
		MaxTokens:       120,
		ErrorMessage:    "Too many requests. Please slow down.",
	})

	// CheckLimiter limits on-demand probes to 30 per minute per IP
	CheckLimiter = New(Config{
		TokensPerMinute: 30,
		MaxTokens:       30,
		ErrorMessage:    "Too many check requests. Please slow down.",
	})
)
