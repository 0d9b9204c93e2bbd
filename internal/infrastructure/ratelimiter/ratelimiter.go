package ratelimiter

import (
	"net/http"
	"sync"
	"time"
)

const (
	windowKeyPrefix  = "rl:window:"
	defaultSourceKey = "Authorization"
)

// Limiter admits or rejects message-creation attempts per identity.
// The window is deliberately tight: it is a burst guard, not a
// fairness quota.
type Limiter interface {
	Allow(sourceKey string) bool
	Remaining(sourceKey string) int
	Limit() int
	SourceKey(r *http.Request) string
}

// FixedWindow bounds admissions to at most `limit` per identity within
// each window. Counters live behind GetterSetter; per-key mutexes make
// the read-modify-write atomic for concurrent requests sharing an
// identity.
type FixedWindow struct {
	limit           int
	window          time.Duration
	cache           GetterSetter
	cacheTTL        time.Duration
	sourceHeaderKey string

	locks sync.Map // map[string]*sync.Mutex
}

type Options struct {
	Requests        int
	Window          time.Duration
	Cache           GetterSetter
	CacheTTL        time.Duration
	SourceHeaderKey string
}

func New(options Options) *FixedWindow {
	if options.Cache == nil {
		options.Cache = NewInMemory()
	}

	if options.Requests <= 0 {
		options.Requests = 50
	}

	if options.Window <= 0 {
		options.Window = 100 * time.Millisecond
	}

	if options.CacheTTL == 0 {
		options.CacheTTL = 10 * time.Second
	}

	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = defaultSourceKey
	}

	return &FixedWindow{
		limit:           options.Requests,
		window:          options.Window,
		cache:           options.Cache,
		cacheTTL:        options.CacheTTL,
		sourceHeaderKey: options.SourceHeaderKey,
	}
}

func (fw *FixedWindow) getLock(sourceKey string) *sync.Mutex {
	lock, _ := fw.locks.LoadOrStore(sourceKey, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (fw *FixedWindow) getState(sourceKey string, now int64) windowState {
	state, err := fw.cache.Get(windowKeyPrefix + sourceKey)
	if err != nil {
		// Miss or cache failure: start a fresh window. Failing open
		// keeps the limiter from turning a cache outage into a full
		// write outage.
		return windowState{Count: 0, StartMS: now}
	}

	if now-state.StartMS >= fw.window.Milliseconds() {
		return windowState{Count: 0, StartMS: now}
	}

	return state
}

func (fw *FixedWindow) setState(sourceKey string, state windowState) {
	_ = fw.cache.SetWithExpiration(windowKeyPrefix+sourceKey, state, fw.cacheTTL)
}

// Allow consumes one admission for the identity, returning false once
// the identity has exhausted the window.
func (fw *FixedWindow) Allow(sourceKey string) bool {
	lock := fw.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := fw.getState(sourceKey, now)

	if state.Count >= fw.limit {
		return false
	}

	state.Count++
	fw.setState(sourceKey, state)

	return true
}

func (fw *FixedWindow) Remaining(sourceKey string) int {
	lock := fw.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := fw.getState(sourceKey, now)

	remaining := fw.limit - state.Count
	if remaining < 0 {
		remaining = 0
	}

	return remaining
}

func (fw *FixedWindow) Limit() int {
	return fw.limit
}

// SourceKey derives the rate-limit identity from the request: the raw
// credential header value, falling back to the client address for
// unauthenticated requests.
func (fw *FixedWindow) SourceKey(r *http.Request) string {
	if key := r.Header.Get(fw.sourceHeaderKey); key != "" {
		return key
	}

	return r.RemoteAddr
}
