package correlator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRequestTimeout = errors.New("request timeout")
	ErrHolderClosed   = errors.New("request holder closed")
)

// Registry stores pending request futures by correlation id.
type Registry interface {
	Put(f *Future)
	Get(ctx context.Context, correlationID string) (*Future, bool)
	Remove(correlationID string)
}

var _ Registry = (*Holder)(nil)

type Option func(h *Holder)

func WithLogger(l *slog.Logger) Option {
	return func(h *Holder) {
		h.l = l
	}
}

// Holder manages correlation between requests and their reply messages
type Holder struct {
	m  map[string]*Future
	mu sync.RWMutex

	l *slog.Logger
}

// NewHolder creates an empty holder
func NewHolder(opts ...Option) *Holder {
	h := &Holder{
		m: make(map[string]*Future),
		l: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.l = h.l.With("component", "request-future-holder")
	return h
}

// NewCorrelationID returns a fresh id for the correlation property of a request message.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Put registers f under its correlation id
func (h *Holder) Put(f *Future) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m[f.CorrelationID()] = f
}

// Get looks up a pending future
func (h *Holder) Get(ctx context.Context, correlationID string) (*Future, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	f, ok := h.m[correlationID]
	return f, ok
}

// Remove deletes a future by correlation id
func (h *Holder) Remove(correlationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.m, correlationID)
}

func (h *Holder) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.m)
}

// ScanExpired removes the futures whose timeout elapsed at now and fails them
// with ErrRequestTimeout. Callbacks run after the lock is released.
func (h *Holder) ScanExpired(now time.Time) int {
	var expired []*Future

	h.mu.Lock()
	for id, f := range h.m {
		if f.IsTimeout(now) {
			expired = append(expired, f)
			delete(h.m, id)
		}
	}
	h.mu.Unlock()

	for _, f := range expired {
		h.l.Warn("remove timeout request", "correlation_id", f.CorrelationID())
		f.OnException(ErrRequestTimeout)
	}
	return len(expired)
}

// Run scans for expired futures every interval until ctx is done.
func (h *Holder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			h.ScanExpired(now)
		}
	}
}

// Close fails all pending futures and clears the holder
func (h *Holder) Close() {
	h.mu.Lock()
	pending := h.m
	h.m = make(map[string]*Future)
	h.mu.Unlock()

	for _, f := range pending {
		f.OnException(ErrHolderClosed)
	}
}
