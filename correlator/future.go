package correlator

import (
	"context"
	"sync"
	"time"

	"github.com/fujin-io/rocketmq-go/message"
)

// Callback receives the outcome of an asynchronous request. Exactly one of
// its methods is called, at most once.
type Callback interface {
	OnSuccess(msg *message.Ext)
	OnException(err error)
}

// Future is a request waiting for its reply message.
type Future struct {
	correlationID string
	timeout       time.Duration
	begin         time.Time
	cb            Callback

	mu     sync.Mutex
	resp   *message.Ext
	cause  error
	sendOK bool

	done     chan struct{}
	doneOnce sync.Once
	cbOnce   sync.Once
}

func NewFuture(correlationID string, timeout time.Duration, cb Callback) *Future {
	return &Future{
		correlationID: correlationID,
		timeout:       timeout,
		begin:         time.Now(),
		cb:            cb,
		done:          make(chan struct{}),
	}
}

func (f *Future) CorrelationID() string {
	return f.correlationID
}

func (f *Future) Callback() Callback {
	return f.cb
}

// PutResponseMessage completes the future. Only the first call has an effect.
func (f *Future) PutResponseMessage(msg *message.Ext) {
	f.doneOnce.Do(func() {
		f.mu.Lock()
		f.resp = msg
		f.mu.Unlock()
		close(f.done)
	})
}

// OnSuccess hands the response to the callback, if any.
func (f *Future) OnSuccess() {
	if f.cb == nil {
		return
	}
	f.cbOnce.Do(func() {
		f.cb.OnSuccess(f.ResponseMessage())
	})
}

// OnException fails the future with err unless it already completed.
func (f *Future) OnException(err error) {
	f.doneOnce.Do(func() {
		f.mu.Lock()
		f.cause = err
		f.mu.Unlock()
		close(f.done)
	})
	if f.cb == nil {
		return
	}
	f.cbOnce.Do(func() {
		f.cb.OnException(err)
	})
}

func (f *Future) ResponseMessage() *message.Ext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resp
}

func (f *Future) Cause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cause
}

func (f *Future) SetSendRequestOK(ok bool) {
	f.mu.Lock()
	f.sendOK = ok
	f.mu.Unlock()
}

func (f *Future) IsSendRequestOK() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendOK
}

func (f *Future) IsTimeout(now time.Time) bool {
	return now.Sub(f.begin) > f.timeout
}

// Done is closed once the future has a response or a failure.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// WaitResponseMessage blocks until the reply arrives, the future fails, its
// timeout elapses or ctx is done.
func (f *Future) WaitResponseMessage(ctx context.Context) (*message.Ext, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}

	ctx, cancel := context.WithDeadline(ctx, f.begin.Add(f.timeout))
	defer cancel()

	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		return nil, ErrRequestTimeout
	}
}

func (f *Future) result() (*message.Ext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resp, f.cause
}
