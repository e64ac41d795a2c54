// Package processor handles the requests a broker pushes to the client:
// reply messages for pending requests, transaction state checks and consumer
// group change notifications.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fujin-io/rocketmq-go/client"
	"github.com/fujin-io/rocketmq-go/compress"
	"github.com/fujin-io/rocketmq-go/config"
	"github.com/fujin-io/rocketmq-go/correlator"
	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/panjf2000/ants/v2"
)

type Processor struct {
	ref         client.Ref
	futures     correlator.Registry
	compressors compress.Factory

	poolConf config.PoolConfig
	pool     *ants.Pool

	l *slog.Logger
}

func New(ref client.Ref, futures correlator.Registry, opts ...Option) (*Processor, error) {
	if ref == nil {
		return nil, ErrNilRef
	}
	if futures == nil {
		return nil, ErrNilRegistry
	}

	p := &Processor{
		ref:         ref,
		futures:     futures,
		compressors: compress.Default,
		poolConf:    config.Default().Processor.Pool,
		l:           slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.l = p.l.With("component", "client-remoting-processor")

	if err := p.poolConf.Validate(); err != nil {
		return nil, fmt.Errorf("pool config: %w", err)
	}

	pool, err := ants.NewPool(p.poolConf.Size,
		ants.WithPreAlloc(p.poolConf.PreAlloc),
		ants.WithNonblocking(true),
		ants.WithLogger(antsLogger{l: p.l}),
		ants.WithPanicHandler(func(v any) {
			p.l.Error("task panicked", "panic", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	p.pool = pool

	return p, nil
}

// ProcessRequest handles one broker request and returns the response to send
// back, nil when the request expects none. A non-nil error never means the
// processor is unusable.
func (p *Processor) ProcessRequest(ctx context.Context, remoteAddr string, req *remoting.Command) (*remoting.Command, error) {
	code := req.RequestCode()
	p.l.Info("process request", "code", code, "remote_addr", remoteAddr)

	switch code {
	case remoting.CheckTransactionState:
		p.submit(ctx, code, func(ctx context.Context) {
			p.checkTransactionState(ctx, remoteAddr, req)
		})
		return nil, nil
	case remoting.NotifyConsumerIdsChanged:
		p.submit(ctx, code, func(context.Context) {
			p.notifyConsumerIdsChanged(remoteAddr, req)
		})
		return nil, nil
	case remoting.PushReplyMessageToClient:
		return p.receiveReplyMessage(ctx, req), nil
	case remoting.ResetConsumerClientOffset,
		remoting.GetConsumerStatusFromClient,
		remoting.GetConsumerRunningInfo,
		remoting.ConsumeMessageDirectly:
		p.l.Error("request code not implemented", "code", code)
		return remoting.NewResponse(remoting.RequestCodeNotSupported, code.String()+" not implemented"),
			fmt.Errorf("%w: %s", ErrNotImplemented, code)
	default:
		p.l.Info("unknown request code", "code", code)
		return nil, nil
	}
}

// submit runs fn on the pool detached from ctx cancellation, the request
// has already been answered by the time fn runs. When every worker is busy fn
// runs on the calling goroutine, a request is never dropped for lack of
// workers.
func (p *Processor) submit(ctx context.Context, code remoting.RequestCode, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	err := p.pool.Submit(func() { fn(ctx) })
	switch {
	case err == nil:
	case errors.Is(err, ants.ErrPoolOverload):
		p.l.Warn("pool overloaded, running task inline", "code", code, "running", p.pool.Running())
		fn(ctx)
	default:
		p.l.Error("submit task", "code", code, "err", err)
	}
}

// Close waits for running tasks up to the configured release timeout.
func (p *Processor) Close() error {
	if p.poolConf.ReleaseTimeout <= 0 {
		p.pool.Release()
		return nil
	}
	if err := p.pool.ReleaseTimeout(p.poolConf.ReleaseTimeout); err != nil {
		return fmt.Errorf("release pool: %w", err)
	}
	return nil
}

type antsLogger struct {
	l *slog.Logger
}

func (a antsLogger) Printf(format string, args ...any) {
	a.l.Error(fmt.Sprintf(format, args...))
}
