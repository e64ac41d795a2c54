// Package client holds the client instance the broker callbacks act on: its
// namespace, the producers registered by group and the rebalance service.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fujin-io/rocketmq-go/config"
	"github.com/fujin-io/rocketmq-go/message"
	"github.com/fujin-io/rocketmq-go/remoting"
)

var (
	ErrEmptyGroup     = errors.New("empty producer group")
	ErrProducerExists = errors.New("producer group already registered")
	ErrInstanceClosed = errors.New("client instance closed")
)

// Producer is the part of a producer the broker can call back into.
type Producer interface {
	// CheckTransactionState asks the producer for the state of a half message.
	// The producer replies to the broker on its own.
	CheckTransactionState(remoteAddr string, msg *message.Ext, header *remoting.CheckTransactionStateRequestHeader)
}

// Handle is a live client instance.
type Handle interface {
	Namespace() string
	RebalanceImmediately()
	SelectProducer(ctx context.Context, group string) (Producer, bool)
}

var _ Handle = (*Instance)(nil)

type Option func(i *Instance)

func WithLogger(l *slog.Logger) Option {
	return func(i *Instance) {
		i.l = l
	}
}

// WithRebalancer sets the function the rebalance service runs on every wakeup.
func WithRebalancer(fn func(ctx context.Context)) Option {
	return func(i *Instance) {
		i.rebalance = fn
	}
}

type Instance struct {
	conf config.ClientConfig

	producers map[string]Producer
	mu        sync.RWMutex

	rebalance   func(ctx context.Context)
	rebalanceCh chan struct{}

	closed atomic.Bool

	l *slog.Logger
}

func NewInstance(conf config.ClientConfig, opts ...Option) (*Instance, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}

	i := &Instance{
		conf:        conf,
		producers:   make(map[string]Producer),
		rebalanceCh: make(chan struct{}, 1),
		l:           slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.l = i.l.With("component", "client-instance", "instance_name", conf.InstanceName)
	return i, nil
}

func (i *Instance) Namespace() string {
	return i.conf.Namespace
}

func (i *Instance) RegisterProducer(group string, p Producer) error {
	if group == "" {
		return ErrEmptyGroup
	}
	if i.closed.Load() {
		return ErrInstanceClosed
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.producers[group]; ok {
		return fmt.Errorf("%w: %s", ErrProducerExists, group)
	}
	i.producers[group] = p
	return nil
}

func (i *Instance) UnregisterProducer(group string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.producers, group)
}

func (i *Instance) SelectProducer(ctx context.Context, group string) (Producer, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	p, ok := i.producers[group]
	return p, ok
}

// RebalanceImmediately wakes the rebalance service. Wakeups coalesce while one is pending.
func (i *Instance) RebalanceImmediately() {
	select {
	case i.rebalanceCh <- struct{}{}:
	default:
	}
}

// Run is the rebalance service loop. It rebalances on every wakeup and every
// RebalanceInterval until ctx is done or the instance is closed.
func (i *Instance) Run(ctx context.Context) {
	interval := i.conf.RebalanceInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	i.l.Info("rebalance service started", "interval", interval)
	defer i.l.Info("rebalance service stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-i.rebalanceCh:
		}

		if i.closed.Load() {
			return
		}
		if i.rebalance != nil {
			i.rebalance(ctx)
		}
	}
}

func (i *Instance) Close() error {
	if i.closed.Swap(true) {
		return nil
	}

	i.mu.Lock()
	i.producers = make(map[string]Producer)
	i.mu.Unlock()

	i.RebalanceImmediately()
	return nil
}
