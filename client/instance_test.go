package client_test

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fujin-io/rocketmq-go/client"
	"github.com/fujin-io/rocketmq-go/config"
	"github.com/fujin-io/rocketmq-go/message"
	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopProducer struct{}

func (nopProducer) CheckTransactionState(string, *message.Ext, *remoting.CheckTransactionStateRequestHeader) {
}

func TestProducerRegistry(t *testing.T) {
	inst, err := client.NewInstance(config.ClientConfig{Namespace: "NS"})
	require.NoError(t, err)
	assert.Equal(t, "NS", inst.Namespace())

	require.NoError(t, inst.RegisterProducer("PG1", nopProducer{}))
	assert.ErrorIs(t, inst.RegisterProducer("PG1", nopProducer{}), client.ErrProducerExists)
	assert.ErrorIs(t, inst.RegisterProducer("", nopProducer{}), client.ErrEmptyGroup)

	p, ok := inst.SelectProducer(context.Background(), "PG1")
	assert.True(t, ok)
	assert.NotNil(t, p)

	_, ok = inst.SelectProducer(context.Background(), "PG2")
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok = inst.SelectProducer(ctx, "PG1")
	assert.False(t, ok)

	inst.UnregisterProducer("PG1")
	_, ok = inst.SelectProducer(context.Background(), "PG1")
	assert.False(t, ok)
}

func TestInvalidConfig(t *testing.T) {
	_, err := client.NewInstance(config.ClientConfig{RebalanceInterval: -time.Second})
	assert.ErrorIs(t, err, config.ErrNegativeDuration)
}

func TestRebalanceService(t *testing.T) {
	var calls atomic.Int32
	inst, err := client.NewInstance(
		config.ClientConfig{RebalanceInterval: time.Hour},
		client.WithRebalancer(func(context.Context) { calls.Add(1) }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		inst.Run(ctx)
	}()

	inst.RebalanceImmediately()
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	inst.RebalanceImmediately()
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rebalance service did not stop")
	}
}

func TestRebalanceImmediatelyCoalesces(t *testing.T) {
	inst, err := client.NewInstance(config.ClientConfig{})
	require.NoError(t, err)

	// no service running, must not block
	for i := 0; i < 10; i++ {
		inst.RebalanceImmediately()
	}
}

func TestWeakRef(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		inst, err := client.NewInstance(config.ClientConfig{Namespace: "NS"})
		require.NoError(t, err)

		ref := client.Weak(inst)
		h, ok := ref.Resolve()
		require.True(t, ok)
		assert.Equal(t, "NS", h.Namespace())
		runtime.KeepAlive(inst)
	})

	t.Run("closed", func(t *testing.T) {
		inst, err := client.NewInstance(config.ClientConfig{})
		require.NoError(t, err)

		ref := client.Weak(inst)
		require.NoError(t, inst.Close())
		_, ok := ref.Resolve()
		assert.False(t, ok)
		runtime.KeepAlive(inst)
	})

	t.Run("collected", func(t *testing.T) {
		ref := func() client.Ref {
			inst, err := client.NewInstance(config.ClientConfig{})
			require.NoError(t, err)
			return client.Weak(inst)
		}()

		assert.Eventually(t, func() bool {
			runtime.GC()
			_, ok := ref.Resolve()
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}
