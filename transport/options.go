package transport

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/fujin-io/rocketmq-go/config"
	"github.com/quic-go/quic-go"
	"google.golang.org/grpc"
)

type Option func(c *dialConfig)

type dialConfig struct {
	l *slog.Logger

	wdl          time.Duration
	maxFrameSize int

	tlsConf  *tls.Config
	quicConf *quic.Config

	grpcOpts []grpc.DialOption
	backoff  config.ReconnectBackoff
}

func newDialConfig(opts []Option) *dialConfig {
	d := config.Default().Transport
	c := &dialConfig{
		l:            slog.Default(),
		wdl:          d.WriteDeadline,
		maxFrameSize: d.MaxFrameSize,
		backoff:      d.GRPC.Backoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithLogger(l *slog.Logger) Option {
	return func(c *dialConfig) {
		c.l = l
	}
}

// WithWriteDeadline bounds every response write, zero disables it.
func WithWriteDeadline(wdl time.Duration) Option {
	return func(c *dialConfig) {
		c.wdl = wdl
	}
}

func WithMaxFrameSize(n int) Option {
	return func(c *dialConfig) {
		c.maxFrameSize = n
	}
}

// WithTLSConfig sets the TLS configuration, required for QUIC and enabling TLS for gRPC and WebSocket.
func WithTLSConfig(tlsConf *tls.Config) Option {
	return func(c *dialConfig) {
		c.tlsConf = tlsConf
	}
}

// WithQUICConfig sets the QUIC configuration (only used for QUIC transport)
func WithQUICConfig(quicConf *quic.Config) Option {
	return func(c *dialConfig) {
		c.quicConf = quicConf
	}
}

// WithGRPCOptions sets gRPC dial options (only used for gRPC transport)
func WithGRPCOptions(opts ...grpc.DialOption) Option {
	return func(c *dialConfig) {
		c.grpcOpts = append(c.grpcOpts, opts...)
	}
}

// WithBackoff sets the stream reconnect policy (only used for gRPC transport)
func WithBackoff(b config.ReconnectBackoff) Option {
	return func(c *dialConfig) {
		c.backoff = b
	}
}
