package processor

import (
	"log/slog"

	"github.com/fujin-io/rocketmq-go/compress"
	"github.com/fujin-io/rocketmq-go/config"
)

type Option func(p *Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.l = l
	}
}

// WithPoolConfig sizes the pool running transaction checks and rebalance notifications.
func WithPoolConfig(conf config.PoolConfig) Option {
	return func(p *Processor) {
		p.poolConf = conf
	}
}

func WithCompressorFactory(f compress.Factory) Option {
	return func(p *Processor) {
		p.compressors = f
	}
}
