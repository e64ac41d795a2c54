package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	TransportQUIC = "quic"
	TransportGRPC = "grpc"
	TransportWS   = "ws"
)

var (
	ErrEmptyAddr        = errors.New("empty transport address")
	ErrUnknownTransport = errors.New("unknown transport")
	ErrNegativeDuration = errors.New("negative duration")
	ErrInvalidPoolSize  = errors.New("invalid pool size")
)

type Config struct {
	Client     ClientConfig     `mapstructure:"client"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
	Transport  TransportConfig  `mapstructure:"transport"`
	Correlator CorrelatorConfig `mapstructure:"correlator"`
}

type ClientConfig struct {
	// Namespace is stripped from topics the broker sends back, empty disables it.
	Namespace         string        `mapstructure:"namespace"`
	InstanceName      string        `mapstructure:"instance_name"`
	RebalanceInterval time.Duration `mapstructure:"rebalance_interval"`
}

type ProcessorConfig struct {
	Pool PoolConfig `mapstructure:"pool"`
}

type PoolConfig struct {
	Size           int           `mapstructure:"size"`
	PreAlloc       bool          `mapstructure:"pre_alloc"`
	ReleaseTimeout time.Duration `mapstructure:"release_timeout"`
}

type TransportConfig struct {
	Kind          string        `mapstructure:"kind"`
	Addr          string        `mapstructure:"addr"`
	WriteDeadline time.Duration `mapstructure:"write_deadline"`
	MaxFrameSize  int           `mapstructure:"max_frame_size"`
	GRPC          GRPCConfig    `mapstructure:"grpc"`
}

type GRPCConfig struct {
	Backoff ReconnectBackoff `mapstructure:"backoff"`
}

type ReconnectBackoff struct {
	Initial    time.Duration `mapstructure:"initial"`
	Max        time.Duration `mapstructure:"max"`
	Multiplier float64       `mapstructure:"multiplier"`
}

type CorrelatorConfig struct {
	ScanInterval time.Duration `mapstructure:"scan_interval"`
}

func Default() Config {
	return Config{
		Client: ClientConfig{
			InstanceName:      "DEFAULT",
			RebalanceInterval: 20 * time.Second,
		},
		Processor: ProcessorConfig{
			Pool: PoolConfig{
				Size:           64,
				ReleaseTimeout: 5 * time.Second,
			},
		},
		Transport: TransportConfig{
			Kind:          TransportQUIC,
			WriteDeadline: 5 * time.Second,
			MaxFrameSize:  16 << 20,
			GRPC: GRPCConfig{
				Backoff: ReconnectBackoff{
					Initial:    200 * time.Millisecond,
					Max:        5 * time.Second,
					Multiplier: 2.0,
				},
			},
		},
		Correlator: CorrelatorConfig{
			ScanInterval: time.Second,
		},
	}
}

// Load reads path and overlays ROCKETMQ_* environment variables on top of Default.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("rocketmq")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("client.namespace", d.Client.Namespace)
	v.SetDefault("client.instance_name", d.Client.InstanceName)
	v.SetDefault("client.rebalance_interval", d.Client.RebalanceInterval)
	v.SetDefault("processor.pool.size", d.Processor.Pool.Size)
	v.SetDefault("processor.pool.pre_alloc", d.Processor.Pool.PreAlloc)
	v.SetDefault("processor.pool.release_timeout", d.Processor.Pool.ReleaseTimeout)
	v.SetDefault("transport.kind", d.Transport.Kind)
	v.SetDefault("transport.addr", d.Transport.Addr)
	v.SetDefault("transport.write_deadline", d.Transport.WriteDeadline)
	v.SetDefault("transport.max_frame_size", d.Transport.MaxFrameSize)
	v.SetDefault("transport.grpc.backoff.initial", d.Transport.GRPC.Backoff.Initial)
	v.SetDefault("transport.grpc.backoff.max", d.Transport.GRPC.Backoff.Max)
	v.SetDefault("transport.grpc.backoff.multiplier", d.Transport.GRPC.Backoff.Multiplier)
	v.SetDefault("correlator.scan_interval", d.Correlator.ScanInterval)
}

func (c Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Processor.Pool.Validate(); err != nil {
		return fmt.Errorf("processor: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if c.Correlator.ScanInterval < 0 {
		return fmt.Errorf("correlator: %w: scan_interval", ErrNegativeDuration)
	}
	return nil
}

func (c ClientConfig) Validate() error {
	if c.RebalanceInterval < 0 {
		return fmt.Errorf("%w: rebalance_interval", ErrNegativeDuration)
	}
	return nil
}

func (c PoolConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPoolSize, c.Size)
	}
	if c.ReleaseTimeout < 0 {
		return fmt.Errorf("%w: release_timeout", ErrNegativeDuration)
	}
	return nil
}

func (c TransportConfig) Validate() error {
	switch c.Kind {
	case TransportQUIC, TransportGRPC, TransportWS:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Kind)
	}
	if c.Addr == "" {
		return ErrEmptyAddr
	}
	if c.WriteDeadline < 0 {
		return fmt.Errorf("%w: write_deadline", ErrNegativeDuration)
	}
	return nil
}
