package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fujin-io/rocketmq-go/config"
	"github.com/fujin-io/rocketmq-go/remoting"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/peer"
)

const (
	ServiceName   = "rocketmq.remoting.v1.ClientCallback"
	MethodChannel = "/" + ServiceName + "/Channel"
)

// ChannelStreamDesc describes the bidi stream the broker pushes requests on.
var ChannelStreamDesc = grpc.StreamDesc{
	StreamName:    "Channel",
	ServerStreams: true,
	ClientStreams: true,
}

// GRPCConn serves broker requests arriving on a gRPC bidi stream. Requests
// are handled concurrently, responses are written back on the same stream.
// A broken stream is reopened with exponential backoff.
type GRPCConn struct {
	addr    string
	cc      *grpc.ClientConn
	h       Handler
	backoff config.ReconnectBackoff

	stream     grpc.ClientStream
	remoteAddr string
	streamMu   sync.RWMutex
	sendMu     sync.Mutex

	connected atomic.Bool
	closed    atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	l *slog.Logger
}

func DialGRPC(ctx context.Context, addr string, h Handler, opts ...Option) (*GRPCConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := newDialConfig(opts)

	creds := insecure.NewCredentials()
	if conf.tlsConf != nil {
		creds = credentials.NewTLS(conf.tlsConf)
	}
	grpcOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}, conf.grpcOpts...)

	cc, err := grpc.NewClient(addr, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc: new client: %w", err)
	}

	c := &GRPCConn{
		addr:       addr,
		cc:         cc,
		h:          h,
		backoff:    conf.backoff,
		remoteAddr: addr,
		l:          conf.l.With("component", "grpc-conn", "addr", addr),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.openStream(); err != nil {
		c.cancel()
		_ = cc.Close()
		return nil, err
	}

	c.wg.Add(1)
	go c.readRequests()

	c.l.Info("connected")
	return c, nil
}

func (c *GRPCConn) RemoteAddr() string {
	c.streamMu.RLock()
	defer c.streamMu.RUnlock()
	return c.remoteAddr
}

// Connected reports whether the stream is currently open.
func (c *GRPCConn) Connected() bool {
	return c.connected.Load()
}

func (c *GRPCConn) openStream() error {
	stream, err := c.cc.NewStream(c.ctx, &ChannelStreamDesc, MethodChannel)
	if err != nil {
		return fmt.Errorf("grpc: open channel stream: %w", err)
	}

	remoteAddr := c.addr
	if p, ok := peer.FromContext(stream.Context()); ok && p.Addr != nil {
		remoteAddr = p.Addr.String()
	}

	c.streamMu.Lock()
	c.stream = stream
	c.remoteAddr = remoteAddr
	c.streamMu.Unlock()

	c.connected.Store(true)
	return nil
}

func (c *GRPCConn) currentStream() grpc.ClientStream {
	c.streamMu.RLock()
	defer c.streamMu.RUnlock()
	return c.stream
}

func (c *GRPCConn) readRequests() {
	defer c.wg.Done()

	for {
		stream := c.currentStream()
		req := new(remoting.Command)
		if err := stream.RecvMsg(req); err != nil {
			if c.ctx.Err() != nil || c.closed.Load() {
				return
			}
			c.l.Error("receive failed, attempting to reconnect", "err", err)
			_ = stream.CloseSend()
			if err := c.reconnectWithBackoff(); err != nil {
				c.l.Error("reconnect failed, stopping", "err", err)
				return
			}
			continue
		}

		remoteAddr := c.RemoteAddr()
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handle(stream, remoteAddr, req)
		}()
	}
}

// handle answers on the stream req arrived on. The opaque means nothing to a
// stream opened after a reconnect.
func (c *GRPCConn) handle(stream grpc.ClientStream, remoteAddr string, req *remoting.Command) {
	resp := serve(c.ctx, c.h, c.l, remoteAddr, req)
	if resp == nil {
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := stream.SendMsg(resp); err != nil {
		c.l.Error("send response", "opaque", resp.Opaque, "err", err)
	}
}

func (c *GRPCConn) reconnectWithBackoff() error {
	c.connected.Store(false)

	backoff := c.backoff.Initial
	if backoff <= 0 {
		backoff = config.Default().Transport.GRPC.Backoff.Initial
	}
	for {
		if c.ctx.Err() != nil || c.closed.Load() {
			return ErrConnClosed
		}

		err := c.openStream()
		if err == nil {
			c.l.Info("reconnected")
			return nil
		}
		c.l.Warn("reconnect attempt failed", "err", err, "retry_in", backoff)

		select {
		case <-time.After(backoff):
		case <-c.ctx.Done():
			return ErrConnClosed
		}

		if c.backoff.Multiplier > 1 {
			backoff = time.Duration(float64(backoff) * c.backoff.Multiplier)
		}
		if c.backoff.Max > 0 && backoff > c.backoff.Max {
			backoff = c.backoff.Max
		}
	}
}

func (c *GRPCConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.connected.Store(false)
	c.cancel()
	err := c.cc.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("grpc: close: %w", err)
	}
	c.l.Info("connection closed")
	return nil
}
