// Package transport carries remoting commands between the broker and the
// client. The broker opens the exchanges, the client answers through a Handler.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fujin-io/rocketmq-go/config"
	"github.com/fujin-io/rocketmq-go/remoting"
)

// Handler processes a broker request and returns the response to send back,
// nil when there is none.
type Handler interface {
	ProcessRequest(ctx context.Context, remoteAddr string, req *remoting.Command) (*remoting.Command, error)
}

type Conn interface {
	RemoteAddr() string
	Close() error
}

var (
	_ Conn = (*QUICConn)(nil)
	_ Conn = (*GRPCConn)(nil)
	_ Conn = (*WSConn)(nil)
)

// Dial connects with the transport selected by conf. Options given here take
// precedence over conf.
func Dial(ctx context.Context, conf config.TransportConfig, h Handler, opts ...Option) (Conn, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	opts = append([]Option{
		WithWriteDeadline(conf.WriteDeadline),
		WithMaxFrameSize(conf.MaxFrameSize),
		WithBackoff(conf.GRPC.Backoff),
	}, opts...)

	switch conf.Kind {
	case config.TransportQUIC:
		return DialQUIC(ctx, conf.Addr, h, opts...)
	case config.TransportGRPC:
		return DialGRPC(ctx, conf.Addr, h, opts...)
	case config.TransportWS:
		return DialWS(ctx, conf.Addr, h, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, conf.Kind)
	}
}

// serve runs one request through h and prepares the response for the wire.
// It returns nil when nothing must be written back.
func serve(ctx context.Context, h Handler, l *slog.Logger, remoteAddr string, req *remoting.Command) *remoting.Command {
	if req.IsResponse() {
		l.Warn("unexpected response from broker", "code", req.Code, "opaque", req.Opaque)
		return nil
	}

	resp, err := h.ProcessRequest(ctx, remoteAddr, req)
	if err != nil {
		l.Error("process request", "code", req.RequestCode(), "opaque", req.Opaque, "err", err)
	}
	if resp == nil || req.IsOneway() {
		return nil
	}
	resp.Opaque = req.Opaque
	return resp
}

func deadline(wdl time.Duration) time.Time {
	if wdl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(wdl)
}
