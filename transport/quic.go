package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/quic-go/quic-go"
)

// ALPN is the application protocol negotiated on QUIC connections.
const ALPN = "rocketmq-remoting/1"

const (
	quicCodeNoError      quic.ApplicationErrorCode = 0x0
	quicCodeBadFrame     quic.StreamErrorCode      = 0x1
	quicCodeWriteTimeout quic.StreamErrorCode      = 0x2
)

// QUICConn serves broker requests arriving on a QUIC connection. Every
// request is one stream: the broker writes a frame, the client answers on the
// same stream unless the request is oneway or has no response.
type QUICConn struct {
	qconn *quic.Conn
	h     Handler

	wdl          time.Duration
	maxFrameSize int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	l *slog.Logger
}

func DialQUIC(ctx context.Context, addr string, h Handler, opts ...Option) (*QUICConn, error) {
	conf := newDialConfig(opts)
	if conf.tlsConf == nil {
		return nil, errors.New("quic: tls config required")
	}

	tlsConf := conf.tlsConf.Clone()
	tlsConf.NextProtos = []string{ALPN}

	qconn, err := quic.DialAddr(ctx, addr, tlsConf, conf.quicConf)
	if err != nil {
		return nil, fmt.Errorf("quic: dial addr: %w", err)
	}

	c := &QUICConn{
		qconn:        qconn,
		h:            h,
		wdl:          conf.wdl,
		maxFrameSize: conf.maxFrameSize,
		l:            conf.l.With("component", "quic-conn", "remote_addr", qconn.RemoteAddr().String()),
	}

	// Requests outlive the dial context, they stop with the connection.
	acceptCtx, cancel := context.WithCancel(qconn.Context())
	c.cancel = cancel

	c.wg.Add(1)
	go c.acceptStreams(acceptCtx)

	c.l.Info("connected")
	return c, nil
}

func (c *QUICConn) RemoteAddr() string {
	return c.qconn.RemoteAddr().String()
}

func (c *QUICConn) acceptStreams(ctx context.Context) {
	defer c.wg.Done()

	for {
		str, err := c.qconn.AcceptStream(ctx)
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() {
				return
			}
			c.l.Error("accept stream", "err", err)
			return
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.serveStream(ctx, str)
		}()
	}
}

func (c *QUICConn) serveStream(ctx context.Context, str *quic.Stream) {
	defer str.Close()

	req, err := remoting.ReadFrame(str, c.maxFrameSize)
	if err != nil {
		c.l.Error("read request", "stream_id", str.StreamID(), "err", err)
		str.CancelRead(quicCodeBadFrame)
		return
	}

	resp := serve(ctx, c.h, c.l, c.RemoteAddr(), req)
	if resp == nil {
		return
	}

	if err := str.SetWriteDeadline(deadline(c.wdl)); err != nil {
		c.l.Error("set write deadline", "err", err)
	}
	if err := remoting.WriteFrame(str, resp); err != nil {
		c.l.Error("write response", "opaque", resp.Opaque, "err", err)
		str.CancelWrite(quicCodeWriteTimeout)
	}
}

// Close closes the connection and waits for the streams being served.
func (c *QUICConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()
	err := c.qconn.CloseWithError(quicCodeNoError, "")
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("quic: close: %w", err)
	}
	c.l.Info("connection closed")
	return nil
}
