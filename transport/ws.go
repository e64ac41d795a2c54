package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/gorilla/websocket"
)

// WSPath is the endpoint dialed when the address has no path.
const WSPath = "/remoting"

// WSConn serves broker requests arriving as binary WebSocket messages, one
// remoting frame per message.
type WSConn struct {
	wsConn *websocket.Conn
	h      Handler

	wdl     time.Duration
	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	l *slog.Logger
}

func DialWS(ctx context.Context, addr string, h Handler, opts ...Option) (*WSConn, error) {
	conf := newDialConfig(opts)

	u, err := wsURL(addr, conf)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		TLSClientConfig:  conf.tlsConf,
		HandshakeTimeout: 10 * time.Second,
	}
	wsConn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ws: connect to server: %w", err)
	}
	if conf.maxFrameSize > 0 {
		wsConn.SetReadLimit(int64(conf.maxFrameSize))
	}

	c := &WSConn{
		wsConn: wsConn,
		h:      h,
		wdl:    conf.wdl,
		l:      conf.l.With("component", "ws-conn", "remote_addr", wsConn.RemoteAddr().String()),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.readRequests()

	c.l.Info("connected", "url", u.String())
	return c, nil
}

func wsURL(addr string, conf *dialConfig) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		// host:port without a scheme
		u, err = url.Parse("//" + addr)
		if err != nil {
			return nil, fmt.Errorf("ws: parse address: %w", err)
		}
	}

	switch u.Scheme {
	case "ws", "wss":
	case "":
		u.Scheme = "ws"
		if conf.tlsConf != nil {
			u.Scheme = "wss"
		}
	default:
		return nil, fmt.Errorf("ws: invalid scheme: %s (expected ws or wss)", u.Scheme)
	}
	if u.Path == "" {
		u.Path = WSPath
	}
	return u, nil
}

func (c *WSConn) RemoteAddr() string {
	return c.wsConn.RemoteAddr().String()
}

func (c *WSConn) readRequests() {
	defer c.wg.Done()

	for {
		typ, data, err := c.wsConn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.l.Info("websocket closed by broker", "err", err)
				return
			}
			c.l.Error("receive failed", "err", err)
			return
		}
		if typ != websocket.BinaryMessage {
			c.l.Warn("skip non-binary message", "type", typ)
			continue
		}

		req, err := remoting.Decode(data)
		if err != nil {
			c.l.Error("decode request", "err", err)
			continue
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handle(req)
		}()
	}
}

func (c *WSConn) handle(req *remoting.Command) {
	resp := serve(c.ctx, c.h, c.l, c.RemoteAddr(), req)
	if resp == nil {
		return
	}

	data, err := remoting.Encode(resp)
	if err != nil {
		c.l.Error("encode response", "opaque", resp.Opaque, "err", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.wsConn.SetWriteDeadline(deadline(c.wdl)); err != nil {
		c.l.Error("set write deadline", "err", err)
	}
	if err := c.wsConn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		c.l.Error("write response", "opaque", resp.Opaque, "err", err)
	}
}

func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()

	c.writeMu.Lock()
	_ = c.wsConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.wsConn.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("ws: close: %w", err)
	}
	c.l.Info("connection closed")
	return nil
}
