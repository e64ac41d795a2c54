package processor

import (
	"context"
	"log/slog"
	"net/netip"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fujin-io/rocketmq-go/message"
	"github.com/fujin-io/rocketmq-go/remoting"
)

func (p *Processor) receiveReplyMessage(ctx context.Context, req *remoting.Command) *remoting.Command {
	receiveTime := time.Now()

	var h remoting.ReplyMessageRequestHeader
	if err := req.DecodeCustomHeader(&h); err != nil {
		p.l.Error("decode reply message header", "err", err)
		return remoting.NewResponse(remoting.SystemError, "decode reply message header failed: "+err.Error())
	}

	msg := &message.Ext{
		QueueID:        h.QueueID,
		StoreTimestamp: h.StoreTimestamp,
		SysFlag:        h.SysFlag,
	}
	msg.Topic = h.Topic

	if h.BornHost != "" {
		addr, err := netip.ParseAddrPort(h.BornHost)
		if err != nil {
			p.l.Warn("parse born host failed", "born_host", h.BornHost, "err", err)
			return remoting.NewResponse(remoting.SystemError, "parse born host failed")
		}
		msg.BornHost = addr
	}
	if h.StoreHost != "" {
		addr, err := netip.ParseAddrPort(h.StoreHost)
		if err != nil {
			p.l.Warn("parse store host failed", "store_host", h.StoreHost, "err", err)
			return remoting.NewResponse(remoting.SystemError, "parse store host failed")
		}
		msg.StoreHost = addr
	}

	msg.Body = req.Body
	if message.IsCompressed(h.SysFlag) {
		body, err := p.decompress(h.SysFlag, req.Body)
		if err != nil {
			p.l.Warn("decompress reply body, using raw body", "topic", h.Topic, "err", err)
		} else {
			msg.Body = body
		}
	}

	msg.Flag = h.Flag
	msg.Properties = message.StringToProperties(h.Properties)
	msg.PutProperty(message.PropertyReplyMessageArriveTime, strconv.FormatInt(receiveTime.UnixMilli(), 10))
	msg.BornTimestamp = h.BornTimestamp
	if h.ReconsumeTimes != nil {
		msg.ReconsumeTimes = *h.ReconsumeTimes
	}

	if p.l.Enabled(ctx, slog.LevelDebug) {
		p.l.Debug("receive reply message", "msg", spew.Sdump(msg))
	}

	p.processReplyMessage(ctx, msg)
	return remoting.NewResponse(remoting.Success, "")
}

func (p *Processor) decompress(sysFlag int32, body []byte) ([]byte, error) {
	c, err := p.compressors.Compressor(message.CompressionType(sysFlag))
	if err != nil {
		return nil, err
	}
	return c.Decompress(body)
}

// processReplyMessage completes the future waiting on the reply's correlation id.
func (p *Processor) processReplyMessage(ctx context.Context, msg *message.Ext) {
	correlationID, _ := msg.Property(message.PropertyCorrelationID)

	f, ok := p.futures.Get(ctx, correlationID)
	if !ok {
		p.l.Warn("reply message matched no request",
			"correlation_id", correlationID,
			"reply_host", msg.BornHost.String(),
		)
		return
	}

	f.PutResponseMessage(msg)
	p.futures.Remove(correlationID)
	if f.Callback() != nil {
		f.OnSuccess()
	}
}
