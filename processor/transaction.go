package processor

import (
	"context"

	"github.com/fujin-io/rocketmq-go/message"
	"github.com/fujin-io/rocketmq-go/namespace"
	"github.com/fujin-io/rocketmq-go/remoting"
)

// checkTransactionState hands a half message to the producer owning its group.
// The producer answers the broker itself, so nothing is returned here.
func (p *Processor) checkTransactionState(ctx context.Context, remoteAddr string, req *remoting.Command) {
	l := p.l.With("remote_addr", remoteAddr)

	var h remoting.CheckTransactionStateRequestHeader
	if err := req.DecodeCustomHeader(&h); err != nil {
		l.Error("check transaction state: decode header", "err", err)
		return
	}

	msg, err := message.Decode(req.Body, message.DecodeOptions{
		ReadBody:       true,
		DecompressBody: true,
		Compressors:    p.compressors,
	})
	if err != nil {
		l.Warn("check transaction state: decode message failed", "err", err)
		return
	}

	inst, ok := p.ref.Resolve()
	if !ok {
		return
	}

	if ns := inst.Namespace(); ns != "" {
		msg.Topic = namespace.WithoutNamespace(msg.Topic, ns)
	}

	if id, _ := msg.Property(message.PropertyUniqClientMessageIDKeyIdx); id != "" {
		msg.TransactionID = id
	}

	group, ok := msg.Property(message.PropertyProducerGroup)
	if !ok {
		l.Warn("check transaction state: pick producer group failed", "topic", msg.Topic)
		return
	}

	producer, ok := inst.SelectProducer(ctx, group)
	if !ok {
		l.Warn("check transaction state: pick producer group failed", "producer_group", group)
		return
	}

	producer.CheckTransactionState(remoteAddr, msg, &h)
}
