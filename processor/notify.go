package processor

import "github.com/fujin-io/rocketmq-go/remoting"

func (p *Processor) notifyConsumerIdsChanged(remoteAddr string, req *remoting.Command) {
	var h remoting.NotifyConsumerIdsChangedRequestHeader
	if err := req.DecodeCustomHeader(&h); err != nil {
		p.l.Error("notify consumer ids changed: decode header", "remote_addr", remoteAddr, "err", err)
		return
	}

	p.l.Info("consumer group changed, rebalance immediately",
		"remote_addr", remoteAddr,
		"consumer_group", h.ConsumerGroup,
	)

	if inst, ok := p.ref.Resolve(); ok {
		inst.RebalanceImmediately()
	}
}
