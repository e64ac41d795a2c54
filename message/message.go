// Package message holds the application message model shared by producers,
// consumers and the broker callback processor.
package message

import (
	"net/netip"
)

// Reserved property keys. The strings are part of the broker protocol.
const (
	PropertyKeys                      = "KEYS"
	PropertyTags                      = "TAGS"
	PropertyWaitStoreMsgOK            = "WAIT"
	PropertyDelayTimeLevel            = "DELAY"
	PropertyRetryTopic                = "RETRY_TOPIC"
	PropertyRealTopic                 = "REAL_TOPIC"
	PropertyRealQueueID               = "REAL_QID"
	PropertyTransactionPrepared       = "TRAN_MSG"
	PropertyProducerGroup             = "PGROUP"
	PropertyUniqClientMessageIDKeyIdx = "UNIQ_KEY"
	PropertyReconsumeTime             = "RECONSUME_TIME"
	PropertyMsgRegion                 = "MSG_REGION"
	PropertyTraceSwitch               = "TRACE_ON"
	PropertyCorrelationID             = "CORRELATION_ID"
	PropertyMessageReplyToClient      = "REPLY_TO_CLIENT"
	PropertyMessageTTL                = "TTL"
	PropertyReplyMessageArriveTime    = "ARRIVE_TIME"
	PropertyMessageType               = "MSG_TYPE"
	PropertyCluster                   = "CLUSTER"
	PropertyTransactionCheckTimes     = "TRANSACTION_CHECK_TIMES"
)

type Message struct {
	Topic         string
	Flag          int32
	Properties    map[string]string
	Body          []byte
	TransactionID string
}

func (m *Message) Property(key string) (string, bool) {
	v, ok := m.Properties[key]
	return v, ok
}

func (m *Message) PutProperty(key, value string) {
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[key] = value
}

func (m *Message) ClearProperty(key string) {
	delete(m.Properties, key)
}

// Ext is a message as stored and delivered by the broker.
type Ext struct {
	Message

	BrokerName                string
	QueueID                   int32
	StoreSize                 int32
	QueueOffset               int64
	SysFlag                   int32
	BornTimestamp             int64
	BornHost                  netip.AddrPort
	StoreTimestamp            int64
	StoreHost                 netip.AddrPort
	MsgID                     string
	CommitLogOffset           int64
	BodyCRC                   int32
	ReconsumeTimes            int32
	PreparedTransactionOffset int64
}
