package remoting

import (
	"fmt"
	"strconv"
)

// CustomHeader is a request header carried in a command's ext fields.
type CustomHeader interface {
	Decode(ext map[string]string) error
	Encode() map[string]string
}

type ReplyMessageRequestHeader struct {
	ProducerGroup         string
	Topic                 string
	DefaultTopic          string
	DefaultTopicQueueNums int32
	QueueID               int32
	SysFlag               int32
	BornTimestamp         int64
	Flag                  int32
	Properties            string
	ReconsumeTimes        *int32
	UnitMode              bool
	BornHost              string
	StoreHost             string
	StoreTimestamp        int64
}

func (h *ReplyMessageRequestHeader) Decode(ext map[string]string) error {
	r := extReader{ext: ext}
	h.ProducerGroup = r.str("producerGroup", true)
	h.Topic = r.str("topic", true)
	h.DefaultTopic = r.str("defaultTopic", true)
	h.DefaultTopicQueueNums = r.int32("defaultTopicQueueNums", true)
	h.QueueID = r.int32("queueId", true)
	h.SysFlag = r.int32("sysFlag", true)
	h.BornTimestamp = r.int64("bornTimestamp", true)
	h.Flag = r.int32("flag", true)
	h.Properties = r.str("properties", false)
	h.ReconsumeTimes = r.optInt32("reconsumeTimes")
	h.UnitMode = r.bool("unitMode")
	h.BornHost = r.str("bornHost", false)
	h.StoreHost = r.str("storeHost", false)
	h.StoreTimestamp = r.int64("storeTimestamp", true)
	return r.err
}

func (h *ReplyMessageRequestHeader) Encode() map[string]string {
	ext := map[string]string{
		"producerGroup":         h.ProducerGroup,
		"topic":                 h.Topic,
		"defaultTopic":          h.DefaultTopic,
		"defaultTopicQueueNums": strconv.FormatInt(int64(h.DefaultTopicQueueNums), 10),
		"queueId":               strconv.FormatInt(int64(h.QueueID), 10),
		"sysFlag":               strconv.FormatInt(int64(h.SysFlag), 10),
		"bornTimestamp":         strconv.FormatInt(h.BornTimestamp, 10),
		"flag":                  strconv.FormatInt(int64(h.Flag), 10),
		"unitMode":              strconv.FormatBool(h.UnitMode),
		"storeTimestamp":        strconv.FormatInt(h.StoreTimestamp, 10),
	}
	putIfNotEmpty(ext, "properties", h.Properties)
	putIfNotEmpty(ext, "bornHost", h.BornHost)
	putIfNotEmpty(ext, "storeHost", h.StoreHost)
	if h.ReconsumeTimes != nil {
		ext["reconsumeTimes"] = strconv.FormatInt(int64(*h.ReconsumeTimes), 10)
	}
	return ext
}

// CheckTransactionStateRequestHeader carries the broker data a producer echoes
// back when it ends the transaction.
type CheckTransactionStateRequestHeader struct {
	Topic                string
	TranStateTableOffset int64
	CommitLogOffset      int64
	MsgID                string
	TransactionID        string
	OffsetMsgID          string
	BrokerName           string
}

func (h *CheckTransactionStateRequestHeader) Decode(ext map[string]string) error {
	r := extReader{ext: ext}
	h.Topic = r.str("topic", false)
	h.TranStateTableOffset = r.int64("tranStateTableOffset", true)
	h.CommitLogOffset = r.int64("commitLogOffset", true)
	h.MsgID = r.str("msgId", false)
	h.TransactionID = r.str("transactionId", false)
	h.OffsetMsgID = r.str("offsetMsgId", false)
	h.BrokerName = r.str("brokerName", false)
	return r.err
}

func (h *CheckTransactionStateRequestHeader) Encode() map[string]string {
	ext := map[string]string{
		"tranStateTableOffset": strconv.FormatInt(h.TranStateTableOffset, 10),
		"commitLogOffset":      strconv.FormatInt(h.CommitLogOffset, 10),
	}
	putIfNotEmpty(ext, "topic", h.Topic)
	putIfNotEmpty(ext, "msgId", h.MsgID)
	putIfNotEmpty(ext, "transactionId", h.TransactionID)
	putIfNotEmpty(ext, "offsetMsgId", h.OffsetMsgID)
	putIfNotEmpty(ext, "brokerName", h.BrokerName)
	return ext
}

type NotifyConsumerIdsChangedRequestHeader struct {
	ConsumerGroup string
}

func (h *NotifyConsumerIdsChangedRequestHeader) Decode(ext map[string]string) error {
	r := extReader{ext: ext}
	h.ConsumerGroup = r.str("consumerGroup", true)
	return r.err
}

func (h *NotifyConsumerIdsChangedRequestHeader) Encode() map[string]string {
	return map[string]string{"consumerGroup": h.ConsumerGroup}
}

// extReader reads typed fields from ext fields and keeps the first error.
type extReader struct {
	ext map[string]string
	err error
}

func (r *extReader) str(key string, required bool) string {
	v, ok := r.ext[key]
	if !ok && required && r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	return v
}

func (r *extReader) int64(key string, required bool) int64 {
	v, ok := r.ext[key]
	if !ok {
		if required && r.err == nil {
			r.err = fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrInvalidField, key, err)
	}
	return n
}

func (r *extReader) int32(key string, required bool) int32 {
	v, ok := r.ext[key]
	if !ok {
		if required && r.err == nil {
			r.err = fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrInvalidField, key, err)
	}
	return int32(n)
}

func (r *extReader) optInt32(key string) *int32 {
	if _, ok := r.ext[key]; !ok {
		return nil
	}
	n := r.int32(key, false)
	return &n
}

func (r *extReader) bool(key string) bool {
	v, ok := r.ext[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrInvalidField, key, err)
	}
	return b
}

func putIfNotEmpty(ext map[string]string, key, v string) {
	if v != "" {
		ext[key] = v
	}
}
