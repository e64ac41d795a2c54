package remoting

import "strconv"

type RequestCode int32

const (
	CheckTransactionState       RequestCode = 39
	NotifyConsumerIdsChanged    RequestCode = 40
	ResetConsumerClientOffset   RequestCode = 220
	GetConsumerStatusFromClient RequestCode = 221
	GetConsumerRunningInfo      RequestCode = 307
	ConsumeMessageDirectly      RequestCode = 309
	PushReplyMessageToClient    RequestCode = 326
)

func (c RequestCode) String() string {
	switch c {
	case CheckTransactionState:
		return "CHECK_TRANSACTION_STATE"
	case NotifyConsumerIdsChanged:
		return "NOTIFY_CONSUMER_IDS_CHANGED"
	case ResetConsumerClientOffset:
		return "RESET_CONSUMER_CLIENT_OFFSET"
	case GetConsumerStatusFromClient:
		return "GET_CONSUMER_STATUS_FROM_CLIENT"
	case GetConsumerRunningInfo:
		return "GET_CONSUMER_RUNNING_INFO"
	case ConsumeMessageDirectly:
		return "CONSUME_MESSAGE_DIRECTLY"
	case PushReplyMessageToClient:
		return "PUSH_REPLY_MESSAGE_TO_CLIENT"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(c)) + ")"
	}
}

type ResponseCode int32

const (
	Success                 ResponseCode = 0
	SystemError             ResponseCode = 1
	SystemBusy              ResponseCode = 2
	RequestCodeNotSupported ResponseCode = 3
)

func (c ResponseCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case SystemError:
		return "SYSTEM_ERROR"
	case SystemBusy:
		return "SYSTEM_BUSY"
	case RequestCodeNotSupported:
		return "REQUEST_CODE_NOT_SUPPORTED"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(c)) + ")"
	}
}

// LanguageCode identifies the implementation language of the peer that built a command.
type LanguageCode byte

const (
	Java LanguageCode = iota
	Cpp
	DotNet
	Python
	Delphi
	Erlang
	Ruby
	Other
	HTTP
	Go
	PHP
	OMS
	Rust
)

var languageNames = [...]string{
	Java:   "JAVA",
	Cpp:    "CPP",
	DotNet: "DOTNET",
	Python: "PYTHON",
	Delphi: "DELPHI",
	Erlang: "ERLANG",
	Ruby:   "RUBY",
	Other:  "OTHER",
	HTTP:   "HTTP",
	Go:     "GO",
	PHP:    "PHP",
	OMS:    "OMS",
	Rust:   "RUST",
}

func (l LanguageCode) String() string {
	if int(l) < len(languageNames) {
		return languageNames[l]
	}
	return "OTHER"
}

func parseLanguage(s string) LanguageCode {
	for i, name := range languageNames {
		if name == s {
			return LanguageCode(i)
		}
	}
	return Other
}

// SerializeType is the encoding of a command header inside a frame.
type SerializeType byte

const (
	SerializeJSON     SerializeType = 0
	SerializeRocketMQ SerializeType = 1
)

func (t SerializeType) String() string {
	switch t {
	case SerializeJSON:
		return "JSON"
	case SerializeRocketMQ:
		return "ROCKETMQ"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
}
