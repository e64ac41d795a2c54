package remoting

const (
	flagResponse = 1 << 0
	flagOneway   = 1 << 1

	// Version reported on commands built by this client.
	Version = 0
)

// Command is a single remoting request or response.
type Command struct {
	Code      int32
	Language  LanguageCode
	Version   int32
	Opaque    int32
	Flag      int32
	Remark    string
	ExtFields map[string]string
	Body      []byte

	SerializeType SerializeType
}

func NewRequest(code RequestCode, h CustomHeader) *Command {
	c := &Command{
		Code:     int32(code),
		Language: Go,
		Version:  Version,
	}
	if h != nil {
		c.ExtFields = h.Encode()
	}
	return c
}

func NewResponse(code ResponseCode, remark string) *Command {
	return &Command{
		Code:     int32(code),
		Language: Go,
		Version:  Version,
		Flag:     flagResponse,
		Remark:   remark,
	}
}

func (c *Command) RequestCode() RequestCode {
	return RequestCode(c.Code)
}

func (c *Command) ResponseCode() ResponseCode {
	return ResponseCode(c.Code)
}

func (c *Command) IsResponse() bool {
	return c.Flag&flagResponse == flagResponse
}

func (c *Command) IsOneway() bool {
	return c.Flag&flagOneway == flagOneway
}

func (c *Command) MarkOneway() {
	c.Flag |= flagOneway
}

// DecodeCustomHeader fills h from the command's ext fields.
func (c *Command) DecodeCustomHeader(h CustomHeader) error {
	return h.Decode(c.ExtFields)
}
