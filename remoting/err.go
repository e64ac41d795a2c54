package remoting

import "errors"

var (
	ErrMissingField = errors.New("missing header field")
	ErrInvalidField = errors.New("invalid header field")

	ErrShortFrame               = errors.New("short frame")
	ErrFrameTooLarge            = errors.New("frame too large")
	ErrFrameLength              = errors.New("frame length mismatch")
	ErrUnsupportedSerializeType = errors.New("unsupported serialize type")
)
