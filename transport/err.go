package transport

import "errors"

var (
	ErrConnClosed       = errors.New("connection closed")
	ErrUnknownTransport = errors.New("unknown transport")
	ErrNotCommand       = errors.New("message is not a remoting command")
)
