package transport

import (
	"bytes"
	"fmt"

	"github.com/fujin-io/rocketmq-go/remoting"
	"google.golang.org/grpc/encoding"
)

var _ encoding.Codec = Codec{}

// Codec carries remoting frames as gRPC messages without protobuf.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	c, ok := v.(*remoting.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotCommand, v)
	}
	return remoting.Encode(c)
}

func (Codec) Unmarshal(data []byte, v any) error {
	c, ok := v.(*remoting.Command)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotCommand, v)
	}
	// data belongs to grpc once we return
	decoded, err := remoting.Decode(bytes.Clone(data))
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

func (Codec) Name() string {
	return "rocketmq-remoting"
}
