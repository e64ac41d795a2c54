package remoting

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fujin-io/rocketmq-go/pool"
)

const (
	Uint16Len = 2
	Uint32Len = 4

	// DefaultMaxFrameSize bounds a single inbound frame.
	DefaultMaxFrameSize = 16 << 20

	headerLenMask = 0x00FFFFFF
)

type jsonHeader struct {
	Code                    int32             `json:"code"`
	Language                string            `json:"language"`
	Version                 int32             `json:"version"`
	Opaque                  int32             `json:"opaque"`
	Flag                    int32             `json:"flag"`
	Remark                  string            `json:"remark,omitempty"`
	ExtFields               map[string]string `json:"extFields,omitempty"`
	SerializeTypeCurrentRPC string            `json:"serializeTypeCurrentRPC,omitempty"`
}

// Encode returns the full frame for c, length prefix included.
func Encode(c *Command) ([]byte, error) {
	return AppendFrame(nil, c)
}

// AppendFrame appends the frame for c to dst.
//
//	[total length u32][serialize type u8 | header length u24][header][body]
func AppendFrame(dst []byte, c *Command) ([]byte, error) {
	header, err := encodeHeader(c)
	if err != nil {
		return dst, err
	}
	if len(header) > headerLenMask {
		return dst, fmt.Errorf("%w: header %d bytes", ErrFrameTooLarge, len(header))
	}

	total := Uint32Len + len(header) + len(c.Body)
	dst = binary.BigEndian.AppendUint32(dst, uint32(total))
	dst = binary.BigEndian.AppendUint32(dst, uint32(c.SerializeType)<<24|uint32(len(header)))
	dst = append(dst, header...)
	dst = append(dst, c.Body...)
	return dst, nil
}

// Decode parses a full frame produced by Encode.
func Decode(frame []byte) (*Command, error) {
	if len(frame) < 2*Uint32Len {
		return nil, ErrShortFrame
	}
	total := binary.BigEndian.Uint32(frame[0:Uint32Len])
	if int(total) != len(frame)-Uint32Len {
		return nil, fmt.Errorf("%w: prefix %d, have %d", ErrFrameLength, total, len(frame)-Uint32Len)
	}
	return decodeBody(frame[Uint32Len:])
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader, maxSize int) (*Command, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var lenBuf [Uint32Len]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	total := int(binary.BigEndian.Uint32(lenBuf[:]))
	if total > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, total, maxSize)
	}
	if total < Uint32Len {
		return nil, ErrShortFrame
	}

	buf := make([]byte, total)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return decodeBody(buf)
}

// WriteFrame encodes c into a pooled buffer and writes it to w in one call.
func WriteFrame(w io.Writer, c *Command) error {
	buf := pool.Get(2*Uint32Len + 256 + len(c.Body))
	buf, err := AppendFrame(buf, c)
	if err != nil {
		pool.Put(buf)
		return err
	}
	_, err = w.Write(buf)
	pool.Put(buf)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func decodeBody(buf []byte) (*Command, error) {
	if len(buf) < Uint32Len {
		return nil, ErrShortFrame
	}
	mark := binary.BigEndian.Uint32(buf[0:Uint32Len])
	st := SerializeType(mark >> 24)
	headerLen := int(mark & headerLenMask)
	if headerLen > len(buf)-Uint32Len {
		return nil, fmt.Errorf("%w: header length %d", ErrShortFrame, headerLen)
	}

	header := buf[Uint32Len : Uint32Len+headerLen]
	c, err := decodeHeader(st, header)
	if err != nil {
		return nil, err
	}
	if body := buf[Uint32Len+headerLen:]; len(body) > 0 {
		c.Body = body
	}
	return c, nil
}

func encodeHeader(c *Command) ([]byte, error) {
	switch c.SerializeType {
	case SerializeJSON:
		h := jsonHeader{
			Code:                    c.Code,
			Language:                c.Language.String(),
			Version:                 c.Version,
			Opaque:                  c.Opaque,
			Flag:                    c.Flag,
			Remark:                  c.Remark,
			ExtFields:               c.ExtFields,
			SerializeTypeCurrentRPC: SerializeJSON.String(),
		}
		b, err := json.Marshal(&h)
		if err != nil {
			return nil, fmt.Errorf("marshal json header: %w", err)
		}
		return b, nil
	case SerializeRocketMQ:
		return appendRocketMQHeader(nil, c), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSerializeType, c.SerializeType)
	}
}

func decodeHeader(st SerializeType, b []byte) (*Command, error) {
	switch st {
	case SerializeJSON:
		var h jsonHeader
		if err := json.Unmarshal(b, &h); err != nil {
			return nil, fmt.Errorf("unmarshal json header: %w", err)
		}
		return &Command{
			Code:          h.Code,
			Language:      parseLanguage(h.Language),
			Version:       h.Version,
			Opaque:        h.Opaque,
			Flag:          h.Flag,
			Remark:        h.Remark,
			ExtFields:     h.ExtFields,
			SerializeType: SerializeJSON,
		}, nil
	case SerializeRocketMQ:
		return parseRocketMQHeader(b)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSerializeType, st)
	}
}

// appendRocketMQHeader writes the compact binary header:
// code i16, language u8, version i16, opaque i32, flag i32,
// remark (len i32, bytes), ext fields (len i32, {key len i16, key, value len i32, value}...).
func appendRocketMQHeader(dst []byte, c *Command) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(c.Code))
	dst = append(dst, byte(c.Language))
	dst = binary.BigEndian.AppendUint16(dst, uint16(c.Version))
	dst = binary.BigEndian.AppendUint32(dst, uint32(c.Opaque))
	dst = binary.BigEndian.AppendUint32(dst, uint32(c.Flag))
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(c.Remark)))
	dst = append(dst, c.Remark...)

	lenPos := len(dst)
	dst = binary.BigEndian.AppendUint32(dst, 0)
	for k, v := range c.ExtFields {
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(k)))
		dst = append(dst, k...)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v)))
		dst = append(dst, v...)
	}
	binary.BigEndian.PutUint32(dst[lenPos:], uint32(len(dst)-lenPos-Uint32Len))
	return dst
}

func parseRocketMQHeader(b []byte) (*Command, error) {
	const fixed = Uint16Len + 1 + Uint16Len + Uint32Len + Uint32Len + Uint32Len
	if len(b) < fixed {
		return nil, fmt.Errorf("%w: rocketmq header", ErrShortFrame)
	}

	c := &Command{SerializeType: SerializeRocketMQ}
	c.Code = int32(int16(binary.BigEndian.Uint16(b[0:2])))
	c.Language = LanguageCode(b[2])
	c.Version = int32(int16(binary.BigEndian.Uint16(b[3:5])))
	c.Opaque = int32(binary.BigEndian.Uint32(b[5:9]))
	c.Flag = int32(binary.BigEndian.Uint32(b[9:13]))
	b = b[13:]

	remark, b, err := readUint32Prefixed(b)
	if err != nil {
		return nil, fmt.Errorf("remark: %w", err)
	}
	c.Remark = string(remark)

	ext, _, err := readUint32Prefixed(b)
	if err != nil {
		return nil, fmt.Errorf("ext fields: %w", err)
	}
	if len(ext) > 0 {
		c.ExtFields = make(map[string]string)
	}
	for len(ext) > 0 {
		if len(ext) < Uint16Len {
			return nil, fmt.Errorf("%w: ext key length", ErrShortFrame)
		}
		kl := int(binary.BigEndian.Uint16(ext[0:Uint16Len]))
		ext = ext[Uint16Len:]
		if len(ext) < kl {
			return nil, fmt.Errorf("%w: ext key", ErrShortFrame)
		}
		k := string(ext[:kl])
		var v []byte
		v, ext, err = readUint32Prefixed(ext[kl:])
		if err != nil {
			return nil, fmt.Errorf("ext value %s: %w", k, err)
		}
		c.ExtFields[k] = string(v)
	}
	return c, nil
}

func readUint32Prefixed(b []byte) (field, rest []byte, err error) {
	if len(b) < Uint32Len {
		return nil, nil, ErrShortFrame
	}
	n := int(binary.BigEndian.Uint32(b[0:Uint32Len]))
	b = b[Uint32Len:]
	if n < 0 || n > len(b) {
		return nil, nil, ErrShortFrame
	}
	return b[:n], b[n:], nil
}
