package message

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"net/netip"
	"strings"

	"github.com/fujin-io/rocketmq-go/compress"
)

const (
	MagicCodeV1 int32 = -626843481
	MagicCodeV2 int32 = -626843477
)

var (
	ErrShortMessage  = errors.New("short message")
	ErrBadMagicCode  = errors.New("bad magic code")
	ErrBodyCRC       = errors.New("body crc mismatch")
	ErrTopicTooLong  = errors.New("topic too long")
	ErrPropsTooLong  = errors.New("properties too long")
	ErrInvalidHostIP = errors.New("invalid host ip")
)

type DecodeOptions struct {
	ReadBody       bool
	DecompressBody bool
	CheckCRC       bool

	// Compressors resolves body codecs, compress.Default when nil.
	Compressors compress.Factory
}

// Decode parses one stored message.
func Decode(b []byte, opts DecodeOptions) (*Ext, error) {
	r := reader{b: b}
	m := &Ext{}

	m.StoreSize = r.i32()
	magic := r.i32()
	if r.err == nil && magic != MagicCodeV1 && magic != MagicCodeV2 {
		return nil, fmt.Errorf("%w: %d", ErrBadMagicCode, magic)
	}
	m.BodyCRC = r.i32()
	m.QueueID = r.i32()
	m.Flag = r.i32()
	m.QueueOffset = r.i64()
	m.CommitLogOffset = r.i64()
	m.SysFlag = r.i32()
	m.BornTimestamp = r.i64()
	m.BornHost = r.host(m.SysFlag&BornHostV6Flag != 0)
	m.StoreTimestamp = r.i64()
	m.StoreHost = r.host(m.SysFlag&StoreHostV6Flag != 0)
	m.ReconsumeTimes = r.i32()
	m.PreparedTransactionOffset = r.i64()

	bodyLen := int(r.i32())
	if bodyLen > 0 {
		body := r.bytes(bodyLen)
		if r.err == nil && opts.ReadBody {
			if opts.CheckCRC && int32(crc32.ChecksumIEEE(body)&math.MaxInt32) != m.BodyCRC {
				return nil, ErrBodyCRC
			}
			if opts.DecompressBody && IsCompressed(m.SysFlag) {
				f := opts.Compressors
				if f == nil {
					f = compress.Default
				}
				c, err := f.Compressor(CompressionType(m.SysFlag))
				if err != nil {
					return nil, err
				}
				if body, err = c.Decompress(body); err != nil {
					return nil, fmt.Errorf("decompress body: %w", err)
				}
			}
			m.Body = body
		}
	}

	var topicLen int
	if magic == MagicCodeV2 {
		topicLen = int(r.u16())
	} else {
		topicLen = int(r.u8())
	}
	m.Topic = string(r.bytes(topicLen))

	if propsLen := int(r.i16()); propsLen > 0 {
		m.Properties = StringToProperties(string(r.bytes(propsLen)))
	}

	if r.err != nil {
		return nil, r.err
	}

	m.MsgID = CreateMessageID(m.StoreHost, m.CommitLogOffset)
	return m, nil
}

// Encode writes m in the stored layout. The body is written as is; V2 is used
// when the topic does not fit a one byte length.
func Encode(m *Ext) ([]byte, error) {
	if len(m.Topic) > math.MaxUint16 {
		return nil, ErrTopicTooLong
	}
	props := PropertiesToString(m.Properties)
	if len(props) > math.MaxInt16 {
		return nil, ErrPropsTooLong
	}

	sysFlag := m.SysFlag &^ (BornHostV6Flag | StoreHostV6Flag)
	if m.BornHost.Addr().Is6() && !m.BornHost.Addr().Is4In6() {
		sysFlag |= BornHostV6Flag
	}
	if m.StoreHost.Addr().Is6() && !m.StoreHost.Addr().Is4In6() {
		sysFlag |= StoreHostV6Flag
	}

	magic := MagicCodeV1
	if len(m.Topic) > math.MaxUint8 {
		magic = MagicCodeV2
	}

	b := make([]byte, 4, 128+len(m.Body)+len(m.Topic)+len(props))
	b = binary.BigEndian.AppendUint32(b, uint32(magic))
	b = binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(m.Body)&math.MaxInt32)
	b = binary.BigEndian.AppendUint32(b, uint32(m.QueueID))
	b = binary.BigEndian.AppendUint32(b, uint32(m.Flag))
	b = binary.BigEndian.AppendUint64(b, uint64(m.QueueOffset))
	b = binary.BigEndian.AppendUint64(b, uint64(m.CommitLogOffset))
	b = binary.BigEndian.AppendUint32(b, uint32(sysFlag))
	b = binary.BigEndian.AppendUint64(b, uint64(m.BornTimestamp))
	b = appendHost(b, m.BornHost)
	b = binary.BigEndian.AppendUint64(b, uint64(m.StoreTimestamp))
	b = appendHost(b, m.StoreHost)
	b = binary.BigEndian.AppendUint32(b, uint32(m.ReconsumeTimes))
	b = binary.BigEndian.AppendUint64(b, uint64(m.PreparedTransactionOffset))
	b = binary.BigEndian.AppendUint32(b, uint32(len(m.Body)))
	b = append(b, m.Body...)
	if magic == MagicCodeV2 {
		b = binary.BigEndian.AppendUint16(b, uint16(len(m.Topic)))
	} else {
		b = append(b, byte(len(m.Topic)))
	}
	b = append(b, m.Topic...)
	b = binary.BigEndian.AppendUint16(b, uint16(len(props)))
	b = append(b, props...)

	binary.BigEndian.PutUint32(b[0:4], uint32(len(b)))
	return b, nil
}

// CreateMessageID builds the offset message id: store host ip, port and
// commit log offset, upper-case hex.
func CreateMessageID(storeHost netip.AddrPort, commitLogOffset int64) string {
	b := appendHost(make([]byte, 0, 28), storeHost)
	b = binary.BigEndian.AppendUint64(b, uint64(commitLogOffset))
	return strings.ToUpper(hex.EncodeToString(b))
}

func appendHost(b []byte, h netip.AddrPort) []byte {
	addr := h.Addr().Unmap()
	if !addr.IsValid() {
		addr = netip.IPv4Unspecified()
	}
	b = append(b, addr.AsSlice()...)
	return binary.BigEndian.AppendUint32(b, uint32(h.Port()))
}

// reader is a big-endian cursor that keeps the first error.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.b) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d", ErrShortMessage, n, r.off)
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) u8() byte {
	if b := r.bytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) i32() int32 {
	if b := r.bytes(4); b != nil {
		return int32(binary.BigEndian.Uint32(b))
	}
	return 0
}

func (r *reader) i64() int64 {
	if b := r.bytes(8); b != nil {
		return int64(binary.BigEndian.Uint64(b))
	}
	return 0
}

func (r *reader) host(v6 bool) netip.AddrPort {
	n := 4
	if v6 {
		n = 16
	}
	ip := r.bytes(n)
	port := r.i32()
	if r.err != nil {
		return netip.AddrPort{}
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		r.err = ErrInvalidHostIP
		return netip.AddrPort{}
	}
	return netip.AddrPortFrom(addr, uint16(port))
}
