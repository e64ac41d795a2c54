package remoting_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/fujin-io/rocketmq-go/remoting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	for _, st := range []remoting.SerializeType{remoting.SerializeJSON, remoting.SerializeRocketMQ} {
		t.Run(st.String(), func(t *testing.T) {
			req := remoting.NewRequest(remoting.NotifyConsumerIdsChanged,
				&remoting.NotifyConsumerIdsChangedRequestHeader{ConsumerGroup: "CG1"})
			req.Opaque = 42
			req.Remark = "hello"
			req.Body = []byte("body bytes")
			req.SerializeType = st

			frame, err := remoting.Encode(req)
			require.NoError(t, err)
			assert.Equal(t, uint32(len(frame)-4), binary.BigEndian.Uint32(frame[0:4]))
			assert.Equal(t, byte(st), frame[4])

			got, err := remoting.Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, req.Code, got.Code)
			assert.Equal(t, remoting.Go, got.Language)
			assert.Equal(t, int32(42), got.Opaque)
			assert.Equal(t, "hello", got.Remark)
			assert.Equal(t, req.ExtFields, got.ExtFields)
			assert.Equal(t, []byte("body bytes"), got.Body)
			assert.Equal(t, st, got.SerializeType)
			assert.False(t, got.IsResponse())
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer

	resp := remoting.NewResponse(remoting.SystemError, "parse born host failed")
	resp.Opaque = 7
	require.NoError(t, remoting.WriteFrame(&buf, resp))

	req := remoting.NewRequest(remoting.PushReplyMessageToClient, nil)
	req.Body = bytes.Repeat([]byte{'x'}, 70000)
	require.NoError(t, remoting.WriteFrame(&buf, req))

	got, err := remoting.ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.True(t, got.IsResponse())
	assert.Equal(t, remoting.SystemError, got.ResponseCode())
	assert.Equal(t, "parse born host failed", got.Remark)
	assert.Equal(t, int32(7), got.Opaque)

	got, err = remoting.ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, remoting.PushReplyMessageToClient, got.RequestCode())
	assert.Len(t, got.Body, 70000)

	_, err = remoting.ReadFrame(&buf, 0)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReadFrameTooLarge(t *testing.T) {
	req := remoting.NewRequest(remoting.PushReplyMessageToClient, nil)
	req.Body = make([]byte, 1024)
	frame, err := remoting.Encode(req)
	require.NoError(t, err)

	_, err = remoting.ReadFrame(bytes.NewReader(frame), 512)
	assert.ErrorIs(t, err, remoting.ErrFrameTooLarge)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		_, err := remoting.Decode([]byte{0, 0})
		assert.ErrorIs(t, err, remoting.ErrShortFrame)
	})

	t.Run("length mismatch", func(t *testing.T) {
		frame, err := remoting.Encode(remoting.NewResponse(remoting.Success, ""))
		require.NoError(t, err)
		_, err = remoting.Decode(append(frame, 0))
		assert.ErrorIs(t, err, remoting.ErrFrameLength)
	})

	t.Run("unknown serialize type", func(t *testing.T) {
		frame := binary.BigEndian.AppendUint32(nil, 4)
		frame = binary.BigEndian.AppendUint32(frame, 7<<24)
		_, err := remoting.Decode(frame)
		assert.ErrorIs(t, err, remoting.ErrUnsupportedSerializeType)
	})

	t.Run("header overflows frame", func(t *testing.T) {
		frame := binary.BigEndian.AppendUint32(nil, 4)
		frame = binary.BigEndian.AppendUint32(frame, 100)
		_, err := remoting.Decode(frame)
		assert.ErrorIs(t, err, remoting.ErrShortFrame)
	})
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "PUSH_REPLY_MESSAGE_TO_CLIENT", remoting.PushReplyMessageToClient.String())
	assert.Equal(t, "CHECK_TRANSACTION_STATE", remoting.CheckTransactionState.String())
	assert.Equal(t, "UNKNOWN(12345)", remoting.RequestCode(12345).String())
	assert.Equal(t, "REQUEST_CODE_NOT_SUPPORTED", remoting.RequestCodeNotSupported.String())
	assert.Equal(t, "GO", remoting.Go.String())
	assert.Equal(t, "OTHER", remoting.LanguageCode(99).String())
}

func TestOneway(t *testing.T) {
	c := remoting.NewRequest(remoting.CheckTransactionState, nil)
	assert.False(t, c.IsOneway())
	c.MarkOneway()
	assert.True(t, c.IsOneway())
	assert.False(t, c.IsResponse())
}
