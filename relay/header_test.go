package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

func TestMessageHeader(t *testing.T) {
	header := &MessageHeader{PacketLength: 20, CommandId: CmdConferenceBatch, SequenceId: 0x01020304}
	frame := header.Encode()
	t.Logf("%s : %x", header, frame)
	assert.Len(t, frame, 20)
	assert.Equal(t, []byte{0, 0, 0, 20, 0, 0, 0, 1, 1, 2, 3, 4}, frame[:HeadLength])

	h2 := &MessageHeader{}
	require.NoError(t, h2.Decode(frame))
	assert.Equal(t, header, h2)

	assert.ErrorIs(t, h2.Decode(frame[:11]), ErrorPacket)

	// 长度不足消息头时按消息头长度补齐
	short := &MessageHeader{CommandId: CmdActiveTest}
	assert.Len(t, short.Encode(), HeadLength)
	assert.Equal(t, uint32(HeadLength), short.PacketLength)

	unknown := &MessageHeader{PacketLength: 12, CommandId: 0x7f}
	assert.Contains(t, unknown.String(), "0x0000007f")
}

func TestActiveTest(t *testing.T) {
	at := NewActiveTest()
	t.Logf("%T : %s", at, at)

	data := at.Encode()
	t.Logf("%T : %x", data, data)

	h := &MessageHeader{}
	require.NoError(t, h.Decode(data))
	at2 := &ActiveTest{}
	require.NoError(t, at2.Decode(h, data[HeadLength:]))
	assert.Equal(t, at, at2)

	resp := at.ToResponse(0).(*ActiveTestResp)
	t.Logf("%T : %s", resp, resp)
	assert.Equal(t, CmdActiveTestResp, resp.CommandId)
	assert.Equal(t, at.SequenceId, resp.SequenceId)

	data = resp.Encode()
	require.NoError(t, h.Decode(data))
	resp2 := &ActiveTestResp{}
	require.NoError(t, resp2.Decode(h, nil))
	assert.Equal(t, resp, resp2)
}

func TestExit(t *testing.T) {
	e := NewExit()
	t.Logf("%T : %s", e, e)
	h := &MessageHeader{}
	require.NoError(t, h.Decode(e.Encode()))
	assert.Equal(t, CmdExit, h.CommandId)

	resp := e.ToResponse(0).(*ExitResp)
	t.Logf("%T : %s", resp, resp)
	require.NoError(t, h.Decode(resp.Encode()))
	resp2 := &ExitResp{}
	require.NoError(t, resp2.Decode(h, nil))
	assert.Equal(t, CmdExitResp, resp2.CommandId)
	assert.Equal(t, e.SequenceId, resp2.SequenceId)
}

func TestSequenceIncrements(t *testing.T) {
	a := NewActiveTest()
	b := NewActiveTest()
	assert.NotEqual(t, a.SequenceId, b.SequenceId)
}

func TestPdu(t *testing.T) {
	batch, err := NewConferenceBatch(telecom.NewConferenceCodec(), parcel.UTF8, sampleRecords())
	require.NoError(t, err)

	pdus := []Pdu{NewActiveTest(), NewExit(), batch}
	for _, pdu := range pdus {
		data := pdu.Encode()
		h := &MessageHeader{}
		require.NoError(t, h.Decode(data))
		assert.Equal(t, int(h.PacketLength), len(data), pdu.String())

		resp, ok := pdu.ToResponse(StatusOK).(Codec)
		require.True(t, ok, "%T", pdu)
		rh := &MessageHeader{}
		require.NoError(t, rh.Decode(resp.Encode()))
		assert.Equal(t, h.CommandId|0x80000000, rh.CommandId)
		assert.Equal(t, h.SequenceId, rh.SequenceId)
	}
}

var (
	_ Pdu   = (*ActiveTest)(nil)
	_ Pdu   = (*Exit)(nil)
	_ Pdu   = (*ConferenceBatch)(nil)
	_ Codec = (*ActiveTestResp)(nil)
	_ Codec = (*ExitResp)(nil)
	_ Codec = (*ConferenceBatchResp)(nil)
)
