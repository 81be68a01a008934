package relay

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

func sampleRecords() []*telecom.ParcelableConference {
	name := "Alice"
	recs := telecom.NewConferenceArray(3)
	recs[0] = telecom.NewParcelableConference(telecom.ConferenceParams{
		PhoneAccount:      telecom.NewPhoneAccountHandle("pkg/Svc", "sim1", 0),
		State:             telecom.StateActive,
		ConnectionIds:     []string{"c1", "c2"},
		ConnectTimeMillis: 1698741234567,
		Address:           telecom.NewTelUri("+8613800138000"),
		CallerDisplayName: &name,
		Extras:            parcel.Bundle{"k": "v"},
	})
	recs[2] = telecom.NewParcelableConference(telecom.ConferenceParams{
		State:             telecom.StateHolding,
		ConnectTimeMillis: telecom.ConnectTimeNotSpecified,
	})
	return recs
}

func TestConferenceBatch(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	for _, enc := range []parcel.StringEncoding{parcel.UTF8, parcel.UTF16} {
		t.Run(enc.String(), func(t *testing.T) {
			batch, err := NewConferenceBatch(codec, enc, sampleRecords())
			require.NoError(t, err)
			t.Logf("%T : %s", batch, batch)

			data := batch.Encode()
			t.Logf("%T : %x", data, data)
			assert.Equal(t, int(batch.PacketLength), len(data))

			h := &MessageHeader{}
			require.NoError(t, h.Decode(data))
			assert.Equal(t, CmdConferenceBatch, h.CommandId)

			recv := newBatchReceiver(codec, enc)
			require.NoError(t, recv.Decode(h, data[HeadLength:]))
			t.Logf("%T : %s", recv, recv)
			require.Len(t, recv.Records(), 3)
			assert.Nil(t, recv.Records()[1])
			assert.Equal(t, 2, recv.Count())
			assert.Equal(t, []string{"c1", "c2"}, recv.Records()[0].ConnectionIds())
			assert.Equal(t, telecom.ConnectTimeNotSpecified, recv.Records()[2].ConnectTimeMillis())

			resp := recv.ToResponse(StatusOK).(*ConferenceBatchResp)
			t.Logf("%T : %s", resp, resp)
			assert.Equal(t, batch.SequenceId, resp.SequenceId)

			data = resp.Encode()
			require.NoError(t, h.Decode(data))
			resp2 := &ConferenceBatchResp{}
			require.NoError(t, resp2.Decode(h, data[HeadLength:]))
			assert.Equal(t, StatusOK, resp2.Status())
			assert.Equal(t, uint32(2), resp2.Accepted())
		})
	}
}

func TestConferenceBatch_Failures(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	batch, err := NewConferenceBatch(codec, parcel.UTF8, sampleRecords())
	require.NoError(t, err)
	data := batch.Encode()
	h := &MessageHeader{}
	require.NoError(t, h.Decode(data))
	body := data[HeadLength:]

	// 截断
	err = newBatchReceiver(codec, parcel.UTF8).Decode(h, body[:len(body)-3])
	assert.True(t, errors.Is(err, parcel.ErrStreamUnderflow))
	assert.Equal(t, StatusBadFormat, statusOf(err))

	// 多余的尾部数据
	err = newBatchReceiver(codec, parcel.UTF8).Decode(h, append(append([]byte{}, body...), 0, 0))
	assert.True(t, errors.Is(err, ErrorPacket))
	assert.Equal(t, StatusBadFormat, statusOf(err))

	// 接收端不认识记录中的类型
	strict := telecom.NewConferenceCodec(telecom.WithRegistry(parcel.NewRegistry()))
	recv := newBatchReceiver(strict, parcel.UTF8)
	err = recv.Decode(h, body)
	assert.Equal(t, StatusUnknownType, statusOf(err))
	resp := recv.ToResponse(statusOf(err)).(*ConferenceBatchResp)
	assert.Equal(t, uint32(0), resp.Accepted())

	// 两端指纹设置不一致
	guarded := telecom.NewConferenceCodec(telecom.WithSchemaGuard(true))
	err = newBatchReceiver(guarded, parcel.UTF8).Decode(h, body)
	assert.Equal(t, StatusSchemaMismatch, statusOf(err))

	// 应答消息体不足
	assert.ErrorIs(t, (&ConferenceBatchResp{}).Decode(h, []byte{0, 0, 0}), ErrorPacket)
}

func TestConferenceBatch_UnencodableExtras(t *testing.T) {
	recs := []*telecom.ParcelableConference{
		telecom.NewParcelableConference(telecom.ConferenceParams{Extras: parcel.Bundle{"ch": make(chan int)}}),
	}
	_, err := NewConferenceBatch(telecom.NewConferenceCodec(), parcel.UTF8, recs)
	assert.Error(t, err)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, statusOf(nil))
	assert.Equal(t, StatusInternal, statusOf(errors.New("boom")))
	assert.Equal(t, StatusBadFormat, statusOf(fmt.Errorf("wrapped: %w", parcel.ErrBadLength)))
	for code := range StatusMap {
		assert.NotEmpty(t, StatusMap[code])
	}
}
