package relay

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/goparcel/config"
	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

func newTestServer(t *testing.T, conf *config.Config, codec *telecom.ConferenceCodec, handler Handler) *Server {
	pool, err := NewPool(conf)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	s, err := NewServer(conf, pool, codec, handler)
	require.NoError(t, err)
	return s
}

func encodeBatch(t *testing.T, codec *telecom.ConferenceCodec, recs []*telecom.ParcelableConference) (*MessageHeader, []byte) {
	batch, err := NewConferenceBatch(codec, parcel.UTF8, recs)
	require.NoError(t, err)
	data := batch.Encode()
	h := &MessageHeader{}
	require.NoError(t, h.Decode(data))
	return h, data[HeadLength:]
}

func TestServer_HandleBatch(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	collector := &Collector{}
	s := newTestServer(t, config.Default(), codec, collector)

	h, body := encodeBatch(t, codec, sampleRecords())
	resp := s.handleBatch(context.Background(), h, body)
	t.Logf("%s", resp)
	assert.Equal(t, StatusOK, resp.Status())
	assert.Equal(t, uint32(2), resp.Accepted())
	assert.Equal(t, h.SequenceId, resp.SequenceId)
	require.Len(t, collector.Records(), 2)
	assert.Equal(t, telecom.StateActive, collector.Records()[0].State())

	resp = s.handleBatch(context.Background(), h, body[:len(body)-1])
	assert.Equal(t, StatusBadFormat, resp.Status())
	assert.Len(t, collector.Records(), 2)
}

func TestServer_HandleBatchRejected(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	rejecting := HandlerFunc(func(ctx context.Context, records []*telecom.ParcelableConference) error {
		return errors.New("storage unavailable")
	})
	s := newTestServer(t, config.Default(), codec, rejecting)

	h, body := encodeBatch(t, codec, sampleRecords())
	resp := s.handleBatch(context.Background(), h, body)
	assert.Equal(t, StatusRejected, resp.Status())
	assert.Equal(t, uint32(0), resp.Accepted())
}

func TestServer_HandleBatchLogHandler(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	s := newTestServer(t, config.Default(), codec, LogHandler{Codec: codec})
	h, body := encodeBatch(t, codec, sampleRecords())
	assert.Equal(t, StatusOK, s.handleBatch(context.Background(), h, body).Status())
}

func TestServer_Control(t *testing.T) {
	s := newTestServer(t, config.Default(), telecom.NewConferenceCodec(), &Collector{})

	resp, action := s.control(&MessageHeader{PacketLength: HeadLength, CommandId: CmdActiveTest, SequenceId: 5})
	require.NotNil(t, resp)
	assert.Equal(t, gnet.None, action)
	h := &MessageHeader{}
	require.NoError(t, h.Decode(resp.Encode()))
	assert.Equal(t, CmdActiveTestResp, h.CommandId)
	assert.Equal(t, uint32(5), h.SequenceId)

	resp, action = s.control(&MessageHeader{PacketLength: HeadLength, CommandId: CmdExit, SequenceId: 6})
	require.NotNil(t, resp)
	assert.Equal(t, gnet.Close, action)
	exit := &ExitResp{}
	require.NoError(t, h.Decode(resp.Encode()))
	require.NoError(t, exit.Decode(h, nil))
	assert.Equal(t, CmdExitResp, exit.CommandId)
	assert.Equal(t, uint32(6), exit.SequenceId)

	resp, action = s.control(&MessageHeader{PacketLength: HeadLength, CommandId: 0x42})
	assert.Nil(t, resp)
	assert.Equal(t, gnet.None, action)

	resp, action = s.control(&MessageHeader{PacketLength: HeadLength, CommandId: CmdExitResp})
	assert.Nil(t, resp)
	assert.Equal(t, gnet.Close, action)

	resp, action = s.control(&MessageHeader{PacketLength: HeadLength, CommandId: CmdActiveTestResp})
	assert.Nil(t, resp)
	assert.Equal(t, gnet.None, action)
}

func TestServer_CheckHeader(t *testing.T) {
	conf := config.Default()
	conf.MaxPacketLength = 64
	s := newTestServer(t, conf, telecom.NewConferenceCodec(), &Collector{})

	assert.NoError(t, s.checkHeader(&MessageHeader{PacketLength: 12, CommandId: CmdActiveTest}))
	assert.NoError(t, s.checkHeader(&MessageHeader{PacketLength: 64, CommandId: CmdConferenceBatch}))
	assert.ErrorIs(t, s.checkHeader(&MessageHeader{PacketLength: 11, CommandId: CmdActiveTest}), ErrorPacket)
	assert.ErrorIs(t, s.checkHeader(&MessageHeader{PacketLength: 65, CommandId: CmdConferenceBatch}), ErrorPacket)
	assert.ErrorIs(t, s.checkHeader(&MessageHeader{PacketLength: 12, CommandId: 0x42}), ErrorPacket)
}

func TestNewServer_BadEncoding(t *testing.T) {
	conf := config.Default()
	conf.StringEncoding = "gbk"
	_, err := NewServer(conf, nil, telecom.NewConferenceCodec(), &Collector{})
	assert.Error(t, err)
}

func TestServer_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a tcp listener")
	}
	conf := config.Default()
	conf.Port = 19237
	conf.Multicore = false
	conf.ActiveTestDuration = time.Hour

	codec := telecom.NewConferenceCodec()
	collector := &Collector{}
	s := newTestServer(t, conf, codec, collector)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run()
	}()
	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("server exits: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, fmt.Sprintf("127.0.0.1:%d", conf.Port), codec)
	require.NoError(t, err)

	require.NoError(t, client.ActiveTest(ctx))
	for i := 0; i < 3; i++ {
		resp, err := client.SendBatch(ctx, sampleRecords())
		require.NoError(t, err)
		t.Logf("%s", resp)
		assert.Equal(t, StatusOK, resp.Status())
		assert.Equal(t, uint32(2), resp.Accepted())
	}
	assert.Len(t, collector.Records(), 6)
	assert.NoError(t, client.Close(ctx))
}
