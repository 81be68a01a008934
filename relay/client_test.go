package relay

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

func readTestFrame(r io.Reader) (*MessageHeader, []byte, error) {
	head := make([]byte, HeadLength)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, nil, err
	}
	h := &MessageHeader{}
	if err := h.Decode(head); err != nil {
		return nil, nil, err
	}
	body := make([]byte, h.PacketLength-HeadLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}
	return h, body, nil
}

func TestClient_SendBatch(t *testing.T) {
	codec := telecom.NewConferenceCodec()
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()

	done := make(chan error, 1)
	go func() {
		h, body, err := readTestFrame(serverSide)
		if err != nil {
			done <- err
			return
		}
		batch := newBatchReceiver(codec, parcel.UTF8)
		if err := batch.Decode(h, body); err != nil {
			done <- err
			return
		}

		// 应答前插入一次服务端的链路检测
		at := &ActiveTest{PacketLength: HeadLength, CommandId: CmdActiveTest, SequenceId: 77}
		if _, err := serverSide.Write(at.Encode()); err != nil {
			done <- err
			return
		}
		h, _, err = readTestFrame(serverSide)
		if err != nil {
			done <- err
			return
		}
		if h.CommandId != CmdActiveTestResp || h.SequenceId != 77 {
			done <- ErrorPacket
			return
		}

		resp := batch.ToResponse(StatusOK).(*ConferenceBatchResp)
		_, err = serverSide.Write(resp.Encode())
		done <- err
	}()

	client := NewClient(clientSide, codec)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.SendBatch(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status())
	assert.Equal(t, uint32(2), resp.Accepted())
	require.NoError(t, <-done)
}

func TestClient_Timeout(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()
	go func() {
		// 只读不应答
		_, _ = io.Copy(io.Discard, serverSide)
	}()

	client := NewClient(clientSide, telecom.NewConferenceCodec())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.ActiveTest(ctx)
	assert.Error(t, err)
	t.Logf("%v", err)
}

func TestClient_Close(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	go func() {
		h, _, err := readTestFrame(serverSide)
		if err == nil && h.CommandId == CmdExit {
			_, _ = serverSide.Write((*Exit)(h).ToResponse(0).(*ExitResp).Encode())
		}
		_ = serverSide.Close()
	}()

	client := NewClient(clientSide, telecom.NewConferenceCodec())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, client.Close(ctx))

	_, err := client.SendBatch(ctx, sampleRecords())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestClient_BadResponseLength(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()
	go func() {
		if _, _, err := readTestFrame(serverSide); err != nil {
			return
		}
		bad := make([]byte, HeadLength)
		binary.BigEndian.PutUint32(bad[0:4], 1<<30)
		binary.BigEndian.PutUint32(bad[4:8], CmdActiveTestResp)
		_, _ = serverSide.Write(bad)
	}()

	client := NewClient(clientSide, telecom.NewConferenceCodec(), WithMaxPacketLength(1024))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorIs(t, client.ActiveTest(ctx), ErrorPacket)
}
