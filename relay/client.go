package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

var ErrClientClosed = errors.New("relay: client closed")

// Client 同步客户端，同一时刻只有一个请求在途
type Client struct {
	mu        sync.Mutex
	conn      net.Conn
	reader    *bufio.Reader
	codec     *telecom.ConferenceCodec
	enc       parcel.StringEncoding
	maxPacket uint32
	closed    bool
}

type ClientOption func(*Client)

func WithStringEncoding(enc parcel.StringEncoding) ClientOption {
	return func(c *Client) {
		c.enc = enc
	}
}

// WithMaxPacketLength 超过该长度的应答视为错误包
func WithMaxPacketLength(n uint32) ClientOption {
	return func(c *Client) {
		c.maxPacket = n
	}
}

// Dial 连接中继服务，address 形如 "127.0.0.1:9200"
func Dial(ctx context.Context, address string, codec *telecom.ConferenceCodec, opts ...ClientOption) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, codec, opts...), nil
}

func NewClient(conn net.Conn, codec *telecom.ConferenceCodec, opts ...ClientOption) *Client {
	c := &Client{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		codec:     codec,
		maxPacket: 1 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendBatch 发送一批记录并等待对应序号的应答，slots 中的 nil 作为空槽位发送
func (c *Client) SendBatch(ctx context.Context, slots []*telecom.ParcelableConference) (*ConferenceBatchResp, error) {
	batch, err := NewConferenceBatch(c.codec, c.enc, slots)
	if err != nil {
		return nil, err
	}
	header, body, err := c.roundTrip(ctx, batch, CmdConferenceBatchResp)
	if err != nil {
		return nil, err
	}
	resp := &ConferenceBatchResp{}
	if err := resp.Decode(header, body); err != nil {
		return nil, err
	}
	log.Debugf("[%-9s] <<< %s", "Client", resp)
	return resp, nil
}

// ActiveTest 链路检测
func (c *Client) ActiveTest(ctx context.Context) error {
	_, _, err := c.roundTrip(ctx, NewActiveTest(), CmdActiveTestResp)
	return err
}

// Close 发送 Exit 并在收到应答或超时后关闭连接
func (c *Client) Close(ctx context.Context) error {
	_, _, err := c.roundTrip(ctx, NewExit(), CmdExitResp)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req Pdu, want uint32) (*MessageHeader, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, ErrClientClosed
	}
	// 没有截止时间的 ctx 清除连接上的超时
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, nil, err
	}

	reqHeader := &MessageHeader{}
	data := req.Encode()
	_ = reqHeader.Decode(data)
	log.Debugf("[%-9s] >>> %s", "Client", req)
	if _, err := c.conn.Write(data); err != nil {
		return nil, nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		header, body, err := c.readFrame()
		if err != nil {
			return nil, nil, err
		}
		switch {
		case header.CommandId == want && header.SequenceId == reqHeader.SequenceId:
			return header, body, nil
		case header.CommandId == CmdActiveTest:
			// 服务端的链路检测，直接应答
			resp := (*ActiveTest)(header).ToResponse(StatusOK).(*ActiveTestResp)
			if _, err := c.conn.Write(resp.Encode()); err != nil {
				return nil, nil, err
			}
		case header.CommandId == CmdExit:
			resp := (*Exit)(header).ToResponse(StatusOK).(*ExitResp)
			_, _ = c.conn.Write(resp.Encode())
			return nil, nil, fmt.Errorf("%w: server requested exit", ErrClientClosed)
		default:
			log.Warnf("[%-9s] unexpected %s while waiting for %s", "Client", header, commandName(want))
		}
	}
}

func (c *Client) readFrame() (*MessageHeader, []byte, error) {
	head := make([]byte, HeadLength)
	if _, err := io.ReadFull(c.reader, head); err != nil {
		return nil, nil, err
	}
	header := &MessageHeader{}
	_ = header.Decode(head)
	if header.PacketLength < HeadLength || header.PacketLength > c.maxPacket {
		return nil, nil, fmt.Errorf("%w: packet length %d", ErrorPacket, header.PacketLength)
	}
	body := make([]byte, header.PacketLength-HeadLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, nil, err
	}
	return header, body, nil
}
