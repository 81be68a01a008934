// Package relay 基于 gnet 的会议记录中继，把成批的 ParcelableConference 跨进程边界投递给 Handler。
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"
	"github.com/panjf2000/gnet/v2/pkg/pool/goroutine"

	"github.com/aaronwong1989/goparcel/comm"
	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/config"
	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

var log = logging.GetDefaultLogger()

type Server struct {
	gnet.BuiltinEventEngine
	engine   gnet.Engine
	protocol string
	address  string
	conf     *config.Config
	pool     *goroutine.Pool
	conMap   sync.Map
	window   chan struct{}
	codec    *telecom.ConferenceCodec
	enc      parcel.StringEncoding
	handler  Handler
	ctx      context.Context
	cancel   context.CancelFunc
	ready    chan struct{}
}

// NewPool 异步工作Go程池
func NewPool(conf *config.Config) (*goroutine.Pool, error) {
	options := ants.Options{
		ExpiryDuration:   time.Minute,      // 1 分钟内不被使用的worker会被清除
		Nonblocking:      false,            // 如果为true,worker池满了后提交任务会直接返回nil
		MaxBlockingTasks: conf.MaxPoolSize, // blocking模式有效
		PreAlloc:         false,
		PanicHandler: func(e interface{}) {
			log.Errorf("[%-9s] worker panic: %v", "Pool", e)
		},
	}
	return ants.NewPool(conf.MaxPoolSize, ants.WithOptions(options))
}

func NewServer(conf *config.Config, pool *goroutine.Pool, codec *telecom.ConferenceCodec, handler Handler) (*Server, error) {
	enc, err := conf.Encoding()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		protocol: "tcp",
		address:  fmt.Sprintf(":%d", conf.Port),
		conf:     conf,
		pool:     pool,
		window:   make(chan struct{}, conf.ReceiveWindowSize), // 用通道控制消息接收窗口
		codec:    codec,
		enc:      enc,
		handler:  handler,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
	}, nil
}

func (s *Server) Addr() string {
	return s.protocol + "://" + s.address
}

// Run 阻塞直到服务停止
func (s *Server) Run() error {
	return gnet.Run(s, s.Addr(), gnet.WithMulticore(s.conf.Multicore), gnet.WithTicker(true))
}

func (s *Server) Stop(ctx context.Context) error {
	return gnet.Stop(ctx, s.Addr())
}

// Ready 服务开始监听后关闭
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) OnBoot(eng gnet.Engine) (action gnet.Action) {
	log.Infof("[%-9s] running server on %s with multi-core=%t", "OnBoot", s.Addr(), s.conf.Multicore)
	s.engine = eng
	close(s.ready)
	return
}

func (s *Server) OnShutdown(eng gnet.Engine) {
	log.Warnf("[%-9s] shutdown server %s ...", "OnShutdown", s.Addr())
	s.cancel()
	for eng.CountConnections() > 0 {
		log.Warnf("[%-9s] active connections is %d, waiting...", "OnShutdown", eng.CountConnections())
		time.Sleep(10 * time.Millisecond)
	}
	log.Warnf("[%-9s] shutdown server %s completed!", "OnShutdown", s.Addr())
}

func (s *Server) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	if s.countConn() >= s.conf.MaxCons {
		log.Warnf("[%-9s] [%v<->%v] FLOW CONTROL：connections threshold reached, closing new connection...", "OnOpen", c.RemoteAddr(), c.LocalAddr())
		return nil, gnet.Close
	} else if len(s.window) == cap(s.window) {
		log.Warnf("[%-9s] [%v<->%v] FLOW CONTROL：receive window threshold reached, closing new connection...", "OnOpen", c.RemoteAddr(), c.LocalAddr())
		return nil, gnet.Close
	}
	s.conMap.Store(c.RemoteAddr().String(), c)
	log.Infof("[%-9s] [%v<->%v] activeCons=%d.", "OnOpen", c.RemoteAddr(), c.LocalAddr(), s.countConn())
	return
}

func (s *Server) OnClose(c gnet.Conn, e error) (action gnet.Action) {
	s.conMap.Delete(c.RemoteAddr().String())
	log.Warnf("[%-9s] [%v<->%v] activeCons=%d, reason=%v.", "OnClose", c.RemoteAddr(), c.LocalAddr(), s.countConn(), e)
	return
}

func (s *Server) OnTraffic(c gnet.Conn) (action gnet.Action) {
	for {
		head := comm.PeekBytes(c, HeadLength)
		if head == nil {
			return gnet.None
		}
		header := &MessageHeader{}
		_ = header.Decode(head)
		if err := s.checkHeader(header); err != nil {
			log.Warnf("[%-9s] [%v<->%v] %v, header: %s, close session...", "OnTraffic", c.RemoteAddr(), c.LocalAddr(), err, header)
			return gnet.Close
		}
		// 半包，等待后续数据
		if c.InboundBuffered() < int(header.PacketLength) {
			return gnet.None
		}
		data := comm.TakeBytes(c, int(header.PacketLength))
		if data == nil {
			return gnet.Close
		}
		comm.LogHex(logging.DebugLevel, "Frame", data)
		if action = s.dispatch(c, header, data[HeadLength:]); action != gnet.None {
			return action
		}
	}
}

func (s *Server) OnTick() (delay time.Duration, action gnet.Action) {
	log.Infof("[%-9s] %d active connections.", "OnTick", s.countConn())
	s.conMap.Range(func(key, value interface{}) bool {
		addr := key.(string)
		con, ok := value.(gnet.Conn)
		if ok {
			_ = s.pool.Submit(func() {
				at := NewActiveTest()
				err := con.AsyncWrite(at.Encode(), nil)
				if err == nil {
					log.Infof("[%-9s] >>> %s to %s", "OnTick", at, addr)
				} else {
					log.Errorf("[%-9s] >>> ActiveTest to %s, error: %v", "OnTick", addr, err)
				}
			})
		}
		return true
	})
	return s.conf.ActiveTestDuration, gnet.None
}

func (s *Server) checkHeader(header *MessageHeader) error {
	if header.PacketLength < HeadLength || header.PacketLength > s.conf.MaxPacketLength {
		return fmt.Errorf("%w: packet length %d", ErrorPacket, header.PacketLength)
	}
	if _, ok := CommandMap[header.CommandId]; !ok {
		return fmt.Errorf("%w: unknown command 0x%08x", ErrorPacket, header.CommandId)
	}
	return nil
}

func (s *Server) dispatch(c gnet.Conn, header *MessageHeader, body []byte) gnet.Action {
	switch header.CommandId {
	case CmdConferenceBatch:
		if len(s.window) == cap(s.window) {
			log.Warnf("[%-9s] FLOW CONTROL：receive window threshold reached.", "OnTraffic")
			resp := newBatchReceiver(s.codec, s.enc)
			resp.MessageHeader = header
			s.reply(c, resp.ToResponse(StatusWindowFull).(*ConferenceBatchResp), nil)
			return gnet.None
		}
		_ = s.pool.Submit(func() {
			// 采用通道控制消息收发速度
			s.window <- struct{}{}
			defer func() {
				<-s.window
			}()
			s.reply(c, s.handleBatch(s.ctx, header, body), nil)
		})
		return gnet.None
	case CmdConferenceBatchResp:
		log.Warnf("[%-9s] unexpected %s from %s", "OnTraffic", header, c.RemoteAddr())
		return gnet.None
	}

	resp, closeAfter := s.control(header)
	if resp == nil {
		return closeAfter
	}
	var after func(c gnet.Conn)
	if closeAfter == gnet.Close {
		after = func(c gnet.Conn) {
			s.conMap.Delete(c.RemoteAddr().String())
			_ = c.Close()
		}
	}
	s.reply(c, resp, after)
	return gnet.None
}

// control 处理链路类命令，返回应答(可为 nil)及应答发出后是否关闭连接
func (s *Server) control(header *MessageHeader) (Codec, gnet.Action) {
	log.Infof("[%-9s] <<< %s", "OnTraffic", header)
	var (
		req    Pdu
		action = gnet.None
	)
	switch header.CommandId {
	case CmdActiveTest:
		req = (*ActiveTest)(header)
	case CmdExit:
		req, action = (*Exit)(header), gnet.Close
	case CmdExitResp:
		return nil, gnet.Close
	default:
		return nil, gnet.None
	}
	return req.ToResponse(StatusOK).(Codec), action
}

// handleBatch 解码一批记录并交给 Handler，返回需要发送的应答
func (s *Server) handleBatch(ctx context.Context, header *MessageHeader, body []byte) *ConferenceBatchResp {
	batch := newBatchReceiver(s.codec, s.enc)
	if err := batch.Decode(header, body); err != nil {
		log.Errorf("[%-9s] ConferenceBatch ERROR: %v", "OnTraffic", err)
		return batch.ToResponse(statusOf(err)).(*ConferenceBatchResp)
	}
	log.Debugf("[%-9s] <<< %s", "OnTraffic", batch)
	if err := s.handler.HandleBatch(ctx, batch.Records()); err != nil {
		log.Errorf("[%-9s] handler rejected %s: %v", "OnTraffic", batch, err)
		return batch.ToResponse(StatusRejected).(*ConferenceBatchResp)
	}
	return batch.ToResponse(StatusOK).(*ConferenceBatchResp)
}

func (s *Server) reply(c gnet.Conn, resp Codec, after func(c gnet.Conn)) {
	err := c.AsyncWrite(resp.Encode(), func(c gnet.Conn) error {
		log.Debugf("[%-9s] >>> %s", "OnTraffic", resp)
		if after != nil {
			after(c)
		}
		return nil
	})
	if err != nil {
		log.Errorf("[%-9s] %s ERROR: %v", "OnTraffic", resp, err)
	}
}

func (s *Server) countConn() int {
	counter := 0
	s.conMap.Range(func(key, value interface{}) bool {
		counter++
		return true
	})
	return counter
}
