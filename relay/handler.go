package relay

import (
	"context"
	"sync"

	"github.com/aaronwong1989/goparcel/telecom"
)

// Handler 接收解码后的一批记录，返回错误时应答 StatusRejected。
// 由工作池调用，实现需要并发安全。
type Handler interface {
	HandleBatch(ctx context.Context, records []*telecom.ParcelableConference) error
}

type HandlerFunc func(ctx context.Context, records []*telecom.ParcelableConference) error

func (f HandlerFunc) HandleBatch(ctx context.Context, records []*telecom.ParcelableConference) error {
	return f(ctx, records)
}

// LogHandler 逐条记录日志
type LogHandler struct {
	Codec *telecom.ConferenceCodec
}

func (h LogHandler) HandleBatch(_ context.Context, records []*telecom.ParcelableConference) error {
	for i, rec := range records {
		if rec == nil {
			continue
		}
		log.Infof("[%-9s] #%d %s", "Batch", i, h.Codec.Describe(rec))
	}
	return nil
}

// Collector 保存收到的全部记录
type Collector struct {
	mu      sync.Mutex
	records []*telecom.ParcelableConference
}

func (c *Collector) HandleBatch(_ context.Context, records []*telecom.ParcelableConference) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if rec != nil {
			c.records = append(c.records, rec)
		}
	}
	return nil
}

func (c *Collector) Records() []*telecom.ParcelableConference {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*telecom.ParcelableConference, len(c.records))
	copy(out, c.records)
	return out
}
