package relay

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

// ConferenceBatch 一批会议记录，消息体是 ConferenceCodec.EncodeArray 写出的 Parcel
type ConferenceBatch struct {
	*MessageHeader
	codec   *telecom.ConferenceCodec
	enc     parcel.StringEncoding
	records []*telecom.ParcelableConference
	body    []byte
}

// NewConferenceBatch 发送端构造，记录在此时完成编码
func NewConferenceBatch(codec *telecom.ConferenceCodec, enc parcel.StringEncoding, records []*telecom.ParcelableConference) (*ConferenceBatch, error) {
	p := parcel.New(parcel.WithStringEncoding(enc))
	if err := codec.EncodeArray(records, p); err != nil {
		return nil, err
	}
	b := &ConferenceBatch{codec: codec, enc: enc, records: records, body: p.Bytes()}
	b.MessageHeader = &MessageHeader{
		PacketLength: uint32(HeadLength + len(b.body)),
		CommandId:    CmdConferenceBatch,
		SequenceId:   uint32(Seq32.NextVal()),
	}
	return b, nil
}

// newBatchReceiver 接收端构造，Decode 时使用 codec 与 enc 还原记录
func newBatchReceiver(codec *telecom.ConferenceCodec, enc parcel.StringEncoding) *ConferenceBatch {
	return &ConferenceBatch{codec: codec, enc: enc}
}

func (b *ConferenceBatch) Encode() []byte {
	frame := b.MessageHeader.Encode()
	copy(frame[HeadLength:], b.body)
	return frame
}

// Decode frame 为去掉消息头后的消息体，必须恰好包含一个记录序列
func (b *ConferenceBatch) Decode(header *MessageHeader, frame []byte) error {
	b.MessageHeader = header
	b.body = frame
	p := parcel.FromBytes(frame, parcel.WithStringEncoding(b.enc))
	records, err := b.codec.DecodeArray(p)
	if err != nil {
		return err
	}
	if p.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrorPacket, p.Remaining())
	}
	b.records = records
	return nil
}

func (b *ConferenceBatch) Records() []*telecom.ParcelableConference {
	return b.records
}

// Count 非空槽位的个数
func (b *ConferenceBatch) Count() int {
	n := 0
	for _, rec := range b.records {
		if rec != nil {
			n++
		}
	}
	return n
}

func (b *ConferenceBatch) ToResponse(code uint32) interface{} {
	resp := &ConferenceBatchResp{
		MessageHeader: &MessageHeader{PacketLength: HeadLength + 8, CommandId: CmdConferenceBatchResp, SequenceId: b.SequenceId},
		status:        code,
	}
	if code == StatusOK {
		resp.accepted = uint32(b.Count())
	}
	return resp
}

func (b *ConferenceBatch) String() string {
	return fmt.Sprintf("{ Header: %s, Slots: %d, Records: %d, BodyLength: %d }", b.MessageHeader, len(b.records), b.Count(), len(b.body))
}

// statusOf 把解码错误翻译为应答状态
func statusOf(err error) uint32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, parcel.ErrTypeResolution):
		return StatusUnknownType
	case errors.Is(err, parcel.ErrSchemaMismatch):
		return StatusSchemaMismatch
	case errors.Is(err, parcel.ErrStreamUnderflow), errors.Is(err, parcel.ErrBadLength), errors.Is(err, ErrorPacket):
		return StatusBadFormat
	}
	return StatusInternal
}

type ConferenceBatchResp struct {
	*MessageHeader
	status   uint32
	accepted uint32 // 成功处理的记录数
}

func (resp *ConferenceBatchResp) Encode() []byte {
	frame := resp.MessageHeader.Encode()
	binary.BigEndian.PutUint32(frame[HeadLength:HeadLength+4], resp.status)
	binary.BigEndian.PutUint32(frame[HeadLength+4:HeadLength+8], resp.accepted)
	return frame
}

func (resp *ConferenceBatchResp) Decode(header *MessageHeader, frame []byte) error {
	if len(frame) < 8 {
		return ErrorPacket
	}
	resp.MessageHeader = header
	resp.status = binary.BigEndian.Uint32(frame[0:4])
	resp.accepted = binary.BigEndian.Uint32(frame[4:8])
	return nil
}

func (resp *ConferenceBatchResp) Status() uint32 {
	return resp.status
}

func (resp *ConferenceBatchResp) Accepted() uint32 {
	return resp.accepted
}

func (resp *ConferenceBatchResp) String() string {
	return fmt.Sprintf("{ Header: %s, Status: {%d: %s}, Accepted: %d }", resp.MessageHeader, resp.status, StatusMap[resp.status], resp.accepted)
}
