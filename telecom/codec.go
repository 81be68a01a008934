package telecom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aaronwong1989/goparcel/binder"
	"github.com/aaronwong1989/goparcel/parcel"
)

var ErrNilConference = errors.New("telecom: nil conference")

// conferenceField 一个字段的写入与读取，表中的顺序就是线上的字段顺序
type conferenceField struct {
	name  string
	write func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error
	read  func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error
}

var conferenceFields = []conferenceField{
	{
		name: "phoneAccount:parcelable",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			return p.WriteParcelable(asParcelable(rec.phoneAccount))
		},
		read: func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.phoneAccount, err = parcel.ReadTypedParcelable[*PhoneAccountHandle](p, c.registry)
			return
		},
	},
	{
		name: "state:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.state)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.state, err = p.ReadInt32()
			return
		},
	},
	{
		name: "connectionCapabilities:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.connectionCapabilities)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.connectionCapabilities, err = p.ReadInt32()
			return
		},
	},
	{
		name: "connectionIds:list<string>",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteStringList(rec.connectionIds)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.connectionIds, err = p.ReadStringList()
			return
		},
	},
	{
		name: "connectTimeMillis:int64",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt64(rec.connectTimeMillis)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.connectTimeMillis, err = p.ReadInt64()
			return
		},
	},
	{
		name: "videoProvider:binder",
		write: func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteStrongBinder(VideoProviderHandle(rec.videoProvider, c.transport))
			return nil
		},
		read: func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			h, err := p.ReadStrongBinder()
			if err != nil {
				return err
			}
			rec.videoProvider = AsVideoProvider(h, c.transport)
			return nil
		},
	},
	{
		name: "videoState:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.videoState)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.videoState, err = p.ReadInt32()
			return
		},
	},
	{
		name: "statusHints:parcelable",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			return p.WriteParcelable(asParcelable(rec.statusHints))
		},
		read: func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.statusHints, err = parcel.ReadTypedParcelable[*StatusHints](p, c.registry)
			return
		},
	},
	{
		name: "extras:bundle",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			return p.WriteBundle(rec.extras)
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.extras, err = p.ReadBundle()
			return
		},
	},
	{
		name: "connectionProperties:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.connectionProperties)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.connectionProperties, err = p.ReadInt32()
			return
		},
	},
	{
		name: "connectElapsedTimeMillis:int64",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt64(rec.connectElapsedTimeMillis)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.connectElapsedTimeMillis, err = p.ReadInt64()
			return
		},
	},
	{
		name: "address:parcelable",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			return p.WriteParcelable(asParcelable(rec.address))
		},
		read: func(c *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.address, err = parcel.ReadTypedParcelable[*Uri](p, c.registry)
			return
		},
	},
	{
		name: "addressPresentation:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.addressPresentation)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.addressPresentation, err = p.ReadInt32()
			return
		},
	},
	{
		name: "callerDisplayName:string",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteNullableString(rec.callerDisplayName)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.callerDisplayName, err = p.ReadNullableString()
			return
		},
	},
	{
		name: "callerDisplayNamePresentation:int32",
		write: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) error {
			p.WriteInt32(rec.callerDisplayNamePresentation)
			return nil
		},
		read: func(_ *ConferenceCodec, rec *ParcelableConference, p *parcel.Parcel) (err error) {
			rec.callerDisplayNamePresentation, err = p.ReadInt32()
			return
		},
	},
}

var conferenceSchema = newFieldSchema("ParcelableConference", conferenceFields)

func newFieldSchema(name string, fields []conferenceField) *parcel.Schema {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return parcel.NewSchema(name, names...)
}

// ConferenceSchema 会议记录的字段布局
func ConferenceSchema() *parcel.Schema {
	return conferenceSchema
}

// ConferenceCodec ParcelableConference 与有序字节流之间的编解码。
// 本身无状态，可以并发使用；传入的 Parcel 不能并发使用。
type ConferenceCodec struct {
	registry    *parcel.Registry
	transport   binder.Transport
	formatter   Formatter
	schemaGuard bool
}

type CodecOption func(*ConferenceCodec)

// WithRegistry 解码多态字段时使用的类型解析上下文
func WithRegistry(reg *parcel.Registry) CodecOption {
	return func(c *ConferenceCodec) {
		c.registry = reg
	}
}

// WithTransport 视频端点与句柄之间的转换
func WithTransport(transport binder.Transport) CodecOption {
	return func(c *ConferenceCodec) {
		c.transport = transport
	}
}

func WithFormatter(formatter Formatter) CodecOption {
	return func(c *ConferenceCodec) {
		c.formatter = formatter
	}
}

// WithSchemaGuard 开启后在记录前写入字段布局指纹，两端必须一致
func WithSchemaGuard(enabled bool) CodecOption {
	return func(c *ConferenceCodec) {
		c.schemaGuard = enabled
	}
}

func NewConferenceCodec(opts ...CodecOption) *ConferenceCodec {
	c := &ConferenceCodec{
		registry:  NewRegistry(),
		formatter: ConnectionFormatter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode 按固定顺序写入全部字段，不做取值校验，rec 不会被修改
func (c *ConferenceCodec) Encode(rec *ParcelableConference, p *parcel.Parcel) error {
	if rec == nil {
		return ErrNilConference
	}
	if c.schemaGuard {
		conferenceSchema.WriteGuard(p)
	}
	return c.encodeFields(rec, p, conferenceFields)
}

func (c *ConferenceCodec) encodeFields(rec *ParcelableConference, p *parcel.Parcel, fields []conferenceField) error {
	for _, f := range fields {
		if err := f.write(c, rec, p); err != nil {
			return fmt.Errorf("telecom: encode %s: %w", f.name, err)
		}
	}
	return nil
}

// Decode 按与 Encode 相同的顺序读取，任何错误都不会返回半成品
func (c *ConferenceCodec) Decode(p *parcel.Parcel) (*ParcelableConference, error) {
	if c.schemaGuard {
		if err := conferenceSchema.CheckGuard(p); err != nil {
			return nil, err
		}
	}
	rec := &ParcelableConference{}
	for _, f := range conferenceFields {
		if err := f.read(c, rec, p); err != nil {
			return nil, fmt.Errorf("telecom: decode %s: %w", f.name, err)
		}
	}
	return rec, nil
}

// EncodeArray 写入记录序列: int32 个数(-1 为 nil)，每个槽位 int32 标记(0 为空槽位) + 记录
func (c *ConferenceCodec) EncodeArray(recs []*ParcelableConference, p *parcel.Parcel) error {
	if recs == nil {
		p.WriteInt32(-1)
		return nil
	}
	p.WriteInt32(int32(len(recs)))
	for i, rec := range recs {
		if rec == nil {
			p.WriteInt32(0)
			continue
		}
		p.WriteInt32(1)
		if err := c.Encode(rec, p); err != nil {
			return fmt.Errorf("telecom: slot %d: %w", i, err)
		}
	}
	return nil
}

// DecodeArray 读取 EncodeArray 写入的序列，空槽位保持为 nil
func (c *ConferenceCodec) DecodeArray(p *parcel.Parcel) ([]*ParcelableConference, error) {
	n, err := p.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	// 每个槽位至少有4字节标记
	if n < -1 || int(n) > p.Remaining()/4 {
		return nil, fmt.Errorf("%w: %d slots at offset %d, have %d bytes", parcel.ErrStreamUnderflow, n, p.Position(), p.Remaining())
	}
	recs := NewConferenceArray(int(n))
	for i := range recs {
		present, err := p.ReadInt32()
		if err != nil {
			return nil, err
		}
		if present == 0 {
			continue
		}
		if recs[i], err = c.Decode(p); err != nil {
			return nil, fmt.Errorf("telecom: slot %d: %w", i, err)
		}
	}
	return recs, nil
}

// Describe 单行可读文本，只用于日志
func (c *ConferenceCodec) Describe(rec *ParcelableConference) string {
	return describe(rec, c.formatter)
}

func describe(rec *ParcelableConference, f Formatter) string {
	if rec == nil {
		return "null"
	}
	var sb strings.Builder
	sb.WriteString("account: ")
	if rec.phoneAccount != nil {
		sb.WriteString(rec.phoneAccount.String())
	} else {
		sb.WriteString("null")
	}
	sb.WriteString(", state: ")
	sb.WriteString(f.StateToString(rec.state))
	sb.WriteString(", capabilities: ")
	sb.WriteString(f.CapabilitiesToString(rec.connectionCapabilities))
	sb.WriteString(", properties: ")
	sb.WriteString(f.PropertiesToString(rec.connectionProperties))
	fmt.Fprintf(&sb, ", connectTime: %d", rec.connectTimeMillis)
	sb.WriteString(", children: ")
	if rec.connectionIds != nil {
		sb.WriteString("[" + strings.Join(rec.connectionIds, ", ") + "]")
	} else {
		sb.WriteString("null")
	}
	fmt.Fprintf(&sb, ", VideoState: %d", rec.videoState)
	sb.WriteString(", VideoProvider: ")
	if rec.videoProvider != nil {
		fmt.Fprintf(&sb, "%v", rec.videoProvider)
	} else {
		sb.WriteString("null")
	}
	return sb.String()
}
