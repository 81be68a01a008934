package parcel

import (
	"encoding/binary"
	"fmt"

	"github.com/aaronwong1989/goparcel/comm"
)

// StringEncoding 字符串在流中的编码方式
type StringEncoding int

const (
	UTF8  StringEncoding = iota // 长度单位为字节
	UTF16                       // UTF-16BE，长度单位为码元
)

func (e StringEncoding) String() string {
	switch e {
	case UTF8:
		return "utf8"
	case UTF16:
		return "utf16"
	}
	return fmt.Sprintf("StringEncoding(%d)", int(e))
}

// ParseStringEncoding 解析配置中的编码名称，空串为 utf8
func ParseStringEncoding(name string) (StringEncoding, error) {
	switch name {
	case "", "utf8", "utf-8":
		return UTF8, nil
	case "utf16", "utf-16":
		return UTF16, nil
	}
	return UTF8, fmt.Errorf("parcel: unknown string encoding %q", name)
}

// Parcel 有序字节流，写入总是追加到末尾，读取从游标处开始。
// 不是并发安全的，同一个 Parcel 不能在多个 goroutine 间共享。
type Parcel struct {
	data []byte
	pos  int
	enc  StringEncoding
}

type Option func(*Parcel)

func WithStringEncoding(enc StringEncoding) Option {
	return func(p *Parcel) {
		p.enc = enc
	}
}

// New 创建一个空的 Parcel
func New(opts ...Option) *Parcel {
	p := &Parcel{data: make([]byte, 0, 256)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromBytes 以 data 为内容创建 Parcel，游标位于开头，data 不会被拷贝
func FromBytes(data []byte, opts ...Option) *Parcel {
	p := &Parcel{data: data}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bytes 已写入的全部数据
func (p *Parcel) Bytes() []byte {
	return p.data
}

func (p *Parcel) Len() int {
	return len(p.data)
}

func (p *Parcel) Position() int {
	return p.pos
}

// SetPosition 移动读游标，越界时截断到 [0, Len]
func (p *Parcel) SetPosition(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(p.data) {
		pos = len(p.data)
	}
	p.pos = pos
}

func (p *Parcel) Remaining() int {
	return len(p.data) - p.pos
}

func (p *Parcel) StringEncoding() StringEncoding {
	return p.enc
}

func (p *Parcel) String() string {
	return fmt.Sprintf("{ len: %d, pos: %d, enc: %s }", len(p.data), p.pos, p.enc)
}

// take 消费 n 个字节，数据不足时返回 ErrStreamUnderflow
func (p *Parcel) take(n int) ([]byte, error) {
	if n < 0 || p.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrStreamUnderflow, n, p.pos, p.Remaining())
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

func (p *Parcel) WriteInt32(v int32) {
	p.data = binary.BigEndian.AppendUint32(p.data, uint32(v))
}

func (p *Parcel) ReadInt32() (int32, error) {
	b, err := p.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (p *Parcel) WriteInt64(v int64) {
	p.data = binary.BigEndian.AppendUint64(p.data, uint64(v))
}

func (p *Parcel) ReadInt64() (int64, error) {
	v, err := p.ReadUint64()
	return int64(v), err
}

func (p *Parcel) WriteUint64(v uint64) {
	p.data = binary.BigEndian.AppendUint64(p.data, v)
}

func (p *Parcel) ReadUint64() (uint64, error) {
	b, err := p.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// readLength 读取长度前缀，-1 表示 null
func (p *Parcel) readLength() (n int, null bool, err error) {
	l, err := p.ReadInt32()
	if err != nil {
		return 0, false, err
	}
	if l == -1 {
		return 0, true, nil
	}
	if l < -1 {
		return 0, false, fmt.Errorf("%w: %d at offset %d", ErrBadLength, l, p.pos-4)
	}
	return int(l), false, nil
}

// WriteBlob 写入可为 null 的字节块: int32 长度(-1 为 null) + 数据
func (p *Parcel) WriteBlob(b []byte) {
	if b == nil {
		p.WriteInt32(-1)
		return
	}
	p.WriteInt32(int32(len(b)))
	p.data = append(p.data, b...)
}

// ReadBlob 读取字节块，返回值是拷贝
func (p *Parcel) ReadBlob() ([]byte, error) {
	n, null, err := p.readLength()
	if err != nil || null {
		return nil, err
	}
	b, err := p.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// WriteString 写入非 null 字符串
func (p *Parcel) WriteString(s string) {
	p.WriteNullableString(&s)
}

// WriteNullableString s 为 nil 时写入 null 标记
func (p *Parcel) WriteNullableString(s *string) {
	if s == nil {
		p.WriteInt32(-1)
		return
	}
	if p.enc == UTF16 {
		ucs, err := comm.Ucs2Encode(*s)
		if err != nil {
			// 非法 UTF-8 序列按 UTF-8 规则替换后再编码
			ucs, _ = comm.Ucs2Encode(string([]rune(*s)))
		}
		p.WriteInt32(int32(len(ucs) / 2))
		p.data = append(p.data, ucs...)
		return
	}
	p.WriteInt32(int32(len(*s)))
	p.data = append(p.data, *s...)
}

// ReadNullableString 读取字符串，null 返回 nil
func (p *Parcel) ReadNullableString() (*string, error) {
	n, null, err := p.readLength()
	if err != nil || null {
		return nil, err
	}
	if p.enc == UTF16 {
		if n > p.Remaining()/2 {
			return nil, fmt.Errorf("%w: need %d code units at offset %d, have %d bytes", ErrStreamUnderflow, n, p.pos, p.Remaining())
		}
		b, err := p.take(n * 2)
		if err != nil {
			return nil, err
		}
		s, err := comm.Ucs2Decode(b)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}
	b, err := p.take(n)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// ReadString 读取字符串，null 读作空串
func (p *Parcel) ReadString() (string, error) {
	s, err := p.ReadNullableString()
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// WriteStringList 写入字符串序列: int32 个数(-1 为 nil) + 各元素
func (p *Parcel) WriteStringList(list []string) {
	if list == nil {
		p.WriteInt32(-1)
		return
	}
	p.WriteInt32(int32(len(list)))
	for _, s := range list {
		p.WriteString(s)
	}
}

func (p *Parcel) ReadStringList() ([]string, error) {
	n, null, err := p.readLength()
	if err != nil || null {
		return nil, err
	}
	// 每个元素至少有4字节长度前缀，先校验再分配，避免损坏的计数触发大内存分配
	if n > p.Remaining()/4 {
		return nil, fmt.Errorf("%w: list of %d at offset %d, have %d bytes", ErrStreamUnderflow, n, p.pos, p.Remaining())
	}
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := p.ReadString()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}
