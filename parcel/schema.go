package parcel

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Schema 描述一个按位置编码的记录的字段布局。
// 开启指纹校验时，编码端先写入布局指纹，解码端读出后比对，
// 字段顺序或字段集合的任何变化都会在解码时报 ErrSchemaMismatch，而不是静默错位。
type Schema struct {
	name        string
	fields      []string
	fingerprint int32
}

// NewSchema fields 需按写入顺序给出，形如 "state:int32"
func NewSchema(name string, fields ...string) *Schema {
	desc := name + "{" + strings.Join(fields, ";") + "}"
	sum := blake3.Sum256([]byte(desc))
	return &Schema{
		name:        name,
		fields:      fields,
		fingerprint: int32(binary.BigEndian.Uint32(sum[:4])),
	}
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Fingerprint() int32 {
	return s.fingerprint
}

func (s *Schema) WriteGuard(p *Parcel) {
	p.WriteInt32(s.fingerprint)
}

func (s *Schema) CheckGuard(p *Parcel) error {
	fp, err := p.ReadInt32()
	if err != nil {
		return err
	}
	if fp != s.fingerprint {
		return fmt.Errorf("%w: %s want %08x, got %08x", ErrSchemaMismatch, s.name, uint32(s.fingerprint), uint32(fp))
	}
	return nil
}
