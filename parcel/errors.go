package parcel

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamUnderflow 读取超出了流中的可用数据
	ErrStreamUnderflow = errors.New("parcel: stream underflow")
	// ErrTypeResolution 多态字段的类型名无法在注册表中解析
	ErrTypeResolution = errors.New("parcel: type resolution failure")
	// ErrSchemaMismatch 解码端与编码端的字段布局指纹不一致
	ErrSchemaMismatch = errors.New("parcel: schema mismatch")
	// ErrBadLength 长度前缀为 -1 以外的负数
	ErrBadLength = errors.New("parcel: bad length prefix")
)

// TypeResolutionError 携带无法解析的类型名
type TypeResolutionError struct {
	Name string
	Want string // 期望的 Go 类型，仅在类型不匹配时设置
}

func (e *TypeResolutionError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("%v: %q does not decode to %s", ErrTypeResolution, e.Name, e.Want)
	}
	return fmt.Sprintf("%v: %q", ErrTypeResolution, e.Name)
}

func (e *TypeResolutionError) Unwrap() error {
	return ErrTypeResolution
}
