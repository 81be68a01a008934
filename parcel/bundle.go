package parcel

import (
	"fmt"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Bundle 不透明的键值集合，整体交给 CBOR 序列化。
// 值在写入前转换为解码后的类型，见 NormalizeBundle。
type Bundle map[string]interface{}

// Core Deterministic Encoding: 相同的内容总是得到相同的字节
var bundleEncMode cbor.EncMode

var bundleDecMode cbor.DecMode

func init() {
	var err error
	bundleEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("parcel: CBOR encoder initialization failed: " + err.Error())
	}

	bundleDecMode, err = cbor.DecOptions{
		// 嵌套的 map 解成 map[string]interface{}，而不是 map[interface{}]interface{}
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
		// 正整数解成 int64，与写入时的 Go 类型保持一致
		IntDec: cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic("parcel: CBOR decoder initialization failed: " + err.Error())
	}
}

// NormalizeBundle 返回值类型与解码结果一致的副本: 整数为 int64，浮点为 float64，
// 切片为 []interface{}(字节切片除外)，map 为 map[string]interface{}，nil 容器为 nil。
// 其它类型返回错误。
func NormalizeBundle(b Bundle) (Bundle, error) {
	if b == nil {
		return nil, nil
	}
	out := make(Bundle, len(b))
	for k, v := range b {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("parcel: bundle key %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	switch v.(type) {
	case nil, bool, string, int64, float64:
		return v, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%T %d overflows int64", v, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			data := make([]byte, rv.Len())
			for i := range data {
				data[i] = byte(rv.Index(i).Uint())
			}
			return data, nil
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			e, err := normalizeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not string", rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			e, err := normalizeValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = e
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported bundle value %T", v)
}

// WriteBundle 写入可为 nil 的 Bundle: 长度前缀(-1 为 nil) + CBOR
func (p *Parcel) WriteBundle(b Bundle) error {
	if b == nil {
		p.WriteBlob(nil)
		return nil
	}
	b, err := NormalizeBundle(b)
	if err != nil {
		return err
	}
	data, err := bundleEncMode.Marshal(map[string]interface{}(b))
	if err != nil {
		return fmt.Errorf("parcel: encode bundle: %w", err)
	}
	p.WriteBlob(data)
	return nil
}

func (p *Parcel) ReadBundle() (Bundle, error) {
	data, err := p.ReadBlob()
	if err != nil || data == nil {
		return nil, err
	}
	b := Bundle{}
	if err := bundleDecMode.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parcel: decode bundle: %w", err)
	}
	return b, nil
}
