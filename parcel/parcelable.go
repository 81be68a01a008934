package parcel

import (
	"fmt"
	"sort"
	"sync"
)

// Parcelable 可以按位置写入 Parcel 的值。
// ParcelableName 作为类型鉴别符写在负载之前，解码端凭它在 Registry 中找到 Creator。
type Parcelable interface {
	ParcelableName() string
	WriteToParcel(p *Parcel) error
}

// Creator 从 Parcel 当前位置读出一个值，reg 用于解析嵌套的多态字段
type Creator func(p *Parcel, reg *Registry) (Parcelable, error)

// Registry 类型名到 Creator 的映射，即解码多态字段时的类型解析上下文。
// 注册完成后可被多个 goroutine 并发读取。
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]Creator)}
}

// Register 注册类型，重复注册同名类型返回错误
func (r *Registry) Register(name string, creator Creator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("parcel: invalid registration %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.creators[name]; exists {
		return fmt.Errorf("parcel: type %q already registered", name)
	}
	r.creators[name] = creator
	return nil
}

func (r *Registry) MustRegister(name string, creator Creator) {
	if err := r.Register(name, creator); err != nil {
		panic(err)
	}
}

func (r *Registry) Resolve(name string) (Creator, error) {
	if r == nil {
		return nil, &TypeResolutionError{Name: name}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	creator, ok := r.creators[name]
	if !ok {
		return nil, &TypeResolutionError{Name: name}
	}
	return creator, nil
}

// Names 已注册的类型名，按字典序
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteParcelable 写入可为 null 的多态值: 类型名(null 表示无值) + 负载。
// 注意带类型的 nil 指针装进接口后不是 nil，调用方需自行转换。
func (p *Parcel) WriteParcelable(v Parcelable) error {
	if v == nil {
		p.WriteNullableString(nil)
		return nil
	}
	p.WriteString(v.ParcelableName())
	return v.WriteToParcel(p)
}

// ReadParcelable 读取多态值，类型名为 null 时返回 nil
func (p *Parcel) ReadParcelable(reg *Registry) (Parcelable, error) {
	name, err := p.ReadNullableString()
	if err != nil || name == nil {
		return nil, err
	}
	creator, err := reg.Resolve(*name)
	if err != nil {
		return nil, err
	}
	return creator(p, reg)
}

// ReadTypedParcelable 读取多态值并断言为 T，类型不符时返回 TypeResolutionError
func ReadTypedParcelable[T Parcelable](p *Parcel, reg *Registry) (T, error) {
	var zero T
	v, err := p.ReadParcelable(reg)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeResolutionError{Name: v.ParcelableName(), Want: fmt.Sprintf("%T", zero)}
	}
	return t, nil
}
