package telecom

import (
	"fmt"
	"strings"

	"github.com/aaronwong1989/goparcel/parcel"
)

// 多态字段的类型鉴别符
const (
	TypePhoneAccountHandle = "android.telecom.PhoneAccountHandle"
	TypeStatusHints        = "android.telecom.StatusHints"
	TypeUri                = "android.net.Uri"
)

// NewRegistry 注册了本包全部 Parcelable 类型的类型解析上下文
func NewRegistry() *parcel.Registry {
	reg := parcel.NewRegistry()
	reg.MustRegister(TypePhoneAccountHandle, createPhoneAccountHandle)
	reg.MustRegister(TypeStatusHints, createStatusHints)
	reg.MustRegister(TypeUri, createUri)
	return reg
}

// asParcelable 避免带类型的 nil 指针被当成非空值写入
func asParcelable[T any, PT interface {
	*T
	parcel.Parcelable
}](v PT) parcel.Parcelable {
	if v == nil {
		return nil
	}
	return v
}

// PhoneAccountHandle 标识一个通话账户
type PhoneAccountHandle struct {
	componentName string // 提供该账户的组件，形如 "包名/类名"
	id            string
	userId        int32
}

func NewPhoneAccountHandle(componentName, id string, userId int32) *PhoneAccountHandle {
	return &PhoneAccountHandle{componentName: componentName, id: id, userId: userId}
}

func (a *PhoneAccountHandle) ComponentName() string { return a.componentName }
func (a *PhoneAccountHandle) Id() string            { return a.id }
func (a *PhoneAccountHandle) UserId() int32         { return a.userId }

func (a *PhoneAccountHandle) ParcelableName() string {
	return TypePhoneAccountHandle
}

func (a *PhoneAccountHandle) WriteToParcel(p *parcel.Parcel) error {
	p.WriteString(a.componentName)
	p.WriteString(a.id)
	p.WriteInt32(a.userId)
	return nil
}

func (a *PhoneAccountHandle) String() string {
	return fmt.Sprintf("ComponentInfo{%s}, %s, UserHandle{%d}", a.componentName, a.id, a.userId)
}

func createPhoneAccountHandle(p *parcel.Parcel, _ *parcel.Registry) (parcel.Parcelable, error) {
	var (
		a   PhoneAccountHandle
		err error
	)
	if a.componentName, err = p.ReadString(); err != nil {
		return nil, err
	}
	if a.id, err = p.ReadString(); err != nil {
		return nil, err
	}
	if a.userId, err = p.ReadInt32(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Uri 号码或地址，如 "tel:+8613800138000"、"sip:alice@example.com"
type Uri struct {
	raw string
}

func ParseUri(s string) *Uri {
	return &Uri{raw: s}
}

// NewTelUri 以 tel 协议构造号码地址
func NewTelUri(number string) *Uri {
	return &Uri{raw: "tel:" + number}
}

func (u *Uri) Scheme() string {
	scheme, _, found := strings.Cut(u.raw, ":")
	if !found {
		return ""
	}
	return scheme
}

func (u *Uri) SchemeSpecificPart() string {
	_, rest, found := strings.Cut(u.raw, ":")
	if !found {
		return u.raw
	}
	return rest
}

func (u *Uri) String() string {
	return u.raw
}

func (u *Uri) ParcelableName() string {
	return TypeUri
}

func (u *Uri) WriteToParcel(p *parcel.Parcel) error {
	p.WriteString(u.raw)
	return nil
}

func createUri(p *parcel.Parcel, _ *parcel.Registry) (parcel.Parcelable, error) {
	s, err := p.ReadString()
	if err != nil {
		return nil, err
	}
	return &Uri{raw: s}, nil
}

// StatusHints 展示给用户的通话状态提示
type StatusHints struct {
	label  *string
	icon   *Uri
	extras parcel.Bundle
}

func NewStatusHints(label *string, icon *Uri, extras parcel.Bundle) *StatusHints {
	return &StatusHints{label: label, icon: icon, extras: normalizeExtras(extras)}
}

func (s *StatusHints) Label() *string        { return s.label }
func (s *StatusHints) Icon() *Uri            { return s.icon }
func (s *StatusHints) Extras() parcel.Bundle { return s.extras }

func (s *StatusHints) ParcelableName() string {
	return TypeStatusHints
}

func (s *StatusHints) WriteToParcel(p *parcel.Parcel) error {
	p.WriteNullableString(s.label)
	if err := p.WriteParcelable(asParcelable(s.icon)); err != nil {
		return err
	}
	return p.WriteBundle(s.extras)
}

func (s *StatusHints) String() string {
	label := "null"
	if s.label != nil {
		label = *s.label
	}
	return fmt.Sprintf("StatusHints{label: %s, icon: %v, extras: %d}", label, s.icon, len(s.extras))
}

func createStatusHints(p *parcel.Parcel, reg *parcel.Registry) (parcel.Parcelable, error) {
	var (
		s   StatusHints
		err error
	)
	if s.label, err = p.ReadNullableString(); err != nil {
		return nil, err
	}
	if s.icon, err = parcel.ReadTypedParcelable[*Uri](p, reg); err != nil {
		return nil, err
	}
	if s.extras, err = p.ReadBundle(); err != nil {
		return nil, err
	}
	return &s, nil
}
