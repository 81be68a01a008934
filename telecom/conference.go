package telecom

import (
	"math"

	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/parcel"
)

var log = logging.GetDefaultLogger()

// ConnectTimeNotSpecified 接通时间未指定，与真实的 0 毫秒区分开
const ConnectTimeNotSpecified = int64(math.MinInt64)

// ParcelableConference 跨进程传递的会议快照。
// 构造后只读，statusHints 和 extras 两个字段为兼容旧调用方保留了 setter。
type ParcelableConference struct {
	phoneAccount                  *PhoneAccountHandle // 所属账户，可为 nil
	state                         int32               // 会议状态，见 StateMap
	connectionCapabilities        int32               // 能力位
	connectionProperties          int32               // 属性位
	connectionIds                 []string            // 成员连接 id，容器可为 nil
	connectTimeMillis             int64               // 接通时刻
	connectElapsedTimeMillis      int64               // 接通时的开机时长
	videoProvider                 VideoProvider       // 视频端点，可为 nil
	videoState                    int32               // 视频状态
	statusHints                   *StatusHints        // 状态提示，可为 nil
	extras                        parcel.Bundle       // 扩展信息，可为 nil
	address                       *Uri                // 会议地址，可为 nil
	addressPresentation           int32               // 地址呈现方式
	callerDisplayName             *string             // 主叫名称，可为 nil
	callerDisplayNamePresentation int32               // 主叫名称呈现方式
}

// ConferenceParams 构造参数。
// ConnectTimeMillis/ConnectElapsedTimeMillis 的零值就是 0 毫秒，未知时请显式填 ConnectTimeNotSpecified。
type ConferenceParams struct {
	PhoneAccount                  *PhoneAccountHandle
	State                         int32
	ConnectionCapabilities        int32
	ConnectionProperties          int32
	ConnectionIds                 []string
	VideoProvider                 VideoProvider
	VideoState                    int32
	ConnectTimeMillis             int64
	ConnectElapsedTimeMillis      int64
	StatusHints                   *StatusHints
	Extras                        parcel.Bundle
	Address                       *Uri
	AddressPresentation           int32
	CallerDisplayName             *string
	CallerDisplayNamePresentation int32
}

func NewParcelableConference(params ConferenceParams) *ParcelableConference {
	return &ParcelableConference{
		phoneAccount:                  params.PhoneAccount,
		state:                         params.State,
		connectionCapabilities:        params.ConnectionCapabilities,
		connectionProperties:          params.ConnectionProperties,
		connectionIds:                 copyStrings(params.ConnectionIds),
		connectTimeMillis:             params.ConnectTimeMillis,
		connectElapsedTimeMillis:      params.ConnectElapsedTimeMillis,
		videoProvider:                 params.VideoProvider,
		videoState:                    params.VideoState,
		statusHints:                   params.StatusHints,
		extras:                        normalizeExtras(params.Extras),
		address:                       params.Address,
		addressPresentation:           params.AddressPresentation,
		callerDisplayName:             params.CallerDisplayName,
		callerDisplayNamePresentation: params.CallerDisplayNamePresentation,
	}
}

// normalizeExtras 按解码后的类型保存，无法表示的值原样保留，编码时报错
func normalizeExtras(extras parcel.Bundle) parcel.Bundle {
	normalized, err := parcel.NormalizeBundle(extras)
	if err != nil {
		log.Warnf("[%-9s] %v", "Extras", err)
		return extras
	}
	return normalized
}

// NewConferenceArray 为批量解码分配 n 个空槽位，空槽位为 nil
func NewConferenceArray(n int) []*ParcelableConference {
	if n < 0 {
		n = 0
	}
	return make([]*ParcelableConference, n)
}

func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

func (c *ParcelableConference) PhoneAccount() *PhoneAccountHandle { return c.phoneAccount }
func (c *ParcelableConference) State() int32                      { return c.state }
func (c *ParcelableConference) ConnectionCapabilities() int32     { return c.connectionCapabilities }
func (c *ParcelableConference) ConnectionProperties() int32       { return c.connectionProperties }

// ConnectionIds 返回副本，nil 与空列表保持区分
func (c *ParcelableConference) ConnectionIds() []string         { return copyStrings(c.connectionIds) }
func (c *ParcelableConference) ConnectTimeMillis() int64        { return c.connectTimeMillis }
func (c *ParcelableConference) ConnectElapsedTimeMillis() int64 { return c.connectElapsedTimeMillis }
func (c *ParcelableConference) VideoProvider() VideoProvider    { return c.videoProvider }
func (c *ParcelableConference) VideoState() int32               { return c.videoState }
func (c *ParcelableConference) StatusHints() *StatusHints       { return c.statusHints }
func (c *ParcelableConference) Extras() parcel.Bundle           { return c.extras }
func (c *ParcelableConference) Handle() *Uri                    { return c.address }
func (c *ParcelableConference) HandlePresentation() int32       { return c.addressPresentation }
func (c *ParcelableConference) CallerDisplayName() *string      { return c.callerDisplayName }
func (c *ParcelableConference) CallerDisplayNamePresentation() int32 {
	return c.callerDisplayNamePresentation
}

// SetStatusHints 兼容旧调用方
func (c *ParcelableConference) SetStatusHints(hints *StatusHints) {
	c.statusHints = hints
}

// SetExtras 兼容旧调用方
func (c *ParcelableConference) SetExtras(extras parcel.Bundle) {
	c.extras = normalizeExtras(extras)
}

// DescribeContents 记录中没有文件描述符一类的特殊对象
func (c *ParcelableConference) DescribeContents() int {
	return 0
}

func (c *ParcelableConference) String() string {
	return describe(c, ConnectionFormatter{})
}
