package telecom

import (
	"strings"
)

// 连接状态
const (
	StateInitializing = int32(0) // 正在初始化
	StateNew          = int32(1) // 新建，尚未振铃
	StateRinging      = int32(2) // 来电振铃
	StateDialing      = int32(3) // 去电拨号中
	StateActive       = int32(4) // 通话中
	StateHolding      = int32(5) // 保持
	StateDisconnected = int32(6) // 已挂断
	StatePullingCall  = int32(7) // 正在从其他设备拉回通话
)

var StateMap = map[int32]string{
	StateInitializing: "INITIALIZING",
	StateNew:          "NEW",
	StateRinging:      "RINGING",
	StateDialing:      "DIALING",
	StateActive:       "ACTIVE",
	StateHolding:      "HOLDING",
	StateDisconnected: "DISCONNECTED",
	StatePullingCall:  "PULLING_CALL",
}

// 连接能力位
const (
	CapabilityHold                          = int32(0x00000001)
	CapabilitySupportHold                   = int32(0x00000002)
	CapabilityMergeConference               = int32(0x00000004)
	CapabilitySwapConference                = int32(0x00000008)
	CapabilityRespondViaText                = int32(0x00000020)
	CapabilityMute                          = int32(0x00000040)
	CapabilityManageConference              = int32(0x00000080)
	CapabilitySupportsVtLocalRx             = int32(0x00000100)
	CapabilitySupportsVtLocalTx             = int32(0x00000200)
	CapabilitySupportsVtLocalBidirectional  = int32(0x00000300)
	CapabilitySupportsVtRemoteRx            = int32(0x00000400)
	CapabilitySupportsVtRemoteTx            = int32(0x00000800)
	CapabilitySupportsVtRemoteBidirectional = int32(0x00000c00)
	CapabilitySeparateFromConference        = int32(0x00001000)
	CapabilityDisconnectFromConference      = int32(0x00002000)
	CapabilitySpeedUpMtAudio                = int32(0x00040000)
	CapabilityCanUpgradeToVideo             = int32(0x00080000)
	CapabilityCanPauseVideo                 = int32(0x00100000)
	CapabilityConferenceHasNoChildren       = int32(0x00200000)
	CapabilityCanSendResponseViaConnection  = int32(0x00400000)
	CapabilityCannotDowngradeVideoToAudio   = int32(0x00800000)
	CapabilityCanPullCall                   = int32(0x01000000)
	CapabilitySupportDeflect                = int32(0x02000000)
	CapabilityAddParticipant                = int32(0x04000000)
	CapabilityTransfer                      = int32(0x08000000)
	CapabilityTransferConsultative          = int32(0x10000000)
)

// 连接属性位
const (
	PropertyEmergencyCallbackMode          = int32(1 << 0)
	PropertyGenericConference              = int32(1 << 1)
	PropertyHighDefAudio                   = int32(1 << 2)
	PropertyWifi                           = int32(1 << 3)
	PropertyIsExternalCall                 = int32(1 << 4)
	PropertyHasCdmaVoicePrivacy            = int32(1 << 5)
	PropertyIsDowngradedConference         = int32(1 << 6)
	PropertySelfManaged                    = int32(1 << 7)
	PropertyIsRtt                          = int32(1 << 8)
	PropertyAssistedDialingUsed            = int32(1 << 9)
	PropertyNetworkIdentifiedEmergencyCall = int32(1 << 10)
	PropertyRemotelyHosted                 = int32(1 << 11)
	PropertyIsAdhocConference              = int32(1 << 12)
	PropertyCrossSim                       = int32(1 << 13)
)

// 号码与主叫名称的呈现方式
const (
	PresentationAllowed    = int32(1)
	PresentationRestricted = int32(2)
	PresentationUnknown    = int32(3)
	PresentationPayphone   = int32(4)
)

// 视频状态
const (
	VideoStateAudioOnly     = int32(0x0)
	VideoStateTxEnabled     = int32(0x1)
	VideoStateRxEnabled     = int32(0x2)
	VideoStateBidirectional = int32(0x3)
	VideoStatePaused        = int32(0x4)
)

type flagName struct {
	mask int32
	name string
}

// 组合位排在组成它的单个位之前，命中后不再重复输出单个位
var capabilityNames = []flagName{
	{CapabilityHold, "CAPABILITY_HOLD"},
	{CapabilitySupportHold, "CAPABILITY_SUPPORT_HOLD"},
	{CapabilityMergeConference, "CAPABILITY_MERGE_CONFERENCE"},
	{CapabilitySwapConference, "CAPABILITY_SWAP_CONFERENCE"},
	{CapabilityRespondViaText, "CAPABILITY_RESPOND_VIA_TEXT"},
	{CapabilityMute, "CAPABILITY_MUTE"},
	{CapabilityManageConference, "CAPABILITY_MANAGE_CONFERENCE"},
	{CapabilitySupportsVtLocalBidirectional, "CAPABILITY_SUPPORTS_VT_LOCAL_BIDIRECTIONAL"},
	{CapabilitySupportsVtLocalRx, "CAPABILITY_SUPPORTS_VT_LOCAL_RX"},
	{CapabilitySupportsVtLocalTx, "CAPABILITY_SUPPORTS_VT_LOCAL_TX"},
	{CapabilitySupportsVtRemoteBidirectional, "CAPABILITY_SUPPORTS_VT_REMOTE_BIDIRECTIONAL"},
	{CapabilitySupportsVtRemoteRx, "CAPABILITY_SUPPORTS_VT_REMOTE_RX"},
	{CapabilitySupportsVtRemoteTx, "CAPABILITY_SUPPORTS_VT_REMOTE_TX"},
	{CapabilitySeparateFromConference, "CAPABILITY_SEPARATE_FROM_CONFERENCE"},
	{CapabilityDisconnectFromConference, "CAPABILITY_DISCONNECT_FROM_CONFERENCE"},
	{CapabilitySpeedUpMtAudio, "CAPABILITY_SPEED_UP_MT_AUDIO"},
	{CapabilityCanUpgradeToVideo, "CAPABILITY_CAN_UPGRADE_TO_VIDEO"},
	{CapabilityCanPauseVideo, "CAPABILITY_CAN_PAUSE_VIDEO"},
	{CapabilityConferenceHasNoChildren, "CAPABILITY_SINGLE_PARTY_CONFERENCE"},
	{CapabilityCanSendResponseViaConnection, "CAPABILITY_CAN_SEND_RESPONSE_VIA_CONNECTION"},
	{CapabilityCannotDowngradeVideoToAudio, "CAPABILITY_CANNOT_DOWNGRADE_VIDEO_TO_AUDIO"},
	{CapabilityCanPullCall, "CAPABILITY_CAN_PULL_CALL"},
	{CapabilitySupportDeflect, "CAPABILITY_SUPPORT_DEFLECT"},
	{CapabilityAddParticipant, "CAPABILITY_ADD_PARTICIPANT"},
	{CapabilityTransfer, "CAPABILITY_TRANSFER"},
	{CapabilityTransferConsultative, "CAPABILITY_TRANSFER_CONSULTATIVE"},
}

var propertyNames = []flagName{
	{PropertyEmergencyCallbackMode, "PROPERTY_EMERGENCY_CALLBACK_MODE"},
	{PropertyGenericConference, "PROPERTY_GENERIC_CONFERENCE"},
	{PropertyHighDefAudio, "PROPERTY_HIGH_DEF_AUDIO"},
	{PropertyWifi, "PROPERTY_WIFI"},
	{PropertyIsExternalCall, "PROPERTY_IS_EXTERNAL_CALL"},
	{PropertyHasCdmaVoicePrivacy, "PROPERTY_HAS_CDMA_VOICE_PRIVACY"},
	{PropertyIsDowngradedConference, "PROPERTY_IS_DOWNGRADED_CONFERENCE"},
	{PropertySelfManaged, "PROPERTY_SELF_MANAGED"},
	{PropertyIsRtt, "PROPERTY_IS_RTT"},
	{PropertyAssistedDialingUsed, "PROPERTY_ASSISTED_DIALING_USED"},
	{PropertyNetworkIdentifiedEmergencyCall, "PROPERTY_NETWORK_IDENTIFIED_EMERGENCY_CALL"},
	{PropertyRemotelyHosted, "PROPERTY_REMOTELY_HOSTED"},
	{PropertyIsAdhocConference, "PROPERTY_IS_ADHOC_CONFERENCE"},
	{PropertyCrossSim, "PROPERTY_CROSS_SIM"},
}

// Formatter 把状态、能力位、属性位翻译成可读文本，只用于日志
type Formatter interface {
	StateToString(state int32) string
	CapabilitiesToString(capabilities int32) string
	PropertiesToString(properties int32) string
}

// ConnectionFormatter 默认的 Formatter
type ConnectionFormatter struct{}

func (ConnectionFormatter) StateToString(state int32) string {
	if name, ok := StateMap[state]; ok {
		return name
	}
	return "UNKNOWN"
}

// CapabilitiesToString 形如 "[Capabilities: CAPABILITY_HOLD CAPABILITY_MUTE]"
func (ConnectionFormatter) CapabilitiesToString(capabilities int32) string {
	return flagsToString("Capabilities:", capabilities, capabilityNames)
}

// PropertiesToString 形如 "[Properties: PROPERTY_WIFI]"
func (ConnectionFormatter) PropertiesToString(properties int32) string {
	return flagsToString("Properties:", properties, propertyNames)
}

func flagsToString(title string, bits int32, names []flagName) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(title)
	remaining := bits
	for _, fn := range names {
		if remaining&fn.mask == fn.mask {
			sb.WriteString(" ")
			sb.WriteString(fn.name)
			remaining &^= fn.mask
		}
	}
	sb.WriteString("]")
	return sb.String()
}
