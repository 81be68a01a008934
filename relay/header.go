package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const HeadLength = 12

var ErrorPacket = errors.New("error packet")

type MessageHeader struct {
	PacketLength uint32
	CommandId    uint32
	SequenceId   uint32
}

// Encode 按 PacketLength 分配整帧，头部写在开头
func (header *MessageHeader) Encode() []byte {
	if header.PacketLength < HeadLength {
		header.PacketLength = HeadLength
	}
	frame := make([]byte, header.PacketLength)
	binary.BigEndian.PutUint32(frame[0:4], header.PacketLength)
	binary.BigEndian.PutUint32(frame[4:8], header.CommandId)
	binary.BigEndian.PutUint32(frame[8:12], header.SequenceId)
	return frame
}

func (header *MessageHeader) Decode(frame []byte) error {
	if len(frame) < HeadLength {
		return ErrorPacket
	}
	header.PacketLength = binary.BigEndian.Uint32(frame[0:4])
	header.CommandId = binary.BigEndian.Uint32(frame[4:8])
	header.SequenceId = binary.BigEndian.Uint32(frame[8:12])
	return nil
}

func (header *MessageHeader) String() string {
	return fmt.Sprintf("{ PacketLength: %d, CommandId: %s, SequenceId: %d }", header.PacketLength, commandName(header.CommandId), header.SequenceId)
}

const (
	CmdConferenceBatch     = uint32(0x00000001) // 提交一批会议记录
	CmdConferenceBatchResp = uint32(0x80000001) // 提交应答
	CmdActiveTest          = uint32(0x00000004) // 链路检测
	CmdActiveTestResp      = uint32(0x80000004) // 链路检测应答
	CmdExit                = uint32(0x00000006) // 退出
	CmdExitResp            = uint32(0x80000006) // 退出应答
)

var CommandMap = map[uint32]string{
	CmdConferenceBatch:     "ConferenceBatch",
	CmdConferenceBatchResp: "ConferenceBatchResp",
	CmdActiveTest:          "ActiveTest",
	CmdActiveTestResp:      "ActiveTestResp",
	CmdExit:                "Exit",
	CmdExitResp:            "ExitResp",
}

func commandName(id uint32) string {
	if name, ok := CommandMap[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", id)
}

// 批量提交的应答状态
const (
	StatusOK             = uint32(0)
	StatusBadFormat      = uint32(1) // 记录流损坏或截断
	StatusUnknownType    = uint32(2) // 无法解析的类型名
	StatusSchemaMismatch = uint32(3) // 字段布局指纹不一致
	StatusRejected       = uint32(4) // 处理器拒绝
	StatusWindowFull     = uint32(8) // 接收窗口已满，稍后重试
	StatusInternal       = uint32(9)
)

var StatusMap = map[uint32]string{
	StatusOK:             "成功",
	StatusBadFormat:      "记录格式错误",
	StatusUnknownType:    "未知的记录类型",
	StatusSchemaMismatch: "字段布局不一致",
	StatusRejected:       "处理失败",
	StatusWindowFull:     "流量控制错",
	StatusInternal:       "系统内部错误",
}
