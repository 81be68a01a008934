package relay

import (
	"fmt"

	"github.com/aaronwong1989/goparcel/comm"
)

// Codec 可以编解码并写回连接的报文，应答报文只需实现它
type Codec interface {
	Encode() []byte
	Decode(header *MessageHeader, frame []byte) error
	fmt.Stringer
}

// Pdu 请求报文，ToResponse 的结果实现 Codec
type Pdu interface {
	Codec
	ToResponse(code uint32) interface{}
}

// Sequence32 32位序号生成器
type Sequence32 interface {
	NextVal() int32
}

// Seq32 请求报文的序号来源，进程启动时按配置替换
var Seq32 Sequence32 = comm.NewCycleSequence(0, 0)
