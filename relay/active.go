package relay

type ActiveTest MessageHeader
type ActiveTestResp MessageHeader

func NewActiveTest() *ActiveTest {
	return &ActiveTest{PacketLength: HeadLength, CommandId: CmdActiveTest, SequenceId: uint32(Seq32.NextVal())}
}

func (at *ActiveTest) Encode() []byte {
	return (*MessageHeader)(at).Encode()
}

func (at *ActiveTest) Decode(header *MessageHeader, _ []byte) error {
	*at = ActiveTest(*header)
	return nil
}

func (at *ActiveTest) ToResponse(_ uint32) interface{} {
	return &ActiveTestResp{PacketLength: HeadLength, CommandId: CmdActiveTestResp, SequenceId: at.SequenceId}
}

func (at *ActiveTest) String() string {
	return (*MessageHeader)(at).String()
}

func (resp *ActiveTestResp) Encode() []byte {
	return (*MessageHeader)(resp).Encode()
}

func (resp *ActiveTestResp) Decode(header *MessageHeader, _ []byte) error {
	*resp = ActiveTestResp(*header)
	return nil
}

func (resp *ActiveTestResp) String() string {
	return (*MessageHeader)(resp).String()
}
