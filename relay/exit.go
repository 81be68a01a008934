package relay

type Exit MessageHeader
type ExitResp MessageHeader

func NewExit() *Exit {
	return &Exit{PacketLength: HeadLength, CommandId: CmdExit, SequenceId: uint32(Seq32.NextVal())}
}

func (e *Exit) Encode() []byte {
	return (*MessageHeader)(e).Encode()
}

func (e *Exit) Decode(header *MessageHeader, _ []byte) error {
	*e = Exit(*header)
	return nil
}

func (e *Exit) ToResponse(_ uint32) interface{} {
	return &ExitResp{PacketLength: HeadLength, CommandId: CmdExitResp, SequenceId: e.SequenceId}
}

func (e *Exit) String() string {
	return (*MessageHeader)(e).String()
}

func (resp *ExitResp) Encode() []byte {
	return (*MessageHeader)(resp).Encode()
}

func (resp *ExitResp) Decode(header *MessageHeader, _ []byte) error {
	*resp = ExitResp(*header)
	return nil
}

func (resp *ExitResp) String() string {
	return (*MessageHeader)(resp).String()
}
