package parcel

import "fmt"

// Handle 跨进程端点的句柄，只在发布它的进程内有意义
type Handle uint64

// NoHandle 空句柄，表示没有端点
const NoHandle Handle = 0

func (h Handle) Valid() bool {
	return h != NoHandle
}

func (h Handle) String() string {
	if h == NoHandle {
		return "null"
	}
	return fmt.Sprintf("0x%x", uint64(h))
}

// WriteStrongBinder 写入句柄，NoHandle 即 null
func (p *Parcel) WriteStrongBinder(h Handle) {
	p.WriteUint64(uint64(h))
}

func (p *Parcel) ReadStrongBinder() (Handle, error) {
	v, err := p.ReadUint64()
	return Handle(v), err
}
