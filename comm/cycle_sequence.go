package comm

import (
	"fmt"
	"sync"
	"time"
)

// CycleSequence 24小时内不会重复的雪花序号生成器，用作报文头的 SequenceId
// 构成为: 0 | seconds 17 bit | datacenter 2 bit | worker 3 bit| sequence 9 bit
// 单节点每秒超过512个序号时会阻塞到下一秒再返回
type CycleSequence struct {
	sync.Mutex       // 锁
	seconds    int32 // 截止到午夜0点的秒数
	datacenter int32 // 数据中心id, 取值范围：0-3
	worker     int32 // 工作节点, 取值范围：0-7
	sequence   int32 // 序列号
	now        func() time.Time
}

const (
	sequenceMask    = int32(0x01ff)                              // 最大值为9个1
	datacenterBits  = uint(2)                                    // 数据中心id所占位数
	workerBits      = uint(3)                                    // 机器id所占位数
	sequenceBits    = uint(9)                                    // 序列所占的位数
	workerShift     = sequenceBits                               // 机器id左移位数
	datacenterShift = sequenceBits + workerBits                  // 数据中心id左移位数
	timestampShift  = sequenceBits + workerBits + datacenterBits // 时间戳左移位数
)

// NewCycleSequence d for datacenter-id, w for worker-id
func NewCycleSequence(d int32, w int32) *CycleSequence {
	return &CycleSequence{
		datacenter: d & (1<<datacenterBits - 1),
		worker:     w & (1<<workerBits - 1),
		now:        time.Now,
	}
}

func (s *CycleSequence) NextVal() int32 {
	s.Lock()
	defer s.Unlock()
	now := s.passedSeconds()
	if s.seconds == now {
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			// 当前秒的序号已用完，等待下一秒
			for now <= s.seconds {
				time.Sleep(time.Microsecond)
				now = s.passedSeconds()
			}
		}
	} else {
		s.sequence = 0
	}
	s.seconds = now
	return (s.seconds << timestampShift) | (s.datacenter << datacenterShift) | (s.worker << workerShift) | s.sequence
}

func (s *CycleSequence) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", s.seconds, s.datacenter, s.worker, s.sequence)
}

func (s *CycleSequence) passedSeconds() int32 {
	t := s.now()
	return int32(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
