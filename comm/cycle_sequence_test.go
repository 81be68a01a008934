package comm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var seq = NewCycleSequence(1, 1)

func TestCycleSequence_NextVal(t *testing.T) {
	fixed := time.Date(2022, 7, 1, 10, 20, 30, 0, time.Local)
	s := NewCycleSequence(2, 5)
	s.now = func() time.Time { return fixed }

	first := s.NextVal()
	second := s.NextVal()
	t.Logf("first: %d, second: %d, state: %s", first, second, s)

	assert.Equal(t, first+1, second)
	assert.Equal(t, int32(10*3600+20*60+30), first>>timestampShift)
	assert.Equal(t, int32(2), (first>>datacenterShift)&0x3)
	assert.Equal(t, int32(5), (first>>workerShift)&0x7)
	assert.True(t, first > 0)
}

func TestCycleSequence_NewSecondResets(t *testing.T) {
	clock := time.Date(2022, 7, 1, 23, 59, 58, 0, time.Local)
	s := NewCycleSequence(0, 0)
	s.now = func() time.Time { return clock }
	_ = s.NextVal()
	_ = s.NextVal()
	clock = clock.Add(time.Second)
	v := s.NextVal()
	assert.Equal(t, int32(0), v&sequenceMask)
}

func BenchmarkCycleSequence_NextVal(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq.NextVal()
	}
}
