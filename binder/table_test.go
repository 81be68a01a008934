package binder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aaronwong1989/goparcel/parcel"
)

type endpoint struct {
	name string
}

func TestTable_PublishLookup(t *testing.T) {
	table := NewTable()
	a, b := &endpoint{"a"}, &endpoint{"b"}

	ha := table.Publish(a)
	hb := table.Publish(b)
	t.Logf("a: %s, b: %s", ha, hb)
	assert.True(t, ha.Valid())
	assert.NotEqual(t, ha, hb)
	assert.Equal(t, ha, table.Publish(a))
	assert.Equal(t, parcel.NoHandle, table.Publish(nil))

	obj, ok := table.Lookup(ha)
	assert.True(t, ok)
	assert.Same(t, a, obj)

	_, ok = table.Lookup(parcel.NoHandle)
	assert.False(t, ok)
	_, ok = table.Lookup(parcel.Handle(999))
	assert.False(t, ok)
	assert.Equal(t, 2, table.Count())
}

func TestTable_Release(t *testing.T) {
	table := NewTable()
	a := &endpoint{"a"}
	h := table.Publish(a)
	table.Release(h)
	table.Release(h)

	_, ok := table.Lookup(h)
	assert.False(t, ok)
	assert.Equal(t, 0, table.Count())

	// 再次发布得到新句柄，旧句柄不会复活
	h2 := table.Publish(a)
	assert.NotEqual(t, h, h2)
}

func TestTable_ConcurrentPublish(t *testing.T) {
	table := NewTable()
	a := &endpoint{"shared"}
	handles := make([]parcel.Handle, 32)

	var wg sync.WaitGroup
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = table.Publish(a)
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Equal(t, handles[0], h)
	}
	assert.Equal(t, 1, table.Count())
}

// tagged 含切片字段，值本身不可比较
type tagged struct {
	tags []string
}

func TestTable_NonComparable(t *testing.T) {
	table := NewTable()
	v := tagged{tags: []string{"x"}}

	h1 := table.Publish(v)
	h2 := table.Publish(v)
	t.Logf("h1: %s, h2: %s", h1, h2)
	assert.True(t, h1.Valid())
	assert.NotEqual(t, h1, h2)

	obj, ok := table.Lookup(h1)
	assert.True(t, ok)
	assert.Equal(t, v, obj)

	// 可比较的结构体里装着不可比较的接口值
	var boxed struct{ v interface{} }
	boxed.v = v
	assert.True(t, table.Publish(boxed).Valid())

	table.Release(h1)
	_, ok = table.Lookup(h1)
	assert.False(t, ok)
	assert.Equal(t, 2, table.Count())
}
