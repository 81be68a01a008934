// Package binder 进程内端点表: 把活动对象发布为可跨进程传递的句柄，并按句柄找回对象。
package binder

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/parcel"
)

var log = logging.GetDefaultLogger()

// ErrHandleInvalid 句柄没有对应的活动端点，在代理第一次被调用时返回
var ErrHandleInvalid = errors.New("binder: handle does not refer to a live endpoint")

// Transport 活动对象与句柄之间的互相转换
type Transport interface {
	// Publish 返回 obj 的句柄，同一个可比较的对象总是得到同一个句柄
	Publish(obj interface{}) parcel.Handle
	// Lookup 按句柄找回对象，句柄已失效时 ok 为 false
	Lookup(h parcel.Handle) (obj interface{}, ok bool)
}

// Table Transport 的进程内实现。obj 通常是指针；
// 不可比较的值(含切片、map 的结构体值等)每次发布都得到新句柄。
type Table struct {
	next    uint64
	objects sync.Map // parcel.Handle -> interface{}
	handles sync.Map // interface{} -> parcel.Handle
	mu      sync.Mutex
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Publish(obj interface{}) parcel.Handle {
	if obj == nil {
		return parcel.NoHandle
	}
	if !hashable(obj) {
		h := parcel.Handle(atomic.AddUint64(&t.next, 1))
		t.objects.Store(h, obj)
		log.Debugf("[%-9s] publish non-comparable %T as %s", "Binder", obj, h)
		return h
	}
	if h, ok := t.handles.Load(obj); ok {
		return h.(parcel.Handle)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// 加锁后再查一次，避免并发发布同一对象得到两个句柄
	if h, ok := t.handles.Load(obj); ok {
		return h.(parcel.Handle)
	}
	h := parcel.Handle(atomic.AddUint64(&t.next, 1))
	t.objects.Store(h, obj)
	t.handles.Store(obj, h)
	log.Debugf("[%-9s] publish %T as %s", "Binder", obj, h)
	return h
}

// hashable 按动态值判断，结构体里装着切片的接口字段也算不可比较
func hashable(obj interface{}) bool {
	return reflect.ValueOf(obj).Comparable()
}

func (t *Table) Lookup(h parcel.Handle) (interface{}, bool) {
	if !h.Valid() {
		return nil, false
	}
	return t.objects.Load(h)
}

// Release 撤销句柄，之后经由该句柄的调用都会得到 ErrHandleInvalid
func (t *Table) Release(h parcel.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if obj, ok := t.objects.LoadAndDelete(h); ok {
		if hashable(obj) {
			t.handles.Delete(obj)
		}
		log.Debugf("[%-9s] release %s", "Binder", h)
	}
}

// Count 当前存活的句柄数
func (t *Table) Count() int {
	counter := 0
	t.objects.Range(func(key, value interface{}) bool {
		counter++
		return true
	})
	return counter
}
