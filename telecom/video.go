package telecom

import (
	"fmt"
	"sync"

	"github.com/aaronwong1989/goparcel/binder"
	"github.com/aaronwong1989/goparcel/parcel"
)

// VideoProvider 会议的视频控制端点，可能位于另一个进程
type VideoProvider interface {
	SetCamera(cameraId string) error
	SetDeviceOrientation(rotation int32) error
	SetZoom(value float32) error
	RequestCameraCapabilities() error
	RequestCallDataUsage() error
}

// AsVideoProvider 把句柄还原为代理。空句柄得到 nil；
// 失效的句柄照样得到代理，错误推迟到第一次调用时以 binder.ErrHandleInvalid 返回。
func AsVideoProvider(h parcel.Handle, transport binder.Transport) VideoProvider {
	if !h.Valid() {
		return nil
	}
	return &videoProviderProxy{handle: h, transport: transport}
}

// VideoProviderHandle 取得端点的句柄: 代理直接返回其句柄，本地端点经 transport 发布
func VideoProviderHandle(vp VideoProvider, transport binder.Transport) parcel.Handle {
	if vp == nil {
		return parcel.NoHandle
	}
	if proxy, ok := vp.(*videoProviderProxy); ok {
		return proxy.handle
	}
	if transport == nil {
		log.Warnf("[%-9s] no transport to publish %T, written as null", "Encode", vp)
		return parcel.NoHandle
	}
	return transport.Publish(vp)
}

type videoProviderProxy struct {
	handle    parcel.Handle
	transport binder.Transport
}

func (p *videoProviderProxy) remote() (VideoProvider, error) {
	if p.transport == nil {
		return nil, fmt.Errorf("%w: %s (no transport)", binder.ErrHandleInvalid, p.handle)
	}
	obj, ok := p.transport.Lookup(p.handle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", binder.ErrHandleInvalid, p.handle)
	}
	vp, ok := obj.(VideoProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", binder.ErrHandleInvalid, p.handle, obj)
	}
	return vp, nil
}

func (p *videoProviderProxy) SetCamera(cameraId string) error {
	vp, err := p.remote()
	if err != nil {
		return err
	}
	return vp.SetCamera(cameraId)
}

func (p *videoProviderProxy) SetDeviceOrientation(rotation int32) error {
	vp, err := p.remote()
	if err != nil {
		return err
	}
	return vp.SetDeviceOrientation(rotation)
}

func (p *videoProviderProxy) SetZoom(value float32) error {
	vp, err := p.remote()
	if err != nil {
		return err
	}
	return vp.SetZoom(value)
}

func (p *videoProviderProxy) RequestCameraCapabilities() error {
	vp, err := p.remote()
	if err != nil {
		return err
	}
	return vp.RequestCameraCapabilities()
}

func (p *videoProviderProxy) RequestCallDataUsage() error {
	vp, err := p.remote()
	if err != nil {
		return err
	}
	return vp.RequestCallDataUsage()
}

func (p *videoProviderProxy) String() string {
	return fmt.Sprintf("VideoProvider{handle: %s}", p.handle)
}

// LocalVideoProvider 进程内的视频端点，记录最近一次的设置
type LocalVideoProvider struct {
	mu                sync.Mutex
	name              string
	cameraId          string
	rotation          int32
	zoom              float32
	capabilityQueries int
	dataUsageQueries  int
}

func NewLocalVideoProvider(name string) *LocalVideoProvider {
	return &LocalVideoProvider{name: name}
}

func (v *LocalVideoProvider) SetCamera(cameraId string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cameraId = cameraId
	return nil
}

func (v *LocalVideoProvider) SetDeviceOrientation(rotation int32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rotation = rotation
	return nil
}

func (v *LocalVideoProvider) SetZoom(value float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = value
	return nil
}

func (v *LocalVideoProvider) RequestCameraCapabilities() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.capabilityQueries++
	return nil
}

func (v *LocalVideoProvider) RequestCallDataUsage() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dataUsageQueries++
	return nil
}

// Snapshot 当前的摄像头、方向、缩放设置
func (v *LocalVideoProvider) Snapshot() (cameraId string, rotation int32, zoom float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cameraId, v.rotation, v.zoom
}

func (v *LocalVideoProvider) String() string {
	return fmt.Sprintf("LocalVideoProvider{%s}", v.name)
}

// Queries 收到的能力查询与流量查询次数
func (v *LocalVideoProvider) Queries() (capabilities int, dataUsage int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.capabilityQueries, v.dataUsageQueries
}
