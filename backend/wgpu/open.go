//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"   // headless backend
	_ "github.com/gogpu/wgpu/hal/vulkan" // register Vulkan backend

	"github.com/gogpu/spritebatch"
)

// Backends that Open can select.
const (
	BackendVulkan = gputypes.BackendVulkan

	// BackendNoop accepts every call and draws nothing. It is meant for
	// headless runs and tests.
	BackendNoop = gputypes.BackendEmpty
)

// ErrNoAdapter is returned when a backend exposes no adapters.
var ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

// ParseBackend maps a backend name to its identifier. Accepted names are
// "vulkan" and "noop".
func ParseBackend(name string) (gputypes.Backend, error) {
	switch strings.ToLower(name) {
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "noop", "none", "headless":
		return BackendNoop, nil
	}
	return 0, fmt.Errorf("wgpu: unknown backend %q", name)
}

// Open creates an instance on backend, selects an adapter and opens a
// device on it. Discrete and integrated GPUs are preferred over software
// adapters. Close destroys everything Open created.
func Open(backend gputypes.Backend) (*Device, error) {
	api, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("wgpu: %s backend not available", backend)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d := newDevice(open.Device, open.Queue)
	d.instance = instance
	d.owned = true
	d.info = selected.Info
	spritebatch.Logger().Info("wgpu: device opened",
		"backend", backend.String(),
		"adapter", selected.Info.Name,
	)
	return d, nil
}

// FromProvider wraps the device of a host application, such as a gogpu
// window. The provider must expose its HAL objects through
// HalDevice() any and HalQueue() any.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}

	d := newDevice(device, queue)
	info := provider.AdapterInfo()
	d.info = gputypes.AdapterInfo{Name: info.Name}
	spritebatch.Logger().Debug("wgpu: using shared device", "adapter", info.Name)
	return d, nil
}

// SurfaceFormat returns the provider's surface format, or fallback when the
// provider is headless. Pass it to spritebatch.WithTargetFormat.
func SurfaceFormat(provider gpucontext.DeviceProvider, fallback gputypes.TextureFormat) gputypes.TextureFormat {
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		return f
	}
	return fallback
}
