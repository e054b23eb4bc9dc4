// Package device wraps a hal.Device and hal.Queue pair with the buffer and
// texture operations the engine needs: validated creation, uploads, explicit
// destruction and memory accounting.
//
// A Device is owned by exactly one engine and is not safe for concurrent use.
package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Device errors.
var (
	// ErrNilHALDevice is returned when a nil hal.Device or hal.Queue is supplied.
	ErrNilHALDevice = errors.New("device: hal device or queue is nil")

	// ErrNoAdapter is returned when the headless backend exposes no adapter.
	ErrNoAdapter = errors.New("device: no adapter available")

	// ErrClosed is returned when operating on a closed device.
	ErrClosed = errors.New("device: closed")

	// ErrMemoryBudgetExceeded is returned when an allocation would exceed budget.
	ErrMemoryBudgetExceeded = errors.New("device: memory budget exceeded")
)

// Stats contains device memory usage statistics.
type Stats struct {
	// BudgetBytes is the allocation budget in bytes (0 means unlimited).
	BudgetBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// Buffers is the number of live buffers.
	Buffers int

	// Textures is the number of live textures.
	Textures int
}

// String returns a human-readable string of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Device[%d bytes used, %d buffers, %d textures]",
		s.UsedBytes, s.Buffers, s.Textures)
}

// Device is the engine's view of a GPU device.
type Device struct {
	device hal.Device
	queue  hal.Queue

	// instance is set when the device was opened by OpenHeadless and is
	// therefore owned (and destroyed) by this Device.
	instance hal.Instance

	budget   uint64
	used     uint64
	buffers  int
	textures int
	closed   bool
}

// Open wraps an externally owned device and queue.
// Close does not destroy them.
func Open(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	return &Device{device: device, queue: queue}, nil
}

// OpenHeadless opens the noop HAL backend and returns a Device that owns it.
// Headless devices accept every allocation and upload without a GPU, which
// makes them suitable for tools, asset baking and tests.
func OpenHeadless() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("device: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("device: open adapter: %w", err)
	}
	slogger().Debug("headless device opened")
	return &Device{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
	}, nil
}

// SetBudget sets the allocation budget in bytes. Zero means unlimited.
func (d *Device) SetBudget(bytes uint64) { d.budget = bytes }

// HAL returns the underlying hal.Device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the underlying hal.Queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Owned reports whether Close destroys the underlying device.
func (d *Device) Owned() bool { return d.instance != nil }

// Stats returns the current memory statistics.
func (d *Device) Stats() Stats {
	return Stats{
		BudgetBytes: d.budget,
		UsedBytes:   d.used,
		Buffers:     d.buffers,
		Textures:    d.textures,
	}
}

// reserve accounts for an allocation of n bytes.
func (d *Device) reserve(n uint64) error {
	if d.closed {
		return ErrClosed
	}
	if d.budget > 0 && d.used+n > d.budget {
		return fmt.Errorf("%w: %d + %d > %d", ErrMemoryBudgetExceeded, d.used, n, d.budget)
	}
	d.used += n
	return nil
}

// unreserve returns n bytes to the budget.
func (d *Device) unreserve(n uint64) {
	if n > d.used {
		n = d.used
	}
	d.used -= n
}

// Close releases the device.
// Devices opened with OpenHeadless are destroyed together with their instance.
// Resources created from the device must be destroyed before Close.
// Close is idempotent.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.instance != nil {
		d.device.Destroy()
		d.instance.Destroy()
		d.instance = nil
		slogger().Debug("headless device closed")
	}
	d.device = nil
	d.queue = nil
}
