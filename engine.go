package g3d

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/internal/device"
	"github.com/gogpu/g3d/internal/parallel"
)

// engineSerial numbers engines so that handles and descriptors can be
// matched to the engine that created them.
var engineSerial atomic.Uint64

// Engine owns a device, a scratch heap and every resource built against it.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	serial      uint64
	dev         *device.Device
	heap        *heap
	assets      *AssetTable
	compressed  map[TextureFormat]bool
	labelPrefix string
	labelSeq    int
	descriptors map[*BufferDescriptor]struct{}
	mipWorkers  int
	mipPool     *parallel.Pool

	vertexBuffers  arena[vertexBufferData]
	indexBuffers   arena[indexBufferData]
	textures       arena[textureData]
	indirectLights arena[indirectLightData]
	skyboxes       arena[skyboxData]
	materials      arena[materialData]
	instances      arena[materialInstanceData]

	entities    EntityManager
	renderables RenderableManager
	lights      LightManager

	destroyed bool
}

// NewEngine creates an engine on an existing device and queue.
// The caller keeps ownership of both; Destroy does not destroy them.
func NewEngine(dev hal.Device, queue hal.Queue, opts ...EngineOption) (*Engine, error) {
	d, err := device.Open(dev, queue)
	if err != nil {
		return nil, fmt.Errorf("g3d: %w", err)
	}
	return newEngine(d, opts), nil
}

// NewHeadlessEngine creates an engine on the noop HAL backend. Resources are
// validated and accounted for like on a real device, but nothing reaches a
// GPU. Useful for tools, asset pipelines and tests.
func NewHeadlessEngine(opts ...EngineOption) (*Engine, error) {
	d, err := device.OpenHeadless()
	if err != nil {
		return nil, fmt.Errorf("g3d: %w", err)
	}
	return newEngine(d, opts), nil
}

// NewEngineFromProvider creates an engine sharing the device of a host
// application (for example a gogpu window).
//
// The provider should implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. Otherwise ErrProviderNotHAL is returned.
func NewEngineFromProvider(provider gpucontext.DeviceProvider, opts ...EngineOption) (*Engine, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	return NewEngine(dev, queue, opts...)
}

func newEngine(d *device.Device, opts []EngineOption) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d.SetBudget(o.budget)

	e := &Engine{
		serial:      engineSerial.Add(1),
		dev:         d,
		heap:        newHeap(o.heapSize),
		assets:      o.assets,
		compressed:  make(map[TextureFormat]bool),
		labelPrefix: o.labelPrefix,
		descriptors: make(map[*BufferDescriptor]struct{}),
		mipWorkers:  o.mipWorkers,
	}
	e.resetArenas()
	if e.assets == nil {
		e.assets = NewAssetTable()
	}
	for _, f := range o.compressed {
		if f.IsCompressed() {
			e.compressed[f] = true
		}
	}
	e.entities.init(e)
	e.renderables.init(e)
	e.lights.init(e)

	Logger().Info("g3d: engine created",
		"serial", e.serial, "headless", d.Owned(), "heap", len(e.heap.mem))
	return e
}

func (e *Engine) resetArenas() {
	e.vertexBuffers = newArena[vertexBufferData]("vertex buffer")
	e.indexBuffers = newArena[indexBufferData]("index buffer")
	e.textures = newArena[textureData]("texture")
	e.indirectLights = newArena[indirectLightData]("indirect light")
	e.skyboxes = newArena[skyboxData]("skybox")
	e.materials = newArena[materialData]("material")
	e.instances = newArena[materialInstanceData]("material instance")
}

func (e *Engine) checkAlive() error {
	if e.destroyed {
		return ErrEngineDestroyed
	}
	return nil
}

// runJobs runs CPU jobs, in parallel when the engine allows it. The pool is
// started on first use.
func (e *Engine) runJobs(jobs []func()) {
	if len(jobs) < 2 || e.mipWorkers == 1 {
		for _, job := range jobs {
			job()
		}
		return
	}
	if e.mipPool == nil {
		e.mipPool = parallel.NewPool(e.mipWorkers)
	}
	e.mipPool.Run(jobs)
}

// label returns a debug label for a device object.
func (e *Engine) label(kind string) string {
	e.labelSeq++
	return fmt.Sprintf("%s/%s#%d", e.labelPrefix, kind, e.labelSeq)
}

// IsTextureFormatSupported reports whether textures of format f can be
// built on this engine.
func (e *Engine) IsTextureFormatSupported(f TextureFormat) bool {
	info, ok := f.info()
	if !ok {
		return false
	}
	if info.compressed {
		return e.compressed[f]
	}
	return info.gpu != gputypes.TextureFormatUndefined
}

// Entities returns the engine's entity manager.
func (e *Engine) Entities() *EntityManager { return &e.entities }

// Renderables returns the engine's renderable component manager.
func (e *Engine) Renderables() *RenderableManager { return &e.renderables }

// Lights returns the engine's light component manager.
func (e *Engine) Lights() *LightManager { return &e.lights }

// Stats describes the resources held by an engine.
type Stats struct {
	Heap        HeapStats
	Descriptors int

	VertexBuffers     int
	IndexBuffers      int
	Textures          int
	IndirectLights    int
	Skyboxes          int
	Materials         int
	MaterialInstances int
	Entities          int
	Renderables       int
	Lights            int

	DeviceBytes    uint64
	DeviceBuffers  int
	DeviceTextures int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Engine[%d vb, %d ib, %d tex, %d entities, heap %d/%d, device %d bytes]",
		s.VertexBuffers, s.IndexBuffers, s.Textures, s.Entities,
		s.Heap.Used, s.Heap.Size, s.DeviceBytes)
}

// Stats returns current resource counts.
func (e *Engine) Stats() Stats {
	ds := e.dev.Stats()
	return Stats{
		Heap:              e.heap.stats(),
		Descriptors:       len(e.descriptors),
		VertexBuffers:     e.vertexBuffers.len(),
		IndexBuffers:      e.indexBuffers.len(),
		Textures:          e.textures.len(),
		IndirectLights:    e.indirectLights.len(),
		Skyboxes:          e.skyboxes.len(),
		Materials:         e.materials.len(),
		MaterialInstances: e.instances.len(),
		Entities:          e.entities.count(),
		Renderables:       len(e.renderables.components),
		Lights:            len(e.lights.components),
		DeviceBytes:       ds.UsedBytes,
		DeviceBuffers:     ds.Buffers,
		DeviceTextures:    ds.Textures,
	}
}

// Destroy destroys every live resource, releases unconsumed descriptors
// (running their callbacks) and closes the device if the engine owns it.
// Destroy is idempotent.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	s := e.Stats()

	e.renderables.components = nil
	e.lights.components = nil
	e.entities.reset()
	e.indirectLights.each(e.serial, func(_ handle, il *indirectLightData) {
		il.destroy()
	})
	e.textures.each(e.serial, func(_ handle, t *textureData) {
		t.destroy()
	})
	e.indexBuffers.each(e.serial, func(_ handle, ib *indexBufferData) {
		ib.buffer.Destroy()
	})
	e.vertexBuffers.each(e.serial, func(_ handle, vb *vertexBufferData) {
		vb.destroy()
	})
	for d := range e.descriptors {
		d.release()
	}
	e.resetArenas()

	if e.mipPool != nil {
		e.mipPool.Close()
		e.mipPool = nil
	}
	e.destroyed = true
	e.dev.Close()
	Logger().Info("g3d: engine destroyed", "serial", e.serial, "stats", s.String())
}
