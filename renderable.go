package g3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// PrimitiveType is the topology of a geometry primitive.
type PrimitiveType uint8

// Primitive topologies.
const (
	PrimitiveTriangles PrimitiveType = iota
	PrimitiveTriangleStrip
	PrimitiveLines
	PrimitiveLineStrip
	PrimitivePoints
)

// Box is an axis-aligned bounding box.
type Box struct {
	Center     mgl32.Vec3
	HalfExtent mgl32.Vec3
}

// BoxFromMinMax returns the box spanning lo to hi.
func BoxFromMinMax(lo, hi mgl32.Vec3) Box {
	return Box{
		Center:     lo.Add(hi).Mul(0.5),
		HalfExtent: hi.Sub(lo).Mul(0.5),
	}
}

// Min returns the minimum corner.
func (b Box) Min() mgl32.Vec3 { return b.Center.Sub(b.HalfExtent) }

// Max returns the maximum corner.
func (b Box) Max() mgl32.Vec3 { return b.Center.Add(b.HalfExtent) }

// IsEmpty reports whether the box has a non-positive extent on some axis.
func (b Box) IsEmpty() bool {
	return b.HalfExtent[0] <= 0 || b.HalfExtent[1] <= 0 || b.HalfExtent[2] <= 0
}

// MaxPriority is the largest renderable priority; larger values are clamped.
const MaxPriority = 7

// Primitive is one draw range of a renderable.
type Primitive struct {
	Type         PrimitiveType
	VertexBuffer VertexBuffer
	IndexBuffer  IndexBuffer
	Offset       uint32
	Count        uint32
	Material     MaterialInstance
}

type renderable struct {
	box            Box
	primitives     []Primitive
	castShadows    bool
	receiveShadows bool
	culling        bool
	priority       uint8
}

// RenderableManager owns the renderable components of an engine.
type RenderableManager struct {
	e          *Engine
	components map[Entity]*renderable
}

func (m *RenderableManager) init(e *Engine) {
	m.e = e
	m.components = make(map[Entity]*renderable)
}

type primitiveSpec struct {
	Primitive
	geometry bool
	fullSize bool
}

// RenderableBuilder configures a renderable component.
type RenderableBuilder struct {
	builderState
	prims          []primitiveSpec
	box            Box
	hasBox         bool
	castShadows    bool
	receiveShadows bool
	culling        bool
	priority       uint8
	err            error
}

// NewRenderableBuilder returns a builder for a renderable with count
// primitives.
func NewRenderableBuilder(count int) *RenderableBuilder {
	b := &RenderableBuilder{
		builderState:   builderState{kind: "renderable"},
		receiveShadows: true,
		culling:        true,
		priority:       4,
	}
	if count < 1 {
		b.err = fmt.Errorf("%w: %d primitives", ErrInvalidArgument, count)
		return b
	}
	b.prims = make([]primitiveSpec, count)
	return b
}

func (b *RenderableBuilder) prim(i int) *primitiveSpec {
	if i < 0 || i >= len(b.prims) {
		if b.err == nil {
			b.err = fmt.Errorf("%w: primitive %d of %d", ErrInvalidArgument, i, len(b.prims))
		}
		return nil
	}
	return &b.prims[i]
}

// BoundingBox sets the object-space bounds. Required unless culling is off.
func (b *RenderableBuilder) BoundingBox(box Box) *RenderableBuilder {
	b.mutate()
	b.box = box
	b.hasBox = true
	return b
}

// Geometry sets primitive i to draw every index of ib.
func (b *RenderableBuilder) Geometry(i int, typ PrimitiveType, vb VertexBuffer, ib IndexBuffer) *RenderableBuilder {
	b.mutate()
	if p := b.prim(i); p != nil {
		p.Type, p.VertexBuffer, p.IndexBuffer = typ, vb, ib
		p.geometry, p.fullSize = true, true
	}
	return b
}

// GeometryRange sets primitive i to draw count indices of ib from offset.
func (b *RenderableBuilder) GeometryRange(i int, typ PrimitiveType, vb VertexBuffer, ib IndexBuffer, offset, count uint32) *RenderableBuilder {
	b.mutate()
	if p := b.prim(i); p != nil {
		p.Type, p.VertexBuffer, p.IndexBuffer = typ, vb, ib
		p.Offset, p.Count = offset, count
		p.geometry, p.fullSize = true, false
	}
	return b
}

// Material binds a material instance to primitive i.
func (b *RenderableBuilder) Material(i int, mi MaterialInstance) *RenderableBuilder {
	b.mutate()
	if p := b.prim(i); p != nil {
		p.Material = mi
	}
	return b
}

// CastShadows enables shadow casting. Off by default.
func (b *RenderableBuilder) CastShadows(enable bool) *RenderableBuilder {
	b.mutate()
	b.castShadows = enable
	return b
}

// ReceiveShadows enables shadow receiving. On by default.
func (b *RenderableBuilder) ReceiveShadows(enable bool) *RenderableBuilder {
	b.mutate()
	b.receiveShadows = enable
	return b
}

// Priority sets the draw order priority, 0 (first) to MaxPriority.
func (b *RenderableBuilder) Priority(p uint8) *RenderableBuilder {
	b.mutate()
	b.priority = min(p, MaxPriority)
	return b
}

// Culling enables frustum culling, which needs a bounding box. On by default.
func (b *RenderableBuilder) Culling(enable bool) *RenderableBuilder {
	b.mutate()
	b.culling = enable
	return b
}

func (b *RenderableBuilder) resolvePrimitive(e *Engine, i int, p *primitiveSpec) error {
	if !p.geometry {
		return fmt.Errorf("%w: geometry of primitive %d", ErrMissingField, i)
	}
	if _, err := p.VertexBuffer.data(e); err != nil {
		return fmt.Errorf("primitive %d: %w", i, err)
	}
	ib, err := p.IndexBuffer.data(e)
	if err != nil {
		return fmt.Errorf("primitive %d: %w", i, err)
	}
	if p.fullSize {
		p.Offset, p.Count = 0, ib.count
	}
	if uint64(p.Offset)+uint64(p.Count) > uint64(ib.count) {
		return fmt.Errorf("%w: primitive %d range %d+%d exceeds %d indices",
			ErrInvalidArgument, i, p.Offset, p.Count, ib.count)
	}
	if !p.Material.IsZero() {
		if _, err := p.Material.data(e); err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	return nil
}

// Build attaches the renderable component to ent, replacing any existing one.
func (b *RenderableBuilder) Build(e *Engine, ent Entity) error {
	if err := b.consume(e); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}
	if err := e.entities.check(ent); err != nil {
		return err
	}
	if b.culling && !b.hasBox {
		return fmt.Errorf("%w: bounding box (required with culling)", ErrMissingField)
	}
	r := &renderable{
		box:            b.box,
		primitives:     make([]Primitive, len(b.prims)),
		castShadows:    b.castShadows,
		receiveShadows: b.receiveShadows,
		culling:        b.culling,
		priority:       b.priority,
	}
	for i := range b.prims {
		if err := b.resolvePrimitive(e, i, &b.prims[i]); err != nil {
			return err
		}
		r.primitives[i] = b.prims[i].Primitive
	}
	b.prims = nil
	e.renderables.components[ent] = r
	return nil
}

func (m *RenderableManager) get(ent Entity) (*renderable, error) {
	if err := m.e.entities.check(ent); err != nil {
		return nil, err
	}
	r, ok := m.components[ent]
	if !ok {
		return nil, fmt.Errorf("%w: %v has no renderable", ErrInvalidArgument, ent)
	}
	return r, nil
}

// HasComponent reports whether ent has a renderable component.
func (m *RenderableManager) HasComponent(ent Entity) bool {
	_, ok := m.components[ent]
	return ok && !m.e.destroyed
}

// Destroy removes the renderable component of ent, if any.
func (m *RenderableManager) Destroy(ent Entity) {
	delete(m.components, ent)
}

// PrimitiveCount returns the number of primitives of ent.
func (m *RenderableManager) PrimitiveCount(ent Entity) (int, error) {
	r, err := m.get(ent)
	if err != nil {
		return 0, err
	}
	return len(r.primitives), nil
}

// PrimitiveAt returns primitive i of ent.
func (m *RenderableManager) PrimitiveAt(ent Entity, i int) (Primitive, error) {
	r, err := m.get(ent)
	if err != nil {
		return Primitive{}, err
	}
	if i < 0 || i >= len(r.primitives) {
		return Primitive{}, fmt.Errorf("%w: primitive %d of %d", ErrInvalidArgument, i, len(r.primitives))
	}
	return r.primitives[i], nil
}

// SetMaterialAt binds mi to primitive i of ent.
func (m *RenderableManager) SetMaterialAt(ent Entity, i int, mi MaterialInstance) error {
	r, err := m.get(ent)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(r.primitives) {
		return fmt.Errorf("%w: primitive %d of %d", ErrInvalidArgument, i, len(r.primitives))
	}
	if _, err := mi.data(m.e); err != nil {
		return err
	}
	r.primitives[i].Material = mi
	return nil
}

// BoundingBox returns the bounds of ent.
func (m *RenderableManager) BoundingBox(ent Entity) (Box, error) {
	r, err := m.get(ent)
	if err != nil {
		return Box{}, err
	}
	return r.box, nil
}

// SetBoundingBox changes the bounds of ent.
func (m *RenderableManager) SetBoundingBox(ent Entity, box Box) error {
	r, err := m.get(ent)
	if err != nil {
		return err
	}
	r.box = box
	return nil
}

// CastShadows reports whether ent casts shadows.
func (m *RenderableManager) CastShadows(ent Entity) (bool, error) {
	r, err := m.get(ent)
	if err != nil {
		return false, err
	}
	return r.castShadows, nil
}

// SetCastShadows changes shadow casting of ent.
func (m *RenderableManager) SetCastShadows(ent Entity, enable bool) error {
	r, err := m.get(ent)
	if err != nil {
		return err
	}
	r.castShadows = enable
	return nil
}

// ReceiveShadows reports whether ent receives shadows.
func (m *RenderableManager) ReceiveShadows(ent Entity) (bool, error) {
	r, err := m.get(ent)
	if err != nil {
		return false, err
	}
	return r.receiveShadows, nil
}

// Priority returns the draw order priority of ent.
func (m *RenderableManager) Priority(ent Entity) (uint8, error) {
	r, err := m.get(ent)
	if err != nil {
		return 0, err
	}
	return r.priority, nil
}
