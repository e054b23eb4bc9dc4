package g3d

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTriangle(t *testing.T, e *Engine) (VertexBuffer, IndexBuffer) {
	t.Helper()
	vb, err := NewVertexBufferBuilder().VertexCount(3).BufferCount(1).
		Attribute(AttributePosition, 0, AttributeFloat3, 0, 0).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	if err := vb.SetBufferAt(e, 0, Float32Bytes(0, 0, 0, 1, 0, 0, 0, 1, 0), 0); err != nil {
		t.Fatal(err)
	}
	ib, err := NewIndexBufferBuilder().IndexCount(3).BufferType(IndexUShort).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	if err := ib.SetBuffer(e, Uint16Bytes(0, 1, 2), 0); err != nil {
		t.Fatal(err)
	}
	return vb, ib
}

func TestEntityManager(t *testing.T) {
	e := newTestEngine(t)
	em := e.Entities()

	a, err := em.Create()
	if err != nil {
		t.Fatal(err)
	}
	batch, err := em.CreateN(3)
	if err != nil || len(batch) != 3 {
		t.Fatalf("CreateN(3) = %v, %v", batch, err)
	}
	if !em.Alive(a) || em.Alive(Entity{}) {
		t.Error("Alive() mismatch")
	}
	if err := e.DestroyEntity(a); err != nil {
		t.Fatal(err)
	}
	if em.Alive(a) {
		t.Error("destroyed entity still alive")
	}
	if err := e.DestroyEntity(a); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("second DestroyEntity() error = %v, want ErrStaleHandle", err)
	}
	if _, err := em.CreateN(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("CreateN(-1) error = %v, want ErrInvalidArgument", err)
	}
	if e.Stats().Entities != 3 {
		t.Errorf("Entities = %d, want 3", e.Stats().Entities)
	}
}

func TestRenderableBuild(t *testing.T) {
	e := newTestEngine(t)
	vb, ib := newTriangle(t, e)
	box := Box{HalfExtent: mgl32.Vec3{1, 1, 1}}

	tests := []struct {
		name    string
		b       *RenderableBuilder
		wantErr error
	}{
		{"full", NewRenderableBuilder(1).BoundingBox(box).Geometry(0, PrimitiveTriangles, vb, ib), nil},
		{"range", NewRenderableBuilder(1).BoundingBox(box).GeometryRange(0, PrimitiveLines, vb, ib, 1, 2), nil},
		{"no culling no box", NewRenderableBuilder(1).Culling(false).Geometry(0, PrimitiveTriangles, vb, ib), nil},
		{"missing box", NewRenderableBuilder(1).Geometry(0, PrimitiveTriangles, vb, ib), ErrMissingField},
		{"missing geometry", NewRenderableBuilder(2).BoundingBox(box).Geometry(0, PrimitiveTriangles, vb, ib), ErrMissingField},
		{"range too long", NewRenderableBuilder(1).BoundingBox(box).GeometryRange(0, PrimitiveTriangles, vb, ib, 2, 3), ErrInvalidArgument},
		{"bad index", NewRenderableBuilder(1).BoundingBox(box).Geometry(1, PrimitiveTriangles, vb, ib), ErrInvalidArgument},
		{"zero count", NewRenderableBuilder(0), ErrInvalidArgument},
		{"zero vertex buffer", NewRenderableBuilder(1).BoundingBox(box).Geometry(0, PrimitiveTriangles, VertexBuffer{}, ib), ErrInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent, err := e.Entities().Create()
			if err != nil {
				t.Fatal(err)
			}
			err = tt.b.Build(e, ent)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
				}
				if e.Renderables().HasComponent(ent) {
					t.Error("failed Build() attached a component")
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !e.Renderables().HasComponent(ent) {
				t.Error("HasComponent() = false after Build")
			}
		})
	}
}

func TestRenderableManager(t *testing.T) {
	e := newTestEngine(t)
	vb, ib := newTriangle(t, e)
	rm := e.Renderables()

	d, err := e.NewBuffer([]byte(litPackage))
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewMaterialBuilder().Package(d).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	mi, _ := m.CreateInstance(e)

	ent, _ := e.Entities().Create()
	box := BoxFromMinMax(mgl32.Vec3{-1, -2, -3}, mgl32.Vec3{1, 2, 3})
	err = NewRenderableBuilder(1).
		BoundingBox(box).
		Geometry(0, PrimitiveTriangles, vb, ib).
		Material(0, mi).
		CastShadows(true).
		Priority(200).
		Build(e, ent)
	if err != nil {
		t.Fatal(err)
	}

	if n, _ := rm.PrimitiveCount(ent); n != 1 {
		t.Errorf("PrimitiveCount() = %d, want 1", n)
	}
	p, err := rm.PrimitiveAt(ent, 0)
	if err != nil || p.Count != 3 || p.Offset != 0 || p.Material != mi {
		t.Errorf("PrimitiveAt(0) = %+v, %v", p, err)
	}
	if got, _ := rm.BoundingBox(ent); got.HalfExtent != (mgl32.Vec3{1, 2, 3}) || got.Max() != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("BoundingBox() = %+v", got)
	}
	if prio, _ := rm.Priority(ent); prio != MaxPriority {
		t.Errorf("Priority() = %d, want %d", prio, MaxPriority)
	}
	if cast, _ := rm.CastShadows(ent); !cast {
		t.Error("CastShadows() = false")
	}
	if recv, _ := rm.ReceiveShadows(ent); !recv {
		t.Error("ReceiveShadows() should default to true")
	}
	if err := rm.SetCastShadows(ent, false); err != nil {
		t.Fatal(err)
	}
	if err := rm.SetMaterialAt(ent, 0, MaterialInstance{}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("SetMaterialAt(zero) error = %v, want ErrInvalidHandle", err)
	}

	plain, _ := e.Entities().Create()
	if _, err := rm.PrimitiveCount(plain); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PrimitiveCount(no component) error = %v, want ErrInvalidArgument", err)
	}

	if err := e.DestroyEntity(ent); err != nil {
		t.Fatal(err)
	}
	if rm.HasComponent(ent) {
		t.Error("component survived DestroyEntity")
	}
	if e.Stats().Renderables != 0 {
		t.Errorf("Renderables = %d, want 0", e.Stats().Renderables)
	}
}

func TestBox(t *testing.T) {
	b := BoxFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 4, 6})
	if b.Center != (mgl32.Vec3{1, 2, 3}) || b.Min() != (mgl32.Vec3{}) {
		t.Errorf("box = %+v", b)
	}
	if b.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
	if !(Box{}).IsEmpty() {
		t.Error("zero box should be empty")
	}
}
