// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package icosphere

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d"
)

// ErrNoTangents is returned by Upload for meshes without tangent frames.
var ErrNoTangents = errors.New("icosphere: mesh has no tangents")

// Buffers are the engine resources holding an uploaded mesh.
type Buffers struct {
	Vertices g3d.VertexBuffer
	Indices  g3d.IndexBuffer
}

// Destroy destroys both buffers.
func (b Buffers) Destroy(e *g3d.Engine) error {
	return errors.Join(e.DestroyVertexBuffer(b.Vertices), e.DestroyIndexBuffer(b.Indices))
}

// Bounds returns the bounding box of a unit sphere.
func (m *Mesh) Bounds() g3d.Box {
	return g3d.Box{HalfExtent: mgl32.Vec3{1, 1, 1}}
}

// Upload creates a vertex buffer with positions (FLOAT3, buffer 0) and
// normalized tangent quaternions (SHORT4, buffer 1), and a UINT index
// buffer. On failure nothing is left allocated.
func (m *Mesh) Upload(e *g3d.Engine) (Buffers, error) {
	nv := m.VertexCount()
	if nv == 0 || m.TriangleCount() == 0 {
		return Buffers{}, fmt.Errorf("icosphere: %w", g3d.ErrEmptyBuffer)
	}
	if len(m.Tangents) != 4*nv {
		return Buffers{}, ErrNoTangents
	}

	vb, err := g3d.NewVertexBufferBuilder().
		VertexCount(uint32(nv)).
		BufferCount(2).
		Attribute(g3d.AttributePosition, 0, g3d.AttributeFloat3, 0, 12).
		Attribute(g3d.AttributeTangents, 1, g3d.AttributeShort4, 0, 8).
		Normalized(g3d.AttributeTangents, true).
		Build(e)
	if err != nil {
		return Buffers{}, fmt.Errorf("icosphere: %w", err)
	}
	ib, err := g3d.NewIndexBufferBuilder().
		IndexCount(uint32(len(m.Triangles))).
		BufferType(g3d.IndexUInt).
		Build(e)
	if err != nil {
		_ = e.DestroyVertexBuffer(vb)
		return Buffers{}, fmt.Errorf("icosphere: %w", err)
	}
	out := Buffers{Vertices: vb, Indices: ib}

	if err := out.fill(e, m); err != nil {
		_ = out.Destroy(e)
		return Buffers{}, fmt.Errorf("icosphere: %w", err)
	}
	g3d.Logger().Debug("icosphere: mesh uploaded",
		"vertices", nv, "triangles", m.TriangleCount())
	return out, nil
}

func (b Buffers) fill(e *g3d.Engine, m *Mesh) error {
	positions, err := e.NewBuffer(g3d.Float32Bytes(m.Vertices...))
	if err != nil {
		return err
	}
	if err := b.Vertices.SetBufferAt(e, 0, positions, 0); err != nil {
		return err
	}
	tangents, err := e.NewBuffer(g3d.Int16Bytes(m.Tangents...))
	if err != nil {
		return err
	}
	if err := b.Vertices.SetBufferAt(e, 1, tangents, 0); err != nil {
		return err
	}
	indices, err := e.NewBuffer(g3d.Uint32Bytes(m.Triangles...))
	if err != nil {
		return err
	}
	return b.Indices.SetBuffer(e, indices, 0)
}
