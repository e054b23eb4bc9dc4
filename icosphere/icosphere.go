// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package icosphere generates unit spheres by repeatedly subdividing an
// icosahedron, together with per-vertex tangent frames packed as
// quaternions, and uploads them as g3d vertex and index buffers.
//
// Subdivision does not share edge midpoints between neighboring
// triangles: every round turns V vertices and F faces into V+3F vertices
// and 4F faces. [Generator.GenerateShared] builds the welded variant.
package icosphere

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/geom"
)

// MaxRounds is the largest subdivision count accepted by Generate.
const MaxRounds = 8

// Base icosahedron coordinates: (0, ±x, ±z) and its cyclic permutations,
// normalized so that every vertex lies on the unit sphere.
const (
	baseX = 0.525731112119133606
	baseZ = 0.850650808352039932
)

var baseVertices = [12 * 3]float32{
	-baseX, 0, baseZ, baseX, 0, baseZ, -baseX, 0, -baseZ, baseX, 0, -baseZ,
	0, baseZ, baseX, 0, baseZ, -baseX, 0, -baseZ, baseX, 0, -baseZ, -baseX,
	baseZ, baseX, 0, -baseZ, baseX, 0, baseZ, -baseX, 0, -baseZ, -baseX, 0,
}

var baseTriangles = [20 * 3]uint32{
	1, 4, 0, 4, 9, 0, 4, 5, 9, 8, 5, 4, 1, 8, 4,
	1, 10, 8, 10, 3, 8, 8, 3, 5, 3, 2, 5, 3, 7, 2,
	3, 10, 7, 10, 6, 7, 6, 11, 7, 6, 0, 11, 6, 1, 0,
	10, 1, 6, 11, 0, 9, 2, 11, 9, 5, 2, 9, 11, 2, 7,
}

// Mesh is an indexed triangle mesh on the unit sphere.
type Mesh struct {
	// Vertices holds x, y, z per vertex. Each vertex doubles as its normal.
	Vertices []float32
	// Triangles holds three vertex indices per face.
	Triangles []uint32
	// Tangents holds a packed tangent-frame quaternion (x, y, z, w) per
	// vertex, or nil before the tangent pass.
	Tangents []int16
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int { return len(m.Triangles) / 3 }

func (m *Mesh) vertex(i uint32) mgl32.Vec3 {
	return mgl32.Vec3{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

// Generator builds icospheres with the geometric operations it was
// created with.
type Generator struct {
	ops geom.Ops
}

// New returns a generator using ops, or geom.Default() if ops is nil.
func New(ops geom.Ops) *Generator {
	if ops == nil {
		ops = geom.Default()
	}
	return &Generator{ops: ops}
}

// Base returns a copy of the icosahedron: 12 vertices and 20 faces.
func (g *Generator) Base() *Mesh {
	return &Mesh{
		Vertices:  append([]float32(nil), baseVertices[:]...),
		Triangles: append([]uint32(nil), baseTriangles[:]...),
	}
}

// Subdivide returns a new mesh in which every face of m is split into four.
// The three midpoints of each face are appended as new vertices, so edges
// shared by two faces get two coincident midpoints. m is not modified and
// the result has no tangents.
func (g *Generator) Subdivide(m *Mesh) *Mesh {
	nv := uint32(m.VertexCount())
	nt := m.TriangleCount()
	out := &Mesh{
		Vertices:  make([]float32, 0, len(m.Vertices)+9*nt),
		Triangles: make([]uint32, 0, 12*nt),
	}
	out.Vertices = append(out.Vertices, m.Vertices...)

	next := nv
	for f := range nt {
		i0, i1, i2 := m.Triangles[3*f], m.Triangles[3*f+1], m.Triangles[3*f+2]
		v0, v1, v2 := m.vertex(i0), m.vertex(i1), m.vertex(i2)
		for _, mid := range [3]mgl32.Vec3{
			g.ops.Normalize(v0.Add(v1)),
			g.ops.Normalize(v1.Add(v2)),
			g.ops.Normalize(v2.Add(v0)),
		} {
			out.Vertices = append(out.Vertices, mid[0], mid[1], mid[2])
		}
		i3, i4, i5 := next, next+1, next+2
		next += 3
		out.Triangles = append(out.Triangles,
			i0, i3, i5,
			i3, i1, i4,
			i5, i3, i4,
			i2, i5, i4,
		)
	}
	return out
}

// up is the reference axis of the tangent frames.
var up = mgl32.Vec3{0, 1, 0}

// fallbackAxis replaces up for normals parallel to it.
var fallbackAxis = mgl32.Vec3{1, 0, 0}

// parallelEpsilon is the length below which n × up is considered zero.
const parallelEpsilon = 1e-6

// TangentFrames computes a packed tangent frame for each vertex, taking the
// vertex itself as the normal n: b = normalize(n × up), t = b × n. At the
// poles, where n is parallel to up, the X axis is used instead of up.
func (g *Generator) TangentFrames(vertices []float32) []int16 {
	n := len(vertices) / 3
	out := make([]int16, 0, 4*n)
	for i := range n {
		nrm := mgl32.Vec3{vertices[3*i], vertices[3*i+1], vertices[3*i+2]}
		b := g.ops.Cross(nrm, up)
		if b.Len() < parallelEpsilon {
			b = g.ops.Cross(nrm, fallbackAxis)
		}
		b = g.ops.Normalize(b)
		t := g.ops.Cross(b, nrm)
		q := geom.PackQuat(g.ops, g.ops.QuatFromBasis(t, b, nrm))
		out = append(out, q[:]...)
	}
	return out
}

func checkRounds(n int) {
	if n < 0 || n > MaxRounds {
		panic(fmt.Sprintf("icosphere: %d subdivision rounds, want 0 to %d", n, MaxRounds))
	}
}

// Generate subdivides the icosahedron n times and computes tangent frames.
// The result has 20·4ⁿ faces and 12 + 3·Σ 20·4ᵏ (k < n) vertices.
// Generate panics if n is outside [0, MaxRounds].
func (g *Generator) Generate(n int) *Mesh {
	checkRounds(n)
	m := g.Base()
	for range n {
		m = g.Subdivide(m)
	}
	m.Tangents = g.TangentFrames(m.Vertices)
	return m
}

type edge struct{ a, b uint32 }

func makeEdge(a, b uint32) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// subdivideShared is Subdivide with one midpoint per edge.
func (g *Generator) subdivideShared(m *Mesh) *Mesh {
	nt := m.TriangleCount()
	out := &Mesh{
		Vertices:  append(make([]float32, 0, len(m.Vertices)+9*nt/2), m.Vertices...),
		Triangles: make([]uint32, 0, 12*nt),
	}
	mids := make(map[edge]uint32, 3*nt/2)
	midpoint := func(a, b uint32) uint32 {
		e := makeEdge(a, b)
		if i, ok := mids[e]; ok {
			return i
		}
		i := uint32(len(out.Vertices) / 3)
		v := g.ops.Normalize(m.vertex(a).Add(m.vertex(b)))
		out.Vertices = append(out.Vertices, v[0], v[1], v[2])
		mids[e] = i
		return i
	}
	for f := range nt {
		i0, i1, i2 := m.Triangles[3*f], m.Triangles[3*f+1], m.Triangles[3*f+2]
		i3, i4, i5 := midpoint(i0, i1), midpoint(i1, i2), midpoint(i2, i0)
		out.Triangles = append(out.Triangles,
			i0, i3, i5,
			i3, i1, i4,
			i5, i3, i4,
			i2, i5, i4,
		)
	}
	return out
}

// GenerateShared is Generate with welded edges: neighboring faces share
// their edge midpoints, giving 10·4ⁿ + 2 vertices. Face order and winding
// match Generate.
func (g *Generator) GenerateShared(n int) *Mesh {
	checkRounds(n)
	m := g.Base()
	for range n {
		m = g.subdivideShared(m)
	}
	m.Tangents = g.TangentFrames(m.Vertices)
	return m
}
