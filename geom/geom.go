// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the vector and quaternion operations used by mesh
// generators. Generators take an [Ops] value instead of calling the math
// libraries directly, so the operations can be replaced or instrumented.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ops is the set of geometric operations needed to build and orient
// meshes.
type Ops interface {
	// Cross returns a × b.
	Cross(a, b mgl32.Vec3) mgl32.Vec3

	// Normalize returns v scaled to unit length. The zero vector is
	// returned unchanged.
	Normalize(v mgl32.Vec3) mgl32.Vec3

	// QuatFromBasis returns the rotation taking the X, Y and Z axes to
	// t, b and n. The basis must be orthonormal. The result has w >= 0.
	QuatFromBasis(t, b, n mgl32.Vec3) mgl32.Quat

	// PackSnorm16 encodes x in [-1, 1] as a signed normalized 16-bit
	// integer. Values outside the range are clamped.
	PackSnorm16(x float32) int16
}

type defaultOps struct{}

// Default returns the standard implementation of Ops.
func Default() Ops { return defaultOps{} }

func (defaultOps) Cross(a, b mgl32.Vec3) mgl32.Vec3 { return a.Cross(b) }

func (defaultOps) Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := math32.Sqrt(v.Dot(v))
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

func (defaultOps) QuatFromBasis(t, b, n mgl32.Vec3) mgl32.Quat {
	m := mgl32.Mat3FromCols(t, b, n)
	q := mgl32.Mat4ToQuat(m.Mat4()).Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return q
}

func (defaultOps) PackSnorm16(x float32) int16 {
	return PackSnorm16(x)
}

// PackSnorm16 returns round(clamp(x, -1, 1) * 32767).
func PackSnorm16(x float32) int16 {
	x = math32.Max(-1, math32.Min(1, x))
	return int16(math32.Round(x * 32767))
}

// PackQuat packs the components of q in x, y, z, w order.
func PackQuat(ops Ops, q mgl32.Quat) [4]int16 {
	return [4]int16{
		ops.PackSnorm16(q.V[0]),
		ops.PackSnorm16(q.V[1]),
		ops.PackSnorm16(q.V[2]),
		ops.PackSnorm16(q.W),
	}
}
