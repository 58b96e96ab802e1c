package proj

import (
	"math"

	"github.com/golang/geo/r3"
)

// Quaternion is a rotation in 3D space. Only unit quaternions are produced by
// this package.
type Quaternion struct {
	W, X, Y, Z float64
}

var (
	axisY = r3.Vector{Y: 1}
	axisZ = r3.Vector{Z: 1}
)

// AxisAngle returns the rotation by angle radians around axis.
func AxisAngle(axis r3.Vector, angle float64) Quaternion {
	a := axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quaternion{W: c, X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

// Mul returns the Hamilton product q*p: rotating by p first, then by q.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		W: q.W*p.W - q.X*p.X - q.Y*p.Y - q.Z*p.Z,
		X: q.W*p.X + q.X*p.W + q.Y*p.Z - q.Z*p.Y,
		Y: q.W*p.Y - q.X*p.Z + q.Y*p.W + q.Z*p.X,
		Z: q.W*p.Z + q.X*p.Y - q.Y*p.X + q.Z*p.W,
	}
}

// Conjugate is the inverse rotation of a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Matrix returns the equivalent rotation matrix.
func (q Quaternion) Matrix() Matrix {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	return Matrix{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy)},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx)},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy)},
	}
}

// Rotate applies q to v.
func (q Quaternion) Rotate(v r3.Vector) r3.Vector {
	m := q.Matrix()
	return m.Apply(v)
}

// Matrix is a 3x3 row-major rotation matrix.
type Matrix [3][3]float64

// Apply returns m*v.
func (m *Matrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// ViewRotation turns world vectors so that the point (centerLon, centerLat)
// lands on the +X axis with north along +Z.
func ViewRotation(centerLon, centerLat float64) Quaternion {
	return AxisAngle(axisY, centerLat).Mul(AxisAngle(axisZ, -centerLon))
}
