package math3d

import "math"

// quatUnitTolerance bounds |len² - 1| for a quaternion to count as normalized.
const quatUnitTolerance = 1e-4

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar part W.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the quaternion that performs no rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians around axis.
// The axis does not need to be unit length; a zero axis panics.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, c}
}

// QuatFromMat3 converts an orthonormal rotation matrix into a quaternion.
// The branch picks the largest of the four squared components so the
// square root never sees a value near zero.
func QuatFromMat3(m Mat3) Quat {
	// mCR: column C, row R
	m00, m01, m02 := m[0], m[1], m[2]
	m10, m11, m12 := m[3], m[4], m[5]
	m20, m21, m22 := m[6], m[7], m[8]

	if m22 <= 0 {
		dif10 := m11 - m00
		omm22 := 1 - m22
		if dif10 <= 0 {
			fourXSq := omm22 - dif10
			inv := 0.5 / math.Sqrt(fourXSq)
			return Quat{fourXSq * inv, (m01 + m10) * inv, (m02 + m20) * inv, (m12 - m21) * inv}
		}
		fourYSq := omm22 + dif10
		inv := 0.5 / math.Sqrt(fourYSq)
		return Quat{(m01 + m10) * inv, fourYSq * inv, (m12 + m21) * inv, (m20 - m02) * inv}
	}

	sum10 := m11 + m00
	opm22 := 1 + m22
	if sum10 <= 0 {
		fourZSq := opm22 - sum10
		inv := 0.5 / math.Sqrt(fourZSq)
		return Quat{(m02 + m20) * inv, (m12 + m21) * inv, fourZSq * inv, (m01 - m10) * inv}
	}
	fourWSq := opm22 + sum10
	inv := 0.5 / math.Sqrt(fourWSq)
	return Quat{(m12 - m21) * inv, (m20 - m02) * inv, (m01 - m10) * inv, fourWSq * inv}
}

// Mul returns the Hamilton product a * b, the rotation b followed by a.
//
//nolint:st1016 // a*b naming convention is clearer for quaternion products
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// Conjugate negates the vector part.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// LenSq returns the squared norm.
func (q Quat) LenSq() float64 {
	return q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
}

// Len returns the norm.
func (q Quat) Len() float64 {
	return math.Sqrt(q.LenSq())
}

// IsNormalized reports whether q is a unit quaternion within tolerance.
func (q Quat) IsNormalized() bool {
	return math.Abs(q.LenSq()-1) <= quatUnitTolerance
}

// Normalize returns q scaled to unit length. A zero quaternion panics.
func (q Quat) Normalize() Quat {
	inv := 1 / q.Len()
	if !finite(inv) {
		degenerate("Quat.Normalize", "cannot normalize %v", q)
	}
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Inverse returns the conjugate, which is the inverse of a unit quaternion.
// It panics with a *DegenerateError when q is not normalized.
func (q Quat) Inverse() Quat {
	if !q.IsNormalized() {
		degenerate("Quat.Inverse", "quaternion %v is not normalized", q)
	}
	return q.Conjugate()
}

// Rotate rotates v by q using the conjugation q * (v, 0) * q⁻¹.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := q.Mul(Quat{v.X, v.Y, v.Z, 0}).Mul(q.Inverse())
	return Vec3{p.X, p.Y, p.Z}
}

// ToMat4 returns the rotation matrix equivalent to q.
func (q Quat) ToMat4() Mat4 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	return Mat4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}
