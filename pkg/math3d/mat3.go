package math3d

// Mat3 is a 3x3 matrix stored in column-major order, same as Mat4.
//
// | 0 3 6 |
// | 1 4 7 |
// | 2 5 8 |
type Mat3 [9]float64

// Mat3FromCols builds a matrix whose columns are x, y and z.
func Mat3FromCols(x, y, z Vec3) Mat3 {
	return Mat3{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 {
	return Vec3{m[i*3], m[i*3+1], m[i*3+2]}
}

// Mul multiplies two matrices: a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat3) Mul(b Mat3) Mat3 {
	var m Mat3
	for col := range 3 {
		for row := range 3 {
			var sum float64
			for k := range 3 {
				sum += a[row+k*3] * b[k+col*3]
			}
			m[row+col*3] = sum
		}
	}
	return m
}

// MulVec3 returns m * v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}

// MulScalar returns m with every element multiplied by s.
func (m Mat3) MulScalar(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Determinant returns the determinant of the matrix.
func (m Mat3) Determinant() float64 {
	return m.Col(0).Dot(m.Col(1).Cross(m.Col(2)))
}

// NormalMatrix returns the inverse transpose of m, which carries surface
// normals through the transform m applies to positions.
// It panics with a *DegenerateError when m is singular.
func (m Mat3) NormalMatrix() Mat3 {
	n, ok := m.TryNormalMatrix()
	if !ok {
		degenerate("Mat3.NormalMatrix", "singular matrix %v", m)
	}
	return n
}

// TryNormalMatrix is NormalMatrix reporting ok=false for a singular m
// instead of panicking.
func (m Mat3) TryNormalMatrix() (Mat3, bool) {
	a, b, c := m.Col(0), m.Col(1), m.Col(2)
	det := a.Dot(b.Cross(c))
	if det == 0 || !finite(1/det) {
		return Mat3{}, false
	}
	return Mat3FromCols(b.Cross(c), c.Cross(a), a.Cross(b)).MulScalar(1 / det), true
}
