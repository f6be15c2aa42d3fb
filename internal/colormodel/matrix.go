package colormodel

// Mat3 is a row-major 3x3 matrix of double-precision components, used for
// the RGB<->XYZ transforms a Space derives from its primaries and white
// point.
type Mat3 [9]float64

// Mat3f is the float32 counterpart, cached alongside Mat3 so hot-path
// conversions operating on float32 buffers never need to narrow a double
// matrix per pixel.
type Mat3f [9]float32

// MulVec3 computes m * v for a row-major matrix and column vector.
func (m Mat3) MulVec3(v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// MulVec3 computes m * v in single precision.
func (m Mat3f) MulVec3(v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Mul computes the matrix product a * b.
func (a Mat3) Mul(b Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// Invert returns the inverse of m via the adjugate/determinant formula,
// which is numerically adequate for the well-conditioned 3x3 primary
// matrices this package builds (determinants bounded well away from 0).
func (m Mat3) Invert() Mat3 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	det := a*A + b*B + c*C
	if det == 0 {
		return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	invDet := 1.0 / det

	D := -(b*i - c*h)
	E := a*i - c*g
	F := -(a*h - b*g)
	G := b*f - c*e
	H := -(a*f - c*d)
	I := a*e - b*d

	return Mat3{
		A * invDet, D * invDet, G * invDet,
		B * invDet, E * invDet, H * invDet,
		C * invDet, F * invDet, I * invDet,
	}
}

// ToFloat32 narrows a double matrix to single precision.
func (m Mat3) ToFloat32() Mat3f {
	var out Mat3f
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Identity3 is the 3x3 identity matrix.
var Identity3 = Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
