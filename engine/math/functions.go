package math

import (
	m "math"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	K_PI_2 float32 = 2.0 * K_PI
	/** @brief An approximate representation of PI divided by 2. */
	K_HALF_PI float32 = 0.5 * K_PI
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func Sin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func Cos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func Sqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}

func Abs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

// ------------------------------------------
// Vector 2
// ------------------------------------------

/**
 * @brief Creates and returns a new 2-element vector using the supplied values.
 */
func NewVec2(x, y float32) Vec2 {
	return Vec2{
		X: x,
		Y: y,
	}
}

/**
 *  Adds other to v and returns a copy of the result.
 */
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

/**
 * Subtracts other from v and returns a copy of the result.
 */
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

/**
 *  Multiplies v by other and returns a copy of the result.
 */
func (v Vec2) Mul(other Vec2) Vec2 {
	return Vec2{v.X * other.X, v.Y * other.Y}
}

func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

/**
 * Returns the squared length of the provided vector.
 */
func (v Vec2) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Length() float32 {
	return Sqrt(v.LengthSquared())
}

/**
 * Returns a unit-length copy of v. The zero vector is returned unchanged.
 */
func (v Vec2) Normalize() Vec2 {
	length := v.Length()
	if length < K_FLOAT_EPSILON {
		return v
	}
	return Vec2{v.X / length, v.Y / length}
}

// Perp rotates v by 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{-v.Y, v.X}
}

/**
 * @brief Compares all elements of v and other and ensures the difference
 * is less than tolerance.
 */
func (v Vec2) Compare(other Vec2, tolerance float32) bool {
	if Abs(v.X-other.X) > tolerance {
		return false
	}
	if Abs(v.Y-other.Y) > tolerance {
		return false
	}
	return true
}

// ------------------------------------------
// Mat4
// ------------------------------------------

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 */
func NewMat4Identity() Mat4 {
	out_matrix := Mat4{}
	out_matrix.Data[0] = 1.0
	out_matrix.Data[5] = 1.0
	out_matrix.Data[10] = 1.0
	out_matrix.Data[15] = 1.0
	return out_matrix
}

/**
 * @brief Returns the result of multiplying mt and other.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out_matrix := NewMat4Identity()

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := float32(0)
			for i := 0; i < 4; i++ {
				sum += mt.Data[row*4+i] * other.Data[i*4+col]
			}
			out_matrix.Data[row*4+col] = sum
		}
	}

	return out_matrix
}

/**
 * @brief Creates and returns an orthographic projection matrix. Typically used to
 * render flat or 2D scenes.
 *
 * @param left The left side of the view frustum.
 * @param right The right side of the view frustum.
 * @param bottom The bottom side of the view frustum.
 * @param top The top side of the view frustum.
 * @param near_clip The near clipping plane distance.
 * @param far_clip The far clipping plane distance.
 * @return A new orthographic projection matrix.
 */
func NewMat4Orthographic(left, right, bottom, top, near_clip, far_clip float32) Mat4 {
	out_matrix := NewMat4Identity()

	lr := 1.0 / (left - right)
	bt := 1.0 / (bottom - top)
	nf := 1.0 / (near_clip - far_clip)

	out_matrix.Data[0] = -2.0 * lr
	out_matrix.Data[5] = -2.0 * bt
	out_matrix.Data[10] = 2.0 * nf

	out_matrix.Data[12] = (left + right) * lr
	out_matrix.Data[13] = (top + bottom) * bt
	out_matrix.Data[14] = (far_clip + near_clip) * nf
	return out_matrix
}

// NewMat4ScreenOrtho maps logical screen coordinates with the origin at the
// top-left and y growing downwards onto clip space:
//
//	{2/w, 0, 0, 0}, {0, -2/h, 0, 0}, {0, 0, -1, 0}, {-1, 1, 0, 1}
func NewMat4ScreenOrtho(width, height float32) Mat4 {
	return NewMat4Orthographic(0, width, height, 0, -1, 1)
}

// Transform applies mt to the point (x, y, 0, 1) and returns x and y.
func (mt Mat4) Transform(p Vec2) Vec2 {
	return Vec2{
		X: mt.Data[0]*p.X + mt.Data[4]*p.Y + mt.Data[12],
		Y: mt.Data[1]*p.X + mt.Data[5]*p.Y + mt.Data[13],
	}
}

/**
 * @brief Converts provided degrees to radians.
 */
func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}
