package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief a 4x4 matrix, column-major, as uploaded to the GPU. */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

// Rect is an axis-aligned rectangle in logical units. W and H may be zero.
type Rect struct {
	X, Y, W, H float32
}

// Color is 8-bit straight-alpha RGBA, laid out as it is written into vertices.
type Color struct {
	R, G, B, A uint8
}
