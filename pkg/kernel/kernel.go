// Package kernel defines the abstract geometry kernel interface.
// Implementations (poly, sdfx) turn obstruction solids into triangle
// meshes behind this interface, so the tessellator and the analyses never
// depend on a particular modelling backend.
package kernel

import "errors"

// ErrUnsupported is returned by ToMesh when a kernel cannot evaluate an
// operation used to build the solid.
var ErrUnsupported = errors.New("kernel: operation not supported")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
