package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Path is a world-space polyline such as a road centre line.
type Path struct {
	Source string
	Points []r3.Vec
}

// RotateEuler rotates v about X, then Y, then Z by the given angles in
// degrees. Kernels use the same order for Rotate, so points and paths
// placed by the tessellator line up with solids.
func RotateEuler(v r3.Vec, x, y, z float64) r3.Vec {
	if x != 0 {
		v = r3.NewRotation(x*math.Pi/180, r3.Vec{X: 1}).Rotate(v)
	}
	if y != 0 {
		v = r3.NewRotation(y*math.Pi/180, r3.Vec{Y: 1}).Rotate(v)
	}
	if z != 0 {
		v = r3.NewRotation(z*math.Pi/180, r3.Vec{Z: 1}).Rotate(v)
	}
	return v
}
