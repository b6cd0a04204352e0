// Package sample generates the direction sets that analyses cast rays
// along: horizontal fans, icosphere hemispheres, sky patch centres and
// solar paths. Every direction is a unit vector in world (or, for fans,
// sensor-local) coordinates.
package sample

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidDetailLevel is returned for a detail level outside the
	// generator's table.
	ErrInvalidDetailLevel = errors.New("invalid detail level")

	// ErrInvalidRayCount is returned when a fan has too few rays.
	ErrInvalidRayCount = errors.New("invalid ray count")

	// ErrInvalidViewAngle is returned for a non-positive or NaN fan angle.
	ErrInvalidViewAngle = errors.New("invalid view angle")
)

// Directions is an ordered set of unit direction vectors.
type Directions []r3.Vec

const deg = math.Pi / 180

// horizonEps is the tolerance below the horizon that still counts as sky.
const horizonEps = 1e-6

func checkDetail(detail, max int) error {
	if detail < 0 || detail > max {
		return fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidDetailLevel, detail, max)
	}
	return nil
}

// Fan returns n horizontal unit vectors in the XY plane. A viewAngle of
// 2π or more gives a full circle spaced 2π/n starting at +Y; a smaller
// angle gives n rays spaced viewAngle/(n-1) and centred on +Y. Angles
// run clockwise seen from above, like compass bearings.
func Fan(n int, viewAngle float64) (Directions, error) {
	if math.IsNaN(viewAngle) || viewAngle <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidViewAngle, viewAngle)
	}
	full := viewAngle >= 2*math.Pi
	switch {
	case n < 1:
		return nil, fmt.Errorf("%w: %d", ErrInvalidRayCount, n)
	case !full && n < 2:
		return nil, fmt.Errorf("%w: a partial fan needs at least 2 rays, got %d", ErrInvalidRayCount, n)
	}

	out := make(Directions, n)
	for i := range out {
		var a float64
		if full {
			a = float64(i) * 2 * math.Pi / float64(n)
		} else {
			a = -viewAngle/2 + float64(i)*viewAngle/float64(n-1)
		}
		out[i] = r3.Vec{X: math.Sin(a), Y: math.Cos(a)}
	}
	return out, nil
}

// FanStep returns the angle in radians between neighbouring fan rays.
func FanStep(n int, viewAngle float64) float64 {
	if viewAngle >= 2*math.Pi {
		return 2 * math.Pi / float64(n)
	}
	if n < 2 {
		return viewAngle
	}
	return viewAngle / float64(n-1)
}

// fromAltAz converts altitude/azimuth in degrees (azimuth clockwise from
// north, +Y) to a unit vector.
func fromAltAz(alt, az float64) r3.Vec {
	a, z := alt*deg, az*deg
	return r3.Vec{
		X: math.Cos(a) * math.Sin(z),
		Y: math.Cos(a) * math.Cos(z),
		Z: math.Sin(a),
	}
}
