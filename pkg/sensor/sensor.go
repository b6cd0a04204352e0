// Package sensor turns user sensor descriptions into Frames: an origin,
// a normal and a pair of in-plane axes that orient local direction sets.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidSensorSpec is returned for a sensor that is not a point,
	// ray or plane.
	ErrInvalidSensorSpec = errors.New("invalid sensor spec")

	// ErrInvalidDirection is returned for a zero-length or non-finite
	// direction or axis.
	ErrInvalidDirection = errors.New("invalid direction")
)

// Spec is a sensor description. It is one of Point, Ray or Plane.
type Spec interface {
	sensorSpec()
}

// Point is a sensor facing straight up.
type Point struct {
	At r3.Vec
}

// Ray is a sensor facing along Dir.
type Ray struct {
	Origin, Dir r3.Vec
}

// Plane is a sensor on a surface spanned by XAxis and YAxis; it faces
// along XAxis × YAxis.
type Plane struct {
	Origin, XAxis, YAxis r3.Vec
}

func (Point) sensorSpec() {}
func (Ray) sensorSpec()   {}
func (Plane) sensorSpec() {}

// Frame is a built sensor. Normal is unit length for points and rays. For
// planes it is the raw cross product of the axes, so its length carries
// the parallelogram area; use UnitNormal for a direction.
type Frame struct {
	Origin r3.Vec
	Normal r3.Vec
	XAxis  r3.Vec // unit, perpendicular to YAxis
	YAxis  r3.Vec // unit; the forward direction of local fans
}

// UnitNormal returns the normalized normal.
func (f Frame) UnitNormal() r3.Vec {
	return r3.Unit(f.Normal)
}

// Local maps a direction given in the frame's basis (X right, Y forward,
// Z up) to world coordinates. X and Y follow the frame's axes; Z maps to
// world up.
func (f Frame) Local(d r3.Vec) r3.Vec {
	v := r3.Add(r3.Scale(d.X, f.XAxis), r3.Scale(d.Y, f.YAxis))
	return r3.Add(v, r3.Vec{Z: d.Z})
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func checkDir(name string, v r3.Vec) error {
	if !finite(v) || r3.Norm(v) == 0 {
		return fmt.Errorf("%w: %s %v", ErrInvalidDirection, name, v)
	}
	return nil
}

// Build validates specs and returns one frame per spec, in order. Each
// origin is moved offset along the unit normal. An error names the index
// of the first bad sensor.
func Build(specs []Spec, offset float64) ([]Frame, error) {
	frames := make([]Frame, len(specs))
	for i, s := range specs {
		f, err := build(s)
		if err != nil {
			return nil, &IndexError{Index: i, Err: err}
		}
		if !finite(f.Origin) {
			return nil, &IndexError{Index: i, Err: fmt.Errorf("%w: non-finite origin", ErrInvalidSensorSpec)}
		}
		f.Origin = r3.Add(f.Origin, r3.Scale(offset, f.UnitNormal()))
		frames[i] = f
	}
	return frames, nil
}

func build(s Spec) (Frame, error) {
	up := r3.Vec{Z: 1}
	switch s := s.(type) {
	case Point:
		return Frame{Origin: s.At, Normal: up, XAxis: r3.Vec{X: 1}, YAxis: r3.Vec{Y: 1}}, nil

	case Ray:
		if err := checkDir("ray direction", s.Dir); err != nil {
			return Frame{}, err
		}
		n := r3.Unit(s.Dir)
		y := r3.Vec{X: n.X, Y: n.Y}
		if r3.Norm(y) < 1e-12 {
			y = r3.Vec{Y: 1}
		}
		y = r3.Unit(y)
		return Frame{Origin: s.Origin, Normal: n, XAxis: r3.Cross(y, up), YAxis: y}, nil

	case Plane:
		if err := checkDir("x axis", s.XAxis); err != nil {
			return Frame{}, err
		}
		if err := checkDir("y axis", s.YAxis); err != nil {
			return Frame{}, err
		}
		n := r3.Cross(s.XAxis, s.YAxis)
		if r3.Norm(n) == 0 {
			return Frame{}, fmt.Errorf("%w: plane axes are parallel", ErrInvalidDirection)
		}
		x := r3.Unit(s.XAxis)
		y := r3.Unit(r3.Cross(n, x))
		return Frame{Origin: s.Origin, Normal: n, XAxis: x, YAxis: y}, nil

	case nil:
		return Frame{}, fmt.Errorf("%w: nil", ErrInvalidSensorSpec)
	}
	return Frame{}, fmt.Errorf("%w: %T", ErrInvalidSensorSpec, s)
}

// IndexError locates an error at a sensor index.
type IndexError struct {
	Index int
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("sensor %d: %v", e.Index, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Parse recognizes the three sensor shapes in JSON:
//
//	[x, y, z]                      point
//	[[ox, oy, oz], [dx, dy, dz]]    ray
//	[[o...], [x...], [y...]]        plane
func Parse(raw json.RawMessage) (Spec, error) {
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return FromFloats(flat)
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err == nil {
		return FromNested(nested)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidSensorSpec, raw)
}

// FromFloats builds a Point from three coordinates.
func FromFloats(xyz []float64) (Spec, error) {
	v, err := vec(xyz)
	if err != nil {
		return nil, err
	}
	return Point{At: v}, nil
}

// FromNested builds a Ray from two vectors or a Plane from three.
func FromNested(vs [][]float64) (Spec, error) {
	out := make([]r3.Vec, len(vs))
	for i, xyz := range vs {
		v, err := vec(xyz)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	switch len(out) {
	case 2:
		return Ray{Origin: out[0], Dir: out[1]}, nil
	case 3:
		return Plane{Origin: out[0], XAxis: out[1], YAxis: out[2]}, nil
	}
	return nil, fmt.Errorf("%w: %d vectors, want 2 (ray) or 3 (plane)", ErrInvalidSensorSpec, len(out))
}

func vec(xyz []float64) (r3.Vec, error) {
	if len(xyz) != 3 {
		return r3.Vec{}, fmt.Errorf("%w: vector of length %d", ErrInvalidSensorSpec, len(xyz))
	}
	return r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// ParseAll parses a JSON array of sensors.
func ParseAll(data []byte) ([]Spec, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSensorSpec, err)
	}
	specs := make([]Spec, len(raws))
	for i, r := range raws {
		s, err := Parse(r)
		if err != nil {
			return nil, &IndexError{Index: i, Err: err}
		}
		specs[i] = s
	}
	return specs, nil
}
