package graph

import (
	"fmt"
	"math"
)

// Well-known attribute names.
const (
	AttrSkyRadiance = "sky_radiance" // scene: []float64, one value per sky patch
	AttrWindRose    = "wind_rose"    // scene: []float64, frequency per compass bin from north, clockwise
	AttrGeolocation = "geolocation"  // scene: Geolocation
	AttrTraffic     = "traffic"      // path: float64, vehicles per hour
)

// DefaultTraffic is the road flow assumed when a path sets no traffic.
const DefaultTraffic = 1000.0

// Geolocation positions the scene on the globe for solar analyses.
// North is the XY direction of true north; the zero value means +Y.
type Geolocation struct {
	Latitude float64    `json:"latitude"` // degrees, positive north
	North    [2]float64 `json:"north"`
}

// NorthOrDefault returns North, substituting +Y for the zero vector.
func (g Geolocation) NorthOrDefault() [2]float64 {
	if g.North == [2]float64{} {
		return [2]float64{0, 1}
	}
	return g.North
}

// AsFloats converts an attribute value into a float slice. It accepts
// []float64, []int and []any holding numbers, which covers values built
// in Go and values decoded from JSON or the DSL.
func AsFloats(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []int:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(t))
		for i, x := range t {
			f, err := AsFloat(x)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of numbers, got %T", v)
}

// AsFloat converts a numeric attribute value.
func AsFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// AsGeolocation converts a geolocation attribute. Besides Geolocation it
// accepts a [latitude, north_x, north_y] list or a bare latitude.
func AsGeolocation(v any) (Geolocation, error) {
	if g, ok := v.(Geolocation); ok {
		return g, nil
	}
	if f, err := AsFloat(v); err == nil {
		return Geolocation{Latitude: f}, nil
	}
	fs, err := AsFloats(v)
	if err != nil {
		return Geolocation{}, fmt.Errorf("geolocation: %w", err)
	}
	switch len(fs) {
	case 1:
		return Geolocation{Latitude: fs[0]}, nil
	case 3:
		return Geolocation{Latitude: fs[0], North: [2]float64{fs[1], fs[2]}}, nil
	}
	return Geolocation{}, fmt.Errorf("geolocation: want 1 or 3 numbers, got %d", len(fs))
}

// checkGeolocation reports out-of-range latitude or a degenerate north vector.
func checkGeolocation(g Geolocation) error {
	if math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %g outside [-90, 90]", g.Latitude)
	}
	n := g.North
	if n != [2]float64{} && math.Hypot(n[0], n[1]) < 1e-12 {
		return fmt.Errorf("north vector (%g, %g) is degenerate", n[0], n[1])
	}
	return nil
}
