package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// checkRadius accepts a positive radius; +Inf only when allowInf.
func checkRadius(radius float64, allowInf bool) error {
	if math.IsNaN(radius) || radius <= 0 || (!allowInf && math.IsInf(radius, 1)) {
		return fmt.Errorf("%w: %g", ErrInvalidRadius, radius)
	}
	return nil
}

// checkReach validates the distance window of a fan analysis: Far is its
// radius and must pass checkRadius, then Near must lie below it.
func checkReach(lim Limits, allowInf bool) error {
	if err := checkRadius(lim.Far, allowInf); err != nil {
		return err
	}
	return lim.Validate()
}

// fan is a radial set of unit directions in a sensor's local plane.
type fan struct {
	dirs   sample.Directions
	step   float64 // angle between neighbouring rays
	closed bool    // the last ray neighbours the first
	lim    Limits
}

func newFan(n int, viewAngle float64, lim Limits) (*fan, error) {
	dirs, err := sample.Fan(n, viewAngle)
	if err != nil {
		return nil, err
	}
	return &fan{
		dirs:   dirs,
		step:   sample.FanStep(n, viewAngle),
		closed: viewAngle >= 2*math.Pi,
		lim:    lim,
	}, nil
}

// cast returns the free length of every ray, the far limit on a miss, and
// the number of misses.
func (fn *fan) cast(c *call, f sensor.Frame) (dists []float64, misses int) {
	dists = make([]float64, len(fn.dirs))
	for i, d := range fn.dirs {
		q := raycast.Query{Origin: f.Origin, Dir: r3.Unit(f.Local(d)), Near: fn.lim.Near, Far: fn.lim.Far}
		if hit, ok := c.hit(q); ok {
			dists[i] = hit.Dist
			continue
		}
		dists[i] = fn.lim.Far
		misses++
	}
	return dists, misses
}

// heron returns the area of a triangle with sides a, b and c.
func heron(a, b, c float64) float64 {
	s := (a + b + c) / 2
	return math.Sqrt(max(0, s*(s-a)*(s-b)*(s-c)))
}

// chord is the distance between the ends of two rays of length a and b
// separated by angle.
func chord(a, b, angle float64) float64 {
	return math.Sqrt(max(0, a*a+b*b-2*a*b*math.Cos(angle)))
}

// shape returns the area and perimeter of the polygon through the ray
// ends. An open fan also has its two outer rays as edges.
func (fn *fan) shape(dists []float64) (area, perimeter float64) {
	n := len(dists)
	pairs := n - 1
	if fn.closed {
		pairs = n
	}
	for i := range pairs {
		a, b := dists[i], dists[(i+1)%n]
		c := chord(a, b, fn.step)
		area += heron(a, b, c)
		perimeter += c
	}
	if !fn.closed {
		perimeter += dists[0] + dists[n-1]
	}
	return area, perimeter
}

// ideal returns the unobstructed shape at radius.
func (fn *fan) ideal(radius float64) (area, perimeter float64) {
	dists := make([]float64, len(fn.dirs))
	for i := range dists {
		dists[i] = radius
	}
	return fn.shape(dists)
}

// distStats sets avg, min and max distance for sensor i.
func distStats(res Result, i int, dists []float64) {
	if len(dists) == 0 {
		return
	}
	res.set(MetricAvgDist, i, stat.Mean(dists, nil))
	res.set(MetricMinDist, i, floats.Min(dists))
	res.set(MetricMaxDist, i, floats.Max(dists))
}
