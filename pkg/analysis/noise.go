package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sensor"
)

// Road noise model constants, after the UK Calculation of Road Traffic
// Noise: basic L10 level at 13.5 m, source offset 3.5 m from the kerb.
const (
	crtnBase       = 42.2
	crtnRefDist    = 13.5
	crtnKerbOffset = 3.5
)

// road is a polyline in world space with its traffic flow.
type road struct {
	points  []r3.Vec
	traffic float64
}

// crossing is where a horizontal ray first meets a road.
type crossing struct {
	dist    float64 // horizontal distance from the sensor
	height  float64 // road height at the crossing
	traffic float64
}

// crossRoad returns the nearest crossing of the horizontal ray from o
// along unit u with any road within radius.
func crossRoad(o, u r3.Vec, radius float64, roads []road) (crossing, bool) {
	best := crossing{dist: math.Inf(1)}
	for _, rd := range roads {
		for k := 0; k+1 < len(rd.points); k++ {
			a, b := rd.points[k], rd.points[k+1]
			t, s, ok := segment2D(o, u, a, b)
			if !ok || t > radius || t >= best.dist {
				continue
			}
			best = crossing{dist: t, height: a.Z + s*(b.Z-a.Z), traffic: rd.traffic}
		}
	}
	return best, !math.IsInf(best.dist, 1)
}

// segment2D intersects the XY projection of the ray o+t·u (t >= 0) with
// segment a→b, returning t and the segment parameter s in [0, 1].
func segment2D(o, u, a, b r3.Vec) (t, s float64, ok bool) {
	ex, ey := b.X-a.X, b.Y-a.Y
	den := u.X*ey - u.Y*ex
	if math.Abs(den) < 1e-12 {
		return 0, 0, false
	}
	wx, wy := a.X-o.X, a.Y-o.Y
	t = (wx*ey - wy*ex) / den
	s = (wx*u.Y - wy*u.X) / den
	if t < 0 || s < 0 || s > 1 {
		return 0, 0, false
	}
	return t, s, true
}

// crtnLevel is the L10 contribution in dB(A) of a road segment seen
// across angle degrees at horizontal distance d and height difference h.
func crtnLevel(traffic, d, h, angle float64) float64 {
	slant := math.Hypot(d+crtnKerbOffset, h)
	return crtnBase + 10*math.Log10(traffic) - 10*math.Log10(slant/crtnRefDist) + 10*math.Log10(angle/180)
}

// Noise estimates road traffic noise at each sensor. A horizontal fan of
// numRays rays is cast around the sensor; each ray that reaches a road
// within lim.Far before any obstruction adds the road's level for the
// ray's share of the horizon. The contributions are summed as energy.
// noise_level is nil when no road contributes; unobstructed_ratio is the
// audible energy over the energy with no obstructions, nil when no road
// is in range. Obstructions nearer than lim.Near are ignored, so a road
// inside it is always heard.
func (r *Runner) Noise(ctx context.Context, sensors []sensor.Spec, entities, roads []string, lim Limits, numRays int) (Result, error) {
	c := r.begin("noise")
	if err := checkReach(lim, false); err != nil {
		return nil, c.fail(-1, err)
	}
	fn, err := newFan(numRays, 2*math.Pi, lim)
	if err != nil {
		return nil, c.fail(-1, err)
	}
	rds, err := c.roads(roads)
	if err != nil {
		return nil, err
	}
	frames, err := c.frames(sensors)
	if err != nil {
		return nil, err
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	angle := fn.step / (math.Pi / 180)
	res := newResult(len(frames), MetricNoiseLevel, MetricUnobstructedRatio)
	err = c.each(ctx, len(frames), func(i int) {
		o := frames[i].Origin
		var heard, open float64
		for _, d := range fn.dirs {
			x, ok := crossRoad(o, d, lim.Far, rds)
			if !ok {
				continue
			}
			e := math.Pow(10, crtnLevel(x.traffic, x.dist, o.Z-x.height, angle)/10)
			open += e
			if x.dist <= lim.Near {
				heard += e
				continue
			}
			q := raycast.Query{Origin: o, Dir: d, Near: lim.Near, Far: x.dist}
			if _, blocked := c.hit(q); !blocked {
				heard += e
			}
		}
		if open == 0 {
			c.empty(i, "no road in range")
			return
		}
		if heard > 0 {
			res.set(MetricNoiseLevel, i, 10*math.Log10(heard))
		}
		res.set(MetricUnobstructedRatio, i, heard/open)
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), numRays)
	return res, nil
}

func (c *call) roads(ids []string) ([]road, error) {
	paths, err := c.r.model.Paths(ids)
	if err != nil {
		return nil, fmt.Errorf("analysis: %s: roads: %w", c.family, err)
	}
	out := make([]road, 0, len(paths))
	for _, p := range paths {
		q, err := c.traffic(p.Source)
		if err != nil {
			return nil, err
		}
		out = append(out, road{points: p.Points, traffic: q})
	}
	return out, nil
}
