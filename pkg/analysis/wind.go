package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// Layers is a vertical scan: Count heights evenly spaced from Start to
// End, as offsets from each sensor origin.
type Layers struct {
	Start float64
	End   float64
	Count int
}

// SingleLayer scans only at the sensor height.
var SingleLayer = Layers{Count: 1}

func (l Layers) validate() error {
	if l.Count < 1 {
		return fmt.Errorf("%w: %d layers", ErrInvalidRayCount, l.Count)
	}
	if math.IsNaN(l.Start) || math.IsNaN(l.End) || math.IsInf(l.Start, 0) || math.IsInf(l.End, 0) {
		return fmt.Errorf("%w: layer range [%g, %g]", ErrInvalidDistanceRange, l.Start, l.End)
	}
	return nil
}

// Offsets returns the layer heights.
func (l Layers) Offsets() []float64 {
	out := make([]float64, l.Count)
	for i := range out {
		if l.Count > 1 {
			out[i] = l.Start + float64(i)*(l.End-l.Start)/float64(l.Count-1)
		} else {
			out[i] = l.Start
		}
	}
	return out
}

// compassBin returns the wind rose bin of a bearing in radians from north,
// clockwise, for a rose of n bins centred on their bearings.
func compassBin(bearing float64, n int) int {
	width := 2 * math.Pi / float64(n)
	b := int(math.Floor(bearing/width+0.5)) % n
	if b < 0 {
		b += n
	}
	return b
}

// Wind rates how open each sensor is to the prevailing winds. The model's
// wind_rose attribute gives a frequency per compass bin, from north
// clockwise; north follows the geolocation attribute when present. For
// every layer a horizontal fan of numRays rays is cast out to lim.Far;
// each ray scores its bin's frequency times hitDist/lim.Far (or the full
// frequency on a miss). wind_exposure is the frequency-weighted mean,
// averaged over layers, in [0, 1].
func (r *Runner) Wind(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, numRays int, layers Layers) (Result, error) {
	c := r.begin("wind")
	if err := checkReach(lim, false); err != nil {
		return nil, c.fail(-1, err)
	}
	if err := layers.validate(); err != nil {
		return nil, c.fail(-1, err)
	}
	fn, err := newFan(numRays, 2*math.Pi, lim)
	if err != nil {
		return nil, c.fail(-1, err)
	}
	rose, err := c.floatsAttr(graph.AttrWindRose)
	if err != nil {
		return nil, err
	}
	if len(rose) == 0 {
		return nil, c.fail(-1, fmt.Errorf("%w: %s is empty", ErrInvalidModelAttribute, graph.AttrWindRose))
	}
	var north [2]float64
	if v, ok := r.model.Attribute("", graph.AttrGeolocation); ok {
		if geo, err := graph.AsGeolocation(v); err == nil {
			north = geo.North
		}
	}
	frames, err := c.frames(sensors)
	if err != nil {
		return nil, err
	}

	// World directions and their frequencies, shared by all sensors.
	turn := r3.NewRotation(sample.NorthRotation(north), r3.Vec{Z: 1})
	dirs := make([]r3.Vec, len(fn.dirs))
	freqs := make([]float64, len(fn.dirs))
	var total float64
	for i, d := range fn.dirs {
		dirs[i] = turn.Rotate(d)
		freqs[i] = rose[compassBin(float64(i)*fn.step, len(rose))]
		total += freqs[i]
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	offsets := layers.Offsets()
	res := newResult(len(frames), MetricWindExposure)
	err = c.each(ctx, len(frames), func(i int) {
		if total == 0 {
			c.empty(i, "wind rose has no frequency on any ray")
			return
		}
		var sum float64
		for _, dz := range offsets {
			o := r3.Add(frames[i].Origin, r3.Vec{Z: dz})
			var layer float64
			for k, d := range dirs {
				if freqs[k] == 0 {
					continue
				}
				open := 1.0
				if hit, ok := c.hit(raycast.Query{Origin: o, Dir: d, Near: lim.Near, Far: lim.Far}); ok {
					open = hit.Dist / lim.Far
				}
				layer += freqs[k] * open
			}
			sum += layer / total
		}
		res.set(MetricWindExposure, i, sum/float64(len(offsets)))
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), numRays*len(offsets))
	return res, nil
}
