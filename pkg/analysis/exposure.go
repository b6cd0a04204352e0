package analysis

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// exposure sums the weight of every unobstructed direction in front of a
// sensor. The weight is the cosine to the sensor normal (or 1 when
// unweighted), times an optional per-direction factor. Directions behind
// the sensor are skipped, not counted as blocked.
type exposure struct {
	dirs     sample.Directions
	factors  []float64 // per direction; nil means 1
	weighted bool
	lim      Limits

	// flat is the unobstructed sum for an upward-facing sensor over the
	// same directions.
	flat float64
}

func newExposure(dirs sample.Directions, factors []float64, weighted bool, lim Limits) *exposure {
	e := &exposure{dirs: dirs, factors: factors, weighted: weighted, lim: lim}
	for i, d := range dirs {
		if d.Z > 0 {
			e.flat += e.weight(i, d.Z)
		}
	}
	return e
}

func (e *exposure) weight(i int, cos float64) float64 {
	w := 1.0
	if e.weighted {
		w = cos
	}
	if e.factors != nil {
		w *= e.factors[i]
	}
	return w
}

// measure returns the visible weight and the number of directions in
// front of f.
func (e *exposure) measure(c *call, f sensor.Frame) (sum float64, front int) {
	n := f.UnitNormal()
	for i, d := range e.dirs {
		cos := r3.Dot(n, d)
		if cos <= 0 {
			continue
		}
		front++
		q := raycast.Query{Origin: f.Origin, Dir: d, Near: e.lim.Near, Far: e.lim.Far}
		if _, blocked := c.hit(q); blocked {
			continue
		}
		sum += e.weight(i, cos)
	}
	return sum, front
}

// ratio normalizes sum against the flat sensor. Tilted sensors on a
// discrete direction set can overshoot slightly, so the ratio is capped
// at 1.
func (e *exposure) ratio(sum float64) float64 {
	return min(sum/e.flat, 1)
}

// runExposure evaluates e for every frame into metric.
func (c *call) runExposure(ctx context.Context, frames []sensor.Frame, e *exposure, metric string) (Result, error) {
	res := newResult(len(frames), metric)
	err := c.each(ctx, len(frames), func(i int) {
		sum, front := e.measure(c, frames[i])
		if front == 0 || e.flat == 0 {
			c.empty(i, "no directions in front of sensor")
			return
		}
		res.set(metric, i, e.ratio(sum))
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), len(e.dirs))
	return res, nil
}
