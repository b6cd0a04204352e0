package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chazu/umbra/pkg/sensor"
)

var isovistMetrics = []string{
	MetricAvgDist, MetricMinDist, MetricMaxDist,
	MetricArea, MetricPerimeter,
	MetricAreaRatio, MetricPerimeterRatio, MetricCircularity, MetricCompactness,
}

// Isovist casts numRays evenly around each sensor, in its local plane, out
// to lim.Far and measures the visible polygon. Hits nearer than lim.Near
// are ignored. Ratios compare it with the unobstructed regular polygon of
// radius lim.Far and the same ray count, so an empty scene scores 1 on
// each.
//
//	area_ratio       area / ideal area
//	perimeter_ratio  perimeter / ideal perimeter
//	circularity      (area/perimeter²) / (ideal area/ideal perimeter²)
//	compactness      area / area of the regular polygon at max_dist
func (r *Runner) Isovist(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, numRays int) (Result, error) {
	c := r.begin("isovist")
	if err := checkReach(lim, false); err != nil {
		return nil, c.fail(-1, err)
	}
	if numRays < 3 {
		return nil, c.fail(-1, fmt.Errorf("%w: isovist needs at least 3 rays, got %d", ErrInvalidRayCount, numRays))
	}
	fn, err := newFan(numRays, 2*math.Pi, lim)
	if err != nil {
		return nil, c.fail(-1, err)
	}
	frames, err := c.frames(sensors)
	if err != nil {
		return nil, err
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	idealArea, idealPerim := fn.ideal(lim.Far)
	res := newResult(len(frames), isovistMetrics...)
	err = c.each(ctx, len(frames), func(i int) {
		dists, _ := fn.cast(c, frames[i])
		area, perim := fn.shape(dists)
		distStats(res, i, dists)
		res.set(MetricArea, i, area)
		res.set(MetricPerimeter, i, perim)
		res.set(MetricAreaRatio, i, area/idealArea)
		res.set(MetricPerimeterRatio, i, perim/idealPerim)
		if perim > 0 {
			res.set(MetricCircularity, i, (area/(perim*perim))/(idealArea/(idealPerim*idealPerim)))
		}
		if outer, _ := fn.ideal(floats.Max(dists)); outer > 0 {
			res.set(MetricCompactness, i, area/outer)
		}
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), numRays)
	return res, nil
}
