package analysis

import (
	"context"

	"github.com/chazu/umbra/pkg/sensor"
)

var viewMetrics = []string{
	MetricAvgDist, MetricMinDist, MetricMaxDist,
	MetricArea, MetricPerimeter,
	MetricAreaRatio, MetricPerimeterRatio, MetricVisibleRatio,
}

// View casts numRays across viewAngle radians, centred on each sensor's
// forward axis, out to lim.Far. A ray that misses is visible; visible_ratio
// is the share of such rays. Area and perimeter ratios compare the
// visible fan with the unobstructed one.
func (r *Runner) View(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, numRays int, viewAngle float64) (Result, error) {
	c := r.begin("view")
	if err := checkReach(lim, false); err != nil {
		return nil, c.fail(-1, err)
	}
	fn, err := newFan(numRays, viewAngle, lim)
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
	res := newResult(len(frames), viewMetrics...)
	err = c.each(ctx, len(frames), func(i int) {
		dists, misses := fn.cast(c, frames[i])
		area, perim := fn.shape(dists)
		distStats(res, i, dists)
		res.set(MetricArea, i, area)
		res.set(MetricPerimeter, i, perim)
		if idealArea > 0 {
			res.set(MetricAreaRatio, i, area/idealArea)
		}
		res.set(MetricPerimeterRatio, i, perim/idealPerim)
		res.set(MetricVisibleRatio, i, float64(misses)/float64(len(dists)))
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), numRays)
	return res, nil
}
