package analysis

import (
	"context"
	"fmt"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// Irradiance integrates the model's sky_radiance table, one value per sky
// patch, over the patches each sensor sees. irradiance is the absolute
// sum; irradiance_ratio divides it by the sum an unobstructed upward
// sensor receives, capped at 1.
func (r *Runner) Irradiance(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, detail int, weighted bool) (Result, error) {
	c := r.begin("irradiance")
	if err := lim.Validate(); err != nil {
		return nil, c.fail(-1, err)
	}
	dirs, err := sample.SkyPatches(detail)
	if err != nil {
		return nil, c.fail(-1, err)
	}
	radiance, err := c.floatsAttr(graph.AttrSkyRadiance)
	if err != nil {
		return nil, err
	}
	if len(radiance) != len(dirs) {
		return nil, c.fail(-1, fmt.Errorf("%w: %s has %d values, detail %d needs %d",
			ErrInvalidModelAttribute, graph.AttrSkyRadiance, len(radiance), detail, len(dirs)))
	}
	frames, err := c.frames(sensors)
	if err != nil {
		return nil, err
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	e := newExposure(dirs, radiance, weighted, lim)
	res := newResult(len(frames), MetricIrradiance, MetricIrradianceRatio)
	err = c.each(ctx, len(frames), func(i int) {
		sum, front := e.measure(c, frames[i])
		if front == 0 {
			c.empty(i, "no sky patches in front of sensor")
			return
		}
		res.set(MetricIrradiance, i, sum)
		if e.flat > 0 {
			res.set(MetricIrradianceRatio, i, e.ratio(sum))
		}
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), len(dirs))
	return res, nil
}
