package analysis

import (
	"context"
	"fmt"

	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// Sky returns the share of the sky dome each sensor sees, as
// sky_exposure in [0, 1]. The dome is the icosphere hemisphere at detail.
func (r *Runner) Sky(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, detail int, method SkyMethod) (Result, error) {
	c := r.begin("sky")
	if err := lim.Validate(); err != nil {
		return nil, c.fail(-1, err)
	}
	if !method.valid() {
		return nil, c.fail(-1, fmt.Errorf("%w: %v", ErrInvalidMethod, method))
	}
	dirs, err := sample.Hemisphere(detail)
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

	return c.runExposure(ctx, frames, newExposure(dirs, nil, method.weighted(), lim), MetricSkyExposure)
}
