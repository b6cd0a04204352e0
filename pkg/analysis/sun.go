package analysis

import (
	"context"
	"fmt"

	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// Sun returns solar exposure for the site given by the model's
// geolocation attribute. Direct methods sample the sun's path over the
// half year and report direct_exposure; indirect methods sample the sky
// outside the solar band and report indirect_exposure.
func (r *Runner) Sun(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, detail int, method SunMethod) (Result, error) {
	c := r.begin("sun")
	if err := lim.Validate(); err != nil {
		return nil, c.fail(-1, err)
	}
	if !method.valid() {
		return nil, c.fail(-1, fmt.Errorf("%w: %v", ErrInvalidMethod, method))
	}
	geo, err := c.geolocation()
	if err != nil {
		return nil, err
	}

	var dirs sample.Directions
	if method.direct() {
		paths, err := sample.SolarPath(geo.Latitude, geo.North, detail)
		if err != nil {
			return nil, c.fail(-1, err)
		}
		dirs = paths.Flatten()
	} else {
		dirs, err = sample.IndirectSky(geo.Latitude, geo.North, detail)
		if err != nil {
			return nil, c.fail(-1, err)
		}
	}
	frames, err := c.frames(sensors)
	if err != nil {
		return nil, err
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	return c.runExposure(ctx, frames, newExposure(dirs, nil, method.weighted(), lim), method.metric())
}
