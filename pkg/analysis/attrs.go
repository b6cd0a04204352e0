package analysis

import (
	"fmt"

	"github.com/chazu/umbra/pkg/graph"
)

// modelAttr reads a model-scope attribute, failing with
// ErrMissingModelAttribute when it is absent.
func (c *call) modelAttr(name string) (any, error) {
	v, ok := c.r.model.Attribute("", name)
	if !ok || v == nil {
		return nil, c.fail(-1, fmt.Errorf("%w: %s", ErrMissingModelAttribute, name))
	}
	return v, nil
}

func (c *call) floatsAttr(name string) ([]float64, error) {
	v, err := c.modelAttr(name)
	if err != nil {
		return nil, err
	}
	fs, err := graph.AsFloats(v)
	if err != nil {
		return nil, c.fail(-1, fmt.Errorf("%w: %s: %v", ErrInvalidModelAttribute, name, err))
	}
	return fs, nil
}

func (c *call) geolocation() (graph.Geolocation, error) {
	v, err := c.modelAttr(graph.AttrGeolocation)
	if err != nil {
		return graph.Geolocation{}, err
	}
	g, err := graph.AsGeolocation(v)
	if err != nil {
		return graph.Geolocation{}, c.fail(-1, fmt.Errorf("%w: %v", ErrInvalidModelAttribute, err))
	}
	return g, nil
}

// traffic returns a road's flow in vehicles per hour.
func (c *call) traffic(road string) (float64, error) {
	v, ok := c.r.model.Attribute(road, graph.AttrTraffic)
	if !ok {
		return graph.DefaultTraffic, nil
	}
	q, err := graph.AsFloat(v)
	if err != nil || q <= 0 {
		return 0, c.fail(-1, fmt.Errorf("%w: %s of %q: %v", ErrInvalidModelAttribute, graph.AttrTraffic, road, v))
	}
	return q, nil
}
