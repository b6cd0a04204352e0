package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/raycast"
)

// Ray is one raw ray for Raytrace. Dir need not be unit length.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// RayInput is the shape of a Raytrace request: Single, List or Nested.
type RayInput interface {
	rayInput()
}

// Single is one bare ray. Its result is a bare *RayBatch.
type Single Ray

// List is a flat batch of rays traced together.
type List []Ray

// Nested groups inputs; each group gets its own result.
type Nested []RayInput

func (Single) rayInput() {}
func (List) rayInput()   {}
func (Nested) rayInput() {}

// RaytraceResult is a *RayBatch, a Many, or nil for an empty input.
type RaytraceResult interface {
	raytraceResult()
}

// Many holds one result per group of a Nested input.
type Many []RaytraceResult

// RayStats summarises a batch. Misses count as the far distance.
type RayStats struct {
	HitCount  int     `json:"hit_count"`
	MissCount int     `json:"miss_count"`
	TotalDist float64 `json:"total_dist"`
	MinDist   float64 `json:"min_dist"`
	AvgDist   float64 `json:"avg_dist"`
	MaxDist   float64 `json:"max_dist"`
	DistRatio float64 `json:"dist_ratio"` // TotalDist / (rays * far)
}

// RayBatch is the traced outcome of a flat batch, holding only what the
// method asked for. Per-ray lists follow input order; a miss has the far
// distance, a nil polygon and the far point.
type RayBatch struct {
	Stats         *RayStats    `json:"stats,omitempty"`
	Distances     []float64    `json:"distances,omitempty"`
	HitPolygons   []*string    `json:"hit_polygons,omitempty"`
	Intersections [][3]float64 `json:"intersections,omitempty"`
}

func (*RayBatch) raytraceResult() {}
func (Many) raytraceResult()      {}

// rayPlan is a validated input: a leaf batch of queries, or groups.
type rayPlan struct {
	queries []raycast.Query
	nested  bool
	groups  []*rayPlan // nil entries are empty groups
}

func (p *rayPlan) count() int {
	if p == nil {
		return 0
	}
	n := len(p.queries)
	for _, g := range p.groups {
		n += g.count()
	}
	return n
}

func planRays(in RayInput, lim Limits, next *int) (*rayPlan, error) {
	query := func(r Ray) (raycast.Query, error) {
		i := *next
		*next++
		q, err := raycast.NewQuery(r.Origin, r.Dir, lim.Near, lim.Far)
		if err != nil {
			return q, &rayIndexError{index: i, err: err}
		}
		return q, nil
	}

	switch v := in.(type) {
	case nil:
		return nil, nil
	case Single:
		q, err := query(Ray(v))
		if err != nil {
			return nil, err
		}
		return &rayPlan{queries: []raycast.Query{q}}, nil
	case List:
		if len(v) == 0 {
			return nil, nil
		}
		p := &rayPlan{queries: make([]raycast.Query, len(v))}
		for i, r := range v {
			q, err := query(r)
			if err != nil {
				return nil, err
			}
			p.queries[i] = q
		}
		return p, nil
	case Nested:
		if len(v) == 0 {
			return nil, nil
		}
		p := &rayPlan{nested: true, groups: make([]*rayPlan, len(v))}
		for i, g := range v {
			sub, err := planRays(g, lim, next)
			if err != nil {
				return nil, err
			}
			p.groups[i] = sub
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: ray input %T", ErrInvalidSensorSpec, in)
}

type rayIndexError struct {
	index int
	err   error
}

func (e *rayIndexError) Error() string { return fmt.Sprintf("ray %d: %v", e.index, e.err) }
func (e *rayIndexError) Unwrap() error { return e.err }

// Raytrace traces raw rays. An empty input returns nil; a Single or List
// returns one *RayBatch; a Nested input returns a Many of the same length,
// recursing group by group.
func (r *Runner) Raytrace(ctx context.Context, input RayInput, entities []string, lim Limits, method RaytraceMethod) (RaytraceResult, error) {
	c := r.begin("raytrace")
	if err := lim.Validate(); err != nil {
		return nil, c.fail(-1, err)
	}
	if math.IsInf(lim.Far, 1) {
		return nil, c.fail(-1, fmt.Errorf("%w: raytrace needs a finite far distance", ErrInvalidDistanceRange))
	}
	if !method.valid() {
		return nil, c.fail(-1, fmt.Errorf("%w: %v", ErrInvalidMethod, method))
	}
	var next int
	plan, err := planRays(input, lim, &next)
	if err != nil {
		var re *rayIndexError
		if errors.As(err, &re) {
			return nil, c.fail(re.index, re.err)
		}
		return nil, c.fail(-1, err)
	}
	if plan == nil {
		return nil, nil
	}

	if err := c.open(entities); err != nil {
		return nil, err
	}
	defer c.close()

	out, err := c.trace(ctx, plan, lim.Far, method)
	if err != nil {
		return nil, err
	}
	c.done(0, plan.count())
	return out, nil
}

func (c *call) trace(ctx context.Context, p *rayPlan, far float64, m RaytraceMethod) (RaytraceResult, error) {
	if p == nil {
		return nil, nil
	}
	if p.nested {
		out := make(Many, len(p.groups))
		for i, g := range p.groups {
			res, err := c.trace(ctx, g, far, m)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
		return out, nil
	}

	hits := make([]raycast.Hit, len(p.queries))
	ok := make([]bool, len(p.queries))
	err := c.each(ctx, len(p.queries), func(i int) {
		hits[i], ok[i] = c.hit(p.queries[i])
	})
	if err != nil {
		return nil, err
	}
	return assembleBatch(p.queries, hits, ok, far, m), nil
}

// assembleBatch fills the parts of a RayBatch that m selects.
func assembleBatch(qs []raycast.Query, hits []raycast.Hit, ok []bool, far float64, m RaytraceMethod) *RayBatch {
	n := len(qs)
	dists := make([]float64, n)
	polys := make([]*string, n)
	points := make([][3]float64, n)
	var hitCount int
	for i, q := range qs {
		p := q.At(far)
		dists[i] = far
		if ok[i] {
			hitCount++
			dists[i] = hits[i].Dist
			src := hits[i].Source
			polys[i] = &src
			p = hits[i].Point
		}
		points[i] = [3]float64{p.X, p.Y, p.Z}
	}

	b := &RayBatch{}
	switch m {
	case TraceStats:
		b.Stats = batchStats(dists, hitCount, far)
	case TraceDistances:
		b.Distances = dists
	case TraceHitPolygons:
		b.HitPolygons = polys
	case TraceIntersections:
		b.Intersections = points
	case TraceAll:
		b.Stats = batchStats(dists, hitCount, far)
		b.Distances = dists
		b.HitPolygons = polys
		b.Intersections = points
	}
	return b
}

func batchStats(dists []float64, hits int, far float64) *RayStats {
	total := floats.Sum(dists)
	return &RayStats{
		HitCount:  hits,
		MissCount: len(dists) - hits,
		TotalDist: total,
		MinDist:   floats.Min(dists),
		AvgDist:   total / float64(len(dists)),
		MaxDist:   floats.Max(dists),
		DistRatio: total / (float64(len(dists)) * far),
	}
}
