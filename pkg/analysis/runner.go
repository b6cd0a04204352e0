// Package analysis runs the ray-sampling analyses: sky and solar
// exposure, irradiance, isovists, view, visibility, raw raytracing, road
// noise and wind. Each call validates its inputs, builds the obstruction
// mesh once, casts one query per sensor and direction, and reduces the
// outcomes into a Result.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/kernel"
	"github.com/chazu/umbra/pkg/logging"
	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sensor"
)

// DefaultOffset is the sensor lift used when none is configured.
const DefaultOffset = 0.01

// Model is the geometry the analyses run against. Entities are named by
// string ids; an Attribute id of "" addresses the model itself.
type Model interface {
	MergedMesh(ids []string) (*kernel.Mesh, error)
	Attribute(id, name string) (any, bool)
	Positions(ids []string) ([]r3.Vec, error)
	Paths(ids []string) ([]kernel.Path, error)
	// Owns reports whether the faces tagged source belong to entity id.
	Owns(id, source string) bool
}

// Limits is the accepted hit distance window of a ray.
type Limits struct {
	Near float64
	Far  float64
}

// DefaultLimits accepts any hit in front of the sensor.
var DefaultLimits = Limits{Near: 0, Far: math.Inf(1)}

// Validate reports ErrInvalidDistanceRange unless Far > Near.
func (l Limits) Validate() error {
	return raycast.CheckRange(l.Near, l.Far)
}

// Runner runs analyses against one Model. It is safe for concurrent use.
type Runner struct {
	model          Model
	workers        int
	offset         float64
	log            logging.Logger
	newIntersector func(*kernel.Mesh) raycast.Intersector
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers analyzes up to n sensors in parallel. n <= 1 is sequential.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = max(n, 1) }
}

// WithOffset sets the distance sensors are lifted along their normal.
func WithOffset(d float64) Option {
	return func(r *Runner) { r.offset = d }
}

// WithLogger sets the logger. The default is logging.Default().
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithIntersector replaces the intersector built over each merged mesh.
func WithIntersector(fn func(*kernel.Mesh) raycast.Intersector) Option {
	return func(r *Runner) { r.newIntersector = fn }
}

// NewRunner returns a Runner over m.
func NewRunner(m Model, opts ...Option) *Runner {
	r := &Runner{
		model:   m,
		workers: 1,
		offset:  DefaultOffset,
		log:     logging.Default(),
		newIntersector: func(mesh *kernel.Mesh) raycast.Intersector {
			return raycast.New(mesh)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("analysis")
	return r
}

// call tracks one analysis invocation.
type call struct {
	r      *Runner
	family string
	id     string
	start  time.Time
	ix     *raycast.Counting
	log    logging.Logger
}

func (r *Runner) begin(family string) *call {
	id := uuid.NewString()
	return &call{
		r:      r,
		family: family,
		id:     id,
		start:  time.Now(),
		log:    r.log.With(logging.String("family", family), logging.String("run_id", id)),
	}
}

// fail wraps err as an input error.
func (c *call) fail(index int, err error) error {
	return inputError(c.family, index, err)
}

// frames builds the sensor frames.
func (c *call) frames(specs []sensor.Spec) ([]sensor.Frame, error) {
	frames, err := sensor.Build(specs, c.r.offset)
	if err != nil {
		return nil, c.fail(-1, err)
	}
	return frames, nil
}

// open builds the merged mesh for entities and wraps it for querying. The
// caller must defer close.
func (c *call) open(entities []string) error {
	mesh, err := c.r.model.MergedMesh(entities)
	if err != nil {
		return fmt.Errorf("analysis: %s: merged mesh: %w", c.family, err)
	}
	c.ix = raycast.NewCounting(c.r.newIntersector(mesh))
	c.log.Debug("mesh ready", logging.Int("triangles", mesh.TriangleCount()), logging.Int("entities", len(entities)))
	return nil
}

func (c *call) close() {
	if c.ix == nil {
		return
	}
	if err := c.ix.Close(); err != nil {
		c.log.Warn("close intersector", logging.Err(err))
	}
}

// each runs fn for every sensor index, on up to r.workers goroutines.
// Context cancellation is checked between sensors.
func (c *call) each(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.r.workers)
	for i := range n {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// hit casts q through the call's intersector.
func (c *call) hit(q raycast.Query) (raycast.Hit, bool) {
	return c.ix.Intersect(q)
}

// done logs the summary line.
func (c *call) done(sensors, rays int) {
	var queries int64
	if c.ix != nil {
		queries = c.ix.Queries()
	}
	c.log.Debug("analysis complete",
		logging.Int("sensors", sensors),
		logging.Int("rays", rays),
		logging.Int("queries", int(queries)),
		logging.Int("workers", c.r.workers),
		logging.Duration("elapsed", time.Since(c.start)),
	)
}

// empty logs a sensor that produced no usable samples.
func (c *call) empty(i int, why string) {
	c.log.Warn("sensor has no usable rays", logging.Int("sensor", i), logging.String("reason", why))
}
