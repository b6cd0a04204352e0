package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sensor"
)

var visibilityMetrics = []string{
	MetricCount, MetricCountRatio, MetricDistanceRatio,
	MetricAvgDist, MetricMinDist, MetricMaxDist,
}

// Target is a visibility target. Entity names the entity it was resolved
// from, or is empty for a bare position; faces of that entity never hide
// the target, so a solid target counts as seen when the first face on the
// ray is its own.
type Target struct {
	Entity string
	At     r3.Vec
}

// TargetsAt wraps bare positions as targets.
func TargetsAt(ps ...r3.Vec) []Target {
	out := make([]Target, len(ps))
	for i, p := range ps {
		out[i] = Target{At: p}
	}
	return out
}

// Visibility casts one ray from each sensor to each target within lim.Far
// (+Inf for no limit) and counts the targets nothing blocks. Obstructions
// nearer than lim.Near are ignored.
//
//	count           visible targets
//	count_ratio     visible / usable targets, 0 when none are usable
//	distance_ratio  inverse-distance weighted share of visible targets
//	avg/min/max_dist  over visible targets, nil when none is visible
//
// Targets beyond lim.Far or within lim.Near of the sensor are not usable.
func (r *Runner) Visibility(ctx context.Context, sensors []sensor.Spec, entities []string, lim Limits, targets []Target) (Result, error) {
	c := r.begin("visibility")
	if err := checkReach(lim, true); err != nil {
		return nil, c.fail(-1, err)
	}
	for i, t := range targets {
		if !finite(t.At) {
			return nil, c.fail(i, fmt.Errorf("%w: target %v is not finite", ErrInvalidDirection, t.At))
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

	res := newResult(len(frames), visibilityMetrics...)
	err = c.each(ctx, len(frames), func(i int) {
		o := frames[i].Origin
		var (
			usable      int
			seen        []float64
			wAll, wSeen float64
		)
		for _, t := range targets {
			v := r3.Sub(t.At, o)
			d := r3.Norm(v)
			if d == 0 || d <= lim.Near || d > lim.Far {
				continue
			}
			usable++
			wAll += 1 / d
			q := raycast.Query{Origin: o, Dir: r3.Scale(1/d, v), Near: lim.Near, Far: d}
			if hit, blocked := c.hit(q); blocked && !c.ownFace(t, hit) {
				continue
			}
			seen = append(seen, d)
			wSeen += 1 / d
		}

		res.set(MetricCount, i, float64(len(seen)))
		if usable == 0 {
			c.empty(i, "no targets in range")
			res.set(MetricCountRatio, i, 0)
			res.set(MetricDistanceRatio, i, 0)
			return
		}
		res.set(MetricCountRatio, i, float64(len(seen))/float64(usable))
		res.set(MetricDistanceRatio, i, wSeen/wAll)
		distStats(res, i, seen)
	})
	if err != nil {
		return nil, err
	}
	c.done(len(frames), len(targets))
	return res, nil
}

// TargetsOf resolves entity ids to targets through the model, keeping the
// id on every position it yields.
func (r *Runner) TargetsOf(ids []string) ([]Target, error) {
	var out []Target
	for _, id := range ids {
		ps, err := r.model.Positions([]string{id})
		if err != nil {
			return nil, fmt.Errorf("analysis: visibility: targets: %w", err)
		}
		for _, p := range ps {
			out = append(out, Target{Entity: id, At: p})
		}
	}
	return out, nil
}

// ownFace reports whether hit lies on the target's own entity.
func (c *call) ownFace(t Target, hit raycast.Hit) bool {
	return t.Entity != "" && c.r.model.Owns(t.Entity, hit.Source)
}

func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X+v.Y+v.Z) && !math.IsInf(v.X+v.Y+v.Z, 0)
}
