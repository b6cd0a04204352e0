// Package raycast answers nearest-hit queries against one merged
// obstruction mesh.
package raycast

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/kernel"
)

var (
	// ErrInvalidDirection is returned for a zero-length or non-finite
	// query direction.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidDistanceRange is returned when far <= near.
	ErrInvalidDistanceRange = errors.New("invalid distance range")

	// ErrClosed is returned by a second Close.
	ErrClosed = errors.New("intersector closed")
)

// parallelEps bounds the Möller–Trumbore determinant below which a ray is
// treated as parallel to the triangle plane.
const parallelEps = 1e-12

// boundsPad widens the bounding box so hits on flat, axis-aligned meshes
// survive rounding in the slab test.
const boundsPad = 1e-9

// Query is one ray: origin, unit direction and the accepted hit interval.
type Query struct {
	Origin r3.Vec
	Dir    r3.Vec
	Near   float64
	Far    float64
}

// NewQuery validates and normalizes a ray. Far may be +Inf.
func NewQuery(origin, dir r3.Vec, near, far float64) (Query, error) {
	n := r3.Norm(dir)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Query{}, fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
	}
	if err := CheckRange(near, far); err != nil {
		return Query{}, err
	}
	return Query{Origin: origin, Dir: r3.Scale(1/n, dir), Near: near, Far: far}, nil
}

// CheckRange reports ErrInvalidDistanceRange unless far > near.
func CheckRange(near, far float64) error {
	if math.IsNaN(near) || math.IsNaN(far) || !(far > near) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidDistanceRange, near, far)
	}
	return nil
}

// At returns the point at distance t along the ray.
func (q Query) At(t float64) r3.Vec {
	return r3.Add(q.Origin, r3.Scale(t, q.Dir))
}

// Hit is the nearest intersection of a query.
type Hit struct {
	Dist   float64
	Point  r3.Vec
	Face   int    // triangle index in the merged mesh
	Source string // entity that produced the triangle
}

// Intersector answers queries against an obstruction mesh. A miss is
// reported with ok == false.
type Intersector interface {
	Intersect(q Query) (hit Hit, ok bool)
	Close() error
}

type triangle struct {
	a, e1, e2 r3.Vec
}

// MeshIntersector is a brute-force Intersector guarded by the mesh's
// bounding box. It is read-only after New and safe for concurrent use.
type MeshIntersector struct {
	mu      sync.RWMutex
	tris    []triangle
	sources []string
	bounds  r3.Box
	closed  bool
}

// New copies mesh into an intersector. A nil or empty mesh always misses.
func New(mesh *kernel.Mesh) *MeshIntersector {
	ix := &MeshIntersector{}
	if mesh.IsEmpty() {
		return ix
	}
	n := mesh.TriangleCount()
	ix.tris = make([]triangle, n)
	ix.sources = make([]string, n)
	for i := range n {
		t := mesh.Triangle(i)
		ix.tris[i] = triangle{a: t[0], e1: r3.Sub(t[1], t[0]), e2: r3.Sub(t[2], t[0])}
		ix.sources[i] = mesh.Source(i)
	}
	b := mesh.Bounds()
	pad := r3.Vec{X: boundsPad, Y: boundsPad, Z: boundsPad}
	ix.bounds = r3.Box{Min: r3.Sub(b.Min, pad), Max: r3.Add(b.Max, pad)}
	return ix
}

// Triangles returns the number of triangles held.
func (ix *MeshIntersector) Triangles() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.tris)
}

// Intersect returns the nearest hit with Near <= Dist <= Far.
func (ix *MeshIntersector) Intersect(q Query) (Hit, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed || len(ix.tris) == 0 {
		return Hit{}, false
	}
	if !slab(ix.bounds, q) {
		return Hit{}, false
	}

	best, face := q.Far, -1
	for i := range ix.tris {
		t, ok := intersectTriangle(&ix.tris[i], q)
		if !ok || t < q.Near || t > best || (t == best && face >= 0) {
			continue
		}
		best, face = t, i
	}
	if face < 0 {
		return Hit{}, false
	}
	return Hit{Dist: best, Point: q.At(best), Face: face, Source: ix.sources[face]}, true
}

// Close drops the triangle buffers. Later queries miss.
func (ix *MeshIntersector) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	ix.closed = true
	ix.tris, ix.sources = nil, nil
	return nil
}

// intersectTriangle is a two-sided Möller–Trumbore test.
func intersectTriangle(tri *triangle, q Query) (float64, bool) {
	h := r3.Cross(q.Dir, tri.e2)
	det := r3.Dot(tri.e1, h)
	if math.Abs(det) < parallelEps {
		return 0, false
	}
	inv := 1 / det
	s := r3.Sub(q.Origin, tri.a)
	u := inv * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	p := r3.Cross(s, tri.e1)
	v := inv * r3.Dot(q.Dir, p)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	return inv * r3.Dot(tri.e2, p), true
}

// slab reports whether the query interval overlaps box b.
func slab(b r3.Box, q Query) bool {
	lo, hi := q.Near, q.Far
	o := [3]float64{q.Origin.X, q.Origin.Y, q.Origin.Z}
	d := [3]float64{q.Dir.X, q.Dir.Y, q.Dir.Z}
	mn := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	mx := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := range 3 {
		if d[i] == 0 {
			if o[i] < mn[i] || o[i] > mx[i] {
				return false
			}
			continue
		}
		t0 := (mn[i] - o[i]) / d[i]
		t1 := (mx[i] - o[i]) / d[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		lo = math.Max(lo, t0)
		hi = math.Min(hi, t1)
		if lo > hi {
			return false
		}
	}
	return true
}

// Counting wraps an Intersector and counts queries.
type Counting struct {
	Intersector
	n atomic.Int64
}

// NewCounting wraps ix.
func NewCounting(ix Intersector) *Counting {
	return &Counting{Intersector: ix}
}

// Intersect counts q and forwards it.
func (c *Counting) Intersect(q Query) (Hit, bool) {
	c.n.Add(1)
	return c.Intersector.Intersect(q)
}

// Queries returns the number of queries seen so far.
func (c *Counting) Queries() int64 {
	return c.n.Load()
}
