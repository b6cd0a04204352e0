// Package poly implements kernel.Kernel with exact triangle soups.
// Boxes and faceted cylinders are built directly and transforms are
// applied to the vertices, so a box always meshes to 12 triangles.
// Union concatenates operands, which gives the correct first hit for rays
// that start outside every operand. Difference and intersection need a
// real CSG backend such as the sdfx kernel; here they fail at ToMesh.
package poly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

type solid struct {
	tris []r3.Triangle
	err  error // deferred until ToMesh
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Scale(-1, lo)
	for _, t := range s.tris {
		for _, v := range t {
			lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
			hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
		}
	}
	return [3]float64{lo.X, lo.Y, lo.Z}, [3]float64{hi.X, hi.Y, hi.Z}
}

// Kernel is the polyhedral kernel. The zero value is ready to use.
type Kernel struct{}

// New returns a polyhedral kernel.
func New() *Kernel {
	return &Kernel{}
}

func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

// Box creates a box with its minimum corner at the origin, matching the
// sdfx kernel's placement convention.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	c := [8]r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: x, Y: 0, Z: 0}, {X: x, Y: y, Z: 0}, {X: 0, Y: y, Z: 0},
		{X: 0, Y: 0, Z: z}, {X: x, Y: 0, Z: z}, {X: x, Y: y, Z: z}, {X: 0, Y: y, Z: z},
	}
	// Two triangles per face, wound outward.
	faces := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front (-Y)
		{2, 3, 7, 6}, // back (+Y)
		{1, 2, 6, 5}, // right (+X)
		{3, 0, 4, 7}, // left (-X)
	}
	s := &solid{tris: make([]r3.Triangle, 0, 12)}
	for _, f := range faces {
		s.tris = append(s.tris,
			r3.Triangle{c[f[0]], c[f[1]], c[f[2]]},
			r3.Triangle{c[f[0]], c[f[2]], c[f[3]]},
		)
	}
	return s
}

// Cylinder creates a Z-aligned prism with the given number of sides,
// centred on the origin like sdf.Cylinder3D.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if segments < 3 {
		return &solid{err: fmt.Errorf("poly: cylinder needs at least 3 segments, got %d", segments)}
	}
	zb, zt := -height/2, height/2
	ring := func(i int, z float64) r3.Vec {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z}
	}
	bc := r3.Vec{Z: zb}
	tc := r3.Vec{Z: zt}
	s := &solid{tris: make([]r3.Triangle, 0, 4*segments)}
	for i := 0; i < segments; i++ {
		b0, b1 := ring(i, zb), ring(i+1, zb)
		t0, t1 := ring(i, zt), ring(i+1, zt)
		s.tris = append(s.tris,
			r3.Triangle{b0, b1, t1},
			r3.Triangle{b0, t1, t0},
			r3.Triangle{bc, b1, b0},
			r3.Triangle{tc, t0, t1},
		)
	}
	return s
}

// Union concatenates the operands' triangles.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	if err := firstErr(sa, sb); err != nil {
		return &solid{err: err}
	}
	tris := make([]r3.Triangle, 0, len(sa.tris)+len(sb.tris))
	tris = append(tris, sa.tris...)
	tris = append(tris, sb.tris...)
	return &solid{tris: tris}
}

// Difference is not representable without CSG.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	if err := firstErr(unwrap(a), unwrap(b)); err != nil {
		return &solid{err: err}
	}
	return &solid{err: fmt.Errorf("poly: difference: %w", kernel.ErrUnsupported)}
}

// Intersection is not representable without CSG.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	if err := firstErr(unwrap(a), unwrap(b)); err != nil {
		return &solid{err: err}
	}
	return &solid{err: fmt.Errorf("poly: intersection: %w", kernel.ErrUnsupported)}
}

func firstErr(ss ...*solid) error {
	for _, s := range ss {
		if s.err != nil {
			return s.err
		}
	}
	return nil
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	d := r3.Vec{X: x, Y: y, Z: z}
	return mapVerts(unwrap(s), func(v r3.Vec) r3.Vec { return r3.Add(v, d) })
}

// Rotate rotates a solid by Euler angles (degrees): about X first, then
// Y, then Z, the same order as the sdfx kernel.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return mapVerts(unwrap(s), func(v r3.Vec) r3.Vec { return kernel.RotateEuler(v, x, y, z) })
}

func mapVerts(s *solid, f func(r3.Vec) r3.Vec) kernel.Solid {
	if s.err != nil {
		return s
	}
	out := &solid{tris: make([]r3.Triangle, len(s.tris))}
	for i, t := range s.tris {
		out.tris[i] = r3.Triangle{f(t[0]), f(t[1]), f(t[2])}
	}
	return out
}

// ToMesh emits the triangle soup. Any error recorded while building the
// solid is returned here.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ps := unwrap(s)
	if ps.err != nil {
		return nil, ps.err
	}
	m := &kernel.Mesh{
		Vertices: make([]float64, 0, len(ps.tris)*9),
		Indices:  make([]uint32, 0, len(ps.tris)*3),
		Sources:  make([]string, 0, len(ps.tris)),
	}
	for _, t := range ps.tris {
		m.AddTriangle(t[0], t[1], t[2], "")
	}
	return m, nil
}
