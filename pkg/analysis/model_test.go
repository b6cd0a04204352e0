package analysis

import (
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/kernel"
	"github.com/chazu/umbra/pkg/raycast"
)

// fakeModel serves hand-built meshes and attributes.
type fakeModel struct {
	meshes    map[string]*kernel.Mesh
	attrs     map[string]any            // model scope
	entAttrs  map[string]map[string]any // per entity
	positions map[string]r3.Vec
	paths     map[string]kernel.Path

	meshCalls atomic.Int32
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		meshes:    map[string]*kernel.Mesh{},
		attrs:     map[string]any{},
		entAttrs:  map[string]map[string]any{},
		positions: map[string]r3.Vec{},
		paths:     map[string]kernel.Path{},
	}
}

func (m *fakeModel) MergedMesh(ids []string) (*kernel.Mesh, error) {
	m.meshCalls.Add(1)
	var parts []*kernel.Mesh
	for _, id := range ids {
		mesh, ok := m.meshes[id]
		if !ok {
			return nil, fmt.Errorf("unknown entity %q", id)
		}
		parts = append(parts, mesh)
	}
	return kernel.Merge(parts...), nil
}

func (m *fakeModel) Attribute(id, name string) (any, bool) {
	if id == "" {
		v, ok := m.attrs[name]
		return v, ok
	}
	v, ok := m.entAttrs[id][name]
	return v, ok
}

func (m *fakeModel) Positions(ids []string) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(ids))
	for i, id := range ids {
		p, ok := m.positions[id]
		if !ok {
			return nil, fmt.Errorf("unknown entity %q", id)
		}
		out[i] = p
	}
	return out, nil
}

func (m *fakeModel) Paths(ids []string) ([]kernel.Path, error) {
	var out []kernel.Path
	for _, id := range ids {
		p, ok := m.paths[id]
		if !ok {
			return nil, fmt.Errorf("unknown entity %q", id)
		}
		out = append(out, p)
	}
	return out, nil
}

// Owns treats every mesh as its own entity, tagged with the entity id.
func (m *fakeModel) Owns(id, source string) bool {
	_, ok := m.meshes[id]
	return ok && id == source
}

// roof is a horizontal square of half-size h centred above the origin.
func roof(z, h float64, src string) *kernel.Mesh {
	m := &kernel.Mesh{}
	a := r3.Vec{X: -h, Y: -h, Z: z}
	b := r3.Vec{X: h, Y: -h, Z: z}
	c := r3.Vec{X: h, Y: h, Z: z}
	d := r3.Vec{X: -h, Y: h, Z: z}
	m.AddTriangle(a, b, c, src)
	m.AddTriangle(a, c, d, src)
	return m
}

// wallY is a wide vertical wall in the plane y = y0, spanning z in
// [-10, 10].
func wallY(y0 float64, src string) *kernel.Mesh {
	m := &kernel.Mesh{}
	a := r3.Vec{X: -100, Y: y0, Z: -10}
	b := r3.Vec{X: 100, Y: y0, Z: -10}
	c := r3.Vec{X: 100, Y: y0, Z: 10}
	d := r3.Vec{X: -100, Y: y0, Z: 10}
	m.AddTriangle(a, b, c, src)
	m.AddTriangle(a, c, d, src)
	return m
}

// wallX is the same wall in the plane x = x0.
func wallX(x0 float64, src string) *kernel.Mesh {
	m := &kernel.Mesh{}
	a := r3.Vec{X: x0, Y: -100, Z: -10}
	b := r3.Vec{X: x0, Y: 100, Z: -10}
	c := r3.Vec{X: x0, Y: 100, Z: 10}
	d := r3.Vec{X: x0, Y: -100, Z: 10}
	m.AddTriangle(a, b, c, src)
	m.AddTriangle(a, c, d, src)
	return m
}

// spyIntersector records how it is used.
type spyIntersector struct {
	raycast.Intersector
	closed atomic.Int32
}

func (s *spyIntersector) Close() error {
	s.closed.Add(1)
	return s.Intersector.Close()
}

func spyOn(built *atomic.Int32, spies *[]*spyIntersector) Option {
	return WithIntersector(func(mesh *kernel.Mesh) raycast.Intersector {
		built.Add(1)
		s := &spyIntersector{Intersector: raycast.New(mesh)}
		*spies = append(*spies, s)
		return s
	})
}
