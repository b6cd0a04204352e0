package tessellate

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/kernel"
)

// ErrUnknownEntity is returned when an id does not name any node.
var ErrUnknownEntity = errors.New("tessellate: unknown entity")

// ErrNoPosition is returned by Positions for an entity with no geometry.
var ErrNoPosition = errors.New("tessellate: entity has no position")

// Model answers geometry queries about a validated, tessellated scene.
// Entities are addressed by label: a node's name, or its short id when
// it is unnamed. A Model is read-only after NewModel and safe for
// concurrent use.
type Model struct {
	scene  *graph.Scene
	out    *Output
	labels map[string]*graph.Node
}

// NewModel validates g and tessellates it with k.
func NewModel(g *graph.Scene, k kernel.Kernel) (*Model, error) {
	if g == nil {
		g = graph.New()
	}
	res := graph.ValidateAll(g)
	if !res.OK() {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return nil, fmt.Errorf("tessellate: invalid scene: %w", errors.Join(errs...))
	}

	out, err := Tessellate(g, k)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]*graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.Label()] = n
	}
	return &Model{scene: g, out: out, labels: labels}, nil
}

// Output exposes the tessellated geometry.
func (m *Model) Output() *Output { return m.out }

// Roots returns the labels of the scene's root nodes in order, the
// default entity selection.
func (m *Model) Roots() []string {
	out := make([]string, 0, len(m.scene.Roots))
	for _, id := range m.scene.Roots {
		if n := m.scene.Get(id); n != nil {
			out = append(out, n.Label())
		}
	}
	return out
}

func (m *Model) resolve(ids []string) error {
	for _, id := range ids {
		if _, ok := m.labels[id]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEntity, id)
		}
	}
	return nil
}

func ownedBy(owners, ids []string) bool {
	for _, id := range ids {
		if slices.Contains(owners, id) {
			return true
		}
	}
	return false
}

// MergedMesh concatenates the meshes of every part owned by one of ids.
// An empty ids list yields an empty mesh.
func (m *Model) MergedMesh(ids []string) (*kernel.Mesh, error) {
	if err := m.resolve(ids); err != nil {
		return nil, err
	}
	var meshes []*kernel.Mesh
	for _, p := range m.out.Parts {
		if ownedBy(p.Owners, ids) {
			meshes = append(meshes, p.Mesh)
		}
	}
	return kernel.Merge(meshes...), nil
}

// Attribute returns a node attribute, or a scene attribute when id is "".
func (m *Model) Attribute(id, name string) (any, bool) {
	if id == "" {
		return m.scene.Attr(name)
	}
	n, ok := m.labels[id]
	if !ok {
		return nil, false
	}
	return n.Attr(name)
}

// Positions resolves each id to world positions. Points owned by the
// entity contribute their own position; an entity with no points
// contributes the centre of its obstruction bounds.
func (m *Model) Positions(ids []string) ([]r3.Vec, error) {
	if err := m.resolve(ids); err != nil {
		return nil, err
	}
	var out []r3.Vec
	for _, id := range ids {
		sel := []string{id}
		var found bool
		for _, t := range m.out.Targets {
			if ownedBy(t.Owners, sel) {
				out = append(out, t.At)
				found = true
			}
		}
		if found {
			continue
		}
		mesh, _ := m.MergedMesh(sel)
		if mesh.IsEmpty() {
			return nil, fmt.Errorf("%w: %q", ErrNoPosition, id)
		}
		b := mesh.Bounds()
		out = append(out, r3.Scale(0.5, r3.Add(b.Min, b.Max)))
	}
	return out, nil
}

// Owns reports whether the part whose faces are tagged source is owned by
// entity id.
func (m *Model) Owns(id, source string) bool {
	for _, p := range m.out.Parts {
		if p.Source == source && slices.Contains(p.Owners, id) {
			return true
		}
	}
	return false
}

// Paths returns the world-space polylines owned by any of ids.
func (m *Model) Paths(ids []string) ([]kernel.Path, error) {
	if err := m.resolve(ids); err != nil {
		return nil, err
	}
	var out []kernel.Path
	for _, r := range m.out.Routes {
		if ownedBy(r.Owners, ids) {
			out = append(out, kernel.Path{Source: r.Source, Points: r.Points})
		}
	}
	return out, nil
}
