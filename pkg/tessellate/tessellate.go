// Package tessellate walks a scene graph and produces world-space
// geometry using a geometry kernel: one triangle mesh per obstruction
// (solid, boolean composite or polygon), plus the road polylines and
// target points that analyses consume directly.
package tessellate

import (
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/kernel"
)

// Part is one tessellated obstruction. Owners lists the labels of every
// named node on the path from the root down to and including the part,
// so selecting any enclosing entity selects the part.
type Part struct {
	Source string
	Owners []string
	Mesh   *kernel.Mesh
}

// Target is a placed point.
type Target struct {
	Source string
	Owners []string
	At     r3.Vec
}

// Route is a placed polyline.
type Route struct {
	Source string
	Owners []string
	Points []r3.Vec
}

// Output collects everything a walk produced, in traversal order.
type Output struct {
	Parts   []Part
	Targets []Target
	Routes  []Route
}

// frame is one (place ...) level: rotate, then translate.
type frame struct {
	translation graph.Vec3
	rotation    graph.Vec3
}

// transformStack accumulates spatial transforms during graph traversal.
// Frames are stored outermost first.
type transformStack struct {
	frames []frame
}

func (ts *transformStack) push(f frame) {
	ts.frames = append(ts.frames, f)
}

func (ts *transformStack) pop() {
	if len(ts.frames) > 0 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}
}

// apply maps a local point to world space, innermost frame first.
func (ts *transformStack) apply(p r3.Vec) r3.Vec {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		p = applyFrame(ts.frames[i], p)
	}
	return p
}

// applySolid does the same for a kernel solid.
func (ts *transformStack) applySolid(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		s = solidFrame(k, ts.frames[i], s)
	}
	return s
}

func applyFrame(f frame, p r3.Vec) r3.Vec {
	r, t := f.rotation, f.translation
	if !r.IsZero() {
		p = kernel.RotateEuler(p, r.X, r.Y, r.Z)
	}
	return r3.Add(p, r3.Vec{X: t.X, Y: t.Y, Z: t.Z})
}

func solidFrame(k kernel.Kernel, f frame, s kernel.Solid) kernel.Solid {
	if r := f.rotation; !r.IsZero() {
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := f.translation; !t.IsZero() {
		s = k.Translate(s, t.X, t.Y, t.Z)
	}
	return s
}

func frameOf(td graph.TransformData) frame {
	var f frame
	if td.Translation != nil {
		f.translation = *td.Translation
	}
	if td.Rotation != nil {
		f.rotation = *td.Rotation
	}
	return f
}

type walker struct {
	g      *graph.Scene
	k      kernel.Kernel
	ts     transformStack
	owners []string
	out    *Output
}

// Tessellate walks the scene and produces world-space geometry using the
// provided geometry kernel. The tessellator is read-only and never
// mutates the scene.
func Tessellate(g *graph.Scene, k kernel.Kernel) (*Output, error) {
	out := &Output{}
	if g == nil {
		return out, nil
	}

	w := &walker{g: g, k: k, out: out}
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		if err := w.walk(root); err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", root.Label(), err)
		}
	}
	return out, nil
}

// enter records n as an owner of everything below it; the returned
// func undoes it.
func (w *walker) enter(n *graph.Node) func() {
	if n.Name == "" {
		return func() {}
	}
	w.owners = append(w.owners, n.Name)
	return func() { w.owners = w.owners[:len(w.owners)-1] }
}

func (w *walker) ownersWith(extra ...string) []string {
	out := make([]string, 0, len(w.owners)+len(extra))
	out = append(out, w.owners...)
	return append(out, extra...)
}

// walk recursively traverses a node and its children.
func (w *walker) walk(n *graph.Node) error {
	switch n.Kind {
	case graph.NodeSolid, graph.NodeBoolean:
		return w.handleSolid(n)

	case graph.NodeSurface:
		return w.handleSurface(n)

	case graph.NodePath:
		return w.handlePath(n)

	case graph.NodePoint:
		return w.handlePoint(n)

	case graph.NodeTransform:
		return w.handleTransform(n)

	case graph.NodeGroup:
		leave := w.enter(n)
		defer leave()
		return w.walkChildren(n)

	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (w *walker) walkChildren(n *graph.Node) error {
	for _, child := range w.g.Children(n) {
		if err := w.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// handleTransform pushes the transform, recurses into children, then pops.
func (w *walker) handleTransform(n *graph.Node) error {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return fmt.Errorf("transform node %s has unexpected data type %T", n.Label(), n.Data)
	}
	leave := w.enter(n)
	defer leave()

	w.ts.push(frameOf(td))
	defer w.ts.pop()
	return w.walkChildren(n)
}

// handleSolid builds the solid tree rooted at n, places it and meshes it.
// Named nodes inside a boolean composite own the whole composite.
func (w *walker) handleSolid(n *graph.Node) error {
	inner := map[string]bool{}
	solid, err := w.solidOf(n, inner)
	if err != nil {
		return err
	}
	solid = w.ts.applySolid(w.k, solid)

	mesh, err := w.k.ToMesh(solid)
	if err != nil {
		return fmt.Errorf("tessellate: ToMesh failed for node %s: %w", n.Label(), err)
	}
	mesh.SetSource(n.Label())

	owners := w.ownersWith(n.Label())
	for _, name := range slices.Sorted(maps.Keys(inner)) {
		if name != n.Label() {
			owners = append(owners, name)
		}
	}
	w.out.Parts = append(w.out.Parts, Part{Source: n.Label(), Owners: owners, Mesh: mesh})
	return nil
}

// solidOf evaluates a solid subtree in its local frame.
func (w *walker) solidOf(n *graph.Node, names map[string]bool) (kernel.Solid, error) {
	if n.Name != "" {
		names[n.Name] = true
	}
	switch data := n.Data.(type) {
	case graph.BoxData:
		return w.k.Box(data.Dimensions.X, data.Dimensions.Y, data.Dimensions.Z), nil

	case graph.CylinderData:
		seg := data.Segments
		if seg == 0 {
			seg = graph.DefaultSegments
		}
		return w.k.Cylinder(data.Height, data.Radius, seg), nil

	case graph.TransformData:
		s, err := w.unionOf(n, names)
		if err != nil {
			return nil, err
		}
		return solidFrame(w.k, frameOf(data), s), nil

	case graph.GroupData:
		return w.unionOf(n, names)

	case graph.BooleanData:
		children := w.g.Children(n)
		if len(children) < 2 {
			return nil, fmt.Errorf("boolean node %s needs at least 2 operands, got %d", n.Label(), len(children))
		}
		acc, err := w.solidOf(children[0], names)
		if err != nil {
			return nil, err
		}
		for _, c := range children[1:] {
			s, err := w.solidOf(c, names)
			if err != nil {
				return nil, err
			}
			switch data.Op {
			case graph.OpUnion:
				acc = w.k.Union(acc, s)
			case graph.OpDifference:
				acc = w.k.Difference(acc, s)
			case graph.OpIntersection:
				acc = w.k.Intersection(acc, s)
			default:
				return nil, fmt.Errorf("boolean node %s has unknown op %v", n.Label(), data.Op)
			}
		}
		return acc, nil

	default:
		return nil, fmt.Errorf("node %s of kind %v cannot be used as a solid (%T)", n.Label(), n.Kind, n.Data)
	}
}

func (w *walker) unionOf(n *graph.Node, names map[string]bool) (kernel.Solid, error) {
	var acc kernel.Solid
	for _, c := range w.g.Children(n) {
		s, err := w.solidOf(c, names)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = s
		} else {
			acc = w.k.Union(acc, s)
		}
	}
	if acc == nil {
		return nil, fmt.Errorf("node %s has no solid children", n.Label())
	}
	return acc, nil
}

// handleSurface fan-triangulates a planar polygon from its first vertex.
func (w *walker) handleSurface(n *graph.Node) error {
	data, ok := n.Data.(graph.PolygonData)
	if !ok {
		return fmt.Errorf("surface node %s has unexpected data type %T", n.Label(), n.Data)
	}
	if len(data.Vertices) < 3 {
		return fmt.Errorf("polygon %s has %d vertices, need at least 3", n.Label(), len(data.Vertices))
	}
	vs := make([]r3.Vec, len(data.Vertices))
	for i, v := range data.Vertices {
		vs[i] = w.ts.apply(vec(v))
	}

	src := n.Label()
	mesh := &kernel.Mesh{}
	for i := 1; i+1 < len(vs); i++ {
		mesh.AddTriangle(vs[0], vs[i], vs[i+1], src)
	}
	w.out.Parts = append(w.out.Parts, Part{Source: src, Owners: w.ownersWith(src), Mesh: mesh})
	return nil
}

func (w *walker) handlePath(n *graph.Node) error {
	data, ok := n.Data.(graph.PolylineData)
	if !ok {
		return fmt.Errorf("path node %s has unexpected data type %T", n.Label(), n.Data)
	}
	pts := make([]r3.Vec, len(data.Points))
	for i, p := range data.Points {
		pts[i] = w.ts.apply(vec(p))
	}
	w.out.Routes = append(w.out.Routes, Route{Source: n.Label(), Owners: w.ownersWith(n.Label()), Points: pts})
	return nil
}

func (w *walker) handlePoint(n *graph.Node) error {
	data, ok := n.Data.(graph.PointData)
	if !ok {
		return fmt.Errorf("point node %s has unexpected data type %T", n.Label(), n.Data)
	}
	w.out.Targets = append(w.out.Targets, Target{
		Source: n.Label(),
		Owners: w.ownersWith(n.Label()),
		At:     w.ts.apply(vec(data.At)),
	})
	return nil
}

func vec(v graph.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
