package tessellate_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/tessellate"
)

// buildSite is a group "site" holding a placed tower, a road and a named
// target group with two points.
func buildSite() *graph.Scene {
	g := graph.New()
	tower := makeBox("tower", 10, 10, 30)
	placeTower := makePlace("place-tower", graph.Vec3{X: 20}, graph.Vec3{}, tower.ID)
	road := &graph.Node{
		ID: graph.NewNodeID("road"), Kind: graph.NodePath, Name: "road",
		Data:  graph.PolylineData{Points: []graph.Vec3{{X: -50, Y: -20, Z: 0}, {X: 50, Y: -20, Z: 0}}},
		Attrs: map[string]any{graph.AttrTraffic: 800.0},
	}
	p1 := &graph.Node{
		ID: graph.NewNodeID("p1"), Kind: graph.NodePoint,
		Data: graph.PointData{At: graph.Vec3{X: 0, Y: 50, Z: 1}},
	}
	p2 := &graph.Node{
		ID: graph.NewNodeID("p2"), Kind: graph.NodePoint,
		Data: graph.PointData{At: graph.Vec3{X: 0, Y: -50, Z: 1}},
	}
	targets := makeGroup("targets", p1.ID, p2.ID)
	site := makeGroup("site", placeTower.ID, road.ID, targets.ID)
	for _, n := range []*graph.Node{tower, placeTower, road, p1, p2, targets, site} {
		g.AddNode(n)
	}
	g.AddRoot(site.ID)
	g.SetAttr(graph.AttrWindRose, []float64{1, 2, 3, 4})
	return g
}

func newModel(t *testing.T, g *graph.Scene) *tessellate.Model {
	t.Helper()
	m, err := tessellate.NewModel(g, newKernel())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func TestModelMergedMesh(t *testing.T) {
	m := newModel(t, buildSite())

	mesh, err := m.MergedMesh([]string{"site"})
	if err != nil {
		t.Fatalf("MergedMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Errorf("site triangles = %d, want 12", mesh.TriangleCount())
	}
	if mesh.Source(0) != "tower" {
		t.Errorf("source = %q, want tower", mesh.Source(0))
	}

	empty, err := m.MergedMesh(nil)
	if err != nil || !empty.IsEmpty() {
		t.Errorf("MergedMesh(nil) = %v, %v; want empty mesh", empty, err)
	}

	roadOnly, _ := m.MergedMesh([]string{"road"})
	if !roadOnly.IsEmpty() {
		t.Error("a road has no obstruction triangles")
	}
}

func TestModelUnknownEntity(t *testing.T) {
	m := newModel(t, buildSite())
	if _, err := m.MergedMesh([]string{"nope"}); !errors.Is(err, tessellate.ErrUnknownEntity) {
		t.Errorf("err = %v, want ErrUnknownEntity", err)
	}
	if _, err := m.Positions([]string{"nope"}); !errors.Is(err, tessellate.ErrUnknownEntity) {
		t.Errorf("err = %v, want ErrUnknownEntity", err)
	}
}

func TestModelAttribute(t *testing.T) {
	m := newModel(t, buildSite())

	v, ok := m.Attribute("road", graph.AttrTraffic)
	if !ok || v.(float64) != 800 {
		t.Errorf("road traffic = %v, %v; want 800", v, ok)
	}
	if _, ok := m.Attribute("", graph.AttrWindRose); !ok {
		t.Error("scene wind rose missing")
	}
	if _, ok := m.Attribute("", graph.AttrSkyRadiance); ok {
		t.Error("sky radiance should be absent")
	}
	if _, ok := m.Attribute("missing", graph.AttrTraffic); ok {
		t.Error("unknown entity should have no attributes")
	}
}

func TestModelPositions(t *testing.T) {
	m := newModel(t, buildSite())

	got, err := m.Positions([]string{"targets", "tower"})
	if err != nil {
		t.Fatalf("Positions failed: %v", err)
	}
	want := []r3.Vec{{X: 0, Y: 50, Z: 1}, {X: 0, Y: -50, Z: 1}, {X: 25, Y: 5, Z: 15}}
	if len(got) != len(want) {
		t.Fatalf("got %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if !near(got[i], want[i], 1e-9) {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := m.Positions([]string{"road"}); !errors.Is(err, tessellate.ErrNoPosition) {
		t.Errorf("road position err = %v, want ErrNoPosition", err)
	}
}

func TestModelOwns(t *testing.T) {
	m := newModel(t, buildSite())

	for _, id := range []string{"tower", "place-tower", "site"} {
		if !m.Owns(id, "tower") {
			t.Errorf("%s should own the tower faces", id)
		}
	}
	if m.Owns("road", "tower") || m.Owns("targets", "tower") {
		t.Error("siblings must not own the tower faces")
	}
	if m.Owns("road", "road") {
		t.Error("a road has no faces to own")
	}
}

func TestModelPathsAndRoots(t *testing.T) {
	m := newModel(t, buildSite())

	paths, err := m.Paths([]string{"site"})
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 1 || paths[0].Source != "road" || len(paths[0].Points) != 2 {
		t.Errorf("paths = %+v, want the road", paths)
	}
	if roots := m.Roots(); len(roots) != 1 || roots[0] != "site" {
		t.Errorf("roots = %v, want [site]", roots)
	}
}

func TestModelRejectsInvalidScene(t *testing.T) {
	g := graph.New()
	bad := makeBox("bad", -1, 1, 1)
	g.AddNode(bad)
	g.AddRoot(bad.ID)
	if _, err := tessellate.NewModel(g, newKernel()); err == nil {
		t.Fatal("expected validation error for negative box")
	}
}
