package graph

import "testing"

func TestNewScene(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Attrs == nil {
		t.Fatal("Attrs map should be initialized")
	}
	if g.Defaults.Units != "m" {
		t.Errorf("default units = %q, want %q", g.Defaults.Units, "m")
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty scene should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("entity/tower")
	g.AddNode(&Node{
		ID:   id,
		Kind: NodeSolid,
		Name: "tower",
		Data: BoxData{Dimensions: Vec3{10, 10, 40}},
	})
	g.AddRoot(id)
	g.AddRoot(id)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}

	found := g.Lookup("tower")
	if found == nil {
		t.Fatal("Lookup('tower') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}
	if must := g.MustLookup("tower"); must.ID != id {
		t.Errorf("MustLookup returned wrong node")
	}
	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}
	if got := g.Get(id); got == nil || got.Name != "tower" {
		t.Errorf("Get by ID failed")
	}
	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [%s]", g.Roots, id.Short())
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic on missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestOfKind(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: NewNodeID("a"), Kind: NodeSolid, Data: BoxData{Dimensions: Vec3{1, 1, 1}}})
	g.AddNode(&Node{ID: NewNodeID("b"), Kind: NodeSolid, Data: CylinderData{Height: 1, Radius: 1}})
	g.AddNode(&Node{ID: NewNodeID("c"), Kind: NodePoint, Data: PointData{At: Vec3{5, 0, 0}}})

	if n := len(g.OfKind(NodeSolid)); n != 2 {
		t.Errorf("OfKind(solid) = %d nodes, want 2", n)
	}
	if n := len(g.OfKind(NodePoint)); n != 1 {
		t.Errorf("OfKind(point) = %d nodes, want 1", n)
	}
	if n := len(g.OfKind(NodePath)); n != 0 {
		t.Errorf("OfKind(path) = %d nodes, want 0", n)
	}
}

func TestChildren(t *testing.T) {
	g := New()

	childID := NewNodeID("entity/wall")
	parentID := NewNodeID("group/block")
	g.AddNode(&Node{
		ID: childID, Kind: NodeSurface, Name: "wall",
		Data: PolygonData{Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}}},
	})
	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "block",
		Children: []NodeID{childID, NewNodeID("dangling")},
		Data:     GroupData{},
	})

	children := g.Children(g.Get(parentID))
	if len(children) != 1 {
		t.Fatalf("Children count = %d, want 1 (dangling ids are skipped)", len(children))
	}
	if children[0].Name != "wall" {
		t.Errorf("child name = %q, want %q", children[0].Name, "wall")
	}
}

func TestSceneAttrs(t *testing.T) {
	g := New()
	if _, ok := g.Attr(AttrWindRose); ok {
		t.Fatal("fresh scene should have no wind rose")
	}
	g.SetAttr(AttrWindRose, []float64{1, 2, 3, 4})
	v, ok := g.Attr(AttrWindRose)
	if !ok {
		t.Fatal("wind rose not stored")
	}
	fs, err := AsFloats(v)
	if err != nil || len(fs) != 4 {
		t.Errorf("AsFloats = %v, %v", fs, err)
	}
}

func TestNodeAttrAndLabel(t *testing.T) {
	n := &Node{ID: NewNodeID("x"), Attrs: map[string]any{AttrTraffic: 1200.0}}
	if v, ok := n.Attr(AttrTraffic); !ok || v != 1200.0 {
		t.Errorf("Attr(traffic) = %v, %v", v, ok)
	}
	if n.Label() != n.ID.Short() {
		t.Errorf("unnamed label = %q, want short id", n.Label())
	}
	n.Name = "ring-road"
	if n.Label() != "ring-road" {
		t.Errorf("label = %q, want ring-road", n.Label())
	}

	var bare Node
	if _, ok := bare.Attr("anything"); ok {
		t.Error("nil attrs map should report missing")
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("entity/tower")
	b := NewNodeID("entity/tower")
	if a != b {
		t.Error("same path should produce same NodeID")
	}
	if a == NewNodeID("entity/slab") {
		t.Error("different paths should produce different NodeIDs")
	}
	if len(a.Short()) != 8 {
		t.Errorf("Short() = %q, want 8 hex digits", a.Short())
	}
	if len(a.String()) != 64 {
		t.Errorf("String() length = %d, want 64", len(a.String()))
	}
}

func TestNodeIDZero(t *testing.T) {
	var id NodeID
	if !id.IsZero() {
		t.Error("zero-value NodeID should be zero")
	}
	if NewNodeID("something").IsZero() {
		t.Error("non-zero NodeID should not be zero")
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if sum := a.Add(b); sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, want (5, 7, 9)", sum)
	}
	if diff := b.Sub(a); diff != (Vec3{3, 3, 3}) {
		t.Errorf("Sub = %v, want (3, 3, 3)", diff)
	}
	if scaled := a.Scale(2); scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want (2, 4, 6)", scaled)
	}
	if !(Vec3{}).IsZero() || a.IsZero() {
		t.Error("IsZero misreports")
	}
}

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{NodeSolid, "solid"},
		{NodeSurface, "surface"},
		{NodePath, "path"},
		{NodePoint, "point"},
		{NodeTransform, "transform"},
		{NodeBoolean, "boolean"},
		{NodeGroup, "group"},
		{NodeKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("NodeKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestNodeDataInterface(t *testing.T) {
	// Verify all concrete types implement NodeData at compile time.
	var _ NodeData = BoxData{}
	var _ NodeData = CylinderData{}
	var _ NodeData = PolygonData{}
	var _ NodeData = PolylineData{}
	var _ NodeData = PointData{}
	var _ NodeData = TransformData{}
	var _ NodeData = BooleanData{}
	var _ NodeData = GroupData{}
}

func TestAsGeolocation(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Geolocation
		wantErr bool
	}{
		{"struct", Geolocation{Latitude: 51.5}, Geolocation{Latitude: 51.5}, false},
		{"bare latitude", 1.3, Geolocation{Latitude: 1.3}, false},
		{"int latitude", 40, Geolocation{Latitude: 40}, false},
		{"one element", []any{22.0}, Geolocation{Latitude: 22}, false},
		{"three elements", []float64{-33.9, 1, 0}, Geolocation{Latitude: -33.9, North: [2]float64{1, 0}}, false},
		{"two elements", []float64{1, 2}, Geolocation{}, true},
		{"string", "north", Geolocation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsGeolocation(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if n := (Geolocation{}).NorthOrDefault(); n != [2]float64{0, 1} {
		t.Errorf("default north = %v, want +Y", n)
	}
}

func TestAsFloats(t *testing.T) {
	if _, err := AsFloats([]any{1.0, "x"}); err == nil {
		t.Error("mixed list should fail")
	}
	fs, err := AsFloats([]int{1, 2})
	if err != nil || fs[1] != 2 {
		t.Errorf("AsFloats([]int) = %v, %v", fs, err)
	}
	if _, err := AsFloats(3.0); err == nil {
		t.Error("scalar should fail")
	}
}
