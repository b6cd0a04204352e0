package engine

import (
	"testing"

	"github.com/chazu/umbra/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(cylinder :height 10)`,
			expect: `(cylinder "__kw_height" 10)`,
		},
		{
			name:   "multiple keywords",
			input:  `(place x :at v :rotate r)`,
			expect: `(place x "__kw_at" v "__kw_rotate" r)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(set-attr "high-street" :traffic 900)`,
			expect: `(set_attr "high-street" "__kw_traffic" 900)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -1 0 -2.5)`,
			expect: `(vec3 -1 0 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:sky-radiance`,
			expect: `"__kw_sky-radiance"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func mustEval(t *testing.T, source string) *graph.Scene {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil scene")
	}
	return g
}

func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil scene on eval error")
	}
	return evalErrs
}

// ---------------------------------------------------------------------------
// Entity tests
// ---------------------------------------------------------------------------

func TestSimpleBox(t *testing.T) {
	g := mustEval(t, `(defentity "tower" (box 10 12 40))`)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	tower := g.Lookup("tower")
	if tower == nil {
		t.Fatal("expected node named 'tower'")
	}
	if tower.Kind != graph.NodeSolid {
		t.Errorf("expected NodeSolid, got %s", tower.Kind)
	}
	bd, ok := tower.Data.(graph.BoxData)
	if !ok {
		t.Fatalf("expected BoxData, got %T", tower.Data)
	}
	if bd.Dimensions != (graph.Vec3{X: 10, Y: 12, Z: 40}) {
		t.Errorf("dimensions = %+v, want 10x12x40", bd.Dimensions)
	}
	if len(g.Roots) != 1 || g.Roots[0] != tower.ID {
		t.Errorf("roots = %v, want [tower]", g.Roots)
	}
}

func TestBoxSizeKeyword(t *testing.T) {
	g := mustEval(t, `(defentity "slab" (box :size (vec3 5 6 0.3)))`)
	bd := g.MustLookup("slab").Data.(graph.BoxData)
	if bd.Dimensions.Z != 0.3 {
		t.Errorf("thickness = %g, want 0.3", bd.Dimensions.Z)
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEval(t, `
(def h 19)
(defentity "mast" (cylinder :height h :radius 0.5 :segments 8))
`)
	cd, ok := g.MustLookup("mast").Data.(graph.CylinderData)
	if !ok {
		t.Fatalf("expected CylinderData, got %T", g.MustLookup("mast").Data)
	}
	if cd.Height != 19 || cd.Radius != 0.5 || cd.Segments != 8 {
		t.Errorf("cylinder = %+v, want h=19 r=0.5 seg=8", cd)
	}
}

func TestPlacementAndGroup(t *testing.T) {
	g := mustEval(t, `
(defentity "tower" (box 10 10 40))
(defentity "wall" (polygon (vec3 0 5 0) (vec3 5 5 0) (vec3 5 5 3)))
(group "block"
  (place (entity "tower") :at (vec3 20 0 0) :rotate (vec3 0 0 45))
  (entity "wall"))
`)
	block := g.Lookup("block")
	if block == nil {
		t.Fatal("expected group 'block'")
	}
	if len(block.Children) != 2 {
		t.Fatalf("block children = %d, want 2", len(block.Children))
	}
	place := g.Get(block.Children[0])
	if place == nil || place.Kind != graph.NodeTransform {
		t.Fatalf("first child should be a transform, got %+v", place)
	}
	td := place.Data.(graph.TransformData)
	if td.Translation == nil || td.Translation.X != 20 {
		t.Errorf("translation = %v, want x=20", td.Translation)
	}
	if td.Rotation == nil || td.Rotation.Z != 45 {
		t.Errorf("rotation = %v, want z=45", td.Rotation)
	}
	if len(g.Roots) != 1 || g.Roots[0] != block.ID {
		t.Errorf("only the group should be a root, got %d roots", len(g.Roots))
	}
	if res := graph.ValidateAll(g); !res.OK() {
		t.Errorf("scene should validate, got %v", res.Errors)
	}
}

func TestPlaceAnonymousShape(t *testing.T) {
	g := mustEval(t, `(group "site" (place (box 1 1 1) :at (vec3 0 0 5)))`)
	if g.NodeCount() != 3 {
		t.Fatalf("expected box, place and group nodes, got %d", g.NodeCount())
	}
	if len(g.OfKind(graph.NodeSolid)) != 1 {
		t.Error("expected one anonymous solid")
	}
}

func TestRoadAndAttributes(t *testing.T) {
	g := mustEval(t, `
(road "high-street" :traffic 1200 (vec3 -100 0 0) (vec3 100 0 0))
(defentity "target" (point (vec3 0 50 1.5)) :height 1.5)
(set-attr "high-street" :speed-limit 30)
`)
	road := g.MustLookup("high-street")
	if road.Kind != graph.NodePath {
		t.Fatalf("road kind = %s, want path", road.Kind)
	}
	if v, _ := road.Attr(graph.AttrTraffic); v != 1200.0 {
		t.Errorf("traffic = %v, want 1200", v)
	}
	if v, _ := road.Attr("speed_limit"); v != 30.0 {
		t.Errorf("speed_limit = %v, want 30", v)
	}
	pd := road.Data.(graph.PolylineData)
	if len(pd.Points) != 2 {
		t.Errorf("road points = %d, want 2", len(pd.Points))
	}
	target := g.MustLookup("target")
	if target.Kind != graph.NodePoint {
		t.Errorf("target kind = %s, want point", target.Kind)
	}
}

func TestBooleans(t *testing.T) {
	g := mustEval(t, `
(defentity "courtyard-block"
  (difference (box 40 40 20) (place (box 20 20 30) :at (vec3 10 10 -5))))
`)
	ent := g.MustLookup("courtyard-block")
	if ent.Kind != graph.NodeGroup || len(ent.Children) != 1 {
		t.Fatalf("entity should wrap the boolean, got %+v", ent)
	}
	b := g.Get(ent.Children[0])
	if b.Kind != graph.NodeBoolean || b.Data.(graph.BooleanData).Op != graph.OpDifference {
		t.Fatalf("child = %+v, want difference", b)
	}
	if len(b.Children) != 2 {
		t.Errorf("difference operands = %d, want 2", len(b.Children))
	}
	if res := graph.ValidateAll(g); !res.OK() {
		t.Errorf("scene should validate, got %v", res.Errors)
	}
}

func TestSceneAttributes(t *testing.T) {
	g := mustEval(t, `
(sky-radiance (list 1 2 3))
(wind-rose 4 2 1 3)
(geolocation :latitude 51.5 :north (vec3 1 1 0))
`)
	sky, _ := g.Attr(graph.AttrSkyRadiance)
	if fs, ok := sky.([]float64); !ok || len(fs) != 3 || fs[2] != 3 {
		t.Errorf("sky radiance = %v, want [1 2 3]", sky)
	}
	rose, _ := g.Attr(graph.AttrWindRose)
	if fs, ok := rose.([]float64); !ok || len(fs) != 4 {
		t.Errorf("wind rose = %v, want 4 bins", rose)
	}
	v, _ := g.Attr(graph.AttrGeolocation)
	geo, err := graph.AsGeolocation(v)
	if err != nil {
		t.Fatalf("AsGeolocation: %v", err)
	}
	if geo.Latitude != 51.5 || geo.North != [2]float64{1, 1} {
		t.Errorf("geolocation = %+v", geo)
	}
}

// ---------------------------------------------------------------------------
// Error cases
// ---------------------------------------------------------------------------

func TestEntityLookupError(t *testing.T) {
	errs := evalErrors(t, `(place (entity "nope") :at (vec3 0 0 0))`)
	if len(errs) == 0 {
		t.Fatal("expected eval error for unknown entity")
	}
}

func TestDuplicateEntityName(t *testing.T) {
	errs := evalErrors(t, `
(defentity "a" (box 1 1 1))
(defentity "a" (box 2 2 2))
`)
	if len(errs) == 0 {
		t.Fatal("expected eval error for duplicate name")
	}
}

func TestBooleanNeedsTwoOperands(t *testing.T) {
	if errs := evalErrors(t, `(union (box 1 1 1))`); len(errs) == 0 {
		t.Fatal("expected eval error for single-operand union")
	}
}

func TestVec3Arity(t *testing.T) {
	if errs := evalErrors(t, `(vec3 1 2)`); len(errs) == 0 {
		t.Fatal("expected eval error for vec3 with 2 args")
	}
}

func TestDeterministicIDs(t *testing.T) {
	src := `(group "g" (place (box 1 1 1) :at (vec3 1 0 0)) (place (box 1 1 1) :at (vec3 2 0 0)))`
	a := mustEval(t, src)
	b := mustEval(t, src)
	for id := range a.Nodes {
		if b.Get(id) == nil {
			t.Fatalf("node %s missing from second evaluation", id.Short())
		}
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := mustEval(t, `
(def w (* 2 5))
(defentity "b" (box w w (+ w 1)))
`)
	bd := g.MustLookup("b").Data.(graph.BoxData)
	if bd.Dimensions.Z != 11 {
		t.Errorf("z = %g, want 11", bd.Dimensions.Z)
	}
}
