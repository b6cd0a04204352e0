package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/umbra/pkg/graph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape is an unplaced, unnamed piece of geometry returned by box,
// cylinder, polygon, polyline and point. It becomes a node when it is
// named by defentity or consumed by place, group or a boolean.
type sexpShape struct {
	kind graph.NodeKind
	data graph.NodeData
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %T)", s.kind, s.data)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(entity %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	keys       []string // keyword order, for attributes
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if _, seen := result.kw[name]; !seen {
			result.keys = append(result.keys, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// spread flattens a single list argument, so (f 1 2 3) and
// (f (list 1 2 3)) read the same.
func spread(args []zygo.Sexp) []zygo.Sexp {
	if len(args) == 1 {
		if items, err := sexpListToSlice(args[0]); err == nil {
			return items
		}
	}
	return args
}

func toFloats(args []zygo.Sexp) ([]float64, error) {
	items := spread(args)
	out := make([]float64, len(items))
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func toVecs(args []zygo.Sexp) ([]graph.Vec3, error) {
	items := spread(args)
	out := make([]graph.Vec3, len(items))
	for i, it := range items {
		v, err := toVec3(it)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// toAttrValue converts a DSL value into an attribute value: numbers
// become float64, vectors and number lists become []float64.
func toAttrValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt, *zygo.SexpFloat:
		return toFloat64(v)
	case *zygo.SexpStr:
		if name, ok := isKW(v); ok {
			return name, nil
		}
		return v.S, nil
	case *sexpVec3:
		return []float64{v.vec.X, v.vec.Y, v.vec.Z}, nil
	}
	if items, err := sexpListToSlice(s); err == nil {
		return toFloats(items)
	}
	return nil, fmt.Errorf("unsupported attribute value %T (%s)", s, s.SexpString(nil))
}

// attrName maps a keyword to an attribute name: sky-radiance -> sky_radiance.
func attrName(kw string) string {
	return strings.ReplaceAll(kw, "-", "_")
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the scene DSL into a zygomys environment.
// The builtins populate b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// hyphenated names such as set-attr reach the registered set_attr.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range map[string]builtin{
		"vec3":         builtinVec3,
		"box":          builtinBox,
		"cylinder":     builtinCylinder,
		"polygon":      builtinPolygon,
		"polyline":     builtinPolyline,
		"point":        builtinPoint,
		"road":         b.road,
		"defentity":    b.defentity,
		"entity":       b.entity,
		"place":        b.place,
		"group":        b.group,
		"union":        b.boolean(graph.OpUnion),
		"difference":   b.boolean(graph.OpDifference),
		"intersection": b.boolean(graph.OpIntersection),
		"set_attr":     b.setAttr,
		"sky_radiance": b.sceneFloats(graph.AttrSkyRadiance),
		"wind_rose":    b.sceneFloats(graph.AttrWindRose),
		"geolocation":  b.geolocation,
	} {
		env.AddFunction(name, zygo.ZlispUserFunction(fn))
	}
}

// (vec3 1 2 3)
func builtinVec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: graph.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (box 10 20 30) or (box :size (vec3 10 20 30))
func builtinBox(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if v, ok := pa.kw["size"]; ok {
		d, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		return &sexpShape{kind: graph.NodeSolid, data: graph.BoxData{Dimensions: d}}, nil
	}
	fs, err := toFloats(pa.positional)
	if err != nil || len(fs) != 3 {
		return zygo.SexpNull, fmt.Errorf("box requires three dimensions or :size (vec3 x y z)")
	}
	d := graph.Vec3{X: fs[0], Y: fs[1], Z: fs[2]}
	return &sexpShape{kind: graph.NodeSolid, data: graph.BoxData{Dimensions: d}}, nil
}

// (cylinder :height 10 :radius 2 :segments 16)
func builtinCylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	var cd graph.CylinderData
	for _, f := range []struct {
		kw  string
		dst *float64
	}{{"height", &cd.Height}, {"radius", &cd.Radius}} {
		v, ok := pa.kw[f.kw]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder requires :%s", f.kw)
		}
		x, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", f.kw, err)
		}
		*f.dst = x
	}
	if v, ok := pa.kw["segments"]; ok {
		n, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
		}
		cd.Segments = int(n)
	}
	return &sexpShape{kind: graph.NodeSolid, data: cd}, nil
}

// (polygon (vec3 0 0 0) (vec3 10 0 0) (vec3 10 0 5))
func builtinPolygon(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	vs, err := toVecs(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polygon: %w", err)
	}
	return &sexpShape{kind: graph.NodeSurface, data: graph.PolygonData{Vertices: vs}}, nil
}

// (polyline (vec3 0 0 0) (vec3 100 0 0))
func builtinPolyline(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	ps, err := toVecs(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
	}
	return &sexpShape{kind: graph.NodePath, data: graph.PolylineData{Points: ps}}, nil
}

// (point (vec3 0 50 1.5))
func builtinPoint(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("point requires a single vec3")
	}
	v, err := toVec3(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("point: %w", err)
	}
	return &sexpShape{kind: graph.NodePoint, data: graph.PointData{At: v}}, nil
}

// (road "high-street" :traffic 1200 (vec3 -100 0 0) (vec3 100 0 0))
func (b *builder) road(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("road requires a name")
	}
	roadName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("road: name: %w", err)
	}
	pts, err := toVecs(pa.positional[1:])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("road: points: %w", err)
	}
	shape := &sexpShape{kind: graph.NodePath, data: graph.PolylineData{Points: pts}}
	return b.named(roadName, shape, pa)
}

// (defentity "tower" (box 10 10 40) :key value ...)
//
// A shape body becomes a named node carrying the keyword attributes. A
// node reference body (a place, group or boolean) is wrapped in a named
// group.
func (b *builder) defentity(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 2 {
		return zygo.SexpNull, fmt.Errorf("defentity requires a name and a body expression")
	}
	entName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defentity: name: %w", err)
	}
	return b.named(entName, pa.positional[1], pa)
}

// (entity "tower")
func (b *builder) entity(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("entity requires a name argument")
	}
	entName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("entity: name: %w", err)
	}
	n := b.g.Lookup(entName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("entity: no entity named %q", entName)
	}
	return &sexpNodeRef{id: n.ID, name: entName}, nil
}

// (place (entity "tower") :at (vec3 20 0 0) :rotate (vec3 0 0 45))
func (b *builder) place(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("place requires an entity or shape as first argument")
	}

	var children []graph.NodeID
	for i, arg := range pa.positional {
		id, err := b.nodeOf(arg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: argument %d: %w", i, err)
		}
		children = append(children, id)
	}

	td := graph.TransformData{}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}
		td.Translation = &vec
	}
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
		}
		td.Rotation = &vec
	}

	// Prefer a deterministic ID derived from the child name.
	idPath := b.anonPath("place")
	if c := b.g.Get(children[0]); c != nil && c.Name != "" {
		if p := "place/" + c.Name; b.g.Get(graph.NewNodeID(p)) == nil {
			idPath = p
		}
	}
	id := graph.NewNodeID(idPath)
	b.add(&graph.Node{
		ID:       id,
		Kind:     graph.NodeTransform,
		Children: children,
		Data:     td,
	})
	return &sexpNodeRef{id: id}, nil
}

// (group "block" (place ...) (entity "wall") ...)
func (b *builder) group(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("group requires a name argument")
	}
	grpName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
	}
	if b.g.Lookup(grpName) != nil {
		return zygo.SexpNull, fmt.Errorf("group: duplicate name %q", grpName)
	}

	var children []graph.NodeID
	for i, arg := range args[1:] {
		id, err := b.nodeOf(arg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: child %d: %w", i+1, err)
		}
		children = append(children, id)
	}

	id := graph.NewNodeID("group/" + grpName)
	b.add(&graph.Node{
		ID:       id,
		Kind:     graph.NodeGroup,
		Name:     grpName,
		Children: children,
		Data:     graph.GroupData{Description: grpName},
	})
	return &sexpNodeRef{id: id, name: grpName}, nil
}

// (union a b ...), (difference base cut ...), (intersection a b ...)
func (b *builder) boolean(op graph.BoolOp) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 operands, got %d", op, len(args))
		}
		var children []graph.NodeID
		for i, arg := range args {
			id, err := b.nodeOf(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i, err)
			}
			children = append(children, id)
		}
		id := graph.NewNodeID(b.anonPath(op.String()))
		b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeBoolean,
			Children: children,
			Data:     graph.BooleanData{Op: op},
		})
		return &sexpNodeRef{id: id}, nil
	}
}

// (set-attr "high-street" :traffic 900)
func (b *builder) setAttr(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("set-attr requires an entity name")
	}
	entName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: name: %w", err)
	}
	n := b.g.Lookup(entName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: no entity named %q", entName)
	}
	if err := applyAttrs(n, pa); err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: %w", err)
	}
	return &sexpNodeRef{id: n.ID, name: entName}, nil
}

// (sky-radiance 1.0 2.0 ...) and (wind-rose 4 2 1 ...)
func (b *builder) sceneFloats(attr string) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		fs, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", attr, err)
		}
		b.g.SetAttr(attr, fs)
		return zygo.SexpNull, nil
	}
}

// (geolocation :latitude 51.5 :north (vec3 0 1 0))
func (b *builder) geolocation(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	v, ok := pa.kw["latitude"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("geolocation requires :latitude")
	}
	lat, err := toFloat64(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("geolocation: latitude: %w", err)
	}
	geo := graph.Geolocation{Latitude: lat}
	if v, ok := pa.kw["north"]; ok {
		n, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("geolocation: north: %w", err)
		}
		geo.North = [2]float64{n.X, n.Y}
	}
	b.g.SetAttr(graph.AttrGeolocation, geo)
	return zygo.SexpNull, nil
}

func applyAttrs(n *graph.Node, pa kwArgs) error {
	for _, k := range pa.keys {
		v, err := toAttrValue(pa.kw[k])
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if n.Attrs == nil {
			n.Attrs = make(map[string]any)
		}
		n.Attrs[attrName(k)] = v
	}
	return nil
}
