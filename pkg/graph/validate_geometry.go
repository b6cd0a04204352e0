package graph

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation
// ---------------------------------------------------------------------------

// validateGeometry checks the payload of every geometry node.
func validateGeometry(g *Scene) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			errs = append(errs, checkBox(node.ID, d)...)
		case CylinderData:
			errs = append(errs, checkCylinder(node.ID, d)...)
		case PolygonData:
			errs = append(errs, checkPolygon(node.ID, d)...)
		case PolylineData:
			errs = append(errs, checkPolyline(node, d)...)
		case PointData:
			if !finite(d.At) {
				errs = append(errs, geomError(node.ID, "point position is not finite"))
			}
		case TransformData:
			if (d.Translation != nil && !finite(*d.Translation)) || (d.Rotation != nil && !finite(*d.Rotation)) {
				errs = append(errs, geomError(node.ID, "transform is not finite"))
			}
		}
	}
	return errs
}

func geomError(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func geomWarning(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func finite(v Vec3) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// checkBox checks that every box dimension is positive.
func checkBox(id NodeID, d BoxData) []ValidationError {
	var errs []ValidationError
	for _, c := range []struct {
		axis string
		v    float64
	}{{"X", d.Dimensions.X}, {"Y", d.Dimensions.Y}, {"Z", d.Dimensions.Z}} {
		if !(c.v > 0) {
			errs = append(errs, geomError(id, "box dimension %s is %.4f, must be positive", c.axis, c.v))
		}
	}
	return errs
}

func checkCylinder(id NodeID, d CylinderData) []ValidationError {
	var errs []ValidationError
	if !(d.Height > 0) {
		errs = append(errs, geomError(id, "cylinder height is %.4f, must be positive", d.Height))
	}
	if !(d.Radius > 0) {
		errs = append(errs, geomError(id, "cylinder radius is %.4f, must be positive", d.Radius))
	}
	if d.Segments != 0 && d.Segments < 3 {
		errs = append(errs, geomError(id, "cylinder needs at least 3 segments, got %d", d.Segments))
	}
	return errs
}

// checkPolygon requires three finite vertices and warns when the polygon
// has no area, since a degenerate polygon never blocks a ray.
func checkPolygon(id NodeID, d PolygonData) []ValidationError {
	if len(d.Vertices) < 3 {
		return []ValidationError{geomError(id, "polygon needs at least 3 vertices, got %d", len(d.Vertices))}
	}
	for i, v := range d.Vertices {
		if !finite(v) {
			return []ValidationError{geomError(id, "polygon vertex %d is not finite", i)}
		}
	}
	if polygonArea(d.Vertices) < 1e-12 {
		return []ValidationError{geomWarning(id, "polygon has zero area")}
	}
	return nil
}

// polygonArea is the magnitude of the Newell normal divided by two.
func polygonArea(vs []Vec3) float64 {
	var n Vec3
	for i, a := range vs {
		b := vs[(i+1)%len(vs)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return math.Sqrt(n.X*n.X+n.Y*n.Y+n.Z*n.Z) / 2
}

func checkPolyline(n *Node, d PolylineData) []ValidationError {
	var errs []ValidationError
	if len(d.Points) < 2 {
		errs = append(errs, geomError(n.ID, "polyline needs at least 2 points, got %d", len(d.Points)))
	}
	for i, p := range d.Points {
		if !finite(p) {
			errs = append(errs, geomError(n.ID, "polyline point %d is not finite", i))
			break
		}
	}
	if v, ok := n.Attr(AttrTraffic); ok {
		q, err := AsFloat(v)
		switch {
		case err != nil:
			errs = append(errs, geomError(n.ID, "traffic: %v", err))
		case !(q > 0):
			errs = append(errs, geomError(n.ID, "traffic is %g vehicles/h, must be positive", q))
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 3: scene attributes
// ---------------------------------------------------------------------------

// validateAttributes checks the shape of the well-known scene attributes.
// Table lengths that depend on an analysis detail level are checked by the
// analysis itself.
func validateAttributes(g *Scene) []ValidationError {
	var errs []ValidationError
	sceneErr := func(format string, args ...any) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}

	if v, ok := g.Attr(AttrSkyRadiance); ok {
		fs, err := AsFloats(v)
		if err != nil {
			sceneErr("%s: %v", AttrSkyRadiance, err)
		} else {
			for i, f := range fs {
				if f < 0 || math.IsNaN(f) {
					sceneErr("%s[%d] is %g, must be non-negative", AttrSkyRadiance, i, f)
					break
				}
			}
		}
	}

	if v, ok := g.Attr(AttrWindRose); ok {
		fs, err := AsFloats(v)
		if err != nil {
			sceneErr("%s: %v", AttrWindRose, err)
		} else {
			errs = append(errs, checkWindRose(fs)...)
		}
	}

	if v, ok := g.Attr(AttrGeolocation); ok {
		geo, err := AsGeolocation(v)
		if err == nil {
			err = checkGeolocation(geo)
		}
		if err != nil {
			sceneErr("%s: %v", AttrGeolocation, err)
		}
	}
	return errs
}

func checkWindRose(fs []float64) []ValidationError {
	if len(fs) == 0 {
		return []ValidationError{{Message: AttrWindRose + " is empty", Severity: SeverityError}}
	}
	var sum float64
	for i, f := range fs {
		if f < 0 || math.IsNaN(f) {
			return []ValidationError{{
				Message:  fmt.Sprintf("%s[%d] is %g, must be non-negative", AttrWindRose, i, f),
				Severity: SeverityError,
			}}
		}
		sum += f
	}
	if sum == 0 {
		return []ValidationError{{Message: AttrWindRose + " has no wind in any direction", Severity: SeverityError}}
	}
	return nil
}
