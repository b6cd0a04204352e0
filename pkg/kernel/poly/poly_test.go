package poly

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/kernel"
)

const eps = 1e-9

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < eps
}

func TestBox(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Box(100, 50, 25))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Fatalf("box triangle count = %d, want 12", mesh.TriangleCount())
	}
	if len(mesh.Sources) != 12 {
		t.Fatalf("sources length = %d, want 12", len(mesh.Sources))
	}
	b := mesh.Bounds()
	if !near(b.Min, r3.Vec{}) || !near(b.Max, r3.Vec{X: 100, Y: 50, Z: 25}) {
		t.Errorf("bounds = %+v, want [0,0,0]-[100,50,25]", b)
	}
}

func TestBoxNormalsPointOutward(t *testing.T) {
	k := New()
	mesh, _ := k.ToMesh(k.Box(2, 2, 2))
	centre := r3.Vec{X: 1, Y: 1, Z: 1}
	for i := 0; i < mesh.TriangleCount(); i++ {
		tri := mesh.Triangle(i)
		n := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
		if r3.Dot(n, r3.Sub(tri[0], centre)) <= 0 {
			t.Errorf("triangle %d is wound inward", i)
		}
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Cylinder(10, 2, 16))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 64 {
		t.Errorf("cylinder triangle count = %d, want 64", mesh.TriangleCount())
	}
	min, max := k.Cylinder(10, 2, 16).BoundingBox()
	if math.Abs(min[2]+5) > eps || math.Abs(max[2]-5) > eps {
		t.Errorf("cylinder z range = [%g, %g], want [-5, 5]", min[2], max[2])
	}
	if math.Abs(max[0]-2) > eps {
		t.Errorf("cylinder x max = %g, want 2", max[0])
	}
}

func TestCylinderTooFewSegments(t *testing.T) {
	k := New()
	if _, err := k.ToMesh(k.Cylinder(1, 1, 2)); err == nil {
		t.Fatal("expected error for 2-segment cylinder")
	}
	// The error survives transforms and unions.
	s := k.Union(k.Box(1, 1, 1), k.Translate(k.Cylinder(1, 1, 2), 1, 0, 0))
	if _, err := k.ToMesh(s); err == nil {
		t.Fatal("expected error to propagate through union")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	min, max := k.Translate(k.Box(1, 2, 3), 10, 20, 30).BoundingBox()
	if min != [3]float64{10, 20, 30} || max != [3]float64{11, 22, 33} {
		t.Errorf("translated box = %v-%v", min, max)
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		in      r3.Vec
		want    r3.Vec
	}{
		{"z quarter turn", 0, 0, 90, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{"x quarter turn", 90, 0, 0, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"y quarter turn", 0, 90, 0, r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"x then z", 90, 0, 90, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"identity", 0, 0, 0, r3.Vec{X: 3, Y: 4, Z: 5}, r3.Vec{X: 3, Y: 4, Z: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kernel.RotateEuler(tt.in, tt.x, tt.y, tt.z); !near(got, tt.want) {
				t.Errorf("kernel.RotateEuler(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	k := New()
	min, max := k.Rotate(k.Box(2, 1, 1), 0, 0, 90).BoundingBox()
	if math.Abs(min[0]+1) > eps || math.Abs(max[1]-2) > eps {
		t.Errorf("rotated box = %v-%v, want x in [-1,0], y in [0,2]", min, max)
	}
}

func TestUnion(t *testing.T) {
	k := New()
	s := k.Union(k.Box(1, 1, 1), k.Translate(k.Box(1, 1, 1), 5, 0, 0))
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 24 {
		t.Errorf("union triangle count = %d, want 24", mesh.TriangleCount())
	}
}

func TestDifferenceAndIntersectionUnsupported(t *testing.T) {
	k := New()
	a, b := k.Box(2, 2, 2), k.Box(1, 1, 1)
	for name, s := range map[string]kernel.Solid{
		"difference":   k.Difference(a, b),
		"intersection": k.Intersection(a, b),
	} {
		_, err := k.ToMesh(s)
		if !errors.Is(err, kernel.ErrUnsupported) {
			t.Errorf("%s: err = %v, want ErrUnsupported", name, err)
		}
	}
}
