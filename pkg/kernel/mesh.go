package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle mesh used as the obstruction buffer for ray casting.
// Arrays are flat: Vertices has 3 floats per vertex (x,y,z), Indices has
// 3 entries per triangle, and Sources has one entry per triangle naming
// the scene entity the triangle came from.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Sources  []string  `json:"sources"`  // per triangle; empty strings when unknown
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Indices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) r3.Triangle {
	return r3.Triangle{
		m.Vertex(int(m.Indices[3*i])),
		m.Vertex(int(m.Indices[3*i+1])),
		m.Vertex(int(m.Indices[3*i+2])),
	}
}

// Source returns the entity that produced triangle i, or "".
func (m *Mesh) Source(i int) string {
	if i < len(m.Sources) {
		return m.Sources[i]
	}
	return ""
}

// SetSource labels every triangle with src.
func (m *Mesh) SetSource(src string) {
	m.Sources = make([]string, m.TriangleCount())
	for i := range m.Sources {
		m.Sources[i] = src
	}
}

// AddTriangle appends a triangle with its own three vertices.
func (m *Mesh) AddTriangle(a, b, c r3.Vec, src string) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, a.X, a.Y, a.Z, b.X, b.Y, b.Z, c.X, c.Y, c.Z)
	m.Indices = append(m.Indices, base, base+1, base+2)
	m.Sources = append(m.Sources, src)
}

// Bounds returns the axis-aligned bounding box of all vertices. An empty
// mesh returns an inverted box (Min > Max) that contains nothing.
func (m *Mesh) Bounds() r3.Box {
	inf := math.Inf(1)
	b := r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
	}
	return b
}

// Merge concatenates meshes into one buffer, re-basing indices and keeping
// the per-triangle source map aligned. Nil meshes are skipped.
func Merge(meshes ...*Mesh) *Mesh {
	var nv, nt int
	for _, m := range meshes {
		if m != nil {
			nv += len(m.Vertices)
			nt += m.TriangleCount()
		}
	}
	out := &Mesh{
		Vertices: make([]float64, 0, nv),
		Indices:  make([]uint32, 0, nt*3),
		Sources:  make([]string, 0, nt),
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
		for i := 0; i < m.TriangleCount(); i++ {
			out.Sources = append(out.Sources, m.Source(i))
		}
	}
	return out
}
