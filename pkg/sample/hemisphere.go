package sample

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxHemisphereDetail is the finest Hemisphere and IndirectSky level.
const MaxHemisphereDetail = 3

var icoFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

func icoVertices() []r3.Vec {
	t := (1 + math.Sqrt(5)) / 2
	vs := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range vs {
		vs[i] = r3.Unit(vs[i])
	}
	return vs
}

// icosphere returns the unit vertices of an icosahedron after order
// rounds of 4-way subdivision: 10·4^order + 2 points.
func icosphere(order int) []r3.Vec {
	verts := icoVertices()
	faces := icoFaces[:]

	for range order {
		cache := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := cache[key]; ok {
				return i
			}
			verts = append(verts, r3.Unit(r3.Scale(0.5, r3.Add(verts[a], verts[b]))))
			cache[key] = len(verts) - 1
			return len(verts) - 1
		}

		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			a := midpoint(f[0], f[1])
			b := midpoint(f[1], f[2])
			c := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], a, c},
				[3]int{f[1], b, a},
				[3]int{f[2], c, b},
				[3]int{a, b, c},
			)
		}
		faces = next
	}
	return verts
}

// Hemisphere returns the upper half (z > -1e-6) of the icosphere of
// order detail+2: 89, 337, 1313 and 5185 directions for detail 0..3.
func Hemisphere(detail int) (Directions, error) {
	if err := checkDetail(detail, MaxHemisphereDetail); err != nil {
		return nil, err
	}
	var out Directions
	for _, v := range icosphere(detail + 2) {
		if v.Z > -horizonEps {
			out = append(out, v)
		}
	}
	return out, nil
}
