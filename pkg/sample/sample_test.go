package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func assertUnit(t *testing.T, ds Directions) {
	t.Helper()
	for i, d := range ds {
		if math.Abs(r3.Norm(d)-1) > 1e-9 {
			t.Fatalf("direction %d = %v is not unit length", i, d)
		}
	}
}

func TestHemisphereCounts(t *testing.T) {
	want := []int{89, 337, 1313, 5185}
	for detail, n := range want {
		ds, err := Hemisphere(detail)
		require.NoError(t, err)
		assert.Len(t, ds, n, "detail %d", detail)
		assertUnit(t, ds)
		for _, d := range ds {
			require.GreaterOrEqual(t, d.Z, -1e-6)
		}
	}
}

func TestDetailOutOfRange(t *testing.T) {
	_, err := Hemisphere(4)
	assert.ErrorIs(t, err, ErrInvalidDetailLevel)
	_, err = Hemisphere(-1)
	assert.ErrorIs(t, err, ErrInvalidDetailLevel)
	_, err = SkyPatches(5)
	assert.ErrorIs(t, err, ErrInvalidDetailLevel)
	_, err = SolarPath(0, [2]float64{}, 4)
	assert.ErrorIs(t, err, ErrInvalidDetailLevel)
	_, err = IndirectSky(0, [2]float64{}, 9)
	assert.ErrorIs(t, err, ErrInvalidDetailLevel)
	assert.Equal(t, -1, PatchCount(7))
}

func TestSkyPatches(t *testing.T) {
	want := []int{145, 580, 1303, 2320, 5220}
	for detail, n := range want {
		assert.Equal(t, n, PatchCount(detail), "PatchCount(%d)", detail)
		ds, err := SkyPatches(detail)
		require.NoError(t, err)
		assert.Len(t, ds, n, "detail %d", detail)
		assertUnit(t, ds)
		for _, d := range ds {
			require.Greater(t, d.Z, 0.0)
		}
	}

	ds, _ := SkyPatches(0)
	// First patch: lowest band, due north, 6° up.
	assert.InDelta(t, 0, ds[0].X, 1e-12)
	assert.InDelta(t, math.Sin(6*deg), ds[0].Z, 1e-12)
	// Last patch is the zenith.
	assert.InDelta(t, 1, ds[len(ds)-1].Z, 1e-12)
}

func TestFan(t *testing.T) {
	full, err := Fan(4, 2*math.Pi)
	require.NoError(t, err)
	want := []r3.Vec{{Y: 1}, {X: 1}, {Y: -1}, {X: -1}}
	for i := range want {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(full[i], want[i])), 1e-12, "ray %d", i)
	}

	part, err := Fan(3, math.Pi/2)
	require.NoError(t, err)
	assert.InDelta(t, -math.Sin(math.Pi/4), part[0].X, 1e-12)
	assert.InDelta(t, 1, part[1].Y, 1e-12)
	assert.InDelta(t, math.Sin(math.Pi/4), part[2].X, 1e-12)
	assertUnit(t, part)

	assert.InDelta(t, math.Pi/2, FanStep(4, 2*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi/4, FanStep(3, math.Pi/2), 1e-12)
}

func TestFanErrors(t *testing.T) {
	_, err := Fan(0, 2*math.Pi)
	assert.ErrorIs(t, err, ErrInvalidRayCount)
	_, err = Fan(1, math.Pi)
	assert.ErrorIs(t, err, ErrInvalidRayCount)
	_, err = Fan(8, 0)
	assert.ErrorIs(t, err, ErrInvalidViewAngle)
	_, err = Fan(8, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidViewAngle)
}

func TestSolarPathEquinoxAtEquator(t *testing.T) {
	paths, err := SolarPath(0, [2]float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, paths, 7)

	// Day index 3 is the equinox: sunrise due east at 06:00, sunset
	// due west at 18:00, noon overhead.
	day := paths[3]
	require.NotEmpty(t, day)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(day[0], r3.Vec{X: 1})), 1e-6)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(day[len(day)-1], r3.Vec{X: -1})), 1e-6)

	var top float64
	for _, v := range day {
		top = math.Max(top, v.Z)
		require.GreaterOrEqual(t, v.Z, -1e-6)
	}
	assert.InDelta(t, 1, top, 1e-9)
	assertUnit(t, paths.Flatten())
}

func TestSolarPathDayCounts(t *testing.T) {
	for detail, n := range []int{4, 7, 10, 13} {
		paths, err := SolarPath(45, [2]float64{}, detail)
		require.NoError(t, err)
		assert.Len(t, paths, n, "detail %d", detail)
	}
}

func TestSolarPathPolarNight(t *testing.T) {
	paths, err := SolarPath(80, [2]float64{}, 0)
	require.NoError(t, err)
	// Day -91 is the winter solstice; at 80°N the sun never rises.
	assert.Empty(t, paths[0])
	// Day 91 is midsummer; the sun never sets.
	assert.NotEmpty(t, paths[len(paths)-1])
}

func TestSolarPathNorthRotation(t *testing.T) {
	// With north along +X the noon sun in the northern hemisphere sits
	// to the south, which is now -X.
	paths, err := SolarPath(50, [2]float64{1, 0}, 1)
	require.NoError(t, err)
	day := paths[3]
	noon := day[len(day)/2]
	assert.Less(t, noon.X, 0.0)
	assert.InDelta(t, 0, noon.Y, 1e-9)
}

func TestNorthRotation(t *testing.T) {
	assert.Equal(t, 0.0, NorthRotation([2]float64{}))
	assert.InDelta(t, 0, NorthRotation([2]float64{0, 1}), 1e-12)
	assert.InDelta(t, -math.Pi/2, NorthRotation([2]float64{1, 0}), 1e-12)
}

func TestIndirectSky(t *testing.T) {
	ds, err := IndirectSky(0, [2]float64{}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, ds)
	assertUnit(t, ds)
	limit := math.Cos(66.5 * deg)
	for _, d := range ds {
		require.Greater(t, d.Z, -1e-6)
		// At the equator the orientation is the identity.
		require.Greater(t, math.Abs(d.Y), limit)
	}
}
