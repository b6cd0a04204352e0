package sample

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxSolarDetail is the finest SolarPath level.
const MaxSolarDetail = 3

// Per detail level: days sampled across the half year and hours between
// samples on each day.
var (
	solarDaySteps  = [MaxSolarDetail + 1]float64{182.0 / 3, 182.0 / 6, 182.0 / 9, 182.0 / 12}
	solarHourSteps = [MaxSolarDetail + 1]float64{1, 0.75, 0.5, 0.25}
)

const (
	// declination change per day, from -23.5° at day -91 to +23.5° at day 91.
	declinationPerDay = 47.0 / 182
	hourAngle         = 15.0 // degrees per hour
	sunriseScanStep   = 0.1  // hours
	tropicLatitude    = 66.5 // degrees; the sun band is |dec| <= 90-66.5
)

// DayPaths holds one solar path per sampled day, each running from
// sunrise to sunset. A day with no sunrise (polar night) is empty.
type DayPaths [][]r3.Vec

// Flatten concatenates the days into one direction set.
func (p DayPaths) Flatten() Directions {
	return Directions(lo.Flatten(p))
}

// NorthRotation returns the angle in radians, about +Z, that turns +Y
// onto the XY north vector. A zero vector means +Y.
func NorthRotation(north [2]float64) float64 {
	if north == [2]float64{} {
		return 0
	}
	return math.Atan2(-north[0], north[1])
}

// sky orients equatorial directions for a site. In the equatorial frame
// +Y is the celestial pole and +Z is the meridian zenith at the equator.
type sky struct {
	lat   r3.Rotation
	north r3.Rotation
}

func newSky(latitude float64, north [2]float64) sky {
	return sky{
		lat:   r3.NewRotation(latitude*deg, r3.Vec{X: 1}),
		north: r3.NewRotation(NorthRotation(north), r3.Vec{Z: 1}),
	}
}

func (s sky) orient(v r3.Vec) r3.Vec {
	return s.north.Rotate(s.lat.Rotate(v))
}

// sunAt returns the sun direction at hour h (0 = midnight) of day d,
// counted from the equinox.
func (s sky) sunAt(d, h float64) r3.Vec {
	v := r3.Vec{Z: -1}
	v = r3.NewRotation(d*declinationPerDay*deg, r3.Vec{X: 1}).Rotate(v)
	// Negative about +Y so the morning sun rises in the east (+X).
	v = r3.NewRotation(-h*hourAngle*deg, r3.Vec{Y: 1}).Rotate(v)
	return s.orient(v)
}

// sunrise scans from midnight for the first hour with the sun at or
// above the horizon; ok is false for a polar night.
func (s sky) sunrise(d float64) (float64, bool) {
	for i := 0; ; i++ {
		h := float64(i) * sunriseScanStep
		if h > 12 {
			return 0, false
		}
		if s.sunAt(d, h).Z >= -horizonEps {
			return h, true
		}
	}
}

// SolarPath samples the sun's path for a site. latitude is in degrees
// (positive north) and north is the XY direction of true north.
func SolarPath(latitude float64, north [2]float64, detail int) (DayPaths, error) {
	if err := checkDetail(detail, MaxSolarDetail); err != nil {
		return nil, err
	}
	s := newSky(latitude, north)
	dayStep := solarDaySteps[detail]
	hourStep := solarHourSteps[detail]
	numDays := int(math.Round(182/dayStep)) + 1

	paths := make(DayPaths, numDays)
	for i := range paths {
		d := -91 + float64(i)*dayStep
		rise, ok := s.sunrise(d)
		if !ok {
			paths[i] = []r3.Vec{}
			continue
		}
		set := 24 - rise

		var morning, afternoon []float64
		for h := 12 - hourStep; h > rise+1e-9; h -= hourStep {
			morning = append(morning, h)
		}
		for h := 12 + hourStep; h < set-1e-9; h += hourStep {
			afternoon = append(afternoon, h)
		}

		hours := make([]float64, 0, len(morning)+len(afternoon)+3)
		hours = append(hours, rise)
		for k := len(morning) - 1; k >= 0; k-- {
			hours = append(hours, morning[k])
		}
		if rise < 12 {
			hours = append(hours, 12)
		}
		hours = append(hours, afternoon...)
		if set > rise {
			hours = append(hours, set)
		}

		path := make([]r3.Vec, len(hours))
		for j, h := range hours {
			path[j] = s.sunAt(d, h)
		}
		paths[i] = path
	}
	return paths, nil
}

// IndirectSky returns the icosphere directions outside the band the sun
// can occupy, oriented for the site and clipped to the upper hemisphere.
func IndirectSky(latitude float64, north [2]float64, detail int) (Directions, error) {
	if err := checkDetail(detail, MaxHemisphereDetail); err != nil {
		return nil, err
	}
	s := newSky(latitude, north)
	limit := math.Cos(tropicLatitude * deg)

	var out Directions
	for _, v := range icosphere(detail + 2) {
		if math.Abs(v.Y) <= limit {
			continue
		}
		if w := s.orient(v); w.Z > -horizonEps {
			out = append(out, w)
		}
	}
	return out, nil
}
