package analysis

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Result maps a metric name to one value per sensor, in input order. A
// nil value means the sensor had no valid samples for that metric.
type Result map[string][]*float64

func newResult(sensors int, metrics ...string) Result {
	r := make(Result, len(metrics))
	for _, m := range metrics {
		r[m] = make([]*float64, sensors)
	}
	return r
}

// set stores v for sensor i. Non-finite values are stored as nil.
// Concurrent calls for distinct sensors are safe.
func (r Result) set(metric string, i int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r[metric][i] = nil
		return
	}
	r[metric][i] = &v
}

// Metrics returns the metric names in sorted order.
func (r Result) Metrics() []string {
	return slices.Sorted(maps.Keys(r))
}

// Floats returns a metric as plain floats with NaN for missing values.
func (r Result) Floats(metric string) []float64 {
	return lo.Map(r[metric], func(v *float64, _ int) float64 {
		if v == nil {
			return math.NaN()
		}
		return *v
	})
}

// Select returns the named metrics. With no names it returns r. Unknown
// names are an error.
func (r Result) Select(metrics ...string) (Result, error) {
	if len(metrics) == 0 {
		return r, nil
	}
	out := make(Result, len(metrics))
	for _, m := range metrics {
		v, ok := r[m]
		if !ok {
			return nil, fmt.Errorf("%w: unknown metric %q (have %s)", ErrInvalidMethod, m, strings.Join(r.Metrics(), ", "))
		}
		out[m] = v
	}
	return out, nil
}

// Metric names.
const (
	MetricSkyExposure      = "sky_exposure"
	MetricDirectExposure   = "direct_exposure"
	MetricIndirectExposure = "indirect_exposure"
	MetricIrradiance       = "irradiance"
	MetricIrradianceRatio  = "irradiance_ratio"

	MetricAvgDist        = "avg_dist"
	MetricMinDist        = "min_dist"
	MetricMaxDist        = "max_dist"
	MetricArea           = "area"
	MetricPerimeter      = "perimeter"
	MetricAreaRatio      = "area_ratio"
	MetricPerimeterRatio = "perimeter_ratio"
	MetricCircularity    = "circularity"
	MetricCompactness    = "compactness"
	MetricVisibleRatio   = "visible_ratio"

	MetricCount         = "count"
	MetricCountRatio    = "count_ratio"
	MetricDistanceRatio = "distance_ratio"

	MetricNoiseLevel        = "noise_level"
	MetricUnobstructedRatio = "unobstructed_ratio"
	MetricWindExposure      = "wind_exposure"
)
