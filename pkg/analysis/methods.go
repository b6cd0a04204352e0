package analysis

import "fmt"

// SkyMethod selects the sky exposure weighting.
type SkyMethod int

const (
	SkyWeighted SkyMethod = iota
	SkyUnweighted
)

func (m SkyMethod) String() string {
	switch m {
	case SkyWeighted:
		return "weighted"
	case SkyUnweighted:
		return "unweighted"
	}
	return fmt.Sprintf("SkyMethod(%d)", int(m))
}

func (m SkyMethod) weighted() bool { return m == SkyWeighted }

func (m SkyMethod) valid() bool { return m == SkyWeighted || m == SkyUnweighted }

// ParseSkyMethod is the inverse of SkyMethod.String.
func ParseSkyMethod(s string) (SkyMethod, error) {
	for _, m := range []SkyMethod{SkyWeighted, SkyUnweighted} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: sky method %q", ErrInvalidMethod, s)
}

// SunMethod selects the solar direction set and its weighting.
type SunMethod int

const (
	DirectWeighted SunMethod = iota
	DirectUnweighted
	IndirectWeighted
	IndirectUnweighted
)

var sunMethods = []SunMethod{DirectWeighted, DirectUnweighted, IndirectWeighted, IndirectUnweighted}

func (m SunMethod) String() string {
	switch m {
	case DirectWeighted:
		return "direct_weighted"
	case DirectUnweighted:
		return "direct_unweighted"
	case IndirectWeighted:
		return "indirect_weighted"
	case IndirectUnweighted:
		return "indirect_unweighted"
	}
	return fmt.Sprintf("SunMethod(%d)", int(m))
}

func (m SunMethod) valid() bool {
	return m >= DirectWeighted && m <= IndirectUnweighted
}

func (m SunMethod) direct() bool {
	return m == DirectWeighted || m == DirectUnweighted
}

func (m SunMethod) weighted() bool {
	return m == DirectWeighted || m == IndirectWeighted
}

func (m SunMethod) metric() string {
	if m.direct() {
		return MetricDirectExposure
	}
	return MetricIndirectExposure
}

// ParseSunMethod is the inverse of SunMethod.String.
func ParseSunMethod(s string) (SunMethod, error) {
	for _, m := range sunMethods {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: sun method %q", ErrInvalidMethod, s)
}

// RaytraceMethod selects what Raytrace reports per batch.
type RaytraceMethod int

const (
	TraceStats RaytraceMethod = iota
	TraceDistances
	TraceHitPolygons
	TraceIntersections
	TraceAll
)

var raytraceMethods = []RaytraceMethod{TraceStats, TraceDistances, TraceHitPolygons, TraceIntersections, TraceAll}

func (m RaytraceMethod) String() string {
	switch m {
	case TraceStats:
		return "stats"
	case TraceDistances:
		return "distances"
	case TraceHitPolygons:
		return "hit_polygons"
	case TraceIntersections:
		return "intersections"
	case TraceAll:
		return "all"
	}
	return fmt.Sprintf("RaytraceMethod(%d)", int(m))
}

func (m RaytraceMethod) valid() bool {
	return m >= TraceStats && m <= TraceAll
}

// ParseRaytraceMethod is the inverse of RaytraceMethod.String.
func ParseRaytraceMethod(s string) (RaytraceMethod, error) {
	for _, m := range raytraceMethods {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: raytrace method %q", ErrInvalidMethod, s)
}
