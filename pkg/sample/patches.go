package sample

// MaxPatchDetail is the finest SkyPatches level.
const MaxPatchDetail = 4

// Tregenza bands: patches per 12° altitude band from the horizon to 84°.
var bandCounts = [7]int{30, 30, 24, 24, 18, 12, 6}

// Subdivision factor per detail level. Level 0 is the 145-patch
// Tregenza sky; level n splits every band into m×m.
var bandSplit = [MaxPatchDetail + 1]int{1, 2, 3, 4, 6}

// Rings above 84°, outermost first. A one-patch ring sits at the zenith.
var apexRings = [MaxPatchDetail + 1][]int{
	{1},
	{4},
	{6, 1},
	{12, 4},
	{18, 12, 6},
}

// PatchCount returns the number of sky patches at a detail level, or -1
// for an unknown level: 145, 580, 1303, 2320 and 5220 for 0..4.
func PatchCount(detail int) int {
	if checkDetail(detail, MaxPatchDetail) != nil {
		return -1
	}
	m := bandSplit[detail]
	n := 0
	for _, c := range bandCounts {
		n += c * m * m
	}
	for _, c := range apexRings[detail] {
		n += c
	}
	return n
}

// SkyPatches returns the centre direction of every sky patch, band by
// band from the horizon up, each band starting at north and running
// clockwise.
func SkyPatches(detail int) (Directions, error) {
	if err := checkDetail(detail, MaxPatchDetail); err != nil {
		return nil, err
	}
	m := bandSplit[detail]
	h := 12.0 / float64(m)

	out := make(Directions, 0, PatchCount(detail))
	ring := func(alt float64, count int) {
		if count == 1 {
			out = append(out, fromAltAz(90, 0))
			return
		}
		for j := range count {
			out = append(out, fromAltAz(alt, float64(j)*360/float64(count)))
		}
	}

	for i, c := range bandCounts {
		for s := range m {
			ring(float64(i)*12+(float64(s)+0.5)*h, c*m)
		}
	}
	for r, c := range apexRings[detail] {
		ring(84+(float64(r)+0.5)*h, c)
	}
	return out, nil
}
