package trajectory

import (
	"sort"
)

// assemble is the final pass: sort strictly by timestamp and drop
// exact-duplicate timestamps, keeping the first occurrence. All substantive
// logic lives upstream; this stage stays intentionally simple.
func assemble(points []Point) []Point {
	if len(points) == 0 {
		return points
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	out := points[:1]
	for _, p := range points[1:] {
		if p.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, p)
	}
	return out
}
