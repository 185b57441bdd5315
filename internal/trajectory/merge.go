package trajectory

import (
	"time"
)

// velocityReport is one classified airborne velocity frame, already
// converted to output units.
type velocityReport struct {
	Time     time.Time
	Velocity *float64 // m/s
	Heading  *float64 // degrees
	VertRate *float64 // m/s
}

// mergeVelocities attaches velocity reports to position points by
// nearest-timestamp matching within a tolerance. Matching is one-to-one in
// timestamp order: each point claims the closest still-unclaimed report, so
// no two points share one. Points with no report in range keep nil
// telemetry; a trajectory with partial telemetry is still useful.
//
// Both inputs must be in non-decreasing time order. Merging an
// already-merged series with no reports returns it unchanged.
func mergeVelocities(points []Point, reports []velocityReport, tolerance time.Duration) []Point {
	if len(points) == 0 || len(reports) == 0 {
		return points
	}

	claimed := make([]bool, len(reports))
	lo := 0

	for i := range points {
		t := points[i].Time

		// Skip reports that fell out of range of every remaining point.
		for lo < len(reports) && t.Sub(reports[lo].Time) > tolerance {
			lo++
		}

		best := -1
		var bestDelta time.Duration
		for j := lo; j < len(reports); j++ {
			delta := reports[j].Time.Sub(t)
			if delta < 0 {
				delta = -delta
			}
			if delta > tolerance {
				if reports[j].Time.After(t) {
					break
				}
				continue
			}
			if claimed[j] {
				continue
			}
			if best == -1 || delta < bestDelta {
				best = j
				bestDelta = delta
			}
		}

		if best == -1 {
			continue
		}
		claimed[best] = true
		points[i].Velocity = reports[best].Velocity
		points[i].Heading = reports[best].Heading
		points[i].VertRate = reports[best].VertRate
	}

	return points
}
