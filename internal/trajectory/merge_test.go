package trajectory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func pointAt(t time.Time) Point {
	return Point{Time: t, ICAO24: "40621d", Lat: 52.0, Lon: 4.0}
}

func reportAt(t time.Time, speed float64) velocityReport {
	return velocityReport{
		Time:     t,
		Velocity: f64(speed),
		Heading:  f64(183.0),
		VertRate: f64(-4.2),
	}
}

func TestMergeWithinTolerance(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	points := []Point{pointAt(base)}
	reports := []velocityReport{reportAt(base.Add(2*time.Second), 81.9)}

	merged := mergeVelocities(points, reports, 5*time.Second)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Velocity)
	assert.Equal(t, 81.9, *merged[0].Velocity)
	assert.Equal(t, 183.0, *merged[0].Heading)
	assert.Equal(t, -4.2, *merged[0].VertRate)
}

func TestMergeOutsideToleranceLeavesNil(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	points := []Point{pointAt(base)}
	reports := []velocityReport{reportAt(base.Add(30*time.Second), 81.9)}

	merged := mergeVelocities(points, reports, 5*time.Second)
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].Velocity)
	assert.Nil(t, merged[0].Heading)
	assert.Nil(t, merged[0].VertRate)
}

func TestMergePrefersClosestReport(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	points := []Point{pointAt(base)}
	reports := []velocityReport{
		reportAt(base.Add(-4*time.Second), 70.0),
		reportAt(base.Add(1*time.Second), 80.0),
		reportAt(base.Add(3*time.Second), 90.0),
	}

	merged := mergeVelocities(points, reports, 5*time.Second)
	require.NotNil(t, merged[0].Velocity)
	assert.Equal(t, 80.0, *merged[0].Velocity)
}

func TestMergeOneToOne(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	// One report between two points: only the earlier (closer) point may
	// claim it.
	points := []Point{pointAt(base), pointAt(base.Add(3 * time.Second))}
	reports := []velocityReport{reportAt(base.Add(time.Second), 80.0)}

	merged := mergeVelocities(points, reports, 5*time.Second)
	require.Len(t, merged, 2)
	require.NotNil(t, merged[0].Velocity)
	assert.Equal(t, 80.0, *merged[0].Velocity)
	assert.Nil(t, merged[1].Velocity)
}

func TestMergeFirstComeInTimestampOrder(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	// The report sits exactly between both points. First-come wins: the
	// earlier point claims it even though the later is equally close.
	points := []Point{pointAt(base), pointAt(base.Add(4 * time.Second))}
	reports := []velocityReport{reportAt(base.Add(2*time.Second), 80.0)}

	merged := mergeVelocities(points, reports, 5*time.Second)
	require.NotNil(t, merged[0].Velocity)
	assert.Nil(t, merged[1].Velocity)
}

func TestMergeIdempotent(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	points := []Point{pointAt(base), pointAt(base.Add(time.Second))}
	reports := []velocityReport{
		reportAt(base, 80.0),
		reportAt(base.Add(time.Second), 82.0),
	}

	once := mergeVelocities(points, reports, 5*time.Second)
	again := mergeVelocities(append([]Point(nil), once...), nil, 5*time.Second)
	assert.Equal(t, once, again)
}

func TestAssembleSortsAndDedups(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	a := pointAt(base)
	b := pointAt(base.Add(time.Second))
	dup := pointAt(base.Add(time.Second))
	dup.Lat = 99 // must lose to the first occurrence
	c := pointAt(base.Add(2 * time.Second))

	out := assemble([]Point{c, a, b, dup})
	require.Len(t, out, 3)
	assert.Equal(t, a.Time, out[0].Time)
	assert.Equal(t, b.Time, out[1].Time)
	assert.Equal(t, 52.0, out[1].Lat)
	assert.Equal(t, c.Time, out[2].Time)
}

func TestAssembleEmpty(t *testing.T) {
	assert.Empty(t, assemble(nil))
}
