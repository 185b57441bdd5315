package trajectory

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultCompareTolerance is the nearest-timestamp pairing window when
// aligning two trajectories for comparison.
const DefaultCompareTolerance = 5 * time.Second

// CompareOptions tunes trajectory comparison.
type CompareOptions struct {
	MatchTolerance time.Duration
}

// Deviation summarizes how far a rebuilt trajectory strays from a reference
// one (typically the precomputed state-vector fast path).
type Deviation struct {
	RebuiltPoints   int
	ReferencePoints int
	Matched         int

	// Horizontal great-circle deviation over matched pairs, metres.
	MeanM   float64
	MedianM float64
	P95M    float64
	MaxM    float64
	RMSM    float64

	// Mean absolute barometric altitude deviation over matched pairs
	// that carry altitude on both sides, metres.
	AltMatched int
	MeanAltM   float64
}

func (d Deviation) String() string {
	return fmt.Sprintf(
		"matched %d/%d rebuilt vs %d reference points; horizontal deviation mean=%.1fm median=%.1fm p95=%.1fm max=%.1fm rms=%.1fm; altitude mean=%.1fm over %d pairs",
		d.Matched, d.RebuiltPoints, d.ReferencePoints,
		d.MeanM, d.MedianM, d.P95M, d.MaxM, d.RMSM,
		d.MeanAltM, d.AltMatched)
}

// Compare aligns two time-ordered trajectories by nearest timestamp within
// the tolerance (one-to-one, like the velocity merger) and reports deviation
// statistics over the matched pairs. An empty intersection yields ErrNoData.
func Compare(rebuilt, reference []Point, opts CompareOptions) (Deviation, error) {
	if opts.MatchTolerance <= 0 {
		opts.MatchTolerance = DefaultCompareTolerance
	}

	dev := Deviation{
		RebuiltPoints:   len(rebuilt),
		ReferencePoints: len(reference),
	}

	claimed := make([]bool, len(reference))
	var dists, sq, altDiffs []float64
	lo := 0

	for _, p := range rebuilt {
		for lo < len(reference) && p.Time.Sub(reference[lo].Time) > opts.MatchTolerance {
			lo++
		}

		best := -1
		var bestDelta time.Duration
		for j := lo; j < len(reference); j++ {
			delta := reference[j].Time.Sub(p.Time)
			if delta < 0 {
				delta = -delta
			}
			if delta > opts.MatchTolerance {
				if reference[j].Time.After(p.Time) {
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

		ref := reference[best]
		d := haversineM(p.Lat, p.Lon, ref.Lat, ref.Lon)
		dists = append(dists, d)
		sq = append(sq, d*d)
		if p.BaroAltitude != nil && ref.BaroAltitude != nil {
			altDiffs = append(altDiffs, math.Abs(*p.BaroAltitude-*ref.BaroAltitude))
		}
	}

	if len(dists) == 0 {
		return dev, ErrNoData
	}

	dev.Matched = len(dists)
	dev.MeanM = stat.Mean(dists, nil)
	dev.RMSM = math.Sqrt(stat.Mean(sq, nil))

	sorted := append([]float64(nil), dists...)
	sort.Float64s(sorted)
	dev.MedianM = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	dev.P95M = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	dev.MaxM = sorted[len(sorted)-1]

	if len(altDiffs) > 0 {
		dev.AltMatched = len(altDiffs)
		dev.MeanAltM = stat.Mean(altDiffs, nil)
	}

	return dev, nil
}
