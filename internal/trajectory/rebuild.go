package trajectory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ostk/internal/adsb"
	"ostk/internal/store"
)

// cancelCheckInterval is how many frames are processed between cooperative
// cancellation checks.
const cancelCheckInterval = 256

// Rebuilder reconstructs trajectories from a message store. It holds no
// per-request state; independent requests may run concurrently.
type Rebuilder struct {
	store store.Store
	log   *logrus.Logger
	opts  Options
}

// NewRebuilder wires a Rebuilder to its message store. opts fields left at
// zero fall back to the documented defaults.
func NewRebuilder(st store.Store, log *logrus.Logger, opts Options) *Rebuilder {
	return &Rebuilder{
		store: st,
		log:   log,
		opts:  opts.withDefaults(),
	}
}

// Rebuild reconstructs the trajectory of one aircraft over [start, stop].
// It returns ErrNoData when the window yields no accepted fix, and a
// store.ErrStore-wrapped error when the adapter fails. If ctx is cancelled
// mid-stream, the points accepted so far are returned without error.
func (r *Rebuilder) Rebuild(ctx context.Context, icao24 string, start, stop time.Time) ([]Point, error) {
	icao24 = strings.ToLower(icao24)

	msgs, err := r.store.RawMessages(ctx, icao24, start, stop)
	if err != nil {
		return nil, fmt.Errorf("fetch raw messages for %s: %w", icao24, err)
	}

	val := newValidator(r.opts, r.log)
	ref := func() (float64, float64, bool) {
		if lat, lon, ok := val.reference(); ok {
			return lat, lon, true
		}
		if r.opts.ReferenceLat != nil && r.opts.ReferenceLon != nil {
			return *r.opts.ReferenceLat, *r.opts.ReferenceLon, true
		}
		return 0, 0, false
	}
	cursor := newCPRCursor(r.opts.PairingWindow, ref, r.log)

	var (
		points    []Point
		reports   []velocityReport
		cancelled bool
		counts    = map[adsb.FrameKind]int{}
	)

	for i, msg := range msgs {
		if i%cancelCheckInterval == 0 && ctx.Err() != nil {
			cancelled = true
			break
		}

		frame := adsb.Classify(msg)
		counts[frame.Kind]++

		switch frame.Kind {
		case adsb.KindAirbornePosition:
			for _, fix := range cursor.push(frame) {
				if val.validate(fix) {
					points = append(points, pointFromFix(fix))
				}
			}

		case adsb.KindAirborneVelocity:
			reports = append(reports, reportFromFrame(frame))

		default:
			// Surface, identification and unrecognized frames are
			// counted and dropped before the decoder.
		}
	}

	if !cancelled {
		for _, fix := range cursor.flush(icao24) {
			if val.validate(fix) {
				points = append(points, pointFromFix(fix))
			}
		}
	}

	points = mergeVelocities(points, reports, r.opts.VelocityTolerance)
	points = assemble(points)

	r.log.WithFields(logrus.Fields{
		"icao24":    icao24,
		"messages":  len(msgs),
		"position":  counts[adsb.KindAirbornePosition],
		"velocity":  counts[adsb.KindAirborneVelocity],
		"surface":   counts[adsb.KindSurfacePosition],
		"dropped":   counts[adsb.KindOther],
		"rejected":  val.rejected,
		"points":    len(points),
		"cancelled": cancelled,
	}).Info("Trajectory rebuild finished")

	if len(points) == 0 && !cancelled {
		return nil, ErrNoData
	}
	return points, nil
}

// History is the fast path: it returns the precomputed state vectors
// matching the filter as trajectory points, skipping vectors without a
// position. Returns ErrNoData on an empty result.
func (r *Rebuilder) History(ctx context.Context, f store.StateVectorFilter) ([]Point, error) {
	vectors, err := r.store.StateVectors(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch state vectors: %w", err)
	}

	var points []Point
	for _, sv := range vectors {
		if sv.Lat == nil || sv.Lon == nil {
			continue
		}
		points = append(points, Point{
			Time:         sv.Time,
			ICAO24:       sv.ICAO24,
			Lat:          *sv.Lat,
			Lon:          *sv.Lon,
			BaroAltitude: sv.BaroAltitude,
			Velocity:     sv.Velocity,
			Heading:      sv.Heading,
			VertRate:     sv.VertRate,
		})
	}

	points = assemble(points)
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points, nil
}

func pointFromFix(fix Fix) Point {
	return Point{
		Time:         fix.Time,
		ICAO24:       fix.ICAO24,
		Lat:          fix.Lat,
		Lon:          fix.Lon,
		BaroAltitude: fix.BaroAltitude,
	}
}

func reportFromFrame(frame adsb.ClassifiedFrame) velocityReport {
	rep := velocityReport{Time: frame.Raw.Timestamp, Heading: frame.TrackDeg}
	if frame.GroundSpeedKt != nil {
		v := *frame.GroundSpeedKt * KtToMS
		rep.Velocity = &v
	}
	if frame.VertRateFpm != nil {
		v := *frame.VertRateFpm * FpmToMS
		rep.VertRate = &v
	}
	return rep
}
