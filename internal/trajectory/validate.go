package trajectory

import (
	"math"

	"github.com/sirupsen/logrus"
)

const earthRadiusM = 6371000.0

// duplicateDistanceM is the slack below which a zero-elapsed-time fix is
// still considered plausible (a duplicate report, removed later by the
// assembler's dedup pass).
const duplicateDistanceM = 100.0

// validator is the rolling outlier gate: it tracks the most recent accepted
// fix and rejects any new fix whose implied speed from that reference is
// impossible. One validator serves one request; there is no shared state
// between concurrent reconstructions.
type validator struct {
	maxSpeedMS      float64
	localMaxSpeedMS float64
	maxRejects      int
	log             *logrus.Logger

	ref      *Fix
	rejects  int
	rejected int // total, for the request summary
}

func newValidator(opts Options, log *logrus.Logger) *validator {
	return &validator{
		maxSpeedMS:      opts.MaxSpeedKt * KtToMS,
		localMaxSpeedMS: opts.LocalMaxSpeedKt * KtToMS,
		maxRejects:      opts.MaxConsecutiveRejects,
		log:             log,
	}
}

// validate decides whether a fix is plausible. Accepted fixes become the new
// rolling reference; rejected fixes leave the reference untouched so one bad
// decode cannot cascade. After maxRejects consecutive rejections the next
// fix is accepted regardless, to recover from a stale reference or a real
// large displacement.
func (v *validator) validate(fix Fix) bool {
	if v.ref == nil {
		v.accept(fix)
		return true
	}

	if v.rejects >= v.maxRejects {
		v.log.WithFields(logrus.Fields{
			"icao24":  fix.ICAO24,
			"rejects": v.rejects,
		}).Debug("Force-accepting fix after consecutive rejections")
		v.accept(fix)
		return true
	}

	ceiling := v.maxSpeedMS
	if fix.Mode == ModeLocalReferenced {
		ceiling = v.localMaxSpeedMS
	}

	dist := haversineM(v.ref.Lat, v.ref.Lon, fix.Lat, fix.Lon)
	dt := fix.Time.Sub(v.ref.Time).Seconds()
	if dt < 0 {
		dt = -dt
	}

	if dt == 0 {
		if dist <= duplicateDistanceM {
			v.accept(fix)
			return true
		}
		v.reject(fix, math.Inf(1))
		return false
	}

	if speed := dist / dt; speed > ceiling {
		v.reject(fix, speed)
		return false
	}

	v.accept(fix)
	return true
}

func (v *validator) accept(fix Fix) {
	f := fix
	v.ref = &f
	v.rejects = 0
}

func (v *validator) reject(fix Fix, speedMS float64) {
	v.rejects++
	v.rejected++
	v.log.WithFields(logrus.Fields{
		"icao24":           fix.ICAO24,
		"implied_speed_kt": speedMS * MSToKt,
		"mode":             fix.Mode.String(),
	}).Debug("Rejected implausible fix")
}

// reference exposes the rolling reference position for the locally
// referenced decoder.
func (v *validator) reference() (lat, lon float64, ok bool) {
	if v.ref == nil {
		return 0, 0, false
	}
	return v.ref.Lat, v.ref.Lon, true
}

// haversineM is the great-circle distance between two positions in metres.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
