// Package trajectory reconstructs a clean, time-ordered aircraft trajectory
// from a window of historical raw ADS-B messages.
package trajectory

import (
	"errors"
	"time"
)

// ErrNoData is returned when a window yields zero accepted fixes. It is an
// explicit empty result, not a failure; callers must not treat it as one.
var ErrNoData = errors.New("no data for the given parameters")

// Unit conversions from raw decode units to the output column units.
const (
	KtToMS  = 0.514444 // knots to m/s
	FtToM   = 0.3048   // feet to metres
	FpmToMS = 0.00508  // ft/min to m/s
	MSToKt  = 1 / KtToMS
)

// Default pipeline parameters. All of them are overridable per call via
// Options.
const (
	// DefaultPairingWindow is the maximum age difference between the even
	// and odd frame of a CPR pair (standard ADS-B assumption).
	DefaultPairingWindow = 10 * time.Second

	// DefaultMaxSpeedKt is the implied-speed ceiling for globally decoded
	// fixes. Generously above any certified airframe; it exists to reject
	// decode artifacts, not to model flight dynamics.
	DefaultMaxSpeedKt = 1200

	// DefaultLocalMaxSpeedKt is the tighter ceiling applied to locally
	// referenced fixes, which are less reliable by construction.
	DefaultLocalMaxSpeedKt = 600

	// DefaultMaxConsecutiveRejects is the number of consecutive
	// rejections after which the next fix is force-accepted, so a stale
	// reference cannot blackhole a genuinely fast-moving track.
	DefaultMaxConsecutiveRejects = 3

	// DefaultVelocityTolerance is the nearest-timestamp matching window
	// between a position fix and a velocity report.
	DefaultVelocityTolerance = 5 * time.Second
)

// Options are the tunable parameters of one reconstruction request.
type Options struct {
	PairingWindow         time.Duration
	MaxSpeedKt            float64
	LocalMaxSpeedKt       float64
	MaxConsecutiveRejects int
	VelocityTolerance     time.Duration

	// ReferenceLat/Lon seed the locally referenced decoder before any fix
	// has been accepted (e.g. the receiver site or departure airport).
	ReferenceLat *float64
	ReferenceLon *float64
}

// DefaultOptions returns the documented default parameters.
func DefaultOptions() Options {
	return Options{
		PairingWindow:         DefaultPairingWindow,
		MaxSpeedKt:            DefaultMaxSpeedKt,
		LocalMaxSpeedKt:       DefaultLocalMaxSpeedKt,
		MaxConsecutiveRejects: DefaultMaxConsecutiveRejects,
		VelocityTolerance:     DefaultVelocityTolerance,
	}
}

// withDefaults fills unset fields so partially populated Options behave.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PairingWindow <= 0 {
		o.PairingWindow = def.PairingWindow
	}
	if o.MaxSpeedKt <= 0 {
		o.MaxSpeedKt = def.MaxSpeedKt
	}
	if o.LocalMaxSpeedKt <= 0 {
		o.LocalMaxSpeedKt = def.LocalMaxSpeedKt
	}
	if o.MaxConsecutiveRejects <= 0 {
		o.MaxConsecutiveRejects = def.MaxConsecutiveRejects
	}
	if o.VelocityTolerance <= 0 {
		o.VelocityTolerance = def.VelocityTolerance
	}
	return o
}

// DecodeMode records how a fix's position was recovered.
type DecodeMode int

const (
	ModeGlobal DecodeMode = iota
	ModeLocalReferenced
)

func (m DecodeMode) String() string {
	if m == ModeLocalReferenced {
		return "local_referenced"
	}
	return "global"
}

// Fix is one decoded position, the unit flowing from the CPR decoder
// through the validator.
type Fix struct {
	Time         time.Time
	ICAO24       string
	Lat          float64
	Lon          float64
	BaroAltitude *float64 // metres
	Mode         DecodeMode
}

// Point is the final merged trajectory record. Nil telemetry fields had no
// report within tolerance.
type Point struct {
	Time         time.Time
	ICAO24       string
	Lat          float64
	Lon          float64
	BaroAltitude *float64 // metres
	Velocity     *float64 // m/s over ground
	Heading      *float64 // degrees; magnetic when sourced from an airspeed-only report
	VertRate     *float64 // m/s, positive climbing
}
