// Package store defines the message store boundary the reconstruction
// pipeline consumes: raw historical Mode S messages and the precomputed
// state-vector fast path. How a concrete store caches, rate-limits or
// authenticates is its own concern.
package store

import (
	"context"
	"errors"
	"time"

	"ostk/internal/adsb"
)

// ErrStore is the category wrapped by every adapter failure (I/O, schema,
// encoding). Callers distinguish it from "no data" with errors.Is.
var ErrStore = errors.New("message store failure")

// Store supplies the two read operations the core depends on.
type Store interface {
	// RawMessages returns the stored messages for one aircraft within
	// [start, stop], ordered non-decreasing by timestamp.
	RawMessages(ctx context.Context, icao24 string, start, stop time.Time) ([]adsb.RawMessage, error)

	// StateVectors returns precomputed state vectors matching the filter,
	// ordered non-decreasing by timestamp.
	StateVectors(ctx context.Context, f StateVectorFilter) ([]StateVector, error)
}

// StateVector is one precomputed aircraft state as stored by the fast path.
// Nil fields were not reported.
type StateVector struct {
	Time         time.Time
	ICAO24       string
	Callsign     string
	Lat          *float64
	Lon          *float64
	BaroAltitude *float64 // metres
	Velocity     *float64 // m/s over ground
	Heading      *float64 // degrees; magnetic when sourced from an airspeed-only report
	VertRate     *float64 // m/s, positive climbing
	OnGround     bool
}

// Bounds is a geographical box: west/south/east/north in decimal degrees.
type Bounds struct {
	West  float64
	South float64
	East  float64
	North float64
}

// StateVectorFilter narrows a state-vector query. Zero values mean
// "don't filter".
type StateVectorFilter struct {
	ICAO24   string
	Start    time.Time
	Stop     time.Time
	Callsign string
	Bounds   *Bounds
	Limit    int
}
