package trajectory

import (
	"time"

	"github.com/sirupsen/logrus"

	"ostk/internal/adsb"
)

// referenceFunc supplies the current reference position for locally
// referenced decoding: the last accepted fix, or a caller-supplied seed.
type referenceFunc func() (lat, lon float64, ok bool)

// cprCursor pairs odd and even airborne position frames for one request.
// It holds at most one candidate per parity; a newer same-parity frame
// supersedes the old one, which gets a single locally referenced decode
// attempt on the way out.
type cprCursor struct {
	window time.Duration
	ref    referenceFunc
	log    *logrus.Logger

	even *posCandidate
	odd  *posCandidate
}

// posCandidate is a position frame waiting for its opposite-parity partner.
type posCandidate struct {
	frame adsb.CPRFrame
	alt   *float64 // metres
}

func newCPRCursor(window time.Duration, ref referenceFunc, log *logrus.Logger) *cprCursor {
	return &cprCursor{window: window, ref: ref, log: log}
}

// push feeds one classified airborne position frame into the cursor and
// returns any fixes it produced, oldest first.
func (c *cprCursor) push(f adsb.ClassifiedFrame) []Fix {
	cand := &posCandidate{
		frame: adsb.CPRFrame{
			LatCPR:    f.LatCPR,
			LonCPR:    f.LonCPR,
			Odd:       f.Parity == adsb.ParityOdd,
			Timestamp: f.Raw.Timestamp,
		},
	}
	if f.AltitudeFt != nil {
		altM := float64(*f.AltitudeFt) * FtToM
		cand.alt = &altM
	}

	var fixes []Fix

	slot, other := &c.even, c.odd
	if cand.frame.Odd {
		slot, other = &c.odd, c.even
	}

	// A superseded same-parity candidate gets one local-referenced shot
	// before it is discarded.
	if prev := *slot; prev != nil {
		if fix, ok := c.decodeLocal(prev, f.Raw.ICAO24); ok {
			fixes = append(fixes, fix)
		}
	}
	*slot = cand

	if other == nil {
		return fixes
	}

	// Window check is inclusive at the boundary.
	age := cand.frame.Timestamp.Sub(other.frame.Timestamp)
	if age < 0 {
		age = -age
	}
	if age > c.window {
		// Partner too old for a global decode: evict it with a local
		// attempt and keep waiting.
		if fix, ok := c.decodeLocal(other, f.Raw.ICAO24); ok {
			fixes = append(fixes, fix)
		}
		c.clearOpposite(cand.frame.Odd)
		return fixes
	}

	lat, lon, err := adsb.DecodeGlobalPair(c.even.frame, c.odd.frame)
	if err != nil {
		// Bad latitude or zone mismatch: discard the pair and degrade
		// to a locally referenced decode of the newer frame. Silent
		// degradation, logged only.
		c.log.WithError(err).WithField("icao24", f.Raw.ICAO24).
			Debug("Global CPR decode failed, trying local fallback")
		if fix, ok := c.decodeLocal(cand, f.Raw.ICAO24); ok {
			fixes = append(fixes, fix)
		}
		c.even, c.odd = nil, nil
		return fixes
	}

	// The fix time is the later frame's: that is the frame defining the
	// current position. A successful decode consumes both frames.
	newer := c.even
	if c.odd.frame.Timestamp.After(c.even.frame.Timestamp) {
		newer = c.odd
	}
	fixes = append(fixes, Fix{
		Time:         newer.frame.Timestamp,
		ICAO24:       f.Raw.ICAO24,
		Lat:          lat,
		Lon:          lon,
		BaroAltitude: newer.alt,
		Mode:         ModeGlobal,
	})
	c.even, c.odd = nil, nil

	return fixes
}

// flush decodes whatever candidates remain when the stream ends, oldest
// first.
func (c *cprCursor) flush(icao24 string) []Fix {
	var leftovers []*posCandidate
	for _, cand := range []*posCandidate{c.even, c.odd} {
		if cand != nil {
			leftovers = append(leftovers, cand)
		}
	}
	if len(leftovers) == 2 && leftovers[0].frame.Timestamp.After(leftovers[1].frame.Timestamp) {
		leftovers[0], leftovers[1] = leftovers[1], leftovers[0]
	}

	var fixes []Fix
	for _, cand := range leftovers {
		if fix, ok := c.decodeLocal(cand, icao24); ok {
			fixes = append(fixes, fix)
		}
	}
	c.even, c.odd = nil, nil
	return fixes
}

func (c *cprCursor) decodeLocal(cand *posCandidate, icao24 string) (Fix, bool) {
	refLat, refLon, ok := c.ref()
	if !ok {
		// No reference point at all: the frame is dropped and the
		// caller sees a gap.
		return Fix{}, false
	}

	lat, lon, err := adsb.DecodeLocalRef(cand.frame, refLat, refLon)
	if err != nil {
		c.log.WithError(err).WithField("icao24", icao24).
			Debug("Local CPR decode failed")
		return Fix{}, false
	}

	return Fix{
		Time:         cand.frame.Timestamp,
		ICAO24:       icao24,
		Lat:          lat,
		Lon:          lon,
		BaroAltitude: cand.alt,
		Mode:         ModeLocalReferenced,
	}, true
}

func (c *cprCursor) clearOpposite(odd bool) {
	if odd {
		c.even = nil
	} else {
		c.odd = nil
	}
}
