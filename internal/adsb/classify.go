package adsb

import (
	"math"
	"strings"
)

// FrameKind is the semantic kind of an ADS-B frame as derived from its
// Type Code.
type FrameKind int

const (
	KindOther FrameKind = iota
	KindAirbornePosition
	KindSurfacePosition
	KindAirborneVelocity
	KindIdentification
)

func (k FrameKind) String() string {
	switch k {
	case KindAirbornePosition:
		return "airborne_position"
	case KindSurfacePosition:
		return "surface_position"
	case KindAirborneVelocity:
		return "airborne_velocity"
	case KindIdentification:
		return "identification"
	default:
		return "other"
	}
}

// Parity is the CPR format bit of a position frame.
type Parity uint8

const (
	ParityEven Parity = 0
	ParityOdd  Parity = 1
)

func (p Parity) String() string {
	if p == ParityOdd {
		return "odd"
	}
	return "even"
}

// ClassifiedFrame is a RawMessage annotated with its decoded sub-fields.
// Optional fields are nil when the frame does not carry them.
type ClassifiedFrame struct {
	Raw    RawMessage
	Kind   FrameKind
	Parity Parity

	// Position frames (17-bit truncated CPR coordinates).
	LatCPR uint32
	LonCPR uint32

	// Barometric altitude in feet, from the AC12 field of airborne
	// position frames.
	AltitudeFt *int

	// Velocity frames. TrackDeg is the true ground track for the
	// ground-speed subtypes (1-2); the airspeed subtypes (3-4) only
	// carry magnetic heading, which is reported here instead.
	GroundSpeedKt *float64
	TrackDeg      *float64
	VertRateFpm   *float64

	// Identification frames.
	Callsign string
}

// Classify inspects a raw message and derives its kind and sub-fields.
// Pure and deterministic given the payload. Anything short, corrupt, or
// outside the supported type codes comes back as KindOther; classification
// never fails hard, so one malformed message cannot abort a reconstruction.
func Classify(raw RawMessage) ClassifiedFrame {
	frame := ClassifiedFrame{Raw: raw, Kind: KindOther}

	if len(raw.Payload) != MessageBytes {
		return frame
	}
	if df := raw.DF(); df != 17 && df != 18 {
		return frame
	}
	if !checksumOK(raw.Payload) {
		return frame
	}

	tc := raw.TypeCode()
	switch {
	case tc >= 1 && tc <= 4:
		frame.Kind = KindIdentification
		frame.Callsign = extractCallsign(raw.Payload)

	case tc >= 5 && tc <= 8:
		frame.Kind = KindSurfacePosition
		frame.Parity, frame.LatCPR, frame.LonCPR = extractCPR(raw.Payload)

	case (tc >= 9 && tc <= 18) || (tc >= 20 && tc <= 22):
		frame.Kind = KindAirbornePosition
		frame.Parity, frame.LatCPR, frame.LonCPR = extractCPR(raw.Payload)
		if tc <= 18 {
			// TC 20-22 carry GNSS height in a different encoding;
			// only the barometric AC12 field is decoded here.
			frame.AltitudeFt = extractAltitude(raw.Payload)
		}

	case tc == 19:
		frame.Kind = KindAirborneVelocity
		frame.GroundSpeedKt, frame.TrackDeg, frame.VertRateFpm = extractVelocity(raw.Payload)
		if frame.GroundSpeedKt == nil && frame.TrackDeg == nil && frame.VertRateFpm == nil {
			frame.Kind = KindOther
		}
	}

	return frame
}

// extractCPR pulls the format bit and the two 17-bit CPR coordinates out of
// a position frame.
func extractCPR(data []byte) (Parity, uint32, uint32) {
	parity := Parity((data[6] >> 2) & 0x01)
	latCPR := (uint32(data[6]&0x03)<<15 | uint32(data[7])<<7 | uint32(data[8])>>1) & (CPRMax - 1)
	lonCPR := (uint32(data[8]&0x01)<<16 | uint32(data[9])<<8 | uint32(data[10])) & (CPRMax - 1)
	return parity, latCPR, lonCPR
}

// extractAltitude decodes the 12-bit AC12 altitude field of an airborne
// position frame, in feet. Returns nil when the field is absent or decodes
// to an implausible value.
func extractAltitude(data []byte) *int {
	// AC12 is ME bits 9-20: all of ME byte 1 plus the top nibble of byte 2.
	altCode := uint16(data[5])<<4 | uint16(data[6])>>4
	if altCode == 0 {
		return nil
	}

	var altitude int
	if altCode&0x10 != 0 {
		// Q-bit set: 25 ft resolution. N is the 11-bit value left after
		// removing the Q bit.
		n := int(((altCode & 0x0FE0) >> 1) | (altCode & 0x000F))
		altitude = n*25 - 1000
	} else {
		// Gillham (Mode C) encoding, 100 ft resolution.
		n13 := ((altCode & 0x0FC0) << 1) | (altCode & 0x003F)
		if n13 == 0 {
			return nil
		}
		hundreds := int((n13 >> 8) & 0x07)
		fiveHundreds := int((n13 >> 4) & 0x0F)
		altitude = (fiveHundreds*5 + hundreds) * 100
	}

	if altitude < -2000 || altitude > 60000 {
		return nil
	}
	return &altitude
}

// extractVelocity decodes ground speed (kt), track (degrees true) and
// vertical rate (ft/min) from an airborne velocity frame. Subtypes 1-2 give
// true ground speed from the NS/EW components; subtypes 3-4 degrade to
// airspeed and magnetic heading.
func extractVelocity(data []byte) (speedKt, trackDeg, vertRateFpm *float64) {
	me := data[4:]
	subtype := me[0] & 0x07
	if subtype < 1 || subtype > 4 {
		return nil, nil, nil
	}

	switch subtype {
	case 1, 2:
		ewRaw := getBitsUint16(me, 15, 24)
		nsRaw := getBitsUint16(me, 26, 35)
		if ewRaw != 0 && nsRaw != 0 {
			scale := 1 << (subtype - 1) // subtype 2: supersonic, 4 kt units
			ewVel := float64(ewRaw-1) * float64(scale)
			if getBits(me, 14, 14) != 0 {
				ewVel = -ewVel
			}
			nsVel := float64(nsRaw-1) * float64(scale)
			if getBits(me, 25, 25) != 0 {
				nsVel = -nsVel
			}

			speed := math.Hypot(ewVel, nsVel)
			track := math.Atan2(ewVel, nsVel) * 180.0 / math.Pi
			if track < 0 {
				track += 360
			}
			speedKt = &speed
			trackDeg = &track
		}

	case 3, 4:
		if getBits(me, 14, 14) != 0 {
			heading := float64(getBitsUint16(me, 15, 24)) * 360.0 / 1024.0
			trackDeg = &heading
		}
		if asRaw := getBitsUint16(me, 26, 35); asRaw != 0 {
			scale := 1 << (subtype - 3)
			airspeed := float64(asRaw-1) * float64(scale)
			speedKt = &airspeed
		}
	}

	if vrRaw := getBitsUint16(me, 38, 46); vrRaw != 0 {
		vr := float64(vrRaw-1) * 64
		if getBits(me, 37, 37) != 0 {
			vr = -vr
		}
		vertRateFpm = &vr
	}

	return speedKt, trackDeg, vertRateFpm
}

// extractCallsign decodes the 8-character identification field.
func extractCallsign(data []byte) string {
	me := data[4:]

	var callsign [8]byte
	for i := 0; i < 8; i++ {
		first := 9 + i*6
		callsign[i] = charset[getBits(me, first, first+5)]
	}

	for i := 0; i < 8; i++ {
		c := callsign[i]
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ') {
			return ""
		}
	}

	return strings.TrimSpace(string(callsign[:]))
}
