package adsb

import (
	"errors"
	"math"
	"time"
)

// CPR decoding errors. All of them mean "this frame or pair cannot yield a
// position"; callers degrade to a fallback rather than failing the request.
var (
	ErrSameParity      = errors.New("cpr: both frames have the same parity")
	ErrLatitudeRange   = errors.New("cpr: decoded latitude out of range")
	ErrZoneMismatch    = errors.New("cpr: frames lie in different latitude zones")
	ErrNoLocalSolution = errors.New("cpr: no solution near the reference position")
)

// CPRFrame is one truncated position report awaiting decoding.
type CPRFrame struct {
	LatCPR    uint32
	LonCPR    uint32
	Odd       bool
	Timestamp time.Time
}

const (
	dLatEven = 360.0 / 60.0
	dLatOdd  = 360.0 / 59.0
)

// cprMod is the always-positive modulus used throughout CPR arithmetic.
func cprMod(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// NL returns the number of longitude zones at a given latitude. The band
// edges come from the transition-latitude table of the ADS-B standard; the
// closed-form arccos expression is numerically fragile exactly at the band
// boundaries, so the table is authoritative.
func NL(lat float64) int {
	absLat := math.Abs(lat)
	for i, edge := range nlEdges {
		if absLat < edge {
			return 59 - i
		}
	}
	return 1
}

// nlEdges[i] is the upper transition latitude of the band with NL = 59-i.
var nlEdges = [...]float64{
	10.47047130, 14.82817437, 18.18626357, 21.02939493,
	23.54504487, 25.82924707, 27.93898710, 29.91135686,
	31.77209708, 33.53993436, 35.22899598, 36.85025108,
	38.41241892, 39.92256684, 41.38651832, 42.80914012,
	44.19454951, 45.54626723, 46.86733252, 48.16039128,
	49.42776439, 50.67150166, 51.89342469, 53.09516153,
	54.27817472, 55.44378444, 56.59318756, 57.72747354,
	58.84763776, 59.95459277, 61.04917774, 62.13216659,
	63.20427479, 64.26616523, 65.31845310, 66.36171008,
	67.39646774, 68.42322022, 69.44242631, 70.45451075,
	71.45986473, 72.45884545, 73.45177442, 74.43893416,
	75.42056257, 76.39684391, 77.36789461, 78.33374083,
	79.29428225, 80.24923213, 81.19801349, 82.13956981,
	83.07199445, 83.99173563, 84.89166191, 85.75541621,
	86.53536998, 87.00000000,
}

// zoneCount returns the effective number of longitude zones for one frame:
// NL for even frames, NL-1 for odd, never below one.
func zoneCount(lat float64, odd bool) int {
	n := NL(lat)
	if odd {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// dLon returns the longitude zone width in degrees for one frame's own
// parity at the given latitude.
func dLon(lat float64, odd bool) float64 {
	return 360.0 / float64(zoneCount(lat, odd))
}

// DecodeGlobalPair decodes an unambiguous worldwide position from a matched
// even/odd frame pair. The arguments may be passed in either order; parity
// is taken from the frames themselves, so relabeling which frame is "first"
// cannot change the result. The position corresponds to the newer frame,
// and the longitude zone count is selected from that frame's own parity and
// decoded latitude.
func DecodeGlobalPair(a, b CPRFrame) (lat, lon float64, err error) {
	if a.Odd == b.Odd {
		return 0, 0, ErrSameParity
	}
	even, odd := a, b
	if even.Odd {
		even, odd = odd, even
	}

	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	// Latitude zone index from the weighted combination of both frames.
	j := int(math.Floor((59*lat0-60*lat1)/CPRMax + 0.5))

	rlat0 := dLatEven * (float64(cprMod(j, 60)) + lat0/CPRMax)
	rlat1 := dLatOdd * (float64(cprMod(j, 59)) + lat1/CPRMax)
	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, ErrLatitudeRange
	}

	// The pair is only decodable while both frames share a latitude band.
	if NL(rlat0) != NL(rlat1) {
		return 0, 0, ErrZoneMismatch
	}

	newerIsOdd := odd.Timestamp.After(even.Timestamp)
	if newerIsOdd {
		ni := zoneCount(rlat1, true)
		m := int(math.Floor((lon0*float64(NL(rlat1)-1)-lon1*float64(NL(rlat1)))/CPRMax + 0.5))
		lon = dLon(rlat1, true) * (float64(cprMod(m, ni)) + lon1/CPRMax)
		lat = rlat1
	} else {
		ni := zoneCount(rlat0, false)
		m := int(math.Floor((lon0*float64(NL(rlat0)-1)-lon1*float64(NL(rlat0)))/CPRMax + 0.5))
		lon = dLon(rlat0, false) * (float64(cprMod(m, ni)) + lon0/CPRMax)
		lat = rlat0
	}

	return lat, normalizeLon(lon), nil
}

// DecodeLocalRef decodes a single frame by assuming it lies in the cell
// nearest to a known reference position. Strictly less reliable than a
// global pair decode; callers tag the result accordingly.
func DecodeLocalRef(f CPRFrame, refLat, refLon float64) (lat, lon float64, err error) {
	dlat := dLatEven
	if f.Odd {
		dlat = dLatOdd
	}

	j := int(math.Floor(refLat/dlat + 0.5))
	lat = dlat * (float64(j) + float64(f.LatCPR)/CPRMax)

	// Snap into the latitude cell adjacent to the reference.
	if lat-refLat > dlat/2 {
		lat -= dlat
	} else if lat-refLat < -dlat/2 {
		lat += dlat
	}
	if lat < -90 || lat > 90 {
		return 0, 0, ErrNoLocalSolution
	}

	dlon := dLon(lat, f.Odd)
	m := int(math.Floor(refLon/dlon + 0.5))
	lon = dlon * (float64(m) + float64(f.LonCPR)/CPRMax)

	if lon-refLon > dlon/2 {
		lon -= dlon
	} else if lon-refLon < -dlon/2 {
		lon += dlon
	}

	return lat, normalizeLon(lon), nil
}

// normalizeLon maps a longitude into (-180, 180].
func normalizeLon(lon float64) float64 {
	lon -= math.Floor((lon+180)/360) * 360
	if lon <= -180 {
		lon += 360
	}
	return lon
}
