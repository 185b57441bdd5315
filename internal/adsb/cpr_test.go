package adsb

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference frame pair from the Mode S literature: ICAO 40621D at
// 52.2572N 3.9194E, FL380.
var (
	refEven = CPRFrame{LatCPR: 93000, LonCPR: 51372, Odd: false}
	refOdd  = CPRFrame{LatCPR: 74158, LonCPR: 50194, Odd: true}
)

func TestNLBands(t *testing.T) {
	// One case per latitude band: just below the upper edge of each band
	// must still return that band's NL, and crossing the edge must drop
	// it by one.
	assert.Equal(t, 59, NL(0))
	assert.Equal(t, 1, NL(87))
	assert.Equal(t, 1, NL(90))

	for i, edge := range nlEdges {
		want := 59 - i
		below := edge - 1e-9
		assert.Equal(t, want, NL(below), "just below edge %.8f", edge)
		assert.Equal(t, want-1, NL(edge), "at edge %.8f", edge)

		// NL is symmetric about the equator.
		assert.Equal(t, NL(below), NL(-below), "southern hemisphere at %.8f", below)
	}
}

func TestZoneCount(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		odd  bool
		want int
	}{
		{"equator even", 0, false, 59},
		{"equator odd", 0, true, 58},
		{"52N even", 52.2572, false, 36},
		{"52N odd", 52.2572, true, 35},
		{"pole even", 89, false, 1},
		{"pole odd", 89, true, 1}, // clamped, never below one
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, zoneCount(tt.lat, tt.odd))
			assert.InDelta(t, 360.0/float64(tt.want), dLon(tt.lat, tt.odd), 1e-12)
		})
	}
}

func TestDecodeGlobalPair(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	t.Run("even frame newer", func(t *testing.T) {
		even, odd := refEven, refOdd
		odd.Timestamp = base
		even.Timestamp = base.Add(time.Second)

		lat, lon, err := DecodeGlobalPair(even, odd)
		require.NoError(t, err)
		assert.InDelta(t, 52.25720, lat, 1e-4)
		assert.InDelta(t, 3.91937, lon, 1e-4)
	})

	t.Run("odd frame newer", func(t *testing.T) {
		even, odd := refEven, refOdd
		even.Timestamp = base
		odd.Timestamp = base.Add(time.Second)

		lat, lon, err := DecodeGlobalPair(even, odd)
		require.NoError(t, err)
		assert.InDelta(t, 52.26578, lat, 1e-4)
		assert.InDelta(t, 3.93891, lon, 1e-4)
	})

	t.Run("argument order is irrelevant", func(t *testing.T) {
		even, odd := refEven, refOdd
		even.Timestamp = base
		odd.Timestamp = base.Add(time.Second)

		lat1, lon1, err1 := DecodeGlobalPair(even, odd)
		lat2, lon2, err2 := DecodeGlobalPair(odd, even)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, lat1, lat2)
		assert.Equal(t, lon1, lon2)
	})

	t.Run("same parity rejected", func(t *testing.T) {
		_, _, err := DecodeGlobalPair(refEven, refEven)
		assert.ErrorIs(t, err, ErrSameParity)
	})

	t.Run("zone mismatch rejected", func(t *testing.T) {
		// A pair whose two frames decode to latitudes on opposite sides
		// of the NL=59/58 transition at 10.47047130 must be refused, not
		// silently mis-decoded with inconsistent zone counts.
		even := encodeCPRFrame(10.4699, 3.9, false, base)
		odd := encodeCPRFrame(10.4710, 3.9, true, base.Add(time.Second))

		_, _, err := DecodeGlobalPair(even, odd)
		assert.ErrorIs(t, err, ErrZoneMismatch)
	})

	t.Run("result within spec ranges", func(t *testing.T) {
		// Sweep synthetic pairs across the globe; every successful
		// decode must stay inside lat [-90,90], lon (-180,180].
		for lat := -80.0; lat <= 80.0; lat += 8.0 {
			for lon := -176.0; lon <= 180.0; lon += 16.0 {
				even := encodeCPRFrame(lat, lon, false, base)
				odd := encodeCPRFrame(lat, lon, true, base.Add(time.Second))

				gotLat, gotLon, err := DecodeGlobalPair(even, odd)
				if err != nil {
					continue
				}
				assert.GreaterOrEqual(t, gotLat, -90.0)
				assert.LessOrEqual(t, gotLat, 90.0)
				assert.Greater(t, gotLon, -180.0)
				assert.LessOrEqual(t, gotLon, 180.0)
				assert.InDelta(t, lat, gotLat, 1e-3)
				assert.InDelta(t, lon, gotLon, 1e-3)
			}
		}
	})
}

func TestDecodeLocalRef(t *testing.T) {
	base := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

	t.Run("recovers position near reference", func(t *testing.T) {
		frame := encodeCPRFrame(52.2572, 3.9194, true, base)
		lat, lon, err := DecodeLocalRef(frame, 52.25, 3.91)
		require.NoError(t, err)
		assert.InDelta(t, 52.2572, lat, 1e-3)
		assert.InDelta(t, 3.9194, lon, 1e-3)
	})

	t.Run("reference a cell away still snaps correctly", func(t *testing.T) {
		frame := encodeCPRFrame(52.2572, 3.9194, false, base)
		lat, lon, err := DecodeLocalRef(frame, 51.0, 3.0)
		require.NoError(t, err)
		assert.InDelta(t, 52.2572, lat, 1e-3)
		assert.InDelta(t, 3.9194, lon, 1e-3)
	})

	t.Run("southern hemisphere", func(t *testing.T) {
		frame := encodeCPRFrame(-23.5505, -46.6333, true, base)
		lat, lon, err := DecodeLocalRef(frame, -23.4, -46.5)
		require.NoError(t, err)
		assert.InDelta(t, -23.5505, lat, 1e-3)
		assert.InDelta(t, -46.6333, lon, 1e-3)
	})
}

func TestNormalizeLon(t *testing.T) {
	assert.InDelta(t, 170.0, normalizeLon(-190), 1e-12)
	assert.InDelta(t, -170.0, normalizeLon(190), 1e-12)
	assert.InDelta(t, 180.0, normalizeLon(-180), 1e-12)
	assert.InDelta(t, 180.0, normalizeLon(180), 1e-12)
	assert.InDelta(t, 0.0, normalizeLon(360), 1e-12)
}

// encodeLatCPR produces the truncated 17-bit latitude coordinate for a
// position, inverting the decoder for test input.
func encodeLatCPR(lat float64, odd bool) uint32 {
	dlat := dLatEven
	if odd {
		dlat = dLatOdd
	}
	yz := math.Floor(CPRMax*cprModF(lat, dlat)/dlat + 0.5)
	return uint32(yz) & (CPRMax - 1)
}

func encodeLonCPR(lat, lon float64, odd bool) uint32 {
	dlon := dLon(lat, odd)
	xz := math.Floor(CPRMax*cprModF(lon, dlon)/dlon + 0.5)
	return uint32(xz) & (CPRMax - 1)
}

func encodeCPRFrame(lat, lon float64, odd bool, ts time.Time) CPRFrame {
	return CPRFrame{
		LatCPR:    encodeLatCPR(lat, odd),
		LonCPR:    encodeLonCPR(lat, lon, odd),
		Odd:       odd,
		Timestamp: ts,
	}
}

func cprModF(a, b float64) float64 {
	res := math.Mod(a, b)
	if res < 0 {
		res += b
	}
	return res
}
