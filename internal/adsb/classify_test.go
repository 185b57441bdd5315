package adsb

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPayload(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func rawMsg(t *testing.T, s string) RawMessage {
	t.Helper()
	return RawMessage{
		ICAO24:    "40621d",
		Timestamp: time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC),
		Payload:   mustPayload(t, s),
	}
}

func TestClassifyAirbornePosition(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantParity Parity
		wantLat    uint32
		wantLon    uint32
	}{
		{
			name:       "even frame",
			payload:    "8D40621D58C382D690C8AC2863A7",
			wantParity: ParityEven,
			wantLat:    93000,
			wantLon:    51372,
		},
		{
			name:       "odd frame",
			payload:    "8D40621D58C386435CC412692AD6",
			wantParity: ParityOdd,
			wantLat:    74158,
			wantLon:    50194,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Classify(rawMsg(t, tt.payload))

			assert.Equal(t, KindAirbornePosition, frame.Kind)
			assert.Equal(t, tt.wantParity, frame.Parity)
			assert.Equal(t, tt.wantLat, frame.LatCPR)
			assert.Equal(t, tt.wantLon, frame.LonCPR)
			require.NotNil(t, frame.AltitudeFt)
			assert.Equal(t, 38000, *frame.AltitudeFt)
		})
	}
}

func TestClassifyVelocity(t *testing.T) {
	frame := Classify(rawMsg(t, "8D485020994409940838175B284F"))

	assert.Equal(t, KindAirborneVelocity, frame.Kind)
	require.NotNil(t, frame.GroundSpeedKt)
	require.NotNil(t, frame.TrackDeg)
	require.NotNil(t, frame.VertRateFpm)
	assert.InDelta(t, 159.20, *frame.GroundSpeedKt, 0.01)
	assert.InDelta(t, 182.88, *frame.TrackDeg, 0.01)
	assert.InDelta(t, -832.0, *frame.VertRateFpm, 0.01)
}

func TestClassifyVelocityAirspeedSubtype(t *testing.T) {
	// Subtype 3 frames carry airspeed and magnetic heading rather than a
	// true ground track; both still come back through the same fields.
	// TC 19, ST 3, heading 90 deg (raw 256), IAS 180 kt (raw 181),
	// vertical rate -832 ft/min (raw 14, sign bit set).
	payload := make([]byte, MessageBytes)
	payload[0] = 0x8D
	payload[1], payload[2], payload[3] = 0x48, 0x50, 0x20
	copy(payload[4:], []byte{0x9B, 0x05, 0x00, 0x16, 0xA8, 0x38, 0x00})
	crc := Checksum(payload[:11])
	payload[11] = byte(crc >> 16)
	payload[12] = byte(crc >> 8)
	payload[13] = byte(crc)

	frame := Classify(RawMessage{ICAO24: "485020", Payload: payload})

	assert.Equal(t, KindAirborneVelocity, frame.Kind)
	require.NotNil(t, frame.GroundSpeedKt)
	require.NotNil(t, frame.TrackDeg)
	require.NotNil(t, frame.VertRateFpm)
	assert.InDelta(t, 180.0, *frame.GroundSpeedKt, 0.01)
	assert.InDelta(t, 90.0, *frame.TrackDeg, 0.01)
	assert.InDelta(t, -832.0, *frame.VertRateFpm, 0.01)
}

func TestClassifyIdentification(t *testing.T) {
	frame := Classify(rawMsg(t, "8D4840D6202CC371C32CE0576098"))

	assert.Equal(t, KindIdentification, frame.Kind)
	assert.Equal(t, "KLM1023", frame.Callsign)
}

func TestClassifySurfacePosition(t *testing.T) {
	// No canned surface frame available; build one (TC 7) and patch up
	// the parity field.
	payload := make([]byte, MessageBytes)
	payload[0] = 0x8D
	payload[1], payload[2], payload[3] = 0x48, 0x40, 0xD6
	payload[4] = 7 << 3
	payload[6] = 1 << 2 // odd
	payload[7] = 0xAB
	crc := Checksum(payload[:11])
	payload[11] = byte(crc >> 16)
	payload[12] = byte(crc >> 8)
	payload[13] = byte(crc)

	frame := Classify(RawMessage{ICAO24: "4840d6", Payload: payload})
	assert.Equal(t, KindSurfacePosition, frame.Kind)
	assert.Equal(t, ParityOdd, frame.Parity)
}

func TestClassifySoftFailures(t *testing.T) {
	valid := "8D40621D58C382D690C8AC2863A7"

	corrupted := mustPayload(t, valid)
	corrupted[7] ^= 0x40 // flip a payload bit, CRC residual goes non-zero

	tests := []struct {
		name    string
		payload []byte
	}{
		{"short payload", mustPayload(t, "8D40621D58C3")},
		{"empty payload", nil},
		{"wrong downlink format", mustPayload(t, "20000F1F4D39E1000000000000FF")},
		{"corrupt checksum", corrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Classify(RawMessage{ICAO24: "40621d", Payload: tt.payload})
			assert.Equal(t, KindOther, frame.Kind)
		})
	}
}

func TestChecksumKnownMessages(t *testing.T) {
	// Real off-the-air frames must have a zero CRC residual.
	for _, s := range []string{
		"8D40621D58C382D690C8AC2863A7",
		"8D40621D58C386435CC412692AD6",
		"8D485020994409940838175B284F",
		"8D4840D6202CC371C32CE0576098",
	} {
		payload := mustPayload(t, s)
		assert.True(t, checksumOK(payload), "residual for %s", s)
	}
}

func TestRawMessageAccessors(t *testing.T) {
	msg := rawMsg(t, "8D40621D58C382D690C8AC2863A7")

	assert.Equal(t, uint8(17), msg.DF())
	assert.Equal(t, uint8(11), msg.TypeCode())
	assert.Equal(t, uint32(0x40621D), msg.Address())
}
