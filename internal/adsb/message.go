package adsb

import (
	"time"
)

// MessageBytes is the length of a long Mode S frame (112 bits).
const MessageBytes = 14

// RawMessage is one Mode S/ADS-B transmission as delivered by a message store.
// Payload is the full 112-bit frame and is never mutated; all further fields
// are derived from it during classification.
type RawMessage struct {
	ICAO24    string
	Timestamp time.Time
	Payload   []byte
}

// DF extracts the Downlink Format from the first 5 bits of the payload.
func (m RawMessage) DF() uint8 {
	if len(m.Payload) < 1 {
		return 0
	}
	return (m.Payload[0] >> 3) & 0x1F
}

// TypeCode extracts the Type Code for extended squitter (DF17/18) messages.
func (m RawMessage) TypeCode() uint8 {
	if df := m.DF(); df != 17 && df != 18 {
		return 0
	}
	if len(m.Payload) < 5 {
		return 0
	}
	return (m.Payload[4] >> 3) & 0x1F
}

// Address extracts the 24-bit ICAO address from the payload.
func (m RawMessage) Address() uint32 {
	if len(m.Payload) < 4 {
		return 0
	}
	return uint32(m.Payload[1])<<16 | uint32(m.Payload[2])<<8 | uint32(m.Payload[3])
}

// getBits extracts up to 8 bits from data using 1-based bit indexing
// (dump1090 convention).
func getBits(data []byte, firstBit, lastBit int) uint8 {
	return uint8(getBitsUint16(data, firstBit, lastBit))
}

// getBitsUint16 extracts up to 16 bits from data using 1-based bit indexing.
func getBitsUint16(data []byte, firstBit, lastBit int) uint16 {
	if firstBit < 1 || lastBit < firstBit || len(data) == 0 {
		return 0
	}

	fbi := firstBit - 1
	lbi := lastBit - 1
	nbi := lastBit - firstBit + 1

	if nbi > 16 {
		return 0
	}

	fby := fbi / 8
	lby := lbi / 8

	if lby >= len(data) {
		return 0
	}

	shift := 7 - (lbi % 8)
	topMask := uint8(0xFF >> (fbi % 8))

	var result uint32
	for i := fby; i <= lby; i++ {
		if i == fby {
			result = uint32(data[i] & topMask)
		} else {
			result = (result << 8) | uint32(data[i])
		}
	}

	return uint16((result >> shift) & ((1 << nbi) - 1))
}
