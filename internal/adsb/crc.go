package adsb

// Mode S CRC-24 generator polynomial.
const generatorPoly = 0xfff409

var crcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ generatorPoly
			} else {
				c = c << 1
			}
		}
		crcTable[i] = c & 0x00ffffff
	}
}

// Checksum computes the Mode S CRC-24 over data.
func Checksum(data []byte) uint32 {
	var rem uint32
	for i := 0; i < len(data); i++ {
		rem = (rem << 8) ^ crcTable[uint32(data[i])^((rem&0xff0000)>>16)]
		rem &= 0xffffff
	}
	return rem
}

// checksumOK reports whether a long frame's parity field matches the CRC-24
// of its first 88 bits. DF17/18 carry the plain checksum in the PI field, so
// a historical feed frame that fails this check is corrupt.
func checksumOK(payload []byte) bool {
	if len(payload) != MessageBytes {
		return false
	}
	want := uint32(payload[11])<<16 | uint32(payload[12])<<8 | uint32(payload[13])
	return Checksum(payload[:11]) == want
}
