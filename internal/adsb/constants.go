package adsb

// ADS-B 6-bit character set used in identification (callsign) messages:
// space, A-Z, 0-9.
const charset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// CPR encoding constants
const (
	cprLatBits = 17
	cprLonBits = 17

	// CPRMax is the scale of the truncated 17-bit CPR coordinates (2^17).
	CPRMax = 131072
)
