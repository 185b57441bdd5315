package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ostk/internal/store"
)

// timeLayouts are accepted by ParseTime, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseTime parses a user-supplied timestamp. Accepts "YYYY-MM-DD HH:MM:SS",
// RFC 3339, a bare date, or Unix seconds. Times without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	if ts, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(0, int64(ts*float64(time.Second))).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (want \"YYYY-MM-DD HH:MM:SS\", RFC 3339 or Unix seconds)", s)
}

// ParseBounds parses a "west,south,east,north" bounding box in decimal
// degrees.
func ParseBounds(s string) (*store.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds must be west,south,east,north, got %q", s)
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounds coordinate %q", p)
		}
		vals[i] = v
	}

	b := &store.Bounds{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if b.South > b.North {
		return nil, fmt.Errorf("bounds south (%v) exceeds north (%v)", b.South, b.North)
	}
	if b.South < -90 || b.North > 90 || b.West < -180 || b.East > 180 {
		return nil, fmt.Errorf("bounds out of range: %q", s)
	}
	return b, nil
}
