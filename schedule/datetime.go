package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Timestamp is a date-time in the wire format the nello API expects:
// YYYYMMDDTHHMMSSZ, UTC, second precision.
type Timestamp string

// wireLayout formats UTC components into the canonical form. The trailing Z
// is a literal, not a zone specifier.
const wireLayout = "20060102T150405Z"

// pastToleranceMillis is the window subtracted from the current clock before
// rejecting an instant as "in the past". The constant reads like an hour in
// seconds but is applied to a millisecond clock, so the effective window is
// 3.6 seconds. That is what the nello API tooling has always done, and
// Encode relies on the resulting accept/reject split, so it stays.
const pastToleranceMillis = 3600

// timeNow is swapped out in tests.
var timeNow = time.Now

// looseLayouts are tried in order when a value is neither canonical nor a
// plausible unix timestamp.
var looseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// IsCanonical reports whether s is already in the canonical wire form.
func IsCanonical(s string) bool {
	return len(s) == 16 && s[8] == 'T' && s[15] == 'Z'
}

// Normalize converts a date-time value of any supported shape into a
// canonical Timestamp. Accepted inputs are an already-canonical string
// (returned unchanged), a unix timestamp in seconds (integer or numeric
// string), or a free-form date string matching one of a small set of common
// layouts. Instants older than the tolerance window are rejected; failure is
// signalled through the empty option, never through a panic.
func Normalize(v any) mo.Option[Timestamp] {
	s := fmt.Sprint(v)
	if IsCanonical(s) {
		return mo.Some(Timestamp(s))
	}

	nowMillis := timeNow().UnixMilli()

	var candidate time.Time
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && n*1000 > nowMillis-pastToleranceMillis {
		candidate = time.UnixMilli(n * 1000)
	} else {
		parsed, ok := parseLoose(s)
		if !ok {
			return mo.None[Timestamp]()
		}
		candidate = parsed
	}

	if candidate.UnixMilli() <= nowMillis-pastToleranceMillis {
		return mo.None[Timestamp]()
	}
	return mo.Some(Timestamp(candidate.UTC().Format(wireLayout)))
}

func parseLoose(s string) (time.Time, bool) {
	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
