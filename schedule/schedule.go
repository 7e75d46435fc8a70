// Package schedule encodes and decodes the iCalendar fragments the nello API
// uses to describe recurring access time windows. Only the handful of VEVENT
// properties the API understands is handled; this is not a general iCalendar
// library.
package schedule

import (
	"errors"
	"strings"
)

// prodID identifies the calendar producer on the wire.
const prodID = "io.nello"

// ErrBadStamp is returned by Encode when the stamp value cannot be resolved
// to a valid date-time. Start and end degrade to omitted properties instead.
var ErrBadStamp = errors.New("schedule: stamp does not resolve to a valid date-time")

// RecurrenceRule describes how a time window repeats. Either Raw carries a
// pre-formed rule emitted verbatim, or Freq carries the frequency token with
// an optional Until bound appended after a semicolon.
type RecurrenceRule struct {
	Raw   string
	Freq  string
	Until any
}

func (r *RecurrenceRule) encode() string {
	if r.Raw != "" {
		return r.Raw
	}
	out := r.Freq
	if r.Until != nil {
		if ts, ok := Normalize(r.Until).Get(); ok {
			out += ";" + string(ts)
		}
	}
	return out
}

// Description is the caller-facing shape of a time window schedule. Stamp,
// Start and End accept anything Normalize accepts; Stamp defaults to the
// current time when nil.
type Description struct {
	Name  string
	Stamp any
	Start any
	End   any
	Rule  *RecurrenceRule
}

// Encode renders a Description as the VEVENT fragment the nello API expects.
// Start and end values that fail to normalize are omitted rather than
// reported; only an unusable stamp is a hard failure. Lines are CRLF
// terminated, including the last one.
func Encode(desc Description) (string, error) {
	stampIn := desc.Stamp
	if stampIn == nil {
		stampIn = timeNow().Unix()
	}
	stamp, ok := Normalize(stampIn).Get()
	if !ok {
		return "", ErrBadStamp
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"BEGIN:VEVENT",
		"DTSTAMP:" + string(stamp),
	}

	for _, field := range []struct {
		name  string
		value any
	}{
		{"DTSTART", desc.Start},
		{"DTEND", desc.End},
	} {
		if field.value == nil {
			continue // absent
		}
		ts, ok := Normalize(field.value).Get()
		if !ok {
			continue // present but invalid: omit the property
		}
		lines = append(lines, field.name+":"+string(ts))
	}

	if desc.Rule != nil {
		lines = append(lines, "RRULE:"+desc.Rule.encode())
	}
	lines = append(lines, "SUMMARY:"+desc.Name, "END:VEVENT", "END:VCALENDAR")

	return strings.Join(lines, "\r\n") + "\r\n", nil
}

// ValidWrapper reports whether text contains the four BEGIN/END markers that
// frame a calendar event. Encode satisfies this by construction; callers use
// it to reject hand-supplied calendar text.
func ValidWrapper(text string) bool {
	for _, marker := range []string{"BEGIN:VCALENDAR", "END:VCALENDAR", "BEGIN:VEVENT", "END:VEVENT"} {
		if !strings.Contains(text, marker) {
			return false
		}
	}
	return true
}
