package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestEncodeRoundTrip(t *testing.T) {
	desc := Description{
		Name:  "Cleaning service",
		Stamp: "20260101T080000Z",
		Start: "20260105T090000Z",
		End:   "20260105T110000Z",
	}

	text, err := Encode(desc)
	require.NoError(t, err)
	assert.True(t, ValidWrapper(text))
	assert.True(t, strings.HasSuffix(text, "\r\n"))

	parsed, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, "Cleaning service", parsed.Summary.OrElse(""))
	assert.Equal(t, "20260101T080000Z", parsed.Stamp.OrElse(""))
	assert.Equal(t, "20260105T090000Z", parsed.Start.OrElse(""))
	assert.Equal(t, "20260105T110000Z", parsed.End.OrElse(""))
	assert.Equal(t, text, parsed.Raw)
}

func TestEncodePropertyOrder(t *testing.T) {
	text, err := Encode(Description{
		Name:  "order",
		Stamp: "20260101T080000Z",
		Start: "20260105T090000Z",
		End:   "20260105T110000Z",
		Rule:  &RecurrenceRule{Raw: "FREQ=WEEKLY"},
	})
	require.NoError(t, err)

	want := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:io.nello\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTAMP:20260101T080000Z\r\n" +
		"DTSTART:20260105T090000Z\r\n" +
		"DTEND:20260105T110000Z\r\n" +
		"RRULE:FREQ=WEEKLY\r\n" +
		"SUMMARY:order\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	assert.Equal(t, want, text)
}

func TestEncodeOmitsInvalidDates(t *testing.T) {
	text, err := Encode(Description{
		Name:  "lenient",
		Stamp: "20260101T080000Z",
		Start: "20260105T090000Z",
		End:   "definitely not a date",
	})
	require.NoError(t, err)

	assert.True(t, ValidWrapper(text))
	assert.NotContains(t, text, "DTEND")
	assert.Contains(t, text, "DTSTART:20260105T090000Z")

	parsed, err := Decode(text)
	require.NoError(t, err)
	assert.True(t, parsed.End.IsAbsent())
}

func TestEncodeStampHandling(t *testing.T) {
	// an explicit stamp that cannot be normalized is the one hard failure
	_, err := Encode(Description{Name: "bad", Stamp: "garbage"})
	assert.ErrorIs(t, err, ErrBadStamp)

	// a nil stamp defaults to the current time
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })

	text, err := Encode(Description{Name: "defaulted"})
	require.NoError(t, err)
	assert.Contains(t, text, "DTSTAMP:20260304T050607Z")
}

func TestEncodeRecurrenceRule(t *testing.T) {
	tests := []struct {
		name string
		rule *RecurrenceRule
		want string
	}{
		{
			name: "raw rule passes through verbatim",
			rule: &RecurrenceRule{Raw: "FREQ=WEEKLY;UNTIL=20991231T235959Z"},
			want: "RRULE:FREQ=WEEKLY;UNTIL=20991231T235959Z",
		},
		{
			name: "frequency only",
			rule: &RecurrenceRule{Freq: "FREQ=DAILY"},
			want: "RRULE:FREQ=DAILY",
		},
		{
			name: "frequency with normalized until",
			rule: &RecurrenceRule{Freq: "FREQ=DAILY", Until: "20991231T235959Z"},
			want: "RRULE:FREQ=DAILY;20991231T235959Z",
		},
		{
			name: "until that fails to normalize is dropped",
			rule: &RecurrenceRule{Freq: "FREQ=DAILY", Until: "nonsense"},
			want: "RRULE:FREQ=DAILY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(Description{
				Name:  "recurring",
				Stamp: "20260101T080000Z",
				Rule:  tt.rule,
			})
			require.NoError(t, err)
			assert.Contains(t, text, tt.want+"\r\n")
		})
	}
}

func TestDecodeRecoversRawRule(t *testing.T) {
	text, err := Encode(Description{
		Name:  "weekly",
		Stamp: "20260101T080000Z",
		Rule:  &RecurrenceRule{Raw: "FREQ=WEEKLY;UNTIL=20991231T235959Z"},
	})
	require.NoError(t, err)

	parsed, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, rrule.WEEKLY, parsed.Rule.Freq)
	assert.Equal(t, time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC), parsed.Rule.Until)
}

func TestValidWrapper(t *testing.T) {
	assert.False(t, ValidWrapper("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	assert.False(t, ValidWrapper(""))
	assert.True(t, ValidWrapper("BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"))
}
