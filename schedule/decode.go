package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// ErrMalformedSchedule is returned by Decode when the input is not parsable
// calendar text or carries no VEVENT component.
var ErrMalformedSchedule = errors.New("schedule: malformed calendar text")

// ParsedEvent is the decoded view of a time window's calendar text. String
// properties that are absent from the event decode to the empty option. Rule
// is the zero ROption when the event has no usable RRULE. Raw always carries
// the verbatim input, useful for diagnostics and round-tripping.
type ParsedEvent struct {
	UID     mo.Option[string]
	Summary mo.Option[string]
	Stamp   mo.Option[string]
	Start   mo.Option[string]
	End     mo.Option[string]
	Rule    rrule.ROption
	Raw     string
}

// Decode parses calendar text and extracts the first VEVENT. Structural
// problems fail with ErrMalformedSchedule; missing individual properties do
// not. An RRULE value rrule cannot parse is treated the same as an absent
// one.
func Decode(text string) (*ParsedEvent, error) {
	cal, err := ical.NewDecoder(strings.NewReader(text)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSchedule, err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no VEVENT component", ErrMalformedSchedule)
	}
	event := events[0]

	parsed := &ParsedEvent{
		UID:     propValue(event, ical.PropUID),
		Summary: propValue(event, ical.PropSummary),
		Stamp:   propValue(event, ical.PropDateTimeStamp),
		Start:   propValue(event, ical.PropDateTimeStart),
		End:     propValue(event, ical.PropDateTimeEnd),
		Raw:     text,
	}

	if prop := event.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		if opt, err := rrule.StrToROption(prop.Value); err == nil {
			parsed.Rule = *opt
		}
	}

	return parsed, nil
}

func propValue(event ical.Event, name string) mo.Option[string] {
	prop := event.Props.Get(name)
	if prop == nil {
		return mo.None[string]()
	}
	return mo.Some(prop.Value)
}
