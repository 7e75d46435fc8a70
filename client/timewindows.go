package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zefau/libnello/schedule"
)

// ErrInvalidIcal is returned when caller-supplied calendar text lacks one of
// the four BEGIN/END markers the API requires.
var ErrInvalidIcal = errors.New("ical data is missing BEGIN:VCALENDAR, END:VCALENDAR, BEGIN:VEVENT or END:VEVENT")

// TimeWindow is one recurring access grant on a location. Ical carries the
// wire text; Parsed is its decoded form, nil when the text did not decode.
type TimeWindow struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	State  string                `json:"state"`
	Image  string                `json:"image"`
	Ical   string                `json:"ical"`
	Parsed *schedule.ParsedEvent `json:"-"`
}

// DeleteResult reports the outcome of one delete issued by
// DeleteAllTimeWindows.
type DeleteResult struct {
	TimeWindowID string
	Err          error
}

// TimeWindows lists the time windows of a location, decoding each entry's
// calendar text. An entry whose text does not decode keeps a nil Parsed
// rather than failing the whole listing.
func (c *nelloClient) TimeWindows(ctx context.Context, locationID string) ([]TimeWindow, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	env, err := checkEnvelope(c.api.DoGET(ctx, c.url("locations", locationID, "tw")))
	if err != nil {
		return nil, fmt.Errorf("failed to list time windows: %w", err)
	}

	var windows []TimeWindow
	if err := json.Unmarshal(env.Data, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode time windows: %w", err)
	}

	for i := range windows {
		parsed, err := schedule.Decode(windows[i].Ical)
		if err != nil {
			c.logger.Debug("skipping undecodable time window ical",
				"time_window_id", windows[i].ID,
				"error", err)
			continue
		}
		windows[i].Parsed = parsed
	}
	return windows, nil
}

// CreateTimeWindow creates a time window on a location. sched is either raw
// calendar text (validated for the wrapper markers) or a
// schedule.Description, encoded here with name as its summary.
func (c *nelloClient) CreateTimeWindow(ctx context.Context, locationID, name string, sched any) (*TimeWindow, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	text, err := scheduleText(name, sched)
	if err != nil {
		return nil, err
	}

	env, err := checkEnvelope(c.api.DoPOST(ctx, c.url("locations", locationID, "tw"), map[string]any{
		"name": name,
		"ical": text,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create time window: %w", err)
	}

	var window TimeWindow
	if err := json.Unmarshal(env.Data, &window); err != nil {
		return nil, fmt.Errorf("failed to decode created time window: %w", err)
	}
	if parsed, err := schedule.Decode(window.Ical); err == nil {
		window.Parsed = parsed
	}
	return &window, nil
}

func scheduleText(name string, sched any) (string, error) {
	var text string
	switch s := sched.(type) {
	case string:
		text = s
	case schedule.Description:
		if name != "" {
			s.Name = name
		}
		encoded, err := schedule.Encode(s)
		if err != nil {
			return "", err
		}
		text = encoded
	case *schedule.Description:
		return scheduleText(name, *s)
	default:
		return "", fmt.Errorf("unsupported schedule type %T", sched)
	}

	if !schedule.ValidWrapper(text) {
		return "", ErrInvalidIcal
	}
	return text, nil
}

// DeleteTimeWindow deletes one time window.
func (c *nelloClient) DeleteTimeWindow(ctx context.Context, locationID, twID string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	if _, err := checkEnvelope(c.api.DoDELETE(ctx, c.url("locations", locationID, "tw", twID))); err != nil {
		return fmt.Errorf("failed to delete time window %s: %w", twID, err)
	}
	return nil
}

// DeleteAllTimeWindows deletes every time window of a location. The deletes
// are issued concurrently and unordered; each outcome arrives on the
// returned channel as its call completes, and the channel closes once all
// calls have returned. There is no atomicity across the batch: a failure
// mid-batch leaves the remaining windows deleted independently.
func (c *nelloClient) DeleteAllTimeWindows(ctx context.Context, locationID string) (<-chan DeleteResult, error) {
	windows, err := c.TimeWindows(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve time windows: %w", err)
	}

	results := make(chan DeleteResult, len(windows))
	var wg sync.WaitGroup
	for _, window := range windows {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			results <- DeleteResult{
				TimeWindowID: id,
				Err:          c.DeleteTimeWindow(ctx, locationID, id),
			}
		}(window.ID)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results, nil
}
