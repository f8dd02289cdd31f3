package holiday

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// CacheEntry is today's already computed answer for one calendar and language
type CacheEntry struct {
	CalendarID string
	Language   string
	Date       DayKey
	Result     Result
}

// ErrMalformedEntry is returned when a persisted record cannot be decoded
var ErrMalformedEntry = errors.New("malformed cache entry")

var jsonNull = []byte("null")

// MarshalJSON encodes the entry as
// [calendarId, language, "YYYYMMDD", [status|null, expandedTitle|null, expandedBody|null]].
func (e CacheEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		e.CalendarID,
		e.Language,
		e.Date.String(),
		[]*string{e.Result.Status, e.Result.ExpandedTitle, e.Result.ExpandedBody},
	})
}

// UnmarshalJSON decodes the array form written by MarshalJSON. The result slot may
// also hold the array serialized as a string.
func (e *CacheEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("%w: expected 4 elements, got %d", ErrMalformedEntry, len(raw))
	}

	var decoded CacheEntry
	if err := decodeRequiredString(raw[0], &decoded.CalendarID); err != nil {
		return fmt.Errorf("%w: calendar id: %v", ErrMalformedEntry, err)
	}
	if err := decodeRequiredString(raw[1], &decoded.Language); err != nil {
		return fmt.Errorf("%w: language: %v", ErrMalformedEntry, err)
	}

	var stamp string
	if err := decodeRequiredString(raw[2], &stamp); err != nil {
		return fmt.Errorf("%w: date: %v", ErrMalformedEntry, err)
	}
	date, err := ParseDayKey(stamp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	decoded.Date = date

	fields, err := decodeResultFields(raw[3])
	if err != nil {
		return fmt.Errorf("%w: result: %v", ErrMalformedEntry, err)
	}
	decoded.Result = Result{Status: fields[0], ExpandedTitle: fields[1], ExpandedBody: fields[2]}

	*e = decoded
	return nil
}

func decodeRequiredString(raw json.RawMessage, out *string) error {
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return errors.New("unexpected null")
	}
	return json.Unmarshal(raw, out)
}

func decodeResultFields(raw json.RawMessage) ([]*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var nested string
		if err := json.Unmarshal(trimmed, &nested); err != nil {
			return nil, err
		}
		trimmed = []byte(nested)
	}

	var fields []*string
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	return fields, nil
}
