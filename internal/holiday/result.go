package holiday

import (
	"fmt"
	"strings"
)

// DefaultMultipleFormat is the status template used when several holidays fall on one day
const DefaultMultipleFormat = "%d holidays today"

// Result is the three-field answer for one day. A nil field is absent, which is
// distinct from an empty string.
type Result struct {
	Status        *string
	ExpandedTitle *string
	ExpandedBody  *string
}

// Visible reports whether any field is present
func (r Result) Visible() bool {
	return r.Status != nil || r.ExpandedTitle != nil || r.ExpandedBody != nil
}

// Equal compares field by field, treating absent and empty as different
func (r Result) Equal(other Result) bool {
	return optionalEqual(r.Status, other.Status) &&
		optionalEqual(r.ExpandedTitle, other.ExpandedTitle) &&
		optionalEqual(r.ExpandedBody, other.ExpandedBody)
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to a copy of s
func StringPtr(s string) *string {
	return &s
}

// Builder aggregates matched events into a Result
type Builder struct {
	multipleFormat string
}

// NewBuilder creates a Builder; an empty format falls back to DefaultMultipleFormat.
// The format receives the holiday count as its only argument.
func NewBuilder(multipleFormat string) *Builder {
	if multipleFormat == "" {
		multipleFormat = DefaultMultipleFormat
	}
	return &Builder{multipleFormat: multipleFormat}
}

// Build maps zero, one or many matched events to a Result
func (b *Builder) Build(matched []Event) Result {
	switch len(matched) {
	case 0:
		return Result{}
	case 1:
		return Result{Status: StringPtr(matched[0].Summary)}
	}

	message := fmt.Sprintf(b.multipleFormat, len(matched))
	summaries := make([]string, 0, len(matched))
	for _, ev := range matched {
		summaries = append(summaries, ev.Summary)
	}

	return Result{
		Status:        StringPtr(message),
		ExpandedTitle: StringPtr(message),
		ExpandedBody:  StringPtr(strings.Join(summaries, "\n")),
	}
}
