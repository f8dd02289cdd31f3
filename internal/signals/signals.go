// Package signals carries in-process notifications between the update worker and its observers.
package signals

import (
	"context"

	"github.com/maniartech/signals"

	"github.com/belphemur/holidays/internal/holiday"
)

// CalendarChangedData contains the calendar selection after a configuration reload
type CalendarChangedData struct {
	CalendarID string
	Language   string
}

// HolidayPublished delivers every publication synchronously, in emission order
var HolidayPublished = signals.NewSync[holiday.ExtensionData]()

// CalendarChanged is emitted after the calendar selection changed
var CalendarChanged = signals.New[CalendarChangedData]()

// EmitHolidayPublished emits a publication to every listener and returns once they all ran
func EmitHolidayPublished(ctx context.Context, data holiday.ExtensionData) {
	HolidayPublished.Emit(ctx, data)
}

// EmitCalendarChanged emits a signal when the calendar selection changed
func EmitCalendarChanged(ctx context.Context, calendarID, language string) {
	CalendarChanged.Emit(ctx, CalendarChangedData{
		CalendarID: calendarID,
		Language:   language,
	})
}

// OnHolidayPublished registers a handler for publications
func OnHolidayPublished(handler func(ctx context.Context, data holiday.ExtensionData), key ...string) {
	if len(key) > 0 {
		HolidayPublished.AddListener(handler, key[0])
	} else {
		HolidayPublished.AddListener(handler)
	}
}

// OnCalendarChanged registers a handler for calendar selection changes
func OnCalendarChanged(handler func(ctx context.Context, data CalendarChangedData), key ...string) {
	if len(key) > 0 {
		CalendarChanged.AddListener(handler, key[0])
	} else {
		CalendarChanged.AddListener(handler)
	}
}

// RemoveHolidayPublished unregisters the publication handler added with key
func RemoveHolidayPublished(key string) {
	HolidayPublished.RemoveListener(key)
}

// RemoveCalendarChanged unregisters the calendar change handler added with key
func RemoveCalendarChanged(key string) {
	CalendarChanged.RemoveListener(key)
}
