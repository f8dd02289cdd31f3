package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/holidays/internal/clock"
	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/feed"
	"github.com/belphemur/holidays/internal/holiday"
)

// journal records side effects across collaborators, in order
type journal struct {
	entries []string
}

func (j *journal) add(entry string) {
	j.entries = append(j.entries, entry)
}

type settingsStub struct {
	cfg config.CalendarConfig
}

func (s *settingsStub) Settings() config.CalendarConfig {
	return s.cfg
}

type connectivityStub struct {
	connected bool
	calls     int
}

func (c *connectivityStub) IsConnected(context.Context) bool {
	c.calls++
	return c.connected
}

// MockFetcher is a mock implementation of feed.Fetcher
type MockFetcher struct {
	mock.Mock
	journal *journal
}

func (m *MockFetcher) Fetch(ctx context.Context, calendarID, language string) ([]holiday.Event, error) {
	m.journal.add("fetch")
	args := m.Called(calendarID, language)
	events, _ := args.Get(0).([]holiday.Event)
	return events, args.Error(1)
}

type memoryCache struct {
	entry    *holiday.CacheEntry
	readErr  error
	writeErr error
	journal  *journal
}

func (c *memoryCache) Read(context.Context) (*holiday.CacheEntry, error) {
	c.journal.add("cache.read")
	if c.readErr != nil {
		return nil, c.readErr
	}
	if c.entry == nil {
		return nil, nil
	}
	entry := *c.entry
	return &entry, nil
}

func (c *memoryCache) Write(_ context.Context, entry holiday.CacheEntry) error {
	c.journal.add("cache.write")
	if c.writeErr != nil {
		return c.writeErr
	}
	c.entry = &entry
	return nil
}

func (c *memoryCache) Clear(context.Context) error {
	c.journal.add("cache.clear")
	c.entry = nil
	return nil
}

type recordingPublisher struct {
	published []holiday.ExtensionData
	journal   *journal
}

func (p *recordingPublisher) Publish(_ context.Context, data holiday.ExtensionData) {
	if data.Visible {
		p.journal.add("publish.visible")
	} else {
		p.journal.add("publish.hidden")
	}
	p.published = append(p.published, data)
}

type fixture struct {
	journal      *journal
	settings     *settingsStub
	cache        *memoryCache
	fetcher      *MockFetcher
	connectivity *connectivityStub
	publisher    *recordingPublisher
	clock        *clock.Mock
	engine       *Engine
}

var testNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	j := &journal{}
	f := &fixture{
		journal:      j,
		settings:     &settingsStub{cfg: config.CalendarConfig{ID: "usa", Language: "en"}},
		cache:        &memoryCache{journal: j},
		fetcher:      &MockFetcher{journal: j},
		connectivity: &connectivityStub{connected: true},
		publisher:    &recordingPublisher{journal: j},
		clock:        clock.NewMock(testNow),
	}
	f.engine = New(f.settings, f.cache, f.fetcher, f.connectivity, f.publisher, f.clock, Options{
		Icon:                 "holiday",
		ClickTarget:          "holidays://settings",
		NotConfiguredMessage: "Not configured",
	})
	return f
}

func (f *fixture) today(t *testing.T) holiday.DayKey {
	t.Helper()
	return holiday.DayOf(f.clock.Now())
}

func newYear() holiday.Event {
	return holiday.Event{
		Summary: "New Year's Day",
		Start:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 23, 59, 59, 999_000_000, time.UTC),
		AllDay:  true,
	}
}

func validEntry(f *fixture, t *testing.T) *holiday.CacheEntry {
	return &holiday.CacheEntry{
		CalendarID: "usa",
		Language:   "en",
		Date:       f.today(t),
		Result:     holiday.Result{Status: holiday.StringPtr("Cached Holiday")},
	}
}

var allReasons = []Reason{ReasonInitial, ReasonManual, ReasonPeriodic, ReasonExternalSignal}

func TestUpdate_NotConfigured(t *testing.T) {
	for _, reason := range allReasons {
		t.Run(reason.String(), func(t *testing.T) {
			f := newFixture(t)
			f.settings.cfg = config.CalendarConfig{ID: "", Language: "en"}

			outcome := f.engine.Update(context.Background(), reason)

			assert.Equal(t, OutcomeNotConfigured, outcome)
			require.Len(t, f.publisher.published, 1)
			published := f.publisher.published[0]
			assert.True(t, published.Visible)
			require.NotNil(t, published.Status)
			assert.Equal(t, "Not configured", *published.Status)
			assert.Equal(t, "holidays://settings", published.ClickTarget)
			assert.Equal(t, "holiday", published.Icon)
			assert.Equal(t, []string{"publish.visible"}, f.journal.entries, "No cache interaction and no fetch")
			assert.Equal(t, 0, f.connectivity.calls)
		})
	}
}

func TestUpdate_CacheHitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

	first := f.engine.Update(context.Background(), ReasonPeriodic)
	second := f.engine.Update(context.Background(), ReasonPeriodic)

	assert.Equal(t, OutcomeUpdated, first)
	assert.Equal(t, OutcomeCacheHit, second)
	f.fetcher.AssertNumberOfCalls(t, "Fetch", 1)

	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, f.publisher.published[0], f.publisher.published[1])
	assert.Equal(t, "New Year's Day", *f.publisher.published[1].Status)
	assert.Equal(t, []string{
		"cache.read", "fetch", "publish.visible", "cache.write",
		"cache.read", "publish.visible",
	}, f.journal.entries)
}

func TestUpdate_ExternalSignalUsesCache(t *testing.T) {
	f := newFixture(t)
	f.cache.entry = validEntry(f, t)

	outcome := f.engine.Update(context.Background(), ReasonExternalSignal)

	assert.Equal(t, OutcomeCacheHit, outcome)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "Cached Holiday", *f.publisher.published[0].Status)
	assert.Equal(t, "holiday", f.publisher.published[0].Icon)
}

func TestUpdate_ForcedReasonsBypassCache(t *testing.T) {
	for _, reason := range []Reason{ReasonInitial, ReasonManual} {
		t.Run(reason.String(), func(t *testing.T) {
			f := newFixture(t)
			f.cache.entry = validEntry(f, t)
			f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

			outcome := f.engine.Update(context.Background(), reason)

			assert.Equal(t, OutcomeUpdated, outcome)
			f.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
			assert.Equal(t, []string{"fetch", "publish.visible", "cache.write"}, f.journal.entries)
			assert.Equal(t, "New Year's Day", *f.cache.entry.Result.Status)
		})
	}
}

func TestUpdate_InvalidationClearsAndUnpublishesBeforeFetch(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(entry *holiday.CacheEntry)
	}{
		{name: "Calendar changed", mutate: func(e *holiday.CacheEntry) { e.CalendarID = "japan" }},
		{name: "Language changed", mutate: func(e *holiday.CacheEntry) { e.Language = "fr" }},
		{name: "Date changed", mutate: func(e *holiday.CacheEntry) { e.Date = e.Date.AddDays(-1) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			entry := validEntry(f, t)
			tc.mutate(entry)
			f.cache.entry = entry
			f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

			outcome := f.engine.Update(context.Background(), ReasonPeriodic)

			assert.Equal(t, OutcomeUpdated, outcome)
			assert.Equal(t, []string{
				"cache.read", "cache.clear", "publish.hidden",
				"fetch", "publish.visible", "cache.write",
			}, f.journal.entries)

			require.Len(t, f.publisher.published, 2)
			hidden := f.publisher.published[0]
			assert.False(t, hidden.Visible)
			assert.Nil(t, hidden.Status)
			assert.Nil(t, hidden.ExpandedTitle)
			assert.Nil(t, hidden.ExpandedBody)

			require.NotNil(t, f.cache.entry)
			assert.Equal(t, "usa", f.cache.entry.CalendarID)
			assert.Equal(t, "en", f.cache.entry.Language)
			assert.True(t, f.cache.entry.Date.Equal(f.today(t)))
		})
	}
}

func TestUpdate_Offline(t *testing.T) {
	f := newFixture(t)
	f.connectivity.connected = false

	outcome := f.engine.Update(context.Background(), ReasonPeriodic)

	assert.Equal(t, OutcomeOffline, outcome)
	assert.Empty(t, f.publisher.published)
	assert.Nil(t, f.cache.entry)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestUpdate_OfflineAfterInvalidation(t *testing.T) {
	f := newFixture(t)
	entry := validEntry(f, t)
	entry.Date = entry.Date.AddDays(-1)
	f.cache.entry = entry
	f.connectivity.connected = false

	outcome := f.engine.Update(context.Background(), ReasonPeriodic)

	assert.Equal(t, OutcomeOffline, outcome)
	assert.Equal(t, []string{"cache.read", "cache.clear", "publish.hidden"}, f.journal.entries)
}

func TestUpdate_OfflineForcedReasonPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.cache.entry = validEntry(f, t)
	f.connectivity.connected = false

	outcome := f.engine.Update(context.Background(), ReasonManual)

	assert.Equal(t, OutcomeOffline, outcome)
	assert.Empty(t, f.journal.entries)
	assert.Equal(t, "Cached Holiday", *f.cache.entry.Result.Status, "The cache is left untouched")
}

func TestUpdate_FetchErrorsKeepState(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "Network error", err: &feed.NetworkError{URL: "https://example.com", StatusCode: 503, Err: errors.New("unavailable")}},
		{name: "Format error", err: &feed.FormatError{Err: errors.New("not a calendar")}},
		{name: "Cancelled", err: &feed.NetworkError{URL: "https://example.com", Err: context.Canceled}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.fetcher.On("Fetch", "usa", "en").Return(nil, tc.err)

			outcome := f.engine.Update(context.Background(), ReasonInitial)

			assert.Equal(t, OutcomeFetchFailed, outcome)
			assert.Empty(t, f.publisher.published)
			assert.Nil(t, f.cache.entry)
			assert.Equal(t, []string{"fetch"}, f.journal.entries)
		})
	}
}

func TestUpdate_Aggregation(t *testing.T) {
	second := holiday.Event{
		Summary: "Feast",
		Start:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
	}
	tomorrow := holiday.Event{
		Summary: "Tomorrow",
		Start:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC),
	}

	testCases := []struct {
		name          string
		events        []holiday.Event
		expected      holiday.Result
		expectVisible bool
	}{
		{
			name:     "No holiday",
			events:   []holiday.Event{tomorrow},
			expected: holiday.Result{},
		},
		{
			name:          "One holiday",
			events:        []holiday.Event{newYear(), tomorrow},
			expected:      holiday.Result{Status: holiday.StringPtr("New Year's Day")},
			expectVisible: true,
		},
		{
			name:   "Two holidays",
			events: []holiday.Event{newYear(), tomorrow, second},
			expected: holiday.Result{
				Status:        holiday.StringPtr("2 holidays today"),
				ExpandedTitle: holiday.StringPtr("2 holidays today"),
				ExpandedBody:  holiday.StringPtr("New Year's Day\nFeast"),
			},
			expectVisible: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.fetcher.On("Fetch", "usa", "en").Return(tc.events, nil)

			outcome := f.engine.Update(context.Background(), ReasonPeriodic)

			assert.Equal(t, OutcomeUpdated, outcome)
			require.Len(t, f.publisher.published, 1)
			published := f.publisher.published[0]
			assert.Equal(t, tc.expectVisible, published.Visible)
			assert.True(t, tc.expected.Equal(published.Result()))

			// An empty result is cached too, so the next periodic cycle is a hit
			require.NotNil(t, f.cache.entry)
			assert.True(t, tc.expected.Equal(f.cache.entry.Result))
		})
	}
}

func TestUpdate_CacheReadErrorIsMiss(t *testing.T) {
	f := newFixture(t)
	f.cache.readErr = errors.New("database is locked")
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

	outcome := f.engine.Update(context.Background(), ReasonPeriodic)

	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, []string{"cache.read", "fetch", "publish.visible", "cache.write"}, f.journal.entries)
}

func TestUpdate_CacheWriteErrorStillPublishes(t *testing.T) {
	f := newFixture(t)
	f.cache.writeErr = errors.New("disk full")
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

	outcome := f.engine.Update(context.Background(), ReasonPeriodic)

	assert.Equal(t, OutcomeUpdated, outcome)
	require.Len(t, f.publisher.published, 1)
	assert.True(t, f.publisher.published[0].Visible)
}

func TestUpdate_DefaultsLanguage(t *testing.T) {
	f := newFixture(t)
	f.settings.cfg = config.CalendarConfig{ID: "usa"}
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{}, nil)

	outcome := f.engine.Update(context.Background(), ReasonInitial)

	assert.Equal(t, OutcomeUpdated, outcome)
	f.fetcher.AssertExpectations(t)
	assert.Equal(t, "en", f.cache.entry.Language)
}

func TestUpdate_DayRollsOverInUTC(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil)

	require.Equal(t, OutcomeUpdated, f.engine.Update(context.Background(), ReasonPeriodic))

	// 23:59:59.999 UTC is still the same day, expressed in another zone
	f.clock.Set(time.Date(2024, 1, 2, 8, 59, 59, 999_000_000, time.FixedZone("JST", 9*60*60)))
	assert.Equal(t, OutcomeCacheHit, f.engine.Update(context.Background(), ReasonPeriodic))

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, OutcomeUpdated, f.engine.Update(context.Background(), ReasonPeriodic))
	f.fetcher.AssertNumberOfCalls(t, "Fetch", 2)

	last := f.publisher.published[len(f.publisher.published)-1]
	assert.False(t, last.Visible, "New Year's Day is over")
	assert.Equal(t, "20240102", f.cache.entry.Date.String())
}

func TestUpdate_SettingsSnapshotPerCycle(t *testing.T) {
	f := newFixture(t)
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil).Once()
	f.fetcher.On("Fetch", "japan", "ja").Return([]holiday.Event{}, nil).Once()

	require.Equal(t, OutcomeUpdated, f.engine.Update(context.Background(), ReasonPeriodic))

	f.settings.cfg = config.CalendarConfig{ID: "japan", Language: "ja"}
	require.Equal(t, OutcomeUpdated, f.engine.Update(context.Background(), ReasonExternalSignal))

	f.fetcher.AssertExpectations(t)
	assert.Equal(t, "japan", f.cache.entry.CalendarID)
	assert.Equal(t, "ja", f.cache.entry.Language)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.PublishConfig{
		Icon:             "flag",
		SettingsTarget:   "app://settings",
		NotConfigured:    "Pick a calendar",
		MultipleHolidays: "%d jours fériés",
	})

	assert.Equal(t, Options{
		Icon:                 "flag",
		ClickTarget:          "app://settings",
		NotConfiguredMessage: "Pick a calendar",
		MultipleFormat:       "%d jours fériés",
	}, opts)
}

func TestReason(t *testing.T) {
	assert.True(t, ReasonInitial.BypassesCache())
	assert.True(t, ReasonManual.BypassesCache())
	assert.False(t, ReasonPeriodic.BypassesCache())
	assert.False(t, ReasonExternalSignal.BypassesCache())

	assert.Equal(t, "external_signal", ReasonExternalSignal.String())
	assert.Equal(t, "reason(42)", Reason(42).String())
}

func TestOutcome_MarshalText(t *testing.T) {
	text, err := OutcomeCacheHit.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "cache_hit", string(text))
}

func TestUpdate_SettingsAreTrimmedOnce(t *testing.T) {
	f := newFixture(t)
	f.settings.cfg = config.CalendarConfig{ID: "  usa \t", Language: " en "}
	f.fetcher.On("Fetch", "usa", "en").Return([]holiday.Event{newYear()}, nil).Once()

	assert.Equal(t, OutcomeUpdated, f.engine.Update(context.Background(), ReasonPeriodic))
	require.NotNil(t, f.cache.entry)
	assert.Equal(t, "usa", f.cache.entry.CalendarID)
	assert.Equal(t, "en", f.cache.entry.Language)

	// The trimmed key matches the stored entry, so the next cycle is a cache hit.
	assert.Equal(t, OutcomeCacheHit, f.engine.Update(context.Background(), ReasonPeriodic))
	f.fetcher.AssertExpectations(t)
}

func TestUpdate_WhitespaceCalendarIsNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.settings.cfg = config.CalendarConfig{ID: "   ", Language: "en"}

	assert.Equal(t, OutcomeNotConfigured, f.engine.Update(context.Background(), ReasonPeriodic))
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
