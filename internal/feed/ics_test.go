package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/holidays/internal/config"
)

func newTestFetcher(serverURL string) *ICSFetcher {
	return NewICSFetcher(config.FeedConfig{
		URLTemplate: serverURL + "/calendar/ical/{lang}.{calendar}/public/basic.ics",
		Timeout:     5 * time.Second,
	}, nil)
}

func TestICSFetcher_Fetch(t *testing.T) {
	var requestURI string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestURI = r.RequestURI
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleCalendar))
	}))
	defer server.Close()

	events, err := newTestFetcher(server.URL).Fetch(context.Background(), "usa#holiday@group.v.calendar.google.com", "en")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "New Year's Day", events[0].Summary)
	assert.Equal(t, "Parade", events[1].Summary)

	assert.Equal(t, "/calendar/ical/en.usa%23holiday%40group.v.calendar.google.com/public/basic.ics", requestURI)
}

func TestICSFetcher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), "missing", "en")
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.False(t, IsFormatError(err))
}

func TestICSFetcher_UnparseableDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>captive portal</html>"))
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL).Fetch(context.Background(), "usa", "en")
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestICSFetcher_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher(url).Fetch(context.Background(), "usa", "en")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestICSFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewICSFetcher(config.FeedConfig{
		URLTemplate: server.URL + "/{lang}/{calendar}.ics",
	}, &http.Client{Timeout: 50 * time.Millisecond})

	_, err := fetcher.Fetch(context.Background(), "usa", "en")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestICSFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCalendar))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(server.URL).Fetch(ctx, "usa", "en")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.ErrorIs(t, err, context.Canceled)
}
