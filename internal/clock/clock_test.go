package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	start := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	c := NewMock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(2 * time.Hour)
	assert.Equal(t, start.Add(2*time.Hour), c.Now())

	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestReal(t *testing.T) {
	before := time.Now()
	now := Real{}.Now()
	assert.False(t, now.Before(before))
}
