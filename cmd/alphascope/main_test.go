package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, flush, err := newLogger("debug", "", "sync")
	require.NoError(t, err)
	require.NotNil(t, logger)
	flush()

	_, _, err = newLogger("loud", "", "sync")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	asOf := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, asOf, clock(asOf)())
	assert.WithinDuration(t, time.Now(), clock(time.Time{})(), time.Minute)
}
