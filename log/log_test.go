package log

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var (
		buf    bytes.Buffer
		logger = New(&buf, false)
	)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(LevelDebug))
	assert.True(t, logger.Enabled(LevelInfo))

	logger.Info("block", 7, "released")
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), `msg="block 7 released"`)

	buf.Reset()
	logger.SetLevel(LevelDebug)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "msg=visible")

	buf.Reset()
	logger.SetLevel(LevelOff)
	logger.Error("muted")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(LevelError))
	assert.False(t, logger.Enabled(LevelOff))
}

func TestLoggerColored(t *testing.T) {
	var (
		buf    bytes.Buffer
		logger = New(&buf, true)
	)

	logger.Error("boom")
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}

func TestLoggerEnabledConcurrentSetLevel(t *testing.T) {
	var (
		buf    bytes.Buffer
		logger = New(&buf, false)
		wg     sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			logger.SetLevel(LevelDebug)
			logger.SetLevel(LevelInfo)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			logger.Enabled(LevelDebug)
		}
	}()
	wg.Wait()

	assert.False(t, logger.Enabled(LevelDebug))
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"debug":   LevelDebug,
		"trace":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelOff,
	} {
		level, err := ParseLevel(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, level, s)
	}

	for _, s := range []string{"verbose", "fatal"} {
		_, err := ParseLevel(s)
		assert.ErrorIs(t, err, ErrUnknownLevel, s)
	}

	assert.Equal(t, "off", LevelOff.String())
	assert.Equal(t, "warning", LevelWarn.String())
}
