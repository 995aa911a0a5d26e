package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog sets up the logger to write to a buffer and returns the buffer.
func captureLog(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := destination
	destination = &buf
	t.Cleanup(func() {
		destination = prev
		SetupLogging(LogConfig{})
	})
	SetupLogging(cfg)
	return &buf
}

func TestSetupLogging_TimestampDefaultOn(t *testing.T) {
	buf := captureLog(t, LogConfig{})
	Info("test")
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}`, strings.TrimSpace(buf.String()))
}

func TestSetupLogging_TimestampExplicitlyDisabled(t *testing.T) {
	buf := captureLog(t, LogConfig{Timestamps: BoolPtr(false)})
	Info("hello")
	assert.NotRegexp(t, `^\d{1,2}:\d{2}:\d{2}`, strings.TrimSpace(buf.String()),
		"output should not start with a timestamp")
}

func TestSetupLogging_VerboseForcesDebugAndTimestamps(t *testing.T) {
	buf := captureLog(t, LogConfig{Verbose: true, Timestamps: BoolPtr(false), Level: "error"})
	Debug("verbose-msg")
	out := buf.String()
	assert.Contains(t, out, "verbose-msg")
	assert.Equal(t, log.DebugLevel, Level())
}

func TestSetupLogging_Level(t *testing.T) {
	buf := captureLog(t, LogConfig{Level: "WARNING"})
	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"Warning", log.WarnLevel},
		{"warn", log.WarnLevel},
		{"ERROR", log.ErrorLevel},
		{"critical", log.FatalLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	captureLog(t, LogConfig{})
	require.NoError(t, SetLevel("error"))
	assert.Equal(t, log.ErrorLevel, Level())
	assert.Error(t, SetLevel("nope"))

	captureLog(t, LogConfig{Verbose: true})
	require.NoError(t, SetLevel("error"))
	assert.Equal(t, log.DebugLevel, Level(), "verbose debug level is kept")
}

func TestUnitLogger(t *testing.T) {
	captureLog(t, LogConfig{Verbose: true})
	unit := UnitLogger("comp/asset_scripts/plot.py")
	assert.Contains(t, unit.GetPrefix(), "plot.py")
	assert.Equal(t, log.DebugLevel, unit.GetLevel())

	var buf bytes.Buffer
	l := NewUnitLogger(&buf, "unit-a")
	l.Info("hello")
	assert.Contains(t, buf.String(), "unit-a")
	assert.Contains(t, buf.String(), "hello")
}

func TestBoolPtr(t *testing.T) {
	assert.True(t, *BoolPtr(true))
	assert.False(t, *BoolPtr(false))
}
