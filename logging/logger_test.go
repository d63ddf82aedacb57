package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel_RecognizesAllNames(t *testing.T) {
	cases := map[string]Level{
		"fatal":   FatalLevel,
		"error":   ErrorLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"info":    InfoLevel,
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
	}

	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLevel_RejectsUnknownName(t *testing.T) {
	_, err := ParseLevel("verbose")

	assert.Error(t, err)
}

func TestGoLogger_SuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer

	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	l := &GoLogger{Level: ErrorLevel}
	l.Debug("should not appear")
	l.Info("should not appear either")

	assert.Empty(t, buf.String())
}

func TestGoLogger_EmitsAtOrBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer

	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	l := &GoLogger{Level: InfoLevel}
	l.Info("hello")

	assert.Contains(t, buf.String(), "hello")
}

func TestGoLogger_WithFieldsDoesNotMutateReceiver(t *testing.T) {
	base := &GoLogger{Level: InfoLevel}

	derived := base.WithFields("request_id", "abc")

	assert.Empty(t, base.fields)

	derivedLogger, ok := derived.(*GoLogger)
	require.True(t, ok)
	assert.Equal(t, []any{"request_id", "abc"}, derivedLogger.fields)
}

func TestNoneLogger_DiscardsEverythingAndNeverPanics(t *testing.T) {
	var l NoneLogger

	assert.NotPanics(t, func() {
		l.Info("x")
		l.Errorf("y %d", 1)
		l.Warnln("z")
		l.Debug("a")
		_ = l.Sync()
	})

	same := l.WithFields("a", 1)
	assert.IsType(t, &NoneLogger{}, same)
}
