package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel_MapsEveryLevel(t *testing.T) {
	cases := map[Level]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		FatalLevel: zapcore.FatalLevel,
		PanicLevel: zapcore.FatalLevel,
	}

	for level, want := range cases {
		assert.Equal(t, want, toZapLevel(level))
	}
}

func TestNewZapLogger_BuildsAndLogsWithoutPanicking(t *testing.T) {
	logger, err := NewZapLogger(InfoLevel)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		logger.Info("hello")
		derived := logger.WithFields("request_id", "abc")
		derived.Infof("world %d", 1)
	})

	assert.NotPanics(t, func() { _ = logger.Sync() })
}

func TestZapLogger_WithFieldsReturnsDistinctLogger(t *testing.T) {
	logger, err := NewZapLogger(InfoLevel)
	require.NoError(t, err)

	zapLogger, ok := logger.(*ZapLogger)
	require.True(t, ok)

	derived := zapLogger.WithFields("a", 1)

	assert.NotSame(t, zapLogger, derived)
}
