package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewZapLoggerWithLevel(t *testing.T) {
	l := NewZapLoggerWithLevel(zapcore.DebugLevel)
	assert.NotNil(t, l)
	assert.True(t, l.logger.Desugar().Core().Enabled(zapcore.DebugLevel))

	info := NewZapLogger()
	assert.False(t, info.logger.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, info.logger.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNopLoggerAcceptsCalls(t *testing.T) {
	l := NewNopLogger().With("rank", 3)
	assert.NotPanics(t, func() {
		l.Info("dispatched", "count", 1)
		l.Debug("debug")
		l.Warn("warn")
		l.Error("error", "error", assert.AnError)
	})
}
