package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/nqueens.net/internal/adapter/logging"
)

func TestSetLogger(t *testing.T) {
	previous := Logger()
	t.Cleanup(func() { SetLogger(previous) })

	nop := logging.NewNopLogger()
	SetLogger(nop)

	assert.Same(t, nop, Logger())
	assert.NotPanics(t, func() {
		Info("info", "key", 1)
		Debug("debug")
		Warn("warn", "key", "value")
		Error("error")
	})
}
