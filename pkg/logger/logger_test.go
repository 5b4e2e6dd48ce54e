package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf))

	l := Named("converter")
	l.Info(context.Background(), "gesture completed", String("gesture", "a_.b_."), Int("tokens", 2))

	out := buf.String()
	assert.Contains(t, out, "component=converter")
	assert.Contains(t, out, "gesture=a_.b_.")
	assert.Contains(t, out, "tokens=2")
	assert.Contains(t, out, "source=")
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf))

	require.NoError(t, SetLevelString("warn"))
	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown", Error(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "error=boom")

	assert.Error(t, SetLevelString("loud"))
	require.NoError(t, SetLevelString("info"))
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNop().Named("x")
	assert.NotPanics(t, func() {
		l.Error(context.Background(), "ignored")
		l.Debug(context.TODO(), "ignored")
	})
}
