package auth_test

import (
	"bytes"
	"testing"

	auth "github.com/fyrekit/streamauth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := auth.NewZerologLogger(zerolog.New(&buf))

	logger.Info("hello %s", "world")
	logger.Error("boom")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "boom")
}

func TestZerologAdapterHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := auth.NewZerologLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	logger.Debug("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}
