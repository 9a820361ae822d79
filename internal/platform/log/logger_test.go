package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Service: "self-screening", Format: FormatJSON})

	logger.Info().Str("phone", "+56900000000").Msg("screening started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "self-screening", line["service"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "screening started", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(&buf, Options{Format: FormatJSON})
	quiet.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	verbose := New(&buf, Options{Format: FormatJSON, Debug: true})
	verbose.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Service: "svc", Format: FormatConsole})
	logger.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "service=")
	assert.Contains(t, out, "svc")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestFromCtx(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Service: "svc", Format: FormatJSON})
	ctx := logger.WithContext(context.Background())

	FromCtx(ctx).Warn().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	assert.NotPanics(t, func() {
		FromCtx(context.Background()).Info().Msg("no logger installed")
	})
}
