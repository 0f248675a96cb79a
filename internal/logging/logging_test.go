package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_Levels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, New("debug", "text").Enabled(ctx, slog.LevelDebug))
	assert.False(t, New("error", "text").Enabled(ctx, slog.LevelInfo))
	assert.True(t, New("", "json").Enabled(ctx, slog.LevelInfo))
}

func TestNewWithLevel_FollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := NewWithLevel(&buf, lvl, "json")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	lvl.Set(slog.LevelInfo)
	logger.Info("shown", "job_id", "j1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "j1", rec["job_id"])
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, slog.Default(), FromContext(ctx))

	custom := New("debug", "json")
	assert.Equal(t, custom, FromContext(WithLogger(ctx, custom)))
}

func TestL_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	ctx := WithLogger(context.Background(), NewWithLevel(&buf, lvl, "text"))
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-123")

	L(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=req-123")
}
