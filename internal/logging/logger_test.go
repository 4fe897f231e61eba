package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/bryanwahyu/greenscan/internal/logging"
)

func TestParseLevel(t *testing.T) {
	gt.Equal(t, logging.ParseLevel("DEBUG"), slog.LevelDebug)
	gt.Equal(t, logging.ParseLevel("warning"), slog.LevelWarn)
	gt.Equal(t, logging.ParseLevel("error"), slog.LevelError)
	gt.Equal(t, logging.ParseLevel("chatty"), slog.LevelInfo)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("warn", &buf)

	logger.Info("hidden message")
	gt.Equal(t, buf.Len(), 0)

	logger.Warn("visible message", "analysis_id", "a1")
	gt.S(t, buf.String()).Contains("visible message")
	gt.S(t, buf.String()).Contains("a1")
}

func TestContextLogger(t *testing.T) {
	gt.True(t, logging.From(context.Background()) == logging.Default())

	var buf bytes.Buffer
	logger := logging.New("info", &buf)
	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("scoped")
	gt.S(t, buf.String()).Contains("scoped")
}
