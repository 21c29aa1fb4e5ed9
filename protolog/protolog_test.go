package protolog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultReturnsUsableLogger(t *testing.T) {
	logger := NewDefault(slog.LevelInfo)
	require.NotNil(t, logger)
}

func TestSessionAttachesSessionAttribute(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	logger := Session(base, "sess-42")
	logger.Info("hello")

	require.Contains(t, buf.String(), "session=sess-42")
}
