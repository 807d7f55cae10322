package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/arbor/pkg/logger"
)

func TestLogToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := logger.New().FromWriter(buf).Level("debug").Make()
	require.NoError(t, err)
	defer l.Close()

	l.Debug().Str("op", "add").Msg("tree edit")
	require.Contains(t, buf.String(), `"op":"add"`)
	require.Contains(t, buf.String(), `"level":"debug"`)
}

func TestLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := logger.New().FromWriter(buf).Level("WARN").Make()
	require.NoError(t, err)

	l.Info().Msg("hidden")
	require.Equal(t, 0, buf.Len())
	l.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestUnknownLevelKeepsDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := logger.New().FromWriter(buf).Level("chatty").Make()
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "arbor.log")
	l, err := logger.New().FromPath(path).Make()
	require.NoError(t, err)

	l.Info().Msg("to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}
