package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livetemplate/pageforge/internal/logging"
)

func TestLog(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	log, err := logging.New().FromWriter(buff).Make()
	require.NoError(t, err)
	require.Equal(t, 0, buff.Len())

	log.Logger.Info().Msg("Test")
	require.Contains(t, buff.String(), "Test")
	require.Contains(t, buff.String(), `"level":"info"`)
	require.NoError(t, log.Close())
}

func TestLogLevel(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	log, err := logging.New().FromWriter(buff).Level("warn").Make()
	require.NoError(t, err)

	log.Logger.Info().Msg("hidden")
	require.Equal(t, 0, buff.Len())
	log.Logger.Warn().Msg("shown")
	require.Contains(t, buff.String(), "shown")

	buff.Reset()
	log, err = logging.New().FromWriter(buff).Level("warn").Verbose(true).Make()
	require.NoError(t, err)
	log.Logger.Debug().Msg("debugging")
	require.Contains(t, buff.String(), "debugging")
}

func TestLogFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageforge.log")
	log, err := logging.New().FromPath(path).Make()
	require.NoError(t, err)
	log.Logger.Info().Str("page", "p1").Msg("saved")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"page":"p1"`)
}

func TestLogPretty(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	log, err := logging.New().FromWriter(buff).Pretty(true).Make()
	require.NoError(t, err)
	log.Logger.Info().Msg("hello")
	require.Contains(t, buff.String(), "hello")
	require.NotContains(t, buff.String(), `"message"`)
}
