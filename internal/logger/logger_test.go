package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prev, level, timeFormat := log.Logger, zerolog.GlobalLevel(), zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = timeFormat
	})
}

func TestSetupJSONFile(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "jpkvat.log")

	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path
	require.NoError(t, Setup(cfg))

	ledgerLog := WithComponent("ledger")
	ledgerLog.Info().Int("entries", 3).Msg("Register read")
	ledgerLog.Debug().Msg("not written at info level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Register read", entry["message"])
	assert.EqualValues(t, 3, entry["entries"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	restoreGlobals(t)

	cfg := DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, Setup(cfg))
}
