package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "jpkvat", cfg.SystemName)
	assert.Equal(t, 12, cfg.BatchWorkers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "Sprzedaz", cfg.SalesSheet)
	assert.Equal(t, "Zakup", cfg.PurchaseSheet)
	assert.Equal(t, "Diagnostics", cfg.DiagnosticsSheet)
	assert.False(t, cfg.IsProduction())

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "stderr", lc.Output)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BATCH_WORKERS", "4")
	t.Setenv("JPK_OPERATOR_ID", "ksiegowa-1")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, "ksiegowa-1", cfg.OperatorID)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero workers", map[string]string{"BATCH_WORKERS": "0"}},
		{"same sheets", map[string]string{"SALES_SHEET": "Rejestr", "PURCHASE_SHEET": "Rejestr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
