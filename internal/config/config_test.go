package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, 0.5, cfg.OutcomeThreshold)
	assert.True(t, cfg.Screening.SkipRiskQuestion)
	assert.Equal(t, "self-screening-lives-in-area", cfg.Screening.SeekAttentionTask)
	assert.Equal(t, time.Hour, cfg.NovelCOVID.CacheTTL)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("OUTCOME_THRESHOLD", "0.75")
	t.Setenv("SCREENING_SKIP_RISK_QUESTION", "false")
	t.Setenv("ENDLESS_MEDICAL_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_ALERT_CHAT_ID", "42")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 0.75, cfg.OutcomeThreshold)
	assert.False(t, cfg.Screening.SkipRiskQuestion)
	assert.Equal(t, 5*time.Second, cfg.EndlessMedical.Timeout)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "STORAGE_BACKEND", "mongo"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"threshold above one", "OUTCOME_THRESHOLD", "1.5"},
		{"negative threshold", "OUTCOME_THRESHOLD", "-0.1"},
		{"non numeric threshold", "OUTCOME_THRESHOLD", "half"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
