package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("REMINDER_SCHEDULE", "*/5 * * * *")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.SkipAuth)
	assert.Equal(t, "*/5 * * * *", cfg.ReminderSchedule)
	assert.Equal(t, "go-approvals", cfg.DBName)
	assert.False(t, cfg.IsProduction())
}
