/*
main_test.go - Configuration loading tests
*/
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "leave.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.MaxScheduleEdits)
	assert.False(t, cfg.AllowNegativeBalance)
	require.NotNil(t, cfg.Seed)
	assert.True(t, *cfg.Seed)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("LEAVE_PORT", "9090")
	t.Setenv("LEAVE_ALLOW_NEGATIVE_BALANCE", "true")
	t.Setenv("LEAVE_SEED", "false")
	t.Setenv("LEAVE_HR_REPRESENTATIVE_ID", "hr-1")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.AllowNegativeBalance)
	assert.Equal(t, "hr-1", cfg.HRRepresentativeID)
	require.NotNil(t, cfg.Seed)
	assert.False(t, *cfg.Seed)
}
