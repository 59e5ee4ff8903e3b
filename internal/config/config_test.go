package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 5*time.Second, cfg.TypingTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Origins())
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("TYPING_TIMEOUT", "250ms")
	t.Setenv("HISTORY_LIMIT", "-3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
	assert.Equal(t, 250*time.Millisecond, cfg.TypingTimeout)
	assert.Equal(t, 50, cfg.HistoryLimit)
}
