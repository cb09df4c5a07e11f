package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, 31, cfg.QueueDefaults.MaxSlots)
	assert.True(t, cfg.QueueDefaults.MinMaxRule)
	assert.Equal(t, 3, cfg.QueueDefaults.MaxAttempts)
	assert.Equal(t, 2, cfg.MaxClaimsPerUser)
	assert.Equal(t, 6*time.Hour, cfg.IdentityCacheTTL)
}

func TestParseFromEnv(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "queues")
	t.Setenv("ADMIN_IDS", "100,200")
	t.Setenv("SUBJECT_ADMINS", "math:7|8,physics:9")
	t.Setenv("QUEUE_MAX_SLOTS", "12")
	t.Setenv("MAX_CLAIMS_PER_USER", "3")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "queues", cfg.DB.Name)
	assert.Equal(t, []string{"100", "200"}, cfg.AdminIDs)
	assert.Equal(t, map[string]string{"math": "7|8", "physics": "9"}, cfg.SubjectAdmins)
	assert.Equal(t, 12, cfg.QueueDefaults.MaxSlots)
	assert.Equal(t, 3, cfg.MaxClaimsPerUser)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE", "mongo")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("STORAGE", "memory")
	t.Setenv("MAX_CLAIMS_PER_USER", "0")
	_, err = Parse()
	assert.Error(t, err)
}

func TestParseAccessSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")

	_, err := Parse()
	assert.ErrorContains(t, err, "JWT_ACCESS_SECRET")

	t.Setenv("STORAGE", "memory")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Empty(t, cfg.AccessSecret)

	t.Setenv("STORAGE", "postgres")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	cfg, err = Parse()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.AccessSecret)
}
