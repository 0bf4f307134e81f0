package config

import (
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DATABASE_PATH", "MACHINE_ID", "ACTIVITY_BUFFER",
		"RUN_MIGRATIONS", "JWKS_URL", "COGNITO_POOL_ID", "LOG_LEVEL", "INTEGRITY_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "database.db", cfg.DatabasePath)
	assert.EqualValues(t, 1, cfg.MachineID)
	assert.Equal(t, 256, cfg.ActivityBuffer)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, "@every 1h", cfg.IntegritySchedule)
	assert.Equal(t, log.INFO, cfg.LogLevel)
	assert.Empty(t, cfg.JWKSURL)
}

func TestFromEnv_CognitoPoolBuildsJWKSURL(t *testing.T) {
	t.Setenv("JWKS_URL", "")
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("COGNITO_POOL_ID", "sa-east-1_abc")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://cognito-idp.sa-east-1.amazonaws.com/sa-east-1_abc/.well-known/jwks.json", cfg.JWKSURL)
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("MACHINE_ID", "one")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("MACHINE_ID", "")
	t.Setenv("ACTIVITY_BUFFER", "0")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("ACTIVITY_BUFFER", "")
	t.Setenv("RUN_MIGRATIONS", "maybe")
	_, err = FromEnv()
	assert.Error(t, err)
}
