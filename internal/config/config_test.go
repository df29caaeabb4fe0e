package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c := Load()

	assert.Equal(t, "5000", c.HTTPPort)
	assert.Equal(t, PolicyRegister, c.CheckinPolicy)
	assert.Equal(t, "AICTE", c.RegistrationPrefix)
	assert.Equal(t, 10, c.DBMaxOpenConns)
	assert.Equal(t, 8*time.Hour, c.AdminTokenTTL)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, "redis", c.SessionBackend)
	require.NoError(t, c.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CHECKIN_POLICY", "daily")
	t.Setenv("REGISTRATION_PREFIX", "EXPO")
	t.Setenv("ADMIN_TOKEN_TTL", "30m")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("LOG_COMPRESS", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	c := Load()

	assert.Equal(t, PolicyDaily, c.CheckinPolicy)
	assert.Equal(t, "EXPO", c.RegistrationPrefix)
	assert.Equal(t, 30*time.Minute, c.AdminTokenTTL)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.True(t, c.LogCompress)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ADMIN_TOKEN_TTL", "forever")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("LOG_COMPRESS", "maybe")

	c := Load()

	assert.Equal(t, 8*time.Hour, c.AdminTokenTTL)
	assert.Equal(t, 10, c.DBMaxOpenConns)
	assert.False(t, c.LogCompress)
}

func TestValidate(t *testing.T) {
	base := Load()

	bad := base
	bad.CheckinPolicy = "both"
	assert.Error(t, bad.Validate())

	bad = base
	bad.EventTimezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = base
	bad.SessionBackend = "memcached"
	assert.Error(t, bad.Validate())

	bad = base
	bad.RegistrationPrefix = ""
	assert.Error(t, bad.Validate())
}

func TestIsProduction(t *testing.T) {
	assert.True(t, App{Env: "prod"}.IsProduction())
	assert.True(t, App{Env: "production"}.IsProduction())
	assert.False(t, App{Env: "dev"}.IsProduction())
}

func TestValidate_ProductionRejectsDevSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	c := Load()
	assert.EqualError(t, c.Validate(), "JWT_SIGNING_KEY must be set in production")

	c.JWTSigningKey = "a-real-secret"
	assert.EqualError(t, c.Validate(), "ADMIN_PASSWORD must be changed in production")

	c.AdminPassword = "s3cure-pass"
	assert.NoError(t, c.Validate())

	c.Env = "dev"
	c.JWTSigningKey = defaultSigningKey
	c.AdminPassword = defaultAdminPassword
	assert.NoError(t, c.Validate())
}
