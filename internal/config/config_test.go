package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("USERS_FILE", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Equal(t, "data/users.json", cfg.UsersFile)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("DATABASE_URL", "postgres://x/y")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "postgres://x/y", cfg.DBURL)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	base := Config{Port: 5000, JWTSecret: "s", TokenTTL: time.Hour, StoreDriver: StoreFile, UsersFile: "u.json"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}, wantErr: false},
		{name: "bad_driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "no_file", mutate: func(c *Config) { c.UsersFile = "" }, wantErr: true},
		{name: "bad_port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "bad_ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: true},
		{name: "postgres_ok", mutate: func(c *Config) { c.StoreDriver = StorePostgres; c.UsersFile = "" }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
