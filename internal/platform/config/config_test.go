package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_QuandoSemVariaveis_DeveUsarDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://projeto.supabase.co")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, RemotoSupabase, cfg.RemoteMode)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval())
	assert.Equal(t, 5, cfg.SyncMaxTentativas)
	assert.Equal(t, 8*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, 15*time.Second, cfg.RemoteTimeoutMax())
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_QuandoModoSupabaseSemURL_DeveFalhar(t *testing.T) {
	t.Setenv("REMOTE_MODE", RemotoSupabase)
	t.Setenv("SUPABASE_URL", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_QuandoModoInvalido_DeveFalhar(t *testing.T) {
	t.Setenv("REMOTE_MODE", "firebase")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_QuandoRedisDBInvalido_DeveFalhar(t *testing.T) {
	t.Setenv("REMOTE_MODE", RemotoPostgres)
	t.Setenv("REDIS_DB", "abc")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_QuandoTimeoutMaxMenorQueBase_DeveIgualar(t *testing.T) {
	t.Setenv("REMOTE_MODE", RemotoPostgres)
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "10")
	t.Setenv("REMOTE_TIMEOUT_MAX_SECONDS", "3")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeoutMax())
}

func TestLoad_QuandoIntervaloNaoPositivo_DeveFalhar(t *testing.T) {
	casos := map[string]string{
		"SYNC_INTERVAL_SECONDS":          "0",
		"CONECTIVIDADE_INTERVAL_SECONDS": "-5",
	}
	for variavel, valor := range casos {
		t.Run(variavel, func(t *testing.T) {
			t.Setenv("REMOTE_MODE", RemotoPostgres)
			t.Setenv(variavel, valor)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), variavel)
		})
	}
}

func TestPostgresDSN_DeveMontarURL(t *testing.T) {
	cfg := Config{
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresDB:       "ronda",
		PostgresSSLMode:  "disable",
	}

	assert.Equal(t, "postgres://u:p@db:5432/ronda?sslmode=disable", cfg.PostgresDSN())
}
