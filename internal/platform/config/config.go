// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	RemotoSupabase = "supabase"
	RemotoPostgres = "postgres"
)

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// LocalDBPath é o arquivo SQLite do armazém durável do dispositivo.
	LocalDBPath string `env:"LOCAL_DB_PATH" envDefault:"ronda-local.db"`

	RemoteMode     string `env:"REMOTE_MODE" envDefault:"supabase"`
	SupabaseURL    string `env:"SUPABASE_URL"`
	SupabaseKey    string `env:"SUPABASE_ANON_KEY"`
	SupabaseBucket string `env:"SUPABASE_BUCKET" envDefault:"fotos-ronda"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"ronda"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"ronda"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"ronda_kanban"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SyncIntervalSeconds  int    `env:"SYNC_INTERVAL_SECONDS" envDefault:"30"`
	SyncMaxTentativas    int    `env:"SYNC_MAX_TENTATIVAS" envDefault:"5"`
	SyncLockKey          string `env:"SYNC_LOCK_KEY" envDefault:"sync:trava"`
	SyncStatusKey        string `env:"SYNC_STATUS_KEY" envDefault:"sync:status"`
	ConectividadeSeconds int    `env:"CONECTIVIDADE_INTERVAL_SECONDS" envDefault:"10"`

	RemoteTimeoutSeconds    int `env:"REMOTE_TIMEOUT_SECONDS" envDefault:"8"`
	RemoteTimeoutMaxSeconds int `env:"REMOTE_TIMEOUT_MAX_SECONDS" envDefault:"15"`
	RemoteRetries           int `env:"REMOTE_RETRIES" envDefault:"2"`
	// FotosLimiteBytes é o orçamento de bytes das fotos de um item antes do envio.
	FotosLimiteBytes int `env:"FOTOS_LIMITE_BYTES" envDefault:"4000000"`

	ChecklistRequisitosPath string `env:"CHECKLIST_REQUISITOS_PATH"`

	NotificacaoFilaKey      string `env:"NOTIFICACAO_FILA_KEY" envDefault:"fila:alertas-laudos"`
	NotificacaoWebhookURL   string `env:"NOTIFICACAO_WEBHOOK_URL"`
	AlertaLimitePorContrato int    `env:"ALERTA_LIMITE_POR_CONTRATO" envDefault:"1"`
	AlertaJanelaSeconds     int    `env:"ALERTA_JANELA_SECONDS" envDefault:"86400"`
	AlertaLimitePrefix      string `env:"ALERTA_LIMITE_PREFIX" envDefault:"alerta"`
	LaudosRecalculoSeconds  int    `env:"LAUDOS_RECALCULO_SECONDS" envDefault:"3600"`
	PainelLaudosPrefix      string `env:"PAINEL_LAUDOS_PREFIX" envDefault:"painel:laudos"`
	WorkerMetricsAddress    string `env:"WORKER_METRICS_ADDRESS" envDefault:":9090"`
	AutoMigrate             bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.RemoteMode != RemotoSupabase && cfg.RemoteMode != RemotoPostgres {
		return Config{}, fmt.Errorf("config: REMOTE_MODE invalido: %q", cfg.RemoteMode)
	}
	if cfg.RemoteMode == RemotoSupabase && cfg.SupabaseURL == "" {
		return Config{}, fmt.Errorf("config: SUPABASE_URL obrigatorio no modo supabase")
	}
	if cfg.SyncIntervalSeconds <= 0 {
		return Config{}, fmt.Errorf("config: SYNC_INTERVAL_SECONDS deve ser positivo: %d", cfg.SyncIntervalSeconds)
	}
	if cfg.ConectividadeSeconds <= 0 {
		return Config{}, fmt.Errorf("config: CONECTIVIDADE_INTERVAL_SECONDS deve ser positivo: %d", cfg.ConectividadeSeconds)
	}
	if cfg.RemoteTimeoutMaxSeconds < cfg.RemoteTimeoutSeconds {
		cfg.RemoteTimeoutMaxSeconds = cfg.RemoteTimeoutSeconds
	}
	return cfg, nil
}

func (c Config) PostgresDSN() string {
	// Mantemos o formato DSN compatível com GORM e ferramentas de migração.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func (c Config) ConectividadeInterval() time.Duration {
	return time.Duration(c.ConectividadeSeconds) * time.Second
}

func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSeconds) * time.Second
}

func (c Config) RemoteTimeoutMax() time.Duration {
	return time.Duration(c.RemoteTimeoutMaxSeconds) * time.Second
}

func (c Config) AlertaJanela() time.Duration {
	return time.Duration(c.AlertaJanelaSeconds) * time.Second
}

func (c Config) LaudosRecalculo() time.Duration {
	return time.Duration(c.LaudosRecalculoSeconds) * time.Second
}
