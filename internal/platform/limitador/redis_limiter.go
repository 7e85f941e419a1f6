// Pacote limitador segura alertas repetidos por contrato (janela fixa em Redis) e oferece um modo noop.
package limitador

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

var ErrLimiteExcedido = errors.New("limite de alertas atingido")

// liberarScript só decrementa contador vivo e positivo; janela expirada não volta negativa.
var liberarScript = redis.NewScript(`
local atual = tonumber(redis.call("GET", KEYS[1]) or "0")
if atual > 0 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

// RedisLimiter conta alertas por contrato em janelas fixas usando INCR + EXPIRE.
type RedisLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "alerta"
	}
	return &RedisLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisLimiter) Permitir(ctx context.Context, contratoID string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Configuração inválida cai no modo permissivo.
		return nil
	}

	key := r.buildKey(contratoID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("limitador: falha ao incrementar chave: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("limitador: falha ao definir expiracao: %w", err)
		}
	}

	if int(count) > r.limit {
		return ErrLimiteExcedido
	}

	return nil
}

func (r *RedisLimiter) Liberar(ctx context.Context, contratoID string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		return nil
	}
	if err := liberarScript.Run(ctx, r.client, []string{r.buildKey(contratoID)}).Err(); err != nil {
		return fmt.Errorf("limitador: falha ao liberar vaga: %w", err)
	}
	return nil
}

func (r *RedisLimiter) buildKey(contratoID string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, contratoID)
}

var _ domain.LimiteAlertas = (*RedisLimiter)(nil)
