package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// liberarScript só apaga a chave se o token ainda for o nosso.
var liberarScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Trava é um lock distribuído simples (SET NX PX + token) para uma drenagem por vez entre processos.
type Trava struct {
	client *redis.Client
	prefix string
}

func NewTrava(client *redis.Client, prefix string) *Trava {
	return &Trava{client: client, prefix: prefix}
}

func (t *Trava) Adquirir(ctx context.Context, chave string, ttl time.Duration) (func(), bool, error) {
	key := t.key(chave)
	token := uuid.NewString()

	ok, err := t.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis trava: adquirir %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	liberar := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = liberarScript.Run(ctx, t.client, []string{key}, token).Err()
	}
	return liberar, true, nil
}

func (t *Trava) key(chave string) string {
	if t.prefix == "" {
		return chave
	}
	return fmt.Sprintf("%s:%s", t.prefix, chave)
}

var _ domain.Trava = (*Trava)(nil)
