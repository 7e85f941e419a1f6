package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// StatusSync guarda o último retrato da sincronização e avisa assinantes pelo canal de mesmo nome.
type StatusSync struct {
	client *redis.Client
	key    string
}

func NewStatusSync(client *redis.Client, key string) *StatusSync {
	return &StatusSync{client: client, key: key}
}

func (s *StatusSync) Publicar(ctx context.Context, status domain.StatusSincronizacao) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("redis status: serializar: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key, payload, 0)
	pipe.Publish(ctx, s.key, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis status: publicar: %w", err)
	}
	return nil
}

// Ler devolve domain.ErrNotFound enquanto nenhum retrato foi publicado.
func (s *StatusSync) Ler(ctx context.Context) (domain.StatusSincronizacao, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.StatusSincronizacao{}, domain.ErrNotFound
		}
		return domain.StatusSincronizacao{}, fmt.Errorf("redis status: ler: %w", err)
	}

	var status domain.StatusSincronizacao
	if err := json.Unmarshal(payload, &status); err != nil {
		return domain.StatusSincronizacao{}, fmt.Errorf("redis status: payload invalido: %w", err)
	}
	return status, nil
}

// Assinar entrega cada retrato publicado até o contexto terminar.
func (s *StatusSync) Assinar(ctx context.Context, fn func(domain.StatusSincronizacao)) error {
	sub := s.client.Subscribe(ctx, s.key)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis status: assinar: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var status domain.StatusSincronizacao
			if err := json.Unmarshal([]byte(msg.Payload), &status); err != nil {
				continue
			}
			fn(status)
		}
	}
}
