// Pacote redis implementa sobre Redis a fila de alertas, a trava de sincronização,
// o retrato do status de sincronização e o painel de laudos.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Fila usa uma lista Redis para levar alertas de laudos da API/worker ao despachante de e-mail.
// Publicar na fila é a forma de notificar: o envio real acontece no consumidor.
type Fila struct {
	client *redis.Client
	key    string
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client: client,
		key:    key,
	}
}

func (f *Fila) Notificar(ctx context.Context, alerta domain.AlertaLaudos) error {
	payload, err := json.Marshal(alerta)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando alerta: %w", err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar alerta: %w", err)
	}
	return nil
}

// Tamanho informa quantos alertas aguardam envio.
func (f *Fila) Tamanho(ctx context.Context) (int64, error) {
	return f.client.LLen(ctx, f.key).Result()
}

func (f *Fila) ConsumirAlertas(ctx context.Context, handler func(context.Context, domain.AlertaLaudos) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP com timeout curto para respeitar o contexto.
		res, err := f.client.BRPop(ctx, 5*time.Second, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("redis fila: falha ao consumir alerta: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var alerta domain.AlertaLaudos
		if err := json.Unmarshal([]byte(res[1]), &alerta); err != nil {
			return fmt.Errorf("redis fila: payload invalido: %w", err)
		}

		if err := handler(ctx, alerta); err != nil {
			return err
		}
	}
}

var _ domain.Notificador = (*Fila)(nil)
