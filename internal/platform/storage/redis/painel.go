package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Painel mantém, por contrato, um hash status → quantidade de laudos.
type Painel struct {
	client *redis.Client
	prefix string
}

func NewPainel(client *redis.Client, prefix string) *Painel {
	return &Painel{
		client: client,
		prefix: prefix,
	}
}

// Registrar substitui o resumo anterior por inteiro.
func (p *Painel) Registrar(ctx context.Context, contratoID string, resumo map[domain.StatusLaudo]int64) error {
	key := p.key(contratoID)
	campos := make(map[string]any, len(resumo))
	for status, total := range resumo {
		campos[nomeCampo(status)] = total
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(campos) > 0 {
		pipe.HSet(ctx, key, campos)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis painel: registrar %s: %w", contratoID, err)
	}
	return nil
}

func (p *Painel) Obter(ctx context.Context, contratoID string) (map[domain.StatusLaudo]int64, error) {
	valores, err := p.client.HGetAll(ctx, p.key(contratoID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis painel: obter %s: %w", contratoID, err)
	}

	resumo := make(map[domain.StatusLaudo]int64, len(valores))
	for campo, raw := range valores {
		num, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			return nil, fmt.Errorf("redis painel: valor invalido para %s: %w", campo, convErr)
		}
		resumo[statusDoCampo(campo)] = num
	}
	return resumo, nil
}

// O status indefinido é a string vazia; no hash ele vira "indefinido".
func nomeCampo(status domain.StatusLaudo) string {
	if status == domain.LaudoIndefinido {
		return "indefinido"
	}
	return string(status)
}

func statusDoCampo(campo string) domain.StatusLaudo {
	if campo == "indefinido" {
		return domain.LaudoIndefinido
	}
	return domain.StatusLaudo(campo)
}

func (p *Painel) key(contratoID string) string {
	if p.prefix == "" {
		return contratoID
	}
	return fmt.Sprintf("%s:%s", p.prefix, contratoID)
}

var _ domain.PainelLaudos = (*Painel)(nil)
