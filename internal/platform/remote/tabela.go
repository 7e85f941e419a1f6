package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Tabela é a fachada tipada sobre o RemoteStore genérico para uma única tabela.
type Tabela[T any] struct {
	store domain.RemoteStore
	nome  domain.Colecao
}

func NewTabela[T any](store domain.RemoteStore, nome domain.Colecao) Tabela[T] {
	return Tabela[T]{store: store, nome: nome}
}

func (t Tabela[T]) Criar(ctx context.Context, entidade T) (T, error) {
	var zero T
	payload, err := json.Marshal(entidade)
	if err != nil {
		return zero, domain.NovoErroRemoto(domain.ErroValidacao, "criar "+string(t.nome), err)
	}
	bruto, err := t.store.Criar(ctx, t.nome, payload)
	if err != nil {
		return zero, err
	}
	return decodificar[T](bruto)
}

// Atualizar envia apenas os campos de parcial; o restante do registro remoto é preservado.
func (t Tabela[T]) Atualizar(ctx context.Context, id string, parcial any) (T, error) {
	var zero T
	payload, err := json.Marshal(parcial)
	if err != nil {
		return zero, domain.NovoErroRemoto(domain.ErroValidacao, "atualizar "+string(t.nome), err)
	}
	bruto, err := t.store.Atualizar(ctx, t.nome, id, payload)
	if err != nil {
		return zero, err
	}
	return decodificar[T](bruto)
}

func (t Tabela[T]) Excluir(ctx context.Context, id string) error {
	return t.store.Excluir(ctx, t.nome, id)
}

func (t Tabela[T]) Listar(ctx context.Context, filtro domain.Filtro) ([]T, error) {
	brutos, err := t.store.Listar(ctx, t.nome, filtro)
	if err != nil {
		return nil, err
	}
	resultado := make([]T, 0, len(brutos))
	for _, bruto := range brutos {
		v, err := decodificar[T](bruto)
		if err != nil {
			return nil, err
		}
		resultado = append(resultado, v)
	}
	return resultado, nil
}

func decodificar[T any](bruto json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(bruto, &v); err != nil {
		return v, fmt.Errorf("remote: decodificar resposta: %w", err)
	}
	return v, nil
}
