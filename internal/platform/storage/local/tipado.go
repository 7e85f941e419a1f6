package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Buscar lê e decodifica uma entidade tipada do armazém.
func Buscar[T any](ctx context.Context, a domain.ArmazemLocal, colecao domain.Colecao, id string) (T, error) {
	var zero T
	raw, err := a.PorID(ctx, colecao, id)
	if err != nil {
		return zero, err
	}
	var entidade T
	if err := json.Unmarshal(raw, &entidade); err != nil {
		return zero, fmt.Errorf("local: decodificar %s %s: %w", colecao, id, err)
	}
	return entidade, nil
}

func Listar[T any](ctx context.Context, a domain.ArmazemLocal, colecao domain.Colecao) ([]T, error) {
	raws, err := a.Todos(ctx, colecao)
	if err != nil {
		return nil, err
	}
	return decodificar[T](colecao, raws)
}

func ListarPorIndice[T any](ctx context.Context, a domain.ArmazemLocal, colecao domain.Colecao, indice, valor string) ([]T, error) {
	raws, err := a.PorIndice(ctx, colecao, indice, valor)
	if err != nil {
		return nil, err
	}
	return decodificar[T](colecao, raws)
}

// SalvarLote converte a fatia tipada para o lote transacional do armazém.
func SalvarLote[T any](ctx context.Context, a domain.ArmazemLocal, colecao domain.Colecao, entidades []T) error {
	lote := make([]any, len(entidades))
	for i, e := range entidades {
		lote[i] = e
	}
	return a.SalvarTodos(ctx, colecao, lote)
}

func decodificar[T any](colecao domain.Colecao, raws []json.RawMessage) ([]T, error) {
	resultado := make([]T, 0, len(raws))
	for _, raw := range raws {
		var entidade T
		if err := json.Unmarshal(raw, &entidade); err != nil {
			return nil, fmt.Errorf("local: decodificar %s: %w", colecao, err)
		}
		resultado = append(resultado, entidade)
	}
	return resultado, nil
}
