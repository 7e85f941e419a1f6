package remote

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

// Store aplica a mesma Politica a qualquer adaptador e registra métricas por operação.
type Store struct {
	base     domain.RemoteStore
	politica Politica
	logger   *slog.Logger
}

func NewStore(base domain.RemoteStore, politica Politica, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{base: base, politica: politica, logger: logger}
}

func (s *Store) Criar(ctx context.Context, tabela domain.Colecao, payload json.RawMessage) (json.RawMessage, error) {
	var resultado json.RawMessage
	err := s.politica.Executar(ctx, len(payload), func(ctx context.Context) error {
		var err error
		resultado, err = s.base.Criar(ctx, tabela, payload)
		return err
	})
	s.observar("criar", tabela, err)
	return resultado, err
}

func (s *Store) Atualizar(ctx context.Context, tabela domain.Colecao, id string, parcial json.RawMessage) (json.RawMessage, error) {
	var resultado json.RawMessage
	err := s.politica.Executar(ctx, len(parcial), func(ctx context.Context) error {
		var err error
		resultado, err = s.base.Atualizar(ctx, tabela, id, parcial)
		return err
	})
	s.observar("atualizar", tabela, err)
	return resultado, err
}

func (s *Store) Excluir(ctx context.Context, tabela domain.Colecao, id string) error {
	err := s.politica.Executar(ctx, 0, func(ctx context.Context) error {
		return s.base.Excluir(ctx, tabela, id)
	})
	s.observar("excluir", tabela, err)
	return err
}

func (s *Store) Listar(ctx context.Context, tabela domain.Colecao, filtro domain.Filtro) ([]json.RawMessage, error) {
	var resultado []json.RawMessage
	err := s.politica.Executar(ctx, 0, func(ctx context.Context) error {
		var err error
		resultado, err = s.base.Listar(ctx, tabela, filtro)
		return err
	})
	s.observar("listar", tabela, err)
	return resultado, err
}

func (s *Store) observar(operacao string, tabela domain.Colecao, err error) {
	if err == nil {
		metrics.ObserveRemote(operacao, "ok")
		return
	}
	tipo := domain.TipoErro(err)
	metrics.ObserveRemote(operacao, string(tipo))
	s.logger.Debug("remote: chamada falhou", "operacao", operacao, "tabela", tabela, "tipo", tipo, "err", err)
}

var _ domain.RemoteStore = (*Store)(nil)
