package remote

import (
	"context"
	"fmt"
	"sort"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Repositórios do quadro e dos laudos sobre o backend genérico. Usados pela API
// quando o backend é o Supabase e não há conexão direta com o Postgres.

type KanbanRepository struct {
	tabela Tabela[domain.KanbanCard]
}

func NewKanbanRepository(store domain.RemoteStore) *KanbanRepository {
	return &KanbanRepository{tabela: NewTabela[domain.KanbanCard](store, domain.ColecaoKanban)}
}

func (r *KanbanRepository) Create(ctx context.Context, card domain.KanbanCard) error {
	_, err := r.tabela.Criar(ctx, card)
	return traduzir(err)
}

// Update regrava o card inteiro; vale a última escrita.
func (r *KanbanRepository) Update(ctx context.Context, card domain.KanbanCard) error {
	_, err := r.tabela.Atualizar(ctx, card.ID, card)
	return traduzir(err)
}

func (r *KanbanRepository) FindByID(ctx context.Context, id string) (domain.KanbanCard, error) {
	cards, err := r.tabela.Listar(ctx, domain.Filtro{"id": id})
	if err != nil {
		return domain.KanbanCard{}, traduzir(err)
	}
	if len(cards) == 0 {
		return domain.KanbanCard{}, domain.ErrNotFound
	}
	return cards[0], nil
}

func (r *KanbanRepository) List(ctx context.Context, contratoID string) ([]domain.KanbanCard, error) {
	filtro := domain.Filtro{}
	if contratoID != "" {
		filtro["contrato_id"] = contratoID
	}
	cards, err := r.tabela.Listar(ctx, filtro)
	if err != nil {
		return nil, traduzir(err)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].CriadoEm.Equal(cards[j].CriadoEm) {
			return cards[i].CriadoEm.Before(cards[j].CriadoEm)
		}
		return cards[i].ID < cards[j].ID
	})
	return cards, nil
}

type LaudoRepository struct {
	tabela Tabela[domain.Laudo]
}

func NewLaudoRepository(store domain.RemoteStore) *LaudoRepository {
	return &LaudoRepository{tabela: NewTabela[domain.Laudo](store, domain.ColecaoLaudos)}
}

func (r *LaudoRepository) Create(ctx context.Context, laudo domain.Laudo) error {
	_, err := r.tabela.Criar(ctx, laudo)
	return traduzir(err)
}

func (r *LaudoRepository) Update(ctx context.Context, laudo domain.Laudo) error {
	_, err := r.tabela.Atualizar(ctx, laudo.ID, laudo)
	return traduzir(err)
}

func (r *LaudoRepository) Delete(ctx context.Context, id string) error {
	return traduzir(r.tabela.Excluir(ctx, id))
}

func (r *LaudoRepository) FindByID(ctx context.Context, id string) (domain.Laudo, error) {
	laudos, err := r.tabela.Listar(ctx, domain.Filtro{"id": id})
	if err != nil {
		return domain.Laudo{}, traduzir(err)
	}
	if len(laudos) == 0 {
		return domain.Laudo{}, domain.ErrNotFound
	}
	return laudos[0], nil
}

func (r *LaudoRepository) ListByContrato(ctx context.Context, contratoID string) ([]domain.Laudo, error) {
	return r.listar(ctx, domain.Filtro{"contrato_id": contratoID})
}

func (r *LaudoRepository) ListAll(ctx context.Context) ([]domain.Laudo, error) {
	return r.listar(ctx, nil)
}

// listar ordena por vencimento, sem data no fim.
func (r *LaudoRepository) listar(ctx context.Context, filtro domain.Filtro) ([]domain.Laudo, error) {
	laudos, err := r.tabela.Listar(ctx, filtro)
	if err != nil {
		return nil, traduzir(err)
	}
	sort.SliceStable(laudos, func(i, j int) bool {
		a, b := laudos[i].DataVencimento, laudos[j].DataVencimento
		switch {
		case a == nil && b == nil:
			return laudos[i].ID < laudos[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return laudos[i].ID < laudos[j].ID
		}
	})
	return laudos, nil
}

type ContratoRepository struct {
	tabela Tabela[domain.Contrato]
}

func NewContratoRepository(store domain.RemoteStore) *ContratoRepository {
	return &ContratoRepository{tabela: NewTabela[domain.Contrato](store, domain.ColecaoContratos)}
}

func (r *ContratoRepository) FindByID(ctx context.Context, id string) (domain.Contrato, error) {
	contratos, err := r.tabela.Listar(ctx, domain.Filtro{"id": id})
	if err != nil {
		return domain.Contrato{}, traduzir(err)
	}
	if len(contratos) == 0 {
		return domain.Contrato{}, domain.ErrNotFound
	}
	return contratos[0], nil
}

func (r *ContratoRepository) List(ctx context.Context) ([]domain.Contrato, error) {
	contratos, err := r.tabela.Listar(ctx, nil)
	if err != nil {
		return nil, traduzir(err)
	}
	sort.SliceStable(contratos, func(i, j int) bool { return contratos[i].Nome < contratos[j].Nome })
	return contratos, nil
}

// traduzir converte o notFound remoto no sentinel usado pelos serviços.
func traduzir(err error) error {
	if err == nil {
		return nil
	}
	if domain.TipoErro(err) == domain.ErroNotFound {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return err
}

var (
	_ domain.KanbanRepository   = (*KanbanRepository)(nil)
	_ domain.LaudoRepository    = (*LaudoRepository)(nil)
	_ domain.ContratoRepository = (*ContratoRepository)(nil)
)
