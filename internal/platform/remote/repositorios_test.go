package remote

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

func TestKanbanRepository_FindByID_QuandoListaVazia_DeveRetornarNotFound(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Listar", mock.Anything, domain.ColecaoKanban, domain.Filtro{"id": "k1"}).Return([]json.RawMessage{}, nil)
	repo := NewKanbanRepository(store)

	// Act
	_, err := repo.FindByID(context.Background(), "k1")

	// Assert
	assert.ErrorIs(t, err, domain.ErrNotFound)
	store.AssertExpectations(t)
}

func TestKanbanRepository_List_DeveOrdenarPorCriacao(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Listar", mock.Anything, domain.ColecaoKanban, domain.Filtro{"contrato_id": "c1"}).Return([]json.RawMessage{
		json.RawMessage(`{"id":"b","criado_em":"2025-01-02T00:00:00Z"}`),
		json.RawMessage(`{"id":"a","criado_em":"2025-01-01T00:00:00Z"}`),
	}, nil)
	repo := NewKanbanRepository(store)

	// Act
	cards, err := repo.List(context.Background(), "c1")

	// Assert
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "a", cards[0].ID)
	assert.Equal(t, "b", cards[1].ID)
}

func TestKanbanRepository_Update_QuandoRemotoNaoEncontra_DeveTraduzirParaErrNotFound(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Atualizar", mock.Anything, domain.ColecaoKanban, "k1", mock.Anything).
		Return(nil, domain.NovoErroRemoto(domain.ErroNotFound, "atualizar", nil))
	repo := NewKanbanRepository(store)

	// Act
	err := repo.Update(context.Background(), domain.KanbanCard{ID: "k1", Titulo: "x"})

	// Assert
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLaudoRepository_ListAll_DeveDeixarSemVencimentoNoFim(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Listar", mock.Anything, domain.ColecaoLaudos, domain.Filtro(nil)).Return([]json.RawMessage{
		json.RawMessage(`{"id":"sem"}`),
		json.RawMessage(`{"id":"tarde","data_vencimento":"2025-06-01T00:00:00Z"}`),
		json.RawMessage(`{"id":"cedo","data_vencimento":"2025-01-01T00:00:00Z"}`),
	}, nil)
	repo := NewLaudoRepository(store)

	// Act
	laudos, err := repo.ListAll(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, laudos, 3)
	assert.Equal(t, []string{"cedo", "tarde", "sem"}, []string{laudos[0].ID, laudos[1].ID, laudos[2].ID})
}

func TestLaudoRepository_Delete_QuandoErroDeRede_DeveManterClassificacao(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Excluir", mock.Anything, domain.ColecaoLaudos, "l1").
		Return(domain.NovoErroRemoto(domain.ErroRede, "excluir", nil))
	repo := NewLaudoRepository(store)

	// Act
	err := repo.Delete(context.Background(), "l1")

	// Assert
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.ErroRede, domain.TipoErro(err))
}

func TestContratoRepository_FindByID_DeveDecodificarEmails(t *testing.T) {
	// Arrange
	store := new(MockRemoteStore)
	store.On("Listar", mock.Anything, domain.ColecaoContratos, domain.Filtro{"id": "c1"}).Return([]json.RawMessage{
		json.RawMessage(`{"id":"c1","nome":"Aurora","emails_notificacao":["a@x.com"]}`),
	}, nil)
	repo := NewContratoRepository(store)

	// Act
	contrato, err := repo.FindByID(context.Background(), "c1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Aurora", contrato.Nome)
	assert.Equal(t, []string{"a@x.com"}, contrato.EmailsNotificacao)
}
