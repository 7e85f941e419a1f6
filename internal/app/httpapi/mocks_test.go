package httpapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcelojr/ronda-kanban/internal/app/kanban"
	"github.com/marcelojr/ronda-kanban/internal/app/sincronizacao"
	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// MockRondasService implementa RondasService para os testes dos handlers
type MockRondasService struct {
	mock.Mock
}

func (m *MockRondasService) CriarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.Ronda), args.Error(1)
}

func (m *MockRondasService) AtualizarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.Ronda), args.Error(1)
}

func (m *MockRondasService) ExcluirRonda(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRondasService) ObterRonda(ctx context.Context, id string) (domain.Ronda, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Ronda), args.Error(1)
}

func (m *MockRondasService) ListarRondas(ctx context.Context) ([]domain.Ronda, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Ronda), args.Error(1)
}

func (m *MockRondasService) AdicionarArea(ctx context.Context, rondaID string, a domain.AreaTecnica) (domain.AreaTecnica, error) {
	args := m.Called(ctx, rondaID, a)
	return args.Get(0).(domain.AreaTecnica), args.Error(1)
}

func (m *MockRondasService) AtualizarArea(ctx context.Context, a domain.AreaTecnica) (domain.AreaTecnica, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(domain.AreaTecnica), args.Error(1)
}

func (m *MockRondasService) RemoverArea(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRondasService) AdicionarFoto(ctx context.Context, rondaID string, f domain.FotoRonda) (domain.FotoRonda, error) {
	args := m.Called(ctx, rondaID, f)
	return args.Get(0).(domain.FotoRonda), args.Error(1)
}

func (m *MockRondasService) AtualizarFoto(ctx context.Context, f domain.FotoRonda) (domain.FotoRonda, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(domain.FotoRonda), args.Error(1)
}

func (m *MockRondasService) RemoverFoto(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRondasService) AdicionarItem(ctx context.Context, rondaID string, item domain.OutroItem) (domain.OutroItem, error) {
	args := m.Called(ctx, rondaID, item)
	return args.Get(0).(domain.OutroItem), args.Error(1)
}

func (m *MockRondasService) AtualizarItem(ctx context.Context, item domain.OutroItem) (domain.OutroItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.OutroItem), args.Error(1)
}

func (m *MockRondasService) RemoverItem(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRondasService) EnviarArquivo(ctx context.Context, rondaID, nome, contentType string, conteudo []byte) (string, error) {
	args := m.Called(ctx, rondaID, nome, contentType, conteudo)
	return args.String(0), args.Error(1)
}

type MockSincronizador struct {
	mock.Mock
}

func (m *MockSincronizador) Status() domain.StatusSincronizacao {
	return m.Called().Get(0).(domain.StatusSincronizacao)
}

func (m *MockSincronizador) Sincronizar(ctx context.Context) (sincronizacao.Resumo, error) {
	args := m.Called(ctx)
	return args.Get(0).(sincronizacao.Resumo), args.Error(1)
}

type MockKanbanService struct {
	mock.Mock
}

func (m *MockKanbanService) CriarCard(ctx context.Context, card domain.KanbanCard) (domain.KanbanCard, error) {
	args := m.Called(ctx, card)
	return args.Get(0).(domain.KanbanCard), args.Error(1)
}

func (m *MockKanbanService) Buscar(ctx context.Context, id string) (domain.KanbanCard, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.KanbanCard), args.Error(1)
}

func (m *MockKanbanService) Mover(ctx context.Context, id string, destino domain.StatusKanban, motivo string) (domain.KanbanCard, error) {
	args := m.Called(ctx, id, destino, motivo)
	return args.Get(0).(domain.KanbanCard), args.Error(1)
}

func (m *MockKanbanService) AtualizarChecklist(ctx context.Context, id string, checklist domain.Checklist) (domain.KanbanCard, []string, error) {
	args := m.Called(ctx, id, checklist)
	faltantes, _ := args.Get(1).([]string)
	return args.Get(0).(domain.KanbanCard), faltantes, args.Error(2)
}

func (m *MockKanbanService) RegistrarOQueFalta(ctx context.Context, id, nota string) (domain.KanbanCard, error) {
	args := m.Called(ctx, id, nota)
	return args.Get(0).(domain.KanbanCard), args.Error(1)
}

func (m *MockKanbanService) AdicionarFotos(ctx context.Context, id string, fotos []string) (domain.KanbanCard, error) {
	args := m.Called(ctx, id, fotos)
	return args.Get(0).(domain.KanbanCard), args.Error(1)
}

func (m *MockKanbanService) Quadro(ctx context.Context, contratoID string) (kanban.Quadro, error) {
	args := m.Called(ctx, contratoID)
	return args.Get(0).(kanban.Quadro), args.Error(1)
}

type MockLaudosService struct {
	mock.Mock
}

func (m *MockLaudosService) Criar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error) {
	args := m.Called(ctx, laudo)
	return args.Get(0).(domain.Laudo), args.Error(1)
}

func (m *MockLaudosService) Atualizar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error) {
	args := m.Called(ctx, laudo)
	return args.Get(0).(domain.Laudo), args.Error(1)
}

func (m *MockLaudosService) Excluir(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLaudosService) Buscar(ctx context.Context, id string) (domain.Laudo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Laudo), args.Error(1)
}

func (m *MockLaudosService) Listar(ctx context.Context, contratoID string) ([]domain.Laudo, error) {
	args := m.Called(ctx, contratoID)
	return args.Get(0).([]domain.Laudo), args.Error(1)
}

func (m *MockLaudosService) Resumo(ctx context.Context, contratoID string) (map[domain.StatusLaudo]int64, error) {
	args := m.Called(ctx, contratoID)
	return args.Get(0).(map[domain.StatusLaudo]int64), args.Error(1)
}
