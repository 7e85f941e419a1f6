// Pacote kanban implementa o quadro de implantação: cards por categoria que só
// chegam a finalizado com o checklist da categoria completo.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelojr/ronda-kanban/internal/app/status"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
)

// MaxFotos limita as fotos anexadas a um card.
const MaxFotos = 40

var (
	ErrCardInvalido      = errors.New("card invalido")
	ErrTransicaoInvalida = errors.New("transicao de status nao permitida")
	ErrMotivoObrigatorio = errors.New("motivo da correcao obrigatorio")
	ErrLimiteFotos       = errors.New("limite de fotos do card excedido")
	ErrCategoriaInvalida = errors.New("categoria desconhecida")
)

var transicoes = map[domain.StatusKanban][]domain.StatusKanban{
	domain.KanbanAguardando:  {domain.KanbanEmAndamento, domain.KanbanEmCorrecao},
	domain.KanbanEmAndamento: {domain.KanbanEmCorrecao, domain.KanbanFinalizado},
	domain.KanbanEmCorrecao:  {domain.KanbanEmAndamento, domain.KanbanFinalizado},
	domain.KanbanFinalizado:  {domain.KanbanEmCorrecao},
}

func PodeMover(de, para domain.StatusKanban) bool {
	for _, destino := range transicoes[de] {
		if destino == para {
			return true
		}
	}
	return false
}

type Service struct {
	repo  domain.KanbanRepository
	motor *status.Motor
	clock domain.Clock
	ids   *ids.Generator
}

func NewService(repo domain.KanbanRepository, motor *status.Motor, clock domain.Clock, idsGen *ids.Generator) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if motor == nil {
		motor = status.NewMotor(status.RequisitosPadrao())
	}
	return &Service{repo: repo, motor: motor, clock: clock, ids: idsGen}
}

// CriarCard abre o card sempre em aguardando.
func (s *Service) CriarCard(ctx context.Context, card domain.KanbanCard) (domain.KanbanCard, error) {
	if strings.TrimSpace(card.Titulo) == "" {
		return domain.KanbanCard{}, fmt.Errorf("%w: titulo obrigatorio", ErrCardInvalido)
	}
	if !categoriaValida(card.Categoria) {
		return domain.KanbanCard{}, fmt.Errorf("%w: %q", ErrCategoriaInvalida, card.Categoria)
	}
	if len(card.Fotos) > MaxFotos {
		return domain.KanbanCard{}, ErrLimiteFotos
	}

	agora := s.clock.Agora()
	card.ID = s.ids.New()
	card.Status = domain.KanbanAguardando
	card.MotivoCorrecao = ""
	card.DataCorrecao = nil
	card.HistoricoCorrecoes = ""
	card.CriadoEm = agora
	card.AtualizadoEm = agora

	if err := s.repo.Create(ctx, card); err != nil {
		return domain.KanbanCard{}, err
	}
	return card, nil
}

func (s *Service) Buscar(ctx context.Context, id string) (domain.KanbanCard, error) {
	return s.repo.FindByID(ctx, id)
}

// Mover aplica o mapa de transições. Finalizar exige checklist completo; ir para
// correção exige motivo, que entra no histórico.
func (s *Service) Mover(ctx context.Context, id string, destino domain.StatusKanban, motivo string) (domain.KanbanCard, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.KanbanCard{}, err
	}
	if card.Status == destino {
		return card, nil
	}
	if !PodeMover(card.Status, destino) {
		return domain.KanbanCard{}, fmt.Errorf("%w: %s -> %s", ErrTransicaoInvalida, card.Status, destino)
	}

	agora := s.clock.Agora()
	switch destino {
	case domain.KanbanFinalizado:
		if err := s.motor.ValidarFinalizacao(card); err != nil {
			return domain.KanbanCard{}, err
		}
	case domain.KanbanEmCorrecao:
		motivo = strings.TrimSpace(motivo)
		if motivo == "" {
			return domain.KanbanCard{}, ErrMotivoObrigatorio
		}
		card.MotivoCorrecao = motivo
		card.DataCorrecao = &agora
		card.HistoricoCorrecoes = status.AcrescentarHistorico(card.HistoricoCorrecoes, motivo, agora)
	}

	card.Status = destino
	card.AtualizadoEm = agora
	if err := s.repo.Update(ctx, card); err != nil {
		return domain.KanbanCard{}, err
	}
	return card, nil
}

func (s *Service) EnviarParaCorrecao(ctx context.Context, id, motivo string) (domain.KanbanCard, error) {
	return s.Mover(ctx, id, domain.KanbanEmCorrecao, motivo)
}

// AtualizarChecklist troca o checklist inteiro e devolve os subitens que ainda faltam.
func (s *Service) AtualizarChecklist(ctx context.Context, id string, checklist domain.Checklist) (domain.KanbanCard, []string, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.KanbanCard{}, nil, err
	}
	card.Checklist = checklist
	card.AtualizadoEm = s.clock.Agora()
	if err := s.repo.Update(ctx, card); err != nil {
		return domain.KanbanCard{}, nil, err
	}
	return card, s.motor.ItensFaltantes(card.Categoria, card.Checklist), nil
}

// RegistrarOQueFalta grava a nota livre do que falta; nota vazia limpa a anterior.
func (s *Service) RegistrarOQueFalta(ctx context.Context, id, nota string) (domain.KanbanCard, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.KanbanCard{}, err
	}
	agora := s.clock.Agora()
	card.OQueFalta = strings.TrimSpace(nota)
	if card.OQueFalta == "" {
		card.DataOQueFalta = nil
	} else {
		card.DataOQueFalta = &agora
	}
	card.AtualizadoEm = agora
	if err := s.repo.Update(ctx, card); err != nil {
		return domain.KanbanCard{}, err
	}
	return card, nil
}

func (s *Service) AdicionarFotos(ctx context.Context, id string, fotos []string) (domain.KanbanCard, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.KanbanCard{}, err
	}
	if len(card.Fotos)+len(fotos) > MaxFotos {
		return domain.KanbanCard{}, fmt.Errorf("%w: %d de %d", ErrLimiteFotos, len(card.Fotos)+len(fotos), MaxFotos)
	}
	card.Fotos = append(card.Fotos, fotos...)
	card.AtualizadoEm = s.clock.Agora()
	if err := s.repo.Update(ctx, card); err != nil {
		return domain.KanbanCard{}, err
	}
	return card, nil
}

func categoriaValida(categoria domain.CategoriaKanban) bool {
	for _, c := range domain.CategoriasKanban() {
		if c == categoria {
			return true
		}
	}
	return false
}
