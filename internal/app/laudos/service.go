// Pacote laudos mantém os documentos regulatórios dos contratos. O status nunca
// é informado pelo cliente: é sempre recalculado a partir do vencimento.
package laudos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcelojr/ronda-kanban/internal/app/status"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
	"github.com/marcelojr/ronda-kanban/internal/platform/limitador"
)

// MaxDestinatarios é o teto de e-mails avisados por contrato.
const MaxDestinatarios = 4

var ErrLaudoInvalido = errors.New("laudo invalido")

type Service struct {
	repo        domain.LaudoRepository
	contratos   domain.ContratoRepository
	painel      domain.PainelLaudos
	limite      domain.LimiteAlertas
	notificador domain.Notificador
	clock       domain.Clock
	ids         *ids.Generator
	logger      *slog.Logger
}

type Dependencias struct {
	Repo        domain.LaudoRepository
	Contratos   domain.ContratoRepository
	Painel      domain.PainelLaudos
	Limite      domain.LimiteAlertas
	Notificador domain.Notificador
	Clock       domain.Clock
	IDs         *ids.Generator
	Logger      *slog.Logger
}

func NewService(deps Dependencias) *Service {
	if deps.IDs == nil {
		deps.IDs = ids.DefaultGenerator()
	}
	if deps.Limite == nil {
		deps.Limite = limitador.NewNoop()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		repo:        deps.Repo,
		contratos:   deps.Contratos,
		painel:      deps.Painel,
		limite:      deps.Limite,
		notificador: deps.Notificador,
		clock:       deps.Clock,
		ids:         deps.IDs,
		logger:      deps.Logger,
	}
}

func (s *Service) Criar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error) {
	if err := validar(laudo); err != nil {
		return domain.Laudo{}, err
	}
	agora := s.clock.Agora()
	laudo.ID = s.ids.New()
	laudo.Status = status.StatusDocumento(laudo.DataVencimento, agora)
	laudo.CriadoEm = agora
	laudo.AtualizadoEm = agora

	if err := s.repo.Create(ctx, laudo); err != nil {
		return domain.Laudo{}, err
	}
	s.atualizarPainel(ctx, laudo.ContratoID)
	return laudo, nil
}

func (s *Service) Atualizar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error) {
	if err := validar(laudo); err != nil {
		return domain.Laudo{}, err
	}
	atual, err := s.repo.FindByID(ctx, laudo.ID)
	if err != nil {
		return domain.Laudo{}, err
	}
	agora := s.clock.Agora()
	laudo.CriadoEm = atual.CriadoEm
	laudo.AtualizadoEm = agora
	laudo.Status = status.StatusDocumento(laudo.DataVencimento, agora)

	if err := s.repo.Update(ctx, laudo); err != nil {
		return domain.Laudo{}, err
	}
	s.atualizarPainel(ctx, laudo.ContratoID)
	if atual.ContratoID != laudo.ContratoID {
		s.atualizarPainel(ctx, atual.ContratoID)
	}
	return laudo, nil
}

func (s *Service) Excluir(ctx context.Context, id string) error {
	atual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.atualizarPainel(ctx, atual.ContratoID)
	return nil
}

// atualizarPainel regrava a contagem do contrato depois de uma escrita; falha só gera aviso.
func (s *Service) atualizarPainel(ctx context.Context, contratoID string) {
	if s.painel == nil || contratoID == "" {
		return
	}
	lista, err := s.Listar(ctx, contratoID)
	if err == nil {
		err = s.painel.Registrar(ctx, contratoID, Contar(lista))
	}
	if err != nil {
		s.logger.Warn("falha ao atualizar painel", "contrato", contratoID, "err", err)
	}
}

func (s *Service) Buscar(ctx context.Context, id string) (domain.Laudo, error) {
	laudo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Laudo{}, err
	}
	laudo.Status = status.StatusDocumento(laudo.DataVencimento, s.clock.Agora())
	return laudo, nil
}

// Listar devolve os laudos do contrato (todos, se vazio) com o status do dia.
func (s *Service) Listar(ctx context.Context, contratoID string) ([]domain.Laudo, error) {
	var (
		lista []domain.Laudo
		err   error
	)
	if contratoID == "" {
		lista, err = s.repo.ListAll(ctx)
	} else {
		lista, err = s.repo.ListByContrato(ctx, contratoID)
	}
	if err != nil {
		return nil, err
	}
	agora := s.clock.Agora()
	for i := range lista {
		lista[i].Status = status.StatusDocumento(lista[i].DataVencimento, agora)
	}
	return lista, nil
}

// Resumo conta os laudos do contrato pelo status do dia. O painel só responde quando o
// repositório está fora, e nesse caso a contagem pode estar defasada.
func (s *Service) Resumo(ctx context.Context, contratoID string) (map[domain.StatusLaudo]int64, error) {
	lista, err := s.Listar(ctx, contratoID)
	if err == nil {
		return Contar(lista), nil
	}
	if s.painel == nil {
		return nil, err
	}
	resumo, errPainel := s.painel.Obter(ctx, contratoID)
	if errPainel != nil || len(resumo) == 0 {
		return nil, err
	}
	s.logger.Warn("resumo de laudos servido pelo painel", "contrato", contratoID, "err", err)
	return resumo, nil
}

func Contar(lista []domain.Laudo) map[domain.StatusLaudo]int64 {
	resumo := make(map[domain.StatusLaudo]int64)
	for _, l := range lista {
		resumo[l.Status]++
	}
	return resumo
}

// Agrupar separa os laudos por status, na ordem vencido, próximo do vencimento, em dia, indefinido.
func Agrupar(lista []domain.Laudo) []Grupo {
	ordem := []domain.StatusLaudo{domain.LaudoVencido, domain.LaudoProximoVencimento, domain.LaudoEmDia, domain.LaudoIndefinido}
	grupos := make([]Grupo, len(ordem))
	posicao := make(map[domain.StatusLaudo]int, len(ordem))
	for i, st := range ordem {
		grupos[i] = Grupo{Status: st, Laudos: []domain.Laudo{}}
		posicao[st] = i
	}
	for _, l := range lista {
		if i, ok := posicao[l.Status]; ok {
			grupos[i].Laudos = append(grupos[i].Laudos, l)
		}
	}
	return grupos
}

type Grupo struct {
	Status domain.StatusLaudo `json:"status"`
	Laudos []domain.Laudo     `json:"laudos"`
}

func validar(laudo domain.Laudo) error {
	if strings.TrimSpace(laudo.Titulo) == "" {
		return fmt.Errorf("%w: titulo obrigatorio", ErrLaudoInvalido)
	}
	if laudo.ContratoID == "" {
		return fmt.Errorf("%w: contrato obrigatorio", ErrLaudoInvalido)
	}
	return nil
}
