package laudos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marcelojr/ronda-kanban/internal/app/status"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/limitador"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

type ResultadoRecalculo struct {
	Laudos           int
	Atualizados      int
	AlertasEnviados  int
	AlertasSegurados int
	AlertasComErro   int
}

// Recalcular percorre todos os laudos, grava os que mudaram de status, atualiza o
// painel por contrato e pede alerta dos vencidos e a vencer. Falha no alerta de um
// contrato é registrada e não interrompe os demais.
func (s *Service) Recalcular(ctx context.Context) (ResultadoRecalculo, error) {
	lista, err := s.repo.ListAll(ctx)
	if err != nil {
		return ResultadoRecalculo{}, fmt.Errorf("laudos: listar: %w", err)
	}

	agora := s.clock.Agora()
	res := ResultadoRecalculo{Laudos: len(lista)}
	porContrato := make(map[string][]domain.Laudo)
	var contratos []string

	for _, laudo := range lista {
		novo := status.StatusDocumento(laudo.DataVencimento, agora)
		if novo != laudo.Status {
			laudo.Status = novo
			laudo.AtualizadoEm = agora
			if err := s.repo.Update(ctx, laudo); err != nil {
				return res, fmt.Errorf("laudos: gravar status %s: %w", laudo.ID, err)
			}
			res.Atualizados++
		}
		if _, ok := porContrato[laudo.ContratoID]; !ok {
			contratos = append(contratos, laudo.ContratoID)
		}
		porContrato[laudo.ContratoID] = append(porContrato[laudo.ContratoID], laudo)
	}
	sort.Strings(contratos)

	for _, contratoID := range contratos {
		laudos := porContrato[contratoID]
		if s.painel != nil {
			if err := s.painel.Registrar(ctx, contratoID, Contar(laudos)); err != nil {
				s.logger.Warn("falha ao atualizar painel", "contrato", contratoID, "err", err)
			}
		}

		enviado, err := s.alertar(ctx, contratoID, laudos)
		if err != nil {
			s.logger.Warn("falha ao alertar contrato", "contrato", contratoID, "err", err)
			res.AlertasComErro++
			continue
		}
		switch enviado {
		case alertaEnviado:
			res.AlertasEnviados++
		case alertaSegurado:
			res.AlertasSegurados++
		}
	}

	s.logger.Info("laudos recalculados",
		"laudos", res.Laudos,
		"atualizados", res.Atualizados,
		"alertas", res.AlertasEnviados,
		"segurados", res.AlertasSegurados,
		"erros", res.AlertasComErro,
	)
	return res, nil
}

type resultadoAlerta int

const (
	semAlerta resultadoAlerta = iota
	alertaEnviado
	alertaSegurado
)

func (s *Service) alertar(ctx context.Context, contratoID string, laudos []domain.Laudo) (resultadoAlerta, error) {
	if s.notificador == nil || s.contratos == nil {
		return semAlerta, nil
	}

	var criticos []domain.Laudo
	for _, l := range laudos {
		if l.Status == domain.LaudoVencido || l.Status == domain.LaudoProximoVencimento {
			criticos = append(criticos, l)
		}
	}
	if len(criticos) == 0 {
		return semAlerta, nil
	}

	contrato, err := s.contratos.FindByID(ctx, contratoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("contrato do laudo nao encontrado", "contrato", contratoID)
			return semAlerta, nil
		}
		return semAlerta, fmt.Errorf("laudos: buscar contrato %s: %w", contratoID, err)
	}
	destinatarios := Destinatarios(contrato.EmailsNotificacao)
	if len(destinatarios) == 0 {
		return semAlerta, nil
	}

	if err := s.limite.Permitir(ctx, contratoID); err != nil {
		if errors.Is(err, limitador.ErrLimiteExcedido) {
			metrics.ObserveAlerta("segurado")
			return alertaSegurado, nil
		}
		return semAlerta, fmt.Errorf("laudos: limite de alertas %s: %w", contratoID, err)
	}

	alerta := domain.AlertaLaudos{
		ContratoID:    contratoID,
		ContratoNome:  contrato.Nome,
		Destinatarios: destinatarios,
		Laudos:        criticos,
		GeradoEm:      s.clock.Agora(),
	}
	if err := s.notificador.Notificar(ctx, alerta); err != nil {
		metrics.ObserveAlerta("erro")
		// devolve a vaga para a próxima rodada tentar de novo
		if errLiberar := s.limite.Liberar(ctx, contratoID); errLiberar != nil {
			s.logger.Warn("falha ao devolver vaga de alerta", "contrato", contratoID, "err", errLiberar)
		}
		return semAlerta, fmt.Errorf("laudos: notificar %s: %w", contratoID, err)
	}
	metrics.ObserveAlerta("enfileirado")
	return alertaEnviado, nil
}

// Destinatarios limpa, remove repetidos e corta a lista em MaxDestinatarios.
func Destinatarios(emails []string) []string {
	vistos := make(map[string]struct{}, len(emails))
	var saida []string
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.Contains(e, "@") {
			continue
		}
		if _, ok := vistos[e]; ok {
			continue
		}
		vistos[e] = struct{}{}
		saida = append(saida, e)
		if len(saida) == MaxDestinatarios {
			break
		}
	}
	return saida
}
