// Pacote status deriva estados a partir de datas e checklists. Tudo aqui é puro: sem I/O e sem relógio.
package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// DiasProximoVencimento é a janela (inclusiva) em que um laudo é considerado a vencer.
const DiasProximoVencimento = 30

const dia = 24 * time.Hour

// DiasAteVencimento conta dias de calendário entre agora e o vencimento; negativo indica atraso.
func DiasAteVencimento(vencimento, agora time.Time) int {
	v := inicioDoDia(vencimento)
	a := inicioDoDia(agora)
	return int(math.Ceil(float64(v.Sub(a)) / float64(dia)))
}

// StatusDocumento deriva o status do laudo. Sem data de vencimento o status fica indefinido.
func StatusDocumento(vencimento *time.Time, agora time.Time) domain.StatusLaudo {
	if vencimento == nil || vencimento.IsZero() {
		return domain.LaudoIndefinido
	}
	dias := DiasAteVencimento(*vencimento, agora)
	switch {
	case dias < 0:
		return domain.LaudoVencido
	case dias <= DiasProximoVencimento:
		return domain.LaudoProximoVencimento
	default:
		return domain.LaudoEmDia
	}
}

// StatusDocumentoISO aceita datas "2006-01-02" ou RFC3339; vencimento vazio resulta em indefinido.
func StatusDocumentoISO(vencimentoISO, agoraISO string) (domain.StatusLaudo, error) {
	agora, err := ParseData(agoraISO)
	if err != nil {
		return domain.LaudoIndefinido, err
	}
	if strings.TrimSpace(vencimentoISO) == "" {
		return domain.LaudoIndefinido, nil
	}
	vencimento, err := ParseData(vencimentoISO)
	if err != nil {
		return domain.LaudoIndefinido, err
	}
	return StatusDocumento(&vencimento, agora), nil
}

func ParseData(valor string) (time.Time, error) {
	valor = strings.TrimSpace(valor)
	if t, err := time.Parse(time.DateOnly, valor); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, valor)
	if err != nil {
		return time.Time{}, fmt.Errorf("status: data invalida %q", valor)
	}
	return t, nil
}

// Motor aplica os requisitos de checklist configurados por categoria.
type Motor struct {
	requisitos Requisitos
}

func NewMotor(requisitos Requisitos) *Motor {
	if requisitos == nil {
		requisitos = Requisitos{}
	}
	return &Motor{requisitos: requisitos}
}

func (m *Motor) Requisitos(categoria domain.CategoriaKanban) []string {
	return append([]string(nil), m.requisitos[categoria]...)
}

// ItensFaltantes lista, na ordem configurada, os subitens obrigatórios ainda não marcados.
// Checklist ausente conta como tudo desmarcado.
func (m *Motor) ItensFaltantes(categoria domain.CategoriaKanban, checklist domain.Checklist) []string {
	var faltantes []string
	for _, campo := range m.requisitos[categoria] {
		marcado, ok := checklist[campo].(bool)
		if !ok || !marcado {
			faltantes = append(faltantes, campo)
		}
	}
	return faltantes
}

func (m *Motor) ChecklistCompleto(categoria domain.CategoriaKanban, checklist domain.Checklist) bool {
	return len(m.ItensFaltantes(categoria, checklist)) == 0
}

func (m *Motor) PodeFinalizar(card domain.KanbanCard) bool {
	return m.ValidarFinalizacao(card) == nil
}

// ValidarFinalizacao devolve *domain.PreconditionFailedError com os subitens pendentes.
func (m *Motor) ValidarFinalizacao(card domain.KanbanCard) error {
	faltantes := m.ItensFaltantes(card.Categoria, card.Checklist)
	if len(faltantes) == 0 {
		return nil
	}
	return &domain.PreconditionFailedError{Categoria: card.Categoria, Faltantes: faltantes}
}

// AcrescentarHistorico anexa uma entrada ao histórico de correções sem reescrever as anteriores.
func AcrescentarHistorico(historico, entrada string, quando time.Time) string {
	linha := fmt.Sprintf("[%s] %s", quando.Format("02/01/2006 15:04"), strings.TrimSpace(entrada))
	if strings.TrimSpace(historico) == "" {
		return linha
	}
	return historico + "\n" + linha
}

func inicioDoDia(t time.Time) time.Time {
	y, mes, d := t.Date()
	return time.Date(y, mes, d, 0, 0, 0, 0, time.UTC)
}
