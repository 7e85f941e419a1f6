// Pacote worker contém o processamento assíncrono dos alertas de laudos vindos da fila Redis.
package worker

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/email"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

// Remetente é o canal de entrega dos e-mails.
type Remetente interface {
	Enviar(ctx context.Context, msg email.Mensagem) error
}

// AlertaProcessor transforma o alerta em e-mail e registra o resultado nas métricas.
type AlertaProcessor struct {
	remetente Remetente
}

func NewAlertaProcessor(remetente Remetente) *AlertaProcessor {
	return &AlertaProcessor{remetente: remetente}
}

func (p *AlertaProcessor) Process(ctx context.Context, alerta domain.AlertaLaudos) error {
	if len(alerta.Destinatarios) == 0 || len(alerta.Laudos) == 0 {
		metrics.ObserveAlerta("descartado")
		return nil
	}

	if err := p.remetente.Enviar(ctx, Montar(alerta)); err != nil {
		metrics.ObserveAlerta("falha_envio")
		return fmt.Errorf("worker: enviar alerta %s: %w", alerta.ContratoID, err)
	}

	metrics.ObserveAlerta("enviado")
	return nil
}

// Montar gera o e-mail com os vencidos primeiro.
func Montar(alerta domain.AlertaLaudos) email.Mensagem {
	var vencidos, proximos []domain.Laudo
	for _, l := range alerta.Laudos {
		if l.Status == domain.LaudoVencido {
			vencidos = append(vencidos, l)
		} else {
			proximos = append(proximos, l)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Laudos de %s</h2>", html.EscapeString(alerta.ContratoNome))
	secao(&b, "Vencidos", vencidos)
	secao(&b, "Próximos do vencimento", proximos)

	return email.Mensagem{
		Para:    alerta.Destinatarios,
		Assunto: fmt.Sprintf("[%s] %d vencido(s), %d a vencer", alerta.ContratoNome, len(vencidos), len(proximos)),
		HTML:    b.String(),
	}
}

func secao(b *strings.Builder, titulo string, laudos []domain.Laudo) {
	if len(laudos) == 0 {
		return
	}
	fmt.Fprintf(b, "<h3>%s</h3><ul>", titulo)
	for _, l := range laudos {
		venc := "sem data"
		if l.DataVencimento != nil {
			venc = l.DataVencimento.Format("02/01/2006")
		}
		fmt.Fprintf(b, "<li>%s (%s)</li>", html.EscapeString(l.Titulo), venc)
	}
	b.WriteString("</ul>")
}
