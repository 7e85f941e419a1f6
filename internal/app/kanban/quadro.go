package kanban

import (
	"context"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

type Coluna struct {
	Status domain.StatusKanban `json:"status"`
	Cards  []domain.KanbanCard `json:"cards"`
}

type Quadro struct {
	Colunas []Coluna `json:"colunas"`
}

// OrdemColunas é a ordem fixa de exibição do quadro.
func OrdemColunas() []domain.StatusKanban {
	return []domain.StatusKanban{
		domain.KanbanAguardando,
		domain.KanbanEmAndamento,
		domain.KanbanEmCorrecao,
		domain.KanbanFinalizado,
	}
}

// Agrupar distribui os cards nas quatro colunas mantendo a ordem recebida dentro de cada uma.
// Cards com status desconhecido ficam fora do quadro.
func Agrupar(cards []domain.KanbanCard) Quadro {
	ordem := OrdemColunas()
	posicao := make(map[domain.StatusKanban]int, len(ordem))
	q := Quadro{Colunas: make([]Coluna, len(ordem))}
	for i, st := range ordem {
		posicao[st] = i
		q.Colunas[i] = Coluna{Status: st, Cards: []domain.KanbanCard{}}
	}
	for _, card := range cards {
		i, ok := posicao[card.Status]
		if !ok {
			continue
		}
		q.Colunas[i].Cards = append(q.Colunas[i].Cards, card)
	}
	return q
}

// Quadro lista os cards do contrato (todos, se vazio) já agrupados.
func (s *Service) Quadro(ctx context.Context, contratoID string) (Quadro, error) {
	cards, err := s.repo.List(ctx, contratoID)
	if err != nil {
		return Quadro{}, err
	}
	return Agrupar(cards), nil
}
