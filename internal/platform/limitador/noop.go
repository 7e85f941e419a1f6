package limitador

import (
	"context"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Noop libera todos os alertas; usado quando não há Redis configurado.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Permitir(ctx context.Context, contratoID string) error {
	return nil
}

func (Noop) Liberar(ctx context.Context, contratoID string) error {
	return nil
}

var _ domain.LimiteAlertas = Noop{}
