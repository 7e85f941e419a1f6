package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// ContratoRepository lê os contratos diretamente pelos tipos de domínio, que já carregam as tags GORM.
type ContratoRepository struct {
	db *gorm.DB
}

func NewContratoRepository(db *gorm.DB) *ContratoRepository {
	return &ContratoRepository{db: db}
}

func (r *ContratoRepository) FindByID(ctx context.Context, id string) (domain.Contrato, error) {
	var contrato domain.Contrato
	if err := r.db.WithContext(ctx).First(&contrato, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Contrato{}, domain.ErrNotFound
		}
		return domain.Contrato{}, fmt.Errorf("gorm contratos: buscar id: %w", err)
	}
	return contrato, nil
}

func (r *ContratoRepository) List(ctx context.Context) ([]domain.Contrato, error) {
	var contratos []domain.Contrato
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&contratos).Error; err != nil {
		return nil, fmt.Errorf("gorm contratos: listar: %w", err)
	}
	return contratos, nil
}

// Create existe para carga inicial e testes; contratos são mantidos pelo back-office.
func (r *ContratoRepository) Create(ctx context.Context, contrato domain.Contrato) error {
	if err := r.db.WithContext(ctx).Create(&contrato).Error; err != nil {
		return fmt.Errorf("gorm contratos: inserir: %w", err)
	}
	return nil
}

var _ domain.ContratoRepository = (*ContratoRepository)(nil)
