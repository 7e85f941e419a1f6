package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

type LaudoRepository struct {
	db *gorm.DB
}

func NewLaudoRepository(db *gorm.DB) *LaudoRepository {
	return &LaudoRepository{db: db}
}

type laudoModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	ContratoID     string     `gorm:"column:contrato_id;index"`
	Titulo         string     `gorm:"column:titulo"`
	Status         string     `gorm:"column:status"`
	DataVencimento *time.Time `gorm:"column:data_vencimento"`
	DataEmissao    *time.Time `gorm:"column:data_emissao"`
	Periodicidade  string     `gorm:"column:periodicidade"`
	Observacoes    string     `gorm:"column:observacoes"`
	CriadoEm       time.Time  `gorm:"column:criado_em"`
	AtualizadoEm   time.Time  `gorm:"column:atualizado_em"`
}

func (laudoModel) TableName() string {
	return string(domain.ColecaoLaudos)
}

func (m laudoModel) toDomain() domain.Laudo {
	return domain.Laudo{
		ID:             m.ID,
		ContratoID:     m.ContratoID,
		Titulo:         m.Titulo,
		Status:         domain.StatusLaudo(m.Status),
		DataVencimento: m.DataVencimento,
		DataEmissao:    m.DataEmissao,
		Periodicidade:  m.Periodicidade,
		Observacoes:    m.Observacoes,
		CriadoEm:       m.CriadoEm,
		AtualizadoEm:   m.AtualizadoEm,
	}
}

func fromDomainLaudo(l domain.Laudo) laudoModel {
	return laudoModel{
		ID:             l.ID,
		ContratoID:     l.ContratoID,
		Titulo:         l.Titulo,
		Status:         string(l.Status),
		DataVencimento: l.DataVencimento,
		DataEmissao:    l.DataEmissao,
		Periodicidade:  l.Periodicidade,
		Observacoes:    l.Observacoes,
		CriadoEm:       l.CriadoEm,
		AtualizadoEm:   l.AtualizadoEm,
	}
}

func (r *LaudoRepository) Create(ctx context.Context, laudo domain.Laudo) error {
	model := fromDomainLaudo(laudo)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm laudos: inserir: %w", err)
	}
	return nil
}

func (r *LaudoRepository) Update(ctx context.Context, laudo domain.Laudo) error {
	model := fromDomainLaudo(laudo)
	res := r.db.WithContext(ctx).Model(&laudoModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"contrato_id":     model.ContratoID,
			"titulo":          model.Titulo,
			"status":          model.Status,
			"data_vencimento": model.DataVencimento,
			"data_emissao":    model.DataEmissao,
			"periodicidade":   model.Periodicidade,
			"observacoes":     model.Observacoes,
			"atualizado_em":   model.AtualizadoEm,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm laudos: atualizar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LaudoRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&laudoModel{})
	if res.Error != nil {
		return fmt.Errorf("gorm laudos: excluir: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LaudoRepository) FindByID(ctx context.Context, id string) (domain.Laudo, error) {
	var model laudoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Laudo{}, domain.ErrNotFound
		}
		return domain.Laudo{}, fmt.Errorf("gorm laudos: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *LaudoRepository) ListByContrato(ctx context.Context, contratoID string) ([]domain.Laudo, error) {
	return r.listar(ctx, r.db.WithContext(ctx).Where("contrato_id = ?", contratoID))
}

func (r *LaudoRepository) ListAll(ctx context.Context) ([]domain.Laudo, error) {
	return r.listar(ctx, r.db.WithContext(ctx))
}

func (r *LaudoRepository) listar(_ context.Context, q *gorm.DB) ([]domain.Laudo, error) {
	var models []laudoModel
	// Sem vencimento vai para o fim da lista.
	if err := q.Order("data_vencimento IS NULL").
		Order("data_vencimento ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm laudos: listar: %w", err)
	}

	result := make([]domain.Laudo, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

var _ domain.LaudoRepository = (*LaudoRepository)(nil)
