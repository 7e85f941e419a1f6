package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// KanbanRepository persiste os cards do quadro de implantação.
type KanbanRepository struct {
	db *gorm.DB
}

func NewKanbanRepository(db *gorm.DB) *KanbanRepository {
	return &KanbanRepository{db: db}
}

type kanbanCardModel struct {
	ID                 string           `gorm:"column:id;primaryKey"`
	ContratoID         string           `gorm:"column:contrato_id;index"`
	Titulo             string           `gorm:"column:titulo"`
	Categoria          string           `gorm:"column:categoria"`
	Status             string           `gorm:"column:status"`
	MotivoCorrecao     string           `gorm:"column:motivo_correcao"`
	DataCorrecao       *time.Time       `gorm:"column:data_correcao"`
	OQueFalta          string           `gorm:"column:o_que_falta"`
	DataOQueFalta      *time.Time       `gorm:"column:data_o_que_falta"`
	Checklist          domain.Checklist `gorm:"column:checklist;serializer:json"`
	Fotos              []string         `gorm:"column:fotos;serializer:json"`
	HistoricoCorrecoes string           `gorm:"column:historico_correcoes"`
	CriadoEm           time.Time        `gorm:"column:criado_em"`
	AtualizadoEm       time.Time        `gorm:"column:atualizado_em"`
}

func (kanbanCardModel) TableName() string {
	return string(domain.ColecaoKanban)
}

func (m kanbanCardModel) toDomain() domain.KanbanCard {
	return domain.KanbanCard{
		ID:                 m.ID,
		ContratoID:         m.ContratoID,
		Titulo:             m.Titulo,
		Categoria:          domain.CategoriaKanban(m.Categoria),
		Status:             domain.StatusKanban(m.Status),
		MotivoCorrecao:     m.MotivoCorrecao,
		DataCorrecao:       m.DataCorrecao,
		OQueFalta:          m.OQueFalta,
		DataOQueFalta:      m.DataOQueFalta,
		Checklist:          m.Checklist,
		Fotos:              m.Fotos,
		HistoricoCorrecoes: m.HistoricoCorrecoes,
		CriadoEm:           m.CriadoEm,
		AtualizadoEm:       m.AtualizadoEm,
	}
}

func fromDomainKanbanCard(c domain.KanbanCard) kanbanCardModel {
	return kanbanCardModel{
		ID:                 c.ID,
		ContratoID:         c.ContratoID,
		Titulo:             c.Titulo,
		Categoria:          string(c.Categoria),
		Status:             string(c.Status),
		MotivoCorrecao:     c.MotivoCorrecao,
		DataCorrecao:       c.DataCorrecao,
		OQueFalta:          c.OQueFalta,
		DataOQueFalta:      c.DataOQueFalta,
		Checklist:          c.Checklist,
		Fotos:              c.Fotos,
		HistoricoCorrecoes: c.HistoricoCorrecoes,
		CriadoEm:           c.CriadoEm,
		AtualizadoEm:       c.AtualizadoEm,
	}
}

func (r *KanbanRepository) Create(ctx context.Context, card domain.KanbanCard) error {
	model := fromDomainKanbanCard(card)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm kanban: inserir: %w", err)
	}
	return nil
}

// Update grava o card inteiro; o serviço sempre parte da versão lida do banco.
func (r *KanbanRepository) Update(ctx context.Context, card domain.KanbanCard) error {
	model := fromDomainKanbanCard(card)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual kanbanCardModel
		if err := tx.Select("id", "criado_em").First(&atual, "id = ?", model.ID).Error; err != nil {
			return err
		}
		model.CriadoEm = atual.CriadoEm
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("gorm kanban: atualizar: %w", err)
	}
	return nil
}

func (r *KanbanRepository) FindByID(ctx context.Context, id string) (domain.KanbanCard, error) {
	var model kanbanCardModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.KanbanCard{}, domain.ErrNotFound
		}
		return domain.KanbanCard{}, fmt.Errorf("gorm kanban: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

// List devolve os cards do contrato (ou todos, com contratoID vazio) do mais antigo ao mais novo.
func (r *KanbanRepository) List(ctx context.Context, contratoID string) ([]domain.KanbanCard, error) {
	q := r.db.WithContext(ctx)
	if contratoID != "" {
		q = q.Where("contrato_id = ?", contratoID)
	}

	var models []kanbanCardModel
	if err := q.Order("criado_em ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm kanban: listar: %w", err)
	}

	result := make([]domain.KanbanCard, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

var _ domain.KanbanRepository = (*KanbanRepository)(nil)
