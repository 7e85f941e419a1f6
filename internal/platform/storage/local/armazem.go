// Pacote local implementa o armazém durável do dispositivo sobre SQLite: coleções de entidades
// serializadas em JSON, índices secundários e a fila de sincronização.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
)

var (
	ErrEntidadeSemID    = errors.New("entidade sem id")
	ErrOperacaoInvalida = errors.New("operacao de sincronizacao invalida")
)

type registroModel struct {
	Colecao      string    `gorm:"column:colecao;type:text;primaryKey"`
	ID           string    `gorm:"column:id;type:text;primaryKey"`
	Ordem        string    `gorm:"column:ordem;type:text;not null;index"`
	Payload      string    `gorm:"column:payload;type:text;not null"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em"`
}

func (registroModel) TableName() string { return "registros_locais" }

type indiceModel struct {
	Colecao string `gorm:"column:colecao;type:text;primaryKey;index:idx_indices_busca,priority:1"`
	ID      string `gorm:"column:id;type:text;primaryKey"`
	Nome    string `gorm:"column:nome;type:text;primaryKey;index:idx_indices_busca,priority:2"`
	Valor   string `gorm:"column:valor;type:text;not null;index:idx_indices_busca,priority:3"`
}

func (indiceModel) TableName() string { return "indices_locais" }

// Modelos lista as tabelas do schema local para as migrations.
func Modelos() []any {
	return []any{&registroModel{}, &indiceModel{}, &domain.SyncItem{}}
}

// IndicesPadrao declara quais campos de cada coleção são indexados na gravação.
func IndicesPadrao() map[domain.Colecao][]string {
	return map[domain.Colecao][]string{
		domain.ColecaoAreasTecnicas: {domain.IndiceRondaID},
		domain.ColecaoFotosRonda:    {domain.IndiceRondaID},
		domain.ColecaoOutrosItens:   {domain.IndiceRondaID},
		domain.ColecaoLaudos:        {domain.IndiceContratoID},
		domain.ColecaoKanban:        {domain.IndiceContratoID},
	}
}

// Open abre o arquivo SQLite com journal WAL e fsync completo para não perder commits.
func Open(ctx context.Context, path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL", path)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("local sqlite: abrir %s: %w", path, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("local sqlite: obter sql.DB: %w", err)
	}
	// Um único escritor evita SQLITE_BUSY entre a API e o coordenador.
	sqlDB.SetMaxOpenConns(1)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("local sqlite: ping falhou: %w", err)
	}

	return gormDB, nil
}

// Armazem implementa domain.ArmazemLocal.
type Armazem struct {
	db      *gorm.DB
	clock   domain.Clock
	ids     *ids.Generator
	indices map[domain.Colecao][]string
}

func New(db *gorm.DB, clock domain.Clock, gen *ids.Generator) *Armazem {
	if gen == nil {
		gen = ids.DefaultGenerator()
	}
	return &Armazem{
		db:      db,
		clock:   clock,
		ids:     gen,
		indices: IndicesPadrao(),
	}
}

func (a *Armazem) Todos(ctx context.Context, colecao domain.Colecao) ([]json.RawMessage, error) {
	var modelos []registroModel
	if err := a.db.WithContext(ctx).
		Where("colecao = ?", colecao).
		Order("ordem ASC").
		Find(&modelos).Error; err != nil {
		return nil, falhaIO("listar "+string(colecao), err)
	}
	return payloads(modelos), nil
}

func (a *Armazem) PorID(ctx context.Context, colecao domain.Colecao, id string) (json.RawMessage, error) {
	var modelo registroModel
	if err := a.db.WithContext(ctx).
		First(&modelo, "colecao = ? AND id = ?", colecao, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, falhaIO("buscar "+string(colecao), err)
	}
	return json.RawMessage(modelo.Payload), nil
}

func (a *Armazem) PorIndice(ctx context.Context, colecao domain.Colecao, indice, valor string) ([]json.RawMessage, error) {
	if !a.indexado(colecao, indice) {
		// Sem índice declarado fazemos a varredura aqui mesmo; o chamador não percebe a diferença.
		todos, err := a.Todos(ctx, colecao)
		if err != nil {
			return nil, err
		}
		resultado := make([]json.RawMessage, 0, len(todos))
		for _, raw := range todos {
			if gjson.GetBytes(raw, indice).String() == valor {
				resultado = append(resultado, raw)
			}
		}
		return resultado, nil
	}

	db := a.db.WithContext(ctx)
	sub := db.Model(&indiceModel{}).
		Select("id").
		Where("colecao = ? AND nome = ? AND valor = ?", colecao, indice, valor)

	var modelos []registroModel
	if err := db.
		Where("colecao = ? AND id IN (?)", colecao, sub).
		Order("ordem ASC").
		Find(&modelos).Error; err != nil {
		return nil, falhaIO("buscar indice "+indice, err)
	}
	return payloads(modelos), nil
}

func (a *Armazem) Salvar(ctx context.Context, colecao domain.Colecao, entidade any) error {
	return a.transacao(ctx, "salvar", func(tx *gorm.DB) error {
		return a.salvar(tx, colecao, entidade)
	})
}

// SalvarTodos grava o lote numa única transação: ou todas as entidades ficam visíveis ou nenhuma.
func (a *Armazem) SalvarTodos(ctx context.Context, colecao domain.Colecao, entidades []any) error {
	if len(entidades) == 0 {
		return nil
	}
	return a.transacao(ctx, "salvar lote", func(tx *gorm.DB) error {
		for _, entidade := range entidades {
			if err := a.salvar(tx, colecao, entidade); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Armazem) Remover(ctx context.Context, colecao domain.Colecao, id string) error {
	return a.transacao(ctx, "remover", func(tx *gorm.DB) error {
		if err := tx.Where("colecao = ? AND id = ?", colecao, id).Delete(&registroModel{}).Error; err != nil {
			return falhaIO("remover "+string(colecao), err)
		}
		if err := tx.Where("colecao = ? AND id = ?", colecao, id).Delete(&indiceModel{}).Error; err != nil {
			return falhaIO("remover indices "+string(colecao), err)
		}
		return nil
	})
}

func (a *Armazem) Limpar(ctx context.Context, colecao domain.Colecao) error {
	return a.transacao(ctx, "limpar", func(tx *gorm.DB) error {
		if err := tx.Where("colecao = ?", colecao).Delete(&registroModel{}).Error; err != nil {
			return falhaIO("limpar "+string(colecao), err)
		}
		if err := tx.Where("colecao = ?", colecao).Delete(&indiceModel{}).Error; err != nil {
			return falhaIO("limpar indices "+string(colecao), err)
		}
		return nil
	})
}

// Renomear grava a entidade sob o novo id e apaga o registro antigo na mesma transação,
// herdando a posição do antigo na ordem de inserção.
func (a *Armazem) Renomear(ctx context.Context, colecao domain.Colecao, antigo string, entidade any) error {
	return a.transacao(ctx, "renomear", func(tx *gorm.DB) error {
		var anterior registroModel
		res := tx.Where("colecao = ? AND id = ?", colecao, antigo).Limit(1).Find(&anterior)
		if res.Error != nil {
			return falhaIO("ler "+string(colecao), res.Error)
		}
		ordem := ""
		if res.RowsAffected > 0 {
			ordem = anterior.Ordem
		}
		if err := tx.Where("colecao = ? AND id = ?", colecao, antigo).Delete(&registroModel{}).Error; err != nil {
			return falhaIO("remover "+string(colecao), err)
		}
		if err := tx.Where("colecao = ? AND id = ?", colecao, antigo).Delete(&indiceModel{}).Error; err != nil {
			return falhaIO("remover indices "+string(colecao), err)
		}
		return a.gravar(tx, colecao, entidade, ordem)
	})
}

func (a *Armazem) salvar(tx *gorm.DB, colecao domain.Colecao, entidade any) error {
	return a.gravar(tx, colecao, entidade, "")
}

// gravar faz o upsert do registro; ordem vazia gera uma nova posição para registros inéditos.
func (a *Armazem) gravar(tx *gorm.DB, colecao domain.Colecao, entidade any, ordem string) error {
	payload, err := json.Marshal(entidade)
	if err != nil {
		return fmt.Errorf("local: serializar %s: %w", colecao, err)
	}
	id := gjson.GetBytes(payload, "id").String()
	if id == "" {
		return fmt.Errorf("local: %s: %w", colecao, ErrEntidadeSemID)
	}

	if ordem == "" {
		ordem = a.ids.New()
	}
	modelo := registroModel{
		Colecao:      string(colecao),
		ID:           id,
		Ordem:        ordem,
		Payload:      string(payload),
		AtualizadoEm: a.clock.Agora(),
	}
	// Substituição mantém a ordem original de inserção.
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "colecao"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "atualizado_em"}),
	}).Create(&modelo).Error; err != nil {
		return falhaIO("salvar "+string(colecao), err)
	}

	if err := tx.Where("colecao = ? AND id = ?", colecao, id).Delete(&indiceModel{}).Error; err != nil {
		return falhaIO("limpar indices "+string(colecao), err)
	}
	for _, nome := range a.indices[colecao] {
		valor := gjson.GetBytes(payload, nome).String()
		if valor == "" {
			continue
		}
		if err := tx.Create(&indiceModel{Colecao: string(colecao), ID: id, Nome: nome, Valor: valor}).Error; err != nil {
			return falhaIO("indexar "+nome, err)
		}
	}
	return nil
}

func (a *Armazem) Enfileirar(ctx context.Context, op domain.Operacao) (uint64, error) {
	if op.Acao == "" || op.Entidade.Colecao() == "" || op.EntidadeID == "" {
		return 0, fmt.Errorf("local: %w: %s %q", ErrOperacaoInvalida, op.Tipo(), op.EntidadeID)
	}
	agora := a.clock.Agora()
	item := domain.SyncItem{
		Acao:         op.Acao,
		Entidade:     op.Entidade,
		EntidadeID:   op.EntidadeID,
		Payload:      op.Payload,
		Status:       domain.SyncPendente,
		CriadoEm:     agora,
		AtualizadoEm: agora,
	}
	// Create só retorna depois do commit, então a entrada já é durável.
	if err := a.db.WithContext(ctx).Create(&item).Error; err != nil {
		return 0, falhaIO("enfileirar "+op.Tipo(), err)
	}
	return item.ID, nil
}

// Pendentes devolve as entradas pendentes ou com falha, em ordem FIFO.
func (a *Armazem) Pendentes(ctx context.Context) ([]domain.SyncItem, error) {
	var itens []domain.SyncItem
	if err := a.db.WithContext(ctx).
		Where("status IN ?", statusAtivos()).
		Order("id ASC").
		Find(&itens).Error; err != nil {
		return nil, falhaIO("listar fila", err)
	}
	return itens, nil
}

func (a *Armazem) MarcarConcluido(ctx context.Context, id uint64) error {
	return a.atualizarItem(ctx, id, map[string]any{
		"status":        domain.SyncConcluido,
		"ultimo_erro":   "",
		"atualizado_em": a.clock.Agora(),
	})
}

func (a *Armazem) MarcarFalha(ctx context.Context, id uint64, motivo string) error {
	return a.atualizarItem(ctx, id, map[string]any{
		"status":        domain.SyncFalhou,
		"ultimo_erro":   motivo,
		"tentativas":    gorm.Expr("tentativas + 1"),
		"atualizado_em": a.clock.Agora(),
	})
}

// Abandonar tira a entrada do ciclo de novas tentativas, preservando o motivo para diagnóstico.
func (a *Armazem) Abandonar(ctx context.Context, id uint64, motivo string) error {
	return a.atualizarItem(ctx, id, map[string]any{
		"status":        domain.SyncAbandonado,
		"ultimo_erro":   motivo,
		"tentativas":    gorm.Expr("tentativas + 1"),
		"atualizado_em": a.clock.Agora(),
	})
}

func (a *Armazem) ContarPendentes(ctx context.Context) (int64, error) {
	return a.contar(ctx, statusAtivos()...)
}

func (a *Armazem) ContarAbandonados(ctx context.Context) (int64, error) {
	return a.contar(ctx, domain.SyncAbandonado)
}

// Abandonados lista o dead-letter da fila para inspeção.
func (a *Armazem) Abandonados(ctx context.Context) ([]domain.SyncItem, error) {
	var itens []domain.SyncItem
	if err := a.db.WithContext(ctx).
		Where("status = ?", domain.SyncAbandonado).
		Order("id ASC").
		Find(&itens).Error; err != nil {
		return nil, falhaIO("listar abandonados", err)
	}
	return itens, nil
}

// ReescreverID troca um id provisório pelo definitivo nas entradas ainda ativas da fila,
// tanto no alvo da operação quanto nas referências id/ronda_id do payload.
func (a *Armazem) ReescreverID(ctx context.Context, antigo, novo string) error {
	return a.transacao(ctx, "reescrever id", func(tx *gorm.DB) error {
		var itens []domain.SyncItem
		if err := tx.Where("status IN ?", statusAtivos()).Order("id ASC").Find(&itens).Error; err != nil {
			return falhaIO("listar fila", err)
		}
		for _, item := range itens {
			alterado := false
			if item.EntidadeID == antigo {
				item.EntidadeID = novo
				alterado = true
			}
			for _, campo := range []string{"id", domain.IndiceRondaID} {
				if gjson.GetBytes(item.Payload, campo).String() != antigo {
					continue
				}
				payload, err := sjson.SetBytes(item.Payload, campo, novo)
				if err != nil {
					return fmt.Errorf("local: reescrever %s da entrada %d: %w", campo, item.ID, err)
				}
				item.Payload = payload
				alterado = true
			}
			if !alterado {
				continue
			}
			if err := tx.Model(&domain.SyncItem{}).Where("id = ?", item.ID).Updates(map[string]any{
				"entidade_id":   item.EntidadeID,
				"payload":       item.Payload,
				"atualizado_em": a.clock.Agora(),
			}).Error; err != nil {
				return falhaIO("reescrever entrada", err)
			}
		}
		return nil
	})
}

// DescartarPendentes encerra as entradas de uma entidade (e de seus filhos) que nunca chegou ao backend.
func (a *Armazem) DescartarPendentes(ctx context.Context, entidadeID string) (int64, error) {
	var descartados int64
	err := a.transacao(ctx, "descartar", func(tx *gorm.DB) error {
		var itens []domain.SyncItem
		if err := tx.Where("status IN ?", statusAtivos()).Order("id ASC").Find(&itens).Error; err != nil {
			return falhaIO("listar fila", err)
		}
		for _, item := range itens {
			if item.EntidadeID != entidadeID && gjson.GetBytes(item.Payload, domain.IndiceRondaID).String() != entidadeID {
				continue
			}
			if err := tx.Model(&domain.SyncItem{}).Where("id = ?", item.ID).Updates(map[string]any{
				"status":        domain.SyncConcluido,
				"ultimo_erro":   "descartada: entidade removida antes do envio",
				"atualizado_em": a.clock.Agora(),
			}).Error; err != nil {
				return falhaIO("descartar entrada", err)
			}
			descartados++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return descartados, nil
}

func (a *Armazem) atualizarItem(ctx context.Context, id uint64, campos map[string]any) error {
	res := a.db.WithContext(ctx).Model(&domain.SyncItem{}).Where("id = ?", id).Updates(campos)
	if res.Error != nil {
		return falhaIO("atualizar fila", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *Armazem) contar(ctx context.Context, status ...domain.StatusSync) (int64, error) {
	var total int64
	if err := a.db.WithContext(ctx).
		Model(&domain.SyncItem{}).
		Where("status IN ?", status).
		Count(&total).Error; err != nil {
		return 0, falhaIO("contar fila", err)
	}
	return total, nil
}

func (a *Armazem) transacao(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var interno error
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		interno = fn(tx)
		return interno
	})
	if err == nil {
		return nil
	}
	if interno != nil {
		return interno
	}
	// Falha ao abrir ou confirmar a transação: nada do lote ficou visível.
	return falhaIO(op, err)
}

func (a *Armazem) indexado(colecao domain.Colecao, indice string) bool {
	for _, nome := range a.indices[colecao] {
		if nome == indice {
			return true
		}
	}
	return false
}

func statusAtivos() []domain.StatusSync {
	return []domain.StatusSync{domain.SyncPendente, domain.SyncFalhou}
}

func payloads(modelos []registroModel) []json.RawMessage {
	resultado := make([]json.RawMessage, len(modelos))
	for i, m := range modelos {
		resultado[i] = json.RawMessage(m.Payload)
	}
	return resultado
}

func falhaIO(op string, err error) error {
	return fmt.Errorf("local: %s: %w: %w", op, domain.ErrIO, err)
}

var _ domain.ArmazemLocal = (*Armazem)(nil)
