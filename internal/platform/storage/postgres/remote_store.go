package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

var errTabelaDesconhecida = errors.New("tabela desconhecida")

// tabelaRemota sabe instanciar o modelo GORM e a fatia correspondente de uma tabela.
type tabelaRemota struct {
	novo  func() any
	lista func() any
}

func tabelaDe[T any]() tabelaRemota {
	return tabelaRemota{
		novo:  func() any { return new(T) },
		lista: func() any { return &[]T{} },
	}
}

var tabelasRemotas = map[domain.Colecao]tabelaRemota{
	domain.ColecaoContratos:     tabelaDe[domain.Contrato](),
	domain.ColecaoRondas:        tabelaDe[domain.Ronda](),
	domain.ColecaoAreasTecnicas: tabelaDe[domain.AreaTecnica](),
	domain.ColecaoFotosRonda:    tabelaDe[domain.FotoRonda](),
	domain.ColecaoOutrosItens:   tabelaDe[domain.OutroItem](),
	domain.ColecaoLaudos:        tabelaDe[domain.Laudo](),
	domain.ColecaoAgenda:        tabelaDe[domain.Agenda](),
	domain.ColecaoKanban:        tabelaDe[domain.KanbanCard](),
}

// filhosDaRonda são apagados junto com a ronda.
func filhosDaRonda() []any {
	return []any{&domain.AreaTecnica{}, &domain.FotoRonda{}, &domain.OutroItem{}}
}

// RemoteStore implementa o contrato do backend remoto diretamente sobre o Postgres.
// Atualizações mesclam o parcial sobre o registro atual e gravam tudo (última escrita vence).
type RemoteStore struct {
	db *gorm.DB
}

func NewRemoteStore(db *gorm.DB) *RemoteStore {
	return &RemoteStore{db: db}
}

func (r *RemoteStore) Criar(ctx context.Context, tabela domain.Colecao, payload json.RawMessage) (json.RawMessage, error) {
	op := "criar " + string(tabela)
	t, ok := tabelasRemotas[tabela]
	if !ok {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, errTabelaDesconhecida)
	}

	var campos map[string]any
	if err := json.Unmarshal(payload, &campos); err != nil {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, err)
	}
	if id, _ := campos["id"].(string); id == "" {
		campos["id"] = uuid.NewString()
	}
	bruto, _ := json.Marshal(campos)

	registro := t.novo()
	if err := json.Unmarshal(bruto, registro); err != nil {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, err)
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(registro).Error; err != nil {
		return nil, classificarGorm(op, err)
	}
	return json.Marshal(registro)
}

func (r *RemoteStore) Atualizar(ctx context.Context, tabela domain.Colecao, id string, parcial json.RawMessage) (json.RawMessage, error) {
	op := "atualizar " + string(tabela)
	t, ok := tabelasRemotas[tabela]
	if !ok {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, errTabelaDesconhecida)
	}

	registro := t.novo()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(registro, "id = ?", id).Error; err != nil {
			return err
		}
		// Campos ausentes no parcial mantêm o valor atual.
		if err := json.Unmarshal(parcial, registro); err != nil {
			return domain.NovoErroRemoto(domain.ErroValidacao, op, err)
		}
		if err := definirID(registro, id); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(registro).Error
	})
	if err != nil {
		return nil, classificarGorm(op, err)
	}
	return json.Marshal(registro)
}

func (r *RemoteStore) Excluir(ctx context.Context, tabela domain.Colecao, id string) error {
	op := "excluir " + string(tabela)
	t, ok := tabelasRemotas[tabela]
	if !ok {
		return domain.NovoErroRemoto(domain.ErroValidacao, op, errTabelaDesconhecida)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tabela == domain.ColecaoRondas {
			for _, filho := range filhosDaRonda() {
				if err := tx.Where("ronda_id = ?", id).Delete(filho).Error; err != nil {
					return err
				}
			}
		}
		res := tx.Where("id = ?", id).Delete(t.novo())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return classificarGorm(op, err)
	}
	return nil
}

func (r *RemoteStore) Listar(ctx context.Context, tabela domain.Colecao, filtro domain.Filtro) ([]json.RawMessage, error) {
	op := "listar " + string(tabela)
	t, ok := tabelasRemotas[tabela]
	if !ok {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, errTabelaDesconhecida)
	}

	q := r.db.WithContext(ctx)
	for coluna, valor := range filtro {
		q = q.Where(clause.Eq{Column: clause.Column{Name: coluna}, Value: valor})
	}

	lista := t.lista()
	if err := q.Order("id ASC").Find(lista).Error; err != nil {
		return nil, classificarGorm(op, err)
	}

	bruto, err := json.Marshal(lista)
	if err != nil {
		return nil, fmt.Errorf("gorm remoto: codificar %s: %w", tabela, err)
	}
	var registros []json.RawMessage
	if err := json.Unmarshal(bruto, &registros); err != nil {
		return nil, fmt.Errorf("gorm remoto: decodificar %s: %w", tabela, err)
	}
	return registros, nil
}

// Ping responde se o banco está acessível; usado pela sonda de conectividade.
func (r *RemoteStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroRede, "ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.NovoErroRemoto(domain.ErroRede, "ping", err)
	}
	return nil
}

// definirID impede que um parcial troque a chave primária do registro.
func definirID(registro any, id string) error {
	bruto, err := json.Marshal(map[string]string{"id": id})
	if err != nil {
		return err
	}
	return json.Unmarshal(bruto, registro)
}

// classificarGorm separa falhas de conexão (retentáveis) de rejeições do banco.
func classificarGorm(op string, err error) error {
	var remoto *domain.RemoteError
	if errors.As(err, &remoto) {
		return remoto
	}

	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NovoErroRemoto(domain.ErroNotFound, op, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return domain.NovoErroRemoto(domain.ErroRede, op, err)
	default:
		return domain.NovoErroRemoto(domain.ErroValidacao, op, err)
	}
}

var _ domain.RemoteStore = (*RemoteStore)(nil)
