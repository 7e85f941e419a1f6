package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// PrefixoProvisorio marca ids gerados no dispositivo enquanto o backend ainda não confirmou o registro.
const PrefixoProvisorio = "offline_"

func IDProvisorio(id string) bool {
	return strings.HasPrefix(id, PrefixoProvisorio)
}

type Acao string

const (
	AcaoCriar     Acao = "CREATE"
	AcaoAtualizar Acao = "UPDATE"
	AcaoExcluir   Acao = "DELETE"
)

type EntidadeSync string

const (
	EntidadeRonda EntidadeSync = "RONDA"
	EntidadeArea  EntidadeSync = "AREA"
	EntidadeFoto  EntidadeSync = "FOTO"
	EntidadeItem  EntidadeSync = "ITEM"
)

// Colecao devolve a coleção/tabela onde a entidade vive.
func (e EntidadeSync) Colecao() Colecao {
	switch e {
	case EntidadeRonda:
		return ColecaoRondas
	case EntidadeArea:
		return ColecaoAreasTecnicas
	case EntidadeFoto:
		return ColecaoFotosRonda
	case EntidadeItem:
		return ColecaoOutrosItens
	default:
		return ""
	}
}

// Operacao é a mutação que o dispositivo precisa replicar no backend.
type Operacao struct {
	Acao       Acao
	Entidade   EntidadeSync
	EntidadeID string
	Payload    json.RawMessage
}

func (o Operacao) Tipo() string {
	return string(o.Acao) + "_" + string(o.Entidade)
}

type StatusSync string

const (
	SyncPendente   StatusSync = "pendente"
	SyncConcluido  StatusSync = "concluido"
	SyncFalhou     StatusSync = "falhou"
	SyncAbandonado StatusSync = "abandonado"
)

// SyncItem é uma entrada da fila durável de sincronização. O ID é crescente e define a ordem FIFO.
type SyncItem struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	Acao         Acao            `gorm:"column:acao;type:text;not null"`
	Entidade     EntidadeSync    `gorm:"column:entidade;type:text;not null"`
	EntidadeID   string          `gorm:"column:entidade_id;type:text;not null;index"`
	Payload      json.RawMessage `gorm:"column:payload;type:text"`
	Status       StatusSync      `gorm:"column:status;type:text;not null;index"`
	UltimoErro   string          `gorm:"column:ultimo_erro;type:text"`
	Tentativas   int             `gorm:"column:tentativas;not null;default:0"`
	CriadoEm     time.Time       `gorm:"column:criado_em"`
	AtualizadoEm time.Time       `gorm:"column:atualizado_em"`
}

func (SyncItem) TableName() string { return "fila_sincronizacao" }

func (s SyncItem) Operacao() Operacao {
	return Operacao{
		Acao:       s.Acao,
		Entidade:   s.Entidade,
		EntidadeID: s.EntidadeID,
		Payload:    s.Payload,
	}
}

func (s SyncItem) Tipo() string {
	return s.Operacao().Tipo()
}

// StatusSincronizacao é o retrato publicado a cada transição do coordenador.
type StatusSincronizacao struct {
	EmSincronizacao     bool       `json:"em_sincronizacao"`
	Pendentes           int64      `json:"pendentes"`
	UltimaSincronizacao *time.Time `json:"ultima_sincronizacao,omitempty"`
	UltimoErro          string     `json:"ultimo_erro,omitempty"`
}
