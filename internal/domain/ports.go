package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ArmazemLocal é o armazenamento durável do dispositivo: coleções chave/valor e a fila de sincronização.
type ArmazemLocal interface {
	Todos(ctx context.Context, colecao Colecao) ([]json.RawMessage, error)
	PorID(ctx context.Context, colecao Colecao, id string) (json.RawMessage, error)
	PorIndice(ctx context.Context, colecao Colecao, indice, valor string) ([]json.RawMessage, error)
	Salvar(ctx context.Context, colecao Colecao, entidade any) error
	SalvarTodos(ctx context.Context, colecao Colecao, entidades []any) error
	Remover(ctx context.Context, colecao Colecao, id string) error
	// Renomear troca o id do registro preservando sua posição na ordem de inserção.
	Renomear(ctx context.Context, colecao Colecao, antigo string, entidade any) error
	Limpar(ctx context.Context, colecao Colecao) error

	Enfileirar(ctx context.Context, op Operacao) (uint64, error)
	Pendentes(ctx context.Context) ([]SyncItem, error)
	MarcarConcluido(ctx context.Context, id uint64) error
	MarcarFalha(ctx context.Context, id uint64, motivo string) error
	Abandonar(ctx context.Context, id uint64, motivo string) error
	ContarPendentes(ctx context.Context) (int64, error)
	ReescreverID(ctx context.Context, antigo, novo string) error
	DescartarPendentes(ctx context.Context, entidadeID string) (int64, error)
}

// Filtro é uma igualdade por coluna aplicada na listagem remota.
type Filtro map[string]string

// RemoteStore é a fronteira com o backend hospedado. Conflitos resolvem-se por última escrita.
type RemoteStore interface {
	Criar(ctx context.Context, tabela Colecao, payload json.RawMessage) (json.RawMessage, error)
	Atualizar(ctx context.Context, tabela Colecao, id string, parcial json.RawMessage) (json.RawMessage, error)
	Excluir(ctx context.Context, tabela Colecao, id string) error
	Listar(ctx context.Context, tabela Colecao, filtro Filtro) ([]json.RawMessage, error)
}

// Arquivos armazena binários por caminho e devolve a URL pública.
type Arquivos interface {
	Enviar(ctx context.Context, caminho, contentType string, conteudo []byte) (string, error)
}

type Conectividade interface {
	Online() bool
	// Assinar registra um ouvinte para as bordas online/offline.
	Assinar(fn func(online bool)) (cancelar func())
}

// Trava protege a drenagem contra outra instância do coordenador.
type Trava interface {
	Adquirir(ctx context.Context, chave string, ttl time.Duration) (liberar func(), ok bool, err error)
}

type Notificador interface {
	Notificar(ctx context.Context, alerta AlertaLaudos) error
}

type Clock interface {
	Agora() time.Time
}

type KanbanRepository interface {
	Create(ctx context.Context, card KanbanCard) error
	Update(ctx context.Context, card KanbanCard) error
	FindByID(ctx context.Context, id string) (KanbanCard, error)
	List(ctx context.Context, contratoID string) ([]KanbanCard, error)
}

type LaudoRepository interface {
	Create(ctx context.Context, laudo Laudo) error
	Update(ctx context.Context, laudo Laudo) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Laudo, error)
	ListByContrato(ctx context.Context, contratoID string) ([]Laudo, error)
	ListAll(ctx context.Context) ([]Laudo, error)
}

type ContratoRepository interface {
	FindByID(ctx context.Context, id string) (Contrato, error)
	List(ctx context.Context) ([]Contrato, error)
}

// LimiteAlertas segura alertas repetidos do mesmo contrato dentro de uma janela.
type LimiteAlertas interface {
	Permitir(ctx context.Context, contratoID string) error
	// Liberar devolve a vaga consumida por um Permitir cujo alerta não chegou a sair.
	Liberar(ctx context.Context, contratoID string) error
}

// PainelLaudos guarda a contagem de laudos por status de cada contrato.
type PainelLaudos interface {
	Registrar(ctx context.Context, contratoID string, resumo map[StatusLaudo]int64) error
	Obter(ctx context.Context, contratoID string) (map[StatusLaudo]int64, error)
}
