package domain

import (
	"time"
)

// Colecao nomeia tanto a coleção do armazém local quanto a tabela do backend remoto.
type Colecao string

const (
	ColecaoContratos     Colecao = "contratos"
	ColecaoRondas        Colecao = "rondas"
	ColecaoAreasTecnicas Colecao = "areas_tecnicas"
	ColecaoFotosRonda    Colecao = "fotos_ronda"
	ColecaoOutrosItens   Colecao = "outros_itens_corrigidos"
	ColecaoLaudos        Colecao = "laudos"
	ColecaoAgenda        Colecao = "agenda"
	ColecaoKanban        Colecao = "kanban_cards"
)

// Índices secundários conhecidos pelo armazém local.
const (
	IndiceRondaID    = "ronda_id"
	IndiceContratoID = "contrato_id"
)

type StatusArea string

const (
	AreaAtiva         StatusArea = "ATIVO"
	AreaEmManutencao  StatusArea = "EM_MANUTENCAO"
	AreaAtencao       StatusArea = "ATENCAO"
	AreaForaDeServico StatusArea = "FORA_DE_SERVICO"
)

type Contrato struct {
	ID                string    `json:"id" gorm:"column:id;type:text;primaryKey"`
	Nome              string    `json:"nome" gorm:"column:nome;type:text;not null"`
	Sindico           string    `json:"sindico" gorm:"column:sindico;type:text"`
	Endereco          string    `json:"endereco" gorm:"column:endereco;type:text"`
	Periodicidade     string    `json:"periodicidade" gorm:"column:periodicidade;type:text"`
	EmailsNotificacao []string  `json:"emails_notificacao" gorm:"column:emails_notificacao;serializer:json"`
	CriadoEm          time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
	AtualizadoEm      time.Time `json:"atualizado_em" gorm:"column:atualizado_em;autoUpdateTime"`
}

// Ronda agrega as verificações de uma visita técnica ao condomínio.
type Ronda struct {
	ID                string        `json:"id" gorm:"column:id;type:text;primaryKey"`
	Nome              string        `json:"nome" gorm:"column:nome;type:text;not null"`
	Contrato          string        `json:"contrato" gorm:"column:contrato;type:text;index"`
	Data              string        `json:"data" gorm:"column:data;type:text"`
	Hora              string        `json:"hora" gorm:"column:hora;type:text"`
	Responsavel       string        `json:"responsavel" gorm:"column:responsavel;type:text"`
	ObservacoesGerais string        `json:"observacoes_gerais" gorm:"column:observacoes_gerais;type:text"`
	AreasTecnicas     []AreaTecnica `json:"areas_tecnicas,omitempty" gorm:"foreignKey:RondaID;constraint:OnDelete:CASCADE"`
	FotosRonda        []FotoRonda   `json:"fotos_ronda,omitempty" gorm:"foreignKey:RondaID;constraint:OnDelete:CASCADE"`
	OutrosItens       []OutroItem   `json:"outros_itens_corrigidos,omitempty" gorm:"foreignKey:RondaID;constraint:OnDelete:CASCADE"`
	CriadoEm          time.Time     `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
	AtualizadoEm      time.Time     `json:"atualizado_em" gorm:"column:atualizado_em;autoUpdateTime"`
}

type AreaTecnica struct {
	ID          string     `json:"id" gorm:"column:id;type:text;primaryKey"`
	RondaID     string     `json:"ronda_id" gorm:"column:ronda_id;type:text;not null;index"`
	Nome        string     `json:"nome" gorm:"column:nome;type:text;not null"`
	Status      StatusArea `json:"status" gorm:"column:status;type:text;not null;default:ATIVO"`
	Contrato    string     `json:"contrato" gorm:"column:contrato;type:text"`
	Endereco    string     `json:"endereco" gorm:"column:endereco;type:text"`
	Data        string     `json:"data" gorm:"column:data;type:text"`
	Hora        string     `json:"hora" gorm:"column:hora;type:text"`
	Foto        string     `json:"foto,omitempty" gorm:"column:foto;type:text"`
	Observacoes string     `json:"observacoes" gorm:"column:observacoes;type:text"`
}

type FotoRonda struct {
	ID            string `json:"id" gorm:"column:id;type:text;primaryKey"`
	RondaID       string `json:"ronda_id" gorm:"column:ronda_id;type:text;not null;index"`
	Foto          string `json:"foto" gorm:"column:foto;type:text"`
	Local         string `json:"local" gorm:"column:local;type:text"`
	Pendencia     string `json:"pendencia" gorm:"column:pendencia;type:text"`
	Especialidade string `json:"especialidade" gorm:"column:especialidade;type:text"`
	Responsavel   string `json:"responsavel" gorm:"column:responsavel;type:text"`
	Criticidade   string `json:"criticidade,omitempty" gorm:"column:criticidade;type:text"`
	Observacoes   string `json:"observacoes" gorm:"column:observacoes;type:text"`
	Data          string `json:"data" gorm:"column:data;type:text"`
	Hora          string `json:"hora" gorm:"column:hora;type:text"`
}

// OutroItem é o registro de algo encontrado (e corrigido ou pendente) durante a ronda.
// Foto é o campo legado e espelha o primeiro elemento de Fotos.
type OutroItem struct {
	ID          string   `json:"id" gorm:"column:id;type:text;primaryKey"`
	RondaID     string   `json:"ronda_id" gorm:"column:ronda_id;type:text;not null;index"`
	Nome        string   `json:"nome" gorm:"column:nome;type:text;not null"`
	Descricao   string   `json:"descricao" gorm:"column:descricao;type:text"`
	Local       string   `json:"local" gorm:"column:local;type:text"`
	Tipo        string   `json:"tipo" gorm:"column:tipo;type:text"`
	Prioridade  string   `json:"prioridade" gorm:"column:prioridade;type:text"`
	Status      string   `json:"status" gorm:"column:status;type:text"`
	Contrato    string   `json:"contrato" gorm:"column:contrato;type:text"`
	Endereco    string   `json:"endereco" gorm:"column:endereco;type:text"`
	Responsavel string   `json:"responsavel" gorm:"column:responsavel;type:text"`
	Foto        string   `json:"foto,omitempty" gorm:"column:foto;type:text"`
	Fotos       []string `json:"fotos,omitempty" gorm:"column:fotos;serializer:json"`
	Observacoes string   `json:"observacoes" gorm:"column:observacoes;type:text"`
	Data        string   `json:"data" gorm:"column:data;type:text"`
	Hora        string   `json:"hora" gorm:"column:hora;type:text"`
	// Categoria só existe no cliente e nunca é enviada ao backend.
	Categoria string `json:"categoria,omitempty" gorm:"-"`
}

type CategoriaKanban string

const (
	CategoriaVistoria                  CategoriaKanban = "vistoria"
	CategoriaRecebimentoIncendio       CategoriaKanban = "recebimento_equipamentos_incendio"
	CategoriaRecebimentoAreasComuns    CategoriaKanban = "recebimento_areas_comuns"
	CategoriaRecebimentoChaves         CategoriaKanban = "recebimento_chaves"
	CategoriaConferenciaAcessibilidade CategoriaKanban = "conferencia_acessibilidade"
	CategoriaComissionamento           CategoriaKanban = "comissionamento"
	CategoriaDocumentacao              CategoriaKanban = "documentacao"
)

func CategoriasKanban() []CategoriaKanban {
	return []CategoriaKanban{
		CategoriaVistoria,
		CategoriaRecebimentoIncendio,
		CategoriaRecebimentoAreasComuns,
		CategoriaRecebimentoChaves,
		CategoriaConferenciaAcessibilidade,
		CategoriaComissionamento,
		CategoriaDocumentacao,
	}
}

type StatusKanban string

const (
	KanbanAguardando  StatusKanban = "aguardando"
	KanbanEmAndamento StatusKanban = "em_andamento"
	KanbanEmCorrecao  StatusKanban = "em_correcao"
	KanbanFinalizado  StatusKanban = "finalizado"
)

// Checklist guarda o objeto estruturado de cada categoria; os campos obrigatórios são booleanos.
type Checklist map[string]any

// KanbanCard acompanha um item de implantação (entrega do condomínio) pelo quadro.
type KanbanCard struct {
	ID                 string          `json:"id" gorm:"column:id;type:text;primaryKey"`
	ContratoID         string          `json:"contrato_id" gorm:"column:contrato_id;type:text;index"`
	Titulo             string          `json:"titulo" gorm:"column:titulo;type:text;not null"`
	Categoria          CategoriaKanban `json:"categoria" gorm:"column:categoria;type:text;not null"`
	Status             StatusKanban    `json:"status" gorm:"column:status;type:text;not null"`
	MotivoCorrecao     string          `json:"motivo_correcao,omitempty" gorm:"column:motivo_correcao;type:text"`
	DataCorrecao       *time.Time      `json:"data_correcao,omitempty" gorm:"column:data_correcao"`
	OQueFalta          string          `json:"o_que_falta,omitempty" gorm:"column:o_que_falta;type:text"`
	DataOQueFalta      *time.Time      `json:"data_o_que_falta,omitempty" gorm:"column:data_o_que_falta"`
	Checklist          Checklist       `json:"checklist,omitempty" gorm:"column:checklist;serializer:json"`
	Fotos              []string        `json:"fotos,omitempty" gorm:"column:fotos;serializer:json"`
	HistoricoCorrecoes string          `json:"historico_correcoes,omitempty" gorm:"column:historico_correcoes;type:text"`
	CriadoEm           time.Time       `json:"criado_em" gorm:"column:criado_em"`
	AtualizadoEm       time.Time       `json:"atualizado_em" gorm:"column:atualizado_em"`
}

type StatusLaudo string

const (
	LaudoIndefinido        StatusLaudo = ""
	LaudoEmDia             StatusLaudo = "em_dia"
	LaudoProximoVencimento StatusLaudo = "proximo_vencimento"
	LaudoVencido           StatusLaudo = "vencido"
)

// Laudo é um documento regulatório; Status é sempre derivado de DataVencimento.
type Laudo struct {
	ID             string      `json:"id" gorm:"column:id;type:text;primaryKey"`
	ContratoID     string      `json:"contrato_id" gorm:"column:contrato_id;type:text;not null;index"`
	Titulo         string      `json:"titulo" gorm:"column:titulo;type:text;not null"`
	Status         StatusLaudo `json:"status" gorm:"column:status;type:text"`
	DataVencimento *time.Time  `json:"data_vencimento,omitempty" gorm:"column:data_vencimento"`
	DataEmissao    *time.Time  `json:"data_emissao,omitempty" gorm:"column:data_emissao"`
	Periodicidade  string      `json:"periodicidade" gorm:"column:periodicidade;type:text"`
	Observacoes    string      `json:"observacoes" gorm:"column:observacoes;type:text"`
	CriadoEm       time.Time   `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
	AtualizadoEm   time.Time   `json:"atualizado_em" gorm:"column:atualizado_em;autoUpdateTime"`
}

type Agenda struct {
	ID         string     `json:"id" gorm:"column:id;type:text;primaryKey"`
	ContratoID string     `json:"contrato_id" gorm:"column:contrato_id;type:text;index"`
	Titulo     string     `json:"titulo" gorm:"column:titulo;type:text;not null"`
	Descricao  string     `json:"descricao" gorm:"column:descricao;type:text"`
	Data       *time.Time `json:"data,omitempty" gorm:"column:data"`
	CriadoEm   time.Time  `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

// AlertaLaudos é o pedido de notificação de documentos vencidos ou próximos do vencimento.
type AlertaLaudos struct {
	ContratoID    string    `json:"contrato_id"`
	ContratoNome  string    `json:"contrato_nome"`
	Destinatarios []string  `json:"destinatarios"`
	Laudos        []Laudo   `json:"laudos"`
	GeradoEm      time.Time `json:"gerado_em"`
}

func (Contrato) TableName() string { return string(ColecaoContratos) }

func (Ronda) TableName() string { return string(ColecaoRondas) }

func (AreaTecnica) TableName() string { return string(ColecaoAreasTecnicas) }

func (FotoRonda) TableName() string { return string(ColecaoFotosRonda) }

func (OutroItem) TableName() string { return string(ColecaoOutrosItens) }

func (KanbanCard) TableName() string { return string(ColecaoKanban) }

func (Laudo) TableName() string { return string(ColecaoLaudos) }

func (Agenda) TableName() string { return string(ColecaoAgenda) }
