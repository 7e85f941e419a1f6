// Pacote httpapi expõe os handlers REST usados pela interface: rondas (local-first),
// sincronização, quadro kanban e laudos.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/marcelojr/ronda-kanban/internal/app/kanban"
	"github.com/marcelojr/ronda-kanban/internal/app/laudos"
	"github.com/marcelojr/ronda-kanban/internal/app/rondas"
	"github.com/marcelojr/ronda-kanban/internal/app/sincronizacao"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

// limiteUpload é o maior arquivo aceito em /rondas/{id}/arquivos.
const limiteUpload = 10 << 20

type RondasService interface {
	CriarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error)
	AtualizarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error)
	ExcluirRonda(ctx context.Context, id string) error
	ObterRonda(ctx context.Context, id string) (domain.Ronda, error)
	ListarRondas(ctx context.Context) ([]domain.Ronda, error)
	AdicionarArea(ctx context.Context, rondaID string, a domain.AreaTecnica) (domain.AreaTecnica, error)
	AtualizarArea(ctx context.Context, a domain.AreaTecnica) (domain.AreaTecnica, error)
	RemoverArea(ctx context.Context, id string) error
	AdicionarFoto(ctx context.Context, rondaID string, f domain.FotoRonda) (domain.FotoRonda, error)
	AtualizarFoto(ctx context.Context, f domain.FotoRonda) (domain.FotoRonda, error)
	RemoverFoto(ctx context.Context, id string) error
	AdicionarItem(ctx context.Context, rondaID string, item domain.OutroItem) (domain.OutroItem, error)
	AtualizarItem(ctx context.Context, item domain.OutroItem) (domain.OutroItem, error)
	RemoverItem(ctx context.Context, id string) error
	EnviarArquivo(ctx context.Context, rondaID, nome, contentType string, conteudo []byte) (string, error)
}

type Sincronizador interface {
	Status() domain.StatusSincronizacao
	Sincronizar(ctx context.Context) (sincronizacao.Resumo, error)
}

type KanbanService interface {
	CriarCard(ctx context.Context, card domain.KanbanCard) (domain.KanbanCard, error)
	Buscar(ctx context.Context, id string) (domain.KanbanCard, error)
	Mover(ctx context.Context, id string, destino domain.StatusKanban, motivo string) (domain.KanbanCard, error)
	AtualizarChecklist(ctx context.Context, id string, checklist domain.Checklist) (domain.KanbanCard, []string, error)
	RegistrarOQueFalta(ctx context.Context, id, nota string) (domain.KanbanCard, error)
	AdicionarFotos(ctx context.Context, id string, fotos []string) (domain.KanbanCard, error)
	Quadro(ctx context.Context, contratoID string) (kanban.Quadro, error)
}

type LaudosService interface {
	Criar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error)
	Atualizar(ctx context.Context, laudo domain.Laudo) (domain.Laudo, error)
	Excluir(ctx context.Context, id string) error
	Buscar(ctx context.Context, id string) (domain.Laudo, error)
	Listar(ctx context.Context, contratoID string) ([]domain.Laudo, error)
	Resumo(ctx context.Context, contratoID string) (map[domain.StatusLaudo]int64, error)
}

// Servicos agrupa as dependências da API; serviço nil deixa suas rotas de fora.
type Servicos struct {
	Rondas        RondasService
	Sincronizador Sincronizador
	Kanban        KanbanService
	Laudos        LaudosService
}

type API struct {
	servicos Servicos
	logger   *slog.Logger
}

func New(servicos Servicos, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{servicos: servicos, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealthz)

	if a.servicos.Rondas != nil {
		mux.HandleFunc("GET /rondas", a.rota("rondas", a.listarRondas))
		mux.HandleFunc("POST /rondas", a.rota("rondas", a.criarRonda))
		mux.HandleFunc("GET /rondas/{id}", a.rota("ronda", a.obterRonda))
		mux.HandleFunc("PUT /rondas/{id}", a.rota("ronda", a.atualizarRonda))
		mux.HandleFunc("DELETE /rondas/{id}", a.rota("ronda", a.excluirRonda))
		mux.HandleFunc("POST /rondas/{id}/areas", a.rota("areas", a.adicionarArea))
		mux.HandleFunc("PUT /areas/{id}", a.rota("area", a.atualizarArea))
		mux.HandleFunc("DELETE /areas/{id}", a.rota("area", a.removerArea))
		mux.HandleFunc("POST /rondas/{id}/fotos", a.rota("fotos", a.adicionarFoto))
		mux.HandleFunc("PUT /fotos/{id}", a.rota("foto", a.atualizarFoto))
		mux.HandleFunc("DELETE /fotos/{id}", a.rota("foto", a.removerFoto))
		mux.HandleFunc("POST /rondas/{id}/itens", a.rota("itens", a.adicionarItem))
		mux.HandleFunc("PUT /itens/{id}", a.rota("item", a.atualizarItem))
		mux.HandleFunc("DELETE /itens/{id}", a.rota("item", a.removerItem))
		mux.HandleFunc("POST /rondas/{id}/arquivos", a.rota("arquivos", a.enviarArquivo))
	}

	if a.servicos.Sincronizador != nil {
		mux.HandleFunc("GET /sync/status", a.rota("sync_status", a.statusSync))
		mux.HandleFunc("POST /sync", a.rota("sync", a.sincronizar))
	}

	if a.servicos.Kanban != nil {
		mux.HandleFunc("GET /kanban", a.rota("kanban", a.quadro))
		mux.HandleFunc("POST /kanban/cards", a.rota("kanban_cards", a.criarCard))
		mux.HandleFunc("GET /kanban/cards/{id}", a.rota("kanban_card", a.buscarCard))
		mux.HandleFunc("POST /kanban/cards/{id}/mover", a.rota("kanban_mover", a.moverCard))
		mux.HandleFunc("PUT /kanban/cards/{id}/checklist", a.rota("kanban_checklist", a.atualizarChecklist))
		mux.HandleFunc("PUT /kanban/cards/{id}/o-que-falta", a.rota("kanban_o_que_falta", a.registrarOQueFalta))
		mux.HandleFunc("POST /kanban/cards/{id}/fotos", a.rota("kanban_fotos", a.adicionarFotosCard))
	}

	if a.servicos.Laudos != nil {
		mux.HandleFunc("GET /laudos", a.rota("laudos", a.listarLaudos))
		mux.HandleFunc("POST /laudos", a.rota("laudos", a.criarLaudo))
		mux.HandleFunc("GET /laudos/resumo", a.rota("laudos_resumo", a.resumoLaudos))
		mux.HandleFunc("GET /laudos/{id}", a.rota("laudo", a.buscarLaudo))
		mux.HandleFunc("PUT /laudos/{id}", a.rota("laudo", a.atualizarLaudo))
		mux.HandleFunc("DELETE /laudos/{id}", a.rota("laudo", a.excluirLaudo))
	}
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// rota registra a métrica da requisição pelo status efetivamente escrito.
func (a *API) rota(nome string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(rw, r)
		metrics.ObserveHTTP(nome, strconv.Itoa(rw.status))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func decodificar(w http.ResponseWriter, r *http.Request, destino any) bool {
	if err := json.NewDecoder(r.Body).Decode(destino); err != nil {
		http.Error(w, "payload invalido", http.StatusBadRequest)
		return false
	}
	return true
}

func lerCorpo(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, limiteUpload+1))
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func responderErro(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	corpo := map[string]any{"erro": err.Error()}

	var precondicao *domain.PreconditionFailedError
	switch {
	case errors.As(err, &precondicao):
		status = http.StatusUnprocessableEntity
		corpo["faltantes"] = precondicao.Faltantes
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, rondas.ErrRondaInvalida),
		errors.Is(err, rondas.ErrRegistroInvalido),
		errors.Is(err, kanban.ErrCardInvalido),
		errors.Is(err, kanban.ErrCategoriaInvalida),
		errors.Is(err, kanban.ErrMotivoObrigatorio),
		errors.Is(err, kanban.ErrLimiteFotos),
		errors.Is(err, laudos.ErrLaudoInvalido):
		status = http.StatusBadRequest
	case errors.Is(err, kanban.ErrTransicaoInvalida),
		errors.Is(err, sincronizacao.ErrEmAndamento):
		status = http.StatusConflict
	case errors.Is(err, sincronizacao.ErrOffline),
		errors.Is(err, rondas.ErrSemArmazenamento),
		errors.Is(err, domain.ErrIO):
		status = http.StatusServiceUnavailable
	default:
		var remoto *domain.RemoteError
		if errors.As(err, &remoto) {
			status = http.StatusBadGateway
		}
	}

	responderJSON(w, status, corpo)
}
