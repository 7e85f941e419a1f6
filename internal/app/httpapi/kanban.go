package httpapi

import (
	"net/http"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

func (a *API) quadro(w http.ResponseWriter, r *http.Request) {
	q, err := a.servicos.Kanban.Quadro(r.Context(), r.URL.Query().Get("contrato"))
	if err != nil {
		a.logger.Error("erro ao montar quadro", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, q)
}

func (a *API) criarCard(w http.ResponseWriter, r *http.Request) {
	var req domain.KanbanCard
	if !decodificar(w, r, &req) {
		return
	}
	card, err := a.servicos.Kanban.CriarCard(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, card)
}

func (a *API) buscarCard(w http.ResponseWriter, r *http.Request) {
	card, err := a.servicos.Kanban.Buscar(r.Context(), r.PathValue("id"))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, card)
}

type moverRequest struct {
	Status domain.StatusKanban `json:"status"`
	Motivo string              `json:"motivo"`
}

func (a *API) moverCard(w http.ResponseWriter, r *http.Request) {
	var req moverRequest
	if !decodificar(w, r, &req) {
		return
	}
	card, err := a.servicos.Kanban.Mover(r.Context(), r.PathValue("id"), req.Status, req.Motivo)
	if err != nil {
		a.logger.Info("movimento de card recusado", "err", err, "card", r.PathValue("id"), "destino", req.Status)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, card)
}

func (a *API) atualizarChecklist(w http.ResponseWriter, r *http.Request) {
	var req domain.Checklist
	if !decodificar(w, r, &req) {
		return
	}
	card, faltantes, err := a.servicos.Kanban.AtualizarChecklist(r.Context(), r.PathValue("id"), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	if faltantes == nil {
		faltantes = []string{}
	}
	responderJSON(w, http.StatusOK, map[string]any{"card": card, "faltantes": faltantes})
}

func (a *API) registrarOQueFalta(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nota string `json:"nota"`
	}
	if !decodificar(w, r, &req) {
		return
	}
	card, err := a.servicos.Kanban.RegistrarOQueFalta(r.Context(), r.PathValue("id"), req.Nota)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, card)
}

func (a *API) adicionarFotosCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fotos []string `json:"fotos"`
	}
	if !decodificar(w, r, &req) {
		return
	}
	card, err := a.servicos.Kanban.AdicionarFotos(r.Context(), r.PathValue("id"), req.Fotos)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, card)
}
