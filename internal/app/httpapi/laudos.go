package httpapi

import (
	"net/http"

	"github.com/marcelojr/ronda-kanban/internal/app/laudos"
	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// listarLaudos aceita ?contrato= e ?agrupar=status para a visão por status.
func (a *API) listarLaudos(w http.ResponseWriter, r *http.Request) {
	lista, err := a.servicos.Laudos.Listar(r.Context(), r.URL.Query().Get("contrato"))
	if err != nil {
		a.logger.Error("erro ao listar laudos", "err", err)
		responderErro(w, err)
		return
	}
	if r.URL.Query().Get("agrupar") == "status" {
		responderJSON(w, http.StatusOK, laudos.Agrupar(lista))
		return
	}
	if lista == nil {
		lista = []domain.Laudo{}
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarLaudo(w http.ResponseWriter, r *http.Request) {
	var req domain.Laudo
	if !decodificar(w, r, &req) {
		return
	}
	laudo, err := a.servicos.Laudos.Criar(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, laudo)
}

func (a *API) buscarLaudo(w http.ResponseWriter, r *http.Request) {
	laudo, err := a.servicos.Laudos.Buscar(r.Context(), r.PathValue("id"))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, laudo)
}

func (a *API) atualizarLaudo(w http.ResponseWriter, r *http.Request) {
	var req domain.Laudo
	if !decodificar(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	laudo, err := a.servicos.Laudos.Atualizar(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, laudo)
}

func (a *API) excluirLaudo(w http.ResponseWriter, r *http.Request) {
	if err := a.servicos.Laudos.Excluir(r.Context(), r.PathValue("id")); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resumoLaudos devolve a contagem por status; o status indefinido sai como "indefinido".
func (a *API) resumoLaudos(w http.ResponseWriter, r *http.Request) {
	resumo, err := a.servicos.Laudos.Resumo(r.Context(), r.URL.Query().Get("contrato"))
	if err != nil {
		responderErro(w, err)
		return
	}
	saida := make(map[string]int64, len(resumo))
	for st, total := range resumo {
		chave := string(st)
		if st == domain.LaudoIndefinido {
			chave = "indefinido"
		}
		saida[chave] = total
	}
	responderJSON(w, http.StatusOK, saida)
}
