package httpapi

import (
	"net/http"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

func (a *API) listarRondas(w http.ResponseWriter, r *http.Request) {
	lista, err := a.servicos.Rondas.ListarRondas(r.Context())
	if err != nil {
		a.logger.Error("erro ao listar rondas", "err", err)
		responderErro(w, err)
		return
	}
	if lista == nil {
		lista = []domain.Ronda{}
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarRonda(w http.ResponseWriter, r *http.Request) {
	var req domain.Ronda
	if !decodificar(w, r, &req) {
		return
	}
	ronda, err := a.servicos.Rondas.CriarRonda(r.Context(), req)
	if err != nil {
		a.logger.Warn("falha ao criar ronda", "err", err)
		responderErro(w, err)
		return
	}
	a.logger.Info("ronda criada", "ronda", ronda.ID)
	responderJSON(w, http.StatusCreated, ronda)
}

func (a *API) obterRonda(w http.ResponseWriter, r *http.Request) {
	ronda, err := a.servicos.Rondas.ObterRonda(r.Context(), r.PathValue("id"))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, ronda)
}

func (a *API) atualizarRonda(w http.ResponseWriter, r *http.Request) {
	var req domain.Ronda
	if !decodificar(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	ronda, err := a.servicos.Rondas.AtualizarRonda(r.Context(), req)
	if err != nil {
		a.logger.Warn("falha ao atualizar ronda", "err", err, "ronda", req.ID)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, ronda)
}

func (a *API) excluirRonda(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.servicos.Rondas.ExcluirRonda(r.Context(), id); err != nil {
		a.logger.Warn("falha ao excluir ronda", "err", err, "ronda", id)
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) adicionarArea(w http.ResponseWriter, r *http.Request) {
	var req domain.AreaTecnica
	if !decodificar(w, r, &req) {
		return
	}
	area, err := a.servicos.Rondas.AdicionarArea(r.Context(), r.PathValue("id"), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, area)
}

func (a *API) atualizarArea(w http.ResponseWriter, r *http.Request) {
	var req domain.AreaTecnica
	if !decodificar(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	area, err := a.servicos.Rondas.AtualizarArea(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, area)
}

func (a *API) removerArea(w http.ResponseWriter, r *http.Request) {
	if err := a.servicos.Rondas.RemoverArea(r.Context(), r.PathValue("id")); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) adicionarFoto(w http.ResponseWriter, r *http.Request) {
	var req domain.FotoRonda
	if !decodificar(w, r, &req) {
		return
	}
	foto, err := a.servicos.Rondas.AdicionarFoto(r.Context(), r.PathValue("id"), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, foto)
}

func (a *API) atualizarFoto(w http.ResponseWriter, r *http.Request) {
	var req domain.FotoRonda
	if !decodificar(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	foto, err := a.servicos.Rondas.AtualizarFoto(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, foto)
}

func (a *API) removerFoto(w http.ResponseWriter, r *http.Request) {
	if err := a.servicos.Rondas.RemoverFoto(r.Context(), r.PathValue("id")); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) adicionarItem(w http.ResponseWriter, r *http.Request) {
	var req domain.OutroItem
	if !decodificar(w, r, &req) {
		return
	}
	item, err := a.servicos.Rondas.AdicionarItem(r.Context(), r.PathValue("id"), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, item)
}

func (a *API) atualizarItem(w http.ResponseWriter, r *http.Request) {
	var req domain.OutroItem
	if !decodificar(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	item, err := a.servicos.Rondas.AtualizarItem(r.Context(), req)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, item)
}

func (a *API) removerItem(w http.ResponseWriter, r *http.Request) {
	if err := a.servicos.Rondas.RemoverItem(r.Context(), r.PathValue("id")); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// enviarArquivo recebe o binário cru no corpo; o nome vem em ?nome=.
func (a *API) enviarArquivo(w http.ResponseWriter, r *http.Request) {
	conteudo, err := lerCorpo(r)
	if err != nil {
		http.Error(w, "falha ao ler arquivo", http.StatusBadRequest)
		return
	}
	if len(conteudo) > limiteUpload {
		http.Error(w, "arquivo muito grande", http.StatusRequestEntityTooLarge)
		return
	}
	nome := r.URL.Query().Get("nome")
	if nome == "" {
		nome = "foto.jpg"
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(conteudo)
	}

	url, err := a.servicos.Rondas.EnviarArquivo(r.Context(), r.PathValue("id"), nome, contentType, conteudo)
	if err != nil {
		a.logger.Warn("falha no upload", "err", err, "ronda", r.PathValue("id"))
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, map[string]string{"url": url})
}
