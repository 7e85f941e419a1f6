package httpapi

import "net/http"

func (a *API) statusSync(w http.ResponseWriter, r *http.Request) {
	responderJSON(w, http.StatusOK, a.servicos.Sincronizador.Status())
}

func (a *API) sincronizar(w http.ResponseWriter, r *http.Request) {
	resumo, err := a.servicos.Sincronizador.Sincronizar(r.Context())
	if err != nil {
		a.logger.Warn("sincronizacao manual recusada", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]any{
		"concluidas":   resumo.Concluidas,
		"falhas":       resumo.Falhas,
		"abandonadas":  resumo.Abandonadas,
		"adiadas":      resumo.Adiadas,
		"interrompida": resumo.Interrompida,
		"status":       a.servicos.Sincronizador.Status(),
	})
}
