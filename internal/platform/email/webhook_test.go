package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_Enviar_QuandoSucesso_DevePostarJSON(t *testing.T) {
	// Arrange
	var recebida Mensagem
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&recebida))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	wh := NewWebhook(srv.URL, time.Second)

	// Act
	err := wh.Enviar(context.Background(), Mensagem{Para: []string{"a@x.com"}, Assunto: "Laudos", HTML: "<p>oi</p>"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, recebida.Para)
	assert.Equal(t, "Laudos", recebida.Assunto)
}

func TestWebhook_Enviar_QuandoServidorFalha_DeveTentarDeNovoEErrar(t *testing.T) {
	// Arrange
	var chamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&chamadas, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	wh := NewWebhook(srv.URL, time.Second)

	// Act
	err := wh.Enviar(context.Background(), Mensagem{Para: []string{"a@x.com"}})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(3), atomic.LoadInt32(&chamadas))
}

func TestWebhook_Enviar_QuandoErroDoCliente_NaoDeveRepetir(t *testing.T) {
	// Arrange
	var chamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&chamadas, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	wh := NewWebhook(srv.URL, time.Second)

	// Act
	err := wh.Enviar(context.Background(), Mensagem{Para: []string{"a@x.com"}})

	// Assert
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chamadas))
}

func TestWebhook_Enviar_QuandoSemURL_DeveFalhar(t *testing.T) {
	err := NewWebhook("", 0).Enviar(context.Background(), Mensagem{Para: []string{"a@x.com"}})
	assert.ErrorIs(t, err, ErrSemWebhook)
}
