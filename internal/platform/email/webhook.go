// Pacote email entrega mensagens a um webhook HTTP de envio de e-mail.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrSemWebhook = errors.New("email: webhook nao configurado")

type Mensagem struct {
	Para    []string `json:"to"`
	Assunto string   `json:"subject"`
	HTML    string   `json:"html"`
	Texto   string   `json:"text,omitempty"`
}

type Webhook struct {
	http *resty.Client
	url  string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})
	return &Webhook{http: client, url: url}
}

func (w *Webhook) Enviar(ctx context.Context, msg Mensagem) error {
	if w.url == "" {
		return ErrSemWebhook
	}
	if len(msg.Para) == 0 {
		return fmt.Errorf("email: mensagem sem destinatarios")
	}
	resp, err := w.http.R().SetContext(ctx).SetBody(msg).Post(w.url)
	if err != nil {
		return fmt.Errorf("email: enviar: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email: webhook respondeu %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
