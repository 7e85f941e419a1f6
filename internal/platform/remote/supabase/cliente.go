// Pacote supabase fala com o backend hospedado: PostgREST para as tabelas e o storage de objetos para fotos.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

var errAtualizacaoVazia = errors.New("nenhum registro atualizado")

// Cliente implementa domain.RemoteStore e domain.Arquivos sobre a API REST do Supabase.
// Tempo limite e novas tentativas ficam a cargo de remote.Politica.
type Cliente struct {
	http    *resty.Client
	baseURL string
	bucket  string
}

func New(baseURL, chave, bucket string) *Cliente {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("apikey", chave).
		SetAuthToken(chave).
		SetHeader("Accept", "application/json")

	return &Cliente{http: client, baseURL: baseURL, bucket: bucket}
}

func caminhoTabela(tabela domain.Colecao) string {
	return "/rest/v1/" + string(tabela)
}

func (c *Cliente) Criar(ctx context.Context, tabela domain.Colecao, payload json.RawMessage) (json.RawMessage, error) {
	op := "criar " + string(tabela)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody([]byte(payload)).
		Post(caminhoTabela(tabela))
	if err := classificar(op, resp, err); err != nil {
		return nil, err
	}
	return primeiro(op, resp.Body())
}

func (c *Cliente) Atualizar(ctx context.Context, tabela domain.Colecao, id string, parcial json.RawMessage) (json.RawMessage, error) {
	op := "atualizar " + string(tabela)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody([]byte(parcial)).
		Patch(caminhoTabela(tabela))
	if err := classificar(op, resp, err); err != nil {
		return nil, err
	}
	// PATCH sem linhas afetadas devolve [] em vez de 404.
	return primeiro(op, resp.Body())
}

func (c *Cliente) Excluir(ctx context.Context, tabela domain.Colecao, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete(caminhoTabela(tabela))
	return classificar("excluir "+string(tabela), resp, err)
}

func (c *Cliente) Listar(ctx context.Context, tabela domain.Colecao, filtro domain.Filtro) ([]json.RawMessage, error) {
	op := "listar " + string(tabela)
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*")
	for coluna, valor := range filtro {
		req.SetQueryParam(coluna, "eq."+valor)
	}

	resp, err := req.Get(caminhoTabela(tabela))
	if err := classificar(op, resp, err); err != nil {
		return nil, err
	}

	var registros []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &registros); err != nil {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, fmt.Errorf("resposta invalida: %w", err))
	}
	return registros, nil
}

// Enviar grava o binário no bucket (sobrescrevendo) e devolve a URL pública do objeto.
func (c *Cliente) Enviar(ctx context.Context, caminho, contentType string, conteudo []byte) (string, error) {
	caminho = strings.TrimLeft(caminho, "/")
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(conteudo).
		Post("/storage/v1/object/" + c.bucket + "/" + caminho)
	if err := classificar("enviar arquivo", resp, err); err != nil {
		return "", err
	}
	return c.URLPublica(caminho), nil
}

func (c *Cliente) URLPublica(caminho string) string {
	segmentos := strings.Split(strings.TrimLeft(caminho, "/"), "/")
	for i, s := range segmentos {
		segmentos[i] = url.PathEscape(s)
	}
	return c.baseURL + "/storage/v1/object/public/" + c.bucket + "/" + strings.Join(segmentos, "/")
}

// Ping consulta a tabela de contratos; qualquer resposta HTTP abaixo de 500 prova que o backend responde.
func (c *Cliente) Ping(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "id").
		SetQueryParam("limit", "1").
		Get(caminhoTabela(domain.ColecaoContratos))
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroRede, "ping", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return &domain.RemoteError{Tipo: domain.ErroRede, Operacao: "ping", Status: resp.StatusCode()}
	}
	return nil
}

func primeiro(op string, corpo []byte) (json.RawMessage, error) {
	resultado := gjson.ParseBytes(corpo)
	if resultado.IsArray() {
		itens := resultado.Array()
		if len(itens) == 0 {
			return nil, domain.NovoErroRemoto(domain.ErroNotFound, op, errAtualizacaoVazia)
		}
		return json.RawMessage(itens[0].Raw), nil
	}
	if !resultado.IsObject() {
		return nil, domain.NovoErroRemoto(domain.ErroValidacao, op, fmt.Errorf("resposta inesperada: %q", string(corpo)))
	}
	return json.RawMessage(resultado.Raw), nil
}

// classificar traduz o resultado HTTP nas três classes que o coordenador entende.
func classificar(op string, resp *resty.Response, err error) error {
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroRede, op, err)
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}

	remoto := &domain.RemoteError{Operacao: op, Status: status}
	if msg := mensagem(resp.Body()); msg != "" {
		remoto.Err = errors.New(msg)
	}

	switch {
	case status == http.StatusNotFound:
		remoto.Tipo = domain.ErroNotFound
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		remoto.Tipo = domain.ErroRede
	default:
		remoto.Tipo = domain.ErroValidacao
	}
	return remoto
}

func mensagem(corpo []byte) string {
	for _, campo := range []string{"message", "error", "msg"} {
		if v := gjson.GetBytes(corpo, campo); v.Exists() {
			return v.String()
		}
	}
	return ""
}

var (
	_ domain.RemoteStore = (*Cliente)(nil)
	_ domain.Arquivos    = (*Cliente)(nil)
)
