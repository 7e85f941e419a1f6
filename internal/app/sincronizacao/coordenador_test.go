package sincronizacao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/clock"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
	"github.com/marcelojr/ronda-kanban/internal/platform/migrations"
	"github.com/marcelojr/ronda-kanban/internal/platform/storage/local"
)

type chamada struct {
	acao    domain.Acao
	tabela  domain.Colecao
	id      string
	payload string
}

// remotoFake registra as chamadas e devolve o registro com id atribuído quando ausente.
type remotoFake struct {
	mu        sync.Mutex
	chamadas  []chamada
	falhar    func(chamada) error
	aoChamar  func(chamada)
	sequencia int
}

func (r *remotoFake) registrar(c chamada) error {
	r.mu.Lock()
	r.chamadas = append(r.chamadas, c)
	falhar := r.falhar
	aoChamar := r.aoChamar
	r.mu.Unlock()

	if aoChamar != nil {
		aoChamar(c)
	}
	if falhar != nil {
		return falhar(c)
	}
	return nil
}

func (r *remotoFake) Criar(ctx context.Context, tabela domain.Colecao, payload json.RawMessage) (json.RawMessage, error) {
	if err := r.registrar(chamada{acao: domain.AcaoCriar, tabela: tabela, id: gjson.GetBytes(payload, "id").String(), payload: string(payload)}); err != nil {
		return nil, err
	}
	if gjson.GetBytes(payload, "id").Exists() {
		return payload, nil
	}
	r.mu.Lock()
	r.sequencia++
	id := fmt.Sprintf("srv-%d", r.sequencia)
	r.mu.Unlock()
	criado, _ := sjson.SetBytes(payload, "id", id)
	return criado, nil
}

func (r *remotoFake) Atualizar(ctx context.Context, tabela domain.Colecao, id string, parcial json.RawMessage) (json.RawMessage, error) {
	if err := r.registrar(chamada{acao: domain.AcaoAtualizar, tabela: tabela, id: id, payload: string(parcial)}); err != nil {
		return nil, err
	}
	atualizado, _ := sjson.SetBytes(parcial, "id", id)
	return atualizado, nil
}

func (r *remotoFake) Excluir(ctx context.Context, tabela domain.Colecao, id string) error {
	return r.registrar(chamada{acao: domain.AcaoExcluir, tabela: tabela, id: id})
}

func (r *remotoFake) Listar(ctx context.Context, tabela domain.Colecao, filtro domain.Filtro) ([]json.RawMessage, error) {
	return nil, nil
}

func (r *remotoFake) todas() []chamada {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chamada(nil), r.chamadas...)
}

func (r *remotoFake) zerar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chamadas = nil
}

type conectividadeFake struct {
	mu       sync.Mutex
	online   bool
	ouvintes map[int]func(bool)
	proximo  int
}

func novaConectividade(online bool) *conectividadeFake {
	return &conectividadeFake{online: online, ouvintes: map[int]func(bool){}}
}

func (c *conectividadeFake) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *conectividadeFake) Assinar(fn func(bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proximo++
	id := c.proximo
	c.ouvintes[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.ouvintes, id)
	}
}

func (c *conectividadeFake) Definir(online bool) {
	c.mu.Lock()
	c.online = online
	ouvintes := make([]func(bool), 0, len(c.ouvintes))
	for _, fn := range c.ouvintes {
		ouvintes = append(ouvintes, fn)
	}
	c.mu.Unlock()
	for _, fn := range ouvintes {
		fn(online)
	}
}

type travaFake struct {
	livre bool
}

func (t travaFake) Adquirir(ctx context.Context, chave string, ttl time.Duration) (func(), bool, error) {
	if !t.livre {
		return nil, false, nil
	}
	return func() {}, true, nil
}

type cenario struct {
	armazem       *local.Armazem
	remoto        *remotoFake
	conectividade *conectividadeFake
	coordenador   *Coordenador
}

func novoCenario(t *testing.T, opcoes Opcoes) *cenario {
	t.Helper()
	ctx := context.Background()

	db, err := local.Open(ctx, filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	require.NoError(t, migrations.RunLocal(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	c := &cenario{
		armazem:       local.New(db, clock.NewSystemClock(), ids.NewGenerator()),
		remoto:        &remotoFake{},
		conectividade: novaConectividade(true),
	}
	c.coordenador = NewCoordenador(c.armazem, c.remoto, c.conectividade, clock.NewSystemClock(), nil, opcoes)
	return c
}

func (c *cenario) enfileirar(t *testing.T, acao domain.Acao, entidade domain.EntidadeSync, id, payload string) uint64 {
	t.Helper()
	entrada, err := c.armazem.Enfileirar(context.Background(), domain.Operacao{
		Acao:       acao,
		Entidade:   entidade,
		EntidadeID: id,
		Payload:    json.RawMessage(payload),
	})
	require.NoError(t, err)
	return entrada
}

func (c *cenario) pendentes(t *testing.T) int64 {
	t.Helper()
	total, err := c.armazem.ContarPendentes(context.Background())
	require.NoError(t, err)
	return total
}

func TestCoordenador_Sincronizar_DeveAplicarNaOrdemFIFOUmaVezCada(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	// Arrange
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1","nome":"A"}`)
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeRonda, "r1", `{"nome":"B"}`)
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeRonda, "r1", `{"nome":"C"}`)

	// Act
	resumo, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	_, err = c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	// Assert
	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 3)
	assert.Equal(t, domain.AcaoCriar, chamadas[0].acao)
	assert.JSONEq(t, `{"id":"r1","nome":"A"}`, chamadas[0].payload)
	assert.JSONEq(t, `{"nome":"B"}`, chamadas[1].payload)
	assert.JSONEq(t, `{"nome":"C"}`, chamadas[2].payload)
	assert.Equal(t, 3, resumo.Concluidas)
	assert.Equal(t, int64(0), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoFalhaParcial_DeveRepetirSomenteAFalha(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "a", `{"id":"a","nome":"A"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "b", `{"id":"b","nome":"B"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "c", `{"id":"c","nome":"C"}`)

	c.remoto.falhar = func(ch chamada) error {
		if ch.id == "b" {
			return domain.NovoErroRemoto(domain.ErroRede, "criar", errors.New("timeout"))
		}
		return nil
	}

	// Act: primeira passada, B falha
	resumo, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resumo.Concluidas)
	assert.Equal(t, 1, resumo.Falhas)
	assert.Equal(t, int64(1), c.pendentes(t))
	assert.Contains(t, c.coordenador.Status().UltimoErro, "timeout")

	// Act: segunda passada com o backend saudável
	c.remoto.zerar()
	c.remoto.falhar = nil
	_, err = c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	// Assert
	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 1)
	assert.Equal(t, "b", chamadas[0].id)
	assert.Equal(t, int64(0), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoEntidadeFalha_DeveAdiarEntradasSeguintesDaMesmaEntidade(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeArea, "a1", `{"status":"ATENCAO"}`)
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeArea, "a1", `{"status":"ATIVO"}`)
	c.remoto.falhar = func(ch chamada) error {
		return domain.NovoErroRemoto(domain.ErroRede, "atualizar", errors.New("sem rede"))
	}

	resumo, err := c.coordenador.Sincronizar(ctx)

	require.NoError(t, err)
	assert.Len(t, c.remoto.todas(), 1)
	assert.Equal(t, 1, resumo.Falhas)
	assert.Equal(t, 1, resumo.Adiadas)
	assert.Equal(t, int64(2), c.pendentes(t))
}

func TestCoordenador_OfflineIdaEVolta_DeveDrenarQuandoConectividadeVolta(t *testing.T) {
	c := novoCenario(t, Opcoes{Intervalo: time.Hour})
	ctx := context.Background()
	c.conectividade.Definir(false)

	// Arrange: ronda criada offline
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1","nome":"Ronda offline"}`)
	_, err := c.coordenador.Sincronizar(ctx)
	require.ErrorIs(t, err, ErrOffline)

	itens, err := c.armazem.Pendentes(ctx)
	require.NoError(t, err)
	require.Len(t, itens, 1)
	assert.Empty(t, c.remoto.todas())

	require.NoError(t, c.coordenador.Iniciar(ctx))
	defer c.coordenador.Encerrar()

	// Act
	c.conectividade.Definir(true)

	// Assert
	require.Eventually(t, func() bool {
		total, err := c.armazem.ContarPendentes(ctx)
		return err == nil && total == 0
	}, 2*time.Second, 10*time.Millisecond)

	itens, err = c.armazem.Pendentes(ctx)
	require.NoError(t, err)
	assert.Empty(t, itens)
	assert.Len(t, c.remoto.todas(), 1)
}

func TestCoordenador_Sincronizar_QuandoItemDeRondaProvisoria_NaoDeveChamarBackend(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	rondaProvisoria := domain.PrefixoProvisorio + "01JABCDEF"
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeItem, "offline_item1",
		`{"id":"offline_item1","ronda_id":"`+rondaProvisoria+`","nome":"Lampada queimada"}`)

	// Act
	resumo, err := c.coordenador.Sincronizar(ctx)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, c.remoto.todas())
	assert.Equal(t, 1, resumo.Adiadas)

	itens, err := c.armazem.Pendentes(ctx)
	require.NoError(t, err)
	require.Len(t, itens, 1)
	assert.Equal(t, domain.SyncPendente, itens[0].Status)
	assert.Equal(t, 0, itens[0].Tentativas)
}

func TestCoordenador_Sincronizar_QuandoRondaProvisoriaConfirmada_DeveReapontarFilhosEFila(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	// Arrange: ronda e área criadas offline, gravadas localmente e enfileiradas
	ronda := domain.Ronda{ID: "offline_R", Nome: "Ronda Torre A"}
	area := domain.AreaTecnica{ID: "offline_A", RondaID: "offline_R", Nome: "Casa de bombas", Status: domain.AreaAtiva}
	require.NoError(t, c.armazem.Salvar(ctx, domain.ColecaoRondas, ronda))
	require.NoError(t, c.armazem.Salvar(ctx, domain.ColecaoAreasTecnicas, area))

	payloadRonda, _ := json.Marshal(ronda)
	payloadArea, _ := json.Marshal(area)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, ronda.ID, string(payloadRonda))
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeArea, area.ID, string(payloadArea))
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeRonda, ronda.ID, `{"responsavel":"Carla"}`)

	// Act
	resumo, err := c.coordenador.Sincronizar(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, resumo.Concluidas)

	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 3)
	assert.False(t, gjson.Get(chamadas[0].payload, "id").Exists())
	assert.Equal(t, "srv-1", gjson.Get(chamadas[1].payload, "ronda_id").String())
	assert.False(t, gjson.Get(chamadas[1].payload, "id").Exists())
	assert.Equal(t, "srv-1", chamadas[2].id)

	_, err = c.armazem.PorID(ctx, domain.ColecaoRondas, "offline_R")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	rondaLocal, err := local.Buscar[domain.Ronda](ctx, c.armazem, domain.ColecaoRondas, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "Carla", rondaLocal.Responsavel)
	assert.Equal(t, "Ronda Torre A", rondaLocal.Nome)

	areas, err := local.ListarPorIndice[domain.AreaTecnica](ctx, c.armazem, domain.ColecaoAreasTecnicas, domain.IndiceRondaID, "srv-1")
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "srv-2", areas[0].ID)
	assert.Equal(t, int64(0), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoRondaConfirmada_DeveManterOrdemLocal(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	require.NoError(t, c.armazem.Salvar(ctx, domain.ColecaoRondas, domain.Ronda{ID: "offline_A", Nome: "A"}))
	require.NoError(t, c.armazem.Salvar(ctx, domain.ColecaoRondas, domain.Ronda{ID: "offline_B", Nome: "B"}))
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "offline_A", `{"id":"offline_A","nome":"A"}`)

	// Act
	_, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	// Assert
	rondas, err := local.Listar[domain.Ronda](ctx, c.armazem, domain.ColecaoRondas)
	require.NoError(t, err)
	require.Len(t, rondas, 2)
	assert.Equal(t, []string{"srv-1", "offline_B"}, []string{rondas[0].ID, rondas[1].ID})
}

func TestCoordenador_Sincronizar_QuandoCriarFalhaComProvisorio_DeveManterFilhosPendentesParaProximaPassada(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "offline_R", `{"id":"offline_R","nome":"Ronda"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeFoto, "offline_F", `{"id":"offline_F","ronda_id":"offline_R","foto":"https://x/f.jpg"}`)
	c.remoto.falhar = func(ch chamada) error {
		return domain.NovoErroRemoto(domain.ErroRede, "criar", errors.New("sem rede"))
	}

	// Act: primeira passada, a ronda falha e a foto nem sai
	_, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	assert.Len(t, c.remoto.todas(), 1)

	c.remoto.zerar()
	c.remoto.falhar = nil
	_, err = c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	// Assert
	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 2)
	assert.Equal(t, domain.ColecaoFotosRonda, chamadas[1].tabela)
	assert.Equal(t, "srv-1", gjson.Get(chamadas[1].payload, "ronda_id").String())
	assert.Equal(t, int64(0), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoValidacaoPersistente_DeveAbandonarAposMaxTentativas(t *testing.T) {
	c := novoCenario(t, Opcoes{MaxTentativas: 2})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)
	c.remoto.falhar = func(ch chamada) error {
		return domain.NovoErroRemoto(domain.ErroValidacao, "criar", errors.New("nome obrigatorio"))
	}

	resumo1, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	resumo2, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	resumo3, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, resumo1.Falhas)
	assert.Equal(t, 1, resumo2.Abandonadas)
	assert.Equal(t, 0, resumo3.Processadas())
	assert.Len(t, c.remoto.todas(), 2)
	assert.Equal(t, int64(0), c.pendentes(t))

	abandonados, err := c.armazem.Abandonados(ctx)
	require.NoError(t, err)
	require.Len(t, abandonados, 1)
	assert.Contains(t, abandonados[0].UltimoErro, "nome obrigatorio")
}

func TestCoordenador_Sincronizar_QuandoCriarProvisorioAbandonado_DeveAbandonarDependentes(t *testing.T) {
	c := novoCenario(t, Opcoes{MaxTentativas: 1})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "offline_R", `{"id":"offline_R"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeItem, "offline_I", `{"id":"offline_I","ronda_id":"offline_R","nome":"Pia"}`)
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeItem, "offline_I", `{"nome":"Pia nova"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r2", `{"id":"r2","nome":"Outra"}`)
	c.remoto.falhar = func(ch chamada) error {
		if ch.tabela == domain.ColecaoRondas && ch.id != "r2" {
			return domain.NovoErroRemoto(domain.ErroValidacao, "criar", errors.New("nome obrigatorio"))
		}
		return nil
	}

	// Act
	resumo, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	_, err = c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)

	// Assert: a ronda e toda a cadeia do item saem da fila, a ronda independente segue
	assert.Equal(t, 3, resumo.Abandonadas)
	assert.Equal(t, 1, resumo.Concluidas)
	assert.Equal(t, int64(0), c.pendentes(t))

	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 2)
	assert.Equal(t, domain.ColecaoRondas, chamadas[0].tabela)
	assert.NotEqual(t, "r2", chamadas[0].id)
	assert.Equal(t, "r2", chamadas[1].id)

	abandonados, err := c.armazem.Abandonados(ctx)
	require.NoError(t, err)
	require.Len(t, abandonados, 3)
	for _, a := range abandonados[1:] {
		assert.Contains(t, a.UltimoErro, "offline_R")
	}
}

func TestCoordenador_Sincronizar_QuandoExcluirNotFound_DeveConcluir(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoExcluir, domain.EntidadeFoto, "f1", `{"id":"f1"}`)
	c.enfileirar(t, domain.AcaoAtualizar, domain.EntidadeFoto, "f2", `{"local":"hall"}`)
	c.remoto.falhar = func(ch chamada) error {
		return domain.NovoErroRemoto(domain.ErroNotFound, string(ch.acao), nil)
	}

	resumo, err := c.coordenador.Sincronizar(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, resumo.Concluidas)
	assert.Equal(t, 1, resumo.Abandonadas)
	assert.Equal(t, int64(0), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoConectividadeCaiNoMeio_DeveParar(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r2", `{"id":"r2"}`)
	c.remoto.aoChamar = func(chamada) { c.conectividade.Definir(false) }

	resumo, err := c.coordenador.Sincronizar(ctx)

	require.NoError(t, err)
	assert.True(t, resumo.Interrompida)
	assert.Equal(t, 1, resumo.Concluidas)
	assert.Len(t, c.remoto.todas(), 1)
	assert.Equal(t, int64(1), c.pendentes(t))
}

func TestCoordenador_Sincronizar_QuandoJaDrenando_DeveSerNoop(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)

	liberar := make(chan struct{})
	chamou := make(chan struct{})
	c.remoto.aoChamar = func(chamada) {
		close(chamou)
		<-liberar
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.coordenador.Sincronizar(ctx)
		done <- err
	}()
	<-chamou

	// Act
	_, err := c.coordenador.Sincronizar(ctx)

	// Assert
	assert.ErrorIs(t, err, ErrEmAndamento)
	close(liberar)
	require.NoError(t, <-done)
	assert.Len(t, c.remoto.todas(), 1)
}

func TestCoordenador_Sincronizar_QuandoTravaDeOutroProcesso_DeveSerNoop(t *testing.T) {
	c := novoCenario(t, Opcoes{Trava: travaFake{livre: false}})
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)

	_, err := c.coordenador.Sincronizar(context.Background())

	assert.ErrorIs(t, err, ErrEmAndamento)
	assert.Empty(t, c.remoto.todas())
}

func TestCoordenador_Sincronizar_DeveRemoverCategoriaEPreservarLocalmente(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()

	item := domain.OutroItem{ID: "i1", RondaID: "r1", Nome: "Corrimao solto", Categoria: "seguranca", Fotos: []string{"a"}, Foto: "a"}
	require.NoError(t, c.armazem.Salvar(ctx, domain.ColecaoOutrosItens, item))
	payload, _ := json.Marshal(item)
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeItem, item.ID, string(payload))

	_, err := c.coordenador.Sincronizar(ctx)

	require.NoError(t, err)
	chamadas := c.remoto.todas()
	require.Len(t, chamadas, 1)
	assert.False(t, gjson.Get(chamadas[0].payload, "categoria").Exists())
	salvo, err := local.Buscar[domain.OutroItem](ctx, c.armazem, domain.ColecaoOutrosItens, "i1")
	require.NoError(t, err)
	assert.Equal(t, "seguranca", salvo.Categoria)
}

func TestCoordenador_AoMudarStatus_DeveReproduzirEstadoInicialENotificarNaOrdem(t *testing.T) {
	c := novoCenario(t, Opcoes{})
	ctx := context.Background()
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)
	c.coordenador.PendentesAlterados(ctx)

	var mu sync.Mutex
	var eventos []string
	registrar := func(nome string) func(domain.StatusSincronizacao) {
		return func(s domain.StatusSincronizacao) {
			mu.Lock()
			defer mu.Unlock()
			eventos = append(eventos, fmt.Sprintf("%s:%t:%d", nome, s.EmSincronizacao, s.Pendentes))
		}
	}

	// Act
	c.coordenador.AoMudarStatus(registrar("L1"))
	cancelar := c.coordenador.AoMudarStatus(registrar("L2"))
	_, err := c.coordenador.Sincronizar(ctx)
	require.NoError(t, err)
	cancelar()
	c.coordenador.PendentesAlterados(ctx)

	// Assert
	assert.Equal(t, []string{
		"L1:false:1",
		"L2:false:1",
		"L1:true:1",
		"L2:true:1",
		"L1:false:0",
		"L2:false:0",
		"L1:false:0",
	}, eventos)
	status := c.coordenador.Status()
	require.NotNil(t, status.UltimaSincronizacao)
	assert.Empty(t, status.UltimoErro)
}

func TestCoordenador_Iniciar_QuandoJaIniciado_DeveFalhar(t *testing.T) {
	c := novoCenario(t, Opcoes{Intervalo: time.Hour})
	ctx := context.Background()

	require.NoError(t, c.coordenador.Iniciar(ctx))
	defer c.coordenador.Encerrar()

	assert.ErrorIs(t, c.coordenador.Iniciar(ctx), ErrJaIniciado)
}

func TestCoordenador_Iniciar_DeveDrenarPeloTemporizador(t *testing.T) {
	c := novoCenario(t, Opcoes{Intervalo: 20 * time.Millisecond})
	ctx := context.Background()
	c.enfileirar(t, domain.AcaoCriar, domain.EntidadeRonda, "r1", `{"id":"r1"}`)

	require.NoError(t, c.coordenador.Iniciar(ctx))

	require.Eventually(t, func() bool {
		return len(c.remoto.todas()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	c.coordenador.Encerrar()
	// Encerrar é idempotente.
	c.coordenador.Encerrar()
	assert.Equal(t, int64(0), c.pendentes(t))
}
