// Pacote sincronizacao drena a fila durável contra o backend remoto, uma passada por vez,
// e publica o status da sincronização para quem estiver ouvindo.
package sincronizacao

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

var (
	ErrEmAndamento = errors.New("sincronizacao ja em andamento")
	ErrOffline     = errors.New("sem conectividade com o backend")
	ErrJaIniciado  = errors.New("coordenador ja iniciado")
)

// Opcoes ajusta o coordenador; valores zerados assumem os padrões.
type Opcoes struct {
	Intervalo     time.Duration
	MaxTentativas int
	// Trava opcional para impedir duas drenagens simultâneas entre processos.
	Trava      domain.Trava
	ChaveTrava string
	TTLTrava   time.Duration
}

func (o Opcoes) normalizar() Opcoes {
	if o.Intervalo <= 0 {
		o.Intervalo = 30 * time.Second
	}
	if o.MaxTentativas <= 0 {
		o.MaxTentativas = 5
	}
	if o.ChaveTrava == "" {
		o.ChaveTrava = "sync"
	}
	if o.TTLTrava <= 0 {
		o.TTLTrava = 2 * time.Minute
	}
	return o
}

type ouvinte struct {
	id int
	fn func(domain.StatusSincronizacao)
}

// Coordenador é o único consumidor da fila de sincronização.
type Coordenador struct {
	armazem       domain.ArmazemLocal
	remoto        domain.RemoteStore
	conectividade domain.Conectividade
	clock         domain.Clock
	logger        *slog.Logger
	opcoes        Opcoes

	drenando atomic.Bool
	disparo  chan struct{}

	// mu protege status e ouvintes; entrega serializa as notificações.
	mu       sync.Mutex
	entrega  sync.Mutex
	status   domain.StatusSincronizacao
	ouvintes []ouvinte
	proximo  int

	ciclo                 sync.Mutex
	cancelar              context.CancelFunc
	cancelarConectividade func()
	wg                    sync.WaitGroup
}

func NewCoordenador(
	armazem domain.ArmazemLocal,
	remoto domain.RemoteStore,
	conectividade domain.Conectividade,
	clock domain.Clock,
	logger *slog.Logger,
	opcoes Opcoes,
) *Coordenador {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordenador{
		armazem:       armazem,
		remoto:        remoto,
		conectividade: conectividade,
		clock:         clock,
		logger:        logger,
		opcoes:        opcoes.normalizar(),
		disparo:       make(chan struct{}, 1),
	}
}

// Iniciar assina a conectividade e sobe o laço do temporizador. Encerrar desfaz ambos.
func (c *Coordenador) Iniciar(ctx context.Context) error {
	c.ciclo.Lock()
	defer c.ciclo.Unlock()

	if c.cancelar != nil {
		return ErrJaIniciado
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancelar = cancel
	c.cancelarConectividade = c.conectividade.Assinar(func(online bool) {
		if online {
			c.Disparar()
		}
	})

	if err := c.atualizarPendentes(ctx); err != nil {
		c.logger.Warn("sincronizacao: contar pendentes na partida", "err", err)
	}

	c.wg.Add(1)
	go c.executar(ctx)

	c.logger.Info("sincronizacao: coordenador iniciado", "intervalo", c.opcoes.Intervalo.String())
	return nil
}

func (c *Coordenador) Encerrar() {
	c.ciclo.Lock()
	defer c.ciclo.Unlock()

	if c.cancelar == nil {
		return
	}
	c.cancelarConectividade()
	c.cancelar()
	c.wg.Wait()

	c.cancelar = nil
	c.cancelarConectividade = nil
	c.logger.Info("sincronizacao: coordenador encerrado")
}

// Disparar pede uma drenagem ao laço sem bloquear; pedidos repetidos se fundem em um.
func (c *Coordenador) Disparar() {
	select {
	case c.disparo <- struct{}{}:
	default:
	}
}

// PendentesAlterados é chamado depois de cada escrita local que enfileirou algo.
func (c *Coordenador) PendentesAlterados(ctx context.Context) {
	if err := c.atualizarPendentes(ctx); err != nil {
		c.logger.Warn("sincronizacao: contar pendentes", "err", err)
	}
	if c.conectividade.Online() {
		c.Disparar()
	}
}

func (c *Coordenador) executar(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opcoes.Intervalo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tentar(ctx, "temporizador")
		case <-c.disparo:
			c.tentar(ctx, "evento")
		}
	}
}

func (c *Coordenador) tentar(ctx context.Context, origem string) {
	resumo, err := c.Sincronizar(ctx)
	switch {
	case errors.Is(err, ErrEmAndamento), errors.Is(err, ErrOffline), errors.Is(err, context.Canceled):
		return
	case err != nil:
		c.logger.Error("sincronizacao: drenagem falhou", "origem", origem, "err", err)
	case resumo.Processadas() > 0:
		c.logger.Info("sincronizacao: drenagem concluida",
			"origem", origem,
			"concluidas", resumo.Concluidas,
			"falhas", resumo.Falhas,
			"abandonadas", resumo.Abandonadas,
			"adiadas", resumo.Adiadas,
		)
	}
}

// Status devolve o retrato atual.
func (c *Coordenador) Status() domain.StatusSincronizacao {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copiarStatus(c.status)
}

// AoMudarStatus registra um ouvinte, entrega o status atual na hora e depois cada transição,
// sempre na ordem de registro. Ouvintes não devem registrar outros ouvintes de dentro da chamada.
func (c *Coordenador) AoMudarStatus(fn func(domain.StatusSincronizacao)) func() {
	c.entrega.Lock()
	defer c.entrega.Unlock()

	c.mu.Lock()
	c.proximo++
	id := c.proximo
	c.ouvintes = append(c.ouvintes, ouvinte{id: id, fn: fn})
	atual := copiarStatus(c.status)
	c.mu.Unlock()

	fn(atual)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.ouvintes {
			if o.id == id {
				c.ouvintes = append(c.ouvintes[:i:i], c.ouvintes[i+1:]...)
				return
			}
		}
	}
}

// mudarStatus aplica a mutação e só então avisa os ouvintes.
func (c *Coordenador) mudarStatus(mutar func(*domain.StatusSincronizacao)) {
	c.entrega.Lock()
	defer c.entrega.Unlock()

	c.mu.Lock()
	mutar(&c.status)
	atual := copiarStatus(c.status)
	ouvintes := make([]ouvinte, len(c.ouvintes))
	copy(ouvintes, c.ouvintes)
	c.mu.Unlock()

	metrics.SetPendentes(atual.Pendentes)
	for _, o := range ouvintes {
		o.fn(atual)
	}
}

func (c *Coordenador) atualizarPendentes(ctx context.Context) error {
	total, err := c.armazem.ContarPendentes(ctx)
	if err != nil {
		return err
	}
	c.mudarStatus(func(s *domain.StatusSincronizacao) {
		s.Pendentes = total
	})
	return nil
}

func copiarStatus(s domain.StatusSincronizacao) domain.StatusSincronizacao {
	if s.UltimaSincronizacao != nil {
		t := *s.UltimaSincronizacao
		s.UltimaSincronizacao = &t
	}
	return s
}
