// Pacote conectividade observa se o backend remoto está alcançável e avisa nas bordas online/offline.
package conectividade

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Sonda responde nil quando o backend atende.
type Sonda func(ctx context.Context) error

type ouvinte struct {
	id int
	fn func(online bool)
}

// Monitor começa offline; a primeira sonda bem-sucedida gera a borda "ficou online".
type Monitor struct {
	sonda     Sonda
	intervalo time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	online   bool
	ouvintes []ouvinte
	proximo  int
}

func New(sonda Sonda, intervalo time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := intervalo / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		sonda:     sonda,
		intervalo: intervalo,
		timeout:   timeout,
		logger:    logger,
	}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Assinar registra fn para as mudanças de estado; ouvintes são chamados na ordem de registro.
func (m *Monitor) Assinar(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.proximo++
	id := m.proximo
	m.ouvintes = append(m.ouvintes, ouvinte{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, o := range m.ouvintes {
			if o.id == id {
				m.ouvintes = append(m.ouvintes[:i:i], m.ouvintes[i+1:]...)
				return
			}
		}
	}
}

// Verificar roda a sonda uma vez e devolve o estado resultante.
func (m *Monitor) Verificar(ctx context.Context) bool {
	ctxSonda, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.sonda(ctxSonda)
	if err != nil {
		m.logger.Debug("conectividade: sonda falhou", "err", err)
	}
	online := err == nil
	m.Definir(online)
	return online
}

// Definir força o estado (ex.: aviso do sistema operacional) e notifica se houve mudança.
func (m *Monitor) Definir(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	ouvintes := make([]ouvinte, len(m.ouvintes))
	copy(ouvintes, m.ouvintes)
	m.mu.Unlock()

	m.logger.Info("conectividade: estado mudou", "online", online)
	for _, o := range ouvintes {
		o.fn(online)
	}
}

// Executar sonda imediatamente e depois a cada intervalo, até o contexto terminar.
func (m *Monitor) Executar(ctx context.Context) error {
	m.Verificar(ctx)

	ticker := time.NewTicker(m.intervalo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Verificar(ctx)
		}
	}
}

var _ domain.Conectividade = (*Monitor)(nil)
