// Pacote remote concentra o que é comum a todos os adaptadores do backend remoto:
// a política de tempo limite e novas tentativas, o decorador que a aplica e a fachada tipada.
package remote

import (
	"context"
	"time"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

// Politica define tempo limite por tamanho de payload e quantas vezes repetir falhas de rede.
type Politica struct {
	TimeoutBase time.Duration
	TimeoutMax  time.Duration
	// BytesPorSegundoExtra é quanto payload justifica um segundo a mais de tempo limite.
	BytesPorSegundoExtra int
	Tentativas           int
	Espera               time.Duration
	Retentavel           func(error) bool
}

func PoliticaPadrao() Politica {
	return Politica{
		TimeoutBase:          8 * time.Second,
		TimeoutMax:           15 * time.Second,
		BytesPorSegundoExtra: 512 * 1024,
		Tentativas:           2,
		Espera:               500 * time.Millisecond,
		Retentavel:           domain.ErroRetentavel,
	}
}

// Timeout cresce linearmente com o tamanho do payload, sem passar de TimeoutMax.
func (p Politica) Timeout(tamanho int) time.Duration {
	timeout := p.TimeoutBase
	if p.BytesPorSegundoExtra > 0 && tamanho > 0 {
		timeout += time.Duration(tamanho/p.BytesPorSegundoExtra) * time.Second
	}
	if p.TimeoutMax > 0 && timeout > p.TimeoutMax {
		timeout = p.TimeoutMax
	}
	return timeout
}

func (p Politica) retentavel(err error) bool {
	if p.Retentavel == nil {
		return domain.ErroRetentavel(err)
	}
	return p.Retentavel(err)
}

// Executar roda fn com o tempo limite da política e repete enquanto o erro for retentável.
// Tentativas conta as repetições além da primeira chamada.
func (p Politica) Executar(ctx context.Context, tamanho int, fn func(ctx context.Context) error) error {
	var err error
	for tentativa := 0; tentativa <= p.Tentativas; tentativa++ {
		if tentativa > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(p.Espera * time.Duration(tentativa)):
			}
		}

		err = p.executarUma(ctx, tamanho, fn)
		if err == nil || !p.retentavel(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (p Politica) executarUma(ctx context.Context, tamanho int, fn func(ctx context.Context) error) error {
	timeout := p.Timeout(tamanho)
	if timeout <= 0 {
		return fn(ctx)
	}
	ctxChamada, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctxChamada)
}
