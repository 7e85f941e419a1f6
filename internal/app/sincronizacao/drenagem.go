package sincronizacao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/metrics"
)

// Resumo conta o destino de cada entrada tocada numa passada.
type Resumo struct {
	Concluidas  int
	Falhas      int
	Abandonadas int
	// Adiadas ficaram pendentes sem chamar o backend (dependência provisória ou falha anterior da mesma entidade).
	Adiadas int
	// Interrompida indica que a conectividade caiu no meio da passada.
	Interrompida bool
}

func (r Resumo) Processadas() int {
	return r.Concluidas + r.Falhas + r.Abandonadas
}

type resultado string

const (
	resultadoConcluido  resultado = "concluido"
	resultadoFalhou     resultado = "falhou"
	resultadoAbandonado resultado = "abandonado"
	resultadoAdiado     resultado = "adiado"
)

// passada guarda o que a drenagem aprendeu até aqui: ids confirmados, entidades bloqueadas
// e entradas abandonadas junto com o CREATE provisório de que dependiam.
type passada struct {
	confirmados map[string]string
	bloqueadas  map[string]bool
	arrastadas  map[uint64]bool
	ultimoErro  string
}

// Sincronizar executa uma passada completa de drenagem. Uma chamada concorrente devolve ErrEmAndamento
// sem fazer nada; sem conectividade devolve ErrOffline e a fila fica intacta.
func (c *Coordenador) Sincronizar(ctx context.Context) (Resumo, error) {
	if !c.drenando.CompareAndSwap(false, true) {
		return Resumo{}, ErrEmAndamento
	}
	defer c.drenando.Store(false)

	if !c.conectividade.Online() {
		return Resumo{}, ErrOffline
	}

	if c.opcoes.Trava != nil {
		liberar, ok, err := c.opcoes.Trava.Adquirir(ctx, c.opcoes.ChaveTrava, c.opcoes.TTLTrava)
		switch {
		case err != nil:
			// Sem Redis seguimos só com a guarda local.
			c.logger.Warn("sincronizacao: trava indisponivel", "err", err)
		case !ok:
			return Resumo{}, ErrEmAndamento
		default:
			defer liberar()
		}
	}

	inicio := time.Now()
	c.mudarStatus(func(s *domain.StatusSincronizacao) {
		s.EmSincronizacao = true
	})

	resumo, p, err := c.drenar(ctx)

	pendentes, errContagem := c.armazem.ContarPendentes(ctx)
	agora := c.clock.Agora()
	c.mudarStatus(func(s *domain.StatusSincronizacao) {
		s.EmSincronizacao = false
		s.UltimaSincronizacao = &agora
		s.UltimoErro = p.ultimoErro
		if err != nil {
			s.UltimoErro = err.Error()
		}
		if errContagem == nil {
			s.Pendentes = pendentes
		}
	})
	metrics.ObserveDrenagem(time.Since(inicio).Seconds())

	if err != nil {
		return resumo, err
	}
	if errContagem != nil {
		return resumo, errContagem
	}
	return resumo, nil
}

func (c *Coordenador) drenar(ctx context.Context) (Resumo, *passada, error) {
	p := &passada{
		confirmados: map[string]string{},
		bloqueadas:  map[string]bool{},
		arrastadas:  map[uint64]bool{},
	}

	itens, err := c.armazem.Pendentes(ctx)
	if err != nil {
		return Resumo{}, p, fmt.Errorf("sincronizacao: listar fila: %w", err)
	}

	var resumo Resumo
	for _, item := range itens {
		if err := ctx.Err(); err != nil {
			return resumo, p, err
		}
		if !c.conectividade.Online() {
			resumo.Interrompida = true
			break
		}
		if p.arrastadas[item.ID] {
			continue
		}

		res, err := c.processar(ctx, p, item)
		if err != nil {
			// Falha do armazém local: parar antes de perder o controle do estado da fila.
			return resumo, p, err
		}
		metrics.ObserveSyncOperacao(item.Tipo(), string(res))

		switch res {
		case resultadoConcluido:
			resumo.Concluidas++
		case resultadoFalhou:
			resumo.Falhas++
		case resultadoAbandonado:
			resumo.Abandonadas++
		case resultadoAdiado:
			resumo.Adiadas++
		}
	}
	resumo.Abandonadas += len(p.arrastadas)
	return resumo, p, nil
}

// processar aplica uma entrada no backend. O erro devolvido é sempre do armazém local;
// erros remotos viram resultado.
func (c *Coordenador) processar(ctx context.Context, p *passada, item domain.SyncItem) (resultado, error) {
	item = p.aplicarConfirmados(item)
	op := item.Operacao()

	if dependencia, ok := p.dependenciaPendente(op); ok {
		c.logger.Debug("sincronizacao: entrada adiada", "entrada", item.ID, "tipo", op.Tipo(), "dependencia", dependencia)
		p.bloqueadas[op.EntidadeID] = true
		return resultadoAdiado, nil
	}

	tabela := op.Entidade.Colecao()
	if tabela == "" {
		return c.abandonar(ctx, p, item, fmt.Sprintf("entidade desconhecida: %s", op.Entidade))
	}

	var errRemoto error
	switch op.Acao {
	case domain.AcaoCriar:
		errRemoto = c.criar(ctx, p, tabela, op)
	case domain.AcaoAtualizar:
		errRemoto = c.atualizar(ctx, tabela, op)
	case domain.AcaoExcluir:
		errRemoto = c.remoto.Excluir(ctx, tabela, op.EntidadeID)
	default:
		return c.abandonar(ctx, p, item, fmt.Sprintf("acao desconhecida: %s", op.Acao))
	}

	if errRemoto == nil {
		if err := c.armazem.MarcarConcluido(ctx, item.ID); err != nil {
			return "", err
		}
		return resultadoConcluido, nil
	}
	if errors.Is(errRemoto, domain.ErrIO) {
		return "", errRemoto
	}
	return c.registrarFalha(ctx, p, item, errRemoto)
}

// registrarFalha decide entre nova tentativa, conclusão (DELETE de algo que já sumiu) e abandono.
func (c *Coordenador) registrarFalha(ctx context.Context, p *passada, item domain.SyncItem, errRemoto error) (resultado, error) {
	motivo := errRemoto.Error()
	c.logger.Warn("sincronizacao: entrada falhou",
		"entrada", item.ID,
		"tipo", item.Tipo(),
		"entidade_id", item.EntidadeID,
		"classe", domain.TipoErro(errRemoto),
		"err", errRemoto,
	)

	switch domain.TipoErro(errRemoto) {
	case domain.ErroNotFound:
		if item.Acao == domain.AcaoExcluir {
			if err := c.armazem.MarcarConcluido(ctx, item.ID); err != nil {
				return "", err
			}
			return resultadoConcluido, nil
		}
		return c.abandonar(ctx, p, item, motivo)
	case domain.ErroValidacao:
		if item.Tentativas+1 >= c.opcoes.MaxTentativas {
			return c.abandonar(ctx, p, item, motivo)
		}
	}

	p.ultimoErro = motivo
	p.bloqueadas[item.EntidadeID] = true
	if err := c.armazem.MarcarFalha(ctx, item.ID, motivo); err != nil {
		return "", err
	}
	return resultadoFalhou, nil
}

func (c *Coordenador) abandonar(ctx context.Context, p *passada, item domain.SyncItem, motivo string) (resultado, error) {
	c.logger.Error("sincronizacao: entrada abandonada", "entrada", item.ID, "tipo", item.Tipo(), "motivo", motivo)
	p.ultimoErro = motivo
	if err := c.armazem.Abandonar(ctx, item.ID, motivo); err != nil {
		return "", err
	}
	if item.Acao == domain.AcaoCriar && domain.IDProvisorio(item.EntidadeID) {
		if err := c.abandonarDependentes(ctx, p, item.EntidadeID, motivo); err != nil {
			return "", err
		}
	}
	return resultadoAbandonado, nil
}

// abandonarDependentes encerra as entradas ativas que apontam para um id provisório que nunca
// será confirmado: o próprio alvo (UPDATE/DELETE) e os filhos pela ronda_id. Filho provisório
// abandonado leva junto as suas próprias dependentes.
func (c *Coordenador) abandonarDependentes(ctx context.Context, p *passada, provisorio, motivo string) error {
	ativos, err := c.armazem.Pendentes(ctx)
	if err != nil {
		return err
	}
	motivo = fmt.Sprintf("dependencia %s abandonada: %s", provisorio, motivo)

	for _, dep := range ativos {
		if dep.EntidadeID != provisorio && gjson.GetBytes(dep.Payload, domain.IndiceRondaID).String() != provisorio {
			continue
		}
		if p.arrastadas[dep.ID] {
			continue
		}
		if err := c.armazem.Abandonar(ctx, dep.ID, motivo); err != nil {
			return err
		}
		p.arrastadas[dep.ID] = true
		metrics.ObserveSyncOperacao(dep.Tipo(), string(resultadoAbandonado))
		c.logger.Warn("sincronizacao: entrada abandonada com a dependencia", "entrada", dep.ID, "tipo", dep.Tipo(), "dependencia", provisorio)

		if dep.Acao == domain.AcaoCriar && dep.EntidadeID != provisorio && domain.IDProvisorio(dep.EntidadeID) {
			if err := c.abandonarDependentes(ctx, p, dep.EntidadeID, motivo); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Coordenador) criar(ctx context.Context, p *passada, tabela domain.Colecao, op domain.Operacao) error {
	payload, err := prepararPayload(op.Payload, domain.IDProvisorio(op.EntidadeID))
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroValidacao, "preparar "+op.Tipo(), err)
	}

	criado, err := c.remoto.Criar(ctx, tabela, payload)
	if err != nil {
		return err
	}

	novoID := gjson.GetBytes(criado, "id").String()
	if domain.IDProvisorio(op.EntidadeID) && novoID != "" && novoID != op.EntidadeID {
		if err := c.confirmarID(ctx, tabela, op.EntidadeID, novoID, criado); err != nil {
			return err
		}
		p.confirmados[op.EntidadeID] = novoID
		return nil
	}
	return c.reconciliar(ctx, tabela, op.EntidadeID, criado)
}

func (c *Coordenador) atualizar(ctx context.Context, tabela domain.Colecao, op domain.Operacao) error {
	parcial, err := prepararPayload(op.Payload, true)
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroValidacao, "preparar "+op.Tipo(), err)
	}

	atualizado, err := c.remoto.Atualizar(ctx, tabela, op.EntidadeID, parcial)
	if err != nil {
		return err
	}
	return c.reconciliar(ctx, tabela, op.EntidadeID, atualizado)
}

// reconciliar sobrepõe os campos devolvidos pelo backend ao registro local, se ele ainda existir.
func (c *Coordenador) reconciliar(ctx context.Context, tabela domain.Colecao, id string, remoto json.RawMessage) error {
	if len(remoto) == 0 {
		return nil
	}
	local, err := c.armazem.PorID(ctx, tabela, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	mesclado, err := mesclar(local, remoto)
	if err != nil {
		return domain.NovoErroRemoto(domain.ErroValidacao, "reconciliar "+string(tabela), err)
	}
	return c.armazem.Salvar(ctx, tabela, mesclado)
}

// confirmarID troca o id provisório pelo definitivo no cache local, nos filhos da ronda e na fila.
func (c *Coordenador) confirmarID(ctx context.Context, tabela domain.Colecao, antigo, novo string, remoto json.RawMessage) error {
	registro := remoto
	local, err := c.armazem.PorID(ctx, tabela, antigo)
	switch {
	case err == nil:
		registro, err = mesclar(local, remoto)
		if err != nil {
			return domain.NovoErroRemoto(domain.ErroValidacao, "reconciliar "+string(tabela), err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if err := c.armazem.Renomear(ctx, tabela, antigo, registro); err != nil {
		return err
	}

	if tabela == domain.ColecaoRondas {
		for _, filhos := range colecoesFilhas() {
			if err := c.reapontarFilhos(ctx, filhos, antigo, novo); err != nil {
				return err
			}
		}
	}

	if err := c.armazem.ReescreverID(ctx, antigo, novo); err != nil {
		return err
	}
	c.logger.Info("sincronizacao: id confirmado", "tabela", tabela, "provisorio", antigo, "definitivo", novo)
	return nil
}

func (c *Coordenador) reapontarFilhos(ctx context.Context, colecao domain.Colecao, antigo, novo string) error {
	filhos, err := c.armazem.PorIndice(ctx, colecao, domain.IndiceRondaID, antigo)
	if err != nil {
		return err
	}
	if len(filhos) == 0 {
		return nil
	}
	atualizados := make([]any, 0, len(filhos))
	for _, filho := range filhos {
		reapontado, err := definirCampo(filho, domain.IndiceRondaID, novo)
		if err != nil {
			return fmt.Errorf("sincronizacao: reapontar %s: %w", colecao, err)
		}
		atualizados = append(atualizados, reapontado)
	}
	return c.armazem.SalvarTodos(ctx, colecao, atualizados)
}

func colecoesFilhas() []domain.Colecao {
	return []domain.Colecao{domain.ColecaoAreasTecnicas, domain.ColecaoFotosRonda, domain.ColecaoOutrosItens}
}

// aplicarConfirmados traz para a entrada os ids confirmados mais cedo nesta mesma passada.
func (p *passada) aplicarConfirmados(item domain.SyncItem) domain.SyncItem {
	if novo, ok := p.confirmados[item.EntidadeID]; ok {
		item.EntidadeID = novo
	}
	for _, campo := range []string{"id", domain.IndiceRondaID} {
		atual := gjson.GetBytes(item.Payload, campo).String()
		novo, ok := p.confirmados[atual]
		if !ok {
			continue
		}
		if payload, err := definirCampo(item.Payload, campo, novo); err == nil {
			item.Payload = payload
		}
	}
	return item
}

// dependenciaPendente aponta o id que ainda impede a entrada de ir ao backend: a própria entidade
// com falha anterior nesta passada, um alvo provisório de UPDATE/DELETE, ou a ronda-mãe provisória.
func (p *passada) dependenciaPendente(op domain.Operacao) (string, bool) {
	if p.bloqueadas[op.EntidadeID] {
		return op.EntidadeID, true
	}
	if op.Acao != domain.AcaoCriar && domain.IDProvisorio(op.EntidadeID) {
		return op.EntidadeID, true
	}
	if rondaID := gjson.GetBytes(op.Payload, domain.IndiceRondaID).String(); domain.IDProvisorio(rondaID) {
		return rondaID, true
	}
	return "", false
}
