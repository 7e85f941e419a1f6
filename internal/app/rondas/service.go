// Pacote rondas implementa a escrita local-first das rondas e de seus registros:
// grava no armazém do dispositivo, enfileira a mutação e avisa o coordenador.
package rondas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
	"github.com/marcelojr/ronda-kanban/internal/platform/storage/local"
)

var (
	ErrRondaInvalida    = errors.New("ronda invalida")
	ErrRegistroInvalido = errors.New("registro invalido")
	ErrSemArmazenamento = errors.New("armazenamento de arquivos indisponivel")
)

// Observador é avisado quando a fila ganhou entradas novas.
type Observador interface {
	PendentesAlterados(ctx context.Context)
}

type Service struct {
	armazem     domain.ArmazemLocal
	arquivos    domain.Arquivos
	observador  Observador
	clock       domain.Clock
	ids         *ids.Generator
	limiteFotos int
}

func NewService(
	armazem domain.ArmazemLocal,
	arquivos domain.Arquivos,
	observador Observador,
	clock domain.Clock,
	idsGen *ids.Generator,
	limiteFotos int,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		armazem:     armazem,
		arquivos:    arquivos,
		observador:  observador,
		clock:       clock,
		ids:         idsGen,
		limiteFotos: limiteFotos,
	}
}

func (s *Service) CriarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error) {
	if strings.TrimSpace(r.Nome) == "" {
		return domain.Ronda{}, fmt.Errorf("%w: nome obrigatorio", ErrRondaInvalida)
	}
	agora := s.clock.Agora()
	r.ID = s.ids.Provisorio()
	r.CriadoEm = agora
	r.AtualizadoEm = agora
	r.AreasTecnicas, r.FotosRonda, r.OutrosItens = nil, nil, nil

	if err := s.gravar(ctx, domain.AcaoCriar, domain.EntidadeRonda, r.ID, r); err != nil {
		return domain.Ronda{}, err
	}
	return r, nil
}

// AtualizarRonda substitui os campos próprios da ronda; as coleções filhas têm operações próprias.
func (s *Service) AtualizarRonda(ctx context.Context, r domain.Ronda) (domain.Ronda, error) {
	if strings.TrimSpace(r.Nome) == "" {
		return domain.Ronda{}, fmt.Errorf("%w: nome obrigatorio", ErrRondaInvalida)
	}
	atual, err := local.Buscar[domain.Ronda](ctx, s.armazem, domain.ColecaoRondas, r.ID)
	if err != nil {
		return domain.Ronda{}, err
	}
	r.CriadoEm = atual.CriadoEm
	r.AtualizadoEm = s.clock.Agora()
	r.AreasTecnicas, r.FotosRonda, r.OutrosItens = nil, nil, nil

	if err := s.gravar(ctx, domain.AcaoAtualizar, domain.EntidadeRonda, r.ID, r); err != nil {
		return domain.Ronda{}, err
	}
	return r, nil
}

// ExcluirRonda apaga a ronda e os filhos do cache local. Ronda que nunca chegou ao backend
// só tem suas entradas descartadas; as demais geram um DELETE (o backend apaga os filhos em cascata).
func (s *Service) ExcluirRonda(ctx context.Context, id string) error {
	if _, err := s.armazem.PorID(ctx, domain.ColecaoRondas, id); err != nil {
		return err
	}

	for _, colecao := range colecoesFilhas() {
		filhos, err := s.armazem.PorIndice(ctx, colecao, domain.IndiceRondaID, id)
		if err != nil {
			return err
		}
		for _, filho := range filhos {
			var ref struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(filho, &ref); err != nil || ref.ID == "" {
				continue
			}
			if _, err := s.armazem.DescartarPendentes(ctx, ref.ID); err != nil {
				return err
			}
			if err := s.armazem.Remover(ctx, colecao, ref.ID); err != nil {
				return err
			}
		}
	}

	if err := s.armazem.Remover(ctx, domain.ColecaoRondas, id); err != nil {
		return err
	}

	if domain.IDProvisorio(id) {
		if _, err := s.armazem.DescartarPendentes(ctx, id); err != nil {
			return err
		}
		s.avisar(ctx)
		return nil
	}

	if err := s.enfileirar(ctx, domain.AcaoExcluir, domain.EntidadeRonda, id, map[string]string{"id": id}); err != nil {
		return err
	}
	s.avisar(ctx)
	return nil
}

// ObterRonda monta a ronda com as coleções que ela possui, a partir do cache local.
func (s *Service) ObterRonda(ctx context.Context, id string) (domain.Ronda, error) {
	r, err := local.Buscar[domain.Ronda](ctx, s.armazem, domain.ColecaoRondas, id)
	if err != nil {
		return domain.Ronda{}, err
	}
	if r.AreasTecnicas, err = local.ListarPorIndice[domain.AreaTecnica](ctx, s.armazem, domain.ColecaoAreasTecnicas, domain.IndiceRondaID, id); err != nil {
		return domain.Ronda{}, err
	}
	if r.FotosRonda, err = local.ListarPorIndice[domain.FotoRonda](ctx, s.armazem, domain.ColecaoFotosRonda, domain.IndiceRondaID, id); err != nil {
		return domain.Ronda{}, err
	}
	if r.OutrosItens, err = local.ListarPorIndice[domain.OutroItem](ctx, s.armazem, domain.ColecaoOutrosItens, domain.IndiceRondaID, id); err != nil {
		return domain.Ronda{}, err
	}
	return r, nil
}

func (s *Service) ListarRondas(ctx context.Context) ([]domain.Ronda, error) {
	return local.Listar[domain.Ronda](ctx, s.armazem, domain.ColecaoRondas)
}

func (s *Service) AdicionarArea(ctx context.Context, rondaID string, a domain.AreaTecnica) (domain.AreaTecnica, error) {
	if strings.TrimSpace(a.Nome) == "" {
		return domain.AreaTecnica{}, fmt.Errorf("%w: area sem nome", ErrRegistroInvalido)
	}
	if a.Status == "" {
		a.Status = domain.AreaAtiva
	}
	if err := validarStatusArea(a.Status); err != nil {
		return domain.AreaTecnica{}, err
	}
	if err := s.exigirRonda(ctx, rondaID); err != nil {
		return domain.AreaTecnica{}, err
	}
	a.ID = s.ids.Provisorio()
	a.RondaID = rondaID
	if err := s.gravar(ctx, domain.AcaoCriar, domain.EntidadeArea, a.ID, a); err != nil {
		return domain.AreaTecnica{}, err
	}
	return a, nil
}

func (s *Service) AtualizarArea(ctx context.Context, a domain.AreaTecnica) (domain.AreaTecnica, error) {
	if err := validarStatusArea(a.Status); err != nil {
		return domain.AreaTecnica{}, err
	}
	atual, err := local.Buscar[domain.AreaTecnica](ctx, s.armazem, domain.ColecaoAreasTecnicas, a.ID)
	if err != nil {
		return domain.AreaTecnica{}, err
	}
	a.RondaID = atual.RondaID
	if err := s.gravar(ctx, domain.AcaoAtualizar, domain.EntidadeArea, a.ID, a); err != nil {
		return domain.AreaTecnica{}, err
	}
	return a, nil
}

func (s *Service) RemoverArea(ctx context.Context, id string) error {
	return s.removerFilho(ctx, domain.EntidadeArea, id)
}

func (s *Service) AdicionarFoto(ctx context.Context, rondaID string, f domain.FotoRonda) (domain.FotoRonda, error) {
	if strings.TrimSpace(f.Foto) == "" {
		return domain.FotoRonda{}, fmt.Errorf("%w: foto vazia", ErrRegistroInvalido)
	}
	if err := s.exigirRonda(ctx, rondaID); err != nil {
		return domain.FotoRonda{}, err
	}
	f.ID = s.ids.Provisorio()
	f.RondaID = rondaID
	if err := s.gravar(ctx, domain.AcaoCriar, domain.EntidadeFoto, f.ID, f); err != nil {
		return domain.FotoRonda{}, err
	}
	return f, nil
}

func (s *Service) AtualizarFoto(ctx context.Context, f domain.FotoRonda) (domain.FotoRonda, error) {
	atual, err := local.Buscar[domain.FotoRonda](ctx, s.armazem, domain.ColecaoFotosRonda, f.ID)
	if err != nil {
		return domain.FotoRonda{}, err
	}
	f.RondaID = atual.RondaID
	if err := s.gravar(ctx, domain.AcaoAtualizar, domain.EntidadeFoto, f.ID, f); err != nil {
		return domain.FotoRonda{}, err
	}
	return f, nil
}

func (s *Service) RemoverFoto(ctx context.Context, id string) error {
	return s.removerFilho(ctx, domain.EntidadeFoto, id)
}

// AdicionarItem ajusta as fotos ao orçamento de bytes antes de gravar e enfileirar.
func (s *Service) AdicionarItem(ctx context.Context, rondaID string, item domain.OutroItem) (domain.OutroItem, error) {
	if strings.TrimSpace(item.Nome) == "" {
		return domain.OutroItem{}, fmt.Errorf("%w: item sem nome", ErrRegistroInvalido)
	}
	if err := s.exigirRonda(ctx, rondaID); err != nil {
		return domain.OutroItem{}, err
	}
	item.ID = s.ids.Provisorio()
	item.RondaID = rondaID
	item = AjustarFotos(item, s.limiteFotos)
	if err := s.gravar(ctx, domain.AcaoCriar, domain.EntidadeItem, item.ID, item); err != nil {
		return domain.OutroItem{}, err
	}
	return item, nil
}

func (s *Service) AtualizarItem(ctx context.Context, item domain.OutroItem) (domain.OutroItem, error) {
	atual, err := local.Buscar[domain.OutroItem](ctx, s.armazem, domain.ColecaoOutrosItens, item.ID)
	if err != nil {
		return domain.OutroItem{}, err
	}
	item.RondaID = atual.RondaID
	item = AjustarFotos(item, s.limiteFotos)
	if err := s.gravar(ctx, domain.AcaoAtualizar, domain.EntidadeItem, item.ID, item); err != nil {
		return domain.OutroItem{}, err
	}
	return item, nil
}

func (s *Service) RemoverItem(ctx context.Context, id string) error {
	return s.removerFilho(ctx, domain.EntidadeItem, id)
}

// EnviarArquivo sobe o binário para o storage remoto e devolve a URL pública.
// Exige conectividade; offline o cliente guarda a imagem embutida no registro.
func (s *Service) EnviarArquivo(ctx context.Context, rondaID, nome, contentType string, conteudo []byte) (string, error) {
	if s.arquivos == nil {
		return "", ErrSemArmazenamento
	}
	if len(conteudo) == 0 {
		return "", fmt.Errorf("%w: arquivo vazio", ErrRegistroInvalido)
	}
	caminho := path.Join(rondaID, s.ids.New()+"-"+path.Base(nome))
	url, err := s.arquivos.Enviar(ctx, caminho, contentType, conteudo)
	if err != nil {
		return "", fmt.Errorf("rondas: enviar arquivo %s: %w", caminho, err)
	}
	return url, nil
}

func (s *Service) removerFilho(ctx context.Context, entidade domain.EntidadeSync, id string) error {
	colecao := entidade.Colecao()
	if _, err := s.armazem.PorID(ctx, colecao, id); err != nil {
		return err
	}
	if err := s.armazem.Remover(ctx, colecao, id); err != nil {
		return err
	}

	if domain.IDProvisorio(id) {
		if _, err := s.armazem.DescartarPendentes(ctx, id); err != nil {
			return err
		}
		s.avisar(ctx)
		return nil
	}

	if err := s.enfileirar(ctx, domain.AcaoExcluir, entidade, id, map[string]string{"id": id}); err != nil {
		return err
	}
	s.avisar(ctx)
	return nil
}

func (s *Service) exigirRonda(ctx context.Context, rondaID string) error {
	if rondaID == "" {
		return fmt.Errorf("%w: ronda nao informada", ErrRegistroInvalido)
	}
	_, err := s.armazem.PorID(ctx, domain.ColecaoRondas, rondaID)
	return err
}

// gravar aplica a escrita otimista no cache e enfileira a mesma mutação.
func (s *Service) gravar(ctx context.Context, acao domain.Acao, entidade domain.EntidadeSync, id string, v any) error {
	if err := s.armazem.Salvar(ctx, entidade.Colecao(), v); err != nil {
		return err
	}
	if err := s.enfileirar(ctx, acao, entidade, id, v); err != nil {
		return err
	}
	s.avisar(ctx)
	return nil
}

func (s *Service) enfileirar(ctx context.Context, acao domain.Acao, entidade domain.EntidadeSync, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rondas: serializar %s: %w", entidade, err)
	}
	_, err = s.armazem.Enfileirar(ctx, domain.Operacao{
		Acao:       acao,
		Entidade:   entidade,
		EntidadeID: id,
		Payload:    payload,
	})
	return err
}

func (s *Service) avisar(ctx context.Context) {
	if s.observador != nil {
		s.observador.PendentesAlterados(ctx)
	}
}

func validarStatusArea(status domain.StatusArea) error {
	switch status {
	case domain.AreaAtiva, domain.AreaEmManutencao, domain.AreaAtencao, domain.AreaForaDeServico:
		return nil
	default:
		return fmt.Errorf("%w: status de area desconhecido %q", ErrRegistroInvalido, status)
	}
}

func colecoesFilhas() []domain.Colecao {
	return []domain.Colecao{domain.ColecaoAreasTecnicas, domain.ColecaoFotosRonda, domain.ColecaoOutrosItens}
}
