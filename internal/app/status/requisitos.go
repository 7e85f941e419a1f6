package status

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

//go:embed requisitos.yaml
var requisitosPadrao []byte

// Requisitos mapeia cada categoria aos subitens obrigatórios do seu checklist.
type Requisitos map[domain.CategoriaKanban][]string

type arquivoRequisitos struct {
	Categorias map[string][]string `yaml:"categorias"`
}

// CarregarRequisitos lê a configuração de um arquivo; caminho vazio usa a versão embutida.
func CarregarRequisitos(path string) (Requisitos, error) {
	if path == "" {
		return ParseRequisitos(requisitosPadrao)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("status: ler requisitos %s: %w", path, err)
	}
	return ParseRequisitos(data)
}

func RequisitosPadrao() Requisitos {
	r, err := ParseRequisitos(requisitosPadrao)
	if err != nil {
		panic(fmt.Sprintf("status: requisitos embutidos invalidos: %v", err))
	}
	return r
}

func ParseRequisitos(data []byte) (Requisitos, error) {
	var arquivo arquivoRequisitos
	if err := yaml.Unmarshal(data, &arquivo); err != nil {
		return nil, fmt.Errorf("status: yaml de requisitos: %w", err)
	}

	conhecidas := make(map[domain.CategoriaKanban]bool)
	for _, c := range domain.CategoriasKanban() {
		conhecidas[c] = true
	}

	requisitos := make(Requisitos, len(arquivo.Categorias))
	for nome, campos := range arquivo.Categorias {
		categoria := domain.CategoriaKanban(nome)
		if !conhecidas[categoria] {
			return nil, fmt.Errorf("status: categoria desconhecida %q", nome)
		}
		vistos := make(map[string]bool, len(campos))
		for _, campo := range campos {
			if campo == "" || vistos[campo] {
				return nil, fmt.Errorf("status: campo vazio ou repetido em %s", nome)
			}
			vistos[campo] = true
		}
		requisitos[categoria] = append([]string(nil), campos...)
	}
	return requisitos, nil
}
