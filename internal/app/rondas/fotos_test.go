package rondas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcelojr/ronda-kanban/internal/domain"
)

func TestAjustarFotos_QuandoExcedeLimite_DeveTruncarDeFormaIdempotente(t *testing.T) {
	// Arrange
	grande := strings.Repeat("x", 400)
	item := domain.OutroItem{ID: "i1", Fotos: []string{grande, grande, grande, grande}}

	// Act
	primeiro := AjustarFotos(item, 1000)
	segundo := AjustarFotos(primeiro, 1000)

	// Assert
	assert.Len(t, primeiro.Fotos, 2)
	assert.Less(t, len(primeiro.Fotos), len(item.Fotos))
	assert.Equal(t, grande, primeiro.Foto)
	assert.Equal(t, primeiro, segundo)
	assert.Len(t, item.Fotos, 4, "a entrada não pode ser alterada")
}

func TestAjustarFotos_QuandoDentroDoLimite_NaoDeveAlterar(t *testing.T) {
	// Arrange
	item := domain.OutroItem{Fotos: []string{"a", "b"}, Foto: "a"}

	// Act
	ajustado := AjustarFotos(item, 100)

	// Assert
	assert.Equal(t, item, ajustado)
}

func TestAjustarFotos_QuandoUnicaFotoExcede_DeveEsvaziar(t *testing.T) {
	// Act
	ajustado := AjustarFotos(domain.OutroItem{Fotos: []string{"abcdef"}, Foto: "abcdef"}, 3)

	// Assert
	assert.Nil(t, ajustado.Fotos)
	assert.Empty(t, ajustado.Foto)
}

func TestAjustarFotos_QuandoSoCampoLegado_DevePromoverParaLista(t *testing.T) {
	// Act
	ajustado := AjustarFotos(domain.OutroItem{Foto: "legado"}, 0)

	// Assert
	assert.Equal(t, []string{"legado"}, ajustado.Fotos)
	assert.Equal(t, "legado", ajustado.Foto)
}

func TestAjustarFotos_DeveIgnorarEntradasVaziasEEspelharPrimeira(t *testing.T) {
	// Act
	ajustado := AjustarFotos(domain.OutroItem{Fotos: []string{"", "b", "c"}, Foto: "antiga"}, 0)

	// Assert
	assert.Equal(t, []string{"b", "c"}, ajustado.Fotos)
	assert.Equal(t, "b", ajustado.Foto)
}

func TestAjustarFotos_MesmaEntradaDeveGerarMesmaSaida(t *testing.T) {
	// Arrange
	item := domain.OutroItem{Fotos: []string{"aaaaa", "bb", "cccccc", "d"}}

	// Act / Assert
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"aaaaa", "bb"}, AjustarFotos(item, 8).Fotos)
	}
}
