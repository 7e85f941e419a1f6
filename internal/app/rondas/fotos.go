package rondas

import "github.com/marcelojr/ronda-kanban/internal/domain"

// AjustarFotos descarta fotos do fim da lista até o total de bytes caber em limite e
// espelha a primeira foto no campo legado. Aplicar de novo sobre o resultado não muda nada.
// limite <= 0 desliga o corte.
func AjustarFotos(item domain.OutroItem, limite int) domain.OutroItem {
	fotos := make([]string, 0, len(item.Fotos))
	for _, f := range item.Fotos {
		if f != "" {
			fotos = append(fotos, f)
		}
	}
	if len(fotos) == 0 && item.Foto != "" {
		fotos = append(fotos, item.Foto)
	}

	if limite > 0 {
		total := 0
		for _, f := range fotos {
			total += len(f)
		}
		for len(fotos) > 0 && total > limite {
			total -= len(fotos[len(fotos)-1])
			fotos = fotos[:len(fotos)-1]
		}
	}

	if len(fotos) == 0 {
		item.Fotos = nil
		item.Foto = ""
		return item
	}
	item.Fotos = fotos
	item.Foto = fotos[0]
	return item
}
