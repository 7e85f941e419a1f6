// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/storage/local"
)

// RunLocal versiona o schema do armazém SQLite do dispositivo.
func RunLocal(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202501100001_armazem_local",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(local.Modelos()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("fila_sincronizacao", "indices_locais", "registros_locais")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar schema local: %w", err)
	}
	return nil
}

// RunRemote versiona as tabelas do backend quando operamos direto no Postgres.
func RunRemote(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202501100001_schema_rondas",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Contrato{},
					&domain.Ronda{},
					&domain.AreaTecnica{},
					&domain.FotoRonda{},
					&domain.OutroItem{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("outros_itens_corrigidos", "fotos_ronda", "areas_tecnicas", "rondas", "contratos")
			},
		},
		{
			ID: "202501150001_laudos_agenda_kanban",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Laudo{}, &domain.Agenda{}, &domain.KanbanCard{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("kanban_cards", "agenda", "laudos")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar schema remoto: %w", err)
	}
	return nil
}
