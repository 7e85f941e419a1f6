// Pacote health expõe o readiness dos binários. O armazém local e o Redis são obrigatórios;
// o backend remoto só muda o corpo da resposta, porque o app segue funcionando offline.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sonda verifica uma dependência opcional; nil significa disponível.
type Sonda func(ctx context.Context) error

type Checker struct {
	db     *sql.DB
	redis  *redis.Client
	remoto Sonda
}

func NewChecker(db *sql.DB, redis *redis.Client, remoto Sonda) *Checker {
	return &Checker{db: db, redis: redis, remoto: remoto}
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if c.db != nil {
			if err := c.db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		if c.redis != nil {
			if err := c.redis.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		corpo := "ok"
		if c.remoto != nil {
			if err := c.remoto(ctx); err != nil {
				corpo = "ok offline"
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(corpo))
	}
}
