// Worker assíncrono: recalcula o status dos laudos, publica o painel por contrato
// e consome a fila de alertas enviando os e-mails pelo webhook.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marcelojr/ronda-kanban/internal/app/laudos"
	"github.com/marcelojr/ronda-kanban/internal/app/worker"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/clock"
	"github.com/marcelojr/ronda-kanban/internal/platform/config"
	"github.com/marcelojr/ronda-kanban/internal/platform/email"
	"github.com/marcelojr/ronda-kanban/internal/platform/health"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
	"github.com/marcelojr/ronda-kanban/internal/platform/limitador"
	"github.com/marcelojr/ronda-kanban/internal/platform/logger"
	"github.com/marcelojr/ronda-kanban/internal/platform/migrations"
	"github.com/marcelojr/ronda-kanban/internal/platform/remote"
	"github.com/marcelojr/ronda-kanban/internal/platform/remote/supabase"
	postgresstorage "github.com/marcelojr/ronda-kanban/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/ronda-kanban/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	var (
		laudoRepo    domain.LaudoRepository
		contratoRepo domain.ContratoRepository
		ping         health.Sonda
		sqlDB        *sql.DB
	)
	if cfg.RemoteMode == config.RemotoPostgres {
		db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("falha ao conectar no postgres", "err", err)
		}
		sqlDB, err = db.DB()
		if err != nil {
			logger.Fatal("falha ao resgatar sql.DB", "err", err)
		}
		defer sqlDB.Close()

		if cfg.AutoMigrate {
			if err := migrations.RunRemote(db); err != nil {
				logger.Fatal("falha na migracao automatica", "err", err)
			}
		}
		laudoRepo = postgresstorage.NewLaudoRepository(db)
		contratoRepo = postgresstorage.NewContratoRepository(db)
	} else {
		cliente := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		politica := remote.PoliticaPadrao()
		politica.TimeoutBase = cfg.RemoteTimeout()
		politica.TimeoutMax = cfg.RemoteTimeoutMax()
		politica.Tentativas = cfg.RemoteRetries
		store := remote.NewStore(cliente, politica, logger.L())
		laudoRepo = remote.NewLaudoRepository(store)
		contratoRepo = remote.NewContratoRepository(store)
		ping = cliente.Ping
	}

	// Redis é obrigatório aqui: fila, painel e limite de alertas vivem nele.
	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	fila := redisstorage.NewFila(redisClient, cfg.NotificacaoFilaKey)
	servico := laudos.NewService(laudos.Dependencias{
		Repo:        laudoRepo,
		Contratos:   contratoRepo,
		Painel:      redisstorage.NewPainel(redisClient, cfg.PainelLaudosPrefix),
		Limite:      limitador.NewRedisLimiter(redisClient, cfg.AlertaLimitePorContrato, cfg.AlertaJanela(), cfg.AlertaLimitePrefix),
		Notificador: fila,
		Clock:       clock.NewSystemClock(),
		IDs:         ids.NewGenerator(),
		Logger:      logger.L(),
	})
	processor := worker.NewAlertaProcessor(email.NewWebhook(cfg.NotificacaoWebhookURL, cfg.RemoteTimeout()))
	checker := health.NewChecker(sqlDB, redisClient, ping)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.WorkerMetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/readyz", checker.ReadyHandler())
		server := &http.Server{Addr: cfg.WorkerMetricsAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		recalcular := func() {
			res, err := servico.Recalcular(gctx)
			if err != nil {
				logger.Error("erro ao recalcular laudos", "err", err)
				return
			}
			logger.Info("laudos recalculados",
				"total", res.Laudos,
				"atualizados", res.Atualizados,
				"alertas", res.AlertasEnviados,
				"segurados", res.AlertasSegurados,
				"erros", res.AlertasComErro,
			)
		}

		recalcular()
		ticker := time.NewTicker(cfg.LaudosRecalculo())
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				recalcular()
			}
		}
	})

	g.Go(func() error {
		logger.Info("worker iniciado, aguardando alertas")
		err := fila.ConsumirAlertas(gctx, func(ctx context.Context, alerta domain.AlertaLaudos) error {
			// Falha de envio não derruba o consumo; o próximo recálculo gera um novo alerta.
			if err := processor.Process(ctx, alerta); err != nil {
				logger.Error("erro ao processar alerta", "contrato", alerta.ContratoID, "err", err)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("worker finalizado com erro", "err", err)
	}
	logger.Info("worker finalizado")
}
