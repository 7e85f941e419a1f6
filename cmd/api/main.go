// Executável principal da API: abre o armazém local, conecta o backend remoto,
// sobe o coordenador de sincronização e serve a API HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/marcelojr/ronda-kanban/internal/app/httpapi"
	"github.com/marcelojr/ronda-kanban/internal/app/kanban"
	"github.com/marcelojr/ronda-kanban/internal/app/laudos"
	"github.com/marcelojr/ronda-kanban/internal/app/rondas"
	"github.com/marcelojr/ronda-kanban/internal/app/sincronizacao"
	"github.com/marcelojr/ronda-kanban/internal/app/status"
	"github.com/marcelojr/ronda-kanban/internal/domain"
	"github.com/marcelojr/ronda-kanban/internal/platform/clock"
	"github.com/marcelojr/ronda-kanban/internal/platform/conectividade"
	"github.com/marcelojr/ronda-kanban/internal/platform/config"
	"github.com/marcelojr/ronda-kanban/internal/platform/health"
	"github.com/marcelojr/ronda-kanban/internal/platform/ids"
	"github.com/marcelojr/ronda-kanban/internal/platform/limitador"
	"github.com/marcelojr/ronda-kanban/internal/platform/logger"
	"github.com/marcelojr/ronda-kanban/internal/platform/migrations"
	"github.com/marcelojr/ronda-kanban/internal/platform/remote"
	"github.com/marcelojr/ronda-kanban/internal/platform/remote/supabase"
	"github.com/marcelojr/ronda-kanban/internal/platform/storage/local"
	postgresstorage "github.com/marcelojr/ronda-kanban/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/ronda-kanban/internal/platform/storage/redis"
)

// backend reúne o que cada modo remoto oferece à composição.
type backend struct {
	base      domain.RemoteStore
	ping      func(ctx context.Context) error
	arquivos  domain.Arquivos
	kanban    domain.KanbanRepository
	laudos    domain.LaudoRepository
	contratos domain.ContratoRepository
	db        *gorm.DB
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	clk := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	localDB, err := local.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		logger.Fatal("falha ao abrir armazem local", "err", err, "path", cfg.LocalDBPath)
	}
	localSQL, err := localDB.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB local", "err", err)
	}
	defer localSQL.Close()

	if err := migrations.RunLocal(localDB); err != nil {
		logger.Fatal("falha na migracao do armazem local", "err", err)
	}
	armazem := local.New(localDB, clk, idGen)

	politica := remote.PoliticaPadrao()
	politica.TimeoutBase = cfg.RemoteTimeout()
	politica.TimeoutMax = cfg.RemoteTimeoutMax()
	politica.Tentativas = cfg.RemoteRetries

	remoto, err := conectarBackend(ctx, cfg, politica)
	if err != nil {
		logger.Fatal("falha ao preparar backend remoto", "err", err, "modo", cfg.RemoteMode)
	}
	if remoto.db != nil {
		if sqlDB, err := remoto.db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	store := remote.NewStore(remoto.base, politica, logger.L())

	// Redis é opcional na API: sem ele o app continua local-first, só perde trava, painel e alertas.
	var (
		redisClient *goredis.Client
		trava       domain.Trava
		painel      domain.PainelLaudos
		limite      domain.LimiteAlertas
		notificador domain.Notificador
		publicador  *redisstorage.StatusSync
	)
	if cfg.RedisAddr != "" {
		redisClient, err = redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis indisponivel, seguindo sem trava e sem alertas", "err", err)
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
		trava = redisstorage.NewTrava(redisClient, cfg.SyncLockKey)
		painel = redisstorage.NewPainel(redisClient, cfg.PainelLaudosPrefix)
		limite = limitador.NewRedisLimiter(redisClient, cfg.AlertaLimitePorContrato, cfg.AlertaJanela(), cfg.AlertaLimitePrefix)
		notificador = redisstorage.NewFila(redisClient, cfg.NotificacaoFilaKey)
		publicador = redisstorage.NewStatusSync(redisClient, cfg.SyncStatusKey)
	}

	monitor := conectividade.New(remoto.ping, cfg.ConectividadeInterval(), logger.L())
	coordenador := sincronizacao.NewCoordenador(armazem, store, monitor, clk, logger.L(), sincronizacao.Opcoes{
		Intervalo:     cfg.SyncInterval(),
		MaxTentativas: cfg.SyncMaxTentativas,
		Trava:         trava,
		ChaveTrava:    cfg.SyncLockKey,
	})
	if publicador != nil {
		cancelar := coordenador.AoMudarStatus(func(st domain.StatusSincronizacao) {
			if err := publicador.Publicar(context.WithoutCancel(ctx), st); err != nil {
				logger.Warn("falha ao publicar status da sincronizacao", "err", err)
			}
		})
		defer cancelar()
	}

	requisitos := status.RequisitosPadrao()
	if cfg.ChecklistRequisitosPath != "" {
		requisitos, err = status.CarregarRequisitos(cfg.ChecklistRequisitosPath)
		if err != nil {
			logger.Fatal("falha ao carregar requisitos do checklist", "err", err, "path", cfg.ChecklistRequisitosPath)
		}
	}

	rondasSvc := rondas.NewService(armazem, remoto.arquivos, coordenador, clk, idGen, cfg.FotosLimiteBytes)
	kanbanSvc := kanban.NewService(remoto.kanban, status.NewMotor(requisitos), clk, idGen)
	laudosSvc := laudos.NewService(laudos.Dependencias{
		Repo:        remoto.laudos,
		Contratos:   remoto.contratos,
		Painel:      painel,
		Limite:      limite,
		Notificador: notificador,
		Clock:       clk,
		IDs:         idGen,
		Logger:      logger.L(),
	})

	mux := http.NewServeMux()
	api := httpapi.New(httpapi.Servicos{
		Rondas:        rondasSvc,
		Sincronizador: coordenador,
		Kanban:        kanbanSvc,
		Laudos:        laudosSvc,
	}, logger.L())
	api.Register(mux)

	checker := health.NewChecker(localSQL, redisClient, remoto.ping)
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.HTTPAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)

	// o coordenador assina o monitor antes da primeira verificacao
	if err := coordenador.Iniciar(gctx); err != nil {
		logger.Fatal("falha ao iniciar sincronizacao", "err", err)
	}
	defer coordenador.Encerrar()

	g.Go(func() error {
		err := monitor.Executar(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "remoto", cfg.RemoteMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api finalizada com erro", "err", err)
		return
	}
	logger.Info("api finalizada")
}

// conectarBackend monta o adaptador remoto escolhido em REMOTE_MODE.
func conectarBackend(ctx context.Context, cfg config.Config, politica remote.Politica) (backend, error) {
	if cfg.RemoteMode == config.RemotoSupabase {
		cliente := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		// Repositórios do kanban e dos laudos falam direto com o backend, sem passar pela fila.
		store := remote.NewStore(cliente, politica, logger.L())
		return backend{
			base:      cliente,
			ping:      cliente.Ping,
			arquivos:  cliente,
			kanban:    remote.NewKanbanRepository(store),
			laudos:    remote.NewLaudoRepository(store),
			contratos: remote.NewContratoRepository(store),
		}, nil
	}

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return backend{}, err
	}
	if cfg.AutoMigrate {
		if err := migrations.RunRemote(db); err != nil {
			return backend{}, err
		}
	}
	store := postgresstorage.NewRemoteStore(db)
	return backend{
		base:      store,
		ping:      store.Ping,
		kanban:    postgresstorage.NewKanbanRepository(db),
		laudos:    postgresstorage.NewLaudoRepository(db),
		contratos: postgresstorage.NewContratoRepository(db),
		db:        db,
	}, nil
}
