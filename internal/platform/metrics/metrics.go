package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncOperacoesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ronda_sync_operacoes_total",
		Help: "Total de entradas da fila de sincronizacao processadas, por tipo e resultado",
	}, []string{"tipo", "resultado"})

	syncDrenagemDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ronda_sync_drenagem_duration_seconds",
		Help:    "Tempo de uma passada completa de drenagem da fila",
		Buckets: prometheus.DefBuckets,
	})

	syncPendentes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ronda_sync_pendentes",
		Help: "Entradas da fila ainda nao confirmadas pelo backend",
	})

	remoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ronda_remote_requests_total",
		Help: "Chamadas ao backend remoto por operacao e classe de resultado",
	}, []string{"operacao", "resultado"})

	alertasLaudoTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ronda_alertas_laudo_total",
		Help: "Alertas de laudos vencidos ou a vencer, por destino",
	}, []string{"resultado"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ronda_http_requests_total",
		Help: "Requisicoes recebidas pela API por rota e status",
	}, []string{"rota", "status"})
)

func ObserveSyncOperacao(tipo, resultado string) {
	syncOperacoesTotal.WithLabelValues(tipo, resultado).Inc()
}

func ObserveDrenagem(seconds float64) {
	syncDrenagemDuration.Observe(seconds)
}

func SetPendentes(total int64) {
	syncPendentes.Set(float64(total))
}

func ObserveRemote(operacao, resultado string) {
	remoteRequestsTotal.WithLabelValues(operacao, resultado).Inc()
}

func ObserveAlerta(resultado string) {
	alertasLaudoTotal.WithLabelValues(resultado).Inc()
}

func ObserveHTTP(rota, status string) {
	httpRequestsTotal.WithLabelValues(rota, status).Inc()
}
