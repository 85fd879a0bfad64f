package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})

	// Dominio
	loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"}) // result: ok|invalid_credentials|error

	tokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokens_issued_total",
		Help: "Tokens emitidos por tipo",
	}, []string{"type"}) // type: session|provisional

	tokenRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_rejects_total",
		Help: "Tokens rechazados en verificación, por causa",
	}, []string{"kind"})

	directorySyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_sync_total",
		Help: "Llamadas de sincronización al directorio por resultado",
	}, []string{"op", "result"}) // op: create|delete|rollback; result: ok|error

	reconciliationWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_warnings_total",
		Help: "Divergencias cuenta/directorio que requieren reconciliación manual",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		httpInflight,
		loginsTotal,
		tokensIssuedTotal,
		tokenRejectsTotal,
		directorySyncTotal,
		reconciliationWarnings,
	}
}

// Handler registra los collectors (una sola vez) y devuelve el handler
// para /metrics. Usamos el registerer global por compatibilidad.
func Handler() (http.Handler, error) {
	registerOnce.Do(func() {
		for _, c := range collectors() {
			if err := prometheus.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}
	return promhttp.Handler(), nil
}

// ObserveHTTP registra una request terminada. El path debe venir ya
// normalizado (ruta con placeholders, no la URL cruda) para no explotar
// la cardinalidad.
func ObserveHTTP(method, path string, status int, dur time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}

// InflightAdd ajusta el gauge de requests en vuelo (+1 al entrar, -1 al salir).
func InflightAdd(method, path string, delta float64) {
	httpInflight.WithLabelValues(method, path).Add(delta)
}

func IncLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

func IncTokenIssued(typ string) {
	tokensIssuedTotal.WithLabelValues(typ).Inc()
}

func IncTokenReject(kind string) {
	tokenRejectsTotal.WithLabelValues(kind).Inc()
}

func IncDirectorySync(op, result string) {
	directorySyncTotal.WithLabelValues(op, result).Inc()
}

func IncReconciliationWarning() {
	reconciliationWarnings.Inc()
}
