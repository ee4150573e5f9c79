// Package metrics expone contadores Prometheus para HTTP y trabajos en segundo plano.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter cuenta las peticiones HTTP por ruta y status.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram duración de las peticiones en segundos.
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// JobCounter resultados de los trabajos: result = ok | error | skipped.
	JobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of background jobs processed",
		},
		[]string{"job", "result"},
	)

	// JobDurationHistogram duración de cada trabajo en segundos.
	JobDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of background jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	registerOnce sync.Once
)

// Register registra los colectores en el registry por defecto (idempotente).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDurationHistogram, JobCounter, JobDurationHistogram)
	})
}

// Middleware registra conteo y duración de cada petición. Usa la ruta declarada (no la URL)
// para no explotar la cardinalidad con IDs.
func Middleware(service string) fiber.Handler {
	Register()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)
		RequestCounter.WithLabelValues(service, c.Method(), path, statusStr).Inc()
		RequestDurationHistogram.WithLabelValues(service, c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveJob registra el resultado de un trabajo.
func ObserveJob(job string, start time.Time, err error) {
	Register()
	result := "ok"
	if err != nil {
		result = "error"
	}
	JobCounter.WithLabelValues(job, result).Inc()
	JobDurationHistogram.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

// Handler expone /metrics dentro de Fiber.
func Handler() fiber.Handler {
	Register()
	return adaptor.HTTPHandler(promhttp.Handler())
}
