package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/envutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

// Metrics is exposed in Prometheus text format on /metrics. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec
	apiErrors   *CounterVec

	upstreamCalls   *CounterVec
	upstreamLatency *HistogramVec

	dbPool  *GaugeVec
	cacheUp *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, nil until Init ran with metrics enabled.
func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
	})
	return instance
}

// New builds an unregistered set; tests use it directly.
func New() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5}
	return &Metrics{
		apiRequests: NewCounterVec("edlm_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("edlm_api_request_duration_seconds", "API request latency by method/route.", []string{"method", "route"}, latency),
		apiInflight: NewGaugeVec("edlm_api_inflight_requests", "In-flight API requests.", nil),
		apiErrors:   NewCounterVec("edlm_api_errors_total", "Failed API requests by resource and error code.", []string{"resource", "code"}),

		upstreamCalls:   NewCounterVec("edlm_upstream_calls_total", "Outbound calls to ECCR, XDS and ELRR by outcome.", []string{"service", "op", "outcome"}),
		upstreamLatency: NewHistogramVec("edlm_upstream_call_duration_seconds", "Outbound call latency.", []string{"service", "op"}, latency),

		dbPool:  NewGaugeVec("edlm_db_pool", "database/sql pool statistics.", []string{"stat"}),
		cacheUp: NewGaugeVec("edlm_person_cache_up", "1 when the person cache answered the last ping.", nil),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.upstreamCalls, m.upstreamLatency,
		m.dbPool, m.cacheUp,
	} {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

// ObserveAPIError counts a failed request by resource ("learning-plan-goals")
// and error code ("upstream" for a failed ELRR sync).
func (m *Metrics) ObserveAPIError(resource, code string) {
	if m == nil {
		return
	}
	m.apiErrors.Inc(resource, code)
}

func (m *Metrics) APIErrors(resource, code string) float64 {
	if m == nil {
		return 0
	}
	return m.apiErrors.Value(resource, code)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

// ObserveUpstream records one outbound call. outcome is the status class
// ("2xx", "4xx") or the error kind when no response arrived.
func (m *Metrics) ObserveUpstream(service, op, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCalls.Inc(service, op, outcome)
	m.upstreamLatency.Observe(dur.Seconds(), service, op)
}

// UpstreamCalls reads the counter; used by tests and the health report.
func (m *Metrics) UpstreamCalls(service, op, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.upstreamCalls.Value(service, op, outcome)
}

func (m *Metrics) RecordDBStats(db *gorm.DB) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	stats := sqlDB.Stats()
	m.dbPool.Set(float64(stats.OpenConnections), "open_connections")
	m.dbPool.Set(float64(stats.InUse), "in_use")
	m.dbPool.Set(float64(stats.Idle), "idle")
	m.dbPool.Set(float64(stats.WaitCount), "wait_count")
	m.dbPool.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	m.dbPool.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	return nil
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// StartCollectors samples the database pool and, when rdb is set, the
// person cache until ctx is done.
func (m *Metrics) StartCollectors(ctx context.Context, log *logger.Logger, db *gorm.DB, rdb *goredis.Client) {
	if m == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RecordDBStats(db); err != nil {
					log.Warn("metrics: db stats unavailable", "error", err)
				}
				if rdb == nil {
					continue
				}
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.cacheUp.Set(0)
					log.Warn("metrics: person cache ping failed", "error", err)
					continue
				}
				m.cacheUp.Set(1)
			}
		}
	}()
}
