// Package metrics Prometheus-метрики сервиса: HTTP, база данных и бизнес-события бронирований
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
// Все методы безопасны для nil-получателя, чтобы сервисы могли работать с выключенными метриками
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	BookingsCreated    *prometheus.CounterVec
	BookingsCancelled  *prometheus.CounterVec
	SlotConflicts      *prometheus.CounterVec
	LockAcquisitions   *prometheus.CounterVec
	TierUpgrades       *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном регистре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики и регистрирует их в указанном регистре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	m := &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),

		DBConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database connection pool state",
		}, []string{"service", "state"}),

		BookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of committed bookings",
		}, []string{"service"}),

		BookingsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Total number of cancelled bookings",
		}, []string{"service"}),

		SlotConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		}, []string{"service", "stage"}),

		LockAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_lock_acquisitions_total",
			Help: "Slot lock acquisition attempts by result",
		}, []string{"service", "result"}),

		TierUpgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_tier_upgrades_total",
			Help: "Loyalty tier upgrades by new tier",
		}, []string{"service", "tier"}),

		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Failed best-effort side effects (email, events, rewards)",
		}, []string{"service", "kind"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBConnections,
		m.BookingsCreated,
		m.BookingsCancelled,
		m.SlotConflicts,
		m.LockAcquisitions,
		m.TierUpgrades,
		m.SideEffectFailures,
	)

	return m
}

// ServiceName возвращает имя сервиса, используемое в метках
func (m *Metrics) ServiceName() string {
	if m == nil {
		return ""
	}
	return m.serviceName
}

// ObserveHTTPRequest записывает результат HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, route).Observe(duration.Seconds())
}

// ObserveDBQuery записывает длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(m.serviceName, operation).Inc()
	}
}

// SetDBConnections обновляет состояние пула соединений
func (m *Metrics) SetDBConnections(state string, value int) {
	if m == nil {
		return
	}
	m.DBConnections.WithLabelValues(m.serviceName, state).Set(float64(value))
}

// BookingCreated увеличивает счетчик созданных бронирований
func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(m.serviceName).Inc()
}

// BookingCancelled увеличивает счетчик отмененных бронирований
func (m *Metrics) BookingCancelled() {
	if m == nil {
		return
	}
	m.BookingsCancelled.WithLabelValues(m.serviceName).Inc()
}

// SlotConflict фиксирует проигранную гонку за слот. stage: lock, capacity
func (m *Metrics) SlotConflict(stage string) {
	if m == nil {
		return
	}
	m.SlotConflicts.WithLabelValues(m.serviceName, stage).Inc()
}

// LockAcquired фиксирует попытку захвата блокировки. result: acquired, conflict, error
func (m *Metrics) LockAcquired(result string) {
	if m == nil {
		return
	}
	m.LockAcquisitions.WithLabelValues(m.serviceName, result).Inc()
}

// TierUpgraded фиксирует повышение уровня лояльности
func (m *Metrics) TierUpgraded(tier string) {
	if m == nil {
		return
	}
	m.TierUpgrades.WithLabelValues(m.serviceName, tier).Inc()
}

// SideEffectFailed фиксирует неудачный побочный эффект. kind: email, events, rewards, payment
func (m *Metrics) SideEffectFailed(kind string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(m.serviceName, kind).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
