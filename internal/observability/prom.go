package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// account snapshot store
	StoreSaveDuration *prometheus.HistogramVec
	StoreErrorsTotal  *prometheus.CounterVec

	// auth outcomes by route, e.g. login=invalid_credentials
	AuthResults *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskflow",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskflow",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// bcrypt at cost 10 sits around 50-100ms
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskflow",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		StoreSaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskflow",
				Subsystem: "store",
				Name:      "save_duration_seconds",
				Help:      "Account snapshot rewrite latency by op and status.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"op", "status"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskflow",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Account snapshot write failures by op and class.",
			},
			[]string{"op", "class"},
		),
		AuthResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskflow",
				Subsystem: "auth",
				Name:      "results_total",
				Help:      "Register, login and token check outcomes.",
			},
			[]string{"action", "result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.StoreSaveDuration, p.StoreErrorsTotal, p.AuthResults)

	return p
}

// RegisterAccountsGauge exposes the live account count.
func (p *Prom) RegisterAccountsGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "taskflow",
			Name:      "accounts",
			Help:      "Accounts currently in the table.",
		},
		func() float64 { return float64(count()) },
	))
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)

		if action, ok := authActions[method+" "+route]; ok {
			p.AuthResults.WithLabelValues(action, authResult(ctx.Writer.Status())).Inc()
		}
	}
}

var authActions = map[string]string{
	"POST /auth/register": "register",
	"POST /auth/login":    "login",
	"GET /users/me":       "me",
}

func authResult(status int) string {
	switch {
	case status < 300:
		return "ok"
	case status == 400:
		return "invalid_request"
	case status == 401:
		return "unauthorized"
	case status == 404:
		return "not_found"
	case status == 409:
		return "conflict"
	default:
		return "error"
	}
}
