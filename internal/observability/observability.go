package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// Metrics are the Prometheus series the encoder and solver driver update.
type Metrics struct {
	ConstraintVariables        prometheus.Gauge
	ConstraintClauses          prometheus.Gauge
	SolveDuration              prometheus.Observer
	WorldsEnumeratedTotal      prometheus.Counter
	EncoderContradictionsTotal prometheus.Counter
}

// NewMetrics registers the solver's series on reg, or on the default
// registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}
	return &Metrics{
		ConstraintVariables: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "botc_constraint_variables",
			Help: "Number of distinct boolean variables in the compiled model",
		}),
		ConstraintClauses: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "botc_constraint_clauses",
			Help: "Number of distinct clauses in the compiled model",
		}),
		SolveDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "botc_solve_duration_ms",
			Help:    "Wall-clock time spent enumerating worlds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		WorldsEnumeratedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "botc_worlds_enumerated_total",
			Help: "Total worlds returned across all solves",
		}),
		EncoderContradictionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "botc_encoder_contradictions_total",
			Help: "Number of explicit contradiction clauses added by the encoder",
		}),
	}
}

func SetupTracerProvider(ctx context.Context, serviceName string, stdout bool, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	var exporter *stdouttrace.Exporter
	var err error
	if stdout {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	}

	rs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(rs),
	)
	if exporter != nil {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}
	otel.SetTracerProvider(tp)
	logger.Info("tracer initialized")
	return tp, nil
}

func SetupLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	return cfg.Build()
}

// ZapToSlog wraps a zap.Logger as slog.Logger.
func ZapToSlog(logger *zap.Logger) *slog.Logger {
	return slog.New(slogHandler{logger.Sugar()})
}

type slogHandler struct {
	sugar *zap.SugaredLogger
}

func (h slogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h slogHandler) Handle(ctx context.Context, r slog.Record) error {
	args := make([]interface{}, 0, r.NumAttrs()*2)
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, a.Key, a.Value.Any())
		return true
	})
	switch r.Level {
	case slog.LevelDebug:
		h.sugar.Debugw(r.Message, args...)
	case slog.LevelInfo:
		h.sugar.Infow(r.Message, args...)
	case slog.LevelWarn:
		h.sugar.Warnw(r.Message, args...)
	case slog.LevelError:
		h.sugar.Errorw(r.Message, args...)
	}
	return nil
}

func (h slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := make([]interface{}, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, a.Key, a.Value.Any())
	}
	return slogHandler{h.sugar.With(args...)}
}

func (h slogHandler) WithGroup(name string) slog.Handler {
	return h
}

// NoopLogger returns a logger that discards everything, for callers (and
// tests) that don't want observability wired in.
func NoopLogger() *zap.Logger { return zap.NewNop() }
