package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"github.com/jroahs/Ring-Wing-sub004/internal/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

type actorKey struct{}

// withActor extracts the actor identity supplied by the auth collaborator.
// Requests without claims act as anonymous staff-less callers.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domorder.Actor{
			ID:   r.Header.Get(headerActorID),
			Role: r.Header.Get(headerActorRole),
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) domorder.Actor {
	if a, ok := ctx.Value(actorKey{}).(domorder.Actor); ok {
		return a
	}
	return domorder.Actor{}
}

// withTrace creates a server span for the request using OTel and W3C
// propagation.
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("ringwing.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctxWithSpan, span := tracer.Start(parentCtx,
			r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withObservability injects a request-scoped logger and records access logs
// and RED metrics after the handler completes.
func withObservability(base *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			logger := base.With(
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx := logging.ContextWithLogger(r.Context(), logger)

			next.ServeHTTP(lrw, r.WithContext(ctx))

			route := routePattern(r, ctx)
			logger.Info("http_access",
				zap.String("route", route),
				zap.Int("status", lrw.status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
			if m != nil {
				m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(lrw.status)).Inc()
				m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			}
		})
	}
}

// routePattern prefers the chi route template for low-cardinality labels.
func routePattern(r *http.Request, ctx context.Context) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
