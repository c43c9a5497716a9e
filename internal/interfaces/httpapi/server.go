package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
}

func NewRouter(handler *Handler, verifier TokenVerifier, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled)
	registerPublicRoutes(mux, handler)
	registerAuthorizedRoutes(mux, handler, verifier)
	registerInternalRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, RequestMetrics(mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
