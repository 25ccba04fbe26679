package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/viant/homeservice/metrics"
	"github.com/viant/homeservice/tracing"
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// observe records metrics, a server span and a log line per request.
func observe(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			endpoint := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if template, err := route.GetPathTemplate(); err == nil {
					endpoint = template
				}
			}
			ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+endpoint, tracing.KindServer)
			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			span.SetStatusFromHTTPCode(recorder.statusCode)
			span.End()
			duration := time.Since(started)
			metrics.RecordHTTPRequest(r.Method, endpoint, recorder.statusCode, duration.Seconds())
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", recorder.statusCode, "durationMs", duration.Milliseconds())
		})
	}
}

// recovery converts handler panics to 500 responses.
func recovery(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					writeJSON(w, http.StatusInternalServerError, &Response{Error: "internal server error", Code: CodeInternal})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
