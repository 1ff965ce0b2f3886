package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/infra/metrics"
)

// recorder captures the status and, when keep is set, a copy of the body.
type recorder struct {
	http.ResponseWriter
	status int
	wrote  bool
	keep   bool
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wrote = true
	if r.keep {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// instrument counts requests by route template, not raw path.
func instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			route := "unknown"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			m.HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Directory resolves a user id into a caller.
type Directory interface {
	Identify(ctx context.Context, userID int64) (users.Caller, error)
}

// identify takes the role from the users table instead of X-User-Role.
// Unknown or deactivated users end up as a zero caller.
func identify(dir Directory, log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var c users.Caller
			if id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64); err == nil && id > 0 {
				resolved, err := dir.Identify(r.Context(), id)
				switch {
				case err == nil:
					c = resolved
				case errors.Is(err, errs.ErrAccessDenied):
					log.Debug("caller rejected", "user_id", id, "err", err)
				default:
					writeError(w, log, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, c)))
		})
	}
}
