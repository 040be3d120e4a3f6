package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/auth"
	"github.com/google/uuid"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	requestIDKey ctxKey = "requestID"
)

// UserIDFromContext returns the authenticated user set by requireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// accessLog tags the request with an ID and logs its outcome.
func accessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			rr := &responseRecorder{ResponseWriter: w}
			rr.Header().Set("X-Request-Id", requestID)

			next.ServeHTTP(rr, r.WithContext(ctx))

			logger.Info(ctx, "request complete",
				"http.req.id", requestID,
				"http.req.method", r.Method,
				"http.req.path", r.URL.Path,
				"http.resp.status", rr.status,
				"http.resp.bytes", rr.bytes,
				"http.resp.took_ms", time.Since(start).Milliseconds())
		})
	}
}

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// token's user ID in the request context.
func requireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			token, found := strings.CutPrefix(header, common.BearerPrefix)
			if !found || token == "" {
				fail(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				fail(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Identity.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func recoverPanics(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error(r.Context(), "handler panic", "panic", p, "path", r.URL.Path)
					fail(w, http.StatusInternalServerError, common.ErrorInternal.Error())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
