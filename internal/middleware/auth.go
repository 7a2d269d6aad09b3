package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"edupro/internal/errdefs"
	"edupro/pkg/ctxdata"
	"edupro/pkg/logging"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ctxdata.Principal, error)
}

// NewAuthMiddleware resolves the bearer token into a principal on the
// request context. Browsers cannot set headers on websocket handshakes, so
// the token is also accepted from the access_token query parameter.
func NewAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx, nil)

			token := bearerToken(r)
			if token == "" {
				logger.Info(ctx, "no authorization header", zap.String("path", r.URL.Path))
				unauthorized(w)
				return
			}

			principal, err := auth.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, errdefs.ErrAuthentication) {
					logger.Info(ctx, "authentication rejected", zap.String("path", r.URL.Path), zap.Error(err))
					unauthorized(w)
					return
				}
				logger.Error(ctx, "authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Error(err),
				)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxdata.WithPrincipal(ctx, *principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	resp, _ := json.Marshal(map[string]string{"error": "unauthorized"})
	w.Write(resp)
}
