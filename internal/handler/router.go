package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edupro/internal/live"
	"edupro/internal/middleware"
	"edupro/internal/realtime"
	"edupro/pkg/logging"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Users         UserService
	Assessments   AssessmentService
	Chat          ChatService
	Authenticator middleware.Authenticator
	Hub           *realtime.Hub
	Inbox         live.InboxConfig
	Database      Pinger
	Logger        *logging.Logger
	BodyLimit     int64
}

func NewRouter(cfg RouterConfig) chi.Router {
	authMiddleware := middleware.NewAuthMiddleware(cfg.Authenticator)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger))
	r.Use(middleware.NewMetricsMiddleware())
	if cfg.BodyLimit > 0 {
		r.Use(middleware.NewBodyLimitMiddleware(cfg.BodyLimit))
	}

	r.Get("/health", healthHandler(cfg.Database))
	r.Handle("/metrics", promhttp.Handler())

	NewUserHandler(cfg.Users).RegisterRoutes(r, authMiddleware)
	NewAssessmentHandler(cfg.Assessments).RegisterRoutes(r, authMiddleware)
	NewChatHandler(cfg.Chat).RegisterRoutes(r, authMiddleware)
	NewLiveHandler(cfg.Chat, cfg.Hub, cfg.Inbox).RegisterRoutes(r, authMiddleware)

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
