package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	httpapi "github.com/alexbeattie/cautious-fishstick-only/http"
	httpv1 "github.com/alexbeattie/cautious-fishstick-only/http/v1"
	"github.com/alexbeattie/cautious-fishstick-only/internal/app"
	"github.com/alexbeattie/cautious-fishstick-only/internal/config"
	"github.com/alexbeattie/cautious-fishstick-only/internal/logger"
)

func BuildRouter(sess *app.Session, log *zap.Logger, cfg config.HTTPConfig) http.Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(log.Named("http")))
	r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow)) // protect upstream quota
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"ok":true}`)) })
	r.Method(http.MethodGet, "/metrics", sess.Metrics().Handler())

	httpapi.RegisterFeed(r, httpapi.FeedDeps{Session: sess})
	httpapi.RegisterSelection(r, httpapi.SelectionDeps{Session: sess})
	httpapi.RegisterMap(r, httpapi.MapDeps{Session: sess})
	httpapi.RegisterImages(r, httpapi.ImagesDeps{Session: sess})

	// v1 snapshot stream for renderers
	httpv1.RegisterStream(r, httpv1.StreamDeps{
		Subscribe: sess.Subscribe,
		Events:    sess.Events,
		Log:       log.Named("stream"),
	})

	return r
}
