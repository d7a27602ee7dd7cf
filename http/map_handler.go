package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
)

type MapDeps struct {
	Session Session
	// RouteWait bounds how long ?wait=true blocks on a directions request.
	RouteWait time.Duration
}

func RegisterMap(r chi.Router, d MapDeps) {
	if d.RouteWait <= 0 {
		d.RouteWait = 20 * time.Second
	}

	r.Get("/map", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true, "map": d.Session.Snapshot().Map})
	})

	r.Post("/map/annotation/select", func(w http.ResponseWriter, req *http.Request) {
		done, err := d.Session.SelectAnnotation(req.Context())
		if err != nil {
			switch {
			case errors.Is(err, mapview.ErrUnmappable):
				writeError(w, req, http.StatusConflict, "listing_unmappable", err)
			case errors.Is(err, mapview.ErrNoAnnotation):
				writeError(w, req, http.StatusConflict, "no_annotation", err)
			default:
				writeError(w, req, http.StatusInternalServerError, "route_request_failed", err)
			}
			return
		}
		if !boolParam(req, "wait") {
			render.Status(req, http.StatusAccepted)
			render.JSON(w, req, map[string]any{"ok": true, "pending": true, "map": d.Session.Snapshot().Map})
			return
		}
		select {
		case <-done:
		case <-time.After(d.RouteWait):
		case <-req.Context().Done():
			return
		}
		m := d.Session.Snapshot().Map
		if m.RoutingUnavailable && !m.RoutePending {
			render.Status(req, http.StatusBadGateway)
		}
		render.JSON(w, req, map[string]any{"ok": m.Route != nil && !m.RoutingUnavailable, "map": m})
	})

	r.Post("/map/annotation/deselect", func(w http.ResponseWriter, req *http.Request) {
		d.Session.DeselectAnnotation()
		render.JSON(w, req, map[string]any{"ok": true, "map": d.Session.Snapshot().Map})
	})

	r.Get("/map/thumbnail", func(w http.ResponseWriter, req *http.Request) {
		th := d.Session.CalloutThumbnail(req.Context())
		if th.PlaceholderID != "" || len(th.Data) == 0 {
			render.JSON(w, req, map[string]any{"ok": false, "placeholder_id": th.PlaceholderID, "url": th.URL})
			return
		}
		writeImage(w, th.ContentType, th.Data)
	})
}
