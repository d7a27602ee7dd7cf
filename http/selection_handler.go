package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
)

type SelectionDeps struct {
	Session Session
}

func RegisterSelection(r chi.Router, d SelectionDeps) {
	r.Get("/selection", func(w http.ResponseWriter, req *http.Request) {
		renderSelection(w, req, d.Session.Snapshot().Selection)
	})

	r.Post("/listings/{key}/open", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		st, err := d.Session.TapRow(key)
		if err != nil {
			if errors.Is(err, mapview.ErrUnknownListing) {
				writeError(w, req, http.StatusNotFound, "listing_not_found", err)
				return
			}
			writeError(w, req, http.StatusInternalServerError, "open_failed", err)
			return
		}
		renderSelection(w, req, st)
	})

	r.Post("/selection/dismiss", func(w http.ResponseWriter, req *http.Request) {
		renderSelection(w, req, d.Session.Dismiss())
	})
}

func renderSelection(w http.ResponseWriter, req *http.Request, st selection.State) {
	render.JSON(w, req, map[string]any{
		"ok":             true,
		"selection":      st,
		"detail_visible": st.DetailVisible(),
	})
}
