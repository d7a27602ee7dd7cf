package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
)

type ImagesDeps struct {
	Session Session
}

func RegisterImages(r chi.Router, d ImagesDeps) {
	r.Get("/images", func(w http.ResponseWriter, req *http.Request) {
		u := req.URL.Query().Get("url")
		if u == "" {
			writeError(w, req, http.StatusBadRequest, "url_required", nil)
			return
		}
		img := d.Session.Image(req.Context(), u)
		if img.Placeholder {
			if len(img.Data) > 0 {
				w.Header().Set("x-placeholder", imagecache.PlaceholderID)
				writeImage(w, http.DetectContentType(img.Data), img.Data)
				return
			}
			render.Status(req, http.StatusNotFound)
			render.JSON(w, req, map[string]any{"error": "image_unavailable", "placeholder_id": imagecache.PlaceholderID})
			return
		}
		writeImage(w, img.ContentType, img.Data)
	})

	r.Get("/images/stats", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true, "stats": d.Session.ImageStats()})
	})
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("content-type", contentType)
	w.Header().Set("content-length", strconv.Itoa(len(data)))
	w.Header().Set("cache-control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
