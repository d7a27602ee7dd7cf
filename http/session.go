package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

// Session is the slice of the app session the HTTP surface drives.
type Session interface {
	Snapshot() store.Snapshot
	Fetch(ctx context.Context) error
	Refresh(ctx context.Context) error
	TapRow(key string) (selection.State, error)
	Dismiss() selection.State
	SelectAnnotation(ctx context.Context) (<-chan struct{}, error)
	DeselectAnnotation()
	CalloutThumbnail(ctx context.Context) mapview.Thumbnail
	Image(ctx context.Context, url string) imagecache.Image
	ImageStats() imagecache.Stats
}

func writeError(w http.ResponseWriter, req *http.Request, status int, code string, err error) {
	body := map[string]any{"error": code}
	if err != nil {
		body["detail"] = err.Error()
	}
	render.Status(req, status)
	render.JSON(w, req, body)
}
