package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/alexbeattie/cautious-fishstick-only/internal/canon"
	"github.com/alexbeattie/cautious-fishstick-only/internal/feed"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
)

// FeedRow is what a feed row renders.
type FeedRow struct {
	Key          string        `json:"key"`
	Title        string        `json:"title"`
	Price        string        `json:"price,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Bathrooms    *int          `json:"bathrooms,omitempty"`
	BuildingArea *float64      `json:"building_area,omitempty"`
	Status       string        `json:"status"`
	StatusStyle  listing.Style `json:"status_style"`
	Thumbnail    string        `json:"thumbnail,omitempty"`
	Mappable     bool          `json:"mappable"`
}

func toRows(ls []listing.Listing) []FeedRow {
	rows := make([]FeedRow, 0, len(ls))
	for _, l := range ls {
		rows = append(rows, FeedRow{
			Key:          l.Key,
			Title:        canon.Title(l.Address, l.City, l.State, l.PostalCode),
			Price:        mapview.FormatPrice(l.Price),
			Bedrooms:     l.Bedrooms,
			Bathrooms:    l.Bathrooms,
			BuildingArea: l.BuildingArea,
			Status:       l.Status.Label(),
			StatusStyle:  l.Status.Style(),
			Thumbnail:    l.FirstPhotoURL(),
			Mappable:     l.Mappable(),
		})
	}
	return rows
}

type FeedDeps struct {
	Session Session
	// RefreshWait bounds how long POST /feed/refresh waits for the result.
	RefreshWait time.Duration
}

func RegisterFeed(r chi.Router, d FeedDeps) {
	if d.RefreshWait <= 0 {
		d.RefreshWait = 30 * time.Second
	}

	r.Get("/feed", func(w http.ResponseWriter, req *http.Request) {
		renderFeed(w, req, d.Session)
	})

	r.Get("/feed/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		l, ok := listing.Find(d.Session.Snapshot().Feed.Listings, key)
		if !ok {
			writeError(w, req, http.StatusNotFound, "listing_not_found", nil)
			return
		}
		render.JSON(w, req, map[string]any{
			"ok":      true,
			"listing": l,
			"photos":  l.PhotoURLs(),
			"website": l.WebsiteURL(),
		})
	})

	r.Post("/feed/refresh", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), d.RefreshWait)
		defer cancel()
		err := d.Session.Refresh(ctx)
		switch {
		case err == nil:
			renderFeed(w, req, d.Session)
		case errors.Is(err, feed.ErrSuperseded):
			writeError(w, req, http.StatusConflict, "refresh_superseded", err)
		case errors.Is(err, listing.ErrDecode):
			writeError(w, req, http.StatusBadGateway, "source_decode_error", err)
		case errors.Is(err, listing.ErrNetwork):
			writeError(w, req, http.StatusBadGateway, "source_unreachable", err)
		default:
			writeError(w, req, http.StatusGatewayTimeout, "refresh_pending", err)
		}
	})
}

func renderFeed(w http.ResponseWriter, req *http.Request, s Session) {
	f := s.Snapshot().Feed
	render.JSON(w, req, map[string]any{
		"ok":         f.Err == nil,
		"count":      len(f.Listings),
		"loading":    f.Loading,
		"error":      f.Error,
		"retryable":  f.Retryable,
		"seq":        f.Applied,
		"updated_at": f.UpdatedAt,
		"rows":       toRows(f.Listings),
	})
}
