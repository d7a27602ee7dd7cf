// Package v1 serves the versioned streaming API.
package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/events"
	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

type StreamDeps struct {
	Subscribe func() (<-chan store.Snapshot, func())
	Events    func(buffer int) (<-chan events.Event, func())
	Log       *zap.Logger
	// Heartbeat keeps idle connections open through proxies.
	Heartbeat time.Duration
}

type eventPayload struct {
	Kind       events.Kind `json:"kind"`
	Seq        uint64      `json:"seq"`
	ListingKey string      `json:"listing_key,omitempty"`
	Count      int         `json:"count,omitempty"`
	Error      string      `json:"error,omitempty"`
	At         time.Time   `json:"at"`
}

// RegisterStream mounts GET /v1/state/stream, a server-sent event stream
// of session snapshots ("snapshot") and condition events ("condition").
func RegisterStream(r chi.Router, d StreamDeps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 15 * time.Second
	}
	r.Route("/v1/state", func(r chi.Router) {
		r.Get("/stream", func(w http.ResponseWriter, req *http.Request) {
			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}
			snaps, unsubscribe := d.Subscribe()
			defer unsubscribe()
			var evs <-chan events.Event
			if d.Events != nil {
				var cancel func()
				evs, cancel = d.Events(64)
				defer cancel()
			}

			w.Header().Set("content-type", "text/event-stream")
			w.Header().Set("cache-control", "no-cache")
			w.Header().Set("connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			flusher.Flush()

			heartbeat := time.NewTicker(d.Heartbeat)
			defer heartbeat.Stop()
			for {
				select {
				case <-req.Context().Done():
					return
				case <-heartbeat.C:
					if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
						return
					}
				case snap, ok := <-snaps:
					if !ok {
						return
					}
					if err := writeEvent(w, "snapshot", snap.Version, snap); err != nil {
						d.Log.Debug("stream write", zap.Error(err))
						return
					}
				case evt, ok := <-evs:
					if !ok {
						evs = nil
						continue
					}
					p := eventPayload{Kind: evt.Kind, Seq: evt.Seq, ListingKey: evt.ListingKey, Count: evt.Count, At: evt.At}
					if evt.Err != nil {
						p.Error = evt.Err.Error()
					}
					if err := writeEvent(w, "condition", 0, p); err != nil {
						return
					}
				}
				flusher.Flush()
			}
		})
	})
}

func writeEvent(w http.ResponseWriter, name string, id uint64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}
