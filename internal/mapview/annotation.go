// Package mapview derives map pins from listings and drives directions
// requests for the selected pin.
package mapview

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alexbeattie/cautious-fishstick-only/internal/canon"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

var (
	// ErrUnmappable marks a listing without a coordinate. It is a normal
	// outcome: the map shows no pin.
	ErrUnmappable         = errors.New("listing has no coordinate")
	ErrRoutingUnavailable = errors.New("routing unavailable")
	ErrNoAnnotation       = errors.New("no annotation to route to")
	ErrUnknownListing     = errors.New("listing not in current feed")
)

// regionSpan is the width in degrees of the viewport around a pin.
const regionSpan = 0.01

type Annotation struct {
	ListingKey string    `json:"listing_key"`
	Coordinate orb.Point `json:"coordinate"` // [lng, lat]
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	Region     orb.Bound `json:"region"`
}

type Route struct {
	Path     orb.LineString `json:"path"`
	Bound    orb.Bound      `json:"bound"`
	Distance float64        `json:"distance_m"`
	Duration time.Duration  `json:"duration"`
}

// MapState is the map surface as seen by renderers.
type MapState struct {
	Target             string      `json:"target,omitempty"`
	Annotation         *Annotation `json:"annotation,omitempty"`
	Unmappable         bool        `json:"unmappable"`
	AnnotationSelected bool        `json:"annotation_selected"`
	Route              *Route      `json:"route,omitempty"`
	RoutePending       bool        `json:"route_pending"`
	RoutingUnavailable bool        `json:"routing_unavailable"`
	RoutingError       string      `json:"routing_error,omitempty"`
	RouteSeq           uint64      `json:"route_seq"`
}

// Cleared returns an empty map state. The route sequence keeps counting so
// completions of older requests are still rejected.
func (m MapState) Cleared() MapState {
	return MapState{RouteSeq: m.RouteSeq + 1}
}

var pricePrinter = message.NewPrinter(language.English)

// Annotate builds the pin for a listing. A listing without a coordinate
// yields ErrUnmappable; (0,0) is a real coordinate and is pinned.
func Annotate(l listing.Listing) (Annotation, error) {
	if l.Coordinate == nil {
		return Annotation{}, fmt.Errorf("%w: %s", ErrUnmappable, l.Key)
	}
	pt := *l.Coordinate
	half := regionSpan / 2
	return Annotation{
		ListingKey: l.Key,
		Coordinate: pt,
		Title:      canon.Title(l.Address, l.City, l.State, l.PostalCode),
		Subtitle:   FormatPrice(l.Price),
		Region: orb.Bound{
			Min: orb.Point{pt.Lon() - half, pt.Lat() - half},
			Max: orb.Point{pt.Lon() + half, pt.Lat() + half},
		},
	}, nil
}

// FormatPrice renders a dollar price with grouped thousands, "" when absent.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return pricePrinter.Sprintf("$%d", int64(math.Round(*p)))
}

// FormatArea renders a square-foot area with grouped thousands, "" when absent.
func FormatArea(a *float64) string {
	if a == nil {
		return ""
	}
	return pricePrinter.Sprintf("%d sqft", int64(math.Round(*a)))
}

// Show points the map at l. A different target starts from a cleared state
// so its route and pending request are dropped; the same target only
// refreshes the annotation.
func (m MapState) Show(l listing.Listing) MapState {
	if m.Target != l.Key {
		m = m.Cleared()
		m.Target = l.Key
	}
	ann, err := Annotate(l)
	m.Unmappable = err != nil
	if err != nil {
		m.Annotation = nil
		m.AnnotationSelected = false
		return m
	}
	m.Annotation = &ann
	return m
}

// Reconcile adjusts the map state to a newly published feed. A target that
// disappeared clears the map; a target that moved gets a fresh annotation and
// loses its route.
func (m MapState) Reconcile(find func(key string) (listing.Listing, bool)) MapState {
	if m.Target == "" {
		return m
	}
	l, ok := find(m.Target)
	if !ok {
		return m.Cleared()
	}
	ann, err := Annotate(l)
	switch {
	case err != nil:
		if m.Annotation == nil {
			return m
		}
		out := m.Cleared()
		out.Target, out.Unmappable = m.Target, true
		return out
	case m.Annotation == nil || m.Annotation.Coordinate != ann.Coordinate:
		out := m.Cleared()
		out.Target, out.Annotation = m.Target, &ann
		return out
	default:
		m.Annotation = &ann
		return m
	}
}
