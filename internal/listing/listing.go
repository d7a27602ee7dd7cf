package listing

import (
	"strings"

	"github.com/paulmach/orb"
)

// Key identifies a listing within one fetch result.
type Key = string

type MediaCategory string

const (
	CategoryPhoto    MediaCategory = "Photo"
	CategoryDocument MediaCategory = "Document"
)

// Media is one image or document asset owned by a Listing.
type Media struct {
	Key      string        `json:"key"`
	URL      string        `json:"url,omitempty"` // empty means absent
	Category MediaCategory `json:"category,omitempty"`
}

// Listing is an immutable property record. Pointer fields are optional;
// nil means the source did not provide a usable value.
type Listing struct {
	Key          Key        `json:"key"`
	Price        *float64   `json:"price,omitempty"`
	Bedrooms     *int       `json:"bedrooms,omitempty"`
	Bathrooms    *int       `json:"bathrooms,omitempty"`
	BuildingArea *float64   `json:"building_area,omitempty"`
	Status       Status     `json:"status,omitempty"`
	AgentName    string     `json:"agent_name,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
	Model        string     `json:"model,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	PostalCode   string     `json:"postal_code,omitempty"`
	Coordinate   *orb.Point `json:"coordinate,omitempty"` // [lng, lat]; nil means unmappable
	Media        []Media    `json:"media,omitempty"`

	Amenities         []string `json:"amenities,omitempty"`
	CommunityFeatures []string `json:"community_features,omitempty"`
	LotFeatures       []string `json:"lot_features,omitempty"`
	Disclosures       []string `json:"disclosures,omitempty"`
}

// Mappable reports whether the listing carries a coordinate.
func (l Listing) Mappable() bool { return l.Coordinate != nil }

// FirstPhotoURL returns the first carousel URL, skipping documents.
func (l Listing) FirstPhotoURL() string {
	for _, m := range l.Media {
		if m.URL != "" && m.Category != CategoryDocument {
			return m.URL
		}
	}
	return ""
}

// PhotoURLs lists carousel URLs in source order, skipping absent ones.
func (l Listing) PhotoURLs() []string {
	out := make([]string, 0, len(l.Media))
	for _, m := range l.Media {
		if m.URL == "" || m.Category == CategoryDocument {
			continue
		}
		out = append(out, m.URL)
	}
	return out
}

// WebsiteURL returns the link carried by a leading Document media item.
func (l Listing) WebsiteURL() string {
	if len(l.Media) == 0 {
		return ""
	}
	first := l.Media[0]
	if first.Category != CategoryDocument {
		return ""
	}
	return strings.TrimSpace(first.URL)
}

// Index maps keys to their position in the slice.
func Index(ls []Listing) map[Key]int {
	idx := make(map[Key]int, len(ls))
	for i, l := range ls {
		idx[l.Key] = i
	}
	return idx
}

// Find returns the listing with the given key.
func Find(ls []Listing, key Key) (Listing, bool) {
	for _, l := range ls {
		if l.Key == key {
			return l, true
		}
	}
	return Listing{}, false
}
