package reso

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

// stringNumber accepts string or number JSON and stores as string
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// DecodeBatch maps a property payload to listings in source order.
// Records without a key, non-object records and repeated keys are dropped;
// every other field decodes to absent when it is missing or malformed.
func DecodeBatch(raw []byte) ([]listing.Listing, error) {
	var root envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrDecode, err)
	}
	if root.Value == nil {
		return nil, fmt.Errorf("%w: missing value array", listing.ErrDecode)
	}

	out := make([]listing.Listing, 0, len(root.Value))
	seen := make(map[string]struct{}, len(root.Value))
	for _, rec := range root.Value {
		l, ok := decodeRecord(rec)
		if !ok {
			continue
		}
		if _, dup := seen[l.Key]; dup {
			continue
		}
		seen[l.Key] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func decodeRecord(rec json.RawMessage) (listing.Listing, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil || fields == nil {
		return listing.Listing{}, false
	}
	key := strings.TrimSpace(optString(fields[fieldKey]))
	if key == "" {
		return listing.Listing{}, false
	}

	l := listing.Listing{
		Key:          key,
		Price:        optFloat(fields[fieldPrice]),
		Bedrooms:     optInt(fields[fieldBeds]),
		Bathrooms:    optInt(fields[fieldBaths]),
		BuildingArea: optFloat(fields[fieldArea]),
		Status:       listing.Status(optString(fields[fieldStatus])),
		AgentName:    optString(fields[fieldAgent]),
		Remarks:      optString(fields[fieldRemarks]),
		Model:        optString(fields[fieldModel]),
		Address:      optString(fields[fieldAddress]),
		City:         optString(fields[fieldCity]),
		State:        optString(fields[fieldState]),
		PostalCode:   optString(fields[fieldPostal]),
		Media:        mapMedia(fields[fieldMedia]),

		Amenities:         optStrings(fields[fieldAmenities]),
		CommunityFeatures: optStrings(fields[fieldCommunity]),
		LotFeatures:       optStrings(fields[fieldLotFeatures]),
		Disclosures:       optStrings(fields[fieldDisclosures]),
	}
	lat, lon := optFloat(fields[fieldLat]), optFloat(fields[fieldLon])
	if lat != nil && lon != nil && validLatLon(*lat, *lon) {
		l.Coordinate = &orb.Point{*lon, *lat}
	}
	return l, true
}

func optString(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var s stringNumber
	if err := json.Unmarshal(b, &s); err != nil {
		return ""
	}
	return string(s)
}

func optFloat(b json.RawMessage) *float64 {
	s := strings.TrimSpace(optString(b))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func optInt(b json.RawMessage) *int {
	f := optFloat(b)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// optStrings accepts an array of strings or a single comma separated string.
func optStrings(b json.RawMessage) []string {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s := strings.TrimSpace(optString(item)); s != "" {
				out = append(out, s)
			}
		}
		return nonEmptySlice(out)
	}
	s := optString(b)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return nonEmptySlice(out)
}

func mapMedia(b json.RawMessage) []listing.Media {
	if len(b) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make([]listing.Media, 0, len(items))
	for i, item := range items {
		var m rawMedia
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		key := string(m.MediaKey)
		if key == "" {
			key = strconv.Itoa(i)
		}
		out = append(out, listing.Media{
			Key:      key,
			URL:      cleanMediaURL(m.MediaURL),
			Category: listing.MediaCategory(strings.TrimSpace(m.MediaCategory)),
		})
	}
	return nonEmptySlice(out)
}

func validLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func nonEmptySlice[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
