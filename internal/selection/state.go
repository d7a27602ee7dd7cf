// Package selection models which listing is open and whether its detail
// surface is visible. Visibility only exists inside a selection, so the
// detail view can never be shown without a listing behind it.
package selection

import (
	"encoding/json"
	"fmt"
)

// Selected is the payload of a non-empty State.
type Selected struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
}

// State is either None or Selected. The zero value is None.
type State struct {
	sel *Selected
}

func None() State { return State{} }

func (s State) IsNone() bool { return s.sel == nil }

// Selected returns the payload and true unless the state is None.
func (s State) Selected() (Selected, bool) {
	if s.sel == nil {
		return Selected{}, false
	}
	return *s.sel, true
}

// Key returns the selected key, or "" for None.
func (s State) Key() string {
	if s.sel == nil {
		return ""
	}
	return s.sel.Key
}

// DetailVisible reports whether the detail surface should be shown.
func (s State) DetailVisible() bool { return s.sel != nil && s.sel.Visible }

func (s State) String() string {
	if s.sel == nil {
		return "None"
	}
	return fmt.Sprintf("Selected(%q, visible=%t)", s.sel.Key, s.sel.Visible)
}

// TapRow selects key and shows its detail, replacing any prior selection.
func (s State) TapRow(key string) State {
	return State{sel: &Selected{Key: key, Visible: true}}
}

// Dismiss hides the detail surface and keeps the key so the same listing can
// be reopened without a refetch. Other states are returned unchanged.
func (s State) Dismiss() State {
	if !s.DetailVisible() {
		return s
	}
	return State{sel: &Selected{Key: s.sel.Key, Visible: false}}
}

// Reconcile drops the selection when its key is missing from a newly
// published listing set.
func (s State) Reconcile(present func(key string) bool) State {
	if s.sel == nil || present(s.sel.Key) {
		return s
	}
	return None()
}

// MarshalJSON renders None as null.
func (s State) MarshalJSON() ([]byte, error) {
	if s.sel == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*s.sel)
}
