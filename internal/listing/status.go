package listing

import "strings"

// Status is the MLS status string as delivered by the source.
type Status string

const (
	StatusActive              Status = "Active"
	StatusPending             Status = "Pending"
	StatusActiveUnderContract Status = "Active Under Contract"
)

// Style is the presentation class a renderer picks for a status.
type Style string

const (
	StyleOK      Style = "ok"
	StyleWarning Style = "warning"
	StyleNeutral Style = "neutral"
)

func (s Status) Style() Style {
	switch normalizeStatus(string(s)) {
	case "active":
		return StyleOK
	case "pending", "activeundercontract":
		return StyleWarning
	default:
		return StyleNeutral
	}
}

// Label is the text shown for the status; empty statuses read "Unknown Status".
func (s Status) Label() string {
	if strings.TrimSpace(string(s)) == "" {
		return "Unknown Status"
	}
	return string(s)
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
