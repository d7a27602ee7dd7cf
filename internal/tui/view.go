package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexbeattie/cautious-fishstick-only/internal/canon"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
)

func (m Model) View() string {
	var b strings.Builder
	if m.snap.Selection.DetailVisible() {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.feedView())
	}
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) feedView() string {
	f := m.snap.Feed
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Listings (%d)", len(f.Listings))))
	b.WriteString("\n")
	if len(f.Listings) == 0 {
		if f.Loading {
			b.WriteString(m.spinner.View() + mutedStyle.Render("Loading..."))
		} else {
			b.WriteString(mutedStyle.Render("No listings."))
		}
		return b.String()
	}
	for i, l := range f.Listings {
		line := fmt.Sprintf("%-40s %12s  %s", truncate(title(l), 40), priceStyle.Render(price(l)), statusBadge(l.Status))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) detailView() string {
	l, ok := m.current()
	if !ok {
		return mutedStyle.Render("Listing no longer available.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title(l)))
	b.WriteString("  ")
	b.WriteString(statusBadge(l.Status))
	b.WriteString("\n")
	b.WriteString(priceStyle.Render(price(l)))
	if s := specs(l); s != "" {
		b.WriteString("  " + s)
	}
	b.WriteString("\n")
	if l.Model != "" {
		b.WriteString(l.Model + "\n")
	}
	if l.AgentName != "" {
		b.WriteString(mutedStyle.Render("Agent: "+l.AgentName) + "\n")
	}

	photos := l.PhotoURLs()
	b.WriteString(sectionHeader.Render("Photos") + "\n")
	if len(photos) == 0 {
		b.WriteString(mutedStyle.Render("No photos") + "\n")
	} else {
		i := min(m.photo, len(photos)-1)
		b.WriteString(fmt.Sprintf("[%d/%d] %s\n", i+1, len(photos), photos[i]))
	}

	b.WriteString(sectionHeader.Render("Map") + "\n")
	b.WriteString(mapSection(m.snap.Map) + "\n")

	if l.Remarks != "" {
		b.WriteString(sectionHeader.Render("Remarks") + "\n")
		b.WriteString(l.Remarks + "\n")
	}
	for _, sec := range []struct {
		name string
		tags []string
	}{
		{"Amenities", l.Amenities},
		{"Community", l.CommunityFeatures},
		{"Lot", l.LotFeatures},
		{"Disclosures", l.Disclosures},
	} {
		if len(sec.tags) == 0 {
			continue
		}
		b.WriteString(sectionHeader.Render(sec.name) + "\n")
		b.WriteString(strings.Join(sec.tags, " · ") + "\n")
	}
	if w := l.WebsiteURL(); w != "" {
		b.WriteString(mutedStyle.Render("Website: "+w) + "\n")
	}
	return detailBox.Render(strings.TrimRight(b.String(), "\n"))
}

func mapSection(ms mapview.MapState) string {
	switch {
	case ms.Unmappable:
		return mutedStyle.Render("No location available")
	case ms.Annotation == nil:
		return mutedStyle.Render("Map closed")
	}
	a := ms.Annotation
	lines := []string{fmt.Sprintf("Pin %.5f, %.5f", a.Coordinate.Lat(), a.Coordinate.Lon())}
	switch {
	case ms.RoutePending:
		lines = append(lines, mutedStyle.Render("Routing..."))
	case ms.Route != nil:
		lines = append(lines, fmt.Sprintf("Route %.1f km, %s, %d points",
			ms.Route.Distance/1000, ms.Route.Duration.Round(time.Minute), len(ms.Route.Path)))
	}
	if ms.RoutingUnavailable {
		lines = append(lines, errorStyle.Render("Directions unavailable"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	bindings := keys.feedHelp()
	if m.snap.Selection.DetailVisible() {
		bindings = keys.detailHelp()
	}
	help := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	var parts []string
	if m.snap.Feed.Loading {
		parts = append(parts, m.spinner.View()+"loading")
	}
	if f := m.snap.Feed; f.Err != nil {
		msg := "fetch failed"
		if f.Retryable {
			msg += " (r to retry)"
		}
		parts = append(parts, errorStyle.Render(msg))
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, errorStyle.Render(m.status))
		} else {
			parts = append(parts, m.status)
		}
	}
	parts = append(parts, mutedStyle.Render(strings.Join(help, " · ")))
	return statusBar.Render(strings.Join(parts, "  "))
}

func title(l listing.Listing) string {
	if t := canon.Title(l.Address, l.City, l.State, l.PostalCode); t != "" {
		return t
	}
	return l.Key
}

func price(l listing.Listing) string {
	if p := mapview.FormatPrice(l.Price); p != "" {
		return p
	}
	return "Price n/a"
}

func specs(l listing.Listing) string {
	var parts []string
	if l.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d bd", *l.Bedrooms))
	}
	if l.Bathrooms != nil {
		parts = append(parts, fmt.Sprintf("%d ba", *l.Bathrooms))
	}
	if l.BuildingArea != nil {
		parts = append(parts, mapview.FormatArea(l.BuildingArea))
	}
	return strings.Join(parts, " · ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
