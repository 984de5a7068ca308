package present

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/variants"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var infoWindowTmpl = template.Must(template.ParseFS(templateFS, "templates/info_window.html.tmpl"))

// InfoWindow is the popup anchored to a selected cell.
type InfoWindow struct {
	Key        string        `json:"key"`
	Position   LatLng        `json:"position"`
	Removable  bool          `json:"removable"`
	MountToken string        `json:"mountToken"`
	Panel      Panel         `json:"panel"`
	Content    template.HTML `json:"content"`
}

// BuildInfoWindow builds the popup for a selected cell. Grid-positioned
// variants anchor it on the first listing, others on the member mean.
func BuildInfoWindow(cell grouping.Cell, mode grouping.Mode, mountToken string, v variants.Variant, f *Formatter) (*InfoWindow, error) {
	if len(cell.Listings) == 0 {
		return nil, fmt.Errorf("info window for empty cell %q", cell.Key)
	}
	pos := Centroid(cell.Listings)
	if mode == grouping.ModeGrid && v.Position == variants.PositionGrid {
		first := cell.Listings[0]
		pos = LatLng{Lat: first.Lat, Lng: first.Lng}
	}

	w := &InfoWindow{
		Key:        cell.Key,
		Position:   pos,
		Removable:  true,
		MountToken: mountToken,
		Panel:      BuildPanel(cell, mode, v, f),
	}
	content, err := RenderInfoWindow(w)
	if err != nil {
		return nil, err
	}
	w.Content = content
	return w, nil
}

// RenderInfoWindow renders the popup HTML.
func RenderInfoWindow(w *InfoWindow) (template.HTML, error) {
	var buf bytes.Buffer
	if err := infoWindowTmpl.Execute(&buf, w); err != nil {
		return "", fmt.Errorf("render info window: %w", err)
	}
	return template.HTML(buf.String()), nil
}
