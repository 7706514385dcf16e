package panel

import (
	"image"

	"github.com/gopanel/gopanel/internal/theme"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Place positions the panel inside the work area wa of a screen
// screenHeight pixels tall.
func Place(t *theme.Theme, wa image.Rectangle, screenHeight int) xconn.PanelSpec {
	waWidth := wa.Dx()

	w := waWidth
	switch {
	case t.Width <= 0:
	case t.WidthPercent:
		w = waWidth * min(t.Width, 100) / 100
	default:
		w = min(t.Width, waWidth)
	}

	x := wa.Min.X
	switch t.Alignment {
	case theme.Center:
		x += (waWidth - w) / 2
	case theme.Right:
		x += waWidth - w
	}

	h := t.Height
	strut := t.HeightOverride
	if strut == 0 {
		strut = h
	}

	spec := xconn.PanelSpec{Top: t.Placement == theme.Top}
	if spec.Top {
		spec.Rect = image.Rect(x, wa.Min.Y, x+w, wa.Min.Y+h)
		spec.Strut = strut + wa.Min.Y
	} else {
		spec.Rect = image.Rect(x, wa.Max.Y-h, x+w, wa.Max.Y)
		spec.Strut = strut + screenHeight - wa.Max.Y
	}
	return spec
}
