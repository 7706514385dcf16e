// Package render paints the panel into an off-screen image and pushes the
// changed area to an Output.
package render

import (
	"image"
	"image/color"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/registry"
	"github.com/gopanel/gopanel/internal/theme"
)

// Region is a repaintable part of the panel.
type Region int

const (
	Panel Region = iota
	Switcher
	Taskbar
)

func (r Region) String() string {
	switch r {
	case Switcher:
		return "switcher"
	case Taskbar:
		return "taskbar"
	default:
		return "panel"
	}
}

// Output receives finished pixels.
type Output interface {
	Put(img *image.RGBA, r image.Rectangle) error
}

type Renderer struct {
	theme  *theme.Theme
	out    Output
	face   font.Face
	canvas *image.RGBA
	areas  map[theme.Element]image.Rectangle

	clock   string
	pending image.Rectangle
	now     func() time.Time
	log     *zerolog.Logger
}

func New(t *theme.Theme, out Output, size image.Point) *Renderer {
	r := &Renderer{
		theme:  t,
		out:    out,
		face:   basicfont.Face7x13,
		canvas: image.NewRGBA(image.Rectangle{Max: size}),
		areas:  make(map[theme.Element]image.Rectangle),
		now:    time.Now,
		log:    logger.WithComponent("render"),
	}
	if t.Has(theme.Clock) {
		r.clock = r.now().Format(t.ClockFormat)
	}
	return r
}

// Layout assigns horizontal positions to the switcher, clock and taskbar,
// then to every desktop and every task shown on the active desktop. Tasks
// on other desktops get zero width.
func (r *Renderer) Layout(desktops []*registry.Desktop, tasks []*registry.Task, size image.Point) {
	if r.canvas.Bounds().Size() != size {
		r.canvas = image.NewRGBA(image.Rectangle{Max: size})
	}
	pad := r.theme.Padding

	widths := make(map[theme.Element]int)
	if r.theme.Has(theme.Switcher) {
		for _, d := range desktops {
			widths[theme.Switcher] += r.textWidth(d.Name) + 2*pad
		}
	}
	if r.theme.Has(theme.Clock) {
		widths[theme.Clock] = r.textWidth(r.clock) + 2*pad
	}
	if r.theme.Has(theme.Taskbar) {
		widths[theme.Taskbar] = max(size.X-widths[theme.Switcher]-widths[theme.Clock], 0)
	}

	clear(r.areas)
	x := 0
	for _, e := range r.theme.Elements {
		w := min(widths[e], size.X-x)
		r.areas[e] = image.Rect(x, 0, x+w, size.Y)
		x += w
	}

	x = r.areas[theme.Switcher].Min.X
	active := -1
	for i, d := range desktops {
		if d.Focused {
			active = i
		}
		if !r.theme.Has(theme.Switcher) {
			d.X, d.Width = 0, 0
			continue
		}
		d.X = x
		d.Width = r.textWidth(d.Name) + 2*pad
		x += d.Width
	}

	bar := r.areas[theme.Taskbar]
	visible := 0
	for _, t := range tasks {
		if t.OnDesktop(active) {
			visible++
		}
	}
	each := 0
	if visible > 0 {
		each = bar.Dx() / visible
		if r.theme.TaskMaxWidth > 0 {
			each = min(each, r.theme.TaskMaxWidth)
		}
	}

	x = bar.Min.X
	for _, t := range tasks {
		if !t.OnDesktop(active) || each == 0 {
			t.X, t.Width = 0, 0
			continue
		}
		t.X = x
		t.Width = each
		x += each
	}

	r.log.Trace().
		Int("desktops", len(desktops)).
		Int("visible_tasks", visible).
		Int("task_width", each).
		Msg("Layout computed")
}

// Draw repaints a region into the canvas. Nothing reaches the output until Flush.
func (r *Renderer) Draw(region Region, desktops []*registry.Desktop, tasks []*registry.Task) {
	switch region {
	case Switcher:
		r.drawSwitcher(desktops)
	case Taskbar:
		r.drawTaskbar(tasks)
	default:
		r.fill(r.canvas.Bounds(), r.theme.Colors.Background)
		r.drawSwitcher(desktops)
		r.drawTaskbar(tasks)
		r.drawClock()
		r.pending = r.canvas.Bounds()
	}
}

// ClockChange is what a tick did to the clock.
type ClockChange int

const (
	// ClockSame means nothing was drawn.
	ClockSame ClockChange = iota
	// ClockRedrawn means the clock area was repainted and needs a flush.
	ClockRedrawn
	// ClockResized means the new text has a different width. Nothing was
	// drawn; the panel needs a layout and a full repaint.
	ClockResized
)

// Tick updates the clock text. Text of the same width is drawn in place.
func (r *Renderer) Tick(now time.Time) ClockChange {
	if !r.theme.Has(theme.Clock) {
		return ClockSame
	}
	text := now.Format(r.theme.ClockFormat)
	if text == r.clock {
		return ClockSame
	}
	resized := r.textWidth(text) != r.textWidth(r.clock)
	r.clock = text
	if resized {
		return ClockResized
	}
	r.drawClock()
	return ClockRedrawn
}

// Flush pushes everything drawn since the last flush.
func (r *Renderer) Flush() error {
	if r.pending.Empty() {
		return nil
	}
	area := r.pending
	r.pending = image.Rectangle{}
	return r.out.Put(r.canvas, area)
}

// Canvas exposes the off-screen image.
func (r *Renderer) Canvas() *image.RGBA {
	return r.canvas
}

func (r *Renderer) drawSwitcher(desktops []*registry.Desktop) {
	area, ok := r.area(theme.Switcher)
	if !ok {
		return
	}
	c := r.theme.Colors
	r.fill(area, c.Background)
	for _, d := range desktops {
		if d.Width == 0 {
			continue
		}
		cell := image.Rect(d.X, area.Min.Y, d.X+d.Width, area.Max.Y)
		text := c.Text
		if d.Focused {
			r.fill(cell.Inset(1), c.DesktopFocused)
			text = c.FocusedText
		}
		r.drawText(d.Name, cell, text, true)
	}
	r.fill(image.Rect(area.Max.X-1, area.Min.Y, area.Max.X, area.Max.Y), c.Separator)
}

func (r *Renderer) drawTaskbar(tasks []*registry.Task) {
	area, ok := r.area(theme.Taskbar)
	if !ok {
		return
	}
	c := r.theme.Colors
	pad := r.theme.Padding
	r.fill(area, c.Background)

	for _, t := range tasks {
		if t.Width == 0 {
			continue
		}
		button := image.Rect(t.X, area.Min.Y, t.X+t.Width, area.Max.Y).Inset(1)
		text := c.Text
		switch {
		case t.Focused:
			r.fill(button, c.Focused)
			text = c.FocusedText
		case t.Iconified:
			text = c.Iconified
		}

		label := button
		label.Min.X += pad
		if img := t.Icon.Image(); img != nil {
			size := img.Bounds().Size()
			top := area.Min.Y + (area.Dy()-size.Y)/2
			dst := image.Rect(label.Min.X, top, label.Min.X+size.X, top+size.Y).Intersect(button)
			draw.Draw(r.canvas, dst, img, img.Bounds().Min, draw.Over)
			label.Min.X += size.X + pad
		}
		label.Max.X -= pad
		if label.Dx() > 0 {
			r.drawText(r.fit(t.Name, label.Dx()), label, text, false)
		}
	}
}

func (r *Renderer) drawClock() {
	area, ok := r.area(theme.Clock)
	if !ok {
		return
	}
	r.fill(area, r.theme.Colors.Background)
	r.drawText(r.clock, area, r.theme.Colors.Text, true)
}

// area returns the laid-out element rectangle and marks it for flushing.
func (r *Renderer) area(e theme.Element) (image.Rectangle, bool) {
	a, ok := r.areas[e]
	if !ok || a.Empty() {
		return image.Rectangle{}, false
	}
	r.pending = r.pending.Union(a)
	return a, true
}

func (r *Renderer) fill(area image.Rectangle, c color.RGBA) {
	draw.Draw(r.canvas, area, image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Renderer) textWidth(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

// drawText writes s vertically centered in area, clipped to it.
func (r *Renderer) drawText(s string, area image.Rectangle, c color.RGBA, center bool) {
	m := r.face.Metrics()
	baseline := area.Min.Y + (area.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	x := area.Min.X
	if center {
		x += (area.Dx() - r.textWidth(s)) / 2
	}

	d := &font.Drawer{
		Dst:  r.canvas.SubImage(area).(*image.RGBA),
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// fit shortens s with a trailing ".." until it is at most width pixels.
func (r *Renderer) fit(s string, width int) string {
	if r.textWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if t := string(runes) + ".."; r.textWidth(t) <= width {
			return t
		}
	}
	return ""
}
