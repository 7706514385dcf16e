package xconn

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
)

// allDesktops is the _NET_WM_DESKTOP value for a window shown everywhere.
const allDesktops = 0xFFFFFFFF

// PanelSpec places the panel window on screen.
type PanelSpec struct {
	Rect image.Rectangle
	// Top anchors the panel to the top edge instead of the bottom.
	Top bool
	// Strut is the height reserved at the anchored edge.
	Strut int
}

// PanelWindow is the dock window the panel paints into.
type PanelWindow struct {
	conn  *Conn
	id    xproto.Window
	gc    xproto.Gcontext
	depth byte
	bpp   int
	pad   int
}

// ID is the X window id, used to keep the panel out of its own task list.
func (w *PanelWindow) ID() xproto.Window {
	return w.id
}

// CreatePanelWindow creates and maps an undecorated dock window on every
// desktop, reserving its strut so maximized windows don't cover it.
func (c *Conn) CreatePanelWindow(spec PanelSpec) (*PanelWindow, error) {
	x := c.xu.Conn()
	screen := c.xu.Screen()
	r := spec.Rect

	id, err := xproto.NewWindowId(x)
	if err != nil {
		return nil, fmt.Errorf("failed to create window ID: %w", err)
	}

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		screen.BlackPixel,
		xproto.EventMaskButtonPress | xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
	}

	err = xproto.CreateWindowChecked(
		x,
		screen.RootDepth,
		id,
		c.root,
		int16(r.Min.X), int16(r.Min.Y),
		uint16(r.Dx()), uint16(r.Dy()),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &PanelWindow{conn: c, id: id, depth: screen.RootDepth}
	if err := w.setHints(spec); err != nil {
		w.Destroy()
		return nil, err
	}

	if err := xproto.MapWindowChecked(x, id).Check(); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("failed to map window: %w", err)
	}

	// Window managers that ignore the initial _NET_WM_DESKTOP still honor the request.
	if err := ewmh.ClientEvent(c.xu, id, "_NET_WM_DESKTOP", allDesktops); err != nil {
		c.log.Warn().Err(err).Msg("Failed to request sticky panel")
	}

	if err := w.createGC(); err != nil {
		w.Destroy()
		return nil, err
	}

	c.log.Info().
		Int("x", r.Min.X).
		Int("y", r.Min.Y).
		Int("width", r.Dx()).
		Int("height", r.Dy()).
		Uint32("window_id", uint32(id)).
		Msg("Panel window created")

	return w, nil
}

func (w *PanelWindow) setHints(spec PanelSpec) error {
	xu := w.conn.xu
	r := spec.Rect

	strut := &ewmh.WmStrut{}
	partial := &ewmh.WmStrutPartial{}
	if spec.Top {
		strut.Top = uint(spec.Strut)
		partial.Top = uint(spec.Strut)
		partial.TopStartX = uint(r.Min.X)
		partial.TopEndX = uint(r.Max.X)
	} else {
		strut.Bottom = uint(spec.Strut)
		partial.Bottom = uint(spec.Strut)
		partial.BottomStartX = uint(r.Min.X)
		partial.BottomEndX = uint(r.Max.X)
	}

	if err := ewmh.WmStrutSet(xu, w.id, strut); err != nil {
		return fmt.Errorf("failed to set strut: %w", err)
	}
	if err := ewmh.WmStrutPartialSet(xu, w.id, partial); err != nil {
		return fmt.Errorf("failed to set strut partial: %w", err)
	}
	if err := ewmh.WmDesktopSet(xu, w.id, allDesktops); err != nil {
		return fmt.Errorf("failed to set desktop: %w", err)
	}
	if err := ewmh.WmWindowTypeSet(xu, w.id, []string{NetWMWindowTypeDock}); err != nil {
		return fmt.Errorf("failed to set window type: %w", err)
	}

	size := &icccm.NormalHints{
		Flags:     icccm.SizeHintPPosition | icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		X:         r.Min.X,
		Y:         r.Min.Y,
		Width:     uint(r.Dx()),
		Height:    uint(r.Dy()),
		MinWidth:  uint(r.Dx()),
		MinHeight: uint(r.Dy()),
		MaxWidth:  uint(r.Dx()),
		MaxHeight: uint(r.Dy()),
	}
	if err := icccm.WmNormalHintsSet(xu, w.id, size); err != nil {
		return fmt.Errorf("failed to set size hints: %w", err)
	}

	// The panel never takes keyboard focus.
	hints := &icccm.Hints{
		Flags:        icccm.HintInput | icccm.HintState,
		Input:        0,
		InitialState: icccm.StateNormal,
	}
	if err := icccm.WmHintsSet(xu, w.id, hints); err != nil {
		return fmt.Errorf("failed to set wm hints: %w", err)
	}

	decor := &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motif.DecorationNone,
	}
	if err := motif.WmHintsSet(xu, w.id, decor); err != nil {
		return fmt.Errorf("failed to set motif hints: %w", err)
	}

	if err := icccm.WmClassSet(xu, w.id, &icccm.WmClass{Instance: "panel", Class: "gopanel"}); err != nil {
		return fmt.Errorf("failed to set window class: %w", err)
	}
	if err := ewmh.WmNameSet(xu, w.id, "gopanel"); err != nil {
		w.conn.log.Warn().Err(err).Msg("Failed to set window title")
	}
	return nil
}

func (w *PanelWindow) createGC() error {
	x := w.conn.xu.Conn()

	for _, format := range xproto.Setup(x).PixmapFormats {
		if format.Depth == w.depth {
			w.bpp = int(format.BitsPerPixel) / 8
			w.pad = int(format.ScanlinePad) / 8
			break
		}
	}
	if w.bpp != 3 && w.bpp != 4 {
		return fmt.Errorf("unsupported pixel format for depth %d", w.depth)
	}

	gc, err := xproto.NewGcontextId(x)
	if err != nil {
		return fmt.Errorf("failed to create graphics context ID: %w", err)
	}
	if err := xproto.CreateGCChecked(x, gc, xproto.Drawable(w.id), 0, nil).Check(); err != nil {
		return fmt.Errorf("failed to create GC: %w", err)
	}
	w.gc = gc
	return nil
}

// Put copies region r of img into the window at the same offset.
func (w *PanelWindow) Put(img *image.RGBA, r image.Rectangle) error {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}

	width, height := r.Dx(), r.Dy()
	stride := ((width*w.bpp + w.pad - 1) / w.pad) * w.pad
	data := make([]byte, stride*height)

	// ZPixmap on little-endian servers is BGRx.
	for y := 0; y < height; y++ {
		src := img.PixOffset(r.Min.X, r.Min.Y+y)
		dst := y * stride
		for x := 0; x < width; x++ {
			data[dst] = img.Pix[src+2]
			data[dst+1] = img.Pix[src+1]
			data[dst+2] = img.Pix[src]
			if w.bpp == 4 && w.depth == 32 {
				data[dst+3] = img.Pix[src+3]
			}
			src += 4
			dst += w.bpp
		}
	}

	err := xproto.PutImageChecked(
		w.conn.xu.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(w.id),
		w.gc,
		uint16(width), uint16(height),
		int16(r.Min.X), int16(r.Min.Y),
		0,
		w.depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to put image: %w", err)
	}
	return nil
}

// Destroy frees the graphics context and the window.
func (w *PanelWindow) Destroy() {
	x := w.conn.xu.Conn()
	if w.gc != 0 {
		xproto.FreeGC(x, w.gc)
	}
	xproto.DestroyWindow(x, w.id)
	w.conn.xu.Sync()
}
