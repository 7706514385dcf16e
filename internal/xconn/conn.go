package xconn

import (
	"fmt"
	"image"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/rs/zerolog"

	"github.com/gopanel/gopanel/internal/logger"
)

// clientEventMask is selected on every tracked client window.
const clientEventMask = xproto.EventMaskPropertyChange |
	xproto.EventMaskFocusChange |
	xproto.EventMaskStructureNotify

// Conn implements Protocol on top of an xgbutil connection.
type Conn struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	log  *zerolog.Logger
}

// Dial connects to the X server named by $DISPLAY and subscribes to property
// changes on the root window.
func Dial() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	c := &Conn{
		xu:   xu,
		root: xu.RootWin(),
		log:  logger.WithComponent("xconn"),
	}

	err = xproto.ChangeWindowAttributesChecked(
		xu.Conn(),
		c.root,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to watch root window: %w", err)
	}

	c.log.Debug().
		Uint32("root", uint32(c.root)).
		Msg("Connected to X server")

	return c, nil
}

// XUtil exposes the underlying connection for callers that draw.
func (c *Conn) XUtil() *xgbutil.XUtil {
	return c.xu
}

// Close drops the X connection. The event stream ends shortly after.
func (c *Conn) Close() {
	c.xu.Conn().Close()
}

func (c *Conn) Root() xproto.Window {
	return c.root
}

// ScreenSize is the size of the default screen in pixels.
func (c *Conn) ScreenSize() image.Point {
	s := c.xu.Screen()
	return image.Pt(int(s.WidthInPixels), int(s.HeightInPixels))
}

// Workarea returns the work area of the first desktop, or the whole screen
// when the window manager doesn't publish one.
func (c *Conn) Workarea() image.Rectangle {
	areas, err := ewmh.WorkareaGet(c.xu)
	if err != nil || len(areas) == 0 {
		return image.Rectangle{Max: c.ScreenSize()}
	}
	a := areas[0]
	return image.Rect(a.X, a.Y, a.X+int(a.Width), a.Y+int(a.Height))
}

var _ Protocol = (*Conn)(nil)

func (c *Conn) get(win xproto.Window, prop string) (*xproto.GetPropertyReply, error) {
	return xprop.GetProperty(c.xu, win, prop)
}

// Int reads a 32-bit property as a signed integer, so 0xFFFFFFFF is -1.
func (c *Conn) Int(win xproto.Window, prop string) (int, bool) {
	return propInt(c.get(win, prop))
}

func propInt(reply *xproto.GetPropertyReply, err error) (int, bool) {
	n, err := xprop.PropValNum(reply, err)
	if err != nil {
		return 0, false
	}
	return int(int32(n)), true
}

func (c *Conn) Window(win xproto.Window, prop string) (xproto.Window, bool) {
	w, err := xprop.PropValWindow(c.get(win, prop))
	return w, err == nil
}

func (c *Conn) Pixmap(win xproto.Window, prop string) (xproto.Pixmap, bool) {
	n, err := xprop.PropValNum(c.get(win, prop))
	return xproto.Pixmap(n), err == nil
}

func (c *Conn) Text(win xproto.Window, prop string) (string, bool) {
	s, err := xprop.PropValStr(c.get(win, prop))
	if err != nil {
		return "", false
	}
	return strings.TrimRight(s, "\x00"), true
}

func (c *Conn) Texts(win xproto.Window, prop string) ([]string, bool) {
	strs, err := xprop.PropValStrs(c.get(win, prop))
	return strs, err == nil
}

func (c *Conn) Windows(win xproto.Window, prop string) ([]xproto.Window, bool) {
	wins, err := xprop.PropValWindows(c.get(win, prop))
	return wins, err == nil
}

func (c *Conn) Atoms(win xproto.Window, prop string) ([]string, bool) {
	reply, err := c.get(win, prop)
	return propAtoms(c.xu, reply, err)
}

func propAtoms(xu *xgbutil.XUtil, reply *xproto.GetPropertyReply, err error) ([]string, bool) {
	names, err := xprop.PropValAtoms(xu, reply, err)
	return names, err == nil
}

func (c *Conn) Cardinals(win xproto.Window, prop string) ([]uint, bool) {
	nums, err := xprop.PropValNums(c.get(win, prop))
	return nums, err == nil
}

func (c *Conn) InputFocus() (xproto.Window, bool) {
	reply, err := xproto.GetInputFocus(c.xu.Conn()).Reply()
	if err != nil {
		return 0, false
	}
	return reply.Focus, true
}

// HintIcon returns an *xgraphics.Image; callers Destroy it once converted.
func (c *Conn) HintIcon(win xproto.Window) (image.Image, bool) {
	hints, err := icccm.WmHintsGet(c.xu, win)
	if err != nil || hints.Flags&icccm.HintIconPixmap == 0 {
		return nil, false
	}

	var mask xproto.Pixmap
	if hints.Flags&icccm.HintIconMask != 0 {
		mask = hints.IconMask
	}

	img, err := xgraphics.NewIcccmIcon(c.xu, hints.IconPixmap, mask)
	if err != nil {
		c.log.Debug().
			Err(err).
			Uint32("window", uint32(win)).
			Msg("Failed to read icon pixmap")
		return nil, false
	}
	return img, true
}

func (c *Conn) SwitchDesktop(index int) error {
	if err := ewmh.CurrentDesktopReq(c.xu, index); err != nil {
		return fmt.Errorf("switch to desktop %d: %w", index, err)
	}
	return nil
}

// Activate asks the window manager to focus win, identifying as a pager.
func (c *Conn) Activate(win xproto.Window) error {
	if err := ewmh.ActiveWindowReqExtra(c.xu, win, 2, 0, 0); err != nil {
		return fmt.Errorf("activate window %x: %w", win, err)
	}
	return nil
}

func (c *Conn) Iconify(win xproto.Window) error {
	if err := ewmh.ClientEvent(c.xu, win, "WM_CHANGE_STATE", icccm.StateIconic); err != nil {
		return fmt.Errorf("iconify window %x: %w", win, err)
	}
	return nil
}

func (c *Conn) Raise(win xproto.Window) error {
	err := xproto.ConfigureWindowChecked(
		c.xu.Conn(),
		win,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		return fmt.Errorf("raise window %x: %w", win, err)
	}
	return nil
}

func (c *Conn) Watch(win xproto.Window) error {
	err := xproto.ChangeWindowAttributesChecked(
		c.xu.Conn(),
		win,
		xproto.CwEventMask,
		[]uint32{clientEventMask},
	).Check()
	if err != nil {
		return fmt.Errorf("watch window %x: %w", win, err)
	}
	return nil
}
