// Package xconn is the boundary between the panel and the X server: typed
// property reads, window-manager commands and the event stream.
package xconn

import (
	"errors"
	"image"

	"github.com/BurntSushi/xgb/xproto"
)

// ErrConnectionLost is returned once the X connection stops delivering events.
var ErrConnectionLost = errors.New("connection to X server lost")

// Source is the read side of the window-manager protocol. Every read reports
// ok=false when the property is absent or the query failed; callers fall back
// instead of treating that as an error.
type Source interface {
	Root() xproto.Window

	Int(win xproto.Window, prop string) (int, bool)
	Window(win xproto.Window, prop string) (xproto.Window, bool)
	Pixmap(win xproto.Window, prop string) (xproto.Pixmap, bool)
	Text(win xproto.Window, prop string) (string, bool)
	Texts(win xproto.Window, prop string) ([]string, bool)
	Windows(win xproto.Window, prop string) ([]xproto.Window, bool)
	Atoms(win xproto.Window, prop string) ([]string, bool)
	Cardinals(win xproto.Window, prop string) ([]uint, bool)

	// InputFocus returns the window holding the keyboard focus.
	InputFocus() (xproto.Window, bool)

	// HintIcon renders the WM_HINTS icon pixmap through its mask.
	HintIcon(win xproto.Window) (image.Image, bool)
}

// Commander is the write side. Commands are fire-and-forget: the window
// manager answers with property notifications, not replies.
type Commander interface {
	SwitchDesktop(index int) error
	Activate(win xproto.Window) error
	Iconify(win xproto.Window) error
	Raise(win xproto.Window) error

	// Watch subscribes to property, focus and structure notifications of win.
	Watch(win xproto.Window) error
}

// Protocol is everything the panel needs from the window manager.
type Protocol interface {
	Source
	Commander
}

// Event is one notification delivered by the X server.
type Event interface {
	event()
}

// PropertyEvent reports that Prop changed on Window.
type PropertyEvent struct {
	Window xproto.Window
	Prop   string
}

// ButtonEvent is a pointer press inside the panel window.
type ButtonEvent struct {
	Window xproto.Window
	X, Y   int
	Button int
}

// FocusEvent reports that Window received the input focus.
type FocusEvent struct {
	Window xproto.Window
}

// ExposeEvent asks for the panel window to be repainted.
type ExposeEvent struct {
	Window xproto.Window
}

func (PropertyEvent) event() {}
func (ButtonEvent) event()   {}
func (FocusEvent) event()    {}
func (ExposeEvent) event()   {}
