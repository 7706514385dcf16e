// Package xconntest provides an in-memory window manager for tests.
package xconntest

import (
	"image"
	"slices"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/gopanel/gopanel/internal/xconn"
)

// RootWindow is the root window id of every Fake.
const RootWindow xproto.Window = 1

// Command is one recorded window-manager request.
type Command struct {
	Name   string
	Window xproto.Window
	Index  int
}

// Fake implements xconn.Protocol over property maps. Values are stored with
// the Go type the matching Source method returns: int, xproto.Window,
// xproto.Pixmap, string, []string, []xproto.Window or []uint. Atom lists
// are stored as []string.
type Fake struct {
	Props     map[xproto.Window]map[string]any
	Focus     xproto.Window
	HintIcons map[xproto.Window]image.Image
	Commands  []Command

	// Err is returned by every command when set.
	Err error
}

var _ xconn.Protocol = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Props:     make(map[xproto.Window]map[string]any),
		HintIcons: make(map[xproto.Window]image.Image),
	}
}

// Set stores a property value.
func (f *Fake) Set(win xproto.Window, prop string, v any) {
	props, ok := f.Props[win]
	if !ok {
		props = make(map[string]any)
		f.Props[win] = props
	}
	props[prop] = v
}

// Delete removes a property.
func (f *Fake) Delete(win xproto.Window, prop string) {
	delete(f.Props[win], prop)
}

// SetDesktops publishes count desktops named by names with active current.
func (f *Fake) SetDesktops(count, current int, names ...string) {
	f.Set(RootWindow, xconn.NetNumberOfDesktops, count)
	f.Set(RootWindow, xconn.NetCurrentDesktop, current)
	f.Set(RootWindow, xconn.NetDesktopNames, names)
}

// AddClient gives win a name and desktop and appends it to the client list.
func (f *Fake) AddClient(win xproto.Window, desktop int, name string) {
	f.Set(win, xconn.NetWMName, name)
	f.Set(win, xconn.NetWMDesktop, desktop)
	clients, _ := f.Windows(RootWindow, xconn.NetClientList)
	f.Set(RootWindow, xconn.NetClientList, append(slices.Clone(clients), win))
}

// RemoveClient drops win from the client list and forgets its properties.
func (f *Fake) RemoveClient(win xproto.Window) {
	clients, _ := f.Windows(RootWindow, xconn.NetClientList)
	clients = slices.DeleteFunc(slices.Clone(clients), func(w xproto.Window) bool { return w == win })
	f.Set(RootWindow, xconn.NetClientList, clients)
	delete(f.Props, win)
}

// Sent returns the recorded commands with the given name.
func (f *Fake) Sent(name string) []Command {
	var out []Command
	for _, c := range f.Commands {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func lookup[T any](f *Fake, win xproto.Window, prop string) (T, bool) {
	v, ok := f.Props[win][prop].(T)
	return v, ok
}

func (f *Fake) Root() xproto.Window { return RootWindow }

func (f *Fake) Int(win xproto.Window, prop string) (int, bool) {
	return lookup[int](f, win, prop)
}

func (f *Fake) Window(win xproto.Window, prop string) (xproto.Window, bool) {
	return lookup[xproto.Window](f, win, prop)
}

func (f *Fake) Pixmap(win xproto.Window, prop string) (xproto.Pixmap, bool) {
	return lookup[xproto.Pixmap](f, win, prop)
}

func (f *Fake) Text(win xproto.Window, prop string) (string, bool) {
	return lookup[string](f, win, prop)
}

func (f *Fake) Texts(win xproto.Window, prop string) ([]string, bool) {
	return lookup[[]string](f, win, prop)
}

func (f *Fake) Windows(win xproto.Window, prop string) ([]xproto.Window, bool) {
	return lookup[[]xproto.Window](f, win, prop)
}

func (f *Fake) Atoms(win xproto.Window, prop string) ([]string, bool) {
	return lookup[[]string](f, win, prop)
}

func (f *Fake) Cardinals(win xproto.Window, prop string) ([]uint, bool) {
	return lookup[[]uint](f, win, prop)
}

func (f *Fake) InputFocus() (xproto.Window, bool) {
	return f.Focus, true
}

func (f *Fake) HintIcon(win xproto.Window) (image.Image, bool) {
	img, ok := f.HintIcons[win]
	return img, ok
}

func (f *Fake) record(name string, win xproto.Window, index int) error {
	f.Commands = append(f.Commands, Command{Name: name, Window: win, Index: index})
	return f.Err
}

func (f *Fake) SwitchDesktop(index int) error {
	return f.record("switch", 0, index)
}

func (f *Fake) Activate(win xproto.Window) error {
	return f.record("activate", win, 0)
}

func (f *Fake) Iconify(win xproto.Window) error {
	return f.record("iconify", win, 0)
}

func (f *Fake) Raise(win xproto.Window) error {
	return f.record("raise", win, 0)
}

func (f *Fake) Watch(win xproto.Window) error {
	return f.record("watch", win, 0)
}
