// Package registry holds the panel's picture of the window manager: the
// ordered desktop list and the desktop-sorted task list.
package registry

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Desktop is one virtual desktop. X and Width are filled in by layout.
type Desktop struct {
	Name    string
	Focused bool
	X       int
	Width   int
}

// Desktops mirrors the window manager's desktop list.
type Desktops struct {
	items []*Desktop
	src   xconn.Source
	cmd   xconn.Commander
	log   *zerolog.Logger
}

func NewDesktops(src xconn.Source, cmd xconn.Commander) *Desktops {
	return &Desktops{
		src: src,
		cmd: cmd,
		log: logger.WithComponent("registry"),
	}
}

// Rebuild discards the list and reads it again from the root window.
// Missing names fall back to the desktop number.
func (d *Desktops) Rebuild() {
	root := d.src.Root()
	count, _ := d.src.Int(root, xconn.NetNumberOfDesktops)
	active, ok := d.src.Int(root, xconn.NetCurrentDesktop)
	if !ok {
		active = -1
	}
	names, _ := d.src.Texts(root, xconn.NetDesktopNames)

	d.items = make([]*Desktop, 0, max(count, 0))
	for i := 0; i < count; i++ {
		name := strconv.Itoa(i + 1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		d.items = append(d.items, &Desktop{Name: name, Focused: i == active})
	}

	d.log.Debug().
		Int("count", count).
		Int("active", active).
		Msg("Rebuilt desktop list")
}

// SetActive focuses the desktop at index and unfocuses the rest. An index
// out of range leaves no desktop focused.
func (d *Desktops) SetActive(index int) {
	for i, desk := range d.items {
		desk.Focused = i == index
	}
}

// Active returns the index of the focused desktop, or -1.
func (d *Desktops) Active() int {
	for i, desk := range d.items {
		if desk.Focused {
			return i
		}
	}
	return -1
}

// RequestSwitch asks the window manager to change desktop. Requests beyond
// the current desktop count are dropped. The registry itself changes only
// when the resulting notification arrives.
func (d *Desktops) RequestSwitch(index int) bool {
	count, _ := d.src.Int(d.src.Root(), xconn.NetNumberOfDesktops)
	if index < 0 || index >= count {
		d.log.Debug().
			Int("index", index).
			Int("count", count).
			Msg("Ignoring switch to nonexistent desktop")
		return false
	}
	if err := d.cmd.SwitchDesktop(index); err != nil {
		d.log.Warn().Err(err).Msg("Desktop switch request failed")
	}
	return true
}

// All returns the desktops in index order. The slice is owned by the registry.
func (d *Desktops) All() []*Desktop {
	return d.items
}

func (d *Desktops) Len() int {
	return len(d.items)
}
