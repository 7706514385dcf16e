// Package window derives taskbar facts from the raw properties of a client
// window: whether it belongs on the taskbar, its desktop, title and icon.
package window

import (
	"image"
	"slices"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/gopanel/gopanel/internal/xconn"
)

// Placeholder is shown for windows without any usable title.
const Placeholder = "<unknown>"

// Visibility says whether a window gets a taskbar entry.
type Visibility int

const (
	Normal Visibility = iota
	Excluded
)

// nameSources are tried in order; the first present, non-empty one wins.
var nameSources = []string{
	xconn.NetWMVisibleIconName,
	xconn.NetWMIconName,
	xconn.WMIconName,
	xconn.NetWMVisibleName,
	xconn.NetWMName,
	xconn.WMName,
}

// IconPolicy controls icon resolution.
type IconPolicy struct {
	Enabled       bool
	Width, Height int
	// Default is shared by every task without an icon of its own.
	Default image.Image
}

// Info is everything needed to create a task.
type Info struct {
	Name      string
	Desktop   int
	Iconified bool
	Icon      Icon
}

// Classifier reads window properties through a Source.
type Classifier struct {
	src   xconn.Source
	icons IconPolicy
}

func NewClassifier(src xconn.Source, icons IconPolicy) *Classifier {
	return &Classifier{src: src, icons: icons}
}

// Classify gathers the facts of win, or reports false if it is excluded.
func (c *Classifier) Classify(win xproto.Window) (Info, bool) {
	if c.Visibility(win) == Excluded {
		return Info{}, false
	}
	return Info{
		Name:      c.DisplayName(win),
		Desktop:   c.Desktop(win),
		Iconified: c.Iconified(win),
		Icon:      c.Icon(win),
	}, true
}

// Visibility excludes docks, desktop windows and skip-taskbar windows. Only
// the first window type is consulted.
func (c *Classifier) Visibility(win xproto.Window) Visibility {
	if types, ok := c.src.Atoms(win, xconn.NetWMWindowType); ok && len(types) > 0 {
		switch types[0] {
		case xconn.NetWMWindowTypeDock, xconn.NetWMWindowTypeDesktop:
			return Excluded
		}
	}
	if states, ok := c.src.Atoms(win, xconn.NetWMState); ok &&
		slices.Contains(states, xconn.NetWMStateSkipTaskbar) {
		return Excluded
	}
	return Normal
}

// Iconified is true if either the ICCCM state says iconic or the EWMH state
// carries the hidden flag.
func (c *Classifier) Iconified(win xproto.Window) bool {
	if state, ok := c.src.Cardinals(win, xconn.WMState); ok && len(state) > 0 && state[0] == icccm.StateIconic {
		return true
	}
	states, ok := c.src.Atoms(win, xconn.NetWMState)
	return ok && slices.Contains(states, xconn.NetWMStateHidden)
}

// Desktop returns the window's desktop, -1 for sticky, 0 when unset.
func (c *Classifier) Desktop(win xproto.Window) int {
	d, _ := c.src.Int(win, xconn.NetWMDesktop)
	return d
}

func (c *Classifier) DisplayName(win xproto.Window) string {
	for _, prop := range nameSources {
		if name, ok := c.src.Text(win, prop); ok && name != "" {
			return name
		}
	}
	return Placeholder
}

// Icon resolves the window icon scaled to the policy size. Icon data
// properties win over hint pixmaps; the theme default is the last resort.
func (c *Classifier) Icon(win xproto.Window) Icon {
	if !c.icons.Enabled {
		return Icon{}
	}

	src, ok := c.netIcon(win)
	if !ok {
		src, ok = c.src.HintIcon(win)
	}
	if !ok {
		return Shared(c.icons.Default)
	}

	scaled := Scale(src, c.icons.Width, c.icons.Height)
	if d, ok := src.(destroyer); ok {
		d.Destroy()
	}
	return Owned(scaled)
}

func (c *Classifier) netIcon(win xproto.Window) (image.Image, bool) {
	data, ok := c.src.Cardinals(win, xconn.NetWMIcon)
	if !ok {
		return nil, false
	}
	return DecodeNetIcon(data, c.icons.Width, c.icons.Height)
}
