package panel

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gopanel/gopanel/internal/window"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Handle applies one event to the registries and records what it dirtied.
func (p *Panel) Handle(ev xconn.Event) {
	switch e := ev.(type) {
	case xconn.PropertyEvent:
		p.handleProperty(e.Window, e.Prop)
	case xconn.ButtonEvent:
		p.handleButton(e)
	case xconn.FocusEvent:
		p.Tasks.PropagateFocus(e.Window)
		p.needLayout = true
		p.dirty.taskbar = true
	case xconn.ExposeEvent:
		p.dirty.panel = true
	}
}

func (p *Panel) handleProperty(win xproto.Window, prop string) {
	root := p.src.Root()
	if win == root && p.handleRootProperty(prop) {
		return
	}
	// Other root keys fall through: the root is never tracked, so they
	// only request a present.

	task := p.Tasks.Find(win)
	if task == nil {
		p.present = true
		return
	}

	switch prop {
	case xconn.NetWMDesktop:
		p.Tasks.Relocate(win)
		p.needLayout = true
		p.dirty.switcher = true
		p.dirty.taskbar = true

	case xconn.NetWMName, xconn.NetWMVisibleName:
		task.Name = p.classifier.DisplayName(win)
		p.dirty.taskbar = true

	case xconn.NetWMState, xconn.WMState:
		if p.classifier.Visibility(win) == window.Excluded {
			p.Tasks.Remove(win)
			p.needLayout = true
			p.dirty.taskbar = true
			return
		}
		task.Iconified = p.classifier.Iconified(win)
		active, _ := p.src.Window(root, xconn.NetActiveWindow)
		task.Focused = active == win
		p.dirty.taskbar = true

	case xconn.NetWMIcon, xconn.WMHints:
		p.Tasks.SetIcon(task, p.classifier.Icon(win))
		p.dirty.taskbar = true
	}
}

// handleRootProperty reports whether prop was a root key.
func (p *Panel) handleRootProperty(prop string) bool {
	root := p.src.Root()

	switch prop {
	case xconn.NetNumberOfDesktops, xconn.NetDesktopNames:
		p.Desktops.Rebuild()
		p.needLayout = true
		p.dirty.panel = true

	case xconn.NetCurrentDesktop:
		active, ok := p.src.Int(root, prop)
		if !ok {
			active = -1
		}
		p.Desktops.SetActive(active)
		p.needLayout = true
		p.dirty.switcher = true
		p.dirty.taskbar = true

	case xconn.NetClientList:
		p.Tasks.FullResync()
		p.needLayout = true
		p.dirty.taskbar = true

	case xconn.NetActiveWindow:
		active, _ := p.src.Window(root, prop)
		p.Tasks.PropagateFocus(active)
		p.dirty.taskbar = true

	case xconn.XRootPmapID:
		p.background, _ = p.src.Pixmap(root, prop)
		p.needLayout = true

	default:
		return false
	}
	return true
}
