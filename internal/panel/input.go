package panel

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gopanel/gopanel/internal/registry"
	"github.com/gopanel/gopanel/internal/xconn"
)

// buttonIconifyAll is the right mouse button.
const buttonIconifyAll = 3

// activeDesktop reads the current desktop from the window manager, falling
// back to the registry when the property is missing.
func (p *Panel) activeDesktop() int {
	if d, ok := p.src.Int(p.src.Root(), xconn.NetCurrentDesktop); ok {
		return d
	}
	return p.Desktops.Active()
}

// handleButton turns a press into window-manager commands. Local state is
// updated optimistically and corrected by the notifications that follow.
func (p *Panel) handleButton(ev xconn.ButtonEvent) {
	active := p.activeDesktop()

	if ev.Button == buttonIconifyAll {
		p.iconifyAll(active)
		return
	}

	for i, d := range p.Desktops.All() {
		if ev.X > d.X && ev.X < d.X+d.Width {
			if !d.Focused && i != active {
				p.Desktops.RequestSwitch(i)
			}
			break
		}
	}

	hit := false
	for _, t := range p.Tasks.All() {
		if t.OnDesktop(active) && ev.X > t.X && ev.X < t.X+t.Width {
			p.activate(t)
			hit = true
		} else if t.Desktop == active {
			t.Focused = false
		}
	}
	if hit {
		p.dirty.taskbar = true
	}
}

// activate toggles a clicked task: restore an iconified one, iconify a
// focused one, focus anything else.
func (p *Panel) activate(t *registry.Task) {
	switch {
	case t.Iconified:
		t.Iconified = false
		t.Focused = true
		p.command("activate", t.Window, p.cmd.Activate)
	case t.Focused:
		t.Iconified = true
		t.Focused = false
		p.command("iconify", t.Window, p.cmd.Iconify)
	default:
		t.Focused = true
		p.command("activate", t.Window, p.cmd.Activate)
		p.command("raise", t.Window, p.cmd.Raise)
	}
}

func (p *Panel) iconifyAll(active int) {
	for _, t := range p.Tasks.All() {
		if !t.OnDesktop(active) {
			continue
		}
		t.Iconified = true
		t.Focused = false
		p.command("iconify", t.Window, p.cmd.Iconify)
	}
	p.dirty.taskbar = true
}

func (p *Panel) command(name string, win xproto.Window, fn func(xproto.Window) error) {
	if err := fn(win); err != nil {
		p.log.Warn().
			Err(err).
			Str("command", name).
			Uint32("window", uint32(win)).
			Msg("Window manager command failed")
	}
}
