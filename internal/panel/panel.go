// Package panel is the synchronization engine: it owns the desktop and task
// registries, applies window-manager notifications and pointer input to
// them and decides what has to be redrawn.
package panel

import (
	"image"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/gopanel/gopanel/internal/bus"
	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/registry"
	"github.com/gopanel/gopanel/internal/render"
	"github.com/gopanel/gopanel/internal/theme"
	"github.com/gopanel/gopanel/internal/window"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Renderer turns registry contents into pixels.
type Renderer interface {
	Layout(desktops []*registry.Desktop, tasks []*registry.Task, size image.Point)
	Draw(region render.Region, desktops []*registry.Desktop, tasks []*registry.Task)
	Flush() error
	// Tick lets time-driven elements update.
	Tick(now time.Time) render.ClockChange
}

type Options struct {
	Source    xconn.Source
	Commander xconn.Commander
	// Self is the panel window, excluded from the task list.
	Self     xproto.Window
	Theme    *theme.Theme
	Renderer Renderer
	Size     image.Point
	// TickInterval drives the clock; defaults to one second.
	TickInterval time.Duration
}

// dirty records which regions a batch invalidated. Panel supersedes the rest.
type dirty struct {
	panel    bool
	switcher bool
	taskbar  bool
}

func (d dirty) any() bool {
	return d.panel || d.switcher || d.taskbar
}

// Panel is the single owner of all synchronization state. Apart from
// Snapshot and Subscribe, its methods must only be called from the loop
// goroutine.
type Panel struct {
	src        xconn.Source
	cmd        xconn.Commander
	self       xproto.Window
	classifier *window.Classifier
	renderer   Renderer
	size       image.Point
	tick       time.Duration

	Desktops *registry.Desktops
	Tasks    *registry.Tasks

	// background is the root pixmap published by the wallpaper setter.
	background xproto.Pixmap

	dirty      dirty
	needLayout bool
	present    bool

	queries chan func(*Panel)
	hub     *bus.Hub[Snapshot]
	log     *zerolog.Logger
}

func New(opts Options) *Panel {
	policy := window.IconPolicy{}
	if t := opts.Theme; t != nil {
		policy = window.IconPolicy{
			Enabled: t.Icons,
			Width:   t.IconWidth,
			Height:  t.IconHeight,
			Default: t.DefaultIcon,
		}
	}
	classifier := window.NewClassifier(opts.Source, policy)

	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}

	return &Panel{
		src:        opts.Source,
		cmd:        opts.Commander,
		self:       opts.Self,
		classifier: classifier,
		renderer:   opts.Renderer,
		size:       opts.Size,
		tick:       tick,
		Desktops:   registry.NewDesktops(opts.Source, opts.Commander),
		Tasks:      registry.NewTasks(opts.Source, opts.Commander, classifier, opts.Self),
		queries:    make(chan func(*Panel)),
		hub:        bus.NewHub[Snapshot](),
		log:        logger.WithComponent("panel"),
	}
}

// Start populates the registries and paints the whole panel.
func (p *Panel) Start() {
	p.Desktops.Rebuild()
	p.Tasks.FullResync()
	p.background, _ = p.src.Pixmap(p.src.Root(), xconn.XRootPmapID)

	p.needLayout = true
	p.dirty.panel = true
	p.redraw()

	p.log.Info().
		Int("desktops", p.Desktops.Len()).
		Int("tasks", p.Tasks.Len()).
		Msg("Panel started")
}

// Close releases every task. The registries are empty afterwards.
func (p *Panel) Close() {
	p.Tasks.Close()
	p.log.Debug().Msg("Panel state released")
}

// Background is the current root pixmap id, zero if none is published.
func (p *Panel) Background() xproto.Pixmap {
	return p.background
}

// redraw acts on the flags accumulated by a batch and clears them.
func (p *Panel) redraw() {
	desktops, tasks := p.Desktops.All(), p.Tasks.All()

	if p.needLayout {
		p.renderer.Layout(desktops, tasks, p.size)
	}

	d := p.dirty
	switch {
	case d.panel:
		p.renderer.Draw(render.Panel, desktops, tasks)
	default:
		if d.switcher {
			p.renderer.Draw(render.Switcher, desktops, tasks)
		}
		if d.taskbar {
			p.renderer.Draw(render.Taskbar, desktops, tasks)
		}
	}

	if d.any() || p.present {
		if err := p.renderer.Flush(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to present panel")
		}
	}
	if d.any() {
		p.hub.Broadcast(p.snapshot())
	}

	p.dirty = dirty{}
	p.needLayout = false
	p.present = false
}
