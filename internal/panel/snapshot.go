package panel

import "context"

type DesktopView struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

type TaskView struct {
	Window    uint32 `json:"window"`
	Name      string `json:"name"`
	Desktop   int    `json:"desktop"`
	Iconified bool   `json:"iconified"`
	Focused   bool   `json:"focused"`
	Icon      string `json:"icon"`
}

// Snapshot is a copy of the registries, safe to read from any goroutine.
type Snapshot struct {
	Active   int           `json:"active"`
	Desktops []DesktopView `json:"desktops"`
	Tasks    []TaskView    `json:"tasks"`
}

func (p *Panel) snapshot() Snapshot {
	s := Snapshot{
		Active:   p.Desktops.Active(),
		Desktops: make([]DesktopView, 0, p.Desktops.Len()),
		Tasks:    make([]TaskView, 0, p.Tasks.Len()),
	}
	for i, d := range p.Desktops.All() {
		s.Desktops = append(s.Desktops, DesktopView{Index: i, Name: d.Name, Focused: d.Focused})
	}
	for _, t := range p.Tasks.All() {
		s.Tasks = append(s.Tasks, TaskView{
			Window:    uint32(t.Window),
			Name:      t.Name,
			Desktop:   t.Desktop,
			Iconified: t.Iconified,
			Focused:   t.Focused,
			Icon:      t.Icon.Kind().String(),
		})
	}
	return s
}

// Snapshot asks the loop for a copy of the current state. It blocks until
// the loop answers or ctx ends, so Run must be serving.
func (p *Panel) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := p.do(ctx, func(p *Panel) {
		s = p.snapshot()
	})
	return s, err
}

// Subscribe delivers a snapshot after every batch that changed something.
// Slow subscribers miss intermediate states.
func (p *Panel) Subscribe() (<-chan Snapshot, func()) {
	return p.hub.Subscribe()
}
