package registry

import (
	"slices"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/window"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Sticky is the desktop of windows shown on every desktop.
const Sticky = -1

// Task is a taskbar entry for one client window.
type Task struct {
	Window    xproto.Window
	Name      string
	Desktop   int
	Iconified bool
	Focused   bool
	Icon      window.Icon

	// Set by layout; zero width means not shown.
	X     int
	Width int
}

// OnDesktop reports whether the task is shown while desktop d is active.
func (t *Task) OnDesktop(d int) bool {
	return t.Desktop == d || t.Desktop == Sticky
}

// Tasks keeps tasks sorted by ascending desktop. Tasks on the same desktop
// stay in insertion order.
type Tasks struct {
	items    []*Task
	byWindow map[xproto.Window]*Task

	src        xconn.Source
	cmd        xconn.Commander
	classifier *window.Classifier
	// self is the panel's own window, never tracked.
	self xproto.Window
	log  *zerolog.Logger
}

func NewTasks(src xconn.Source, cmd xconn.Commander, classifier *window.Classifier, self xproto.Window) *Tasks {
	return &Tasks{
		byWindow:   make(map[xproto.Window]*Task),
		src:        src,
		cmd:        cmd,
		classifier: classifier,
		self:       self,
		log:        logger.WithComponent("registry"),
	}
}

// All returns the tasks in order. The slice is owned by the registry.
func (t *Tasks) All() []*Task {
	return t.items
}

func (t *Tasks) Len() int {
	return len(t.items)
}

// Find returns the task for win, or nil.
func (t *Tasks) Find(win xproto.Window) *Task {
	return t.byWindow[win]
}

// Insert classifies win and tracks it. Excluded windows are ignored and
// already tracked ones are returned unchanged.
func (t *Tasks) Insert(win xproto.Window, focused bool) (*Task, bool) {
	if task, ok := t.byWindow[win]; ok {
		return task, true
	}

	info, ok := t.classifier.Classify(win)
	if !ok {
		return nil, false
	}

	task := &Task{
		Window:    win,
		Name:      info.Name,
		Desktop:   info.Desktop,
		Iconified: info.Iconified,
		Focused:   focused,
		Icon:      info.Icon,
	}

	if err := t.cmd.Watch(win); err != nil {
		t.log.Debug().Err(err).Uint32("window", uint32(win)).Msg("Failed to watch window")
	}

	t.insertSorted(task)
	t.byWindow[win] = task

	t.log.Debug().
		Uint32("window", uint32(win)).
		Str("name", task.Name).
		Int("desktop", task.Desktop).
		Msg("Task added")
	return task, true
}

// insertSorted places task before the first task on a greater desktop.
func (t *Tasks) insertSorted(task *Task) {
	i := sort.Search(len(t.items), func(i int) bool {
		return t.items[i].Desktop > task.Desktop
	})
	t.items = slices.Insert(t.items, i, task)
}

func (t *Tasks) index(task *Task) int {
	return slices.Index(t.items, task)
}

// Relocate re-reads the desktop of win and moves its task so the order
// invariant holds. It reports false for untracked windows.
func (t *Tasks) Relocate(win xproto.Window) bool {
	task, ok := t.byWindow[win]
	if !ok {
		return false
	}
	i := t.index(task)
	t.items = slices.Delete(t.items, i, i+1)
	task.Desktop = t.classifier.Desktop(win)
	t.insertSorted(task)
	return true
}

// Remove stops tracking win and releases its icon.
func (t *Tasks) Remove(win xproto.Window) bool {
	task, ok := t.byWindow[win]
	if !ok {
		return false
	}
	i := t.index(task)
	t.items = slices.Delete(t.items, i, i+1)
	delete(t.byWindow, win)
	task.Icon.Release()

	t.log.Debug().Uint32("window", uint32(win)).Msg("Task removed")
	return true
}

// SetIcon replaces the task icon, releasing the previous one.
func (t *Tasks) SetIcon(task *Task, icon window.Icon) {
	old := task.Icon
	task.Icon = icon
	old.Release()
}

// PropagateFocus marks the task of win focused and every other task not.
func (t *Tasks) PropagateFocus(win xproto.Window) {
	for _, task := range t.items {
		task.Focused = task.Window == win
	}
}

// FullResync reconciles the registry with the window manager's client list:
// vanished windows are dropped, focus is recomputed from the input focus and
// new windows are classified and inserted. An absent client list counts as
// empty.
func (t *Tasks) FullResync() {
	root := t.src.Root()
	clients, _ := t.src.Windows(root, xconn.NetClientList)
	focused, _ := t.src.InputFocus()

	present := make(map[xproto.Window]struct{}, len(clients))
	for _, win := range clients {
		present[win] = struct{}{}
	}

	kept := t.items[:0]
	removed := 0
	for _, task := range t.items {
		if _, ok := present[task.Window]; !ok {
			delete(t.byWindow, task.Window)
			task.Icon.Release()
			removed++
			continue
		}
		task.Focused = task.Window == focused
		kept = append(kept, task)
	}
	clear(t.items[len(kept):])
	t.items = kept

	added := 0
	for _, win := range clients {
		if win == t.self {
			continue
		}
		if _, ok := t.byWindow[win]; ok {
			continue
		}
		if _, ok := t.Insert(win, win == focused); ok {
			added++
		}
	}

	t.log.Debug().
		Int("clients", len(clients)).
		Int("added", added).
		Int("removed", removed).
		Int("tasks", len(t.items)).
		Msg("Task list resynchronized")
}

// Close releases every task.
func (t *Tasks) Close() {
	for _, task := range t.items {
		task.Icon.Release()
	}
	t.items = nil
	clear(t.byWindow)
}
