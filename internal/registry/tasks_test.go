package registry

import (
	"image"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/gopanel/gopanel/internal/window"
	"github.com/gopanel/gopanel/internal/xconn"
	"github.com/gopanel/gopanel/internal/xconn/xconntest"
)

const (
	winA xproto.Window = 0xa00001
	winB xproto.Window = 0xb00001
	winC xproto.Window = 0xc00001
	winD xproto.Window = 0xd00001

	panelWin xproto.Window = 0xf00001
)

type countingImage struct {
	*image.RGBA
	destroyed int
}

func (c *countingImage) Destroy() { c.destroyed++ }

func newCountingImage() *countingImage {
	return &countingImage{RGBA: image.NewRGBA(image.Rect(0, 0, 1, 1))}
}

func newTasks(f *xconntest.Fake) *Tasks {
	return NewTasks(f, f, window.NewClassifier(f, window.IconPolicy{}), panelWin)
}

func order(tasks *Tasks) []xproto.Window {
	var out []xproto.Window
	for _, task := range tasks.All() {
		out = append(out, task.Window)
	}
	return out
}

func assertOrder(t *testing.T, tasks *Tasks, want ...xproto.Window) {
	t.Helper()
	got := order(tasks)
	if len(got) != len(want) {
		t.Fatalf("order = %x, want %x", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("order = %x, want %x", got, want)
		}
	}
}

func assertSorted(t *testing.T, tasks *Tasks) {
	t.Helper()
	all := tasks.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Desktop > all[i].Desktop {
			t.Fatalf("tasks not sorted by desktop: %d before %d", all[i-1].Desktop, all[i].Desktop)
		}
	}
}

func TestInsertKeepsDesktopOrder(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 1, "B")
	f.AddClient(winC, 0, "C")
	f.AddClient(winD, Sticky, "D")

	tasks := newTasks(f)
	for _, win := range []xproto.Window{winA, winB, winC, winD} {
		if _, ok := tasks.Insert(win, false); !ok {
			t.Fatalf("Insert(%x) excluded", win)
		}
	}

	// Sticky first, then desktop 0 in insertion order, then desktop 1.
	assertOrder(t, tasks, winD, winA, winC, winB)
	assertSorted(t, tasks)

	if len(f.Sent("watch")) != 4 {
		t.Errorf("watched %d windows, want 4", len(f.Sent("watch")))
	}
}

func TestInsertIgnoresExcludedAndDuplicates(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 0, "dock")
	f.Set(winB, xconn.NetWMWindowType, []string{xconn.NetWMWindowTypeDock})

	tasks := newTasks(f)
	first, _ := tasks.Insert(winA, false)
	again, ok := tasks.Insert(winA, true)
	if !ok || again != first {
		t.Error("second Insert should return the tracked task")
	}
	if _, ok := tasks.Insert(winB, false); ok {
		t.Error("dock window was inserted")
	}
	assertOrder(t, tasks, winA)
}

func TestRelocate(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 0, "B")
	f.AddClient(winC, 1, "C")

	tasks := newTasks(f)
	for _, win := range []xproto.Window{winA, winB, winC} {
		tasks.Insert(win, false)
	}

	f.Set(winA, xconn.NetWMDesktop, 1)
	if !tasks.Relocate(winA) {
		t.Fatal("Relocate(A) = false")
	}
	assertOrder(t, tasks, winB, winC, winA)
	if tasks.Find(winA).Desktop != 1 {
		t.Errorf("desktop = %d, want 1", tasks.Find(winA).Desktop)
	}

	f.Set(winC, xconn.NetWMDesktop, Sticky)
	tasks.Relocate(winC)
	assertOrder(t, tasks, winC, winB, winA)
	assertSorted(t, tasks)

	if tasks.Relocate(winD) {
		t.Error("Relocate of untracked window = true")
	}
}

func TestRemoveReleasesOwnedIcon(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 0, "B")

	tasks := newTasks(f)
	a, _ := tasks.Insert(winA, false)
	b, _ := tasks.Insert(winB, false)

	owned := newCountingImage()
	shared := newCountingImage()
	a.Icon = window.Owned(owned)
	b.Icon = window.Shared(shared)

	tasks.Remove(winA)
	tasks.Remove(winB)
	if tasks.Remove(winA) {
		t.Error("second Remove = true")
	}

	if owned.destroyed != 1 {
		t.Errorf("owned icon destroyed %d times, want 1", owned.destroyed)
	}
	if shared.destroyed != 0 {
		t.Errorf("shared icon destroyed %d times, want 0", shared.destroyed)
	}
	if tasks.Len() != 0 || tasks.Find(winA) != nil {
		t.Error("tasks still tracked after Remove")
	}
}

func TestSetIconReleasesPrevious(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	tasks := newTasks(f)
	a, _ := tasks.Insert(winA, false)

	first := newCountingImage()
	second := newCountingImage()
	tasks.SetIcon(a, window.Owned(first))
	tasks.SetIcon(a, window.Owned(second))

	if first.destroyed != 1 || second.destroyed != 0 {
		t.Errorf("destroyed first=%d second=%d, want 1 and 0", first.destroyed, second.destroyed)
	}
	if a.Icon.Image() != image.Image(second) {
		t.Error("task icon not replaced")
	}
}

func TestPropagateFocus(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 0, "B")
	tasks := newTasks(f)
	tasks.Insert(winA, true)
	tasks.Insert(winB, false)

	tasks.PropagateFocus(winB)
	if tasks.Find(winA).Focused || !tasks.Find(winB).Focused {
		t.Error("focus not moved to B")
	}

	tasks.PropagateFocus(0)
	for _, task := range tasks.All() {
		if task.Focused {
			t.Errorf("task %x focused after focus left all tasks", task.Window)
		}
	}
}

func TestFullResync(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 1, "B")
	f.AddClient(panelWin, Sticky, "gopanel")
	f.Focus = winB

	tasks := newTasks(f)
	tasks.FullResync()

	assertOrder(t, tasks, winA, winB)
	if !tasks.Find(winB).Focused || tasks.Find(winA).Focused {
		t.Error("focus not taken from input focus")
	}

	owned := newCountingImage()
	tasks.Find(winA).Icon = window.Owned(owned)

	f.RemoveClient(winA)
	f.AddClient(winC, 0, "C")
	f.Focus = winC
	tasks.FullResync()

	assertOrder(t, tasks, winC, winB)
	if owned.destroyed != 1 {
		t.Errorf("removed task icon destroyed %d times, want 1", owned.destroyed)
	}
	if tasks.Find(winB).Focused || !tasks.Find(winC).Focused {
		t.Error("focus not recomputed on resync")
	}
	assertSorted(t, tasks)
}

type taskState struct {
	window    xproto.Window
	name      string
	desktop   int
	iconified bool
	focused   bool
	icon      window.IconKind
	img       image.Image
}

func stateOf(tasks *Tasks) []taskState {
	var out []taskState
	for _, task := range tasks.All() {
		out = append(out, taskState{
			window:    task.Window,
			name:      task.Name,
			desktop:   task.Desktop,
			iconified: task.Iconified,
			focused:   task.Focused,
			icon:      task.Icon.Kind(),
			img:       task.Icon.Image(),
		})
	}
	return out
}

func TestFullResyncIsIdempotent(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winC, 1, "C")
	f.AddClient(winA, 0, "A")
	f.AddClient(winD, Sticky, "D")
	f.AddClient(winB, 0, "B")
	f.AddClient(panelWin, Sticky, "gopanel")
	f.Set(winB, xconn.WMState, []uint{icccm.StateIconic})
	f.Set(winA, xconn.NetWMIcon, []uint{1, 1, 0xff00ff00})
	f.Focus = winC

	policy := window.IconPolicy{
		Enabled: true,
		Width:   4,
		Height:  4,
		Default: image.NewRGBA(image.Rect(0, 0, 4, 4)),
	}
	tasks := NewTasks(f, f, window.NewClassifier(f, policy), panelWin)

	tasks.FullResync()
	first := stateOf(tasks)
	watches := len(f.Sent("watch"))

	tasks.FullResync()
	second := stateOf(tasks)

	if len(first) != 4 {
		t.Fatalf("first resync tracked %d tasks, want 4", len(first))
	}
	if len(second) != len(first) {
		t.Fatalf("second resync tracked %d tasks, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("task %d changed across resyncs: %+v -> %+v", i, first[i], second[i])
		}
	}
	if got := len(f.Sent("watch")); got != watches {
		t.Errorf("second resync sent %d more watch requests", got-watches)
	}
	assertSorted(t, tasks)
}

func TestFullResyncWithoutClientList(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	tasks := newTasks(f)
	tasks.FullResync()

	f.Delete(f.Root(), xconn.NetClientList)
	tasks.FullResync()
	if tasks.Len() != 0 {
		t.Errorf("Len() = %d, want 0 when the client list vanishes", tasks.Len())
	}
}

func TestFullResyncDuplicateClients(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.Set(f.Root(), xconn.NetClientList, []xproto.Window{winA, winA})

	tasks := newTasks(f)
	tasks.FullResync()
	assertOrder(t, tasks, winA)
}

func TestClose(t *testing.T) {
	f := xconntest.New()
	f.AddClient(winA, 0, "A")
	f.AddClient(winB, 0, "B")
	tasks := newTasks(f)
	tasks.FullResync()

	imgs := []*countingImage{newCountingImage(), newCountingImage()}
	for i, task := range tasks.All() {
		task.Icon = window.Owned(imgs[i])
	}
	tasks.Close()

	for i, img := range imgs {
		if img.destroyed != 1 {
			t.Errorf("icon %d destroyed %d times, want 1", i, img.destroyed)
		}
	}
	if tasks.Len() != 0 || tasks.Find(winA) != nil {
		t.Error("tasks remain after Close")
	}
}
