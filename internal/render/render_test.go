package render

import (
	"image"
	"testing"
	"time"

	"github.com/gopanel/gopanel/internal/registry"
	"github.com/gopanel/gopanel/internal/theme"
	"github.com/gopanel/gopanel/internal/window"
)

type recordingOutput struct {
	puts []image.Rectangle
}

func (o *recordingOutput) Put(img *image.RGBA, r image.Rectangle) error {
	o.puts = append(o.puts, r)
	return nil
}

var size = image.Pt(800, 24)

func fixture() ([]*registry.Desktop, []*registry.Task) {
	desktops := []*registry.Desktop{
		{Name: "1", Focused: true},
		{Name: "2"},
	}
	tasks := []*registry.Task{
		{Window: 1, Name: "sticky", Desktop: registry.Sticky},
		{Window: 2, Name: "editor", Desktop: 0, Focused: true},
		{Window: 3, Name: "mail", Desktop: 0, Iconified: true},
		{Window: 4, Name: "elsewhere", Desktop: 1},
	}
	return desktops, tasks
}

func newRenderer(out Output) *Renderer {
	r := New(theme.Builtin(), out, size)
	r.clock = "12:00"
	return r
}

func TestLayout(t *testing.T) {
	r := newRenderer(&recordingOutput{})
	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)

	if desktops[0].X != 0 || desktops[0].Width == 0 || desktops[1].X != desktops[0].Width {
		t.Errorf("desktops laid out at %d+%d, %d+%d", desktops[0].X, desktops[0].Width, desktops[1].X, desktops[1].Width)
	}

	switcherEnd := desktops[1].X + desktops[1].Width
	for _, task := range tasks[:3] {
		if task.Width == 0 {
			t.Errorf("task %q on active desktop has no width", task.Name)
		}
		if task.X < switcherEnd {
			t.Errorf("task %q at %d overlaps switcher ending at %d", task.Name, task.X, switcherEnd)
		}
	}
	if tasks[3].Width != 0 {
		t.Errorf("task on inactive desktop has width %d", tasks[3].Width)
	}
	if tasks[1].X != tasks[0].X+tasks[0].Width {
		t.Error("tasks are not laid out contiguously")
	}

	clock := r.areas[theme.Clock]
	if clock.Max.X != size.X || clock.Empty() {
		t.Errorf("clock area = %v, want flush right", clock)
	}
	last := tasks[2]
	if last.X+last.Width > clock.Min.X {
		t.Errorf("taskbar overruns clock: %d > %d", last.X+last.Width, clock.Min.X)
	}
}

func TestLayoutCapsTaskWidth(t *testing.T) {
	th := theme.Builtin()
	th.TaskMaxWidth = 100
	r := New(th, &recordingOutput{}, size)

	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)
	if tasks[0].Width != 100 {
		t.Errorf("task width = %d, want capped at 100", tasks[0].Width)
	}
}

func TestLayoutWithoutActiveDesktop(t *testing.T) {
	r := newRenderer(&recordingOutput{})
	desktops, tasks := fixture()
	desktops[0].Focused = false
	r.Layout(desktops, tasks, size)

	if tasks[0].Width == 0 {
		t.Error("sticky task hidden when no desktop is active")
	}
	for _, task := range tasks[1:] {
		if task.Width != 0 {
			t.Errorf("task %q shown without an active desktop", task.Name)
		}
	}
}

func TestDrawAndFlush(t *testing.T) {
	out := &recordingOutput{}
	r := newRenderer(out)
	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)

	if err := r.Flush(); err != nil || len(out.puts) != 0 {
		t.Fatalf("Flush() with nothing drawn put %v (err %v)", out.puts, err)
	}

	r.Draw(Panel, desktops, tasks)
	if err := r.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(out.puts) != 1 || out.puts[0] != (image.Rectangle{Max: size}) {
		t.Fatalf("panel flush = %v, want whole panel", out.puts)
	}

	r.Draw(Taskbar, desktops, tasks)
	r.Flush()
	if got := out.puts[1]; got != r.areas[theme.Taskbar] {
		t.Errorf("taskbar flush = %v, want %v", got, r.areas[theme.Taskbar])
	}

	r.Draw(Switcher, desktops, tasks)
	r.Draw(Taskbar, desktops, tasks)
	r.Flush()
	want := r.areas[theme.Switcher].Union(r.areas[theme.Taskbar])
	if got := out.puts[2]; got != want {
		t.Errorf("combined flush = %v, want %v", got, want)
	}
}

func TestDrawFocusedTask(t *testing.T) {
	r := newRenderer(&recordingOutput{})
	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)
	r.Draw(Panel, desktops, tasks)

	focused := tasks[1]
	got := r.Canvas().RGBAAt(focused.X+focused.Width-3, size.Y/2)
	if got != r.theme.Colors.Focused {
		t.Errorf("focused task background = %v, want %v", got, r.theme.Colors.Focused)
	}
	plain := tasks[2]
	got = r.Canvas().RGBAAt(plain.X+plain.Width-3, size.Y/2)
	if got != r.theme.Colors.Background {
		t.Errorf("unfocused task background = %v, want %v", got, r.theme.Colors.Background)
	}
}

func TestDrawIcon(t *testing.T) {
	r := newRenderer(&recordingOutput{})
	desktops, tasks := fixture()
	icon := image.NewRGBA(image.Rect(0, 0, 16, 16))
	red := r.theme.Colors.Focused
	red.R ^= 0xff
	for i := range icon.Pix {
		icon.Pix[i] = []uint8{red.R, red.G, red.B, red.A}[i%4]
	}
	tasks[2].Icon = window.Shared(icon)

	r.Layout(desktops, tasks, size)
	r.Draw(Taskbar, desktops, tasks)

	x := tasks[2].X + 1 + r.theme.Padding + 8
	if got := r.Canvas().RGBAAt(x, size.Y/2); got != red {
		t.Errorf("icon pixel = %v, want %v", got, red)
	}
}

func TestTick(t *testing.T) {
	out := &recordingOutput{}
	r := newRenderer(out)
	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)

	noon := time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC)
	if got := r.Tick(noon); got != ClockSame {
		t.Errorf("Tick() = %v without a change, want ClockSame", got)
	}
	if got := r.Tick(noon.Add(time.Minute)); got != ClockRedrawn {
		t.Errorf("Tick() = %v after the minute changed, want ClockRedrawn", got)
	}
	r.Flush()
	if len(out.puts) != 1 || out.puts[0] != r.areas[theme.Clock] {
		t.Errorf("clock flush = %v, want %v", out.puts, r.areas[theme.Clock])
	}
}

func TestTickWithoutClock(t *testing.T) {
	th := theme.Builtin()
	th.Elements = []theme.Element{theme.Switcher, theme.Taskbar}
	r := New(th, &recordingOutput{}, size)
	if got := r.Tick(time.Now().Add(time.Hour)); got != ClockSame {
		t.Errorf("Tick() = %v for a theme without a clock, want ClockSame", got)
	}
}

func TestTickResized(t *testing.T) {
	th := theme.Builtin()
	th.ClockFormat = "3:04"
	out := &recordingOutput{}
	r := New(th, out, size)
	r.clock = "9:59"
	desktops, tasks := fixture()
	r.Layout(desktops, tasks, size)
	r.Flush()
	out.puts = nil

	ten := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := r.Tick(ten); got != ClockResized {
		t.Fatalf("Tick() = %v when the text widened, want ClockResized", got)
	}
	if r.clock != "10:00" {
		t.Errorf("clock = %q, want 10:00", r.clock)
	}
	r.Flush()
	if len(out.puts) != 0 {
		t.Errorf("Tick() drew into the old clock area: %v", out.puts)
	}

	r.Layout(desktops, tasks, size)
	if got := r.areas[theme.Clock].Dx(); got < r.textWidth("10:00") {
		t.Errorf("clock area width = %d after relayout, want at least %d", got, r.textWidth("10:00"))
	}
}

func TestFit(t *testing.T) {
	r := newRenderer(&recordingOutput{})
	if got := r.fit("short", 200); got != "short" {
		t.Errorf("fit() = %q, want unchanged", got)
	}
	got := r.fit("a rather long window title", 70)
	if r.textWidth(got) > 70 || len(got) < 3 || got[len(got)-2:] != ".." {
		t.Errorf("fit() = %q", got)
	}
	if got := r.fit("abc", 1); got != "" {
		t.Errorf("fit() into 1px = %q, want empty", got)
	}
}
