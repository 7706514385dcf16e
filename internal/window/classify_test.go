package window

import (
	"image"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/gopanel/gopanel/internal/xconn"
	"github.com/gopanel/gopanel/internal/xconn/xconntest"
)

const win xproto.Window = 0x400001

// fakeHintImage counts Destroy calls like an xgraphics.Image would need.
type fakeHintImage struct {
	*image.RGBA
	destroyed int
}

func (f *fakeHintImage) Destroy() { f.destroyed++ }

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  string
	}{
		{
			name:  "visible icon name wins",
			props: map[string]string{xconn.NetWMVisibleIconName: "vis-icon", xconn.NetWMName: "net", xconn.WMName: "legacy"},
			want:  "vis-icon",
		},
		{
			name:  "icon names before window names",
			props: map[string]string{xconn.WMIconName: "term", xconn.NetWMName: "Terminal - ~/src"},
			want:  "term",
		},
		{
			name:  "empty values are skipped",
			props: map[string]string{xconn.NetWMIconName: "", xconn.NetWMVisibleName: "visible"},
			want:  "visible",
		},
		{
			name:  "legacy name last",
			props: map[string]string{xconn.WMName: "xterm"},
			want:  "xterm",
		},
		{
			name:  "placeholder when nothing is set",
			props: map[string]string{},
			want:  Placeholder,
		},
		{
			name:  "placeholder when everything is empty",
			props: map[string]string{xconn.NetWMName: "", xconn.WMName: ""},
			want:  Placeholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := xconntest.New()
			for prop, v := range tt.props {
				f.Set(win, prop, v)
			}
			c := NewClassifier(f, IconPolicy{})
			if got := c.DisplayName(win); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVisibility(t *testing.T) {
	tests := []struct {
		name   string
		types  []string
		states []string
		want   Visibility
	}{
		{name: "plain window", want: Normal},
		{name: "normal type", types: []string{"_NET_WM_WINDOW_TYPE_NORMAL"}, want: Normal},
		{name: "dock", types: []string{xconn.NetWMWindowTypeDock}, want: Excluded},
		{name: "desktop", types: []string{xconn.NetWMWindowTypeDesktop}, want: Excluded},
		{name: "only first type counts", types: []string{"_NET_WM_WINDOW_TYPE_NORMAL", xconn.NetWMWindowTypeDock}, want: Normal},
		{name: "skip taskbar", states: []string{xconn.NetWMStateHidden, xconn.NetWMStateSkipTaskbar}, want: Excluded},
		{name: "hidden alone is visible", states: []string{xconn.NetWMStateHidden}, want: Normal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := xconntest.New()
			if tt.types != nil {
				f.Set(win, xconn.NetWMWindowType, tt.types)
			}
			if tt.states != nil {
				f.Set(win, xconn.NetWMState, tt.states)
			}
			c := NewClassifier(f, IconPolicy{})
			if got := c.Visibility(win); got != tt.want {
				t.Errorf("Visibility() = %v, want %v", got, tt.want)
			}
			if _, ok := c.Classify(win); ok != (tt.want == Normal) {
				t.Errorf("Classify() ok = %v, want %v", ok, tt.want == Normal)
			}
		})
	}
}

func TestIconified(t *testing.T) {
	tests := []struct {
		name    string
		wmState []uint
		states  []string
		want    bool
	}{
		{name: "no state", want: false},
		{name: "normal state", wmState: []uint{1, 0}, want: false},
		{name: "iconic state", wmState: []uint{3, 0}, want: true},
		{name: "hidden flag", states: []string{xconn.NetWMStateHidden}, want: true},
		{name: "either source suffices", wmState: []uint{1}, states: []string{xconn.NetWMStateHidden}, want: true},
		{name: "empty state list", wmState: []uint{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := xconntest.New()
			if tt.wmState != nil {
				f.Set(win, xconn.WMState, tt.wmState)
			}
			if tt.states != nil {
				f.Set(win, xconn.NetWMState, tt.states)
			}
			c := NewClassifier(f, IconPolicy{})
			if got := c.Iconified(win); got != tt.want {
				t.Errorf("Iconified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDesktop(t *testing.T) {
	f := xconntest.New()
	c := NewClassifier(f, IconPolicy{})

	if got := c.Desktop(win); got != 0 {
		t.Errorf("unset desktop = %d, want 0", got)
	}
	f.Set(win, xconn.NetWMDesktop, 2)
	if got := c.Desktop(win); got != 2 {
		t.Errorf("desktop = %d, want 2", got)
	}
	f.Set(win, xconn.NetWMDesktop, -1)
	if got := c.Desktop(win); got != -1 {
		t.Errorf("sticky desktop = %d, want -1", got)
	}
}

func TestIconResolution(t *testing.T) {
	def := image.NewRGBA(image.Rect(0, 0, 16, 16))
	policy := IconPolicy{Enabled: true, Width: 16, Height: 16, Default: def}

	t.Run("disabled", func(t *testing.T) {
		f := xconntest.New()
		f.Set(win, xconn.NetWMIcon, []uint{1, 1, 0xffffffff})
		c := NewClassifier(f, IconPolicy{Width: 16, Height: 16, Default: def})
		if got := c.Icon(win); got.Kind() != NoIcon {
			t.Errorf("Kind() = %v, want none", got.Kind())
		}
	})

	t.Run("icon data", func(t *testing.T) {
		f := xconntest.New()
		f.Set(win, xconn.NetWMIcon, []uint{2, 2, 0xffff0000, 0xffff0000, 0xffff0000, 0xffff0000})
		got := NewClassifier(f, policy).Icon(win)
		if got.Kind() != OwnedIcon {
			t.Fatalf("Kind() = %v, want owned", got.Kind())
		}
		if b := got.Image().Bounds(); b.Dx() != 16 || b.Dy() != 16 {
			t.Errorf("icon size = %v, want 16x16", b.Size())
		}
	})

	t.Run("hint pixmap released after scaling", func(t *testing.T) {
		f := xconntest.New()
		hint := &fakeHintImage{RGBA: image.NewRGBA(image.Rect(0, 0, 32, 32))}
		f.HintIcons[win] = hint
		got := NewClassifier(f, policy).Icon(win)
		if got.Kind() != OwnedIcon {
			t.Fatalf("Kind() = %v, want owned", got.Kind())
		}
		if hint.destroyed != 1 {
			t.Errorf("source destroyed %d times, want 1", hint.destroyed)
		}
		if got.Image() == image.Image(hint) {
			t.Error("icon should be a scaled copy, not the source")
		}
	})

	t.Run("malformed icon data falls back", func(t *testing.T) {
		f := xconntest.New()
		f.Set(win, xconn.NetWMIcon, []uint{64, 64, 1, 2, 3})
		got := NewClassifier(f, policy).Icon(win)
		if got.Kind() != SharedIcon || got.Image() != image.Image(def) {
			t.Errorf("Icon() = %v, want shared default", got.Kind())
		}
	})

	t.Run("no default", func(t *testing.T) {
		f := xconntest.New()
		p := policy
		p.Default = nil
		if got := NewClassifier(f, p).Icon(win); got.Kind() != NoIcon {
			t.Errorf("Kind() = %v, want none", got.Kind())
		}
	})
}

func TestClassify(t *testing.T) {
	f := xconntest.New()
	f.AddClient(win, 1, "editor")
	f.Set(win, xconn.WMState, []uint{3})

	info, ok := NewClassifier(f, IconPolicy{}).Classify(win)
	if !ok {
		t.Fatal("Classify() excluded a normal window")
	}
	want := Info{Name: "editor", Desktop: 1, Iconified: true}
	if info != want {
		t.Errorf("Classify() = %+v, want %+v", info, want)
	}
}
