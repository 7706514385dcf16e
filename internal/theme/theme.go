// Package theme loads panel themes: geometry, colors, element order and
// taskbar icon settings read from a theme directory.
package theme

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the theme description inside a theme directory.
const FileName = "theme.yaml"

var (
	ErrNotFound = errors.New("theme not found")
	ErrInvalid  = errors.New("invalid theme")
)

type Placement string

const (
	Top    Placement = "top"
	Bottom Placement = "bottom"
)

type Alignment string

const (
	Left   Alignment = "left"
	Center Alignment = "center"
	Right  Alignment = "right"
)

// Element is a panel section.
type Element string

const (
	Switcher Element = "switcher"
	Taskbar  Element = "taskbar"
	Clock    Element = "clock"
)

// Colors used by the renderer.
type Colors struct {
	Background     color.RGBA
	Text           color.RGBA
	Focused        color.RGBA
	FocusedText    color.RGBA
	Iconified      color.RGBA
	DesktopFocused color.RGBA
	Separator      color.RGBA
}

type Theme struct {
	Name string
	Dir  string

	Placement Placement
	Alignment Alignment
	// Width is pixels, or a percentage of the work area with WidthPercent.
	// Zero spans the whole work area.
	Width        int
	WidthPercent bool
	Height       int
	// HeightOverride reserves a different strut height than Height.
	HeightOverride int

	Elements []Element

	Icons       bool
	IconWidth   int
	IconHeight  int
	DefaultIcon image.Image
	// TaskMaxWidth caps a single taskbar button.
	TaskMaxWidth int
	Padding      int

	ClockFormat string
	Colors      Colors
}

// file mirrors theme.yaml.
type file struct {
	Placement      string   `mapstructure:"placement"`
	Alignment      string   `mapstructure:"alignment"`
	Width          int      `mapstructure:"width"`
	WidthType      string   `mapstructure:"width_type"`
	Height         int      `mapstructure:"height"`
	HeightOverride int      `mapstructure:"height_override"`
	Padding        int      `mapstructure:"padding"`
	Elements       []string `mapstructure:"elements"`

	Taskbar struct {
		Icons       bool   `mapstructure:"icons"`
		IconWidth   int    `mapstructure:"icon_width"`
		IconHeight  int    `mapstructure:"icon_height"`
		DefaultIcon string `mapstructure:"default_icon"`
		MaxWidth    int    `mapstructure:"max_width"`
	} `mapstructure:"taskbar"`

	Clock struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"clock"`

	Colors map[string]string `mapstructure:"colors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("placement", string(Bottom))
	v.SetDefault("alignment", string(Center))
	v.SetDefault("width", 0)
	v.SetDefault("width_type", "pixels")
	v.SetDefault("height", 24)
	v.SetDefault("padding", 4)
	v.SetDefault("elements", []string{string(Switcher), string(Taskbar), string(Clock)})
	v.SetDefault("taskbar.icons", true)
	v.SetDefault("taskbar.icon_width", 16)
	v.SetDefault("taskbar.icon_height", 16)
	v.SetDefault("taskbar.max_width", 200)
	v.SetDefault("clock.format", "15:04")
	for name, value := range defaultColors {
		v.SetDefault("colors."+name, value)
	}
}

var defaultColors = map[string]string{
	"background":      "#1c1c1c",
	"text":            "#c8c8c8",
	"focused":         "#3c5a78",
	"focused_text":    "#ffffff",
	"iconified":       "#707070",
	"desktop_focused": "#3c5a78",
	"separator":       "#383838",
}

// Load reads dir/theme.yaml. The theme name is the directory base name.
func Load(dir string) (*Theme, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	t, err := fromFile(filepath.Base(dir), dir, f)
	if err != nil {
		return nil, err
	}
	return t, t.Validate()
}

// Builtin is used when no theme directory exists for the default theme.
func Builtin() *Theme {
	v := viper.New()
	setDefaults(v)
	var f file
	_ = v.Unmarshal(&f)
	t, _ := fromFile("builtin", "", f)
	return t
}

func fromFile(name, dir string, f file) (*Theme, error) {
	t := &Theme{
		Name:           name,
		Dir:            dir,
		Placement:      Placement(strings.ToLower(f.Placement)),
		Alignment:      Alignment(strings.ToLower(f.Alignment)),
		Width:          f.Width,
		WidthPercent:   strings.EqualFold(f.WidthType, "percent"),
		Height:         f.Height,
		HeightOverride: f.HeightOverride,
		Icons:          f.Taskbar.Icons,
		IconWidth:      f.Taskbar.IconWidth,
		IconHeight:     f.Taskbar.IconHeight,
		TaskMaxWidth:   f.Taskbar.MaxWidth,
		Padding:        f.Padding,
		ClockFormat:    f.Clock.Format,
	}

	for _, e := range f.Elements {
		t.Elements = append(t.Elements, Element(strings.ToLower(e)))
	}

	colors := map[string]*color.RGBA{
		"background":      &t.Colors.Background,
		"text":            &t.Colors.Text,
		"focused":         &t.Colors.Focused,
		"focused_text":    &t.Colors.FocusedText,
		"iconified":       &t.Colors.Iconified,
		"desktop_focused": &t.Colors.DesktopFocused,
		"separator":       &t.Colors.Separator,
	}
	for key, dst := range colors {
		value, ok := f.Colors[key]
		if !ok {
			value = defaultColors[key]
		}
		c, err := ParseColor(value)
		if err != nil {
			return nil, fmt.Errorf("%w: colors.%s: %v", ErrInvalid, key, err)
		}
		*dst = c
	}

	if t.Icons {
		icon, err := loadDefaultIcon(dir, f.Taskbar.DefaultIcon)
		if err != nil {
			return nil, err
		}
		if icon == nil {
			icon = placeholderIcon(t.IconWidth, t.IconHeight, t.Colors.Iconified)
		}
		t.DefaultIcon = icon
	}

	return t, nil
}

func loadDefaultIcon(dir, name string) (image.Image, error) {
	if name == "" {
		return nil, nil
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	fh, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: default icon: %v", ErrInvalid, err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: default icon %s: %v", ErrInvalid, name, err)
	}
	return img, nil
}

// placeholderIcon is a framed square used when a theme ships no default icon.
func placeholderIcon(w, h int, c color.RGBA) image.Image {
	if w <= 0 || h <= 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.SetRGBA(x, 0, c)
		img.SetRGBA(x, h-1, c)
	}
	for y := 0; y < h; y++ {
		img.SetRGBA(0, y, c)
		img.SetRGBA(w-1, y, c)
	}
	return img
}

// Validate rejects themes the panel cannot lay out.
func (t *Theme) Validate() error {
	switch t.Placement {
	case Top, Bottom:
	default:
		return fmt.Errorf("%w: placement %q", ErrInvalid, t.Placement)
	}
	switch t.Alignment {
	case Left, Center, Right:
	default:
		return fmt.Errorf("%w: alignment %q", ErrInvalid, t.Alignment)
	}
	if t.Height <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrInvalid)
	}
	if t.Width < 0 || (t.WidthPercent && t.Width > 100) {
		return fmt.Errorf("%w: width %d", ErrInvalid, t.Width)
	}
	if t.HeightOverride < 0 {
		return fmt.Errorf("%w: height_override %d", ErrInvalid, t.HeightOverride)
	}
	if t.Icons && (t.IconWidth <= 0 || t.IconHeight <= 0) {
		return fmt.Errorf("%w: icon size %dx%d", ErrInvalid, t.IconWidth, t.IconHeight)
	}
	for _, e := range t.Elements {
		switch e {
		case Switcher, Taskbar, Clock:
		default:
			return fmt.Errorf("%w: unknown element %q", ErrInvalid, e)
		}
	}
	return nil
}

// Has reports whether the element is part of the layout.
func (t *Theme) Has(e Element) bool {
	return slices.Contains(t.Elements, e)
}

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}
