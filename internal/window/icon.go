package window

import (
	"image"
	"image/color"

	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"golang.org/x/image/draw"
)

// IconKind tells who owns a task's icon image.
type IconKind uint8

const (
	// NoIcon means the task shows no image.
	NoIcon IconKind = iota
	// OwnedIcon images were produced for one task and die with it.
	OwnedIcon
	// SharedIcon is the theme's default image, never released by a task.
	SharedIcon
)

func (k IconKind) String() string {
	switch k {
	case OwnedIcon:
		return "owned"
	case SharedIcon:
		return "shared"
	default:
		return "none"
	}
}

// Icon is a tagged image reference. The zero value is NoIcon.
type Icon struct {
	kind IconKind
	img  image.Image
}

// Owned wraps an image the holder is responsible for releasing.
func Owned(img image.Image) Icon {
	if img == nil {
		return Icon{}
	}
	return Icon{kind: OwnedIcon, img: img}
}

// Shared wraps the theme default image.
func Shared(img image.Image) Icon {
	if img == nil {
		return Icon{}
	}
	return Icon{kind: SharedIcon, img: img}
}

func (i Icon) Kind() IconKind     { return i.kind }
func (i Icon) Image() image.Image { return i.img }

// destroyer is implemented by images backed by server-side resources.
type destroyer interface {
	Destroy()
}

// Release frees an owned image and resets the icon to NoIcon. Shared images
// are left alone. Releasing twice is a no-op.
func (i *Icon) Release() {
	if i.kind == OwnedIcon {
		if d, ok := i.img.(destroyer); ok {
			d.Destroy()
		}
	}
	*i = Icon{}
}

// Scale resamples src into a new w×h image.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// ParseNetIcons splits a _NET_WM_ICON value into its entries: width,
// height, then width*height ARGB pixels each. Parsing stops at the first
// entry whose size is zero or runs past the data.
func ParseNetIcons(data []uint) []ewmh.WmIcon {
	var icons []ewmh.WmIcon
	for len(data) >= 2 {
		w, h := data[0], data[1]
		avail := uint(len(data) - 2)
		if w == 0 || h == 0 || w > avail || h > avail/w {
			break
		}
		n := w * h
		icons = append(icons, ewmh.WmIcon{Width: w, Height: h, Data: data[2 : 2+n]})
		data = data[2+n:]
	}
	return icons
}

// DecodeNetIcon picks the entry of a _NET_WM_ICON value closest to w×h: the
// smallest one covering the area, or the largest when all are smaller.
func DecodeNetIcon(data []uint, w, h int) (image.Image, bool) {
	best := xgraphics.FindBestEwmhIcon(w, h, ParseNetIcons(data))
	if best == nil {
		return nil, false
	}

	bw, bh := int(best.Width), int(best.Height)
	img := image.NewNRGBA(image.Rect(0, 0, bw, bh))
	for i, argb := range best.Data {
		img.Set(i%bw, i/bw, color.NRGBA{
			R: uint8(argb >> 16),
			G: uint8(argb >> 8),
			B: uint8(argb),
			A: uint8(argb >> 24),
		})
	}
	return img, true
}
