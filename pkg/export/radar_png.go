package export

import (
	"errors"
	"image"
	"image/color"
	"io"
	"io/fs"
	"math"
	"sync"
	"time"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/icon"
	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
)

// DefaultPNGScale renders the 200-unit canvas at 400 pixels.
const DefaultPNGScale = 2

// PNGOptions controls raster output.
type PNGOptions struct {
	Scale      float64     // pixels per canvas unit
	Assets     fs.FS       // where non-inline icons are read from
	Background color.Color // nil leaves the canvas transparent
	Padding    float64     // canvas units added on every side
}

// xform maps canvas units to pixels.
type xform struct {
	scale, pad float64
}

func (t xform) pt(p layout.Point) (float64, float64) {
	return (p.X + t.pad) * t.scale, (p.Y + t.pad) * t.scale
}

func (t xform) len(v float64) float64 { return v * t.scale }

var colorIconPlaceholder = color.RGBA{0xC8, 0xC8, 0xC8, 0xFF}

// RenderPNG rasterizes frame. Vector or unreadable icons are drawn as a
// neutral disc so a missing asset never fails the export.
func RenderPNG(w io.Writer, frame layout.Frame, opts PNGOptions) error {
	dc := rasterize(frame, opts)
	return dc.EncodePNG(w)
}

func rasterize(frame layout.Frame, opts PNGOptions) *gg.Context {
	defer metrics.TimerWithCallback(metrics.PNGRender, func(d time.Duration) {
		debug.LogTiming("export.RenderPNG", d)
	})()

	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultPNGScale
	}
	pad := math.Max(0, opts.Padding)
	t := xform{scale: scale, pad: pad}
	wpx := int((frame.Width+2*pad)*scale + 0.5)
	hpx := int((frame.Height+2*pad)*scale + 0.5)
	dc := gg.NewContext(wpx, hpx)
	if opts.Background != nil {
		dc.SetColor(opts.Background)
		dc.Clear()
	}
	faces := faceCache{t: t}
	defer faces.close()

	for _, p := range frame.Primitives {
		switch v := p.(type) {
		case layout.CenterMarker:
			dc.SetFontFace(faces.get(v.FontSize))
			drawCenterPNG(dc, v, t)
		case layout.Arc:
			drawArcPNG(dc, v, t)
		case layout.IconMarker:
			drawIconPNG(dc, v, t, opts.Assets)
		case layout.Label:
			x, y := t.pt(v.Position)
			dc.SetFontFace(faces.get(v.FontSize))
			dc.SetColor(v.Color)
			dc.DrawStringAnchored(v.Text, x, y, 0.5, 0)
		}
	}
	return dc
}

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// faceCache hands out the Go font at a size in canvas units, scaled to
// pixels like everything else, so PNG text tracks the SVG font-size.
type faceCache struct {
	t     xform
	faces map[float64]font.Face
}

func (c *faceCache) get(size float64) font.Face {
	if size <= 0 {
		return basicfont.Face7x13
	}
	if f, ok := c.faces[size]; ok {
		return f
	}
	var face font.Face = basicfont.Face7x13
	if f, err := goRegular(); err != nil {
		debug.Log("export: go font: %v", err)
	} else if ff, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    c.t.len(size),
		DPI:     72,
		Hinting: font.HintingFull,
	}); err == nil {
		face = ff
	}
	if c.faces == nil {
		c.faces = make(map[float64]font.Face)
	}
	c.faces[size] = face
	return face
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
}

func drawArcPNG(dc *gg.Context, a layout.Arc, t xform) {
	// PolarToCartesian subtracts 90 degrees; gg takes raw radians.
	a1 := gg.Radians(a.StartAngle - 90)
	a2 := gg.Radians(a.EndAngle - 90)
	dc.NewSubPath()
	if a1 == a2 {
		x, y := t.pt(layout.PolarToCartesian(a.Center.X, a.Center.Y, a.Radius, a.StartAngle))
		dc.DrawCircle(x, y, t.len(a.Thickness)/2)
		dc.SetColor(a.Color)
		dc.Fill()
		return
	}
	cx, cy := t.pt(a.Center)
	dc.DrawArc(cx, cy, t.len(a.Radius), a1, a2)
	dc.SetLineWidth(t.len(a.Thickness))
	dc.SetLineCapRound()
	dc.SetColor(a.Color)
	dc.Stroke()
}

func drawCenterPNG(dc *gg.Context, c layout.CenterMarker, t xform) {
	x, y := t.pt(c.Position)
	dc.DrawCircle(x, y, t.len(c.Radius))
	dc.SetColor(c.Color)
	dc.Fill()
	if c.Text != "" {
		dc.SetColor(c.TextColor)
		dc.DrawStringAnchored(c.Text, x, y, 0.5, 0.35)
	}
}

func drawIconPNG(dc *gg.Context, m layout.IconMarker, t xform, assets fs.FS) {
	px := int(t.len(m.Size) + 0.5)
	cx, cy := t.pt(m.Position)

	img, err := icon.Load(m.Icon, assets)
	if err != nil || px <= 0 {
		if err != nil && !errors.Is(err, icon.ErrVectorIcon) {
			debug.Log("export: icon %s for sector %d: %v", m.Icon, m.Sector, err)
		}
		dc.DrawCircle(cx, cy, float64(px)/2)
		dc.SetColor(colorIconPlaceholder)
		dc.Fill()
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, px, px))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	dc.DrawImageAnchored(dst, int(cx+0.5), int(cy+0.5), 0.5, 0.5)
}
