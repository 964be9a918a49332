package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo/float"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
)

// SVGOptions controls SVG output.
type SVGOptions struct {
	// Inline drops the XML prolog so the markup can sit inside an HTML page.
	Inline bool
	// AssetBase is prepended to non-inline icon references.
	AssetBase string
	// ID is set on the root element when non-empty.
	ID string
	// Title, when set, is emitted as the document <title>.
	Title string
	// Padding widens the viewBox on every side so outer labels are not clipped.
	Padding float64
}

// DefaultPadding leaves room for labels that extend past the logical canvas.
const DefaultPadding = 32

// RenderSVG writes frame as an SVG document sized to the frame.
func RenderSVG(w io.Writer, frame layout.Frame, opts SVGOptions) error {
	defer metrics.Timer(metrics.SVGRender)()

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Decimals = 3

	vx, vy, vw, vh := 0.0, 0.0, frame.Width, frame.Height
	if p := opts.Padding; p > 0 {
		vx, vy = -p, -p
		vw += 2 * p
		vh += 2 * p
	}
	if opts.ID != "" {
		canvas.Start(vw, vh,
			fmt.Sprintf(`viewBox="%g %g %g %g"`, vx, vy, vw, vh),
			fmt.Sprintf(`id="%s"`, opts.ID))
	} else {
		canvas.Startview(vw, vh, vx, vy, vw, vh)
	}
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	for _, p := range frame.Primitives {
		switch v := p.(type) {
		case layout.CenterMarker:
			drawCenterSVG(canvas, v)
		case layout.Arc:
			canvas.Path(v.Path(), fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linecap:round", css(v.Color), v.Thickness))
		case layout.IconMarker:
			drawIconSVG(canvas, v, opts.AssetBase)
		case layout.Label:
			canvas.Text(v.Position.X, v.Position.Y, v.Text,
				fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif;text-anchor:middle", css(v.Color), v.FontSize))
		}
	}
	canvas.End()

	out := buf.Bytes()
	if opts.Inline {
		out = stripProlog(out)
	}
	_, err := w.Write(out)
	return err
}

func drawCenterSVG(canvas *svg.SVG, c layout.CenterMarker) {
	canvas.Circle(c.Position.X, c.Position.Y, c.Radius, fmt.Sprintf("fill:%s", css(c.Color)))
	if c.Text == "" {
		return
	}
	canvas.Text(c.Position.X, c.Position.Y, c.Text,
		fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif;font-weight:bold;text-anchor:middle;dominant-baseline:central",
			css(c.TextColor), c.FontSize))
}

func drawIconSVG(canvas *svg.SVG, m layout.IconMarker, base string) {
	tl := m.TopLeft()
	size := int(m.Size + 0.5)
	canvas.Group(fmt.Sprintf(`class="icon" data-sector="%d"`, m.Sector))
	canvas.Title(m.Title)
	canvas.Image(tl.X, tl.Y, size, size, m.Icon.Resolve(base))
	canvas.Gend()
}

// stripProlog removes the XML declaration and generator comment that
// precede the <svg> element.
func stripProlog(b []byte) []byte {
	if i := bytes.Index(b, []byte("<svg")); i > 0 {
		return b[i:]
	}
	return b
}

// SVGString renders frame into a string, for templates and the clipboard.
func SVGString(frame layout.Frame, opts SVGOptions) (string, error) {
	var buf bytes.Buffer
	if err := RenderSVG(&buf, frame, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func css(c color.RGBA) string {
	return layout.Hex(c)
}
