package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	chartWidth  = 900
	chartHeight = 480
	marginLeft  = 70
	marginRight = 30
	marginTop   = 50
	marginBot   = 70
	glyphWidth  = 7 // basicfont.Face7x13 advance
)

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorAxis       = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorGrid       = color.RGBA{0xe5, 0xe5, 0xe5, 0xff}
	colorBar        = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	colorText       = color.RGBA{0x22, 0x22, 0x22, 0xff}
)

// ErrNoChartData is returned for an empty or mismatched series.
var ErrNoChartData = errors.New("no chart data")

// BarChart renders a vertical bar chart as PNG. Negative values are drawn as
// zero-height bars.
func BarChart(title string, labels []string, values []float64) ([]byte, error) {
	if len(labels) == 0 || len(labels) != len(values) {
		return nil, ErrNoChartData
	}

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	fill(img, img.Bounds(), colorBackground)

	plot := image.Rect(marginLeft, marginTop, chartWidth-marginRight, chartHeight-marginBot)
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	p := message.NewPrinter(language.English)
	const gridLines = 4
	for i := 0; i <= gridLines; i++ {
		y := plot.Max.Y - plot.Dy()*i/gridLines
		fill(img, image.Rect(plot.Min.X, y, plot.Max.X, y+1), colorGrid)
		label := compact(p, peak*float64(i)/gridLines)
		text(img, plot.Min.X-8-len(label)*glyphWidth, y+4, label)
	}
	fill(img, image.Rect(plot.Min.X, plot.Min.Y, plot.Min.X+1, plot.Max.Y), colorAxis)
	fill(img, image.Rect(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y+1), colorAxis)

	slot := max(plot.Dx()/len(values), 1)
	barW := max(slot*7/10, 1)
	// thin labels out when they would overlap
	maxChars := 12
	every := 1
	for every*slot < min(maxChars, longest(labels))*glyphWidth+4 {
		every++
	}

	for i, v := range values {
		x0 := plot.Min.X + i*slot + (slot-barW)/2
		h := int(math.Round(math.Max(v, 0) / peak * float64(plot.Dy())))
		fill(img, image.Rect(x0, plot.Max.Y-h, x0+barW, plot.Max.Y), colorBar)

		if len(values) <= 12 {
			vl := compact(p, v)
			text(img, x0+(barW-len(vl)*glyphWidth)/2, plot.Max.Y-h-4, vl)
		}
		if i%every == 0 {
			l := clip(labels[i], maxChars)
			text(img, x0+(barW-len(l)*glyphWidth)/2, plot.Max.Y+18, l)
		}
	}

	text(img, (chartWidth-len(title)*glyphWidth)/2, marginTop/2+4, title)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func text(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// compact renders axis and bar values: 1.2M, 45.3K, 3.21.
func compact(p *message.Printer, v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return p.Sprintf("%.1fM", v/1e6)
	case a >= 1e4:
		return p.Sprintf("%.1fK", v/1e3)
	case a >= 100:
		return p.Sprintf("%.0f", v)
	default:
		return p.Sprintf("%.2f", v)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func longest(labels []string) int {
	n := 0
	for _, l := range labels {
		n = max(n, len([]rune(l)))
	}
	return n
}
