package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/Jaylorddeguzman/importer/internal/tui/styles"
)

// Plot draws geographic points as a Braille scatter plot. Each terminal cell
// holds a 2x4 grid of dots.
type Plot struct {
	width  int
	height int
	points orb.MultiPoint
	bound  orb.Bound
}

func NewPlot(width, height int) Plot {
	return Plot{width: width, height: height}
}

func (p *Plot) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetPoints replaces the plotted points and refits the viewport around them.
func (p *Plot) SetPoints(points orb.MultiPoint) {
	p.points = points
	if len(points) == 0 {
		p.bound = orb.Bound{}
		return
	}
	b := points.Bound()
	pad := math.Max(math.Max(b.Max.X()-b.Min.X(), b.Max.Y()-b.Min.Y())*0.05, 0.01)
	p.bound = b.Pad(pad)
}

// dot bit for each (row, col) position inside a Braille cell
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func (p Plot) View() string {
	if p.width <= 0 || p.height <= 0 {
		return ""
	}
	blank := strings.Repeat(strings.Repeat(" ", p.width)+"\n", p.height-1) + strings.Repeat(" ", p.width)
	if len(p.points) == 0 {
		return blank
	}

	dotW, dotH := p.width*2, p.height*4
	lngRange := p.bound.Max.X() - p.bound.Min.X()
	latRange := p.bound.Max.Y() - p.bound.Min.Y()
	if lngRange <= 0 || latRange <= 0 {
		return blank
	}

	// a degree of longitude shrinks with latitude; Braille dots are roughly square
	cosLat := math.Cos(p.bound.Center().Y() * math.Pi / 180)
	geoAspect := lngRange * cosLat / latRange

	effW, effH := dotW, dotH
	offX, offY := 0, 0
	if geoAspect < float64(dotW)/float64(dotH) {
		effW = max(int(float64(dotH)*geoAspect), 2)
		offX = (dotW - effW) / 2
	} else {
		effH = max(int(float64(dotW)/geoAspect), 4)
		offY = (dotH - effH) / 2
	}

	cells := make([][]rune, p.height)
	for i := range cells {
		cells[i] = make([]rune, p.width)
	}
	for _, pt := range p.points {
		x := offX + int((pt.X()-p.bound.Min.X())/lngRange*float64(effW-1))
		y := offY + int((p.bound.Max.Y()-pt.Y())/latRange*float64(effH-1))
		if x < 0 || x >= dotW || y < 0 || y >= dotH {
			continue
		}
		cells[y/4][x/2] |= brailleBits[y%4][x%2]
	}

	pointStyle := lipgloss.NewStyle().Foreground(styles.Success)
	var sb strings.Builder
	for row, line := range cells {
		for _, bits := range line {
			if bits == 0 {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteString(pointStyle.Render(string(0x2800 + bits)))
		}
		if row < len(cells)-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}
