package presentation

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
)

// Glyphs drawn on the map canvas.
const (
	glyphEmpty    = ' '
	glyphRoute    = '•'
	glyphOrigin   = '@'
	glyphSelected = '◆'
)

const markerGlyphs = "123456789abcdefghijklmnopqrstuvwxyz"

// Styles controls how RenderText colours each layer.
type Styles struct {
	SearchBox   lipgloss.Style
	Placeholder lipgloss.Style
	Map         lipgloss.Style
	Route       lipgloss.Style
	Marker      lipgloss.Style
	Selected    lipgloss.Style
	Origin      lipgloss.Style
	Sheet       lipgloss.Style
	SheetTitle  lipgloss.Style
	Muted       lipgloss.Style
	Summary     lipgloss.Style
}

// DefaultStyles returns the terminal palette.
func DefaultStyles() Styles {
	accent := lipgloss.Color("#8BC34A")
	info := lipgloss.Color("#2196F3")
	muted := lipgloss.Color("#7a8595")
	danger := lipgloss.Color("#e53935")

	return Styles{
		SearchBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(info).
			Padding(0, 1),
		Placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
		Map: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(muted),
		Route:    lipgloss.NewStyle().Foreground(info).Bold(true),
		Marker:   lipgloss.NewStyle().Foreground(danger).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(accent).Bold(true).Reverse(true),
		Origin:   lipgloss.NewStyle().Foreground(info).Bold(true),
		Sheet: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		SheetTitle: lipgloss.NewStyle().Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Summary:    lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}

// PlainStyles renders without colours or borders. Useful for logs and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		SearchBox:   plain,
		Placeholder: plain,
		Map:         plain,
		Route:       plain,
		Marker:      plain,
		Selected:    plain,
		Origin:      plain,
		Sheet:       plain,
		SheetTitle:  plain,
		Muted:       plain,
		Summary:     plain,
	}
}

// cell is one character of the map canvas and the style it is drawn with.
type cell struct {
	r     rune
	style *lipgloss.Style
}

// Canvas is a rasterized map layer. Row 0 is the northern edge.
type Canvas struct {
	width, height int
	bound         orb.Bound
	cells         [][]cell
}

// NewCanvas creates an empty canvas covering bound.
func NewCanvas(bound orb.Bound, width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	cells := make([][]cell, height)
	for y := range cells {
		cells[y] = make([]cell, width)
		for x := range cells[y] {
			cells[y][x] = cell{r: glyphEmpty}
		}
	}
	return &Canvas{width: width, height: height, bound: padBound(bound), cells: cells}
}

// padBound widens a degenerate bound (a single point or a straight meridian
// or parallel) so it can be projected.
func padBound(b orb.Bound) orb.Bound {
	const minSpan = 1e-4
	if b.Max.Lon()-b.Min.Lon() < minSpan {
		c := (b.Max.Lon() + b.Min.Lon()) / 2
		b.Min[0], b.Max[0] = c-minSpan/2, c+minSpan/2
	}
	if b.Max.Lat()-b.Min.Lat() < minSpan {
		c := (b.Max.Lat() + b.Min.Lat()) / 2
		b.Min[1], b.Max[1] = c-minSpan/2, c+minSpan/2
	}
	return b
}

// Project maps a coordinate onto the canvas grid. ok is false when the point
// falls outside the camera.
func (c *Canvas) Project(p orb.Point) (x, y int, ok bool) {
	if !c.bound.Contains(p) {
		return 0, 0, false
	}
	fx := (p.Lon() - c.bound.Min.Lon()) / (c.bound.Max.Lon() - c.bound.Min.Lon())
	fy := (c.bound.Max.Lat() - p.Lat()) / (c.bound.Max.Lat() - c.bound.Min.Lat())
	x = int(fx*float64(c.width-1) + 0.5)
	y = int(fy*float64(c.height-1) + 0.5)
	return x, y, true
}

// At returns the rune at x, y.
func (c *Canvas) At(x, y int) rune {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return glyphEmpty
	}
	return c.cells[y][x].r
}

func (c *Canvas) set(x, y int, r rune, style *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = cell{r: r, style: style}
}

// line draws a segment with Bresenham's algorithm. Endpoints may lie outside
// the canvas; only the visible cells are drawn.
func (c *Canvas) line(a, b orb.Point, r rune, style *lipgloss.Style) {
	if !c.bound.Intersects(orb.MultiPoint{a, b}.Bound()) {
		return
	}
	x0, y0 := c.gridUnclamped(a)
	x1, y1 := c.gridUnclamped(b)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for i := 0; i <= dx-dy; i++ {
		c.set(x0, y0, r, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) gridUnclamped(p orb.Point) (int, int) {
	fx := (p.Lon() - c.bound.Min.Lon()) / (c.bound.Max.Lon() - c.bound.Min.Lon())
	fy := (c.bound.Max.Lat() - p.Lat()) / (c.bound.Max.Lat() - c.bound.Min.Lat())
	return int(fx*float64(c.width-1) + 0.5), int(fy*float64(c.height-1) + 0.5)
}

// String renders the canvas, applying cell styles.
func (c *Canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, cl := range row {
			if cl.style != nil {
				b.WriteString(cl.style.Render(string(cl.r)))
				continue
			}
			b.WriteRune(cl.r)
		}
	}
	return b.String()
}

// Rasterize draws the map layers of f: route polyline, result markers and the
// current-location annotation, in that order.
func Rasterize(f Frame, width, height int, styles Styles) *Canvas {
	c := NewCanvas(f.Camera.Bounds.Bound(), width, height)

	if f.Route != nil {
		for i := 1; i < len(f.Route.Polyline); i++ {
			c.line(f.Route.Polyline[i-1].Point(), f.Route.Polyline[i].Point(), glyphRoute, &styles.Route)
		}
	}

	for _, m := range f.Markers {
		x, y, ok := c.Project(m.Coordinate.Point())
		if !ok {
			continue
		}
		if m.Selected {
			c.set(x, y, glyphSelected, &styles.Selected)
			continue
		}
		c.set(x, y, markerGlyph(m.Index), &styles.Marker)
	}

	if x, y, ok := c.Project(f.Origin.Coordinate.Point()); ok {
		c.set(x, y, glyphOrigin, &styles.Origin)
	}
	return c
}

// markerGlyph returns the character used for the result at index.
func markerGlyph(index int) rune {
	if index < 0 || index >= len(markerGlyphs) {
		return '*'
	}
	return rune(markerGlyphs[index])
}

// RenderText lays out the full screen: search box, map, route summary and the
// detail sheet when one is visible.
func RenderText(f Frame, width, height int, styles Styles) string {
	query := f.SearchBox.Text
	if query == "" {
		query = styles.Placeholder.Render(f.SearchBox.Placeholder)
	}
	return RenderWithSearchLine(f, "> "+query, width, height, styles)
}

// RenderWithSearchLine is RenderText with the search box content supplied by
// the caller, e.g. an interactive text input.
func RenderWithSearchLine(f Frame, searchLine string, width, height int, styles Styles) string {
	if width < 20 {
		width = 20
	}
	search := styles.SearchBox.Width(width - 2).Render(searchLine)

	var below []string
	if f.Route != nil {
		below = append(below, styles.Summary.Render(f.Route.Destination+": "+f.Route.Summary))
	}
	if f.Sheet != nil {
		below = append(below, renderSheet(*f.Sheet, width, styles))
	}
	legend := styles.Muted.Render(legendLine(f))
	below = append(below, legend)

	used := lipgloss.Height(search) + lipgloss.Height(strings.Join(below, "\n")) + 2
	mapHeight := height - used
	if mapHeight < 3 {
		mapHeight = 3
	}
	canvas := Rasterize(f, width-2, mapHeight, styles)
	mapView := styles.Map.Render(canvas.String())

	parts := append([]string{search, mapView}, below...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderSheet(s DetailSheet, width int, styles Styles) string {
	lines := []string{styles.SheetTitle.Render(s.Name)}
	if s.Title != "" {
		lines = append(lines, s.Title)
	}
	lines = append(lines, styles.Muted.Render("[d] "+ActionGetDirections+"   [esc] "+ActionDismiss))
	return styles.Sheet.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func legendLine(f Frame) string {
	var b strings.Builder
	b.WriteString(string(glyphOrigin) + " " + f.Origin.Label)
	for _, m := range f.Markers {
		b.WriteString("  ")
		if m.Selected {
			b.WriteRune(glyphSelected)
		} else {
			b.WriteRune(markerGlyph(m.Index))
		}
		b.WriteString(" " + m.Name)
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
