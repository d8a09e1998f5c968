package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
)

//go:embed templates/dashboard.html.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(
	template.New("dashboard.html.tmpl").
		Funcs(template.FuncMap{"fmtFloat": fmtFloat, "fmtCoef": fmtCoef}).
		ParseFS(templatesFS, "templates/dashboard.html.tmpl"),
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 720
	chartHeight  = 180
	chartPadding = 28
)

// xy is a point in SVG coordinates.
type xy struct {
	X, Y float64
}

// chart is one series projected onto an SVG canvas. Each segment is a run of
// consecutive valid days; gaps end a segment.
type chart struct {
	Title    string
	Unit     string
	AltUnit  string
	Width    int
	Height   int
	Segments []string
	Dots     []xy
	Min, Max float64
	HasData  bool
	First    string
	Last     string
}

type page struct {
	*Dashboard
	Charts []chart
}

// Render writes the dashboard as a self-contained HTML page.
func Render(w io.Writer, d *Dashboard) error {
	p := page{Dashboard: d}
	for _, s := range []Series{d.Sales, d.Temperature, d.Precipitation, d.Wind} {
		p.Charts = append(p.Charts, project(s, d))
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func project(s Series, d *Dashboard) chart {
	c := chart{
		Title:   s.Name,
		Unit:    s.Unit,
		AltUnit: s.AltUnit,
		Width:   chartWidth,
		Height:  chartHeight,
	}
	if len(d.Axis) > 0 {
		c.First = d.Axis[0].String()
		c.Last = d.Axis[len(d.Axis)-1].String()
	}

	lo, hi, ok := s.Bounds()
	if !ok {
		return c
	}
	c.HasData, c.Min, c.Max = true, lo, hi
	if hi == lo {
		// Flat series draw through the vertical middle.
		lo, hi = lo-1, hi+1
	}

	n := len(s.Points)
	step := 0.0
	if n > 1 {
		step = float64(chartWidth-2*chartPadding) / float64(n-1)
	}
	plotH := float64(chartHeight - 2*chartPadding)

	var seg []string
	flush := func() {
		if len(seg) > 1 {
			c.Segments = append(c.Segments, strings.Join(seg, " "))
		}
		seg = seg[:0]
	}
	for i, p := range s.Points {
		if !p.Valid {
			flush()
			continue
		}
		pt := xy{
			X: float64(chartPadding) + float64(i)*step,
			Y: float64(chartHeight-chartPadding) - (p.Value-lo)/(hi-lo)*plotH,
		}
		c.Dots = append(c.Dots, pt)
		seg = append(seg, fmtFloat(pt.X)+","+fmtFloat(pt.Y))
	}
	flush()
	return c
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func fmtCoef(r *float64) string {
	if r == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*r, 'f', 3, 64)
}
