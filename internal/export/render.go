package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"waste-platform/internal/services"
)

var (
	barIncrease = color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 255}
	barDecrease = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 255}
	lineBlue    = color.RGBA{R: 0x21, G: 0x71, B: 0xb5, A: 255}
)

// RenderVariationPNG draws the top-variation bar chart to a PNG file.
// Increases and decreases are drawn as two overlaid bar series so each
// keeps its own color.
func RenderVariationPNG(result *services.VariationResult, path string) error {
	if len(result.Rows) == 0 {
		return fmt.Errorf("no variation rows to render")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d districts of %s: %s variation (%d to %d)",
		len(result.Rows), result.Region, result.Metric.Label(), result.StartYear, result.EndYear)
	p.Y.Label.Text = fmt.Sprintf("%s change (%%)", result.Metric.Label())
	p.X.Label.Text = "District"

	increases := make(plotter.Values, len(result.Rows))
	decreases := make(plotter.Values, len(result.Rows))
	names := make([]string, len(result.Rows))
	for i, row := range result.Rows {
		names[i] = row.District
		if row.PercentChange > 0 {
			increases[i] = row.PercentChange
		} else {
			decreases[i] = row.PercentChange
		}
	}

	up, err := plotter.NewBarChart(increases, vg.Points(18))
	if err != nil {
		return fmt.Errorf("building increase bars: %w", err)
	}
	up.Color = barIncrease
	up.LineStyle.Width = 0

	down, err := plotter.NewBarChart(decreases, vg.Points(18))
	if err != nil {
		return fmt.Errorf("building decrease bars: %w", err)
	}
	down.Color = barDecrease
	down.LineStyle.Width = 0

	p.Add(plotter.NewGrid(), up, down)
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}

// RenderTrendPNG draws a single-district time-series line chart to a PNG file.
func RenderTrendPNG(result *services.TrendResult, path string) error {
	if len(result.Points) == 0 {
		return fmt.Errorf("no trend points to render")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s in %s (%s) over time", result.Metric.Label(), result.District, result.Region)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = result.Label

	points := make(plotter.XYs, len(result.Points))
	for i, tp := range result.Points {
		points[i].X = float64(tp.Year)
		points[i].Y = tp.Value
	}

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("building line: %w", err)
	}
	line.Color = lineBlue
	line.Width = vg.Points(2)

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return fmt.Errorf("building markers: %w", err)
	}
	scatter.GlyphStyle.Color = lineBlue
	scatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(plotter.NewGrid(), line, scatter)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}
