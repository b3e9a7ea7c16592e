package charts

import (
	"fmt"
	"math"

	"waste-platform/internal/services"
)

// Chart types understood by the front end.
const (
	TypeBar     = "bar"
	TypeScatter = "scatter"
	TypeLine    = "line"
	TypePie     = "pie"
)

// Bar colors for the variation chart: green for an increase, red otherwise.
const (
	colorIncrease = "#2ecc71"
	colorDecrease = "#e74c3c"
)

// Pie slice colors for the domestic / non-domestic split.
const (
	colorDomestic    = "#3498db"
	colorNonDomestic = "#e67e22"
)

// Sequential palette for scatter points, light to dark by magnitude.
var magnitudePalette = []string{
	"#deebf7", "#9ecae1", "#4292c6", "#2171b5", "#084594",
}

// ChartPoint is a single datum of a chart series.
type ChartPoint struct {
	Label   string            `json:"label,omitempty"`
	X       float64           `json:"x,omitempty"`
	Y       float64           `json:"y"`
	Color   string            `json:"color,omitempty"`
	Tooltip map[string]string `json:"tooltip,omitempty"`
}

// ChartSeries groups points under one legend entry.
type ChartSeries struct {
	Name   string       `json:"name"`
	Color  string       `json:"color,omitempty"`
	Points []ChartPoint `json:"points"`
}

// ChartSpec is a renderer-agnostic chart description: the front end maps it
// onto its plotting toolkit. Builders are pure; none hold state between
// calls.
type ChartSpec struct {
	Type       string        `json:"type"`
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis,omitempty"`
	YAxis      string        `json:"y_axis,omitempty"`
	Series     []ChartSeries `json:"series"`
	ShowLegend bool          `json:"show_legend"`
	ShowGrid   bool          `json:"show_grid"`
}

// VariationBar builds the top-variation bar chart. Bars are colored by the
// sign of the percent change; tooltips carry the year-qualified endpoint
// values.
func VariationBar(v *services.VariationResult) *ChartSpec {
	points := make([]ChartPoint, 0, len(v.Rows))
	for _, row := range v.Rows {
		color := colorDecrease
		if row.PercentChange > 0 {
			color = colorIncrease
		}

		points = append(points, ChartPoint{
			Label: row.District,
			Y:     roundTo2(row.PercentChange),
			Color: color,
			Tooltip: map[string]string{
				"District":       row.District,
				"Change (%)":     fmt.Sprintf("%.2f", row.PercentChange),
				v.StartLabel:     fmt.Sprintf("%.3f", row.StartValue),
				v.EndLabel:       fmt.Sprintf("%.3f", row.EndValue),
			},
		})
	}

	return &ChartSpec{
		Type:  TypeBar,
		Title: fmt.Sprintf("Top %d districts of %s: %s variation (%d to %d)", len(points), v.Region, v.Metric.Label(), v.StartYear, v.EndYear),
		XAxis: "District",
		YAxis: fmt.Sprintf("%s change (%%)", v.Metric.Label()),
		Series: []ChartSeries{{
			Name:   "Percent change",
			Points: points,
		}},
		ShowGrid: true,
	}
}

// CorrelationScatter builds the two-metric scatter chart. Point color scales
// with the Y metric's magnitude.
func CorrelationScatter(c *services.CorrelationResult) *ChartSpec {
	maxY := 0.0
	for _, p := range c.Points {
		if abs := math.Abs(p.Y); abs > maxY {
			maxY = abs
		}
	}

	points := make([]ChartPoint, 0, len(c.Points))
	for _, p := range c.Points {
		points = append(points, ChartPoint{
			Label: p.District,
			X:     roundTo2(p.X),
			Y:     roundTo2(p.Y),
			Color: magnitudeColor(p.Y, maxY),
			Tooltip: map[string]string{
				"District": p.District,
				c.XLabel:   fmt.Sprintf("%.3f", p.X),
				c.YLabel:   fmt.Sprintf("%.3f", p.Y),
			},
		})
	}

	return &ChartSpec{
		Type:  TypeScatter,
		Title: fmt.Sprintf("%s vs %s in %s (%d)", c.YMetric.Label(), c.XMetric.Label(), c.Region, c.Year),
		XAxis: c.XLabel,
		YAxis: c.YLabel,
		Series: []ChartSeries{{
			Name:   c.YMetric.Label(),
			Points: points,
		}},
		ShowGrid: true,
	}
}

// TrendLine builds the single-district time-series line chart.
func TrendLine(t *services.TrendResult) *ChartSpec {
	points := make([]ChartPoint, 0, len(t.Points))
	for _, p := range t.Points {
		points = append(points, ChartPoint{
			Label: fmt.Sprintf("%d", p.Year),
			X:     float64(p.Year),
			Y:     roundTo2(p.Value),
		})
	}

	return &ChartSpec{
		Type:  TypeLine,
		Title: fmt.Sprintf("%s in %s (%s) over time", t.Metric.Label(), t.District, t.Region),
		XAxis: "Year",
		YAxis: t.Label,
		Series: []ChartSeries{{
			Name:   t.District,
			Points: points,
		}},
		ShowGrid: true,
	}
}

// CompositionPie builds the domestic vs non-domestic split for one record.
// Slice values are percentage shares; the summed total rides in the tooltip.
func CompositionPie(c *services.CompositionResult) *ChartSpec {
	total := fmt.Sprintf("%.2f t/year", c.Total)

	return &ChartSpec{
		Type:  TypePie,
		Title: fmt.Sprintf("Waste composition of %s (%s), %d: total %s", c.District, c.Region, c.Year, total),
		Series: []ChartSeries{{
			Name: "Composition",
			Points: []ChartPoint{
				{
					Label: "Domestic",
					Y:     roundTo2(c.DomesticShare),
					Color: colorDomestic,
					Tooltip: map[string]string{
						"Share (%)":       fmt.Sprintf("%.2f", c.DomesticShare),
						"Amount (t/year)": fmt.Sprintf("%.2f", c.Domestic),
						"Total (t/year)":  fmt.Sprintf("%.2f", c.Total),
					},
				},
				{
					Label: "Non-domestic",
					Y:     roundTo2(c.NonDomesticShare),
					Color: colorNonDomestic,
					Tooltip: map[string]string{
						"Share (%)":       fmt.Sprintf("%.2f", c.NonDomesticShare),
						"Amount (t/year)": fmt.Sprintf("%.2f", c.NonDomestic),
						"Total (t/year)":  fmt.Sprintf("%.2f", c.Total),
					},
				},
			},
		}},
		ShowLegend: true,
	}
}

// magnitudeColor maps |y| onto the sequential palette.
func magnitudeColor(y, maxY float64) string {
	if maxY == 0 {
		return magnitudePalette[0]
	}

	idx := int(math.Abs(y) / maxY * float64(len(magnitudePalette)))
	if idx >= len(magnitudePalette) {
		idx = len(magnitudePalette) - 1
	}
	return magnitudePalette[idx]
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
