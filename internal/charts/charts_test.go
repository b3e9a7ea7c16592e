package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-platform/internal/models"
	"waste-platform/internal/services"
)

func TestVariationBar(t *testing.T) {
	result := &services.VariationResult{
		Region:     "LIMA",
		Metric:     models.MetricMunicipal,
		StartYear:  2019,
		EndYear:    2020,
		StartLabel: "Municipal waste 2019 (t/year)",
		EndLabel:   "Municipal waste 2020 (t/year)",
		Rows: []models.VariationRow{
			{District: "ATE", StartValue: 100, EndValue: 150, PercentChange: 50},
			{District: "LINCE", StartValue: 100, EndValue: 50, PercentChange: -50},
		},
	}

	spec := VariationBar(result)

	assert.Equal(t, TypeBar, spec.Type)
	assert.True(t, spec.ShowGrid)
	require.Len(t, spec.Series, 1)
	require.Len(t, spec.Series[0].Points, 2)

	// Increases are green, decreases red
	up := spec.Series[0].Points[0]
	assert.Equal(t, "ATE", up.Label)
	assert.Equal(t, 50.0, up.Y)
	assert.Equal(t, "#2ecc71", up.Color)

	down := spec.Series[0].Points[1]
	assert.Equal(t, "#e74c3c", down.Color)

	// Tooltips carry the year-qualified endpoint values
	assert.Equal(t, "50.00", up.Tooltip["Change (%)"])
	assert.Equal(t, "100.000", up.Tooltip["Municipal waste 2019 (t/year)"])
	assert.Equal(t, "150.000", up.Tooltip["Municipal waste 2020 (t/year)"])
}

func TestCorrelationScatter(t *testing.T) {
	result := &services.CorrelationResult{
		Region:  "LIMA",
		Year:    2019,
		XMetric: models.MetricDomestic,
		YMetric: models.MetricGPCDomestic,
		XLabel:  "Domestic waste 2019 (t/year)",
		YLabel:  "Per-capita domestic waste 2019 (kg/person/day)",
		Points: []services.CorrelationPoint{
			{District: "ATE", X: 80, Y: 1.0},
			{District: "LINCE", X: 70, Y: 0.1},
		},
	}

	spec := CorrelationScatter(result)

	assert.Equal(t, TypeScatter, spec.Type)
	require.Len(t, spec.Series[0].Points, 2)

	// The largest magnitude lands on the darkest palette step
	strongest := spec.Series[0].Points[0]
	assert.Equal(t, "#084594", strongest.Color)
	weakest := spec.Series[0].Points[1]
	assert.NotEqual(t, strongest.Color, weakest.Color)

	assert.Equal(t, "Domestic waste 2019 (t/year)", spec.XAxis)
}

func TestCorrelationScatter_AllZero(t *testing.T) {
	result := &services.CorrelationResult{
		Region:  "LIMA",
		Year:    2019,
		XMetric: models.MetricDomestic,
		YMetric: models.MetricGPCDomestic,
		Points: []services.CorrelationPoint{
			{District: "ATE", X: 0, Y: 0},
		},
	}

	spec := CorrelationScatter(result)
	assert.Equal(t, magnitudePalette[0], spec.Series[0].Points[0].Color)
}

func TestTrendLine(t *testing.T) {
	result := &services.TrendResult{
		Region:   "LIMA",
		District: "ATE",
		Metric:   models.MetricGPCDomestic,
		Label:    "Per-capita domestic waste (kg/person/day)",
		Points: []services.TrendPoint{
			{Year: 2019, Value: 0.515},
			{Year: 2020, Value: 0.6},
		},
	}

	spec := TrendLine(result)

	assert.Equal(t, TypeLine, spec.Type)
	require.Len(t, spec.Series[0].Points, 2)
	assert.Equal(t, 2019.0, spec.Series[0].Points[0].X)
	assert.Equal(t, 0.52, spec.Series[0].Points[0].Y)
	assert.Equal(t, "Per-capita domestic waste (kg/person/day)", spec.YAxis)
}

func TestCompositionPie(t *testing.T) {
	result := &services.CompositionResult{
		Region:           "LIMA",
		District:         "ATE",
		Year:             2019,
		Domestic:         75,
		NonDomestic:      25,
		Total:            100,
		DomesticShare:    75,
		NonDomesticShare: 25,
	}

	spec := CompositionPie(result)

	assert.Equal(t, TypePie, spec.Type)
	assert.True(t, spec.ShowLegend)
	require.Len(t, spec.Series[0].Points, 2)

	domestic := spec.Series[0].Points[0]
	nonDomestic := spec.Series[0].Points[1]
	assert.Equal(t, 100.0, domestic.Y+nonDomestic.Y)
	assert.Equal(t, "#3498db", domestic.Color)
	assert.Equal(t, "#e67e22", nonDomestic.Color)
	assert.Equal(t, "100.00", domestic.Tooltip["Total (t/year)"])
}
