package services

import (
	"context"
	"fmt"
	"sort"

	"waste-platform/internal/dataset"
	"waste-platform/internal/loader"
	"waste-platform/internal/models"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// DefaultTopN is the row cap for variation results.
const DefaultTopN = 15

// DashboardService runs the filter/compute stages of the dashboard pipeline
// against the memoized CSV dataset. Every call re-reads the table through
// the cache, so an updated source file is picked up on the next request.
type DashboardService struct {
	loader  *loader.CachedLoader
	path    string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardService creates a new dashboard service over the CSV at path.
func NewDashboardService(cachedLoader *loader.CachedLoader, path string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		loader:  cachedLoader,
		path:    path,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// VariationResult is the top-variation view: per-district percent change of
// one metric between two years, descending, capped.
type VariationResult struct {
	Region     string                `json:"region"`
	Metric     models.Metric         `json:"metric"`
	StartYear  int                   `json:"start_year"`
	EndYear    int                   `json:"end_year"`
	StartLabel string                `json:"start_label"`
	EndLabel   string                `json:"end_label"`
	Rows       []models.VariationRow `json:"rows"`
}

// TrendPoint is one (year, value) observation of a district trend.
type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// TrendResult is one metric across all years for a single district.
type TrendResult struct {
	Region   string        `json:"region"`
	District string        `json:"district"`
	Metric   models.Metric `json:"metric"`
	Label    string        `json:"label"`
	Points   []TrendPoint  `json:"points"`
}

// CompositionResult splits a single record into its domestic and
// non-domestic shares and surfaces their sum as a summary value.
type CompositionResult struct {
	Region           string  `json:"region"`
	District         string  `json:"district"`
	Year             int     `json:"year"`
	Domestic         float64 `json:"domestic"`
	NonDomestic      float64 `json:"non_domestic"`
	Total            float64 `json:"total"`
	DomesticShare    float64 `json:"domestic_share"`     // percent
	NonDomesticShare float64 `json:"non_domestic_share"` // percent
}

// CorrelationPoint is one district's position on two chosen metrics.
type CorrelationPoint struct {
	District string  `json:"district"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// CorrelationResult maps two metrics onto axes for every district of a
// region in one year.
type CorrelationResult struct {
	Region  string             `json:"region"`
	Year    int                `json:"year"`
	XMetric models.Metric      `json:"x_metric"`
	YMetric models.Metric      `json:"y_metric"`
	XLabel  string             `json:"x_label"`
	YLabel  string             `json:"y_label"`
	Points  []CorrelationPoint `json:"points"`
}

// Regions lists the regions present in the dataset.
func (s *DashboardService) Regions(ctx context.Context) ([]string, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return table.Regions(), nil
}

// Years lists the years with data for one region.
func (s *DashboardService) Years(ctx context.Context, region string) ([]int, error) {
	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}
	return filtered.Years(), nil
}

// Districts lists the districts with data for one region.
func (s *DashboardService) Districts(ctx context.Context, region string) ([]string, error) {
	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}
	return filtered.Districts(), nil
}

// TopVariation computes the per-district percent change of metric between
// startYear and endYear within one region, descending, at most limit rows.
// Districts with a zero value at either endpoint are excluded: a zero means
// missing data, not a legitimate measurement. Ties keep original row order.
func (s *DashboardService) TopVariation(ctx context.Context, region string, metric models.Metric, startYear, endYear, limit int) (*VariationResult, error) {
	if startYear >= endYear {
		return nil, &models.ValidationError{
			Field:   "start_year",
			Value:   fmt.Sprintf("%d", startYear),
			Message: fmt.Sprintf("start year %d must be before end year %d", startYear, endYear),
		}
	}
	if limit <= 0 {
		limit = DefaultTopN
	}

	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}

	years := filtered.Years()
	if len(years) < 2 {
		return nil, &models.ValidationError{
			Field:   "region",
			Value:   region,
			Message: fmt.Sprintf("region %s has data for fewer than two years", models.NormalizeName(region)),
		}
	}
	if !containsYear(years, startYear) || !containsYear(years, endYear) {
		return nil, &models.ValidationError{
			Field:   "year",
			Value:   fmt.Sprintf("%d-%d", startYear, endYear),
			Message: fmt.Sprintf("both years must have data for region %s (available: %v)", models.NormalizeName(region), years),
		}
	}

	endValues := make(map[string]float64)
	for _, r := range filtered.ByYear(endYear).Records() {
		if _, ok := endValues[r.District]; !ok {
			endValues[r.District] = metric.ValueOf(r)
		}
	}

	// Inner join on district in start-year row order, so the later stable
	// sort keeps original order for ties
	rows := make([]models.VariationRow, 0)
	seen := make(map[string]bool)
	for _, r := range filtered.ByYear(startYear).Records() {
		if seen[r.District] {
			continue
		}
		seen[r.District] = true

		startValue := metric.ValueOf(r)
		endValue, ok := endValues[r.District]
		if !ok || startValue == 0 || endValue == 0 {
			continue
		}

		rows = append(rows, models.VariationRow{
			District:      r.District,
			StartValue:    startValue,
			EndValue:      endValue,
			PercentChange: (endValue - startValue) / startValue * 100,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PercentChange > rows[j].PercentChange
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	s.logger.Debug(ctx, "[VARIATION_COMPUTED] Top variation computed", logging.Fields{
		"region":     models.NormalizeName(region),
		"metric":     string(metric),
		"start_year": startYear,
		"end_year":   endYear,
		"rows":       len(rows),
	})

	return &VariationResult{
		Region:     models.NormalizeName(region),
		Metric:     metric,
		StartYear:  startYear,
		EndYear:    endYear,
		StartLabel: metric.YearLabel(startYear),
		EndLabel:   metric.YearLabel(endYear),
		Rows:       rows,
	}, nil
}

// Trend returns one metric across all years for a single district, sorted
// by year.
func (s *DashboardService) Trend(ctx context.Context, region, district string, metric models.Metric) (*TrendResult, error) {
	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}

	districtRows := filtered.ByDistrict(district)
	if districtRows.Len() == 0 {
		return nil, &models.DataGapError{
			Region:   models.NormalizeName(region),
			District: models.NormalizeName(district),
		}
	}

	points := make([]TrendPoint, 0, districtRows.Len())
	for _, year := range districtRows.Years() {
		if rec := districtRows.Find(district, year); rec != nil {
			points = append(points, TrendPoint{Year: year, Value: metric.ValueOf(rec)})
		}
	}

	return &TrendResult{
		Region:   models.NormalizeName(region),
		District: models.NormalizeName(district),
		Metric:   metric,
		Label:    fmt.Sprintf("%s (%s)", metric.Label(), metric.Unit()),
		Points:   points,
	}, nil
}

// Composition splits one district/year record into domestic and
// non-domestic proportions plus their sum.
func (s *DashboardService) Composition(ctx context.Context, region, district string, year int) (*CompositionResult, error) {
	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}

	rec := filtered.Find(district, year)
	if rec == nil {
		return nil, &models.DataGapError{
			Region:   models.NormalizeName(region),
			District: models.NormalizeName(district),
			Year:     year,
		}
	}

	total := rec.QDomestic + rec.QNonDomestic
	if total == 0 {
		// Both components zero means the snapshot is missing, not empty
		return nil, &models.DataGapError{
			Region:   models.NormalizeName(region),
			District: models.NormalizeName(district),
			Year:     year,
		}
	}

	return &CompositionResult{
		Region:           rec.Region,
		District:         rec.District,
		Year:             year,
		Domestic:         rec.QDomestic,
		NonDomestic:      rec.QNonDomestic,
		Total:            total,
		DomesticShare:    rec.QDomestic / total * 100,
		NonDomesticShare: rec.QNonDomestic / total * 100,
	}, nil
}

// Correlation maps two chosen metrics to axes for every district of a
// region in one year.
func (s *DashboardService) Correlation(ctx context.Context, region string, year int, xMetric, yMetric models.Metric) (*CorrelationResult, error) {
	filtered, err := s.regionTable(ctx, region)
	if err != nil {
		return nil, err
	}

	yearRows := filtered.ByYear(year)
	if yearRows.Len() == 0 {
		return nil, &models.ValidationError{
			Field:   "year",
			Value:   fmt.Sprintf("%d", year),
			Message: fmt.Sprintf("region %s has no data for year %d", models.NormalizeName(region), year),
		}
	}

	points := make([]CorrelationPoint, 0, yearRows.Len())
	seen := make(map[string]bool)
	for _, r := range yearRows.Records() {
		if seen[r.District] {
			continue
		}
		seen[r.District] = true
		points = append(points, CorrelationPoint{
			District: r.District,
			X:        xMetric.ValueOf(r),
			Y:        yMetric.ValueOf(r),
		})
	}

	return &CorrelationResult{
		Region:  models.NormalizeName(region),
		Year:    year,
		XMetric: xMetric,
		YMetric: yMetric,
		XLabel:  xMetric.YearLabel(year),
		YLabel:  yMetric.YearLabel(year),
		Points:  points,
	}, nil
}

// Invalidate drops the cached dataset, forcing a reread on the next request.
func (s *DashboardService) Invalidate() {
	s.loader.Invalidate(s.path)
}

func (s *DashboardService) table(ctx context.Context) (*dataset.Table, error) {
	result, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return result.Table, nil
}

func (s *DashboardService) regionTable(ctx context.Context, region string) (*dataset.Table, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}

	filtered := table.ByRegion(region)
	if filtered.Len() == 0 {
		return nil, &models.ValidationError{
			Field:   "region",
			Value:   region,
			Message: fmt.Sprintf("no data for region %s", models.NormalizeName(region)),
		}
	}
	return filtered, nil
}

func containsYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}
