package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-platform/internal/loader"
	"waste-platform/internal/models"
	"waste-platform/internal/repository"
	"waste-platform/internal/services"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// One collector per test binary; promauto registers globally.
var testMetrics = metrics.NewCollector("handlers_test")

const sampleCSV = "DEPARTAMENTO;DISTRITO;PERIODO;GPC_DOM;QRESIDUOS_DOM;QRESIDUOS_NO_DOM;QRESIDUOS_MUN\n" +
	"LIMA;ATE;2019;0,5;75;25;100\n" +
	"LIMA;ATE;2020;0,6;90;30;150\n" +
	"LIMA;LINCE;2019;0,4;70;15;100\n" +
	"LIMA;LINCE;2020;0,5;40;10;50\n" +
	"TACNA;TACNA;2019;0,3;40;10;50\n"

func newTestRouter(t *testing.T) *mux.Router {
	return newTestRouterWithArchive(t, nil)
}

func newTestRouterWithArchive(t *testing.T, archive repository.WasteRepository) *mux.Router {
	t.Helper()

	path := filepath.Join(t.TempDir(), "waste.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.FatalLevel)
	logger.SetOutput(io.Discard)

	base := loader.NewLoader(logger, testMetrics)
	cached := loader.NewCachedLoader(base, logger, testMetrics)
	dashboard := services.NewDashboardService(cached, path, logger, testMetrics)

	handler := NewDashboardHandler(dashboard, archive, 0, logger, testMetrics)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

// fakeArchive is an in-memory WasteRepository for exercising the
// archive-backed endpoints without a database.
type fakeArchive struct {
	records []*models.Record
}

func (f *fakeArchive) CreateRecordsBatch(ctx context.Context, records []*models.Record) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeArchive) GetRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.Record, int, error) {
	matched := make([]*models.Record, 0)
	for _, r := range f.records {
		if filter.Region != nil && r.Region != models.NormalizeName(*filter.Region) {
			continue
		}
		if filter.District != nil && r.District != models.NormalizeName(*filter.District) {
			continue
		}
		if filter.Year != nil && r.Year != *filter.Year {
			continue
		}
		matched = append(matched, r)
	}

	total := len(matched)
	if filter.Offset >= len(matched) {
		return []*models.Record{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeArchive) GetRecord(ctx context.Context, region, district string, year int) (*models.Record, error) {
	for _, r := range f.records {
		if r.Region == models.NormalizeName(region) && r.District == models.NormalizeName(district) && r.Year == year {
			return r, nil
		}
	}
	return nil, &repository.NotFoundError{
		Resource: "waste_record",
		ID:       fmt.Sprintf("%s:%s:%d", region, district, year),
	}
}

func (f *fakeArchive) ListRegions(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	regions := make([]string, 0)
	for _, r := range f.records {
		if !seen[r.Region] {
			seen[r.Region] = true
			regions = append(regions, r.Region)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

func (f *fakeArchive) YearlySummary(ctx context.Context, region string) ([]*repository.RegionYearSummary, error) {
	key := models.NormalizeName(region)
	byYear := make(map[int][]*models.Record)
	for _, r := range f.records {
		if r.Region == key {
			byYear[r.Year] = append(byYear[r.Year], r)
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	summaries := make([]*repository.RegionYearSummary, 0, len(years))
	for _, y := range years {
		rows := byYear[y]
		districts := make(map[string]bool)
		var sumGPC, totalMunicipal float64
		for _, r := range rows {
			districts[r.District] = true
			sumGPC += r.GPCDomestic
			totalMunicipal += r.QMunicipal
		}
		summaries = append(summaries, &repository.RegionYearSummary{
			Region:         key,
			Year:           y,
			DistrictCount:  len(districts),
			AvgGPCDomestic: sumGPC / float64(len(rows)),
			TotalMunicipal: totalMunicipal,
		})
	}
	return summaries, nil
}

func (f *fakeArchive) HealthCheck(ctx context.Context) error {
	return nil
}

func seededArchive() *fakeArchive {
	return &fakeArchive{records: []*models.Record{
		{Region: "LIMA", District: "ATE", Year: 2019, GPCDomestic: 0.5, QDomestic: 75, QNonDomestic: 25, QMunicipal: 100},
		{Region: "LIMA", District: "ATE", Year: 2020, GPCDomestic: 0.6, QDomestic: 90, QNonDomestic: 30, QMunicipal: 150},
		{Region: "LIMA", District: "LINCE", Year: 2019, GPCDomestic: 0.25, QDomestic: 60, QNonDomestic: 20, QMunicipal: 80},
	}}
}

func doGet(t *testing.T, router *mux.Router, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(into))
}

func TestGetRegions(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Regions []string `json:"regions"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"LIMA", "TACNA"}, body.Regions)
}

func TestGetYearsAndDistricts(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/regions/lima/years")
	require.Equal(t, http.StatusOK, rec.Code)

	var years struct {
		Region string `json:"region"`
		Years  []int  `json:"years"`
	}
	decode(t, rec, &years)
	assert.Equal(t, "LIMA", years.Region)
	assert.Equal(t, []int{2019, 2020}, years.Years)

	rec = doGet(t, router, "/api/regions/LIMA/districts")
	require.Equal(t, http.StatusOK, rec.Code)

	var districts struct {
		Districts []string `json:"districts"`
	}
	decode(t, rec, &districts)
	assert.Equal(t, []string{"ATE", "LINCE"}, districts.Districts)

	// Unknown region is a client error
	rec = doGet(t, router, "/api/regions/NOWHERE/years")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVariation(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/variation?region=LIMA&metric=q_mun&start_year=2019&end_year=2020")
	require.Equal(t, http.StatusOK, rec.Code)

	var body VariationResponse
	decode(t, rec, &body)

	require.Len(t, body.Result.Rows, 2)
	assert.Equal(t, "ATE", body.Result.Rows[0].District)
	assert.Equal(t, 50.0, body.Result.Rows[0].PercentChange)
	assert.Equal(t, -50.0, body.Result.Rows[1].PercentChange)

	require.NotNil(t, body.Chart)
	assert.Equal(t, "bar", body.Chart.Type)
	require.Len(t, body.Chart.Series, 1)
	assert.Equal(t, "#2ecc71", body.Chart.Series[0].Points[0].Color)
	assert.Equal(t, "#e74c3c", body.Chart.Series[0].Points[1].Color)
}

func TestGetVariation_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing region", "/api/variation?start_year=2019&end_year=2020", http.StatusBadRequest},
		{"missing years", "/api/variation?region=LIMA", http.StatusBadRequest},
		{"reversed years", "/api/variation?region=LIMA&start_year=2020&end_year=2019", http.StatusBadRequest},
		{"equal years", "/api/variation?region=LIMA&start_year=2019&end_year=2019", http.StatusBadRequest},
		{"bad metric", "/api/variation?region=LIMA&metric=bogus&start_year=2019&end_year=2020", http.StatusBadRequest},
		{"non-integer year", "/api/variation?region=LIMA&start_year=abc&end_year=2020", http.StatusBadRequest},
		{"single-year region", "/api/variation?region=TACNA&start_year=2019&end_year=2020", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, router, tt.url)
			assert.Equal(t, tt.code, rec.Code)

			var body ErrorResponse
			decode(t, rec, &body)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestGetTrend(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/trend?region=LIMA&district=ATE")
	require.Equal(t, http.StatusOK, rec.Code)

	var body TrendResponse
	decode(t, rec, &body)
	require.Len(t, body.Result.Points, 2)
	assert.Equal(t, "line", body.Chart.Type)

	// A district with no rows is a data gap, flagged as a warning
	rec = doGet(t, router, "/api/trend?region=LIMA&district=SURCO")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var gap ErrorResponse
	decode(t, rec, &gap)
	assert.True(t, gap.Warning)
	assert.Contains(t, gap.Message, "SURCO")
}

func TestGetComposition(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/composition?region=LIMA&district=ATE&year=2019")
	require.Equal(t, http.StatusOK, rec.Code)

	var body CompositionResponse
	decode(t, rec, &body)
	assert.Equal(t, 100.0, body.Result.Total)
	assert.Equal(t, 75.0, body.Result.DomesticShare)
	assert.Equal(t, "pie", body.Chart.Type)

	// Missing year for a known district
	rec = doGet(t, router, "/api/composition?region=LIMA&district=ATE&year=2023")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var gap ErrorResponse
	decode(t, rec, &gap)
	assert.True(t, gap.Warning)
}

func TestGetCorrelation(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/correlation?region=LIMA&year=2019")
	require.Equal(t, http.StatusOK, rec.Code)

	var body CorrelationResponse
	decode(t, rec, &body)
	require.Len(t, body.Result.Points, 2)
	assert.Equal(t, "q_dom", string(body.Result.XMetric))
	assert.Equal(t, "gpc_dom", string(body.Result.YMetric))
	assert.Equal(t, "scatter", body.Chart.Type)

	// A year with no rows is a validation error
	rec = doGet(t, router, "/api/correlation?region=LIMA&year=2030")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordsEndpointRequiresArchive(t *testing.T) {
	router := newTestRouter(t)

	// No archive repository was wired, so the routes must not exist
	rec := doGet(t, router, "/api/records")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, router, "/api/summary?region=LIMA")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArchivedRecords(t *testing.T) {
	router := newTestRouterWithArchive(t, seededArchive())

	rec := doGet(t, router, "/api/records?district=ate")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []*models.Record `json:"data"`
		Total      int              `json:"total"`
		Page       int              `json:"page"`
		TotalPages int              `json:"total_pages"`
	}
	decode(t, rec, &body)

	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 1, body.TotalPages)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "ATE", body.Data[0].District)
}

func TestGetArchivedRecord(t *testing.T) {
	router := newTestRouterWithArchive(t, seededArchive())

	rec := doGet(t, router, "/api/records/lima/ate/2019")
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.Record
	decode(t, rec, &record)
	assert.Equal(t, "ATE", record.District)
	assert.Equal(t, 100.0, record.QMunicipal)

	// Absent observation
	rec = doGet(t, router, "/api/records/lima/ate/1999")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var gap ErrorResponse
	decode(t, rec, &gap)
	assert.Contains(t, gap.Message, "waste_record")

	// Non-integer year in the path
	rec = doGet(t, router, "/api/records/lima/ate/next")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArchiveSummary(t *testing.T) {
	router := newTestRouterWithArchive(t, seededArchive())

	rec := doGet(t, router, "/api/summary?region=lima")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Region  string                          `json:"region"`
		Summary []*repository.RegionYearSummary `json:"summary"`
	}
	decode(t, rec, &body)

	assert.Equal(t, "LIMA", body.Region)
	require.Len(t, body.Summary, 2)
	assert.Equal(t, 2019, body.Summary[0].Year)
	assert.Equal(t, 2, body.Summary[0].DistrictCount)
	assert.Equal(t, 0.375, body.Summary[0].AvgGPCDomestic)
	assert.Equal(t, 180.0, body.Summary[0].TotalMunicipal)
	assert.Equal(t, 2020, body.Summary[1].Year)
	assert.Equal(t, 1, body.Summary[1].DistrictCount)

	// Missing region parameter
	rec = doGet(t, router, "/api/summary")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Region absent from the archive is a data gap, flagged as a warning
	rec = doGet(t, router, "/api/summary?region=TACNA")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var gap ErrorResponse
	decode(t, rec, &gap)
	assert.True(t, gap.Warning)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.NotContains(t, body, "archive")
}
