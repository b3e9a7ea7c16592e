package models

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Record represents one (region, district, year) waste-generation observation.
// Region and district are stored normalized (uppercase, diacritics stripped).
// Numeric fields are non-negative after cleaning; a zero value means the
// measurement is missing, not that zero waste was generated.
type Record struct {
	Region       string  `json:"region" db:"region"`
	District     string  `json:"district" db:"district"`
	Year         int     `json:"year" db:"year"`
	GPCDomestic  float64 `json:"gpc_domestic" db:"gpc_domestic"`     // kg/person/day
	QDomestic    float64 `json:"q_domestic" db:"q_domestic"`         // tonnes/year
	QNonDomestic float64 `json:"q_non_domestic" db:"q_non_domestic"` // tonnes/year
	QMunicipal   float64 `json:"q_municipal" db:"q_municipal"`       // tonnes/year
}

// VariationRow is one row of a top-variation result: the percent change of a
// metric for a district between two years. Computed on demand, never persisted.
type VariationRow struct {
	District      string  `json:"district"`
	StartValue    float64 `json:"start_value"`
	EndValue      float64 `json:"end_value"`
	PercentChange float64 `json:"percent_change"`
}

// Metric identifies one of the four numeric columns of a Record.
type Metric string

const (
	MetricGPCDomestic Metric = "gpc_dom"
	MetricDomestic    Metric = "q_dom"
	MetricNonDomestic Metric = "q_nondom"
	MetricMunicipal   Metric = "q_mun"
)

// Metrics lists all valid metrics in display order.
func Metrics() []Metric {
	return []Metric{MetricGPCDomestic, MetricDomestic, MetricNonDomestic, MetricMunicipal}
}

// ParseMetric maps a request string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricGPCDomestic:
		return MetricGPCDomestic, nil
	case MetricDomestic:
		return MetricDomestic, nil
	case MetricNonDomestic:
		return MetricNonDomestic, nil
	case MetricMunicipal:
		return MetricMunicipal, nil
	}
	return "", &ValidationError{
		Field:   "metric",
		Value:   s,
		Message: fmt.Sprintf("unknown metric %q, expected one of gpc_dom, q_dom, q_nondom, q_mun", s),
	}
}

// Label returns the human-readable name of the metric.
func (m Metric) Label() string {
	switch m {
	case MetricGPCDomestic:
		return "Per-capita domestic waste"
	case MetricDomestic:
		return "Domestic waste"
	case MetricNonDomestic:
		return "Non-domestic waste"
	case MetricMunicipal:
		return "Municipal waste"
	default:
		return string(m)
	}
}

// Unit returns the measurement unit of the metric.
func (m Metric) Unit() string {
	if m == MetricGPCDomestic {
		return "kg/person/day"
	}
	return "t/year"
}

// YearLabel returns the year-qualified display label used for computed
// columns, e.g. "Per-capita domestic waste 2019 (kg/person/day)".
func (m Metric) YearLabel(year int) string {
	return fmt.Sprintf("%s %d (%s)", m.Label(), year, m.Unit())
}

// ValueOf extracts the metric's value from a record.
func (m Metric) ValueOf(r *Record) float64 {
	switch m {
	case MetricGPCDomestic:
		return r.GPCDomestic
	case MetricDomestic:
		return r.QDomestic
	case MetricNonDomestic:
		return r.QNonDomestic
	case MetricMunicipal:
		return r.QMunicipal
	default:
		return 0
	}
}

// stripDiacritics removes combining marks after NFD decomposition.
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName maps a region or district name to its canonical key:
// trimmed, uppercased, diacritics stripped, inner whitespace collapsed.
// "Lima", "LIMA" and "LÍMA" all normalize to "LIMA".
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if stripped, _, err := transform.String(stripDiacritics, s); err == nil {
		s = stripped
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// ParseDecimal parses a locale-formatted numeric string. Comma decimal
// separators are normalized to periods first. Anything that still fails to
// parse, and any negative value, is coerced to zero rather than reported as
// an error.
func ParseDecimal(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// RawRow represents a single data line from the input CSV before cleaning.
type RawRow struct {
	Region       string
	District     string
	Year         string
	GPCDomestic  string
	QDomestic    string
	QNonDomestic string
	QMunicipal   string
}

// ToRecord converts a RawRow into a validated Record: names normalized,
// the year cast to a positive integer, and numeric fields cleaned.
func (r *RawRow) ToRecord() (*Record, error) {
	year, err := strconv.Atoi(strings.TrimSpace(r.Year))
	if err != nil || year <= 0 {
		return nil, &ValidationError{
			Field:   "year",
			Value:   r.Year,
			Message: "year must be a positive integer",
		}
	}

	region := NormalizeName(r.Region)
	if region == "" {
		return nil, &ValidationError{
			Field:   "region",
			Value:   r.Region,
			Message: "region must not be empty",
		}
	}

	district := NormalizeName(r.District)
	if district == "" {
		return nil, &ValidationError{
			Field:   "district",
			Value:   r.District,
			Message: "district must not be empty",
		}
	}

	return &Record{
		Region:       region,
		District:     district,
		Year:         year,
		GPCDomestic:  ParseDecimal(r.GPCDomestic),
		QDomestic:    ParseDecimal(r.QDomestic),
		QNonDomestic: ParseDecimal(r.QNonDomestic),
		QMunicipal:   ParseDecimal(r.QMunicipal),
	}, nil
}
