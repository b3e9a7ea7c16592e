package models

import (
	"testing"
)

// TestRawRow_ToRecord tests cleaning and conversion of raw CSV rows
func TestRawRow_ToRecord(t *testing.T) {
	tests := []struct {
		name        string
		row         RawRow
		wantErr     bool
		checkValues func(*testing.T, *Record)
	}{
		{
			name: "valid row with comma decimals",
			row: RawRow{
				Region:       "Lima",
				District:     "San Isidro",
				Year:         "2019",
				GPCDomestic:  "0,57",
				QDomestic:    "1234,5",
				QNonDomestic: "321,25",
				QMunicipal:   "1555,75",
			},
			wantErr: false,
			checkValues: func(t *testing.T, r *Record) {
				if r.Region != "LIMA" {
					t.Errorf("Region = %v, want %v", r.Region, "LIMA")
				}
				if r.District != "SAN ISIDRO" {
					t.Errorf("District = %v, want %v", r.District, "SAN ISIDRO")
				}
				if r.Year != 2019 {
					t.Errorf("Year = %v, want %v", r.Year, 2019)
				}
				if r.GPCDomestic != 0.57 {
					t.Errorf("GPCDomestic = %v, want %v", r.GPCDomestic, 0.57)
				}
				if r.QDomestic != 1234.5 {
					t.Errorf("QDomestic = %v, want %v", r.QDomestic, 1234.5)
				}
				if r.QNonDomestic != 321.25 {
					t.Errorf("QNonDomestic = %v, want %v", r.QNonDomestic, 321.25)
				}
				if r.QMunicipal != 1555.75 {
					t.Errorf("QMunicipal = %v, want %v", r.QMunicipal, 1555.75)
				}
			},
		},
		{
			name: "accented names normalize to canonical key",
			row: RawRow{
				Region:       "Junín",
				District:     "  Chupaca  ",
				Year:         "2020",
				GPCDomestic:  "0,4",
				QDomestic:    "10",
				QNonDomestic: "5",
				QMunicipal:   "15",
			},
			wantErr: false,
			checkValues: func(t *testing.T, r *Record) {
				if r.Region != "JUNIN" {
					t.Errorf("Region = %v, want %v", r.Region, "JUNIN")
				}
				if r.District != "CHUPACA" {
					t.Errorf("District = %v, want %v", r.District, "CHUPACA")
				}
			},
		},
		{
			name: "malformed numeric values coerced to zero",
			row: RawRow{
				Region:       "LIMA",
				District:     "ATE",
				Year:         "2021",
				GPCDomestic:  "n/a",
				QDomestic:    "",
				QNonDomestic: "-3,5",
				QMunicipal:   "12,5",
			},
			wantErr: false,
			checkValues: func(t *testing.T, r *Record) {
				if r.GPCDomestic != 0 {
					t.Errorf("GPCDomestic = %v, want 0", r.GPCDomestic)
				}
				if r.QDomestic != 0 {
					t.Errorf("QDomestic = %v, want 0", r.QDomestic)
				}
				if r.QNonDomestic != 0 {
					t.Errorf("QNonDomestic = %v, want 0 for negative input", r.QNonDomestic)
				}
				if r.QMunicipal != 12.5 {
					t.Errorf("QMunicipal = %v, want 12.5", r.QMunicipal)
				}
			},
		},
		{
			name: "non-integer year rejected",
			row: RawRow{
				Region:   "LIMA",
				District: "ATE",
				Year:     "20X9",
			},
			wantErr: true,
		},
		{
			name: "non-positive year rejected",
			row: RawRow{
				Region:   "LIMA",
				District: "ATE",
				Year:     "0",
			},
			wantErr: true,
		},
		{
			name: "empty region rejected",
			row: RawRow{
				Region:   "   ",
				District: "ATE",
				Year:     "2019",
			},
			wantErr: true,
		},
		{
			name: "empty district rejected",
			row: RawRow{
				Region:   "LIMA",
				District: "",
				Year:     "2019",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.row.ToRecord()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToRecord() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

// TestNormalizeName verifies case and accent folding
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lima", "LIMA"},
		{"LIMA", "LIMA"},
		{"LÍMA", "LIMA"},
		{"lima ", "LIMA"},
		{"San  Martín", "SAN MARTIN"},
		{"Huánuco", "HUANUCO"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestParseDecimal verifies locale-formatted numeric cleaning
func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12,5", 12.5},
		{"12.5", 12.5},
		{"0", 0},
		{" 3,25 ", 3.25},
		{"abc", 0},
		{"", 0},
		{"-7,5", 0},
	}

	for _, tt := range tests {
		if got := ParseDecimal(tt.in); got != tt.want {
			t.Errorf("ParseDecimal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestParseMetric covers the metric enumeration
func TestParseMetric(t *testing.T) {
	for _, m := range Metrics() {
		got, err := ParseMetric(string(m))
		if err != nil {
			t.Errorf("ParseMetric(%q) unexpected error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMetric(%q) = %v, want %v", m, got, m)
		}
	}

	if _, err := ParseMetric("bogus"); err == nil {
		t.Error("ParseMetric(bogus) expected error, got nil")
	}
}

// TestMetricYearLabel checks year-qualified display labels
func TestMetricYearLabel(t *testing.T) {
	got := MetricGPCDomestic.YearLabel(2019)
	want := "Per-capita domestic waste 2019 (kg/person/day)"
	if got != want {
		t.Errorf("YearLabel = %q, want %q", got, want)
	}

	got = MetricMunicipal.YearLabel(2021)
	want = "Municipal waste 2021 (t/year)"
	if got != want {
		t.Errorf("YearLabel = %q, want %q", got, want)
	}
}

// TestMetricValueOf checks column extraction
func TestMetricValueOf(t *testing.T) {
	r := &Record{GPCDomestic: 0.5, QDomestic: 10, QNonDomestic: 4, QMunicipal: 14}

	cases := map[Metric]float64{
		MetricGPCDomestic: 0.5,
		MetricDomestic:    10,
		MetricNonDomestic: 4,
		MetricMunicipal:   14,
	}

	for m, want := range cases {
		if got := m.ValueOf(r); got != want {
			t.Errorf("%s.ValueOf = %v, want %v", m, got, want)
		}
	}
}

// TestErrorTypes exercises the three error kinds
func TestErrorTypes(t *testing.T) {
	load := &LoadError{Path: "missing.csv", Err: errFake}
	if load.Unwrap() != errFake {
		t.Error("LoadError.Unwrap should return wrapped error")
	}
	if load.IsTransient() {
		t.Error("LoadError should not be transient")
	}

	val := &ValidationError{Field: "year", Value: "x", Message: "year must be a positive integer"}
	if val.Error() != "year must be a positive integer" {
		t.Errorf("Error() = %v", val.Error())
	}
	if val.IsTransient() {
		t.Error("ValidationError should not be transient")
	}

	gap := &DataGapError{Region: "LIMA", District: "ATE", Year: 2019}
	if gap.Error() != "no data for district ATE in LIMA for year 2019" {
		t.Errorf("Error() = %v", gap.Error())
	}

	gap = &DataGapError{Region: "LIMA", District: "ATE"}
	if gap.Error() != "no data for district ATE in LIMA" {
		t.Errorf("Error() = %v", gap.Error())
	}
}

var errFake = &ValidationError{Message: "fake"}
