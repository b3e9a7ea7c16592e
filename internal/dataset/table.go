package dataset

import (
	"sort"

	"waste-platform/internal/models"
)

// Table is an immutable in-memory collection of waste records. Filter
// methods return new Tables sharing the same backing records; callers must
// treat records as read-only.
type Table struct {
	records []*models.Record
}

// NewTable creates a table over the given records.
func NewTable(records []*models.Record) *Table {
	return &Table{records: records}
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the backing record slice. Read-only.
func (t *Table) Records() []*models.Record {
	return t.records
}

// ByRegion narrows the table to one region. The argument is normalized
// before matching, so "Lima" and "LIMA" select the same rows.
func (t *Table) ByRegion(region string) *Table {
	key := models.NormalizeName(region)
	return t.filter(func(r *models.Record) bool { return r.Region == key })
}

// ByDistrict narrows the table to one district.
func (t *Table) ByDistrict(district string) *Table {
	key := models.NormalizeName(district)
	return t.filter(func(r *models.Record) bool { return r.District == key })
}

// ByYear narrows the table to one year.
func (t *Table) ByYear(year int) *Table {
	return t.filter(func(r *models.Record) bool { return r.Year == year })
}

// Regions returns the distinct regions in the table, sorted.
func (t *Table) Regions() []string {
	return t.distinctStrings(func(r *models.Record) string { return r.Region })
}

// Districts returns the distinct districts in the table, sorted.
func (t *Table) Districts() []string {
	return t.distinctStrings(func(r *models.Record) string { return r.District })
}

// Years returns the distinct years in the table, ascending.
func (t *Table) Years() []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, r := range t.records {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Find returns the first record for a district and year, or nil.
func (t *Table) Find(district string, year int) *models.Record {
	key := models.NormalizeName(district)
	for _, r := range t.records {
		if r.District == key && r.Year == year {
			return r
		}
	}
	return nil
}

func (t *Table) filter(keep func(*models.Record) bool) *Table {
	out := make([]*models.Record, 0, len(t.records))
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{records: out}
}

func (t *Table) distinctStrings(key func(*models.Record) string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, r := range t.records {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			values = append(values, k)
		}
	}
	sort.Strings(values)
	return values
}
