package dataset

import (
	"reflect"
	"testing"

	"waste-platform/internal/models"
)

func testTable() *Table {
	return NewTable([]*models.Record{
		{Region: "LIMA", District: "ATE", Year: 2019, GPCDomestic: 0.5},
		{Region: "LIMA", District: "ATE", Year: 2020, GPCDomestic: 0.6},
		{Region: "LIMA", District: "MIRAFLORES", Year: 2019, GPCDomestic: 0.8},
		{Region: "CUSCO", District: "WANCHAQ", Year: 2020, GPCDomestic: 0.4},
	})
}

func TestTable_Filters(t *testing.T) {
	tbl := testTable()

	if got := tbl.ByRegion("lima").Len(); got != 3 {
		t.Errorf("ByRegion(lima).Len() = %d, want 3", got)
	}
	if got := tbl.ByRegion("Líma").Len(); got != 3 {
		t.Errorf("ByRegion(Líma).Len() = %d, want 3 (accents normalized)", got)
	}
	if got := tbl.ByDistrict("ate").Len(); got != 2 {
		t.Errorf("ByDistrict(ate).Len() = %d, want 2", got)
	}
	if got := tbl.ByYear(2019).Len(); got != 2 {
		t.Errorf("ByYear(2019).Len() = %d, want 2", got)
	}
	if got := tbl.ByRegion("LIMA").ByYear(2020).Len(); got != 1 {
		t.Errorf("chained filter Len() = %d, want 1", got)
	}
	if got := tbl.ByRegion("AMAZONAS").Len(); got != 0 {
		t.Errorf("unknown region Len() = %d, want 0", got)
	}
}

func TestTable_Distinct(t *testing.T) {
	tbl := testTable()

	if got := tbl.Regions(); !reflect.DeepEqual(got, []string{"CUSCO", "LIMA"}) {
		t.Errorf("Regions() = %v", got)
	}
	if got := tbl.ByRegion("LIMA").Districts(); !reflect.DeepEqual(got, []string{"ATE", "MIRAFLORES"}) {
		t.Errorf("Districts() = %v", got)
	}
	if got := tbl.Years(); !reflect.DeepEqual(got, []int{2019, 2020}) {
		t.Errorf("Years() = %v", got)
	}
}

func TestTable_Find(t *testing.T) {
	tbl := testTable()

	rec := tbl.Find("Ate", 2020)
	if rec == nil {
		t.Fatal("Find(Ate, 2020) = nil")
	}
	if rec.GPCDomestic != 0.6 {
		t.Errorf("GPCDomestic = %v, want 0.6", rec.GPCDomestic)
	}

	if tbl.Find("ATE", 1999) != nil {
		t.Error("Find for absent year should be nil")
	}
}
