package storage

import (
	"testing"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

func TestFiltersNormalize_Defaults(t *testing.T) {
	var f Filters
	f.Normalize()

	if f.SortBy != types.SortByBuzz {
		t.Errorf("SortBy = %q, want buzz default", f.SortBy)
	}
	if f.SortOrder != types.SortDesc {
		t.Errorf("SortOrder = %q, want desc default", f.SortOrder)
	}
	if f.Limit != 20 {
		t.Errorf("Limit = %d, want 20 default", f.Limit)
	}
}

func TestFiltersNormalize_Clamps(t *testing.T) {
	f := Filters{
		SortBy:    types.SortBy("scores; DROP TABLE restaurants"),
		SortOrder: types.SortOrder("sideways"),
		Limit:     5000,
		Offset:    -3,
		PriceMin:  -1,
		PriceMax:  9,
	}
	f.Normalize()

	if f.SortBy != types.SortByBuzz {
		t.Errorf("SortBy = %q, unknown sort must normalize to buzz", f.SortBy)
	}
	if f.SortOrder != types.SortDesc {
		t.Errorf("SortOrder = %q, want desc", f.SortOrder)
	}
	if f.Limit != 100 {
		t.Errorf("Limit = %d, want capped at 100", f.Limit)
	}
	if f.Offset != 0 || f.PriceMin != 0 || f.PriceMax != 4 {
		t.Errorf("clamps failed: offset=%d priceMin=%d priceMax=%d", f.Offset, f.PriceMin, f.PriceMax)
	}
}

func TestFiltersNormalize_LowercasesCity(t *testing.T) {
	f := Filters{City: " Toronto "}
	f.Normalize()

	if f.City != "toronto" {
		t.Errorf("City = %q, want lower-cased to match stored entities", f.City)
	}
}

func TestFiltersNormalize_KeepsValidValues(t *testing.T) {
	f := Filters{
		SortBy:    types.SortByMentions,
		SortOrder: types.SortAsc,
		Limit:     50,
		Offset:    10,
	}
	f.Normalize()

	if f.SortBy != types.SortByMentions || f.SortOrder != types.SortAsc {
		t.Errorf("valid sort mutated: %q %q", f.SortBy, f.SortOrder)
	}
	if f.Limit != 50 || f.Offset != 10 {
		t.Errorf("valid pagination mutated: %d/%d", f.Limit, f.Offset)
	}
}
