package otvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/varfont/ot"
)

func TestSupportScalar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	wght := ot.T("wght")
	cases := []struct {
		name   string
		loc    Location
		region Region
		want   float64
	}{
		{"empty both", Location{}, Region{}, 1.0},
		{"empty region", Location{wght: 0.2}, Region{}, 1.0},
		{"on ramp", Location{wght: 0.2}, Region{wght: {0, 2, 3}}, 0.1},
		{"past peak", Location{wght: 2.5}, Region{wght: {0, 2, 4}}, 0.75},
		{"at peak", Location{wght: 2}, Region{wght: {0, 2, 4}}, 1.0},
		{"outside", Location{wght: 5}, Region{wght: {0, 2, 4}}, 0.0},
		{"zero peak ignored", Location{wght: 0.5}, Region{wght: {-1, 0, 1}}, 1.0},
		{"axis missing from location", Location{}, Region{wght: {0, 1, 1}}, 0.0},
	}
	for _, c := range cases {
		if got := SupportScalar(c.loc, c.region); !approxEq(got, c.want) {
			t.Errorf("%s: got %g, want %g", c.name, got, c.want)
		}
	}
}

// nine masters over wght/wdth, with intermediates on both axes
func nineMasterModel(t *testing.T) *VariationModel {
	t.Helper()
	wght, wdth := ot.T("wght"), ot.T("wdth")
	locations := []Location{
		{wght: 0.55, wdth: 0.0},
		{wght: -0.55, wdth: 0.0},
		{wght: -1.0, wdth: 0.0},
		{wght: 0.0, wdth: 1.0},
		{wght: 0.66, wdth: 1.0},
		{wght: 0.66, wdth: 0.66},
		{wght: 0.0, wdth: 0.0},
		{wght: 1.0, wdth: 1.0},
		{wght: 1.0, wdth: 0.0},
	}
	m, err := NewVariationModel(locations, []ot.Tag{wght})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestVariationModelSortOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	m := nineMasterModel(t)
	wght, wdth := ot.T("wght"), ot.T("wdth")
	wantLocations := []Location{
		{},
		{wght: -0.55},
		{wght: -1.0},
		{wght: 0.55},
		{wght: 1.0},
		{wdth: 1.0},
		{wdth: 1.0, wght: 1.0},
		{wdth: 1.0, wght: 0.66},
		{wdth: 0.66, wght: 0.66},
	}
	if diff := cmp.Diff(wantLocations, m.Locations); diff != "" {
		t.Errorf("sorted locations mismatch (-want +got):\n%s", diff)
	}
}

func TestVariationModelSupports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	m := nineMasterModel(t)
	wght, wdth := ot.T("wght"), ot.T("wdth")
	wantSupports := []Region{
		{},
		{wght: {-1.0, -0.55, 0.0}},
		{wght: {-1.0, -1.0, -0.55}},
		{wght: {0.0, 0.55, 1.0}},
		{wght: {0.55, 1.0, 1.0}},
		{wdth: {0.0, 1.0, 1.0}},
		{wdth: {0.0, 1.0, 1.0}, wght: {0.0, 1.0, 1.0}},
		{wdth: {0.0, 1.0, 1.0}, wght: {0.0, 0.66, 1.0}},
		{wdth: {0.0, 0.66, 1.0}, wght: {0.0, 0.66, 1.0}},
	}
	if diff := cmp.Diff(wantSupports, m.Supports); diff != "" {
		t.Errorf("narrowed supports mismatch (-want +got):\n%s", diff)
	}
}

func TestVariationModelDeltaWeights(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	m := nineMasterModel(t)
	if len(m.deltaWeights[0]) != 0 {
		t.Errorf("default master should have no delta weights: %v", m.deltaWeights[0])
	}
	for i := 1; i <= 5; i++ {
		if diff := cmp.Diff(map[int]float64{0: 1.0}, m.deltaWeights[i]); diff != "" {
			t.Errorf("delta weights [%d] (-want +got):\n%s", i, diff)
		}
	}
	if diff := cmp.Diff(map[int]float64{0: 1.0, 4: 1.0, 5: 1.0}, m.deltaWeights[6]); diff != "" {
		t.Errorf("delta weights [6] (-want +got):\n%s", diff)
	}
	w7 := m.deltaWeights[7]
	wantW7 := map[int]float64{3: 0.7555555555555555, 4: 0.24444444444444444, 5: 1.0, 6: 0.66}
	if len(w7) != len(wantW7) {
		t.Fatalf("delta weights [7]: got %v, want %v", w7, wantW7)
	}
	for k, want := range wantW7 {
		if got, ok := w7[k]; !ok || !approxEqTol(got, want, 1e-6) {
			t.Errorf("delta weights [7][%d]: got %g, want %g", k, got, want)
		}
	}
}

func approxEqTol(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < tol
}

func TestVariationModelDeltasAndInterpolate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	wght := ot.T("wght")
	locations := []Location{
		{wght: -1},
		{},
		{wght: 1},
	}
	m, err := NewVariationModel(locations, []ot.Tag{wght})
	if err != nil {
		t.Fatal(err)
	}
	// a single scalar value per master: 0 at thin, 5 at default, 10 at bold
	deltas, regions, err := m.Deltas([][]float64{{0}, {5}, {10}})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		at   float64
		want float64
	}{
		{-1, 0},
		{0, 5},
		{0.5, 7.5},
		{1, 10},
	}
	for _, c := range cases {
		got := Interpolate(Location{wght: c.at}, deltas, regions)
		if len(got) != 1 || !approxEq(got[0], c.want) {
			t.Errorf("interpolate at %g: got %v, want %g", c.at, got, c.want)
		}
	}
}

func TestVariationModelSparseMaster(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	wght := ot.T("wght")
	locations := []Location{
		{},
		{wght: 0.5},
		{wght: 1},
	}
	m, err := NewVariationModel(locations, []ot.Tag{wght})
	if err != nil {
		t.Fatal(err)
	}
	// the intermediate master contributes nothing for this value set
	deltas, regions, err := m.Deltas([][]float64{{100}, nil, {200}})
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 delta sets from 2 present masters, got %d", len(deltas))
	}
	got := Interpolate(Location{wght: 1}, deltas, regions)
	if !approxEq(got[0], 200) {
		t.Errorf("interpolate at bold: got %v, want 200", got)
	}
	got = Interpolate(Location{wght: 0.5}, deltas, regions)
	if !approxEq(got[0], 150) {
		t.Errorf("interpolate halfway: got %v, want 150", got)
	}
}

func TestVariationModelNoDefaultMaster(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	wght := ot.T("wght")
	_, err := NewVariationModel([]Location{{wght: -1}, {wght: 1}}, []ot.Tag{wght})
	if err == nil {
		t.Error("model without a default-location master should be rejected")
	}
}
