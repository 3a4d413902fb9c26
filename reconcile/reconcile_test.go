package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// RESOLVE
// ============================================================================

func TestDefaultResolve(t *testing.T) {
	r := Default()

	tests := []struct {
		code, name         string
		wantCode, wantName string
	}{
		{"GM0501", "Brielle", "GM1992", "Voorne aan Zee"},
		{"GM0530", "Hellevoetsluis", "GM1992", "Voorne aan Zee"},
		{"GM0614", "Westvoorne", "GM1992", "Voorne aan Zee"},
		{"GM0370", "Beemster", "GM0439", "Purmerend"},
		{"GM1702", "Sint Anthonis", "GM1982", "Land van Cuijk"},
		{"GM0024", "Loppersum", "GM1979", "Eemsdelta"},
		{"gm0457 ", "Weesp", "GM0363", "Amsterdam"},
		{"GM0363", "Amsterdam", "GM0363", "Amsterdam"},
		{"GM0788", "Haaren", "GM0788", "Haaren"},
	}
	for _, tt := range tests {
		code, name := r.Resolve(tt.code, tt.name)
		assert.Equal(t, tt.wantCode, code, tt.code)
		assert.Equal(t, tt.wantName, name, tt.code)
	}

	assert.True(t, r.Fused("GM0398"))
	assert.False(t, r.Fused("GM1980"))
	assert.True(t, r.Dissolved("GM0788"))
	assert.False(t, r.Dissolved("GM0824"))
	assert.Len(t, r.Fusions(), 17)
	assert.Len(t, r.Splits(), 1)
}

func TestResolveFollowsChains(t *testing.T) {
	r, err := NewRegistry([]Fusion{
		{From: "GM0001", To: "GM0002", ToName: "Middle"},
		{From: "GM0002", To: "GM0003", ToName: "Final"},
	}, nil)
	require.NoError(t, err)

	code, name := r.Resolve("GM0001", "First")
	assert.Equal(t, "GM0003", code)
	assert.Equal(t, "Final", name)
	assert.Equal(t, "GM0003", r.Code("GM0002"))
	assert.Equal(t, "Final", r.Name("Middle"))
	assert.Equal(t, "First", r.Name("First"))
}

func TestName(t *testing.T) {
	r := Default()

	assert.Equal(t, "Voorne aan Zee", r.Name("Brielle"))
	assert.Equal(t, "Amsterdam", r.Name("Weesp"))
	assert.Equal(t, "Dijk en Waard", r.Name(" Langedijk "))
	assert.Equal(t, "Haaren", r.Name("Haaren"))
	assert.Equal(t, "Utrecht", r.Name("Utrecht"))
}

func TestUnknownCodesPassThrough(t *testing.T) {
	r := Default()

	code, name := r.Resolve("gm0014 ", "Groningen")
	assert.Equal(t, "gm0014 ", code)
	assert.Equal(t, "Groningen", name)
	assert.Equal(t, "GM0344", r.Code("GM0344"))
}

func TestNewRegistryRejectsBadRules(t *testing.T) {
	tests := []struct {
		name    string
		fusions []Fusion
		splits  []Split
	}{
		{"empty target", []Fusion{{From: "GM0001", ToName: "X"}}, nil},
		{"self", []Fusion{{From: "GM0001", To: "GM0001", ToName: "X"}}, nil},
		{"no name", []Fusion{{From: "GM0001", To: "GM0002"}}, nil},
		{"conflict", []Fusion{
			{From: "GM0001", To: "GM0002", ToName: "X"},
			{From: "GM0001", To: "GM0003", ToName: "Y"},
		}, nil},
		{"cycle", []Fusion{
			{From: "GM0001", To: "GM0002", ToName: "X"},
			{From: "GM0002", To: "GM0001", ToName: "Y"},
		}, nil},
		{"split without receivers", nil, []Split{{From: "GM0788"}}},
		{"split into itself", nil, []Split{{From: "GM0788", To: []string{"GM0788"}}}},
		{"fused and split", []Fusion{{From: "GM0788", To: "GM0855", ToName: "Tilburg"}},
			[]Split{{From: "GM0788", To: []string{"GM0824"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.fusions, tt.splits)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

// ============================================================================
// REDISTRIBUTE
// ============================================================================

func TestRedistributeHaaren(t *testing.T) {
	r := Default()
	in := map[Key]float64{
		{"GM0788", 2019}: 14000,
		{"GM0788", 2020}: 14100,
		{"GM0824", 2019}: 26000,
		{"GM0865", 2019}: 26500,
		{"GM0757", 2019}: 30000,
		{"GM0855", 2019}: 217000,
		{"GM0824", 2020}: 26100,
		{"GM0824", 2021}: 30000,
	}

	out, rep := r.Redistribute(in)

	want := map[Key]float64{
		{"GM0824", 2019}: 29500,
		{"GM0865", 2019}: 30000,
		{"GM0757", 2019}: 33500,
		{"GM0855", 2019}: 220500,
		{"GM0824", 2020}: 29625,
		{"GM0865", 2020}: 3525,
		{"GM0757", 2020}: 3525,
		{"GM0855", 2020}: 3525,
		{"GM0824", 2021}: 30000,
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Redistribute mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Report{YearsSplit: 2, Created: 3}, rep)

	// input untouched
	assert.Equal(t, 14000.0, in[Key{"GM0788", 2019}])
}

func TestRedistributeConservesTotals(t *testing.T) {
	r := Default()
	in := map[Key]float64{
		{"GM0788", 2018}: 14001,
		{"GM0855", 2018}: 215000,
	}
	out, _ := r.Redistribute(in)

	var total float64
	for _, v := range out {
		total += v
	}
	assert.InDelta(t, 229001, total, 1e-9)
	assert.InDelta(t, 215000+14001.0/4, out[Key{"GM0855", 2018}], 1e-9)
	_, stillThere := out[Key{"GM0788", 2018}]
	assert.False(t, stillThere)
}

func TestRedistributeReceiverResolvedThroughFusion(t *testing.T) {
	r := MustRegistry(
		[]Fusion{{From: "GM0002", To: "GM0009", ToName: "Successor"}},
		[]Split{{From: "GM0001", To: []string{"GM0002", "GM0003"}}},
	)
	out, _ := r.Redistribute(map[Key]float64{{"GM0001", 2020}: 10})
	assert.Equal(t, map[Key]float64{{"GM0009", 2020}: 5, {"GM0003", 2020}: 5}, out)
}
