package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain_Linspace(t *testing.T) {
	d := Domain{Name: "u", Start: 0, Stop: 1}

	got, err := d.Linspace(5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, got)

	got, err = d.Linspace(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, got)

	for _, count := range []int{1, 0, -3} {
		_, err := d.Linspace(count)
		var domErr *DomainError
		require.ErrorAs(t, err, &domErr)
		assert.Equal(t, ErrDomainCount, domErr.Code)
		assert.Equal(t, "u", domErr.Name)
	}
}

func TestValidateDomains(t *testing.T) {
	tests := []struct {
		name    string
		domains []Domain
		bad     string
	}{
		{"valid", []Domain{{"u", 0, 1}, {"v", -math.Pi, math.Pi}}, ""},
		{"empty", nil, ""},
		{"reversed", []Domain{{"u", 0, 1}, {"v", 2, 1}}, "v"},
		{"degenerate", []Domain{{"u", 1, 1}}, "u"},
		{"nan", []Domain{{"u", math.NaN(), 1}}, "u"},
		{"infinite", []Domain{{"w", 0, math.Inf(1)}}, "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomains(tt.domains)
			if tt.bad == "" {
				require.NoError(t, err)
				return
			}
			var domErr *DomainError
			require.ErrorAs(t, err, &domErr)
			assert.Equal(t, tt.bad, domErr.Name)
			assert.Equal(t, ErrDomainBounds, domErr.Code)
			assert.Contains(t, err.Error(), "domain "+tt.bad)
		})
	}
}

func TestParseDomains(t *testing.T) {
	got, err := ParseDomains("u:[0,pi] v:[-R,2*R]", map[string]float64{"R": 1.5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u", got[0].Name)
	assert.InDelta(t, 0, got[0].Start, 1e-15)
	assert.InDelta(t, math.Pi, got[0].Stop, 1e-15)
	assert.Equal(t, Domain{Name: "v", Start: -1.5, Stop: 3}, got[1])
}

func TestParseDomains_Errors(t *testing.T) {
	for _, text := range []string{"", "u[0,1]", "u:[0;1]", "u:[0,q]", ":[0,1]"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseDomains(text, nil)
			var domErr *DomainError
			require.ErrorAs(t, err, &domErr)
			assert.Equal(t, ErrDomainSyntax, domErr.Code)
		})
	}
}

func TestDefaultDomains(t *testing.T) {
	assert.Equal(t, []Domain{{"u", 0, 1}, {"v", 0, 1}}, DefaultDomains([]string{"u", "v"}))
}

func TestMeshgrid_IJOrder(t *testing.T) {
	grids, err := Meshgrid([]Domain{{"u", 0, 1}, {"v", 0, 2}}, []int{2, 3})
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, grids[0])
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2}, grids[1])
}

func TestMeshgrid_ThreeAxes(t *testing.T) {
	grids, err := Meshgrid([]Domain{{"a", 0, 1}, {"b", 0, 1}, {"c", 0, 1}}, []int{2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 1, 1}, grids[0])
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0, 1, 1}, grids[1])
	assert.Equal(t, []float64{0, 1, 0, 1, 0, 1, 0, 1}, grids[2])
}

func TestMeshgrid_Mismatch(t *testing.T) {
	_, err := Meshgrid([]Domain{{"u", 0, 1}}, []int{2, 2})
	require.Error(t, err)
}
