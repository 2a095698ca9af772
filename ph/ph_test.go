package ph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromVolumeConcentration(t *testing.T) {
	tests := []struct {
		name       string
		acidVol    float64
		acidConc   float64
		baseVol    float64
		baseConc   float64
		wantPH     float64
		wantExcess Species
	}{
		{name: "equal strong acid and base", acidVol: 10e-6, acidConc: 1, baseVol: 10e-6, baseConc: 1, wantPH: 7, wantExcess: Balanced},
		{name: "acid in excess", acidVol: 0.5, acidConc: 0.04, baseVol: 0.5, baseConc: 0.02, wantPH: 2, wantExcess: Acid},
		{name: "base in excess", acidVol: 0.5, acidConc: 0.02, baseVol: 0.5, baseConc: 0.04, wantPH: 12, wantExcess: Base},
		{name: "acid only", acidVol: 1, acidConc: 0.1, baseVol: 0, baseConc: 1, wantPH: 1, wantExcess: Acid},
	}
	calc := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.FromVolumeConcentration(tt.acidVol, tt.acidConc, tt.baseVol, tt.baseConc)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantPH, res.PH, 1e-9)
			assert.Equal(t, tt.wantExcess, res.Excess)
		})
	}
}

// Acid excess takes [H+] straight from the leftover acid: 2 mol of acid
// against 1 mol of base in 100 L leaves 0.01 M H+.
func TestAcidExcessUsesLeftoverMoles(t *testing.T) {
	res, err := Default().FromMoles(2, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, Acid, res.Excess)
	assert.Equal(t, Base, res.Limiting())
	assert.InDelta(t, 0.01, res.ExcessConcentration, 1e-15)
	assert.InDelta(t, 0.01, res.Hydrogen, 1e-15)
	assert.InDelta(t, 2, res.PH, 1e-12)
}

func TestBaseExcessUsesKw(t *testing.T) {
	res, err := Default().FromMoles(1, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, Base, res.Excess)
	assert.Equal(t, Acid, res.Limiting())
	assert.InDelta(t, 1e-12, res.Hydrogen, 1e-24)
	assert.InDelta(t, 12, res.PH, 1e-12)
}

func TestNeutralTolerance(t *testing.T) {
	exact := Default()
	res, err := exact.FromMoles(1, 1+1e-12, 1)
	require.NoError(t, err)
	assert.Equal(t, Base, res.Excess)

	tolerant := Calculator{Kw: Kw25, NeutralTolerance: 1e-8}
	res, err = tolerant.FromMoles(1, 1+1e-12, 1)
	require.NoError(t, err)
	assert.Equal(t, Balanced, res.Excess)
	assert.Equal(t, Balanced, res.Limiting())
	assert.Equal(t, Neutral, res.PH)
}

func TestDomainErrors(t *testing.T) {
	calc := Default()
	tests := []struct {
		name string
		run  func() error
	}{
		{"negative moles", func() error { _, err := calc.FromMoles(-1, 0, 1); return err }},
		{"zero volume", func() error { _, err := calc.FromMoles(1, 0, 0); return err }},
		{"negative volume", func() error { _, err := calc.FromVolumeConcentration(-1, 1, 1, 1); return err }},
		{"zero kw", func() error { _, err := Calculator{}.FromMoles(1, 0, 1); return err }},
		{"zero hydrogen", func() error { _, err := FromHydrogen(0); return err }},
		{"infinite hydrogen", func() error { _, err := FromHydrogen(math.Inf(1)); return err }},
		{"zero base", func() error { _, err := calc.BasePH(0); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de *DomainError
			assert.ErrorAs(t, tt.run(), &de)
		})
	}
}

func TestFromVolumePH(t *testing.T) {
	calc := Default()

	res, err := calc.FromVolumePH(1e-3, 1, 1e-3, 13)
	require.NoError(t, err)
	assert.Equal(t, Balanced, res.Excess)
	assert.Equal(t, Neutral, res.PH)

	swapped, err := calc.FromVolumePH(1e-3, 13, 1e-3, 1)
	require.NoError(t, err)
	assert.Equal(t, res, swapped)

	res, err = calc.FromVolumePH(2e-3, 1, 1e-3, 13)
	require.NoError(t, err)
	assert.Equal(t, Acid, res.Excess)
	assert.InDelta(t, -math.Log10(1e-4/3e-3), res.PH, 1e-9)
}

func TestStockPH(t *testing.T) {
	calc := Default()
	p, err := calc.AcidPH(0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1, p, 1e-12)

	p, err = calc.BasePH(0.1)
	require.NoError(t, err)
	assert.InDelta(t, 13, p, 1e-12)

	assert.InDelta(t, 0.1, calc.HydroxideFromPH(13), 1e-15)
}

func TestNeutralPH(t *testing.T) {
	assert.Equal(t, 7.0, Default().NeutralPH())
	assert.InDelta(t, 6.5, Calculator{Kw: 1e-13}.NeutralPH(), 1e-12)
}

func TestSimilarSolutionsPH(t *testing.T) {
	tests := []struct {
		name      string
		vol1, ph1 float64
		vol2, ph2 float64
		want      float64
	}{
		{name: "two acids", vol1: 1, ph1: 1, vol2: 1, ph2: 1, want: 1},
		{name: "acid into water", vol1: 1, ph1: 1, vol2: 9, ph2: 7, want: 2},
		{name: "water into base", vol1: 9, ph1: 7, vol2: 1, ph2: 13, want: 12},
		{name: "two waters", vol1: 1, ph1: 7.2, vol2: 1, ph2: 6.8, want: 7},
	}
	calc := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.SimilarSolutionsPH(tt.vol1, tt.ph1, tt.vol2, tt.ph2)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := calc.SimilarSolutionsPH(0, 1, 0, 1)
	assert.Error(t, err)
}

func TestBuffer(t *testing.T) {
	b := Buffer{Ka: 1e-5, AcidConcentration: 0.1, BaseConcentration: 0.1}
	p, err := b.PH()
	require.NoError(t, err)
	assert.InDelta(t, 5, p, 1e-12)

	p, err = b.WithBase(0.05).PH()
	require.NoError(t, err)
	assert.InDelta(t, 5+math.Log10(3), p, 1e-12)

	p, err = b.WithAcid(0.05).PH()
	require.NoError(t, err)
	assert.InDelta(t, 5-math.Log10(3), p, 1e-12)

	p, err = b.WithBuffer(Buffer{Ka: 1e-5, BaseConcentration: 0.1}).PH()
	require.NoError(t, err)
	assert.InDelta(t, 5+math.Log10(2), p, 1e-12)

	_, err = b.WithBase(0.1).PH()
	var de *DomainError
	assert.ErrorAs(t, err, &de)

	_, err = Buffer{AcidConcentration: 1, BaseConcentration: 1}.PH()
	assert.ErrorAs(t, err, &de)
}
