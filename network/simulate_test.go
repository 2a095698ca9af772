package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chemcpu/chem"
	"chemcpu/labware"
	"chemcpu/ph"
	"chemcpu/transfer"
)

type bench struct {
	source, data, pool *labware.Container
	pools              Pools
}

func newBench(t *testing.T) *bench {
	t.Helper()
	b := &bench{}
	var err error
	b.source, err = labware.NewFromPreset("WellPlate384PP", "source")
	require.NoError(t, err)
	b.data, err = labware.NewFromPreset("WellPlate1536LDV", "data")
	require.NoError(t, err)
	b.pool, err = labware.NewFromPreset("WellPlate384PP", "pooling")
	require.NoError(t, err)

	// Two stock wells per reagent, five draws each.
	stock := func(c chem.Compound, wells ...labware.Position) *Pool {
		for _, p := range wells {
			_, err := b.source.AddNewMixture(c.Name, []chem.Compound{c}, &p, 45000)
			require.NoError(t, err)
		}
		return newPool(t, 5, wells...)
	}
	b.pools.Acid = stock(chem.Compound{ID: "HCl", Name: "acid", Type: chem.TypeAcid, Concentration: 0.1}, acidWell, pos(1, 0))
	b.pools.Base = stock(chem.Compound{ID: "NaOH", Name: "base", Type: chem.TypeBase, Concentration: 0.1}, baseWell, pos(1, 1))
	return b
}

// run writes the image, pools the rails and decodes the pooled wells.
func (b *bench) run(t *testing.T, n *Network) (expected, simulated []Output) {
	t.Helper()
	plan, err := n.PlanData(DataParams{Pools: b.pools, Layout: Layout{Cols: b.data.Cols()}, UnitVolume: 2000})
	require.NoError(t, err)
	expected, err = plan.ExpectedOutputs(ph.Default(), 1, 13)
	require.NoError(t, err)

	list, err := plan.Tasks(b.source, b.data)
	require.NoError(t, err)
	pooling, sums := PlanSummation(plan.Rails, labware.Position{}, 200)
	poolTask, err := pooling.Task(b.data, b.pool)
	require.NoError(t, err)
	list.Add(poolTask)

	results, err := list.Run(transfer.Options{EnforceLimits: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Complete(), r.Task)
	}

	simulated, err = DecodeWells(b.pool, sums, ph.Default())
	require.NoError(t, err)
	return expected, simulated
}

func TestSimulatedNetworkMatchesPrediction(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		image   []int
		want    []Class
	}{
		{name: "agreeing", weights: []int{1, 1}, image: []int{1, 1}, want: []Class{One}},
		{name: "balanced", weights: []int{1, -1}, image: []int{1, 1}, want: []Class{Zero}},
		{name: "two neurons", weights: []int{1, 1, 1, -1, -1, -1}, image: []int{1, -1, 1}, want: []Class{One, Zero}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNet(t, tt.weights, tt.image, false)
			expected, simulated := newBench(t).run(t, n)
			require.Len(t, simulated, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, simulated[i].Class, "neuron %d: %s", i, simulated[i])
				assert.Equal(t, expected[i].Class, simulated[i].Class)
				assert.InDelta(t, expected[i].Left, simulated[i].Left, 1e-6)
				assert.InDelta(t, expected[i].Right, simulated[i].Right, 1e-6)
			}
		})
	}
}

func TestSimulatedNetworkRespectsDrawLimit(t *testing.T) {
	ones := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	n := newNet(t, ones, ones, false)
	_, err := n.PlanData(DataParams{Pools: newBench(t).pools, Layout: Layout{Cols: 48}, UnitVolume: 2000})
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestWellPH(t *testing.T) {
	c, err := labware.NewContainer("tube", 1, 2, 0, 1000)
	require.NoError(t, err)
	require.NoError(t, c.AddCompoundsToLocation(labware.Position{}, []chem.Compound{
		{ID: "HCl", Type: chem.TypeAcid, Concentration: 0.2, Volume: 100},
		{ID: "NaOH", Type: chem.TypeBase, Concentration: 0.1, Volume: 100},
	}, 200))

	res, err := WellPH(c, labware.Position{}, ph.Default())
	require.NoError(t, err)
	assert.Equal(t, ph.Acid, res.Excess)
	assert.InDelta(t, 0.05, res.Hydrogen, 1e-12)

	_, err = WellPH(c, labware.Position{Row: 0, Col: 1}, ph.Default())
	var de *ph.DomainError
	assert.ErrorAs(t, err, &de)

	_, err = DecodeWells(c, []SumWells{{Left: labware.Position{}, Right: labware.Position{Row: 0, Col: 1}}}, ph.Default())
	assert.ErrorContains(t, err, "neuron 0 right rail")
}
