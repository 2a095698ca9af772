package network

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chemcpu/labware"
	"chemcpu/ph"
	"chemcpu/transfer"
)

func pos(row, col int) labware.Position { return labware.Position{Row: row, Col: col} }

func newNet(t *testing.T, weights, image []int, graded bool) *Network {
	t.Helper()
	neurons := len(weights) / len(image)
	n, err := New(neurons, len(image), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, n.SetWeights(weights))
	require.NoError(t, n.SetImage(image, graded))
	return n
}

func newPool(t *testing.T, maxDraws int, positions ...labware.Position) *Pool {
	t.Helper()
	p, err := NewPool(positions, maxDraws)
	require.NoError(t, err)
	return p
}

var (
	acidWell  = pos(0, 0)
	baseWell  = pos(0, 1)
	waterWell = pos(0, 2)
)

func basicParams(t *testing.T) DataParams {
	t.Helper()
	return DataParams{
		Pools: Pools{
			Acid:  newPool(t, 0, acidWell),
			Base:  newPool(t, 0, baseWell),
			Water: newPool(t, 0, waterWell),
		},
		Layout:     Layout{Cols: 48},
		UnitVolume: 2000,
	}
}

func TestNew(t *testing.T) {
	_, err := New(0, 4)
	assert.ErrorIs(t, err, ErrShape)

	n, err := New(2, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, n.SetWeights([]int{1, 1, 1, 1, 1}), ErrShape)
	assert.ErrorIs(t, n.SetImage([]int{1, 1}, false), ErrShape)

	_, err = n.PlanData(basicParams(t))
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, n.SetWeights([]int{1, -1, 0, 1, 1, 1, 9}))
	assert.Equal(t, []int{1, -1, 0}, n.Weights(0))
	assert.Equal(t, []int{1, 1, 1}, n.Weights(1))
	assert.Nil(t, n.Weights(2))
}

func TestReadInts(t *testing.T) {
	got, err := ReadInts(strings.NewReader("1\n-1.0\n\n  0 \n2.7\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, 0, 2}, got)

	_, err = ReadInts(strings.NewReader("1\nx\n"))
	assert.ErrorContains(t, err, "line 2")

	n, err := New(1, 2)
	require.NoError(t, err)
	require.NoError(t, n.LoadWeights(strings.NewReader("1\n-1\n")))
	require.NoError(t, n.LoadImage(strings.NewReader("3\n0\n"), true))
	assert.True(t, n.Graded())
	assert.Equal(t, []int{3, 0}, n.Image())
}

// Weights [+1,-1] against image [+1,+1]: pixel 0 is on without flip and
// sends acid left, pixel 1 is on with flip and sends base left.
func TestPlanDataRouting(t *testing.T) {
	n := newNet(t, []int{1, -1}, []int{1, 1}, false)
	plan, err := n.PlanData(basicParams(t))
	require.NoError(t, err)

	assert.Equal(t, "write", plan.Write.Group)
	assert.Equal(t, []transfer.Triple{
		{From: acidWell, To: pos(0, 0), Volume: 2000},
		{From: baseWell, To: pos(0, 1), Volume: 2000},
		{From: baseWell, To: pos(0, 2), Volume: 2000},
		{From: acidWell, To: pos(0, 3), Volume: 2000},
	}, plan.Write.Triples)
	assert.Zero(t, plan.Dilute.Len())

	require.Len(t, plan.Rails, 1)
	assert.Equal(t, []labware.Position{pos(0, 0), pos(0, 2)}, plan.Rails[0].Left)
	assert.Equal(t, []labware.Position{pos(0, 1), pos(0, 3)}, plan.Rails[0].Right)
	assert.Equal(t, RailVolumes{
		Acid: [2]float64{2000, 2000},
		Base: [2]float64{2000, 2000},
	}, plan.Volumes[0])

	// Equal acid and base on each rail pool to exactly neutral on both
	// rails, which reads as class 0.
	out, err := plan.ExpectedOutputs(ph.Default(), 1, 13)
	require.NoError(t, err)
	assert.Equal(t, 7.0, out[0].Left)
	assert.Equal(t, 7.0, out[0].Right)
	assert.Equal(t, Zero, out[0].Class)
	assert.NotEqual(t, Indeterminate, out[0].Class)
}

func TestPlanDataDecisiveClasses(t *testing.T) {
	tests := []struct {
		name      string
		weights   []int
		image     []int
		wantLeft  float64
		wantRight float64
		want      Class
	}{
		{name: "agreeing weights", weights: []int{1, 1}, image: []int{1, 1}, wantLeft: 1, wantRight: 13, want: One},
		{name: "opposing weights", weights: []int{-1, -1}, image: []int{1, 1}, wantLeft: 13, wantRight: 1, want: Zero},
		{name: "dark image", weights: []int{1, 1}, image: []int{-1, 0}, wantLeft: 13, wantRight: 1, want: Zero},
		{name: "majority wins", weights: []int{1, 1, -1}, image: []int{1, 1, 1}, wantLeft: math.Log10(30), wantRight: 14 - math.Log10(30), want: One},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNet(t, tt.weights, tt.image, false)
			plan, err := n.PlanData(basicParams(t))
			require.NoError(t, err)
			out, err := plan.ExpectedOutputs(ph.Default(), 1, 13)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.InDelta(t, tt.wantLeft, out[0].Left, 1e-9)
			assert.InDelta(t, tt.wantRight, out[0].Right, 1e-9)
			assert.Equal(t, tt.want, out[0].Class)
		})
	}
}

func TestPlanDataOnlyMinusOneFlips(t *testing.T) {
	n := newNet(t, []int{0, -2}, []int{1, 1}, false)
	plan, err := n.PlanData(basicParams(t))
	require.NoError(t, err)
	assert.Equal(t, []transfer.Triple{
		{From: acidWell, To: pos(0, 0), Volume: 2000},
		{From: baseWell, To: pos(0, 1), Volume: 2000},
		{From: acidWell, To: pos(0, 2), Volume: 2000},
		{From: baseWell, To: pos(0, 3), Volume: 2000},
	}, plan.Write.Triples)
	assert.Equal(t, []labware.Position{pos(0, 0), pos(0, 2)}, plan.Rails[0].Left)

	out, err := plan.ExpectedOutputs(ph.Default(), 1, 13)
	require.NoError(t, err)
	assert.Equal(t, One, out[0].Class)
}

func TestPlanDataZeroWeightsDecode(t *testing.T) {
	n := newNet(t, []int{0, 0}, []int{1, -1}, false)
	plan, err := n.PlanData(basicParams(t))
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Write.Len())

	out, err := plan.ExpectedOutputs(ph.Default(), 1, 13)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, Zero, out[0].Class)
}

func TestPlanDataLayoutWraps(t *testing.T) {
	n := newNet(t, []int{1, 1, 1, 1}, []int{1, 1}, false)
	params := basicParams(t)
	params.Layout = Layout{Start: pos(0, 0), Cols: 3}
	plan, err := n.PlanData(params)
	require.NoError(t, err)

	assert.Equal(t, []labware.Position{pos(0, 0), pos(0, 2)}, plan.Rails[0].Left)
	assert.Equal(t, []labware.Position{pos(0, 1), pos(1, 0)}, plan.Rails[0].Right)
	assert.Equal(t, []labware.Position{pos(3, 0), pos(3, 2)}, plan.Rails[1].Left)
	assert.Equal(t, []labware.Position{pos(3, 1), pos(4, 0)}, plan.Rails[1].Right)

	params.Layout = Layout{}
	_, err = n.PlanData(params)
	assert.ErrorIs(t, err, ErrShape)
}

func TestPlanDataGraded(t *testing.T) {
	n := newNet(t, []int{1, 1}, []int{2, -3}, true)
	plan, err := n.PlanData(basicParams(t))
	require.NoError(t, err)

	assert.Equal(t, []transfer.Triple{
		{From: acidWell, To: pos(0, 0), Volume: 1000},
		{From: baseWell, To: pos(0, 1), Volume: 1000},
		{From: baseWell, To: pos(0, 2), Volume: 2000},
		{From: acidWell, To: pos(0, 3), Volume: 2000},
	}, plan.Write.Triples)
	assert.Equal(t, "dilute", plan.Dilute.Group)
	assert.Equal(t, []transfer.Triple{
		{From: waterWell, To: pos(0, 0), Volume: 2000},
		{From: waterWell, To: pos(0, 1), Volume: 2000},
		{From: waterWell, To: pos(0, 0), Volume: 2000},
		{From: waterWell, To: pos(0, 1), Volume: 2000},
	}, plan.Dilute.Triples)
	assert.Equal(t, [2]float64{4000, 4000}, plan.Volumes[0].Water)

	params := basicParams(t)
	params.Pools.Water = nil
	_, err = n.PlanData(params)
	assert.ErrorIs(t, err, ErrShape)
}

func TestPool(t *testing.T) {
	_, err := NewPool(nil, 0)
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewPool([]labware.Position{acidWell}, -1)
	assert.ErrorIs(t, err, ErrShape)

	p := newPool(t, 2, pos(0, 0), pos(0, 1))
	var got []labware.Position
	for range 4 {
		next, err := p.Next()
		require.NoError(t, err)
		got = append(got, next)
	}
	assert.Equal(t, []labware.Position{pos(0, 0), pos(0, 1), pos(0, 0), pos(0, 1)}, got)
	assert.Equal(t, 2, p.Draws(pos(0, 0)))
	_, err = p.Next()
	assert.ErrorIs(t, err, ErrPoolExhausted)

	unlimited := newPool(t, 0, pos(0, 0))
	for range 100 {
		_, err := unlimited.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, 100, unlimited.Draws(pos(0, 0)))
}

func TestPlanDataCapsDrawsPerSource(t *testing.T) {
	n := newNet(t, []int{1, 1, 1}, []int{1, 1, 1}, false)
	params := basicParams(t)
	params.Pools.Acid = newPool(t, 2, acidWell)
	_, err := n.PlanData(params)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	params = basicParams(t)
	params.Pools.Acid = newPool(t, 2, pos(1, 0), pos(1, 1))
	plan, err := n.PlanData(params)
	require.NoError(t, err)
	var sources []labware.Position
	for _, tr := range plan.Write.Triples {
		if tr.From != baseWell {
			sources = append(sources, tr.From)
		}
	}
	assert.Equal(t, []labware.Position{pos(1, 0), pos(1, 1), pos(1, 0)}, sources)
}

func TestPlanWeights(t *testing.T) {
	n := newNet(t, []int{1, -1}, []int{1, 1}, false)
	image := []labware.Position{pos(5, 0), pos(5, 1), pos(5, 2), pos(5, 3)}

	stage, err := n.PlanWeights(image, Layout{Cols: 10}, 500)
	require.NoError(t, err)
	assert.Equal(t, "weights", stage.Group)
	assert.Equal(t, []transfer.Triple{
		{From: pos(5, 0), To: pos(0, 0), Volume: 500},
		{From: pos(5, 1), To: pos(0, 1), Volume: 500},
		{From: pos(5, 3), To: pos(0, 2), Volume: 500},
		{From: pos(5, 2), To: pos(0, 3), Volume: 500},
	}, stage.Triples)

	_, err = n.PlanWeights(image[:3], Layout{Cols: 10}, 500)
	assert.ErrorIs(t, err, ErrShape)
	_, err = n.PlanWeights(append(image, pos(6, 0), pos(6, 1)), Layout{Cols: 10}, 500)
	assert.ErrorIs(t, err, ErrShape)
}

func TestPlanSummationAndIndicator(t *testing.T) {
	rails := []Rails{
		{Left: []labware.Position{pos(0, 0), pos(0, 2)}, Right: []labware.Position{pos(0, 1), pos(0, 3)}},
		{Left: []labware.Position{pos(2, 0)}, Right: []labware.Position{pos(2, 1)}},
	}
	stage, sums := PlanSummation(rails, pos(1, 2), 200)
	assert.Equal(t, "pooling", stage.Group)
	assert.Equal(t, []SumWells{
		{Left: pos(1, 2), Right: pos(1, 3)},
		{Left: pos(2, 2), Right: pos(2, 3)},
	}, sums)
	assert.Equal(t, []transfer.Triple{
		{From: pos(0, 0), To: pos(1, 2), Volume: 200},
		{From: pos(0, 2), To: pos(1, 2), Volume: 200},
		{From: pos(0, 1), To: pos(1, 3), Volume: 200},
		{From: pos(0, 3), To: pos(1, 3), Volume: 200},
		{From: pos(2, 0), To: pos(2, 2), Volume: 200},
		{From: pos(2, 1), To: pos(2, 3), Volume: 200},
	}, stage.Triples)

	ind := PlanIndicator([]labware.Position{pos(1, 2), pos(1, 3)}, pos(9, 9), 100)
	assert.Equal(t, "indicator", ind.Group)
	assert.Equal(t, 2, ind.Len())
	assert.Equal(t, pos(9, 9), ind.Triples[1].From)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		left, right float64
		want        Class
	}{
		{8, 6, Zero},
		{6, 8, One},
		{7, 7, Zero},
		{7, 8, Indeterminate},
		{6, 7, Indeterminate},
		{7, 6, Indeterminate},
		{6, 6, Indeterminate},
		{8, 8, Indeterminate},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decode(tt.left, tt.right, 7), "Decode(%g, %g)", tt.left, tt.right)
	}
	assert.Equal(t, "0", Zero.String())
	assert.Equal(t, "1", One.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
