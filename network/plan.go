package network

import (
	"fmt"

	"go.uber.org/zap"

	"chemcpu/labware"
	"chemcpu/transfer"
)

// Rail indices of a neuron's differential output.
const (
	Left  = 0
	Right = 1
)

// Layout places data wells on a plate. Wells are taken left to right from
// Start, wrapping to column 0 of the next row after Cols columns. Each
// neuron starts two rows below where the previous one stopped.
type Layout struct {
	Start labware.Position
	Cols  int
}

type cursor struct {
	row, col, cols int
}

func (l Layout) cursor() *cursor {
	return &cursor{row: l.Start.Row, col: l.Start.Col, cols: l.Cols}
}

func (c *cursor) next() labware.Position {
	p := labware.Position{Row: c.row, Col: c.col}
	if c.col+1 < c.cols {
		c.col++
	} else {
		c.row, c.col = c.row+1, 0
	}
	return p
}

func (c *cursor) nextNeuron() {
	c.row, c.col = c.row+2, 0
}

// Stage is a batch of transfers between two containers.
type Stage struct {
	Name    string
	Group   string
	Triples []transfer.Triple
}

func (s Stage) Len() int { return len(s.Triples) }

// Task converts the stage into one transfer task whose triples are exactly
// the stage's, in order.
func (s Stage) Task(from, to *labware.Container) (*transfer.Task, error) {
	spec := transfer.Spec{From: from, To: to, Group: s.Group, Description: s.Name}
	for _, t := range s.Triples {
		spec.FromPositions = append(spec.FromPositions, t.From)
		spec.ToPositions = append(spec.ToPositions, t.To)
		spec.Volumes = append(spec.Volumes, t.Volume)
	}
	return transfer.NewTask(spec)
}

// Rails lists the data wells feeding each rail of one neuron.
type Rails struct {
	Left  []labware.Position
	Right []labware.Position
}

// RailVolumes tracks the reagent volume routed to each rail, in nL.
type RailVolumes struct {
	Acid  [2]float64
	Base  [2]float64
	Water [2]float64
}

// Plan is the write stage for one image.
type Plan struct {
	Write   Stage
	Dilute  Stage
	Rails   []Rails
	Volumes []RailVolumes
}

// Tasks builds the write task, and the dilution task for graded images,
// from the reagent container to the data container.
func (p *Plan) Tasks(reagents, data *labware.Container) (*transfer.TaskList, error) {
	list := transfer.NewTaskList("network write")
	for _, s := range []Stage{p.Write, p.Dilute} {
		if s.Len() == 0 {
			continue
		}
		t, err := s.Task(reagents, data)
		if err != nil {
			return nil, fmt.Errorf("network: %s: %w", s.Name, err)
		}
		list.Add(t)
	}
	return list, nil
}

// DataParams configure PlanData.
type DataParams struct {
	Pools      Pools
	Layout     Layout
	UnitVolume float64
	// GradedLevels divides graded intensities: an on pixel of value v moves
	// UnitVolume*|v|/GradedLevels of reagent plus v unit draws of water per
	// rail. Zero means 4.
	GradedLevels float64
}

// PlanData encodes the image against every neuron. For each pixel, acid
// goes to the left rail and base to the right when exactly one of "pixel
// on" and "weight is -1" holds; otherwise the routing is reversed. Any
// other weight, zero included, routes as unflipped.
func (n *Network) PlanData(p DataParams) (*Plan, error) {
	if err := n.ready(); err != nil {
		return nil, err
	}
	if p.Pools.Acid == nil || p.Pools.Base == nil {
		return nil, fmt.Errorf("%w: acid and base pools are required", ErrShape)
	}
	if p.Layout.Cols <= 0 {
		return nil, fmt.Errorf("%w: layout needs a positive column count", ErrShape)
	}
	levels := p.GradedLevels
	if levels == 0 {
		levels = 4
	}

	plan := &Plan{
		Write:   Stage{Name: "write data", Group: "write"},
		Dilute:  Stage{Name: "dilute data", Group: "dilute"},
		Rails:   make([]Rails, n.neurons),
		Volumes: make([]RailVolumes, n.neurons),
	}
	cur := p.Layout.cursor()
	for ni := 0; ni < n.neurons; ni++ {
		for pi, val := range n.image {
			left, right := cur.next(), cur.next()
			on := val > 0
			flip := n.weights[ni][pi] == -1

			vol := p.UnitVolume
			gradedOn := n.graded && on
			if gradedOn {
				vol = p.UnitVolume * float64(abs(val)) / levels
			}

			acid, err := p.Pools.Acid.Next()
			if err != nil {
				return nil, fmt.Errorf("acid: %w", err)
			}
			base, err := p.Pools.Base.Next()
			if err != nil {
				return nil, fmt.Errorf("base: %w", err)
			}

			rv := &plan.Volumes[ni]
			if on != flip {
				plan.Write.Triples = append(plan.Write.Triples,
					transfer.Triple{From: acid, To: left, Volume: vol},
					transfer.Triple{From: base, To: right, Volume: vol})
				rv.Acid[Left] += vol
				rv.Base[Right] += vol
			} else {
				plan.Write.Triples = append(plan.Write.Triples,
					transfer.Triple{From: base, To: left, Volume: vol},
					transfer.Triple{From: acid, To: right, Volume: vol})
				rv.Base[Left] += vol
				rv.Acid[Right] += vol
			}
			plan.Rails[ni].Left = append(plan.Rails[ni].Left, left)
			plan.Rails[ni].Right = append(plan.Rails[ni].Right, right)

			if gradedOn {
				if p.Pools.Water == nil {
					return nil, fmt.Errorf("%w: graded images need a water pool", ErrShape)
				}
				for range val {
					for rail, dest := range []labware.Position{left, right} {
						water, err := p.Pools.Water.Next()
						if err != nil {
							return nil, fmt.Errorf("water: %w", err)
						}
						plan.Dilute.Triples = append(plan.Dilute.Triples,
							transfer.Triple{From: water, To: dest, Volume: p.UnitVolume})
						rv.Water[rail] += p.UnitVolume
					}
				}
			}
		}
		cur.nextNeuron()
	}
	n.log.Info("planned data plate",
		zap.Int("neurons", n.neurons),
		zap.Int("pixels", len(n.image)),
		zap.Bool("graded", n.graded),
		zap.Int("write_transfers", plan.Write.Len()),
		zap.Int("dilute_transfers", plan.Dilute.Len()))
	return plan, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlanWeights applies the weights to an image that was already written as
// rail pairs on a source plate: sourceImage[2k] and sourceImage[2k+1] are
// pixel k's left and right wells, neuron-major. A weight of -1 swaps the
// pair on its way to the destination.
func (n *Network) PlanWeights(sourceImage []labware.Position, layout Layout, volume float64) (Stage, error) {
	if n.weights == nil {
		return Stage{}, ErrNotLoaded
	}
	if len(sourceImage)%2 != 0 {
		return Stage{}, fmt.Errorf("%w: odd source image length %d", ErrShape, len(sourceImage))
	}
	if layout.Cols <= 0 {
		return Stage{}, fmt.Errorf("%w: layout needs a positive column count", ErrShape)
	}
	stage := Stage{Name: "apply weights", Group: "weights"}
	cur := layout.cursor()
	per := 2 * n.weightsPerNeuron
	for i := 0; i < len(sourceImage); i += 2 {
		ni := i / per
		if ni >= n.neurons {
			return Stage{}, fmt.Errorf("%w: source image covers more than %d neurons", ErrShape, n.neurons)
		}
		a, b := sourceImage[i], sourceImage[i+1]
		if n.weights[ni][(i%per)/2] == -1 {
			a, b = b, a
		}
		stage.Triples = append(stage.Triples,
			transfer.Triple{From: a, To: cur.next(), Volume: volume},
			transfer.Triple{From: b, To: cur.next(), Volume: volume})
		if (i+2)%per == 0 {
			cur.nextNeuron()
		}
	}
	return stage, nil
}

// SumWells are the two pooled wells of one neuron.
type SumWells struct {
	Left  labware.Position
	Right labware.Position
}

// PlanSummation pools every rail into its neuron's summation wells: neuron
// i sums into row start.Row+i, columns start.Col and start.Col+1.
func PlanSummation(rails []Rails, start labware.Position, volume float64) (Stage, []SumWells) {
	stage := Stage{Name: "pool rails", Group: "pooling"}
	sums := make([]SumWells, len(rails))
	for i, r := range rails {
		sums[i] = SumWells{
			Left:  labware.Position{Row: start.Row + i, Col: start.Col},
			Right: labware.Position{Row: start.Row + i, Col: start.Col + 1},
		}
		for _, p := range r.Left {
			stage.Triples = append(stage.Triples, transfer.Triple{From: p, To: sums[i].Left, Volume: volume})
		}
		for _, p := range r.Right {
			stage.Triples = append(stage.Triples, transfer.Triple{From: p, To: sums[i].Right, Volume: volume})
		}
	}
	return stage, sums
}

// PlanIndicator adds volume of indicator to every well.
func PlanIndicator(wells []labware.Position, indicator labware.Position, volume float64) Stage {
	stage := Stage{Name: "add indicator", Group: "indicator"}
	for _, w := range wells {
		stage.Triples = append(stage.Triples, transfer.Triple{From: indicator, To: w, Volume: volume})
	}
	return stage
}
