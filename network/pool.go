package network

import (
	"fmt"

	"chemcpu/labware"
)

// Pool hands out reagent wells round-robin. With a positive cap, a well
// that has served maxDraws draws is skipped from then on.
type Pool struct {
	positions []labware.Position
	maxDraws  int
	next      int
	draws     []int
}

// NewPool returns a pool over positions; maxDraws 0 means unlimited.
func NewPool(positions []labware.Position, maxDraws int) (*Pool, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: empty reagent pool", ErrShape)
	}
	if maxDraws < 0 {
		return nil, fmt.Errorf("%w: negative draw limit %d", ErrShape, maxDraws)
	}
	return &Pool{
		positions: append([]labware.Position(nil), positions...),
		maxDraws:  maxDraws,
		draws:     make([]int, len(positions)),
	}, nil
}

// Next returns the next well with draws left.
func (p *Pool) Next() (labware.Position, error) {
	for range p.positions {
		i := p.next
		p.next = (p.next + 1) % len(p.positions)
		if p.maxDraws > 0 && p.draws[i] >= p.maxDraws {
			continue
		}
		p.draws[i]++
		return p.positions[i], nil
	}
	return labware.Position{}, ErrPoolExhausted
}

// Draws is how many times pos has been handed out.
func (p *Pool) Draws(pos labware.Position) int {
	var n int
	for i, q := range p.positions {
		if q == pos {
			n += p.draws[i]
		}
	}
	return n
}

// Pools groups the reagent pools used when writing data.
type Pools struct {
	Acid  *Pool
	Base  *Pool
	Water *Pool
}
