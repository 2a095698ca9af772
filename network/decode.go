package network

import (
	"fmt"
	"math"

	"chemcpu/chem"
	"chemcpu/labware"
	"chemcpu/ph"
)

// Class is a neuron's decoded output.
type Class int

const (
	Indeterminate Class = iota
	Zero
	One
)

func (c Class) String() string {
	switch c {
	case Zero:
		return "0"
	case One:
		return "1"
	}
	return "indeterminate"
}

// Decode classifies a rail pair: a basic left rail with an acidic right
// rail is class 0, as is a pair neutral on both rails; the mirror image is
// class 1. Both rails on one side, or one neutral rail, is indeterminate.
func Decode(left, right, neutral float64) Class {
	switch {
	case left > neutral && right < neutral:
		return Zero
	case left == neutral && right == neutral:
		return Zero
	case left < neutral && right > neutral:
		return One
	}
	return Indeterminate
}

// Output is the pH of both rails of one neuron and its class.
type Output struct {
	Left  float64
	Right float64
	Class Class
}

func (o Output) String() string {
	return fmt.Sprintf("left %.2f, right %.2f, class %s", o.Left, o.Right, o.Class)
}

// ExpectedOutputs predicts each neuron's rail pH from the reagent volumes
// the plan routed, given the pH of the acid and base stocks. Water routed
// by graded writes dilutes the rail.
func (p *Plan) ExpectedOutputs(calc ph.Calculator, acidPH, basePH float64) ([]Output, error) {
	calc = tolerant(calc)
	hAcid := math.Pow(10, -acidPH)
	ohBase := calc.HydroxideFromPH(basePH)
	out := make([]Output, len(p.Volumes))
	for i, v := range p.Volumes {
		var rails [2]float64
		for r := range rails {
			acidL := v.Acid[r] / chem.NanolitresPerLitre
			baseL := v.Base[r] / chem.NanolitresPerLitre
			waterL := v.Water[r] / chem.NanolitresPerLitre
			res, err := calc.FromMoles(hAcid*acidL, ohBase*baseL, acidL+baseL+waterL)
			if err != nil {
				return nil, fmt.Errorf("neuron %d: %w", i, err)
			}
			rails[r] = res.PH
		}
		out[i] = Output{Left: rails[Left], Right: rails[Right], Class: Decode(rails[Left], rails[Right], calc.NeutralPH())}
	}
	return out, nil
}

// minTolerance absorbs rounding in mole bookkeeping so that balanced rails
// read as neutral.
const minTolerance = 1e-8

func tolerant(calc ph.Calculator) ph.Calculator {
	if calc.NeutralTolerance < minTolerance {
		calc.NeutralTolerance = minTolerance
	}
	return calc
}

// WellPH computes the pH of a simulated well from the moles of its acid and
// base compounds and its aggregate volume.
func WellPH(c *labware.Container, pos labware.Position, calc ph.Calculator) (ph.Result, error) {
	w, err := c.Well(pos)
	if err != nil {
		return ph.Result{}, err
	}
	acid := w.Mixture.MolesOfType(chem.TypeAcid)
	base := w.Mixture.MolesOfType(chem.TypeBase)
	return calc.FromMoles(acid, base, w.Volume()/chem.NanolitresPerLitre)
}

// DecodeWells reads the pooled summation wells of every neuron.
func DecodeWells(c *labware.Container, sums []SumWells, calc ph.Calculator) ([]Output, error) {
	calc = tolerant(calc)
	out := make([]Output, len(sums))
	for i, s := range sums {
		l, err := WellPH(c, s.Left, calc)
		if err != nil {
			return nil, fmt.Errorf("neuron %d left rail: %w", i, err)
		}
		r, err := WellPH(c, s.Right, calc)
		if err != nil {
			return nil, fmt.Errorf("neuron %d right rail: %w", i, err)
		}
		out[i] = Output{Left: l.PH, Right: r.PH, Class: Decode(l.PH, r.PH, calc.NeutralPH())}
	}
	return out, nil
}
