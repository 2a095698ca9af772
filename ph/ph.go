// Package ph computes the pH of ideal strong acid/strong base mixtures and
// of weak-acid buffers. All functions are pure; volumes are in litres and
// concentrations are molar.
package ph

import (
	"fmt"
	"math"
)

// Kw25 is the ion product of water at 25 °C.
const Kw25 = 1e-14

// Neutral is the pH of exactly balanced mixtures.
const Neutral = 7.0

// DomainError reports arithmetic that has no physical answer, such as the
// logarithm of a non-positive concentration.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("ph: %s: %s", e.Op, e.Reason)
}

func domainErr(op, format string, args ...any) error {
	return &DomainError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Species identifies which side of a titration is in excess.
type Species int

const (
	Balanced Species = iota
	Acid
	Base
)

func (s Species) String() string {
	switch s {
	case Acid:
		return "acid"
	case Base:
		return "base"
	}
	return "balanced"
}

// Result describes a mixed solution.
type Result struct {
	PH float64
	// Excess is the species left over after neutralisation.
	Excess Species
	// ExcessConcentration is the molar concentration of the excess species.
	ExcessConcentration float64
	Hydrogen            float64
}

// Limiting is the fully consumed reagent; Balanced when neither is left.
func (r Result) Limiting() Species {
	switch r.Excess {
	case Acid:
		return Base
	case Base:
		return Acid
	}
	return Balanced
}

// Calculator carries the physical constants. The zero value is not useful;
// start from Default.
type Calculator struct {
	Kw float64
	// NeutralTolerance is the relative mole difference below which a
	// mixture is treated as exactly neutral.
	NeutralTolerance float64
}

// Default uses Kw at 25 °C and exact neutrality.
func Default() Calculator {
	return Calculator{Kw: Kw25}
}

func (c Calculator) neutral() float64 {
	if c.Kw == Kw25 {
		return Neutral
	}
	return -math.Log10(c.Kw) / 2
}

// NeutralPH is the pH of pure water under the calculator's Kw.
func (c Calculator) NeutralPH() float64 { return c.neutral() }

// FromHydrogen returns -log10([H+]).
func FromHydrogen(h float64) (float64, error) {
	if !(h > 0) || math.IsInf(h, 1) {
		return 0, domainErr("pH", "hydrogen ion concentration %g is not positive", h)
	}
	return -math.Log10(h), nil
}

// FromMoles mixes acidMoles of a strong acid with baseMoles of a strong base
// in volume litres.
func (c Calculator) FromMoles(acidMoles, baseMoles, volume float64) (Result, error) {
	if acidMoles < 0 || baseMoles < 0 {
		return Result{}, domainErr("mix", "negative moles (acid %g, base %g)", acidMoles, baseMoles)
	}
	if !(volume > 0) {
		return Result{}, domainErr("mix", "total volume %g is not positive", volume)
	}
	if c.Kw <= 0 {
		return Result{}, domainErr("mix", "Kw %g is not positive", c.Kw)
	}
	diff := acidMoles - baseMoles
	if diff == 0 || math.Abs(diff) <= c.NeutralTolerance*math.Max(acidMoles, baseMoles) {
		return Result{PH: c.neutral(), Excess: Balanced, Hydrogen: math.Sqrt(c.Kw)}, nil
	}
	res := Result{ExcessConcentration: math.Abs(diff) / volume}
	if diff > 0 {
		res.Excess = Acid
		res.Hydrogen = res.ExcessConcentration
	} else {
		res.Excess = Base
		res.Hydrogen = c.Kw / res.ExcessConcentration
	}
	p, err := FromHydrogen(res.Hydrogen)
	if err != nil {
		return Result{}, err
	}
	res.PH = p
	return res, nil
}

// FromVolumeConcentration mixes acidVol litres of acidConc acid with baseVol
// litres of baseConc base.
func (c Calculator) FromVolumeConcentration(acidVol, acidConc, baseVol, baseConc float64) (Result, error) {
	if acidVol < 0 || baseVol < 0 {
		return Result{}, domainErr("mix", "negative volume (acid %g, base %g)", acidVol, baseVol)
	}
	return c.FromMoles(acidConc*acidVol, baseConc*baseVol, acidVol+baseVol)
}

// AcidPH is the pH of a strong acid at conc.
func (c Calculator) AcidPH(conc float64) (float64, error) {
	return FromHydrogen(conc)
}

// BasePH is the pH of a strong base at conc.
func (c Calculator) BasePH(conc float64) (float64, error) {
	if !(conc > 0) {
		return 0, domainErr("base pH", "concentration %g is not positive", conc)
	}
	return FromHydrogen(c.Kw / conc)
}

// HydroxideFromPH returns [OH-] for a solution at pH p.
func (c Calculator) HydroxideFromPH(p float64) float64 {
	return c.Kw / math.Pow(10, -p)
}

// FromVolumePH mixes a solution of acidPH with one of basePH. The two are
// swapped if given the wrong way round. Mole counts within 1e-8 of each
// other, relatively, are neutral.
func (c Calculator) FromVolumePH(acidVol, acidPH, baseVol, basePH float64) (Result, error) {
	if acidPH > c.neutral() && basePH < c.neutral() {
		acidVol, acidPH, baseVol, basePH = baseVol, basePH, acidVol, acidPH
	}
	acidMoles := math.Pow(10, -acidPH) * acidVol
	baseMoles := c.HydroxideFromPH(basePH) * baseVol
	calc := c
	if calc.NeutralTolerance < 1e-8 {
		calc.NeutralTolerance = 1e-8
	}
	return calc.FromMoles(acidMoles, baseMoles, acidVol+baseVol)
}

// SimilarSolutionsPH mixes two solutions given by pH where at most one side
// is acid and at most one is base, or one is water (within 0.9 of neutral).
// Two acids pool their H+, two waters stay neutral, and water dilutes the
// other side.
func (c Calculator) SimilarSolutionsPH(vol1, ph1, vol2, ph2 float64) (float64, error) {
	n := c.neutral()
	water1 := math.Abs(ph1-n) < 0.9
	water2 := math.Abs(ph2-n) < 0.9
	total := vol1 + vol2
	if !(total > 0) {
		return 0, domainErr("dilute", "total volume %g is not positive", total)
	}
	switch {
	case water1 && water2:
		return n, nil
	case water1:
		return c.SimilarSolutionsPH(vol2, ph2, vol1, ph1)
	case water2:
		if ph1 < n {
			return FromHydrogen(math.Pow(10, -ph1) * vol1 / total)
		}
		oh := c.HydroxideFromPH(ph1) * vol1 / total
		return FromHydrogen(c.Kw / oh)
	}
	h := (math.Pow(10, -ph1)*vol1 + math.Pow(10, -ph2)*vol2) / total
	return FromHydrogen(h)
}
