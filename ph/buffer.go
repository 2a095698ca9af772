package ph

import "math"

// Buffer is a weak acid and its conjugate base.
type Buffer struct {
	Ka                float64
	AcidConcentration float64
	BaseConcentration float64
}

// PH applies the Henderson–Hasselbalch equation.
func (b Buffer) PH() (float64, error) {
	if !(b.Ka > 0) {
		return 0, domainErr("buffer", "Ka %g is not positive", b.Ka)
	}
	if !(b.AcidConcentration > 0) || !(b.BaseConcentration > 0) {
		return 0, domainErr("buffer", "buffer exhausted (acid %g, base %g)", b.AcidConcentration, b.BaseConcentration)
	}
	return -math.Log10(b.Ka) + math.Log10(b.BaseConcentration/b.AcidConcentration), nil
}

// WithBase converts conc of the weak acid to its conjugate base.
func (b Buffer) WithBase(conc float64) Buffer {
	b.AcidConcentration -= conc
	b.BaseConcentration += conc
	return b
}

// WithAcid converts conc of the conjugate base back to the weak acid.
func (b Buffer) WithAcid(conc float64) Buffer {
	b.AcidConcentration += conc
	b.BaseConcentration -= conc
	return b
}

// WithBuffer adds the concentrations of another buffer of the same Ka.
func (b Buffer) WithBuffer(o Buffer) Buffer {
	b.AcidConcentration += o.AcidConcentration
	b.BaseConcentration += o.BaseConcentration
	return b
}
