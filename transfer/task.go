// Package transfer plans and executes liquid transfers between container
// wells. A Task is a declarative transfer spec that is expanded into
// (from, to, volume) triples at run time and applied strictly in order.
package transfer

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"chemcpu/labware"
)

// Spec declares a transfer from one container to another. Singleton
// position, volume and delay lists are broadcast to match the longer list.
type Spec struct {
	From          *labware.Container
	FromPositions []labware.Position
	To            *labware.Container
	ToPositions   []labware.Position
	// Volumes in nL.
	Volumes []float64
	Delays  []time.Duration
	// Group is stamped on every destination well written by the task.
	Group       string
	Description string
	// RepeatEach duplicates each source (and its volume) consecutively;
	// RepeatAll repeats the whole source list. Zero means once.
	RepeatEach int
	RepeatAll  int
}

// Triple is one elementary transfer.
type Triple struct {
	From   labware.Position
	To     labware.Position
	Volume float64
	Delay  time.Duration
}

// Task is a validated, immutable transfer spec.
type Task struct {
	spec Spec
}

// NewTask validates s and returns a task holding private copies of its
// lists.
func NewTask(s Spec) (*Task, error) {
	switch {
	case s.From == nil:
		return nil, &ConstructionError{Field: "from", Reason: "missing source container"}
	case s.To == nil:
		return nil, &ConstructionError{Field: "to", Reason: "missing destination container"}
	case len(s.FromPositions) == 0:
		return nil, &ConstructionError{Field: "from_positions", Reason: "no source positions"}
	case len(s.ToPositions) == 0:
		return nil, &ConstructionError{Field: "to_positions", Reason: "no destination positions"}
	case len(s.Volumes) == 0:
		return nil, &ConstructionError{Field: "volumes", Reason: "no volumes"}
	case s.RepeatEach < 0 || s.RepeatAll < 0:
		return nil, &ConstructionError{Field: "repeat", Reason: "negative repeat count"}
	}
	for _, p := range s.FromPositions {
		if !s.From.Contains(p) {
			return nil, &ConstructionError{Field: "from_positions", Reason: fmt.Sprintf("%v is outside %s", p, s.From.Description())}
		}
	}
	for _, p := range s.ToPositions {
		if !s.To.Contains(p) {
			return nil, &ConstructionError{Field: "to_positions", Reason: fmt.Sprintf("%v is outside %s", p, s.To.Description())}
		}
	}
	for _, v := range s.Volumes {
		if v < 0 {
			return nil, &ConstructionError{Field: "volumes", Reason: fmt.Sprintf("negative volume %g", v)}
		}
	}
	for _, d := range s.Delays {
		if d < 0 {
			return nil, &ConstructionError{Field: "delays", Reason: fmt.Sprintf("negative delay %s", d)}
		}
	}
	s.FromPositions = append([]labware.Position(nil), s.FromPositions...)
	s.ToPositions = append([]labware.Position(nil), s.ToPositions...)
	s.Volumes = append([]float64(nil), s.Volumes...)
	s.Delays = append([]time.Duration(nil), s.Delays...)
	return &Task{spec: s}, nil
}

func (t *Task) Description() string      { return t.spec.Description }
func (t *Task) Group() string            { return t.spec.Group }
func (t *Task) From() *labware.Container { return t.spec.From }
func (t *Task) To() *labware.Container   { return t.spec.To }

// Spec returns a copy of the task's declaration.
func (t *Task) Spec() Spec {
	s := t.spec
	s.FromPositions = append([]labware.Position(nil), s.FromPositions...)
	s.ToPositions = append([]labware.Position(nil), s.ToPositions...)
	s.Volumes = append([]float64(nil), s.Volumes...)
	s.Delays = append([]time.Duration(nil), s.Delays...)
	return s
}

func (t *Task) String() string {
	return fmt.Sprintf("Task: %s, %s -> %s, %d transfers",
		t.spec.Description, t.spec.From.Description(), t.spec.To.Description(), len(t.Expand(false)))
}

func broadcast[T any](xs []T, n int) []T {
	if len(xs) != 1 || n <= 1 {
		return xs
	}
	out := make([]T, n)
	for i := range out {
		out[i] = xs[0]
	}
	return out
}

func repeatEach[T any](xs []T, n int) []T {
	if n <= 1 {
		return xs
	}
	out := make([]T, 0, len(xs)*n)
	for _, x := range xs {
		for range n {
			out = append(out, x)
		}
	}
	return out
}

func repeatAll[T any](xs []T, n int) []T {
	if n <= 1 {
		return xs
	}
	out := make([]T, 0, len(xs)*n)
	for range n {
		out = append(out, xs...)
	}
	return out
}

// Expand broadcasts the task Spec into triples. With rotate set, destination
// positions are mirrored as if the destination plate were turned 180
// degrees. Surplus entries of the longer lists are dropped.
func (t *Task) Expand(rotate bool) []Triple {
	s := t.spec
	from, to, vols, delays := s.FromPositions, s.ToPositions, s.Volumes, s.Delays
	if rotate {
		to = labware.Rotate180(to, s.To.Rows(), s.To.Cols())
	}

	from = broadcast(from, len(to))
	vols = broadcast(vols, len(from))
	delays = broadcast(delays, len(from))

	from = repeatAll(repeatEach(from, s.RepeatEach), s.RepeatAll)
	vols = repeatAll(repeatEach(vols, s.RepeatEach), s.RepeatAll)
	if len(delays) > 0 {
		delays = repeatAll(repeatEach(delays, s.RepeatEach), s.RepeatAll)
	}
	to = broadcast(to, len(from))

	n := min(len(from), len(to), len(vols))
	out := make([]Triple, n)
	for i := range n {
		out[i] = Triple{From: from[i], To: to[i], Volume: vols[i]}
		if i < len(delays) {
			out[i].Delay = delays[i]
		}
	}
	return out
}

// Distribution of a volume perturbation.
type Distribution int

const (
	Gaussian Distribution = iota
	Uniform
)

// Uncertainty perturbs every volume of a task by one random factor, either
// 1+N(0, Fraction) or 1+U(-Fraction, Fraction).
type Uncertainty struct {
	Distribution Distribution
	Fraction     float64
	Rand         *rand.Rand
}

func (u *Uncertainty) factor() float64 {
	if u == nil || u.Fraction == 0 {
		return 1
	}
	r := u.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	var f float64
	if u.Distribution == Uniform {
		f = 1 + u.Fraction*(2*r.Float64()-1)
	} else {
		f = 1 + u.Fraction*r.NormFloat64()
	}
	return max(f, 0)
}

// Options control execution.
type Options struct {
	// EnforceLimits checks source depletion and destination overflow
	// before each transfer.
	EnforceLimits bool
	// VolumeIncrement is the device resolution in nL. Zero uses the source
	// container's increment.
	VolumeIncrement float64
	RotateDest180   bool
	Uncertainty     *Uncertainty
	Logger          *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// RoundDown truncates volume to a whole number of increments.
func RoundDown(volume, increment float64) float64 {
	if increment <= 0 {
		return volume
	}
	inc := decimal.NewFromFloat(increment)
	return decimal.NewFromFloat(volume).Div(inc).Floor().Mul(inc).InexactFloat64()
}

// Result records what a run committed. Committed triples carry the volumes
// actually moved; they persist even when Run returns an error.
type Result struct {
	Task      string
	Planned   int
	Committed []Triple
}

// Complete reports whether every planned triple was applied.
func (r Result) Complete() bool { return len(r.Committed) == r.Planned }

// Run expands the task and applies its triples in order. A failing triple
// stops the task; earlier triples are not rolled back.
func (t *Task) Run(opts Options) (Result, error) {
	log := opts.logger().With(zap.String("task", t.spec.Description))
	triples := t.Expand(opts.RotateDest180)
	res := Result{Task: t.spec.Description, Planned: len(triples)}

	log.Info("running transfer task",
		zap.String("from", t.spec.From.Description()),
		zap.String("to", t.spec.To.Description()),
		zap.Int("transfers", len(triples)))
	if len(triples) == 0 {
		log.Warn("task has no transfers")
	}
	if len(t.spec.FromPositions) > len(t.spec.ToPositions) && len(t.spec.ToPositions) > 1 {
		log.Warn("more sources than destinations, surplus sources dropped",
			zap.Int("sources", len(t.spec.FromPositions)),
			zap.Int("destinations", len(t.spec.ToPositions)))
	}

	inc := opts.VolumeIncrement
	if inc == 0 {
		inc = t.spec.From.VolumeIncrement()
	}
	factor := opts.Uncertainty.factor()

	for i, tr := range triples {
		vol := RoundDown(tr.Volume*factor, inc)
		if err := t.apply(i, tr.From, tr.To, vol, opts.EnforceLimits); err != nil {
			log.Error("transfer failed", zap.Int("index", i), zap.Error(err))
			return res, err
		}
		log.Debug("transfer",
			zap.String("from", t.spec.From.Label(tr.From)),
			zap.String("to", t.spec.To.Label(tr.To)),
			zap.Float64("volume_nl", vol))
		tr.Volume = vol
		res.Committed = append(res.Committed, tr)
	}
	return res, nil
}

func (t *Task) apply(i int, from, to labware.Position, vol float64, enforce bool) error {
	src, err := t.spec.From.Well(from)
	if err != nil {
		return err
	}
	dst, err := t.spec.To.Well(to)
	if err != nil {
		return err
	}
	if enforce {
		if avail := src.Volume() - t.spec.From.VolumeMin(); avail < vol {
			return &CapacityError{
				Kind: Depletion, Container: t.spec.From.Description(), Position: from,
				Label: t.spec.From.Label(from), Available: avail, Requested: vol, Index: i,
			}
		}
		if room := t.spec.To.VolumeMax() - dst.Volume(); room < vol {
			return &CapacityError{
				Kind: Overflow, Container: t.spec.To.Description(), Position: to,
				Label: t.spec.To.Label(to), Available: room, Requested: vol, Index: i,
			}
		}
	}

	portion := src.Mixture.Withdraw(vol)
	moved := portion[:0]
	for _, c := range portion {
		if c.Volume != 0 {
			moved = append(moved, c)
		}
	}
	dst.Mixture.Merge(moved, vol)
	if t.spec.Group != "" {
		dst.Group = t.spec.Group
	}
	return nil
}
