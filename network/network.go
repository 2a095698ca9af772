// Package network encodes a single layer of a binary or graded neural
// network as acid/base transfers. Every neuron owns two output rails; the
// sign of its dot product shows up as which rail ends acidic after pooling.
package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrNotLoaded     = errors.New("network: weights or image not loaded")
	ErrShape         = errors.New("network: shape mismatch")
	ErrPoolExhausted = errors.New("network: every reagent well reached its draw limit")
)

// Network holds the weights of one layer and the current input image.
type Network struct {
	neurons          int
	weightsPerNeuron int
	weights          [][]int
	image            []int
	graded           bool
	log              *zap.Logger
}

type Option func(*Network)

// WithLogger sets the logger used while planning.
func WithLogger(l *zap.Logger) Option {
	return func(n *Network) { n.log = l }
}

// New returns a network of neurons neurons with weightsPerNeuron inputs each.
func New(neurons, weightsPerNeuron int, opts ...Option) (*Network, error) {
	if neurons <= 0 || weightsPerNeuron <= 0 {
		return nil, fmt.Errorf("%w: %d neurons of %d weights", ErrShape, neurons, weightsPerNeuron)
	}
	n := &Network{neurons: neurons, weightsPerNeuron: weightsPerNeuron, log: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = zap.NewNop()
	}
	return n, nil
}

func (n *Network) Neurons() int          { return n.neurons }
func (n *Network) WeightsPerNeuron() int { return n.weightsPerNeuron }
func (n *Network) Graded() bool          { return n.graded }

// Weights returns a copy of neuron i's weights.
func (n *Network) Weights(i int) []int {
	if i < 0 || i >= len(n.weights) {
		return nil
	}
	return append([]int(nil), n.weights[i]...)
}

// Image returns a copy of the loaded image.
func (n *Network) Image() []int { return append([]int(nil), n.image...) }

// ReadInts parses one number per line. Values are written as floats by the
// training pipeline and truncated toward zero here. Blank lines are skipped.
func ReadInts(r io.Reader) ([]int, error) {
	var out []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("network: line %d: %w", line, err)
		}
		out = append(out, int(f))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetWeights installs a flat, neuron-major weight vector.
func (n *Network) SetWeights(flat []int) error {
	if len(flat) < n.neurons*n.weightsPerNeuron {
		return fmt.Errorf("%w: %d weights for %d neurons of %d", ErrShape, len(flat), n.neurons, n.weightsPerNeuron)
	}
	n.weights = make([][]int, n.neurons)
	for i := range n.weights {
		n.weights[i] = append([]int(nil), flat[i*n.weightsPerNeuron:(i+1)*n.weightsPerNeuron]...)
	}
	return nil
}

// LoadWeights reads a weight file.
func (n *Network) LoadWeights(r io.Reader) error {
	flat, err := ReadInts(r)
	if err != nil {
		return err
	}
	return n.SetWeights(flat)
}

// SetImage installs the input pixels. Graded images carry intensities
// whose magnitude scales the transfer volume.
func (n *Network) SetImage(pixels []int, graded bool) error {
	if len(pixels) != n.weightsPerNeuron {
		return fmt.Errorf("%w: image of %d pixels for %d weights", ErrShape, len(pixels), n.weightsPerNeuron)
	}
	n.image = append([]int(nil), pixels...)
	n.graded = graded
	return nil
}

// LoadImage reads an image file.
func (n *Network) LoadImage(r io.Reader, graded bool) error {
	px, err := ReadInts(r)
	if err != nil {
		return err
	}
	return n.SetImage(px, graded)
}

func (n *Network) ready() error {
	if n.weights == nil || n.image == nil {
		return ErrNotLoaded
	}
	return nil
}
