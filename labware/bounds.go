package labware

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnsupportedBound = errors.New("labware: unsupported well-plate bound")

// Rect is an inclusive rectangle of wells, upper-left to lower-right.
type Rect struct {
	From, To Position
}

// BoundsToPositions expands bound specifications into an explicit,
// row-major list of positions. Accepted shapes are a lettergrid label
// ("B4"), a lettergrid range ("A1:B4"), a Position, a [2]string or
// [2]Position rectangle, and a Rect.
func BoundsToPositions(bounds ...any) ([]Position, error) {
	var out []Position
	for _, b := range bounds {
		r, err := boundRect(b)
		if err != nil {
			return nil, err
		}
		for row := r.From.Row; row <= r.To.Row; row++ {
			for col := r.From.Col; col <= r.To.Col; col++ {
				out = append(out, Position{Row: row, Col: col})
			}
		}
	}
	return out, nil
}

func boundRect(b any) (Rect, error) {
	switch v := b.(type) {
	case string:
		if from, to, ok := strings.Cut(v, ":"); ok {
			return labelRect(from, to)
		}
		p, err := FromLetterGrid(v)
		if err != nil {
			return Rect{}, err
		}
		return Rect{From: p, To: p}, nil
	case Position:
		return Rect{From: v, To: v}, nil
	case [2]string:
		return labelRect(v[0], v[1])
	case [2]Position:
		return Rect{From: v[0], To: v[1]}, nil
	case Rect:
		return v, nil
	}
	return Rect{}, fmt.Errorf("%w: %T %v", ErrUnsupportedBound, b, b)
}

func labelRect(from, to string) (Rect, error) {
	a, err := FromLetterGrid(from)
	if err != nil {
		return Rect{}, err
	}
	b, err := FromLetterGrid(to)
	if err != nil {
		return Rect{}, err
	}
	return Rect{From: a, To: b}, nil
}

// RectanglePositions lists every well between topLeft and bottomRight.
func RectanglePositions(topLeft, bottomRight Position) []Position {
	out, _ := BoundsToPositions(Rect{From: topLeft, To: bottomRight})
	return out
}

// Rotate180 maps positions onto a rows x cols plate turned half a turn.
func Rotate180(positions []Position, rows, cols int) []Position {
	out := make([]Position, len(positions))
	for i, p := range positions {
		out[i] = Position{Row: rows - 1 - p.Row, Col: cols - 1 - p.Col}
	}
	return out
}

// UniqueRows returns the distinct rows of positions, ascending.
func UniqueRows(positions []Position) []int {
	return uniq(positions, func(p Position) int { return p.Row })
}

// UniqueCols returns the distinct columns of positions, ascending.
func UniqueCols(positions []Position) []int {
	return uniq(positions, func(p Position) int { return p.Col })
}

func uniq(positions []Position, key func(Position) int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, p := range positions {
		k := key(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func IsolateRow(positions []Position, row int) []Position {
	var out []Position
	for _, p := range positions {
		if p.Row == row {
			out = append(out, p)
		}
	}
	return out
}

func IsolateCol(positions []Position, col int) []Position {
	var out []Position
	for _, p := range positions {
		if p.Col == col {
			out = append(out, p)
		}
	}
	return out
}

// SeparateByRow groups positions by row, rows ascending.
func SeparateByRow(positions []Position) [][]Position {
	var out [][]Position
	for _, r := range UniqueRows(positions) {
		out = append(out, IsolateRow(positions, r))
	}
	return out
}

// SeparateByCol groups positions by column, columns ascending.
func SeparateByCol(positions []Position) [][]Position {
	var out [][]Position
	for _, c := range UniqueCols(positions) {
		out = append(out, IsolateCol(positions, c))
	}
	return out
}

// SeparateByCount chunks positions into consecutive groups of count.
func SeparateByCount(positions []Position, count int) [][]Position {
	if count <= 0 {
		return nil
	}
	var out [][]Position
	for i := 0; i < len(positions); i += count {
		end := min(i+count, len(positions))
		out = append(out, positions[i:end])
	}
	return out
}
