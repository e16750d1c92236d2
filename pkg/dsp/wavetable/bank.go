package wavetable

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Shape identifies a table within a Bank
type Shape int

const (
	ShapeSine Shape = iota
	ShapeImpulse
	ShapeSquare
	ShapeSawtooth
	ShapeTriangle

	NumShapes
)

var shapeNames = [NumShapes]string{
	ShapeSine:     "sine",
	ShapeImpulse:  "impulse",
	ShapeSquare:   "square",
	ShapeSawtooth: "sawtooth",
	ShapeTriangle: "triangle",
}

var builders = [NumShapes]func(int) (*Table, error){
	ShapeSine:     Sine,
	ShapeImpulse:  Impulse,
	ShapeSquare:   Square,
	ShapeSawtooth: Sawtooth,
	ShapeTriangle: Triangle,
}

// String returns the shape name
func (s Shape) String() string {
	if s < 0 || s >= NumShapes {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// Bank holds one table per shape, all of the same size. Tables are built
// once and are read-only afterwards, so a Bank can be shared freely.
type Bank struct {
	size   int
	tables [NumShapes]*Table
}

// NewBank builds every table concurrently
func NewBank(size int) (*Bank, error) {
	b := &Bank{size: size}

	var g errgroup.Group
	for shape := Shape(0); shape < NumShapes; shape++ {
		g.Go(func() error {
			table, err := builders[shape](size)
			if err != nil {
				return fmt.Errorf("building %s table: %w", shape, err)
			}
			b.tables[shape] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// Size returns the table size shared by every shape
func (b *Bank) Size() int {
	return b.size
}

// Table returns the table for shape, or nil when shape is out of range
func (b *Bank) Table(shape Shape) *Table {
	if shape < 0 || shape >= NumShapes {
		return nil
	}
	return b.tables[shape]
}
