// Package dataset holds labeled image data already materialized in memory
// and the index-level partitioning used by the training coordinator.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	ErrEmptyDataset = errors.New("dataset has no examples")
	ErrLabelRange   = errors.New("label out of class range")
	ErrShapeMismatch = errors.New("inputs and labels have different lengths")
)

// Dataset is an ordered sequence of (input vector, integer label) pairs.
// X is row-major: example i occupies X[i*Features : (i+1)*Features].
// A Dataset is immutable once loaded.
type Dataset struct {
	X        []float64
	Y        []int
	Features int
	Classes  int
}

func (d *Dataset) Len() int {
	return len(d.Y)
}

// Input returns the feature vector of example i. The returned slice
// aliases the dataset backing array and must not be mutated.
func (d *Dataset) Input(i int) []float64 {
	return d.X[i*d.Features : (i+1)*d.Features]
}

func (d *Dataset) Label(i int) int {
	return d.Y[i]
}

// Example satisfies the batch source contract of the trainable model.
func (d *Dataset) Example(i int) ([]float64, int) {
	return d.Input(i), d.Y[i]
}

// Validate enforces the invariant that every label lies in [0, Classes).
func (d *Dataset) Validate() error {
	if len(d.Y) == 0 {
		return ErrEmptyDataset
	}
	if len(d.X) != len(d.Y)*d.Features {
		return fmt.Errorf("%w: %d inputs for %d labels", ErrShapeMismatch, len(d.X), len(d.Y))
	}
	for i, y := range d.Y {
		if y < 0 || y >= d.Classes {
			return fmt.Errorf("%w: label %d at example %d, classes %d", ErrLabelRange, y, i, d.Classes)
		}
	}

	return nil
}

// Split shuffles [0, Len) with the given seed and divides it into a
// training and a held-out slice, with testFrac of the examples held out.
func (d *Dataset) Split(testFrac float64, seed int64) (train, test []int) {
	n := d.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	cut := n - int(math.Round(float64(n)*testFrac))

	return perm[:cut], perm[cut:]
}

// Synthetic generates n examples over the given number of classes as
// Gaussian blobs, one blob center per class. Deterministic for a seed.
func Synthetic(n, classes, features int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	centers := make([][]float64, classes)
	for c := range centers {
		centers[c] = make([]float64, features)
		for j := range centers[c] {
			centers[c][j] = rng.Float64()*2 - 1
		}
	}

	d := &Dataset{
		X:        make([]float64, n*features),
		Y:        make([]int, n),
		Features: features,
		Classes:  classes,
	}
	for i := 0; i < n; i++ {
		c := i % classes
		d.Y[i] = c
		row := d.X[i*features : (i+1)*features]
		for j := range row {
			row[j] = centers[c][j] + rng.NormFloat64()*0.3
		}
	}

	return d
}
