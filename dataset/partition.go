package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var ErrFoldCount = errors.New("cross-validation requires at least 2 folds")

// Fold is one (train, validation) split over dataset indices.
type Fold struct {
	Train []int
	Val   []int
}

// KFold splits the given indices into k folds. Every index appears in
// exactly one fold's validation set, and the union of validation sets is
// the full index slice. Groups are contiguous with sizes differing by at
// most one.
func KFold(indices []int, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrFoldCount, k)
	}
	if k > len(indices) {
		return nil, fmt.Errorf("%w: %d folds for %d examples", ErrFoldCount, k, len(indices))
	}

	groups := Shards(indices, k)

	folds := make([]Fold, k)
	for i := range folds {
		val := groups[i]
		train := make([]int, 0, len(indices)-len(val))
		for j, g := range groups {
			if j != i {
				train = append(train, g...)
			}
		}
		folds[i] = Fold{Train: train, Val: val}
	}

	return folds, nil
}

// SplitIndices shuffles a copy of the given indices with the seed and
// holds out frac of them, returning (kept, held out).
func SplitIndices(indices []int, frac float64, seed int64) ([]int, []int) {
	shuffled := make([]int, len(indices))
	copy(shuffled, indices)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := len(shuffled) - int(math.Round(float64(len(shuffled))*frac))

	return shuffled[:cut], shuffled[cut:]
}

// Shards splits indices into p nearly-equal contiguous groups preserving
// order. Group sizes differ by at most one; the first len(indices)%p
// groups carry the extra element, mirroring numpy's array_split.
func Shards(indices []int, p int) [][]int {
	if p < 1 {
		p = 1
	}

	n := len(indices)
	base := n / p
	extra := n % p

	groups := make([][]int, p)
	start := 0
	for i := 0; i < p; i++ {
		size := base
		if i < extra {
			size++
		}
		groups[i] = indices[start : start+size]
		start += size
	}

	return groups
}
