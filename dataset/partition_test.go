package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}

	return s
}

func TestKFoldCoverage(t *testing.T) {
	tests := []struct {
		name string
		n    int
		k    int
	}{
		{name: "even split", n: 100, k: 5},
		{name: "uneven split", n: 101, k: 5},
		{name: "two folds", n: 10, k: 2},
		{name: "many folds", n: 97, k: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := KFold(seq(tt.n), tt.k)
			require.NoError(t, err)
			require.Len(t, folds, tt.k)

			seen := make(map[int]int)
			for _, f := range folds {
				for _, idx := range f.Val {
					seen[idx]++
				}
				assert.Len(t, f.Train, tt.n-len(f.Val))

				inVal := make(map[int]bool, len(f.Val))
				for _, idx := range f.Val {
					inVal[idx] = true
				}
				for _, idx := range f.Train {
					assert.False(t, inVal[idx], "index %d in both train and val", idx)
				}
			}

			require.Len(t, seen, tt.n, "validation sets must cover the full dataset")
			for idx, count := range seen {
				assert.Equal(t, 1, count, "index %d validated %d times", idx, count)
			}
		})
	}
}

func TestKFoldRejectsBadCounts(t *testing.T) {
	tests := []struct {
		name string
		n    int
		k    int
	}{
		{name: "single fold", n: 10, k: 1},
		{name: "zero folds", n: 10, k: 0},
		{name: "negative folds", n: 10, k: -3},
		{name: "more folds than examples", n: 3, k: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KFold(seq(tt.n), tt.k)
			assert.ErrorIs(t, err, ErrFoldCount)
		})
	}
}

func TestShards(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		p         int
		wantSizes []int
	}{
		{name: "even shards", n: 12, p: 4, wantSizes: []int{3, 3, 3, 3}},
		{name: "uneven shards", n: 10, p: 3, wantSizes: []int{4, 3, 3}},
		{name: "single shard", n: 7, p: 1, wantSizes: []int{7}},
		{name: "more shards than examples", n: 2, p: 4, wantSizes: []int{1, 1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Shards(seq(tt.n), tt.p)
			require.Len(t, groups, tt.p)

			next := 0
			for i, g := range groups {
				assert.Len(t, g, tt.wantSizes[i])
				for _, idx := range g {
					assert.Equal(t, next, idx, "shards must preserve original ordering")
					next++
				}
			}
			assert.Equal(t, tt.n, next, "shards must partition all indices")

			// Sizes differ by at most one.
			min, max := tt.n, 0
			for _, g := range groups {
				if len(g) < min {
					min = len(g)
				}
				if len(g) > max {
					max = len(g)
				}
			}
			assert.LessOrEqual(t, max-min, 1)
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	d := Synthetic(100, 4, 8, 42)

	train1, test1 := d.Split(0.2, 42)
	train2, test2 := d.Split(0.2, 42)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
	assert.Len(t, test1, 20)
	assert.Len(t, train1, 80)

	seen := make(map[int]bool)
	for _, idx := range append(append([]int{}, train1...), test1...) {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
	assert.Len(t, seen, 100)
}

func TestValidate(t *testing.T) {
	d := Synthetic(50, 3, 4, 1)
	require.NoError(t, d.Validate())

	bad := &Dataset{X: make([]float64, 8), Y: []int{0, 3}, Features: 4, Classes: 3}
	assert.ErrorIs(t, bad.Validate(), ErrLabelRange)

	empty := &Dataset{Features: 4, Classes: 3}
	assert.ErrorIs(t, empty.Validate(), ErrEmptyDataset)
}
