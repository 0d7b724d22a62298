// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package splits builds and checks the train/val/test partitions a document
// asks for, either from ratios or from an index file.
package splits

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// MaxSeed is the upper bound of seeds drawn by ResolveSeed.
const MaxSeed = 100000

// ErrInvalidRatios is returned when a ratio triple is not a partition of 1.
var ErrInvalidRatios = errors.New("split ratios do not form a partition")

// ErrInvalidIndices is returned when split indices overlap or fall outside
// the dataset.
var ErrInvalidIndices = errors.New("invalid split indices")

// Ratios is a train/val/test triple.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// Check verifies each ratio lies in [0, 1] and the triple sums to 1 within tol.
func (r Ratios) Check(tol float64) error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"train", r.Train}, {"val", r.Val}, {"test", r.Test}} {
		if math.IsNaN(v.val) || v.val < 0 || v.val > 1 {
			return fmt.Errorf("%w: %s ratio %v outside [0, 1]", ErrInvalidRatios, v.name, v.val)
		}
	}
	sum := r.Train + r.Val + r.Test
	if math.Abs(sum-1) > tol {
		return fmt.Errorf("%w: ratios sum to %v", ErrInvalidRatios, sum)
	}
	return nil
}

// Sizes returns the subset sizes for n items: floor(n*ratio) each, with the
// remainder handed out one at a time to train, val and test in turn.
func (r Ratios) Sizes(n int) (train, val, test int) {
	sizes := [3]int{
		int(math.Floor(float64(n) * r.Train)),
		int(math.Floor(float64(n) * r.Val)),
		int(math.Floor(float64(n) * r.Test)),
	}
	rem := n - sizes[0] - sizes[1] - sizes[2]
	for i := 0; rem > 0; i = (i + 1) % 3 {
		sizes[i]++
		rem--
	}
	// Ratios summing slightly above 1 can overshoot; trim from the back.
	for i := 2; rem < 0 && i >= 0; i-- {
		take := min(sizes[i], -rem)
		sizes[i] -= take
		rem += take
	}
	return sizes[0], sizes[1], sizes[2]
}

// Split holds the dataset indices of each subset.
type Split struct {
	Train []int `json:"train" yaml:"train"`
	Val   []int `json:"val" yaml:"val"`
	Test  []int `json:"test" yaml:"test"`
}

// Len returns the number of indices in the split.
func (s Split) Len() int { return len(s.Train) + len(s.Val) + len(s.Test) }

// Random partitions [0, n) by ratios using a permutation seeded by seed. The
// same seed always yields the same split. Each subset is sorted.
func Random(n int, ratios Ratios, seed int64) (Split, error) {
	if n < 0 {
		return Split{}, fmt.Errorf("splits: negative dataset size %d", n)
	}
	if err := ratios.Check(1e-6); err != nil {
		return Split{}, err
	}

	// #nosec G404 -- reproducible shuffling, not a security boundary
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	train, val, _ := ratios.Sizes(n)
	s := Split{
		Train: sorted(perm[:train]),
		Val:   sorted(perm[train : train+val]),
		Test:  sorted(perm[train+val:]),
	}
	return s, nil
}

func sorted(idx []int) []int {
	out := make([]int, len(idx))
	copy(out, idx)
	sort.Ints(out)
	return out
}

// Validate checks that no index appears twice and, when n > 0, that every
// index lies in [0, n).
func (s Split) Validate(n int) error {
	seen := make(map[int]string, s.Len())
	for _, part := range []struct {
		name string
		idx  []int
	}{{"train", s.Train}, {"val", s.Val}, {"test", s.Test}} {
		for _, i := range part.idx {
			if i < 0 || (n > 0 && i >= n) {
				return fmt.Errorf("%w: %s index %d outside [0, %d)", ErrInvalidIndices, part.name, i, n)
			}
			if prev, dup := seen[i]; dup {
				return fmt.Errorf("%w: index %d in both %s and %s", ErrInvalidIndices, i, prev, part.name)
			}
			seen[i] = part.name
		}
	}
	return nil
}

// ResolveSeed returns *seed, or a fresh seed in [0, MaxSeed] when seed is nil.
func ResolveSeed(seed *int) int {
	if seed != nil {
		return *seed
	}
	// #nosec G404 -- run seeds are not secrets
	return rand.IntN(MaxSeed + 1)
}
