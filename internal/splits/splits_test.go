// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package splits

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatiosCheck(t *testing.T) {
	tests := []struct {
		name    string
		r       Ratios
		wantErr bool
	}{
		{"default", Ratios{0.8, 0.1, 0.1}, false},
		{"float noise", Ratios{0.7, 0.2, 0.1}, false},
		{"all train", Ratios{1, 0, 0}, false},
		{"short", Ratios{0.7, 0.1, 0.1}, true},
		{"negative", Ratios{1.2, -0.1, -0.1}, true},
		{"nan", Ratios{math.NaN(), 0.5, 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Check(1e-6)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRatios)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRatiosSizes(t *testing.T) {
	tests := []struct {
		n                 int
		r                 Ratios
		train, val, test int
	}{
		{100, Ratios{0.8, 0.1, 0.1}, 80, 10, 10},
		{11, Ratios{0.8, 0.1, 0.1}, 9, 1, 1},
		{7, Ratios{1.0 / 3, 1.0 / 3, 1.0 / 3}, 3, 2, 2},
		{3, Ratios{0.5, 0.25, 0.25}, 2, 1, 0},
		{0, Ratios{0.8, 0.1, 0.1}, 0, 0, 0},
	}
	for _, tt := range tests {
		train, val, test := tt.r.Sizes(tt.n)
		assert.Equal(t, []int{tt.train, tt.val, tt.test}, []int{train, val, test}, "n=%d %+v", tt.n, tt.r)
		assert.Equal(t, tt.n, train+val+test)
	}
}

func TestRandom(t *testing.T) {
	s, err := Random(50, Ratios{0.8, 0.1, 0.1}, 42)
	require.NoError(t, err)
	assert.Len(t, s.Train, 40)
	assert.Len(t, s.Val, 5)
	assert.Len(t, s.Test, 5)
	require.NoError(t, s.Validate(50))

	again, err := Random(50, Ratios{0.8, 0.1, 0.1}, 42)
	require.NoError(t, err)
	assert.Equal(t, s, again, "deterministic per seed")

	other, err := Random(50, Ratios{0.8, 0.1, 0.1}, 7)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)

	_, err = Random(10, Ratios{0.5, 0.5, 0.5}, 1)
	assert.ErrorIs(t, err, ErrInvalidRatios)
	_, err = Random(-1, Ratios{1, 0, 0}, 1)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Split{Train: []int{0, 1}, Val: []int{2}, Test: []int{3}}.Validate(4))
	assert.ErrorIs(t, Split{Train: []int{0, 1}, Test: []int{1}}.Validate(4), ErrInvalidIndices)
	assert.ErrorIs(t, Split{Train: []int{4}}.Validate(4), ErrInvalidIndices)
	assert.ErrorIs(t, Split{Val: []int{-1}}.Validate(0), ErrInvalidIndices)
	assert.NoError(t, Split{Train: []int{1000}}.Validate(0), "n <= 0 skips the bound")
}

func TestResolveSeed(t *testing.T) {
	seed := 17
	assert.Equal(t, 17, ResolveSeed(&seed))
	for i := 0; i < 100; i++ {
		got := ResolveSeed(nil)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, MaxSeed)
	}
}

func TestIndexFile_RoundTrip(t *testing.T) {
	s := Split{Train: []int{0, 2, 4}, Val: []int{1}, Test: []int{3}}
	for _, name := range []string{"split.json", "split.yaml", "split.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, WriteIndexFile(path, s))

			got, err := ReadIndexFile(path, 5)
			require.NoError(t, err)
			assert.Equal(t, s, got)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
		})
	}
}

func TestIndexFile_EmptySubsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.json")
	require.NoError(t, WriteIndexFile(path, Split{Train: []int{0}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"val": []`)
}

func TestReadIndexFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	_, err := ReadIndexFile(write("a.npz", "x"), 0)
	assert.Error(t, err)

	_, err = ReadIndexFile(write("unknown.yaml", "train: [0]\nextra: [1]\n"), 0)
	assert.Error(t, err)

	_, err = ReadIndexFile(write("unknown.json", `{"train": [0], "holdout": [1]}`), 0)
	assert.Error(t, err)

	_, err = ReadIndexFile(write("overlap.yaml", "train: [0, 1]\nval: [1]\ntest: []\n"), 0)
	assert.ErrorIs(t, err, ErrInvalidIndices)

	_, err = ReadIndexFile(write("bounds.json", `{"train": [0, 9], "val": [], "test": []}`), 5)
	assert.ErrorIs(t, err, ErrInvalidIndices)

	_, err = ReadIndexFile(write("empty.yaml", ""), 0)
	assert.Error(t, err)

	_, err = ReadIndexFile(filepath.Join(dir, "missing.json"), 0)
	assert.Error(t, err)
}

func TestWriteIndexFile_RejectsOverlap(t *testing.T) {
	err := WriteIndexFile(filepath.Join(t.TempDir(), "s.yaml"), Split{Train: []int{1}, Test: []int{1}})
	assert.ErrorIs(t, err, ErrInvalidIndices)
}
