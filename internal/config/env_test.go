// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	doc := validDoc(t)

	applied, err := ApplyEnv(doc, mapLookup(map[string]string{
		"NMRCFG_SAVEDIR": "/scratch/run7",
		"NMRCFG_SEED":    " 99 ",
		"NMRCFG_NGPUS":   "4",
		"NMRCFG_DTYPE":   "float64",
		"NMRCFG_NEPOCHS": "",
		"UNRELATED":      "x",
	}))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"NMRCFG_SAVEDIR", "NMRCFG_SEED", "NMRCFG_NGPUS", "NMRCFG_DTYPE"}, applied)
	assert.Equal(t, "/scratch/run7", doc.GlobalArgs.SaveDir)
	require.NotNil(t, doc.GlobalArgs.Seed)
	assert.Equal(t, 99, *doc.GlobalArgs.Seed)
	assert.Equal(t, 4, doc.GlobalArgs.NGPUs)
	assert.Equal(t, "float64", doc.GlobalArgs.DType)
	// empty values are ignored
	assert.Equal(t, 600, doc.Training.NEpochs)
}

func TestApplyEnv_ClearsFilledPlaceholder(t *testing.T) {
	doc := validDoc(t)
	doc.GlobalArgs.SaveDir = "Populate"
	doc.Placeholders = []string{"global_args.savedir", "training.nepochs"}

	_, err := ApplyEnv(doc, mapLookup(map[string]string{"NMRCFG_SAVEDIR": "/scratch/run7"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"training.nepochs"}, doc.Placeholders)
}

func TestApplyEnv_MalformedIsError(t *testing.T) {
	doc := validDoc(t)
	_, err := ApplyEnv(doc, mapLookup(map[string]string{"NMRCFG_NEPOCHS": "lots"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnv)
	assert.Contains(t, err.Error(), "NMRCFG_NEPOCHS")
	assert.Equal(t, 600, doc.Training.NEpochs)
}

func TestApplyEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv("NMRCFG_NEPOCHS", "12")
	doc := validDoc(t)

	applied, err := ApplyEnv(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"NMRCFG_NEPOCHS"}, applied)
	assert.Equal(t, 12, doc.Training.NEpochs)
}
