// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FieldCoverage(t *testing.T) {
	reg, err := GetRegistry()
	require.NoError(t, err)
	assert.NoError(t, reg.ValidateFieldCoverage(Document{}))
}

func TestRegistry_PathsMatchYAMLKeys(t *testing.T) {
	reg, err := GetRegistry()
	require.NoError(t, err)

	root, err := ParseNode(TemplateBytes(), FormatYAML)
	require.NoError(t, err)

	for _, e := range reg.Entries() {
		if e.Path == "" {
			continue
		}
		// training.scheduler_args is omitted from the template
		if e.Path == "training.scheduler_args" {
			continue
		}
		_, err := Lookup(root, e.Path)
		assert.NoError(t, err, "registry path %s not in template", e.Path)
	}
}

func TestRegistry_Defaults(t *testing.T) {
	reg, err := GetRegistry()
	require.NoError(t, err)

	doc, err := reg.Defaults()
	require.NoError(t, err)
	assert.Equal(t, 1, doc.GlobalArgs.NGPUs)
	assert.Equal(t, "float32", doc.GlobalArgs.DType)
	assert.Equal(t, 10, doc.Training.TopCheckpointsN)
	assert.Equal(t, "val", doc.Training.CheckpointLossMetric)
	assert.Equal(t, 100, doc.Training.WriteFreq)
	assert.Equal(t, 10, doc.Training.TestFreq)
	assert.InDelta(t, 0.8, doc.Training.TrainSize, 1e-12)
	assert.Equal(t, "lowest", doc.Inference.ModelSelection)
	assert.Equal(t, "SMILES", doc.Analysis.AnalysisType)
	assert.Nil(t, doc.GlobalArgs.Seed)
}

func TestRegistry_EnvKeys(t *testing.T) {
	reg, err := GetRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"NMRCFG_DTYPE", "NMRCFG_NEPOCHS", "NMRCFG_NGPUS", "NMRCFG_SAVEDIR", "NMRCFG_SEED"}, reg.EnvKeys())
}

func TestRegistry_RenderMarkdown(t *testing.T) {
	reg, err := GetRegistry()
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, reg.RenderMarkdown(&b))
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "| Path | Env | Default | Status | Description |\n"))
	assert.Contains(t, out, "| `training.write_freq` |  | `100` | Active |")
	assert.Contains(t, out, "`NMRCFG_SAVEDIR`")
	assert.NotContains(t, out, "Placeholders")
}
