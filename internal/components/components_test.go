// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package components

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := GetRegistry()
	require.NoError(t, err)
	return reg
}

func TestGetRegistry_BuiltinsResolve(t *testing.T) {
	reg := mustRegistry(t)

	cases := []struct {
		kind Kind
		name string
	}{
		{KindDType, "float32"},
		{KindInputGenerator, "SubstructureRepresentationOneIndexed"},
		{KindTargetGenerator, "SMILESRepresentationTokenized"},
		{KindModel, "TransformerModel"},
		{KindEmbedding, "nn.embed"},
		{KindForwardFunction, "src_fwd_fxn_basic"},
		{KindOptimizer, "Adam"},
		{KindLoss, "CrossEntropyLoss"},
		{KindLossMetric, "val"},
		{KindAnalysis, "SMILES"},
		{KindModelSelection, "lowest"},
		{KindPredGenFn, "infer_transformer_model"},
		{KindDatasetSplit, "test"},
		{KindDataLoader, "DataLoader"},
	}
	for _, tc := range cases {
		c, err := reg.Lookup(tc.kind, tc.name)
		require.NoError(t, err, "%s %s", tc.kind, tc.name)
		assert.Equal(t, tc.name, c.Name)
		assert.Equal(t, tc.kind, c.Kind)
	}
}

func TestLookup_UnknownListsKnownNames(t *testing.T) {
	reg := mustRegistry(t)

	_, err := reg.Lookup(KindOptimizer, "Adamm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
	assert.Contains(t, err.Error(), `"Adamm"`)
	assert.Contains(t, err.Error(), "Adam, AdamW")

	// names are case-sensitive
	_, err = reg.Lookup(KindLoss, "crossentropyloss")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestRegister_RejectsDuplicatesAndClonesAreIndependent(t *testing.T) {
	reg := mustRegistry(t).Clone()

	err := reg.Register(Component{Kind: KindOptimizer, Name: "Adam"})
	require.Error(t, err)

	require.NoError(t, reg.Register(Component{Kind: KindOptimizer, Name: "Lion"}))
	assert.True(t, reg.Has(KindOptimizer, "Lion"))
	assert.False(t, mustRegistry(t).Has(KindOptimizer, "Lion"))

	assert.Error(t, reg.Register(Component{Kind: KindOptimizer, Name: "  "}))
}

func TestKinds_Sorted(t *testing.T) {
	kinds := mustRegistry(t).Kinds()
	require.NotEmpty(t, kinds)
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, string(kinds[i-1]), string(kinds[i]))
	}
}

func validTransformerArgs() map[string]any {
	return map[string]any{
		"src_embed":            "nn.embed",
		"src_pad_token":        0,
		"src_forward_function": "src_fwd_fxn_basic",
		"tgt_embed":            "nn.embed",
		"tgt_pad_token":        0,
		"tgt_forward_function": "tgt_fwd_fxn_basic",
		"d_model":              128,
		"nhead":                4,
		"num_encoder_layers":   4,
		"num_decoder_layers":   4,
		"dim_feedforward":      2048,
		"source_size":          957,
		"target_size":          50,
	}
}

func validateModel(t *testing.T, args map[string]any) *validate.Validator {
	t.Helper()
	reg := mustRegistry(t)
	c, err := reg.Lookup(KindModel, "TransformerModel")
	require.NoError(t, err)
	v := validate.New()
	c.Schema.Validate(reg, "model.model_args", args, v)
	return v
}

func TestSchema_TransformerValid(t *testing.T) {
	v := validateModel(t, validTransformerArgs())
	assert.NoError(t, v.Err())
}

func TestSchema_PlaceholdersSkipped(t *testing.T) {
	args := validTransformerArgs()
	args["src_pad_token"] = "Populate"
	args["source_size"] = "Populate"
	v := validateModel(t, args)
	assert.NoError(t, v.Err())
}

func TestSchema_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
		kind   validate.Kind
	}{
		{"unknown key", func(a map[string]any) { a["n_layers"] = 3 }, "model.model_args.n_layers", validate.KindUnknown},
		{"missing required", func(a map[string]any) { delete(a, "tgt_pad_token") }, "model.model_args.tgt_pad_token", validate.KindMissing},
		{"wrong type", func(a map[string]any) { a["d_model"] = "big" }, "model.model_args.d_model", validate.KindType},
		{"float for int", func(a map[string]any) { a["nhead"] = 4.0 }, "model.model_args.nhead", validate.KindType},
		{"unknown embedding", func(a map[string]any) { a["src_embed"] = "conv" }, "model.model_args.src_embed", validate.KindUnknown},
		{"unknown forward function", func(a map[string]any) { a["src_forward_function"] = "nope" }, "model.model_args.src_forward_function", validate.KindUnknown},
		{"tgt embed must be nn.embed", func(a map[string]any) { a["tgt_embed"] = "mlp" }, "model.model_args.tgt_embed", validate.KindUnknown},
		{"heads divide d_model", func(a map[string]any) { a["nhead"] = 3 }, "model.model_args.d_model", validate.KindRange},
		{"non-positive size", func(a map[string]any) { a["target_size"] = 0 }, "model.model_args.target_size", validate.KindRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := validTransformerArgs()
			tt.mutate(args)
			v := validateModel(t, args)
			require.False(t, v.IsValid())

			var found bool
			for _, e := range v.Errors() {
				if e.Field == tt.field && e.Kind == tt.kind {
					found = true
				}
			}
			assert.True(t, found, "want %s error on %s, got %v", tt.kind, tt.field, v.Err())
		})
	}
}

func TestSchema_OpenAcceptsExtraKeys(t *testing.T) {
	reg := mustRegistry(t)
	c, err := reg.Lookup(KindInputGenerator, "SubstructureRepresentationOneIndexed")
	require.NoError(t, err)

	v := validate.New()
	c.Schema.Validate(reg, "data.input_generator_addn_args", map[string]any{"max_len": 30}, v)
	assert.NoError(t, v.Err())
}

func TestSchema_OptimizerArgs(t *testing.T) {
	reg := mustRegistry(t)
	c, err := reg.Lookup(KindOptimizer, "Adam")
	require.NoError(t, err)

	v := validate.New()
	c.Schema.Validate(reg, "training.optimizer_args", map[string]any{
		"lr":    0.00001,
		"betas": []any{0.9, 0.98},
	}, v)
	assert.NoError(t, v.Err())

	v = validate.New()
	c.Schema.Validate(reg, "training.optimizer_args", map[string]any{"lr": -1.0, "momentum": 0.9}, v)
	err = v.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrOutOfRange)
	assert.ErrorIs(t, err, validate.ErrUnknownIdentifier)
}

func TestSchema_MHANetHeads(t *testing.T) {
	reg := mustRegistry(t)
	c, err := reg.Lookup(KindModel, "MHANet")
	require.NoError(t, err)

	v := validate.New()
	c.Schema.Validate(reg, "model.model_args", map[string]any{
		"src_embed":            "mlp",
		"src_pad_token":        0,
		"src_forward_function": "src_fwd_fxn_basic",
		"d_model":              130,
		"d_out":                957,
		"d_feedforward":        1024,
		"n_heads":              8,
		"max_seq_len":          28,
	}, v)
	require.Len(t, v.Errors(), 1)
	assert.Equal(t, "model.model_args.d_model", v.Errors()[0].Field)
}

func TestNilSchemaAcceptsAnything(t *testing.T) {
	var s *Schema
	v := validate.New()
	s.Validate(nil, "x", map[string]any{"a": 1}, v)
	assert.True(t, v.IsValid())
}
