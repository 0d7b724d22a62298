// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package components

// builtins is the static table of implementations the training harness ships.
// Argument schemas mirror the constructor signatures the harness calls with
// the document's *_args mappings.
func builtins() []Component {
	var out []Component
	add := func(kind Kind, schema *Schema, desc string, names ...string) {
		for _, n := range names {
			out = append(out, Component{Kind: kind, Name: n, Description: desc, Schema: schema})
		}
	}

	add(KindDType, nil, "tensor precision", "float32", "float64", "float16")

	add(KindInputGenerator, &Schema{Open: true}, "input representation",
		"SubstructureRepresentationOneIndexed",
		"SubstructureRepresentationBinary",
		"SpectrumRepresentationUnprocessed",
		"SpectrumRepresentationThresholdTokenized",
	)
	add(KindTargetGenerator, &Schema{Open: true}, "target representation",
		"SMILESRepresentationTokenized",
		"SubstructureRepresentationBinary",
	)

	add(KindModel, transformerSchema(), "encoder-decoder transformer", "TransformerModel")
	add(KindModel, mhaNetSchema(), "multihead attention network", "MHANet")

	add(KindEmbedding, nil, "source or target embedding", "mlp", "matrix_scale", "nn.embed")
	add(KindForwardFunction, nil, "embedding forward function",
		"src_fwd_fxn_basic",
		"tgt_fwd_fxn_basic",
		"src_fwd_fxn_no_embedding_mlp",
		"src_fwd_fxn_packed_tensor",
	)
	add(KindActivation, nil, "feedforward activation", "relu", "gelu")

	add(KindOptimizer, optimizerSchema("betas", "eps", "weight_decay", "amsgrad"), "Adam", "Adam")
	add(KindOptimizer, optimizerSchema("betas", "eps", "weight_decay", "amsgrad"), "AdamW", "AdamW")
	add(KindOptimizer, optimizerSchema("momentum", "dampening", "weight_decay", "nesterov"), "stochastic gradient descent", "SGD")
	add(KindOptimizer, optimizerSchema("alpha", "eps", "weight_decay", "momentum", "centered"), "RMSprop", "RMSprop")
	add(KindOptimizer, optimizerSchema("lr_decay", "weight_decay", "initial_accumulator_value", "eps"), "Adagrad", "Adagrad")

	add(KindScheduler, &Schema{Params: []Param{
		{Name: "factor", Kind: ParamFloat, Positive: true},
		{Name: "warmup_steps", Kind: ParamInt, Required: true, Positive: true},
	}}, "transformer warmup schedule", "attention")

	add(KindLoss, &Schema{Params: []Param{
		{Name: "weight", Kind: ParamAny},
		{Name: "ignore_index", Kind: ParamInt},
		{Name: "reduction", Kind: ParamString},
		{Name: "label_smoothing", Kind: ParamFloat},
	}}, "cross entropy", "CrossEntropyLoss")
	add(KindLoss, &Schema{Params: []Param{
		{Name: "weight", Kind: ParamAny},
		{Name: "reduction", Kind: ParamString},
	}}, "binary cross entropy", "BCELoss")
	add(KindLoss, &Schema{Params: []Param{
		{Name: "weights", Kind: ParamAny},
		{Name: "reduction", Kind: ParamString},
	}}, "per-substructure weighted binary cross entropy", "subs_weighted_BCE")

	add(KindLossMetric, nil, "checkpoint ranking loss", "train", "val")

	add(KindAnalysis, &Schema{Open: true, Params: []Param{
		{Name: "substructures", Kind: ParamAny, Required: true},
	}}, "SMILES generation metrics", "SMILES")
	add(KindAnalysis, &Schema{Open: true}, "substructure prediction metrics", "substructure")

	add(KindModelSelection, nil, "lowest loss checkpoint", "lowest")
	add(KindModelSelection, nil, "highest epoch checkpoint", "latest")

	add(KindPredGenFn, &Schema{Params: []Param{
		{Name: "num_pred_per_tgt", Kind: ParamInt, Required: true, Positive: true},
		{Name: "sample_val", Kind: ParamInt, Required: true, Positive: true},
		{Name: "tgt_start_token", Kind: ParamString, Required: true},
		{Name: "tgt_stop_token", Kind: ParamString, Required: true},
		{Name: "track_gradients", Kind: ParamBool},
		{Name: "alphabet", Kind: ParamAny, Required: true},
		{Name: "decode", Kind: ParamBool},
		{Name: "infer_fwd_fxn", Kind: ParamString},
	}}, "autoregressive transformer sampling", "infer_transformer_model")
	add(KindPredGenFn, &Schema{Open: true}, "single forward pass", "infer_basic_model")

	add(KindDatasetSplit, nil, "dataset partition", "train", "val", "test")

	add(KindDataLoader, &Schema{Params: []Param{
		{Name: "batch_size", Kind: ParamInt, Positive: true},
		{Name: "shuffle", Kind: ParamBool},
		{Name: "num_workers", Kind: ParamInt},
		{Name: "pin_memory", Kind: ParamBool},
		{Name: "drop_last", Kind: ParamBool},
		{Name: "persistent_workers", Kind: ParamBool},
	}}, "batched loader", "DataLoader")

	return out
}

func transformerSchema() *Schema {
	return &Schema{
		Params: []Param{
			{Name: "src_embed", Kind: ParamString, Required: true, Ref: KindEmbedding},
			{Name: "tgt_embed", Kind: ParamString, Required: true, Ref: KindEmbedding},
			{Name: "src_pad_token", Kind: ParamInt, Required: true},
			{Name: "tgt_pad_token", Kind: ParamInt, Required: true},
			{Name: "src_forward_function", Kind: ParamString, Required: true, Ref: KindForwardFunction},
			{Name: "tgt_forward_function", Kind: ParamString, Required: true, Ref: KindForwardFunction},
			{Name: "d_model", Kind: ParamInt, Positive: true},
			{Name: "nhead", Kind: ParamInt, Positive: true},
			{Name: "num_encoder_layers", Kind: ParamInt, Positive: true},
			{Name: "num_decoder_layers", Kind: ParamInt, Positive: true},
			{Name: "dim_feedforward", Kind: ParamInt, Positive: true},
			{Name: "dropout", Kind: ParamFloat},
			{Name: "activation", Kind: ParamString, Ref: KindActivation},
			{Name: "custom_encoder", Kind: ParamAny},
			{Name: "custom_decoder", Kind: ParamAny},
			{Name: "target_size", Kind: ParamInt, Positive: true},
			{Name: "source_size", Kind: ParamInt, Positive: true},
			{Name: "layer_norm_eps", Kind: ParamFloat, Positive: true},
			{Name: "batch_first", Kind: ParamBool},
			{Name: "norm_first", Kind: ParamBool},
			{Name: "device", Kind: ParamAny},
			{Name: "dtype", Kind: ParamAny},
		},
		Checks: []Check{
			equals("tgt_embed", "nn.embed"),
			divisible("d_model", "nhead"),
		},
	}
}

func mhaNetSchema() *Schema {
	return &Schema{
		Params: []Param{
			{Name: "src_embed", Kind: ParamString, Required: true, Ref: KindEmbedding},
			{Name: "positional_encoding", Kind: ParamAny},
			{Name: "forward_network", Kind: ParamAny},
			{Name: "src_pad_token", Kind: ParamInt, Required: true},
			{Name: "src_forward_function", Kind: ParamString, Required: true, Ref: KindForwardFunction},
			{Name: "d_model", Kind: ParamInt, Required: true, Positive: true},
			{Name: "d_out", Kind: ParamInt, Required: true, Positive: true},
			{Name: "d_feedforward", Kind: ParamInt, Required: true, Positive: true},
			{Name: "n_heads", Kind: ParamInt, Required: true, Positive: true},
			{Name: "max_seq_len", Kind: ParamInt, Required: true, Positive: true},
			{Name: "device", Kind: ParamAny},
			{Name: "dtype", Kind: ParamAny},
		},
		Checks: []Check{divisible("d_model", "n_heads")},
	}
}

func optimizerSchema(extra ...string) *Schema {
	s := &Schema{Params: []Param{{Name: "lr", Kind: ParamFloat, Positive: true}}}
	for _, name := range extra {
		kind := ParamFloat
		switch name {
		case "betas":
			kind = ParamList
		case "amsgrad", "nesterov", "centered":
			kind = ParamBool
		}
		s.Params = append(s.Params, Param{Name: name, Kind: kind})
	}
	return s
}
