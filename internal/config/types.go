// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// Section keys of a document, in canonical order.
const (
	SectionGlobalArgs = "global_args"
	SectionData       = "data"
	SectionModel      = "model"
	SectionTraining   = "training"
	SectionAnalysis   = "analysis"
	SectionInference  = "inference"
)

// RequiredSections lists the top-level sections every document must carry.
var RequiredSections = []string{
	SectionGlobalArgs,
	SectionData,
	SectionModel,
	SectionTraining,
	SectionAnalysis,
	SectionInference,
}

// Document is a training "run" document for the substructure to SMILES
// transformer. Keys map one-to-one onto the YAML document; the external
// harness consumes the same file.
type Document struct {
	GlobalArgs GlobalArgs `yaml:"global_args"`
	Data       Data       `yaml:"data"`
	Model      Model      `yaml:"model"`
	Training   Training   `yaml:"training"`
	Analysis   Analysis   `yaml:"analysis"`
	Inference  Inference  `yaml:"inference"`

	// Placeholders holds the paths still carrying the template placeholder,
	// in document order. It is derived on parse and never serialized.
	Placeholders []string `yaml:"-"`
}

// GlobalArgs holds run-wide settings.
type GlobalArgs struct {
	NGPUs   int    `yaml:"ngpus"`
	DType   string `yaml:"dtype"`
	SaveDir string `yaml:"savedir"`
	// Seed is nil when the run should draw a seed at process start.
	Seed *int `yaml:"seed"`
}

// Data names the input files and the representation generators.
type Data struct {
	SpectraFile         []string `yaml:"spectra_file"`
	LabelFile           []string `yaml:"label_file"`
	SmilesFile          []string `yaml:"smiles_file"`
	InputGenerator      string   `yaml:"input_generator"`
	InputGeneratorArgs  Args     `yaml:"input_generator_addn_args"`
	TargetGenerator     string   `yaml:"target_generator"`
	TargetGeneratorArgs Args     `yaml:"target_generator_addn_args"`
	Eps                 float64  `yaml:"eps"`
}

// Model selects the network and its constructor arguments.
type Model struct {
	ModelType string  `yaml:"model_type"`
	LoadModel *string `yaml:"load_model"`
	ModelArgs Args    `yaml:"model_args"`
}

// Training holds the optimisation and checkpoint settings.
type Training struct {
	NEpochs              int      `yaml:"nepochs"`
	TopCheckpointsN      int      `yaml:"top_checkpoints_n"`
	CheckpointLossMetric string   `yaml:"checkpoint_loss_metric"`
	WriteFreq            int      `yaml:"write_freq"`
	TestFreq             int      `yaml:"test_freq"`
	PrevEpochs           int      `yaml:"prev_epochs"`
	Splits               []string `yaml:"splits"`
	TrainSize            float64  `yaml:"train_size"`
	ValSize              float64  `yaml:"val_size"`
	TestSize             float64  `yaml:"test_size"`
	Optimizer            string   `yaml:"optimizer"`
	OptimizerArgs        Args     `yaml:"optimizer_args"`
	Scheduler            *string  `yaml:"scheduler"`
	SchedulerArgs        Args     `yaml:"scheduler_args,omitempty"`
	DLoaderArgs          Args     `yaml:"dloader_args"`
	LossFn               string   `yaml:"loss_fn"`
	LossFnArgs           Args     `yaml:"loss_fn_args"`
}

// Analysis selects the post-processing applied to prediction files.
type Analysis struct {
	AnalysisType string `yaml:"analysis_type"`
	Pattern      string `yaml:"pattern"`
	FAddnArgs    Args   `yaml:"f_addn_args"`
}

// Inference holds the prediction settings.
type Inference struct {
	ModelSelection   string           `yaml:"model_selection"`
	Splits           []string         `yaml:"splits"`
	TrainSize        float64          `yaml:"train_size"`
	ValSize          float64          `yaml:"val_size"`
	TestSize         float64          `yaml:"test_size"`
	DLoaderArgs      Args             `yaml:"dloader_args"`
	SetsToRun        []string         `yaml:"sets_to_run"`
	RunInferenceArgs RunInferenceArgs `yaml:"run_inference_args"`
}

// RunInferenceArgs selects the prediction generator and its options.
type RunInferenceArgs struct {
	PredGenFn   string `yaml:"pred_gen_fn"`
	PredGenOpts Args   `yaml:"pred_gen_opts"`
}

// Args is an open argument mapping handed to a named component.
type Args map[string]any

// Clone returns a deep copy of a.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Args(t).Clone())
	case Args:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// SplitPath returns the split index file named by splits, or "" when the
// ratios should drive a random split.
func SplitPath(splits []string) string {
	if len(splits) == 0 {
		return ""
	}
	return splits[0]
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.GlobalArgs.Seed = clonePtr(d.GlobalArgs.Seed)
	out.Data.SpectraFile = cloneStrings(d.Data.SpectraFile)
	out.Data.LabelFile = cloneStrings(d.Data.LabelFile)
	out.Data.SmilesFile = cloneStrings(d.Data.SmilesFile)
	out.Data.InputGeneratorArgs = d.Data.InputGeneratorArgs.Clone()
	out.Data.TargetGeneratorArgs = d.Data.TargetGeneratorArgs.Clone()
	out.Model.LoadModel = clonePtr(d.Model.LoadModel)
	out.Model.ModelArgs = d.Model.ModelArgs.Clone()
	out.Training.Splits = cloneStrings(d.Training.Splits)
	out.Training.OptimizerArgs = d.Training.OptimizerArgs.Clone()
	out.Training.Scheduler = clonePtr(d.Training.Scheduler)
	out.Training.SchedulerArgs = d.Training.SchedulerArgs.Clone()
	out.Training.DLoaderArgs = d.Training.DLoaderArgs.Clone()
	out.Training.LossFnArgs = d.Training.LossFnArgs.Clone()
	out.Analysis.FAddnArgs = d.Analysis.FAddnArgs.Clone()
	out.Inference.Splits = cloneStrings(d.Inference.Splits)
	out.Inference.DLoaderArgs = d.Inference.DLoaderArgs.Clone()
	out.Inference.SetsToRun = cloneStrings(d.Inference.SetsToRun)
	out.Inference.RunInferenceArgs.PredGenOpts = d.Inference.RunInferenceArgs.PredGenOpts.Clone()
	out.Placeholders = cloneStrings(d.Placeholders)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
