// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Status defines the lifecycle state of a configuration option.
type Status string

const (
	StatusActive   Status = "Active"
	StatusTemplate Status = "Template" // filled by the templating step
	StatusInternal Status = "Internal"
)

// ConfigEntry defines a single configuration option's metadata.
type ConfigEntry struct {
	Path      string // User-facing Path (e.g. "training.write_freq")
	Env       string // Environment Variable (e.g. "NMRCFG_NEPOCHS")
	FieldPath string // Internal Field Path (e.g. "Training.WriteFreq")
	Status    Status // Lifecycle Status
	Default   any    // Default value
	Doc       string // One-line description for generated docs
}

// Registry manages the configuration surface inventory.
type Registry struct {
	ByPath  map[string]ConfigEntry
	ByField map[string]ConfigEntry
	ByEnv   map[string]ConfigEntry
	entries []ConfigEntry
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global configuration registry.
// It returns an error if the registry contains duplicates or is otherwise invalid.
// Thread-safe via sync.Once.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry()
	})
	return globalRegistry, globalRegistryErr
}

func buildRegistry() (*Registry, error) {
	r := &Registry{
		ByPath:  make(map[string]ConfigEntry),
		ByField: make(map[string]ConfigEntry),
		ByEnv:   make(map[string]ConfigEntry),
	}

	entries := []ConfigEntry{
		// --- GLOBAL ---
		{Path: "global_args.ngpus", Env: "NMRCFG_NGPUS", FieldPath: "GlobalArgs.NGPUs", Status: StatusActive, Default: 1, Doc: "number of GPUs (0 runs on CPU)"},
		{Path: "global_args.dtype", Env: "NMRCFG_DTYPE", FieldPath: "GlobalArgs.DType", Status: StatusActive, Default: "float32", Doc: "tensor precision"},
		{Path: "global_args.savedir", Env: "NMRCFG_SAVEDIR", FieldPath: "GlobalArgs.SaveDir", Status: StatusActive, Doc: "checkpoint and artifact directory"},
		{Path: "global_args.seed", Env: "NMRCFG_SEED", FieldPath: "GlobalArgs.Seed", Status: StatusActive, Doc: "random seed; null draws one at start"},

		// --- DATA ---
		{Path: "data.spectra_file", FieldPath: "Data.SpectraFile", Status: StatusTemplate, Doc: "input spectra files"},
		{Path: "data.label_file", FieldPath: "Data.LabelFile", Status: StatusTemplate, Doc: "label files"},
		{Path: "data.smiles_file", FieldPath: "Data.SmilesFile", Status: StatusTemplate, Doc: "SMILES files"},
		{Path: "data.input_generator", FieldPath: "Data.InputGenerator", Status: StatusActive, Doc: "input representation generator"},
		{Path: "data.input_generator_addn_args", FieldPath: "Data.InputGeneratorArgs", Status: StatusActive, Doc: "input generator arguments"},
		{Path: "data.target_generator", FieldPath: "Data.TargetGenerator", Status: StatusActive, Doc: "target representation generator"},
		{Path: "data.target_generator_addn_args", FieldPath: "Data.TargetGeneratorArgs", Status: StatusActive, Doc: "target generator arguments"},
		{Path: "data.eps", FieldPath: "Data.Eps", Status: StatusActive, Default: 0.005, Doc: "data splitting epsilon"},

		// --- MODEL ---
		{Path: "model.model_type", FieldPath: "Model.ModelType", Status: StatusActive, Doc: "network implementation"},
		{Path: "model.load_model", FieldPath: "Model.LoadModel", Status: StatusActive, Doc: "checkpoint to warm start from"},
		{Path: "model.model_args", FieldPath: "Model.ModelArgs", Status: StatusTemplate, Doc: "network constructor arguments"},

		// --- TRAINING ---
		{Path: "training.nepochs", Env: "NMRCFG_NEPOCHS", FieldPath: "Training.NEpochs", Status: StatusActive, Doc: "epochs to train"},
		{Path: "training.top_checkpoints_n", FieldPath: "Training.TopCheckpointsN", Status: StatusActive, Default: 10, Doc: "best checkpoints kept"},
		{Path: "training.checkpoint_loss_metric", FieldPath: "Training.CheckpointLossMetric", Status: StatusActive, Default: "val", Doc: "loss ranking checkpoints (train or val)"},
		{Path: "training.write_freq", FieldPath: "Training.WriteFreq", Status: StatusActive, Default: 100, Doc: "epochs between unconditional checkpoint writes"},
		{Path: "training.test_freq", FieldPath: "Training.TestFreq", Status: StatusActive, Default: 10, Doc: "epochs between validation passes"},
		{Path: "training.prev_epochs", FieldPath: "Training.PrevEpochs", Status: StatusActive, Default: 0, Doc: "epochs already trained when resuming"},
		{Path: "training.splits", FieldPath: "Training.Splits", Status: StatusTemplate, Doc: "split index file; empty uses the ratios"},
		{Path: "training.train_size", FieldPath: "Training.TrainSize", Status: StatusActive, Default: 0.8, Doc: "train fraction"},
		{Path: "training.val_size", FieldPath: "Training.ValSize", Status: StatusActive, Default: 0.1, Doc: "validation fraction"},
		{Path: "training.test_size", FieldPath: "Training.TestSize", Status: StatusActive, Default: 0.1, Doc: "test fraction"},
		{Path: "training.optimizer", FieldPath: "Training.Optimizer", Status: StatusActive, Doc: "optimizer"},
		{Path: "training.optimizer_args", FieldPath: "Training.OptimizerArgs", Status: StatusActive, Doc: "optimizer arguments"},
		{Path: "training.scheduler", FieldPath: "Training.Scheduler", Status: StatusActive, Doc: "learning rate scheduler; null disables"},
		{Path: "training.scheduler_args", FieldPath: "Training.SchedulerArgs", Status: StatusActive, Doc: "scheduler arguments"},
		{Path: "training.dloader_args", FieldPath: "Training.DLoaderArgs", Status: StatusActive, Doc: "training data loader options"},
		{Path: "training.loss_fn", FieldPath: "Training.LossFn", Status: StatusActive, Doc: "loss function"},
		{Path: "training.loss_fn_args", FieldPath: "Training.LossFnArgs", Status: StatusActive, Doc: "loss function arguments"},

		// --- ANALYSIS ---
		{Path: "analysis.analysis_type", FieldPath: "Analysis.AnalysisType", Status: StatusActive, Default: "SMILES", Doc: "post-processing applied to predictions"},
		{Path: "analysis.pattern", FieldPath: "Analysis.Pattern", Status: StatusActive, Doc: "prediction file name regular expression"},
		{Path: "analysis.f_addn_args", FieldPath: "Analysis.FAddnArgs", Status: StatusTemplate, Doc: "analysis arguments"},

		// --- INFERENCE ---
		{Path: "inference.model_selection", FieldPath: "Inference.ModelSelection", Status: StatusActive, Default: "lowest", Doc: "checkpoint policy (lowest, latest) or file name"},
		{Path: "inference.splits", FieldPath: "Inference.Splits", Status: StatusTemplate, Doc: "split index file; empty uses the ratios"},
		{Path: "inference.train_size", FieldPath: "Inference.TrainSize", Status: StatusActive, Default: 0.8, Doc: "train fraction"},
		{Path: "inference.val_size", FieldPath: "Inference.ValSize", Status: StatusActive, Default: 0.1, Doc: "validation fraction"},
		{Path: "inference.test_size", FieldPath: "Inference.TestSize", Status: StatusActive, Default: 0.1, Doc: "test fraction"},
		{Path: "inference.dloader_args", FieldPath: "Inference.DLoaderArgs", Status: StatusActive, Doc: "inference data loader options"},
		{Path: "inference.sets_to_run", FieldPath: "Inference.SetsToRun", Status: StatusActive, Doc: "splits to predict on"},
		{Path: "inference.run_inference_args.pred_gen_fn", FieldPath: "Inference.RunInferenceArgs.PredGenFn", Status: StatusActive, Doc: "prediction generator"},
		{Path: "inference.run_inference_args.pred_gen_opts", FieldPath: "Inference.RunInferenceArgs.PredGenOpts", Status: StatusTemplate, Doc: "prediction generator options"},

		// --- INTERNAL ---
		{FieldPath: "Placeholders", Status: StatusInternal},
	}

	for _, e := range entries {
		if e.Path != "" {
			if _, dup := r.ByPath[e.Path]; dup {
				return nil, fmt.Errorf("duplicate registry path: %s", e.Path)
			}
			r.ByPath[e.Path] = e
		}
		if e.FieldPath != "" {
			if _, dup := r.ByField[e.FieldPath]; dup {
				return nil, fmt.Errorf("duplicate registry field: %s", e.FieldPath)
			}
			r.ByField[e.FieldPath] = e
		}
		if e.Env != "" {
			if _, dup := r.ByEnv[e.Env]; dup {
				return nil, fmt.Errorf("duplicate registry env: %s", e.Env)
			}
			r.ByEnv[e.Env] = e
		}
	}
	r.entries = entries

	return r, nil
}

// Entries returns the registered options in declaration order.
func (r *Registry) Entries() []ConfigEntry {
	out := make([]ConfigEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// EnvKeys returns the sorted environment variables the registry consumes.
func (r *Registry) EnvKeys() []string {
	keys := make([]string, 0, len(r.ByEnv))
	for k := range r.ByEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateFieldCoverage uses reflection to ensure every field in Document is registered.
func (r *Registry) ValidateFieldCoverage(doc Document) error {
	t := reflect.TypeOf(doc)
	return r.validateStruct("", t)
}

func (r *Registry) validateStruct(prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		fieldType := f.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		// Nested sections recurse; everything else is a leaf.
		if fieldType.Kind() == reflect.Struct {
			if err := r.validateStruct(fieldPath, fieldType); err != nil {
				return err
			}
			continue
		}

		if _, ok := r.ByField[fieldPath]; !ok {
			return fmt.Errorf("field %q is not registered in the config registry", fieldPath)
		}
	}
	return nil
}

// ApplyDefaults applies registered default values to the given Document.
// Returns an error if any default cannot be set (indicates registry misconfiguration).
func (r *Registry) ApplyDefaults(doc *Document) error {
	v := reflect.ValueOf(doc).Elem()
	for _, entry := range r.entries {
		if entry.Default == nil {
			continue
		}

		err := setField(v, entry.FieldPath, entry.Default)
		if err != nil {
			return fmt.Errorf("failed to set default for %s: %w", entry.FieldPath, err)
		}
	}
	return nil
}

// Defaults returns a Document holding only registry defaults.
func (r *Registry) Defaults() (*Document, error) {
	doc := &Document{}
	if err := r.ApplyDefaults(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RenderMarkdown writes the registry as a Markdown table.
func (r *Registry) RenderMarkdown(w io.Writer) error {
	var b strings.Builder
	b.WriteString("| Path | Env | Default | Status | Description |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, e := range r.entries {
		if e.Path == "" {
			continue
		}
		def := ""
		if e.Default != nil {
			def = fmt.Sprintf("`%v`", e.Default)
		}
		env := ""
		if e.Env != "" {
			env = "`" + e.Env + "`"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n", e.Path, env, def, e.Status, e.Doc)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func lookupField(v reflect.Value, fieldPath string) (reflect.Value, error) {
	curr := v
	for _, p := range strings.Split(fieldPath, ".") {
		if curr.Kind() == reflect.Ptr {
			curr = curr.Elem()
		}
		f := curr.FieldByName(p)
		if !f.IsValid() {
			return reflect.Value{}, fmt.Errorf("field %s not found", p)
		}
		curr = f
	}
	return curr, nil
}

func setField(v reflect.Value, fieldPath string, value any) error {
	f, err := lookupField(v, fieldPath)
	if err != nil {
		return err
	}
	val := reflect.ValueOf(value)

	// Handle assignment to pointer leaf
	if f.Kind() == reflect.Ptr && val.Kind() != reflect.Ptr {
		// Only set default if pointer is nil (unset). A non-nil pointer was
		// set explicitly, possibly to a zero value, and must be kept.
		if !f.IsNil() {
			return nil
		}

		f.Set(reflect.New(f.Type().Elem()))

		elem := f.Elem()
		if elem.Type() != val.Type() {
			if val.Type().ConvertibleTo(elem.Type()) {
				elem.Set(val.Convert(elem.Type()))
			} else {
				return fmt.Errorf("type mismatch for %s (elem): expected %v, got %v", fieldPath, elem.Type(), val.Type())
			}
		} else {
			elem.Set(val)
		}
		return nil
	}

	if f.Type() != val.Type() {
		// Try to convert if possible (e.g. int to int64)
		if val.Type().ConvertibleTo(f.Type()) {
			f.Set(val.Convert(f.Type()))
		} else {
			return fmt.Errorf("type mismatch for %s: expected %v, got %v", fieldPath, f.Type(), val.Type())
		}
	} else {
		f.Set(val)
	}
	return nil
}
