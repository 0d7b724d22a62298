// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/components"
	"github.com/ManuGH/nmrcfg/internal/validate"
)

// PartitionTolerance is the allowed deviation of a split triple from 1.
const PartitionTolerance = 1e-6

var splitNames = []string{"train_size", "val_size", "test_size"}

// ValidateOptions tunes Validate.
type ValidateOptions struct {
	// AllowPlaceholders skips the placeholder errors, for checking templates.
	AllowPlaceholders bool
	// Components resolves named implementations. Nil uses the built-ins.
	Components *components.Registry
}

// Validate checks a fully populated document.
func Validate(doc *Document) error {
	return ValidateWith(doc, ValidateOptions{})
}

// ValidateTemplate checks a document that may still carry placeholders.
func ValidateTemplate(doc *Document) error {
	return ValidateWith(doc, ValidateOptions{AllowPlaceholders: true})
}

// ValidateWith validates doc using the centralized validation package. Every
// problem is reported in the returned validate.ValidationError.
func ValidateWith(doc *Document, opts ValidateOptions) error {
	reg := opts.Components
	if reg == nil {
		var err error
		if reg, err = components.GetRegistry(); err != nil {
			return fmt.Errorf("component registry: %w", err)
		}
	}
	placeholders, err := currentPlaceholders(doc)
	if err != nil {
		return err
	}

	c := &checker{v: validate.New(), reg: reg}
	c.globalArgs(doc.GlobalArgs)
	c.data(doc.Data)
	c.model(doc.Model)
	c.training(doc.Training)
	c.analysis(doc.Analysis)
	c.inference(doc.Inference)

	// A placeholder is the only finding reported for its field.
	skip := make(map[string]bool, len(placeholders))
	out := validate.New()
	for _, p := range placeholders {
		skip[p] = true
		if !opts.AllowPlaceholders {
			out.Placeholder(p, validate.PlaceholderToken)
		}
	}
	for _, e := range c.v.Errors() {
		if !skip[e.Field] {
			out.Add(e.Kind, e.Field, e.Message, e.Value)
		}
	}
	return out.Err()
}

// currentPlaceholders returns the placeholder paths recorded at parse time
// together with any placeholder the document holds now, for example one set
// by an environment override or by code after parsing.
func currentPlaceholders(doc *Document) ([]string, error) {
	var node yaml.Node
	if err := node.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	seen := make(map[string]bool, len(doc.Placeholders))
	out := make([]string, 0, len(doc.Placeholders))
	for _, p := range append(slices.Clone(doc.Placeholders), FindPlaceholders(&node)...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

type checker struct {
	v   *validate.Validator
	reg *components.Registry
}

// resolve looks name up in kind and returns the component, or nil when the
// name is empty, a placeholder or unknown. Failures other than placeholders
// are recorded.
func (c *checker) resolve(kind components.Kind, field, name string) *components.Component {
	if validate.IsPlaceholder(name) {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		c.v.Add(validate.KindMissing, field, "value cannot be empty", name)
		return nil
	}
	comp, err := c.reg.Lookup(kind, name)
	if err != nil {
		c.v.Add(validate.KindUnknown, field, err.Error(), name)
		return nil
	}
	return &comp
}

// component resolves name and validates args against its schema.
func (c *checker) component(kind components.Kind, field, name, argsField string, args Args) {
	comp := c.resolve(kind, field, name)
	if comp == nil {
		return
	}
	comp.Schema.Validate(c.reg, argsField, args, c.v)
}

// stringList checks every entry of a string list, skipping placeholders.
func (c *checker) stringList(field string, values []string) {
	for i, s := range values {
		if validate.IsPlaceholder(s) {
			continue
		}
		c.v.NotEmpty(joinIndex(field, i), s)
	}
}

func (c *checker) globalArgs(g GlobalArgs) {
	c.v.NonNegative("global_args.ngpus", g.NGPUs)
	c.resolve(components.KindDType, "global_args.dtype", g.DType)
	c.v.NotEmpty("global_args.savedir", g.SaveDir)
	if g.Seed != nil {
		c.v.NonNegative("global_args.seed", *g.Seed)
	}
}

func (c *checker) data(d Data) {
	c.v.NotEmptyList("data.spectra_file", d.SpectraFile)
	c.stringList("data.spectra_file", d.SpectraFile)
	c.stringList("data.label_file", d.LabelFile)
	c.stringList("data.smiles_file", d.SmilesFile)

	c.component(components.KindInputGenerator, "data.input_generator", d.InputGenerator,
		"data.input_generator_addn_args", d.InputGeneratorArgs)
	c.component(components.KindTargetGenerator, "data.target_generator", d.TargetGenerator,
		"data.target_generator_addn_args", d.TargetGeneratorArgs)

	c.v.NonNegativeFloat("data.eps", d.Eps)
}

func (c *checker) model(m Model) {
	c.component(components.KindModel, "model.model_type", m.ModelType, "model.model_args", m.ModelArgs)
	if m.LoadModel != nil && !validate.IsPlaceholder(*m.LoadModel) {
		c.v.NotEmpty("model.load_model", *m.LoadModel)
	}
}

func (c *checker) training(t Training) {
	c.v.Positive("training.nepochs", t.NEpochs)
	c.v.Positive("training.write_freq", t.WriteFreq)
	c.v.Positive("training.test_freq", t.TestFreq)
	c.v.NonNegative("training.prev_epochs", t.PrevEpochs)
	if t.NEpochs > 0 {
		c.v.Range("training.top_checkpoints_n", t.TopCheckpointsN, 1, t.NEpochs)
	} else {
		c.v.Positive("training.top_checkpoints_n", t.TopCheckpointsN)
	}
	c.resolve(components.KindLossMetric, "training.checkpoint_loss_metric", t.CheckpointLossMetric)

	c.v.Partition("training", splitNames, []float64{t.TrainSize, t.ValSize, t.TestSize}, PartitionTolerance)

	c.component(components.KindOptimizer, "training.optimizer", t.Optimizer, "training.optimizer_args", t.OptimizerArgs)
	if t.Scheduler != nil {
		c.component(components.KindScheduler, "training.scheduler", *t.Scheduler, "training.scheduler_args", t.SchedulerArgs)
	} else if len(t.SchedulerArgs) > 0 {
		c.v.Add(validate.KindMissing, "training.scheduler", "scheduler_args are set but no scheduler is selected", nil)
	}
	c.dataLoader("training.dloader_args", t.DLoaderArgs)
	c.component(components.KindLoss, "training.loss_fn", t.LossFn, "training.loss_fn_args", t.LossFnArgs)
}

func (c *checker) analysis(a Analysis) {
	c.component(components.KindAnalysis, "analysis.analysis_type", a.AnalysisType, "analysis.f_addn_args", a.FAddnArgs)
	c.v.NotEmpty("analysis.pattern", a.Pattern)
	if strings.TrimSpace(a.Pattern) != "" {
		c.v.Pattern("analysis.pattern", a.Pattern)
	}
}

func (c *checker) inference(in Inference) {
	if !validate.IsPlaceholder(in.ModelSelection) {
		switch {
		case strings.TrimSpace(in.ModelSelection) == "":
			c.v.Add(validate.KindMissing, "inference.model_selection", "value cannot be empty", in.ModelSelection)
		case c.reg.Has(components.KindModelSelection, in.ModelSelection):
		case strings.HasSuffix(in.ModelSelection, ".pt"):
			// an explicit checkpoint file name
		default:
			c.v.Add(validate.KindUnknown, "inference.model_selection",
				fmt.Sprintf("must be one of %v or a .pt checkpoint name, got %q",
					c.reg.Names(components.KindModelSelection), in.ModelSelection),
				in.ModelSelection)
		}
	}

	c.v.Partition("inference", splitNames, []float64{in.TrainSize, in.ValSize, in.TestSize}, PartitionTolerance)
	c.dataLoader("inference.dloader_args", in.DLoaderArgs)

	c.v.NotEmptyList("inference.sets_to_run", in.SetsToRun)
	for i, s := range in.SetsToRun {
		if validate.IsPlaceholder(s) {
			continue
		}
		c.v.OneOf(joinIndex("inference.sets_to_run", i), s, c.reg.Names(components.KindDatasetSplit))
	}

	ria := in.RunInferenceArgs
	c.component(components.KindPredGenFn, "inference.run_inference_args.pred_gen_fn", ria.PredGenFn,
		"inference.run_inference_args.pred_gen_opts", ria.PredGenOpts)
}

func (c *checker) dataLoader(field string, args Args) {
	comp, err := c.reg.Lookup(components.KindDataLoader, "DataLoader")
	if err != nil {
		return
	}
	comp.Schema.Validate(c.reg, field, args, c.v)
}
