// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Range(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr bool
	}{
		{"within range", 5, 1, 10, false},
		{"at minimum", 1, 1, 10, false},
		{"at maximum", 10, 1, 10, false},
		{"below minimum", 0, 1, 10, true},
		{"above maximum", 11, 1, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Range("testField", tt.value, tt.min, tt.max)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_Partition(t *testing.T) {
	names := []string{"train_size", "val_size", "test_size"}
	tests := []struct {
		name    string
		parts   []float64
		wantErr bool
	}{
		{"canonical split", []float64{0.8, 0.1, 0.1}, false},
		{"float noise within tolerance", []float64{0.7, 0.2, 0.1}, false},
		{"all train", []float64{1, 0, 0}, false},
		{"sum too small", []float64{0.8, 0.1, 0.05}, true},
		{"sum too large", []float64{0.8, 0.2, 0.1}, true},
		{"negative part", []float64{1.1, -0.1, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Partition("training", names, tt.parts, 1e-6)
			if tt.wantErr {
				require.Error(t, v.Err())
				assert.ErrorIs(t, v.Err(), ErrInconsistentPartition)
				return
			}
			assert.NoError(t, v.Err())
		})
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	v.OneOf("training.checkpoint_loss_metric", "val", []string{"train", "val"})
	assert.True(t, v.IsValid())

	v.OneOf("training.checkpoint_loss_metric", "test", []string{"train", "val"})
	require.False(t, v.IsValid())
	assert.ErrorIs(t, v.Err(), ErrUnknownIdentifier)
}

func TestValidator_Pattern(t *testing.T) {
	v := New()
	v.Pattern("analysis.pattern", `^predictions_\d+\.h5$`)
	assert.True(t, v.IsValid())

	v.Pattern("analysis.pattern", `predictions_(`)
	require.Len(t, v.Errors(), 1)
	assert.Equal(t, KindPattern, v.Errors()[0].Kind)
	assert.ErrorIs(t, v.Err(), ErrInvalidPattern)
}

func TestValidator_NotEmpty(t *testing.T) {
	v := New()
	v.NotEmpty("global_args.savedir", "   ")
	v.NotEmptyList("data.spectra_file", nil)
	require.Len(t, v.Errors(), 2)
	assert.ErrorIs(t, v.Err(), ErrMissingField)
}

func TestValidationError_KindsAndFields(t *testing.T) {
	v := New()
	v.Placeholder("data.spectra_file[0]", "Populate")
	v.Placeholder("data.label_file[0]", "Populate")
	v.Placeholder("data.label_file[0]", "Populate")
	v.Positive("training.nepochs", 0)

	err := v.Err()
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"data.label_file[0]", "data.spectra_file[0]"}, ve.Fields(KindMissing))
	assert.Equal(t, map[Kind]int{KindMissing: 3, KindRange: 1}, ve.Count())

	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.NotErrorIs(t, err, ErrUnknownIdentifier)
}

func TestValidationError_SurvivesWrapping(t *testing.T) {
	v := New()
	v.OneOf("training.optimizer", "Adamm", []string{"Adam", "SGD"})
	wrapped := fmt.Errorf("config validation failed: %w", v.Err())

	assert.ErrorIs(t, wrapped, ErrUnknownIdentifier)
	var ve ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Len(t, ve.Errors(), 1)
}

func TestValidator_Merge(t *testing.T) {
	inner := New()
	inner.Add(KindType, "model.model_args.d_model", "must be an integer", "big")

	outer := New()
	outer.Merge("model.model_args", inner.Err())
	outer.Merge("model.model_args", nil)
	outer.Merge("model.model_args", errors.New("plain failure"))

	require.Len(t, outer.Errors(), 2)
	assert.Equal(t, "model.model_args.d_model", outer.Errors()[0].Field)
	assert.Equal(t, "model.model_args", outer.Errors()[1].Field)
	assert.ErrorIs(t, outer.Err(), ErrTypeMismatch)
}

func TestValidator_ErrNilWhenValid(t *testing.T) {
	v := New()
	v.Positive("training.write_freq", 100)
	v.NonNegative("training.prev_epochs", 0)
	v.NonNegativeFloat("data.eps", 0.005)
	assert.NoError(t, v.Err())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("Populate"))
	assert.True(t, IsPlaceholder("  populate "))
	assert.False(t, IsPlaceholder("Populated"))
	assert.False(t, IsPlaceholder(42))
	assert.False(t, IsPlaceholder(nil))
}
