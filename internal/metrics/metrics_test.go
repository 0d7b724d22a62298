// SPDX-License-Identifier: MIT
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

// Helper function to get metric value from a counter
func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	err := counter.Write(metric)
	require.NoError(t, err)
	return metric.GetCounter().GetValue()
}

// Helper function to get metric value from a labeled counter
func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func TestRecordLoadResult(t *testing.T) {
	okBefore := getCounterVecValue(t, DocumentsLoadedTotal, OutcomeOK)
	invalidBefore := getCounterVecValue(t, DocumentsLoadedTotal, OutcomeInvalid)
	errorBefore := getCounterVecValue(t, DocumentsLoadedTotal, OutcomeError)
	missingBefore := getCounterVecValue(t, ValidationErrorsTotal, string(validate.KindMissing))
	unknownBefore := getCounterVecValue(t, ValidationErrorsTotal, string(validate.KindUnknown))

	v := validate.New()
	v.Placeholder("data.spectra_file[0]", "Populate")
	v.Placeholder("data.label_file[0]", "Populate")
	v.OneOf("training.optimizer", "Adamm", []string{"Adam"})

	RecordLoadResult(nil)
	RecordLoadResult(fmt.Errorf("config validation failed: %w", v.Err()))
	RecordLoadResult(errors.New("read file: permission denied"))

	assert.Equal(t, okBefore+1, getCounterVecValue(t, DocumentsLoadedTotal, OutcomeOK))
	assert.Equal(t, invalidBefore+1, getCounterVecValue(t, DocumentsLoadedTotal, OutcomeInvalid))
	assert.Equal(t, errorBefore+1, getCounterVecValue(t, DocumentsLoadedTotal, OutcomeError))
	assert.Equal(t, missingBefore+2, getCounterVecValue(t, ValidationErrorsTotal, string(validate.KindMissing)))
	assert.Equal(t, unknownBefore+1, getCounterVecValue(t, ValidationErrorsTotal, string(validate.KindUnknown)))
}

func TestRecordLoad_NormalizesOutcome(t *testing.T) {
	before := getCounterVecValue(t, DocumentsLoadedTotal, OutcomeError)
	RecordLoad("exploded")
	assert.Equal(t, before+1, getCounterVecValue(t, DocumentsLoadedTotal, OutcomeError))
}

func TestRecordPlaceholdersAndFilled(t *testing.T) {
	pBefore := getCounterValue(t, PlaceholdersDetectedTotal)
	fBefore := getCounterValue(t, FilledValuesTotal)

	RecordPlaceholders(3)
	RecordPlaceholders(0)
	RecordFilled(2)
	RecordFilled(-1)

	assert.Equal(t, pBefore+3, getCounterValue(t, PlaceholdersDetectedTotal))
	assert.Equal(t, fBefore+2, getCounterValue(t, FilledValuesTotal))
}

func TestRecordCheckpoint(t *testing.T) {
	kept := getCounterVecValue(t, checkpointDecisionsTotal, DecisionKept, "val")
	rejected := getCounterVecValue(t, checkpointDecisionsTotal, DecisionRejected, "val")
	evicted := getCounterVecValue(t, checkpointDecisionsTotal, DecisionEvicted, "val")

	RecordCheckpoint("val", true, false)
	RecordCheckpoint("val", true, true)
	RecordCheckpoint("val", false, false)

	assert.Equal(t, kept+2, getCounterVecValue(t, checkpointDecisionsTotal, DecisionKept, "val"))
	assert.Equal(t, rejected+1, getCounterVecValue(t, checkpointDecisionsTotal, DecisionRejected, "val"))
	assert.Equal(t, evicted+1, getCounterVecValue(t, checkpointDecisionsTotal, DecisionEvicted, "val"))
}

func TestWriteTextfileFrom(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "nmrcfg_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(4)

	path := filepath.Join(t.TempDir(), "textfile", "nmrcfg.prom")
	require.NoError(t, WriteTextfileFrom(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nmrcfg_test_total 4")
}
