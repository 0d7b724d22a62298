// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload outcome")
		return Outcome{}
	}
}

func TestWatcher_Reload(t *testing.T) {
	valid := string(readFixture(t, "valid.yaml"))
	path := writeDoc(t, "run.yaml", valid)
	loader := NewLoader(path).WithEnv(nil)

	initial, err := loader.Load(context.Background())
	require.NoError(t, err)

	w := NewWatcher(loader, initial)
	ch := make(chan Outcome, 4)
	w.Subscribe(ch)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(valid, "nepochs: 600", "nepochs: 300", 1)), 0o600))
	out := w.Reload(context.Background())
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"training.nepochs"}, out.Changes.ChangedFields)
	assert.Equal(t, 300, w.Current().Training.NEpochs)
	assert.Equal(t, out, waitOutcome(t, ch))

	// an invalid document is reported but not applied
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(valid, `optimizer: "Adam"`, `optimizer: "Adamm"`, 1)), 0o600))
	out = w.Reload(context.Background())
	require.Error(t, out.Err)
	assert.False(t, out.Changes.Changed())
	assert.Equal(t, 300, w.Current().Training.NEpochs)
	assert.Error(t, waitOutcome(t, ch).Err)
}

func TestWatcher_ListenerFullDoesNotBlock(t *testing.T) {
	path := writeDoc(t, "run.yaml", string(readFixture(t, "valid.yaml")))
	w := NewWatcher(NewLoader(path).WithEnv(nil), nil)

	full := make(chan Outcome) // unbuffered, never read
	w.Subscribe(full)

	done := make(chan struct{})
	go func() {
		w.Reload(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reload blocked on a full listener")
	}
	assert.NotNil(t, w.Current())
}

func TestWatcher_TemplateMode(t *testing.T) {
	path := writeDoc(t, "template.yaml", string(TemplateBytes()))
	w := NewWatcher(NewLoader(path).WithEnv(nil), nil)

	assert.Error(t, w.Reload(context.Background()).Err)
	w.AllowPlaceholders(true)
	assert.NoError(t, w.Reload(context.Background()).Err)
}

func TestWatcher_RunReloadsOnWriteAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	valid := string(readFixture(t, "valid.yaml"))
	path := writeDoc(t, "run.yaml", valid)
	w := NewWatcher(NewLoader(path).WithEnv(nil), nil)
	w.SetDebounce(20 * time.Millisecond)

	ch := make(chan Outcome, 16)
	w.Subscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// the watch is registered asynchronously; keep writing until a reload lands
	updated := strings.Replace(valid, "nepochs: 600", "nepochs: 200", 1)
	deadline := time.After(5 * time.Second)
	var out Outcome
wait:
	for {
		require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
		select {
		case out = <-ch:
			// a reload may observe a half-written file
			if out.Err == nil {
				break wait
			}
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("timeout waiting for watcher reload")
		}
	}
	assert.Equal(t, 200, out.Doc.Training.NEpochs)

	// atomic replacement by rename is seen too
	replaced := strings.Replace(valid, "nepochs: 600", "nepochs: 100", 1)
	require.NoError(t, Save(mustParse(t, replaced), path))
	for {
		out = waitOutcome(t, ch)
		if out.Err == nil && out.Doc.Training.NEpochs == 100 {
			break
		}
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RunWithoutPath(t *testing.T) {
	w := NewWatcher(NewLoader(""), nil)
	assert.Error(t, w.Run(context.Background()))
}

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse([]byte(content), FormatYAML)
	require.NoError(t, err)
	return doc
}
