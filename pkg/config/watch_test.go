package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"rag2f": {"embedder_default": "openai"}}`)

	holder := NewHolder(build(t, embedderDefaults(), nil, nil))
	var reloads atomic.Int32
	reload := func() error {
		doc, err := LoadFile(path)
		if err != nil {
			return err
		}
		next, err := Build(embedderDefaults(), doc, nil, WithLogger(zerolog.Nop()))
		if err != nil {
			return err
		}
		holder.Swap(next)
		reloads.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, reload, zerolog.Nop()) }()

	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"rag2f": {"embedder_default": "azure"}}`), 0644))

	require.Eventually(t, func() bool {
		return holder.Current().String("rag2f.embedder_default", "") == "azure"
	}, 5*time.Second, 20*time.Millisecond)

	// unrelated files in the same directory are ignored
	before := reloads.Load()
	writeFile(t, dir, "other.json", `{}`)
	time.Sleep(3 * WatchDebounce)
	assert.Equal(t, before, reloads.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_KeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{}`)

	holder := NewHolder(build(t, embedderDefaults(), nil, nil))
	var attempts atomic.Int32
	reload := func() error {
		attempts.Add(1)
		doc, err := LoadFile(path)
		if err != nil {
			return err
		}
		next, err := Build(embedderDefaults(), doc, nil)
		if err != nil {
			return err
		}
		holder.Swap(next)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Watch(ctx, filepath.Join(dir, "config.json"), reload, zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"broken":`), 0644))

	require.Eventually(t, func() bool { return attempts.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "local", holder.Current().String("rag2f.embedder_default", ""))
}
