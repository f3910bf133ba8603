package featurecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
	"neurosense/ports"
)

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	ctx := context.Background()

	x := eeg.NewFeatureMatrix(2, 3)
	copy(x.Data, []float64{1, 2, 3, 4, 5, 6})
	in := &ports.SessionFeatures{
		X:            x,
		Targets:      []int{1, 0},
		SamplingRate: 250,
		Window:       eeg.DefaultWindow,
	}
	require.NoError(t, cache.Put(ctx, "SBJ01", "S01", in))

	out, err := cache.Get(ctx, "SBJ01", "S01")
	require.NoError(t, err)
	assert.Equal(t, 2, out.X.Rows)
	assert.Equal(t, 3, out.X.Cols)
	assert.Equal(t, x.Data, out.X.Data)
	assert.Equal(t, []int{1, 0}, out.Targets)
	assert.Equal(t, 250.0, out.SamplingRate)
	assert.Equal(t, eeg.DefaultWindow, out.Window)
}

func TestFileCacheWritesSnakeCaseWindowKeys(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir)
	in := &ports.SessionFeatures{
		X:            eeg.NewFeatureMatrix(1, 2),
		SamplingRate: 250,
		Window:       eeg.Window{StartMs: 100, EndMs: 700},
	}
	require.NoError(t, cache.Put(context.Background(), "SBJ01", "S01", in))

	raw, err := os.ReadFile(filepath.Join(dir, "SBJ01", "S01", "train_features.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"start_ms"`)
	assert.Contains(t, string(raw), `"end_ms"`)
	assert.NotContains(t, string(raw), `"StartMs"`)
}

func TestFileCacheMissingSession(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	_, err := cache.Get(context.Background(), "SBJ01", "S09")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestFileCacheRejectsInconsistentDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SBJ01", "S01")
	require.NoError(t, os.MkdirAll(path, 0o755))
	doc := `{"rows": 2, "cols": 3, "x": [1, 2, 3], "sampling_rate": 250, "window": {"start_ms": 100, "end_ms": 700}}`
	require.NoError(t, os.WriteFile(filepath.Join(path, "train_features.json"), []byte(doc), 0o644))

	_, err := NewFileCache(dir).Get(context.Background(), "SBJ01", "S01")
	require.Error(t, err)
	assert.True(t, core.IsShapeError(err))
}

func TestFileCacheOverwrite(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	ctx := context.Background()

	first := &ports.SessionFeatures{X: eeg.NewFeatureMatrix(1, 2), SamplingRate: 250}
	require.NoError(t, cache.Put(ctx, "SBJ02", "S01", first))

	x := eeg.NewFeatureMatrix(1, 2)
	x.Data[0], x.Data[1] = 7, 8
	require.NoError(t, cache.Put(ctx, "SBJ02", "S01", &ports.SessionFeatures{X: x, SamplingRate: 500}))

	out, err := cache.Get(ctx, "SBJ02", "S01")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, out.X.Data)
	assert.Equal(t, 500.0, out.SamplingRate)
}
