package modelstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
)

func writeBundleFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileStoreLoadBundle(t *testing.T) {
	dir := t.TempDir()
	path := writeBundleFile(t, dir, "SBJ01_model.json", `{
		"id": "SBJ01",
		"reducer": {"mean": [0, 0], "components": [[1, 0]]},
		"classifier": {"kind": "logistic", "weights": [2], "intercept": -1}
	}`)

	store := NewFileStore()
	bundle, err := store.LoadBundle(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "SBJ01", bundle.ID)
	require.NotNil(t, bundle.Reducer)

	x := eeg.NewFeatureMatrix(1, 2)
	x.Data[0] = 1.5 // projects to 1.5, z = 2*1.5 - 1 = 2
	probs, err := bundle.Predict(x)
	require.NoError(t, err)
	require.Len(t, probs, 1)
	assert.InDelta(t, 0.8807970779778823, probs[0], 1e-9)
}

func TestFileStoreLoadBundleWithoutReducer(t *testing.T) {
	dir := t.TempDir()
	path := writeBundleFile(t, dir, "generalized_model.json", `{
		"classifier": {"kind": "logistic", "weights": [1, 1], "intercept": 0}
	}`)

	bundle, err := NewFileStore().LoadBundle(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, bundle.Reducer)
	// Missing id falls back to the file path.
	assert.Equal(t, path, bundle.ID)
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore()
	_, err := store.LoadBundle(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, core.IsModelNotFound(err))
}

func TestFileStoreRejectsUnknownClassifier(t *testing.T) {
	dir := t.TempDir()
	path := writeBundleFile(t, dir, "svm.json", `{
		"classifier": {"kind": "svm", "weights": [1], "intercept": 0}
	}`)

	_, err := NewFileStore().LoadBundle(context.Background(), path)
	require.Error(t, err)
	assert.True(t, core.IsInferenceError(err))
}

func TestFileStoreBundleExists(t *testing.T) {
	dir := t.TempDir()
	path := writeBundleFile(t, dir, "a.json", `{}`)
	store := NewFileStore()
	ctx := context.Background()

	ok, err := store.BundleExists(ctx, path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.BundleExists(ctx, filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.False(t, ok)
}
