package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExplicitIndices(t *testing.T) {
	path := writeDataset(t, `{"index": 10, "prompt": "first"}
{"index": 20, "prompt": "second"}

{"index": 30, "prompt": "third"}
`)
	items, err := Load(path)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, Item{Index: 10, Prompt: "first"}, items[0])
	assert.Equal(t, Item{Index: 30, Prompt: "third"}, items[2])
}

func TestLoad_PositionalIndicesWhenAbsent(t *testing.T) {
	path := writeDataset(t, `{"prompt": "a"}
{"prompt": "b"}
`)
	items, err := Load(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(0), items[0].Index)
	assert.Equal(t, int64(1), items[1].Index)
}

func TestLoad_MalformedLine(t *testing.T) {
	path := writeDataset(t, `{"prompt": "ok"}
not json
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "line 2")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}

func TestSelect_PreservesOrderAndSkipsUnknown(t *testing.T) {
	items := []Item{
		{Index: 1, Prompt: "a"},
		{Index: 2, Prompt: "b"},
		{Index: 3, Prompt: "c"},
	}
	selected := Select(items, []int64{3, 1, 99})
	require.Len(t, selected, 2)
	assert.Equal(t, int64(1), selected[0].Index)
	assert.Equal(t, int64(3), selected[1].Index)
}

func TestHead(t *testing.T) {
	items := []Item{{Index: 0}, {Index: 1}, {Index: 2}}
	assert.Len(t, Head(items, 2), 2)
	assert.Len(t, Head(items, 10), 3)
	assert.Len(t, Head(items, -1), 3)
}

func TestLoadIndices_Sorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[9, 3, 7]`), 0o644))
	indices, err := LoadIndices(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7, 9}, indices)
}

func TestMergeIndexFiles(t *testing.T) {
	dir := t.TempDir()
	writeIndices := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}
	a := writeIndices("failed_indices_0.json", `[9, 3, 7]`)
	b := writeIndices("failed_indices_1.json", `[12, 3, 1]`)

	merged, err := MergeIndexFiles([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 7, 9, 12}, merged, "deduplicated union, sorted")
}

func TestMergeIndexFiles_Empty(t *testing.T) {
	merged, err := MergeIndexFiles(nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestMergeIndexFiles_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_indices_0.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json}`), 0o644))
	_, err := MergeIndexFiles([]string{path})
	require.Error(t, err)
}
