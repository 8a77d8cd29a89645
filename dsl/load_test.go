package dsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: Order
version: "1.0.0"
initiating_event:
  name: OrderPlaced
  topic: t.init
steps:
  - name: S1
    topic: a.execute.x
    response_topic:
      success: [a.success.x]
      failure: [a.failure.x]
  - name: S2
    topic: b.execute.y
    depends_on: [S1]
    response_topic:
      success: [b.success.y]
      failure: [b.failure.y]
`

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	wf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Order", wf.Name)
}

func TestLoad_InvalidFileWrapsDefinitionError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: \"\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var defErr *DefinitionError
	assert.ErrorAs(t, err, &defErr)
}

func TestLoadDir_SkipsBadFilesKeepsGood(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_good.yaml"), []byte(validYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_bad.yml"), []byte("name: \"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not yaml"), 0o644))

	workflows, err := LoadDir(dir)
	require.Error(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "Order", workflows[0].Name)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir("/nonexistent/definitions/dir")
	assert.Error(t, err)
}
