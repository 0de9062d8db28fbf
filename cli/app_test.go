package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/cli"
	"github.com/treeline-io/treeline/options"
	"github.com/treeline-io/treeline/pkg/log"
)

// runApp invokes the CLI with fresh options and captured output.
func runApp(t *testing.T, workingDir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	opts := options.NewOptions()
	opts.Writer = &out
	opts.ErrWriter = &out
	opts.Logger = log.New(log.WithOutput(&out))

	app := cli.NewApp(opts)

	argv := append([]string{"treeline", "--working-dir", workingDir}, args...)
	err := app.RunContext(t.Context(), argv)

	return out.String(), err
}

func writeWorkingDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	return dir
}

func TestSnapshotPrintsStableRootID(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	first := strings.TrimSpace(out)
	require.Len(t, first, 40)

	out, err = runApp(t, dir, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, first, strings.TrimSpace(out))
}

func TestStatusAgainstSnapshotBaseline(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{
		".gitignore":  "*.log\n",
		"keep.txt":    "same",
		"changed.txt": "before",
		"gone.txt":    "old",
	})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	baseline := strings.TrimSpace(out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "changed.txt"), []byte("after"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.txt")))

	out, err = runApp(t, dir, "status", "--baseline", baseline)
	require.NoError(t, err)

	assert.Contains(t, out, "M changed.txt")
	assert.Contains(t, out, "A new.txt")
	assert.Contains(t, out, "R gone.txt")
	assert.NotContains(t, out, "debug.log")
	assert.NotContains(t, out, "keep.txt")
}

func TestStatusListIgnored(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{
		".gitignore": "*.log\n",
		"a.txt":      "content",
	})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	baseline := strings.TrimSpace(out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))

	out, err = runApp(t, dir, "--list-ignored", "status", "--baseline", baseline)
	require.NoError(t, err)
	assert.Contains(t, out, "I debug.log")
}

func TestDiffBetweenStoredSnapshots(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{"a.txt": "one"})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	before := strings.TrimSpace(out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0o644))

	out, err = runApp(t, dir, "snapshot")
	require.NoError(t, err)

	after := strings.TrimSpace(out)
	require.NotEqual(t, before, after)

	out, err = runApp(t, dir, "diff", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "M a.txt")
}

func TestStatusJSONOutput(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{"a.txt": "one"})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	baseline := strings.TrimSpace(out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("two"), 0o644))

	out, err = runApp(t, dir, "--json", "status", "--baseline", baseline)
	require.NoError(t, err)

	var report struct {
		Events []struct {
			Path   string `json:"path"`
			Status string `json:"status"`
		} `json:"events"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Events, 1)
	assert.Equal(t, "b.txt", report.Events[0].Path)
	assert.Equal(t, "added", report.Events[0].Status)
}

func TestStatusWithoutBaselineStoreFails(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{"a.txt": "one"})

	// No git repository and no stored baseline: HEAD cannot resolve.
	_, err := runApp(t, dir, "status")
	require.Error(t, err)
}

func TestDiffRequiresTwoArguments(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{"a.txt": "one"})

	_, err := runApp(t, dir, "diff", "justone")
	require.Error(t, err)
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	t.Parallel()

	dir := writeWorkingDir(t, map[string]string{
		".treeline.hcl": "list_ignored = true\n",
		".gitignore":    "*.log\n",
		"a.txt":         "content",
	})

	out, err := runApp(t, dir, "snapshot")
	require.NoError(t, err)

	baseline := strings.TrimSpace(out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))

	out, err = runApp(t, dir, "status", "--baseline", baseline)
	require.NoError(t, err)
	assert.Contains(t, out, "I debug.log")
}
