package cli_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontent/internal/cli"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.toml")))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := cli.NewRootCommand(cli.BuildInfo{})
	assert.Equal(t, "doccontent", cmd.Use)

	for _, name := range []string{"fuzz", "replay", "script", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version=1.2.3")
	assert.Contains(t, out, "commit=abc")
}

func TestFuzz(t *testing.T) {
	out, err := execute(t, "fuzz", "--sessions", "3", "--steps", "150", "--jobs", "2", "--text", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "3 sessions, 0 failed")

	out, err = execute(t, "fuzz", "--steps", "150", "--share-displaced")
	require.NoError(t, err)
	assert.Contains(t, out, "1 sessions, 0 failed")
}

func TestFuzzRejectsArgs(t *testing.T) {
	_, err := execute(t, "fuzz", "extra")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	out, err := execute(t, "replay", filepath.Join("testdata", "pass.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "PASS typing then undo (7 steps)")

	out, err = execute(t, "replay", filepath.Join("testdata", "pass.yaml"), filepath.Join("testdata", "fail.yaml"))
	require.ErrorIs(t, err, cli.ErrScenariosFailed)
	assert.Contains(t, out, "FAIL wrong expectation")
	assert.Contains(t, out, `text "bc", want "abc"`)
}

func TestReplayWatchNeedsOneFile(t *testing.T) {
	_, err := execute(t, "replay", "--watch", "a.yaml", "b.yaml")
	assert.ErrorContains(t, err, "exactly one file")
}

func TestScript(t *testing.T) {
	out, err := execute(t, "script", "--text", "abc", "--print", filepath.Join("testdata", "edit.lua"))
	require.NoError(t, err)
	assert.Equal(t, "p at\t6\n>> abc\n", out)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, writeFile(path, "[content]\nmax_undo = 0\n"))

	cmd := cli.NewRootCommand(cli.BuildInfo{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"fuzz", "--config", path})
	assert.Error(t, cmd.Execute())
}

func TestReplayUsesContentConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "doccontent.toml")
	require.NoError(t, writeFile(cfg, "[content]\nmax_undo = 1\n"))
	sc := filepath.Join(dir, "limit.yaml")
	require.NoError(t, writeFile(sc, `name: limited history
text: ""
steps:
  - {op: insert, offset: 0, text: a}
  - {op: insert, offset: 1, text: b}
  - {op: undo, expect_text: a}
  - {op: undo, expect_error: cannot_undo}
`))

	cmd := cli.NewRootCommand(cli.BuildInfo{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"replay", "--config", cfg, sc})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "PASS limited history (4 steps)")

	_, err := execute(t, "replay", sc)
	assert.ErrorIs(t, err, cli.ErrScenariosFailed)
}
