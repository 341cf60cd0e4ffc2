package cmd_cas

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T, valueType string) (*shell, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.ValueType = valueType
	store, err := cas_serv.New(cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	return &shell{store: store, cfg: cfg, out: &out, limit: 2}, &out
}

// TestShell_Exec tests the line commands against a string index.
func TestShell_Exec(t *testing.T) {
	sh, out := newShell(t, "string")

	require.NoError(t, sh.exec(`insert "/docs/my notes" "hello world" 1`))
	require.NoError(t, sh.exec(`insert /docs/todo apple 2`))
	require.NoError(t, sh.exec(`insert /docs/todo pear 3`))

	out.Reset()
	require.NoError(t, sh.exec(`query "/docs/my notes"`))
	assert.Contains(t, out.String(), "/docs/my notes = hello world  #1")

	out.Reset()
	require.NoError(t, sh.exec(`query //todo a b`))
	assert.Contains(t, out.String(), "#2")
	assert.Contains(t, out.String(), "1 matches")

	out.Reset()
	require.NoError(t, sh.exec(`query // - -`))
	assert.Contains(t, out.String(), "... 1 more")
	assert.Contains(t, out.String(), "3 matches")

	require.NoError(t, sh.exec("delete /docs/todo pear 3"))
	assert.EqualError(t, sh.exec("delete /docs/todo pear 3"), "no such key")
	assert.Equal(t, 2, sh.store.Len())

	assert.Error(t, sh.exec("insert /a b"))
	assert.Error(t, sh.exec("frobnicate"))
	assert.Error(t, sh.exec(`query "unterminated`))
	assert.NoError(t, sh.exec("   "))
}

// TestShell_LoadExport tests file import and export.
func TestShell_LoadExport(t *testing.T) {
	sh, out := newShell(t, "int32")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("/a;1;1\n/b;-2;\n"), 0o644))

	require.NoError(t, sh.exec("load "+in+" bulk"))
	assert.Contains(t, out.String(), "2 keys loaded")

	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, sh.exec("export "+dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "/a;1;1\n/b;-2;2\n", string(b))

	assert.Error(t, sh.exec("load "+filepath.Join(dir, "missing.csv")))
}

// TestShell_Run tests the read loop and quit.
func TestShell_Run(t *testing.T) {
	sh, out := newShell(t, "int64")
	in := strings.NewReader("insert /x 5 1\nbogus\nquit\ninsert /y 6 2\n")
	require.NoError(t, sh.run(in, false))
	assert.Contains(t, out.String(), "error:")
	assert.Equal(t, 1, sh.store.Len())
}
