package symbols

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.toml")
	content := `
[symbols]
build = "ionicon-build"
rocket = "ionicon-rocket"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := Load(path, discardLogger())
	assert.False(t, c.Degraded())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"build", "rocket"}, c.Names())

	class, ok := c.Lookup("rocket")
	assert.True(t, ok)
	assert.Equal(t, "ionicon-rocket", class)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.toml"), discardLogger())
	assert.True(t, c.Degraded())
	assert.Equal(t, 0, c.Len())
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.toml")
	require.NoError(t, os.WriteFile(path, []byte("[symbols\nbuild = "), 0644))

	c := Load(path, discardLogger())
	assert.True(t, c.Degraded())
}

func TestLoad_EmptyPath(t *testing.T) {
	assert.True(t, Load("", discardLogger()).Degraded())
}

func TestNew_CopiesEntries(t *testing.T) {
	src := map[string]string{"a": "x", "": "ignored"}
	c := New(src)
	src["b"] = "y"

	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup("b")
	assert.False(t, ok)
}
