package rag2f

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rag2f/rag2f/internal/builtin"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/paths"
	"github.com/rag2f/rag2f/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	pluginDir    string
	installedDir string
	configFile   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	testutil.SetXDG(t, "XDG_STATE_HOME", filepath.Join(root, "state"), paths.EnvStateDir, "")
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "RAG2F__") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return &cliEnv{
		pluginDir:    filepath.Join(root, "plugins"),
		installedDir: filepath.Join(root, "site-packages"),
		configFile:   filepath.Join(root, "config.json"),
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{
		"--config", e.configFile,
		"--plugins-dir", e.pluginDir,
		"--installed-dir", e.installedDir,
	}, args...)...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) writeConfig(t *testing.T, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.configFile, []byte(doc), 0o644))
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rag2f")
}

func TestRootWithoutCommand(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t)
	require.Error(t, err)
	assert.Equal(t, MsgErrNoCommand, err.Error())
}

func TestConfigEnv(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "config", "env", "plugins.openai.model")
	require.NoError(t, err)
	assert.Equal(t, "RAG2F__PLUGINS__OPENAI__MODEL\n", out)

	out, err = env.run(t, "config", "env", "--plugin", "openai", "model")
	require.NoError(t, err)
	assert.Equal(t, "RAG2F__PLUGINS__OPENAI__MODEL\n", out)
}

func TestConfigGet_Layers(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "config", "get", builtin.EmbedderDefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "\"local\"\n", out)

	env.writeConfig(t, `{"rag2f": {"embedder_default": "openai"}}`)
	out, err = env.run(t, "config", "get", builtin.EmbedderDefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "\"openai\"\n", out)

	t.Setenv("RAG2F__RAG2F__EMBEDDER_DEFAULT", "azure")
	out, err = env.run(t, "config", "get", "--explain", builtin.EmbedderDefaultKey)
	require.NoError(t, err)
	assert.Contains(t, out, "# rag2f.embedder_default from environment")
	assert.Contains(t, out, "# override with RAG2F__RAG2F__EMBEDDER_DEFAULT")
	assert.True(t, strings.HasSuffix(out, "\"azure\"\n"))
}

func TestConfigGet_Subtree(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, `{"plugins": {"openai": {"model": "gpt", "dims": 8}}}`)

	out, err := env.run(t, "config", "get", "--plugin", "OpenAI")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"model": "gpt", "dims": float64(8)}, got)
}

func TestConfigGet_Missing(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "config", "get", "plugins.nope.key")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMissingRequiredConfig))
}

func TestConfigGet_InvalidDocument(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, `{"rag2f": `)
	_, err := env.run(t, "config", "get")
	require.Error(t, err)
}

func TestPluginsInit(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "plugins", "init", "--dry-run", "Retriever")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN")
	assert.Contains(t, out, `"id": "retriever"`)
	assert.NoDirExists(t, filepath.Join(env.pluginDir, "retriever"))

	out, err = env.run(t, "plugins", "init", "--name", "Retriever", "Retriever")
	require.NoError(t, err)
	assert.Contains(t, out, "Created plugin 'retriever'")
	assert.FileExists(t, filepath.Join(env.pluginDir, "retriever", "plugin.json"))

	_, err = env.run(t, "plugins", "init", "retriever")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))

	_, err = env.run(t, "plugins", "init", "bad id")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestPluginsList(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "plugins", "list")
	require.NoError(t, err)
	assert.Contains(t, out, MsgActivePlugins)
	assert.Contains(t, out, builtin.CoreID)
	assert.NotContains(t, out, MsgInactivePlugins)

	// A scaffolded plugin points at retriever.so, which is not built yet.
	_, err = env.run(t, "plugins", "init", "retriever")
	require.NoError(t, err)
	out, err = env.run(t, "plugins", "list")
	require.NoError(t, err)
	assert.Contains(t, out, MsgInactivePlugins)
	assert.Contains(t, out, "retriever")
}

func TestPluginsList_Disabled(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("RAG2F__RAG2F__DISABLED_PLUGINS", `["core"]`)

	out, err := env.run(t, "plugins", "list")
	require.NoError(t, err)
	assert.Contains(t, out, MsgInactivePlugins)
	assert.NotContains(t, out, MsgActivePlugins)
}

func TestHooksList(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "--no-color", "hooks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf(MsgHookHeading, builtin.EmbedderDefaultHook, 1))
	assert.Contains(t, out, "Priority")
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "embedderDefault")
}

func TestDispatch(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "dispatch", builtin.EmbedderDefaultHook)
	require.NoError(t, err)
	assert.Equal(t, "\"local\"\n", out)

	out, err = env.run(t, "dispatch", builtin.EmbedderDefaultHook, "openai")
	require.NoError(t, err)
	assert.Equal(t, "\"openai\"\n", out)

	out, err = env.run(t, "dispatch", "no.such.hook", `{"a": 1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
}

func TestHelpTopics(t *testing.T) {
	newCLIEnv(t)

	out, err := execute(t, "help", "topics")
	require.NoError(t, err)
	for _, name := range []string{"configuration", "environment", "hooks", "plugins", "--config", "--plugins-dir"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "help", "environment")
	require.NoError(t, err)
	assert.Contains(t, out, "Environment overrides")
	assert.Contains(t, out, "config env")
}
