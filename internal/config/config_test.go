package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultOutputName, cfg.OutputName)
	assert.Equal(t, []string{"node_modules", ".git", ".svn"}, cfg.Exclude)
	assert.True(t, cfg.RespectGitignore)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "repodoc.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadFromFile(t *testing.T) {
	p := writeConfig(t, `
folders:
  - path: /srv/app
    alias: App
  - path: /srv/lib
    git_ref: v1.0.0
subdirs: [frontend, backend]
output_name: STRUCTURE.md
port: 9000
`)
	cfg, err := Load(p, nil)
	require.NoError(t, err)

	assert.Equal(t, p, cfg.GetConfigFilePath())
	assert.Equal(t, "STRUCTURE.md", cfg.OutputName)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"frontend", "backend"}, cfg.Subdirs)
	// Unset keys keep their defaults
	assert.Equal(t, []string{"node_modules", ".git", ".svn"}, cfg.Exclude)

	require.Len(t, cfg.Folders, 2)
	assert.Equal(t, "App", cfg.Folders[0].Alias)
	assert.Equal(t, "lib (v1.0.0)", cfg.Folders[1].Alias)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	p := writeConfig(t, "port: 9000\noutput_name: FROM_FILE.md\nlog_level: warn\n")
	t.Setenv("REPODOC_PORT", "9100")
	t.Setenv("REPODOC_OUTPUT_NAME", "FROM_ENV.md")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-name", DefaultOutputName, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--output-name", "FROM_FLAG.md"}))

	cfg, err := Load(p, flags)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "env beats file")
	assert.Equal(t, "FROM_FLAG.md", cfg.OutputName, "flag beats env")
	assert.Equal(t, "warn", cfg.LogLevel, "unset flag does not override file")
}

func TestUsePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Folders = []Folder{{Path: "/saved", Alias: "saved"}}

	require.NoError(t, cfg.UsePaths([]string{"./a", "./b", "./a"}, ""))
	require.Len(t, cfg.Folders, 2)

	absA, _ := filepath.Abs("./a")
	assert.Equal(t, absA, cfg.Folders[0].Path)
	assert.Equal(t, "a", cfg.Folders[0].Alias)
}

func TestAddFolder(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.AddFolder("./docs", "MyDocs", "", "", nil))
	require.NoError(t, cfg.AddFolder("./docs", "", "main", "", nil))
	require.NoError(t, cfg.AddFolder("./docs", "Again", "", "", nil))

	require.Len(t, cfg.Folders, 2)
	assert.Equal(t, "MyDocs", cfg.Folders[0].Alias)
	assert.Equal(t, "docs (main)", cfg.Folders[1].Alias)

	cfg.RemoveFolderByIndex(0)
	cfg.RemoveFolderByIndex(5)
	require.Len(t, cfg.Folders, 1)
	assert.Equal(t, "main", cfg.Folders[0].GitRef)
}

func TestTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Folders = []Folder{
		{Path: "/srv/app", Alias: "app"},
		{Path: "/srv/mono", Alias: "mono", SubPath: "services/"},
	}

	t.Run("whole folders", func(t *testing.T) {
		targets := cfg.Targets()
		require.Len(t, targets, 2)
		assert.Equal(t, Target{ID: "0", Alias: "app", Folder: cfg.Folders[0], Dir: ""}, targets[0])
		assert.Equal(t, "services", targets[1].Dir)
		assert.Equal(t, "app", targets[0].Name())
		assert.Equal(t, "services", targets[1].Name())
	})

	t.Run("subdirs", func(t *testing.T) {
		c := *cfg
		c.Subdirs = []string{"frontend", "backend"}
		targets := c.Targets()
		require.Len(t, targets, 4)

		assert.Equal(t, "frontend", targets[0].Dir)
		assert.Equal(t, "app/frontend", targets[0].Alias)
		assert.Equal(t, "backend", targets[1].Dir)
		assert.Equal(t, "services/frontend", targets[2].Dir)
		assert.Equal(t, "3", targets[3].ID)
		assert.Equal(t, "backend", targets[3].Name())
		assert.Equal(t, filepath.Join("/srv/mono", "services", "backend"), targets[3].AbsDir())
	})
}

func TestIsExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{".git", "node_modules", "*.log"}

	assert.True(t, cfg.IsExcluded("/path/to/.git"))
	assert.True(t, cfg.IsExcluded("/path/to/node_modules"))
	assert.True(t, cfg.IsExcluded("/path/to/debug.log"))
	assert.False(t, cfg.IsExcluded("/path/to/README.md"))
}

func TestIsOutputFile(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsOutputFile("/repo/REPOSITORY_STRUCTURE.md"))
	assert.True(t, cfg.IsOutputFile("/repo/REPOSITORY_STRUCTURE.html"))
	assert.False(t, cfg.IsOutputFile("/repo/README.md"))
	assert.Equal(t, "DOCS.html", HTMLName("DOCS.md"))
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.SetConfigFilePath(tmpFile)
	cfg.Port = 9999
	cfg.Subdirs = []string{"frontend"}
	cfg.Folders = []Folder{{Path: "/tmp", Alias: "Temp", Exclude: []string{"dist"}}}

	require.NoError(t, cfg.Save())

	cfg2, err := Load(tmpFile, nil)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg2.Port)
	assert.Equal(t, []string{"frontend"}, cfg2.Subdirs)
	require.Len(t, cfg2.Folders, 1)
	assert.Equal(t, "Temp", cfg2.Folders[0].Alias)
	assert.Equal(t, []string{"dist"}, cfg2.Folders[0].Exclude)
}
