package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for rag2f
	EnvConfigDir = "RAG2F_CONFIG_DIR"

	// EnvDataDir overrides the XDG data directory for rag2f
	EnvDataDir = "RAG2F_DATA_DIR"

	// EnvStateDir overrides the XDG state directory for rag2f
	EnvStateDir = "RAG2F_STATE_DIR"
)

// Default names
const (
	AppDirName       = "rag2f"
	ConfigFileName   = "config.json"
	PluginsDirName   = "plugins"
	InstalledDirName = "site-packages"
	LogFileName      = "rag2f.log"
)

// Paths holds the resolved base directories.
type Paths struct {
	ConfigDir string
	DataDir   string
	StateDir  string
}

// New resolves the directories from the environment and XDG defaults.
func New() *Paths {
	return &Paths{
		ConfigDir: dirFromEnv(EnvConfigDir, xdg.ConfigHome),
		DataDir:   dirFromEnv(EnvDataDir, xdg.DataHome),
		StateDir:  dirFromEnv(EnvStateDir, xdg.StateHome),
	}
}

func dirFromEnv(env, xdgBase string) string {
	if dir := os.Getenv(env); dir != "" {
		return expandHome(dir)
	}
	return filepath.Join(xdgBase, AppDirName)
}

// ConfigFile is the default configuration document.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, ConfigFileName)
}

// PluginDir is the default filesystem plugins root.
func (p *Paths) PluginDir() string {
	return filepath.Join(p.DataDir, PluginsDirName)
}

// InstalledDir is the default root of installed package metadata.
func (p *Paths) InstalledDir() string {
	return filepath.Join(p.DataDir, InstalledDirName)
}

// LogFile is where the CLI appends its log.
func (p *Paths) LogFile() string {
	return filepath.Join(p.StateDir, LogFileName)
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
