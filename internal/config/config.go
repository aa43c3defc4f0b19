// Package config manages YAML-based configuration, environment overrides, CLI flags and
// multi-folder settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultOutputName is the file written into every scanned root.
const DefaultOutputName = "REPOSITORY_STRUCTURE.md"

// Folder is a project root with an alias for display
type Folder struct {
	Path    string   `yaml:"path" json:"path" mapstructure:"path"`
	Alias   string   `yaml:"alias" json:"alias" mapstructure:"alias"`
	GitRef  string   `yaml:"git_ref,omitempty" json:"git_ref,omitempty" mapstructure:"git_ref"`
	SubPath string   `yaml:"sub_path,omitempty" json:"sub_path,omitempty" mapstructure:"sub_path"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty" mapstructure:"exclude"`
}

// Config holds all configuration options for repodoc
type Config struct {
	// Project roots
	Folders []Folder `yaml:"folders,omitempty" json:"folders" mapstructure:"folders"`

	// Subdirectories of every folder that get their own document. Empty means the
	// folder (or its sub_path) itself.
	Subdirs []string `yaml:"subdirs,omitempty" json:"subdirs,omitempty" mapstructure:"subdirs"`

	OutputName       string   `yaml:"output_name" json:"output_name" mapstructure:"output_name"`
	Exclude          []string `yaml:"exclude" json:"exclude" mapstructure:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore" json:"respect_gitignore" mapstructure:"respect_gitignore"`
	HTML             bool     `yaml:"html" json:"html" mapstructure:"html"`

	Port       int `yaml:"port" json:"port" mapstructure:"port"`
	DebounceMs int `yaml:"debounce_ms" json:"debounce_ms" mapstructure:"debounce_ms"`
	CacheSize  int `yaml:"cache_size" json:"cache_size" mapstructure:"cache_size"`

	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogDir   string `yaml:"log_dir,omitempty" json:"log_dir,omitempty" mapstructure:"log_dir"`

	// Internal: path to config file for saving
	configPath string
}

// Target is one document to generate: a folder plus the directory inside it to scan.
type Target struct {
	ID     string `json:"id"`
	Alias  string `json:"alias"`
	Folder Folder `json:"folder"`
	// Dir is slash separated and relative to Folder.Path, "" for the folder itself.
	Dir string `json:"dir"`
}

// Name is the root name printed in the document header.
func (t Target) Name() string {
	if t.Dir != "" {
		return path.Base(t.Dir)
	}
	return filepath.Base(t.Folder.Path)
}

// Local reports whether the target is read from the working tree rather than a git ref.
func (t Target) Local() bool {
	return t.Folder.GitRef == ""
}

// AbsDir returns the directory of a local target on disk.
func (t Target) AbsDir() string {
	return filepath.Join(t.Folder.Path, filepath.FromSlash(t.Dir))
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"subdir":      "subdirs",
	"output-name": "output_name",
	"exclude":     "exclude",
	"gitignore":   "respect_gitignore",
	"html":        "html",
	"port":        "port",
	"debounce":    "debounce_ms",
	"cache-size":  "cache_size",
	"log-level":   "log_level",
	"log-dir":     "log_dir",
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		OutputName:       DefaultOutputName,
		Exclude:          []string{"node_modules", ".git", ".svn"},
		RespectGitignore: true,
		Port:             8080,
		DebounceMs:       500,
		CacheSize:        4096,
		LogLevel:         "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("folders", []Folder{})
	v.SetDefault("subdirs", []string{})
	v.SetDefault("output_name", d.OutputName)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("respect_gitignore", d.RespectGitignore)
	v.SetDefault("html", d.HTML)
	v.SetDefault("port", d.Port)
	v.SetDefault("debounce_ms", d.DebounceMs)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_dir", "")
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/repodoc"
	}
	return filepath.Join(home, ".config", "repodoc")
}

// GetConfigPath returns the full path to the global config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// findConfigFile picks the explicit file, then ~/.config/repodoc/config.yaml, then a
// local repodoc.yaml.
func findConfigFile(cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}
	if global := GetConfigPath(); fileExists(global) {
		return global
	}
	if fileExists("repodoc.yaml") {
		return "repodoc.yaml"
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Load builds the configuration from defaults, the config file, REPODOC_* environment
// variables and flags, in increasing order of precedence. Flags only count when they
// were set explicitly. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REPODOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfgPath := findConfigFile(cfgFile)
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			// Only fail if the user explicitly specified the config file
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
			}
		}
	} else {
		cfgPath = GetConfigPath()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.configPath = cfgPath
	cfg.resolveFolders()
	return cfg, nil
}

// UsePaths replaces the configured folders with paths, as given on the command line.
func (c *Config) UsePaths(paths []string, gitRef string) error {
	c.Folders = nil
	for _, p := range paths {
		if err := c.AddFolder(p, "", gitRef, "", nil); err != nil {
			return err
		}
	}
	return nil
}

// resolveFolders makes folder paths absolute and fills in missing aliases.
func (c *Config) resolveFolders() {
	for i := range c.Folders {
		absPath, err := filepath.Abs(c.Folders[i].Path)
		if err == nil {
			c.Folders[i].Path = absPath
		}
		if c.Folders[i].Alias == "" {
			c.Folders[i].Alias = defaultAlias(c.Folders[i].Path, c.Folders[i].GitRef)
		}
	}
}

func defaultAlias(absPath, gitRef string) string {
	alias := filepath.Base(absPath)
	if gitRef != "" {
		alias = alias + " (" + gitRef + ")"
	}
	return alias
}

// Targets expands the folders into the documents to generate, one per folder and
// configured subdirectory, in configuration order.
func (c *Config) Targets() []Target {
	var targets []Target
	for _, f := range c.Folders {
		base := strings.Trim(path.Clean("/"+filepath.ToSlash(f.SubPath)), "/")
		if len(c.Subdirs) == 0 {
			targets = append(targets, Target{Alias: f.Alias, Folder: f, Dir: base})
			continue
		}
		for _, sub := range c.Subdirs {
			dir := strings.Trim(path.Clean("/"+path.Join(base, filepath.ToSlash(sub))), "/")
			targets = append(targets, Target{Alias: f.Alias + "/" + path.Base("/"+dir), Folder: f, Dir: dir})
		}
	}
	for i := range targets {
		targets[i].ID = strconv.Itoa(i)
	}
	return targets
}

// Debounce returns the quiet period before a changed root is regenerated.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 0
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// SetConfigFilePath changes where Save writes.
func (c *Config) SetConfigFilePath(p string) {
	c.configPath = p
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// AddFolder adds a new folder with the given path, alias, git_ref, subPath and excludes
func (c *Config) AddFolder(p, alias, gitRef, subPath string, exclude []string) error {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return err
	}

	// Check if folder already exists (same path AND same git_ref AND same sub_path)
	for _, f := range c.Folders {
		if f.Path == absPath && f.GitRef == gitRef && f.SubPath == subPath {
			return nil
		}
	}

	if alias == "" {
		alias = defaultAlias(absPath, gitRef)
	}

	c.Folders = append(c.Folders, Folder{
		Path:    absPath,
		Alias:   alias,
		GitRef:  gitRef,
		SubPath: subPath,
		Exclude: exclude,
	})

	return nil
}

// RemoveFolderByIndex removes a folder by its index
func (c *Config) RemoveFolderByIndex(index int) {
	if index < 0 || index >= len(c.Folders) {
		return
	}
	c.Folders = append(c.Folders[:index], c.Folders[index+1:]...)
}

// IsExcluded checks if a path should be excluded by the global patterns
func (c *Config) IsExcluded(p string) bool {
	base := filepath.Base(p)
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}

// IsOutputFile reports whether p names a generated document.
func (c *Config) IsOutputFile(p string) bool {
	base := filepath.Base(p)
	return base == c.OutputName || base == HTMLName(c.OutputName)
}

// HTMLName returns the name of the HTML rendering written next to outputName.
func HTMLName(outputName string) string {
	return strings.TrimSuffix(outputName, filepath.Ext(outputName)) + ".html"
}
