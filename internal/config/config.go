// Package config loads server settings with viper. Sources are merged in
// increasing precedence: defaults, the user file, the project .glsld.toml,
// GLSLD_* environment variables, and finally flags bound by the CLI.
package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/spf13/viper"
)

const (
	appName           = "glsld"
	projectConfigName = ".glsld.toml"
	envPrefix         = "GLSLD"
)

// Config is the resolved server configuration.
type Config struct {
	IncludeDirs  []string  `mapstructure:"include_dirs"`
	Extensions   []string  `mapstructure:"extensions"`
	CacheDir     string    `mapstructure:"cache_dir"`
	Watch        bool      `mapstructure:"watch"`
	Index        bool      `mapstructure:"index"`
	DefaultStage string    `mapstructure:"default_stage"`
	Log          LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Stage parses DefaultStage, falling back to fragment.
func (c *Config) Stage() glsl.Stage {
	stage, err := glsl.ParseStage(c.DefaultStage)
	if err != nil {
		return glsl.StageFragment
	}
	return stage
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("include_dirs", []string{})
	v.SetDefault("extensions", []string{".glsl", ".vert", ".frag", ".comp", ".geom", ".tesc", ".tese"})
	v.SetDefault("cache_dir", "")
	v.SetDefault("watch", true)
	v.SetDefault("index", true)
	v.SetDefault("default_stage", "fragment")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// New builds a viper instance for a workspace rooted at projectRoot.
func New(projectRoot string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v, configPaths(projectRoot))
	return v
}

// Load resolves the configuration of v. Relative include directories are
// made absolute against projectRoot, and an empty cache_dir is replaced by
// the per-project folder under the user config directory.
func Load(v *viper.Viper, projectRoot string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	for i, dir := range cfg.IncludeDirs {
		if !filepath.IsAbs(dir) {
			cfg.IncludeDirs[i] = filepath.Join(projectRoot, dir)
		}
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			cfg.Extensions[i] = "." + ext
		}
	}
	if _, err := glsl.ParseStage(cfg.DefaultStage); err != nil {
		return nil, errors.WithHint(err, "default_stage must be one of vertex, tesscontrol, tesseval, geometry, fragment, compute")
	}

	if cfg.CacheDir == "" {
		dir, err := ProjectCacheFolder(projectRoot)
		if err != nil {
			return nil, err
		}
		cfg.CacheDir = dir
	}
	return &cfg, nil
}

func configPaths(projectRoot string) []string {
	var paths []string
	if dir, err := UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.toml"))
	}
	if project := findProjectConfig(projectRoot); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// findProjectConfig walks up from dir looking for .glsld.toml.
func findProjectConfig(dir string) string {
	if dir == "" {
		return ""
	}
	for {
		candidate := filepath.Join(dir, projectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles applies each existing file in order so later files win.
func mergeConfigFiles(v *viper.Viper, paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		file := viper.New()
		file.SetConfigFile(path)
		file.SetConfigType("toml")
		if err := file.ReadInConfig(); err != nil {
			continue
		}
		if err := v.MergeConfigMap(file.AllSettings()); err != nil {
			continue
		}
	}
}

// ProjectCacheFolder returns (and creates) the cache folder of a workspace.
func ProjectCacheFolder(projectRoot string) (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}

	slug := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(projectRoot)
	dir := filepath.Join(configDir, appName, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create cache folder %s", dir)
	}
	return dir, nil
}

// UserConfigDir is os.UserConfigDir with a ~/.config fallback.
func UserConfigDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "failed to get current user")
	}
	return filepath.Join(usr.HomeDir, ".config"), nil
}
