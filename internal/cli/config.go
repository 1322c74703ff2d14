package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/session"
)

// Config is the layered CLI configuration.
// Priority: flags > environment > config file > defaults.
type Config struct {
	SiblingSpacing float64       `koanf:"sibling-spacing"`
	DepthSpacing   float64       `koanf:"depth-spacing"`
	Width          float64       `koanf:"width"`
	Height         float64       `koanf:"height"`
	Theme          string        `koanf:"theme"`
	Duration       time.Duration `koanf:"duration"`
	NoCache        bool          `koanf:"no-cache"`

	Cache cache.Config `koanf:"cache"`
	Serve ServeConfig  `koanf:"serve"`
}

// ServeConfig configures the HTTP viewer.
type ServeConfig struct {
	Addr       string        `koanf:"addr"`
	Watch      bool          `koanf:"watch"`
	SessionTTL time.Duration `koanf:"session-ttl"`
	Metrics    bool          `koanf:"metrics"`
}

func defaultConfig() map[string]any {
	return map[string]any{
		"sibling-spacing": layout.DefaultSiblingSpacing,
		"depth-spacing":   layout.DefaultDepthSpacing,
		"width":           float64(pipeline.DefaultWidth),
		"height":          float64(pipeline.DefaultHeight),
		"theme":           pipeline.DefaultTheme,
		"duration":        pipeline.DefaultDuration.String(),
		"no-cache":        false,
		"cache": map[string]any{
			"backend": cache.BackendFile,
		},
		"serve": map[string]any{
			"addr":        "127.0.0.1:8080",
			"watch":       false,
			"session-ttl": session.DefaultTTL.String(),
			"metrics":     true,
		},
	}
}

// flagKeys maps flag names to nested config keys. Other flags use their
// name as the key.
var flagKeys = map[string]string{
	"cache-backend": "cache.backend",
	"cache-dir":     "cache.dir",
	"redis-addr":    "cache.redis-addr",
	"mongo-uri":     "cache.mongo-uri",
	"addr":          "serve.addr",
	"watch":         "serve.watch",
	"session-ttl":   "serve.session-ttl",
	"metrics":       "serve.metrics",
}

// skipFlags are command options that are not part of the config.
var skipFlags = map[string]bool{
	"config":  true,
	"verbose": true,
	"help":    true,
	"version": true,
}

// addConfigFlags registers the flags shared by every command.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./"+defaultConfigFile+" when present)")
	fs.Float64("sibling-spacing", layout.DefaultSiblingSpacing, "horizontal distance between siblings")
	fs.Float64("depth-spacing", layout.DefaultDepthSpacing, "vertical distance between levels")
	fs.Float64("width", pipeline.DefaultWidth, "viewport width")
	fs.Float64("height", pipeline.DefaultHeight, "viewport height")
	fs.String("theme", pipeline.DefaultTheme, "color theme: default or dark")
	fs.Duration("duration", pipeline.DefaultDuration, "transition duration")
	fs.Bool("no-cache", false, "disable caching")
	fs.String("cache-backend", cache.BackendFile, "cache backend: none, file, redis or mongo")
	fs.String("cache-dir", "", "file cache directory")
	fs.String("redis-addr", "", "redis address for the redis backend")
	fs.String("mongo-uri", "", "connection string for the mongo backend")
}

// loadConfig layers defaults, the config file, ORGCHART_* variables and
// the flags that were set on the command line.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaultConfig()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, explicit := defaultConfigFile, false
	if fs != nil {
		if p, _ := fs.GetString("config"); p != "" {
			path, explicit = p, true
		}
	}
	if err := k.Load(file.Provider(path), tomlParser{}); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// envKey maps ORGCHART_SIBLING_SPACING to sibling-spacing and
// ORGCHART_CACHE__REDIS_ADDR to cache.redis-addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ReplaceAll(s, "_", "-")
}

func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if skipFlags[f.Name] {
			return "", nil
		}
		key := f.Name
		if k, ok := flagKeys[key]; ok {
			key = k
		}
		return key, posflag.FlagVal(fs, f)
	}
}

// pipelineOptions returns the chart and render options of cfg.
func (cfg *Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		SiblingSpacing: cfg.SiblingSpacing,
		DepthSpacing:   cfg.DepthSpacing,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Theme:          cfg.Theme,
		Duration:       cfg.Duration,
	}
}

// mapProvider serves the defaults map to koanf.
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}

// tomlParser decodes config files with BurntSushi/toml.
type tomlParser struct{}

func (tomlParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if _, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(m map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
