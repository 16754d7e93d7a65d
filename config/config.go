package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Synth   SynthConfig    `yaml:"synth"`
	Resolve ResolveConfig  `yaml:"resolve"`
	Render  RenderSettings `yaml:"render"`
	Music   MusicConfig    `yaml:"music"`
	Paths   PathsConfig    `yaml:"paths"`
}

type SynthConfig struct {
	Voices      []string `yaml:"voices"`
	DefaultRate string   `yaml:"default_rate"`
	HindiRate   string   `yaml:"hindi_rate"`
}

type ResolveConfig struct {
	TimeoutSec         int    `yaml:"timeout_sec"`
	ImageGenTimeoutSec int    `yaml:"image_gen_timeout_sec"`
	ShortsAIQuota      int    `yaml:"shorts_ai_quota"`
	LongAIQuota        int    `yaml:"long_ai_quota"`
	ImageGenURL        string `yaml:"image_gen_url"`
	ImageGenBackupURL  string `yaml:"image_gen_backup_url"`
}

type RenderSettings struct {
	FPS              int     `yaml:"fps"`
	FontSizeShorts   int     `yaml:"font_size_shorts"`
	FontSizeLong     int     `yaml:"font_size_long"`
	MaxScenesShorts  int     `yaml:"max_scenes_shorts"`
	MaxScenesLong    int     `yaml:"max_scenes_long"`
	ChunkWordsShorts int     `yaml:"chunk_words_shorts"`
	ChunkWordsLong   int     `yaml:"chunk_words_long"`
	SFXCooldownSec   float64 `yaml:"sfx_cooldown_sec"`
}

type MusicConfig struct {
	Volume float64             `yaml:"volume"`
	Moods  map[string][]string `yaml:"moods"`
}

type PathsConfig struct {
	Work   string `yaml:"work"`
	Assets string `yaml:"assets"`
	Songs  string `yaml:"songs"`
	Output string `yaml:"output"`
}

// Mode selects the output format.
const (
	ModeShorts = "Shorts"
	ModeLong   = "Long"
)

// RenderConfig is the explicit per-run value handed to the Resolver,
// Compositor and Stitcher. It replaces any global mode flag: everything a
// stage needs to know about the output format travels in here.
type RenderConfig struct {
	Mode       string
	Width      int
	Height     int
	FPS        int
	FontSize   int
	MaxScenes  int
	ChunkWords int
	AIQuota    int
}

// Portrait reports whether the target is vertical.
func (r RenderConfig) Portrait() bool {
	return r.Height > r.Width
}

// Orientation returns the stock-provider orientation keyword.
func (r RenderConfig) Orientation() string {
	if r.Portrait() {
		return "portrait"
	}
	return "landscape"
}

// RenderConfigFor derives the per-run render settings for a mode.
func (c *Config) RenderConfigFor(mode string) (RenderConfig, error) {
	switch mode {
	case ModeShorts:
		return RenderConfig{
			Mode:       ModeShorts,
			Width:      1080,
			Height:     1920,
			FPS:        c.Render.FPS,
			FontSize:   c.Render.FontSizeShorts,
			MaxScenes:  c.Render.MaxScenesShorts,
			ChunkWords: c.Render.ChunkWordsShorts,
			AIQuota:    c.Resolve.ShortsAIQuota,
		}, nil
	case ModeLong:
		return RenderConfig{
			Mode:       ModeLong,
			Width:      1920,
			Height:     1080,
			FPS:        c.Render.FPS,
			FontSize:   c.Render.FontSizeLong,
			MaxScenes:  c.Render.MaxScenesLong,
			ChunkWords: c.Render.ChunkWordsLong,
			AIQuota:    c.Resolve.LongAIQuota,
		}, nil
	}
	return RenderConfig{}, fmt.Errorf("unknown video mode %q", mode)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Synth: SynthConfig{
			Voices: []string{
				"en-US-ChristopherNeural",
				"en-US-GuyNeural",
				"en-GB-RyanNeural",
			},
			DefaultRate: "+10%",
			HindiRate:   "+30%",
		},
		Resolve: ResolveConfig{
			TimeoutSec:         15,
			ImageGenTimeoutSec: 45,
			ShortsAIQuota:      3,
			LongAIQuota:        10,
			ImageGenURL:        "https://image.pollinations.ai/prompt",
			ImageGenBackupURL:  "https://image.pollinations.ai/prompt", // backup tries model=turbo
		},
		Render: RenderSettings{
			FPS:              24,
			FontSizeShorts:   80,
			FontSizeLong:     60,
			MaxScenesShorts:  12,
			MaxScenesLong:    40,
			ChunkWordsShorts: 2,
			ChunkWordsLong:   3,
			SFXCooldownSec:   2.0,
		},
		Music: MusicConfig{
			Volume: 0.15,
			Moods: map[string][]string{
				"Thrilling":   {"thrill", "action", "fast", "dark"},
				"Peaceful":    {"peace", "calm", "ambient", "soft"},
				"Informative": {"info", "news", "beat", "tech"},
				"Upbeat":      {"upbeat", "happy", "fun", "pop"},
				"Sad":         {"sad", "emotional", "slow", "piano"},
			},
		},
		Paths: PathsConfig{
			Work:   "temp",
			Assets: "assets",
			Songs:  "songs",
			Output: ".",
		},
	}
}

// Load reads a yaml config file over the defaults. A missing file is not an
// error: the defaults are a complete working configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
