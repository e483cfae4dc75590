// Package config layers settings: built-in defaults, then the TOML config
// file, then environment variables. Flags are handled by the commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultLrclibURL    = "https://lrclib.net/api"
	DefaultPollInterval = 100 * time.Millisecond

	appDirName = "slowverb"
)

type PlayerConfig struct {
	MprisService string
	PollInterval time.Duration
}

type LyricsConfig struct {
	BaseURL           string
	ToleranceSeconds  float64
	ToleranceFraction float64
	SlowFactor        float64
	MinSlowFactor     float64
	MaxSlowFactor     float64
}

type CacheConfig struct {
	Dir           string
	BucketSeconds float64
	TTL           time.Duration
}

type UIConfig struct {
	SyncOffset float64
	HideHeader bool
}

type Config struct {
	Player PlayerConfig
	Lyrics LyricsConfig
	Cache  CacheConfig
	UI     UIConfig
}

// tomlConfig mirrors the on-disk file. Every field is optional; zero
// values fall through to the defaults.
type tomlConfig struct {
	Player struct {
		MprisService string `toml:"mpris_service"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"player"`

	Lyrics struct {
		BaseURL           string  `toml:"base_url"`
		ToleranceSeconds  float64 `toml:"tolerance_seconds"`
		ToleranceFraction float64 `toml:"tolerance_fraction"`
		SlowFactor        float64 `toml:"slow_factor"`
		MinSlowFactor     float64 `toml:"min_slow_factor"`
		MaxSlowFactor     float64 `toml:"max_slow_factor"`
	} `toml:"lyrics"`

	Cache struct {
		Dir           string  `toml:"dir"`
		BucketSeconds float64 `toml:"bucket_seconds"`
		TTLDays       int     `toml:"ttl_days"`
	} `toml:"cache"`

	UI struct {
		SyncOffset float64 `toml:"sync_offset"`
		HideHeader bool    `toml:"hide_header"`
	} `toml:"ui"`
}

func defaults() *Config {
	return &Config{
		Player: PlayerConfig{
			MprisService: DefaultMprisService,
			PollInterval: DefaultPollInterval,
		},
		Lyrics: LyricsConfig{
			BaseURL:           DefaultLrclibURL,
			ToleranceSeconds:  15,
			ToleranceFraction: 0.10,
			SlowFactor:        1.3,
			MinSlowFactor:     1.05,
			MaxSlowFactor:     1.8,
		},
		Cache: CacheConfig{
			BucketSeconds: 5,
			TTL:           30 * 24 * time.Hour,
		},
	}
}

// Path returns the config file location, honoring XDG_CONFIG_HOME.
func Path() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appDirName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", appDirName, "config.toml")
}

// Load builds the effective configuration. A missing config file is fine;
// an unreadable one is logged and skipped rather than aborting startup.
func Load() *Config {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit file path, mainly for tests.
func LoadFile(path string) *Config {
	cfg := defaults()

	var file tomlConfig
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config file")
		} else {
			log.Debug().Str("path", path).Msg("loaded config file")
		}
	}

	applyFile(cfg, &file)
	applyEnv(cfg)
	return cfg
}

func applyFile(cfg *Config, file *tomlConfig) {
	if file.Player.MprisService != "" {
		cfg.Player.MprisService = file.Player.MprisService
	}
	if file.Player.PollInterval != "" {
		if d, err := time.ParseDuration(file.Player.PollInterval); err == nil && d > 0 {
			cfg.Player.PollInterval = d
		} else {
			log.Warn().Str("poll_interval", file.Player.PollInterval).Msg("invalid poll_interval, using default")
		}
	}

	if file.Lyrics.BaseURL != "" {
		cfg.Lyrics.BaseURL = file.Lyrics.BaseURL
	}
	if file.Lyrics.ToleranceSeconds > 0 {
		cfg.Lyrics.ToleranceSeconds = file.Lyrics.ToleranceSeconds
	}
	if file.Lyrics.ToleranceFraction > 0 {
		cfg.Lyrics.ToleranceFraction = file.Lyrics.ToleranceFraction
	}
	if file.Lyrics.SlowFactor > 0 {
		cfg.Lyrics.SlowFactor = file.Lyrics.SlowFactor
	}
	if file.Lyrics.MinSlowFactor > 0 {
		cfg.Lyrics.MinSlowFactor = file.Lyrics.MinSlowFactor
	}
	if file.Lyrics.MaxSlowFactor > 0 {
		cfg.Lyrics.MaxSlowFactor = file.Lyrics.MaxSlowFactor
	}

	if file.Cache.Dir != "" {
		cfg.Cache.Dir = file.Cache.Dir
	}
	if file.Cache.BucketSeconds > 0 {
		cfg.Cache.BucketSeconds = file.Cache.BucketSeconds
	}
	if file.Cache.TTLDays > 0 {
		cfg.Cache.TTL = time.Duration(file.Cache.TTLDays) * 24 * time.Hour
	}

	cfg.UI.SyncOffset = file.UI.SyncOffset
	cfg.UI.HideHeader = file.UI.HideHeader
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SLOWVERB_MPRIS_SERVICE"); v != "" {
		cfg.Player.MprisService = v
	}
	if v := os.Getenv("SLOWVERB_LRCLIB_URL"); v != "" {
		cfg.Lyrics.BaseURL = v
	}
	if v := os.Getenv("SLOWVERB_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("SLOWVERB_SYNC_OFFSET"); v != "" {
		if offset, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.UI.SyncOffset = offset
		}
	}
	if v := os.Getenv("SLOWVERB_HIDE_HEADER"); v != "" {
		cfg.UI.HideHeader = v == "1" || v == "true" || v == "yes"
	}
}
