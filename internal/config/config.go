package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskdeck.db"
	DefaultLogName        = "taskdeck.log"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Toggle    string `toml:"toggle"`
	Delete    string `toml:"delete"`
	Edit      string `toml:"edit"`
	Search    string `toml:"search"`
	Filter    string `toml:"filter"`
	Sort      string `toml:"sort"`
	Yank      string `toml:"yank"`
	ClearDone string `toml:"clear_done"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
}

type Config struct {
	DBPath           string `toml:"db_path" env:"TASKDECK_DB"`
	LogPath          string `toml:"log_path" env:"TASKDECK_LOG"`
	DefaultFilter    string `toml:"default_filter" env:"TASKDECK_FILTER"`
	DefaultSort      string `toml:"default_sort" env:"TASKDECK_SORT"`
	SearchDebounceMS int    `toml:"search_debounce_ms" env:"TASKDECK_SEARCH_DEBOUNCE_MS"`
	NoticeDismissMS  int    `toml:"notice_dismiss_ms" env:"TASKDECK_NOTICE_DISMISS_MS"`
	Keys             Keymap `toml:"keys"`
}

// ResolveConfigPath prefers the XDG config dir, falling back to the working
// directory when it cannot be determined.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "taskdeck", DefaultConfigFileName)
}

// LoadOrCreate reads the TOML config, writing the defaults first when the
// file does not exist yet, then applies environment overrides on top.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	if cfg.SearchDebounceMS <= 0 {
		cfg.SearchDebounceMS = 250
	}
	if cfg.NoticeDismissMS <= 0 {
		cfg.NoticeDismissMS = 3000
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:           DefaultDBName,
		LogPath:          DefaultLogName,
		DefaultFilter:    "all",
		DefaultSort:      "newest",
		SearchDebounceMS: 250,
		NoticeDismissMS:  3000,
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Toggle:    " ",
			Delete:    "d",
			Edit:      "e",
			Search:    "/",
			Filter:    "f",
			Sort:      "s",
			Yank:      "y",
			ClearDone: "C",
			Confirm:   "enter",
			Cancel:    "esc",
		},
	}
}
