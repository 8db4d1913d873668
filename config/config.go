package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendJson   = "json"
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
)

type AppConfig struct {
	Backend      string `envconfig:"BACKEND" default:"json"`
	Workdir      string `envconfig:"WORK_DIR"`
	StoreFile    string `envconfig:"STORE_FILE" default:"local-storage.json"`
	DatabaseUri  string `envconfig:"DATABASE_URI" default:"todo.db"`
	ListenURL    string `envconfig:"LISTEN_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogToFile    bool   `envconfig:"LOG_TO_FILE" default:"false"`
	LogDBQueries bool   `envconfig:"LOG_DB_QUERIES" default:"false"`
	Reset        bool   `envconfig:"RESET" default:"false"`
}

// Load reads .env (if present) and TODO_* variables, then lets command-line
// flags override them.
func Load(args []string) (*AppConfig, error) {
	_ = godotenv.Load(".env")

	cfg := &AppConfig{}
	if err := envconfig.Process("todo", cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("todo-local-store", flag.ContinueOnError)
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: json, sqlite or memory")
	fs.StringVar(&cfg.Workdir, "work-dir", cfg.Workdir, "directory for store files and logs")
	fs.StringVar(&cfg.StoreFile, "store-file", cfg.StoreFile, "json backend file")
	fs.StringVar(&cfg.DatabaseUri, "database-uri", cfg.DatabaseUri, "sqlite backend database")
	fs.StringVar(&cfg.ListenURL, "listen-url", cfg.ListenURL, "HTTP listen URL")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.LogToFile, "log-to-file", cfg.LogToFile, "also write logs under work-dir/log")
	fs.BoolVar(&cfg.Reset, "reset", cfg.Reset, "drop the persisted todo list before start")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) finish() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendJson, BackendSqlite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Workdir == "" {
		c.Workdir = filepath.Join(xdg.DataHome, "todo-local-store")
	}

	// bare file names live in the work dir
	if dir, _ := filepath.Split(c.StoreFile); dir == "" {
		c.StoreFile = filepath.Join(c.Workdir, c.StoreFile)
	}
	if !strings.HasPrefix(c.DatabaseUri, "file:") {
		if dir, _ := filepath.Split(c.DatabaseUri); dir == "" {
			c.DatabaseUri = filepath.Join(c.Workdir, c.DatabaseUri)
		}
	}
	return nil
}
