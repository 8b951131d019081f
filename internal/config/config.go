package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ryzom/shardstatus/internal/shard"
)

type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageSQLite StorageType = "sqlite"
)

type Config struct {
	Endpoint     string
	Timeout      time.Duration
	Aliases      map[string]string
	Port         int
	PollInterval time.Duration
	Storage      StorageType
	SQLitePath   string
	HistoryTTL   time.Duration
	ConfigFile   string
	LogFormat    string
	LogLevel     string
	Once         bool
}

// Parse reads the process arguments and exits on error.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// ParseArgs parses args and merges the optional YAML file given by -config.
// Flags set explicitly on the command line take precedence over the file.
func ParseArgs(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("shardstatus", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.Endpoint, "endpoint", shard.DefaultEndpoint, "Shard status page URL")
	fs.DurationVar(&cfg.Timeout, "timeout", shard.DefaultTimeout, "Status request timeout")
	fs.IntVar(&cfg.Port, "port", 8000, "Web server port")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", time.Minute, "Status polling interval")

	var storageStr string
	fs.StringVar(&storageStr, "storage", "memory", "Storage type: memory or sqlite")

	fs.StringVar(&cfg.SQLitePath, "sqlite-path", "./history.db", "SQLite database path")
	fs.DurationVar(&cfg.HistoryTTL, "history-ttl", 24*time.Hour, "History retention time")
	fs.StringVar(&cfg.ConfigFile, "config", "", "Optional YAML config file")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Once, "once", false, "Fetch the status once, print it and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Storage = StorageType(storageStr)
	if cfg.Storage != StorageMemory && cfg.Storage != StorageSQLite {
		cfg.Storage = StorageMemory
	}

	cfg.Aliases = shard.DefaultAliases()

	if cfg.ConfigFile != "" {
		file, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}

		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		file.apply(cfg, set)
	}

	return cfg, nil
}
