// Package config resolves runtime settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvDB                = "PROMORAFFLE_DB"
	EnvAddr              = "PROMORAFFLE_ADDR"
	EnvAdminUser         = "PROMORAFFLE_ADMIN_USER"
	EnvLog               = "PROMORAFFLE_LOG"
	EnvTicketPrefix      = "PROMORAFFLE_TICKET_PREFIX"
	EnvRegisterRetries   = "PROMORAFFLE_REGISTER_RETRIES"
	EnvImportBatch       = "PROMORAFFLE_IMPORT_BATCH"
	EnvImportParallelism = "PROMORAFFLE_IMPORT_PARALLELISM"
	EnvKafkaBrokers      = "PROMORAFFLE_KAFKA_BROKERS"
	EnvKafkaTopic        = "PROMORAFFLE_KAFKA_TOPIC"
	EnvJaegerEndpoint    = "PROMORAFFLE_JAEGER_ENDPOINT"
	EnvCatalog           = "PROMORAFFLE_CATALOG"
	EnvRaffleDate        = "PROMORAFFLE_RAFFLE_DATE"
)

// Config holds every runtime setting of the server.
type Config struct {
	DBPath            string
	Addr              string
	AdminUser         string
	LogPath           string
	TicketPrefix      string
	RegisterRetries   int
	ImportBatchSize   int
	ImportParallelism int
	KafkaBrokers      []string
	KafkaTopic        string
	JaegerEndpoint    string
	CatalogPath       string
	RaffleDate        string
}

// Usage is printed for -h.
const Usage = `Usage: promoraffle [flags]

Flags:
  -d, -db <path>          SQLite database path (default: promoraffle.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -e, -env <path>         dotenv file loaded before reading the environment (default: .env)
  -h, -help               show this help and exit

Campaign settings are read from PROMORAFFLE_* environment variables.
`

// Load reads the dotenv file (missing is fine), then the environment, then
// applies args on top.
func Load(args []string, stdout io.Writer) (*Config, error) {
	envFile := dotenvPath(args)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	fset := flag.NewFlagSet("promoraffle", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.Usage = func() { fmt.Fprint(stdout, Usage) }

	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fset.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fset.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fset.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fset.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	fset.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fset.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fset.String("env", envFile, "")
	fset.String("e", envFile, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment and defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:         envString(EnvDB, "promoraffle.sqlite3"),
		Addr:           envString(EnvAddr, ":8080"),
		AdminUser:      envString(EnvAdminUser, "Admin"),
		LogPath:        envString(EnvLog, ""),
		TicketPrefix:   envString(EnvTicketPrefix, "SKY"),
		KafkaTopic:     envString(EnvKafkaTopic, ""),
		JaegerEndpoint: envString(EnvJaegerEndpoint, ""),
		CatalogPath:    envString(EnvCatalog, ""),
		RaffleDate:     envString(EnvRaffleDate, ""),
	}

	for _, b := range strings.Split(os.Getenv(EnvKafkaBrokers), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var err error
	if cfg.RegisterRetries, err = envInt(EnvRegisterRetries, 3, 0); err != nil {
		return nil, err
	}
	if cfg.ImportBatchSize, err = envInt(EnvImportBatch, 490, 1); err != nil {
		return nil, err
	}
	if cfg.ImportParallelism, err = envInt(EnvImportParallelism, 2, 1); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dotenvPath finds -e/-env in args before the full parse.
func dotenvPath(args []string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || (name != "e" && name != "env") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ".env"
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def, minimum int) (int, error) {
	v := envString(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < minimum {
		return 0, fmt.Errorf("%s: must be at least %d", key, minimum)
	}
	return n, nil
}
