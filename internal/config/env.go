package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KASPAMON_"

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Variables already set win. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from KASPAMON_* variables.
func (s *Settings) ApplyEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	setString("NODE_MODE", &s.Node.Mode)
	setString("NODE_BINARY", &s.Node.Binary)
	setString("NODE_RPC_URL", &s.Node.RPCURL)
	setString("NODE_CONTAINER", &s.Node.Container)
	setString("NODE_NETWORK", &s.Node.Network)
	setString("NODE_TERMINATION_SIGNAL", &s.Node.TerminationSignal)
	setDuration("NODE_RECONNECT_INTERVAL", &s.Node.ReconnectInterval)
	setBool("MARKET_ENABLED", &s.Market.Enabled)
	setDuration("MARKET_INTERVAL", &s.Market.Interval)
	setString("MARKET_PRICE_ENDPOINT", &s.Market.PriceEndpoint)
	setString("MARKET_CATALOG_ENDPOINT", &s.Market.CatalogEndpoint)
	if v, ok := os.LookupEnv(EnvPrefix + "MARKET_CURRENCIES"); ok {
		s.Market.Currencies = splitList(v)
	}
	setBool("UPDATES_ENABLED", &s.Updates.Enabled)
	setString("LOG_LEVEL", &s.Logging.Level)
	setString("LOG_FILE", &s.Logging.File)
	setString("DIAGNOSTICS_DIR", &s.Diagnostics.Dir)
	setString("METRICS_LISTEN", &s.Metrics.Listen)

	return errors.Join(errs...)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
