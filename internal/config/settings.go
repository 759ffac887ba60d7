package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/process"
)

// appDir is the directory name under the user config dir.
const appDir = "kaspamon"

// Node connection modes.
const (
	ModeLocal     = "local"     // spawn the node binary
	ModeContainer = "container" // drive a docker container running the node
	ModeRemote    = "remote"    // connect to an existing endpoint
)

// NodeSettings configures the node supervisor.
type NodeSettings struct {
	Mode              string        `yaml:"mode"`
	Binary            string        `yaml:"binary"`
	Args              []string      `yaml:"args,omitempty"`
	RPCURL            string        `yaml:"rpcUrl"`
	Container         string        `yaml:"container"`
	TerminationSignal string        `yaml:"terminationSignal"`
	Network           string        `yaml:"network"`
	AutoStart         bool          `yaml:"autoStart"`
	ConnectTimeout    time.Duration `yaml:"connectTimeout"`
	ReconnectInterval time.Duration `yaml:"reconnectInterval"`
	ResourceInterval  time.Duration `yaml:"resourceInterval"`
}

// MarketSettings configures the market data poller.
type MarketSettings struct {
	Enabled         bool          `yaml:"enabled"`
	Asset           string        `yaml:"asset"`
	Currencies      []string      `yaml:"currencies"`
	PriceEndpoint   string        `yaml:"priceEndpoint"`
	CatalogEndpoint string        `yaml:"catalogEndpoint"`
	Interval        time.Duration `yaml:"interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// UpdateSettings configures the release checker.
type UpdateSettings struct {
	Enabled  bool          `yaml:"enabled"`
	Owner    string        `yaml:"owner"`
	Repo     string        `yaml:"repo"`
	Interval time.Duration `yaml:"interval"`
}

// UISettings configures the terminal front-end.
type UISettings struct {
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	LogLines        int           `yaml:"logLines"`
	Animations      bool          `yaml:"animations"` // Enable the live pulse
}

// BusSettings configures the event bus.
type BusSettings struct {
	Capacity int `yaml:"capacity"`
}

// NotificationSettings configures the notification queue.
type NotificationSettings struct {
	Capacity      int     `yaml:"capacity"`
	RatePerSecond float64 `yaml:"ratePerSecond"` // Budget for log-derived notifications
	Burst         int     `yaml:"burst"`
}

// LogSettings configures the application log.
type LogSettings struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// DiagnosticsSettings configures crash reports.
type DiagnosticsSettings struct {
	Dir string `yaml:"dir"`
}

// MetricsSettings configures the prometheus listener.
type MetricsSettings struct {
	Listen string `yaml:"listen"` // Empty disables the listener
}

// Settings holds user-configurable options.
type Settings struct {
	Node          NodeSettings         `yaml:"node"`
	Market        MarketSettings       `yaml:"market"`
	Updates       UpdateSettings       `yaml:"updates"`
	UI            UISettings           `yaml:"ui"`
	Bus           BusSettings          `yaml:"bus"`
	Notifications NotificationSettings `yaml:"notifications"`
	Logging       LogSettings          `yaml:"logging"`
	Diagnostics   DiagnosticsSettings  `yaml:"diagnostics"`
	Metrics       MetricsSettings      `yaml:"metrics"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	dir := defaultDataDir()
	return &Settings{
		Node: NodeSettings{
			Mode:              ModeRemote,
			Binary:            "kaspad",
			RPCURL:            "ws://127.0.0.1:18110",
			Container:         "kaspad",
			TerminationSignal: "SIGKILL", // kaspad is slow to honour SIGTERM while syncing
			Network:           string(model.NetworkMainnet),
			AutoStart:         true,
			ConnectTimeout:    10 * time.Second,
			ReconnectInterval: 5 * time.Second,
			ResourceInterval:  5 * time.Second,
		},
		Market: MarketSettings{
			Enabled:         true,
			Asset:           "kaspa",
			Currencies:      []string{"usd", "btc"},
			PriceEndpoint:   "https://api.coingecko.com/api/v3/simple/price",
			CatalogEndpoint: "https://api.coingecko.com/api/v3/coins/list",
			Interval:        60 * time.Second,
			Timeout:         10 * time.Second,
		},
		Updates: UpdateSettings{
			Enabled:  true,
			Owner:    "kostyay",
			Repo:     "kaspamon",
			Interval: 12 * time.Hour,
		},
		UI: UISettings{
			RefreshInterval: 250 * time.Millisecond,
			LogLines:        4096,
			Animations:      true,
		},
		Bus: BusSettings{
			Capacity: 1024,
		},
		Notifications: NotificationSettings{
			Capacity:      64,
			RatePerSecond: 1,
			Burst:         5,
		},
		Logging: LogSettings{
			File:       filepath.Join(dir, "kaspamon.log"),
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Diagnostics: DiagnosticsSettings{
			Dir: dir,
		},
	}
}

// defaultDataDir returns the per-user application directory, falling back to
// the working directory.
func defaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(configDir, appDir)
}

// DefaultPath returns the path to the settings file.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDir, "settings.yaml"), nil
}

// LoadSettings loads settings from path (or the default path when empty),
// returning defaults if the file does not exist. Keys missing from the file
// keep their default values.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return settings, nil
		}
		path = p
	}

	// #nosec G304 - path comes from the user's own flag or config dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to path (or the default path when empty).
func SaveSettings(s *Settings, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the settings for values the services cannot work with.
func (s *Settings) Validate() error {
	var errs []error

	switch s.Node.Mode {
	case ModeLocal:
		if s.Node.Binary == "" {
			errs = append(errs, errors.New("node.binary is required in local mode"))
		}
	case ModeContainer:
		if s.Node.Container == "" {
			errs = append(errs, errors.New("node.container is required in container mode"))
		}
	case ModeRemote:
	default:
		errs = append(errs, fmt.Errorf("node.mode %q is not one of local, container, remote", s.Node.Mode))
	}
	if s.Node.RPCURL == "" {
		errs = append(errs, errors.New("node.rpcUrl is required"))
	}
	if _, err := model.ParseNetworkID(s.Node.Network); err != nil {
		errs = append(errs, fmt.Errorf("node.network: %w", err))
	}
	if _, err := process.ParseSignal(s.Node.TerminationSignal); err != nil {
		errs = append(errs, fmt.Errorf("node.terminationSignal: %w", err))
	}
	if s.Node.ReconnectInterval <= 0 {
		errs = append(errs, errors.New("node.reconnectInterval must be positive"))
	}
	if s.Market.Enabled {
		if s.Market.Interval <= 0 {
			errs = append(errs, errors.New("market.interval must be positive"))
		}
		if s.Market.Timeout <= 0 {
			errs = append(errs, errors.New("market.timeout must be positive"))
		}
		if len(s.Market.Currencies) == 0 {
			errs = append(errs, errors.New("market.currencies must not be empty"))
		}
	}
	if s.UI.RefreshInterval <= 0 {
		errs = append(errs, errors.New("ui.refreshInterval must be positive"))
	}
	if s.UI.LogLines <= 0 {
		errs = append(errs, errors.New("ui.logLines must be positive"))
	}
	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", s.Logging.Level))
	}

	return errors.Join(errs...)
}
