package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Color represents a hex color string.
type Color string

// HeaderStyle defines colors for the status header.
type HeaderStyle struct {
	TitleFg Color `yaml:"titleFg"`
	LiveFg  Color `yaml:"liveFg"`  // Connected / synced indicator
	WarnFg  Color `yaml:"warnFg"`  // Syncing / attention
	DownFg  Color `yaml:"downFg"`  // Disconnected / exited
	StatsFg Color `yaml:"statsFg"` // Muted stats text
}

// FooterStyle defines colors for the key hints.
type FooterStyle struct {
	KeyFgColor  Color `yaml:"keyFgColor"`
	DescFgColor Color `yaml:"descFgColor"`
}

// LogStyle defines colors for each log severity.
type LogStyle struct {
	InfoFg      Color `yaml:"infoFg"`
	DebugFg     Color `yaml:"debugFg"`
	TraceFg     Color `yaml:"traceFg"`
	WarningFg   Color `yaml:"warningFg"`
	ErrorFg     Color `yaml:"errorFg"`
	ProcessedFg Color `yaml:"processedFg"`
}

// NotifyStyle defines colors for notification kinds.
type NotifyStyle struct {
	InfoFg    Color `yaml:"infoFg"`
	SuccessFg Color `yaml:"successFg"`
	WarningFg Color `yaml:"warningFg"`
	ErrorFg   Color `yaml:"errorFg"`
	BasicFg   Color `yaml:"basicFg"`
}

// BorderStyle defines colors for panel borders.
type BorderStyle struct {
	FgColor       Color `yaml:"fgColor"`
	ActiveFgColor Color `yaml:"activeFgColor"`
}

// Styles holds all the theme colors.
type Styles struct {
	Header HeaderStyle `yaml:"header"`
	Footer FooterStyle `yaml:"footer"`
	Logs   LogStyle    `yaml:"logs"`
	Notify NotifyStyle `yaml:"notify"`
	Border BorderStyle `yaml:"border"`
}

// Theme is the top-level theme configuration.
type Theme struct {
	Name   string `yaml:"name"`
	Styles Styles `yaml:"styles"`
}

// DefaultTheme returns the built-in Industrial theme.
func DefaultTheme() *Theme {
	return &Theme{
		Name: "industrial",
		Styles: Styles{
			Header: HeaderStyle{
				TitleFg: "#70c7ba", // kaspa teal
				LiveFg:  "#3fb950",
				WarnFg:  "#d29922",
				DownFg:  "#f85149",
				StatsFg: "#7d8590",
			},
			Footer: FooterStyle{
				KeyFgColor:  "#58a6ff",
				DescFgColor: "#7d8590",
			},
			Logs: LogStyle{
				InfoFg:      "#e6edf3",
				DebugFg:     "#7d8590",
				TraceFg:     "#6e7681",
				WarningFg:   "#d29922",
				ErrorFg:     "#f85149",
				ProcessedFg: "#3fb950",
			},
			Notify: NotifyStyle{
				InfoFg:    "#58a6ff",
				SuccessFg: "#3fb950",
				WarningFg: "#d29922",
				ErrorFg:   "#f85149",
				BasicFg:   "#e6edf3",
			},
			Border: BorderStyle{
				FgColor:       "#30363d",
				ActiveFgColor: "#70c7ba",
			},
		},
	}
}

// LoadTheme loads skin.yaml from the user's config directory over the
// default theme. Missing keys keep their default colors.
func LoadTheme() (*Theme, error) {
	theme := DefaultTheme()

	configDir, err := os.UserConfigDir()
	if err != nil {
		return theme, nil
	}
	skinPath := filepath.Join(configDir, appDir, "skin.yaml")
	// #nosec G304 - skinPath is constructed from trusted sources (UserConfigDir + hardcoded path)
	data, err := os.ReadFile(skinPath)
	if err != nil {
		return theme, nil
	}
	if err := yaml.Unmarshal(data, theme); err != nil {
		return DefaultTheme(), err
	}
	return theme, nil
}

// CurrentTheme holds the loaded theme (singleton).
var CurrentTheme *Theme

// InitTheme initializes the global theme.
func InitTheme() error {
	theme, err := LoadTheme()
	CurrentTheme = theme
	return err
}

func init() {
	// Initialize with default theme on package load
	CurrentTheme = DefaultTheme()
}
