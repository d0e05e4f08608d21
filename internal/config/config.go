package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"quantsignal/internal/analysis/indicator"
	"quantsignal/internal/decision"
	"quantsignal/internal/options"
)

// Config is the root of quantsignal.toml.
type Config struct {
	Log       LogConfig        `toml:"log"`
	HTTP      HTTPConfig       `toml:"http"`
	Source    SourceConfig     `toml:"source"`
	Store     StoreConfig      `toml:"store"`
	Indicator IndicatorConfig  `toml:"indicator"`
	Pivot     PivotConfig      `toml:"pivot"`
	Options   OptionsConfig    `toml:"options"`
	Trend     []TrendResConfig `toml:"trend"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type HTTPConfig struct {
	Addr           string `toml:"addr"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SourceConfig struct {
	Provider       string `toml:"provider"`
	HistoryLimit   int    `toml:"history_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	Path    string `toml:"path"`
	MaxBars int    `toml:"max_bars"`
}

type IndicatorConfig struct {
	RSIPeriod  int `toml:"rsi_period"`
	MACDFast   int `toml:"macd_fast"`
	MACDSlow   int `toml:"macd_slow"`
	MACDSignal int `toml:"macd_signal"`
}

type PivotConfig struct {
	Window int `toml:"window"`
}

type OptionsConfig struct {
	MinVolume       float64 `toml:"min_volume"`
	MinOpenInterest float64 `toml:"min_open_interest"`
	MaxSpreadPct    float64 `toml:"max_spread_pct"`
	MaxIV           float64 `toml:"max_iv"`
	RiskFreeRate    float64 `toml:"risk_free_rate"`
	DetailRiskFree  float64 `toml:"detail_risk_free"`
}

type TrendResConfig struct {
	Interval          string  `toml:"interval"`
	Weight            float64 `toml:"weight"`
	NoiseThresholdPct float64 `toml:"noise_threshold_pct"`
	MinBars           int     `toml:"min_bars"`
}

// Load reads the TOML file at path, or returns defaults when path is empty
// or the file does not exist.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

// Save writes the config atomically, temp file then rename.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func defaults() *Config {
	trend := make([]TrendResConfig, 0, 4)
	for _, r := range decision.DefaultResolutions() {
		trend = append(trend, TrendResConfig{
			Interval:          r.Interval,
			Weight:            r.Weight,
			NoiseThresholdPct: r.NoiseThresholdPct,
			MinBars:           r.MinBars,
		})
	}
	return &Config{
		Log:    LogConfig{Level: "info"},
		HTTP:   HTTPConfig{Addr: ":8080", TimeoutSeconds: 30},
		Source: SourceConfig{Provider: "yahoo", HistoryLimit: 500, TimeoutSeconds: 15},
		Store:  StoreConfig{Path: "", MaxBars: 500},
		Indicator: IndicatorConfig{
			RSIPeriod:  14,
			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
		},
		Pivot: PivotConfig{Window: 10},
		Options: OptionsConfig{
			MinVolume:       10,
			MinOpenInterest: 50,
			MaxSpreadPct:    20,
			MaxIV:           5,
			RiskFreeRate:    0.05,
			DetailRiskFree:  0.01,
		},
		Trend: trend,
	}
}

func (c *Config) sanitize() {
	d := defaults()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = d.HTTP.Addr
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = d.HTTP.TimeoutSeconds
	}
	if c.Source.Provider == "" {
		c.Source.Provider = d.Source.Provider
	}
	if c.Source.HistoryLimit <= 0 {
		c.Source.HistoryLimit = d.Source.HistoryLimit
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = d.Source.TimeoutSeconds
	}
	if c.Store.MaxBars <= 0 {
		c.Store.MaxBars = d.Store.MaxBars
	}
	if c.Indicator.RSIPeriod <= 0 {
		c.Indicator.RSIPeriod = d.Indicator.RSIPeriod
	}
	if c.Indicator.MACDFast <= 0 {
		c.Indicator.MACDFast = d.Indicator.MACDFast
	}
	if c.Indicator.MACDSlow <= 0 {
		c.Indicator.MACDSlow = d.Indicator.MACDSlow
	}
	if c.Indicator.MACDSignal <= 0 {
		c.Indicator.MACDSignal = d.Indicator.MACDSignal
	}
	if c.Pivot.Window <= 0 {
		c.Pivot.Window = d.Pivot.Window
	}
	if c.Options.MinVolume < 0 {
		c.Options.MinVolume = d.Options.MinVolume
	}
	if c.Options.MinOpenInterest < 0 {
		c.Options.MinOpenInterest = d.Options.MinOpenInterest
	}
	if c.Options.MaxSpreadPct <= 0 {
		c.Options.MaxSpreadPct = d.Options.MaxSpreadPct
	}
	if c.Options.MaxIV <= 0 {
		c.Options.MaxIV = d.Options.MaxIV
	}
	if c.Options.RiskFreeRate <= 0 {
		c.Options.RiskFreeRate = d.Options.RiskFreeRate
	}
	if c.Options.DetailRiskFree <= 0 {
		c.Options.DetailRiskFree = d.Options.DetailRiskFree
	}
	if len(c.Trend) == 0 {
		c.Trend = d.Trend
	}
}

// IndicatorSettings converts the file section into engine settings.
func (c *Config) IndicatorSettings() indicator.Settings {
	return indicator.Settings{
		RSIPeriod:  c.Indicator.RSIPeriod,
		MACDFast:   c.Indicator.MACDFast,
		MACDSlow:   c.Indicator.MACDSlow,
		MACDSignal: c.Indicator.MACDSignal,
	}
}

// ScoreSettings converts the options section into scorer settings.
func (c *Config) ScoreSettings() options.ScoreSettings {
	return options.ScoreSettings{
		MinVolume:       c.Options.MinVolume,
		MinOpenInterest: c.Options.MinOpenInterest,
		MaxSpreadPct:    c.Options.MaxSpreadPct,
		MaxIV:           c.Options.MaxIV,
		RiskFreeRate:    c.Options.RiskFreeRate,
	}
}

// Resolutions converts the trend sections into decision resolutions.
func (c *Config) Resolutions() []decision.Resolution {
	out := make([]decision.Resolution, 0, len(c.Trend))
	for _, t := range c.Trend {
		out = append(out, decision.Resolution{
			Interval:          t.Interval,
			Weight:            t.Weight,
			NoiseThresholdPct: t.NoiseThresholdPct,
			MinBars:           t.MinBars,
		})
	}
	return out
}

// SourceTimeout returns the per-request timeout for the market source.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
