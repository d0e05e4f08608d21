package binance

import "time"

// Config describes the parameters for the Binance market source.
type Config struct {
	APIKey      string
	APISecret   string
	BaseURL     string
	HTTPTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	return out
}
