// Package config loads process configuration from environment variables.
// Names and defaults follow the external-interfaces table: sensible
// defaults are baked in, everything is overridable by env var, and Validate
// rejects values that would make detection meaningless (zero cadence,
// negative thresholds).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete set of tunables for one process run.
type Config struct {
	MinSpreadBPS   float64
	MinTriGainBPS  float64
	MinNotional    float64
	SymbolUniverse []string
	TriBases       []string
	TriExcludeQuotes []string
	IncludeExchanges []string
	ExcludeExchanges []string
	DepthLevels    int
	CoalesceWindow time.Duration
	ScanInterval   time.Duration
	MaxConcurrentExchanges int
	HealthCheckInterval    time.Duration
	MaxReconnectAttempts   int
	BackoffMax             time.Duration

	DatabaseURL string
	RedisAddr   string
}

// Load reads Config from the process environment, applying defaults for
// anything unset.
func Load() Config {
	return Config{
		MinSpreadBPS:           envFloat("MIN_SPREAD_BPS", 50.0),
		MinTriGainBPS:          envFloat("MIN_TRI_GAIN_BPS", 30.0),
		MinNotional:            envFloat("MIN_NOTIONAL", 100.0),
		SymbolUniverse:         envList("SYMBOL_UNIVERSE", nil),
		TriBases:               envList("TRI_BASES", []string{"USDT", "USDC", "BTC"}),
		TriExcludeQuotes:       envList("TRI_EXCLUDE_QUOTES", nil),
		IncludeExchanges:       envList("INCLUDE_EXCHANGES", nil),
		ExcludeExchanges:       envList("EXCLUDE_EXCHANGES", nil),
		DepthLevels:            envInt("DEPTH_LEVELS", 10),
		CoalesceWindow:         envMillis("COALESCE_MS", 75),
		ScanInterval:           envMillis("TRI_SCAN_MS", 150),
		MaxConcurrentExchanges: envInt("MAX_CONCURRENT_EXCHANGES", 20),
		HealthCheckInterval:    envSeconds("HEALTH_CHECK_INTERVAL_S", 30),
		MaxReconnectAttempts:   envInt("MAX_RECONNECT_ATTEMPTS", 5),
		BackoffMax:             envSeconds("BACKOFF_MAX_S", 60),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
	}
}

// Validate rejects configuration that would make the detection pipeline
// meaningless or unable to start.
func (c Config) Validate() error {
	if c.MinSpreadBPS < 0 {
		return fmt.Errorf("config: MIN_SPREAD_BPS must be >= 0, got %v", c.MinSpreadBPS)
	}
	if c.MinTriGainBPS < 0 {
		return fmt.Errorf("config: MIN_TRI_GAIN_BPS must be >= 0, got %v", c.MinTriGainBPS)
	}
	if c.MinNotional <= 0 {
		return fmt.Errorf("config: MIN_NOTIONAL must be > 0, got %v", c.MinNotional)
	}
	if c.DepthLevels <= 0 {
		return fmt.Errorf("config: DEPTH_LEVELS must be > 0, got %v", c.DepthLevels)
	}
	if c.CoalesceWindow <= 0 {
		return fmt.Errorf("config: COALESCE_MS must be > 0, got %v", c.CoalesceWindow)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("config: TRI_SCAN_MS must be > 0, got %v", c.ScanInterval)
	}
	if c.MaxReconnectAttempts <= 0 {
		return fmt.Errorf("config: MAX_RECONNECT_ATTEMPTS must be > 0, got %v", c.MaxReconnectAttempts)
	}
	if len(c.IncludeExchanges) > 0 && len(c.ExcludeExchanges) > 0 {
		return fmt.Errorf("config: INCLUDE_EXCHANGES and EXCLUDE_EXCHANGES are mutually exclusive")
	}
	return nil
}

func envFloat(name string, def float64) float64 {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envMillis(name string, defMillis int) time.Duration {
	return time.Duration(envInt(name, defMillis)) * time.Millisecond
}

func envSeconds(name string, defSeconds int) time.Duration {
	return time.Duration(envInt(name, defSeconds)) * time.Second
}

func envList(name string, def []string) []string {
	raw, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
