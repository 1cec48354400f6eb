package infra

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"maker_go/internal/strategy"
	"maker_go/pkg/quant"
)

// Config holds the full application configuration. Secrets in the file
// are overridden by environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		// Mode selects the execution backend: "sim", "live" or "replay".
		Mode string `yaml:"mode"`

		PositionLimit        int64     `yaml:"position_limit"`
		LotFactor            int64     `yaml:"lot_factor"`
		MaxLiquidity         float64   `yaml:"max_liquidity"`
		SpreadDefault        int       `yaml:"spread_default"`
		LiquidityThresholds  []float64 `yaml:"liquidity_thresholds"`
		PositionThresholds   []int64   `yaml:"position_thresholds"`
		EmergencyOffsetTicks int64     `yaml:"emergency_offset_ticks"`
		UnhedgedThreshold    int64     `yaml:"unhedged_threshold"`
		UnhedgedLimitMS      int64     `yaml:"unhedged_limit_ms"`
		EmergencyBuffer      int64     `yaml:"emergency_buffer"`
	} `yaml:"trading"`

	Venue struct {
		WSURL        string `yaml:"ws_url"`
		Team         string `yaml:"team"`
		Secret       string `yaml:"secret"`
		ETFSymbol    string `yaml:"etf_symbol"`
		FutureSymbol string `yaml:"future_symbol"`

		// Outbound command budget. Commands beyond the budget are
		// dropped; the next recompute re-issues whatever still matters.
		OrderRatePerSec float64 `yaml:"order_rate_per_sec"`
		OrderRateBurst  int     `yaml:"order_rate_burst"`
	} `yaml:"venue"`

	Monitoring struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "maker-go"
	cfg.Trading.Mode = "sim"

	p := strategy.DefaultParams()
	cfg.Trading.PositionLimit = int64(p.PositionLimit)
	cfg.Trading.LotFactor = p.LotFactor
	cfg.Trading.MaxLiquidity = p.MaxLiquidity
	cfg.Trading.SpreadDefault = p.SpreadDefault
	cfg.Trading.LiquidityThresholds = append([]float64(nil), p.LiquidityThresholds...)
	for _, th := range p.PositionThresholds {
		cfg.Trading.PositionThresholds = append(cfg.Trading.PositionThresholds, int64(th))
	}
	cfg.Trading.EmergencyOffsetTicks = p.EmergencyOffsetTicks
	cfg.Trading.UnhedgedThreshold = int64(p.UnhedgedThreshold)
	cfg.Trading.UnhedgedLimitMS = p.UnhedgedLimit.Milliseconds()
	cfg.Trading.EmergencyBuffer = int64(p.EmergencyBuffer)

	cfg.Venue.ETFSymbol = "ETF"
	cfg.Venue.FutureSymbol = "FUT"
	cfg.Venue.OrderRatePerSec = 50
	cfg.Venue.OrderRateBurst = 10

	cfg.Monitoring.ListenAddr = "localhost:9100"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Params converts the trading section into engine parameters.
func (c *Config) Params() strategy.Params {
	p := strategy.Params{
		PositionLimit:        quant.Lots(c.Trading.PositionLimit),
		LotFactor:            c.Trading.LotFactor,
		MaxLiquidity:         c.Trading.MaxLiquidity,
		SpreadDefault:        c.Trading.SpreadDefault,
		LiquidityThresholds:  append([]float64(nil), c.Trading.LiquidityThresholds...),
		EmergencyOffsetTicks: c.Trading.EmergencyOffsetTicks,
		UnhedgedThreshold:    quant.Lots(c.Trading.UnhedgedThreshold),
		UnhedgedLimit:        time.Duration(c.Trading.UnhedgedLimitMS) * time.Millisecond,
		EmergencyBuffer:      quant.Lots(c.Trading.EmergencyBuffer),
	}
	for _, th := range c.Trading.PositionThresholds {
		p.PositionThresholds = append(p.PositionThresholds, quant.Lots(th))
	}
	return p
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	switch c.Trading.Mode {
	case "sim", "live", "replay":
	default:
		return fmt.Errorf("invalid trading mode: %q", c.Trading.Mode)
	}

	if c.Trading.PositionLimit <= 0 {
		return fmt.Errorf("position limit must be positive")
	}
	if c.Trading.LotFactor <= 0 {
		return fmt.Errorf("lot factor must be positive")
	}
	if c.Trading.MaxLiquidity <= 0 {
		return fmt.Errorf("max liquidity must be positive")
	}
	if c.Trading.SpreadDefault < 0 || c.Trading.SpreadDefault > 4 {
		return fmt.Errorf("spread default must be within book depth")
	}
	if !sort.Float64sAreSorted(c.Trading.LiquidityThresholds) {
		return fmt.Errorf("liquidity thresholds must be ascending")
	}
	if !sort.SliceIsSorted(c.Trading.PositionThresholds, func(i, j int) bool {
		return c.Trading.PositionThresholds[i] < c.Trading.PositionThresholds[j]
	}) {
		return fmt.Errorf("position thresholds must be ascending")
	}
	if c.Trading.UnhedgedLimitMS <= 0 {
		return fmt.Errorf("unhedged limit must be positive")
	}

	if c.Trading.Mode == "live" {
		if !hasPrefix(c.Venue.WSURL, "ws://") && !hasPrefix(c.Venue.WSURL, "wss://") {
			return fmt.Errorf("invalid venue WS URL: %s", c.Venue.WSURL)
		}
		if c.Venue.Team == "" || c.Venue.Secret == "" {
			return fmt.Errorf("venue credentials are required in live mode")
		}
		if c.Venue.OrderRatePerSec <= 0 || c.Venue.OrderRateBurst <= 0 {
			return fmt.Errorf("order rate limits must be positive")
		}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variables over file values.
// Environment wins so credentials can stay out of the config file.
func overrideWithEnv(cfg *Config) {
	if cfg.Venue.Secret != "" {
		fmt.Println("SECURITY WARNING: venue secret found in config file.")
		fmt.Println("  Recommendation: use MAKER_VENUE_TEAM / MAKER_VENUE_SECRET instead.")
	}

	if team := os.Getenv("MAKER_VENUE_TEAM"); team != "" {
		cfg.Venue.Team = team
	}
	if secret := os.Getenv("MAKER_VENUE_SECRET"); secret != "" {
		cfg.Venue.Secret = secret
	}
	if mode := os.Getenv("MAKER_TRADING_MODE"); mode != "" {
		cfg.Trading.Mode = mode
	}
}
