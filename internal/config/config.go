// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Target     TargetConfig     `mapstructure:"target" yaml:"target"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool     `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	ExecPath        string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args            []string `mapstructure:"args" yaml:"args"`
	// LaunchTimeout bounds process start plus the first blank-page round trip.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	// ActionTimeout bounds a single click or fill against the page.
	ActionTimeout    time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	NetworkIdleQuiet time.Duration `mapstructure:"network_idle_quiet" yaml:"network_idle_quiet"`
}

// TargetConfig describes the third-party service being automated.
type TargetConfig struct {
	OrdersURL string `mapstructure:"orders_url" yaml:"orders_url"`
	// OrdersPathMarker is the substring that identifies the order history page in a URL.
	OrdersPathMarker string `mapstructure:"orders_path_marker" yaml:"orders_path_marker"`
}

// AutomationConfig holds the pacing and policy knobs of the login/extraction workflow.
type AutomationConfig struct {
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Settle             time.Duration `mapstructure:"settle" yaml:"settle"`
	LoginClickPause    time.Duration `mapstructure:"login_click_pause" yaml:"login_click_pause"`
	FillPause          time.Duration `mapstructure:"fill_pause" yaml:"fill_pause"`
	SubmitPause        time.Duration `mapstructure:"submit_pause" yaml:"submit_pause"`
	VerifyPause        time.Duration `mapstructure:"verify_pause" yaml:"verify_pause"`
	ExtractSettle      time.Duration `mapstructure:"extract_settle" yaml:"extract_settle"`
	ScrollRounds       int           `mapstructure:"scroll_rounds" yaml:"scroll_rounds"`
	ScrollPause        time.Duration `mapstructure:"scroll_pause" yaml:"scroll_pause"`
	MaxOTPAttempts     int           `mapstructure:"max_otp_attempts" yaml:"max_otp_attempts"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" yaml:"session_idle_timeout"`
	ReaperInterval     time.Duration `mapstructure:"reaper_interval" yaml:"reaper_interval"`
	LogCapacity        int           `mapstructure:"log_capacity" yaml:"log_capacity"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr          string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	LoginRatePerMinute  float64       `mapstructure:"login_rate_per_minute" yaml:"login_rate_per_minute"`
	LoginBurst          int           `mapstructure:"login_burst" yaml:"login_burst"`
	MaxConcurrentLogins int64         `mapstructure:"max_concurrent_logins" yaml:"max_concurrent_logins"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MaxLogCapacity bounds the per-session diagnostic log.
const MaxLogCapacity = 50

// DefaultUserAgent is the fixed desktop Chrome identity presented to the target.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "orderlens")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.network_idle_quiet", "500ms")

	// -- Target --
	v.SetDefault("target.orders_url", "https://www.zomato.com/users/orders")
	v.SetDefault("target.orders_path_marker", "order")

	// -- Automation --
	v.SetDefault("automation.navigation_timeout", "30s")
	v.SetDefault("automation.settle", "2s")
	v.SetDefault("automation.login_click_pause", "1500ms")
	v.SetDefault("automation.fill_pause", "500ms")
	v.SetDefault("automation.submit_pause", "2s")
	v.SetDefault("automation.verify_pause", "3s")
	v.SetDefault("automation.extract_settle", "3s")
	v.SetDefault("automation.scroll_rounds", 5)
	v.SetDefault("automation.scroll_pause", "1500ms")
	v.SetDefault("automation.max_otp_attempts", 3)
	v.SetDefault("automation.session_idle_timeout", "10m")
	v.SetDefault("automation.reaper_interval", "1m")
	v.SetDefault("automation.log_capacity", MaxLogCapacity)

	// -- Server --
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.login_rate_per_minute", 10.0)
	v.SetDefault("server.login_burst", 3)
	v.SetDefault("server.max_concurrent_logins", 4)
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Target.OrdersURL == "" {
		return fmt.Errorf("target.orders_url is a required configuration field")
	}
	if c.Browser.UserAgent == "" {
		return fmt.Errorf("browser.user_agent must not be empty")
	}
	if err := c.Automation.Validate(); err != nil {
		return fmt.Errorf("automation configuration invalid: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the AutomationConfig settings.
func (a *AutomationConfig) Validate() error {
	if a.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be a positive duration")
	}
	if a.ScrollRounds < 0 {
		return fmt.Errorf("scroll_rounds must not be negative")
	}
	if a.MaxOTPAttempts < 0 {
		return fmt.Errorf("max_otp_attempts must not be negative")
	}
	if a.LogCapacity <= 0 || a.LogCapacity > MaxLogCapacity {
		return fmt.Errorf("log_capacity must be between 1 and %d", MaxLogCapacity)
	}
	return nil
}

// Validate checks the ServerConfig settings.
func (s *ServerConfig) Validate() error {
	if s.LoginRatePerMinute <= 0 {
		return fmt.Errorf("login_rate_per_minute must be positive")
	}
	if s.LoginBurst <= 0 {
		return fmt.Errorf("login_burst must be greater than 0")
	}
	if s.MaxConcurrentLogins <= 0 {
		return fmt.Errorf("max_concurrent_logins must be greater than 0")
	}
	return nil
}
