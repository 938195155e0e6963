// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "orderlens", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Browser.LaunchTimeout)
	assert.Equal(t, 30*time.Second, cfg.Automation.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Automation.Settle)
	assert.Equal(t, 1500*time.Millisecond, cfg.Automation.LoginClickPause)
	assert.Equal(t, 500*time.Millisecond, cfg.Automation.FillPause)
	assert.Equal(t, 3*time.Second, cfg.Automation.VerifyPause)
	assert.Equal(t, 5, cfg.Automation.ScrollRounds)
	assert.Equal(t, 1500*time.Millisecond, cfg.Automation.ScrollPause)
	assert.Equal(t, 50, cfg.Automation.LogCapacity)
	assert.Equal(t, 3, cfg.Automation.MaxOTPAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Automation.SessionIdleTimeout)
	assert.Equal(t, "order", cfg.Target.OrdersPathMarker)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()

		missingURL := *cfg
		missingURL.Target.OrdersURL = ""
		err := missingURL.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target.orders_url")

		missingUA := *cfg
		missingUA.Browser.UserAgent = ""
		err = missingUA.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.user_agent")
	})

	t.Run("Automation Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Automation
		assert.NoError(t, valid.Validate())

		noNav := valid
		noNav.NavigationTimeout = 0
		assert.ErrorContains(t, noNav.Validate(), "navigation_timeout")

		negativeAttempts := valid
		negativeAttempts.MaxOTPAttempts = -1
		assert.ErrorContains(t, negativeAttempts.Validate(), "max_otp_attempts")

		unlimitedAttempts := valid
		unlimitedAttempts.MaxOTPAttempts = 0
		assert.NoError(t, unlimitedAttempts.Validate(), "zero disables the attempt limit")

		negativeScroll := valid
		negativeScroll.ScrollRounds = -1
		assert.ErrorContains(t, negativeScroll.Validate(), "scroll_rounds")

		noLog := valid
		noLog.LogCapacity = 0
		assert.ErrorContains(t, noLog.Validate(), "log_capacity")

		oversizedLog := valid
		oversizedLog.LogCapacity = MaxLogCapacity + 1
		assert.ErrorContains(t, oversizedLog.Validate(), "log_capacity")

		fullLog := valid
		fullLog.LogCapacity = MaxLogCapacity
		assert.NoError(t, fullLog.Validate())
	})

	t.Run("Server Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Server
		assert.NoError(t, valid.Validate())

		noRate := valid
		noRate.LoginRatePerMinute = 0
		assert.ErrorContains(t, noRate.Validate(), "login_rate_per_minute")

		noSlots := valid
		noSlots.MaxConcurrentLogins = 0
		assert.ErrorContains(t, noSlots.Validate(), "max_concurrent_logins")
	})
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
browser:
  headless: false
automation:
  scroll_rounds: 2
  scroll_pause: 250ms
target:
  orders_url: https://example.test/history/orders
`)
		require.NoError(t, v.ReadConfig(bytes.NewReader(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 2, cfg.Automation.ScrollRounds)
		assert.Equal(t, 250*time.Millisecond, cfg.Automation.ScrollPause)
		assert.Equal(t, "https://example.test/history/orders", cfg.Target.OrdersURL)
		// Untouched keys keep their defaults.
		assert.Equal(t, 3*time.Second, cfg.Automation.ExtractSettle)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("automation.log_capacity", 500)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
