package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webitel/screens-rating/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("ok: defaults", func(t *testing.T) {
		cfg, err := config.LoadConfig("", nil)
		require.NoError(t, err)

		require.Equal(t, "screens-rating", cfg.Service.Name)
		require.Equal(t, "http://localhost:8080", cfg.Liferay.Server)
		require.Equal(t, 15*time.Second, cfg.Liferay.Timeout)
		require.Equal(t, 32, cfg.Liferay.MaxInFlight)
		require.Equal(t, config.PubSubDriverGoChannel, cfg.PubSub.Driver)
		require.Equal(t, 4096, cfg.PubSub.DedupSize)
		require.Equal(t, 64, cfg.Hub.MailboxSize)
		require.InDelta(t, 0.6, cfg.Breaker.FailureRatio, 1e-9)
	})

	t.Run("ok: file values", func(t *testing.T) {
		path := writeConfig(t, `
liferay:
  server: http://portal.local:8080
  max_in_flight: 4
hub:
  idle_timeout: 30s
pubsub:
  driver: amqp
`)
		cfg, err := config.LoadConfig(path, nil)
		require.NoError(t, err)

		require.Equal(t, "http://portal.local:8080", cfg.Liferay.Server)
		require.Equal(t, 4, cfg.Liferay.MaxInFlight)
		require.Equal(t, 30*time.Second, cfg.Hub.IdleTimeout)
		require.Equal(t, config.PubSubDriverAMQP, cfg.PubSub.Driver)
		// untouched keys keep their defaults
		require.Equal(t, ":8090", cfg.HTTP.Addr)
	})

	t.Run("ok: environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "liferay:\n  server: http://from-file\n")
		t.Setenv("SCREENS_LIFERAY_SERVER", "http://from-env")
		t.Setenv("SCREENS_HUB_MAILBOX_SIZE", "8")

		cfg, err := config.LoadConfig(path, nil)
		require.NoError(t, err)
		require.Equal(t, "http://from-env", cfg.Liferay.Server)
		require.Equal(t, 8, cfg.Hub.MailboxSize)
	})

	t.Run("ok: flags override environment", func(t *testing.T) {
		t.Setenv("SCREENS_LIFERAY_SERVER", "http://from-env")

		cfg, err := config.LoadConfig("", []string{"--liferay.server=http://from-flag", "--log.level=debug"})
		require.NoError(t, err)
		require.Equal(t, "http://from-flag", cfg.Liferay.Server)
		require.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("error: missing file", func(t *testing.T) {
		_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})

	t.Run("error: unknown flag", func(t *testing.T) {
		_, err := config.LoadConfig("", []string{"--no-such-flag"})
		require.ErrorContains(t, err, "parse flags")
	})

	t.Run("error: unknown driver", func(t *testing.T) {
		path := writeConfig(t, "pubsub:\n  driver: kafka\n")
		_, err := config.LoadConfig(path, nil)
		require.ErrorContains(t, err, "pubsub.driver")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *config.Config {
		t.Helper()
		cfg, err := config.LoadConfig("", nil)
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(c *config.Config){
		"server without scheme": func(c *config.Config) { c.Liferay.Server = "portal.local" },
		"zero in flight":        func(c *config.Config) { c.Liferay.MaxInFlight = 0 },
		"zero dedup size":       func(c *config.Config) { c.PubSub.DedupSize = 0 },
		"failure ratio above 1": func(c *config.Config) { c.Breaker.FailureRatio = 1.5 },
	}
	for name, mutate := range cases {
		t.Run("error: "+name, func(t *testing.T) {
			cfg := valid(t)
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	t.Run("ok: defaults", func(t *testing.T) {
		require.NoError(t, valid(t).Validate())
	})
}

func TestConfig_Watch(t *testing.T) {
	t.Run("ok: no file, nothing to watch", func(t *testing.T) {
		cfg, err := config.LoadConfig("", nil)
		require.NoError(t, err)
		require.False(t, cfg.Watch(func(*config.Config, error) {}))
	})

	t.Run("ok: reload on write", func(t *testing.T) {
		path := writeConfig(t, "log:\n  level: info\n")
		cfg, err := config.LoadConfig(path, nil)
		require.NoError(t, err)

		levels := make(chan string, 16)
		require.True(t, cfg.Watch(func(c *config.Config, err error) {
			if err == nil {
				levels <- c.Log.Level
			}
		}))

		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
		require.Eventually(t, func() bool {
			for {
				select {
				case l := <-levels:
					if l == "debug" {
						return true
					}
				default:
					return false
				}
			}
		}, 5*time.Second, 20*time.Millisecond)
	})
}
