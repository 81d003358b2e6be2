package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "TORNEO_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "TORNEO_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "TORNEO_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "TORNEO_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TORNEO_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "TORNEO_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "TORNEO_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "returns fallback for empty string", key: "TORNEO_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "TORNEO_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "TORNEO_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TORNEO_TEST_FLOAT_UNSET", setVal: nil, fallback: 5, want: 5},
		{name: "parses fraction", key: "TORNEO_TEST_FLOAT_FRAC", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "parses integer", key: "TORNEO_TEST_FLOAT_INT", setVal: strPtr("20"), fallback: 0, want: 20},
		{name: "errors on invalid", key: "TORNEO_TEST_FLOAT_INV", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TORNEO_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses minutes", key: "TORNEO_TEST_DUR_MIN", setVal: strPtr("15m"), fallback: 0, want: 15 * time.Minute},
		{name: "parses composite", key: "TORNEO_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "errors on invalid", key: "TORNEO_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "TORNEO_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TORNEO_TEST_LIST", " U1, ,U2 ,")
	assert.Equal(t, []string{"U1", "U2"}, getEnvList("TORNEO_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("TORNEO_TEST_LIST_UNSET", []string{"x"}))
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

// clearPlatform blanks credentials the host environment may carry.
func clearPlatform(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TORNEO_PLATFORM", "DISCORD_TOKEN", "TORNEO_DISCORD_TOKEN",
		"TORNEO_SLACK_BOT_TOKEN", "TORNEO_SLACK_SIGNING_SECRET", "TORNEO_SLACK_ADMINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingDiscordToken(t *testing.T) {
	clearPlatform(t)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoad_MissingSlackCredentials(t *testing.T) {
	clearPlatform(t)
	t.Setenv("TORNEO_PLATFORM", "slack")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TORNEO_SLACK_BOT_TOKEN")

	t.Setenv("TORNEO_SLACK_BOT_TOKEN", "xoxb-test")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TORNEO_SLACK_SIGNING_SECRET")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		{name: "unknown platform", envKey: "TORNEO_PLATFORM", envVal: "irc", errMsg: "TORNEO_PLATFORM"},
		{name: "unknown backend", envKey: "TORNEO_STORE_BACKEND", envVal: "postgres", errMsg: "TORNEO_STORE_BACKEND"},
		{name: "REDIS_DB not a number", envKey: "TORNEO_REDIS_DB", envVal: "abc", errMsg: "TORNEO_REDIS_DB"},
		{name: "REDIS_DB negative", envKey: "TORNEO_REDIS_DB", envVal: "-1", errMsg: "TORNEO_REDIS_DB"},
		{name: "SERVER_READ_TIMEOUT invalid", envKey: "TORNEO_SERVER_READ_TIMEOUT", envVal: "notduration", errMsg: "TORNEO_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT zero", envKey: "TORNEO_SERVER_WRITE_TIMEOUT", envVal: "0s", errMsg: "TORNEO_SERVER_WRITE_TIMEOUT"},
		{name: "REMINDER_LEAD invalid", envKey: "TORNEO_REMINDER_LEAD", envVal: "soon", errMsg: "TORNEO_REMINDER_LEAD"},
		{name: "REMINDER_LEAD negative", envKey: "TORNEO_REMINDER_LEAD", envVal: "-5m", errMsg: "TORNEO_REMINDER_LEAD"},
		{name: "TIMEZONE unknown", envKey: "TORNEO_TIMEZONE", envVal: "Mars/Olympus", errMsg: "TORNEO_TIMEZONE"},
		{name: "GATEWAY_RPS zero", envKey: "TORNEO_GATEWAY_RPS", envVal: "0", errMsg: "TORNEO_GATEWAY_RPS"},
		{name: "GATEWAY_RPS not a number", envKey: "TORNEO_GATEWAY_RPS", envVal: "fast", errMsg: "TORNEO_GATEWAY_RPS"},
		{name: "GATEWAY_BURST zero", envKey: "TORNEO_GATEWAY_BURST", envVal: "0", errMsg: "TORNEO_GATEWAY_BURST"},
		{name: "NODE_ID too high", envKey: "TORNEO_NODE_ID", envVal: "1024", errMsg: "TORNEO_NODE_ID"},
		{name: "NODE_ID not a number", envKey: "TORNEO_NODE_ID", envVal: "one", errMsg: "TORNEO_NODE_ID"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearPlatform(t)
			// Always set the token so failures are from the var under test.
			t.Setenv("DISCORD_TOKEN", "discord-test-token")
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	clearPlatform(t)
	// Only the required token is set; everything else uses defaults.
	t.Setenv("DISCORD_TOKEN", "discord-test-token")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, PlatformDiscord, cfg.Platform)
	assert.Equal(t, "discord-test-token", cfg.Discord.Token)

	// Store defaults.
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, ".", cfg.Store.DataDir)

	// Redis defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "torneo:", cfg.Redis.Prefix)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)

	// Room defaults.
	assert.Equal(t, time.Local, cfg.Rooms.Location)
	assert.Equal(t, 10*time.Minute, cfg.Rooms.ReminderLead)
	assert.Equal(t, "Jugador", cfg.Rooms.Role)

	// Gateway throttle defaults.
	assert.InDelta(t, 5.0, cfg.Gateway.RPS, 1e-9)
	assert.Equal(t, 10, cfg.Gateway.Burst)

	assert.Equal(t, int64(1), cfg.NodeID)
}

func TestLoad_TorneoTokenWins(t *testing.T) {
	clearPlatform(t)
	t.Setenv("DISCORD_TOKEN", "plain")
	t.Setenv("TORNEO_DISCORD_TOKEN", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Discord.Token)
}

func TestLoad_AllCustomValues(t *testing.T) {
	clearPlatform(t)
	envs := map[string]string{
		// Platform
		"TORNEO_PLATFORM":             "SLACK",
		"TORNEO_SLACK_BOT_TOKEN":      "xoxb-test",
		"TORNEO_SLACK_SIGNING_SECRET": "slack-sign",
		"TORNEO_SLACK_ADMINS":         "U1,U2",
		// Store
		"TORNEO_STORE_BACKEND":  "redis",
		"TORNEO_DATA_DIR":       "/var/lib/torneo",
		"TORNEO_REDIS_ADDR":     "redis.prod:6380",
		"TORNEO_REDIS_PASSWORD": "redis-pass",
		"TORNEO_REDIS_DB":       "3",
		"TORNEO_REDIS_PREFIX":   "bot:",
		// Server
		"TORNEO_SERVER_ADDR":          ":9090",
		"TORNEO_SERVER_READ_TIMEOUT":  "5s",
		"TORNEO_SERVER_WRITE_TIMEOUT": "15s",
		// Rooms
		"TORNEO_TIMEZONE":      "UTC",
		"TORNEO_REMINDER_LEAD": "5m",
		"TORNEO_ROOM_ROLE":     "Player",
		// Gateway
		"TORNEO_GATEWAY_RPS":   "2.5",
		"TORNEO_GATEWAY_BURST": "4",
		"TORNEO_NODE_ID":       "7",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, PlatformSlack, cfg.Platform)
	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "slack-sign", cfg.Slack.SigningSecret)
	assert.Equal(t, []string{"U1", "U2"}, cfg.Slack.Admins)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/torneo", cfg.Store.DataDir)
	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "bot:", cfg.Redis.Prefix)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, time.UTC, cfg.Rooms.Location)
	assert.Equal(t, 5*time.Minute, cfg.Rooms.ReminderLead)
	assert.Equal(t, "Player", cfg.Rooms.Role)

	assert.InDelta(t, 2.5, cfg.Gateway.RPS, 1e-9)
	assert.Equal(t, 4, cfg.Gateway.Burst)
	assert.Equal(t, int64(7), cfg.NodeID)
}

func strPtr(s string) *string { return &s }
