package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creativehub/internal/platform/config"

	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		ServiceName: "creativehub-test",
		HTTPPort:    "0",
		LogLevel:    "error",
		LogFormat:   "json",
		StoreDriver: config.StoreMemory,
		BusDriver:   config.BusNone,
		LockTimeout: time.Second,
		Dispatcher: config.DispatcherOptions{
			QueueSize:       8,
			Workers:         1,
			MaxAttempts:     1,
			BaseBackoff:     time.Millisecond,
			MaxBackoff:      time.Millisecond,
			DeliveryTimeout: time.Second,
			DrainTimeout:    time.Second,
		},
		RateLimit: config.RateLimitOptions{Enabled: true, Rate: "100-S"},
	}
}

func TestBuildAPIInMemoryServesRoutes(t *testing.T) {
	app, err := BuildAPI(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	rr := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/creative-requests", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Nil(t, app.consumer)
}

func TestBuildAPIWithGoChannelConsumesOwnEvents(t *testing.T) {
	cfg := testConfig()
	cfg.BusDriver = config.BusGoChannel
	app, err := BuildAPI(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NotNil(t, app.consumer)
}

func TestBuildWorkerNeedsKafka(t *testing.T) {
	_, err := BuildWorker(context.Background(), testConfig())
	require.Error(t, err)
}

func TestBuildNotifiersHonoursEnabledChannels(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	sinks, err := buildNotifiers(cfg, logger)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	require.Equal(t, "log", sinks[0].Name())

	cfg.SMTP = config.SMTPOptions{Host: "smtp.example.com", Port: 587, From: "review@example.com", To: []string{"ops@example.com"}}
	cfg.Telegram = config.TelegramOptions{BotToken: "token", ChatID: "42", APIURL: "https://api.telegram.org"}
	sinks, err = buildNotifiers(cfg, logger)
	require.NoError(t, err)
	require.Len(t, sinks, 3)
	require.Equal(t, "email", sinks[1].Name())
	require.Equal(t, "telegram", sinks[2].Name())
}

func TestBuildLimiter(t *testing.T) {
	cfg := testConfig()
	rateLimiter, closer, err := buildLimiter(cfg)
	require.NoError(t, err)
	require.NotNil(t, rateLimiter)
	require.Nil(t, closer)

	cfg.RateLimit.Rate = "often"
	_, _, err = buildLimiter(cfg)
	require.Error(t, err)

	cfg.RateLimit.Enabled = false
	rateLimiter, _, err = buildLimiter(cfg)
	require.NoError(t, err)
	require.Nil(t, rateLimiter)
}

func TestNormalizeAddr(t *testing.T) {
	require.Equal(t, ":8080", normalizeAddr(""))
	require.Equal(t, ":9090", normalizeAddr("9090"))
	require.Equal(t, ":7000", normalizeAddr(":7000"))
}

func TestCloseAllRunsInReverse(t *testing.T) {
	var order []int
	err := closeAll([]func() error{
		func() error { order = append(order, 1); return nil },
		nil,
		func() error { order = append(order, 3); return nil },
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 1}, order)
}
