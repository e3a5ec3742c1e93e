package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/adapters/notify"
	"creativehub/contexts/creative-review/approval-workflow/ports"
	"creativehub/internal/platform/config"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// buildNotifiers returns the human-facing sinks. The log sink is always
// present so events stay visible when no channel is configured.
func buildNotifiers(cfg config.Config, logger *slog.Logger) ([]ports.NotificationSink, error) {
	sinks := []ports.NotificationSink{notify.LogSink{Logger: logger}}
	if cfg.SMTP.Enabled() {
		email, err := notify.NewEmailSink(notify.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("email sink: %w", err)
		}
		sinks = append(sinks, email)
	}
	if cfg.Telegram.Enabled() {
		telegram, err := notify.NewTelegramSink(notify.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			APIURL:   cfg.Telegram.APIURL,
		}, &http.Client{Timeout: cfg.Dispatcher.DeliveryTimeout})
		if err != nil {
			return nil, fmt.Errorf("telegram sink: %w", err)
		}
		sinks = append(sinks, telegram)
	}
	names := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}
	logger.Info("notification sinks configured",
		"event", "bootstrap_sinks_configured",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sinks", strings.Join(names, ","),
	)
	return sinks, nil
}

// buildLimiter shares counters through Redis when REDIS_URL is set so every
// API replica enforces one budget.
func buildLimiter(cfg config.Config) (*limiter.Limiter, func() error, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Rate)
	if err != nil {
		return nil, nil, fmt.Errorf("parse RATE_LIMIT_COMMANDS: %w", err)
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          "approval-workflow",
			CleanUpInterval: time.Minute,
		}), rate), nil, nil
	}

	client, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "creativehub:approval-workflow:ratelimit",
		MaxRetry: 3,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("rate limit store: %w", err)
	}
	return limiter.New(store, rate), client.Close, nil
}
