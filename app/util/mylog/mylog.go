package mylog

import (
	"context"
	"log/slog"
	"os"
	"time"

	"videoadguard/app/config"

	"github.com/getsentry/sentry-go"
	"github.com/phsym/console-slog"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// Preinit installs a console-only logger so that config loading failures are
// already readable.
func Preinit() {
	slog.SetDefault(slog.New(newConsoleHandler()))
}

// Init installs the final logger. Records carrying a true "telegram" attr are
// additionally routed to the configured Telegram chat.
func Init(cfg *config.Config) error {
	consoleHandler := newConsoleHandler()

	if cfg.Log.Telegram.Token == "" || cfg.Log.Telegram.ChatID == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return nil
	}

	telegramHandler := slogtelegram.Option{ //nolint:exhaustruct
		Level:    slog.LevelInfo,
		Token:    cfg.Log.Telegram.Token,
		Username: cfg.Log.Telegram.ChatID,
	}.NewTelegramHandler()

	handler := slogmulti.Router().
		Add(telegramHandler, isTelegramRecord).
		Add(consoleHandler, matchAll).
		Handler()

	slog.SetDefault(slog.New(handler))

	return nil
}

func InitSentry(cfg *config.Config) error {
	if cfg.Sentry.DSN == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{ //nolint:exhaustruct
		Dsn:              cfg.Sentry.DSN,
		AttachStacktrace: true,
	}); err != nil {
		return oops.Errorf("sentry.Init: %w", err)
	}

	return nil
}

func newConsoleHandler() slog.Handler {
	return console.NewHandler(os.Stderr, &console.HandlerOptions{ //nolint:exhaustruct
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})
}

func isTelegramRecord(_ context.Context, record slog.Record) bool {
	var found bool

	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "telegram" && attr.Value.Kind() == slog.KindBool && attr.Value.Bool() {
			found = true
			return false
		}

		return true
	})

	return found
}

func matchAll(_ context.Context, _ slog.Record) bool {
	return true
}
