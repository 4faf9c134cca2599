// Package notify delivers desktop notifications.
package notify

import (
	"context"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/ritsu/mindustry-notifier/internal/resilience"
)

// Notifier delivers a desktop notification. Fire-and-forget: implementations
// own failure handling and never propagate delivery errors to the caller.
type Notifier interface {
	Notify(title, body string)
}

// Desktop sends notifications through the system notification service.
// Delivery goes through a short retry and a circuit breaker; failures are
// logged and swallowed so detection bookkeeping never depends on delivery.
type Desktop struct {
	send    func(title, body, icon string) error
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	icon    string
}

// NewDesktop creates the system notifier.
func NewDesktop() *Desktop {
	return &Desktop{
		send:    beeep.Alert,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig()),
		retry:   resilience.NotifyRetryConfig(),
	}
}

// Notify sends a notification, logging and swallowing any delivery error.
func (d *Desktop) Notify(title, body string) {
	err := d.breaker.Execute(func() error {
		return resilience.Retry(context.Background(), d.retry, func() error {
			return d.send(title, body, d.icon)
		})
	})
	if err != nil {
		slog.Warn("notification delivery failed", "title", title, "error", err)
		return
	}
	slog.Info("notification sent", "title", title)
}
