package eventbus

import (
	"github.com/annel0/rewind/internal/logging"
)

// StartLoggingListener подписывается на все события шины и пишет их в отладочный лог.
func StartLoggingListener(bus EventBus) Subscription {
	sub := bus.Subscribe(Filter{}, func(ev *Envelope) {
		logging.Debug("[EventBus] %s %s src=%s meta=%v", ev.ID, ev.EventType, ev.Source, ev.Metadata)
	})
	logging.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub
}
