package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/events"
)

// LogHook mirrors application log lines into the event bus so the log
// monitor shows them next to gateway messages. Install it with
// logger.AddHook after the bus is running.
type LogHook struct {
	bus *events.Engine
}

func NewLogHook(bus *events.Engine) *LogHook {
	return &LogHook{bus: bus}
}

func (h *LogHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	}
}

func (h *LogHook) Fire(entry *logrus.Entry) error {
	gatewayName := ""
	if v, ok := entry.Data["gateway"].(string); ok {
		gatewayName = v
	}
	h.bus.Put(events.Event{Type: events.TypeLog, Data: &domain.LogEntry{
		Time:        entry.Time,
		Msg:         entry.Message,
		Level:       entry.Level.String(),
		GatewayName: gatewayName,
	}})
	return nil
}
