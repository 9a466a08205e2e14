package birch

import "log/slog"

// LoggingObserver logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{
		logger: slog.Default(),
	}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Debug("tree_lifecycle",
		"event", event.Type,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
