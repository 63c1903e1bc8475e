package events

import "go.uber.org/zap"

// AllTypes lists every event type published by the operation service
var AllTypes = []string{OperationCreatedEvent, OperationExecutedEvent, GoodsProducedEvent, GoodsConsumedEvent}

// LogHandler writes every event it receives at debug level
type LogHandler struct {
	logger *zap.Logger
}

// NewLogHandler creates a handler logging to logger
func NewLogHandler(logger *zap.Logger) *LogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHandler{logger: logger.Named("events")}
}

func (h *LogHandler) Handle(event Event) error {
	h.logger.Debug(event.Type(),
		zap.String("stream", event.StreamID()),
		zap.Int("version", event.Version()),
		zap.Any("data", event.Data()))
	return nil
}

func (h *LogHandler) CanHandle(string) bool { return true }
