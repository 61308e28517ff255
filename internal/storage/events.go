package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/crawlgate/internal/engine"
	"go.uber.org/zap"
)

// EventWriter is the interface for persisting detection events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *DetectionEvent)
	Close()
}

// DetectionEvent is one classification outcome to be persisted.
type DetectionEvent struct {
	RequestID       string
	Timestamp       time.Time
	Mode            string
	IsBot           bool
	BotType         string
	Confidence      float64
	DetectionMethod string
	UserAgent       string
	IPAddress       string
	Metadata        map[string]string
}

// NewDetectionEvent builds an event from a detection result, assigning a
// fresh request ID.
func NewDetectionEvent(result *engine.DetectionResult, mode string) *DetectionEvent {
	return &DetectionEvent{
		RequestID:       uuid.New().String(),
		Timestamp:       result.Timestamp,
		Mode:            mode,
		IsBot:           result.IsBot,
		BotType:         result.BotType,
		Confidence:      result.Confidence,
		DetectionMethod: string(result.DetectionMethod),
		UserAgent:       result.UserAgent,
		IPAddress:       result.IPAddress,
		Metadata:        result.Metadata,
	}
}

// ResultSink adapts an EventWriter to the paywall's sink contract.
type ResultSink struct {
	writer EventWriter
	mode   string
}

// NewResultSink creates a sink that records every detection result through
// the given writer, tagged with the paywall mode.
func NewResultSink(writer EventWriter, mode string) *ResultSink {
	return &ResultSink{writer: writer, mode: mode}
}

func (s *ResultSink) LogDetection(result *engine.DetectionResult) {
	s.writer.Write(NewDetectionEvent(result, s.mode))
}

// LogWriter is a fallback EventWriter for local development.
// It logs events as structured JSON to stdout via zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs events to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(event *DetectionEvent) {
	w.logger.Info("detection_event",
		zap.String("request_id", event.RequestID),
		zap.String("mode", event.Mode),
		zap.Bool("is_bot", event.IsBot),
		zap.String("bot_type", event.BotType),
		zap.Float64("confidence", event.Confidence),
		zap.String("detection_method", event.DetectionMethod),
		zap.String("user_agent", event.UserAgent),
		zap.String("ip_address", event.IPAddress),
	)
}

func (w *LogWriter) Close() {}
