package service

import (
	"context"
	"errors"
	"time"

	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/repository"
)

// Timestamp format of the outbound command: ISO-8601 with milliseconds, UTC.
const warningTimestampLayout = "2006-01-02T15:04:05.000Z"

var (
	errInvalidWarningType = errors.New("invalid warning type: must be temperature, humidity, or system")
	errInvalidSeverity    = errors.New("invalid severity: must be low, medium, or high")
	errEmptyMessage       = errors.New("warning message is empty")

	// ErrNotConnected reports a publish attempted without a broker connection.
	// Non-fatal: the operator decides whether to reconnect and retry.
	ErrNotConnected = errors.New("not connected to broker")
)

// WarningService builds warning commands and publishes them on the outbound
// topic. No acknowledgement is expected or awaited.
type WarningService struct {
	broker    Broker
	eventRepo repository.EventRepo
	topic     string
	log       *logger.Logger
}

func NewWarningService(broker Broker, eventRepo repository.EventRepo, topic string, log *logger.Logger) *WarningService {
	return &WarningService{broker: broker, eventRepo: eventRepo, topic: topic, log: log}
}

// Send validates, builds and publishes one warning command, then records it
// in the audit log. Returns the published command so the caller can echo it.
func (s *WarningService) Send(ctx context.Context, p WarningParams) (models.WarningCommand, error) {
	switch p.Type {
	case models.WarningTypeTemperature, models.WarningTypeHumidity, models.WarningTypeSystem:
	default:
		return models.WarningCommand{}, errInvalidWarningType
	}
	switch p.Severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		return models.WarningCommand{}, errInvalidSeverity
	}
	if p.Message == "" {
		return models.WarningCommand{}, errEmptyMessage
	}

	cmd := models.WarningCommand{
		Type:      p.Type,
		Message:   p.Message,
		Timestamp: time.Now().UTC().Format(warningTimestampLayout),
		Severity:  p.Severity,
	}

	if ok := s.broker.Publish(s.topic, cmd, false); !ok {
		return models.WarningCommand{}, ErrNotConnected
	}

	if err := s.eventRepo.Append(ctx, models.DashboardEvent{
		Type:        EventWarningSent,
		Description: "Warning published to device",
		Metadata: map[string]any{
			"warning_type": cmd.Type,
			"severity":     cmd.Severity,
			"topic":        s.topic,
		},
	}); err != nil {
		// The command is already on the wire; a failed audit write is logged,
		// not surfaced.
		s.log.Errorw("warning_audit_append_failed", "err", err)
	}

	return cmd, nil
}
