package service

import (
	"context"

	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/mqtt"
	"smartbox_dashboard/internal/repository"
)

// Audit event types.
const (
	EventConnected    = "CONNECTED"
	EventDisconnected = "DISCONNECTED"
	EventConnError    = "CONN_ERROR"
	EventWarningSent  = "WARNING_SENT"
)

// ConnectionService exposes broker status and the manual reconnect and
// disconnect actions, recording each transition in the audit log. It owns the
// inbound telemetry subscription across manual disconnects: the manager wipes
// its registry on Disconnect, so the service re-registers the handler right
// away and the next connect picks it up again.
type ConnectionService struct {
	broker       Broker
	eventRepo    repository.EventRepo
	inboundTopic string
	inbound      mqtt.Handler
	log          *logger.Logger
}

func NewConnectionService(broker Broker, eventRepo repository.EventRepo, inboundTopic string, inbound mqtt.Handler, log *logger.Logger) *ConnectionService {
	return &ConnectionService{
		broker:       broker,
		eventRepo:    eventRepo,
		inboundTopic: inboundTopic,
		inbound:      inbound,
		log:          log,
	}
}

func (s *ConnectionService) Status(ctx context.Context) models.ConnectionStatus {
	return s.broker.Status()
}

// Reconnect repeats the connect attempt. Surfaces the transport failure to
// the caller instead of swallowing it.
func (s *ConnectionService) Reconnect(ctx context.Context) error {
	if err := s.broker.Connect(); err != nil {
		s.appendEvent(ctx, EventConnError, "Reconnect failed: "+err.Error())
		return err
	}
	s.appendEvent(ctx, EventConnected, "Broker connection established")
	return nil
}

// Disconnect tears the connection down. Safe when already disconnected.
// The inbound telemetry handler is registered again immediately so a later
// Reconnect resumes delivery instead of leaving the dashboard silent.
func (s *ConnectionService) Disconnect(ctx context.Context) error {
	s.broker.Disconnect()
	if s.inboundTopic != "" && s.inbound != nil {
		s.broker.Subscribe(s.inboundTopic, s.inbound)
	}
	s.appendEvent(ctx, EventDisconnected, "Broker connection closed")
	return nil
}

func (s *ConnectionService) appendEvent(ctx context.Context, typ, desc string) {
	if err := s.eventRepo.Append(ctx, models.DashboardEvent{Type: typ, Description: desc}); err != nil {
		s.log.Errorw("connection_audit_append_failed", "type", typ, "err", err)
	}
}
