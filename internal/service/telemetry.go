package service

import (
	"context"
	"sync"

	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/normalizer"
)

// TelemetryService keeps the single SmartBox snapshot. The broker message
// handler is the only writer; HTTP and WebSocket readers see point-in-time
// copies.
type TelemetryService struct {
	mu    sync.RWMutex
	state models.SmartBoxState
	log   *logger.Logger
}

func NewTelemetryService(log *logger.Logger) *TelemetryService {
	return &TelemetryService{
		state: baselineState(),
		log:   log,
	}
}

// HandleMessage normalizes one raw inbound message and merges it into the
// snapshot. A malformed message is logged and dropped; one bad frame must not
// disrupt the live display.
func (s *TelemetryService) HandleMessage(topic string, payload []byte) {
	upd, err := normalizer.Normalize(topic, payload)
	if err != nil {
		s.log.Warnw("telemetry_message_dropped", "topic", topic, "err", err)
		return
	}
	s.Apply(upd)
}

// Apply merges a normalized update into the snapshot. Only the field groups
// present in the update are touched; their timestamps come from the update,
// the other groups keep theirs.
func (s *TelemetryService) Apply(upd *models.SmartBoxUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upd.DeviceID != "" {
		s.state.DeviceID = upd.DeviceID
	}
	if upd.Temperature != nil {
		s.state.Temperature = *upd.Temperature
	}
	if upd.Humidity != nil {
		s.state.Humidity = *upd.Humidity
	}
	if upd.Location != nil {
		s.state.Location = *upd.Location
	}
	if upd.SystemStatus != nil {
		s.state.SystemStatus = *upd.SystemStatus
	}
}

// GetState returns the current snapshot.
func (s *TelemetryService) GetState(ctx context.Context) (models.SmartBoxState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

// baselineState is the "no data yet" snapshot shown before the first reading.
func baselineState() models.SmartBoxState {
	return models.SmartBoxState{
		Temperature: models.TemperatureReading{
			Unit:           normalizer.UnitCelsius,
			Classification: models.ClassUnknown,
		},
		Humidity: models.HumidityReading{
			Unit:           normalizer.UnitPercent,
			Classification: models.ClassUnknown,
		},
		SystemStatus: models.SystemStatus{
			Online:    false,
			RawStatus: models.ClassUnknown,
		},
	}
}
