package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"smartbox_dashboard/internal/models"
)

// Units reported alongside normalized values.
const (
	UnitCelsius = "°C"
	UnitPercent = "%"
)

// Canonical classification thresholds. The cold-chain safe band is 0–4 °C
// inclusive; humidity is safe at or above 85%.
const (
	TempFrozenBelowC = 0.0
	TempSafeMaxC     = 4.0
	HumiditySafeMin  = 85.0
)

// Rejection reasons. One bad frame must never disrupt the live display: the
// caller logs the error and drops the message.
var (
	ErrMalformedJSON = errors.New("malformed JSON payload")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidStatus = errors.New("invalid status value")
)

// Normalize converts one raw inbound message into a state update. All fields
// of the combined reading are required; any missing or mistyped field rejects
// the whole message. Every produced field group is stamped with the current
// wall-clock time (the payload carries no timestamp).
func Normalize(topic string, payload []byte) (*models.SmartBoxUpdate, error) {
	var r models.InboundSensorReading
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	switch {
	case r.DeviceID == nil:
		return nil, fmt.Errorf("%w: device_id", ErrMissingField)
	case r.Temperature == nil:
		return nil, fmt.Errorf("%w: temperature", ErrMissingField)
	case r.Humidity == nil:
		return nil, fmt.Errorf("%w: humidity", ErrMissingField)
	case r.GPSLocation == nil:
		return nil, fmt.Errorf("%w: gps_location", ErrMissingField)
	case r.Status == nil:
		return nil, fmt.Errorf("%w: status", ErrMissingField)
	}

	switch *r.Status {
	case models.StatusActive, models.StatusInactive, models.StatusError:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *r.Status)
	}

	now := time.Now().UTC()
	lat, lng := ParseGPS(*r.GPSLocation)

	return &models.SmartBoxUpdate{
		DeviceID: *r.DeviceID,
		Temperature: &models.TemperatureReading{
			Value:          *r.Temperature,
			Unit:           UnitCelsius,
			Classification: ClassifyTemperature(*r.Temperature),
			LastUpdate:     now,
		},
		Humidity: &models.HumidityReading{
			Value:          *r.Humidity,
			Unit:           UnitPercent,
			Classification: ClassifyHumidity(*r.Humidity),
			LastUpdate:     now,
		},
		Location: &models.Location{
			Latitude:   lat,
			Longitude:  lng,
			LastUpdate: now,
		},
		SystemStatus: &models.SystemStatus{
			Online:     *r.Status == models.StatusActive,
			RawStatus:  *r.Status,
			LastUpdate: now,
		},
	}, nil
}

// ClassifyTemperature partitions the temperature axis into frozen/safe/danger.
// The three bands are exhaustive and non-overlapping.
func ClassifyTemperature(v float64) string {
	switch {
	case v < TempFrozenBelowC:
		return models.ClassFrozen
	case v <= TempSafeMaxC:
		return models.ClassSafe
	default:
		return models.ClassDanger
	}
}

// ClassifyHumidity labels humidity as safe at or above the threshold.
func ClassifyHumidity(v float64) string {
	if v >= HumiditySafeMin {
		return models.ClassSafe
	}
	return models.ClassDanger
}

// ParseGPS parses a combined "lat,lng" string. An unparsable or incomplete
// string yields the {0,0} fallback, treated as "no data" rather than an error.
func ParseGPS(s string) (lat, lng float64) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0
	}
	return lat, lng
}
