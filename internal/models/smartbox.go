package models

import "time"

// Classification labels derived from raw sensor values.
const (
	ClassUnknown = "unknown"
	ClassFrozen  = "frozen"
	ClassSafe    = "safe"
	ClassDanger  = "danger"
)

// Device status values as reported on the wire.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
)

// InboundSensorReading is the combined reading the device publishes.
// Pointer fields so a missing key is distinguishable from a zero value.
type InboundSensorReading struct {
	DeviceID    *string  `json:"device_id"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	GPSLocation *string  `json:"gps_location"` // "<lat>,<lng>"
	Status      *string  `json:"status"`       // active | inactive | error
}

// TemperatureReading is the temperature field group of the snapshot.
type TemperatureReading struct {
	Value          float64   `json:"value"`
	Unit           string    `json:"unit"` // °C
	Classification string    `json:"classification"`
	LastUpdate     time.Time `json:"last_update"`
}

// HumidityReading is the humidity field group of the snapshot.
type HumidityReading struct {
	Value          float64   `json:"value"`
	Unit           string    `json:"unit"` // %
	Classification string    `json:"classification"`
	LastUpdate     time.Time `json:"last_update"`
}

// Location is the GPS field group of the snapshot.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy,omitempty"` // meters; 0 when the device reports none
	LastUpdate time.Time `json:"last_update"`
}

// SystemStatus is the device status field group of the snapshot.
type SystemStatus struct {
	Online     bool      `json:"online"`
	RawStatus  string    `json:"raw_status"`
	LastUpdate time.Time `json:"last_update"`
}

// SmartBoxState is the single snapshot the dashboard observes.
// Each field group carries its own last-update timestamp; a group is touched
// only when its source data arrives (append-merge, not full replace).
type SmartBoxState struct {
	DeviceID     string             `json:"device_id"`
	Temperature  TemperatureReading `json:"temperature"`
	Humidity     HumidityReading    `json:"humidity"`
	Location     Location           `json:"location"`
	SystemStatus SystemStatus       `json:"system_status"`
}

// SmartBoxUpdate is one normalized inbound message, ready to be merged into
// the snapshot. Nil groups leave the corresponding snapshot group untouched.
type SmartBoxUpdate struct {
	DeviceID     string
	Temperature  *TemperatureReading
	Humidity     *HumidityReading
	Location     *Location
	SystemStatus *SystemStatus
}

// Warning command enums.
const (
	WarningTypeTemperature = "temperature"
	WarningTypeHumidity    = "humidity"
	WarningTypeSystem      = "system"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// WarningCommand is published to the device on the outbound topic.
// Fire-and-forget: no acknowledgement is modeled.
type WarningCommand struct {
	Type      string `json:"type"`      // temperature | humidity | system
	Message   string `json:"message"`   // free text
	Timestamp string `json:"timestamp"` // ISO-8601 with milliseconds, UTC
	Severity  string `json:"severity"`  // low | medium | high
}
