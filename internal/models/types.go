// Package models holds the data structures shared between the telemetry,
// forecast and status layers.
package models

import "time"

// InverterReadings holds the inverter settings mirrored from the device feed.
type InverterReadings struct {
	OutputSource     string  `json:"output_source"`
	ChargerSource    string  `json:"charger_source"`
	MaxGridChargeAmp float64 `json:"max_grid_charge_a"`
}

// BatteryReadings holds the battery metrics from the device feed.
type BatteryReadings struct {
	SOCPercent float64 `json:"soc_percent"`
	PowerW     float64 `json:"power_w"`
	VoltageV   float64 `json:"voltage_v"`
	CurrentA   float64 `json:"current_a"`
}

// PowerReading is a single instantaneous power figure.
type PowerReading struct {
	PowerW float64 `json:"power_w"`
}

// TelemetrySnapshot is the last-known state of the installation as reported
// over the device feed. The aggregator owns the single authoritative instance;
// everything else works on copies.
type TelemetrySnapshot struct {
	Inverter InverterReadings `json:"inverter"`
	Battery  BatteryReadings  `json:"battery"`
	Grid     PowerReading     `json:"grid"`
	PV       PowerReading     `json:"pv"`
	Load     PowerReading     `json:"load"`

	Connected      bool      `json:"connected"`
	LastConnect    time.Time `json:"last_connect"`
	LastDisconnect time.Time `json:"last_disconnect"`
	LastUpdate     time.Time `json:"last_update"`
}

// Forecast result types. A full-window result covers the whole loading window,
// a partial-window result covers only its remainder from the noon tick onward.
const (
	ForecastFullWindow    = "full_window"
	ForecastPartialWindow = "partial_window"
)

// ForecastResult is one integrated yield estimate. Results are immutable once
// created and only ever appended to the history.
type ForecastResult struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Window    string    `json:"window"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	EnergyKWh float64   `json:"energy_kwh"`
	Type      string    `json:"type"`
}
