package types

import "time"

// Station is one selectable inverter, flattened from the vendor's
// plant → inverter hierarchy. The list is rebuilt on every login and
// never cached across logins.
type Station struct {
	DisplayName string `json:"displayName"`
	PlantName   string `json:"plantName"`
	PlantID     int    `json:"plantId"`
	SerialNum   string `json:"serialNum"`
	DeviceType  string `json:"deviceType"`
	StatusText  string `json:"statusText"`
	Address     string `json:"address"`
}

// TimeSlot is a configured window within a single day. Both bounds are
// zero-padded "HH:MM". End can be the literal "24:00" on filler segments
// but never on slots read from registers.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ModeSegment is one entry of the reconstructed full-day schedule.
type ModeSegment struct {
	Mode string `json:"mode"`
	TimeSlot
}

// BatterySettings mirrors the charge/discharge threshold registers.
// Fields read as 0 when the register was absent from the read.
type BatterySettings struct {
	ACChargeStartSOC     int     `json:"acChargeStartSOC"`     // %
	ACChargeEndSOC       int     `json:"acChargeEndSOC"`       // %
	ACChargeStartVoltage float64 `json:"acChargeStartVoltage"` // volts
	ACChargeEndVoltage   float64 `json:"acChargeEndVoltage"`   // volts
	PeakShavingPower     float64 `json:"peakShavingPower"`     // kW
	PeakShavingSOC       int     `json:"peakShavingSOC"`       // %
	PeakShavingPower1    float64 `json:"peakShavingPower1"`    // kW
	PeakShavingSOC1      int     `json:"peakShavingSOC1"`      // %
}

// WorkingModes is the full /working-modes response: the gap-filled
// schedule plus the raw per-family slots and threshold settings.
type WorkingModes struct {
	Success            bool            `json:"success"`
	Schedule           []ModeSegment   `json:"schedule"`
	ACCharge           []TimeSlot      `json:"acCharge"`
	PeakShaving        []TimeSlot      `json:"peakShaving"`
	PeakShavingEnabled bool            `json:"peakShavingEnabled"`
	ForcedCharge       []TimeSlot      `json:"forcedCharge"`
	ForcedDischarge    []TimeSlot      `json:"forcedDischarge"`
	BatterySettings    BatterySettings `json:"batterySettings"`
	Firmware           string          `json:"firmware"`
	DeviceTime         string          `json:"deviceTime"`
}

// InverterSettings is the /read-settings response: the vendor's runtime
// payload and the merged register bag, both passed through untouched.
type InverterSettings struct {
	Success bool                   `json:"success"`
	Runtime map[string]interface{} `json:"runtime"`
	Config  map[string]interface{} `json:"config"`
}

// Realtime is a normalized telemetry snapshot. Vendor deci/centi units
// are already divided out.
type Realtime struct {
	Success               bool    `json:"success"`
	SerialNum             string  `json:"serialNum"`
	SolarPower            float64 `json:"solarPower"`            // watts
	BatteryChargePower    float64 `json:"batteryChargePower"`    // watts
	BatteryDischargePower float64 `json:"batteryDischargePower"` // watts
	GridImportPower       float64 `json:"gridImportPower"`       // watts
	GridExportPower       float64 `json:"gridExportPower"`       // watts
	ConsumptionPower      float64 `json:"consumptionPower"`      // watts, derived, never negative
	BatterySOC            float64 `json:"batterySOC"`            // %
	BatteryVoltage        float64 `json:"batteryVoltage"`        // volts
	GridVoltage           float64 `json:"gridVoltage"`           // volts
	GridFrequency         float64 `json:"gridFrequency"`         // Hz
	SolarEnergyToday      float64 `json:"solarEnergyToday"`      // kWh
	ChargeEnergyToday     float64 `json:"chargeEnergyToday"`     // kWh
	DischargeEnergyToday  float64 `json:"dischargeEnergyToday"`  // kWh
	ImportEnergyToday     float64 `json:"importEnergyToday"`     // kWh
	ExportEnergyToday     float64 `json:"exportEnergyToday"`     // kWh
	StatusText            string  `json:"statusText"`
}

// SessionStatus describes the relay's current vendor session. LastLogin
// is nil until the first successful login.
type SessionStatus struct {
	Connected bool       `json:"connected"`
	SerialNum string     `json:"serialNum"`
	LastLogin *time.Time `json:"lastLogin"`
}
