// Package monitor is the client for the LuxPower monitor web API: the
// vendor session, the plant/inverter directory, register reads for the
// schedule view, realtime telemetry and verbatim settings writes.
package monitor

import (
	"context"
	"encoding/json"

	"github.com/luxbridge/luxbridge/pkg/types"
)

// API is the surface of the vendor client used by the HTTP layer and the
// telemetry poller. *Lux implements it.
type API interface {
	// Login authenticates and replaces the process-wide session.
	Login(ctx context.Context, account, password string) error
	// ListStations flattens plants and their inverters into stations.
	ListStations(ctx context.Context) ([]types.Station, error)
	// SessionValid reports whether a login happened and has not expired.
	SessionValid() bool
	// SelectStation records the inverter that device calls target.
	SelectStation(serialNum string)
	// SessionStatus reports the session without touching the vendor.
	SessionStatus() types.SessionStatus
	// GetWorkingModes reads the register map and rebuilds the schedule.
	GetWorkingModes(ctx context.Context) (types.WorkingModes, error)
	// ReadSettings returns raw runtime and register fields untouched.
	ReadSettings(ctx context.Context) (types.InverterSettings, error)
	// GetRealtime returns a normalized telemetry snapshot.
	GetRealtime(ctx context.Context) (types.Realtime, error)

	// The Set calls forward the payload verbatim with the selected serial
	// injected and relay the vendor's response bytes untouched.
	SetWorkingMode(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error)
	SetACCharge(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error)
	SetPeakShaving(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error)
	SetBatterySettings(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error)
}
