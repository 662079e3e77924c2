package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/metrics"
	"github.com/luxbridge/luxbridge/pkg/types"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

// metrics.NewCollector registers on the default registry, so every test in
// the package shares one instance.
var collector = metrics.NewCollector()

// newTestServer wires a Server the way Configured would, minus the flags.
func newTestServer(m *mockMonitor) *Server {
	return &Server{
		monitor:    m,
		collector:  collector,
		serverName: "luxbridge",
	}
}

type mockMonitor struct {
	mock.Mock
}

func (m *mockMonitor) Login(ctx context.Context, account, password string) error {
	args := m.Called(ctx, account, password)
	return args.Error(0)
}

func (m *mockMonitor) ListStations(ctx context.Context) ([]types.Station, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.Station), args.Error(1)
	}
	return nil, nil
}

func (m *mockMonitor) SessionValid() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockMonitor) SelectStation(serialNum string) {
	m.Called(serialNum)
}

func (m *mockMonitor) SessionStatus() types.SessionStatus {
	args := m.Called()
	if len(args) > 0 {
		return args.Get(0).(types.SessionStatus)
	}
	return types.SessionStatus{}
}

func (m *mockMonitor) GetWorkingModes(ctx context.Context) (types.WorkingModes, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.WorkingModes), args.Error(1)
	}
	return types.WorkingModes{}, nil
}

func (m *mockMonitor) ReadSettings(ctx context.Context) (types.InverterSettings, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.InverterSettings), args.Error(1)
	}
	return types.InverterSettings{}, nil
}

func (m *mockMonitor) GetRealtime(ctx context.Context) (types.Realtime, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.Realtime), args.Error(1)
	}
	return types.Realtime{}, nil
}

func (m *mockMonitor) SetWorkingMode(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, payload)
	if len(args) > 0 {
		return args.Get(0).(json.RawMessage), args.Error(1)
	}
	return nil, nil
}

func (m *mockMonitor) SetACCharge(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, payload)
	if len(args) > 0 {
		return args.Get(0).(json.RawMessage), args.Error(1)
	}
	return nil, nil
}

func (m *mockMonitor) SetPeakShaving(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, payload)
	if len(args) > 0 {
		return args.Get(0).(json.RawMessage), args.Error(1)
	}
	return nil, nil
}

func (m *mockMonitor) SetBatterySettings(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, payload)
	if len(args) > 0 {
		return args.Get(0).(json.RawMessage), args.Error(1)
	}
	return nil, nil
}
