package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/luxbridge/luxbridge/pkg/common"
	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/schedule"
	"github.com/luxbridge/luxbridge/pkg/types"
)

const (
	defaultBaseURL = "https://eu.luxpowertek.com"

	luxLoginPath = "WManage/web/login"

	sessionCookieName = "JSESSIONID"

	// sessionLifetime is how long the vendor honors a session cookie before
	// it expires server-side. There is no refresh: once it's gone the
	// client has to log in again.
	sessionLifetime = 30 * time.Minute

	// registerBatchSize is the vendor cap on points per holding-register
	// read; covering the full map takes two reads.
	registerBatchSize = 127

	// listPageSize bounds the single-page plant and inverter listings.
	listPageSize = 50
)

// ErrLoginRejected is returned when the vendor refuses the credentials, as
// opposed to the login request failing outright.
var ErrLoginRejected = errors.New("login rejected")

// Lux is a client for the LuxPower monitor web API. It holds the single
// process-wide vendor session: the opaque cookie token, when it was
// acquired, and which inverter is selected. Logins are last-writer-wins.
// Nothing refreshes the session automatically and no request is retried;
// callers see expiry as auth failures until the next login.
type Lux struct {
	client  *http.Client
	baseURL string
	// now is swappable so session expiry is testable.
	now func() time.Time

	mu         sync.Mutex
	token      string
	acquiredAt time.Time
	serialNum  string
}

func newLux() *Lux {
	return &Lux{
		client:  common.HTTPClient(time.Minute),
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
}

// Login authenticates against the vendor and replaces the stored session.
// The credentials are used for this one call and never retained.
func (l *Lux) Login(ctx context.Context, account, password string) error {
	if account == "" {
		return errors.New("missing account")
	}
	if password == "" {
		return errors.New("missing password")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data := url.Values{}
	data.Set("account", account)
	data.Set("password", password)

	req, err := l.newPostFormRequest(ctx, luxLoginPath, data)
	if err != nil {
		return err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var res luxResult
	if err := json.Unmarshal(body, &res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode login response", slog.Any("error", err), slog.String("body", string(body)))
		return err
	}
	if res.Success != nil && !*res.Success {
		log.Ctx(ctx).WarnContext(ctx, "lux login rejected", slog.String("message", res.Msg))
		if res.Msg == "" {
			return ErrLoginRejected
		}
		return fmt.Errorf("%w: %s", ErrLoginRejected, res.Msg)
	}

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			token = c.Value
		}
	}
	if token == "" {
		return errors.New("login response missing session cookie")
	}

	l.token = token
	l.acquiredAt = l.now()
	log.Ctx(ctx).DebugContext(ctx, "lux login success", slog.String("account", account))
	return nil
}

// SessionValid reports whether a login happened and has not expired.
func (l *Lux) SessionValid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionValidLocked()
}

// sessionValidLocked requires l.mu to be held.
func (l *Lux) sessionValidLocked() bool {
	return l.token != "" && l.now().Sub(l.acquiredAt) < sessionLifetime
}

// SelectStation records which inverter subsequent device calls target. The
// selection is deliberately not validated against the station list and
// outlives session expiry.
func (l *Lux) SelectStation(serialNum string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serialNum = serialNum
}

// SessionStatus reports the current session without touching the vendor.
func (l *Lux) SessionStatus() types.SessionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := types.SessionStatus{
		Connected: l.sessionValidLocked(),
		SerialNum: l.serialNum,
	}
	if !l.acquiredAt.IsZero() {
		acquired := l.acquiredAt
		st.LastLogin = &acquired
	}
	return st
}

// ListStations flattens the vendor's plant → inverter hierarchy into one
// selectable station per inverter, in vendor listing order. The whole
// listing fails if any single inverter fetch fails.
func (l *Lux) ListStations(ctx context.Context) ([]types.Station, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plants, err := l.listPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}

	var stations []types.Station
	for _, plant := range plants {
		inverters, err := l.listInverters(ctx, plant.PlantID)
		if err != nil {
			return nil, fmt.Errorf("failed to list inverters for plant %d: %w", plant.PlantID, err)
		}
		for _, inv := range inverters {
			stations = append(stations, types.Station{
				DisplayName: fmt.Sprintf("%s - %s", plant.Name, inv.SerialNum),
				PlantName:   plant.Name,
				PlantID:     plant.PlantID,
				SerialNum:   inv.SerialNum,
				DeviceType:  inv.DeviceTypeText,
				StatusText:  inv.StatusText,
				Address:     plant.Address,
			})
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "listed stations", slog.Int("plants", len(plants)), slog.Int("stations", len(stations)))
	return stations, nil
}

func (l *Lux) listPlants(ctx context.Context) ([]plantRow, error) {
	data := url.Values{}
	data.Set("page", "1")
	data.Set("rows", strconv.Itoa(listPageSize))

	req, err := l.newPostFormRequest(ctx, "WManage/web/config/plant/list/viewer", data)
	if err != nil {
		return nil, err
	}

	var res plantListResult
	if err := l.doJSON(req, &res); err != nil {
		return nil, err
	}
	return res.Rows, nil
}

func (l *Lux) listInverters(ctx context.Context, plantID int) ([]inverterRow, error) {
	data := url.Values{}
	data.Set("plantId", strconv.Itoa(plantID))
	data.Set("page", "1")
	data.Set("rows", strconv.Itoa(listPageSize))

	req, err := l.newPostFormRequest(ctx, "WManage/web/config/inverter/list/viewer/plant", data)
	if err != nil {
		return nil, err
	}

	var res inverterListResult
	if err := l.doJSON(req, &res); err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// GetWorkingModes reads the full register map (two batches, the later one
// winning on duplicate names) and rebuilds the schedule view. A failure on
// either batch aborts the whole computation.
func (l *Lux) GetWorkingModes(ctx context.Context) (types.WorkingModes, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	first, err := l.readRegisters(ctx, 0)
	if err != nil {
		return types.WorkingModes{}, fmt.Errorf("failed to read registers [0,%d): %w", registerBatchSize, err)
	}
	second, err := l.readRegisters(ctx, registerBatchSize)
	if err != nil {
		return types.WorkingModes{}, fmt.Errorf("failed to read registers [%d,%d): %w", registerBatchSize, 2*registerBatchSize, err)
	}

	regs := schedule.Merge(first, second)
	wm := schedule.Reconstruct(regs)
	wm.Success = true

	if missing := regs.Missing(); len(missing) > 0 {
		log.Ctx(ctx).DebugContext(ctx, "registers defaulted during reconstruction", slog.String("fields", strings.Join(missing, ",")))
	}
	return wm, nil
}

func (l *Lux) readRegisters(ctx context.Context, start int) (map[string]interface{}, error) {
	data := url.Values{}
	data.Set("inverterSn", l.serialNum)
	data.Set("startRegister", strconv.Itoa(start))
	data.Set("pointNumber", strconv.Itoa(registerBatchSize))

	req, err := l.newPostFormRequest(ctx, "WManage/web/maintain/remoteRead/read", data)
	if err != nil {
		return nil, err
	}

	var bag map[string]interface{}
	if err := l.doJSON(req, &bag); err != nil {
		return nil, err
	}
	return bag, nil
}

// ReadSettings returns the vendor's runtime payload and the merged register
// bag untouched, for clients that want the raw fields.
func (l *Lux) ReadSettings(ctx context.Context) (types.InverterSettings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, err := l.runtimeRequest(ctx)
	if err != nil {
		return types.InverterSettings{}, err
	}
	var runtime map[string]interface{}
	if err := l.doJSON(req, &runtime); err != nil {
		return types.InverterSettings{}, fmt.Errorf("getInverterRuntime failed: %w", err)
	}

	first, err := l.readRegisters(ctx, 0)
	if err != nil {
		return types.InverterSettings{}, fmt.Errorf("failed to read registers [0,%d): %w", registerBatchSize, err)
	}
	second, err := l.readRegisters(ctx, registerBatchSize)
	if err != nil {
		return types.InverterSettings{}, fmt.Errorf("failed to read registers [%d,%d): %w", registerBatchSize, 2*registerBatchSize, err)
	}

	return types.InverterSettings{
		Success: true,
		Runtime: runtime,
		Config:  schedule.Merge(first, second).Raw(),
	}, nil
}

// GetRealtime fetches instantaneous runtime data and today's energy
// accumulators concurrently; both must succeed.
func (l *Lux) GetRealtime(ctx context.Context) (types.Realtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	runtimeReq, err := l.runtimeRequest(ctx)
	if err != nil {
		return types.Realtime{}, err
	}
	energyReq, err := l.energyRequest(ctx)
	if err != nil {
		return types.Realtime{}, err
	}

	var (
		wg        sync.WaitGroup
		rt        inverterRuntimeResult
		rtErr     error
		energy    inverterEnergyResult
		energyErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rtErr = l.doJSON(runtimeReq, &rt)
	}()
	go func() {
		defer wg.Done()
		energyErr = l.doJSON(energyReq, &energy)
	}()
	wg.Wait()

	if rtErr != nil {
		return types.Realtime{}, fmt.Errorf("getInverterRuntime failed: %w", rtErr)
	}
	if energyErr != nil {
		return types.Realtime{}, fmt.Errorf("getInverterEnergyInfo failed: %w", energyErr)
	}

	// House consumption isn't reported directly; derive it from the power
	// balance and clamp at zero since transient vendor readings can push
	// the sum negative.
	consumption := rt.SolarPower + rt.ImportPower + rt.DischargePower - rt.ExportPower - rt.ChargePower
	if consumption < 0 {
		consumption = 0
	}

	return types.Realtime{
		Success:               true,
		SerialNum:             l.serialNum,
		SolarPower:            rt.SolarPower,
		BatteryChargePower:    rt.ChargePower,
		BatteryDischargePower: rt.DischargePower,
		GridImportPower:       rt.ImportPower,
		GridExportPower:       rt.ExportPower,
		ConsumptionPower:      consumption,
		BatterySOC:            rt.SOC,
		BatteryVoltage:        rt.BatteryVoltage / 10,
		GridVoltage:           rt.GridVoltage / 10,
		GridFrequency:         rt.GridFrequency / 100,
		SolarEnergyToday:      energy.TodayYielding / 10,
		ChargeEnergyToday:     energy.TodayCharging / 10,
		DischargeEnergyToday:  energy.TodayDischarging / 10,
		ImportEnergyToday:     energy.TodayImport / 10,
		ExportEnergyToday:     energy.TodayExport / 10,
		StatusText:            rt.StatusText,
	}, nil
}

func (l *Lux) runtimeRequest(ctx context.Context) (*http.Request, error) {
	data := url.Values{}
	data.Set("serialNum", l.serialNum)
	return l.newPostFormRequest(ctx, "WManage/api/inverter/getInverterRuntime", data)
}

func (l *Lux) energyRequest(ctx context.Context) (*http.Request, error) {
	data := url.Values{}
	data.Set("serialNum", l.serialNum)
	return l.newPostFormRequest(ctx, "WManage/api/inverter/getInverterEnergyInfo", data)
}

// SetWorkingMode forwards a working-mode change (function-control bits)
// verbatim and relays the vendor's response.
func (l *Lux) SetWorkingMode(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forward(ctx, "WManage/web/maintain/remoteSet/functionControl", payload)
}

// SetACCharge forwards AC-charge window changes verbatim.
func (l *Lux) SetACCharge(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forward(ctx, "WManage/web/maintain/remoteSet/writeTime", payload)
}

// SetPeakShaving forwards peak-shaving window changes verbatim.
func (l *Lux) SetPeakShaving(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forward(ctx, "WManage/web/maintain/remoteSet/writeTime", payload)
}

// SetBatterySettings forwards threshold register changes verbatim.
func (l *Lux) SetBatterySettings(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forward(ctx, "WManage/web/maintain/remoteSet/write", payload)
}

// forward re-encodes the caller's JSON payload as vendor form fields and
// returns the vendor's response body untouched. The selected serial is set
// last so it overrides any inverterSn the caller supplied. Nothing is
// validated locally.
func (l *Lux) forward(ctx context.Context, endpoint string, payload map[string]interface{}) (json.RawMessage, error) {
	data := url.Values{}
	for k, v := range payload {
		switch tv := v.(type) {
		case string:
			data.Set(k, tv)
		case float64:
			data.Set(k, strconv.FormatFloat(tv, 'f', -1, 64))
		case bool:
			data.Set(k, strconv.FormatBool(tv))
		case nil:
			data.Set(k, "")
		default:
			data.Set(k, fmt.Sprint(tv))
		}
	}
	data.Set("inverterSn", l.serialNum)

	req, err := l.newPostFormRequest(ctx, endpoint, data)
	if err != nil {
		return nil, err
	}
	if l.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: l.token})
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "forwarded settings write", slog.String("endpoint", endpoint))
	return json.RawMessage(body), nil
}

// doJSON performs the request with the session cookie attached, probes the
// vendor's success flag when present, and decodes the body into dest. A
// failed call is surfaced immediately: there are no retries and no
// re-login, the session either works or the caller gets the error.
func (l *Lux) doJSON(req *http.Request, dest interface{}) error {
	if l.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: l.token})
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var probe luxResult
	if err := json.Unmarshal(body, &probe); err != nil {
		log.Ctx(req.Context()).ErrorContext(req.Context(), "failed to decode lux response", slog.Any("error", err), slog.String("body", string(body)))
		return err
	}
	if probe.Success != nil && !*probe.Success {
		if probe.Msg == "" {
			log.Ctx(req.Context()).ErrorContext(req.Context(), "lux api unknown error", slog.String("body", string(body)))
			return errors.New("lux unknown error")
		}
		log.Ctx(req.Context()).ErrorContext(req.Context(), "lux api error", slog.String("message", probe.Msg))
		return fmt.Errorf("lux api error: %s", probe.Msg)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("failed to decode lux response: %w", err)
		}
	}
	return nil
}

func (l *Lux) newPostFormRequest(ctx context.Context, endpoint string, data url.Values) (*http.Request, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, err
	}

	body := strings.NewReader(data.Encode())
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// luxResult is the vendor's flat envelope: a success flag and an error
// message beside whatever payload fields the endpoint returns. Success is
// a pointer because the list endpoints omit it entirely.
type luxResult struct {
	Success *bool  `json:"success"`
	Msg     string `json:"msg"`
}

type plantListResult struct {
	Total int        `json:"total"`
	Rows  []plantRow `json:"rows"`
}

type plantRow struct {
	PlantID int    `json:"plantId"`
	Name    string `json:"name"`
	Address string `json:"address"`
	// TODO: map createDate and timezone if the UI ever wants them
}

type inverterListResult struct {
	Total int           `json:"total"`
	Rows  []inverterRow `json:"rows"`
}

type inverterRow struct {
	SerialNum      string `json:"serialNum"`
	PlantID        int    `json:"plantId"`
	PlantName      string `json:"plantName"`
	DeviceTypeText string `json:"deviceTypeText"`
	StatusText     string `json:"statusText"`
}

// inverterRuntimeResult mirrors getInverterRuntime. Several fields come
// back vendor-scaled and are divided out in GetRealtime.
type inverterRuntimeResult struct {
	SerialNum      string  `json:"serialNum"`
	SolarPower     float64 `json:"ppv"`        // W
	SOC            float64 `json:"soc"`        // %
	BatteryVoltage float64 `json:"vBat"`       // deci-volts
	ChargePower    float64 `json:"pCharge"`    // W
	DischargePower float64 `json:"pDisCharge"` // W, yes the D is capitalized
	ExportPower    float64 `json:"pToGrid"`    // W
	ImportPower    float64 `json:"pToUser"`    // W
	GridVoltage    float64 `json:"vacr"`       // deci-volts, R phase
	GridFrequency  float64 `json:"fac"`        // centi-hertz
	StatusText     string  `json:"statusText"`
}

// inverterEnergyResult mirrors getInverterEnergyInfo; everything is in
// tenths of a kWh.
// TODO: map todayUsage and the total* accumulators if the UI ever wants them
type inverterEnergyResult struct {
	TodayYielding    float64 `json:"todayYielding"`
	TodayCharging    float64 `json:"todayCharging"`
	TodayDischarging float64 `json:"todayDischarging"`
	TodayImport      float64 `json:"todayImport"`
	TodayExport      float64 `json:"todayExport"`
}
