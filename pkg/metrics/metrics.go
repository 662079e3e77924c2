// Package metrics exposes the process's Prometheus instrumentation: session
// health, login and poll outcomes, and the most recent realtime snapshot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/luxbridge/luxbridge/pkg/types"
)

const namespace = "luxbridge"

type Collector struct {
	logins        prometheus.Counter
	loginFailures prometheus.Counter
	pollFailures  prometheus.Counter

	sessionValid prometheus.Gauge

	solarPower            prometheus.Gauge
	batteryChargePower    prometheus.Gauge
	batteryDischargePower prometheus.Gauge
	gridImportPower       prometheus.Gauge
	gridExportPower       prometheus.Gauge
	consumptionPower      prometheus.Gauge

	batterySOC     prometheus.Gauge
	batteryVoltage prometheus.Gauge
	gridVoltage    prometheus.Gauge
	gridFrequency  prometheus.Gauge

	solarEnergyToday     prometheus.Gauge
	chargeEnergyToday    prometheus.Gauge
	dischargeEnergyToday prometheus.Gauge
	importEnergyToday    prometheus.Gauge
	exportEnergyToday    prometheus.Gauge
}

// NewCollector registers everything on the default registry, so call it once
// per process.
func NewCollector() *Collector {
	c := &Collector{
		logins: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins",
			Help:      "Number of successful vendor logins.",
		}),
		loginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures",
			Help:      "Number of rejected or failed vendor logins.",
		}),
		pollFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures",
			Help:      "Number of errors while polling the vendor for realtime data.",
		}),
	}

	c.initializeMetrics()

	return c
}

func (c *Collector) IncrementLogins() {
	c.logins.Inc()
}

func (c *Collector) IncrementLoginFailures() {
	c.loginFailures.Inc()
}

func (c *Collector) IncrementPollFailures() {
	c.pollFailures.Inc()
}

func (c *Collector) initializeMetrics() {
	c.sessionValid = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_valid",
		Help:      "Whether the vendor session is currently valid (1) or not (0).",
	})

	c.solarPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "solar_power",
		Help:      "Solar array output (W).",
	})

	c.batteryChargePower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "battery_charge_power",
		Help:      "Battery charging power (W).",
	})

	c.batteryDischargePower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "battery_discharge_power",
		Help:      "Battery discharging power (W).",
	})

	c.gridImportPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "grid_import_power",
		Help:      "Power drawn from the grid (W).",
	})

	c.gridExportPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "grid_export_power",
		Help:      "Power exported to the grid (W).",
	})

	c.consumptionPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "consumption_power",
		Help:      "Derived house consumption (W).",
	})

	c.batterySOC = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "battery_soc",
		Help:      "Battery state of charge (%).",
	})

	c.batteryVoltage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "battery_voltage",
		Help:      "Battery voltage (V).",
	})

	c.gridVoltage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "grid_voltage",
		Help:      "Grid voltage (V).",
	})

	c.gridFrequency = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "grid_frequency",
		Help:      "Grid frequency (Hz).",
	})

	c.solarEnergyToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "solar_energy_today",
		Help:      "Solar generation so far today (kWh).",
	})

	c.chargeEnergyToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "charge_energy_today",
		Help:      "Battery charge so far today (kWh).",
	})

	c.dischargeEnergyToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "discharge_energy_today",
		Help:      "Battery discharge so far today (kWh).",
	})

	c.importEnergyToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "import_energy_today",
		Help:      "Grid import so far today (kWh).",
	})

	c.exportEnergyToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "export_energy_today",
		Help:      "Grid export so far today (kWh).",
	})
}

func (c *Collector) SetSessionValid(valid bool) {
	if valid {
		c.sessionValid.Set(1)
		return
	}
	c.sessionValid.Set(0)
}

// SetRealtime publishes a realtime snapshot to the gauges.
func (c *Collector) SetRealtime(rt types.Realtime) {
	c.solarPower.Set(rt.SolarPower)
	c.batteryChargePower.Set(rt.BatteryChargePower)
	c.batteryDischargePower.Set(rt.BatteryDischargePower)
	c.gridImportPower.Set(rt.GridImportPower)
	c.gridExportPower.Set(rt.GridExportPower)
	c.consumptionPower.Set(rt.ConsumptionPower)

	c.batterySOC.Set(rt.BatterySOC)
	c.batteryVoltage.Set(rt.BatteryVoltage)
	c.gridVoltage.Set(rt.GridVoltage)
	c.gridFrequency.Set(rt.GridFrequency)

	c.solarEnergyToday.Set(rt.SolarEnergyToday)
	c.chargeEnergyToday.Set(rt.ChargeEnergyToday)
	c.dischargeEnergyToday.Set(rt.DischargeEnergyToday)
	c.importEnergyToday.Set(rt.ImportEnergyToday)
	c.exportEnergyToday.Set(rt.ExportEnergyToday)
}
