package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxbridge/luxbridge/pkg/types"
)

func seg(mode, start, end string) types.ModeSegment {
	return types.ModeSegment{Mode: mode, TimeSlot: types.TimeSlot{Start: start, End: end}}
}

func slot(start, end string) types.TimeSlot {
	return types.TimeSlot{Start: start, End: end}
}

// acWindow returns the registers for one AC Charge window. suffix is ""
// for the first slot, "_1"/"_2" after.
func acWindow(suffix string, sh, sm, eh, em int) map[string]interface{} {
	return map[string]interface{}{
		"HOLD_AC_CHARGE_START_HOUR" + suffix:   float64(sh),
		"HOLD_AC_CHARGE_START_MINUTE" + suffix: float64(sm),
		"HOLD_AC_CHARGE_END_HOUR" + suffix:     float64(eh),
		"HOLD_AC_CHARGE_END_MINUTE" + suffix:   float64(em),
	}
}

func merged(bags ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, b := range bags {
		for k, v := range b {
			out[k] = v
		}
	}
	return out
}

func TestReconstructEmpty(t *testing.T) {
	wm := Reconstruct(Merge(map[string]interface{}{}))

	require.Len(t, wm.Schedule, 1, "no configured windows should still produce a whole-day schedule")
	assert.Equal(t, seg(ModeSelfConsumption, "00:00", "24:00"), wm.Schedule[0])
	assert.Empty(t, wm.ACCharge)
	assert.Empty(t, wm.PeakShaving)
	assert.Empty(t, wm.ForcedCharge)
	assert.Empty(t, wm.ForcedDischarge)
	assert.False(t, wm.PeakShavingEnabled)
}

func TestReconstructSingleACCharge(t *testing.T) {
	wm := Reconstruct(Merge(acWindow("", 1, 30, 4, 0)))

	expected := []types.ModeSegment{
		seg(ModeSelfConsumption, "00:00", "01:30"),
		seg(ModeACCharge, "01:30", "04:00"),
		seg(ModeSelfConsumption, "04:00", "24:00"),
	}
	assert.Equal(t, expected, wm.Schedule, "single window should be framed by fillers")
	assert.Equal(t, []types.TimeSlot{slot("01:30", "04:00")}, wm.ACCharge)
}

func TestReconstructDropsDegenerateSlots(t *testing.T) {
	// The second window is zero-length and represents an unused slot.
	wm := Reconstruct(Merge(merged(
		acWindow("", 1, 30, 4, 0),
		acWindow("_1", 12, 15, 12, 15),
	)))

	require.Len(t, wm.ACCharge, 1, "zero-length window should be dropped")
	expected := []types.ModeSegment{
		seg(ModeSelfConsumption, "00:00", "01:30"),
		seg(ModeACCharge, "01:30", "04:00"),
		seg(ModeSelfConsumption, "04:00", "24:00"),
	}
	assert.Equal(t, expected, wm.Schedule, "dropped slot should not break continuity")
}

func TestReconstructEnableGating(t *testing.T) {
	peak := map[string]interface{}{
		"HOLD_PEAK_SHAVING_START_HOUR":   float64(17),
		"HOLD_PEAK_SHAVING_START_MINUTE": float64(0),
		"HOLD_PEAK_SHAVING_END_HOUR":     float64(20),
		"HOLD_PEAK_SHAVING_END_MINUTE":   float64(30),
	}

	t.Run("disabled keeps slots out of the schedule", func(t *testing.T) {
		wm := Reconstruct(Merge(merged(peak, map[string]interface{}{
			"FUNC_PEAK_SHAVING": false,
		})))

		assert.Equal(t, []types.TimeSlot{slot("17:00", "20:30")}, wm.PeakShaving,
			"raw slot list should carry configured windows even when disabled")
		assert.False(t, wm.PeakShavingEnabled)
		require.Len(t, wm.Schedule, 1)
		assert.Equal(t, ModeSelfConsumption, wm.Schedule[0].Mode)
	})

	t.Run("boolean true enables", func(t *testing.T) {
		wm := Reconstruct(Merge(merged(peak, map[string]interface{}{
			"FUNC_PEAK_SHAVING": true,
		})))

		assert.True(t, wm.PeakShavingEnabled)
		assert.Contains(t, wm.Schedule, seg(ModePeakShaving, "17:00", "20:30"))
	})

	t.Run("string true enables", func(t *testing.T) {
		wm := Reconstruct(Merge(merged(peak, map[string]interface{}{
			"FUNC_PEAK_SHAVING": "true",
		})))

		assert.True(t, wm.PeakShavingEnabled)
		assert.Contains(t, wm.Schedule, seg(ModePeakShaving, "17:00", "20:30"))
	})

	t.Run("anything else is off", func(t *testing.T) {
		for _, v := range []interface{}{"1", float64(1), "TRUE", "yes"} {
			wm := Reconstruct(Merge(merged(peak, map[string]interface{}{
				"FUNC_PEAK_SHAVING": v,
			})))

			assert.False(t, wm.PeakShavingEnabled, "value %v should not enable", v)
			require.Len(t, wm.Schedule, 1, "value %v should not enable", v)
		}
	})
}

func TestReconstructMultipleFamilies(t *testing.T) {
	wm := Reconstruct(Merge(merged(
		acWindow("", 1, 0, 3, 0),
		map[string]interface{}{
			"HOLD_FORCED_DISCHG_START_HOUR":   float64(18),
			"HOLD_FORCED_DISCHG_START_MINUTE": float64(0),
			"HOLD_FORCED_DISCHG_END_HOUR":     float64(21),
			"HOLD_FORCED_DISCHG_END_MINUTE":   float64(0),
			"FUNC_FORCED_DISCHG_EN":           true,
			"HOLD_PEAK_SHAVING_START_HOUR":    float64(8),
			"HOLD_PEAK_SHAVING_START_MINUTE":  float64(30),
			"HOLD_PEAK_SHAVING_END_HOUR":      float64(11),
			"HOLD_PEAK_SHAVING_END_MINUTE":    float64(0),
			"FUNC_PEAK_SHAVING":               true,
		},
	)))

	expected := []types.ModeSegment{
		seg(ModeSelfConsumption, "00:00", "01:00"),
		seg(ModeACCharge, "01:00", "03:00"),
		seg(ModeSelfConsumption, "03:00", "08:30"),
		seg(ModePeakShaving, "08:30", "11:00"),
		seg(ModeSelfConsumption, "11:00", "18:00"),
		seg(ModeForcedDischarge, "18:00", "21:00"),
		seg(ModeSelfConsumption, "21:00", "24:00"),
	}
	require.Equal(t, expected, wm.Schedule)

	// The schedule must read continuously: each segment picks up exactly
	// where the previous one ended.
	for i := 1; i < len(wm.Schedule); i++ {
		assert.Equal(t, wm.Schedule[i-1].End, wm.Schedule[i].Start,
			"segment %d should start where segment %d ended", i, i-1)
	}
	assert.Equal(t, "00:00", wm.Schedule[0].Start)
	assert.Equal(t, "24:00", wm.Schedule[len(wm.Schedule)-1].End)
}

func TestReconstructEqualStartsKeepFamilyOrder(t *testing.T) {
	wm := Reconstruct(Merge(merged(
		acWindow("", 6, 0, 7, 0),
		map[string]interface{}{
			"HOLD_FORCED_CHG_START_HOUR":   float64(6),
			"HOLD_FORCED_CHG_START_MINUTE": float64(0),
			"HOLD_FORCED_CHG_END_HOUR":     float64(8),
			"HOLD_FORCED_CHG_END_MINUTE":   float64(0),
			"FUNC_FORCED_CHG_EN":           true,
		},
	)))

	require.GreaterOrEqual(t, len(wm.Schedule), 3)
	assert.Equal(t, seg(ModeACCharge, "06:00", "07:00"), wm.Schedule[1],
		"on equal starts AC Charge should sort before Forced Charge")
	assert.Equal(t, seg(ModeForcedCharge, "06:00", "08:00"), wm.Schedule[2])
}

func TestReconstructOverlapPassesThrough(t *testing.T) {
	// Two AC windows overlap; the walk emits the second as-is with no
	// filler and no correction.
	wm := Reconstruct(Merge(merged(
		acWindow("", 1, 0, 5, 0),
		acWindow("_1", 4, 0, 6, 0),
	)))

	expected := []types.ModeSegment{
		seg(ModeSelfConsumption, "00:00", "01:00"),
		seg(ModeACCharge, "01:00", "05:00"),
		seg(ModeACCharge, "04:00", "06:00"),
		seg(ModeSelfConsumption, "06:00", "24:00"),
	}
	assert.Equal(t, expected, wm.Schedule)
}

func TestReconstructDayBoundaries(t *testing.T) {
	t.Run("window ending at midnight leaves no trailing filler", func(t *testing.T) {
		// End hour 0 means the cursor lands back on 00:00, which also
		// suppresses the trailing filler, leaving the evening uncovered.
		wm := Reconstruct(Merge(acWindow("", 23, 0, 0, 0)))

		expected := []types.ModeSegment{
			seg(ModeSelfConsumption, "00:00", "23:00"),
			seg(ModeACCharge, "23:00", "00:00"),
		}
		assert.Equal(t, expected, wm.Schedule)
	})

	t.Run("window ending at 24:00 needs no filler", func(t *testing.T) {
		wm := Reconstruct(Merge(acWindow("", 22, 0, 24, 0)))

		expected := []types.ModeSegment{
			seg(ModeSelfConsumption, "00:00", "22:00"),
			seg(ModeACCharge, "22:00", "24:00"),
		}
		assert.Equal(t, expected, wm.Schedule)
	})

	t.Run("window starting at 00:00 needs no leading filler", func(t *testing.T) {
		wm := Reconstruct(Merge(acWindow("", 0, 0, 2, 0)))

		expected := []types.ModeSegment{
			seg(ModeACCharge, "00:00", "02:00"),
			seg(ModeSelfConsumption, "02:00", "24:00"),
		}
		assert.Equal(t, expected, wm.Schedule)
	})
}

func TestReconstructStringRegisters(t *testing.T) {
	// The vendor sometimes returns register values as strings.
	wm := Reconstruct(Merge(map[string]interface{}{
		"HOLD_AC_CHARGE_START_HOUR":   "1",
		"HOLD_AC_CHARGE_START_MINUTE": "30",
		"HOLD_AC_CHARGE_END_HOUR":     "4",
		"HOLD_AC_CHARGE_END_MINUTE":   "0",
	}))

	assert.Equal(t, []types.TimeSlot{slot("01:30", "04:00")}, wm.ACCharge)
}

func TestReconstructBatterySettings(t *testing.T) {
	wm := Reconstruct(Merge(map[string]interface{}{
		"HOLD_AC_CHARGE_START_BATTERY_SOC":     float64(20),
		"HOLD_AC_CHARGE_END_BATTERY_SOC":       float64(85),
		"HOLD_AC_CHARGE_START_BATTERY_VOLTAGE": 48.5,
		"HOLD_AC_CHARGE_END_BATTERY_VOLTAGE":   53.2,
		"HOLD_PEAK_SHAVING_POWER_LIMIT":        3.5,
		"HOLD_PEAK_SHAVING_SOC_LIMIT":          float64(30),
		"fwCode":                               "FAAB-1E1E",
		"deviceTime":                           "2024-03-01 12:00:00",
	}))

	assert.Equal(t, types.BatterySettings{
		ACChargeStartSOC:     20,
		ACChargeEndSOC:       85,
		ACChargeStartVoltage: 48.5,
		ACChargeEndVoltage:   53.2,
		PeakShavingPower:     3.5,
		PeakShavingSOC:       30,
		// second pair absent, defaults to zero
	}, wm.BatterySettings)
	assert.Equal(t, "FAAB-1E1E", wm.Firmware)
	assert.Equal(t, "2024-03-01 12:00:00", wm.DeviceTime)
}
