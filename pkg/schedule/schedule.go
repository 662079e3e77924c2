// Package schedule rebuilds a full-day working-mode timeline from the flat
// time-window registers of a LuxPower inverter. The inverter stores up to a
// handful of windows per mode as start/end hour/minute register quadruples;
// everything outside a configured window is the inverter's default Self
// Consumption behavior, which only exists here as synthesized filler.
package schedule

import (
	"fmt"
	"sort"

	"github.com/luxbridge/luxbridge/pkg/types"
)

// Mode names as shown to clients.
const (
	ModeSelfConsumption = "Self Consumption"
	ModeACCharge        = "AC Charge"
	ModePeakShaving     = "Peak Shaving"
	ModeForcedCharge    = "Forced Charge"
	ModeForcedDischarge = "Forced Discharge"
)

const (
	dayStart = "00:00"
	dayEnd   = "24:00"
)

// Register family prefixes and the function bits that gate them.
const (
	regACCharge        = "HOLD_AC_CHARGE"
	regPeakShaving     = "HOLD_PEAK_SHAVING"
	regForcedCharge    = "HOLD_FORCED_CHG"
	regForcedDischarge = "HOLD_FORCED_DISCHG"

	funcPeakShaving     = "FUNC_PEAK_SHAVING"
	funcForcedCharge    = "FUNC_FORCED_CHG_EN"
	funcForcedDischarge = "FUNC_FORCED_DISCHG_EN"
)

// Reconstruct builds the working-modes view from a merged register bag.
// The per-family slot lists carry every configured window whether or not
// the family's function bit is on; only the assembled schedule is gated.
func Reconstruct(regs *Registers) types.WorkingModes {
	wm := types.WorkingModes{
		ACCharge:           slots(regs, regACCharge, 3),
		PeakShaving:        slots(regs, regPeakShaving, 2),
		ForcedCharge:       slots(regs, regForcedCharge, 2),
		ForcedDischarge:    slots(regs, regForcedDischarge, 2),
		PeakShavingEnabled: regs.Bool(funcPeakShaving),
		BatterySettings:    batterySettings(regs),
		Firmware:           regs.String("fwCode"),
		DeviceTime:         regs.String("deviceTime"),
	}

	var pooled []types.ModeSegment
	appendSlots := func(mode string, sl []types.TimeSlot, enabled bool) {
		if !enabled {
			return
		}
		for _, s := range sl {
			pooled = append(pooled, types.ModeSegment{Mode: mode, TimeSlot: s})
		}
	}
	// AC Charge has no function bit and is always scheduled.
	appendSlots(ModeACCharge, wm.ACCharge, true)
	appendSlots(ModePeakShaving, wm.PeakShaving, wm.PeakShavingEnabled)
	appendSlots(ModeForcedCharge, wm.ForcedCharge, regs.Bool(funcForcedCharge))
	appendSlots(ModeForcedDischarge, wm.ForcedDischarge, regs.Bool(funcForcedDischarge))

	// Fixed-width HH:MM makes lexicographic order chronological. The stable
	// sort keeps the family order above when starts are equal.
	sort.SliceStable(pooled, func(i, j int) bool {
		return pooled[i].Start < pooled[j].Start
	})

	wm.Schedule = fillDay(pooled)
	return wm
}

// slots extracts up to count windows for one register family. The first
// slot's registers are unsuffixed, later ones carry _1, _2, and so on. A
// window whose start equals its end is an unused slot and is dropped.
func slots(regs *Registers, prefix string, count int) []types.TimeSlot {
	var out []types.TimeSlot
	for i := 0; i < count; i++ {
		suffix := ""
		if i > 0 {
			suffix = fmt.Sprintf("_%d", i)
		}
		startHour := regs.Int(prefix + "_START_HOUR" + suffix)
		startMinute := regs.Int(prefix + "_START_MINUTE" + suffix)
		endHour := regs.Int(prefix + "_END_HOUR" + suffix)
		endMinute := regs.Int(prefix + "_END_MINUTE" + suffix)
		if startHour == endHour && startMinute == endMinute {
			continue
		}
		out = append(out, types.TimeSlot{
			Start: clock(startHour, startMinute),
			End:   clock(endHour, endMinute),
		})
	}
	return out
}

// clock renders register hour/minute values zero-padded.
func clock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// fillDay walks the sorted segments and fills every gap with Self
// Consumption so the timeline reads continuously from 00:00.
func fillDay(segments []types.ModeSegment) []types.ModeSegment {
	cursor := dayStart
	out := make([]types.ModeSegment, 0, 2*len(segments)+1)
	for _, seg := range segments {
		if seg.Start > cursor {
			out = append(out, selfConsumption(cursor, seg.Start))
		}
		// A segment starting at or before the cursor is emitted as-is, so
		// overlapping windows on a misconfigured inverter come through
		// overlapping here too.
		// TODO: decide whether overlapping windows should be rejected.
		out = append(out, seg)
		cursor = seg.End
	}
	if cursor < dayEnd && cursor != dayStart {
		out = append(out, selfConsumption(cursor, dayEnd))
	}
	if len(out) == 0 {
		out = append(out, selfConsumption(dayStart, dayEnd))
	}
	return out
}

func selfConsumption(start, end string) types.ModeSegment {
	return types.ModeSegment{
		Mode:     ModeSelfConsumption,
		TimeSlot: types.TimeSlot{Start: start, End: end},
	}
}

func batterySettings(regs *Registers) types.BatterySettings {
	return types.BatterySettings{
		ACChargeStartSOC:     regs.Int(regACCharge + "_START_BATTERY_SOC"),
		ACChargeEndSOC:       regs.Int(regACCharge + "_END_BATTERY_SOC"),
		ACChargeStartVoltage: regs.Float(regACCharge + "_START_BATTERY_VOLTAGE"),
		ACChargeEndVoltage:   regs.Float(regACCharge + "_END_BATTERY_VOLTAGE"),
		PeakShavingPower:     regs.Float(regPeakShaving + "_POWER_LIMIT"),
		PeakShavingSOC:       regs.Int(regPeakShaving + "_SOC_LIMIT"),
		PeakShavingPower1:    regs.Float(regPeakShaving + "_POWER_LIMIT_1"),
		PeakShavingSOC1:      regs.Int(regPeakShaving + "_SOC_LIMIT_1"),
	}
}
