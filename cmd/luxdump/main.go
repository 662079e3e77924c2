package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/levenlabs/go-lflag"

	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/monitor"
)

// luxdump logs into the LuxPower API once, lists the visible stations on
// stderr and dumps the reconstructed schedule plus a realtime snapshot for
// one inverter as JSON on stdout.
func main() {
	m := monitor.Configured()
	account := lflag.RequiredString("account", "LuxPower account name")
	password := lflag.RequiredString("password", "LuxPower account password")
	serialNum := lflag.String("serial", "", "Inverter to dump, defaults to the first station")
	lflag.Configure()
	log.SetLevelFromFlags()

	ctx := context.Background()

	if err := m.Login(ctx, *account, *password); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "login failed", "error", err)
		os.Exit(1)
	}

	stations, err := m.ListStations(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list stations", "error", err)
		os.Exit(1)
	}
	if len(stations) == 0 {
		log.Ctx(ctx).ErrorContext(ctx, "account has no inverters")
		os.Exit(1)
	}
	for _, st := range stations {
		fmt.Fprintf(os.Stderr, "%s (%s, %s)\n", st.DisplayName, st.DeviceType, st.StatusText)
	}

	sn := *serialNum
	if sn == "" {
		sn = stations[0].SerialNum
	}
	m.SelectStation(sn)

	modes, err := m.GetWorkingModes(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read working modes", "error", err)
		os.Exit(1)
	}
	rt, err := m.GetRealtime(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read realtime data", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{
		"serialNum":    sn,
		"workingModes": modes,
		"realtime":     rt,
	}); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to encode output", "error", err)
		os.Exit(1)
	}
}
