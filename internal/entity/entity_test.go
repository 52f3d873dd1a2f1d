package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// fakeController records setter calls for assertions.
type fakeController struct {
	mu    sync.Mutex
	calls []string
	// err, when set, is returned by every setter.
	err error
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeController) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeController) SetTUVTemperature(_ context.Context, t int) error {
	return f.record(fmt.Sprintf("tuv_set=%d", t))
}
func (f *fakeController) SetTUVEnabled(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("tuv_enabled=%v", on))
}
func (f *fakeController) SetTUVSchedulerEnabled(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("tuv_scheduler=%v", on))
}
func (f *fakeController) SetProgram(_ context.Context, p string) error {
	return f.record("program=" + p)
}
func (f *fakeController) SetCurve(_ context.Context, v int) error {
	return f.record(fmt.Sprintf("curve=%d", v))
}
func (f *fakeController) SetShift(_ context.Context, v int) error {
	return f.record(fmt.Sprintf("shift=%d", v))
}
func (f *fakeController) SetManualTemperature(_ context.Context, t int) error {
	return f.record(fmt.Sprintf("manual=%d", t))
}
func (f *fakeController) SetComfortTemperature(_ context.Context, t int) error {
	return f.record(fmt.Sprintf("comfort=%d", t))
}
func (f *fakeController) SetProgramSchedulerEnabled(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("program_scheduler=%v", on))
}
func (f *fakeController) SetHeatpumpEnabled(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("hp_enabled=%v", on))
}
func (f *fakeController) SetTariffWatch(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("tariff_watch=%v", on))
}

// fakeRefresher counts refresh requests.
type fakeRefresher struct {
	mu    sync.Mutex
	count int
}

func (f *fakeRefresher) RequestRefresh() {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
}

func (f *fakeRefresher) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// heatingSnapshot is a typical snapshot with the circuit heating.
func heatingSnapshot() mygren.Telemetry {
	return mygren.Telemetry{
		"hp_enabled":         true,
		"program":            "Manual_comfort",
		"available_programs": []string{"Off", "Manual_comfort", "Cooling_comfort"},
		"Tint":               21.5,
		"Tbuf":               38.0,
		"comfort":            22.0,
		"comfort_setmin":     10.0,
		"comfort_setmax":     30.0,
		"heating":            true,
		"compressor":         true,
		"Ttuv":               47.0,
		"tuv_set":            48.0,
		"tuv_setmin":         30.0,
		"tuv_setmax":         50.0,
		"tuv_enabled":        true,
		"tuvneedheat":        false,
		"curve":              3.0,
		"shift":              -2.0,
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
