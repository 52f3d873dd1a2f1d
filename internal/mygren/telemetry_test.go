package mygren

import (
	"encoding/json"
	"reflect"
	"testing"
)

// sampleTelemetry decodes a representative telemetry document the way the
// client does, so accessor tests see real JSON-decoded types.
func sampleTelemetry(t *testing.T) Telemetry {
	t.Helper()

	raw := `{
		"Tint": 21.5,
		"Tbuf": 38.0,
		"Ttuv": 47,
		"comfort": 22,
		"curve": 3,
		"shift": -2,
		"hp_enabled": true,
		"tuv_enabled": 1,
		"tariffwatch": "on",
		"heating": 0,
		"program": "Manual_comfort",
		"available_programs": ["Off", "Manual_comfort", "Cooling_comfort"],
		"hostname": "mar-unit"
	}`

	var tel Telemetry
	if err := json.Unmarshal([]byte(raw), &tel); err != nil {
		t.Fatalf("unmarshal sample telemetry: %v", err)
	}
	return tel
}

// =============================================================================
// Accessor Tests
// =============================================================================

func TestTelemetryFloat(t *testing.T) {
	tel := sampleTelemetry(t)

	tests := []struct {
		key  string
		want float64
	}{
		{"Tint", 21.5},
		{"Ttuv", 47},
		{"shift", -2},
		{"missing", 0},
		{"program", 0}, // non-numeric
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tel.Float(tt.key); got != tt.want {
				t.Errorf("Float(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestTelemetryInt(t *testing.T) {
	tel := sampleTelemetry(t)

	if got := tel.Int("curve"); got != 3 {
		t.Errorf("Int(curve) = %d, want 3", got)
	}
	if got := tel.Int("shift"); got != -2 {
		t.Errorf("Int(shift) = %d, want -2", got)
	}
	if got := tel.Int("Tint"); got != 21 {
		t.Errorf("Int(Tint) = %d, want 21 (truncated)", got)
	}
}

func TestTelemetryBool(t *testing.T) {
	tel := sampleTelemetry(t)

	tests := []struct {
		key  string
		want bool
	}{
		{"hp_enabled", true},   // JSON bool
		{"tuv_enabled", true},  // nonzero number
		{"tariffwatch", true},  // string "on"
		{"heating", false},     // zero number
		{"program", false},     // arbitrary string
		{"missing", false},     // absent
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tel.Bool(tt.key); got != tt.want {
				t.Errorf("Bool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestTelemetryString(t *testing.T) {
	tel := sampleTelemetry(t)

	if got := tel.String("program"); got != "Manual_comfort" {
		t.Errorf("String(program) = %q, want %q", got, "Manual_comfort")
	}
	if got := tel.String("Tint"); got != "" {
		t.Errorf("String(Tint) = %q, want empty for non-string", got)
	}
	if got := tel.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
}

func TestTelemetryStringList(t *testing.T) {
	tel := sampleTelemetry(t)

	want := []string{"Off", "Manual_comfort", "Cooling_comfort"}
	if got := tel.StringList("available_programs"); !reflect.DeepEqual(got, want) {
		t.Errorf("StringList(available_programs) = %v, want %v", got, want)
	}

	if got := tel.StringList("missing"); got != nil {
		t.Errorf("StringList(missing) = %v, want nil", got)
	}
	if got := tel.StringList("program"); got != nil {
		t.Errorf("StringList(program) = %v, want nil for non-array", got)
	}
}

func TestTelemetryStringListTyped(t *testing.T) {
	// Snapshots built in code (tests, fakes) carry []string directly.
	tel := Telemetry{"available_programs": []string{"Off", "Manual_comfort"}}

	want := []string{"Off", "Manual_comfort"}
	if got := tel.StringList("available_programs"); !reflect.DeepEqual(got, want) {
		t.Errorf("StringList = %v, want %v", got, want)
	}
}

func TestTelemetryFloatOr(t *testing.T) {
	tel := sampleTelemetry(t)

	if got := tel.FloatOr("comfort", 99); got != 22 {
		t.Errorf("FloatOr(comfort, 99) = %v, want 22", got)
	}
	if got := tel.FloatOr("comfort_setmin", 15); got != 15 {
		t.Errorf("FloatOr(comfort_setmin, 15) = %v, want fallback 15", got)
	}
	if got := tel.FloatOr("hostname", 7); got != 7 {
		t.Errorf("FloatOr(hostname, 7) = %v, want fallback for non-numeric", got)
	}
}

func TestTelemetryHas(t *testing.T) {
	tel := sampleTelemetry(t)

	if !tel.Has("Tint") {
		t.Error("Has(Tint) = false, want true")
	}
	if tel.Has("Tprimary_in") {
		t.Error("Has(Tprimary_in) = true, want false")
	}
}
