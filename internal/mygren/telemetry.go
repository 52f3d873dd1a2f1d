package mygren

import "strings"

// Telemetry is a snapshot of the heat pump's runtime variables as returned
// by GET /api/telemetry.
//
// The document is a flat JSON object of several dozen registers whose set
// varies with firmware version and installed options, so it is kept as a
// raw map with typed accessors rather than a fixed struct. Missing keys
// return zero values; callers that need presence use Has.
//
// Well-known keys include:
//
//	Tint, TintAvg       interior temperature / average
//	Text, TextAvg       exterior temperature / average
//	Tbuf, Ttuv          buffer tank / hot water temperature
//	comfort             comfort setpoint (with comfort_setmin/setmax bounds)
//	tuv_set             hot water setpoint (with tuv_setmin/setmax bounds)
//	program             active program name
//	available_programs  list of program names
//	curve, shift        equithermal curve number and shift
//	hp_enabled          heat pump master enable
//	tuv_enabled         hot water heating enable
//	heating, cooling, compressor, heatneed, tuvneedheat  run flags
//	tariff, tariffwatch tariff state and watcher enable
//	mar_version, display_version, hostname  firmware identity
type Telemetry map[string]any

// Has reports whether the key is present in the snapshot.
func (t Telemetry) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Float returns the value as a float64, or 0 if absent or non-numeric.
// JSON numbers always decode as float64; integer-typed Go values are
// accepted for snapshots constructed in code.
func (t Telemetry) Float(key string) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the value truncated to an int, or 0 if absent or non-numeric.
func (t Telemetry) Int(key string) int {
	return int(t.Float(key))
}

// Bool returns the truthiness of the value.
//
// The firmware is inconsistent about flag encoding across registers, so
// this accepts: bool true, any nonzero number, and the strings "1",
// "true", "on" (case-insensitive). Everything else, including absence,
// is false.
func (t Telemetry) Bool(key string) bool {
	switch v := t[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		switch strings.ToLower(v) {
		case "1", "true", "on":
			return true
		}
	}
	return false
}

// String returns the value as a string, or "" if absent or not a string.
func (t Telemetry) String(key string) string {
	if v, ok := t[key].(string); ok {
		return v
	}
	return ""
}

// StringList returns the value as a string slice. JSON arrays decode as
// []any, so elements are filtered to strings; non-string elements are
// skipped. Returns nil if the key is absent or not an array.
func (t Telemetry) StringList(key string) []string {
	raw, ok := t[key].([]any)
	if !ok {
		// Already-typed slices appear in snapshots constructed in code.
		if typed, ok := t[key].([]string); ok {
			return typed
		}
		return nil
	}

	list := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			list = append(list, s)
		}
	}
	return list
}

// FloatOr returns the value as a float64, or fallback if the key is absent
// or non-numeric. Used for bound registers with documented defaults
// (comfort_setmin/setmax, tuv_setmin/setmax).
func (t Telemetry) FloatOr(key string, fallback float64) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}
