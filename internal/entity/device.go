package entity

import "github.com/nerrad567/mygren-bridge/internal/mygren"

// Device describes the physical heat pump for discovery payloads and
// API responses. All entities belong to the single device.
type Device struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SWVersion    string `json:"sw_version"`
}

// DeviceInfo builds the device description, reading the firmware version
// from telemetry when available.
func DeviceInfo(id, name string, tel mygren.Telemetry) Device {
	sw := tel.String("mar_version")
	if sw == "" {
		sw = "Unknown"
	}
	return Device{
		ID:           id,
		Name:         name,
		Manufacturer: "Mygren (AI Trade s.r.o.)",
		Model:        "SMARTHUB 06",
		SWVersion:    sw,
	}
}
