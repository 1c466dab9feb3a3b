// pkg/api/ticks_v1.go
package api

// TickV1 is the stable JSON/JSONL schema for one simulated tick.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type TickV1 struct {
	RunID    string   `json:"run_id,omitempty"`
	Tick     int      `json:"tick"`
	Cycle    *int     `json:"cycle,omitempty"` // watched slot's cycle index, floor(tick / cycle_time)
	RackHeat float64  `json:"rack_heat"`
	Slots    []SlotV1 `json:"slots"`
}

// SlotV1 is the readout of one rack slot at a tick.
type SlotV1 struct {
	Slot       int           `json:"slot"`
	Name       string        `json:"name"`
	Alive      float64       `json:"alive"`    // P(damage < hp)
	Expected   float64       `json:"expected"` // E[damage]
	Green      bool          `json:"green,omitempty"`
	Generating bool          `json:"generating,omitempty"`
	Cycling    bool          `json:"cycling,omitempty"`
	Over       []ThresholdV1 `json:"over,omitempty"`
}

// ThresholdV1 is P(damage > Level).
type ThresholdV1 struct {
	Level  float64 `json:"level"`
	Chance float64 `json:"chance"`
}

// RunV1 is the single-document JSON schema for a whole run.
type RunV1 struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario,omitempty"`
	Slots       []string  `json:"slots"`
	Attenuation float64   `json:"attenuation"`
	Thresholds  []float64 `json:"thresholds,omitempty"`
	Ticks       []TickV1  `json:"ticks"`
}
